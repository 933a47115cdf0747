package main

import (
	"log/slog"
	"strings"
	"sync"

	"shelfmark/internal/audioprobe"
	"shelfmark/internal/config"
	"shelfmark/internal/logging"
	"shelfmark/internal/organizer"
	"shelfmark/internal/oracle"
	"shelfmark/internal/pipeline"
	"shelfmark/internal/queue"
	"shelfmark/internal/scanner"
	"shelfmark/internal/sources"
	"shelfmark/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			path = config.DefaultConfigPath()
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the queue store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewForFiles(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
}

// buildPipeline assembles the verification pipeline. The oracle layer is
// wired only when an API key is configured; lookup providers register here
// as they become available.
func buildPipeline(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*pipeline.Pipeline, error) {
	var srcs []sources.Source
	gatherer := sources.NewGatherer(srcs, sources.NewRateLimiter(cfg.RateLimit.MinDelaySeconds), logger)

	var orc oracle.Oracle
	if strings.TrimSpace(cfg.Oracle.APIKey) != "" {
		client, err := oracle.NewClient(cfg.Oracle)
		if err != nil {
			return nil, err
		}
		orc = client
	} else if cfg.LayerEnabled(pipeline.LayerOracle) {
		logger.Warn("oracle layer enabled but no api key configured; items will skip to the next layer")
	}

	var transcriber audioprobe.Transcriber
	if cfg.LayerEnabled(pipeline.LayerAudio) {
		transcriber = audioprobe.NewWhisper(cfg.Transcription, cfg.FFmpegBinary())
	}

	org := organizer.New(store, cfg, logger)
	return pipeline.New(cfg, store, org, gatherer, orc, transcriber, logger), nil
}

func buildManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*workflow.Manager, error) {
	pipe, err := buildPipeline(cfg, store, logger)
	if err != nil {
		return nil, err
	}
	sc := scanner.New(store, cfg, logger)
	return workflow.NewManager(cfg, store, pipe, sc, logger), nil
}
