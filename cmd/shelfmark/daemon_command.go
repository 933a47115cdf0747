package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shelfmark/internal/config"
	"shelfmark/internal/deps"
	"shelfmark/internal/logging"
	"shelfmark/internal/queue"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var skipInitialScan bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the scan and verification loop in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := ctx.logger(cfg)
				if err != nil {
					return err
				}
				for _, status := range deps.Check(deps.For(cfg)) {
					if status.Available {
						continue
					}
					if status.Optional {
						logger.Warn("optional dependency unavailable",
							logging.String("name", status.Name),
							logging.String("detail", status.Detail))
						continue
					}
					return fmt.Errorf("missing dependency %s: %s", status.Name, status.Detail)
				}

				manager, err := buildManager(cfg, store, logger)
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if err := manager.Start(runCtx); err != nil {
					return err
				}
				defer manager.Stop()

				if !skipInitialScan {
					if summary, err := manager.ScanNow(runCtx); err != nil {
						logger.Warn("initial scan failed", logging.Error(err))
					} else {
						logger.Info("initial scan complete",
							logging.Int("books_found", summary.BooksFound),
							logging.Int("new_items", summary.NewItems),
						)
					}
				}

				<-runCtx.Done()
				logger.Info("shutting down")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipInitialScan, "no-scan", false, "Skip the library scan at startup")
	return cmd
}
