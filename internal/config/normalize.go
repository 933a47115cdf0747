package config

import "strings"

func (c *Config) normalize() {
	for i, root := range c.Paths.LibraryRoots {
		c.Paths.LibraryRoots[i] = expandPath(strings.TrimSpace(root))
	}
	c.Paths.WatchDir = expandPath(strings.TrimSpace(c.Paths.WatchDir))
	c.Paths.LogDir = expandPath(strings.TrimSpace(c.Paths.LogDir))
	c.Paths.ReviewDir = expandPath(strings.TrimSpace(c.Paths.ReviewDir))

	c.Naming.Format = strings.ToLower(strings.TrimSpace(c.Naming.Format))
	if c.Naming.Format == "" {
		c.Naming.Format = defaultNamingFormat
	}

	layers := make([]string, 0, len(c.Verification.EnabledLayers))
	for _, layer := range c.Verification.EnabledLayers {
		layer = strings.ToLower(strings.TrimSpace(layer))
		if layer != "" {
			layers = append(layers, layer)
		}
	}
	c.Verification.EnabledLayers = layers

	c.Transcription.Command = strings.TrimSpace(c.Transcription.Command)
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}
