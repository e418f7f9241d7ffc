package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStorage()
	c.normalizeImages()
	c.normalizeHEIC()
	if c.Report.PlaceholderSlots < 0 {
		c.Report.PlaceholderSlots = 0
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if value, ok := lookupEnv("PHOTOREPORT_BIND"); ok {
		c.Server.Bind = value
	}
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = defaultWatchDebounceMS
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := lookupEnv("PHOTOREPORT_DATA_DIR"); ok {
		c.Paths.DataDir = value
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if strings.TrimSpace(c.Paths.DropDir) == "" {
		c.Paths.DropDir = defaultDropDir
	}

	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.DropDir, err = expandPath(c.Paths.DropDir); err != nil {
		return fmt.Errorf("paths.drop_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() {
	if value, ok := lookupEnv("PHOTOREPORT_STORAGE_BACKEND"); ok {
		c.Storage.Backend = value
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	if value, ok := lookupEnv("PHOTOREPORT_QUOTA_BYTES"); ok {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			c.Storage.QuotaBytes = parsed
		}
	}
}

func (c *Config) normalizeImages() {
	if c.Images.PreviewMaxSide == 0 {
		c.Images.PreviewMaxSide = defaultPreviewMaxSide
	}
	if c.Images.PreviewQuality == 0 {
		c.Images.PreviewQuality = defaultPreviewQuality
	}
	if c.Images.PrintMaxSide == 0 {
		c.Images.PrintMaxSide = defaultPrintMaxSide
	}
	if c.Images.PrintQuality == 0 {
		c.Images.PrintQuality = defaultPrintQuality
	}
}

func (c *Config) normalizeHEIC() {
	if value, ok := lookupEnv("PHOTOREPORT_HEIC_CONVERTER"); ok {
		c.HEIC.Converter = value
	}
	c.HEIC.Converter = strings.TrimSpace(c.HEIC.Converter)
	if c.HEIC.Quality == 0 {
		c.HEIC.Quality = defaultHEICQuality
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := lookupEnv("PHOTOREPORT_LOG_LEVEL"); ok {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
