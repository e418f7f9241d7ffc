package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if c.HEIC.Quality <= 0 || c.HEIC.Quality > 1 {
		return errors.New("heic.quality must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (use sqlite, file, or memory)", c.Storage.Backend)
	}
	if c.Storage.QuotaBytes < 0 {
		return errors.New("storage.quota_bytes must be >= 0")
	}
	if c.Storage.SQLiteMaxPages < 0 {
		return errors.New("storage.sqlite_max_pages must be >= 0")
	}
	return nil
}

func (c *Config) validateImages() error {
	if err := ensurePositiveMap(map[string]int{
		"images.preview_max_side": c.Images.PreviewMaxSide,
		"images.print_max_side":   c.Images.PrintMaxSide,
	}); err != nil {
		return err
	}
	for key, value := range map[string]float64{
		"images.preview_quality": c.Images.PreviewQuality,
		"images.print_quality":   c.Images.PrintQuality,
	} {
		if value <= 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", key)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
