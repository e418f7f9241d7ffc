package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	DropDir string `toml:"drop_dir"`
}

// Storage selects and bounds the report persistence backend.
type Storage struct {
	// Backend is one of "sqlite", "file", or "memory".
	Backend string `toml:"backend"`
	// QuotaBytes caps the total bytes of stored reports. Zero disables the cap.
	QuotaBytes int64 `toml:"quota_bytes"`
	// SQLiteMaxPages maps to PRAGMA max_page_count. Zero keeps the SQLite default.
	SQLiteMaxPages int `toml:"sqlite_max_pages"`
}

// Images contains the raster variant parameters.
type Images struct {
	PreviewMaxSide int     `toml:"preview_max_side"`
	PreviewQuality float64 `toml:"preview_quality"`
	PrintMaxSide   int     `toml:"print_max_side"`
	PrintQuality   float64 `toml:"print_quality"`
}

// HEIC configures the external HEIC/HEIF converter.
type HEIC struct {
	Converter string  `toml:"converter"`
	Quality   float64 `toml:"quality"`
}

// Report contains authoring defaults.
type Report struct {
	PlaceholderSlots int `toml:"placeholder_slots"`
}

// Server contains the local workbench bind address.
type Server struct {
	Bind string `toml:"bind"`
}

// Watch configures the drop-folder watcher.
type Watch struct {
	DebounceMillis int `toml:"debounce_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for photoreport.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and drop-folder directories
//   - Storage: persistence backend and capacity limits
//   - Images: preview/print variant sizes and JPEG qualities
//   - HEIC: external converter binary and quality
//   - Report: placeholder slot count for fresh reports
//   - Server: local workbench bind address
//   - Watch: drop-folder debounce
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Storage Storage `toml:"storage"`
	Images  Images  `toml:"images"`
	HEIC    HEIC    `toml:"heic"`
	Report  Report  `toml:"report"`
	Server  Server  `toml:"server"`
	Watch   Watch   `toml:"watch"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/photoreport/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	// A missing .env file is the common case.
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("photoreport.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories. The drop folder is
// created lazily by the watcher.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ReportsDir returns the directory used by the file storage backend.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.Paths.DataDir, "reports")
}

// DatabasePath returns the SQLite database location used by the sqlite backend.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "reports.db")
}

// LockPath returns the single-instance lock file for long-running commands.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "photoreport.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
