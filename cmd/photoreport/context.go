package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"photoreport/internal/config"
	"photoreport/internal/logging"
	"photoreport/internal/report"
	"photoreport/internal/session"
	"photoreport/internal/storage"
)

type commandContext struct {
	configFlag   *string
	clientFlag   *string
	propertyFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, clientFlag, propertyFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		clientFlag:   clientFlag,
		propertyFlag: propertyFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// logger builds the command logger. Long-running commands also log to
// stderr; one-shot edits only append to the log file so their output stays
// readable.
func (c *commandContext) logger(console bool) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if console {
		return logging.NewFromConfig(cfg)
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "photoreport.log")},
	})
}

func (c *commandContext) reportIdentity() (client, property string) {
	if c.clientFlag != nil {
		client = strings.TrimSpace(*c.clientFlag)
	}
	if c.propertyFlag != nil {
		property = strings.TrimSpace(*c.propertyFlag)
	}
	return client, property
}

// workspace is one report opened from storage for the duration of a command.
type workspace struct {
	cfg    *config.Config
	store  storage.Store
	ctrl   *session.Controller
	logger *slog.Logger
	// loaded is false when no report was stored under the key yet.
	loaded bool
}

// openWorkspace opens storage and loads the report selected by --client and
// --property. A missing report yields a fresh one carrying those names; any
// other load failure aborts so the stored report is never overwritten.
func (c *commandContext) openWorkspace(ctx context.Context, console bool) (*workspace, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(console)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	ctrl := session.NewFromConfig(cfg, store, logger)
	client, property := c.reportIdentity()
	ctrl.UpdateMetadata(func(m *report.Metadata) {
		m.ClientName = client
		m.PropertyName = property
	})

	ws := &workspace{cfg: cfg, store: store, ctrl: ctrl, logger: logger}
	switch err := ctrl.Load(ctx); {
	case err == nil:
		ws.loaded = true
	case errors.Is(err, session.ErrLoadNotFound):
	default:
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", session.Notice(err), err)
	}
	return ws, nil
}

func (w *workspace) Close() error {
	return w.store.Close()
}

// save persists the report and prints the resulting notice.
func (w *workspace) save(cmd *cobra.Command) error {
	err := w.ctrl.Save(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), session.Notice(err))
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// withWorkspace opens the selected report, runs fn, and closes storage.
func (c *commandContext) withWorkspace(cmd *cobra.Command, fn func(*workspace) error) error {
	ws, err := c.openWorkspace(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ws)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
