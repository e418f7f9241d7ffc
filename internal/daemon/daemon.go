package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"photoreport/internal/config"
	"photoreport/internal/dropzone"
	"photoreport/internal/ingest"
	"photoreport/internal/logging"
	"photoreport/internal/services"
	"photoreport/internal/session"
)

// ErrAlreadyRunning reports that another process holds the data directory lock.
var ErrAlreadyRunning = errors.New("another photoreport instance is already running")

// Options selects which front ends the daemon runs.
type Options struct {
	// Serve starts the HTTP workbench on cfg.Server.Bind.
	Serve bool
	// Watch ingests files dropped into cfg.Paths.DropDir.
	Watch bool
	// AutoSave persists the report after every drop-folder batch.
	AutoSave bool
}

// Daemon coordinates the workbench and drop folder around one controller.
type Daemon struct {
	cfg    *config.Config
	ctrl   *session.Controller
	logger *slog.Logger
	opts   Options

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool

	api     *apiServer
	watcher *dropzone.Watcher

	mu   sync.Mutex
	addr string
}

// New constructs a daemon. At least one of Serve or Watch must be set.
func New(cfg *config.Config, ctrl *session.Controller, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || ctrl == nil {
		return nil, errors.New("daemon requires config and controller")
	}
	if !opts.Serve && !opts.Watch {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "new", "nothing to run: enable serve or watch", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:      cfg,
		ctrl:     ctrl,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		opts:     opts,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	if opts.Serve {
		bind := strings.TrimSpace(cfg.Server.Bind)
		if bind == "" {
			return nil, services.Wrap(services.ErrConfiguration, "daemon", "new", "server bind address is empty", nil)
		}
		d.api = newAPIServer(bind, ctrl, logger)
	}
	if opts.Watch {
		debounce := time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond
		d.watcher = dropzone.New(cfg.Paths.DropDir, debounce, d.handleDrop, logger)
	}
	return d, nil
}

// Handler exposes the workbench routes, or nil when Serve is off.
func (d *Daemon) Handler() http.Handler {
	if d.api == nil {
		return nil
	}
	return d.api.server.Handler
}

// Addr returns the workbench listen address once Run has bound it.
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// Running reports whether Run currently holds the lock.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Run acquires the instance lock and blocks until ctx is cancelled or a
// front end fails.
func (d *Daemon) Run(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	d.running.Store(true)
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
		d.running.Store(false)
		d.logger.Info("photoreport daemon stopped")
	}()

	g, gctx := errgroup.WithContext(ctx)
	if d.api != nil {
		addr, err := d.api.listen()
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.addr = addr
		d.mu.Unlock()
		g.Go(func() error { return d.api.serve(gctx) })
	}
	if d.watcher != nil {
		g.Go(func() error { return d.watcher.Run(gctx) })
	}

	d.logger.Info("photoreport daemon started",
		logging.String("lock", d.lockPath),
		logging.String("addr", d.Addr()),
		logging.Bool("watch", d.watcher != nil),
	)
	return g.Wait()
}

func (d *Daemon) handleDrop(ctx context.Context, files []ingest.File) {
	outcomes := d.ctrl.Ingest(ctx, files)
	if !d.opts.AutoSave || len(ingest.Added(outcomes)) == 0 {
		return
	}
	// Save logs its own warning on failure.
	if d.ctrl.Save(ctx) != nil {
		return
	}
	d.logger.Info(session.NoticeSaved, logging.String(logging.FieldReportKey, d.ctrl.Key()))
}
