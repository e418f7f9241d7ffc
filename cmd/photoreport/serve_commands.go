package main

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"photoreport/internal/daemon"
	"photoreport/internal/logging"
	"photoreport/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP workbench for the selected report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if b := strings.TrimSpace(bind); b != "" {
				cfg.Server.Bind = b
			}
			return runDaemon(cmd.Context(), ctx, daemon.Options{Serve: true, Watch: watch})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default from [server] bind)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Also ingest photos dropped into the drop folder")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var noSave bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Add photos dropped into the drop folder to the selected report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), ctx, daemon.Options{Watch: true, AutoSave: !noSave})
		},
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save after each dropped batch")
	return cmd
}

// runDaemon opens the selected report and blocks until SIGINT/SIGTERM.
func runDaemon(parent context.Context, ctx *commandContext, opts daemon.Options) error {
	signalCtx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ws, err := ctx.openWorkspace(signalCtx, true)
	if err != nil {
		return err
	}
	defer ws.Close()

	if failed := preflight.Failed(preflight.RunAll(signalCtx, ws.cfg)); len(failed) > 0 {
		for _, r := range failed {
			logging.WarnWithContext(ws.logger, "preflight check failed", "preflight_failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldImpact, "saving reports may fail"),
			)
		}
	}

	d, err := daemon.New(ws.cfg, ws.ctrl, ws.logger, opts)
	if err != nil {
		return err
	}
	if err := d.Run(signalCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
