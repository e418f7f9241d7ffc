package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"photoreport/internal/ingest"
	"photoreport/internal/printview"
	"photoreport/internal/report"
	"photoreport/internal/session"
	"photoreport/internal/textutil"
)

type metadataFlags struct {
	date       string
	preparedBy string
	summary    string
}

func (f *metadataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Report date")
	cmd.Flags().StringVar(&f.preparedBy, "prepared-by", "", "Inspector name")
	cmd.Flags().StringVar(&f.summary, "summary", "", "Summary paragraph")
}

// apply copies only the flags the user actually passed.
func (f *metadataFlags) apply(cmd *cobra.Command, meta *report.Metadata) {
	if cmd.Flags().Changed("date") {
		meta.ReportDate = f.date
	}
	if cmd.Flags().Changed("prepared-by") {
		meta.PreparedBy = f.preparedBy
	}
	if cmd.Flags().Changed("summary") {
		meta.Summary = f.summary
	}
}

func newReportCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newNewCommand(ctx),
		newSetCommand(ctx),
		newAddCommand(ctx),
		newAddSlotCommand(ctx),
		newReplaceCommand(ctx),
		newCaptionCommand(ctx),
		newRemoveCommand(ctx),
		newShowCommand(ctx),
		newPrintCommand(ctx),
		newClearCommand(ctx),
	}
}

func newNewCommand(ctx *commandContext) *cobra.Command {
	var meta metadataFlags
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a fresh report for --client/--property, replacing any saved one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(cmd, func(ws *workspace) error {
				resetReport(ctx, ws)
				ws.ctrl.UpdateMetadata(func(m *report.Metadata) { meta.apply(cmd, m) })
				return ws.save(cmd)
			})
		},
	}
	meta.register(cmd)
	return cmd
}

func newSetCommand(ctx *commandContext) *cobra.Command {
	var meta metadataFlags
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update report date, inspector, or summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(cmd, func(ws *workspace) error {
				ws.ctrl.UpdateMetadata(func(m *report.Metadata) { meta.apply(cmd, m) })
				return ws.save(cmd)
			})
		},
	}
	meta.register(cmd)
	return cmd
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>...",
		Short: "Add photos ahead of the existing cards",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]ingest.File, 0, len(args))
			for _, path := range args {
				f, err := ingest.ReadFile(path)
				if err != nil {
					return err
				}
				files = append(files, f)
			}
			return ctx.withWorkspace(cmd, func(ws *workspace) error {
				outcomes := ws.ctrl.Ingest(cmd.Context(), files)
				printOutcomes(cmd.OutOrStdout(), outcomes)
				if len(ingest.Added(outcomes)) == 0 {
					return errors.New("no photos were added")
				}
				return ws.save(cmd)
			})
		},
	}
}

func newAddSlotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add-slot [count]",
		Short: "Append empty photo cards",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid slot count %q", args[0])
				}
				count = n
			}
			return ctx.withWorkspace(cmd, func(ws *workspace) error {
				for range count {
					ws.ctrl.AddCard()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d empty card(s); report has %d\n", count, len(ws.ctrl.Cards()))
				return ws.save(cmd)
			})
		},
	}
}

func newReplaceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <index> <file>",
		Short: "Replace the photo of one card, keeping its caption and position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ingest.ReadFile(args[1])
			if err != nil {
				return err
			}
			return ctx.withWorkspace(cmd, func(ws *workspace) error {
				card, err := cardAt(ws, args[0])
				if err != nil {
					return err
				}
				updated, err := ws.ctrl.ReplaceImage(cmd.Context(), card.ID, f)
				if err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), session.Notice(err))
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Replaced photo %s (%s)\n", args[0], updated.SizeLabel)
				return ws.save(cmd)
			})
		},
	}
}

func newCaptionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "caption <index> <text>",
		Short: "Set the caption of one card",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(cmd, func(ws *workspace) error {
				card, err := cardAt(ws, args[0])
				if err != nil {
					return err
				}
				if err := ws.ctrl.SetCaption(card.ID, strings.Join(args[1:], " ")); err != nil {
					return err
				}
				return ws.save(cmd)
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <index>",
		Aliases: []string{"rm"},
		Short:   "Delete one card",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(cmd, func(ws *workspace) error {
				card, err := cardAt(ws, args[0])
				if err != nil {
					return err
				}
				if err := ws.ctrl.RemoveCard(card.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed card %s; report has %d\n", args[0], len(ws.ctrl.Cards()))
				return ws.save(cmd)
			})
		},
	}
}

func newPrintCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Render the report as a printable HTML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(cmd, func(ws *workspace) error {
				target := strings.TrimSpace(outPath)
				if target == "" {
					meta := ws.ctrl.Metadata()
					name := textutil.SanitizeToken(strings.TrimSpace(meta.ClientName + " " + meta.PropertyName))
					if name == "unknown" {
						name = "report"
					}
					target = name + ".html"
				}
				doc, err := ws.ctrl.Print(cmd.Context(), printview.FilePrinter{Path: target})
				if err != nil {
					return fmt.Errorf("print report: %w", err)
				}
				abs, err := filepath.Abs(target)
				if err != nil {
					abs = target
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d photo(s) on %d page(s) to %s\n", doc.EntryCount(), len(doc.Pages), abs)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output HTML path (default: <client>_<property>.html)")
	return cmd
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the saved report for --client/--property",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(cmd, func(ws *workspace) error {
				resetReport(ctx, ws)
				return ws.save(cmd)
			})
		},
	}
}

// resetReport clears every field and card but keeps the report key so the
// following save overwrites the selected report.
func resetReport(ctx *commandContext, ws *workspace) {
	ws.ctrl.Clear()
	client, property := ctx.reportIdentity()
	ws.ctrl.UpdateMetadata(func(m *report.Metadata) {
		m.ClientName = client
		m.PropertyName = property
	})
}

// cardAt resolves a 1-based display index.
func cardAt(ws *workspace, arg string) (report.PhotoCard, error) {
	index, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return report.PhotoCard{}, fmt.Errorf("invalid card index %q", arg)
	}
	card, ok := ws.ctrl.CardAt(index - 1)
	if !ok {
		return report.PhotoCard{}, fmt.Errorf("card %d out of range (report has %d)", index, len(ws.ctrl.Cards()))
	}
	return card, nil
}

func printOutcomes(out io.Writer, outcomes []ingest.Outcome) {
	for _, o := range outcomes {
		switch {
		case o.Card != nil:
			fmt.Fprintf(out, "Added %s (%s)\n", o.Input.Name, o.Card.SizeLabel)
		case errors.Is(o.Err, ingest.ErrNotAnImage):
			fmt.Fprintf(out, "Skipped %s (not an image)\n", o.Input.Name)
		case o.Err != nil:
			fmt.Fprintf(out, "Failed %s: %s\n", o.Input.Name, session.Notice(o.Err))
		}
	}
}
