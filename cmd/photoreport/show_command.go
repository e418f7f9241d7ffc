package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"photoreport/internal/report"
)

type showPhoto struct {
	Index    int    `json:"index"`
	Caption  string `json:"caption"`
	Size     string `json:"size"`
	HasImage bool   `json:"hasImage"`
}

type showReport struct {
	report.Metadata
	Key    string      `json:"key"`
	Saved  bool        `json:"saved"`
	Photos []showPhoto `json:"photos"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the report header and cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(cmd, func(ws *workspace) error {
				snapshot := ws.ctrl.Snapshot()
				view := showReport{
					Metadata: snapshot.Metadata,
					Key:      ws.ctrl.Key(),
					Saved:    ws.loaded,
					Photos:   make([]showPhoto, 0, len(snapshot.Photos)),
				}
				for i, card := range snapshot.Photos {
					view.Photos = append(view.Photos, showPhoto{
						Index:    i + 1,
						Caption:  card.Caption,
						Size:     card.SizeLabel,
						HasImage: card.HasImage(),
					})
				}
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				renderShow(cmd, view)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderShow(cmd *cobra.Command, view showReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Report", colorize) {
		fmt.Fprintln(out, line)
	}
	fields := []struct{ label, value string }{
		{"Client", view.ClientName},
		{"Property", view.PropertyName},
		{"Date", view.ReportDate},
		{"Prepared by", view.PreparedBy},
		{"Summary", view.Summary},
	}
	for _, f := range fields {
		fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, f.label+":", dashIfEmpty(f.value))
	}
	if !view.Saved {
		fmt.Fprintln(out, renderStatusLine("Saved", statusWarn, "not yet saved on this device", colorize))
	}
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(view.Photos))
	for _, p := range view.Photos {
		rows = append(rows, []string{
			strconv.Itoa(p.Index),
			dashIfEmpty(p.Caption),
			dashIfEmpty(p.Size),
			yesNo(p.HasImage),
		})
	}
	withImage := 0
	for _, p := range view.Photos {
		if p.HasImage {
			withImage++
		}
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Caption", "Size", "Photo"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
		fmt.Sprintf("%d photo(s) in %d card(s)", withImage, len(view.Photos)),
	))
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
