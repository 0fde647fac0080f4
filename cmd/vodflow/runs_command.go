package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"vodflow/internal/runstore"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent transcode runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := runstore.Open(cfg.Paths.StateDir)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRecent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No transcode runs recorded yet.")
				return nil
			}

			fmt.Fprintln(out, renderRunsTable(runs, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

// renderRunsTable lays out run history rows. All columns are textual, so the
// default left alignment applies throughout.
func renderRunsTable(runs []*runstore.Run, colorize bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Started", "Title", "Status", "Job", "Streaming URL"})
	for _, run := range runs {
		tw.AppendRow(table.Row{
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.DisplayTitle,
			renderStatus(run.Status, colorize),
			run.JobID,
			run.StreamingPath,
		})
	}
	return tw.Render()
}

func renderStatus(status runstore.Status, colorize bool) string {
	label := strings.ToUpper(string(status))
	if !colorize {
		return label
	}
	switch status {
	case runstore.StatusCompleted:
		return ansiGreen + label + ansiReset
	case runstore.StatusFailed:
		return ansiRed + label + ansiReset
	case runstore.StatusRunning:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
