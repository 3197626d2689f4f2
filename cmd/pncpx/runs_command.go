package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pncpx/internal/journal"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recorded extraction runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return errors.New("run journal is disabled in the configuration")
			}

			store, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, runsPayload(runs))
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					string(run.Status),
					strconv.Itoa(run.PagesDone),
					strconv.FormatInt(run.RowsWritten, 10),
					strconv.FormatInt(run.RowsSkipped, 10),
					runProblem(run),
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Status", "Pages", "Rows", "Skipped", "Problem", "Started"},
				rows, 3, 4, 5,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

type runView struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Pages   int      `json:"pages"`
	Rows    int64    `json:"rows"`
	Skipped int64    `json:"skipped"`
	Filters string   `json:"filters,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
	Error   string   `json:"error,omitempty"`
	Created string   `json:"created_at"`
}

func runsPayload(runs []*journal.Run) []runView {
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, runView{
			ID:      run.ID,
			Status:  string(run.Status),
			Pages:   run.PagesDone,
			Rows:    run.RowsWritten,
			Skipped: run.RowsSkipped,
			Filters: run.FiltersJSON,
			Outputs: run.Outputs(),
			Error:   runProblem(run),
			Created: run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return views
}

func runProblem(run *journal.Run) string {
	if run.ErrorKind == "" && run.ErrorMessage == "" {
		return ""
	}
	if run.ErrorKind == "" {
		return run.ErrorMessage
	}
	if run.ErrorMessage == "" {
		return run.ErrorKind
	}
	return run.ErrorKind + ": " + truncate(run.ErrorMessage, 60)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return strings.TrimSpace(s[:limit]) + "..."
}
