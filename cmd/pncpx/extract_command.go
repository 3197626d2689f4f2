package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pncpx/internal/extraction"
	"pncpx/internal/journal"
	"pncpx/internal/logging"
	"pncpx/internal/pncp"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		modality   int
		scope      string
		uf         string
		ibge       string
		year       int
		fromDate   string
		toDate     string
		startPage  int
		endPage    int
		checkpoint int
		outputBase string
		outputDir  string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract closed procurements into CSV files",
		Long: `Extract walks the PNCP consultation API page by page for the selected
modality, scope, and period, keeps only procurements whose proposal window has
closed, and writes the flattened records as CSV. Progress is checkpointed so
an interrupted run still leaves a usable file behind.

Press Ctrl-C once for a graceful stop after the current page; twice to abort.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			req := extraction.Request{
				Modality:        modality,
				Scope:           pncp.Scope(strings.ToLower(strings.TrimSpace(scope))),
				UF:              uf,
				IBGECode:        ibge,
				Year:            year,
				StartPage:       startPage,
				EndPage:         endPage,
				CheckpointPages: checkpoint,
				OutputBase:      strings.TrimSpace(outputBase),
				Format:          format,
			}
			if req.CheckpointPages == 0 {
				req.CheckpointPages = cfg.Output.CheckpointPages
			}
			if req.Format == "" {
				req.Format = cfg.Output.Format
			}
			if req.OutputBase == "" {
				req.OutputBase = "pncp_" + time.Now().Format("20060102_150405")
			}
			if req.StartDate, err = parseDateFlag(fromDate); err != nil {
				return err
			}
			if req.EndDate, err = parseDateFlag(toDate); err != nil {
				return err
			}

			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = cfg.Output.Dir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory %q: %w", dir, err)
			}

			logger, err := ctx.buildLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			client, err := pncp.New(cfg.API.BaseURL,
				pncp.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.API.RequestTimeout) * time.Second}),
				pncp.WithRetryPolicy(cfg.API.MaxRetries, time.Duration(cfg.API.RetryBackoffSeconds)*time.Second),
				pncp.WithUserAgent(cfg.API.UserAgent),
				pncp.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			var store *journal.Store
			if cfg.Journal.Enabled {
				store, err = journal.Open(cfg.Journal.Path)
				if err != nil {
					logger.Warn("run journal unavailable", logging.Error(err))
				} else {
					defer store.Close()
				}
			}

			printer := newProgressPrinter(cmd.OutOrStdout())
			runner := extraction.NewRunner(client,
				extraction.WithLogger(logger),
				extraction.WithSink(printer),
				extraction.WithJournal(store),
				extraction.WithOutputDir(dir),
				extraction.WithBREncoding(cfg.Output.BREncoding),
			)

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			stop := watchInterrupts(runCtx, runner, cancel, cmd.ErrOrStderr())
			defer stop()

			result, err := runner.Run(runCtx, req)
			printer.finish()
			if result != nil {
				printSummary(cmd, result)
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&modality, "modality", "m", 0, "Contracting modality code (list them with the modalities command)")
	cmd.Flags().StringVarP(&scope, "scope", "s", "", "Administrative sphere: municipal, estadual, federal, or distrital")
	cmd.Flags().StringVar(&uf, "uf", "", "Two-letter state code, or BR for the whole country")
	cmd.Flags().StringVar(&ibge, "ibge", "", "Seven-digit IBGE municipality code (municipal scope only)")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Publication year shortcut for the full January-December range")
	cmd.Flags().StringVar(&fromDate, "from", "", "Start of the publication period (YYYY-MM-DD or DD/MM/YYYY)")
	cmd.Flags().StringVar(&toDate, "to", "", "End of the publication period (YYYY-MM-DD or DD/MM/YYYY)")
	cmd.Flags().IntVar(&startPage, "start-page", 1, "First API page to fetch")
	cmd.Flags().IntVar(&endPage, "end-page", 0, "Last API page to fetch (0 = until the data runs out)")
	cmd.Flags().IntVar(&checkpoint, "checkpoint", 0, "Pages between checkpoint writes (0 = config default)")
	cmd.Flags().StringVarP(&outputBase, "output", "o", "", "Output filename stem (default pncp_<timestamp>)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory receiving CSV files (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output variants: csv, csv_br, or both (default from config)")

	_ = cmd.MarkFlagRequired("modality")
	_ = cmd.MarkFlagRequired("scope")

	return cmd
}

// watchInterrupts wires the two-stage stop: the first SIGINT/SIGTERM asks the
// runner for a graceful stop at the next page boundary, the second aborts the
// in-flight request by cancelling the context.
func watchInterrupts(ctx context.Context, runner *extraction.Runner, cancel context.CancelFunc, errOut io.Writer) func() {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-signals:
			fmt.Fprintln(errOut, "stopping after the current page (interrupt again to abort)")
			runner.Cancel()
		case <-ctx.Done():
			return
		}
		select {
		case <-signals:
			fmt.Fprintln(errOut, "aborting")
			cancel()
		case <-ctx.Done():
		}
	}()

	return func() { signal.Stop(signals) }
}

func printSummary(cmd *cobra.Command, result *extraction.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s\n", result.RunID, result.State)
	fmt.Fprintln(out, renderTable(
		[]string{"Pages", "Rows", "Skipped", "Elapsed"},
		[][]string{{
			strconv.Itoa(result.Pages),
			strconv.FormatInt(result.Rows, 10),
			strconv.FormatInt(result.Skipped, 10),
			result.Elapsed.Round(time.Second).String(),
		}},
		1, 2, 3,
	))
	for _, path := range result.Outputs {
		fmt.Fprintf(out, "wrote %s\n", path)
	}
}

// parseDateFlag accepts ISO dates and the DD/MM/YYYY form common in Brazilian
// sources. Empty input yields the zero time.
func parseDateFlag(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or DD/MM/YYYY", value)
}
