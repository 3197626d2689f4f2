package extraction

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"pncpx/internal/eligibility"
	"pncpx/internal/export"
	"pncpx/internal/flatten"
	"pncpx/internal/journal"
	"pncpx/internal/logging"
	"pncpx/internal/pncp"
	"pncpx/internal/services"
)

// Fetcher retrieves one consultation page. *pncp.Client satisfies it.
type Fetcher interface {
	FetchPage(ctx context.Context, query pncp.Query, page int) (*pncp.Page, error)
}

// Runner drives one extraction: sequential fetch, classify, flatten, and
// checkpointed CSV writes. A Runner owns its RunState for the duration of a
// single Run call and is not reusable while a run is in flight.
type Runner struct {
	fetcher    Fetcher
	journal    *journal.Store
	sink       Sink
	logger     *slog.Logger
	outputDir  string
	brEncoding string
	today      time.Time
	clock      func() time.Time

	mu        sync.Mutex
	state     State
	cancelled atomic.Bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSink attaches a progress event sink.
func WithSink(sink Sink) RunnerOption {
	return func(r *Runner) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// WithJournal records runs in the given journal store.
func WithJournal(store *journal.Store) RunnerOption {
	return func(r *Runner) {
		r.journal = store
	}
}

// WithOutputDir sets the directory receiving CSV files.
func WithOutputDir(dir string) RunnerOption {
	return func(r *Runner) {
		if dir != "" {
			r.outputDir = dir
		}
	}
}

// WithBREncoding sets the CSV_BR byte encoding.
func WithBREncoding(encoding string) RunnerOption {
	return func(r *Runner) {
		if encoding != "" {
			r.brEncoding = encoding
		}
	}
}

// WithReferenceDate overrides the classifier's "today". Used by tests.
func WithReferenceDate(today time.Time) RunnerOption {
	return func(r *Runner) {
		r.today = today
	}
}

// NewRunner builds a Runner around a page fetcher.
func NewRunner(fetcher Fetcher, opts ...RunnerOption) *Runner {
	runner := &Runner{
		fetcher:   fetcher,
		sink:      NopSink{},
		logger:    logging.NewNop(),
		outputDir: ".",
		state:     StateIdle,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Cancel requests a graceful stop. The signal is observed between page
// iterations: the in-flight page finishes processing, accumulated rows are
// flushed, and the run ends in StateCancelled.
func (r *Runner) Cancel() {
	r.cancelled.Store(true)
}

func (r *Runner) setState(state State) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

// Run executes one extraction and blocks until it reaches a terminal state.
// The returned error is non-nil only for StateFailed results.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	r.mu.Lock()
	if r.state == StateRunning {
		r.mu.Unlock()
		return nil, errors.New("extraction already running")
	}
	r.state = StateRunning
	r.mu.Unlock()
	r.cancelled.Store(false)

	started := r.clock()
	runID := uuid.NewString()
	logger := logging.WithComponent(r.logger, "extraction").With(logging.String(logging.FieldRunID, runID))

	result := &Result{RunID: runID, State: StateFailed}

	if err := req.Validate(); err != nil {
		return r.finish(ctx, logger, result, nil, started, err)
	}

	lockPath := filepath.Join(r.outputDir, req.OutputBase+".lock")
	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLock()
	if err == nil && !locked {
		err = errors.New("output base is locked by another run")
	}
	if err != nil {
		return r.finish(ctx, logger, result, nil,
			started, services.Wrap(services.ErrConfiguration, "extraction", "lock", lockPath, err))
	}
	defer func() { _ = fileLock.Unlock() }()

	writer, err := export.NewWriter(export.Options{
		Dir:        r.outputDir,
		Base:       req.OutputBase,
		Variants:   export.VariantsForFormat(req.Format),
		BREncoding: r.brEncoding,
	}, req.StartPage)
	if err != nil {
		return r.finish(ctx, logger, result, nil, started, err)
	}

	journalStore := r.journal
	if journalStore != nil {
		if _, err := journalStore.StartRun(ctx, runID, req.FilterSummary(), req.StartPage, req.EndPage); err != nil {
			logger.Warn("journal unavailable, continuing without run history", logging.Error(err))
			journalStore = nil
		}
	}

	today := r.today
	if today.IsZero() {
		today = eligibility.Today()
	}
	query := req.Query()
	esfera := req.Scope.EsferaID()

	logger.Info("extraction started",
		logging.Int("start_page", req.StartPage),
		logging.Int("end_page", req.EndPage),
		logging.Int("checkpoint_pages", req.CheckpointPages),
	)

	state := runState{page: req.StartPage, lastPage: req.StartPage - 1}
	for {
		if ctx.Err() != nil || r.cancelled.Load() {
			return r.finishCancelled(ctx, logger, result, writer, journalStore, &state, started, req)
		}

		page, err := r.fetcher.FetchPage(ctx, query, state.page)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return r.finishCancelled(ctx, logger, result, writer, journalStore, &state, started, req)
			}
			// Best-effort flush of what already accumulated.
			if _, flushErr := writer.Finalize(max(state.lastPage, req.StartPage)); flushErr == nil {
				result.Outputs = writer.Paths()
			}
			state.fill(result)
			return r.finish(ctx, logger, result, journalStore, started, err)
		}

		if state.totalPages == 0 && page.TotalPages > 0 {
			state.totalPages = page.TotalPages
		}

		accepted := 0
		for _, raw := range page.Records {
			record, ok := raw.(map[string]any)
			if !ok {
				state.skipped++
				logger.Warn("skipping record with unexpected shape",
					logging.Int(logging.FieldPage, state.page),
					logging.Error(services.Wrap(services.ErrDataShape, "extraction", "record", "item is not an object", nil)),
				)
				continue
			}
			if esfera != "" {
				if sphere := pncp.EsferaOf(record); sphere != "" && sphere != esfera {
					continue
				}
			}
			if !eligibility.IsClosed(record, today) {
				continue
			}
			writer.Append(flatten.Record(record))
			accepted++
		}

		state.lastPage = state.page
		state.pagesDone++
		state.rows += int64(accepted)
		r.emitProgress(logger, &state, req, page, accepted, started)

		if state.pagesDone%req.CheckpointPages == 0 {
			paths, err := writer.Checkpoint(state.lastPage)
			if err != nil {
				state.fill(result)
				result.Outputs = writer.Paths()
				return r.finish(ctx, logger, result, journalStore, started, err)
			}
			if len(paths) > 0 {
				r.sink.CheckpointSaved(state.lastPage, int64(writer.RowCount()), paths)
				logger.Info("checkpoint saved",
					logging.Int(logging.FieldPage, state.lastPage),
					logging.Int(logging.FieldRows, writer.RowCount()),
				)
			}
			r.recordProgress(ctx, journalStore, runID, logger, &state, writer)
		}

		if page.Last(state.page) || (req.EndPage != 0 && state.page >= req.EndPage) {
			break
		}
		state.page++
	}

	outputs, err := writer.Finalize(max(state.lastPage, req.StartPage))
	if err != nil {
		state.fill(result)
		result.Outputs = writer.Paths()
		return r.finish(ctx, logger, result, journalStore, started, err)
	}

	result.State = StateCompleted
	state.fill(result)
	result.Outputs = outputs
	return r.finish(ctx, logger, result, journalStore, started, nil)
}

// runState is the mutable bookkeeping for one run. It lives on the Run
// stack, is never shared, and dies with the run.
type runState struct {
	page       int
	lastPage   int
	pagesDone  int
	totalPages int
	rows       int64
	skipped    int64
}

func (s *runState) fill(result *Result) {
	result.Pages = s.pagesDone
	result.Rows = s.rows
	result.Skipped = s.skipped
}

func (r *Runner) emitProgress(logger *slog.Logger, state *runState, req Request, page *pncp.Page, accepted int, started time.Time) {
	elapsed := r.clock().Sub(started)

	total := state.totalPages
	if total == 0 && req.EndPage != 0 {
		total = req.EndPage
	}
	var eta time.Duration
	hasETA := false
	if total > 0 && state.pagesDone > 0 {
		remaining := total - state.lastPage
		if remaining < 0 {
			remaining = 0
		}
		eta = time.Duration(remaining) * (elapsed / time.Duration(state.pagesDone))
		hasETA = true
	}

	progress := PageProgress{
		Page:       state.lastPage,
		TotalPages: total,
		Fetched:    len(page.Records),
		Accepted:   accepted,
		TotalRows:  state.rows,
		Elapsed:    elapsed,
		ETA:        eta,
		HasETA:     hasETA,
	}
	r.sink.PageProcessed(progress)
	logger.Info("page processed",
		logging.Int(logging.FieldPage, state.lastPage),
		logging.Int("fetched", len(page.Records)),
		logging.Int("accepted", accepted),
		logging.Int64(logging.FieldRows, state.rows),
	)
}

func (r *Runner) finishCancelled(ctx context.Context, logger *slog.Logger, result *Result, writer *export.Writer, store *journal.Store, state *runState, started time.Time, req Request) (*Result, error) {
	outputs, err := writer.Finalize(max(state.lastPage, req.StartPage))
	if err != nil {
		logger.Warn("final flush failed during cancellation", logging.Error(err))
		outputs = writer.Paths()
	}
	result.State = StateCancelled
	state.fill(result)
	result.Outputs = outputs

	r.finishJournal(ctx, store, result)
	r.setState(StateCancelled)
	logger.Info("extraction cancelled",
		logging.Int("pages", state.pagesDone),
		logging.Int64(logging.FieldRows, state.rows),
	)
	result.Elapsed = r.clock().Sub(started)
	r.sink.RunFinished(*result)
	return result, nil
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, result *Result, store *journal.Store, started time.Time, err error) (*Result, error) {
	if err != nil {
		result.State = StateFailed
		result.Err = err
		result.ErrorKind = services.Classify(err)
		logger.Error("extraction failed",
			logging.String("classification", result.ErrorKind),
			logging.Error(err),
		)
	} else {
		logger.Info("extraction completed",
			logging.Int("pages", result.Pages),
			logging.Int64(logging.FieldRows, result.Rows),
		)
	}

	r.finishJournal(ctx, store, result)
	r.setState(result.State)
	result.Elapsed = r.clock().Sub(started)
	r.sink.RunFinished(*result)
	return result, err
}

func (r *Runner) finishJournal(ctx context.Context, store *journal.Store, result *Result) {
	if store == nil {
		return
	}
	status := map[State]journal.Status{
		StateCompleted: journal.StatusCompleted,
		StateCancelled: journal.StatusCancelled,
		StateFailed:    journal.StatusFailed,
	}[result.State]

	var message string
	if result.Err != nil {
		message = result.Err.Error()
	}
	err := store.FinishRun(ctx, result.RunID, status, result.Pages, result.Rows, result.Skipped,
		result.Outputs, result.ErrorKind, message)
	if err != nil {
		r.logger.Warn("journal finish failed", logging.Error(err))
	}
}

func (r *Runner) recordProgress(ctx context.Context, store *journal.Store, runID string, logger *slog.Logger, state *runState, writer *export.Writer) {
	if store == nil {
		return
	}
	if err := store.UpdateProgress(ctx, runID, state.pagesDone, state.rows, state.skipped, writer.Paths()); err != nil {
		logger.Warn("journal progress update failed", logging.Error(err))
	}
}
