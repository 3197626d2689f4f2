package journal_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"pncpx/internal/journal"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStartRunPersistsFilters(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id := uuid.NewString()
	run, err := store.StartRun(ctx, id, map[string]any{"modality": 6, "uf": "SP"}, 1, 0)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.Status != journal.StatusRunning {
		t.Fatalf("new run status = %s, want running", run.Status)
	}
	if run.FiltersJSON == "{}" || run.FiltersJSON == "" {
		t.Fatalf("filters not recorded: %q", run.FiltersJSON)
	}
	if run.CreatedAt.IsZero() {
		t.Fatal("created_at not parsed")
	}
}

func TestProgressAndFinishLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	if _, err := store.StartRun(ctx, id, nil, 3, 10); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	outputs := []string{"/tmp/out_p3-4.csv", "/tmp/out_p3-4_BR.csv"}
	if err := store.UpdateProgress(ctx, id, 2, 87, 1, outputs); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := store.FinishRun(ctx, id, journal.StatusCompleted, 8, 412, 3, outputs, "", ""); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run.Status != journal.StatusCompleted || run.PagesDone != 8 || run.RowsWritten != 412 {
		t.Fatalf("unexpected terminal state: %+v", run)
	}
	if !reflect.DeepEqual(run.Outputs(), outputs) {
		t.Fatalf("outputs round-trip failed: %v", run.Outputs())
	}
}

func TestFinishRunRecordsFailureClassification(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	if _, err := store.StartRun(ctx, id, nil, 1, 0); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.FinishRun(ctx, id, journal.StatusFailed, 4, 100, 0, nil, "transient", "page 5 failed after 5 attempts"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	run, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run.ErrorKind != "transient" || run.ErrorMessage == "" {
		t.Fatalf("failure not recorded: %+v", run)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := uuid.NewString()
	second := uuid.NewString()
	if _, err := store.StartRun(ctx, first, nil, 1, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := store.StartRun(ctx, second, nil, 1, 0); err != nil {
		t.Fatal(err)
	}

	runs, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second {
		t.Fatalf("expected newest run first, got %s", runs[0].ID)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")
	ctx := context.Background()

	store, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := uuid.NewString()
	if _, err := store.StartRun(ctx, id, nil, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := journal.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetByID(ctx, id); err != nil {
		t.Fatalf("run lost across reopen: %v", err)
	}
}
