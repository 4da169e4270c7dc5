package local

import (
	"context"
	"testing"

	"github.com/newswire/newswire/pkg/durable"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(&Config{InMemory: true}, nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := New(&Config{}, nil); err == nil {
		t.Error("expected error for empty path without in-memory mode")
	}
}

func TestCreateAndDescribe(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if err := e.Create(ctx, "pipeline-1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	status, err := e.Describe(ctx, "pipeline-1")
	if err != nil {
		t.Fatalf("describe failed: %v", err)
	}
	if status != durable.StatusRunning {
		t.Errorf("status = %v, want running", status)
	}
}

func TestCreateRunningConflict(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if err := e.Create(ctx, "pipeline-1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err := e.Create(ctx, "pipeline-1")
	if !durable.IsAlreadyExistsError(err) {
		t.Errorf("expected AlreadyExistsError, got %v", err)
	}
}

func TestCreateEmptyID(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Create(context.Background(), ""); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestDescribeNotFound(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Describe(context.Background(), "missing")
	if !durable.IsNotFoundError(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if err := e.Create(ctx, "pipeline-1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := e.Cancel(ctx, "pipeline-1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	status, err := e.Describe(ctx, "pipeline-1")
	if err != nil {
		t.Fatalf("describe failed: %v", err)
	}
	if status != durable.StatusCancelled {
		t.Errorf("status = %v, want cancelled", status)
	}
}

func TestCancelIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// Cancelling a missing instance is a no-op.
	if err := e.Cancel(ctx, "missing"); err != nil {
		t.Errorf("cancel of missing instance failed: %v", err)
	}

	if err := e.Create(ctx, "pipeline-1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := e.Cancel(ctx, "pipeline-1"); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if err := e.Cancel(ctx, "pipeline-1"); err != nil {
		t.Errorf("second cancel failed: %v", err)
	}
}

func TestCreateAfterTerminal(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if err := e.Create(ctx, "pipeline-1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := e.Cancel(ctx, "pipeline-1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// A terminal record may be replaced by a new running instance.
	if err := e.Create(ctx, "pipeline-1"); err != nil {
		t.Errorf("create after terminal failed: %v", err)
	}

	status, err := e.Describe(ctx, "pipeline-1")
	if err != nil {
		t.Fatalf("describe failed: %v", err)
	}
	if status != durable.StatusRunning {
		t.Errorf("status = %v, want running", status)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	e, err := New(&Config{Path: dir}, nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if err := e.Create(ctx, "pipeline-1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := New(&Config{Path: dir}, nil)
	if err != nil {
		t.Fatalf("failed to reopen engine: %v", err)
	}
	defer reopened.Close()

	status, err := reopened.Describe(ctx, "pipeline-1")
	if err != nil {
		t.Fatalf("describe after reopen failed: %v", err)
	}
	if status != durable.StatusRunning {
		t.Errorf("status after reopen = %v, want running", status)
	}
}
