package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/citegest/internal/loader"
	"github.com/dgallion1/citegest/internal/modes"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	// SHA-256 of empty input is well-known.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewGenerateJob(modes.Request{Mode: modes.Insight})
	if job.Status != StatusQueued {
		t.Fatalf("expected new job to be queued, got %q", job.Status)
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusGenerating, "generating"},
		{StatusSaving, "saving"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}

	select {
	case <-job.Done():
	default:
		t.Error("expected Done to be closed after a terminal status")
	}
	// A second terminal transition must not panic on the closed channel.
	job.SetStatus(StatusFailed, "late")
}

func TestJob_Fail(t *testing.T) {
	job := NewIngestJob("c.txt", "chapter_section", loader.Metadata{}, []byte("x"))
	cause := errors.New("boom")
	job.Fail("parsing", cause)
	if job.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Status)
	}
	_, err := job.Result()
	if !errors.Is(err, cause) {
		t.Errorf("expected Result error to be the cause, got %v", err)
	}
	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 1 || snap.Progress.Errors[0] != "parsing: boom" {
		t.Errorf("unexpected errors %v", snap.Progress.Errors)
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("attempt 1 failed")
	job.AddError("attempt 2 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "attempt 1 failed" {
		t.Errorf("expected first error %q, got %q", "attempt 1 failed", snap.Progress.Errors[0])
	}
}

func TestJob_IncrAttempts(t *testing.T) {
	job := &Job{ID: "incr-test", UpdatedAt: time.Now()}
	job.IncrAttempts()
	job.IncrAttempts()
	job.IncrAttempts()

	snap := job.Snapshot()
	if snap.Progress.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", snap.Progress.Attempts)
	}
}

func TestJob_SetStructure(t *testing.T) {
	job := &Job{ID: "structure-test", UpdatedAt: time.Now()}
	job.SetStructure(3, 42)

	snap := job.Snapshot()
	if snap.Progress.Chapters != 3 || snap.Progress.Sections != 42 {
		t.Errorf("expected 3 chapters and 42 sections, got %+v", snap.Progress)
	}
}

func TestJob_FileData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("file content here")
	job.SetFileData(data)
	got := job.FileData()
	if string(got) != string(data) {
		t.Errorf("expected file data %q, got %q", data, got)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestNewID_Ordered(t *testing.T) {
	now := time.Now()
	a := NewID(now)
	b := NewID(now)
	if len(a) != 26 {
		t.Errorf("expected 26-character id, got %q", a)
	}
	if a >= b {
		t.Errorf("expected ids minted in order to sort in order: %q >= %q", a, b)
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
