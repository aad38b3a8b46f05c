package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/modes"
	"github.com/dgallion1/citegest/internal/retriever"
)

// Worker processes one job at a time.
type Worker struct {
	deps       Deps
	maxRetries int
	log        *slog.Logger

	// backoff is replaced in tests.
	backoff func(int) time.Duration
}

func NewWorker(deps Deps, maxRetries int, log *slog.Logger) *Worker {
	if maxRetries <= 0 {
		maxRetries = MaxRetries
	}
	return &Worker{deps: deps, maxRetries: maxRetries, log: log, backoff: Backoff}
}

// Process runs the job to a terminal status.
func (w *Worker) Process(ctx context.Context, job *Job) {
	switch job.Kind {
	case KindIngest:
		w.ingest(ctx, job)
	case KindGenerate:
		w.generate(ctx, job)
	default:
		job.Fail("dispatch", errs.NewInvalidInput("pipeline.Process", "unknown job kind "+string(job.Kind)))
	}
}

// ingest parses the uploaded file and publishes it as the active document.
// Readers holding the previous snapshot are unaffected.
func (w *Worker) ingest(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename, "strategy", job.Strategy)

	// Phase 1: Dedup against the active document.
	data := job.FileData()
	hash := ContentHashHex(append([]byte(job.Strategy+"\n"), data...))
	job.SetContentHash(hash)
	if cur := w.deps.Documents.Current(); cur != nil && cur.ContentHash == hash {
		log.Info("document already active, skipping", "content_hash", hash)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.deps.Loader.LoadFile(bytes.NewReader(data), job.Filename, job.Strategy, job.Metadata)
	if err != nil {
		log.Error("load failed", "error", err)
		job.Fail("parsing", err)
		return
	}
	if err := doc.Validate(); err != nil {
		log.Error("document failed validation", "error", err)
		job.Fail("parsing", err)
		return
	}
	job.SetStructure(doc.ChapterCount(), doc.SectionCount())
	if err := ctx.Err(); err != nil {
		job.Fail("parsing", err)
		return
	}

	// Phase 3: Publish
	job.SetStatus(StatusPublishing, "publishing")
	prev, ok := w.deps.Documents.PublishIfChanged(&retriever.Snapshot{
		Retriever:   retriever.New(doc, w.deps.Retrieval),
		ContentHash: hash,
		Strategy:    job.Strategy,
		LoadedAt:    time.Now(),
	})
	if !ok {
		// A concurrent ingest published the same content first.
		log.Info("document already active, skipping", "content_hash", hash)
		job.SetFileData(nil)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}
	replaced := ""
	if prev != nil {
		replaced = prev.Retriever.Document().Name
	}
	job.SetFileData(nil)
	log.Info("document published", "document", doc.Name, "sections", doc.SectionCount(), "replaced", replaced)
	job.SetStatus(StatusCompleted, "done")
}

// generate runs one generation with retries on retryable provider errors,
// then saves the result once.
func (w *Worker) generate(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "mode", job.Request.Mode)

	snap := w.deps.Documents.Current()
	if snap == nil {
		job.Fail("generating", errs.NewNotFound("document", "active"))
		return
	}

	job.SetStatus(StatusGenerating, "generating")
	var out *modes.GeneratedContent
	err := retry(ctx, w.maxRetries, w.backoff, log, func() error {
		job.IncrAttempts()
		var err error
		out, err = w.deps.Generator.Generate(ctx, snap.Retriever, job.Request)
		return err
	})
	if err != nil {
		log.Error("generation failed", "error", err)
		job.Fail("generating", err)
		return
	}

	saved := false
	if w.deps.Drafts != nil {
		job.SetStatus(StatusSaving, "saving")
		if err := w.deps.Drafts.Save(ctx, out); err != nil {
			log.Error("draft save failed", "id", out.ID, "error", err)
			job.AddError("save: " + err.Error())
		} else {
			saved = true
		}
	}
	job.SetResult(out, saved)
	log.Info("generation complete", "id", out.ID, "status", out.Status, "saved", saved)
	job.SetStatus(StatusCompleted, "done")
}
