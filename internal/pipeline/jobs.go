package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/citegest/internal/loader"
	"github.com/dgallion1/citegest/internal/modes"
)

// JobKind selects what a worker does with a job.
type JobKind string

const (
	KindIngest   JobKind = "ingest"
	KindGenerate JobKind = "generate"
)

// JobStatus represents the state of a job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusPublishing JobStatus = "publishing"
	StatusGenerating JobStatus = "generating"
	StatusSaving     JobStatus = "saving"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Terminal reports whether no further transitions follow.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDupSkipped
}

// Job tracks the state of one ingestion or generation.
type Job struct {
	mu sync.Mutex

	ID   string  `json:"job_id"`
	Kind JobKind `json:"kind"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	// Ingest input.
	Filename string          `json:"filename,omitempty"`
	Strategy string          `json:"strategy,omitempty"`
	Metadata loader.Metadata `json:"metadata"`

	// Generate input.
	Request modes.Request `json:"request"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *modes.GeneratedContent
	err      error
	errors   []string
	done     chan struct{}
}

// Progress tracks processing progress.
type Progress struct {
	Chapters int      `json:"chapters"`
	Sections int      `json:"sections"`
	Attempts int      `json:"attempts"`
	Saved    bool     `json:"saved"`
	Errors   []string `json:"errors"`
}

// NewIngestJob builds a queued ingestion job for an uploaded file.
func NewIngestJob(filename, strategyID string, meta loader.Metadata, data []byte) *Job {
	j := newJob(KindIngest)
	j.Filename = filename
	j.Strategy = strategyID
	j.Metadata = meta
	j.fileData = data
	return j
}

// NewGenerateJob builds a queued generation job.
func NewGenerateJob(req modes.Request) *Job {
	j := newJob(KindGenerate)
	j.Request = req
	return j
}

func newJob(kind JobKind) *Job {
	now := time.Now()
	return &Job{
		ID:        NewID(now),
		Kind:      kind,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		done:      make(chan struct{}),
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically. Reaching a terminal status
// releases Wait.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	if status.Terminal() && j.done != nil {
		select {
		case <-j.done:
		default:
			close(j.done)
		}
	}
}

// Fail records err and marks the job failed.
func (j *Job) Fail(phase string, err error) {
	j.mu.Lock()
	j.err = err
	j.mu.Unlock()
	j.AddError(fmt.Sprintf("%s: %s", phase, err))
	j.SetStatus(StatusFailed, phase)
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrAttempts counts one provider attempt.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Attempts++
	j.UpdatedAt = time.Now()
}

// SetStructure records the loaded document's shape.
func (j *Job) SetStructure(chapters, sections int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Chapters = chapters
	j.Progress.Sections = sections
	j.UpdatedAt = time.Now()
}

// SetContentHash records the input's hash.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// SetResult stores the generated content.
func (j *Job) SetResult(c *modes.GeneratedContent, saved bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = c
	j.Progress.Saved = saved
	j.UpdatedAt = time.Now()
}

// Result returns the generated content and the failure, if any.
func (j *Job) Result() (*modes.GeneratedContent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Done is closed once the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} { return j.done }

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string                  `json:"job_id"`
	Kind        JobKind                 `json:"kind"`
	Status      JobStatus               `json:"status"`
	Phase       string                  `json:"phase"`
	Filename    string                  `json:"filename,omitempty"`
	Strategy    string                  `json:"strategy,omitempty"`
	ContentHash string                  `json:"content_hash,omitempty"`
	Progress    Progress                `json:"progress"`
	Result      *modes.GeneratedContent `json:"result,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		Kind:        j.Kind,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Strategy:    j.Strategy,
		ContentHash: j.ContentHash,
		Progress: Progress{
			Chapters: j.Progress.Chapters,
			Sections: j.Progress.Sections,
			Attempts: j.Progress.Attempts,
			Saved:    j.Progress.Saved,
			Errors:   append([]string(nil), errs...),
		},
		Result:    j.result,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
