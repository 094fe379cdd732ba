package jobmanager

import (
	"sync"
	"time"
)

// LiveJob is the in-memory mirror of a job, created at submission or
// recovery. It carries the change-notifier the push channel waits on.
// The durable row is authoritative; this mirror exists for cheap reads
// and edge-triggered notification.
type LiveJob struct {
	JobID        string
	Status       string
	AssetID      *int64
	ResultURL    string
	ErrorMessage string
	CreatedAt    time.Time

	// notify is a single-slot edge-triggered signal. Mutators set it after
	// commit; multiple updates before a consumer wakes coalesce into one.
	notify chan struct{}
}

// Notify exposes the change-notifier channel for observers.
func (j *LiveJob) Notify() <-chan struct{} {
	return j.notify
}

// ClearNotify drains a pending edge so the next wait observes only
// subsequent updates.
func (j *LiveJob) ClearNotify() {
	select {
	case <-j.notify:
	default:
	}
}

// LiveUpdate is a partial overlay for a live job. Nil fields are untouched.
type LiveUpdate struct {
	Status       *string
	AssetID      *int64
	ResultURL    *string
	ErrorMessage *string
}

// LiveSnapshot is a consistent copy of a live job's observable fields.
type LiveSnapshot struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	AssetID      *int64 `json:"asset_id"`
	ResultURL    string `json:"result_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Registry mirrors the durable store for live jobs. A single mutex spans
// map mutation and notifier fire. Entries are never garbage-collected; a
// process restart is the only way to drop them.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*LiveJob
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*LiveJob)}
}

// Create registers a live job. New jobs are externally visible as "pending"
// until a worker picks them up.
func (r *Registry) Create(jobID string) *LiveJob {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := &LiveJob{
		JobID:     jobID,
		Status:    "pending",
		CreatedAt: time.Now(),
		notify:    make(chan struct{}, 1),
	}
	r.jobs[jobID] = job
	return job
}

// Update overlays the partial fields and fires the job's change-notifier
// exactly once. Updates to unknown ids are ignored.
func (r *Registry) Update(jobID string, update LiveUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return
	}

	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.AssetID != nil {
		job.AssetID = update.AssetID
	}
	if update.ResultURL != nil {
		job.ResultURL = *update.ResultURL
	}
	if update.ErrorMessage != nil {
		job.ErrorMessage = *update.ErrorMessage
	}

	// Edge-triggered, coalescing: a pending, unconsumed edge absorbs this one.
	select {
	case job.notify <- struct{}{}:
	default:
	}
}

// Get returns the live job by reference, or nil.
func (r *Registry) Get(jobID string) *LiveJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[jobID]
}

// Snapshot returns a consistent copy of the job's observable fields.
func (r *Registry) Snapshot(jobID string) (LiveSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return LiveSnapshot{}, false
	}
	return LiveSnapshot{
		JobID:        job.JobID,
		Status:       job.Status,
		AssetID:      job.AssetID,
		ResultURL:    job.ResultURL,
		ErrorMessage: job.ErrorMessage,
	}, true
}
