// Package jobs is an in-memory job queue: one background goroutine per
// submission, bounded progress log, polled over HTTP.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// maxProgressMessages bounds each job's progress log.
const maxProgressMessages = 200

// ProgressEntry is one timestamped progress message.
type ProgressEntry struct {
	TS  time.Time `json:"ts"`
	Msg string    `json:"msg"`
}

// Job is the externally visible job state.
type Job struct {
	ID        string          `json:"job_id"`
	Status    Status          `json:"status"`
	SourceURL string          `json:"source_url"`
	Created   time.Time       `json:"created"`
	Error     string          `json:"error,omitempty"`
	Result    any             `json:"result,omitempty"`
	Progress  []ProgressEntry `json:"progress"`
}

type jobState struct {
	mu       sync.Mutex
	job      Job
	progress []ProgressEntry
}

func (s *jobState) log(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, ProgressEntry{TS: time.Now(), Msg: msg})
	if len(s.progress) > maxProgressMessages {
		s.progress = s.progress[len(s.progress)-maxProgressMessages:]
	}
}

// RunFunc is the work a job performs. It reports progress through report and
// returns the job's result payload.
type RunFunc func(ctx context.Context, report func(msg string)) (any, error)

// Store tracks jobs by ID. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	jobs map[string]*jobState
}

func NewStore() *Store {
	return &Store{jobs: map[string]*jobState{}}
}

// Submit registers a job and starts it on its own goroutine. The returned
// snapshot has status queued; poll Get for updates.
func (s *Store) Submit(ctx context.Context, sourceURL string, run RunFunc) Job {
	st := &jobState{job: Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		SourceURL: sourceURL,
		Created:   time.Now(),
	}}
	s.mu.Lock()
	s.jobs[st.job.ID] = st
	s.mu.Unlock()

	go s.execute(ctx, st, run)
	return s.snapshot(st)
}

func (s *Store) execute(ctx context.Context, st *jobState, run RunFunc) {
	st.mu.Lock()
	st.job.Status = StatusRunning
	st.mu.Unlock()

	result, err := run(ctx, st.log)

	st.mu.Lock()
	defer st.mu.Unlock()
	if err != nil {
		st.job.Status = StatusFailed
		st.job.Error = err.Error()
		log.Warn().Str("job", st.job.ID).Err(err).Msg("job failed")
		return
	}
	st.job.Status = StatusCompleted
	st.job.Result = result
	log.Info().Str("job", st.job.ID).Msg("job completed")
}

// Get returns a snapshot of one job.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.Lock()
	st, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return Job{}, false
	}
	return s.snapshot(st), true
}

func (s *Store) snapshot(st *jobState) Job {
	st.mu.Lock()
	defer st.mu.Unlock()
	j := st.job
	j.Progress = append([]ProgressEntry(nil), st.progress...)
	return j
}
