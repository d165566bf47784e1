package http

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
)

// DefaultJobCapacity is the number of batch jobs kept in memory
const DefaultJobCapacity = 50

// JobState is the lifecycle state of a web batch job
type JobState string

const (
	JobStateRunning JobState = "running"
	JobStateDone    JobState = "done"
	JobStateFailed  JobState = "failed"
)

// BatchJob is a batch started from the web form, updated as rows finish
type BatchJob struct {
	ID        string                 `json:"id"`
	State     JobState               `json:"state"`
	Source    string                 `json:"source"`
	Total     int                    `json:"total"`
	Rows      []model.BatchRowStatus `json:"rows"`
	Final     string                 `json:"final,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Done reports whether the job has finished
func (j BatchJob) Done() bool {
	return j.State == JobStateDone || j.State == JobStateFailed
}

// JobStore keeps batch jobs in memory. The oldest finished jobs are evicted
// once capacity is exceeded.
type JobStore struct {
	mu       sync.RWMutex
	jobs     map[string]*BatchJob
	capacity int
}

func NewJobStore(capacity int) *JobStore {
	if capacity <= 0 {
		capacity = DefaultJobCapacity
	}
	return &JobStore{
		jobs:     make(map[string]*BatchJob),
		capacity: capacity,
	}
}

// Create registers a running job for total rows and returns its ID
func (s *JobStore) Create(source string, total int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.jobs[id] = &BatchJob{
		ID:        id,
		State:     JobStateRunning,
		Source:    source,
		Total:     total,
		CreatedAt: time.Now(),
	}
	s.evict()
	return id
}

// AppendRow adds a finished row status to a job
func (s *JobStore) AppendRow(id string, status model.BatchRowStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[id]; ok {
		job.Rows = append(job.Rows, status)
	}
}

// Finish marks a job done with the final batch result
func (s *JobStore) Finish(id string, result *model.BatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.State = JobStateDone
	job.Rows = append([]model.BatchRowStatus(nil), result.Rows...)
	job.Final = result.FinalStatus()
}

// Fail marks a job that stopped without a batch result. Rows already
// reported are kept.
func (s *JobStore) Fail(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Done() {
		return
	}
	job.State = JobStateFailed
	job.Final = reason
}

// Get returns a snapshot of a job
func (s *JobStore) Get(id string) (BatchJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return BatchJob{}, false
	}
	snapshot := *job
	snapshot.Rows = append([]model.BatchRowStatus(nil), job.Rows...)
	return snapshot, true
}

// evict drops the oldest finished jobs above capacity. Callers hold s.mu.
func (s *JobStore) evict() {
	if len(s.jobs) <= s.capacity {
		return
	}

	var finished []*BatchJob
	for _, job := range s.jobs {
		if job.Done() {
			finished = append(finished, job)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].CreatedAt.Before(finished[j].CreatedAt)
	})

	for _, job := range finished {
		if len(s.jobs) <= s.capacity {
			break
		}
		delete(s.jobs, job.ID)
	}
}
