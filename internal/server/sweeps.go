package server

import (
	"sort"
	"sync"

	"pairs-trade-lab/internal/sweep"
)

// sweepStatus is the lifecycle state of an async sweep job.
type sweepStatus string

const (
	sweepRunning   sweepStatus = "running"
	sweepCompleted sweepStatus = "completed"
	sweepFailed    sweepStatus = "failed"
)

// progressEvent is one message on a sweep stream. Cell is set for per-cell
// events and empty on the snapshot and final events.
type progressEvent struct {
	SweepID string            `json:"sweep_id"`
	Status  sweepStatus       `json:"status"`
	Done    int               `json:"done"`
	Total   int               `json:"total"`
	Cell    *sweep.CellResult `json:"cell,omitempty"`
}

// sweepState is the status endpoint's view of a job: finished cells in grid
// order plus the counters.
type sweepState struct {
	SweepID string             `json:"sweep_id"`
	Status  sweepStatus        `json:"status"`
	Error   string             `json:"error,omitempty"`
	Done    int                `json:"done"`
	Total   int                `json:"total"`
	Cells   []sweep.CellResult `json:"cells"`
}

// sweepJob tracks one asynchronous sweep execution and fans progress out to
// stream subscribers. Events are delivered to buffered per-subscriber
// channels under the job mutex; a subscriber that stops draining loses
// events instead of stalling the sweep.
type sweepJob struct {
	id    string
	total int

	mu          sync.Mutex
	status      sweepStatus
	err         string
	done        int
	cells       []sweep.CellResult
	subscribers map[chan progressEvent]struct{}
}

func newSweepJob(id string, total int) *sweepJob {
	return &sweepJob{
		id:          id,
		total:       total,
		status:      sweepRunning,
		cells:       make([]sweep.CellResult, 0, total),
		subscribers: make(map[chan progressEvent]struct{}),
	}
}

func (j *sweepJob) snapshot() sweepState {
	j.mu.Lock()
	defer j.mu.Unlock()

	cells := make([]sweep.CellResult, len(j.cells))
	copy(cells, j.cells)
	sort.Slice(cells, func(a, b int) bool { return cells[a].Index < cells[b].Index })

	return sweepState{
		SweepID: j.id,
		Status:  j.status,
		Error:   j.err,
		Done:    j.done,
		Total:   j.total,
		Cells:   cells,
	}
}

// progress records one finished cell.
func (j *sweepJob) progress(done int, res sweep.CellResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.done = done
	j.cells = append(j.cells, res)
	j.broadcast(progressEvent{
		SweepID: j.id,
		Status:  j.status,
		Done:    done,
		Total:   j.total,
		Cell:    &res,
	})
}

// finish marks the job terminal, emits the final event and closes all
// subscriber channels.
func (j *sweepJob) finish(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err != nil {
		j.status = sweepFailed
		j.err = err.Error()
	} else {
		j.status = sweepCompleted
	}
	j.broadcast(progressEvent{
		SweepID: j.id,
		Status:  j.status,
		Done:    j.done,
		Total:   j.total,
	})
	for ch := range j.subscribers {
		close(ch)
	}
	j.subscribers = make(map[chan progressEvent]struct{})
}

// broadcast delivers an event to every subscriber without blocking.
// Callers hold j.mu.
func (j *sweepJob) broadcast(event progressEvent) {
	for ch := range j.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// subscribe registers a stream consumer. The channel buffer fits every
// event the job can still emit. A terminal job hands back a closed channel
// primed with the final state.
func (j *sweepJob) subscribe() chan progressEvent {
	j.mu.Lock()
	defer j.mu.Unlock()

	ch := make(chan progressEvent, j.total+2)
	if j.status != sweepRunning {
		ch <- progressEvent{SweepID: j.id, Status: j.status, Done: j.done, Total: j.total}
		close(ch)
		return ch
	}
	j.subscribers[ch] = struct{}{}
	return ch
}

// unsubscribe detaches a stream consumer. Channels already closed by finish
// are left alone.
func (j *sweepJob) unsubscribe(ch chan progressEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.subscribers[ch]; ok {
		delete(j.subscribers, ch)
		close(ch)
	}
}

// jobRegistry is the server's in-memory index of sweep jobs.
type jobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*sweepJob
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]*sweepJob)}
}

func (r *jobRegistry) add(job *sweepJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.id] = job
}

func (r *jobRegistry) get(id string) (*sweepJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return job, ok
}
