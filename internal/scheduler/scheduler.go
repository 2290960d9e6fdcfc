package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// job is a recurring task tracked by the scheduler
type job struct {
	ID       string
	Interval time.Duration
	NextRun  time.Time
	Run      func()
	index    int // index in the heap (for heap.Interface)
}

// jobHeap is a min-heap of jobs ordered by NextRun
type jobHeap []*job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	return h[i].NextRun.Before(h[j].NextRun)
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x interface{}) {
	n := len(*h)
	j := x.(*job)
	j.index = n
	*h = append(*h, j)
}

func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil  // avoid memory leak
	j.index = -1    // for safety
	*h = old[0 : n-1]
	return j
}

// Scheduler runs recurring jobs using a min-heap of next-run times.
// Each location's periodic re-evaluation is one job; jobs with
// different cadences coexist. Job bodies run on their own goroutines
// so a slow evaluation never delays another location's schedule.
type Scheduler struct {
	heap    jobHeap
	mu      sync.Mutex
	wakeup  chan struct{}
	jobs    map[string]*job // for O(1) lookup by ID
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a scheduler; call Start to begin dispatching
func New() *Scheduler {
	s := &Scheduler{
		heap:   make(jobHeap, 0),
		wakeup: make(chan struct{}, 1),
		jobs:   make(map[string]*job),
		stopCh: make(chan struct{}),
	}
	heap.Init(&s.heap)
	return s
}

// Start starts the dispatch loop
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop stops the scheduler; in-flight job bodies are not interrupted
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

// Add registers a recurring job. The first run happens immediately;
// subsequent runs follow at the given interval. Re-adding an existing
// ID replaces its cadence.
func (s *Scheduler) Add(id string, interval time.Duration, run func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}

	if existing, ok := s.jobs[id]; ok {
		heap.Remove(&s.heap, existing.index)
		delete(s.jobs, id)
	}

	j := &job{
		ID:       id,
		Interval: interval,
		NextRun:  time.Now(),
		Run:      run,
	}

	heap.Push(&s.heap, j)
	s.jobs[id] = j

	// Wake up the dispatcher if this is now the earliest job
	if s.heap[0] == j {
		select {
		case s.wakeup <- struct{}{}:
		default:
		}
	}

	return nil
}

// Remove cancels a recurring job
func (s *Scheduler) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return false
	}

	heap.Remove(&s.heap, j.index)
	delete(s.jobs, id)
	return true
}

// run is the main dispatch loop
func (s *Scheduler) run() {
	defer s.wg.Done()

	for {
		s.mu.Lock()

		if s.stopped {
			s.mu.Unlock()
			return
		}

		var waitDuration time.Duration
		if s.heap.Len() == 0 {
			// No jobs, wait indefinitely
			waitDuration = 24 * time.Hour
		} else {
			next := s.heap[0]
			waitDuration = time.Until(next.NextRun)

			if waitDuration <= 0 {
				// Job is due: dispatch and reschedule
				j := heap.Pop(&s.heap).(*job)
				j.NextRun = time.Now().Add(j.Interval)
				heap.Push(&s.heap, j)

				go j.Run()

				s.mu.Unlock()
				continue
			}
		}

		s.mu.Unlock()

		timer := time.NewTimer(waitDuration)
		select {
		case <-timer.C:
			// Time to check for due jobs
		case <-s.wakeup:
			// New job added or existing job updated
			timer.Stop()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}

// Stats returns statistics about the scheduler
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{ScheduledJobs: len(s.jobs)}
}

// Stats contains statistics about the scheduler
type Stats struct {
	ScheduledJobs int
}

var (
	ErrSchedulerStopped = &Error{"scheduler is stopped"}
)

// Error represents a scheduler error
type Error struct {
	msg string
}

func (e *Error) Error() string {
	return e.msg
}
