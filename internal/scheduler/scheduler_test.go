package scheduler

import (
	"sync"
	"testing"
	"time"
)

func TestScheduler_RecurringJob(t *testing.T) {
	s := New()
	s.Start()
	defer s.Stop()

	var mu sync.Mutex
	runs := 0

	err := s.Add("job1", 50*time.Millisecond, func() {
		mu.Lock()
		runs++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	time.Sleep(180 * time.Millisecond)

	mu.Lock()
	got := runs
	mu.Unlock()

	// First run is immediate, then every 50ms.
	if got < 3 {
		t.Errorf("expected at least 3 runs, got %d", got)
	}
}

func TestScheduler_Remove(t *testing.T) {
	s := New()
	s.Start()
	defer s.Stop()

	var mu sync.Mutex
	runs := 0

	err := s.Add("job1", time.Hour, func() {
		mu.Lock()
		runs++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if !s.Remove("job1") {
		t.Error("Remove returned false")
	}
	if s.Remove("job1") {
		t.Error("Remove returned true for an already-removed job")
	}

	mu.Lock()
	got := runs
	mu.Unlock()
	if got != 1 {
		t.Errorf("expected exactly the immediate run, got %d", got)
	}

	if s.Stats().ScheduledJobs != 0 {
		t.Errorf("expected 0 scheduled jobs, got %d", s.Stats().ScheduledJobs)
	}
}

func TestScheduler_ReplaceJob(t *testing.T) {
	s := New()
	s.Start()
	defer s.Stop()

	s.Add("job1", time.Hour, func() {})
	s.Add("job1", time.Hour, func() {})

	if s.Stats().ScheduledJobs != 1 {
		t.Errorf("expected re-adding to replace, got %d jobs", s.Stats().ScheduledJobs)
	}
}

func TestScheduler_AddAfterStop(t *testing.T) {
	s := New()
	s.Start()
	s.Stop()

	if err := s.Add("job1", time.Hour, func() {}); err != ErrSchedulerStopped {
		t.Errorf("expected ErrSchedulerStopped, got %v", err)
	}
}
