// Package eventlooptest provides a manual eventloop.Scheduler for tests.
// Nothing runs until the test says so, which makes it possible to resolve
// network calls out of order and to step debounce timers.
package eventlooptest

import (
	"context"
	"sort"
	"time"

	"github.com/citypulse/client/internal/eventloop"
)

var _ eventloop.Scheduler = (*Scheduler)(nil)

// Job is a unit of work started with Go and not yet resolved.
type Job struct {
	work func(ctx context.Context)
	then func()
}

type timer struct {
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Scheduler is not safe for concurrent use; tests drive it from one goroutine
// just as the real loop would.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	now    time.Duration
	seq    int
	jobs   []*Job
	timers []*timer
}

// New returns an empty scheduler at time zero.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel}
}

// Go queues a job. Neither work nor then runs until the job is resolved.
func (s *Scheduler) Go(work func(ctx context.Context), then func()) {
	s.jobs = append(s.jobs, &Job{work: work, then: then})
}

// AfterFunc registers f to run once Advance moves past d.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) eventloop.Timer {
	s.seq++
	t := &timer{at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Pending returns the number of unresolved jobs.
func (s *Scheduler) Pending() int {
	return len(s.jobs)
}

// ActiveTimers returns the number of timers that have neither fired nor been
// stopped.
func (s *Scheduler) ActiveTimers() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Resolve runs job i (in start order) and its continuation.
func (s *Scheduler) Resolve(i int) {
	job := s.jobs[i]
	s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
	job.work(s.ctx)
	if job.then != nil {
		job.then()
	}
}

// ResolveLast resolves the most recently started job.
func (s *Scheduler) ResolveLast() {
	s.Resolve(len(s.jobs) - 1)
}

// ResolveAll resolves jobs in start order until none are left, including
// jobs started by continuations.
func (s *Scheduler) ResolveAll() {
	for len(s.jobs) > 0 {
		s.Resolve(0)
	}
}

// Advance moves the clock forward by d and fires every timer that became due,
// in deadline order.
func (s *Scheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.now = next.at
		next.fired = true
		next.f()
	}
	s.now = target
	s.compact()
}

// Close cancels the context handed to jobs.
func (s *Scheduler) Close() {
	s.cancel()
}

func (s *Scheduler) nextDue(target time.Duration) *timer {
	var due []*timer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	return due[0]
}

func (s *Scheduler) compact() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	s.timers = live
}
