package lumen

import (
	"sort"
	"time"
)

// TaskFunc is one unit of work of a self-rescheduling loop. It receives the
// frame delta in seconds and returns false when the loop is finished.
type TaskFunc func(dt float64) bool

// Task is a soft task: it runs once per tick until it returns false or is
// cancelled. The zero handle (nil) is safe to cancel.
type Task struct {
	fn   TaskFunc
	done bool
}

// Cancel stops the task before its next tick. Safe to call repeatedly and on
// a nil task.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.done = true
	t.fn = nil
}

// Done reports whether the task has finished or been cancelled.
func (t *Task) Done() bool {
	return t == nil || t.done
}

// Timer fires a callback once its wall-clock deadline has passed. Timers are
// checked at the start of every host tick.
type Timer struct {
	deadline time.Time
	fn       func()
	done     bool
}

// Cancel disarms the timer. Safe to call repeatedly and on a nil timer.
func (t *Timer) Cancel() {
	if t == nil {
		return
	}
	t.done = true
	t.fn = nil
}

// Done reports whether the timer has fired or been cancelled.
func (t *Timer) Done() bool {
	return t == nil || t.done
}

// Deadline returns the wall-clock time the timer fires at.
func (t *Timer) Deadline() time.Time {
	return t.deadline
}

// Scheduler drives every per-effect loop and timer from the host tick. It
// replaces free-running per-effect frame callbacks with one ordered list.
type Scheduler struct {
	clock  Clock
	tasks  []*Task
	timers []*Timer

	stepBuf []*Task  // reused snapshot so tasks added mid-tick start next tick
	dueBuf  []*Timer // reused buffer of timers due this tick
}

func newScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Every registers fn as a loop that runs on every tick starting with the next
// one.
func (s *Scheduler) Every(fn TaskFunc) *Task {
	t := &Task{fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// After arms a one-shot timer that fires d after now. A non-positive d fires
// on the next tick.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	t := &Timer{deadline: s.clock.Now().Add(d), fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// TaskCount returns the number of live tasks.
func (s *Scheduler) TaskCount() int {
	n := 0
	for _, t := range s.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

// TimerCount returns the number of armed timers.
func (s *Scheduler) TimerCount() int {
	n := 0
	for _, t := range s.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// fireTimers runs every timer whose deadline has passed, earliest first.
func (s *Scheduler) fireTimers() {
	now := s.clock.Now()
	due := s.dueBuf[:0]
	for _, t := range s.timers {
		if !t.done && !now.Before(t.deadline) {
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, t := range due {
		// An earlier callback may have cancelled this one.
		if t.done {
			continue
		}
		fn := t.fn
		t.done = true
		t.fn = nil
		safeCall("timer", fn)
	}
	clear(due)
	s.dueBuf = due[:0]
	s.timers = compactTimers(s.timers)
}

// step runs one tick of every task registered before this tick.
func (s *Scheduler) step(dt float64) {
	snapshot := append(s.stepBuf[:0], s.tasks...)
	for _, t := range snapshot {
		if t.done {
			continue
		}
		fn := t.fn
		keep := false // a panicking task is dropped
		safeCall("task", func() { keep = fn(dt) })
		if !keep {
			t.done = true
			t.fn = nil
		}
	}
	clear(snapshot)
	s.stepBuf = snapshot[:0]
	s.tasks = compactTasks(s.tasks)
}

// cancelAll cancels every task and timer. Used by host teardown.
func (s *Scheduler) cancelAll() {
	for _, t := range s.tasks {
		t.Cancel()
	}
	for _, t := range s.timers {
		t.Cancel()
	}
	s.tasks = s.tasks[:0]
	s.timers = s.timers[:0]
}

func compactTasks(ts []*Task) []*Task {
	n := 0
	for _, t := range ts {
		if !t.done {
			ts[n] = t
			n++
		}
	}
	clear(ts[n:])
	return ts[:n]
}

func compactTimers(ts []*Timer) []*Timer {
	n := 0
	for _, t := range ts {
		if !t.done {
			ts[n] = t
			n++
		}
	}
	clear(ts[n:])
	return ts[:n]
}
