package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Task is an owned, cancellable scheduled callback. A stopped task never
// runs its callback again, even if a timer already fired concurrently.
type Task struct {
	name     string
	clock    Clock
	logger   *logrus.Logger
	schedule cron.Schedule
	fn       func()

	mu      sync.Mutex
	timer   Timer
	next    time.Time
	stopped bool
}

// fixedDelay activates exactly one interval after the previous activation,
// sub-second parts included.
type fixedDelay time.Duration

var _ cron.Schedule = fixedDelay(0)

func (d fixedDelay) Next(t time.Time) time.Time {
	return t.Add(time.Duration(d))
}

// PollSchedule returns a fixed cadence schedule anchored at the time it is
// first asked for. Non-positive intervals fall back to one second.
func PollSchedule(interval time.Duration) cron.Schedule {
	if interval <= 0 {
		interval = time.Second
	}
	return fixedDelay(interval)
}

// After runs fn once, d after now.
func After(clock Clock, logger *logrus.Logger, name string, d time.Duration, fn func()) *Task {
	t := &Task{
		name:   name,
		clock:  clock,
		logger: logger,
		fn:     fn,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.arm(clock.Now().Add(d))
	return t
}

// Every runs fn on each activation of schedule, anchored at the current time.
// The next activation is armed before fn runs so a slow callback does not
// shift the cadence.
func Every(clock Clock, logger *logrus.Logger, name string, schedule cron.Schedule, fn func()) *Task {
	t := &Task{
		name:     name,
		clock:    clock,
		logger:   logger,
		schedule: schedule,
		fn:       fn,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.arm(schedule.Next(clock.Now()))
	return t
}

func (t *Task) arm(at time.Time) {
	delay := at.Sub(t.clock.Now())
	if delay < 0 {
		delay = 0
	}
	t.next = at
	t.timer = t.clock.AfterFunc(delay, t.fire)
}

func (t *Task) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	scheduled := t.next
	if t.schedule != nil {
		t.arm(t.schedule.Next(scheduled))
	} else {
		t.stopped = true
	}
	t.mu.Unlock()

	t.logger.WithFields(logrus.Fields{
		"task":      t.name,
		"scheduled": scheduled,
	}).Debug("running scheduled task")
	t.fn()
}

// Stop cancels the task. It is safe to call more than once and on a nil task.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Next reports the time of the next pending activation.
func (t *Task) Next() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return time.Time{}, false
	}
	return t.next, true
}
