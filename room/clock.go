package room

import (
	"sort"
	"time"
)

// Clock schedules deferred and repeating callbacks on the room's own
// timeline. It is advanced from the tick loop, never from other goroutines,
// so callbacks run inside the room's single-threaded execution and die with
// the room. Tests advance it directly.
type Clock struct {
	now    time.Duration
	nextID uint64
	timers []*Timer
}

type Timer struct {
	id       uint64
	when     time.Duration
	interval time.Duration
	// remaining fire count for repeating timers; < 0 means unbounded.
	remaining int
	fn        func()
	stopped   bool
}

// Stop cancels the timer. Safe to call more than once or after firing.
func (t *Timer) Stop() {
	t.stopped = true
}

func NewClock() *Clock {
	return &Clock{}
}

func (c *Clock) Now() time.Duration {
	return c.now
}

// After schedules fn to run once after d.
func (c *Clock) After(d time.Duration, fn func()) *Timer {
	return c.add(d, 0, 1, fn)
}

// Every schedules fn to run each interval, count times. count <= 0 repeats
// until stopped.
func (c *Clock) Every(interval time.Duration, count int, fn func()) *Timer {
	if count <= 0 {
		count = -1
	}
	return c.add(interval, interval, count, fn)
}

func (c *Clock) add(d, interval time.Duration, count int, fn func()) *Timer {
	c.nextID++
	t := &Timer{
		id:        c.nextID,
		when:      c.now + d,
		interval:  interval,
		remaining: count,
		fn:        fn,
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and fires everything that came due, in
// deadline order. Callbacks may schedule new timers; those only fire on a
// later Advance if they land in the past.
func (c *Clock) Advance(d time.Duration) {
	c.now += d

	for {
		due := c.due()
		if len(due) == 0 {
			break
		}
		for _, t := range due {
			if t.stopped {
				continue
			}
			if t.remaining > 0 {
				t.remaining--
			}
			if t.remaining == 0 {
				t.stopped = true
			} else {
				t.when += t.interval
			}
			t.fn()
		}
		c.prune()
	}
}

func (c *Clock) due() []*Timer {
	var due []*Timer
	for _, t := range c.timers {
		if !t.stopped && t.when <= c.now {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].when != due[j].when {
			return due[i].when < due[j].when
		}
		return due[i].id < due[j].id
	})
	return due
}

func (c *Clock) prune() {
	kept := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped {
			kept = append(kept, t)
		}
	}
	c.timers = kept
}
