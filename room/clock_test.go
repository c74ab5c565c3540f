package room

import (
	"testing"
	"time"
)

func TestClockAfter(t *testing.T) {
	c := NewClock()
	fired := 0
	c.After(100*time.Millisecond, func() { fired++ })

	c.Advance(50 * time.Millisecond)
	if fired != 0 {
		t.Fatalf(`fired = %d before deadline, want 0`, fired)
	}
	c.Advance(50 * time.Millisecond)
	if fired != 1 {
		t.Fatalf(`fired = %d at deadline, want 1`, fired)
	}
	c.Advance(time.Second)
	if fired != 1 {
		t.Fatalf(`fired = %d after extra advance, want 1`, fired)
	}
}

func TestClockStop(t *testing.T) {
	c := NewClock()
	fired := false
	timer := c.After(100*time.Millisecond, func() { fired = true })
	timer.Stop()
	c.Advance(time.Second)
	if fired {
		t.Fatal(`stopped timer fired`)
	}
}

func TestClockEveryCount(t *testing.T) {
	c := NewClock()
	fired := 0
	c.Every(time.Second, 5, func() { fired++ })

	c.Advance(3 * time.Second)
	if fired != 3 {
		t.Fatalf(`fired = %d after 3s, want 3`, fired)
	}
	c.Advance(10 * time.Second)
	if fired != 5 {
		t.Fatalf(`fired = %d after 13s, want 5`, fired)
	}
}

func TestClockFiringOrder(t *testing.T) {
	c := NewClock()
	var order []string
	c.After(200*time.Millisecond, func() { order = append(order, "b") })
	c.After(100*time.Millisecond, func() { order = append(order, "a") })
	c.After(300*time.Millisecond, func() { order = append(order, "c") })

	c.Advance(time.Second)
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf(`firing order = %v, want [a b c]`, order)
	}
}

func TestClockCallbackSchedulesTimer(t *testing.T) {
	c := NewClock()
	fired := false
	c.After(time.Second, func() {
		c.After(time.Second, func() { fired = true })
	})

	c.Advance(time.Second)
	if fired {
		t.Fatal(`nested timer fired on the advance that scheduled it`)
	}
	c.Advance(time.Second)
	if !fired {
		t.Fatal(`nested timer never fired`)
	}
}
