package watcher

import (
	"fmt"
	"testing"
	"time"
)

func collect(t *testing.T, c *Coalescer, want int, timeout time.Duration) []Event {
	t.Helper()
	var events []Event
	deadline := time.After(timeout)
	for len(events) < want {
		select {
		case event := <-c.Events():
			events = append(events, event)
		case <-deadline:
			return events
		}
	}
	return events
}

func TestCoalescerMergesWriteBurst(t *testing.T) {
	c := NewCoalescer(20*time.Millisecond, 50*time.Millisecond)
	defer c.Stop()

	now := time.Now()
	for i := 0; i < 5; i++ {
		c.Add(Event{Path: "/in/a.txt", Type: EventModify, Timestamp: now})
	}

	events := collect(t, c, 1, time.Second)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != EventModify {
		t.Errorf("type = %d, want modify", events[0].Type)
	}
	if c.PendingCount() != 0 {
		t.Errorf("pending = %d, want 0", c.PendingCount())
	}
}

func TestCoalescerCreateThenModifyIsCreate(t *testing.T) {
	c := NewCoalescer(20*time.Millisecond, 50*time.Millisecond)
	defer c.Stop()

	now := time.Now()
	c.Add(Event{Path: "/in/a.txt", Type: EventCreate, Timestamp: now})
	c.Add(Event{Path: "/in/a.txt", Type: EventModify, Timestamp: now})

	events := collect(t, c, 1, time.Second)
	if len(events) != 1 || events[0].Type != EventCreate {
		t.Errorf("got %v, want one create", events)
	}
}

func TestCoalescerCreateThenDeleteVanishes(t *testing.T) {
	c := NewCoalescer(20*time.Millisecond, 50*time.Millisecond)
	defer c.Stop()

	now := time.Now()
	c.Add(Event{Path: "/in/tmp.txt", Type: EventCreate, Timestamp: now})
	c.Add(Event{Path: "/in/tmp.txt", Type: EventDelete, Timestamp: now})

	events := collect(t, c, 1, 200*time.Millisecond)
	if len(events) != 0 {
		t.Errorf("transient file should emit nothing, got %v", events)
	}
}

func TestCoalescerDeleteThenCreateIsModify(t *testing.T) {
	c := NewCoalescer(20*time.Millisecond, 100*time.Millisecond)
	defer c.Stop()

	now := time.Now()
	c.Add(Event{Path: "/in/a.txt", Type: EventDelete, Timestamp: now})
	c.Add(Event{Path: "/in/a.txt", Type: EventCreate, Timestamp: now})

	events := collect(t, c, 1, time.Second)
	if len(events) != 1 || events[0].Type != EventModify {
		t.Errorf("replace in place should read as modify, got %v", events)
	}
}

func TestCoalescerSeparatePaths(t *testing.T) {
	c := NewCoalescer(20*time.Millisecond, 50*time.Millisecond)
	defer c.Stop()

	now := time.Now()
	c.Add(Event{Path: "/in/a.txt", Type: EventModify, Timestamp: now})
	c.Add(Event{Path: "/in/b.txt", Type: EventModify, Timestamp: now})

	events := collect(t, c, 2, time.Second)
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestCoalescerStopRacesFiringTimers(t *testing.T) {
	// Zero windows make every timer fire immediately, so Stop runs
	// while emits are in flight. A send on the closed event channel
	// would panic here.
	for i := 0; i < 200; i++ {
		c := NewCoalescer(0, 0)
		now := time.Now()
		for j := 0; j < 8; j++ {
			c.Add(Event{Path: fmt.Sprintf("/in/f%d.txt", j), Type: EventModify, Timestamp: now})
		}
		c.Stop()

		// The channel must be closed and drainable after Stop.
		for range c.Events() {
		}
		if c.PendingCount() != 0 {
			t.Fatalf("pending = %d after Stop, want 0", c.PendingCount())
		}
	}
}

func TestCoalescerAddAfterStopIsIgnored(t *testing.T) {
	c := NewCoalescer(time.Millisecond, time.Millisecond)
	c.Stop()

	c.Add(Event{Path: "/in/a.txt", Type: EventModify, Timestamp: time.Now()})
	if c.PendingCount() != 0 {
		t.Errorf("pending = %d, want 0", c.PendingCount())
	}
}

func TestIsEditorNoise(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/in/.doc.txt.swp", true},
		{"/in/4913", true},
		{"/in/#notes#", true},
		{"/in/backup~", true},
		{"/in/doc.txt", false},
	}
	for _, tt := range tests {
		if got := isEditorNoise(tt.path); got != tt.want {
			t.Errorf("isEditorNoise(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
