// Package watcher monitors the input directory and feeds batches of
// changed files into pipeline runs.
package watcher

import (
	"sync"
	"time"
)

// EventType classifies a coalesced filesystem event.
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

// Event is one debounced filesystem change.
type Event struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

// Coalescer merges bursts of raw filesystem events per path. Editors
// and copies emit many writes for one logical change; only the settled
// result is forwarded.
type Coalescer struct {
	debounceWindow    time.Duration
	deleteGracePeriod time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	events  chan Event
	stopCh  chan struct{}
	stopped bool

	// emits tracks in-flight sends so Stop can close the event channel
	// only after every fired timer has finished delivering.
	emits sync.WaitGroup
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

// NewCoalescer creates a coalescer. Delete events wait for the longer
// grace period so a rapid delete+recreate reads as a modify.
func NewCoalescer(debounceWindow, deleteGracePeriod time.Duration) *Coalescer {
	return &Coalescer{
		debounceWindow:    debounceWindow,
		deleteGracePeriod: deleteGracePeriod,
		pending:           make(map[string]*pendingEvent),
		events:            make(chan Event, 1000),
		stopCh:            make(chan struct{}),
	}
}

// Add feeds one raw event into the coalescer.
func (c *Coalescer) Add(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	path := event.Path
	if pe, exists := c.pending[path]; exists {
		pe.timer.Stop()

		// A file created and deleted inside the window never existed
		// as far as the pipeline is concerned.
		if pe.event.Type == EventCreate && event.Type == EventDelete {
			delete(c.pending, path)
			return
		}

		pe.event = merge(pe.event, event)
		pe.event.Timestamp = event.Timestamp
		pe.timer = time.AfterFunc(c.delay(pe.event.Type), func() {
			c.emit(path)
		})
		return
	}

	pe := &pendingEvent{event: event}
	pe.timer = time.AfterFunc(c.delay(event.Type), func() {
		c.emit(path)
	})
	c.pending[path] = pe
}

// Events returns the settled event stream.
func (c *Coalescer) Events() <-chan Event {
	return c.events
}

// Stop cancels pending timers and closes the event channel.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	for path, pe := range c.pending {
		pe.timer.Stop()
		delete(c.pending, path)
	}
	c.mu.Unlock()

	close(c.stopCh)
	c.emits.Wait()
	close(c.events)
}

func (c *Coalescer) emit(path string) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	pe, exists := c.pending[path]
	if !exists {
		c.mu.Unlock()
		return
	}
	event := pe.event
	delete(c.pending, path)
	c.emits.Add(1)
	c.mu.Unlock()
	defer c.emits.Done()

	select {
	case c.events <- event:
	case <-c.stopCh:
	}
}

// merge resolves an event sequence on one path to its net effect.
func merge(old, next Event) Event {
	switch {
	case old.Type == EventCreate && next.Type == EventModify:
		return Event{Path: next.Path, Type: EventCreate, Timestamp: next.Timestamp}
	case old.Type == EventDelete && next.Type == EventCreate:
		// Replaced in place.
		return Event{Path: next.Path, Type: EventModify, Timestamp: next.Timestamp}
	default:
		return next
	}
}

func (c *Coalescer) delay(eventType EventType) time.Duration {
	if eventType == EventDelete {
		return c.deleteGracePeriod
	}
	return c.debounceWindow
}

// PendingCount reports events still waiting on their timer.
func (c *Coalescer) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
