package eventloop

import (
	"fmt"
	"sync"
	"time"

	"github.com/cryguy/webview/internal/core"
)

// timerEntry represents a pending setTimeout or setInterval callback.
// The actual callback is stored in globalThis.__timerCallbacks[id] on the
// JS side. Go only tracks scheduling metadata.
type timerEntry struct {
	deadline time.Time
	interval time.Duration // 0 for setTimeout, >0 for setInterval
	id       int
	cleared  bool
}

// EventLoop holds the per-page state a headless page host pumps between
// tasks: Go-backed timers and the inbox of strings the page posted to
// native code. It never blocks; the owner decides when to wait.
type EventLoop struct {
	mu     sync.Mutex
	timers map[int]*timerEntry
	nextID int
	inbox  []string
}

// New creates a new EventLoop.
func New() *EventLoop {
	return &EventLoop{
		timers: make(map[int]*timerEntry),
	}
}

// RegisterTimer creates a timer entry and returns its ID.
// The actual JS callback is stored in globalThis.__timerCallbacks[id].
func (el *EventLoop) RegisterTimer(delay time.Duration, isInterval bool) int {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.nextID++
	id := el.nextID
	if delay < 0 {
		delay = 0
	}
	entry := &timerEntry{
		deadline: time.Now().Add(delay),
		id:       id,
	}
	if isInterval {
		if delay < 10*time.Millisecond {
			delay = 10 * time.Millisecond // minimum interval
		}
		entry.interval = delay
	}
	el.timers[id] = entry
	return id
}

// ClearTimer cancels a timer by ID.
func (el *EventLoop) ClearTimer(id int) {
	el.mu.Lock()
	defer el.mu.Unlock()
	if t, ok := el.timers[id]; ok {
		t.cleared = true
		delete(el.timers, id)
	}
}

// Post appends a message from the page to the inbox.
func (el *EventLoop) Post(msg string) {
	el.mu.Lock()
	el.inbox = append(el.inbox, msg)
	el.mu.Unlock()
}

// TakeMessages removes and returns every posted message in post order.
func (el *EventLoop) TakeMessages() []string {
	el.mu.Lock()
	defer el.mu.Unlock()
	msgs := el.inbox
	el.inbox = nil
	return msgs
}

// fireTimer fires a timer callback by invoking the JS-side callback map.
func (el *EventLoop) fireTimer(rt core.JSRuntime, id int) error {
	js := fmt.Sprintf(`(function() {
		var entry = globalThis.__timerCallbacks[%d];
		if (!entry) return;
		if (!entry.interval) delete globalThis.__timerCallbacks[%d];
		entry.fn.apply(null, entry.args || []);
	})()`, id, id)
	return rt.Eval(js)
}

// FireDue runs every timer whose deadline is at or before now, earliest
// first, pumping microtasks after each. Timers scheduled by a callback are
// not run in the same call. It returns the number of timers fired and
// the first callback error, if any.
func (el *EventLoop) FireDue(rt core.JSRuntime, now time.Time) (int, error) {
	el.mu.Lock()
	var due []*timerEntry
	for _, t := range el.timers {
		if !t.cleared && !t.deadline.After(now) {
			due = append(due, t)
		}
	}
	el.mu.Unlock()
	sortByDeadline(due)

	fired := 0
	var firstErr error
	for _, t := range due {
		el.mu.Lock()
		if t.cleared {
			el.mu.Unlock()
			continue
		}
		if t.interval > 0 {
			t.deadline = now.Add(t.interval)
		} else {
			delete(el.timers, t.id)
		}
		el.mu.Unlock()

		if err := el.fireTimer(rt, t.id); err != nil && firstErr == nil {
			firstErr = err
		}
		rt.RunMicrotasks()
		fired++
	}
	return fired, firstErr
}

func sortByDeadline(ts []*timerEntry) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && (ts[j].deadline.Before(ts[j-1].deadline) ||
			(ts[j].deadline.Equal(ts[j-1].deadline) && ts[j].id < ts[j-1].id)); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}

// NextDeadline returns the earliest pending timer deadline.
func (el *EventLoop) NextDeadline() (time.Time, bool) {
	el.mu.Lock()
	defer el.mu.Unlock()
	var next time.Time
	found := false
	for _, t := range el.timers {
		if t.cleared {
			continue
		}
		if !found || t.deadline.Before(next) {
			next = t.deadline
			found = true
		}
	}
	return next, found
}

// hasPending reports active timers or unread messages.
func (el *EventLoop) hasPending() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.timers) > 0 || len(el.inbox) > 0
}

// Reset clears all timers and messages. Called when the page navigates.
func (el *EventLoop) Reset() {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.timers = make(map[int]*timerEntry)
	el.nextID = 0
	el.inbox = nil
}
