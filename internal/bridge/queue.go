package bridge

import "sync"

// ScriptQueue holds scripts evaluated before the page was ready, in the
// order they were submitted.
type ScriptQueue struct {
	mu    sync.Mutex
	items []string
	max   int
}

// NewScriptQueue returns a queue holding at most max scripts; max <= 0
// means unbounded.
func NewScriptQueue(max int) *ScriptQueue {
	return &ScriptQueue{max: max}
}

// Push appends script. It fails with ErrQueueFull instead of dropping.
func (q *ScriptQueue) Push(script string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.max > 0 && len(q.items) >= q.max {
		return ErrQueueFull
	}
	q.items = append(q.items, script)
	return nil
}

// Drain removes and returns every queued script, oldest first.
func (q *ScriptQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued scripts.
func (q *ScriptQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
