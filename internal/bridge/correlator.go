package bridge

import (
	"sync"
	"time"
)

type callKey struct {
	token string
	seq   int64
}

// Ticket is the native-side record of one in-flight call.
type Ticket struct {
	Token   string
	Seq     int64
	Func    string
	Started time.Time

	gen  uint64
	done bool
}

// Correlator tracks in-flight calls on the native side so that each call
// is answered exactly once and answers for a previous page are dropped.
type Correlator struct {
	mu       sync.Mutex
	gen      uint64
	inflight map[callKey]*Ticket
}

// NewCorrelator returns an empty Correlator.
func NewCorrelator() *Correlator {
	return &Correlator{inflight: make(map[callKey]*Ticket)}
}

// Begin opens a ticket for (token, seq). It returns false if the same call
// is already in flight.
func (c *Correlator) Begin(token string, seq int64, fn string) (*Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := callKey{token: token, seq: seq}
	if _, dup := c.inflight[key]; dup {
		return nil, false
	}
	t := &Ticket{Token: token, Seq: seq, Func: fn, Started: time.Now(), gen: c.gen}
	c.inflight[key] = t
	return t, true
}

// Complete closes t. It returns false if t was already completed or
// belongs to a page that has since navigated away.
func (c *Correlator) Complete(t *Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t == nil || t.done || t.gen != c.gen {
		return false
	}
	t.done = true
	delete(c.inflight, callKey{token: t.Token, seq: t.Seq})
	return true
}

// Reset abandons every in-flight ticket and returns how many there were.
func (c *Correlator) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.inflight)
	c.gen++
	c.inflight = make(map[callKey]*Ticket)
	return n
}

// InFlight returns the number of open tickets for the current page.
func (c *Correlator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// generation counts navigations seen so far.
func (c *Correlator) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}
