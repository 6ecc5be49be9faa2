package bridge

import (
	"context"
	"sync"
	"testing"

	"github.com/cryguy/webview/internal/core"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeHost records what the bridge asks of it. Dispatched functions are
// queued until drain is called, like a UI thread that is busy.
type fakeHost struct {
	mu       sync.Mutex
	events   core.HostEvents
	inits    []string
	evals    []string
	pending  []func()
	evalErr  error
	attached int
}

func (h *fakeHost) Attach(ev core.HostEvents) {
	h.events = ev
	h.attached++
}

func (h *fakeHost) Init(script string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inits = append(h.inits, script)
	return nil
}

func (h *fakeHost) Eval(script string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.evalErr != nil {
		return h.evalErr
	}
	h.evals = append(h.evals, script)
	return nil
}

func (h *fakeHost) Navigate(string) error { return nil }

func (h *fakeHost) Dispatch(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, fn)
}

func (h *fakeHost) Run(context.Context) error { return nil }
func (h *fakeHost) Terminate()                {}
func (h *fakeHost) Close() error              { return nil }

// drain runs dispatched functions until none are left.
func (h *fakeHost) drain() {
	for {
		h.mu.Lock()
		fns := h.pending
		h.pending = nil
		h.mu.Unlock()
		if len(fns) == 0 {
			return
		}
		for _, fn := range fns {
			fn()
		}
	}
}

func (h *fakeHost) takeEvals() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.evals
	h.evals = nil
	return out
}

func (h *fakeHost) initScripts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.inits...)
}

// load simulates a complete navigation to url.
func (h *fakeHost) load(url string) {
	h.events.OnNavigate(url)
	h.events.OnLoad(url)
}

type memJournal struct {
	mu      sync.Mutex
	entries []core.JournalEntry
}

func (j *memJournal) Record(_ context.Context, e core.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) all() []core.JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]core.JournalEntry(nil), j.entries...)
}
