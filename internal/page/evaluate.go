package page

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryguy/webview/internal/core"
)

const evalDoneFunc = "__rpc_eval_done"

// evaluateJS evaluates %[2]s (a string literal) with indirect eval and
// reports String(result) through evalDoneFunc, awaiting promises first.
const evaluateJS = `(function(id, src) {
	var done = globalThis.` + evalDoneFunc + `;
	var msg = function(e) { return e && e.message !== undefined ? String(e.message) : String(e); };
	var v;
	try { v = (0, eval)(src); } catch (e) { done(id, false, msg(e)); return; }
	Promise.resolve(v).then(
		function(r) { done(id, true, String(r)); },
		function(e) { done(id, false, msg(e)); });
})(%[1]d, %[2]s);`

type evalResult struct {
	value string
	err   error
}

type waiter struct {
	ch      chan evalResult
	started bool // expression was handed to a page
}

// EvalError is returned by Evaluate when the expression throws or its
// promise rejects.
type EvalError struct {
	Message string
}

func (e *EvalError) Error() string { return "page error: " + e.Message }

// Evaluate runs expr in the current page and returns String(result). A
// promise result is awaited. It fails with ErrNavigated if the page goes
// away first.
func (h *Host) Evaluate(ctx context.Context, expr string) (string, error) {
	lit, err := core.JSON.MarshalToString(expr)
	if err != nil {
		return "", err
	}
	ch := make(chan evalResult, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", core.ErrClosed
	}
	h.evalSeq++
	id := h.evalSeq
	h.waiters[id] = &waiter{ch: ch}
	h.mu.Unlock()

	err = h.post(func() {
		h.markStarted(id)
		if h.rt == nil {
			h.resolveWaiter(id, evalResult{err: core.ErrNotConnected})
			return
		}
		if err := h.rt.Eval(fmt.Sprintf(evaluateJS, id, lit)); err != nil {
			h.resolveWaiter(id, evalResult{err: err})
		}
	})
	if err != nil {
		h.dropWaiter(id)
		return "", err
	}

	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		h.dropWaiter(id)
		return "", ctx.Err()
	}
}

func (h *Host) evalDone(id int, ok bool, value string) {
	if ok {
		h.resolveWaiter(int64(id), evalResult{value: value})
		return
	}
	h.resolveWaiter(int64(id), evalResult{err: &EvalError{Message: value}})
}

func (h *Host) markStarted(id int64) {
	h.mu.Lock()
	if w, ok := h.waiters[id]; ok {
		w.started = true
	}
	h.mu.Unlock()
}

func (h *Host) resolveWaiter(id int64, res evalResult) {
	h.mu.Lock()
	w, ok := h.waiters[id]
	delete(h.waiters, id)
	h.mu.Unlock()
	if ok {
		w.ch <- res
	}
}

func (h *Host) dropWaiter(id int64) {
	h.mu.Lock()
	delete(h.waiters, id)
	h.mu.Unlock()
}

// failWaiters fails the Evaluate calls already running in the current
// page, or every pending one when all is set.
func (h *Host) failWaiters(err error, all bool) {
	h.mu.Lock()
	var failed []*waiter
	for id, w := range h.waiters {
		if all || w.started {
			failed = append(failed, w)
			delete(h.waiters, id)
		}
	}
	h.mu.Unlock()
	for _, w := range failed {
		w.ch <- evalResult{err: err}
	}
}

// IsEvalError reports whether err came from the page rather than the host.
func IsEvalError(err error) bool {
	var e *EvalError
	return errors.As(err, &e)
}
