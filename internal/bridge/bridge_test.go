package bridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/cryguy/webview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestBridge(t *testing.T) (*Bridge, *fakeHost, *memJournal) {
	t.Helper()
	h := &fakeHost{}
	j := &memJournal{}
	b, err := New(h, core.Config{Logger: zaptest.NewLogger(t), Journal: j})
	require.NoError(t, err)
	return b, h, j
}

func envelope(seq int64, fn, token string, params ...string) string {
	if params == nil {
		params = []string{}
	}
	out, _ := core.JSON.MarshalToString(core.CallEnvelope{Seq: seq, Func: fn, Param: params, Page: token})
	return out
}

func TestNewInstallsBootstrap(t *testing.T) {
	_, h, _ := newTestBridge(t)
	require.Equal(t, 1, h.attached)
	inits := h.initScripts()
	require.Len(t, inits, 1)
	assert.Contains(t, inits[0], "w._rpc_seq = 0")
}

func TestBindRegistersStubForFutureLoads(t *testing.T) {
	b, h, _ := newTestBridge(t)
	require.NoError(t, b.Bind("double", Raw(func([]string) (string, error) { return "", nil })))

	inits := h.initScripts()
	require.Len(t, inits, 2)
	assert.Contains(t, inits[1], `"double"`)
	assert.Empty(t, h.takeEvals(), "page not ready, nothing evaluated yet")
	assert.Equal(t, []string{"double"}, b.Names())
}

func TestBindRejectsInvalidNames(t *testing.T) {
	b, _, _ := newTestBridge(t)
	noop := Raw(func([]string) (string, error) { return "", nil })
	for _, name := range []string{"", "1abc", "a-b", "_rpc", "__rpc_post", "window", "JSON"} {
		err := b.Bind(name, noop)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
	assert.Error(t, b.Bind("ok", Binding{}))
}

func TestEvalQueuedUntilLoad(t *testing.T) {
	b, h, _ := newTestBridge(t)
	require.NoError(t, b.Bind("echo", Raw(func(p []string) (string, error) { return p[0], nil })))
	require.NoError(t, b.Eval("first()"))
	require.NoError(t, b.Eval("second()"))
	assert.Empty(t, h.takeEvals())

	h.load("about:blank")
	evals := h.takeEvals()
	require.Len(t, evals, 4)
	assert.Contains(t, evals[0], "_rpc_settle")
	assert.Contains(t, evals[1], `"echo"`)
	assert.Equal(t, "first()", evals[2])
	assert.Equal(t, "second()", evals[3])

	require.NoError(t, b.Eval("third()"))
	assert.Equal(t, []string{"third()"}, h.takeEvals())
}

func TestEvalQueueLimit(t *testing.T) {
	h := &fakeHost{}
	b, err := New(h, core.Config{MaxQueued: 1})
	require.NoError(t, err)
	require.NoError(t, b.Eval("a"))
	assert.ErrorIs(t, b.Eval("b"), ErrQueueFull)
}

func TestBindAfterLoadEvaluatesStub(t *testing.T) {
	b, h, _ := newTestBridge(t)
	h.load("about:blank")
	h.takeEvals()

	require.NoError(t, b.Bind("late", Raw(func([]string) (string, error) { return "", nil })))
	evals := h.takeEvals()
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0], `"late"`)
}

func TestHandleMessageResolves(t *testing.T) {
	b, h, j := newTestBridge(t)
	require.NoError(t, b.Bind("double", Func1(Int, func(n int64) (string, error) {
		return itoa(n * 2), nil
	})))
	h.load("about:blank")
	h.takeEvals()

	b.HandleMessage(envelope(1, "double", "tok", "21"))
	evals := h.takeEvals()
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0], `_rpc_settle(1,true,"42","tok",false)`)
	assert.Equal(t, 0, b.InFlight())

	entries := j.all()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].OK)
	assert.Equal(t, "42", entries[0].Result)
	assert.Equal(t, "double", entries[0].Func)
	assert.Equal(t, b.PageID(), entries[0].PageID)
}

func TestHandleMessageUnknownFunctionRejects(t *testing.T) {
	b, h, j := newTestBridge(t)
	h.load("about:blank")
	h.takeEvals()

	b.HandleMessage(envelope(3, "missing", "tok"))
	evals := h.takeEvals()
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0], "_rpc_settle(3,false,")
	assert.Contains(t, evals[0], `no handler bound for \"missing\"`)

	entries := j.all()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].OK)
}

func TestHandleMessageDropsMalformed(t *testing.T) {
	b, h, j := newTestBridge(t)
	h.load("about:blank")
	h.takeEvals()

	for _, payload := range []string{
		"", "not json", `{"seq":1}`, `{"seq":1,"func":"x"}`, `{"func":"x","param":[]}`,
		`{"seq":0,"func":"x","param":[]}`, `{"seq":1,"func":"","param":[]}`, `[1,2,3]`,
	} {
		b.HandleMessage(payload)
	}
	assert.Empty(t, h.takeEvals())
	assert.Empty(t, j.all())
}

func TestHandlerErrorRejects(t *testing.T) {
	b, h, _ := newTestBridge(t)
	require.NoError(t, b.Bind("fail", Raw(func([]string) (string, error) {
		return "", errors.New("boom")
	})))
	h.load("about:blank")
	h.takeEvals()

	b.HandleMessage(envelope(1, "fail", "tok"))
	evals := h.takeEvals()
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0], `_rpc_settle(1,false,"boom","tok",false)`)
}

func TestHandlerPanicRejects(t *testing.T) {
	b, h, _ := newTestBridge(t)
	require.NoError(t, b.Bind("explode", Raw(func([]string) (string, error) {
		panic("kaboom")
	})))
	h.load("about:blank")
	h.takeEvals()

	require.NotPanics(t, func() { b.HandleMessage(envelope(1, "explode", "tok")) })
	evals := h.takeEvals()
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0], "_rpc_settle(1,false,")
	assert.Contains(t, evals[0], "kaboom")
}

func TestAsyncOutOfOrderCompletion(t *testing.T) {
	b, h, _ := newTestBridge(t)
	dones := map[string]func(string, error){}
	require.NoError(t, b.Bind("slow", Async(core.ConventionString, func(p []string, done func(string, error)) {
		dones[p[0]] = done
	})))
	h.load("about:blank")
	h.takeEvals()

	b.HandleMessage(envelope(1, "slow", "tok", "a"))
	b.HandleMessage(envelope(2, "slow", "tok", "b"))
	assert.Equal(t, 2, b.InFlight())

	dones["b"]("B", nil)
	dones["a"]("A", nil)
	dones["a"]("again", nil)
	assert.Empty(t, h.takeEvals(), "replies go through Dispatch")

	h.drain()
	evals := h.takeEvals()
	require.Len(t, evals, 2)
	assert.Contains(t, evals[0], `_rpc_settle(2,true,"B","tok",false)`)
	assert.Contains(t, evals[1], `_rpc_settle(1,true,"A","tok",false)`)
	assert.Equal(t, 0, b.InFlight())
}

func TestAsyncCompletionFromGoroutine(t *testing.T) {
	b, h, _ := newTestBridge(t)
	require.NoError(t, b.Bind("bg", Async(core.ConventionJSON, func(p []string, done func(string, error)) {
		ch := make(chan struct{})
		go func() {
			defer close(ch)
			done(`{"n":1}`, nil)
		}()
		<-ch
	})))
	h.load("about:blank")
	h.takeEvals()

	b.HandleMessage(envelope(5, "bg", "tok"))
	h.drain()
	evals := h.takeEvals()
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0], `_rpc_settle(5,true,"{\"n\":1}","tok",true)`)
}

func TestNavigationDropsPendingReplies(t *testing.T) {
	b, h, j := newTestBridge(t)
	var pending func(string, error)
	require.NoError(t, b.Bind("wait", Async(core.ConventionString, func(_ []string, done func(string, error)) {
		pending = done
	})))
	var navigated []string
	b.OnNavigate(func(url string) { navigated = append(navigated, url) })

	h.load("page://one")
	firstPage := b.PageID()
	h.takeEvals()
	b.HandleMessage(envelope(1, "wait", "one"))
	require.Equal(t, 1, b.InFlight())

	h.events.OnNavigate("page://two")
	assert.False(t, b.Ready())
	assert.Equal(t, 0, b.InFlight())
	assert.NotEqual(t, firstPage, b.PageID())

	pending("late", nil)
	h.drain()
	assert.Empty(t, h.takeEvals(), "reply for the previous page must not be sent")
	assert.Empty(t, j.all())

	h.events.OnLoad("page://two")
	assert.True(t, b.Ready())
	assert.Equal(t, "page://two", b.URL())
	assert.Equal(t, []string{"page://one", "page://two"}, navigated)
}

func TestDuplicateInFlightCallDropped(t *testing.T) {
	b, h, _ := newTestBridge(t)
	require.NoError(t, b.Bind("wait", Async(core.ConventionString, func([]string, func(string, error)) {})))
	h.load("about:blank")
	h.takeEvals()

	b.HandleMessage(envelope(1, "wait", "tok"))
	b.HandleMessage(envelope(1, "wait", "tok"))
	assert.Equal(t, 1, b.InFlight())
	b.HandleMessage(envelope(1, "wait", "other"))
	assert.Equal(t, 2, b.InFlight())
}

func TestRebindReplacesHandler(t *testing.T) {
	b, h, _ := newTestBridge(t)
	require.NoError(t, b.Bind("v", Raw(func([]string) (string, error) { return "one", nil })))
	require.NoError(t, b.Bind("v", Raw(func([]string) (string, error) { return "two", nil })))
	h.load("about:blank")
	h.takeEvals()

	b.HandleMessage(envelope(1, "v", "tok"))
	evals := h.takeEvals()
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0], `"two"`)
	assert.Equal(t, []string{"v"}, b.Names())
}

func TestUnbind(t *testing.T) {
	b, h, _ := newTestBridge(t)
	require.NoError(t, b.Bind("gone", Raw(func([]string) (string, error) { return "x", nil })))
	h.load("about:blank")
	h.takeEvals()

	require.NoError(t, b.Unbind("gone"))
	evals := h.takeEvals()
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0], "delete w[")

	b.HandleMessage(envelope(1, "gone", "tok"))
	assert.Contains(t, h.takeEvals()[0], "no handler bound")
	require.NoError(t, b.Unbind("never-bound"))

	h.load("about:blank")
	var removed bool
	for _, e := range h.takeEvals() {
		removed = removed || strings.Contains(e, `delete w["gone"]`)
	}
	assert.True(t, removed, "stale stub removed once the next page is ready")
}

func TestRebindKeepsOneInitScriptPerName(t *testing.T) {
	b, h, _ := newTestBridge(t)
	noop := Raw(func([]string) (string, error) { return "", nil })
	for i := 0; i < 50; i++ {
		require.NoError(t, b.Bind("flip", noop))
		require.NoError(t, b.Bind("flip", RawJSON(func([]string) (string, error) { return "1", nil })))
		require.NoError(t, b.Unbind("flip"))
	}
	require.NoError(t, b.Bind("other", noop))
	assert.Len(t, h.initScripts(), 3, "bootstrap plus one stub per name")
}

func TestReplyConventionFollowsCurrentBinding(t *testing.T) {
	b, h, _ := newTestBridge(t)
	require.NoError(t, b.Bind("v", Raw(func([]string) (string, error) { return "1", nil })))
	require.NoError(t, b.Bind("v", RawJSON(func([]string) (string, error) { return "1", nil })))
	h.load("about:blank")
	h.takeEvals()

	b.HandleMessage(envelope(1, "v", "tok"))
	evals := h.takeEvals()
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0], `_rpc_settle(1,true,"1","tok",true)`)
}

func TestUndeliveredReplyJournaledAsFailure(t *testing.T) {
	b, h, j := newTestBridge(t)
	require.NoError(t, b.Bind("x", Raw(func([]string) (string, error) { return "y", nil })))
	h.load("about:blank")
	h.evalErr = core.ErrNotConnected

	b.HandleMessage(envelope(1, "x", "tok"))
	assert.Equal(t, 0, b.InFlight())
	entries := j.all()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].OK)
	assert.Empty(t, entries[0].Result)
	assert.Contains(t, entries[0].Error, ErrReplyUndelivered.Error())
	assert.Contains(t, entries[0].Error, core.ErrNotConnected.Error())
}

func itoa(n int64) string {
	out, _ := core.JSON.MarshalToString(n)
	return out
}
