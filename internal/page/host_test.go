package page

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cryguy/webview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	events []string
	msgs   chan string
}

func newRecorder() *recorder {
	return &recorder{msgs: make(chan string, 64)}
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) hooks() core.HostEvents {
	return core.HostEvents{
		OnMessage:  func(m string) { r.add("message:" + m); r.msgs <- m },
		OnNavigate: func(u string) { r.add("navigate:" + u) },
		OnLoad:     func(u string) { r.add("load:" + u) },
	}
}

// startHost runs a Host until the test ends.
func startHost(t *testing.T, loader core.PageLoader) (*Host, *recorder) {
	t.Helper()
	h := New(loader, testFactory, core.Config{Logger: zaptest.NewLogger(t)})
	rec := newRecorder()
	h.Attach(rec.hooks())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errCh
		require.NoError(t, h.Close())
	})
	return h, rec
}

func evaluate(t *testing.T, h *Host, expr string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := h.Evaluate(ctx, expr)
	require.NoError(t, err, expr)
	return out
}

func TestNavigateRunsInitScriptsBeforePage(t *testing.T) {
	h, rec := startHost(t, StaticLoader{
		"app://main": `globalThis.seen = typeof initialized; ` + core.PostFunc + `('hello');`,
	})
	require.NoError(t, h.Init(`globalThis.initialized = true;`))
	require.NoError(t, h.Navigate("app://main"))

	select {
	case m := <-rec.msgs:
		assert.Equal(t, "hello", m)
	case <-time.After(5 * time.Second):
		t.Fatal("no message")
	}
	assert.Equal(t, "boolean", evaluate(t, h, "seen"))
	assert.Equal(t, []string{"navigate:app://main", "load:app://main", "message:hello"}, rec.snapshot())
	assert.Equal(t, "app://main", evaluate(t, h, "location.href"))
}

func TestNavigationDiscardsPageGlobals(t *testing.T) {
	h, _ := startHost(t, StaticLoader{
		"app://one": `globalThis.counter = 1;`,
		"app://two": `globalThis.other = 2;`,
	})
	require.NoError(t, h.Navigate("app://one"))
	assert.Equal(t, "1", evaluate(t, h, "counter"))

	require.NoError(t, h.Navigate("app://two"))
	assert.Equal(t, "undefined", evaluate(t, h, "typeof counter"))
	assert.Equal(t, "2", evaluate(t, h, "other"))
}

func TestEvaluateAwaitsPromises(t *testing.T) {
	h, _ := startHost(t, nil)
	require.NoError(t, h.Navigate(BlankURL))

	assert.Equal(t, "6", evaluate(t, h, "new Promise(function(r) { setTimeout(function() { r(6); }, 10); })"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := h.Evaluate(ctx, "Promise.reject(new Error('nope'))")
	require.Error(t, err)
	assert.True(t, IsEvalError(err))
	assert.Contains(t, err.Error(), "nope")

	_, err = h.Evaluate(ctx, "throw new Error('sync')")
	assert.True(t, IsEvalError(err))
}

func TestEvaluateBeforeFirstPage(t *testing.T) {
	h, _ := startHost(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := h.Evaluate(ctx, "1")
	assert.ErrorIs(t, err, core.ErrNotConnected)
}

func TestTimersPostMessagesInOrder(t *testing.T) {
	h, rec := startHost(t, StaticLoader{
		"app://timers": `
			setTimeout(function() { ` + core.PostFunc + `('second'); }, 30);
			setTimeout(function() { ` + core.PostFunc + `('first'); }, 5);
		`,
	})
	require.NoError(t, h.Navigate("app://timers"))

	var got []string
	for len(got) < 2 {
		select {
		case m := <-rec.msgs:
			got = append(got, m)
		case <-time.After(5 * time.Second):
			t.Fatal("timers did not fire")
		}
	}
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestHTMLPagesRunInlineScripts(t *testing.T) {
	h, _ := startHost(t, StaticLoader{
		"app://doc": `<html><head><script>globalThis.a = 1;</script></head>
<body><script>globalThis.b = a + 1;</script></body></html>`,
	})
	require.NoError(t, h.Navigate("app://doc"))
	assert.Equal(t, "2", evaluate(t, h, "b"))
}

func TestPageErrorsDoNotAbortLoad(t *testing.T) {
	h, rec := startHost(t, StaticLoader{"app://broken": `throw new Error('page bug');`})
	require.NoError(t, h.Init(`throw new Error('init bug');`))
	require.NoError(t, h.Navigate("app://broken"))
	require.NoError(t, h.Navigate("app://missing"))
	assert.Equal(t, "app://missing", evaluate(t, h, "location.href"))
	assert.Contains(t, rec.snapshot(), "load:app://broken")
}

func TestDispatchRunsOnLoop(t *testing.T) {
	h, _ := startHost(t, nil)
	done := make(chan struct{})
	h.Dispatch(func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not run")
	}
}

func TestTerminateAndClose(t *testing.T) {
	h := New(nil, testFactory, core.Config{})
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(context.Background()) }()
	require.NoError(t, h.Navigate(BlankURL))
	h.Terminate()
	require.NoError(t, <-errCh)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	assert.ErrorIs(t, h.Eval("1"), core.ErrClosed)
	assert.ErrorIs(t, h.Init("1"), core.ErrClosed)
	assert.ErrorIs(t, h.Run(context.Background()), core.ErrClosed)
}
