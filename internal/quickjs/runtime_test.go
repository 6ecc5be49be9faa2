//go:build !v8

package quickjs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := NewRuntime(16)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt.(*Runtime)
}

// result evaluates expr and returns String(expr) as seen by the page.
func result(t *testing.T, rt *Runtime, expr string) string {
	t.Helper()
	var got string
	require.NoError(t, rt.RegisterFunc("report", func(s string) { got = s }))
	require.NoError(t, rt.Eval(`report(String(`+expr+`))`), expr)
	return got
}

func TestEval(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.Eval(`globalThis.x = 'a' + 'b'`))
	assert.Equal(t, "ab", result(t, rt, "x"))
	assert.Error(t, rt.Eval(`throw new Error('boom')`))
	assert.Error(t, rt.Eval(`this is not javascript`))
}

func TestRegisterFunc(t *testing.T) {
	rt := newTestRuntime(t)
	var got []string
	require.NoError(t, rt.RegisterFunc("post", func(msg string) {
		got = append(got, msg)
	}))
	require.NoError(t, rt.Eval(`post('one'); post('two')`))
	assert.Equal(t, []string{"one", "two"}, got)
	assert.Equal(t, "undefined", result(t, rt, "typeof __qjs_raw_post"))

	require.NoError(t, rt.RegisterFunc("twice", func(n int, wrap bool) int {
		if wrap {
			return n * 2
		}
		return n
	}))
	assert.Equal(t, "42", result(t, rt, "twice(21, true)"))
}

func TestRegisterFuncErrorThrows(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.RegisterFunc("check", func(s string) (string, error) {
		if s == "" {
			return "", assert.AnError
		}
		return "ok:" + s, nil
	}))
	assert.Equal(t, "ok:x", result(t, rt, "check('x')"))
	msg := result(t, rt, "(function() { try { check(''); return 'no throw'; } catch (e) { return e.message; } })()")
	assert.Contains(t, msg, "check: ")
	assert.Contains(t, msg, assert.AnError.Error())
}

func TestRunMicrotasks(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.Eval(`globalThis.done = 'no'; Promise.resolve().then(function() { done = 'yes'; });`))
	assert.Equal(t, "no", result(t, rt, "done"))
	rt.RunMicrotasks()
	assert.Equal(t, "yes", result(t, rt, "done"))
}

func TestSetGlobal(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.SetGlobal("answer", 42))
	require.NoError(t, rt.SetGlobal("where", "here"))
	assert.Equal(t, "42:here", result(t, rt, "answer + ':' + where"))
}
