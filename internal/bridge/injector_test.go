package bridge

import (
	"testing"

	"github.com/cryguy/webview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStubIsUniquePerName(t *testing.T) {
	inj := NewInjector(false, nil)
	a := inj.Stub("alpha")
	b := inj.Stub("beta")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, inj.Stub("alpha"))
	assert.Contains(t, a, `var name = "alpha"`)
	assert.Contains(t, a, "_rpc_call(name, arguments)")
}

func TestBootstrapPostsThroughChannel(t *testing.T) {
	src := NewInjector(false, nil).Bootstrap()
	assert.Contains(t, src, "w."+core.PostFunc)
	assert.Contains(t, src, "if (w._rpc) return;")
}

func TestMinifiedScriptsAreCached(t *testing.T) {
	inj := NewInjector(true, zaptest.NewLogger(t))
	first := inj.Bootstrap()
	require.NotEmpty(t, first)
	assert.Less(t, len(first), len(bootstrapJS))
	assert.Equal(t, first, inj.Bootstrap())

	stub := inj.Stub("alpha")
	assert.Contains(t, stub, `"alpha"`)
	assert.Contains(t, stub, "__rpc_stub")
}

func TestJSStringLiteral(t *testing.T) {
	assert.Equal(t, `"a\"b"`, jsString(`a"b`))
	assert.Equal(t, `"a\u2028b\u2029c"`, jsString("a\u2028b\u2029c"))
	assert.Equal(t, `"\u003c/script\u003e"`, jsString("</script>"))
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"double", "echoJson", "_private", "$x", "a1"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", "9x", "has space", "_rpc_seq", "__rpc_post", "document", "await"} {
		assert.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}

func TestScriptQueue(t *testing.T) {
	q := NewScriptQueue(2)
	require.NoError(t, q.Push("a"))
	require.NoError(t, q.Push("b"))
	assert.ErrorIs(t, q.Push("c"), ErrQueueFull)
	assert.Equal(t, []string{"a", "b"}, q.Drain())
	assert.Equal(t, 0, q.Len())

	unbounded := NewScriptQueue(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, unbounded.Push("x"))
	}
	assert.Equal(t, 100, unbounded.Len())
}
