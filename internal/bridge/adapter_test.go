package bridge

import (
	"errors"
	"strconv"
	"testing"

	"github.com/cryguy/webview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc1StringConvention(t *testing.T) {
	b := Func1(Int, func(n int64) (string, error) {
		return strconv.FormatInt(n*2, 10), nil
	})
	assert.Equal(t, core.ConventionString, b.Convention)

	out, err := b.Handler.Invoke([]string{"21"})
	require.NoError(t, err)
	assert.Equal(t, "42", out)

	out, err = b.Handler.Invoke([]string{" 5 "})
	require.NoError(t, err)
	assert.Equal(t, "10", out)
}

func TestFuncJSONConvention(t *testing.T) {
	type status struct {
		OK   bool   `json:"ok"`
		Name string `json:"name"`
	}
	b := Func0(func() (status, error) { return status{OK: true, Name: "x"}, nil })
	assert.Equal(t, core.ConventionJSON, b.Convention)

	out, err := b.Handler.Invoke([]string{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"name":"x"}`, out)
}

func TestFuncArity(t *testing.T) {
	b := Func2(String, String, func(a, b string) (string, error) { return a + b, nil })

	_, err := b.Handler.Invoke([]string{"a"})
	assert.ErrorIs(t, err, ErrArity)
	_, err = b.Handler.Invoke([]string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrArity)

	out, err := b.Handler.Invoke([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestFuncParseErrors(t *testing.T) {
	b := Func3(Int, Float, Bool, func(i int64, f float64, ok bool) (float64, error) {
		return float64(i) + f, nil
	})
	out, err := b.Handler.Invoke([]string{"1", "2.5", "true"})
	require.NoError(t, err)
	assert.Equal(t, "3.5", out)

	_, err = b.Handler.Invoke([]string{"1", "2.5", "maybe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "param 2")

	_, err = b.Handler.Invoke([]string{"one", "2.5", "true"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "param 0")
}

func TestJSONParam(t *testing.T) {
	type point struct{ X, Y int }
	b := Func1(JSON[point](), func(p point) (int, error) { return p.X + p.Y, nil })

	out, err := b.Handler.Invoke([]string{`{"X":2,"Y":3}`})
	require.NoError(t, err)
	assert.Equal(t, "5", out)

	_, err = b.Handler.Invoke([]string{`{`})
	assert.Error(t, err)
}

func TestActionsReturnNull(t *testing.T) {
	called := ""
	b := Action1(String, func(s string) error { called = s; return nil })
	assert.Equal(t, core.ConventionJSON, b.Convention)

	out, err := b.Handler.Invoke([]string{"hi"})
	require.NoError(t, err)
	assert.Equal(t, "null", out)
	assert.Equal(t, "hi", called)

	failing := Action0(func() error { return errors.New("nope") })
	_, err = failing.Handler.Invoke(nil)
	assert.EqualError(t, err, "nope")

	pair := Action2(Int, Int, func(a, b int64) error { return nil })
	out, err = pair.Handler.Invoke([]string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, "null", out)
}

func TestRawBindings(t *testing.T) {
	assert.Equal(t, core.ConventionString, Raw(func([]string) (string, error) { return "", nil }).Convention)
	assert.Equal(t, core.ConventionJSON, RawJSON(func([]string) (string, error) { return "", nil }).Convention)

	a := Async(core.ConventionJSON, func([]string, func(string, error)) {})
	assert.NotNil(t, a.Async)
	assert.Nil(t, a.Handler)
	assert.True(t, a.valid())
	assert.False(t, Binding{}.valid())
}
