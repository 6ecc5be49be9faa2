package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cryguy/webview/internal/core"
)

// Binding is what gets registered under a name: a synchronous Handler or an
// AsyncHandler, and the convention its result is delivered with.
type Binding struct {
	Handler    core.Handler
	Async      core.AsyncHandler
	Convention core.Convention
}

func (b Binding) valid() bool {
	return b.Handler != nil || b.Async != nil
}

// Param parses one raw string parameter into T.
type Param[T any] func(raw string) (T, error)

var (
	// String passes the parameter through.
	String Param[string] = func(raw string) (string, error) { return raw, nil }
	// Int parses a base-10 integer.
	Int Param[int64] = func(raw string) (int64, error) {
		return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	}
	// Float parses a float64.
	Float Param[float64] = func(raw string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	}
	// Bool parses "true"/"false" (and the other strconv.ParseBool forms).
	Bool Param[bool] = func(raw string) (bool, error) {
		return strconv.ParseBool(strings.TrimSpace(raw))
	}
)

// JSON decodes a parameter that the page passed as an object or array.
func JSON[T any]() Param[T] {
	return func(raw string) (T, error) {
		var v T
		err := core.JSON.UnmarshalFromString(raw, &v)
		return v, err
	}
}

// Raw binds fn with the string convention.
func Raw(fn func(params []string) (string, error)) Binding {
	return Binding{Handler: core.HandlerFunc(fn), Convention: core.ConventionString}
}

// RawJSON binds fn with the JSON convention; fn returns a JSON document.
func RawJSON(fn func(params []string) (string, error)) Binding {
	return Binding{Handler: core.HandlerFunc(fn), Convention: core.ConventionJSON}
}

// Async binds fn, which completes through its done callback.
func Async(conv core.Convention, fn core.AsyncHandler) Binding {
	return Binding{Async: fn, Convention: conv}
}

// Func0 binds a typed function without parameters. A string result uses
// the string convention, anything else is JSON-encoded.
func Func0[R any](fn func() (R, error)) Binding {
	return typed[R](0, func(params []string) (R, error) {
		return fn()
	})
}

// Func1 binds a typed function of one parameter.
func Func1[A, R any](pa Param[A], fn func(A) (R, error)) Binding {
	return typed[R](1, func(params []string) (R, error) {
		var zero R
		a, err := parseParam(pa, params, 0)
		if err != nil {
			return zero, err
		}
		return fn(a)
	})
}

// Func2 binds a typed function of two parameters.
func Func2[A, B, R any](pa Param[A], pb Param[B], fn func(A, B) (R, error)) Binding {
	return typed[R](2, func(params []string) (R, error) {
		var zero R
		a, err := parseParam(pa, params, 0)
		if err != nil {
			return zero, err
		}
		b, err := parseParam(pb, params, 1)
		if err != nil {
			return zero, err
		}
		return fn(a, b)
	})
}

// Func3 binds a typed function of three parameters.
func Func3[A, B, C, R any](pa Param[A], pb Param[B], pc Param[C], fn func(A, B, C) (R, error)) Binding {
	return typed[R](3, func(params []string) (R, error) {
		var zero R
		a, err := parseParam(pa, params, 0)
		if err != nil {
			return zero, err
		}
		b, err := parseParam(pb, params, 1)
		if err != nil {
			return zero, err
		}
		c, err := parseParam(pc, params, 2)
		if err != nil {
			return zero, err
		}
		return fn(a, b, c)
	})
}

// Action0 binds a function with no result; the page receives null.
func Action0(fn func() error) Binding {
	return Func0(func() (any, error) { return nil, fn() })
}

// Action1 binds a one-parameter function with no result.
func Action1[A any](pa Param[A], fn func(A) error) Binding {
	return Func1(pa, func(a A) (any, error) { return nil, fn(a) })
}

// Action2 binds a two-parameter function with no result.
func Action2[A, B any](pa Param[A], pb Param[B], fn func(A, B) error) Binding {
	return Func2(pa, pb, func(a A, b B) (any, error) { return nil, fn(a, b) })
}

func typed[R any](arity int, call func(params []string) (R, error)) Binding {
	conv := conventionOf[R]()
	return Binding{
		Convention: conv,
		Handler: core.HandlerFunc(func(params []string) (string, error) {
			if len(params) != arity {
				return "", fmt.Errorf("%w: want %d, got %d", ErrArity, arity, len(params))
			}
			v, err := call(params)
			if err != nil {
				return "", err
			}
			return encodeResult(v, conv)
		}),
	}
}

// conventionOf infers the calling convention from the declared result
// type: string results are delivered raw, everything else as JSON.
func conventionOf[R any]() core.Convention {
	var zero R
	if _, ok := any(zero).(string); ok {
		return core.ConventionString
	}
	return core.ConventionJSON
}

func encodeResult[R any](v R, conv core.Convention) (string, error) {
	if conv == core.ConventionString {
		return any(v).(string), nil
	}
	out, err := core.JSON.MarshalToString(v)
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return out, nil
}

func parseParam[T any](p Param[T], params []string, i int) (T, error) {
	v, err := p(params[i])
	if err != nil {
		return v, fmt.Errorf("param %d: %w", i, err)
	}
	return v, nil
}
