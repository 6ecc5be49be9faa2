//go:build v8

// Package v8engine runs headless pages on V8 through tommie/v8go.
package v8engine

import (
	"fmt"
	"reflect"

	"github.com/cryguy/webview/internal/core"
	v8 "github.com/tommie/v8go"
)

// Runtime is one page's isolate and context.
type Runtime struct {
	iso *v8.Isolate
	ctx *v8.Context
}

var _ core.PageRuntime = (*Runtime)(nil)

// NewRuntime has the signature of core.RuntimeFactory.
func NewRuntime(memoryLimitMB int) (core.PageRuntime, error) {
	var iso *v8.Isolate
	if limit := uint64(memoryLimitMB) << 20; memoryLimitMB > 0 {
		iso = v8.NewIsolate(v8.WithResourceConstraints(limit/2, limit))
	} else {
		iso = v8.NewIsolate()
	}
	return &Runtime{iso: iso, ctx: v8.NewContext(iso)}, nil
}

func (r *Runtime) Eval(js string) error {
	_, err := r.ctx.RunScript(js, "page.js")
	return err
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// RegisterFunc exposes fn through a function template. Missing arguments
// take the zero value of their Go type.
func (r *Runtime) RegisterFunc(name string, fn any) error {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("registering %s: %T is not a function", name, fn)
	}
	for i := 0; i < ft.NumIn(); i++ {
		if !supported(ft.In(i).Kind()) {
			return fmt.Errorf("registering %s: unsupported parameter type %s", name, ft.In(i))
		}
	}
	results := ft.NumOut()
	withErr := results > 0 && ft.Out(results-1) == errorType
	if withErr {
		results--
	}
	if results > 1 {
		return fmt.Errorf("registering %s: too many results", name)
	}
	if results == 1 && !supported(ft.Out(0).Kind()) {
		return fmt.Errorf("registering %s: unsupported result type %s", name, ft.Out(0))
	}

	tmpl := v8.NewFunctionTemplate(r.iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()
		in := make([]reflect.Value, ft.NumIn())
		for i := range in {
			if i < len(args) {
				in[i] = fromJS(args[i], ft.In(i))
			} else {
				in[i] = reflect.Zero(ft.In(i))
			}
		}
		out := fv.Call(in)
		if withErr {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				return r.throw(fmt.Sprintf("%s: %v", name, err))
			}
		}
		if results == 0 {
			return nil
		}
		v, err := v8.NewValue(r.iso, toJS(out[0]))
		if err != nil {
			return r.throw(fmt.Sprintf("%s: %v", name, err))
		}
		return v
	})
	return r.ctx.Global().Set(name, tmpl.GetFunction(r.ctx))
}

func (r *Runtime) throw(msg string) *v8.Value {
	v, _ := v8.NewValue(r.iso, msg)
	return r.iso.ThrowException(v)
}

func supported(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Bool, reflect.Int, reflect.Int64, reflect.Float64:
		return true
	}
	return false
}

func fromJS(v *v8.Value, t reflect.Type) reflect.Value {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		out.SetString(v.String())
	case reflect.Bool:
		out.SetBool(v.Boolean())
	case reflect.Int, reflect.Int64:
		out.SetInt(v.Integer())
	case reflect.Float64:
		out.SetFloat(v.Number())
	}
	return out
}

// toJS narrows a Go result to a type v8.NewValue accepts. Integers become
// numbers, not BigInts.
func toJS(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Int, reflect.Int64:
		return float64(v.Int())
	case reflect.Float64:
		return v.Float()
	case reflect.Bool:
		return v.Bool()
	default:
		return v.String()
	}
}

// SetGlobal assigns a scalar directly and anything else as parsed JSON.
func (r *Runtime) SetGlobal(name string, value any) error {
	switch v := value.(type) {
	case string, bool, float64:
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	default:
		data, err := core.JSON.Marshal(value)
		if err != nil {
			return fmt.Errorf("global %q: %w", name, err)
		}
		parsed, err := v8.JSONParse(r.ctx, string(data))
		if err != nil {
			return fmt.Errorf("global %q: %w", name, err)
		}
		return r.ctx.Global().Set(name, parsed)
	}
	return r.ctx.Global().Set(name, value)
}

func (r *Runtime) RunMicrotasks() {
	r.ctx.PerformMicrotaskCheckpoint()
}

// Close disposes the context and its isolate.
func (r *Runtime) Close() {
	if r.ctx != nil {
		r.ctx.Close()
		r.ctx = nil
	}
	if r.iso != nil {
		r.iso.Dispose()
		r.iso = nil
	}
}
