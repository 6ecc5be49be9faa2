//go:build !v8

// Package quickjs runs headless pages on the QuickJS engine
// (modernc.org/quickjs, pure Go).
package quickjs

import (
	"fmt"

	"github.com/cryguy/webview/internal/core"
	"modernc.org/quickjs"
)

// Runtime is one page's QuickJS VM.
type Runtime struct {
	vm *quickjs.VM
}

var _ core.PageRuntime = (*Runtime)(nil)

// NewRuntime has the signature of core.RuntimeFactory.
func NewRuntime(memoryLimitMB int) (core.PageRuntime, error) {
	vm, err := quickjs.NewVM()
	if err != nil {
		return nil, fmt.Errorf("creating QuickJS VM: %w", err)
	}
	if memoryLimitMB > 0 {
		vm.SetMemoryLimit(uintptr(memoryLimitMB) << 20)
	}
	return &Runtime{vm: vm}, nil
}

func (r *Runtime) Eval(js string) error {
	v, err := r.vm.EvalValue(js, quickjs.EvalGlobal)
	if err != nil {
		return err
	}
	v.Free()
	return nil
}

// unwrapJS replaces the raw binding %[1]q with %[2]q. The VM hands a Go
// (T, error) result to script as a [T, err] array.
const unwrapJS = `(function(g) {
	var raw = g[%[1]q];
	delete g[%[1]q];
	g[%[2]q] = function() {
		var out = raw.apply(null, arguments);
		if (!Array.isArray(out)) return out;
		if (out[1] != null) throw new Error(%[2]q + ': ' + out[1]);
		return out[0];
	};
})(globalThis);`

func (r *Runtime) RegisterFunc(name string, fn any) error {
	raw := "__qjs_raw_" + name
	if err := r.vm.RegisterFunc(raw, fn, false); err != nil {
		return fmt.Errorf("registering %s: %w", name, err)
	}
	return r.Eval(fmt.Sprintf(unwrapJS, raw, name))
}

func (r *Runtime) SetGlobal(name string, value any) error {
	atom, err := r.vm.NewAtom(name)
	if err != nil {
		return fmt.Errorf("global %q: %w", name, err)
	}
	g := r.vm.GlobalObject()
	defer g.Free()
	return g.SetProperty(atom, value)
}

func (r *Runtime) RunMicrotasks() {
	executePendingJobs(r.vm)
}

// Close frees the VM and everything the page allocated in it.
func (r *Runtime) Close() {
	if r.vm == nil {
		return
	}
	r.vm.Close()
	r.vm = nil
}
