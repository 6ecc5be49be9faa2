//go:build !v8

package quickjs

import (
	"reflect"
	"unsafe"

	"modernc.org/libc"
	lib "modernc.org/libquickjs"
	"modernc.org/quickjs"
)

// executePendingJobs runs all pending microtasks (Promise callbacks, etc.).
// The modernc.org/quickjs wrapper never calls JS_ExecutePendingJob, so
// without this a page's promise reactions, including the ones settling
// bridge calls, would never run.
//
// Returns the number of jobs executed.
func executePendingJobs(vm *quickjs.VM) int {
	rt, tls, ok := extractRuntime(vm)
	if !ok {
		return 0
	}

	count := 0
	for {
		ret := lib.XJS_ExecutePendingJob(tls, rt, 0)
		if ret <= 0 {
			break
		}
		count++
	}
	return count
}

// extractRuntime pulls the unexported cRuntime and tls values out of a
// *quickjs.VM. Layout as of modernc.org/quickjs v0.17.1:
//
//	type VM struct {
//	    cContext uintptr
//	    ...
//	    runtime  *runtime
//	}
//
//	type runtime struct {
//	    cRuntime uintptr
//	    tls      *libc.TLS
//	}
func extractRuntime(vm *quickjs.VM) (cRuntime uintptr, tls *libc.TLS, ok bool) {
	if vm == nil {
		return 0, nil, false
	}
	vmVal := reflect.ValueOf(vm).Elem()

	rtField := vmVal.FieldByName("runtime")
	if !rtField.IsValid() || rtField.IsNil() {
		return 0, nil, false
	}
	rtPtr := unsafe.Pointer(rtField.Pointer())
	rtVal := reflect.NewAt(rtField.Type().Elem(), rtPtr).Elem()

	cRuntimeField := rtVal.FieldByName("cRuntime")
	if !cRuntimeField.IsValid() {
		return 0, nil, false
	}
	cRuntime = uintptr(cRuntimeField.Uint())

	tlsField := rtVal.FieldByName("tls")
	if !tlsField.IsValid() || tlsField.IsNil() {
		return 0, nil, false
	}
	tls = (*libc.TLS)(unsafe.Pointer(tlsField.Pointer()))

	return cRuntime, tls, true
}
