package core

// JSRuntime is the part of a JavaScript engine the headless page host
// needs. QuickJS and V8 both implement it.
type JSRuntime interface {
	// Eval runs js in the global scope and discards the completion value.
	// A thrown exception is returned as an error.
	Eval(js string) error

	// RegisterFunc exposes fn as the global function name. Parameters and
	// results may be string, bool, int or float64. A trailing error result
	// becomes a thrown exception.
	RegisterFunc(name string, fn any) error

	// SetGlobal assigns value to the global name.
	SetGlobal(name string, value any) error

	// RunMicrotasks drains the promise job queue.
	RunMicrotasks()
}

// PageRuntime is a JSRuntime owned by exactly one page load. The page host
// closes it when the page navigates away, which is what discards every
// page-global (pending call table, sequence counter, stubs).
type PageRuntime interface {
	JSRuntime

	// Close releases the engine. The runtime must not be used afterwards.
	Close()
}

// RuntimeFactory creates a fresh PageRuntime. memoryLimitMB <= 0 means no
// limit.
type RuntimeFactory func(memoryLimitMB int) (PageRuntime, error)
