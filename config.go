package webview

// DefaultConfig returns the configuration New and NewHeadless are
// usually given: a 64 MB page heap, unminified scripts and an unbounded
// pre-load queue.
func DefaultConfig() Config {
	return Config{
		MemoryLimitMB: 64,
		MaxQueued:     0,
	}
}
