package core

import "go.uber.org/zap"

// Config holds runtime configuration for a WebView and its bridge.
type Config struct {
	MemoryLimitMB int  // per-page memory limit for headless runtimes
	MinifyScripts bool // run generated bridge scripts through esbuild
	Debug         bool // developer tools / verbose page console where supported
	MaxQueued     int  // max scripts queued before the page is ready; 0 = unbounded

	// Logger receives bridge and page logs. nil means zap.NewNop().
	Logger *zap.Logger
	// Journal, when set, records every completed call.
	Journal Journal
}

// Log returns the configured logger or a no-op logger.
func (c Config) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
