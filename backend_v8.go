//go:build v8

package webview

import (
	"github.com/cryguy/webview/internal/core"
	"github.com/cryguy/webview/internal/v8engine"
)

var newPageRuntime core.RuntimeFactory = v8engine.NewRuntime

// Engine names the JavaScript engine headless pages run on.
const Engine = "v8"
