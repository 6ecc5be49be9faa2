//go:build !v8

package webview

import (
	"github.com/cryguy/webview/internal/core"
	"github.com/cryguy/webview/internal/quickjs"
)

var newPageRuntime core.RuntimeFactory = quickjs.NewRuntime

// Engine names the JavaScript engine headless pages run on.
const Engine = "quickjs"
