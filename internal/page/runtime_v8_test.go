//go:build v8

package page

import "github.com/cryguy/webview/internal/v8engine"

var testFactory = v8engine.NewRuntime
