//go:build !v8

package page

import "github.com/cryguy/webview/internal/quickjs"

var testFactory = quickjs.NewRuntime
