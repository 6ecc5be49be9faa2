package page

import (
	"fmt"
	"path/filepath"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
)

// BundleScript bundles a page entry point and its imports into one
// classic script that can be loaded into any host.
func BundleScript(entry string) (string, error) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", entry, err)
	}
	result := esbuild.Build(esbuild.BuildOptions{
		EntryPoints:   []string{abs},
		AbsWorkingDir: filepath.Dir(abs),
		Bundle:        true,
		Format:        esbuild.FormatIIFE,
		Write:         false,
		Platform:      esbuild.PlatformBrowser,
		Target:        esbuild.ES2020,
	})
	if len(result.Errors) > 0 {
		var msgs []string
		for _, e := range result.Errors {
			msgs = append(msgs, e.Text)
		}
		return "", fmt.Errorf("bundling %s: %s", entry, strings.Join(msgs, "; "))
	}
	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("bundling produced no output")
	}
	return string(result.OutputFiles[0].Contents), nil
}

// NeedsBundling reports whether source uses module syntax a classic
// script cannot run.
func NeedsBundling(source string) bool {
	return strings.Contains(source, "import ") ||
		strings.Contains(source, "import{") ||
		strings.Contains(source, "export ") ||
		strings.Contains(source, "require(")
}
