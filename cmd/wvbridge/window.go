//go:build native

package main

import (
	"context"
	"errors"
	"runtime"

	"github.com/cryguy/webview"
	"github.com/spf13/cobra"
)

func init() {
	// The window toolkit must run on the main thread.
	runtime.LockOSThread()
	hostCommands = append(hostCommands, newWindowCmd)
}

func newWindowCmd(a *app) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Show pages in a native webview window",
		Long: `Open a native webview window with the demo functions bound. Closing the
window or interrupting the process exits. With --debug the webview's
developer tools are enabled.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runWindow(cmd.Context(), target)
		},
	}
	cmd.Flags().StringVar(&target, "url", "", "page to open (default: the demo page)")
	cmd.Flags().String("title", "wvbridge", "window title")
	cmd.Flags().Int("width", 1024, "window width")
	cmd.Flags().Int("height", 768, "window height")
	_ = a.v.BindPFlag("window.title", cmd.Flags().Lookup("title"))
	_ = a.v.BindPFlag("window.width", cmd.Flags().Lookup("width"))
	_ = a.v.BindPFlag("window.height", cmd.Flags().Lookup("height"))
	return cmd
}

func (a *app) runWindow(ctx context.Context, target string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if target == "" {
		target = demoDataURL()
	}
	cfg, err := a.bridgeConfig()
	if err != nil {
		return err
	}
	wv, err := webview.NewNative(webview.WindowOptions{
		Title:  a.cfg.Window.Title,
		Width:  a.cfg.Window.Width,
		Height: a.cfg.Window.Height,
	}, cfg)
	if err != nil {
		return err
	}
	defer wv.Close()
	if err := registerDemo(wv); err != nil {
		return err
	}
	if err := wv.Navigate(target); err != nil {
		return err
	}

	ctx, stop := signalContext(ctx)
	defer stop()
	if err := wv.Run(ctx); err != nil && !(errors.Is(err, context.Canceled) && ctx.Err() != nil) {
		return err
	}
	return nil
}
