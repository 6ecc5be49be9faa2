package main

import (
	"context"
	"errors"

	"github.com/cryguy/webview"
	"github.com/spf13/cobra"
)

func newChromeCmd(a *app) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "chrome",
		Short: "Drive a Chrome tab over the DevTools protocol",
		Long: `Drive a Chrome tab over the DevTools protocol with the demo functions bound.
With --debug the browser window is shown with developer tools open.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChrome(cmd.Context(), target)
		},
	}
	cmd.Flags().StringVar(&target, "url", "", "page to open (default: the demo page)")
	cmd.Flags().Bool("headless", true, "run the browser without a window")
	cmd.Flags().String("exec-path", "", "browser executable (default: discovered)")
	_ = a.v.BindPFlag("chrome.headless", cmd.Flags().Lookup("headless"))
	_ = a.v.BindPFlag("chrome.exec_path", cmd.Flags().Lookup("exec-path"))
	return cmd
}

func (a *app) runChrome(ctx context.Context, target string) error {
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
	wv, err := webview.NewChrome(webview.ChromeOptions{
		Headless: a.cfg.Chrome.Headless,
		ExecPath: a.cfg.Chrome.ExecPath,
		Width:    a.cfg.Chrome.Width,
		Height:   a.cfg.Chrome.Height,
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
