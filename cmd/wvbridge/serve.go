package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryguy/webview"
	"github.com/cryguy/webview/internal/remote"
	"github.com/spf13/cobra"
	"github.com/toqueteos/webbrowser"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pages to a browser tab connected over a WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), cmd)
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8765", "listen address")
	cmd.Flags().String("root", "", "directory to serve (default: the demo page)")
	cmd.Flags().Bool("open", false, "open the page in the system browser")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = a.v.BindPFlag("server.root", cmd.Flags().Lookup("root"))
	_ = a.v.BindPFlag("server.open_browser", cmd.Flags().Lookup("open"))
	return cmd
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := a.bridgeConfig()
	if err != nil {
		return err
	}
	host := remote.New(loaderFor(a.cfg.Server.Root), remote.Config{
		Addr:     a.cfg.Server.Addr,
		Compress: a.cfg.Server.Compress,
		Logger:   a.log,
	})
	wv, err := webview.New(host, cfg)
	if err != nil {
		return err
	}
	defer wv.Close()
	if err := registerDemo(wv); err != nil {
		return err
	}

	base, err := host.Listen()
	if err != nil {
		return err
	}
	pageURL := base + host.StartURL()
	a.log.Info("serving pages", zap.String("url", pageURL))
	fmt.Fprintln(cmd.OutOrStdout(), pageURL)

	ctx, stop := signalContext(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return wv.Run(gctx) })
	if a.cfg.Server.OpenBrowser {
		g.Go(func() error {
			if err := webbrowser.Open(pageURL); err != nil {
				a.log.Warn("opening browser failed", zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && !(errors.Is(err, context.Canceled) && ctx.Err() != nil) {
		return err
	}
	return nil
}
