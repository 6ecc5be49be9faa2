package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cryguy/webview"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		evals     []string
		root      string
		keepGoing bool
	)
	cmd := &cobra.Command{
		Use:   "run [url]",
		Short: "Load a page headless and evaluate expressions in it",
		Long: `Load a page in the built-in ` + webview.Engine + ` runtime with the demo functions bound.
Each --eval expression is evaluated in order once the page loaded and its
result printed; promises are awaited. With --keep-going an expression
that throws is reported and the next one still runs. Without --eval the
page runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := demoPath
			if len(args) == 1 {
				target = args[0]
			}
			return a.runHeadless(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, target, evals, keepGoing)
		},
	}
	cmd.Flags().StringArrayVarP(&evals, "eval", "e", nil, "expression to evaluate in the page (repeatable)")
	cmd.Flags().StringVar(&root, "root", "", "directory pages are loaded from (default: the demo page)")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue after an expression throws")
	return cmd
}

func (a *app) runHeadless(ctx context.Context, out, errOut io.Writer, root, target string, evals []string, keepGoing bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := a.bridgeConfig()
	if err != nil {
		return err
	}
	wv, err := webview.NewHeadless(loaderFor(root), cfg)
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
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return wv.Run(gctx) })
	if len(evals) > 0 {
		g.Go(func() error {
			defer wv.Terminate()
			failed := 0
			for _, expr := range evals {
				res, err := wv.Evaluate(gctx, expr)
				switch {
				case err == nil:
					fmt.Fprintln(out, res)
				case keepGoing && webview.IsEvalError(err):
					failed++
					fmt.Fprintf(errOut, "%s: %v\n", expr, err)
				default:
					return fmt.Errorf("evaluating %q: %w", expr, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d expressions threw", failed, len(evals))
			}
			return nil
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		a.log.Info("interrupted", zap.String("url", target))
		return nil
	}
	return err
}
