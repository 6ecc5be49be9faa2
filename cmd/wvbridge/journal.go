package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newJournalCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the most recent bridge calls",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printJournal(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of calls to show")
	return cmd
}

func (a *app) printJournal(ctx context.Context, out io.Writer, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	j, err := a.openJournal()
	if err != nil {
		return err
	}
	entries, err := j.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tFUNC\tSEQ\tOK\tDURATION\tRESULT")
	for _, e := range entries {
		result := e.Result
		if !e.OK {
			result = e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Func, e.Seq, e.OK, e.Duration.Round(time.Microsecond), clip(result, 60))
	}
	return tw.Flush()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
