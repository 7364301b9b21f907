package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/statusboard/internal/config"
	"github.com/hazz-dev/statusboard/internal/storage"
)

type statusStore interface {
	LatestCheck(ctx context.Context, service string) (*storage.Check, error)
}

// executeStatus prints the latest stored check of every configured target.
// Targets that were never checked are listed without a status.
func executeStatus(cmd *cobra.Command, db statusStore, targets []config.ServiceCheck) error {
	out := cmd.OutOrStdout()
	ctx := context.Background()

	checks := make([]*storage.Check, len(targets))
	found := false
	for i, tg := range targets {
		c, err := db.LatestCheck(ctx, tg.Name)
		if err != nil {
			return fmt.Errorf("querying status: %w", err)
		}
		checks[i] = c
		found = found || c != nil
	}

	if !found {
		fmt.Fprintln(out, "No check history. Run 'statusboard serve' first.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSTATUS\tHTTP\tRESPONSE\tLAST CHECKED\tERROR")
	for i, tg := range targets {
		c := checks[i]
		if c == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\tnever\t\n", tg.Name)
			continue
		}
		code := "-"
		if c.StatusCode > 0 {
			code = fmt.Sprint(c.StatusCode)
		}
		resp := "-"
		if c.ResponseMs > 0 {
			resp = (time.Duration(c.ResponseMs) * time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tg.Name,
			c.Status,
			code,
			resp,
			c.CheckedAt.Local().Format("2006-01-02 15:04:05"),
			c.Error,
		)
	}
	w.Flush()
	return nil
}
