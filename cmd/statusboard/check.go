package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/statusboard/internal/config"
	"github.com/hazz-dev/statusboard/internal/monitor"
	"github.com/hazz-dev/statusboard/internal/probe"
)

func executeCheck(cmd *cobra.Command, cfg *config.Config) error {
	return runChecks(cmd.Context(), cmd.OutOrStdout(), cfg)
}

// runChecks runs one aggregation pass, prints a table and fails when any
// target is not operational. When alerts are configured, each failure gets
// one synchronous delivery attempt before the table is printed.
func runChecks(ctx context.Context, out io.Writer, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.Default()
	agg := monitor.NewAggregator(cfg.Targets, probe.New(nil, logger), nil)
	results := agg.CheckAll(ctx)

	notifier := newNotifier(cfg.Alerts, nil, logger)
	if notifier.Enabled() {
		for _, r := range results {
			if !r.Operational() {
				notifier.Send(ctx, r)
			}
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSTATUS\tHTTP\tRESPONSE\tERROR")
	allUp := true
	for _, r := range results {
		code := "-"
		if r.StatusCode > 0 {
			code = fmt.Sprint(r.StatusCode)
		}
		resp := "-"
		if r.ResponseTime > 0 {
			resp = r.ResponseTime.Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ServiceName,
			r.Status,
			code,
			resp,
			r.Error,
		)
		if !r.Operational() {
			allUp = false
		}
	}
	w.Flush()

	if !allUp {
		return fmt.Errorf("one or more targets are not operational")
	}
	return nil
}
