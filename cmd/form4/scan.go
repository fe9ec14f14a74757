package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bighogz/form4-sales/internal/config"
	"github.com/bighogz/form4-sales/internal/export"
	"github.com/bighogz/form4-sales/internal/pipeline"
	"github.com/bighogz/form4-sales/internal/report"
	"github.com/bighogz/form4-sales/internal/secapi"
	"github.com/bighogz/form4-sales/internal/telemetry"
)

func runScan(cmd *cobra.Command, cfg *config.Config, arg string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(cfg.Trace)
	if err != nil {
		return &pipeline.ConfigError{Err: err}
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			zap.L().Warn("trace shutdown failed", zap.Error(err))
		}
	}()

	out := cmd.OutOrStdout()
	date, err := promptDate(bufio.NewReader(cmd.InOrStdin()), out, arg)
	if err != nil {
		return err
	}

	p, err := pipeline.FromConfig(cfg, func(pr secapi.Progress) {
		if pr.From == 0 {
			fmt.Fprintf(out, "Total Form 4 filings reported: %d\n", pr.Total)
		}
		fmt.Fprintf(out, "Fetched %d filings (offset %d), %d of %d so far\n", pr.Count, pr.From, pr.Fetched, pr.Total)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Fetching Form 4 filings for %s...\n", date.Format(pipeline.DateLayout))
	res, err := p.Run(ctx, date)
	if err != nil {
		return err
	}
	return printResult(ctx, out, cfg, res)
}

func printResult(ctx context.Context, out io.Writer, cfg *config.Config, res *pipeline.Result) error {
	if res.TotalReported == 0 {
		fmt.Fprintf(out, "No Form 4 filings found for %s.\n", res.DateString())
		return nil
	}
	if res.Truncated {
		fmt.Fprintf(out, "Warning: received %d of %d reported filings.\n", res.Filings, res.TotalReported)
	}
	fmt.Fprintf(out, "Flattened %d transactions from %d filings.\n", res.Rows, res.Filings)

	if len(res.Sales) == 0 {
		fmt.Fprintln(out, report.NoSalesMessage+".")
		return nil
	}

	fmt.Fprintf(out, "\nForm 4 sales summary for %s (%d transactions):\n\n", res.DateString(), len(res.Sales))
	fmt.Fprintln(out, report.RenderTable(res.Sales))

	w := export.New(export.Options{
		Dir:        cfg.Output.Dir,
		Parquet:    cfg.Output.Parquet,
		SQLitePath: cfg.Output.SQLitePath,
	})
	paths, err := w.WriteAll(ctx, res.RunID, res.DateString(), res.Sales)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, p := range paths {
		fmt.Fprintf(out, "Saved %s\n", p)
	}
	return nil
}

// promptDate returns arg when it is a valid date; otherwise it asks on out
// until a valid date is read from in.
func promptDate(in *bufio.Reader, out io.Writer, arg string) (time.Time, error) {
	if arg = strings.TrimSpace(arg); arg != "" {
		if d, err := pipeline.ParseDate(arg); err == nil {
			return d, nil
		}
		fmt.Fprintf(out, "Invalid date %q. Please use YYYY-MM-DD.\n", arg)
	}
	for {
		fmt.Fprint(out, "Enter the filing date (YYYY-MM-DD): ")
		line, readErr := in.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			d, err := pipeline.ParseDate(line)
			if err == nil {
				return d, nil
			}
			fmt.Fprintln(out, "Invalid date format. Please use YYYY-MM-DD.")
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return time.Time{}, &pipeline.InputError{Err: eris.New("no date entered")}
			}
			return time.Time{}, &pipeline.InputError{Err: readErr}
		}
	}
}
