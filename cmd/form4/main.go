package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bighogz/form4-sales/internal/config"
	"github.com/bighogz/form4-sales/internal/pipeline"
)

func newRootCmd() *cobra.Command {
	var (
		cfg     *config.Config
		outDir  string
		parquet bool
		sqlite  string
	)

	cmd := &cobra.Command{
		Use:   "form4 [date]",
		Short: "Summarize insider sales reported on Form 4 for one filing date",
		Long: "Fetches every Form 4 filed on the given date from sec-api.io, flattens each filing into " +
			"one row per transaction, keeps the sale (code S) rows and reports shares sold, sale value " +
			"and the share of holdings sold. Prompts for the date when none is given.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return &pipeline.ConfigError{Err: err}
			}
			if err := config.InitLogger(c.Log); err != nil {
				return &pipeline.ConfigError{Err: err}
			}
			if cmd.Flags().Changed("out-dir") {
				c.Output.Dir = outDir
			}
			if cmd.Flags().Changed("parquet") {
				c.Output.Parquet = parquet
			}
			if cmd.Flags().Changed("sqlite") {
				c.Output.SQLitePath = sqlite
			}
			if err := c.Validate(); err != nil {
				return &pipeline.ConfigError{Err: err}
			}
			cfg = c
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			return runScan(cmd, cfg, arg)
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for export files")
	cmd.Flags().BoolVar(&parquet, "parquet", false, "also write a parquet export")
	cmd.Flags().StringVar(&sqlite, "sqlite", "", "also store sales in this SQLite database")
	return cmd
}

// printFailure writes a classified error for the operator.
func printFailure(w io.Writer, f pipeline.Failure) {
	fmt.Fprintf(w, "\n%s:\n%s\n", f.Label, f.Detail)
	if f.Hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", f.Hint)
	}
}

// run executes cmd and returns the process exit code. Logs are flushed on
// every path, including failures.
func run(cmd *cobra.Command) int {
	err := cmd.Execute()
	_ = zap.L().Sync()
	if err != nil {
		printFailure(cmd.ErrOrStderr(), pipeline.Classify(err))
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(newRootCmd()))
}
