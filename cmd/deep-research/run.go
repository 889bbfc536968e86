// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Research a single query",
	Long: `Run researches one query. Sources are gathered from DuckDuckGo and the local
data directory, a report is synthesized and scored, and the loop repeats with
the evaluator's feedback until effectiveness reaches the quality threshold or
the iteration cap is hit. Sources are broadened whenever coverage is low.

The final report and its scores are printed; use --json or --output to keep
the full result including per-iteration history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig(viper.GetViper())
	a, err := newApp(ctx, cfg, loadedSecrets, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	maxIter, _ := cmd.Flags().GetInt("max-iterations")
	query := strings.Join(args, " ")

	res, err := a.runner.Run(ctx, query, maxIter, userFlag(cmd, cfg))
	if err != nil {
		return err
	}
	return writeResult(cmd, res)
}

func writeResult(cmd *cobra.Command, v any) error {
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		if err := research.WriteYAML(out, v); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", out)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return research.FormatJSON(os.Stdout, v)
	}
	switch r := v.(type) {
	case *types.Result:
		research.FormatText(os.Stdout, r)
	case types.BatchResult:
		research.FormatBatchSummary(os.Stdout, r)
	}
	return nil
}

func userFlag(cmd *cobra.Command, cfg types.Config) string {
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		return u
	}
	return defaultUser(cfg)
}

func init() {
	runCmd.Flags().Int("max-iterations", 0, "iteration cap (default: research.max_iterations)")
	runCmd.Flags().Bool("json", false, "print the result as JSON")
	runCmd.Flags().String("output", "", "also write the result to this YAML file")

	rootCmd.AddCommand(runCmd)
}
