// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/research"
)

var batchCmd = &cobra.Command{
	Use:   "batch [queries...]",
	Short: "Research many queries concurrently",
	Long: `Batch runs one research loop per query at the same time. Queries come from
the arguments, from a YAML query file (--file), or both. A failing query is
reported and does not stop the others.

The query file is either a list of strings or a mapping:

  queries:
    - impact of AI on education
    - renewable energy and the economy
  max_iterations: 3
  user: admin`,
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, _ := cmd.Flags().GetString("file")
	maxIter, _ := cmd.Flags().GetInt("max-iterations")
	user, _ := cmd.Flags().GetString("user")

	qf, err := resolveBatch(args, path, maxIter, user)
	if err != nil {
		return err
	}
	if save, _ := cmd.Flags().GetString("save-queries"); save != "" {
		if err := research.WriteQueryFile(save, qf); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", save)
	}

	cfg := loadConfig(viper.GetViper())
	if c, _ := cmd.Flags().GetInt("concurrency"); c > 0 {
		cfg.Research.MaxConcurrency = c
	}
	if qf.User == "" {
		qf.User = defaultUser(cfg)
	}

	a, err := newApp(ctx, cfg, loadedSecrets, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out := a.runner.RunBatch(ctx, qf.Queries, qf.MaxIterations, qf.User)
	if err := writeResult(cmd, out); err != nil {
		return err
	}
	if out.HasFailures() {
		return fmt.Errorf("%d of %d queries failed", len(out.Failed), out.Total())
	}
	return nil
}

// resolveBatch combines argument queries with those of the query file at
// path. Flag values win over the file's max_iterations and user.
func resolveBatch(args []string, path string, maxIter int, user string) (research.QueryFile, error) {
	qf := research.QueryFile{
		Queries:       append([]string(nil), args...),
		MaxIterations: maxIter,
		User:          user,
	}
	if path != "" {
		fromFile, err := research.ReadQueryFile(path)
		if err != nil {
			return qf, err
		}
		qf.Queries = append(qf.Queries, fromFile.Queries...)
		if qf.MaxIterations == 0 {
			qf.MaxIterations = fromFile.MaxIterations
		}
		if qf.User == "" {
			qf.User = fromFile.User
		}
	}
	if len(qf.Queries) == 0 {
		return qf, fmt.Errorf("no queries: pass queries as arguments or use --file")
	}
	return qf, nil
}

func init() {
	batchCmd.Flags().String("file", "", "YAML file listing the queries")
	batchCmd.Flags().Int("max-iterations", 0, "iteration cap per query (default: research.max_iterations)")
	batchCmd.Flags().Int("concurrency", 0, "maximum loops in flight (default: research.max_concurrency, 0 = all)")
	batchCmd.Flags().Bool("json", false, "print the batch result as JSON")
	batchCmd.Flags().String("output", "", "also write the batch result to this YAML file")
	batchCmd.Flags().String("save-queries", "", "write the resolved queries to this YAML query file")

	rootCmd.AddCommand(batchCmd)
}
