package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Narrain/eda-tool/diag"
	"github.com/Narrain/eda-tool/kernel"
)

var batchCmd = &cobra.Command{
	Use:   "batch <directory>",
	Short: "Simulate every source file in a directory concurrently",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().Int64("max", 0, "stop each simulation after this time (0 = run until the queue drains or $finish)")
	batchCmd.Flags().Int("jobs", 0, "max parallel simulations (0 = GOMAXPROCS)")
}

type batchResult struct {
	Path          string
	Time          int64
	StopRequested bool
	Err           error
}

func listSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".v") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	maxTime, _ := cmd.Flags().GetInt64("max")
	jobs, _ := cmd.Flags().GetInt("jobs")

	files, err := listSourceFiles(dir)
	if err != nil {
		return &buildError{err}
	}
	if len(files) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no .v files found under %s\n", dir)
		return nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	p := diag.NewPrinter(cmd.ErrOrStderr(), colorEnabled(cmd))
	results := make([]batchResult, len(files))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			rd, err := buildDesign(path, nil)
			if err != nil {
				results[i] = batchResult{Path: path, Err: err}
				return nil
			}
			k := kernel.New()
			if err := k.LoadDesign(rd); err != nil {
				results[i] = batchResult{Path: path, Err: err}
				return nil
			}
			k.Run(maxTime)
			results[i] = batchResult{Path: path, Time: k.Time(), StopRequested: k.StopRequested()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &buildError{err}
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			p.Print(diag.Diagnostic{Severity: diag.SevError, Message: fmt.Sprintf("%s: %v", r.Path, r.Err)})
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: finished at time %d (stop requested: %v)\n", r.Path, r.Time, r.StopRequested)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to build", failed, len(files))
	}
	return nil
}
