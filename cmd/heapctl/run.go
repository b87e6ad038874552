package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/trace"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace.yaml>",
		Short: "Replay an allocation trace",
		Long: `The run command replays a YAML allocation trace against a fresh heap and
prints one line per operation. Dump operations print the block table.

The region size comes from the trace's size field; --size overrides it.

Example trace:
  size: 4KiB
  ops:
    - {op: alloc, name: a, size: 40}
    - {op: free, name: a}
    - {op: free, name: a, expect: double-free}
    - {op: dump}

Example:
  heapctl run trace.yaml
  heapctl run trace.yaml --file heap.img --size 1MiB
  heapctl run trace.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), args, cmd.Flags().Changed("size"))
		},
	}
	return cmd
}

// runReport is the JSON form of a replay.
type runReport struct {
	Trace   string         `json:"trace"`
	Results []trace.Result `json:"results"`
	Stats   heap.Stats     `json:"stats"`
	Blocks  []heap.Block   `json:"blocks"`
	Error   string         `json:"error,omitempty"`
}

func runTrace(ctx context.Context, args []string, sizeSet bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tracePath := args[0]

	printVerbose("Loading trace: %s\n", tracePath)
	tr, err := trace.LoadFile(tracePath)
	if err != nil {
		return err
	}

	size := int(tr.Size)
	if sizeSet || size <= 0 {
		if size, err = parseSize(sizeFlag); err != nil {
			return err
		}
	}

	s, err := openSession(size)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if quiet || jsonOut {
		out = nil
	}
	results, runErr := trace.Run(s.h, tr, out)

	if jsonOut {
		report := runReport{Trace: tracePath, Results: results, Stats: s.h.Stats(), Blocks: s.h.Dump()}
		if runErr != nil {
			report.Error = runErr.Error()
		}
		if err := printJSON(report); err != nil {
			runErr = errors.Join(runErr, err)
		}
	} else {
		printStats(s.h)
	}

	if showMetrics {
		if err := printMetrics(s.h); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	return errors.Join(runErr, s.close(ctx))
}
