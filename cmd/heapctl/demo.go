package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/format"
)

func init() {
	rootCmd.AddCommand(newDemoCmd())
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Show best-fit selection on a small fragmented heap",
		Long: `The demo command builds free blocks of 40, 24 and 32 bytes separated by
allocated guards, then allocates 20 bytes. The 24-byte block is the tightest
fit and is chosen even though the 40-byte block comes first.

Example:
  heapctl demo
  heapctl demo --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context())
		},
	}
	return cmd
}

// demoFree lists the free block sizes the demo lays out.
var demoFree = []int{40, 24, 32}

const (
	demoGuard   = 16
	demoRequest = 20
)

type demoReport struct {
	Before  []heap.Block `json:"before"`
	Request int          `json:"request"`
	Ptr     heap.Ptr     `json:"ptr"`
	Chosen  heap.Block   `json:"chosen"`
	After   []heap.Block `json:"after"`
}

func runDemo(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	size, err := parseSize(sizeFlag)
	if err != nil {
		return err
	}
	s, err := openSession(size)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close(ctx)) }()
	h := s.h

	ptrs := make([]heap.Ptr, 0, len(demoFree))
	for _, blockSize := range demoFree {
		p, err := h.Alloc(blockSize - format.HeaderSize)
		if err != nil {
			return fmt.Errorf("demo needs a larger --size: %w", err)
		}
		ptrs = append(ptrs, p)
		if _, err := h.Alloc(demoGuard - format.HeaderSize); err != nil {
			return fmt.Errorf("demo needs a larger --size: %w", err)
		}
	}
	for _, p := range ptrs {
		if err := h.Free(p); err != nil {
			return err
		}
	}

	report := demoReport{Before: h.Dump(), Request: demoRequest}
	if !jsonOut {
		printInfo("Before:\n")
		if err := printTable(h); err != nil {
			return err
		}
	}

	if report.Ptr, err = h.Alloc(demoRequest); err != nil {
		return err
	}
	report.After = h.Dump()
	for _, b := range report.After {
		if b.Payload() == report.Ptr {
			report.Chosen = b
		}
	}

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printInfo("\nAlloc(%d) -> %s, block %d (%d bytes at 0x%X)\n\n",
			demoRequest, report.Ptr, report.Chosen.Seq, report.Chosen.Size, report.Chosen.Start)
		printInfo("After:\n")
		if err := printTable(h); err != nil {
			return err
		}
	}

	if showMetrics {
		return printMetrics(h)
	}
	return nil
}
