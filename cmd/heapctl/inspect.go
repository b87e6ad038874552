package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/region"
)

func init() {
	rootCmd.AddCommand(newInspectCmd())
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "Validate a heap image file and print its blocks",
		Long: `The inspect command maps a heap image written with --file, checks every
layout invariant and prints the block table and a summary.

Example:
  heapctl run trace.yaml --file heap.img
  heapctl inspect heap.img
  heapctl inspect heap.img --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
	return cmd
}

type inspectReport struct {
	File   string       `json:"file"`
	Stats  heap.Stats   `json:"stats"`
	Blocks []heap.Block `json:"blocks"`
}

func runInspect(args []string) error {
	imagePath := args[0]

	printVerbose("Mapping image: %s\n", imagePath)
	r, err := region.MapFile(imagePath, 0)
	if err != nil {
		return err
	}
	defer r.Close()

	h, err := heap.Attach(r.Bytes(), &heap.Options{Logger: logger.L})
	if err != nil {
		return fmt.Errorf("%s: %w", imagePath, err)
	}

	if jsonOut {
		return printJSON(inspectReport{File: imagePath, Stats: h.Stats(), Blocks: h.Dump()})
	}

	printInfo("Image: %s (%s)\n", imagePath, humanize.IBytes(uint64(r.Len())))
	if err := printTable(h); err != nil {
		return err
	}
	printStats(h)
	printInfo("Layout: valid\n")

	if showMetrics {
		return printMetrics(h)
	}
	return nil
}
