package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/heapmetrics"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/region"
)

const defaultSize = "64KiB"

var (
	// Global flags
	verbose     bool
	quiet       bool
	jsonOut     bool
	sizeFlag    string
	filePath    string
	logFile     string
	showMetrics bool
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Drive and inspect best-fit heap regions",
	Long: `heapctl runs allocation traces against a heap region, demonstrates the
best-fit policy, and inspects heap images kept in files.

A region is anonymous memory unless --file names a file, in which case the
heap lives in a shared mapping of that file and survives the process.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Close()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&sizeFlag, "size", "s", defaultSize, "Region size (e.g. 4096, 64KiB, 1MB)")
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "", "Back the region with this file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "Print heap metrics in Prometheus text format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

func setupLogging() error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logger.Init(logger.Options{
		Enabled: verbose || logFile != "",
		LogFile: logFile,
		JSON:    jsonOut,
		Level:   level,
	})
}

// parseSize parses a humanized byte count such as "64KiB".
func parseSize(s string) (int, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n == 0 || n > 1<<32 || n > math.MaxInt {
		return 0, fmt.Errorf("invalid size %q: must be between 1 byte and 4GiB", s)
	}
	return int(n), nil
}

// session is one heap over one acquired region.
type session struct {
	r       *region.Region
	h       *heap.Heap
	tracker *dirty.Tracker
}

// openSession acquires a region of size bytes (anonymous, or the --file
// mapping) and formats a fresh heap over it.
func openSession(size int) (*session, error) {
	var (
		r   *region.Region
		err error
	)
	if filePath != "" {
		r, err = region.MapFile(filePath, size)
	} else {
		r, err = region.Map(size)
	}
	if err != nil {
		return nil, err
	}
	printVerbose("Region: %s (%s bytes, file=%q)\n", humanize.IBytes(uint64(size)), humanize.Comma(int64(size)), filePath)

	tracker := dirty.NewTracker(region.PageSize())
	h, err := heap.New(r.Bytes()[:size], &heap.Options{Logger: logger.L, Tracker: tracker})
	if err != nil {
		r.Close()
		return nil, err
	}
	return &session{r: r, h: h, tracker: tracker}, nil
}

// close flushes dirty metadata pages of a file-backed region and releases it.
func (s *session) close(ctx context.Context) error {
	if s.r.FileBacked() {
		pages := len(s.tracker.Ranges())
		if err := s.tracker.Flush(ctx, s.r); err != nil {
			s.r.Close()
			return fmt.Errorf("flush %s: %w", filePath, err)
		}
		printVerbose("Flushed %d dirty page range(s) to %s\n", pages, filePath)
	}
	return s.r.Close()
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printTable prints the block table unless quiet.
func printTable(h *heap.Heap) error {
	if quiet {
		return nil
	}
	return h.Print(os.Stdout)
}

// printStats prints a one-line summary of h.
func printStats(h *heap.Heap) {
	st := h.Stats()
	printInfo("Blocks: %d (%d allocated, %d free), used %s, free %s, largest free %s\n",
		st.Blocks, st.AllocatedBlocks, st.FreeBlocks,
		humanize.IBytes(uint64(st.UsedBytes)),
		humanize.IBytes(uint64(st.FreeBytes)),
		humanize.IBytes(uint64(st.LargestFree)))
}

// printMetrics writes h's metrics in the Prometheus text exposition format.
func printMetrics(h *heap.Heap) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(heapmetrics.NewCollector(h, "heapkit")); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return err
		}
	}
	return nil
}
