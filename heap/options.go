package heap

import (
	"log/slog"
	"os"
)

// logEnv enables debug logging to stderr for heaps built without a Logger.
const logEnv = "HEAPKIT_LOG_ALLOC"

// DirtyTracker receives every metadata write the heap performs.
// off is the offset from the start of the region, length is the number of bytes.
//
// *dirty.Tracker satisfies this interface.
type DirtyTracker interface {
	Add(off, length int)
}

// Options configures a Heap. A nil *Options selects the defaults.
type Options struct {
	// Logger receives init, out-of-memory and rejected-free events at info
	// and warn level, and split/coalesce events at debug level.
	// Default: discard, or a stderr text logger when HEAPKIT_LOG_ALLOC is set.
	Logger *slog.Logger

	// Tracker, when set, is told about each header, footer and sentinel
	// word the heap writes.
	Tracker DirtyTracker
}

func (o *Options) logger() *slog.Logger {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return defaultLogger()
}

func (o *Options) tracker() DirtyTracker {
	if o == nil {
		return nil
	}
	return o.Tracker
}

func defaultLogger() *slog.Logger {
	if os.Getenv(logEnv) != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.DiscardHandler)
}
