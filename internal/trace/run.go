package trace

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Result records the outcome of one op.
type Result struct {
	Index int      `json:"index"` // 1-based
	Op    string   `json:"op"`
	Name  string   `json:"name,omitempty"`
	Size  int      `json:"size,omitempty"`
	Ptr   heap.Ptr `json:"ptr,omitempty"`
	Error string   `json:"error,omitempty"` // expect name of the heap error, if any
}

func (r Result) String() string {
	s := fmt.Sprintf("#%d %s", r.Index, r.Op)
	if r.Name != "" {
		s += " " + r.Name
	}
	if r.Op == OpAlloc {
		s += fmt.Sprintf(" size=%d", r.Size)
	}
	if r.Op == OpAlloc || r.Op == OpFree {
		s += " -> " + r.Ptr.String()
	}
	if r.Error != "" {
		s += " (" + r.Error + ")"
	}
	return s
}

// Run replays tr against h, which must already be initialized. A line per
// op goes to w (nil discards); dump ops print the block table there too.
//
// Replay stops at the first op whose outcome differs from its expect field
// (ErrUnexpected), at a free of an unbound name (ErrInvalidTrace), or when a
// check op finds a broken invariant. The results up to and including the
// failing op are returned in every case.
func Run(h *heap.Heap, tr *Trace, w io.Writer) ([]Result, error) {
	if w == nil {
		w = io.Discard
	}
	bound := make(map[string]heap.Ptr)
	results := make([]Result, 0, len(tr.Ops))

	for i, op := range tr.Ops {
		res := Result{Index: i + 1, Op: op.Op, Name: op.Name}
		var err error

		switch op.Op {
		case OpAlloc:
			res.Size = int(op.Size)
			res.Ptr, err = h.Alloc(res.Size)
			if err == nil && op.Name != "" {
				bound[op.Name] = res.Ptr
			}
		case OpFree:
			if op.Ptr != nil {
				res.Ptr = *op.Ptr
			} else {
				p, ok := bound[op.Name]
				if !ok {
					results = append(results, res)
					return results, fmt.Errorf("%w: op %d: free of unbound name %q", ErrInvalidTrace, res.Index, op.Name)
				}
				res.Ptr = p
			}
			err = h.Free(res.Ptr)
		case OpDump:
			fmt.Fprintf(w, "%s\n", res)
			if perr := h.Print(w); perr != nil {
				return append(results, res), perr
			}
			results = append(results, res)
			continue
		case OpCheck:
			results = append(results, res)
			if cerr := h.Check(); cerr != nil {
				return results, fmt.Errorf("trace: op %d: %w", res.Index, cerr)
			}
			fmt.Fprintf(w, "%s ok\n", res)
			continue
		}

		res.Error = ErrorName(err)
		results = append(results, res)
		fmt.Fprintf(w, "%s\n", res)
		logger.Debug("trace op", "index", res.Index, "op", res.Op, "name", res.Name, "ptr", res.Ptr.String(), "error", res.Error)

		if err := compare(op.Expect, err); err != nil {
			return results, fmt.Errorf("%w: op %d (%s): %w", ErrUnexpected, res.Index, res.Op, err)
		}
	}
	return results, nil
}

// compare matches an op's outcome against its expect field.
func compare(expect string, got error) error {
	switch {
	case expect == "" && got == nil:
		return nil
	case expect == "":
		return got
	case got == nil:
		return fmt.Errorf("expected %s, got success", expect)
	case !errors.Is(got, expectations[expect]):
		return fmt.Errorf("expected %s: %w", expect, got)
	default:
		return nil
	}
}
