// Package trace loads and replays allocation traces written in YAML:
//
//	size: 4KiB
//	ops:
//	  - {op: alloc, name: a, size: 40}
//	  - {op: alloc, name: b, size: 20}
//	  - {op: free, name: a}
//	  - {op: free, ptr: 0, expect: null-pointer}
//	  - {op: alloc, size: 1MiB, expect: out-of-memory}
//	  - {op: dump}
//	  - {op: check}
//
// Allocations may be named; a later free refers to the block by that name.
// Every op may state the error it expects; an op without expect must succeed.
package trace

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/heapkit/heap"
)

// Op kinds.
const (
	OpAlloc = "alloc"
	OpFree  = "free"
	OpDump  = "dump"
	OpCheck = "check"
)

var (
	// ErrInvalidTrace indicates a trace that cannot be replayed as written.
	ErrInvalidTrace = errors.New("trace: invalid trace")

	// ErrUnexpected indicates an op whose outcome differs from its expect field.
	ErrUnexpected = errors.New("trace: unexpected result")
)

// expectations maps the names accepted in expect to heap errors.
var expectations = map[string]error{
	"invalid-size":  heap.ErrInvalidSize,
	"out-of-memory": heap.ErrOutOfMemory,
	"null-pointer":  heap.ErrNullPointer,
	"misaligned":    heap.ErrMisaligned,
	"out-of-range":  heap.ErrOutOfRange,
	"double-free":   heap.ErrDoubleFree,
	"not-block":     heap.ErrNotBlock,
}

// ErrorName returns the expect name of err, or "" when err is not a heap error.
func ErrorName(err error) string {
	for name, target := range expectations {
		if errors.Is(err, target) {
			return name
		}
	}
	return ""
}

// ByteSize is a size that may be written as a plain integer or as a
// humanized string such as "64KiB" or "1 MB".
type ByteSize int

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", node.Line)
	}
	switch n, err := strconv.ParseInt(node.Value, 0, 64); {
	case errors.Is(err, strconv.ErrRange), err == nil && (n > math.MaxInt || n < math.MinInt):
		return fmt.Errorf("line %d: size %q overflows int", node.Line, node.Value)
	case err == nil:
		*s = ByteSize(n)
		return nil
	}
	n, err := humanize.ParseBytes(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: size %q: %w", node.Line, node.Value, err)
	}
	if n > math.MaxInt {
		return fmt.Errorf("line %d: size %q overflows int", node.Line, node.Value)
	}
	*s = ByteSize(n)
	return nil
}

// Op is one step of a trace.
type Op struct {
	Op     string    `yaml:"op"`
	Name   string    `yaml:"name,omitempty"`
	Size   ByteSize  `yaml:"size,omitempty"`
	Ptr    *heap.Ptr `yaml:"ptr,omitempty"`
	Expect string    `yaml:"expect,omitempty"`
}

// Trace is a region size plus a list of ops.
type Trace struct {
	Size ByteSize `yaml:"size"`
	Ops  []Op     `yaml:"ops"`
}

// Load decodes and validates a trace. Unknown keys are rejected.
func Load(r io.Reader) (*Trace, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var tr Trace
	if err := dec.Decode(&tr); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidTrace)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidTrace, err)
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return &tr, nil
}

// LoadFile loads the trace stored at path.
func LoadFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Validate checks the parts of a trace that do not depend on replay.
func (tr *Trace) Validate() error {
	for i, op := range tr.Ops {
		if op.Expect != "" {
			if _, ok := expectations[op.Expect]; !ok {
				return fmt.Errorf("%w: op %d: unknown expect %q", ErrInvalidTrace, i+1, op.Expect)
			}
		}
		switch op.Op {
		case OpAlloc:
			if op.Ptr != nil {
				return fmt.Errorf("%w: op %d: alloc takes no ptr", ErrInvalidTrace, i+1)
			}
		case OpFree:
			if (op.Name == "") == (op.Ptr == nil) {
				return fmt.Errorf("%w: op %d: free needs exactly one of name or ptr", ErrInvalidTrace, i+1)
			}
		case OpDump, OpCheck:
			if op.Expect != "" {
				return fmt.Errorf("%w: op %d: %s cannot fail with %q", ErrInvalidTrace, i+1, op.Op, op.Expect)
			}
		default:
			return fmt.Errorf("%w: op %d: unknown op %q", ErrInvalidTrace, i+1, op.Op)
		}
	}
	return nil
}
