package npdb

import (
	"fmt"
	"io"
)

// SearchPosition describes the progress of an abstract search at the
// moment it is traced.
type SearchPosition interface {
	Phase() string
	Registered() int
	Expanded() int
	Exhausted() bool
}

type Tracer interface {
	Trace(p SearchPosition)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ SearchPosition) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p SearchPosition) {
	fmt.Fprintf(t.Writer, "---\nPhase: %s\n", p.Phase())
	fmt.Fprintf(t.Writer, "- registered: %d\n", p.Registered())
	fmt.Fprintf(t.Writer, "- expanded: %d\n", p.Expanded())
	fmt.Fprintf(t.Writer, "- exhausted: %t\n", p.Exhausted())
}
