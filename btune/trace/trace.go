// Package trace renders the one-line-per-step tabular trace enabled by
// BTUNE_TRACE and keeps the emitted records in memory for tests and
// programmatic inspection.
package trace

import (
	"fmt"
	"io"
	"os"
)

// Record is one row of the trace table: the proposed parameters, the
// measurements taken for them, and the state-machine bookkeeping that
// produced them.
type Record struct {
	Codec       string
	Filter      string
	Split       string
	CLevel      int
	Blocksize   int
	Shufflesize int
	CThreads    int
	DThreads    int
	Score       float64
	CRatio      float64
	State       string
	Readapt     string
	Winner      string // "W" improved, "-" did not, "S" special chunk
}

const bannerLine = "Codec   | Filter     | Split | C.Level | Blocksize | Shufflesize | C.Threads | D.Threads | Score      | C.Ratio  | State        | Readapt | Winner"

// Tracer collects Records and, when enabled, writes the table to its
// writer as each step is recorded.
type Tracer struct {
	enabled bool
	w       io.Writer

	bannerPrinted bool
	records       []Record
}

// NewTracer returns a Tracer writing to stdout. Pass enabled=false (the
// BTUNE_TRACE-unset default) for a zero-overhead no-op tracer that still
// keeps an in-memory record list for tests.
func NewTracer(enabled bool) *Tracer {
	return &Tracer{enabled: enabled, w: os.Stdout}
}

// Step records r and, if tracing is enabled, prints it (printing the
// banner first if this is the first step).
func (t *Tracer) Step(r Record) {
	t.records = append(t.records, r)
	if !t.enabled {
		return
	}
	if !t.bannerPrinted {
		fmt.Fprintln(t.w, bannerLine)
		t.bannerPrinted = true
	}
	fmt.Fprintf(t.w, "%-7s | %-10s | %-5s | %-7d | %-9d | %-11d | %-9d | %-9d | %-10.4f | %-8.3f | %-12s | %-7s | %s\n",
		r.Codec, r.Filter, r.Split, r.CLevel, r.Blocksize, r.Shufflesize, r.CThreads, r.DThreads,
		r.Score, r.CRatio, r.State, r.Readapt, r.Winner)
}

// Records returns every step recorded so far, regardless of whether
// tracing was enabled for printing.
func (t *Tracer) Records() []Record {
	return t.records
}
