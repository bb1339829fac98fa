// Package report accumulates the lines of one report.
package report

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Report is an append-only line buffer with a fixed two-line header. Lines
// cannot be read back until Finalize; after Finalize further appends are
// dropped.
type Report struct {
	mu      sync.Mutex
	tag     string
	title   string
	started time.Time
	lines   []string
	text    string
	done    bool
}

// New starts a report. The header is
//
//	[<tag>] ===== <title> =====
//	Time: <started, RFC 3339 with nanoseconds>
func New(tag, title string, started time.Time) *Report {
	return &Report{tag: tag, title: title, started: started}
}

func (r *Report) Title() string { return r.title }

func (r *Report) Started() time.Time { return r.started }

// Line appends s. Embedded newlines are kept as-is.
func (r *Report) Line(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.lines = append(r.lines, s)
}

func (r *Report) Linef(format string, args ...any) {
	r.Line(fmt.Sprintf(format, args...))
}

// Finalize returns the full text, every line terminated by "\n". It is
// computed once; later calls return the same text.
func (r *Report) Finalize() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return r.text
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] ===== %s =====\n", r.tag, r.title)
	fmt.Fprintf(&sb, "Time: %s\n", r.started.Format(time.RFC3339Nano))
	for _, l := range r.lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	r.text = sb.String()
	r.lines = nil
	r.done = true
	return r.text
}
