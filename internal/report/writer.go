package report

import (
	"io"

	"github.com/privsig/gpcscan/internal/model"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface so a report can go to the
// terminal, a file, or both at once with the same API; the destinations
// differ per CLI invocation.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.EvidenceReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously, for example to
// both the terminal and a file.
//
// Design decision: A separate type rather than io.MultiWriter because
// our Writer interface writes reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers. Returns the total
// bytes written; stops on the first error encountered.
func (m *MultiWriter) Write(report *model.EvidenceReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
