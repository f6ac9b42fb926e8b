package report

import (
	"io"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/database"
)

// Writer renders crawl statistics to a configured destination.
// Implementations exist for plain text, Markdown, and JSON.
type Writer interface {
	// Write outputs the statistics and returns the number of bytes
	// written and any error encountered.
	Write(stats *database.Stats) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously, useful for
// outputting to both the terminal and a file. It is a separate type
// rather than io.MultiWriter because Writers consume statistics, not
// raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the statistics to all configured Writers. It returns the
// total bytes written and stops on the first error encountered.
func (m *MultiWriter) Write(stats *database.Stats) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(stats)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
