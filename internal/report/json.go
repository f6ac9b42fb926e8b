package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/database"
)

// JSONWriter outputs statistics in JSON format for tool integration and
// programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version identifies the tool build in the output envelope.
	version string

	// now supplies the report timestamp. Replaceable in tests.
	now func() time.Time
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output. The prefix is prepended
// to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
// version appears in the output envelope.
func NewJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Snapshot is the JSON envelope: the statistics plus metadata about the
// tool build and report time.
type Snapshot struct {
	// Version is the tool version that generated this snapshot.
	Version string `json:"version"`

	// GeneratedAt is when the snapshot was taken.
	GeneratedAt time.Time `json:"generatedAt"`

	// Stats is the crawl statistics payload.
	Stats *database.Stats `json:"stats"`
}

// Write outputs the statistics wrapped in a Snapshot envelope.
func (w *JSONWriter) Write(stats *database.Stats) (int, error) {
	snapshot := Snapshot{
		Version:     w.version,
		GeneratedAt: w.now(),
		Stats:       stats,
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(snapshot, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(snapshot)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')
	return w.output.Write(data)
}
