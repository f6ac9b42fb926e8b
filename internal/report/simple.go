package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/database"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Plain ASCII formatting works in every terminal and pipes cleanly to
// files and other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections without data are shown.
	showEmpty bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the statistics in human-readable format.
func (w *SimpleWriter) Write(stats *database.Stats) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	w.writeSummary(&sb, stats)
	w.writeTopDomains(&sb, stats)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header.
func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          CRAWL STATISTICS\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// writeSummary writes the URL outcome counters.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, stats *database.Stats) {
	sb.WriteString(fmt.Sprintf("  Crawled pages:   %d\n", stats.Crawled))
	sb.WriteString(fmt.Sprintf("  Pending URLs:    %d\n", stats.Pending))
	sb.WriteString(fmt.Sprintf("  Disallowed URLs: %d\n", stats.Disallowed))
	sb.WriteString(fmt.Sprintf("  Errors:          %d\n", stats.Errors))
	sb.WriteString(fmt.Sprintf("  Banned domains:  %d\n", stats.BannedDomains))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Average relevance score: %.3f\n", stats.AverageScore))
	sb.WriteString("\n")
}

// writeTopDomains writes the most crawled domains section.
func (w *SimpleWriter) writeTopDomains(sb *strings.Builder, stats *database.Stats) {
	if len(stats.TopDomains) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TOP DOMAINS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(stats.TopDomains) == 0 {
		sb.WriteString("  No pages crawled yet\n")
	} else {
		for _, dc := range stats.TopDomains {
			sb.WriteString(fmt.Sprintf("  %6d  %s\n", dc.Count, dc.Domain))
		}
	}
	sb.WriteString("\n")
}
