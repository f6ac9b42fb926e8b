package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/database"
)

// MarkdownWriter outputs crawl statistics in Markdown format, for
// documentation and sharing. The mermaid pie chart renders on GitHub.
type MarkdownWriter struct {
	baseWriter

	// now supplies the report timestamp. Replaceable in tests.
	now func() time.Time
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}
}

// Write outputs the statistics in Markdown format.
func (w *MarkdownWriter) Write(stats *database.Stats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md)
	w.writeSummary(md, stats)
	w.writeTopDomains(md, stats)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and timestamp.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown) {
	md.H1("Crawl Statistics")
	md.PlainText("")
	md.PlainTextf("Generated %s", w.now().Format("2006-01-02 15:04:05 MST"))
	md.PlainText("")
}

// writeSummary writes the URL outcome table and distribution chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, stats *database.Stats) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Crawled pages", strconv.Itoa(stats.Crawled)},
			{"Pending URLs", strconv.Itoa(stats.Pending)},
			{"Disallowed URLs", strconv.Itoa(stats.Disallowed)},
			{"Errors", strconv.Itoa(stats.Errors)},
			{"Banned domains", strconv.Itoa(stats.BannedDomains)},
			{"Average relevance score", strconv.FormatFloat(stats.AverageScore, 'f', 3, 64)},
		},
	})
	md.PlainText("")

	if stats.Crawled+stats.Pending+stats.Disallowed+stats.Errors > 0 {
		w.writePieChart(md, stats)
	}
}

// writePieChart writes a mermaid pie chart of URL outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats *database.Stats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("URL Outcomes"),
		piechart.WithShowData(true),
	)

	if stats.Crawled > 0 {
		chart.LabelAndIntValue("Crawled", uint64(stats.Crawled))
	}
	if stats.Pending > 0 {
		chart.LabelAndIntValue("Pending", uint64(stats.Pending))
	}
	if stats.Disallowed > 0 {
		chart.LabelAndIntValue("Disallowed", uint64(stats.Disallowed))
	}
	if stats.Errors > 0 {
		chart.LabelAndIntValue("Errored", uint64(stats.Errors))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeTopDomains writes the most crawled domains table.
func (w *MarkdownWriter) writeTopDomains(md *markdown.Markdown, stats *database.Stats) {
	md.H2("Top Domains")
	md.PlainText("")

	if len(stats.TopDomains) == 0 {
		md.PlainText("No pages crawled yet.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(stats.TopDomains))
	for i, dc := range stats.TopDomains {
		rows[i] = []string{dc.Domain, strconv.Itoa(dc.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")
}
