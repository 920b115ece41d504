package report

import (
	"fmt"
	"strings"

	"veritas/domain/core"
	"veritas/domain/evaluation"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Entry is one family's result table with its optional comparison
type Entry struct {
	Table      *evaluation.ResultTable
	Comparison *evaluation.ComparisonReport
}

// Header identifies the run the report was produced from
type Header struct {
	Title       string
	RunID       core.RunID
	Fingerprint core.Hash
	BaseSeed    int64
}

// Markdown renders the entries as a Markdown document
func Markdown(h Header, entries []Entry) string {
	var b strings.Builder

	title := h.Title
	if title == "" {
		title = "Evaluation report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if h.RunID != "" {
		fmt.Fprintf(&b, "- Run: `%s`\n", h.RunID)
	}
	if !h.Fingerprint.IsEmpty() {
		fmt.Fprintf(&b, "- Configuration: `%s`\n", h.Fingerprint.Short())
	}
	fmt.Fprintf(&b, "- Base seed: %d\n\n", h.BaseSeed)

	for _, e := range entries {
		if e.Table == nil {
			continue
		}
		writeEntry(&b, e)
	}
	return b.String()
}

func writeEntry(b *strings.Builder, e Entry) {
	t := e.Table
	fmt.Fprintf(b, "## %s\n\n", t.Family)
	fmt.Fprintf(b, "%d rounds configured, %d rows, %d round failures.\n\n", t.Rounds, len(t.Rows), len(t.Failures))

	if summaries := Summarize(t); len(summaries) > 0 {
		b.WriteString("### Summary\n\n")
		b.WriteString("| Variant | Rounds | Accuracy | Sensitivity | Specificity | Precision | NPV |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
		for _, s := range summaries {
			fmt.Fprintf(b, "| %s | %d | %s | %s | %s | %s | %s |\n", s.Variant, s.Rounds,
				meanSD(s.Accuracy), meanSD(s.Sensitivity), meanSD(s.Specificity), meanSD(s.Precision), meanSD(s.NPV))
		}
		b.WriteString("\n")
	}

	if c := e.Comparison; c != nil {
		b.WriteString("### Hybrid vs non-hybrid\n\n")
		fmt.Fprintf(b, "Mean accuracy %.4f (hybrid) vs %.4f (non-hybrid) over %d paired rounds; hybrid wins %d, ties %d.\n\n",
			c.HybridAccuracy, c.NonHybridAccuracy, c.EffectiveN, c.HybridWins, c.Ties)
		b.WriteString("| Test | Statistic | p-value | N | Method | Note |\n")
		b.WriteString("|---|---:|---:|---:|---|---|\n")
		for _, tr := range []evaluation.TestResult{c.TwoProportion, c.Sign, c.Wilcoxon} {
			fmt.Fprintf(b, "| %s | %.4f | %.4g | %d | %s | %s |\n", tr.Name, tr.Statistic, tr.PValue, tr.N, tr.Method, tr.Note)
		}
		b.WriteString("\n")
	}

	if len(t.Rows) > 0 {
		b.WriteString("### Rounds\n\n")
		b.WriteString("| Round | Variant | Accuracy | 95% CI | Sensitivity | Specificity | Precision | NPV | n | Params |\n")
		b.WriteString("|---:|---|---:|---|---:|---:|---:|---:|---:|---|\n")
		for _, r := range t.Rows {
			fmt.Fprintf(b, "| %d | %s | %.4f | [%.4f, %.4f] | %.4f | %.4f | %.4f | %.4f | %d | %s |\n",
				r.Round, r.Variant(), r.Accuracy, r.AccuracyLower, r.AccuracyUpper,
				r.Sensitivity, r.Specificity, r.Precision, r.NPV, r.N, r.Params)
		}
		b.WriteString("\n")
	}

	if len(t.Failures) > 0 {
		b.WriteString("### Failures\n\n")
		for _, f := range t.Failures {
			variant := string(f.Variant)
			if variant == "" {
				variant = "round"
			}
			fmt.Fprintf(b, "- round %d (%s): %s\n", f.Round, variant, escapePipes(f.Error))
		}
		b.WriteString("\n")
	}
}

func meanSD(s Stat) string {
	return fmt.Sprintf("%.4f ± %.4f", s.Mean, s.SD)
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// HTML renders Markdown as a complete HTML page
func HTML(title, md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}
