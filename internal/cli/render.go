package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/inv-mschultz/edgy-sub001/internal/analysis"
)

// renderReport writes the human-readable form of a report: a summary line,
// findings grouped by screen, then missing screens and warnings.
func renderReport(w io.Writer, report *analysis.Report) {
	counts := report.Counts()
	fmt.Fprintf(w, "Run %s: %d screen(s), %d finding(s), %d missing screen(s) (%d critical, %d warning, %d info)\n",
		report.RunID, len(report.Screens), len(report.Findings), len(report.MissingScreens),
		counts.Critical, counts.Warning, counts.Info)

	for _, s := range report.Screens {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s (%s)\n", s.Name, s.ID)
		findings := report.FindingsFor(s.ID)
		if len(findings) == 0 {
			fmt.Fprintln(w, "  ✓ no findings")
			continue
		}
		for _, f := range findings {
			fmt.Fprintf(w, "  [%s] %s\n", f.Severity, f.Title)
			writeIndented(w, f.Description, "      ")
			if f.Recommendation != "" {
				writeIndented(w, "Fix: "+f.Recommendation, "      ")
			}
		}
	}

	if len(report.MissingScreens) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Missing screens:")
		for _, m := range report.MissingScreens {
			fmt.Fprintf(w, "  [%s] %s\n", m.Severity, m.Title)
			writeIndented(w, m.Description, "      ")
			if len(m.Components) > 0 {
				names := make([]string, len(m.Components))
				for i, c := range m.Components {
					names[i] = c.DisplayName
				}
				fmt.Fprintf(w, "      Suggested components: %s\n", strings.Join(names, ", "))
			}
		}
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range report.Warnings {
			if warn.RuleID != "" {
				fmt.Fprintf(w, "  %s %s: %s\n", warn.RuleID, warn.Location, warn.Message)
			} else {
				fmt.Fprintf(w, "  %s: %s\n", warn.Location, warn.Message)
			}
		}
	}
}

func writeIndented(w io.Writer, text, indent string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}
