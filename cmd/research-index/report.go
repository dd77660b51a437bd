package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/research-index/internal/quality"
	"github.com/pdiddy/research-index/pkg/types"
)

// printDocument writes the outline followed by its scores, page breakdown,
// and academic requirements.
func printDocument(w io.Writer, doc types.IndexDocument) {
	fmt.Fprintln(w, doc.Index)
	fmt.Fprintln(w)
	printScores(w, doc.Scores)

	if len(doc.EstimatedPages) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Estimated pages:")
		sections := make([]string, 0, len(doc.EstimatedPages))
		for section := range doc.EstimatedPages {
			sections = append(sections, section)
		}
		sort.Strings(sections)
		for _, section := range sections {
			fmt.Fprintf(w, "  %-30s  %s\n", section, doc.EstimatedPages[section])
		}
	}

	if req := doc.AcademicRequirements; req != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Academic requirements:")
		fmt.Fprintf(w, "  %-20s  %s\n", "literature review", check(req.HasLiteratureReview))
		fmt.Fprintf(w, "  %-20s  %s\n", "methodology", check(req.HasMethodology))
		fmt.Fprintf(w, "  %-20s  %s\n", "citations", check(req.HasCitations))
	}
}

func printScores(w io.Writer, s types.QualityScores) {
	fmt.Fprintf(w, "%-24s  %5s  %s\n", "Score", "Value", "Grade")
	fmt.Fprintln(w, strings.Repeat("-", 46))
	rows := []struct {
		name  string
		value int
	}{
		{"language purity", s.LanguagePurity},
		{"structural conformance", s.StructuralConformance},
		{"academic completeness", s.AcademicCompleteness},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-24s  %4d%%  %s\n", r.name, r.value, quality.GradeOf(r.value))
	}
}

func check(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
