// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality scores an outline's text with three shallow lexical
// heuristics: language purity, structural conformance, and academic
// completeness. Every function is pure and total: any string, including the
// empty string, yields a score in [0, 100].
package quality

import (
	"math"
	"regexp"
	"strings"

	"github.com/pdiddy/research-index/pkg/types"
)

const (
	// introductionMarker and conclusionMarker are the indefinite forms of the
	// section names, so "المقدمة" and "مقدمة" both match.
	introductionMarker = "مقدمة"
	conclusionMarker   = "خاتمة"

	conformantScore = 100
	fallbackScore   = 75

	academicTermWeight = 20
	maxScore           = 100
)

// academicTerms are the vocabulary markers counted by AcademicCompleteness:
// methodology, prior literature, theoretical framework, analysis, results.
var academicTerms = []string{
	"منهجية",
	"دراسات سابقة",
	"إطار نظري",
	"تحليل",
	"نتائج",
}

// Heading patterns are anchored at line starts so that a main heading and a
// sub-heading can both be present. The trailing dot after a sub-heading
// number is optional ("1.1 " and "1.1. ").
var (
	mainSectionPattern = regexp.MustCompile(`(?m)^\d+\.\s`)
	subSectionPattern  = regexp.MustCompile(`(?m)^\d+\.\d+\.?\s`)
)

// Evaluate computes all three scores for text.
func Evaluate(text string) types.QualityScores {
	return types.QualityScores{
		LanguagePurity:        LanguagePurity(text),
		StructuralConformance: StructuralConformance(text),
		AcademicCompleteness:  AcademicCompleteness(text),
	}
}

// LanguagePurity relates the number of Arabic-block characters (U+0600 to
// U+06FF) to the number of whitespace-delimited tokens, capped at 100.
// Text with no tokens scores 0.
func LanguagePurity(text string) int {
	tokens := len(strings.Fields(text))
	if tokens == 0 {
		return 0
	}
	arabic := 0
	for _, r := range text {
		if isArabic(r) {
			arabic++
		}
	}
	score := int(math.Round(float64(arabic) / float64(tokens) * 100))
	return min(maxScore, score)
}

func isArabic(r rune) bool {
	return r >= 0x0600 && r <= 0x06FF
}

// StructuralConformance returns 100 when text has a line opening with a
// numbered main heading, a line opening with a numbered sub-heading, and
// mentions both the introduction and the conclusion. Anything else scores 75;
// no other value is produced.
func StructuralConformance(text string) int {
	hasMainSections := mainSectionPattern.MatchString(text)
	hasSubSections := subSectionPattern.MatchString(text)
	hasFraming := strings.Contains(text, introductionMarker) && strings.Contains(text, conclusionMarker)
	if hasMainSections && hasSubSections && hasFraming {
		return conformantScore
	}
	return fallbackScore
}

// AcademicCompleteness adds 20 points for each academic term that appears
// anywhere in text as a plain substring.
func AcademicCompleteness(text string) int {
	score := 0
	for _, term := range academicTerms {
		if strings.Contains(text, term) {
			score += academicTermWeight
		}
	}
	return min(maxScore, score)
}

// Grade labels a score for display.
type Grade string

const (
	GradeExcellent  Grade = "excellent"
	GradeAcceptable Grade = "acceptable"
	GradeWeak       Grade = "weak"
)

// GradeOf bands a score: 80 and above is excellent, 60 and above acceptable.
func GradeOf(score int) Grade {
	switch {
	case score >= 80:
		return GradeExcellent
	case score >= 60:
		return GradeAcceptable
	default:
		return GradeWeak
	}
}
