// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for research-index: the
// generated outline document, its quality scores, the generation parameters,
// and component configuration.
package types

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

// CitationStyle selects the reference format the generated outline targets.
type CitationStyle string

const (
	CitationAPA     CitationStyle = "APA"
	CitationMLA     CitationStyle = "MLA"
	CitationChicago CitationStyle = "Chicago"
	CitationHarvard CitationStyle = "Harvard"
)

// Valid reports whether s is one of the supported citation styles.
func (s CitationStyle) Valid() bool {
	switch s {
	case CitationAPA, CitationMLA, CitationChicago, CitationHarvard:
		return true
	}
	return false
}

// ModelBackend names the text-generation backend the service should use.
type ModelBackend string

const (
	ModelOllama     ModelBackend = "ollama"
	ModelOpenAI     ModelBackend = "openai"
	ModelOpenRouter ModelBackend = "openrouter"
)

// Valid reports whether m is one of the supported model backends.
func (m ModelBackend) Valid() bool {
	switch m {
	case ModelOllama, ModelOpenAI, ModelOpenRouter:
		return true
	}
	return false
}

// PageOptions lists the page counts offered by the creation form.
var PageOptions = []int{5, 10, 15, 20, 25, 30}

// GenerationParams holds the research parameters sent to the generation
// service. The last-used set is persisted so regeneration can replay it.
type GenerationParams struct {
	// Title is the research title. It must not be blank.
	Title string `json:"title" yaml:"title"`

	// Pages is the requested paper length.
	Pages int `json:"pages" yaml:"pages"`

	// CitationStyle is one of APA, MLA, Chicago, Harvard.
	CitationStyle CitationStyle `json:"citation_style" yaml:"citation_style"`

	// IsAcademic asks the service for academic requirements and page breakdown.
	IsAcademic bool `json:"is_academic" yaml:"is_academic"`

	// Model is one of ollama, openai, openrouter.
	Model ModelBackend `json:"model" yaml:"model"`
}

// DefaultGenerationParams returns the values the creation form starts with.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Title:         "تأثير الذكاء الاصطناعي على العملية التعليمية",
		Pages:         10,
		CitationStyle: CitationAPA,
		Model:         ModelOllama,
	}
}

var (
	// ErrEmptyTitle is returned when a generation request has a blank title.
	ErrEmptyTitle = errors.New("research title is required")
	// ErrInvalidParams is wrapped by every other parameter validation failure.
	ErrInvalidParams = errors.New("invalid generation parameters")
)

// Validate checks the parameters before they are sent.
func (p GenerationParams) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.Pages <= 0 {
		return fmt.Errorf("%w: pages must be positive, got %d", ErrInvalidParams, p.Pages)
	}
	if !p.CitationStyle.Valid() {
		return fmt.Errorf("%w: unsupported citation style %q", ErrInvalidParams, p.CitationStyle)
	}
	if !p.Model.Valid() {
		return fmt.Errorf("%w: unsupported model %q", ErrInvalidParams, p.Model)
	}
	return nil
}

// AcademicRequirements flags which academic components the outline covers.
type AcademicRequirements struct {
	HasLiteratureReview bool `json:"has_literature_review" yaml:"has_literature_review"`
	HasMethodology      bool `json:"has_methodology" yaml:"has_methodology"`
	HasCitations        bool `json:"has_citations" yaml:"has_citations"`
}

// QualityScores are the three 0-100 heuristics computed from the outline text.
type QualityScores struct {
	LanguagePurity        int `json:"language_purity" yaml:"language_purity"`
	StructuralConformance int `json:"structural_conformance" yaml:"structural_conformance"`
	AcademicCompleteness  int `json:"academic_completeness" yaml:"academic_completeness"`
}

// IndexDocument is a generated research outline.
type IndexDocument struct {
	// Index is the outline body: numbered section headers, optionally with
	// introduction and conclusion sections.
	Index string `json:"index" yaml:"index"`

	// EstimatedPages maps a section label to a human-readable page estimate.
	// Absent when the request did not ask for a page breakdown.
	EstimatedPages map[string]string `json:"estimated_pages,omitempty" yaml:"estimated_pages,omitempty"`

	// AcademicRequirements is present only for academic requests.
	AcademicRequirements *AcademicRequirements `json:"academic_requirements,omitempty" yaml:"academic_requirements,omitempty"`

	// Scores are derived from Index and never persisted.
	Scores QualityScores `json:"-" yaml:"-"`
}

// Clone returns a deep copy of d.
func (d IndexDocument) Clone() IndexDocument {
	c := d
	if d.EstimatedPages != nil {
		c.EstimatedPages = maps.Clone(d.EstimatedPages)
	}
	if d.AcademicRequirements != nil {
		req := *d.AcademicRequirements
		c.AcademicRequirements = &req
	}
	return c
}

// SchemaError describes a payload that decoded but does not have the
// IndexDocument shape.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("index document field %q: %s", e.Field, e.Reason)
}

// Validate checks that d carries an outline body.
func (d IndexDocument) Validate() error {
	if strings.TrimSpace(d.Index) == "" {
		return &SchemaError{Field: "index", Reason: "missing or empty"}
	}
	for section := range d.EstimatedPages {
		if strings.TrimSpace(section) == "" {
			return &SchemaError{Field: "estimated_pages", Reason: "empty section label"}
		}
	}
	return nil
}
