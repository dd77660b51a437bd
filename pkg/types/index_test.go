// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationParamsValidate(t *testing.T) {
	valid := DefaultGenerationParams()

	tests := []struct {
		name    string
		mutate  func(p *GenerationParams)
		wantErr error
	}{
		{name: "defaults are valid", mutate: func(p *GenerationParams) {}},
		{name: "blank title", mutate: func(p *GenerationParams) { p.Title = " \t" }, wantErr: ErrEmptyTitle},
		{name: "zero pages", mutate: func(p *GenerationParams) { p.Pages = 0 }, wantErr: ErrInvalidParams},
		{name: "unknown citation style", mutate: func(p *GenerationParams) { p.CitationStyle = "IEEE" }, wantErr: ErrInvalidParams},
		{name: "unknown model", mutate: func(p *GenerationParams) { p.Model = "claude" }, wantErr: ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIndexDocumentValidate(t *testing.T) {
	var se *SchemaError

	err := IndexDocument{Index: "  "}.Validate()
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "index", se.Field)

	err = IndexDocument{Index: "1. مقدمة", EstimatedPages: map[string]string{"": "2"}}.Validate()
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "estimated_pages", se.Field)

	assert.NoError(t, IndexDocument{Index: "1. مقدمة"}.Validate())
}

func TestIndexDocumentClone(t *testing.T) {
	doc := IndexDocument{
		Index:                "1. مقدمة",
		EstimatedPages:       map[string]string{"مقدمة": "2"},
		AcademicRequirements: &AcademicRequirements{HasMethodology: true},
	}

	c := doc.Clone()
	c.EstimatedPages["مقدمة"] = "9"
	c.AcademicRequirements.HasMethodology = false

	assert.Equal(t, "2", doc.EstimatedPages["مقدمة"])
	assert.True(t, doc.AcademicRequirements.HasMethodology)
}
