// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export projects a committed outline into downloadable artifacts.
// Filenames, headers, and MIME types are fixed.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-index/pkg/types"
)

const (
	// Header is the first line of every exported outline.
	Header = "# فهرس البحث"

	MarkdownFilename = "فهرس_البحث.md"
	MarkdownMIME     = "text/markdown"

	HTMLFilename = "فهرس_البحث.html"
	HTMLMIME     = "text/html; charset=utf-8"

	YAMLFilename = "فهرس_البحث.yaml"
	YAMLMIME     = "application/yaml"
)

// ErrUnsupportedFormat is returned by Render for an unknown format.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format selects the artifact encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatYAML     Format = "yaml"
)

// Artifact is a file offered for download.
type Artifact struct {
	Filename string
	MIMEType string
	Content  []byte
}

// markdown renders GitHub-flavoured Markdown, matching how the outline is
// displayed.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown returns the header line, a blank line, and the outline body.
func Markdown(doc types.IndexDocument) Artifact {
	return Artifact{
		Filename: MarkdownFilename,
		MIMEType: MarkdownMIME,
		Content:  []byte(Header + "\n\n" + doc.Index),
	}
}

// HTML renders the Markdown artifact to a standalone right-to-left page.
func HTML(doc types.IndexDocument) (Artifact, error) {
	var body bytes.Buffer
	if err := markdown.Convert(Markdown(doc).Content, &body); err != nil {
		return Artifact{}, fmt.Errorf("rendering markdown: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html lang=\"ar\" dir=\"rtl\">\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>فهرس البحث</title>\n</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")

	return Artifact{Filename: HTMLFilename, MIMEType: HTMLMIME, Content: b.Bytes()}, nil
}

// yamlDocument is the YAML projection: the stored fields plus the scores.
type yamlDocument struct {
	types.IndexDocument `yaml:",inline"`
	Scores              types.QualityScores `yaml:"scores"`
}

// YAML serializes the full document, including its current scores.
func YAML(doc types.IndexDocument) (Artifact, error) {
	data, err := yaml.Marshal(yamlDocument{IndexDocument: doc, Scores: doc.Scores})
	if err != nil {
		return Artifact{}, fmt.Errorf("marshaling YAML: %w", err)
	}
	return Artifact{Filename: YAMLFilename, MIMEType: YAMLMIME, Content: data}, nil
}

// Render produces the artifact for the requested format.
func Render(doc types.IndexDocument, format Format) (Artifact, error) {
	switch format {
	case FormatMarkdown, "":
		return Markdown(doc), nil
	case FormatHTML:
		return HTML(doc)
	case FormatYAML:
		return YAML(doc)
	default:
		return Artifact{}, fmt.Errorf("%w %q: use markdown, html, or yaml", ErrUnsupportedFormat, format)
	}
}

// WriteFile writes a into dir under its fixed filename and returns the path.
func WriteFile(dir string, a Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, a.Filename)
	if err := os.WriteFile(path, a.Content, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", a.Filename, err)
	}
	return path, nil
}
