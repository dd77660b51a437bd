// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generator requests outline documents from the external generation
// service and decodes its response into a validated IndexDocument.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/research-index/internal/httputil"
	"github.com/pdiddy/research-index/pkg/types"
)

const (
	defaultBaseURL   = "http://localhost:8000"
	defaultUserAgent = "research-index/0.1"
	generatePath     = "/generate_index"

	// upstreamErrorPrefix starts the payload the service returns, with a
	// success status, when it cannot reach the Ollama model backend.
	upstreamErrorPrefix = "خطأ في الاتصال بـ Ollama"
)

var (
	// ErrTransport covers requests that did not complete with a 2xx status.
	ErrTransport = errors.New("generation request failed")
	// ErrUpstreamUnavailable means the service answered but its model
	// backend is unreachable.
	ErrUpstreamUnavailable = errors.New("generation model backend unreachable")
	// ErrMalformedPayload means the response is not a valid outline document.
	ErrMalformedPayload = errors.New("malformed generation payload")
)

// Client calls the generation service over HTTP.
type Client struct {
	http           *http.Client
	baseURL        string
	userAgent      string
	apiKey         string
	legacyEnvelope bool
	log            *slog.Logger
}

// New creates a Client. A nil logger discards log output.
func New(cfg types.GeneratorConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		http:           &http.Client{Timeout: cfg.Timeout},
		baseURL:        baseURL,
		userAgent:      userAgent,
		apiKey:         cfg.APIKey,
		legacyEnvelope: cfg.LegacyEnvelope,
		log:            log,
	}
}

// Generate validates params, sends them to the service, and returns the
// decoded outline. Returned errors wrap types.ErrEmptyTitle, ErrTransport,
// ErrUpstreamUnavailable, or ErrMalformedPayload.
func (c *Client) Generate(ctx context.Context, params types.GenerationParams) (types.IndexDocument, error) {
	if err := params.Validate(); err != nil {
		return types.IndexDocument{}, err
	}

	body, err := json.Marshal(params)
	if err != nil {
		return types.IndexDocument{}, fmt.Errorf("encoding params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return types.IndexDocument{}, fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log := c.log.With("request_id", requestID, "model", params.Model)
	log.Debug("requesting outline", "title", params.Title, "pages", params.Pages)

	data, err := httputil.Do(ctx, c.http, req)
	if err != nil {
		log.Warn("generation request failed", "error", err)
		return types.IndexDocument{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	doc, err := Decode(data, c.legacyEnvelope)
	if err != nil {
		log.Warn("generation response rejected", "error", err)
		return types.IndexDocument{}, err
	}
	log.Debug("outline received", "bytes", len(doc.Index))
	return doc, nil
}

// response is the service reply. Index is either the document object or,
// on upstream failure, an error string.
type response struct {
	Index json.RawMessage `json:"index"`
}

// Decode parses a generation service reply. When legacy is true an "index"
// string holding the document JSON is accepted as well.
func Decode(data []byte, legacy bool) (types.IndexDocument, error) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return types.IndexDocument{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	raw := bytes.TrimSpace(resp.Index)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return types.IndexDocument{}, fmt.Errorf("%w: %w", ErrMalformedPayload,
			&types.SchemaError{Field: "index", Reason: "missing"})
	}

	var doc types.IndexDocument
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return types.IndexDocument{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		if strings.HasPrefix(s, upstreamErrorPrefix) {
			return types.IndexDocument{}, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, s)
		}
		if !legacy {
			return types.IndexDocument{}, fmt.Errorf("%w: %w", ErrMalformedPayload,
				&types.SchemaError{Field: "index", Reason: "expected an object, got a string"})
		}
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			return types.IndexDocument{}, fmt.Errorf("%w: embedded document: %w", ErrMalformedPayload, err)
		}
	case '{':
		if err := json.Unmarshal(raw, &doc); err != nil {
			return types.IndexDocument{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
	default:
		return types.IndexDocument{}, fmt.Errorf("%w: %w", ErrMalformedPayload,
			&types.SchemaError{Field: "index", Reason: "expected an object"})
	}

	if err := doc.Validate(); err != nil {
		return types.IndexDocument{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return doc, nil
}
