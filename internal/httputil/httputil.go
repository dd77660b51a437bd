// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds how much of a response body ReadBody keeps.
const MaxBodyBytes = 8 << 20

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	StatusCode int
	// Body holds the start of the response body for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Do executes req once and returns the response body. It never retries:
// a failed call is terminal and the caller decides whether to try again.
//
// A non-2xx status yields a *StatusError; the body is drained and closed in
// every case.
func Do(ctx context.Context, client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ReadBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// ReadBody reads at most MaxBodyBytes from r and discards the rest.
func ReadBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes))
	if err != nil {
		return nil, err
	}
	io.Copy(io.Discard, r)
	return body, nil
}
