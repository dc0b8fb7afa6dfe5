// Package aiornot calls the AIorNOT synchronous image detection API.
package aiornot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/sozercan/image-verdict/internal/config"
)

const (
	FacetAIGenerated   = "ai_generated"
	FacetReverseSearch = "reverse_search"

	formField       = "image"
	maxResponseSize = 8 << 20
)

// Response is the subset of the upstream payload the service relies on.
// Report is kept raw so that nothing the provider sends is lost.
type Response struct {
	ID        string          `json:"id"`
	CreatedAt string          `json:"created_at"`
	Report    json.RawMessage `json:"report"`
}

// UpstreamError is returned for a non-2xx answer from the provider.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("aiornot returned status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	endpoint   string
	apiKey     string
	facets     []string
	httpClient *http.Client
}

func NewClient(cfg config.AIOrNotConfig) (*Client, error) {
	slog.Info("Creating AIorNOT client", "endpoint", cfg.Endpoint)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AIorNOT API key cannot be empty")
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid AIorNOT endpoint: %w", err)
	}

	facets := []string{FacetAIGenerated}
	if cfg.ReverseSearch {
		facets = append(facets, FacetReverseSearch)
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		facets:     facets,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Analyze submits one image. externalID is echoed back by the provider and may be empty.
func (c *Client) Analyze(ctx context.Context, data []byte, filename, externalID string) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(formField, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid AIorNOT endpoint: %w", err)
	}
	q := u.Query()
	for _, facet := range c.facets {
		q.Add("only", facet)
	}
	if externalID != "" {
		q.Set("external_id", externalID)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build AIorNOT request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("AIorNOT request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read AIorNOT response: %w", err)
	}
	slog.Debug("AIorNOT responded", "status", resp.StatusCode, "duration", time.Since(start), "bytes", len(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}

	var body Response
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode AIorNOT response: %w", err)
	}
	return &body, nil
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "[truncated]"
	}
	return s
}
