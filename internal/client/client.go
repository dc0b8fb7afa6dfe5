// Package client uploads images to the analysis service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/sozercan/image-verdict/apimodels"
)

// GenericFailureMessage is shown when the service gives no reason for a failure.
const GenericFailureMessage = "Failed to analyze image"

const (
	analyzePath = "/api/analyze"
	formField   = "file"
	maxBodySize = 8 << 20
)

// Upload is the image payload sent to the service.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ServiceError is returned when the service answers with a non-2xx status.
type ServiceError struct {
	StatusCode int
	// Message is the human-readable reason from the response body, if any
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("analysis service returned status %d: %s", e.StatusCode, e.Message)
}

// UserMessage turns an Analyze error into the single string shown to the user.
func UserMessage(err error) string {
	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return GenericFailureMessage
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	slog.Info("Creating analysis client", "baseURL", baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("analysis service URL cannot be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis service URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid analysis service URL %q: scheme must be http or https", baseURL)
	}

	return &Client{
		endpoint:   strings.TrimSuffix(baseURL, "/") + analyzePath,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Analyze uploads the image as a single multipart request and decodes the result.
func (c *Client) Analyze(ctx context.Context, upload Upload) (*apimodels.AnalysisResult, error) {
	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	slog.Debug("Sending analysis request", "endpoint", c.endpoint, "filename", upload.Filename, "bytes", len(upload.Data))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	var result apimodels.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	return &result, nil
}

func encodeUpload(upload Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := upload.Filename
	if filename == "" {
		filename = "image"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, filename))
	header.Set("Content-Type", upload.ContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write image data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// errorMessage extracts the reason from an error body; "error" wins over "detail".
func errorMessage(raw []byte) string {
	var body apimodels.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(body.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(body.Detail)
}
