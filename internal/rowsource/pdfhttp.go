package rowsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const unknownServerError = "Unknown error from server."

// HTTPExtractor posts PDFs to an extraction endpoint that answers with
// {"entries": [...]} on success or {"error": "..."} on failure.
type HTTPExtractor struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPExtractor creates an extractor for endpoint with a bounded client timeout.
func NewHTTPExtractor(endpoint string) *HTTPExtractor {
	return &HTTPExtractor{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type extractResponse struct {
	Entries []json.RawMessage `json:"entries"`
	Error   string            `json:"error"`
}

// Extract implements PDFExtractor.
func (e *HTTPExtractor) Extract(ctx context.Context, filename string, data []byte) (*Table, error) {
	body, contentType, err := multipartFile(filename, data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = unknownServerError
		}
		return nil, errors.New(msg)
	}

	var parsed extractResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if parsed.Error != "" {
			return nil, errors.New(parsed.Error)
		}
		return nil, errors.New(unknownServerError)
	}
	return tableFromEntries(parsed.Entries)
}

func multipartFile(filename string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
