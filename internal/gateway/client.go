package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/SAP-F-2025/evaluation-console/internal/metrics"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

// DefaultTimeout bounds every backend call. Extraction and scoring can take minutes.
const DefaultTimeout = 300 * time.Second

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the evaluation backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Gateway = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// formFile is one file part of a multipart request.
type formFile struct {
	field string
	file  models.FileHandle
}

// formField keeps multipart fields in the order they are written.
type formField struct {
	name  string
	value string
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(op, req, out)
}

func (c *Client) doMultipart(ctx context.Context, op, path string, fields []formField, files []formFile, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, escapeQuotes(f.file.Name)))
		contentType := f.file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("%s: create file part: %w", op, err)
		}
		if _, err := part.Write(f.file.Content); err != nil {
			return fmt.Errorf("%s: write file part: %w", op, err)
		}
	}
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("%s: write field %s: %w", op, f.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%s: close multipart: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		gwErr := transportError(op, err)
		metrics.ObserveGatewayCall(op, 0, time.Since(start))
		c.logger.WarnContext(req.Context(), "Gateway request failed",
			"operation", op,
			"error", err)
		return gwErr
	}
	defer resp.Body.Close()
	metrics.ObserveGatewayCall(op, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := statusError(op, resp.StatusCode, body)
		c.logger.WarnContext(req.Context(), "Gateway returned error status",
			"operation", op,
			"status", resp.StatusCode,
			"message", gwErr.Message)
		return gwErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &GatewayError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    GenericErrorMessage,
			Err:        fmt.Errorf("%s: decode response: %w", op, err),
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Health pings the backend health route.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, "health", http.MethodGet, "/health", nil, nil)
}
