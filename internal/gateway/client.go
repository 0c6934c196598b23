package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"svlink/internal/link"
	"svlink/internal/logging"
)

// Config configures the HTTP client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns sensible defaults for a local backend.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:10000",
		Timeout:   30 * time.Second,
		UserAgent: "svlink-batch/1.0",
	}
}

// Client implements Gateway over JSON/HTTP.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ Gateway = (*Client)(nil)

// NewClient creates a new backend client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// NewClientWithHTTP creates a client around an existing http.Client.
func NewClientWithHTTP(cfg Config, hc *http.Client) *Client {
	c := NewClient(cfg)
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string { return c.baseURL }

// Shorten creates one short link per URL.
func (c *Client) Shorten(ctx context.Context, credential string, urls []string) (Batch, error) {
	if err := requireBatch(credential, urls, "url list"); err != nil {
		return Batch{}, err
	}
	body, err := c.post(ctx, "shorten", "/api/shorten", map[string]any{
		"api_key": credential,
		"urls":    urls,
	})
	if err != nil {
		return Batch{}, err
	}
	return parseBatch("shorten", body, normalizeShorten)
}

// Lookup fetches visit statistics for existing short links.
func (c *Client) Lookup(ctx context.Context, credential string, links []string) (Batch, error) {
	if err := requireBatch(credential, links, "link list"); err != nil {
		return Batch{}, err
	}
	body, err := c.post(ctx, "lookup", "/api/lookup", map[string]any{
		"api_key": credential,
		"links":   links,
	})
	if err != nil {
		return Batch{}, err
	}
	return parseBatch("lookup", body, normalizeLookup)
}

// Resolve fetches the current target of every link so it can be edited.
func (c *Client) Resolve(ctx context.Context, credential string, links []string) ([]ResolvedLink, error) {
	if err := requireBatch(credential, links, "link list"); err != nil {
		return nil, err
	}
	body, err := c.post(ctx, "resolve", "/api/batch-lookup", map[string]any{
		"api_key": credential,
		"links":   links,
	})
	if err != nil {
		return nil, err
	}
	items, err := resultsArray("resolve", body)
	if err != nil {
		return nil, err
	}
	out := make([]ResolvedLink, 0, len(items))
	for _, item := range items {
		out = append(out, normalizeResolved(item))
	}
	return out, nil
}

// Update submits a change set as one batch.
func (c *Client) Update(ctx context.Context, credential string, changes []link.Change) (Batch, error) {
	if strings.TrimSpace(credential) == "" {
		return Batch{}, &link.ValidationError{Field: "api key", Message: "required"}
	}
	if len(changes) == 0 {
		return Batch{}, link.ErrNoChanges
	}
	body, err := c.post(ctx, "update", "/api/batch-update", map[string]any{
		"api_key": credential,
		"changes": changes,
	})
	if err != nil {
		return Batch{}, err
	}
	return parseBatch("update", body, normalizeUpdate)
}

// Export requests a serialized artifact for results.
func (c *Client) Export(ctx context.Context, kind ExportKind, results []link.BatchResult) (Artifact, error) {
	path, ok := exportPaths[kind]
	if !ok {
		return Artifact{}, fmt.Errorf("unknown export kind %d", kind)
	}
	if len(results) == 0 {
		return Artifact{}, link.ErrNothingToExport
	}
	op := "export " + kind.String()
	body, err := c.post(ctx, op, path, map[string]any{
		"results": encodeResults(kind, results),
	})
	if err != nil {
		return Artifact{}, err
	}
	content := gjson.GetBytes(body, "content")
	if !content.Exists() {
		return Artifact{}, &link.ApplicationError{Op: op, Message: "malformed response: missing content"}
	}
	return Artifact{
		Content:  content.String(),
		Filename: gjson.GetBytes(body, "filename").String(),
		MimeType: gjson.GetBytes(body, "mimetype").String(),
		Size:     gjson.GetBytes(body, "size").Int(),
	}, nil
}

// QRCodes requests one SVG per successful generate result.
func (c *Client) QRCodes(ctx context.Context, results []link.BatchResult) ([]QRCode, error) {
	if len(link.Successes(results)) == 0 {
		return nil, link.ErrNoSuccessfulResults
	}
	body, err := c.post(ctx, "qr generate", "/api/qr/generate", map[string]any{
		"results": encodeResults(ExportQRArchive, results),
	})
	if err != nil {
		return nil, err
	}
	codes := gjson.GetBytes(body, "qr_codes")
	if !codes.IsArray() {
		return nil, &link.ApplicationError{Op: "qr generate", Message: "malformed response: missing qr_codes"}
	}
	var out []QRCode
	for _, item := range codes.Array() {
		out = append(out, QRCode{
			Index:       int(item.Get("index").Int()),
			Filename:    item.Get("filename").String(),
			SVG:         item.Get("svg_content").String(),
			ShortURL:    item.Get("short_url").String(),
			OriginalURL: item.Get("original_url").String(),
		})
	}
	return out, nil
}

// post sends one JSON request and returns the raw 2xx body. Non-2xx
// statuses and bodies carrying an "error" field become typed errors.
func (c *Client) post(ctx context.Context, op, path string, payload any) ([]byte, error) {
	timer := logging.StartTimer(logging.CategoryAPI, op)
	defer timer.StopWithThreshold(5 * time.Second)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	logging.APIDebug("POST %s (%d bytes)", path, len(data))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.APIError("%s: request failed: %v", op, err)
		return nil, &link.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &link.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	msg := gjson.GetBytes(body, "error")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.APIError("%s: HTTP %d", op, resp.StatusCode)
		if msg.Exists() && msg.String() != "" {
			return nil, &link.ApplicationError{Op: op, Status: resp.StatusCode, Message: msg.String()}
		}
		return nil, &link.TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(snippet(body))}
	}
	if msg.Exists() && msg.String() != "" {
		return nil, &link.ApplicationError{Op: op, Status: resp.StatusCode, Message: msg.String()}
	}
	if !gjson.ValidBytes(body) {
		return nil, &link.ApplicationError{Op: op, Status: resp.StatusCode, Message: "malformed response: invalid JSON"}
	}
	logging.API("%s: HTTP %d (%d bytes)", op, resp.StatusCode, len(body))
	return body, nil
}

func requireBatch(credential string, items []string, what string) error {
	if strings.TrimSpace(credential) == "" {
		return &link.ValidationError{Field: "api key", Message: "required"}
	}
	if len(items) == 0 {
		return &link.ValidationError{Field: what, Message: "required"}
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty response"
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
