package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	BaseURL  string
	APIKey   string
	SiteURL  string
	SiteName string
	// Timeout of zero means no client-side timeout.
	Timeout time.Duration
}

// HTTPClient calls an OpenRouter-compatible API.
type HTTPClient struct {
	baseURL  string
	apiKey   string
	siteURL  string
	siteName string
	log      *slog.Logger
	client   *http.Client
}

var _ Client = &HTTPClient{}

func NewHTTPClient(opts Options, log *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:   strings.TrimSpace(opts.APIKey),
		siteURL:  opts.SiteURL,
		siteName: opts.SiteName,
		log:      log,
		client:   &http.Client{Timeout: opts.Timeout},
	}
}

// ChatCompletions posts {model, messages} to /chat/completions. Any HTTP
// status is returned as a Response; err is only set for transport failures.
func (c *HTTPClient) ChatCompletions(ctx context.Context, in *ChatRequest) (*Response, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send chat request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	c.log.Debug("upstream chat completion", "status", res.StatusCode, "model", in.Model, "messages", len(in.Messages), "duration_ms", time.Since(start).Milliseconds())

	return &Response{StatusCode: res.StatusCode, StatusText: statusText(res), Body: body}, nil
}

// Models lists models via GET /models.
func (c *HTTPClient) Models(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("build models request: %w", err)
	}
	c.setHeaders(req)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send models request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read models response: %w", err)
	}
	if res.StatusCode >= 400 {
		msg, ok := ErrorMessage(body)
		if !ok {
			msg = "Unknown error"
		}
		return nil, &StatusError{StatusCode: res.StatusCode, StatusText: statusText(res), Message: msg}
	}

	var out struct {
		Data []Model `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}
	return out.Data, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}
}
