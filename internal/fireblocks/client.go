package fireblocks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"waas-gateway-go/internal/models"
	"waas-gateway-go/internal/provider"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Client is a thin REST client for the Fireblocks API. Every transport or
// provider-side failure it returns is an ErrIntegrationFailure carrying the
// provider's own message.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient http.Client
}

func NewClient(cfg models.FireblocksConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("fireblocks base URL cannot be empty")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("fireblocks API key cannot be empty")
	}

	httpClient, err := createCustomHttpClient(cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// apiError is the provider's error envelope.
type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("unable to encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("unable to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Integrationf("%s %s: %v", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Integrationf("%s %s: reading response: %v", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(data))
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			message = apiErr.Message
		}
		zap.L().Debug("Provider request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message))
		return provider.Integrationf("%s %s: status %d: %s", method, path, resp.StatusCode, message)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return provider.Integrationf("%s %s: decoding response: %v", method, path, err)
		}
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, nil, out)
}

func (c *Client) post(ctx context.Context, path string, headers map[string]string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, headers, body, out)
}
