package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const responseBodyLimit = 1 << 20

// Client is the shared HTTP layer under the session manager and the
// server-list client. It owns the one cross-cutting rule: any 403 evicts the
// stored token, whatever endpoint produced it.
type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore
	log     *zap.Logger
}

func New(baseURL string, httpClient *http.Client, store TokenStore, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		store:   store,
		log:     log,
	}
}

func (c *Client) Store() TokenStore {
	return c.store
}

type apiErrorBody struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

// do sends a JSON request, optionally with the stored bearer token, and
// decodes a 2xx response into out. Non-2xx statuses map onto the error
// taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body any, authenticated bool, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		token := c.store.Token()
		if token == "" {
			return ErrNoToken
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyLimit)).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return c.mapError(resp)
}

func (c *Client) mapError(resp *http.Response) error {
	var parsed apiErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	_ = json.Unmarshal(raw, &parsed)

	switch {
	case resp.StatusCode == http.StatusForbidden:
		// Session eviction: the whole session dies, not just this call.
		c.store.Clear()
		return ErrSessionExpired
	case resp.StatusCode == http.StatusTooManyRequests:
		seconds := parsed.RetryAfterSec
		if header := resp.Header.Get("Retry-After"); header != "" {
			if headerSec, err := strconv.ParseInt(header, 10, 64); err == nil && headerSec > 0 {
				seconds = headerSec
			}
		}
		if seconds < 1 {
			seconds = 1
		}
		return &RetryAfterError{Seconds: seconds}
	case resp.StatusCode == http.StatusUnauthorized:
		if parsed.Code == "INVALID_CREDENTIALS" {
			return ErrInvalidCredentials
		}
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		c.log.Warn("server error",
			zap.Int("status", resp.StatusCode),
			zap.String("code", parsed.Code),
		)
		return ErrServer
	default:
		if parsed.Message != "" {
			return fmt.Errorf("%s (%s)", parsed.Message, parsed.Code)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
