package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harunnryd/tsumugi/internal/config"
)

// Client opens public SSE v1 feeds against the agent runtime. It owns the
// HTTP plumbing and reconnect mechanics; the session controller never sees
// more than an ordered sequence of frames.
type Client struct {
	baseURL       string
	token         string
	userAgent     string
	maxFrameBytes int
	httpClient    *http.Client
}

func NewClient(cfg config.FeedConfig) (*Client, error) {
	headerTimeout, err := config.DurationOrDefault(cfg.ResponseHeaderTimeout, config.DefaultFeedResponseHeaderTimeout)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultFeedBaseURL
	}

	maxFrameBytes := cfg.MaxFrameBytes
	if maxFrameBytes <= 0 {
		maxFrameBytes = config.DefaultFeedMaxFrameBytes
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultFeedUserAgent
	}

	return &Client{
		baseURL:       baseURL,
		token:         cfg.Token,
		userAgent:     userAgent,
		maxFrameBytes: maxFrameBytes,
		httpClient:    newStreamingHTTPClient(headerTimeout),
	}, nil
}

// Open connects to the event feed for streamID. A non-empty cursor asks the
// backend to replay from that point; cursor semantics are opaque here.
func (c *Client) Open(ctx context.Context, streamID, cursor string) (*Stream, error) {
	endpoint := fmt.Sprintf("%s/v1/streams/%s/events", c.baseURL, url.PathEscape(streamID))
	if cursor != "" {
		endpoint += "?cursor=" + url.QueryEscape(cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed connect failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		resp.Body.Close()
		return nil, fmt.Errorf("feed http %d: %s", resp.StatusCode, string(raw))
	}

	return NewStream(resp.Body, c.maxFrameBytes), nil
}

func newStreamingHTTPClient(headerTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: clampHeaderTimeout(headerTimeout),
	}

	// Do not use http.Client.Timeout for SSE because it caps total stream duration.
	return &http.Client{Transport: transport}
}

func clampHeaderTimeout(headerTimeout time.Duration) time.Duration {
	const (
		defaultTimeout = 30 * time.Second
		maxTimeout     = 45 * time.Second
	)

	if headerTimeout <= 0 {
		return defaultTimeout
	}
	if headerTimeout > maxTimeout {
		return maxTimeout
	}
	return headerTimeout
}
