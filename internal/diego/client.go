// Package diego is the BBS client. Every call shares one request loop that
// rotates through the resolved BBS replicas on transport failure.
package diego

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"sync"

	"github.com/me/diegobridge/pkg/bbs"
)

// MaxAttempts bounds the transport attempts of a single call.
const MaxAttempts = 3

// Resolver looks up the addresses of a hostname. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Option configures a Client.
type Option func(*Client)

// WithResolver replaces the DNS resolver.
func WithResolver(r Resolver) Option {
	return func(c *Client) { c.resolver = r }
}

// WithHTTPClient replaces the HTTP client built from the Config.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client talks to the BBS. It is safe for concurrent use: the resolved
// address list is shared under a mutex and every call iterates over its
// own copy.
type Client struct {
	scheme     string
	host       string // logical hostname, kept for the Host header and SNI
	port       string
	resolver   Resolver
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.Mutex
	addrs []string
}

// NewClient creates a BBS client for cfg.URL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse bbs url: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("bbs url %q has no host", cfg.URL)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	c := &Client{
		scheme:   u.Scheme,
		host:     u.Hostname(),
		port:     port,
		resolver: net.DefaultResolver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "bbs-client")

	if c.httpClient == nil {
		c.httpClient, err = newHTTPClient(cfg, c.host)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Addresses returns a copy of the shared resolved address list.
func (c *Client) Addresses() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.addrs)
}

// do encodes req, posts it to route and decodes the reply into resp.
//
// Transport failures evict the failing address and move on to the next
// one, up to MaxAttempts. When the local list runs dry before the bound
// is reached the hostname is resolved again. Non-200 statuses and
// decode failures are returned at once.
func (c *Client) do(ctx context.Context, route string, req, resp bbs.Message) error {
	body, err := bbs.Marshal(req)
	if err != nil {
		return &EncodeError{Err: err}
	}

	var pool []string
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if len(pool) == 0 {
			if pool, err = c.snapshot(ctx); err != nil {
				return err
			}
		}
		addr := pool[0]

		status, respBody, err := c.post(ctx, addr, route, body)
		if err != nil {
			lastErr = err
			pool = slices.DeleteFunc(pool, func(a string) bool { return a == addr })
			c.evict(addr)
			c.logger.Debug(fmt.Sprintf("attempt %d of %d: failed to reach bbs on %s, removing from list", attempt, MaxAttempts, addr),
				"route", route, "error", err)
			if ctx.Err() != nil {
				return &RequestError{Attempts: attempt, Err: lastErr}
			}
			continue
		}

		if status != http.StatusOK {
			return &ResponseError{Status: status, Body: respBody}
		}
		if err := bbs.Unmarshal(respBody, resp); err != nil {
			return &DecodeError{Err: err}
		}
		return nil
	}
	return &RequestError{Attempts: MaxAttempts, Err: lastErr}
}

// snapshot returns a request-local copy of the shared address list,
// resolving the hostname first when the shared list is empty.
func (c *Client) snapshot(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.addrs) == 0 {
		addrs, err := c.resolver.LookupHost(ctx, c.host)
		if err != nil {
			return nil, &DNSResolutionError{Host: c.host, Err: err}
		}
		if len(addrs) == 0 {
			return nil, &DNSResolutionError{Host: c.host, Err: fmt.Errorf("no addresses")}
		}
		c.addrs = unique(addrs)
		c.logger.Debug("resolved bbs", "host", c.host, "addresses", addrs)
	}
	return slices.Clone(c.addrs), nil
}

// unique drops repeated addresses, keeping the first occurrence.
func unique(addrs []string) []string {
	seen := make(map[string]bool, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

func (c *Client) evict(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addrs = slices.DeleteFunc(c.addrs, func(a string) bool { return a == addr })
}

// post sends body to addr. Errors returned are transport failures; a
// body that cannot be read counts as one.
func (c *Client) post(ctx context.Context, addr, route string, body []byte) (int, []byte, error) {
	u := url.URL{Scheme: c.scheme, Host: net.JoinHostPort(addr, c.port), Path: route}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Host = net.JoinHostPort(c.host, c.port)
	req.Header.Set("Content-Type", bbs.ContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
