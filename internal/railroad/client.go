package railroad

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LocomotiveAPI reads and writes locomotive resources.
type LocomotiveAPI interface {
	FetchLocomotive(ctx context.Context, restURL string) (Locomotive, Revision, error)
	PatchLocomotive(ctx context.Context, restURL string, loco Locomotive, rev Revision) error
}

// SwitchAPI reads and writes switch group resources.
type SwitchAPI interface {
	FetchSwitchGroup(ctx context.Context, restURL string) (SwitchGroup, Revision, error)
	PatchSwitchGroup(ctx context.Context, restURL string, group SwitchGroup, rev Revision) error
}

// DirectoryAPI lists available servers.
type DirectoryAPI interface {
	FetchServers(ctx context.Context, directoryURL string) ([]Server, error)
}

// Ensure Client implements the APIs at compile time.
var (
	_ LocomotiveAPI = (*Client)(nil)
	_ SwitchAPI     = (*Client)(nil)
	_ DirectoryAPI  = (*Client)(nil)
)

// Client talks to railroad directory and resource servers.
type Client struct {
	http      *http.Client
	userAgent string
	schemas   *validator
	logger    *zap.Logger
}

const (
	defaultUserAgent = "railcab/0.1"
	// DefaultTimeout bounds every request when no timeout is configured.
	DefaultTimeout  = 5 * time.Second
	maxResponseSize = 1 << 20
)

// NewClient builds a Client whose requests time out after timeout.
func NewClient(timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	schemas, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
		schemas:   schemas,
		logger:    logger.With(zap.String("component", "client")),
	}, nil
}

// FetchLocomotive reads the current state of a locomotive.
func (c *Client) FetchLocomotive(ctx context.Context, restURL string) (Locomotive, Revision, error) {
	var loco Locomotive
	rev, err := c.fetch(ctx, restURL, locomotiveSchema, &loco)
	if err != nil {
		return Locomotive{}, "", err
	}
	return loco, rev, nil
}

// PatchLocomotive writes the full locomotive state back. A non-empty rev is
// sent as If-Match.
func (c *Client) PatchLocomotive(ctx context.Context, restURL string, loco Locomotive, rev Revision) error {
	return c.patch(ctx, restURL, loco, rev)
}

// FetchSwitchGroup reads the current state of a switch group.
func (c *Client) FetchSwitchGroup(ctx context.Context, restURL string) (SwitchGroup, Revision, error) {
	var group SwitchGroup
	rev, err := c.fetch(ctx, restURL, switchGroupSchema, &group)
	if err != nil {
		return SwitchGroup{}, "", err
	}
	return group, rev, nil
}

// PatchSwitchGroup writes the full switch group state back.
func (c *Client) PatchSwitchGroup(ctx context.Context, restURL string, group SwitchGroup, rev Revision) error {
	return c.patch(ctx, restURL, group, rev)
}

// FetchServers reads a directory listing. Entries that do not describe a
// server are logged and skipped.
func (c *Client) FetchServers(ctx context.Context, directoryURL string) ([]Server, error) {
	body, _, err := c.do(ctx, http.MethodGet, directoryURL, nil, "")
	if err != nil {
		return nil, err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	servers := make([]Server, 0, len(entries))
	for i, raw := range entries {
		server, err := c.decodeServer(raw)
		if err != nil {
			c.logger.Warn("skip directory entry",
				zap.String("directory", directoryURL),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		servers = append(servers, server)
	}
	return servers, nil
}

func (c *Client) decodeServer(raw json.RawMessage) (Server, error) {
	if err := c.schemas.validate(serverSchema, raw); err != nil {
		return Server{}, err
	}
	var server Server
	if err := json.Unmarshal(raw, &server); err != nil {
		return Server{}, fmt.Errorf("decode entry: %w", err)
	}
	u, err := normalizeURL(server.RestURL)
	if err != nil {
		return Server{}, err
	}
	server.ID = strings.TrimSpace(server.ID)
	server.RestURL = u.String()
	return server, nil
}

func (c *Client) fetch(ctx context.Context, restURL, schema string, dest any) (Revision, error) {
	body, rev, err := c.do(ctx, http.MethodGet, restURL, nil, "")
	if err != nil {
		return "", err
	}
	if err := c.schemas.validate(schema, body); err != nil {
		return "", fmt.Errorf("validate response: %w", err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return rev, nil
}

func (c *Client) patch(ctx context.Context, restURL string, payload any, rev Revision) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	_, _, err = c.do(ctx, http.MethodPatch, restURL, data, rev)
	return err
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte, ifMatch Revision) ([]byte, Revision, error) {
	if c == nil {
		return nil, "", fmt.Errorf("client is nil")
	}
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, "", err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ifMatch != "" {
		req.Header.Set("If-Match", string(ifMatch))
	}
	if id := RequestID(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusPreconditionFailed {
		return nil, "", fmt.Errorf("api %s %s: %w", method, target.Path, ErrConflict)
	}
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("api %s %s returned status %d", method, target.Path, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	return data, Revision(resp.Header.Get("ETag")), nil
}

func normalizeURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url %q has no host", raw)
	}
	u.Fragment = ""
	return u, nil
}
