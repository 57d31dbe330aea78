// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package transcode

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	sessionsPath          = "/api/v1/transcode/sessions"
	defaultRequestTimeout = 15 * time.Second
	defaultDialTimeout    = 3 * time.Second
	maxErrorBody          = 512
)

type startRequest struct {
	Path         string  `json:"path"`
	StartSeconds float64 `json:"start_seconds,omitempty"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
	StreamURL string `json:"stream_url"`
	MimeType  string `json:"mime_type,omitempty"`
}

// HTTPService is the HTTP adapter for the transcode service.
// Timeouts are enforced per request via context; Client.Timeout stays unset.
type HTTPService struct {
	base    *url.URL
	client  *http.Client
	timeout time.Duration
}

// NewHTTPService returns an adapter for the service rooted at baseURL.
// A nil client gets a traced transport with bounded dial timeouts.
func NewHTTPService(baseURL string, client *http.Client, timeout time.Duration) (*HTTPService, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse transcode base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("transcode base url must be http(s), got %q", baseURL)
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if client == nil {
		client = newTracedClient()
	}
	return &HTTPService{base: u, client: client, timeout: timeout}, nil
}

func newTracedClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(&http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:          8,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   defaultDialTimeout,
			ExpectContinueTimeout: time.Second,
		}),
	}
}

func (s *HTTPService) Start(ctx context.Context, path string, startSeconds float64) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(startRequest{Path: path, StartSeconds: startSeconds})
	if err != nil {
		return Session{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(sessionsPath), bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("start transcode: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Session{}, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, readSnippet(resp.Body))
	default:
		return Session{}, fmt.Errorf("start transcode: status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}

	var out startResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("decode start response: %w", err)
	}
	if out.SessionID == "" || out.StreamURL == "" {
		return Session{}, fmt.Errorf("start transcode: response missing session_id or stream_url")
	}
	stream, err := s.resolve(out.StreamURL)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: out.SessionID, StreamURL: stream, MimeType: out.MimeType}, nil
}

func (s *HTTPService) Stop(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.endpoint(sessionsPath+"/"+url.PathEscape(sessionID)), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("stop transcode %s: %w", sessionID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	default:
		return fmt.Errorf("stop transcode %s: status %d: %s", sessionID, resp.StatusCode, readSnippet(resp.Body))
	}
}

func (s *HTTPService) endpoint(path string) string {
	return s.base.String() + path
}

// resolve turns a relative stream URL from the service into an absolute one.
func (s *HTTPService) resolve(stream string) (string, error) {
	ref, err := url.Parse(stream)
	if err != nil {
		return "", fmt.Errorf("invalid stream url %q: %w", stream, err)
	}
	return s.base.ResolveReference(ref).String(), nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
