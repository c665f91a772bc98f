// Package restcall adapts REST client libraries that build requests without a
// context. A Transport is created per call: it binds the call's context to
// every request and keeps the body of an error answer, which those libraries
// only report as a formatted string.
package restcall

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout bounds a call when none is configured.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 1 << 20 // 1 MB

// Transport is the http.RoundTripper of one call.
type Transport struct {
	ctx  context.Context //nolint:containedctx // lives for one call only
	next http.RoundTripper

	mu     sync.Mutex
	status int
	body   []byte
}

// New returns the context bounded by timeout together with a Transport using it.
// The cancel function must be called when the call returns.
func New(ctx context.Context, timeout time.Duration) (*Transport, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)

	return &Transport{ctx: ctx, next: http.DefaultTransport}, cancel
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = resp.StatusCode

	if resp.StatusCode >= http.StatusBadRequest {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()

		if readErr != nil {
			raw = nil
		}

		t.body = raw
		resp.Body = io.NopCloser(bytes.NewReader(raw))
	}

	return resp, nil
}

// Failed returns the status and body of an error answer. ok is false when the
// last answer was a success or no answer arrived.
func (t *Transport) Failed() (status int, body []byte, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status < http.StatusBadRequest {
		return 0, nil, false
	}

	return t.status, t.body, true
}

// Client returns an http.Client sending through t.
func (t *Transport) Client() http.Client {
	return http.Client{Transport: t}
}
