// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

// Package transport provides a reference bosh.Sender built on net/http.
// The bosh package itself treats the HTTP transport as an external
// collaborator (§4.7 of the specification this module implements); this
// package is a concrete implementation of that contract, not a dependency
// of it.
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"codeberg.org/boshgo/client"
	"codeberg.org/boshgo/client/transport/codec"
)

// ErrCanceled is returned by a Future's accessors when the context passed
// to them is canceled before the response arrives. The session scheduler
// maps this to terminal disposal (§4.9).
var ErrCanceled = errors.New("transport: wait canceled")

// Option configures an HTTPSender.
type Option func(*HTTPSender)

// WithClient overrides the *http.Client used to perform requests. The
// default is http.DefaultClient's zero value equivalent (no timeout
// configured here; callers that want one should supply their own Client).
func WithClient(c *http.Client) Option {
	return func(s *HTTPSender) { s.client = c }
}

// WithCodecs overrides the content-encoding codec registry. The default is
// codec.NewRegistry(), offering gzip and deflate.
func WithCodecs(reg *codec.Registry) Option {
	return func(s *HTTPSender) { s.codecs = reg }
}

// WithCompression enables or disables negotiating Content-Encoding on
// outbound requests. It is enabled by default.
func WithCompression(enabled bool) Option {
	return func(s *HTTPSender) { s.compress = enabled }
}

// HTTPSender is a bosh.Sender that POSTs bodies to a single BOSH connection
// manager endpoint over net/http. One HTTPSender is shared by every
// processor worker of a Session; it holds no per-session state itself
// (only transport-level configuration), satisfying the Sender contract's
// concurrency-safety and statelessness requirements (§4.7).
type HTTPSender struct {
	endpoint string
	client   *http.Client
	codecs   *codec.Registry
	compress bool
}

// NewHTTPSender returns a Sender that POSTs to endpoint.
func NewHTTPSender(endpoint string, opts ...Option) *HTTPSender {
	s := &HTTPSender{
		endpoint: endpoint,
		client:   &http.Client{},
		codecs:   codec.NewRegistry(),
		compress: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send satisfies bosh.Sender. It POSTs body's XML serialization with
// Content-Type: text/xml; charset=utf-8, pins Content-Length explicitly so
// a future refactor cannot regress into chunked transfer coding, and
// negotiates Content-Encoding against params.Accept when compression is
// enabled.
func (s *HTTPSender) Send(ctx context.Context, params bosh.SenderParams, body bosh.Elem) (bosh.DeferredResponse, error) {
	raw, err := body.XML()
	if err != nil {
		return nil, err
	}
	payload := []byte(raw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Close = false
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	if s.compress && s.codecs != nil {
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		if name, c, ok := s.codecs.Negotiate(params.Accept); ok {
			encoded, encErr := c.Encode(payload)
			if encErr != nil {
				return nil, encErr
			}
			payload = encoded
			req.Header.Set("Content-Encoding", name)
			req.Body = io.NopCloser(bytes.NewReader(payload))
		}
	}
	req.ContentLength = int64(len(payload))

	fut := newFuture()
	go fut.run(s.client, req, s.codecs)
	return fut, nil
}

// future is a promise-like bosh.DeferredResponse, fulfilled on a background
// goroutine. Canceling the context passed to either accessor unblocks the
// wait with ErrCanceled rather than waiting for the underlying HTTP round
// trip to finish.
type future struct {
	done   chan struct{}
	status int
	body   bosh.Elem
	err    error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

func (f *future) run(c *http.Client, req *http.Request, codecs *codec.Registry) {
	defer close(f.done)

	resp, err := c.Do(req)
	if err != nil {
		f.err = err
		return
	}
	defer resp.Body.Close()
	f.status = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		f.err = err
		return
	}

	if enc := resp.Header.Get("Content-Encoding"); enc != "" && codecs != nil {
		if c, ok := codecs.Lookup(enc); ok {
			decoded, derr := c.Decode(raw)
			if derr != nil {
				f.err = derr
				return
			}
			raw = decoded
		}
	}

	parsed, err := bosh.Parse(raw)
	if err != nil {
		f.err = err
		return
	}
	f.body = parsed
}

// StatusCode satisfies bosh.DeferredResponse.
func (f *future) StatusCode(ctx context.Context) (int, error) {
	select {
	case <-f.done:
		if f.err != nil {
			return 0, f.err
		}
		return f.status, nil
	case <-ctx.Done():
		return 0, ErrCanceled
	}
}

// Body satisfies bosh.DeferredResponse.
func (f *future) Body(ctx context.Context) (bosh.Elem, error) {
	select {
	case <-f.done:
		if f.err != nil {
			return nil, f.err
		}
		return f.body, nil
	case <-ctx.Done():
		return nil, ErrCanceled
	}
}
