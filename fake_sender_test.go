// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package bosh

import (
	"context"
	"encoding/xml"
	"sync"
)

// fakeFuture is a DeferredResponse fulfilled by a background goroutine,
// mirroring transport.HTTPSender's future: Send never blocks on it, only
// StatusCode/Body do.
type fakeFuture struct {
	done   chan struct{}
	status int
	body   Elem
	err    error
}

func newFakeFuture() *fakeFuture {
	return &fakeFuture{done: make(chan struct{})}
}

func (f *fakeFuture) StatusCode(ctx context.Context) (int, error) {
	select {
	case <-f.done:
		return f.status, f.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (f *fakeFuture) Body(ctx context.Context) (Elem, error) {
	select {
	case <-f.done:
		return f.body, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fakeSender is an in-memory Sender that hands every dispatched request to a
// handler func on a background goroutine, recording everything sent for
// later assertions. It stands in for transport.HTTPSender in tests that
// exercise Session's scheduling logic without a real network round trip.
// Like the real sender, Send itself never blocks waiting for handle to run.
type fakeSender struct {
	mu      sync.Mutex
	sent    []Elem
	handle  func(req Elem) (status int, resp Elem, err error)
	onAfter func(req Elem) // optional hook run synchronously after recording
}

func (s *fakeSender) Send(ctx context.Context, params SenderParams, body Elem) (DeferredResponse, error) {
	s.mu.Lock()
	s.sent = append(s.sent, body)
	s.mu.Unlock()
	if s.onAfter != nil {
		s.onAfter(body)
	}

	fut := newFakeFuture()
	go func() {
		status, resp, err := s.handle(body)
		fut.status, fut.body, fut.err = status, resp, err
		close(fut.done)
	}()
	return fut, nil
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// respBuilder is a small convenience for assembling a fake connection
// manager's response bodies in tests.
func respBuilder(attrs map[string]string) *Body {
	b := NewBuilder()
	for k, v := range attrs {
		b.SetAttribute(xml.Name{Local: k}, v)
	}
	body, _ := b.Build()
	return body
}

// sessionCreationResponse returns a typical, fully-populated session-creation
// response: sid, ver, wait/hold echoed, requests=2, and an accept list.
func sessionCreationResponse(sid string) *Body {
	return respBuilder(map[string]string{
		"sid":      sid,
		"wait":     "60",
		"hold":     "1",
		"requests": "2",
		"ver":      "1.11",
		"accept":   "gzip, deflate",
	})
}
