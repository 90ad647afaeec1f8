// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package bosh

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDialEstablishes(t *testing.T) {
	sender := &fakeSender{
		handle: func(req Elem) (int, Elem, error) {
			return 200, sessionCreationResponse("sess-1"), nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s, err := Dial(ctx, Config{To: "example.com"}, sender)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer s.Close()

	params, ok := s.Params()
	if !ok {
		t.Fatalf("Params() ok = false after Dial")
	}
	if params.SID != "sess-1" {
		t.Fatalf("SID = %q, want sess-1", params.SID)
	}
	if params.Requests != 2 {
		t.Fatalf("Requests = %d, want 2", params.Requests)
	}
}

func TestDialPropagatesProtocolError(t *testing.T) {
	sender := &fakeSender{
		handle: func(req Elem) (int, Elem, error) {
			// No sid: ParamsFromInit will reject this.
			return 200, respBuilder(map[string]string{"ver": "1.11"}), nil
		},
	}

	_, err := Dial(context.Background(), Config{To: "example.com"}, sender)
	if err == nil {
		t.Fatalf("Dial succeeded, want error for missing sid")
	}
	if _, ok := err.(*ProtocolError); !ok {
		t.Fatalf("Dial error = %T, want *ProtocolError", err)
	}
}

func TestDialContextDeadline(t *testing.T) {
	block := make(chan struct{})
	sender := &fakeSender{
		handle: func(req Elem) (int, Elem, error) {
			<-block
			return 200, sessionCreationResponse("sess-1"), nil
		},
	}
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := Dial(ctx, Config{To: "example.com"}, sender)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Dial error = %v, want one wrapping context.DeadlineExceeded", err)
	}
}
