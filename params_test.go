// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package bosh

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func reqBody(t *testing.T, rid string) Elem {
	t.Helper()
	b, err := NewBuilder().SetAttribute(nameRID, rid).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return b
}

func TestParamsFromInitRequestsDefault(t *testing.T) {
	tests := []struct {
		name string
		resp *Body
		want int
	}{
		{
			name: "explicit requests wins",
			resp: respBuilder(map[string]string{"sid": "s", "requests": "5", "ver": "1.11"}),
			want: 5,
		},
		{
			name: "ver present, requests absent defaults to 2",
			resp: respBuilder(map[string]string{"sid": "s", "ver": "1.11"}),
			want: 2,
		},
		{
			name: "legacy connection manager (neither) defaults to 1",
			resp: respBuilder(map[string]string{"sid": "s"}),
			want: 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ParamsFromInit(reqBody(t, "1"), tc.resp)
			if err != nil {
				t.Fatalf("ParamsFromInit: %v", err)
			}
			if p.Requests != tc.want {
				t.Fatalf("Requests = %d, want %d", p.Requests, tc.want)
			}
		})
	}
}

func TestParamsFromInitMissingSID(t *testing.T) {
	resp := respBuilder(map[string]string{"ver": "1.11"})
	if _, err := ParamsFromInit(reqBody(t, "1"), resp); err == nil {
		t.Fatalf("ParamsFromInit with no sid should fail")
	} else if _, ok := err.(*ProtocolError); !ok {
		t.Fatalf("error type = %T, want *ProtocolError", err)
	}
}

func TestParamsFromInitMalformedNumericAttribute(t *testing.T) {
	resp := respBuilder(map[string]string{"sid": "s", "wait": "not-a-number"})
	if _, err := ParamsFromInit(reqBody(t, "1"), resp); err == nil {
		t.Fatalf("ParamsFromInit with malformed wait should fail")
	} else if _, ok := err.(*ParseError); !ok {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
}

func TestParamsFromInitAckFlag(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
		ackAttr   string
		hasAck    bool
		want      bool
	}{
		{"ack equals session-creation rid", "7", "7", true, true},
		{"ack disagrees with session-creation rid", "7", "8", true, false},
		{"no ack attribute at all", "7", "", false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			attrs := map[string]string{"sid": "s"}
			if tc.hasAck {
				attrs["ack"] = tc.ackAttr
			}
			p, err := ParamsFromInit(reqBody(t, tc.requestID), respBuilder(attrs))
			if err != nil {
				t.Fatalf("ParamsFromInit: %v", err)
			}
			if p.AckFlag != tc.want {
				t.Fatalf("AckFlag = %v, want %v", p.AckFlag, tc.want)
			}
		})
	}
}

func TestParamsFromInitAcceptList(t *testing.T) {
	resp := respBuilder(map[string]string{"sid": "s", "accept": "gzip, deflate"})
	p, err := ParamsFromInit(reqBody(t, "1"), resp)
	if err != nil {
		t.Fatalf("ParamsFromInit: %v", err)
	}
	want := []string{"gzip", "deflate"}
	if diff := cmp.Diff(want, p.Accept, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("Accept mismatch (-want +got):\n%s", diff)
	}
}

func TestParamsMaxRequestsUnbounded(t *testing.T) {
	var p *Params
	if got := p.maxRequests(); got <= 0 {
		t.Fatalf("maxRequests() on nil Params = %d, want a large positive sentinel", got)
	}
	p = &Params{Requests: 0}
	if got := p.maxRequests(); got <= 0 {
		t.Fatalf("maxRequests() on zero Requests = %d, want a large positive sentinel", got)
	}
	p = &Params{Requests: 3}
	if got := p.maxRequests(); got != 3 {
		t.Fatalf("maxRequests() = %d, want 3", got)
	}
}
