// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package codec

import "testing"

func TestRoundTrip(t *testing.T) {
	reg := NewRegistry()
	tests := []string{"gzip", "deflate"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			c, ok := reg.Lookup(name)
			if !ok {
				t.Fatalf("codec %q not registered", name)
			}
			in := []byte(`<body xmlns="http://jabber.org/protocol/httpbind" sid="x"/>`)
			enc, err := c.Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			dec, err := c.Decode(enc)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if string(dec) != string(in) {
				t.Fatalf("round trip mismatch: got %q want %q", dec, in)
			}
		})
	}
}

func TestNegotiate(t *testing.T) {
	reg := NewRegistry()

	name, _, ok := reg.Negotiate([]string{"identity", "DEFLATE"})
	if !ok || name != "deflate" {
		t.Fatalf("Negotiate() = %q, %v; want deflate, true", name, ok)
	}

	if _, _, ok := reg.Negotiate([]string{"br"}); ok {
		t.Fatalf("Negotiate() should not match an unregistered coding")
	}

	name, _, ok = reg.Negotiate([]string{"deflate", "gzip"})
	if !ok || name != "gzip" {
		t.Fatalf("Negotiate() should prefer registration order (gzip); got %q", name)
	}
}
