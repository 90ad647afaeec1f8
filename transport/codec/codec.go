// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

// Package codec maps BOSH `accept`/`Content-Encoding` tokens to wire
// compression codecs, the way the teacher's compress package maps XEP-0138
// method names to stream-level compressors, adapted here to an HTTP
// body transform instead of an XML stream wrapper.
package codec

import (
	"bytes"
	"io"
	"strings"

	kgzip "github.com/klauspost/compress/gzip"
	kzlib "github.com/klauspost/compress/zlib"
)

// Codec encodes and decodes a full, buffered body (BOSH bodies are never
// streamed; each HTTP exchange carries one complete XML document).
type Codec struct {
	Encode func([]byte) ([]byte, error)
	Decode func([]byte) ([]byte, error)
}

// Registry is a set of named codecs together with a negotiation order. The
// zero value is empty; use NewRegistry for one pre-populated with gzip and
// deflate.
type Registry struct {
	methods map[string]Codec
	order   []string
}

// NewRegistry returns a Registry with "gzip" and "deflate" (zlib-wrapped,
// per RFC 1950, the conventional HTTP interpretation of the token)
// registered, in that preference order.
func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]Codec)}
	r.Register("gzip", gzipCodec())
	r.Register("deflate", deflateCodec())
	return r
}

// Register adds or replaces the codec for name. The first registration of
// a given name fixes its position in the negotiation order.
func (r *Registry) Register(name string, c Codec) {
	if r.methods == nil {
		r.methods = make(map[string]Codec)
	}
	if _, exists := r.methods[name]; !exists {
		r.order = append(r.order, name)
	}
	r.methods[name] = c
}

// Lookup returns the codec registered under name, matched case-sensitively.
// Negotiate, not Lookup, is the case-insensitive match.
func (r *Registry) Lookup(name string) (Codec, bool) {
	c, ok := r.methods[name]
	return c, ok
}

// Negotiate returns the first registered codec, in registration order,
// whose name appears (case-insensitively) in accept — the set of
// content-codings the connection manager advertised it can decode.
func (r *Registry) Negotiate(accept []string) (name string, c Codec, ok bool) {
	for _, candidate := range r.order {
		for _, a := range accept {
			if strings.EqualFold(a, candidate) {
				return candidate, r.methods[candidate], true
			}
		}
	}
	return "", Codec{}, false
}

func gzipCodec() Codec {
	return Codec{
		Encode: func(p []byte) ([]byte, error) {
			var buf bytes.Buffer
			w := kgzip.NewWriter(&buf)
			if _, err := w.Write(p); err != nil {
				return nil, err
			}
			if err := w.Close(); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		Decode: func(p []byte) ([]byte, error) {
			r, err := kgzip.NewReader(bytes.NewReader(p))
			if err != nil {
				return nil, err
			}
			defer r.Close()
			return io.ReadAll(r)
		},
	}
}

func deflateCodec() Codec {
	return Codec{
		Encode: func(p []byte) ([]byte, error) {
			var buf bytes.Buffer
			w := kzlib.NewWriter(&buf)
			if _, err := w.Write(p); err != nil {
				return nil, err
			}
			if err := w.Close(); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		Decode: func(p []byte) ([]byte, error) {
			r, err := kzlib.NewReader(bytes.NewReader(p))
			if err != nil {
				return nil, err
			}
			defer r.Close()
			return io.ReadAll(r)
		},
	}
}
