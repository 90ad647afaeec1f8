// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package bosh

import "encoding/xml"

// Builder constructs a Body incrementally. The zero value is an empty body
// with no attributes and no payload. Methods return the Builder so calls can
// be chained.
type Builder struct {
	attrs   []xml.Attr
	nsDecls []xml.Attr
	payload string
}

// NewBuilder returns a new, empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetAttribute sets the value of the attribute with the given qualified
// name, replacing any existing value for that name. Passing an empty
// namespace in name sets an unprefixed attribute.
func (b *Builder) SetAttribute(name xml.Name, value string) *Builder {
	for i, a := range b.attrs {
		if a.Name == name {
			b.attrs[i].Value = value
			return b
		}
	}
	b.attrs = append(b.attrs, xml.Attr{Name: name, Value: value})
	return b
}

// RemoveAttribute removes the attribute with the given qualified name, if
// present.
func (b *Builder) RemoveAttribute(name xml.Name) *Builder {
	for i, a := range b.attrs {
		if a.Name == name {
			b.attrs = append(b.attrs[:i], b.attrs[i+1:]...)
			return b
		}
	}
	return b
}

// SetNamespace declares a namespace prefix binding on the body element
// itself (an xmlns:prefix="uri" declaration), distinct from an ordinary
// attribute. Passing an empty prefix has no effect; the BOSH namespace
// itself is always declared as the default namespace and cannot be
// overridden this way.
func (b *Builder) SetNamespace(prefix, uri string) *Builder {
	if prefix == "" {
		return b
	}
	decl := xml.Attr{Name: xml.Name{Space: "xmlns", Local: prefix}, Value: uri}
	for i, a := range b.nsDecls {
		if a.Name == decl.Name {
			b.nsDecls[i].Value = uri
			return b
		}
	}
	b.nsDecls = append(b.nsDecls, decl)
	return b
}

// SetPayloadXML sets the body's payload to the provided, already serialized
// XML fragment. The fragment is not parsed or validated here; it is
// embedded verbatim inside the resulting <body/> element, so callers are
// responsible for passing well-formed XML.
func (b *Builder) SetPayloadXML(payload string) *Builder {
	b.payload = payload
	return b
}

// AppendPayloadXML appends an already serialized XML fragment to the
// body's existing payload.
func (b *Builder) AppendPayloadXML(payload string) *Builder {
	b.payload += payload
	return b
}

// Build returns the Body described by the builder so far. Build never
// fails on its own; the error return exists so callers can chain it with
// code that also constructs a payload that may fail to serialize, and so
// a future validating variant of Build has somewhere to report to without
// breaking callers.
func (b *Builder) Build() (*Body, error) {
	attrs := make([]xml.Attr, len(b.attrs))
	copy(attrs, b.attrs)
	nsDecls := make([]xml.Attr, len(b.nsDecls))
	copy(nsDecls, b.nsDecls)
	return &Body{attrs: attrs, nsDecls: nsDecls, payload: b.payload}, nil
}
