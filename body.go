// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package bosh

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"codeberg.org/boshgo/client/internal/attr"
	"codeberg.org/boshgo/client/internal/ns"
)

// BodyName is the qualified name of the root element every BOSH request and
// response body must use.
var BodyName = xml.Name{Space: ns.HTTPBind, Local: "body"}

// Elem is satisfied by anything that can stand in for a BOSH body: an
// attribute lookup, the set of attributes, the opaque payload, and a
// serialized XML form. Both Body and StaticBody implement it.
type Elem interface {
	Attribute(name xml.Name) (string, bool)
	Attributes() []xml.Attr
	Payload() string
	XML() (string, error)
}

// Body is an immutable representation of a BOSH <body/> element: an
// attribute map plus an opaque XML payload fragment. Use Parse to build one
// from raw bytes, or start from a Builder to construct one from scratch.
//
// Body re-serializes deterministically from its attributes and payload;
// construction from the same attrs+payload always produces the same XML,
// which is what lets the scheduler retransmit a previously sent Body
// byte-for-byte simply by re-dispatching the same value. Callers who must
// echo the exact bytes a response arrived as (irrespective of how this
// package would reserialize it) should use StaticBody instead.
type Body struct {
	attrs   []xml.Attr
	nsDecls []xml.Attr
	payload string
}

// Parse decodes raw as a single BOSH <body/> element. It fails with a
// *ParseError if the root is not a <body/> in the BOSH namespace, if the
// XML is not well-formed, if a comment, processing instruction, or
// directive appears anywhere inside the element, or if character data
// appears directly inside <body/> (as opposed to inside one of its
// children).
func Parse(raw []byte) (*Body, error) {
	attrs, nsDecls, payload, err := parseBodyBytes(raw)
	if err != nil {
		return nil, err
	}
	return &Body{attrs: attrs, nsDecls: nsDecls, payload: payload}, nil
}

func parseBodyBytes(raw []byte) (attrs, nsDecls []xml.Attr, payload string, err error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	r := skipProlog(dec)

	tok, err := r.Token()
	if err != nil {
		return nil, nil, "", &ParseError{Reason: "could not read root element", Err: err}
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return nil, nil, "", &ParseError{Reason: "document does not begin with an element"}
	}
	if start.Name != BodyName {
		return nil, nil, "", &ParseError{Reason: "root element is not <body/> in the BOSH namespace"}
	}
	attrs, nsDecls = splitAttrs(start.Attr)

	payloadStart := dec.InputOffset()
	depth := 0
	var payloadEnd int64
	for {
		before := dec.InputOffset()
		tok, err = dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, nil, "", &ParseError{Reason: "body element was never closed", Err: err}
			}
			return nil, nil, "", &ParseError{Reason: "malformed XML", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				payloadEnd = before
				goto done
			}
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, nil, "", &ParseError{Reason: "character data is not allowed directly inside <body/>"}
			}
		case xml.Comment:
			return nil, nil, "", &ParseError{Reason: "comments are not allowed inside <body/>"}
		case xml.ProcInst:
			return nil, nil, "", &ParseError{Reason: "processing instructions are not allowed inside <body/>"}
		case xml.Directive:
			return nil, nil, "", &ParseError{Reason: "DTDs are not allowed inside <body/>"}
		}
	}
done:
	return attrs, nsDecls, string(raw[payloadStart:payloadEnd]), nil
}

// prologReader wraps an xml.TokenReader and discards a leading XML
// declaration (<?xml ... ?>), if any, before the first element. A
// connection manager is free to prefix its response with one even though
// a BOSH body is never itself a standalone XML document; the wire bytes
// still decode to the same logical <body/> either way.
type prologReader struct {
	r       xml.TokenReader
	started bool
}

func (p *prologReader) Token() (xml.Token, error) {
	tok, err := p.r.Token()
	if tok != nil && !p.started {
		p.started = true
		if proc, ok := tok.(xml.ProcInst); ok && proc.Target == "xml" {
			if err != nil {
				return nil, err
			}
			return p.r.Token()
		}
	}
	return tok, err
}

// skipProlog wraps r so that its first token is never a leading XML
// declaration.
func skipProlog(r xml.TokenReader) xml.TokenReader {
	return &prologReader{r: r}
}

func splitAttrs(raw []xml.Attr) (attrs, nsDecls []xml.Attr) {
	for _, a := range raw {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			nsDecls = append(nsDecls, a)
			continue
		}
		attrs = append(attrs, a)
	}
	return attrs, nsDecls
}

// Attribute returns the value of the attribute with the given qualified
// name, and whether it was present. Attribute names are matched by
// namespace and local name together: an unprefixed attribute (empty
// namespace) and an attribute of the same local name in another namespace
// are distinct.
func (b *Body) Attribute(name xml.Name) (string, bool) {
	idx, v := attr.GetQName(b.attrs, name)
	return v, idx >= 0
}

// Attributes returns a copy of the body's attribute list.
func (b *Body) Attributes() []xml.Attr {
	out := make([]xml.Attr, len(b.attrs))
	copy(out, b.attrs)
	return out
}

// Payload returns the opaque XML fragment contained in the body (the
// concatenation of its child elements' serialized forms).
func (b *Body) Payload() string {
	return b.payload
}

// XML serializes the body to its canonical wire form.
func (b *Body) XML() (string, error) {
	var buf strings.Builder
	buf.WriteString("<body xmlns=\"")
	buf.WriteString(ns.HTTPBind)
	buf.WriteByte('"')
	for _, a := range b.nsDecls {
		if a.Name.Space == "" && a.Name.Local == "xmlns" && a.Value == ns.HTTPBind {
			// Already written above as the default namespace.
			continue
		}
		writeAttr(&buf, a)
	}
	for _, a := range b.attrs {
		writeAttr(&buf, a)
	}
	buf.WriteByte('>')
	buf.WriteString(b.payload)
	buf.WriteString("</body>")
	return buf.String(), nil
}

// Rebuild returns a Builder seeded with this body's attributes, namespace
// declarations, and payload, ready to derive a modified Body.
func (b *Body) Rebuild() *Builder {
	bd := &Builder{payload: b.payload}
	bd.attrs = append(bd.attrs, b.attrs...)
	bd.nsDecls = append(bd.nsDecls, b.nsDecls...)
	return bd
}

func writeAttr(buf *strings.Builder, a xml.Attr) {
	buf.WriteByte(' ')
	if a.Name.Space == "xmlns" {
		buf.WriteString("xmlns:")
		buf.WriteString(a.Name.Local)
	} else if a.Name.Space == ns.XML {
		buf.WriteString("xml:")
		buf.WriteString(a.Name.Local)
	} else {
		buf.WriteString(a.Name.Local)
	}
	buf.WriteString("=\"")
	var esc bytes.Buffer
	_ = xml.EscapeText(&esc, []byte(a.Value))
	buf.WriteString(esc.String())
	buf.WriteByte('"')
}

// StaticBody wraps the exact bytes a Body was parsed from. Its Attribute,
// Attributes, and Payload accessors behave like a Body parsed from the same
// bytes, but XML always returns the original bytes verbatim, even if this
// package's own serialization of the same attributes and payload would
// differ in formatting (attribute order, quoting, whitespace). Use this
// when byte-exact echoing of a received response matters, such as
// diagnostic logging or golden-file tests.
type StaticBody struct {
	*Body
	raw []byte
}

// ParseStatic is like Parse, but retains the original bytes so that XML can
// echo them back verbatim.
func ParseStatic(raw []byte) (*StaticBody, error) {
	b, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return &StaticBody{Body: b, raw: cp}, nil
}

// XML returns the original bytes this StaticBody was parsed from.
func (s *StaticBody) XML() (string, error) {
	return string(s.raw), nil
}
