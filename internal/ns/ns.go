// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ns provides namespace constants used by the bosh package and its
// supporting internal packages.
package ns // import "codeberg.org/boshgo/client/internal/ns"

// List of namespaces relevant to BOSH (XEP-0124) and the XML layer it
// tunnels.
const (
	// HTTPBind is the BOSH namespace that qualifies every <body/> element.
	HTTPBind = "http://jabber.org/protocol/httpbind"

	// XML is the namespace of the always-declared "xml" prefix, used for
	// xml:lang.
	XML = "http://www.w3.org/XML/1998/namespace"

	// XMPPStreams is the namespace of the plain XMPP stream the tunneled
	// payload ultimately belongs to; BOSH itself is payload-agnostic and does
	// not interpret it, but session-creation attributes such as `ver` refer
	// to the XMPP stream version.
	XMPPStreams = "urn:ietf:params:xml:ns:xmpp-streams"
)
