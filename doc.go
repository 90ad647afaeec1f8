// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

// Package bosh implements the client half of Bidirectional-streams Over
// Synchronous HTTP (BOSH, XEP-0124): a protocol that tunnels a long-lived,
// ordered, bidirectional XML stream over a sequence of HTTP POST
// request/response pairs.
//
// The package is payload-agnostic: it knows how to open a session,
// multiplex outbound Body values onto concurrently held HTTP requests,
// correlate responses, enforce the protocol's pacing and acknowledgement
// rules, and surface received payloads to the application. It does not
// interpret what is inside a Body's payload; XMPP stanza semantics (or any
// other protocol tunneled over BOSH) live above this package.
//
// A Session is created with Dial, which performs the first request/response
// round trip and negotiates the session parameters the connection manager
// advertises. Once established, an application calls Send to transmit a
// Body and registers listeners to receive Body values as they arrive.
package bosh // import "codeberg.org/boshgo/client"
