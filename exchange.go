// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package bosh

import "context"

// DeferredResponse is a handle to an HTTP response that may still be in
// flight. Both accessors may block the caller; a context passed to either
// may be used to cancel the wait, which must then return a non-nil error.
// Session wraps any error an accessor returns in a *TransportError and
// disposes.
type DeferredResponse interface {
	// StatusCode blocks until the HTTP response's status line has arrived.
	StatusCode(ctx context.Context) (int, error)

	// Body blocks until the full response body has arrived and been
	// decoded as an Elem (a <body/> element).
	Body(ctx context.Context) (Elem, error)
}

// Sender is the pluggable HTTP transport a Session dispatches requests
// through. A Sender must be safe for concurrent use by multiple workers and
// must not retain any session-level state between calls; the params
// argument carries everything about the session a given Send needs to know
// (sid, negotiated accept-encoding, and so on).
type Sender interface {
	// Send POSTs body and returns a handle to the eventual response. Send
	// itself should not block waiting for the response; it returns as soon
	// as the request has been dispatched (or queued to be).
	Send(ctx context.Context, params SenderParams, body Elem) (DeferredResponse, error)
}

// SenderParams is the subset of session state a Sender needs in order to
// address and shape an HTTP request. It is derived from Params but kept as
// a separate, narrower type so the transport layer does not need to depend
// on the full session parameter set (or its zero-value-before-establishment
// ambiguity).
type SenderParams struct {
	// SID is the session identifier, or empty before the session is
	// established.
	SID string

	// Accept is the set of content-codings the connection manager said it
	// will decode, as advertised in the session-creation response.
	Accept []string
}

// exchangeState is the lifecycle of an Exchange, tracked only for
// diagnostics; the scheduler's control flow does not switch on it directly.
type exchangeState uint8

const (
	exchangeQueued exchangeState = iota
	exchangeDispatched
	exchangeResponded
	exchangeIntegrated
	exchangeRemoved
)

// exchange is one outstanding (request, deferred-response) pair, owned
// exclusively by the Session's scheduler from the moment it is enqueued
// until it is removed after response integration (or discarded on
// dispose). Exchanges with the same body content are created afresh for
// retransmission (recoverable error replay, S4) and for ack-report replay
// (S5); each replay is a distinct exchange with its own deferred slot, even
// though the wire bytes of its request are identical to the original.
type exchange struct {
	body  Elem
	state exchangeState

	// resp is set once Send has dispatched the HTTP request; nil while the
	// exchange waits in queue for a processor to claim it.
	resp DeferredResponse

	// claimed is true once a processor worker has taken ownership of this
	// exchange and is awaiting its response.
	claimed bool
}

func newExchange(body Elem) *exchange {
	return &exchange{body: body, state: exchangeQueued}
}
