// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package bosh

import (
	"sort"
	"strconv"
)

// ackState tracks the mutual acknowledgement bookkeeping described in
// XEP-0124 §9: the highest contiguous response RID the client has received
// (responseAck), the set of out-of-order response RIDs received above it
// (pendingResponseAcks), and, when the connection manager participates in
// request acking, the ordered list of requests it has not yet acked
// (pendingRequestAcks). It is owned exclusively by Session and mutated only
// while the session lock is held.
type ackState struct {
	// responseAck is the highest RID whose response has been received with
	// no gap below it; -1 is the "nothing received yet" sentinel.
	responseAck int64

	// pendingResponseAcks holds received response RIDs greater than
	// responseAck, waiting for the gap below them to close.
	pendingResponseAcks map[uint64]struct{}

	// pendingRequestAcks holds, in RID order, the requests the connection
	// manager has not yet acked. Populated only while acking is active.
	pendingRequestAcks []*exchange
}

func newAckState() *ackState {
	return &ackState{
		responseAck:         -1,
		pendingResponseAcks: make(map[uint64]struct{}),
	}
}

// recordRequest appends ex to the pending-request-ack buffer in RID order.
// Session calls it only once acking is active (Params.AckFlag is true), so
// the session-creation request itself is never buffered.
func (a *ackState) recordRequest(ex *exchange) {
	a.pendingRequestAcks = append(a.pendingRequestAcks, ex)
}

// ackRequests removes every pending request whose RID is less than or
// equal to upTo, implementing the CM-to-client direction of acking: "ack
// covers everything up to and including this RID."
func (a *ackState) ackRequests(upTo uint64) {
	kept := a.pendingRequestAcks[:0]
	for _, ex := range a.pendingRequestAcks {
		if ridOf(ex) <= upTo {
			continue
		}
		kept = append(kept, ex)
	}
	a.pendingRequestAcks = kept
}

// findPending returns the pending request with the given RID, or nil if
// none is buffered (the report names an RID the client never sent, or one
// already acked and evicted).
func (a *ackState) findPending(r uint64) *exchange {
	for _, ex := range a.pendingRequestAcks {
		if ridOf(ex) == r {
			return ex
		}
	}
	return nil
}

// recordResponse implements the client-to-CM direction of acking (§4.5):
// "responseAck is the highest RID ≤ all received RIDs with no gaps." The
// first response received becomes responseAck outright (there is nothing
// to have a gap against); every later response either extends the
// contiguous run directly or is buffered in pendingResponseAcks until the
// gap below it closes.
func (a *ackState) recordResponse(r uint64) {
	if a.responseAck == -1 {
		a.responseAck = int64(r)
		return
	}
	if int64(r) <= a.responseAck {
		// Already covered; nothing to do (can legitimately happen on a
		// duplicate delivery or a replay's response arriving twice).
		return
	}
	a.pendingResponseAcks[r] = struct{}{}
	for {
		next := uint64(a.responseAck + 1)
		if _, ok := a.pendingResponseAcks[next]; !ok {
			break
		}
		delete(a.pendingResponseAcks, next)
		a.responseAck++
	}
}

// ackAttr returns the value the client should place in the outgoing `ack`
// attribute for a request with the given RID, and whether one should be
// sent at all. Per §4.4, acking is omitted when it is the implicit ack
// (responseAck == rid-1, i.e. the previous response was the most recent
// one received) to avoid a redundant attribute on the common path.
func (a *ackState) ackAttr(rid uint64) (string, bool) {
	if a.responseAck == -1 {
		return "", false
	}
	if a.responseAck == int64(rid)-1 {
		return "", false
	}
	return strconv.FormatInt(a.responseAck, 10), true
}

func ridOf(ex *exchange) uint64 {
	v, ok := ex.body.Attribute(nameRID)
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// pendingRIDs returns the RIDs currently buffered in pendingRequestAcks, in
// ascending order, for diagnostics and tests.
func (a *ackState) pendingRIDs() []uint64 {
	out := make([]uint64, 0, len(a.pendingRequestAcks))
	for _, ex := range a.pendingRequestAcks {
		out = append(out, ridOf(ex))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
