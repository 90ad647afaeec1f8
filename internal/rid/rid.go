// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

// Package rid generates BOSH request identifiers (XEP-0124 §7.1).
package rid

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
)

// Max is the exclusive upper bound on any request ID: RIDs are positive
// integers strictly less than 2^53 (the largest integer a double-precision
// float, and hence many BOSH implementations in other languages, can
// represent exactly).
const Max = uint64(1) << 53

// headroom is the minimum distance the initial RID is kept below Max, so
// that a long-lived session cannot exhaust the space by simply incrementing.
const headroom = uint64(1) << 32

// span is the number of distinct values the initial RID may be drawn from.
const span = Max - headroom - 1

// Sequence generates the initial request ID for a session and its
// successive increments. The initial value is drawn from a
// cryptographically strong source uniformly over [1, 2^53-2^32); each
// subsequent call to Next returns the previous value plus one.
//
// A Sequence is safe for concurrent use, though the scheduler always calls
// Next while holding the session lock, so the atomic operations here are
// belt-and-suspenders rather than load-bearing.
type Sequence struct {
	// cur holds the most recently issued RID, or one less than the initial
	// value if no RID has been issued yet.
	cur uint64
}

// NewSequence creates a Sequence with a fresh, random initial value. It
// panics if the system's entropy source cannot be read, mirroring the
// panic-on-exhausted-randomness behavior the wider ecosystem uses for
// security-relevant random identifiers.
func NewSequence() *Sequence {
	return &Sequence{cur: initial() - 1}
}

// Next returns the next request ID in the sequence.
func (s *Sequence) Next() uint64 {
	return atomic.AddUint64(&s.cur, 1)
}

func initial() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("rid: could not read enough randomness: " + err.Error())
	}
	n := binary.BigEndian.Uint64(b[:])
	return 1 + n%span
}
