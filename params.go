// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package bosh

import (
	"encoding/xml"

	"codeberg.org/boshgo/client/internal/attr"
	"codeberg.org/boshgo/client/internal/ns"
	"codeberg.org/boshgo/client/internal/rid"
)

var (
	nameSID        = xml.Name{Local: "sid"}
	nameWait       = xml.Name{Local: "wait"}
	nameHold       = xml.Name{Local: "hold"}
	nameRequests   = xml.Name{Local: "requests"}
	namePolling    = xml.Name{Local: "polling"}
	nameInactivity = xml.Name{Local: "inactivity"}
	nameMaxPause   = xml.Name{Local: "maxpause"}
	namePause      = xml.Name{Local: "pause"}
	nameAccept     = xml.Name{Local: "accept"}
	nameAck        = xml.Name{Local: "ack"}
	nameVer        = xml.Name{Local: "ver"}
	nameRID        = xml.Name{Local: "rid"}
	nameTo         = xml.Name{Local: "to"}
	nameFrom       = xml.Name{Local: "from"}
	nameRoute      = xml.Name{Local: "route"}
	nameType       = xml.Name{Local: "type"}
	nameCondition  = xml.Name{Local: "condition"}
	nameReport     = xml.Name{Local: "report"}
	nameTime       = xml.Name{Local: "time"}
	nameLang       = xml.Name{Space: ns.XML, Local: "lang"}
)

// defaultRequests is the number of concurrent requests assumed when a
// connection manager omits `requests` but advertises a `ver`; see Params'
// Requests documentation for the legacy-mode exception.
const defaultRequests = 2

// Params holds the connection manager's session parameters, parsed once
// from the first successful response to a session-creation request (XEP-0124
// §7-§9). A zero Params is never produced by this package; see
// ParamsFromInit.
type Params struct {
	// SID is the opaque session identifier the connection manager assigned.
	SID string

	// Wait is the maximum number of seconds the connection manager will
	// hold a request open waiting for a payload to piggyback on the
	// response.
	Wait int

	// Hold is the number of requests the connection manager will hold at
	// once to push data to the client, if any.
	Hold int
	HoldSet bool

	// Requests is the maximum number of simultaneous requests the client
	// may have outstanding. If the connection manager omitted `requests`,
	// this defaults to 2, unless it also omitted `ver` (a legacy
	// connection manager), in which case it defaults to 1.
	Requests int

	// Polling is the minimum number of seconds that must elapse between
	// two content-less (empty) requests.
	Polling    int
	PollingSet bool

	// Inactivity is the maximum number of seconds the client may remain
	// silent before the connection manager assumes it has disconnected.
	Inactivity    int
	InactivitySet bool

	// MaxPause is the upper bound, in seconds, on a pause the client may
	// request with the `pause` attribute.
	MaxPause    int
	MaxPauseSet bool

	// Accept is the set of content encodings the connection manager will
	// decode on requests (e.g. "gzip", "deflate").
	Accept []string

	// AckFlag is true iff the session-creation response carried an `ack`
	// attribute equal to the session-creation request's RID, meaning the
	// connection manager participates in request acking.
	AckFlag bool

	// Version is the BOSH protocol version the connection manager
	// advertised, if any. Its absence (together with an absent `requests`)
	// is what selects the legacy Requests default.
	Version    attr.Version
	VersionSet bool
}

// ParamsFromInit parses the session parameters from the response to the
// session-creation request. req is the request that was sent (its RID is
// needed to detect the ack flag and, in legacy mode, is otherwise unused);
// resp is the Elem the connection manager returned. It fails with a
// *ProtocolError if `sid` is absent, and with a *ParseError if any numeric
// attribute is malformed.
func ParamsFromInit(req Elem, resp Elem) (*Params, error) {
	sid, ok := resp.Attribute(nameSID)
	if !ok || sid == "" {
		return nil, &ProtocolError{Reason: "session-creation response is missing sid"}
	}

	p := &Params{SID: sid}

	waitStr, hasWait := resp.Attribute(nameWait)
	if hasWait {
		n, _, err := attr.ParseNonNegInt(&waitStr)
		if err != nil {
			return nil, &ParseError{Reason: "malformed wait attribute", Err: err}
		}
		p.Wait = n
	}

	if v, hasIt := getOptionalInt(resp, nameHold); hasIt {
		n, err := mustNonNeg(v, "hold")
		if err != nil {
			return nil, err
		}
		p.Hold, p.HoldSet = n, true
	}

	reqStr, hasRequests := resp.Attribute(nameRequests)
	verStr, hasVersion := resp.Attribute(nameVer)
	switch {
	case hasRequests:
		n, err := mustNonNeg(reqStr, "requests")
		if err != nil {
			return nil, err
		}
		p.Requests = n
	case hasVersion:
		p.Requests = defaultRequests
	default:
		// Legacy connection manager: neither `requests` nor `ver` was
		// advertised. XEP-0124 implementations have historically disagreed
		// on the default here; this package resolves the ambiguity by
		// treating the omission of both as "legacy, serialize requests".
		p.Requests = 1
	}

	if v, hasIt := getOptionalInt(resp, namePolling); hasIt {
		n, err := mustNonNeg(v, "polling")
		if err != nil {
			return nil, err
		}
		p.Polling, p.PollingSet = n, true
	}
	if v, hasIt := getOptionalInt(resp, nameInactivity); hasIt {
		n, err := mustNonNeg(v, "inactivity")
		if err != nil {
			return nil, err
		}
		p.Inactivity, p.InactivitySet = n, true
	}
	if v, hasIt := getOptionalInt(resp, nameMaxPause); hasIt {
		n, err := mustNonNeg(v, "maxpause")
		if err != nil {
			return nil, err
		}
		p.MaxPause, p.MaxPauseSet = n, true
	}

	if acceptStr, hasAccept := resp.Attribute(nameAccept); hasAccept {
		tokens, _, err := attr.ParseTokenSet(&acceptStr)
		if err != nil {
			return nil, &ParseError{Reason: "malformed accept attribute", Err: err}
		}
		p.Accept = tokens
	}

	if hasVersion {
		ver, _, err := attr.ParseVersion(&verStr)
		if err != nil {
			return nil, &ParseError{Reason: "malformed ver attribute", Err: err}
		}
		p.Version, p.VersionSet = ver, true
	}

	scRID, _ := req.Attribute(nameRID)
	if ackStr, hasAck := resp.Attribute(nameAck); hasAck {
		p.AckFlag = ackStr == scRID
	}

	return p, nil
}

func getOptionalInt(e Elem, name xml.Name) (string, bool) {
	v, ok := e.Attribute(name)
	if !ok {
		return "", false
	}
	return v, true
}

func mustNonNeg(s, attrName string) (int, error) {
	n, _, err := attr.ParseNonNegInt(&s)
	if err != nil {
		return 0, &ParseError{Reason: "malformed " + attrName + " attribute", Err: err}
	}
	return n, nil
}

// maxRequests returns the maximum number of requests that may be
// outstanding at once, treating an unset/zero value as unbounded. Params
// always has Requests populated by ParamsFromInit, so this only matters
// before session establishment, where the caller uses the session-creation
// admission rule instead (see Session.admissibleLocked).
func (p *Params) maxRequests() int {
	if p == nil || p.Requests <= 0 {
		return int(^uint(0) >> 1) // effectively unbounded
	}
	return p.Requests
}

// newRIDSequence creates the RID sequence of each new Session: a
// rid.Sequence with a fresh random initial value.
var newRIDSequence = func() *rid.Sequence { return rid.NewSequence() }
