// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package bosh

import "context"

// Dial assembles a Session and performs the session-creation round trip,
// returning once the connection manager's first response has been
// integrated (the session is Established) or propagating whatever error
// prevented that. It is the library's usual entry point; NewSession remains
// available directly to callers that want to observe the Established event
// themselves instead of blocking on it.
//
// ctx bounds only the initial round trip: once Dial returns a non-nil
// Session, ctx may be discarded and the session's own lifetime governs
// further requests. If ctx is canceled first, the session is closed and
// ctx.Err() is returned.
func Dial(ctx context.Context, cfg Config, sender Sender) (*Session, error) {
	s := NewSession(cfg, sender)

	result := make(chan error, 1)
	s.AddConnectionListener(func(ev ConnectionEvent) {
		switch ev.Kind {
		case Established:
			select {
			case result <- nil:
			default:
			}
		default:
			err := ev.Err
			if err == nil {
				err = ErrSessionClosed
			}
			select {
			case result <- err:
			default:
			}
		}
	})

	body, err := NewBuilder().Build()
	if err != nil {
		return nil, err
	}
	if err := s.Send(body); err != nil {
		return nil, err
	}

	select {
	case err := <-result:
		if err != nil {
			return nil, err
		}
		return s, nil
	case <-ctx.Done():
		_ = s.Close()
		return nil, ctx.Err()
	}
}
