// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package bosh

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// sessionState is the Session's coarse lifecycle, per §4.4: Idle holds no
// running processor workers; Connecting spans from the first Send until
// the first response is integrated; Established is normal operation;
// Terminating begins the moment a type=terminate body is dispatched; Closed
// follows disposal, after which every further Send fails.
type sessionState uint8

const (
	stateIdle sessionState = iota
	stateConnecting
	stateEstablished
	stateTerminating
	stateClosed
)

// Session is a BOSH client session: the negotiator, admission controller,
// ack engine, and retransmission/termination state machine described by
// XEP-0124. Use Dial to create and establish one; NewSession is available
// directly for callers that want to drive the session-creation round trip
// themselves (for example, to observe the Established event rather than
// block on it).
//
// A Session is safe for concurrent use by multiple goroutines. Exactly one
// mutex guards its mutable state; listener dispatch, HTTP dispatch, and the
// wait for a deferred response are always performed with it released (§5).
type Session struct {
	cfg    Config
	sender Sender

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	drained  *sync.Cond

	state    sessionState
	disposed bool

	rids   ridSequence
	params *Params
	ack    *ackState

	queue         []*exchange
	activeWorkers int

	emptyTimer     *time.Timer
	emptyScheduled bool

	listeners *listeners
}

// ridSequence is the minimal surface Session needs from internal/rid.
type ridSequence interface {
	Next() uint64
}

// NewSession constructs a Session that has not yet sent anything; it enters
// Connecting on the first Send and Established once the first response is
// integrated. Most callers should use Dial instead, which also performs the
// session-creation round trip.
func NewSession(cfg Config, sender Sender) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:       cfg,
		sender:    sender,
		ctx:       ctx,
		cancel:    cancel,
		rids:      newRIDSequence(),
		ack:       newAckState(),
		listeners: &listeners{logger: cfg.Logger},
	}
	s.notEmpty = sync.NewCond(&s.mu)
	s.notFull = sync.NewCond(&s.mu)
	s.drained = sync.NewCond(&s.mu)
	return s
}

// Params returns the session parameters negotiated from the first
// response, and false if the session has not yet established.
func (s *Session) Params() (Params, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.params == nil {
		return Params{}, false
	}
	return *s.params, true
}

// AddRequestListener registers fn to be called, outside the session lock,
// every time a body is dispatched.
func (s *Session) AddRequestListener(fn RequestListener) { s.listeners.addRequest(fn) }

// AddResponseListener registers fn to be called, outside the session lock,
// every time a response body is received.
func (s *Session) AddResponseListener(fn ResponseListener) { s.listeners.addResponse(fn) }

// AddConnectionListener registers fn to be called, outside the session
// lock, on connection lifecycle transitions (§7).
func (s *Session) AddConnectionListener(fn ConnectionListener) { s.listeners.addConn(fn) }

// Send transmits body to the connection manager. It blocks while the
// session is working (not yet disposed) and the body is not yet
// admissible under the current admission rule (§4.4), then assigns a RID,
// tags the body with the session-creation or subsequent-request
// attributes as appropriate, enqueues it, and dispatches the HTTP request.
// It fails with ErrSessionClosed if the session has already disposed.
func (s *Session) Send(body *Body) error {
	if body == nil {
		return &ProtocolError{Reason: "cannot send a nil body"}
	}
	terminate := isTerminate(body)
	_, hasPause := body.Attribute(namePause)

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	for !s.admissibleLocked(terminate, hasPause) {
		s.notFull.Wait()
		if s.disposed {
			s.mu.Unlock()
			return ErrSessionClosed
		}
	}

	ridVal := s.rids.Next()
	tagged := s.tagBodyLocked(body, ridVal, terminate)
	ex := newExchange(tagged)
	s.queue = append(s.queue, ex)
	if s.params != nil && s.params.AckFlag {
		s.ack.recordRequest(ex)
	}

	if s.state == stateIdle {
		s.state = stateConnecting
		s.spawnWorkersLocked(1)
	}
	if terminate && s.state == stateEstablished {
		s.state = stateTerminating
	}
	s.cancelEmptyTimerLocked()
	sp := s.senderParamsLocked()
	ctx := s.ctx
	s.mu.Unlock()

	s.listeners.dispatchRequest(tagged)
	resp, err := s.sender.Send(ctx, sp, tagged)
	if err != nil {
		te := &TransportError{Err: err}
		s.dispose(te)
		return te
	}

	s.mu.Lock()
	ex.resp = resp
	ex.state = exchangeDispatched
	s.notEmpty.Signal()
	s.mu.Unlock()
	return nil
}

// Disconnect rebuilds body (or an empty body, if nil) with type=terminate
// and sends it.
func (s *Session) Disconnect(body *Body) error {
	var b *Builder
	if body != nil {
		b = body.Rebuild()
	} else {
		b = NewBuilder()
	}
	b.SetAttribute(nameType, "terminate")
	tb, err := b.Build()
	if err != nil {
		return err
	}
	return s.Send(tb)
}

// Pause requests a temporary inactivity extension if the connection
// manager advertised maxpause, reporting whether pause is supported. When
// supported, it also sends the pause request.
func (s *Session) Pause() (bool, error) {
	s.mu.Lock()
	p := s.params
	s.mu.Unlock()
	if p == nil || !p.MaxPauseSet {
		return false, nil
	}
	b, err := NewBuilder().SetAttribute(namePause, strconv.Itoa(p.MaxPause)).Build()
	if err != nil {
		return true, err
	}
	return true, s.Send(b)
}

// Close forcibly disposes the session with an explicit-close cause, without
// sending anything.
func (s *Session) Close() error {
	s.dispose(ErrExplicitClose)
	return nil
}

// Drain blocks until the exchange queue is empty and no empty-request send
// is scheduled.
func (s *Session) Drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for (len(s.queue) > 0 || s.emptyScheduled) && !s.disposed {
		s.drained.Wait()
	}
}

// admissibleLocked implements the admission rule of §4.4: before session
// establishment, only one outstanding request is ever permitted (this
// serializes the session-creation request); afterward, up to
// Params.Requests requests may be outstanding, plus one more if the body
// enqueued at the limit is a termination or carries a pause attribute.
func (s *Session) admissibleLocked(terminate, hasPause bool) bool {
	n := len(s.queue)
	if s.params == nil {
		return n == 0
	}
	r := s.params.maxRequests()
	if n < r {
		return true
	}
	return n == r && (terminate || hasPause)
}

func (s *Session) senderParamsLocked() SenderParams {
	sp := SenderParams{}
	if s.params != nil {
		sp.SID = s.params.SID
		sp.Accept = s.params.Accept
	}
	return sp
}

// tagBodyLocked applies the session-creation attributes (first request) or
// the subsequent-request attributes (every later request), per §4.4.
func (s *Session) tagBodyLocked(body *Body, ridVal uint64, terminate bool) *Body {
	b := body.Rebuild()
	ridStr := strconv.FormatUint(ridVal, 10)
	b.SetAttribute(nameRID, ridStr)

	if s.params == nil {
		b.SetAttribute(nameTo, s.cfg.To)
		if s.cfg.Lang != "" {
			b.SetAttribute(nameLang, s.cfg.Lang)
		}
		b.SetAttribute(nameVer, s.cfg.version())
		b.SetAttribute(nameWait, strconv.Itoa(s.cfg.wait()))
		b.SetAttribute(nameHold, strconv.Itoa(s.cfg.hold()))
		if s.cfg.Route != "" {
			b.SetAttribute(nameRoute, s.cfg.Route)
		}
		if s.cfg.From != "" {
			b.SetAttribute(nameFrom, s.cfg.From)
		}
		if s.cfg.RequestAcks {
			b.SetAttribute(nameAck, "1")
		}
		b.RemoveAttribute(nameSID)
	} else {
		b.SetAttribute(nameSID, s.params.SID)
		b.RemoveAttribute(nameTo)
		b.RemoveAttribute(nameLang)
		b.RemoveAttribute(nameVer)
		b.RemoveAttribute(nameWait)
		b.RemoveAttribute(nameHold)
		b.RemoveAttribute(nameRoute)
		b.RemoveAttribute(nameFrom)
		if s.params.AckFlag {
			if ackVal, ok := s.ack.ackAttr(ridVal); ok {
				b.SetAttribute(nameAck, ackVal)
			} else {
				b.RemoveAttribute(nameAck)
			}
		} else {
			b.RemoveAttribute(nameAck)
		}
	}

	built, _ := b.Build()
	return built
}

func (s *Session) spawnWorkersLocked(target int) {
	if target < 1 {
		target = 1
	}
	for s.activeWorkers < target {
		s.activeWorkers++
		go s.workerLoop()
	}
}

// workerLoop is one processor worker (§4.4): it claims unassigned
// exchanges FIFO, awaits each one's deferred response with the lock
// released, and integrates the result. It exits once the session disposes.
func (s *Session) workerLoop() {
	for {
		s.mu.Lock()
		var ex *exchange
		for {
			if s.disposed {
				s.mu.Unlock()
				return
			}
			ex = s.claimUnclaimedLocked()
			if ex != nil {
				break
			}
			s.notEmpty.Wait()
		}
		ctx := s.ctx
		s.mu.Unlock()

		status, err := ex.resp.StatusCode(ctx)
		var respBody Elem
		if err == nil {
			respBody, err = ex.resp.Body(ctx)
		}
		if err != nil {
			s.dispose(&TransportError{Err: err})
			return
		}

		s.listeners.dispatchResponse(respBody)

		s.mu.Lock()
		resends, established, disposeErr := s.integrateLocked(ex, respBody, status)
		s.mu.Unlock()

		if established {
			s.listeners.dispatchConn(ConnectionEvent{Kind: Established})
		}
		if disposeErr != nil {
			s.dispose(disposeErr)
			return
		}
		for _, r := range resends {
			s.dispatchResend(r)
		}
	}
}

func (s *Session) claimUnclaimedLocked() *exchange {
	for _, ex := range s.queue {
		if !ex.claimed && ex.resp != nil {
			ex.claimed = true
			return ex
		}
	}
	return nil
}

// integrateLocked runs step 4 of the processor loop (§4.4): it establishes
// Params on the first response, checks the terminal binding condition,
// handles a recoverable binding error by queuing a retransmission of every
// currently queued exchange, and otherwise runs the ack engine.
func (s *Session) integrateLocked(ex *exchange, respBody Elem, statusCode int) (resends []*exchange, established bool, disposeErr error) {
	ex.state = exchangeResponded

	if s.params == nil {
		params, err := ParamsFromInit(ex.body, respBody)
		if err != nil {
			s.removeExchangeLocked(ex)
			return nil, false, err
		}
		s.params = params
		s.spawnWorkersLocked(params.maxRequests())
		established = true
		if s.state == stateConnecting {
			s.state = stateEstablished
		}
	}

	if term := s.terminalConditionLocked(respBody, statusCode); term != nil {
		s.removeExchangeLocked(ex)
		return nil, established, term
	}

	if isErrorType(respBody) {
		resends = s.requeueAllLocked()
		s.removeExchangeLocked(ex)
		return resends, established, nil
	}

	resendEx, err := s.integrateAckLocked(ex, respBody)
	s.removeExchangeLocked(ex)
	if err != nil {
		return nil, established, err
	}
	if resendEx != nil {
		resends = append(resends, resendEx)
	}
	return resends, established, nil
}

// terminalConditionLocked implements §4.4's terminal binding condition
// check: an explicit type=terminate response is always terminal; absent
// that, a legacy connection manager (one that never advertised `ver`)
// signals termination through an HTTP status of 400/403/404 (or any other
// non-200 status, mapped to an undefined condition); a non-legacy
// connection manager's non-200 status is not terminal on its own.
func (s *Session) terminalConditionLocked(resp Elem, statusCode int) *TerminalError {
	if isTerminate(resp) {
		cond, _ := resp.Attribute(nameCondition)
		return &TerminalError{Condition: Condition(cond)}
	}
	if s.params != nil && !s.params.VersionSet && statusCode != 0 && statusCode != 200 {
		if cond, ok := legacyCondition(statusCode); ok {
			return &TerminalError{Condition: cond, Legacy: true}
		}
		return &TerminalError{Condition: ConditionUndefinedCondition, Legacy: true}
	}
	return nil
}

func legacyCondition(status int) (Condition, bool) {
	switch status {
	case 400:
		return ConditionBadRequest, true
	case 403:
		return ConditionPolicyViolation, true
	case 404:
		return ConditionItemNotFound, true
	}
	return "", false
}

// requeueAllLocked duplicates every exchange currently in the queue (the
// recoverable-binding-error path of §4.4): each duplicate carries the same
// request body as its original but a fresh, unclaimed deferred-response
// slot, and is appended to the queue for retransmission.
func (s *Session) requeueAllLocked() []*exchange {
	snapshot := append([]*exchange(nil), s.queue...)
	dups := make([]*exchange, 0, len(snapshot))
	for _, orig := range snapshot {
		dup := newExchange(orig.body)
		s.queue = append(s.queue, dup)
		if s.params.AckFlag {
			s.ack.recordRequest(dup)
		}
		dups = append(dups, dup)
	}
	return dups
}

// integrateAckLocked runs the ack engine (§4.5) for one successfully
// integrated response: it advances pendingRequestAcks on the CM's ack (or
// the implicit ack equal to the responded RID), advances responseAck, and
// handles an ack report by locating and replaying the named request.
func (s *Session) integrateAckLocked(ex *exchange, resp Elem) (*exchange, error) {
	_, hasReport := resp.Attribute(nameReport)
	if s.params.AckFlag && !hasReport {
		ackUpTo := ridOf(ex)
		if v, ok := resp.Attribute(nameAck); ok {
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				ackUpTo = n
			}
		}
		s.ack.ackRequests(ackUpTo)
	}

	s.ack.recordResponse(ridOf(ex))

	if reportStr, ok := resp.Attribute(nameReport); ok {
		k, err := strconv.ParseUint(reportStr, 10, 64)
		if err != nil {
			return nil, ErrAckReportUnresolved
		}
		found := s.ack.findPending(k)
		if found == nil {
			return nil, ErrAckReportUnresolved
		}
		dup := newExchange(found.body)
		s.queue = append(s.queue, dup)
		s.ack.recordRequest(dup)
		return dup, nil
	}
	return nil, nil
}

// removeExchangeLocked removes ex from the queue. If the queue becomes
// empty, it schedules the empty-request timer (§4.4) and wakes any Drain
// waiters.
func (s *Session) removeExchangeLocked(ex *exchange) {
	for i, e := range s.queue {
		if e == ex {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	ex.state = exchangeRemoved
	s.notFull.Signal()

	if len(s.queue) == 0 {
		pauseStr, hasPause := ex.body.Attribute(namePause)
		pauseSeconds := 0
		if hasPause {
			pauseSeconds, _ = strconv.Atoi(pauseStr)
		}
		s.cancelEmptyTimerLocked()
		if !s.disposed {
			s.scheduleEmptyTimerLocked(pauseSeconds, hasPause)
		}
		s.drained.Broadcast()
	}
}

// scheduleEmptyTimerLocked computes the delay before the next empty
// keep-alive request and schedules it (§4.4). A pause just granted by the
// client takes priority; failing that, polling mode (a single-request
// session with `polling` set) paces empty requests at the advertised
// interval; otherwise the configured default delay applies.
func (s *Session) scheduleEmptyTimerLocked(pauseSeconds int, pauseSet bool) {
	var d time.Duration
	switch {
	case pauseSet:
		d = time.Duration(pauseSeconds)*time.Second - s.cfg.pauseMargin()
		if min := s.cfg.emptyRequestDelay(); d < min {
			d = min
		}
	case s.params != nil && s.params.maxRequests() <= 1 && s.params.PollingSet:
		d = time.Duration(s.params.Polling) * time.Second
	default:
		d = s.cfg.emptyRequestDelay()
	}

	s.emptyScheduled = true
	s.emptyTimer = time.AfterFunc(d, func() {
		s.mu.Lock()
		s.emptyScheduled = false
		disposed := s.disposed
		s.drained.Broadcast()
		s.mu.Unlock()
		if disposed {
			return
		}
		_ = s.Send(emptyBody())
	})
}

func (s *Session) cancelEmptyTimerLocked() {
	if s.emptyTimer != nil {
		s.emptyTimer.Stop()
		s.emptyTimer = nil
	}
	s.emptyScheduled = false
}

// dispatchResend dispatches a duplicate exchange created by the
// retransmission or ack-report-replay paths. Unlike Send, it performs no
// admission check or RID assignment: the duplicate already carries the
// exact wire bytes of the original request.
func (s *Session) dispatchResend(ex *exchange) {
	s.mu.Lock()
	sp := s.senderParamsLocked()
	ctx := s.ctx
	s.mu.Unlock()

	s.listeners.dispatchRequest(ex.body)
	resp, err := s.sender.Send(ctx, sp, ex.body)
	if err != nil {
		s.dispose(&TransportError{Err: err})
		return
	}

	s.mu.Lock()
	ex.resp = resp
	ex.state = exchangeDispatched
	s.notEmpty.Signal()
	s.mu.Unlock()
}

// dispose tears the session down: it marks it Closed, cancels the
// empty-request timer and the shared context (unblocking any in-flight
// deferred-response waits), wakes every waiter, and fires exactly one
// connection-closed event. Calling dispose more than once is a no-op.
func (s *Session) dispose(cause error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.state = stateClosed
	s.cancelEmptyTimerLocked()
	s.notEmpty.Broadcast()
	s.notFull.Broadcast()
	s.drained.Broadcast()
	s.mu.Unlock()

	s.cancel()

	kind := ClosedNormally
	var evErr error
	switch c := cause.(type) {
	case nil:
	case *TerminalError:
		if c.Condition != "" {
			kind, evErr = ClosedOnError, c
		}
	default:
		if cause != ErrExplicitClose {
			kind, evErr = ClosedOnError, cause
		}
	}
	s.listeners.dispatchConn(ConnectionEvent{Kind: kind, Err: evErr})
}

func isTerminate(body Elem) bool {
	v, ok := body.Attribute(nameType)
	return ok && v == "terminate"
}

func isErrorType(body Elem) bool {
	v, ok := body.Attribute(nameType)
	return ok && v == "error"
}

func emptyBody() *Body {
	b, _ := NewBuilder().Build()
	return b
}
