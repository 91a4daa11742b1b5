// Package session owns the per-attempt state machine: it sequences the
// recognition and liveness gates, enforces timeouts, drives retries, and hands
// verified outcomes to the attendance ledger.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"facegate/internal/audit"
	"facegate/internal/decision"
	"facegate/internal/ledger"
	"facegate/internal/liveness"
	"facegate/internal/platform/config"
	"facegate/internal/recognition"
	"facegate/internal/session/metrics"
	"facegate/internal/session/models"
	"facegate/internal/session/store"
	id "facegate/pkg/domain"
	dErrors "facegate/pkg/domain-errors"
)

// Manager drives sessions through the pipeline. Frames for one session are
// serialized by a per-session lock; sessions are independent units of work.
type Manager struct {
	store   store.Store
	gate    *recognition.Gate
	ledger  *ledger.Ledger
	retries *RetryController
	audit   *audit.Publisher
	metrics *metrics.Metrics
	cfg     config.Pipeline
	loc     *time.Location
	log     *log.Logger
	tracer  trace.Tracer
	now     func() time.Time

	mu    sync.Mutex
	locks map[id.SessionID]*sync.Mutex
}

func NewManager(
	st store.Store,
	gate *recognition.Gate,
	led *ledger.Ledger,
	publisher *audit.Publisher,
	m *metrics.Metrics,
	cfg config.Pipeline,
	loc *time.Location,
	logger *log.Logger,
) *Manager {
	return &Manager{
		locks:   make(map[id.SessionID]*sync.Mutex),
		store:   st,
		gate:    gate,
		ledger:  led,
		retries: NewRetryController(cfg.RetryLimit),
		audit:   publisher,
		metrics: m,
		cfg:     cfg,
		loc:     loc,
		log:     logger,
		tracer:  otel.Tracer("facegate/session"),
		now:     time.Now,
	}
}

// Open creates a fresh session in Idle. The deadline covers the whole attempt.
// device is a free-form capture device description for the audit trail.
func (m *Manager) Open(ctx context.Context, device string) (*models.Session, error) {
	now := m.now()
	session := &models.Session{
		ID:        id.NewSessionID(),
		State:     models.StateIdle,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.SessionTimeout),
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create session", err)
	}
	m.metrics.SessionsOpened.Inc()
	m.audit.Emit(audit.Event{
		Action:    audit.ActionSessionOpened,
		SessionID: session.ID,
		ToState:   string(session.State),
		Device:    device,
	})
	return session, nil
}

// Get returns the session, applying the lazy expiry check on access.
func (m *Manager) Get(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	m.expireIfDue(ctx, session)
	return session, nil
}

// SubmitRecognition feeds one embedding through the recognition gate.
//
// Valid only in Idle/AwaitingRecognition. A malformed embedding is rejected
// without a state change. A confident match stores the candidate and opens the
// liveness phase; a miss consumes a retry, and exhausting the budget ends the
// session as UnknownUser.
func (m *Manager) SubmitRecognition(ctx context.Context, sessionID id.SessionID, emb recognition.Embedding) (*models.Session, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if m.expireIfDue(ctx, session) {
		return session, dErrors.New(dErrors.CodeInvalidState, "session expired")
	}
	if session.State != models.StateIdle && session.State != models.StateAwaitingRecognition {
		return session, dErrors.New(dErrors.CodeInvalidState,
			"recognition frames are only accepted before liveness capture")
	}

	result, err := m.gate.Match(ctx, emb)
	if err != nil {
		// Malformed input is the caller's error; session state is untouched.
		return session, err
	}

	now := m.now()
	session.LastFrameAt = now
	if session.State == models.StateIdle {
		m.transition(session, models.StateAwaitingRecognition, "")
	}

	if result.Matched {
		session.Candidate = &models.Candidate{
			UserID:      result.Candidate.UserID,
			DisplayName: result.Candidate.DisplayName,
			Confidence:  result.Candidate.Confidence,
		}
		session.LivenessOpenedAt = now
		m.transition(session, models.StateAwaitingLiveness, "")
	} else {
		session.Attempts++
		m.metrics.RecognitionRetries.Inc()
		if m.retries.Exhausted(session.Attempts) {
			session.Outcome = decision.OutcomeUnknownUser
			session.Message = "no enrolled identity matched within the retry limit"
			m.transition(session, models.StateUnknownUser, session.Message)
			m.metrics.Outcomes.WithLabelValues(string(session.Outcome)).Inc()
		}
	}

	if err := m.store.Update(ctx, session); err != nil {
		return session, dErrors.Wrap(dErrors.CodeInternal, "update session", err)
	}
	return session, nil
}

// SubmitLiveness feeds one liveness frame. Valid only in AwaitingLiveness.
// The session moves to Deciding when the blink target is met or the liveness
// window has elapsed, and the decision runs immediately.
func (m *Manager) SubmitLiveness(ctx context.Context, sessionID id.SessionID, frame liveness.Frame) (*models.Session, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if m.expireIfDue(ctx, session) {
		return session, dErrors.New(dErrors.CodeInvalidState, "session expired")
	}
	if session.State != models.StateAwaitingLiveness {
		return session, dErrors.New(dErrors.CodeInvalidState,
			"liveness frames are only accepted after a recognition match")
	}

	now := m.now()
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = now
	}

	gate := liveness.Restore(m.cfg.MinBlinks, m.cfg.LivenessWindow, session.LivenessOpenedAt, session.Liveness)
	session.Liveness = gate.Observe(frame)
	session.LastFrameAt = now

	if gate.Satisfied() || gate.WindowClosed(now) {
		m.transition(session, models.StateDeciding, "")
		m.decide(ctx, session, gate.Verdict(now))
	}

	if err := m.store.Update(ctx, session); err != nil {
		return session, dErrors.Wrap(dErrors.CodeInternal, "update session", err)
	}
	return session, nil
}

// Cancel forces a non-terminal session to Expired immediately.
func (m *Manager) Cancel(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State.Terminal() {
		return session, dErrors.New(dErrors.CodeInvalidState, "session already finished")
	}
	m.expire(session, "cancelled by caller")
	if err := m.store.Update(ctx, session); err != nil {
		return session, dErrors.Wrap(dErrors.CodeInternal, "update session", err)
	}
	return session, nil
}

// RetriesRemaining reports how many recognition submissions the session has
// left before it terminates as UnknownUser.
func (m *Manager) RetriesRemaining(session *models.Session) int {
	return m.retries.Remaining(session.Attempts)
}

// SweepExpired expires every overdue non-terminal session. Called by the
// background sweeper; the lazy check on access covers sessions touched
// in between sweeps.
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	sessions, err := m.store.ListNonTerminal(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, stale := range sessions {
		lock := m.sessionLock(stale.ID)
		lock.Lock()
		// Reload under the lock; a frame may have finished the session since.
		session, err := m.load(ctx, stale.ID)
		if err != nil {
			lock.Unlock()
			continue
		}
		if m.expireIfDue(ctx, session) {
			expired++
		}
		lock.Unlock()
	}
	return expired, nil
}

// ListUnpersisted returns sessions that decided Verified but could not write
// their attendance record, for operator reconciliation.
func (m *Manager) ListUnpersisted(ctx context.Context) ([]*models.Session, error) {
	return m.store.ListUnpersisted(ctx)
}

// decide runs the decision matrix exactly once and applies the terminal state.
func (m *Manager) decide(ctx context.Context, session *models.Session, livelinessVerdict liveness.Verdict) {
	ctx, span := m.tracer.Start(ctx, "session.decide",
		trace.WithAttributes(attribute.String("session.id", session.ID.String())))
	defer span.End()

	recVerdict := decision.RecognitionNoMatch
	if session.Candidate != nil {
		recVerdict = decision.RecognitionMatched
	}
	livVerdict := mapLivenessVerdict(livelinessVerdict)

	outcome := decision.Decide(recVerdict, livVerdict)
	session.Outcome = outcome
	span.SetAttributes(attribute.String("session.outcome", string(outcome)))

	switch outcome {
	case decision.OutcomeVerified:
		m.recordAttendance(ctx, session)
	case decision.OutcomeSuspicious:
		session.Message = "identity matched but liveness was not confirmed"
	case decision.OutcomeUnknownUser:
		session.Message = "live person did not match any enrolled identity"
	case decision.OutcomeInvalid:
		session.Message = "neither identity nor liveness confirmed"
	}

	m.transition(session, models.StateForOutcome(outcome), session.Message)
	m.metrics.Outcomes.WithLabelValues(string(outcome)).Inc()
}

// recordAttendance performs the guarded ledger write for a verified session.
// A duplicate is an expected outcome; a storage failure must never silently
// drop the verified decision, so the session is flagged for reconciliation.
func (m *Manager) recordAttendance(ctx context.Context, session *models.Session) {
	now := m.now()
	rec := ledger.Record{
		UserID:           session.Candidate.UserID,
		Day:              ledger.DayOf(now, m.loc),
		Time:             now,
		Confidence:       session.Candidate.Confidence,
		LivenessVerified: true,
		SessionID:        session.ID,
	}

	switch m.ledger.Record(ctx, rec) {
	case ledger.ResultOk:
		session.Message = "attendance recorded"
		m.audit.Emit(audit.Event{
			Action:    audit.ActionAttendanceRecorded,
			SessionID: session.ID,
			UserID:    rec.UserID,
			Outcome:   string(decision.OutcomeVerified),
		})
	case ledger.ResultDuplicateRejected:
		session.Message = "attendance already recorded today"
		m.audit.Emit(audit.Event{
			Action:    audit.ActionAttendanceDuplicate,
			SessionID: session.ID,
			UserID:    rec.UserID,
		})
	case ledger.ResultStorageFailure:
		session.Unpersisted = true
		session.Message = "verified, but the attendance record could not be persisted"
		m.metrics.UnpersistedOutcomes.Inc()
		m.log.Printf("session %s verified for user %s but attendance write failed; needs reconciliation",
			session.ID, rec.UserID)
		m.audit.Emit(audit.Event{
			Action:    audit.ActionAttendanceUnpersisted,
			SessionID: session.ID,
			UserID:    rec.UserID,
			Reason:    "storage failure",
		})
	}
}

// transition applies a legal state change and emits the observable event.
func (m *Manager) transition(session *models.Session, to models.State, reason string) {
	from := session.State
	if !models.CanTransition(from, to) {
		// A blocked edge is a programming error in the manager itself.
		m.log.Printf("session %s: illegal transition %s -> %s dropped", session.ID, from, to)
		return
	}
	session.State = to
	m.audit.Emit(audit.Event{
		Action:    audit.ActionSessionTransition,
		SessionID: session.ID,
		FromState: string(from),
		ToState:   string(to),
		Reason:    reason,
	})
}

// expireIfDue applies the lazy expiry check. Returns true when the session is
// overdue and was moved to Expired (and persisted).
func (m *Manager) expireIfDue(ctx context.Context, session *models.Session) bool {
	if session.State.Terminal() || !session.ExpiredAt(m.now()) {
		return false
	}
	m.expire(session, "session deadline passed")
	if err := m.store.Update(ctx, session); err != nil {
		m.log.Printf("session %s: persisting expiry failed: %v", session.ID, err)
	}
	return true
}

func (m *Manager) expire(session *models.Session, reason string) {
	m.transition(session, models.StateExpired, reason)
	session.Message = reason
	m.metrics.SessionsExpired.Inc()
	m.audit.Emit(audit.Event{
		Action:    audit.ActionSessionExpired,
		SessionID: session.ID,
		Reason:    reason,
	})
}

func (m *Manager) load(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := m.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeNotFound, "session not found", err)
	}
	return session, nil
}

// sessionLock serializes frame processing per session. Blink and attempt
// counting are order-sensitive accumulations, so concurrent submissions for
// the same session are serialized rather than rejected.
func (m *Manager) sessionLock(sessionID id.SessionID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	return lock
}

func mapLivenessVerdict(v liveness.Verdict) decision.LivenessVerdict {
	switch v {
	case liveness.VerdictLive:
		return decision.LivenessLive
	case liveness.VerdictInconclusive:
		return decision.LivenessInconclusive
	default:
		return decision.LivenessNotLive
	}
}
