package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/opschief/internal/alerts"
	"github.com/mtlprog/opschief/internal/domain"
)

// Default session timings.
const (
	DefaultAutoDismissDelay = 1500 * time.Millisecond
	DefaultWriteTimeout     = 10 * time.Second
)

// StaleNotice is shown after a session is force-closed because its event disappeared.
const StaleNotice = "The event for this alert no longer exists. The session was closed."

// EventStore is the system of record for event records.
type EventStore interface {
	ListEvents(ctx context.Context) ([]domain.EventRecord, error)
	UpdateFields(ctx context.Context, eventID string, patch domain.FieldPatch) error
}

// StaffDirectory lists the people a pickup can be assigned to.
type StaffDirectory interface {
	ListAssignableStaff(ctx context.Context) ([]domain.Staff, error)
}

// ResolutionLog records submitted resolutions for audit.
type ResolutionLog interface {
	Record(ctx context.Context, r *domain.Resolution) error
}

// Observer is notified about session lifecycle events.
type Observer interface {
	SessionOpened(rule domain.RuleID)
	ResolutionSubmitted(rule domain.RuleID, outcome domain.OutcomeKind)
	SessionForceClosed(rule domain.RuleID)
}

// ManagerConfig holds the session timings.
type ManagerConfig struct {
	AutoDismissDelay time.Duration
	WriteTimeout     time.Duration
}

// SubmitRequest carries the operator's final input for a resolution.
type SubmitRequest struct {
	SessionID  string // optional; rejects the submit if another session replaced it
	Action     domain.Action
	AssigneeID string // falls back to the session's selected assignee
	Notes      string // replaces the session notes when non-empty
	ResolvedBy *string
}

// SessionView is the session state plus what the operator may do next.
type SessionView struct {
	State         domain.SessionState
	Actions       []domain.Action
	SubmitEnabled bool
}

// Manager drives the single active resolution session.
// The mutex guards state only and is never held across store calls.
type Manager struct {
	events      EventStore
	resolutions ResolutionLog
	observer    Observer
	validator   *Validator

	autoDismiss  time.Duration
	writeTimeout time.Duration
	now          func() time.Time

	mu    sync.Mutex
	state domain.SessionState
	timer *time.Timer
}

// NewManager creates a new Manager. resolutions may be nil to disable auditing.
func NewManager(events EventStore, staff StaffDirectory, resolutions ResolutionLog, cfg ManagerConfig) *Manager {
	if cfg.AutoDismissDelay <= 0 {
		cfg.AutoDismissDelay = DefaultAutoDismissDelay
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	return &Manager{
		events:       events,
		resolutions:  resolutions,
		validator:    NewValidator(staff),
		autoDismiss:  cfg.AutoDismissDelay,
		writeTimeout: cfg.WriteTimeout,
		now:          time.Now,
		state:        domain.ClosedState{},
	}
}

// SetObserver attaches an observer for session metrics.
func (m *Manager) SetObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = o
}

// State returns the current session state.
func (m *Manager) State() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// View returns the current state together with the offered actions and
// whether Submit would currently be accepted.
func (m *Manager) View() SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := SessionView{State: m.state}

	open, ok := m.state.(domain.OpenState)
	if !ok {
		return view
	}

	view.Actions = alerts.ActionsFor(open.Session.Alert.RuleID)
	if open.Submitting || len(view.Actions) == 0 {
		return view
	}

	view.SubmitEnabled = true
	for _, a := range view.Actions {
		if a.RequiresAssignee() && open.Session.SelectedAssignee == nil {
			view.SubmitEnabled = false
		}
	}

	return view
}

// Open starts a session for alert against the event snapshot. Any session
// already open or resolved is replaced.
func (m *Manager) Open(alert domain.Alert, event domain.EventRecord) (domain.Session, error) {
	if alert.EventID != event.ID {
		return domain.Session{}, fmt.Errorf("%w: alert %s belongs to event %s, not %s",
			domain.ErrAlertNotFound, alert.RuleID, alert.EventID, event.ID)
	}

	session := domain.Session{
		ID:       uuid.New().String(),
		Alert:    alert,
		Event:    event,
		OpenedAt: m.now(),
	}

	m.mu.Lock()
	if open, ok := m.state.(domain.OpenState); ok && open.Submitting {
		slog.Info("replacing session with a write in flight",
			"session_id", open.Session.ID,
			"event_id", open.Session.Alert.EventID,
		)
	}
	m.stopTimerLocked()
	m.state = domain.OpenState{Session: session}
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer.SessionOpened(alert.RuleID)
	}

	slog.Debug("session opened",
		"session_id", session.ID,
		"rule_id", alert.RuleID,
		"event_id", alert.EventID,
	)

	return session, nil
}

// SelectAssignee records the staff member chosen for a pickup alert.
func (m *Manager) SelectAssignee(ctx context.Context, staffID string) (domain.Session, error) {
	open, err := m.openSession()
	if err != nil {
		return domain.Session{}, err
	}

	if err := m.validator.CanAssign(&open.Session); err != nil {
		return domain.Session{}, err
	}

	staff, err := m.validator.ResolveAssignee(ctx, staffID)
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			m.showError(open.Session.ID, err)
		}
		return domain.Session{}, err
	}

	var updated domain.Session
	err = m.updateOpen(open.Session.ID, func(s *domain.OpenState) error {
		s.Session.SelectedAssignee = staff
		s.Err = ""
		updated = s.Session
		return nil
	})
	return updated, err
}

// SetNotes replaces the free-text notes of the open session.
func (m *Manager) SetNotes(notes string) (domain.Session, error) {
	open, err := m.openSession()
	if err != nil {
		return domain.Session{}, err
	}

	var updated domain.Session
	err = m.updateOpen(open.Session.ID, func(s *domain.OpenState) error {
		s.Session.Notes = notes
		updated = s.Session
		return nil
	})
	return updated, err
}

// Submit resolves the open session's alert with action. On success the
// session moves to resolved and is dismissed automatically after the
// configured delay. A failed write leaves the session open with the error
// attached so the operator can retry.
func (m *Manager) Submit(ctx context.Context, req SubmitRequest) (domain.Outcome, error) {
	session, err := m.beginSubmit(req)
	if err != nil {
		return domain.Outcome{}, err
	}

	var assignee *domain.Staff
	if req.Action.RequiresAssignee() {
		assigneeID := req.AssigneeID
		if assigneeID == "" && session.SelectedAssignee != nil {
			assigneeID = session.SelectedAssignee.ID
		}

		assignee, err = m.validator.ResolveAssignee(ctx, assigneeID)
		if err != nil {
			errMsg := ""
			if errors.Is(err, domain.ErrPersistence) {
				errMsg = err.Error()
			}
			m.abortSubmit(session.ID, errMsg, err)
			return domain.Outcome{}, err
		}
		session.SelectedAssignee = assignee
	}

	// Re-read so the patch is built against the latest record.
	latest, err := m.findEvent(ctx, session.Alert.EventID)
	if errors.Is(err, domain.ErrEventNotFound) {
		m.forceClose(session)
		return domain.Outcome{}, fmt.Errorf("%w: %s", domain.ErrStaleReference, session.Alert.EventID)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		m.abortSubmit(session.ID, err.Error(), err)
		return domain.Outcome{}, err
	}

	patch := BuildPatch(session.Alert.RuleID, latest)
	outcome := OutcomeFor(session.Alert.RuleID, assignee)

	// The write is detached from the caller so a cancelled session does not
	// abandon a half-sent update.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.writeTimeout)
	defer cancel()

	var writeErr error
	if !patch.IsEmpty() {
		writeErr = m.events.UpdateFields(writeCtx, latest.ID, patch)
	}

	m.record(writeCtx, session, req, patch, outcome, writeErr)

	if errors.Is(writeErr, domain.ErrEventNotFound) {
		// Deleted between the re-read and the write.
		m.forceClose(session)
		return domain.Outcome{}, fmt.Errorf("%w: %s", domain.ErrStaleReference, session.Alert.EventID)
	}
	if writeErr != nil {
		err = fmt.Errorf("%w: %w", domain.ErrPersistence, writeErr)
		m.abortSubmit(session.ID, err.Error(), err)
		return domain.Outcome{}, err
	}

	m.completeSubmit(session, outcome)

	return outcome, nil
}

// Cancel closes the current session. A write already in flight still
// completes but its result is discarded.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if open, ok := m.state.(domain.OpenState); ok && open.Submitting {
		slog.Info("session cancelled with a write in flight",
			"session_id", open.Session.ID,
			"event_id", open.Session.Alert.EventID,
		)
	}

	m.stopTimerLocked()
	if _, ok := m.state.(domain.ClosedState); !ok {
		m.state = domain.ClosedState{}
	}
}

// DismissNotice clears the notice left by a force-closed session.
func (m *Manager) DismissNotice() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.(domain.ClosedState); ok {
		m.state = domain.ClosedState{}
	}
}

// Close stops the auto-dismiss timer.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
}

func (m *Manager) openSession() (domain.OpenState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	open, ok := m.state.(domain.OpenState)
	if !ok {
		return domain.OpenState{}, domain.ErrNoOpenSession
	}
	if open.Submitting {
		return domain.OpenState{}, domain.ErrSubmitInProgress
	}
	return open, nil
}

// updateOpen applies fn to the open session if it is still sessionID.
func (m *Manager) updateOpen(sessionID string, fn func(s *domain.OpenState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	open, ok := m.state.(domain.OpenState)
	if !ok || open.Session.ID != sessionID {
		return domain.ErrNoOpenSession
	}
	if open.Submitting {
		return domain.ErrSubmitInProgress
	}

	if err := fn(&open); err != nil {
		return err
	}
	m.state = open
	return nil
}

// showError attaches a collaborator failure to the open session without
// changing anything else.
func (m *Manager) showError(sessionID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	open, ok := m.state.(domain.OpenState)
	if !ok || open.Session.ID != sessionID || open.Submitting {
		return
	}
	open.Err = err.Error()
	m.state = open
}

func (m *Manager) beginSubmit(req SubmitRequest) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	open, ok := m.state.(domain.OpenState)
	if !ok {
		return domain.Session{}, domain.ErrNoOpenSession
	}
	if req.SessionID != "" && req.SessionID != open.Session.ID {
		return domain.Session{}, fmt.Errorf("%w: session %s was replaced", domain.ErrNoOpenSession, req.SessionID)
	}
	if open.Submitting {
		return domain.Session{}, domain.ErrSubmitInProgress
	}

	if err := m.validator.CanSubmit(&open.Session, req.Action); err != nil {
		return domain.Session{}, err
	}

	if req.Action.RequiresAssignee() && req.AssigneeID == "" && open.Session.SelectedAssignee == nil {
		return domain.Session{}, domain.ErrAssigneeRequired
	}

	if req.Notes != "" {
		open.Session.Notes = req.Notes
	}
	open.Submitting = true
	open.Err = ""
	m.state = open

	return open.Session, nil
}

// abortSubmit returns the session to editable. errMsg is shown inline when set.
func (m *Manager) abortSubmit(sessionID, errMsg string, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	open, ok := m.state.(domain.OpenState)
	if !ok || open.Session.ID != sessionID {
		slog.Info("discarding submit result for a replaced session",
			"session_id", sessionID,
			"error", cause,
		)
		return
	}

	open.Submitting = false
	open.Err = errMsg
	m.state = open
}

func (m *Manager) completeSubmit(session domain.Session, outcome domain.Outcome) {
	m.mu.Lock()

	open, ok := m.state.(domain.OpenState)
	if !ok || open.Session.ID != session.ID {
		m.mu.Unlock()
		slog.Info("write completed for a replaced session",
			"session_id", session.ID,
			"event_id", session.Alert.EventID,
			"outcome", outcome.String(),
		)
		return
	}

	m.stopTimerLocked()
	m.state = domain.ResolvedState{
		Session:    session,
		Outcome:    outcome,
		ResolvedAt: m.now(),
	}
	m.timer = time.AfterFunc(m.autoDismiss, func() {
		m.autoDismissed(session.ID)
	})
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer.ResolutionSubmitted(session.Alert.RuleID, outcome.Kind)
	}

	slog.Info("alert resolved",
		"session_id", session.ID,
		"rule_id", session.Alert.RuleID,
		"event_id", session.Alert.EventID,
		"outcome", outcome.String(),
	)
}

func (m *Manager) autoDismissed(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resolved, ok := m.state.(domain.ResolvedState)
	if !ok || resolved.Session.ID != sessionID {
		return
	}
	m.state = domain.ClosedState{}
	m.timer = nil
}

func (m *Manager) forceClose(session domain.Session) {
	m.mu.Lock()

	open, ok := m.state.(domain.OpenState)
	if !ok || open.Session.ID != session.ID {
		m.mu.Unlock()
		return
	}
	m.stopTimerLocked()
	m.state = domain.ClosedState{Notice: StaleNotice}
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer.SessionForceClosed(session.Alert.RuleID)
	}

	slog.Warn("session force-closed, event no longer exists",
		"session_id", session.ID,
		"event_id", session.Alert.EventID,
	)
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) findEvent(ctx context.Context, eventID string) (*domain.EventRecord, error) {
	events, err := m.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	for i := range events {
		if events[i].ID == eventID {
			return &events[i], nil
		}
	}

	return nil, domain.ErrEventNotFound
}

// record appends the attempt to the resolution log. Failures are logged only.
func (m *Manager) record(
	ctx context.Context,
	session domain.Session,
	req SubmitRequest,
	patch domain.FieldPatch,
	outcome domain.Outcome,
	writeErr error,
) {
	if m.resolutions == nil {
		return
	}

	r := &domain.Resolution{
		SessionID:  session.ID,
		EventID:    session.Alert.EventID,
		RuleID:     session.Alert.RuleID,
		Action:     req.Action,
		Outcome:    outcome.Kind,
		Notes:      session.Notes,
		Patch:      patch.Fields(),
		ResolvedBy: req.ResolvedBy,
		CreatedAt:  m.now(),
	}
	if session.SelectedAssignee != nil {
		r.AssigneeID = &session.SelectedAssignee.ID
		r.AssigneeName = &session.SelectedAssignee.Name
	}
	if writeErr != nil {
		r.Outcome = domain.OutcomeFailed
		r.Error = writeErr.Error()
	}

	if err := m.resolutions.Record(ctx, r); err != nil {
		slog.Error("failed to record resolution",
			"session_id", session.ID,
			"event_id", session.Alert.EventID,
			"error", err,
		)
	}
}
