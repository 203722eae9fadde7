package domain

import "time"

// SessionStatus names the state of the resolution workflow.
type SessionStatus string

const (
	SessionClosed   SessionStatus = "closed"
	SessionOpen     SessionStatus = "open"
	SessionResolved SessionStatus = "resolved"
)

// Session is the input an operator builds up while resolving one alert.
type Session struct {
	ID               string
	Alert            Alert
	Event            EventRecord // snapshot taken when the session was opened
	SelectedAssignee *Staff
	Notes            string
	OpenedAt         time.Time
}

// SessionState is one of ClosedState, OpenState or ResolvedState.
type SessionState interface {
	Status() SessionStatus
	isSessionState()
}

// ClosedState means no session is active. Notice carries a dismissible message
// when the previous session was force-closed.
type ClosedState struct {
	Notice string
}

// OpenState is an active session awaiting operator input or a pending write.
type OpenState struct {
	Session    Session
	Err        string // last persistence failure, shown inline
	Submitting bool
}

// ResolvedState is a session whose write was acknowledged by the event store.
type ResolvedState struct {
	Session    Session
	Outcome    Outcome
	ResolvedAt time.Time
}

func (ClosedState) Status() SessionStatus   { return SessionClosed }
func (OpenState) Status() SessionStatus     { return SessionOpen }
func (ResolvedState) Status() SessionStatus { return SessionResolved }

func (ClosedState) isSessionState()   {}
func (OpenState) isSessionState()     {}
func (ResolvedState) isSessionState() {}
