package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/opschief/internal/alerts"
	"github.com/mtlprog/opschief/internal/domain"
	"github.com/mtlprog/opschief/internal/repository"
	"github.com/mtlprog/opschief/internal/service"
)

// recordingStore wraps a MemoryStore and lets tests fail or block writes.
type recordingStore struct {
	*repository.MemoryStore

	mu        sync.Mutex
	patches   []domain.FieldPatch
	updateErr error
	started   chan struct{}
	release   chan struct{}
}

func (r *recordingStore) UpdateFields(ctx context.Context, eventID string, patch domain.FieldPatch) error {
	r.mu.Lock()
	r.patches = append(r.patches, patch)
	updateErr, started, release := r.updateErr, r.started, r.release
	r.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}
	if updateErr != nil {
		return updateErr
	}
	return r.MemoryStore.UpdateFields(ctx, eventID, patch)
}

func (r *recordingStore) writes() []domain.FieldPatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.FieldPatch(nil), r.patches...)
}

// flakyStaff wraps a MemoryStore and fails directory reads while err is set.
type flakyStaff struct {
	*repository.MemoryStore
	err error
}

func (f *flakyStaff) ListAssignableStaff(ctx context.Context) ([]domain.Staff, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryStore.ListAssignableStaff(ctx)
}

type countingObserver struct {
	mu          sync.Mutex
	opened      int
	resolved    map[domain.OutcomeKind]int
	forceClosed int
}

func (o *countingObserver) SessionOpened(domain.RuleID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened++
}

func (o *countingObserver) ResolutionSubmitted(_ domain.RuleID, outcome domain.OutcomeKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.resolved == nil {
		o.resolved = map[domain.OutcomeKind]int{}
	}
	o.resolved[outcome]++
}

func (o *countingObserver) SessionForceClosed(domain.RuleID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.forceClosed++
}

// ManagerTestSuite is the test suite for the resolution session Manager.
type ManagerTestSuite struct {
	suite.Suite
	memory   *repository.MemoryStore
	store    *recordingStore
	observer *countingObserver
	manager  *service.Manager
}

const dismissDelay = 30 * time.Millisecond

func days(n int) *int {
	return &n
}

// SetupTest seeds a fresh store before each test.
func (s *ManagerTestSuite) SetupTest() {
	events := []domain.EventRecord{
		{ID: "E1", Name: "Hartley Wedding", DaysUntil: days(10), FoodMustGoHot: true},
		{
			ID:                     "E2",
			Name:                   "Tech Offsite",
			DaysUntil:              days(12),
			SushiRequired:          true,
			DessertPickupRequired:  true,
			DessertPickupConfirmed: true,
		},
		{ID: "E3", Name: "Gala", DaysUntil: days(20), BarInventoryRisk: true},
		{ID: "E4", Name: "Board Lunch", DaysUntil: days(15), KitchenNotes: "Chef needs extra sheet pans"},
	}
	staff := []domain.Staff{
		{ID: "s-marcus", Name: "Marcus T.", Role: "driver", Active: true},
		{ID: "s-ana", Name: "Ana R.", Role: "captain", Active: true},
		{ID: "s-gone", Name: "Former Employee", Role: "driver", Active: false},
	}

	s.memory = repository.NewMemoryStore(events, staff)
	s.store = &recordingStore{MemoryStore: s.memory}
	s.observer = &countingObserver{}
	s.manager = service.NewManager(s.store, s.memory, s.memory, service.ManagerConfig{
		AutoDismissDelay: dismissDelay,
		WriteTimeout:     time.Second,
	})
	s.manager.SetObserver(s.observer)
}

// TearDownTest stops pending timers.
func (s *ManagerTestSuite) TearDownTest() {
	s.manager.Close()
}

// open projects the store and opens a session for rule on eventID.
func (s *ManagerTestSuite) open(rule domain.RuleID, eventID string) domain.Session {
	ctx := context.Background()

	events, err := s.memory.ListEvents(ctx)
	s.Require().NoError(err)

	alert, ok := alerts.Project(events).Find(rule, eventID)
	s.Require().True(ok, "alert %s on %s should be active", rule, eventID)

	event, err := s.memory.GetByID(ctx, eventID)
	s.Require().NoError(err)

	session, err := s.manager.Open(alert, *event)
	s.Require().NoError(err)
	return session
}

func (s *ManagerTestSuite) projection() alerts.Projection {
	events, err := s.memory.ListEvents(context.Background())
	s.Require().NoError(err)
	return alerts.Project(events)
}

func (s *ManagerTestSuite) TestOpen_ReturnsOpenStateWithActions() {
	session := s.open(domain.RuleHotHold, "E1")

	view := s.manager.View()
	open, ok := view.State.(domain.OpenState)
	s.Require().True(ok)
	s.Equal(session.ID, open.Session.ID)
	s.Equal([]domain.Action{domain.ActionConfirm}, view.Actions)
	s.True(view.SubmitEnabled)
	s.Equal(1, s.observer.opened)
}

func (s *ManagerTestSuite) TestOpen_RejectsAlertForAnotherEvent() {
	alert := domain.Alert{RuleID: domain.RuleHotHold, EventID: "E1"}

	_, err := s.manager.Open(alert, domain.EventRecord{ID: "E2"})
	s.ErrorIs(err, domain.ErrAlertNotFound)
	s.Equal(domain.SessionClosed, s.manager.State().Status())
}

func (s *ManagerTestSuite) TestSubmit_ConfirmHotHold() {
	ctx := context.Background()
	s.open(domain.RuleHotHold, "E1")

	outcome, err := s.manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionConfirm})
	s.Require().NoError(err)
	s.Equal(domain.OutcomeConfirmed, outcome.Kind)

	s.Equal([]domain.FieldPatch{{domain.FieldKitchenHotHoldConfirmed: true}}, s.store.writes())

	resolved, ok := s.manager.State().(domain.ResolvedState)
	s.Require().True(ok)
	s.Equal(outcome, resolved.Outcome)

	_, stillActive := s.projection().Find(domain.RuleHotHold, "E1")
	s.False(stillActive, "resolved alert must leave the next projection")

	s.Eventually(func() bool {
		return s.manager.State().Status() == domain.SessionClosed
	}, time.Second, 5*time.Millisecond, "resolved session should auto-dismiss")
}

func (s *ManagerTestSuite) TestSubmit_AssignPickupPatchesOnlyPendingPickups() {
	ctx := context.Background()
	s.open(domain.RulePickup, "E2")

	s.False(s.manager.View().SubmitEnabled, "assign needs an assignee first")

	_, err := s.manager.SelectAssignee(ctx, "s-marcus")
	s.Require().NoError(err)
	s.True(s.manager.View().SubmitEnabled)

	outcome, err := s.manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionAssign})
	s.Require().NoError(err)
	s.Equal("assigned(Marcus T.)", outcome.String())

	s.Equal([]domain.FieldPatch{{domain.FieldSushiPickupConfirmed: true}}, s.store.writes())

	event, err := s.memory.GetByID(ctx, "E2")
	s.Require().NoError(err)
	s.True(bool(event.SushiPickupConfirmed))
	s.True(bool(event.DessertPickupConfirmed))
}

func (s *ManagerTestSuite) TestSubmit_AssigneeFromRequest() {
	ctx := context.Background()
	s.open(domain.RulePickup, "E2")

	outcome, err := s.manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionAssign, AssigneeID: "s-ana"})
	s.Require().NoError(err)
	s.Equal("Ana R.", outcome.AssigneeName)
}

func (s *ManagerTestSuite) TestSubmit_AssignWithoutAssignee() {
	s.open(domain.RulePickup, "E2")

	_, err := s.manager.Submit(context.Background(), service.SubmitRequest{Action: domain.ActionAssign})
	s.ErrorIs(err, domain.ErrAssigneeRequired)
	s.ErrorIs(err, domain.ErrValidation)
	s.Empty(s.store.writes())

	open, ok := s.manager.State().(domain.OpenState)
	s.Require().True(ok)
	s.False(open.Submitting)
}

func (s *ManagerTestSuite) TestSelectAssignee_UnknownOrInactive() {
	ctx := context.Background()
	s.open(domain.RulePickup, "E2")

	_, err := s.manager.SelectAssignee(ctx, "s-nobody")
	s.ErrorIs(err, domain.ErrUnknownAssignee)

	_, err = s.manager.SelectAssignee(ctx, "s-gone")
	s.ErrorIs(err, domain.ErrUnknownAssignee, "inactive staff are not assignable")
}

func (s *ManagerTestSuite) TestSelectAssignee_NotOfferedForConfirmRule() {
	s.open(domain.RuleHotHold, "E1")

	_, err := s.manager.SelectAssignee(context.Background(), "s-marcus")
	s.ErrorIs(err, domain.ErrActionNotAllowed)
}

func (s *ManagerTestSuite) TestSubmit_DisplayOnlyAlert() {
	s.open(domain.RuleBarRisk, "E3")

	view := s.manager.View()
	s.Empty(view.Actions)
	s.False(view.SubmitEnabled)

	_, err := s.manager.Submit(context.Background(), service.SubmitRequest{Action: domain.ActionConfirm})
	s.ErrorIs(err, domain.ErrNoResolutionAction)
	s.Empty(s.store.writes())
}

func (s *ManagerTestSuite) TestSubmit_ActionNotOffered() {
	s.open(domain.RuleHotHold, "E1")

	_, err := s.manager.Submit(context.Background(), service.SubmitRequest{Action: domain.ActionAcknowledge})
	s.ErrorIs(err, domain.ErrActionNotAllowed)

	_, err = s.manager.Submit(context.Background(), service.SubmitRequest{Action: "escalate"})
	s.ErrorIs(err, domain.ErrInvalidAction)
}

func (s *ManagerTestSuite) TestSubmit_AcknowledgeKitchenNotes() {
	s.open(domain.RuleKitchenNotes, "E4")

	_, err := s.manager.SetNotes("talked to chef")
	s.Require().NoError(err)

	outcome, err := s.manager.Submit(context.Background(), service.SubmitRequest{Action: domain.ActionAcknowledge})
	s.Require().NoError(err)
	s.Equal(domain.OutcomeAcknowledged, outcome.Kind)

	resolved := s.manager.State().(domain.ResolvedState)
	s.Equal("talked to chef", resolved.Session.Notes)
}

func (s *ManagerTestSuite) TestSubmit_NoOpenSession() {
	_, err := s.manager.Submit(context.Background(), service.SubmitRequest{Action: domain.ActionConfirm})
	s.ErrorIs(err, domain.ErrNoOpenSession)

	_, err = s.manager.SetNotes("x")
	s.ErrorIs(err, domain.ErrNoOpenSession)
}

func (s *ManagerTestSuite) TestSubmit_PersistenceFailureKeepsSessionOpen() {
	ctx := context.Background()
	s.store.updateErr = errors.New("connection reset")
	session := s.open(domain.RuleHotHold, "E1")

	_, err := s.manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionConfirm})
	s.ErrorIs(err, domain.ErrPersistence)

	open, ok := s.manager.State().(domain.OpenState)
	s.Require().True(ok, "failed write must not resolve the session")
	s.Equal(session.ID, open.Session.ID)
	s.Contains(open.Err, "connection reset")
	s.False(open.Submitting)

	_, stillActive := s.projection().Find(domain.RuleHotHold, "E1")
	s.True(stillActive)

	// Retry succeeds once the store recovers.
	s.store.mu.Lock()
	s.store.updateErr = nil
	s.store.mu.Unlock()

	_, err = s.manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionConfirm})
	s.Require().NoError(err)
	s.Equal(domain.SessionResolved, s.manager.State().Status())

	history, err := s.memory.ListByEvent(ctx, "E1")
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.True(history[0].IsFailure())
	s.Equal(domain.OutcomeConfirmed, history[1].Outcome)
}

func (s *ManagerTestSuite) TestStaffDirectoryFailureShownInSession() {
	ctx := context.Background()
	staff := &flakyStaff{MemoryStore: s.memory, err: errors.New("directory timeout")}
	manager := service.NewManager(s.store, staff, s.memory, service.ManagerConfig{
		AutoDismissDelay: dismissDelay,
	})
	defer manager.Close()

	events, err := s.memory.ListEvents(ctx)
	s.Require().NoError(err)
	alert, ok := alerts.Project(events).Find(domain.RulePickup, "E2")
	s.Require().True(ok)
	event, err := s.memory.GetByID(ctx, "E2")
	s.Require().NoError(err)
	session, err := manager.Open(alert, *event)
	s.Require().NoError(err)

	_, err = manager.SelectAssignee(ctx, "s-marcus")
	s.ErrorIs(err, domain.ErrPersistence)
	open, ok := manager.State().(domain.OpenState)
	s.Require().True(ok)
	s.Contains(open.Err, "directory timeout")

	_, err = manager.Submit(ctx, service.SubmitRequest{
		SessionID:  session.ID,
		Action:     domain.ActionAssign,
		AssigneeID: "s-marcus",
	})
	s.ErrorIs(err, domain.ErrPersistence)
	s.NotErrorIs(err, domain.ErrValidation)

	open, ok = manager.State().(domain.OpenState)
	s.Require().True(ok, "directory failure must keep the session open")
	s.Equal(session.ID, open.Session.ID)
	s.Contains(open.Err, "directory timeout")
	s.False(open.Submitting)
	s.Empty(s.store.writes())

	// Directory recovers: selection clears the message and submit resolves.
	staff.err = nil
	_, err = manager.SelectAssignee(ctx, "s-marcus")
	s.Require().NoError(err)
	open, ok = manager.State().(domain.OpenState)
	s.Require().True(ok)
	s.Empty(open.Err)

	outcome, err := manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionAssign})
	s.Require().NoError(err)
	s.Equal("assigned(Marcus T.)", outcome.String())
}

func (s *ManagerTestSuite) TestSubmit_StaleReferenceForceCloses() {
	ctx := context.Background()
	s.open(domain.RuleHotHold, "E1")

	s.Require().NoError(s.memory.Delete(ctx, "E1"))

	_, err := s.manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionConfirm})
	s.ErrorIs(err, domain.ErrStaleReference)
	s.Empty(s.store.writes())

	closed, ok := s.manager.State().(domain.ClosedState)
	s.Require().True(ok)
	s.Equal(service.StaleNotice, closed.Notice)
	s.Equal(1, s.observer.forceClosed)

	s.manager.DismissNotice()
	s.Equal(domain.ClosedState{}, s.manager.State())
}

func (s *ManagerTestSuite) TestSubmit_EventDeletedDuringWrite() {
	s.store.updateErr = domain.ErrEventNotFound
	s.open(domain.RuleHotHold, "E1")

	_, err := s.manager.Submit(context.Background(), service.SubmitRequest{Action: domain.ActionConfirm})
	s.ErrorIs(err, domain.ErrStaleReference)

	closed, ok := s.manager.State().(domain.ClosedState)
	s.Require().True(ok)
	s.Equal(service.StaleNotice, closed.Notice)
}

func (s *ManagerTestSuite) TestSubmit_AlreadySatisfiedSkipsWrite() {
	ctx := context.Background()
	s.open(domain.RuleHotHold, "E1")

	// Someone else confirmed the hold after the session was opened.
	s.Require().NoError(s.memory.UpdateFields(ctx, "E1", domain.FieldPatch{domain.FieldKitchenHotHoldConfirmed: true}))

	outcome, err := s.manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionConfirm})
	s.Require().NoError(err)
	s.Equal(domain.OutcomeConfirmed, outcome.Kind)
	s.Empty(s.store.writes())
	s.Equal(domain.SessionResolved, s.manager.State().Status())
}

func (s *ManagerTestSuite) TestCancel_DuringWriteDiscardsResult() {
	ctx := context.Background()
	s.store.started = make(chan struct{})
	s.store.release = make(chan struct{})
	s.open(domain.RuleHotHold, "E1")

	done := make(chan error, 1)
	go func() {
		_, err := s.manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionConfirm})
		done <- err
	}()

	<-s.store.started
	s.Equal(domain.SessionOpen, s.manager.State().Status())

	_, err := s.manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionConfirm})
	s.ErrorIs(err, domain.ErrSubmitInProgress)

	s.manager.Cancel()
	s.Equal(domain.SessionClosed, s.manager.State().Status())

	close(s.store.release)
	s.NoError(<-done)

	// The write still lands but the closed session stays closed.
	event, err := s.memory.GetByID(ctx, "E1")
	s.Require().NoError(err)
	s.True(bool(event.KitchenHotHoldConfirmed))
	s.Equal(domain.ClosedState{}, s.manager.State())
}

func (s *ManagerTestSuite) TestOpen_ReplacesCurrentSession() {
	first := s.open(domain.RuleHotHold, "E1")
	second := s.open(domain.RuleKitchenNotes, "E4")

	open, ok := s.manager.State().(domain.OpenState)
	s.Require().True(ok)
	s.NotEqual(first.ID, second.ID)
	s.Equal(second.ID, open.Session.ID)
	s.Equal(domain.RuleKitchenNotes, open.Session.Alert.RuleID)
}

func (s *ManagerTestSuite) TestSubmit_RejectsReplacedSessionID() {
	first := s.open(domain.RuleHotHold, "E1")
	second := s.open(domain.RuleKitchenNotes, "E4")

	_, err := s.manager.Submit(context.Background(), service.SubmitRequest{
		SessionID: first.ID,
		Action:    domain.ActionConfirm,
	})
	s.ErrorIs(err, domain.ErrNoOpenSession)
	s.Empty(s.store.writes())

	_, err = s.manager.Submit(context.Background(), service.SubmitRequest{
		SessionID: second.ID,
		Action:    domain.ActionAcknowledge,
	})
	s.NoError(err)
}

func (s *ManagerTestSuite) TestAutoDismiss_DoesNotCloseNewerSession() {
	ctx := context.Background()
	s.open(domain.RuleHotHold, "E1")

	_, err := s.manager.Submit(ctx, service.SubmitRequest{Action: domain.ActionConfirm})
	s.Require().NoError(err)

	next := s.open(domain.RuleKitchenNotes, "E4")
	time.Sleep(3 * dismissDelay)

	open, ok := s.manager.State().(domain.OpenState)
	s.Require().True(ok)
	s.Equal(next.ID, open.Session.ID)
}

func (s *ManagerTestSuite) TestCancel_ResolvedSession() {
	s.open(domain.RuleHotHold, "E1")
	_, err := s.manager.Submit(context.Background(), service.SubmitRequest{Action: domain.ActionConfirm})
	s.Require().NoError(err)

	s.manager.Cancel()
	s.Equal(domain.ClosedState{}, s.manager.State())
}

func (s *ManagerTestSuite) TestSubmit_RecordsAudit() {
	ctx := context.Background()
	operator := "op-1"
	s.open(domain.RulePickup, "E2")

	_, err := s.manager.Submit(ctx, service.SubmitRequest{
		Action:     domain.ActionAssign,
		AssigneeID: "s-marcus",
		Notes:      "driver confirmed by phone",
		ResolvedBy: &operator,
	})
	s.Require().NoError(err)

	history, err := s.memory.ListByEvent(ctx, "E2")
	s.Require().NoError(err)
	s.Require().Len(history, 1)

	r := history[0]
	s.Equal(domain.RulePickup, r.RuleID)
	s.Equal(domain.OutcomeAssigned, r.Outcome)
	s.Equal([]string{"sushi_pickup_confirmed"}, r.Patch)
	s.Equal("driver confirmed by phone", r.Notes)
	s.Require().NotNil(r.AssigneeName)
	s.Equal("Marcus T.", *r.AssigneeName)
	s.Require().NotNil(r.ResolvedBy)
	s.Equal(operator, *r.ResolvedBy)
	s.Equal(1, s.observer.resolved[domain.OutcomeAssigned])
}

// TestManagerTestSuite runs the test suite.
func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}
