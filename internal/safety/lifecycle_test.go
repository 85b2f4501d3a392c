package safety

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"OldunMu/internal/model"
	"OldunMu/pkg/errors"
)

type fakeAlarmStore struct {
	mu     sync.Mutex
	alarms []*model.Alarm
}

func (s *fakeAlarmStore) Save(_ context.Context, alarm *model.Alarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms = append(s.alarms, alarm)
	return nil
}

func (s *fakeAlarmStore) Update(_ context.Context, _ *model.Alarm) error {
	return nil
}

func (s *fakeAlarmStore) FindActiveAutomatic(_ context.Context, userID int64) (*model.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alarms {
		if a.UserID == userID && a.Type == model.AlarmTypeAutomatic && a.Status == model.AlarmStatusActive {
			return a, nil
		}
	}
	return nil, nil
}

type fakeContacts struct {
	contacts []Contact
	err      error
}

func (f *fakeContacts) GetVerifiedContacts(_ context.Context, _ int64) ([]Contact, error) {
	return f.contacts, f.err
}

type fakeDispatcher struct {
	mu       sync.Mutex
	attempts []Attempt
	failFor  string
}

func (d *fakeDispatcher) Dispatch(_ context.Context, _ *model.Alarm, attempt Attempt) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts = append(d.attempts, attempt)
	if d.failFor != "" && attempt.ContactName == d.failFor {
		return errors.NewNonRetryableError("DELIVERY_REJECTED", "delivery rejected", attempt.ContactName)
	}
	return nil
}

type fakeLocker struct {
	mu     sync.Mutex
	held   map[int64]bool
	denied bool
}

func (l *fakeLocker) TryLock(_ context.Context, userID int64) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denied {
		return nil, false, nil
	}
	if l.held == nil {
		l.held = make(map[int64]bool)
	}
	if l.held[userID] {
		return nil, false, nil
	}
	l.held[userID] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, userID)
	}, true, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestLifecycle(store *fakeAlarmStore, contacts *fakeContacts, dispatch *fakeDispatcher, locker *fakeLocker) *Lifecycle {
	nextID := int64(1000)
	return NewLifecycle(
		store,
		contacts,
		dispatch,
		locker,
		func() (int64, error) { nextID++; return nextID, nil },
		fixedClock{now: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)},
		zap.NewNop(),
	)
}

func TestRaiseAutomaticDeduplicates(t *testing.T) {
	store := &fakeAlarmStore{}
	lc := newTestLifecycle(store, &fakeContacts{}, &fakeDispatcher{}, &fakeLocker{})
	ctx := context.Background()

	first, created, err := lc.Raise(ctx, RaiseParams{UserID: 7, Type: model.AlarmTypeAutomatic})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, created)

	second, created, err := lc.Raise(ctx, RaiseParams{UserID: 7, Type: model.AlarmTypeAutomatic})
	require.NoError(t, err)
	require.NotNil(t, second)

	// 第二次触发返回已存在的告警，不新建
	assert.False(t, created)
	assert.Equal(t, first.PublicID, second.PublicID)
	assert.Len(t, store.alarms, 1)
}

func TestRaisePanicNeverDeduplicates(t *testing.T) {
	store := &fakeAlarmStore{}
	lc := newTestLifecycle(store, &fakeContacts{}, &fakeDispatcher{}, &fakeLocker{})
	ctx := context.Background()

	first, created, err := lc.Raise(ctx, RaiseParams{UserID: 7, Type: model.AlarmTypePanic})
	require.NoError(t, err)
	assert.True(t, created)
	second, created, err := lc.Raise(ctx, RaiseParams{UserID: 7, Type: model.AlarmTypePanic})
	require.NoError(t, err)
	assert.True(t, created)

	assert.NotEqual(t, first.PublicID, second.PublicID)
	assert.Len(t, store.alarms, 2)
}

func TestRaiseAutomaticSkippedWhenLockHeld(t *testing.T) {
	store := &fakeAlarmStore{}
	lc := newTestLifecycle(store, &fakeContacts{}, &fakeDispatcher{}, &fakeLocker{denied: true})

	alarm, created, err := lc.Raise(context.Background(), RaiseParams{UserID: 7, Type: model.AlarmTypeAutomatic})

	require.NoError(t, err)
	assert.Nil(t, alarm)
	assert.False(t, created)
	assert.Empty(t, store.alarms)
}

func TestRaiseRecordsFanoutPlanAndDispatches(t *testing.T) {
	store := &fakeAlarmStore{}
	dispatch := &fakeDispatcher{}
	contacts := &fakeContacts{contacts: []Contact{
		{Name: "Mehmet", Phone: "+905551112233", Priority: 1, Verified: true},
		{Name: "Ayşe", Email: "a@x", Priority: 2, Verified: true},
	}}
	lc := newTestLifecycle(store, contacts, dispatch, &fakeLocker{})

	alarm, _, err := lc.Raise(context.Background(), RaiseParams{UserID: 7, Type: model.AlarmTypeManual})

	require.NoError(t, err)
	require.Len(t, alarm.NotifiedContacts, 2)
	assert.Equal(t, "Mehmet", alarm.NotifiedContacts[0].ContactName)
	assert.Equal(t, "sms", alarm.NotifiedContacts[0].Channel)
	assert.Equal(t, "Ayşe", alarm.NotifiedContacts[1].ContactName)
	assert.Equal(t, "email", alarm.NotifiedContacts[1].Channel)
	assert.Len(t, dispatch.attempts, 2)
}

func TestRaiseSurvivesDispatchFailure(t *testing.T) {
	store := &fakeAlarmStore{}
	dispatch := &fakeDispatcher{failFor: "Mehmet"}
	contacts := &fakeContacts{contacts: []Contact{
		{Name: "Mehmet", Phone: "+905551112233", Priority: 1, Verified: true},
		{Name: "Ayşe", Email: "a@x", Priority: 2, Verified: true},
	}}
	lc := newTestLifecycle(store, contacts, dispatch, &fakeLocker{})

	alarm, _, err := lc.Raise(context.Background(), RaiseParams{UserID: 7, Type: model.AlarmTypeManual})

	// 单条投递失败不影响告警创建，也不中断其余联系人
	require.NoError(t, err)
	require.NotNil(t, alarm)
	assert.Equal(t, model.AlarmStatusActive, alarm.Status)
	assert.Len(t, dispatch.attempts, 2)
	assert.Len(t, store.alarms, 1)
}

func TestRaiseSurvivesContactLookupFailure(t *testing.T) {
	store := &fakeAlarmStore{}
	contacts := &fakeContacts{err: errors.NewNonRetryableError("CONTACTS_UNAVAILABLE", "contacts unavailable", "")}
	lc := newTestLifecycle(store, contacts, &fakeDispatcher{}, &fakeLocker{})

	alarm, _, err := lc.Raise(context.Background(), RaiseParams{UserID: 7, Type: model.AlarmTypePanic})

	require.NoError(t, err)
	require.NotNil(t, alarm)
	assert.Empty(t, alarm.NotifiedContacts)
}

func TestCancelTransitions(t *testing.T) {
	lc := newTestLifecycle(&fakeAlarmStore{}, &fakeContacts{}, &fakeDispatcher{}, &fakeLocker{})
	ctx := context.Background()
	reason := "false alarm"

	t.Run("active can be cancelled", func(t *testing.T) {
		alarm := &model.Alarm{PublicID: 1, UserID: 7, Type: model.AlarmTypeManual, Status: model.AlarmStatusActive}

		got, err := lc.Cancel(ctx, alarm, &reason)

		require.NoError(t, err)
		assert.Equal(t, model.AlarmStatusCancelled, got.Status)
		require.NotNil(t, got.CancelledAt)
		assert.Equal(t, &reason, got.CancelReason)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		alarm := &model.Alarm{PublicID: 2, UserID: 7, Status: model.AlarmStatusCancelled}

		_, err := lc.Cancel(ctx, alarm, nil)

		assert.ErrorIs(t, err, errors.InvalidTransition)
	})

	t.Run("resolved is terminal", func(t *testing.T) {
		alarm := &model.Alarm{PublicID: 3, UserID: 7, Status: model.AlarmStatusResolved}

		_, err := lc.Cancel(ctx, alarm, nil)

		assert.ErrorIs(t, err, errors.InvalidTransition)
	})
}

func TestResolveTransitions(t *testing.T) {
	lc := newTestLifecycle(&fakeAlarmStore{}, &fakeContacts{}, &fakeDispatcher{}, &fakeLocker{})
	ctx := context.Background()

	t.Run("active can be resolved", func(t *testing.T) {
		alarm := &model.Alarm{PublicID: 4, UserID: 7, Status: model.AlarmStatusActive}

		got, err := lc.Resolve(ctx, alarm)

		require.NoError(t, err)
		assert.Equal(t, model.AlarmStatusResolved, got.Status)
	})

	t.Run("cancel after resolve rejected", func(t *testing.T) {
		alarm := &model.Alarm{PublicID: 5, UserID: 7, Status: model.AlarmStatusActive}

		_, err := lc.Resolve(ctx, alarm)
		require.NoError(t, err)

		_, err = lc.Cancel(ctx, alarm, nil)
		assert.ErrorIs(t, err, errors.InvalidTransition)
	})
}
