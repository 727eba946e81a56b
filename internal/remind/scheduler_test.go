package remind

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory ReminderStore for scheduler tests.
type fakeStore struct {
	mu        sync.Mutex
	reminders map[string]Reminder
	dueErr    error
}

func newFakeStore(reminders ...Reminder) *fakeStore {
	s := &fakeStore{reminders: make(map[string]Reminder)}
	for _, r := range reminders {
		s.reminders[r.ID] = r
	}
	return s
}

func (s *fakeStore) DueReminders(_ context.Context, now time.Time) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dueErr != nil {
		return nil, s.dueErr
	}
	var due []Reminder
	for _, r := range s.reminders {
		if !r.Sent && !r.FireAt.After(now) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (s *fakeStore) MarkSent(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok || r.Sent {
		return false, nil
	}
	r.Sent = true
	s.reminders[id] = r
	return true, nil
}

// fakeNotifier records delivered reminders.
type fakeNotifier struct {
	mu        sync.Mutex
	delivered []Reminder
	err       error
}

func (n *fakeNotifier) Notify(_ context.Context, r Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.delivered = append(n.delivered, r)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.delivered)
}

func TestNewScheduler_Validation(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}

	_, err := NewScheduler(nil, notifier, zap.NewNop())
	assert.Error(t, err)
	_, err = NewScheduler(store, nil, zap.NewNop())
	assert.Error(t, err)
	_, err = NewScheduler(store, notifier, nil)
	assert.Error(t, err)
}

// TestDeliverDue_DeliversOnlyDueReminders verifies fire-time filtering.
func TestDeliverDue_DeliversOnlyDueReminders(t *testing.T) {
	now := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)
	due := NewReminder("call the dentist", now.Add(-time.Minute))
	future := NewReminder("water the plants", now.Add(time.Hour))
	store := newFakeStore(due, future)
	notifier := &fakeNotifier{}

	s, err := NewScheduler(store, notifier, zap.NewNop())
	require.NoError(t, err)

	s.DeliverDue(context.Background(), now)

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "call the dentist", notifier.delivered[0].Message)
}

// TestDeliverDue_ExactlyOnce verifies a reminder is never delivered
// twice even when polled again.
func TestDeliverDue_ExactlyOnce(t *testing.T) {
	now := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)
	store := newFakeStore(NewReminder("call the dentist", now.Add(-time.Minute)))
	notifier := &fakeNotifier{}

	s, err := NewScheduler(store, notifier, zap.NewNop())
	require.NoError(t, err)

	s.DeliverDue(context.Background(), now)
	s.DeliverDue(context.Background(), now)

	assert.Equal(t, 1, notifier.count())
}

// TestDeliverDue_StoreErrorLogsAndContinues verifies a store failure
// does not panic the scheduler.
func TestDeliverDue_StoreErrorLogsAndContinues(t *testing.T) {
	store := newFakeStore()
	store.dueErr = fmt.Errorf("db locked")
	notifier := &fakeNotifier{}

	s, err := NewScheduler(store, notifier, zap.NewNop())
	require.NoError(t, err)

	s.DeliverDue(context.Background(), time.Now())
	assert.Equal(t, 0, notifier.count())
}

// TestScheduler_StartStop verifies lifecycle idempotence.
func TestScheduler_StartStop(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	s, err := NewScheduler(store, notifier, zap.NewNop(), WithPollInterval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	// Restart works after a stop.
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
}
