package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmorder/tmorder/internal/notifier"
	"github.com/tmorder/tmorder/internal/repository"
)

// memOrders is an in-memory OrderRepository with the same filter semantics as
// the SQLite implementation.
type memOrders struct {
	mu      sync.Mutex
	orders  map[int64]*repository.Order
	nextID  int64
	scanErr error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[int64]*repository.Order{}, nextID: 1}
}

func (m *memOrders) add(order repository.Order) *repository.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == 0 {
		order.ID = m.nextID
		m.nextID++
	}
	stored := order
	m.orders[stored.ID] = &stored
	return &stored
}

func (m *memOrders) Create(_ context.Context, order *repository.Order) (*repository.Order, error) {
	return m.add(*order), nil
}

func (m *memOrders) FindByID(_ context.Context, id int64) (*repository.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *memOrders) List(_ context.Context, _ repository.OrderFilter) ([]*repository.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*repository.Order
	for _, order := range m.orders {
		copied := *order
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memOrders) Update(_ context.Context, order *repository.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *memOrders) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memOrders) FindDueForReminder(_ context.Context, lo, hi int64, flag repository.ReminderFlags) ([]*repository.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	var out []*repository.Order
	for _, order := range m.orders {
		if order.DeadlineAt < lo || order.DeadlineAt > hi {
			continue
		}
		if order.ReminderFlags.Has(flag) {
			continue
		}
		if order.Status.Terminal() {
			continue
		}
		copied := *order
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memOrders) MarkReminderSent(_ context.Context, id int64, flag repository.ReminderFlags, updatedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.ReminderFlags = order.ReminderFlags.With(flag)
	order.UpdatedAt = updatedAt
	return nil
}

// recordingSink captures sent messages and optionally fails per chat.
type recordingSink struct {
	mu     sync.Mutex
	sent   []notifier.Message
	failFor map[int64]error
}

func (s *recordingSink) Send(_ context.Context, msg notifier.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[msg.ChatID]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newTestEngine(t *testing.T, orders repository.OrderRepository, sink notifier.Service) *Engine {
	t.Helper()
	engine, err := NewEngine(Options{
		Orders:         orders,
		Sink:           sink,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		FallbackChatID: 900,
	})
	require.NoError(t, err)
	return engine
}

func pairKeys(pairs []Pair) []string {
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, fmt.Sprintf("%d/%s", p.Order.ID, p.Horizon))
	}
	sort.Strings(keys)
	return keys
}

func TestEngineScanWindows(t *testing.T) {
	ctx := context.Background()
	deadline := mustParse(t, "2025-03-10 12:00")
	repo := newMemOrders()
	repo.add(repository.Order{ID: 42, CustomerName: "Acme", DeadlineAt: deadline.Unix(), Status: repository.StatusPending})

	engine := newTestEngine(t, repo, &recordingSink{})

	t.Run("24h window", func(t *testing.T) {
		pairs, err := engine.Scan(ctx, deadline.Add(-24*time.Hour))
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, Horizon24h, pairs[0].Horizon)
		assert.EqualValues(t, 42, pairs[0].Order.ID)
	})

	t.Run("outside tolerance", func(t *testing.T) {
		pairs, err := engine.Scan(ctx, deadline.Add(-24*time.Hour-20*time.Minute))
		require.NoError(t, err)
		assert.Empty(t, pairs)
	})

	t.Run("spec example 11:46 fires due only", func(t *testing.T) {
		pairs, err := engine.Scan(ctx, mustParse(t, "2025-03-10 11:46"))
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, HorizonDue, pairs[0].Horizon)
	})
}

func TestEngineNoDoubleFire(t *testing.T) {
	ctx := context.Background()
	deadline := mustParse(t, "2025-03-10 12:00")
	repo := newMemOrders()
	repo.add(repository.Order{ID: 42, DeadlineAt: deadline.Unix(), Status: repository.StatusPending})
	engine := newTestEngine(t, repo, &recordingSink{})

	require.NoError(t, engine.Acknowledge(ctx, 42, HorizonDue))

	for _, now := range []time.Time{
		mustParse(t, "2025-03-10 11:46"),
		mustParse(t, "2025-03-10 12:00"),
		mustParse(t, "2025-03-10 12:10"),
	} {
		pairs, err := engine.Scan(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, pairs, "scan at %s", now)
	}
}

func TestEngineTerminalSuppression(t *testing.T) {
	ctx := context.Background()
	deadline := mustParse(t, "2025-03-10 12:00")
	repo := newMemOrders()
	repo.add(repository.Order{ID: 1, DeadlineAt: deadline.Unix(), Status: repository.StatusDelivered})
	repo.add(repository.Order{ID: 2, DeadlineAt: deadline.Unix(), Status: repository.StatusCancelled})
	engine := newTestEngine(t, repo, &recordingSink{})

	for _, now := range []time.Time{deadline.Add(-24 * time.Hour), deadline.Add(-6 * time.Hour), deadline} {
		pairs, err := engine.Scan(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, pairs)
	}
}

func TestEngineMissedWindowSkips(t *testing.T) {
	ctx := context.Background()
	deadline := mustParse(t, "2025-03-10 12:00")
	repo := newMemOrders()
	repo.add(repository.Order{ID: 7, DeadlineAt: deadline.Unix(), Status: repository.StatusPending})
	engine := newTestEngine(t, repo, &recordingSink{})

	// No scan ran during the 24h window. A later scan at D-6h fires 6h only;
	// the stale 24h reminder is never back-filled.
	pairs, err := engine.Scan(ctx, deadline.Add(-6*time.Hour))
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, Horizon6h, pairs[0].Horizon)

	order, err := repo.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.False(t, order.ReminderFlags.Has(repository.Reminder24h))
}

func TestEngineFlagIndependence(t *testing.T) {
	ctx := context.Background()
	deadline := mustParse(t, "2025-03-10 12:00")
	repo := newMemOrders()
	repo.add(repository.Order{ID: 3, DeadlineAt: deadline.Unix(), Status: repository.StatusPending})
	engine := newTestEngine(t, repo, &recordingSink{})

	require.NoError(t, engine.Acknowledge(ctx, 3, Horizon2h))

	order, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.True(t, order.ReminderFlags.Has(repository.Reminder2h))
	assert.False(t, order.ReminderFlags.Has(repository.Reminder24h))
	assert.False(t, order.ReminderFlags.Has(repository.Reminder6h))
	assert.False(t, order.ReminderFlags.Has(repository.ReminderDue))

	// Other horizons still fire.
	pairs, err := engine.Scan(ctx, deadline.Add(-6*time.Hour))
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, Horizon6h, pairs[0].Horizon)
}

func TestEngineRunCycle(t *testing.T) {
	ctx := context.Background()
	deadline := mustParse(t, "2025-03-10 12:00")

	t.Run("dispatch and acknowledge", func(t *testing.T) {
		repo := newMemOrders()
		chat := int64(555)
		repo.add(repository.Order{ID: 42, CustomerName: "Acme", DeadlineAt: deadline.Unix(), Status: repository.StatusPending, ChatID: &chat})
		sink := &recordingSink{}
		engine := newTestEngine(t, repo, sink)

		require.NoError(t, engine.RunCycle(ctx, deadline.Add(-2*time.Hour)))
		require.Equal(t, 1, sink.count())
		assert.EqualValues(t, 555, sink.sent[0].ChatID)

		order, err := repo.FindByID(ctx, 42)
		require.NoError(t, err)
		assert.True(t, order.ReminderFlags.Has(repository.Reminder2h))

		// Second cycle in the same window is a no-op.
		require.NoError(t, engine.RunCycle(ctx, deadline.Add(-2*time.Hour+5*time.Minute)))
		assert.Equal(t, 1, sink.count())
	})

	t.Run("sink failure still acknowledges", func(t *testing.T) {
		repo := newMemOrders()
		chat := int64(666)
		repo.add(repository.Order{ID: 1, DeadlineAt: deadline.Unix(), Status: repository.StatusPending, ChatID: &chat})
		sink := &recordingSink{failFor: map[int64]error{666: notifier.ErrRecipientUnreachable}}
		engine := newTestEngine(t, repo, sink)

		require.NoError(t, engine.RunCycle(ctx, deadline.Add(-2*time.Hour)))

		order, err := repo.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.True(t, order.ReminderFlags.Has(repository.Reminder2h), "flag set after attempt per at-least-once policy")
	})

	t.Run("failure on one pair does not block others", func(t *testing.T) {
		repo := newMemOrders()
		badChat, goodChat := int64(666), int64(777)
		repo.add(repository.Order{ID: 1, DeadlineAt: deadline.Unix(), Status: repository.StatusPending, ChatID: &badChat})
		repo.add(repository.Order{ID: 2, DeadlineAt: deadline.Unix(), Status: repository.StatusPending, ChatID: &goodChat})
		sink := &recordingSink{failFor: map[int64]error{666: errors.New("boom")}}
		engine := newTestEngine(t, repo, sink)

		require.NoError(t, engine.RunCycle(ctx, deadline.Add(-2*time.Hour)))
		require.Equal(t, 1, sink.count())
		assert.EqualValues(t, 777, sink.sent[0].ChatID)

		for _, id := range []int64{1, 2} {
			order, err := repo.FindByID(ctx, id)
			require.NoError(t, err)
			assert.True(t, order.ReminderFlags.Has(repository.Reminder2h), "order %d", id)
		}
	})

	t.Run("scan failure aborts cycle cleanly", func(t *testing.T) {
		repo := newMemOrders()
		repo.add(repository.Order{ID: 1, DeadlineAt: deadline.Unix(), Status: repository.StatusPending})
		repo.scanErr = errors.New("store down")
		sink := &recordingSink{}
		engine := newTestEngine(t, repo, sink)

		require.Error(t, engine.RunCycle(ctx, deadline.Add(-2*time.Hour)))
		assert.Zero(t, sink.count())

		// Recovery on the next tick.
		repo.scanErr = nil
		require.NoError(t, engine.RunCycle(ctx, deadline.Add(-2*time.Hour)))
		assert.Equal(t, 1, sink.count())
	})

	t.Run("fallback chat used when order has none", func(t *testing.T) {
		repo := newMemOrders()
		repo.add(repository.Order{ID: 9, DeadlineAt: deadline.Unix(), Status: repository.StatusPending})
		sink := &recordingSink{}
		engine := newTestEngine(t, repo, sink)

		require.NoError(t, engine.RunCycle(ctx, deadline))
		require.Equal(t, 1, sink.count())
		assert.EqualValues(t, 900, sink.sent[0].ChatID)
	})

	t.Run("no recipient leaves the reminder pending", func(t *testing.T) {
		repo := newMemOrders()
		repo.add(repository.Order{ID: 9, DeadlineAt: deadline.Unix(), Status: repository.StatusPending})
		sink := &recordingSink{}
		engine, err := NewEngine(Options{
			Orders: repo,
			Sink:   sink,
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
		require.NoError(t, err)

		require.NoError(t, engine.RunCycle(ctx, deadline))
		assert.Zero(t, sink.count())

		order, err := repo.FindByID(ctx, 9)
		require.NoError(t, err)
		assert.False(t, order.ReminderFlags.Has(repository.ReminderDue), "nothing was attempted, flag must stay clear")

		// Once a chat is attached the same window still fires.
		chat := int64(321)
		order.ChatID = &chat
		require.NoError(t, repo.Update(ctx, order))

		require.NoError(t, engine.RunCycle(ctx, deadline.Add(5*time.Minute)))
		require.Equal(t, 1, sink.count())
		assert.EqualValues(t, 321, sink.sent[0].ChatID)

		order, err = repo.FindByID(ctx, 9)
		require.NoError(t, err)
		assert.True(t, order.ReminderFlags.Has(repository.ReminderDue))
	})
}

func TestEngineMultiHorizonSameScan(t *testing.T) {
	// With a deadline exactly 24h out and a second order 2h out, one pass
	// dispatches both pairs independently.
	ctx := context.Background()
	now := mustParse(t, "2025-03-10 12:00")
	repo := newMemOrders()
	repo.add(repository.Order{ID: 1, DeadlineAt: now.Add(24 * time.Hour).Unix(), Status: repository.StatusPending})
	repo.add(repository.Order{ID: 2, DeadlineAt: now.Add(2 * time.Hour).Unix(), Status: repository.StatusPending})
	engine := newTestEngine(t, repo, &recordingSink{})

	pairs, err := engine.Scan(ctx, now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1/24h", "2/2h"}, pairKeys(pairs))
}

func TestEngineAcknowledgeErrors(t *testing.T) {
	ctx := context.Background()
	repo := newMemOrders()
	engine := newTestEngine(t, repo, &recordingSink{})

	err := engine.Acknowledge(ctx, 1, Horizon("12h"))
	require.ErrorIs(t, err, ErrUnknownHorizon)

	err = engine.Acknowledge(ctx, 404, HorizonDue)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
