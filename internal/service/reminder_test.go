package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmorder/tmorder/internal/notifier"
	"github.com/tmorder/tmorder/internal/reminder"
	"github.com/tmorder/tmorder/internal/repository"
)

func newReminderFixture(t *testing.T, now time.Time) (ReminderService, *fakeOrders) {
	t.Helper()
	repo := newFakeOrders()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := reminder.NewEngine(reminder.Options{
		Orders:         repo,
		Sink:           notifier.NewLoggerService(logger),
		Logger:         logger,
		FallbackChatID: 1,
		Now:            func() time.Time { return now },
	})
	require.NoError(t, err)
	svc := &reminderService{engine: engine, now: func() time.Time { return now }}
	return svc, repo
}

func TestReminderServiceDueNow(t *testing.T) {
	now := time.Date(2026, 9, 15, 11, 46, 0, 0, time.UTC)
	svc, repo := newReminderFixture(t, now)
	ctx := context.Background()

	// deadline 14 minutes out, inside the due window only
	_, err := repo.Create(ctx, &repository.Order{
		CustomerName: "ACME",
		SourceLang:   "en",
		TargetLang:   "de",
		DeadlineAt:   time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC).Unix(),
		Status:       repository.StatusPending,
	})
	require.NoError(t, err)

	due, err := svc.DueNow(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(1), due[0].OrderID)
	assert.Equal(t, "due", due[0].Horizon)
	assert.Equal(t, "ACME", due[0].CustomerName)
	assert.Contains(t, due[0].Message, "Order #1")
}

func TestReminderServiceAcknowledge(t *testing.T) {
	now := time.Date(2026, 9, 15, 11, 46, 0, 0, time.UTC)
	svc, repo := newReminderFixture(t, now)
	ctx := context.Background()

	created, err := repo.Create(ctx, &repository.Order{
		CustomerName: "ACME",
		SourceLang:   "en",
		TargetLang:   "de",
		DeadlineAt:   time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC).Unix(),
		Status:       repository.StatusPending,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Acknowledge(ctx, created.ID, "due"))

	// acknowledged pair never comes back
	due, err := svc.DueNow(ctx)
	require.NoError(t, err)
	assert.Empty(t, due)

	assert.ErrorIs(t, svc.Acknowledge(ctx, created.ID, "45m"), ErrInvalidHorizon)
	assert.ErrorIs(t, svc.Acknowledge(ctx, 99, "due"), ErrNotFound)
}
