package service

import (
	"context"
	"errors"
	"time"

	"github.com/tmorder/tmorder/internal/reminder"
	"github.com/tmorder/tmorder/internal/repository"
)

// ReminderService exposes the reminder engine to the API layer: a read-only
// peek at what is currently due, and a manual acknowledge escape hatch.
type ReminderService interface {
	DueNow(ctx context.Context) ([]DueReminderView, error)
	Acknowledge(ctx context.Context, orderID int64, horizon string) error
}

// DueReminderView is one pending reminder as returned by the check endpoint.
type DueReminderView struct {
	OrderID      int64  `json:"order_id"`
	CustomerName string `json:"customer_name"`
	Horizon      string `json:"horizon"`
	DeadlineAt   string `json:"deadline_at"`
	Message      string `json:"message"`
}

type reminderService struct {
	engine *reminder.Engine
	now    func() time.Time
}

// NewReminderService wraps the engine for API consumption.
func NewReminderService(engine *reminder.Engine) ReminderService {
	return &reminderService{engine: engine, now: time.Now}
}

func (s *reminderService) DueNow(ctx context.Context) ([]DueReminderView, error) {
	pairs, err := s.engine.Scan(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}
	views := make([]DueReminderView, 0, len(pairs))
	for _, pair := range pairs {
		spec, err := reminder.ParseHorizon(string(pair.Horizon))
		if err != nil {
			return nil, err
		}
		views = append(views, DueReminderView{
			OrderID:      pair.Order.ID,
			CustomerName: pair.Order.CustomerName,
			Horizon:      string(pair.Horizon),
			DeadlineAt:   time.Unix(pair.Order.DeadlineAt, 0).UTC().Format(time.RFC3339),
			Message:      reminder.FormatMessage(spec, pair.Order),
		})
	}
	return views, nil
}

func (s *reminderService) Acknowledge(ctx context.Context, orderID int64, horizon string) error {
	err := s.engine.Acknowledge(ctx, orderID, reminder.Horizon(horizon))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, reminder.ErrUnknownHorizon):
		return ErrInvalidHorizon
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
