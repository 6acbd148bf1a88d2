package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmorder/tmorder/internal/notifier"
	"github.com/tmorder/tmorder/internal/repository"
)

// ErrUnknownHorizon rejects acknowledge requests naming a horizon outside the
// fixed tier table.
var ErrUnknownHorizon = errors.New("reminder: unknown horizon")

// ErrNoRecipient means a pair has nowhere to go: the order carries no chat and
// no fallback chat is configured. No send attempt was made.
var ErrNoRecipient = errors.New("reminder: no recipient chat")

// Pair is one reminder that needs to go out: an order plus the horizon it is
// due on. Each pair is an independent unit; consumers must treat pairs
// idempotently.
type Pair struct {
	Order   *repository.Order
	Horizon Horizon
}

// Engine scans for due reminders, dispatches them through the notification
// sink and acknowledges each attempt. It holds no mutable state of its own;
// all reminder state lives on the order rows.
type Engine struct {
	orders         repository.OrderRepository
	sink           notifier.Service
	logger         *slog.Logger
	fallbackChatID int64
	now            func() time.Time
}

// Options configure the engine.
type Options struct {
	Orders repository.OrderRepository
	Sink   notifier.Service
	Logger *slog.Logger
	// FallbackChatID receives reminders for orders without an originating chat.
	FallbackChatID int64
	// Now overrides the clock; nil means time.Now. Scan and RunCycle take an
	// explicit instant, Now is only consulted for acknowledgement timestamps.
	Now func() time.Time
}

// NewEngine wires a reminder engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Orders == nil {
		return nil, fmt.Errorf("reminder: order repository is required")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("reminder: notification sink is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		orders:         opts.Orders,
		sink:           opts.Sink,
		logger:         logger,
		fallbackChatID: opts.FallbackChatID,
		now:            now,
	}, nil
}

// Scan returns every (order, horizon) pair requiring notification at the
// given instant: deadline inside the horizon's window, flag unset, status
// non-terminal. The same order appears once per eligible horizon. Order of the
// result carries no meaning. A store failure aborts the scan; nothing has been
// dispatched or flagged at that point, so the next tick retries cleanly.
func (e *Engine) Scan(ctx context.Context, now time.Time) ([]Pair, error) {
	var pairs []Pair
	for _, spec := range Horizons {
		lo, hi := spec.DeadlineWindow(now)
		orders, err := e.orders.FindDueForReminder(ctx, lo.Unix(), hi.Unix(), spec.Flag)
		if err != nil {
			return nil, fmt.Errorf("scan horizon %s: %w", spec.Name, err)
		}
		for _, order := range orders {
			pairs = append(pairs, Pair{Order: order, Horizon: spec.Name})
		}
	}
	return pairs, nil
}

// Dispatch formats and sends the reminder for one pair. A sink failure is
// returned for logging but must not stop the caller from acknowledging the
// attempt or from processing the remaining pairs.
func (e *Engine) Dispatch(ctx context.Context, pair Pair) error {
	spec, err := ParseHorizon(string(pair.Horizon))
	if err != nil {
		return err
	}
	chatID := e.fallbackChatID
	if pair.Order.ChatID != nil {
		chatID = *pair.Order.ChatID
	}
	if chatID == 0 {
		return fmt.Errorf("order %d: %w", pair.Order.ID, ErrNoRecipient)
	}
	return e.sink.Send(ctx, notifier.Message{
		ChatID: chatID,
		Text:   FormatMessage(spec, pair.Order),
	})
}

// Acknowledge marks the horizon's flag on the order, making the pair
// non-reentrant for every later scan. This is the sole writer of reminder
// flags.
func (e *Engine) Acknowledge(ctx context.Context, orderID int64, horizon Horizon) error {
	spec, err := ParseHorizon(string(horizon))
	if err != nil {
		return err
	}
	return e.orders.MarkReminderSent(ctx, orderID, spec.Flag, e.now().UTC().Unix())
}

// RunCycle executes one full poll pass: scan, then dispatch and acknowledge
// each pair. The flag is set after every dispatch attempt whether or not the
// sink confirmed delivery; a crash between dispatch and acknowledge costs at
// most one duplicate notification on the next pass, never a silent loss.
// A pair with no recipient at all is not an attempt: its flag stays clear so
// the reminder can still fire inside its window once a chat is configured.
// Per-pair failures are isolated; only a scan failure aborts the cycle.
func (e *Engine) RunCycle(ctx context.Context, now time.Time) error {
	pairs, err := e.Scan(ctx, now)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		if err := e.Dispatch(ctx, pair); err != nil {
			switch {
			case errors.Is(err, ErrNoRecipient):
				e.logger.Warn("reminder has no recipient chat, leaving it pending",
					"order_id", pair.Order.ID, "horizon", pair.Horizon)
				continue
			case errors.Is(err, notifier.ErrNotImplemented):
				e.logger.Warn("reminder not delivered, no channel configured",
					"order_id", pair.Order.ID, "horizon", pair.Horizon)
			case errors.Is(err, notifier.ErrRecipientUnreachable):
				e.logger.Warn("reminder recipient unreachable",
					"order_id", pair.Order.ID, "horizon", pair.Horizon, "error", err)
			default:
				e.logger.Error("reminder dispatch failed",
					"order_id", pair.Order.ID, "horizon", pair.Horizon, "error", err)
			}
		} else {
			e.logger.Info("reminder sent", "order_id", pair.Order.ID, "horizon", pair.Horizon)
		}

		if err := e.Acknowledge(ctx, pair.Order.ID, pair.Horizon); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				e.logger.Warn("order vanished before acknowledge",
					"order_id", pair.Order.ID, "horizon", pair.Horizon)
				continue
			}
			e.logger.Error("reminder acknowledge failed",
				"order_id", pair.Order.ID, "horizon", pair.Horizon, "error", err)
		}
	}
	return nil
}
