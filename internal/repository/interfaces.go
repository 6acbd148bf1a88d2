package repository

import "context"

// Store exposes a repository per aggregate root.
type Store interface {
	Orders() OrderRepository
	Settings() SettingRepository
}

// OrderRepository persists translation orders and their reminder state.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) (*Order, error)
	FindByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*Order, error)
	Update(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id int64) error

	// FindDueForReminder returns active orders whose deadline falls in
	// [lo, hi] (unix seconds, inclusive) and whose flag bit is still unset.
	// Orders in a terminal status are never returned.
	FindDueForReminder(ctx context.Context, lo, hi int64, flag ReminderFlags) ([]*Order, error)

	// MarkReminderSent sets the flag bit on the order and bumps updated_at.
	// Setting an already-set bit is a no-op; bits are never cleared.
	MarkReminderSent(ctx context.Context, id int64, flag ReminderFlags, updatedAt int64) error
}

// SettingRepository stores loose key/value configuration.
type SettingRepository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Upsert(ctx context.Context, setting *Setting) error
}
