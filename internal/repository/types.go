package repository

// OrderStatus tracks an order through its lifecycle.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Terminal reports whether the status ends the order's lifecycle. No reminder
// ever fires for a terminal order.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Valid reports whether the status is one of the known lifecycle states.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// ReminderFlags is a bitmask with one bit per reminder horizon. Bits are only
// ever set, never cleared, so a reminder acknowledged once stays acknowledged
// for the life of the order.
type ReminderFlags int64

const (
	Reminder24h ReminderFlags = 1 << iota
	Reminder6h
	Reminder2h
	ReminderDue
)

// Has reports whether every bit in flag is set.
func (f ReminderFlags) Has(flag ReminderFlags) bool {
	return f&flag == flag
}

// With returns the flags with flag added.
func (f ReminderFlags) With(flag ReminderFlags) ReminderFlags {
	return f | flag
}

// Order is a translation job with a hard deadline.
type Order struct {
	ID            int64
	CustomerName  string
	SourceLang    string
	TargetLang    string
	WordCount     *int64
	Topic         string
	DeadlineAt    int64 // unix seconds, UTC
	Status        OrderStatus
	ReminderFlags ReminderFlags
	ChatID        *int64 // chat that created the order, if any
	CreatedAt     int64
	UpdatedAt     int64
}

// Setting is a key/value pair persisted alongside orders (calendar token etc).
type Setting struct {
	Key       string
	Value     string
	Category  string
	CreatedAt int64
	UpdatedAt int64
}
