// Package reminder decides when deadline reminders fire and records that they
// fired. Each order carries one set-once flag per horizon; the engine
// guarantees at most one acknowledgement per (order, horizon) pair.
package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/tmorder/tmorder/internal/repository"
)

// Horizon names a fixed offset before the deadline at which a reminder fires.
type Horizon string

const (
	Horizon24h Horizon = "24h"
	Horizon6h  Horizon = "6h"
	Horizon2h  Horizon = "2h"
	HorizonDue Horizon = "due"
)

// HorizonSpec defines one reminder tier.
type HorizonSpec struct {
	Name      Horizon
	Offset    time.Duration // target distance before the deadline; 0 for "due"
	Tolerance time.Duration // half-width of the firing window
	Flag      repository.ReminderFlags
	Icon      string
	Label     string
}

// Horizons is the fixed tier table, furthest horizon first. Adding a tier is a
// table edit; every scan, dispatch and acknowledgement path iterates this
// table generically.
var Horizons = []HorizonSpec{
	{Name: Horizon24h, Offset: 24 * time.Hour, Tolerance: 15 * time.Minute, Flag: repository.Reminder24h, Icon: "📅", Label: "due in 24 hours"},
	{Name: Horizon6h, Offset: 6 * time.Hour, Tolerance: 15 * time.Minute, Flag: repository.Reminder6h, Icon: "⏰", Label: "due in 6 hours"},
	{Name: Horizon2h, Offset: 2 * time.Hour, Tolerance: 15 * time.Minute, Flag: repository.Reminder2h, Icon: "⚠️", Label: "due in 2 hours"},
	{Name: HorizonDue, Offset: 0, Tolerance: 15 * time.Minute, Flag: repository.ReminderDue, Icon: "🔴", Label: "due now"},
}

// ParseHorizon maps a wire name to its spec. Unknown names are rejected so a
// malformed acknowledge request stays a no-op.
func ParseHorizon(raw string) (HorizonSpec, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for _, spec := range Horizons {
		if string(spec.Name) == name {
			return spec, nil
		}
	}
	return HorizonSpec{}, fmt.Errorf("%w: %q", ErrUnknownHorizon, raw)
}

// DeadlineWindow returns the inclusive range a deadline must fall in for this
// horizon to fire at the given instant. A deadline is eligible when
// deadline - now is within Offset ± Tolerance; for the "due" tier that means
// up to Tolerance after the deadline as well.
func (s HorizonSpec) DeadlineWindow(now time.Time) (lo, hi time.Time) {
	target := now.Add(s.Offset)
	return target.Add(-s.Tolerance), target.Add(s.Tolerance)
}

// Contains reports whether the deadline is inside this horizon's window at now.
func (s HorizonSpec) Contains(now, deadline time.Time) bool {
	lo, hi := s.DeadlineWindow(now)
	return !deadline.Before(lo) && !deadline.After(hi)
}

// DueHorizons evaluates which reminders an order needs at the given instant.
// Pure: no clock, no I/O. A single order may be due on several horizons at
// once when the caller's poll cadence slipped far enough that windows overlap;
// both fire in the same pass rather than being suppressed.
func DueHorizons(now time.Time, order *repository.Order) []Horizon {
	if order == nil || order.Status.Terminal() {
		return nil
	}
	deadline := time.Unix(order.DeadlineAt, 0).UTC()
	var due []Horizon
	for _, spec := range Horizons {
		if order.ReminderFlags.Has(spec.Flag) {
			continue
		}
		if spec.Contains(now, deadline) {
			due = append(due, spec.Name)
		}
	}
	return due
}
