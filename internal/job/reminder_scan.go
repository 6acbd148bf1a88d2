package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmorder/tmorder/internal/reminder"
)

// ReminderScanJob drives one reminder poll cycle per tick. The 15-minute
// cadence pairs with the engine's 30-minute-wide horizon windows, so every
// order is scanned at least once per window while the process is up.
type ReminderScanJob struct {
	engine *reminder.Engine
	logger *slog.Logger
	now    func() time.Time
}

// NewReminderScanJob constructs the poll-loop job.
func NewReminderScanJob(engine *reminder.Engine, logger *slog.Logger) *ReminderScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderScanJob{engine: engine, logger: logger, now: time.Now}
}

// Name returns the job identifier.
func (j *ReminderScanJob) Name() string { return "reminder.scan" }

// Run executes one scan → dispatch → acknowledge pass. A transient failure is
// reported to the scheduler (which logs it) and the pass is retried on the
// next tick.
func (j *ReminderScanJob) Run(ctx context.Context) error {
	if j == nil || j.engine == nil {
		return fmt.Errorf("reminder scan job dependencies not configured")
	}
	return j.engine.RunCycle(ctx, j.now().UTC())
}
