package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmorder/tmorder/internal/repository"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", value)
	require.NoError(t, err)
	return ts.UTC()
}

func TestParseHorizon(t *testing.T) {
	tests := []struct {
		raw     string
		want    Horizon
		wantErr bool
	}{
		{raw: "24h", want: Horizon24h},
		{raw: "6h", want: Horizon6h},
		{raw: "2h", want: Horizon2h},
		{raw: "due", want: HorizonDue},
		{raw: " DUE ", want: HorizonDue},
		{raw: "12h", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			spec, err := ParseHorizon(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownHorizon)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Name)
		})
	}
}

func TestHorizonWindows(t *testing.T) {
	deadline := mustParse(t, "2025-03-10 12:00")

	tests := []struct {
		name    string
		horizon Horizon
		now     time.Time
		inside  bool
	}{
		{name: "24h exact", horizon: Horizon24h, now: deadline.Add(-24 * time.Hour), inside: true},
		{name: "24h early edge", horizon: Horizon24h, now: deadline.Add(-24*time.Hour - 15*time.Minute), inside: true},
		{name: "24h late edge", horizon: Horizon24h, now: deadline.Add(-24*time.Hour + 15*time.Minute), inside: true},
		{name: "24h too early", horizon: Horizon24h, now: deadline.Add(-24*time.Hour - 20*time.Minute), inside: false},
		{name: "24h too late", horizon: Horizon24h, now: deadline.Add(-24*time.Hour + 16*time.Minute), inside: false},
		{name: "6h exact", horizon: Horizon6h, now: deadline.Add(-6 * time.Hour), inside: true},
		{name: "2h exact", horizon: Horizon2h, now: deadline.Add(-2 * time.Hour), inside: true},
		{name: "due before deadline", horizon: HorizonDue, now: deadline.Add(-14 * time.Minute), inside: true},
		{name: "due after deadline", horizon: HorizonDue, now: deadline.Add(15 * time.Minute), inside: true},
		{name: "due past tolerance", horizon: HorizonDue, now: deadline.Add(16 * time.Minute), inside: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseHorizon(string(tt.horizon))
			require.NoError(t, err)
			assert.Equal(t, tt.inside, spec.Contains(tt.now, deadline))
		})
	}
}

func TestDueHorizons(t *testing.T) {
	deadline := mustParse(t, "2025-03-10 12:00")
	base := repository.Order{
		ID:           42,
		CustomerName: "Acme",
		DeadlineAt:   deadline.Unix(),
		Status:       repository.StatusPending,
	}

	t.Run("spec example at 11:46 fires due only", func(t *testing.T) {
		order := base
		got := DueHorizons(mustParse(t, "2025-03-10 11:46"), &order)
		assert.Equal(t, []Horizon{HorizonDue}, got)
	})

	t.Run("outside every window", func(t *testing.T) {
		order := base
		assert.Empty(t, DueHorizons(deadline.Add(-12*time.Hour), &order))
	})

	t.Run("terminal status suppresses", func(t *testing.T) {
		order := base
		order.Status = repository.StatusDelivered
		assert.Empty(t, DueHorizons(deadline.Add(-24*time.Hour), &order))
		order.Status = repository.StatusCancelled
		assert.Empty(t, DueHorizons(deadline, &order))
	})

	t.Run("set flag suppresses only its horizon", func(t *testing.T) {
		order := base
		order.ReminderFlags = repository.Reminder2h
		assert.Empty(t, DueHorizons(deadline.Add(-2*time.Hour), &order))
		assert.Equal(t, []Horizon{Horizon24h}, DueHorizons(deadline.Add(-24*time.Hour), &order))
		assert.Equal(t, []Horizon{Horizon6h}, DueHorizons(deadline.Add(-6*time.Hour), &order))
		assert.Equal(t, []Horizon{HorizonDue}, DueHorizons(deadline, &order))
	})

	t.Run("missed 24h window is not back-filled", func(t *testing.T) {
		order := base
		// 24h flag never set, but we are long past its window.
		got := DueHorizons(deadline.Add(-6*time.Hour), &order)
		assert.Equal(t, []Horizon{Horizon6h}, got)
	})
}

func TestFormatMessage(t *testing.T) {
	deadline := mustParse(t, "2025-03-10 12:00")
	spec, err := ParseHorizon("2h")
	require.NoError(t, err)

	wc := int64(1200)
	order := &repository.Order{
		ID:           42,
		CustomerName: "Acme",
		Topic:        "Annual report",
		WordCount:    &wc,
		DeadlineAt:   deadline.Unix(),
		Status:       repository.StatusPending,
	}
	text := FormatMessage(spec, order)
	assert.Contains(t, text, "#42")
	assert.Contains(t, text, "Acme")
	assert.Contains(t, text, "Annual report")
	assert.Contains(t, text, "2025-03-10 12:00 UTC")
	assert.Contains(t, text, spec.Icon)

	order.Topic = ""
	assert.Contains(t, FormatMessage(spec, order), "N/A")
}
