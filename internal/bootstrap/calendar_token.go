package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tmorder/tmorder/internal/repository"
)

// CalendarTokenSource records where the resolved token came from.
type CalendarTokenSource string

const (
	calendarTokenSettingKey = "calendar_token"
	calendarTokenCategory   = "security"

	CalendarTokenSourceConfig    CalendarTokenSource = "config"
	CalendarTokenSourceSettings  CalendarTokenSource = "settings"
	CalendarTokenSourceGenerated CalendarTokenSource = "generated"
)

// ResolveCalendarToken resolves the ICS feed token with priority:
// config/env > settings > generate-and-persist. A generated token survives
// restarts through the settings table, so subscribed calendar clients keep
// working without configuration.
func ResolveCalendarToken(ctx context.Context, settings repository.SettingRepository, configuredToken string, now func() time.Time) (string, CalendarTokenSource, error) {
	if configured := strings.TrimSpace(configuredToken); configured != "" {
		return configured, CalendarTokenSourceConfig, nil
	}

	if settings == nil {
		return "", "", fmt.Errorf("resolve calendar token: settings repository is required; you can set TMORDER_CALENDAR_TOKEN")
	}
	if now == nil {
		now = time.Now
	}

	existing, err := settings.Get(ctx, calendarTokenSettingKey)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", "", fmt.Errorf("read calendar token from settings: %w", err)
	}
	if existing != nil {
		if token := strings.TrimSpace(existing.Value); token != "" {
			return token, CalendarTokenSourceSettings, nil
		}
	}

	token := uuid.NewString()
	ts := now().UTC().Unix()
	err = settings.Upsert(ctx, &repository.Setting{
		Key:       calendarTokenSettingKey,
		Value:     token,
		Category:  calendarTokenCategory,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return "", "", fmt.Errorf("persist calendar token: %w", err)
	}
	return token, CalendarTokenSourceGenerated, nil
}
