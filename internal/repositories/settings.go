package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/joenivl/top2000/internal/models"
)

// SettingsRepository persists the notification settings singleton. Target
// and offset lists are stored as JSON arrays in TEXT columns.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository with the given database connection
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves the notification settings, or the documented defaults when
// no row has been written yet. Malformed stored JSON also falls back to
// defaults rather than failing the caller.
func (r *SettingsRepository) Get() (*models.NotificationSettings, error) {
	query := `
		SELECT targets, notify_current, notify_upcoming, upcoming_offsets
		FROM notification_settings
		WHERE id = 1
	`

	var (
		targets  sql.NullString
		current  bool
		upcoming bool
		offsets  sql.NullString
	)

	err := r.db.QueryRow(query).Scan(&targets, &current, &upcoming, &offsets)
	if err == sql.ErrNoRows {
		return models.DefaultNotificationSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification settings: %w", err)
	}

	settings := models.DefaultNotificationSettings()
	settings.NotifyCurrent = current
	settings.NotifyUpcoming = upcoming

	if targets.Valid && targets.String != "" {
		var parsed []string
		if err := json.Unmarshal([]byte(targets.String), &parsed); err == nil && len(parsed) > 0 {
			settings.Targets = parsed
		}
	}
	if offsets.Valid && offsets.String != "" {
		var parsed []int
		if err := json.Unmarshal([]byte(offsets.String), &parsed); err == nil && len(parsed) > 0 {
			settings.UpcomingOffsets = parsed
		}
	}

	return settings, nil
}

// Update replaces the notification settings singleton row.
func (r *SettingsRepository) Update(settings *models.NotificationSettings) error {
	targets, err := json.Marshal(settings.Targets)
	if err != nil {
		return fmt.Errorf("failed to encode targets: %w", err)
	}

	offsets, err := json.Marshal(settings.UpcomingOffsets)
	if err != nil {
		return fmt.Errorf("failed to encode offsets: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO notification_settings (id, targets, notify_current, notify_upcoming, upcoming_offsets, updated_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`

	if _, err := r.db.Exec(query, string(targets), settings.NotifyCurrent, settings.NotifyUpcoming, string(offsets)); err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}

	return nil
}
