package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
)

// StateRepository persists the playback state singleton. At most one row
// exists; every transition fully replaces it.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new StateRepository with the given database connection
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Upsert replaces the playback state singleton row.
func (r *StateRepository) Upsert(state *models.PlaybackState) error {
	query := `
		INSERT OR REPLACE INTO playback_state (id, current_position, current_song_id, detected_at, raw_metadata)
		VALUES (1, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, state.Position, state.SongID, state.DetectedAt, state.RawMetadata)
	if err != nil {
		return fmt.Errorf("failed to upsert playback state: %w", err)
	}

	return nil
}

// Clear removes the playback state singleton, if any.
func (r *StateRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM playback_state"); err != nil {
		return fmt.Errorf("failed to clear playback state: %w", err)
	}
	return nil
}

// Get retrieves the playback state singleton. Returns
// [shared.ErrStateNotFound] when no transition has ever been recorded.
func (r *StateRepository) Get() (*models.PlaybackState, error) {
	query := "SELECT current_position, current_song_id, detected_at, raw_metadata FROM playback_state WHERE id = 1"

	var (
		position   int
		songID     string
		detectedAt time.Time
		raw        sql.NullString
	)

	err := r.db.QueryRow(query).Scan(&position, &songID, &detectedAt, &raw)
	if err == sql.ErrNoRows {
		return nil, shared.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playback state: %w", err)
	}

	return &models.PlaybackState{
		Position:    position,
		SongID:      songID,
		DetectedAt:  detectedAt,
		RawMetadata: raw.String,
	}, nil
}
