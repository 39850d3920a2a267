package repositories

import (
	"database/sql"
	"fmt"

	"github.com/joenivl/top2000/internal/models"
)

// HistoryRepository stores how songs ranked in prior editions.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Upsert records the position a song held in the given edition year,
// replacing any earlier record for the same (song, year) pair.
func (r *HistoryRepository) Upsert(songID string, year, position int) error {
	query := `
		INSERT INTO position_history (song_id, year, position)
		VALUES (?, ?, ?)
		ON CONFLICT(song_id, year) DO UPDATE SET position = excluded.position
	`

	_, err := r.db.Exec(query, songID, year, position)
	if err != nil {
		return fmt.Errorf("failed to upsert position history: %w", err)
	}

	return nil
}

// ForSong returns up to limit history entries for a song, most recent year
// first. Entries for beforeYear and later are excluded so the edition
// currently being tracked never appears in its own history.
func (r *HistoryRepository) ForSong(songID string, beforeYear, limit int) ([]models.HistoryEntry, error) {
	query := `
		SELECT year, position
		FROM position_history
		WHERE song_id = ? AND year < ?
		ORDER BY year DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, songID, beforeYear, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query position history: %w", err)
	}
	defer rows.Close()

	var history []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		if err := rows.Scan(&entry.Year, &entry.Position); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return history, nil
}
