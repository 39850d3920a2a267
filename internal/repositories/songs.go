package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
)

// SongRepository handles catalog persistence: ranked songs, their cover art
// fields and their fun facts.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

const songColumns = "id, position, artist, title, year, musicbrainz_id, cover_art_url, cover_art_cached_at, created_at, updated_at"

// Create inserts a new [models.Song] with a generated ID. The catalog
// position must be unique; inserting a duplicate position fails.
func (r *SongRepository) Create(song *models.Song) error {
	if song.ID() == "" {
		song.SetID(shared.GenerateID())
	}

	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO songs (id, position, artist, title, year, musicbrainz_id, cover_art_url, cover_art_cached_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		song.ID(),
		song.Position(),
		song.Artist(),
		song.Title(),
		nullableYear(song.Year()),
		nullableString(song.MusicBrainzID()),
		nullableString(song.CoverArtURL()),
		song.CoverArtCachedAt(),
		song.CreatedAt(),
		song.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	return nil
}

// Upsert inserts the song or, when its position already exists, replaces the
// artist/title/year for that position. Used by the bulk importer.
func (r *SongRepository) Upsert(song *models.Song) error {
	if song.ID() == "" {
		song.SetID(shared.GenerateID())
	}

	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO songs (id, position, artist, title, year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(position) DO UPDATE SET
			artist = excluded.artist,
			title = excluded.title,
			year = excluded.year,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		song.ID(),
		song.Position(),
		song.Artist(),
		song.Title(),
		nullableYear(song.Year()),
		song.CreatedAt(),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert song: %w", err)
	}

	// The insert may have collapsed onto an existing row; reload the
	// surviving id so foreign references stay correct.
	existing, err := r.GetByPosition(song.Position())
	if err != nil {
		return err
	}
	song.SetID(existing.ID())

	return nil
}

// Get retrieves a song by ID
func (r *SongRepository) Get(id string) (*models.Song, error) {
	query := fmt.Sprintf("SELECT %s FROM songs WHERE id = ?", songColumns)
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByPosition retrieves the song at the given catalog position
func (r *SongRepository) GetByPosition(position int) (*models.Song, error) {
	query := fmt.Sprintf("SELECT %s FROM songs WHERE position = ?", songColumns)
	return r.scanOne(r.db.QueryRow(query, position))
}

// GetByArtistTitle retrieves a song by exact, case-insensitive artist and title match
func (r *SongRepository) GetByArtistTitle(artist, title string) (*models.Song, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM songs
		WHERE LOWER(artist) = LOWER(?) AND LOWER(title) = LOWER(?)
	`, songColumns)
	return r.scanOne(r.db.QueryRow(query, artist, title))
}

// All retrieves the full catalog ordered by position ascending. The matcher
// scans this list on every resolution, so enumeration order is stable.
func (r *SongRepository) All() ([]*models.Song, error) {
	query := fmt.Sprintf("SELECT %s FROM songs ORDER BY position ASC", songColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// Count returns the number of catalog entries.
func (r *SongRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM songs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}

// DeleteAll empties the catalog. Position history and fun facts cascade.
// The playback state row must be cleared first, it references songs.
func (r *SongRepository) DeleteAll() error {
	if _, err := r.db.Exec("DELETE FROM songs"); err != nil {
		return fmt.Errorf("failed to delete songs: %w", err)
	}
	return nil
}

// Upcoming retrieves up to count songs with position strictly below
// currentPosition, nearest-upcoming first (position descending). The
// countdown plays toward position 1, so lower positions play sooner.
func (r *SongRepository) Upcoming(currentPosition, count int) ([]*models.Song, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM songs
		WHERE position < ?
		ORDER BY position DESC
		LIMIT ?
	`, songColumns)

	rows, err := r.db.Query(query, currentPosition, count)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming songs: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// UpdateCoverArt stores a cover art URL for a song and stamps the cache time.
// The MusicBrainz release id may be empty when the URL came from the station
// feed rather than a lookup.
func (r *SongRepository) UpdateCoverArt(songID, coverArtURL, musicBrainzID string) error {
	query := `
		UPDATE songs
		SET cover_art_url = ?, cover_art_cached_at = ?, musicbrainz_id = ?, updated_at = ?
		WHERE id = ?
	`

	now := time.Now()
	result, err := r.db.Exec(query, coverArtURL, now, nullableString(musicBrainzID), now, songID)
	if err != nil {
		return fmt.Errorf("failed to update cover art: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
	}

	return nil
}

// CoverArtFresh reports whether the song has a cached cover art URL stamped
// within maxAge.
func (r *SongRepository) CoverArtFresh(songID string, maxAge time.Duration) (bool, error) {
	var url sql.NullString
	var cachedAt sql.NullTime

	err := r.db.QueryRow("SELECT cover_art_url, cover_art_cached_at FROM songs WHERE id = ?", songID).
		Scan(&url, &cachedAt)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to check cover art cache: %w", err)
	}

	if !url.Valid || url.String == "" || !cachedAt.Valid {
		return false, nil
	}

	return time.Since(cachedAt.Time) < maxAge, nil
}

// AddFunFact appends a fun fact for a song at the given display order.
func (r *SongRepository) AddFunFact(songID, factText string, order int) error {
	query := `
		INSERT INTO fun_facts (id, song_id, fact_text, fact_order)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, shared.GenerateID(), songID, factText, order)
	if err != nil {
		return fmt.Errorf("failed to insert fun fact: %w", err)
	}

	return nil
}

// FunFacts returns a song's fun facts in display order.
func (r *SongRepository) FunFacts(songID string) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT fact_text FROM fun_facts WHERE song_id = ? ORDER BY fact_order ASC",
		songID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fun facts: %w", err)
	}
	defer rows.Close()

	var facts []string
	for rows.Next() {
		var fact string
		if err := rows.Scan(&fact); err != nil {
			return nil, fmt.Errorf("failed to scan fun fact: %w", err)
		}
		facts = append(facts, fact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return facts, nil
}

// scanOne scans a single [sql.Row] into a [models.Song]
func (r *SongRepository) scanOne(row *sql.Row) (*models.Song, error) {
	song, err := scanSong(row.Scan)
	if err == sql.ErrNoRows {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}
	return song, nil
}

// collect scans all rows from [sql.Rows] into songs
func (r *SongRepository) collect(rows *sql.Rows) ([]*models.Song, error) {
	var songs []*models.Song
	for rows.Next() {
		song, err := scanSong(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

func scanSong(scan func(...any) error) (*models.Song, error) {
	var (
		id            string
		position      int
		artist        string
		title         string
		year          sql.NullInt64
		musicBrainzID sql.NullString
		coverArtURL   sql.NullString
		cachedAt      sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := scan(&id, &position, &artist, &title, &year, &musicBrainzID, &coverArtURL, &cachedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	song := models.NewSong(position, artist, title, int(year.Int64))
	song.SetID(id)
	song.SetUpdatedAt(updatedAt)
	if musicBrainzID.Valid {
		song.SetMusicBrainzID(musicBrainzID.String)
	}
	if coverArtURL.Valid && cachedAt.Valid {
		song.SetCoverArt(coverArtURL.String, cachedAt.Time)
	}

	return song, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableYear(year int) any {
	if year == 0 {
		return nil
	}
	return year
}
