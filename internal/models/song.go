package models

import (
	"fmt"
	"strings"
	"time"
)

// Song is a catalog entry: one ranked position in the countdown list.
//
// Position is the natural key used for ordering (lower positions play later
// and rank higher); the surrogate id is used by foreign references.
type Song struct {
	id               string
	position         int
	artist           string
	title            string
	year             int
	musicBrainzID    string
	coverArtURL      string
	coverArtCachedAt *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// NewSong creates a Song for the given catalog position. Year may be zero
// when the release year is unknown.
func NewSong(position int, artist, title string, year int) *Song {
	now := time.Now()
	return &Song{
		position:  position,
		artist:    artist,
		title:     title,
		year:      year,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Song) ID() string                   { return s.id }
func (s *Song) Position() int                { return s.position }
func (s *Song) Artist() string               { return s.artist }
func (s *Song) Title() string                { return s.title }
func (s *Song) Year() int                    { return s.year }
func (s *Song) MusicBrainzID() string        { return s.musicBrainzID }
func (s *Song) CoverArtURL() string          { return s.coverArtURL }
func (s *Song) CoverArtCachedAt() *time.Time { return s.coverArtCachedAt }
func (s *Song) CreatedAt() time.Time         { return s.createdAt }
func (s *Song) UpdatedAt() time.Time         { return s.updatedAt }

func (s *Song) SetID(id string) { s.id = id }
func (s *Song) SetUpdatedAt(t time.Time) { s.updatedAt = t }
func (s *Song) SetMusicBrainzID(id string) { s.musicBrainzID = id }

// SetCoverArt records a cover art URL and its cache timestamp.
func (s *Song) SetCoverArt(url string, cachedAt time.Time) {
	s.coverArtURL = url
	s.coverArtCachedAt = &cachedAt
}

// Validate checks that the song has a positive position and non-empty
// artist and title.
func (s *Song) Validate() error {
	if s.position < 1 {
		return fmt.Errorf("song position must be >= 1, got %d", s.position)
	}
	if strings.TrimSpace(s.artist) == "" {
		return fmt.Errorf("song artist is required")
	}
	if strings.TrimSpace(s.title) == "" {
		return fmt.Errorf("song title is required")
	}
	return nil
}

// HistoryEntry records where a song ranked in a prior edition.
type HistoryEntry struct {
	Year     int `json:"year"`
	Position int `json:"position"`
}

// ResolvedSong is a Song enriched at read time with fun facts and bounded
// position history. Constructed fresh on every match; never persisted.
type ResolvedSong struct {
	*Song
	FunFacts []string       `json:"fun_facts"`
	History  []HistoryEntry `json:"position_history"`
}

// Observation is one best-effort, unverified snapshot of what is playing,
// acquired from an upstream source. It has no identity beyond the session.
type Observation struct {
	Artist      string    `json:"artist"`
	Title       string    `json:"title"`
	CoverArtURL string    `json:"cover_art_url,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// PlaybackState is the singleton row describing what the coordinator
// currently believes is playing. Overwritten on every detected transition.
type PlaybackState struct {
	Position    int       `json:"current_position"`
	SongID      string    `json:"current_song_id"`
	DetectedAt  time.Time `json:"detected_at"`
	RawMetadata string    `json:"raw_metadata"`
}
