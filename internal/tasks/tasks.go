// package tasks implements the now-playing resolution pipeline.
//
// The core abstraction is Coordinator, which polls the station metadata
// source, matches observations against the catalog, detects song
// transitions and orchestrates the per-transition side effects exactly once
// per genuine change. The notification rule engine and the bulk catalog
// importer also live here.
package tasks

import (
	"time"

	"github.com/joenivl/top2000/internal/models"
)

// SongStore is the catalog surface the coordinator reads and narrowly
// mutates (cover art fields only).
type SongStore interface {
	Get(id string) (*models.Song, error)
	GetByPosition(position int) (*models.Song, error)
	Upcoming(currentPosition, count int) ([]*models.Song, error)
	UpdateCoverArt(songID, coverArtURL, musicBrainzID string) error
	CoverArtFresh(songID string, maxAge time.Duration) (bool, error)
}

// StateStore persists the playback state singleton.
type StateStore interface {
	Get() (*models.PlaybackState, error)
	Upsert(state *models.PlaybackState) error
}

// SongMatcher resolves noisy observations onto catalog entries.
type SongMatcher interface {
	// Match returns the best catalog entry for the observation and its
	// combined similarity score, or shared.ErrNoMatch.
	Match(artist, title string) (*models.ResolvedSong, float64, error)

	// Hydrate enriches a bare catalog entry with fun facts and history.
	Hydrate(song *models.Song) (*models.ResolvedSong, error)
}

// RuleSource lists notification rules in stored (evaluation) order.
type RuleSource interface {
	List(enabledOnly bool) ([]*models.NotificationRule, error)
}

// SettingsSource reads the notification settings singleton, falling back
// to documented defaults when unset.
type SettingsSource interface {
	Get() (*models.NotificationSettings, error)
}
