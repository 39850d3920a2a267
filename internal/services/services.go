// package services defines clients for the unreliable upstream surfaces the
// tracker depends on
//
// Station metadata (three-tier fallback), MusicBrainz cover art, and
// notification transports.
package services

import (
	"context"

	"github.com/joenivl/top2000/internal/models"
)

// MetadataSource produces a best-effort observation of what is currently
// playing. Implementations cache aggressively and degrade through fallback
// sources before reporting failure.
type MetadataSource interface {
	// FetchCurrent returns the freshest available observation, or
	// shared.ErrNoMetadata when every source has been exhausted.
	FetchCurrent(ctx context.Context) (*models.Observation, error)
}

// CoverArt is the result of a cover art lookup.
type CoverArt struct {
	URL       string // Image URL, typically a 500px thumbnail
	ReleaseID string // MusicBrainz release id the image belongs to
}

// CoverArtService looks up album artwork for a track.
type CoverArtService interface {
	// Lookup searches for cover art by artist and title. Returns
	// shared.ErrNoCoverArt when nothing suitable is found.
	Lookup(ctx context.Context, artist, title string) (*CoverArt, error)
}

// Transport delivers a notification to a single target identifier.
type Transport interface {
	// Send delivers the message. imageURL may be empty.
	Send(ctx context.Context, target, title, message, imageURL string) error
}
