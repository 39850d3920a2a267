package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/services"
	"github.com/joenivl/top2000/internal/shared"
)

// CoverArtMaxAge is how long a cached cover art URL stays fresh before the
// coordinator consults the lookup service again.
const CoverArtMaxAge = 24 * time.Hour

// Deps bundles the collaborators a Coordinator needs.
type Deps struct {
	Source   services.MetadataSource
	Matcher  SongMatcher
	Songs    SongStore
	State    StateStore
	CoverArt services.CoverArtService
	Engine   *RuleEngine
	Settings SettingsSource
}

// Coordinator drives one resolution cycle at a time: acquire an
// observation, match it against the catalog, and on a genuine song
// transition run the side effects in order. Re-observing the same song is
// a no-op.
//
// Not safe for concurrent Ticks; the poller serializes them.
type Coordinator struct {
	deps       Deps
	logger     *log.Logger
	lastSongID string
}

// NewCoordinator creates a Coordinator. The last-seen song starts empty so
// the first successful match always counts as a transition.
func NewCoordinator(deps Deps, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Coordinator{deps: deps, logger: logger}
}

// Tick runs one full resolution cycle.
//
// Exhausted metadata sources and below-threshold matches are soft
// outcomes: the previous state is retained and Tick returns nil. Any other
// acquisition or matching error fails the tick. Side-effect errors after a
// detected transition are logged and never fail the tick.
func (c *Coordinator) Tick(ctx context.Context) error {
	obs, err := c.deps.Source.FetchCurrent(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNoMetadata) {
			c.logger.Warn("no metadata available, keeping previous state")
			return nil
		}
		return fmt.Errorf("metadata acquisition failed: %w", err)
	}

	resolved, score, err := c.deps.Matcher.Match(obs.Artist, obs.Title)
	if err != nil {
		if errors.Is(err, shared.ErrNoMatch) {
			c.logger.Warn("observation matched nothing in catalog",
				"artist", obs.Artist, "title", obs.Title, "score", score)
			return nil
		}
		return fmt.Errorf("matching failed: %w", err)
	}

	if resolved.ID() == c.lastSongID {
		c.logger.Debug("same song still playing", "position", resolved.Position())
		return nil
	}

	c.logger.Info("song transition detected",
		"position", resolved.Position(),
		"artist", resolved.Artist(), "title", resolved.Title(),
		"score", score)

	c.resolveCoverArt(ctx, resolved, obs)
	c.persistState(resolved, obs)
	c.notifyCurrent(ctx, resolved)
	c.notifyUpcoming(ctx, resolved)

	c.lastSongID = resolved.ID()
	return nil
}

// resolveCoverArt fills in the song's cover art. An art URL carried by the
// observation itself always wins; otherwise a cache younger than
// CoverArtMaxAge is kept, and only then is the lookup service consulted.
func (c *Coordinator) resolveCoverArt(ctx context.Context, song *models.ResolvedSong, obs *models.Observation) {
	if obs.CoverArtURL != "" {
		if err := c.deps.Songs.UpdateCoverArt(song.ID(), obs.CoverArtURL, song.MusicBrainzID()); err != nil {
			c.logger.Error("failed to store observed cover art", "err", err)
			return
		}
		song.SetCoverArt(obs.CoverArtURL, time.Now())
		return
	}

	fresh, err := c.deps.Songs.CoverArtFresh(song.ID(), CoverArtMaxAge)
	if err != nil {
		c.logger.Error("failed to check cover art cache", "err", err)
		return
	}
	if fresh {
		return
	}

	art, err := c.deps.CoverArt.Lookup(ctx, song.Artist(), song.Title())
	if err != nil {
		if errors.Is(err, shared.ErrNoCoverArt) {
			c.logger.Debug("no cover art found",
				"artist", song.Artist(), "title", song.Title())
		} else {
			c.logger.Error("cover art lookup failed", "err", err)
		}
		return
	}

	if err := c.deps.Songs.UpdateCoverArt(song.ID(), art.URL, art.ReleaseID); err != nil {
		c.logger.Error("failed to store cover art", "err", err)
		return
	}
	song.SetCoverArt(art.URL, time.Now())
	song.SetMusicBrainzID(art.ReleaseID)
}

func (c *Coordinator) persistState(song *models.ResolvedSong, obs *models.Observation) {
	raw, err := json.Marshal(obs)
	if err != nil {
		raw = []byte("{}")
	}

	state := &models.PlaybackState{
		Position:    song.Position(),
		SongID:      song.ID(),
		DetectedAt:  time.Now(),
		RawMetadata: string(raw),
	}

	if err := c.deps.State.Upsert(state); err != nil {
		c.logger.Error("failed to persist playback state", "err", err)
	}
}

func (c *Coordinator) notifyCurrent(ctx context.Context, song *models.ResolvedSong) {
	if err := c.deps.Engine.Evaluate(ctx, song, true); err != nil {
		c.logger.Error("current-song notification failed", "err", err)
	}
}

// notifyUpcoming announces the songs scheduled to play soon. Position N-1
// plays next, so an offset of k points at position current-k. Offsets that
// fall below position 1 or hit a gap in the catalog are skipped.
func (c *Coordinator) notifyUpcoming(ctx context.Context, current *models.ResolvedSong) {
	settings, err := c.deps.Settings.Get()
	if err != nil {
		c.logger.Error("failed to load notification settings", "err", err)
		return
	}
	if !settings.NotifyUpcoming {
		return
	}

	for _, offset := range settings.UpcomingOffsets {
		position := current.Position() - offset
		if position < 1 {
			continue
		}

		song, err := c.deps.Songs.GetByPosition(position)
		if err != nil {
			if !errors.Is(err, shared.ErrSongNotFound) {
				c.logger.Error("failed to load upcoming song", "position", position, "err", err)
			}
			continue
		}

		matched, err := c.deps.Engine.MatchesRules(song)
		if err != nil {
			c.logger.Error("failed to evaluate rules for upcoming song", "err", err)
			continue
		}
		if !matched {
			continue
		}

		resolved, err := c.deps.Matcher.Hydrate(song)
		if err != nil {
			c.logger.Error("failed to hydrate upcoming song", "err", err)
			continue
		}

		c.deps.Engine.Dispatch(ctx, resolved, settings, false)
	}
}

// CurrentSong returns the hydrated song the coordinator last persisted, or
// shared.ErrStateNotFound when nothing has been detected yet.
func (c *Coordinator) CurrentSong() (*models.ResolvedSong, error) {
	state, err := c.deps.State.Get()
	if err != nil {
		return nil, err
	}

	song, err := c.deps.Songs.Get(state.SongID)
	if err != nil {
		return nil, err
	}

	return c.deps.Matcher.Hydrate(song)
}

// UpcomingSongs returns up to count hydrated songs that play after the
// current one, soonest first. When no song is tracked yet the window is
// simply empty, not an error.
func (c *Coordinator) UpcomingSongs(count int) ([]*models.ResolvedSong, error) {
	state, err := c.deps.State.Get()
	if errors.Is(err, shared.ErrStateNotFound) {
		return []*models.ResolvedSong{}, nil
	}
	if err != nil {
		return nil, err
	}

	songs, err := c.deps.Songs.Upcoming(state.Position, count)
	if err != nil {
		return nil, err
	}

	resolved := make([]*models.ResolvedSong, 0, len(songs))
	for _, song := range songs {
		r, err := c.deps.Matcher.Hydrate(song)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, r)
	}

	return resolved, nil
}
