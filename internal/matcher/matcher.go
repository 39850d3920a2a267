// package matcher maps noisy artist/title observations onto catalog entries.
//
// Matching uses partial-ratio similarity so upstream decorations such as
// "(Live)", "(Remastered)" or feature credits still land on the right
// catalog entry.
package matcher

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
)

// DefaultThreshold is the minimum combined similarity score (0-100) a
// candidate must reach to be accepted.
const DefaultThreshold = 85

// HistoryLimit bounds how many prior-edition entries a resolved song carries.
const HistoryLimit = 5

// CatalogView is the read-only catalog surface the matcher scans.
type CatalogView interface {
	All() ([]*models.Song, error)
	FunFacts(songID string) ([]string, error)
}

// HistoryView provides prior-edition rankings for result hydration.
type HistoryView interface {
	ForSong(songID string, beforeYear, limit int) ([]models.HistoryEntry, error)
}

// Matcher scores observations against every catalog entry and returns the
// best-scoring match above the threshold.
type Matcher struct {
	catalog     CatalogView
	history     HistoryView
	threshold   float64
	editionYear int
	logger      *log.Logger
}

// New creates a Matcher with the default threshold.
func New(catalog CatalogView, history HistoryView, editionYear int, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Matcher{
		catalog:     catalog,
		history:     history,
		threshold:   DefaultThreshold,
		editionYear: editionYear,
		logger:      logger,
	}
}

// SetThreshold overrides the acceptance threshold. Intended for tests.
func (m *Matcher) SetThreshold(threshold float64) {
	m.threshold = threshold
}

// Match scans the full catalog and returns the single best candidate with
// its combined score. A candidate replaces the current best only on a
// strictly greater score, so ties resolve to the earlier-enumerated entry.
// Returns [shared.ErrNoMatch] when no candidate reaches the threshold.
//
// Empty or whitespace-only inputs are still scored; they simply tend to
// fall below the threshold.
func (m *Matcher) Match(artist, title string) (*models.ResolvedSong, float64, error) {
	songs, err := m.catalog.All()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load catalog: %w", err)
	}

	obsArtist := strings.ToLower(artist)
	obsTitle := strings.ToLower(title)

	var best *models.Song
	bestScore := 0.0

	for _, song := range songs {
		artistScore := fuzzy.PartialRatio(obsArtist, strings.ToLower(song.Artist()))
		titleScore := fuzzy.PartialRatio(obsTitle, strings.ToLower(song.Title()))
		combined := float64(artistScore+titleScore) / 2

		if combined > bestScore {
			bestScore = combined
			best = song
		}
	}

	if best == nil || bestScore < m.threshold {
		m.logger.Warn("no catalog match", "artist", artist, "title", title, "best_score", bestScore)
		return nil, bestScore, shared.ErrNoMatch
	}

	m.logger.Debug("matched observation",
		"artist", artist, "title", title,
		"position", best.Position(), "score", bestScore)

	resolved, err := m.Hydrate(best)
	if err != nil {
		return nil, bestScore, err
	}

	return resolved, bestScore, nil
}

// Hydrate enriches a catalog entry with its fun facts and bounded position
// history. The edition currently being tracked is excluded from history.
func (m *Matcher) Hydrate(song *models.Song) (*models.ResolvedSong, error) {
	facts, err := m.catalog.FunFacts(song.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load fun facts: %w", err)
	}

	history, err := m.history.ForSong(song.ID(), m.editionYear, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load position history: %w", err)
	}

	return &models.ResolvedSong{Song: song, FunFacts: facts, History: history}, nil
}
