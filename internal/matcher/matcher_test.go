package matcher

import (
	"errors"
	"testing"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
)

type fakeCatalog struct {
	songs []*models.Song
	facts map[string][]string
}

func (f *fakeCatalog) All() ([]*models.Song, error) { return f.songs, nil }

func (f *fakeCatalog) FunFacts(songID string) ([]string, error) {
	return f.facts[songID], nil
}

type fakeHistory struct {
	entries map[string][]models.HistoryEntry
}

func (f *fakeHistory) ForSong(songID string, beforeYear, limit int) ([]models.HistoryEntry, error) {
	var out []models.HistoryEntry
	for _, e := range f.entries[songID] {
		if e.Year >= beforeYear {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func catalogSong(position int, artist, title string, year int) *models.Song {
	song := models.NewSong(position, artist, title, year)
	song.SetID(shared.GenerateID())
	return song
}

func newTestMatcher(songs ...*models.Song) (*Matcher, *fakeCatalog, *fakeHistory) {
	catalog := &fakeCatalog{songs: songs, facts: make(map[string][]string)}
	history := &fakeHistory{entries: make(map[string][]models.HistoryEntry)}
	return New(catalog, history, 2025, nil), catalog, history
}

func TestMatch(t *testing.T) {
	t.Run("exact match scores 100", func(t *testing.T) {
		m, _, _ := newTestMatcher(
			catalogSong(1, "Queen", "Bohemian Rhapsody", 1975),
			catalogSong(2, "Eagles", "Hotel California", 1977),
		)

		resolved, score, err := m.Match("Queen", "Bohemian Rhapsody")
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if score != 100 {
			t.Errorf("expected score 100, got %v", score)
		}
		if resolved.Position() != 1 {
			t.Errorf("expected position 1, got %d", resolved.Position())
		}
	})

	t.Run("matching is case insensitive", func(t *testing.T) {
		m, _, _ := newTestMatcher(catalogSong(1, "Queen", "Bohemian Rhapsody", 1975))

		_, score, err := m.Match("QUEEN", "bohemian rhapsody")
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if score != 100 {
			t.Errorf("expected score 100, got %v", score)
		}
	})

	t.Run("decorated stream titles still land", func(t *testing.T) {
		m, _, _ := newTestMatcher(
			catalogSong(1, "Queen", "Bohemian Rhapsody", 1975),
			catalogSong(2, "Eagles", "Hotel California", 1977),
		)

		resolved, _, err := m.Match("Queen", "Bohemian Rhapsody (Remastered 2011)")
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if resolved.Artist() != "Queen" {
			t.Errorf("expected Queen, got %s", resolved.Artist())
		}
	})

	t.Run("unrelated observation is rejected", func(t *testing.T) {
		m, _, _ := newTestMatcher(catalogSong(1, "Queen", "Bohemian Rhapsody", 1975))

		_, _, err := m.Match("Nieuwsflits", "NOS Journaal")
		if !errors.Is(err, shared.ErrNoMatch) {
			t.Errorf("expected ErrNoMatch, got %v", err)
		}
	})

	t.Run("empty catalog never matches", func(t *testing.T) {
		m, _, _ := newTestMatcher()

		_, score, err := m.Match("Queen", "Bohemian Rhapsody")
		if !errors.Is(err, shared.ErrNoMatch) {
			t.Errorf("expected ErrNoMatch, got %v", err)
		}
		if score != 0 {
			t.Errorf("expected score 0, got %v", score)
		}
	})

	t.Run("ties keep the earlier catalog entry", func(t *testing.T) {
		first := catalogSong(10, "De Dijk", "Als Ze Er Niet Is", 1994)
		second := catalogSong(20, "De Dijk", "Als Ze Er Niet Is", 1994)
		m, _, _ := newTestMatcher(first, second)

		resolved, _, err := m.Match("De Dijk", "Als Ze Er Niet Is")
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if resolved.ID() != first.ID() {
			t.Error("expected the first-enumerated entry to win the tie")
		}
	})

	t.Run("threshold override", func(t *testing.T) {
		m, _, _ := newTestMatcher(catalogSong(1, "Queen", "Bohemian Rhapsody", 1975))
		m.SetThreshold(10)

		if _, _, err := m.Match("Kween", "Bohemian"); err != nil {
			t.Errorf("expected lenient threshold to accept, got %v", err)
		}
	})
}

func TestHydrate(t *testing.T) {
	song := catalogSong(1, "Queen", "Bohemian Rhapsody", 1975)
	m, catalog, history := newTestMatcher(song)

	catalog.facts[song.ID()] = []string{"Six minutes long.", "No chorus."}
	history.entries[song.ID()] = []models.HistoryEntry{
		{Year: 2025, Position: 1},
		{Year: 2024, Position: 2},
		{Year: 2023, Position: 1},
	}

	resolved, err := m.Hydrate(song)
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}

	if len(resolved.FunFacts) != 2 {
		t.Errorf("expected 2 fun facts, got %d", len(resolved.FunFacts))
	}

	// The edition being tracked is excluded from history.
	if len(resolved.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(resolved.History))
	}
	for _, e := range resolved.History {
		if e.Year >= 2025 {
			t.Errorf("history must predate the tracked edition, got %d", e.Year)
		}
	}
}
