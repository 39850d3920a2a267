package tasks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/services"
	"github.com/joenivl/top2000/internal/shared"
	testutil "github.com/joenivl/top2000/internal/testing"
)

// fakeSongStore holds songs keyed by id and by position.
type fakeSongStore struct {
	songs     map[string]*models.Song
	fresh     map[string]bool
	coverArts []string
}

func newFakeSongStore(songs ...*models.Song) *fakeSongStore {
	s := &fakeSongStore{songs: make(map[string]*models.Song), fresh: make(map[string]bool)}
	for _, song := range songs {
		s.songs[song.ID()] = song
	}
	return s
}

func (s *fakeSongStore) Get(id string) (*models.Song, error) {
	song, ok := s.songs[id]
	if !ok {
		return nil, shared.ErrSongNotFound
	}
	return song, nil
}

func (s *fakeSongStore) GetByPosition(position int) (*models.Song, error) {
	for _, song := range s.songs {
		if song.Position() == position {
			return song, nil
		}
	}
	return nil, shared.ErrSongNotFound
}

func (s *fakeSongStore) Upcoming(currentPosition, count int) ([]*models.Song, error) {
	var out []*models.Song
	for p := currentPosition - 1; p >= 1 && len(out) < count; p-- {
		if song, err := s.GetByPosition(p); err == nil {
			out = append(out, song)
		}
	}
	return out, nil
}

func (s *fakeSongStore) UpdateCoverArt(songID, coverArtURL, musicBrainzID string) error {
	song, ok := s.songs[songID]
	if !ok {
		return shared.ErrSongNotFound
	}
	song.SetCoverArt(coverArtURL, time.Now())
	s.coverArts = append(s.coverArts, coverArtURL)
	return nil
}

func (s *fakeSongStore) CoverArtFresh(songID string, maxAge time.Duration) (bool, error) {
	return s.fresh[songID], nil
}

type fakeStateStore struct {
	state   *models.PlaybackState
	upserts int
}

func (s *fakeStateStore) Get() (*models.PlaybackState, error) {
	if s.state == nil {
		return nil, shared.ErrStateNotFound
	}
	return s.state, nil
}

func (s *fakeStateStore) Upsert(state *models.PlaybackState) error {
	s.state = state
	s.upserts++
	return nil
}

// fakeMatcher resolves exact artist/title pairs against its songs.
type fakeMatcher struct {
	songs []*models.Song
	err   error
}

func (m *fakeMatcher) Match(artist, title string) (*models.ResolvedSong, float64, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	for _, song := range m.songs {
		if strings.EqualFold(song.Artist(), artist) && strings.EqualFold(song.Title(), title) {
			return &models.ResolvedSong{Song: song}, 100, nil
		}
	}
	return nil, 0, shared.ErrNoMatch
}

func (m *fakeMatcher) Hydrate(song *models.Song) (*models.ResolvedSong, error) {
	return &models.ResolvedSong{Song: song}, nil
}

type fakeRules struct {
	rules []*models.NotificationRule
}

func (f *fakeRules) List(enabledOnly bool) ([]*models.NotificationRule, error) {
	if !enabledOnly {
		return f.rules, nil
	}
	var out []*models.NotificationRule
	for _, r := range f.rules {
		if r.Enabled() {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSettings struct {
	settings *models.NotificationSettings
	gets     int
}

func (f *fakeSettings) Get() (*models.NotificationSettings, error) {
	f.gets++
	if f.settings == nil {
		return models.DefaultNotificationSettings(), nil
	}
	return f.settings, nil
}

func songAt(t *testing.T, position int, artist, title string, year int) *models.Song {
	t.Helper()
	song := models.NewSong(position, artist, title, year)
	song.SetID(shared.GenerateID())
	return song
}

func matchAllRule() *models.NotificationRule {
	// Matches any artist containing an "e"; broad enough for fixtures.
	return models.NewNotificationRule(models.RuleTypeArtist, "e")
}

type fixture struct {
	coordinator *Coordinator
	source      *testutil.MockMetadataSource
	songs       *fakeSongStore
	state       *fakeStateStore
	transport   *testutil.MockTransport
	coverArt    *testutil.MockCoverArt
	settings    *fakeSettings
}

func newFixture(t *testing.T, catalog []*models.Song, obs ...*models.Observation) *fixture {
	t.Helper()

	source := &testutil.MockMetadataSource{Observations: obs}
	songs := newFakeSongStore(catalog...)
	state := &fakeStateStore{}
	transport := &testutil.MockTransport{}
	coverArt := &testutil.MockCoverArt{Art: &services.CoverArt{URL: "http://img/front.jpg", ReleaseID: "mbid-1"}}
	settings := &fakeSettings{}
	rules := &fakeRules{rules: []*models.NotificationRule{matchAllRule()}}

	engine := NewRuleEngine(rules, settings, transport, nil)
	coordinator := NewCoordinator(Deps{
		Source:   source,
		Matcher:  &fakeMatcher{songs: catalog},
		Songs:    songs,
		State:    state,
		CoverArt: coverArt,
		Engine:   engine,
		Settings: settings,
	}, nil)

	return &fixture{
		coordinator: coordinator,
		source:      source,
		songs:       songs,
		state:       state,
		transport:   transport,
		coverArt:    coverArt,
		settings:    settings,
	}
}

func TestCoordinatorTick(t *testing.T) {
	ctx := context.Background()

	t.Run("transition persists state and notifies", func(t *testing.T) {
		song := songAt(t, 42, "Queen", "Bohemian Rhapsody", 1975)
		f := newFixture(t, []*models.Song{song},
			&models.Observation{Artist: "Queen", Title: "Bohemian Rhapsody", FetchedAt: time.Now()})

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}

		if f.state.state == nil {
			t.Fatal("expected playback state to be persisted")
		}
		if f.state.state.Position != 42 {
			t.Errorf("expected position 42, got %d", f.state.state.Position)
		}
		if f.state.state.SongID != song.ID() {
			t.Errorf("expected song id %s, got %s", song.ID(), f.state.state.SongID)
		}
		if !strings.Contains(f.state.state.RawMetadata, "Bohemian Rhapsody") {
			t.Errorf("expected raw metadata to carry the observation, got %s", f.state.state.RawMetadata)
		}

		if len(f.transport.Sent) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(f.transport.Sent))
		}
		if !strings.Contains(f.transport.Sent[0].Message, "#42: Queen - Bohemian Rhapsody") {
			t.Errorf("unexpected message: %s", f.transport.Sent[0].Message)
		}
	})

	t.Run("same song is a no-op", func(t *testing.T) {
		song := songAt(t, 42, "Queen", "Bohemian Rhapsody", 1975)
		obs := &models.Observation{Artist: "Queen", Title: "Bohemian Rhapsody", FetchedAt: time.Now()}
		f := newFixture(t, []*models.Song{song}, obs, obs)

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("first Tick failed: %v", err)
		}
		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("second Tick failed: %v", err)
		}

		if f.state.upserts != 1 {
			t.Errorf("expected 1 state upsert, got %d", f.state.upserts)
		}
		if len(f.transport.Sent) != 1 {
			t.Errorf("expected 1 notification, got %d", len(f.transport.Sent))
		}
	})

	t.Run("exhausted sources keep previous state", func(t *testing.T) {
		song := songAt(t, 42, "Queen", "Bohemian Rhapsody", 1975)
		f := newFixture(t, []*models.Song{song},
			&models.Observation{Artist: "Queen", Title: "Bohemian Rhapsody", FetchedAt: time.Now()})

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}

		f.source.Err = shared.ErrNoMetadata
		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("expected soft outcome, got %v", err)
		}

		if f.state.state == nil || f.state.state.Position != 42 {
			t.Error("expected previous state to survive a metadata outage")
		}
	})

	t.Run("no match keeps previous state", func(t *testing.T) {
		song := songAt(t, 42, "Queen", "Bohemian Rhapsody", 1975)
		f := newFixture(t, []*models.Song{song},
			&models.Observation{Artist: "Queen", Title: "Bohemian Rhapsody", FetchedAt: time.Now()},
			&models.Observation{Artist: "Nieuwsflits", Title: "NOS Journaal", FetchedAt: time.Now()})

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("first Tick failed: %v", err)
		}
		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("expected soft outcome on unmatched observation, got %v", err)
		}

		if f.state.upserts != 1 {
			t.Errorf("expected state untouched, got %d upserts", f.state.upserts)
		}
	})
}

func TestCoordinatorCoverArt(t *testing.T) {
	ctx := context.Background()

	t.Run("observation url wins over lookup", func(t *testing.T) {
		song := songAt(t, 7, "Eagles", "Hotel California", 1977)
		f := newFixture(t, []*models.Song{song},
			&models.Observation{
				Artist: "Eagles", Title: "Hotel California",
				CoverArtURL: "http://station/cover.jpg", FetchedAt: time.Now(),
			})

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}

		if f.coverArt.Lookups != 0 {
			t.Errorf("expected no lookup when the observation carries art, got %d", f.coverArt.Lookups)
		}
		if song.CoverArtURL() != "http://station/cover.jpg" {
			t.Errorf("expected observed art url, got %s", song.CoverArtURL())
		}
	})

	t.Run("fresh cache skips lookup", func(t *testing.T) {
		song := songAt(t, 7, "Eagles", "Hotel California", 1977)
		f := newFixture(t, []*models.Song{song},
			&models.Observation{Artist: "Eagles", Title: "Hotel California", FetchedAt: time.Now()})
		f.songs.fresh[song.ID()] = true

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}

		if f.coverArt.Lookups != 0 {
			t.Errorf("expected no lookup on fresh cache, got %d", f.coverArt.Lookups)
		}
	})

	t.Run("stale cache consults lookup service", func(t *testing.T) {
		song := songAt(t, 7, "Eagles", "Hotel California", 1977)
		f := newFixture(t, []*models.Song{song},
			&models.Observation{Artist: "Eagles", Title: "Hotel California", FetchedAt: time.Now()})

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}

		if f.coverArt.Lookups != 1 {
			t.Fatalf("expected 1 lookup, got %d", f.coverArt.Lookups)
		}
		if song.CoverArtURL() != "http://img/front.jpg" {
			t.Errorf("expected looked-up art url, got %s", song.CoverArtURL())
		}
		if song.MusicBrainzID() != "mbid-1" {
			t.Errorf("expected release id recorded, got %s", song.MusicBrainzID())
		}
	})

	t.Run("lookup failure does not fail the tick", func(t *testing.T) {
		song := songAt(t, 7, "Eagles", "Hotel California", 1977)
		f := newFixture(t, []*models.Song{song},
			&models.Observation{Artist: "Eagles", Title: "Hotel California", FetchedAt: time.Now()})
		f.coverArt.Err = shared.ErrNoCoverArt

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		if f.state.upserts != 1 {
			t.Error("expected state persisted despite missing cover art")
		}
	})
}

func TestCoordinatorUpcoming(t *testing.T) {
	ctx := context.Background()

	catalog := []*models.Song{
		songAt(t, 10, "Danny Vera", "Roller Coaster", 2019),
		songAt(t, 9, "Eagles", "Hotel California", 1977),
		songAt(t, 8, "Billy Joel", "Piano Man", 1973),
		songAt(t, 7, "Boudewijn de Groot", "Avond", 1997),
	}

	t.Run("offsets announce the songs about to play", func(t *testing.T) {
		f := newFixture(t, catalog,
			&models.Observation{Artist: "Danny Vera", Title: "Roller Coaster", FetchedAt: time.Now()})
		f.settings.settings = &models.NotificationSettings{
			Targets:         []string{models.TargetPersistent},
			NotifyCurrent:   false,
			NotifyUpcoming:  true,
			UpcomingOffsets: []int{1, 2, 3},
		}

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}

		if len(f.transport.Sent) != 3 {
			t.Fatalf("expected 3 upcoming notifications, got %d", len(f.transport.Sent))
		}
		for i, want := range []string{"#9:", "#8:", "#7:"} {
			if !strings.Contains(f.transport.Sent[i].Message, want) {
				t.Errorf("notification %d: expected %s in %q", i, want, f.transport.Sent[i].Message)
			}
		}
	})

	t.Run("offsets below position one are skipped", func(t *testing.T) {
		top := songAt(t, 2, "Queen", "Bohemian Rhapsody", 1975)
		runnerUp := songAt(t, 1, "Danny Vera", "Roller Coaster", 2019)
		f := newFixture(t, []*models.Song{top, runnerUp},
			&models.Observation{Artist: "Queen", Title: "Bohemian Rhapsody", FetchedAt: time.Now()})
		f.settings.settings = &models.NotificationSettings{
			Targets:         []string{models.TargetPersistent},
			NotifyUpcoming:  true,
			UpcomingOffsets: []int{1, 2, 3},
		}

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}

		if len(f.transport.Sent) != 1 {
			t.Fatalf("expected only position 1 announced, got %d notifications", len(f.transport.Sent))
		}
		if !strings.Contains(f.transport.Sent[0].Message, "#1:") {
			t.Errorf("unexpected message: %s", f.transport.Sent[0].Message)
		}
	})

	t.Run("disabled upcoming sends nothing", func(t *testing.T) {
		f := newFixture(t, catalog,
			&models.Observation{Artist: "Danny Vera", Title: "Roller Coaster", FetchedAt: time.Now()})
		f.settings.settings = &models.NotificationSettings{
			Targets:         []string{models.TargetPersistent},
			NotifyCurrent:   false,
			NotifyUpcoming:  false,
			UpcomingOffsets: []int{1, 2, 3},
		}

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		if len(f.transport.Sent) != 0 {
			t.Errorf("expected no notifications, got %d", len(f.transport.Sent))
		}
	})
}

func TestCoordinatorQueries(t *testing.T) {
	ctx := context.Background()

	catalog := []*models.Song{
		songAt(t, 10, "Danny Vera", "Roller Coaster", 2019),
		songAt(t, 9, "Eagles", "Hotel California", 1977),
		songAt(t, 8, "Billy Joel", "Piano Man", 1973),
	}

	t.Run("current song before any tick", func(t *testing.T) {
		f := newFixture(t, catalog)
		if _, err := f.coordinator.CurrentSong(); err != shared.ErrStateNotFound {
			t.Errorf("expected ErrStateNotFound, got %v", err)
		}
	})

	t.Run("upcoming before any tick is empty, not an error", func(t *testing.T) {
		f := newFixture(t, catalog)
		upcoming, err := f.coordinator.UpcomingSongs(5)
		if err != nil {
			t.Fatalf("UpcomingSongs failed: %v", err)
		}
		if len(upcoming) != 0 {
			t.Errorf("expected empty window, got %d songs", len(upcoming))
		}
	})

	t.Run("current and upcoming after a tick", func(t *testing.T) {
		f := newFixture(t, catalog,
			&models.Observation{Artist: "Danny Vera", Title: "Roller Coaster", FetchedAt: time.Now()})

		if err := f.coordinator.Tick(ctx); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}

		current, err := f.coordinator.CurrentSong()
		if err != nil {
			t.Fatalf("CurrentSong failed: %v", err)
		}
		if current.Position() != 10 {
			t.Errorf("expected position 10, got %d", current.Position())
		}

		upcoming, err := f.coordinator.UpcomingSongs(5)
		if err != nil {
			t.Fatalf("UpcomingSongs failed: %v", err)
		}
		if len(upcoming) != 2 {
			t.Fatalf("expected 2 upcoming songs, got %d", len(upcoming))
		}
		if upcoming[0].Position() != 9 || upcoming[1].Position() != 8 {
			t.Errorf("expected positions 9,8 got %d,%d", upcoming[0].Position(), upcoming[1].Position())
		}
	})
}
