package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/joenivl/top2000/internal/shared"
)

const homepageHTML = `<!DOCTYPE html><html><head>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"trackPlaysList":{"tracksPlays":[
{"artist":"Queen","name":"Bohemian Rhapsody","image":"http://img/queen.jpg"},
{"artist":"Eagles","name":"Hotel California"}
]}}}}
</script></head><body></body></html>`

const aggregatorHTML = `<html><body>
<div class="track_history_item">
  <span class="track-artist">Golden Earring</span>
  <span class="track-name">Radar Love</span>
</div></body></html>`

const aggregatorPlainHTML = `<html><body>
<div class="track_history_item">Golden Earring - Radar Love</div>
</body></html>`

// stationServer serves all three sources from one listener; handlers may be
// nil to return 503.
func stationServer(t *testing.T, homepage, stream, aggregator http.HandlerFunc) (*RadioClient, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	register := func(path string, h http.HandlerFunc) {
		if h == nil {
			h = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		}
		mux.HandleFunc(path, h)
	}
	register("/homepage", homepage)
	register("/stream", stream)
	register("/aggregator", aggregator)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := shared.StationConfig{
		HomepageURL: server.URL + "/homepage",
		StreamURL:   server.URL + "/stream",
		FallbackURL: server.URL + "/aggregator",
		UserAgent:   "test-agent",
	}
	return NewRadioClient(cfg, server.Client(), nil), server
}

func serveString(s string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(s))
	}
}

func TestFetchCurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("homepage stage wins when available", func(t *testing.T) {
		client, _ := stationServer(t, serveString(homepageHTML), nil, nil)

		obs, err := client.FetchCurrent(ctx)
		if err != nil {
			t.Fatalf("FetchCurrent failed: %v", err)
		}
		if obs.Artist != "Queen" || obs.Title != "Bohemian Rhapsody" {
			t.Errorf("unexpected observation: %s - %s", obs.Artist, obs.Title)
		}
		if obs.CoverArtURL != "http://img/queen.jpg" {
			t.Errorf("expected cover art from homepage, got %q", obs.CoverArtURL)
		}
		if obs.FetchedAt.IsZero() {
			t.Error("expected FetchedAt to be stamped")
		}
	})

	t.Run("falls back to stream headers", func(t *testing.T) {
		stream := func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Icy-MetaData") != "1" {
				t.Error("expected Icy-MetaData header on stream request")
			}
			w.Header().Set("icy-name", "Boudewijn de Groot - Avond")
			w.WriteHeader(http.StatusOK)
		}
		client, _ := stationServer(t, nil, stream, nil)

		obs, err := client.FetchCurrent(ctx)
		if err != nil {
			t.Fatalf("FetchCurrent failed: %v", err)
		}
		if obs.Artist != "Boudewijn de Groot" || obs.Title != "Avond" {
			t.Errorf("unexpected observation: %s - %s", obs.Artist, obs.Title)
		}
	})

	t.Run("falls back to aggregator markup", func(t *testing.T) {
		client, _ := stationServer(t, nil, nil, serveString(aggregatorHTML))

		obs, err := client.FetchCurrent(ctx)
		if err != nil {
			t.Fatalf("FetchCurrent failed: %v", err)
		}
		if obs.Artist != "Golden Earring" || obs.Title != "Radar Love" {
			t.Errorf("unexpected observation: %s - %s", obs.Artist, obs.Title)
		}
	})

	t.Run("aggregator text split fallback", func(t *testing.T) {
		client, _ := stationServer(t, nil, nil, serveString(aggregatorPlainHTML))

		obs, err := client.FetchCurrent(ctx)
		if err != nil {
			t.Fatalf("FetchCurrent failed: %v", err)
		}
		if obs.Artist != "Golden Earring" || obs.Title != "Radar Love" {
			t.Errorf("unexpected observation: %s - %s", obs.Artist, obs.Title)
		}
	})

	t.Run("all stages exhausted", func(t *testing.T) {
		client, _ := stationServer(t, nil, nil, nil)

		if _, err := client.FetchCurrent(ctx); !errors.Is(err, shared.ErrNoMetadata) {
			t.Errorf("expected ErrNoMetadata, got %v", err)
		}
	})

	t.Run("observations are cached within the TTL", func(t *testing.T) {
		var hits int32
		homepage := func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.Write([]byte(homepageHTML))
		}
		client, _ := stationServer(t, homepage, nil, nil)

		for range 3 {
			if _, err := client.FetchCurrent(ctx); err != nil {
				t.Fatalf("FetchCurrent failed: %v", err)
			}
		}

		if got := atomic.LoadInt32(&hits); got != 1 {
			t.Errorf("expected 1 upstream hit, got %d", got)
		}
	})

	t.Run("malformed homepage data degrades to the next stage", func(t *testing.T) {
		stream := func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("icy-name", "Eagles - Hotel California")
			w.WriteHeader(http.StatusOK)
		}
		client, _ := stationServer(t, serveString("<html>no next data</html>"), stream, nil)

		obs, err := client.FetchCurrent(ctx)
		if err != nil {
			t.Fatalf("FetchCurrent failed: %v", err)
		}
		if obs.Artist != "Eagles" {
			t.Errorf("expected fallback observation, got %s", obs.Artist)
		}
	})
}

func TestSplitArtistTitle(t *testing.T) {
	cases := []struct {
		input  string
		artist string
		title  string
		ok     bool
	}{
		{"Queen - Bohemian Rhapsody", "Queen", "Bohemian Rhapsody", true},
		{"ACDC - Back - In Black", "ACDC", "Back - In Black", true},
		{"  Queen  -  Radio Ga Ga ", "Queen", "Radio Ga Ga", true},
		{"NPO Radio 2", "", "", false},
		{"", "", "", false},
	}

	for _, tc := range cases {
		artist, title, ok := splitArtistTitle(tc.input)
		if ok != tc.ok || artist != tc.artist || title != tc.title {
			t.Errorf("splitArtistTitle(%q) = %q, %q, %v", tc.input, artist, title, ok)
		}
	}
}

func TestExtractScript(t *testing.T) {
	t.Run("extracts script payload", func(t *testing.T) {
		payload, err := extractScript(`<script id="__NEXT_DATA__" type="application/json">{"a":1}</script>`, "__NEXT_DATA__")
		if err != nil {
			t.Fatalf("extractScript failed: %v", err)
		}
		if payload != `{"a":1}` {
			t.Errorf("unexpected payload %q", payload)
		}
	})

	t.Run("missing script id", func(t *testing.T) {
		if _, err := extractScript("<html></html>", "__NEXT_DATA__"); !errors.Is(err, shared.ErrParseFailed) {
			t.Errorf("expected ErrParseFailed, got %v", err)
		}
	})

	t.Run("unterminated script", func(t *testing.T) {
		if _, err := extractScript(`<script id="x">{"a":1}`, "x"); !errors.Is(err, shared.ErrParseFailed) {
			t.Errorf("expected ErrParseFailed, got %v", err)
		}
	})
}
