package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/joenivl/top2000/internal/shared"
)

// scriptedTransport routes requests by host so the hardcoded MusicBrainz
// and Cover Art Archive URLs resolve to canned responses.
type scriptedTransport struct {
	responses map[string]string
	statuses  map[string]int
	requests  []string
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req.URL.Host+req.URL.Path)

	status := s.statuses[req.URL.Host]
	if status == 0 {
		status = http.StatusOK
	}
	body := s.responses[req.URL.Host]

	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func newTestMusicBrainzClient(transport *scriptedTransport) *MusicBrainzClient {
	cfg := shared.CoverArtConfig{
		AppName:        "top2000",
		AppVersion:     "test",
		Contact:        "test@example.com",
		RequestsPerSec: 1000,
	}
	return NewMusicBrainzClient(cfg, &http.Client{Transport: transport}, nil)
}

const releaseSearchJSON = `{"releases":[
{"id":"rel-1","title":"A Night at the Opera","score":100},
{"id":"rel-2","title":"Greatest Hits","score":90}
]}`

const frontImageJSON = `{"images":[
{"front":false,"thumbnails":{"500":"http://caa/back-500.jpg"}},
{"front":true,"thumbnails":{"500":"http://caa/front-500.jpg","large":"http://caa/front-large.jpg"}}
]}`

func TestMusicBrainzLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the front cover 500px thumbnail", func(t *testing.T) {
		transport := &scriptedTransport{responses: map[string]string{
			"musicbrainz.org":     releaseSearchJSON,
			"coverartarchive.org": frontImageJSON,
		}}
		client := newTestMusicBrainzClient(transport)

		art, err := client.Lookup(ctx, "Queen", "Bohemian Rhapsody")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if art.URL != "http://caa/front-500.jpg" {
			t.Errorf("expected front 500px thumbnail, got %s", art.URL)
		}
		if art.ReleaseID != "rel-1" {
			t.Errorf("expected first release, got %s", art.ReleaseID)
		}
	})

	t.Run("falls back to large thumbnail", func(t *testing.T) {
		transport := &scriptedTransport{responses: map[string]string{
			"musicbrainz.org":     releaseSearchJSON,
			"coverartarchive.org": `{"images":[{"front":true,"thumbnails":{"large":"http://caa/front-large.jpg"}}]}`,
		}}
		client := newTestMusicBrainzClient(transport)

		art, err := client.Lookup(ctx, "Queen", "Bohemian Rhapsody")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if art.URL != "http://caa/front-large.jpg" {
			t.Errorf("expected large thumbnail, got %s", art.URL)
		}
	})

	t.Run("no releases found", func(t *testing.T) {
		transport := &scriptedTransport{responses: map[string]string{
			"musicbrainz.org": `{"releases":[]}`,
		}}
		client := newTestMusicBrainzClient(transport)

		if _, err := client.Lookup(ctx, "Unknown", "Nothing"); !errors.Is(err, shared.ErrNoCoverArt) {
			t.Errorf("expected ErrNoCoverArt, got %v", err)
		}
	})

	t.Run("releases without artwork", func(t *testing.T) {
		transport := &scriptedTransport{
			responses: map[string]string{"musicbrainz.org": releaseSearchJSON},
			statuses:  map[string]int{"coverartarchive.org": http.StatusNotFound},
		}
		client := newTestMusicBrainzClient(transport)

		if _, err := client.Lookup(ctx, "Queen", "Bohemian Rhapsody"); !errors.Is(err, shared.ErrNoCoverArt) {
			t.Errorf("expected ErrNoCoverArt, got %v", err)
		}
	})

	t.Run("search failure propagates", func(t *testing.T) {
		transport := &scriptedTransport{
			statuses: map[string]int{"musicbrainz.org": http.StatusServiceUnavailable},
		}
		client := newTestMusicBrainzClient(transport)

		if _, err := client.Lookup(ctx, "Queen", "Bohemian Rhapsody"); !errors.Is(err, shared.ErrBadStatus) {
			t.Errorf("expected ErrBadStatus, got %v", err)
		}
	})
}
