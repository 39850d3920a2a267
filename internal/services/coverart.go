// MusicBrainz / Cover Art Archive implementation of [CoverArtService]
//
// Release search API: https://musicbrainz.org/doc/MusicBrainz_API/Search
// Cover Art Archive: https://musicbrainz.org/doc/Cover_Art_Archive/API
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/joenivl/top2000/internal/shared"
)

const (
	musicBrainzBaseURL  = "https://musicbrainz.org/ws/2"
	coverArtBaseURL     = "https://coverartarchive.org"
	releaseSearchLimit  = 5
	releaseAttemptLimit = 3
)

// mbReleaseSearch is the slice of the MusicBrainz search response we use.
type mbReleaseSearch struct {
	Releases []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Score int    `json:"score"`
	} `json:"releases"`
}

// caaImageList is the Cover Art Archive image listing for one release.
type caaImageList struct {
	Images []struct {
		Front      bool              `json:"front"`
		Thumbnails map[string]string `json:"thumbnails"`
	} `json:"images"`
}

// MusicBrainzClient implements [CoverArtService] against the public
// MusicBrainz and Cover Art Archive APIs. Requests are rate limited to stay
// within the MusicBrainz usage policy (one request per second by default).
type MusicBrainzClient struct {
	cfg        shared.CoverArtConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewMusicBrainzClient creates a cover art client. When httpClient is nil,
// [http.DefaultClient] is used.
func NewMusicBrainzClient(cfg shared.CoverArtConfig, httpClient *http.Client, logger *log.Logger) *MusicBrainzClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1.0
	}

	return &MusicBrainzClient{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// Lookup searches MusicBrainz releases for the track and returns the first
// usable Cover Art Archive image, preferring front covers and 500px
// thumbnails. Returns [shared.ErrNoCoverArt] when none of the candidate
// releases has artwork.
func (c *MusicBrainzClient) Lookup(ctx context.Context, artist, title string) (*CoverArt, error) {
	query := fmt.Sprintf(`artist:"%s" AND recording:"%s"`, artist, title)
	endpoint := fmt.Sprintf("%s/release/?query=%s&limit=%d&fmt=json",
		musicBrainzBaseURL, url.QueryEscape(query), releaseSearchLimit)

	var search mbReleaseSearch
	if err := c.getJSON(ctx, endpoint, &search); err != nil {
		return nil, fmt.Errorf("musicbrainz search failed: %w", err)
	}

	if len(search.Releases) == 0 {
		c.logger.Debug("no releases found", "artist", artist, "title", title)
		return nil, shared.ErrNoCoverArt
	}

	attempts := search.Releases
	if len(attempts) > releaseAttemptLimit {
		attempts = attempts[:releaseAttemptLimit]
	}

	for _, release := range attempts {
		if release.ID == "" {
			continue
		}

		imageURL, err := c.frontImage(ctx, release.ID)
		if err != nil {
			c.logger.Debug("no cover art for release", "release", release.ID, "err", err)
			continue
		}

		return &CoverArt{URL: imageURL, ReleaseID: release.ID}, nil
	}

	return nil, shared.ErrNoCoverArt
}

// frontImage fetches the image listing for a release and picks the best
// thumbnail: front cover first, falling back to the first image.
func (c *MusicBrainzClient) frontImage(ctx context.Context, releaseID string) (string, error) {
	endpoint := fmt.Sprintf("%s/release/%s", coverArtBaseURL, releaseID)

	var listing caaImageList
	if err := c.getJSON(ctx, endpoint, &listing); err != nil {
		return "", err
	}

	if len(listing.Images) == 0 {
		return "", shared.ErrNoCoverArt
	}

	for _, img := range listing.Images {
		if !img.Front {
			continue
		}
		if url := pickThumbnail(img.Thumbnails); url != "" {
			return url, nil
		}
	}

	if url := pickThumbnail(listing.Images[0].Thumbnails); url != "" {
		return url, nil
	}

	return "", shared.ErrNoCoverArt
}

func pickThumbnail(thumbnails map[string]string) string {
	if url := thumbnails["500"]; url != "" {
		return url
	}
	return thumbnails["large"]
}

// getJSON performs a rate-limited GET and decodes the JSON response.
func (c *MusicBrainzClient) getJSON(ctx context.Context, endpoint string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("%s/%s (%s)", c.cfg.AppName, c.cfg.AppVersion, c.cfg.Contact))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", shared.ErrBadStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
