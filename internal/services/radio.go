// Station metadata client with three-tier fallback.
//
// The station publishes no reliable now-playing feed, so the client tries a
// fixed chain of unreliable sources: the station homepage's embedded
// track-play data, inline Icecast stream metadata, and a third-party
// aggregator page. The first stage to produce an observation wins.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
)

// ObservationTTL is how long a fetched observation is served from cache
// before the fallback chain is consulted again.
const ObservationTTL = 30 * time.Second

// stageResult is the tagged outcome of one fallback stage. A stage either
// settles with an observation or fails with a reason; failure never aborts
// the chain.
type stageResult struct {
	observation *models.Observation
	err         error
}

type stage struct {
	name string
	run  func(ctx context.Context) stageResult
}

// RadioClient implements [MetadataSource] against the configured station
// sources. The observation cache is private to the client; no external
// locking is needed.
type RadioClient struct {
	cfg        shared.StationConfig
	httpClient *http.Client
	logger     *log.Logger

	mu       sync.Mutex
	cached   *models.Observation
	cacheTTL time.Duration

	stages []stage
}

// NewRadioClient creates a metadata client for the given station config.
// When httpClient is nil, a client with the configured connect and read
// timeouts is built.
func NewRadioClient(cfg shared.StationConfig, httpClient *http.Client, logger *log.Logger) *RadioClient {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if httpClient == nil {
		connect := time.Duration(cfg.ConnectTimeout) * time.Second
		if connect <= 0 {
			connect = 10 * time.Second
		}
		read := time.Duration(cfg.ReadTimeout) * time.Second
		if read <= 0 {
			read = 30 * time.Second
		}
		httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: connect}).DialContext,
				ResponseHeaderTimeout: read,
			},
		}
	}

	c := &RadioClient{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
		cacheTTL:   ObservationTTL,
	}

	c.stages = []stage{
		{name: "homepage", run: c.scrapeHomepage},
		{name: "icecast", run: c.fetchStreamMetadata},
		{name: "aggregator", run: c.scrapeAggregator},
	}

	return c
}

// FetchCurrent returns the current observation, served from cache within
// the TTL window. On a cache miss the fallback stages run in fixed order;
// each stage's failure is logged and the chain continues. Only exhaustion
// of all stages returns [shared.ErrNoMetadata].
func (c *RadioClient) FetchCurrent(ctx context.Context) (*models.Observation, error) {
	c.mu.Lock()
	if c.cached != nil && time.Since(c.cached.FetchedAt) < c.cacheTTL {
		cached := c.cached
		c.mu.Unlock()
		c.logger.Debug("returning cached observation", "artist", cached.Artist, "title", cached.Title)
		return cached, nil
	}
	c.mu.Unlock()

	for _, s := range c.stages {
		result := s.run(ctx)
		if result.err != nil {
			c.logger.Warn("metadata stage failed", "stage", s.name, "err", result.err)
			continue
		}

		obs := result.observation
		obs.FetchedAt = time.Now()

		c.mu.Lock()
		c.cached = obs
		c.mu.Unlock()

		c.logger.Debug("observation acquired", "stage", s.name, "artist", obs.Artist, "title", obs.Title)
		return obs, nil
	}

	return nil, shared.ErrNoMetadata
}

// nextData mirrors the slice of the homepage's embedded JSON we care about.
type nextData struct {
	Props struct {
		PageProps struct {
			TrackPlaysList struct {
				TracksPlays []trackPlay `json:"tracksPlays"`
			} `json:"trackPlaysList"`
		} `json:"pageProps"`
	} `json:"props"`
}

type trackPlay struct {
	Artist   string `json:"artist"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	ImageURL string `json:"imageUrl"`
}

// scrapeHomepage is the primary stage: the station homepage embeds a
// recently-played list in a __NEXT_DATA__ script tag. The first entry is
// the most recent play and may carry a cover art URL.
func (c *RadioClient) scrapeHomepage(ctx context.Context) stageResult {
	body, err := c.get(ctx, c.cfg.HomepageURL)
	if err != nil {
		return stageResult{err: err}
	}

	payload, err := extractScript(body, "__NEXT_DATA__")
	if err != nil {
		return stageResult{err: err}
	}

	var data nextData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return stageResult{err: fmt.Errorf("%w: %v", shared.ErrParseFailed, err)}
	}

	plays := data.Props.PageProps.TrackPlaysList.TracksPlays
	if len(plays) == 0 {
		return stageResult{err: fmt.Errorf("%w: no track plays in homepage data", shared.ErrParseFailed)}
	}

	current := plays[0]
	coverURL := current.Image
	if coverURL == "" {
		coverURL = current.ImageURL
	}

	return stageResult{observation: &models.Observation{
		Artist:      current.Artist,
		Title:       current.Name,
		CoverArtURL: coverURL,
	}}
}

// fetchStreamMetadata is the secondary stage: open the live stream with the
// Icy-MetaData header and parse "Artist - Title" from the icy response
// headers. The body is never read; only the headers matter.
func (c *RadioClient) fetchStreamMetadata(ctx context.Context) stageResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.StreamURL, nil)
	if err != nil {
		return stageResult{err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Icy-MetaData", "1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return stageResult{err: fmt.Errorf("stream request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return stageResult{err: fmt.Errorf("%w: %d", shared.ErrBadStatus, resp.StatusCode)}
	}

	meta := resp.Header.Get("icy-name")
	if meta == "" {
		meta = resp.Header.Get("ice-audio-info")
	}

	if artist, title, ok := splitArtistTitle(meta); ok {
		return stageResult{observation: &models.Observation{Artist: artist, Title: title}}
	}

	return stageResult{err: fmt.Errorf("%w: no icy metadata in stream headers", shared.ErrParseFailed)}
}

// scrapeAggregator is the tertiary stage: a third-party now-playing page.
// Two extraction strategies run in order: structured artist/title elements,
// then a raw "Artist - Title" text split.
func (c *RadioClient) scrapeAggregator(ctx context.Context) stageResult {
	body, err := c.get(ctx, c.cfg.FallbackURL)
	if err != nil {
		return stageResult{err: err}
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return stageResult{err: fmt.Errorf("%w: %v", shared.ErrParseFailed, err)}
	}

	track := findByClass(doc, "track_history_item", "track-title")
	if track == nil {
		return stageResult{err: fmt.Errorf("%w: no track element in aggregator page", shared.ErrParseFailed)}
	}

	artistElem := findByClass(track, "track-artist", "artist")
	titleElem := findByClass(track, "track-name", "title")
	if artistElem != nil && titleElem != nil {
		return stageResult{observation: &models.Observation{
			Artist: nodeText(artistElem),
			Title:  nodeText(titleElem),
		}}
	}

	if artist, title, ok := splitArtistTitle(nodeText(track)); ok {
		return stageResult{observation: &models.Observation{Artist: artist, Title: title}}
	}

	return stageResult{err: fmt.Errorf("%w: no artist/title in aggregator markup", shared.ErrParseFailed)}
}

func (c *RadioClient) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", shared.ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return string(body), nil
}

// extractScript pulls the text content of a <script id="..."> tag out of an
// HTML document without a full parse.
func extractScript(body, id string) (string, error) {
	marker := fmt.Sprintf(`id="%s"`, id)
	idx := strings.Index(body, marker)
	if idx < 0 {
		return "", fmt.Errorf("%w: no %s script in page", shared.ErrParseFailed, id)
	}

	open := strings.Index(body[idx:], ">")
	if open < 0 {
		return "", fmt.Errorf("%w: malformed %s script tag", shared.ErrParseFailed, id)
	}
	start := idx + open + 1

	end := strings.Index(body[start:], "</script>")
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated %s script tag", shared.ErrParseFailed, id)
	}

	return body[start : start+end], nil
}

// splitArtistTitle parses the "Artist - Title" convention used by icy
// metadata and aggregator pages. The title keeps any further separators.
func splitArtistTitle(s string) (artist, title string, ok bool) {
	if !strings.Contains(s, " - ") {
		return "", "", false
	}
	parts := strings.SplitN(s, " - ", 2)
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// findByClass walks the node tree depth-first and returns the first element
// whose class attribute contains any of the given class names.
func findByClass(n *html.Node, classes ...string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key != "class" {
				continue
			}
			for _, class := range classes {
				for _, have := range strings.Fields(attr.Val) {
					if have == class {
						return n
					}
				}
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByClass(child, classes...); found != nil {
			return found
		}
	}

	return nil
}

// nodeText concatenates the text content under a node, trimmed.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
