package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
)

// editionFiles maps an edition year to the dataset file carrying its
// listing (position) rows.
var editionFiles = map[int]string{
	2025: "0065-EditionOf2025.sql",
	2024: "0063-EditionOf2024.sql",
	2023: "0059-EditionOf2023.sql",
	2022: "0053-EditionOf2022.sql",
	2021: "0050-EditionOf2021.sql",
	2020: "0046-EditionOf2020.sql",
	2019: "0044-EditionOf2019.sql",
	2018: "0041-EditionOf2018.sql",
}

// trackFiles are the dataset files carrying Track rows (id, title, artist,
// release year). Some patch files contribute only a handful of tracks but
// those tracks appear in recent listings, so all files are read.
var trackFiles = []string{
	"0002-1999.sql",
	"0004-2000.sql",
	"0006-2001.sql",
	"0008-2002.sql",
	"0010-2003.sql",
	"0012-2004.sql",
	"0014-2005.sql",
	"0016-2006.sql",
	"0018-2007.sql",
	"0020-2008.sql",
	"0022-2009.sql",
	"0024-2010.sql",
	"0026-2011.sql",
	"0028-2012.sql",
	"0030-2013.sql",
	"0032-2014.sql",
	"0034-2015.sql",
	"0036-2016.sql",
	"0038-2017.sql",
	"0040-2018.sql",
	"0043-2019.sql",
	"0045-2020.sql",
	"0048-FixListings.sql",
	"0049-2021.sql",
	"0051-AviciiHeavenFix.sql",
	"0052-2022.sql",
	"0055-FixingLists.sql",
	"0056-2023.sql",
	"0058-2023_Full.sql",
	"0062-2024.sql",
	"0064-2025.sql",
	"0066-RunLikeHell.sql",
}

// Tuple shapes vary between files: optional whitespace after commas, and
// doubled single quotes escaping a literal quote inside titles/artists.
var (
	trackTuple   = regexp.MustCompile(`[,\s]*\((\d+)\s*,\s*'([^']+(?:''[^']+)*?)'\s*,\s*'([^']+(?:''[^']+)*?)'\s*,\s*(\d+)\)`)
	listingTuple = regexp.MustCompile(`\((\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*'[^']+'\)`)
)

// ImportCatalog is the write surface the importer needs on the song store.
type ImportCatalog interface {
	Count() (int, error)
	Upsert(song *models.Song) error
	GetByArtistTitle(artist, title string) (*models.Song, error)
}

// ImportHistory records prior-edition positions.
type ImportHistory interface {
	Upsert(songID string, year, position int) error
}

type track struct {
	artist string
	title  string
	year   int
}

// Importer populates the catalog from the public Top2000app SQL dataset.
//
// The newest requested edition creates the song rows and fixes their
// current positions; every older edition only contributes position
// history, joined to existing songs by exact artist and title.
type Importer struct {
	songs   ImportCatalog
	history ImportHistory
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	years   []int
	logger  *log.Logger

	tracks map[int]track
}

// NewImporter creates an Importer downloading from baseURL for the given
// edition years.
func NewImporter(songs ImportCatalog, history ImportHistory, baseURL string, years []int, logger *log.Logger) *Importer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Importer{
		songs:   songs,
		history: history,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(4), 1),
		baseURL: strings.TrimRight(baseURL, "/"),
		years:   years,
		logger:  logger,
		tracks:  make(map[int]track),
	}
}

// Run downloads and imports the dataset. A catalog that already has songs
// is left untouched.
func (i *Importer) Run(ctx context.Context) error {
	count, err := i.songs.Count()
	if err != nil {
		return fmt.Errorf("failed to check catalog: %w", err)
	}
	if count > 0 {
		i.logger.Info("catalog already populated, skipping import", "songs", count)
		return nil
	}

	if len(i.years) == 0 {
		return fmt.Errorf("%w: no import years configured", shared.ErrImportFailed)
	}

	i.logger.Info("starting catalog import", "years", i.years)

	if err := i.importTracks(ctx); err != nil {
		return err
	}

	years := make([]int, len(i.years))
	copy(years, i.years)
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	if err := i.importListings(ctx, years[0], true); err != nil {
		return err
	}
	for _, year := range years[1:] {
		if err := i.importListings(ctx, year, false); err != nil {
			return err
		}
	}

	i.logger.Info("catalog import completed")
	return nil
}

func (i *Importer) download(ctx context.Context, filename string) (string, error) {
	if err := i.limiter.Wait(ctx); err != nil {
		return "", err
	}

	url := i.baseURL + "/" + filename
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %d", shared.ErrBadStatus, filename, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filename, err)
	}

	return string(body), nil
}

// importTracks reads every track file into the in-memory track table. The
// first file mentioning a track id wins; later files never overwrite it.
// Individual file failures are logged and skipped.
func (i *Importer) importTracks(ctx context.Context) error {
	for _, filename := range trackFiles {
		content, err := i.download(ctx, filename)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			i.logger.Warn("skipping track file", "file", filename, "err", err)
			continue
		}

		matches := trackTuple.FindAllStringSubmatch(content, -1)
		for _, m := range matches {
			id, _ := strconv.Atoi(m[1])
			if _, ok := i.tracks[id]; ok {
				continue
			}
			year, _ := strconv.Atoi(m[4])
			i.tracks[id] = track{
				title:  unescapeQuotes(m[2]),
				artist: unescapeQuotes(m[3]),
				year:   year,
			}
		}

		i.logger.Debug("parsed track file", "file", filename, "tuples", len(matches))
	}

	if len(i.tracks) == 0 {
		return fmt.Errorf("%w: no tracks parsed from dataset", shared.ErrImportFailed)
	}

	i.logger.Info("parsed track table", "tracks", len(i.tracks))
	return nil
}

func (i *Importer) importListings(ctx context.Context, year int, createSongs bool) error {
	filename, ok := editionFiles[year]
	if !ok {
		i.logger.Warn("no edition file known for year, skipping", "year", year)
		return nil
	}

	content, err := i.download(ctx, filename)
	if err != nil {
		if createSongs {
			return fmt.Errorf("%w: edition %d: %v", shared.ErrImportFailed, year, err)
		}
		i.logger.Error("skipping historical edition", "year", year, "err", err)
		return nil
	}

	matches := listingTuple.FindAllStringSubmatch(content, -1)
	i.logger.Debug("parsed edition file", "year", year, "listings", len(matches))

	imported := 0
	for _, m := range matches {
		trackID, _ := strconv.Atoi(m[1])
		position, _ := strconv.Atoi(m[3])

		t, ok := i.tracks[trackID]
		if !ok {
			i.logger.Warn("unknown track id in listing", "track_id", trackID, "position", position)
			continue
		}

		if createSongs {
			song := models.NewSong(position, t.artist, t.title, t.year)
			if err := i.songs.Upsert(song); err != nil {
				return fmt.Errorf("failed to import position %d: %w", position, err)
			}
			if err := i.history.Upsert(song.ID(), year, position); err != nil {
				return fmt.Errorf("failed to record history for position %d: %w", position, err)
			}
		} else {
			song, err := i.songs.GetByArtistTitle(t.artist, t.title)
			if err != nil {
				if errors.Is(err, shared.ErrSongNotFound) {
					continue
				}
				return fmt.Errorf("failed to look up song for history: %w", err)
			}
			if err := i.history.Upsert(song.ID(), year, position); err != nil {
				return fmt.Errorf("failed to record history: %w", err)
			}
		}

		imported++
	}

	i.logger.Info("imported edition positions", "year", year, "count", imported)
	return nil
}

func unescapeQuotes(s string) string {
	return strings.ReplaceAll(s, "''", "'")
}
