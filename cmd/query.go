package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joenivl/top2000/internal/formatter"
	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
	"github.com/urfave/cli/v3"
)

// Current prints the last detected song with its fun facts and prior
// edition rankings.
func (r *Runner) Current(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	song, err := p.coordinator.CurrentSong()
	if errors.Is(err, shared.ErrStateNotFound) {
		r.writePlainln("No song detected yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load current song: %w", err)
	}

	switch format := cmd.String("format"); format {
	case "plain":
		r.writePlainHeader("Now playing")
		return r.writePlain("%s", formatter.FormatSong(song))
	case "markdown":
		return r.writePlain("%s", formatter.ExportToMarkdown(song, nil))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// Upcoming prints the songs playing next, nearest first.
func (r *Runner) Upcoming(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	count := int(cmd.Int("count"))
	if count <= 0 {
		count = r.config.Polling.UpcomingCount
	}

	songs, err := p.coordinator.UpcomingSongs(count)
	if err != nil {
		return fmt.Errorf("failed to load upcoming songs: %w", err)
	}

	switch format := cmd.String("format"); format {
	case "plain":
		r.writePlainHeader(fmt.Sprintf("Next %d songs", len(songs)))
		return r.writePlain("%s", formatter.FormatUpcoming(songs))
	case "csv":
		return r.writeCSV(songs, cmd.String("output"))
	case "markdown":
		return r.writePlain("%s", formatter.ExportToMarkdown(nil, songs))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

func (r *Runner) writeCSV(songs []*models.ResolvedSong, path string) error {
	if path == "" {
		data, err := formatter.ExportToCSV(songs)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	written, err := formatter.WriteCSVExport(songs, path)
	if err != nil {
		return err
	}
	r.writePlainln("✓ Exported %d songs to %s", len(songs), written)
	return nil
}
