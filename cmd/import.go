package main

import (
	"context"
	"fmt"

	"github.com/joenivl/top2000/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Import downloads the published dataset files and populates the catalog.
// The newest configured edition becomes the ranked catalog, every older
// edition contributes position history only.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	count, err := p.songs.Count()
	if err != nil {
		return fmt.Errorf("failed to inspect catalog: %w", err)
	}

	if count > 0 {
		if !cmd.Bool("force") {
			r.writePlainln("Catalog already holds %d songs. Use --force to re-import.", count)
			return nil
		}

		r.logger.Info("clearing existing catalog", "songs", count)
		if err := p.state.Clear(); err != nil {
			return err
		}
		if err := p.songs.DeleteAll(); err != nil {
			return err
		}
	}

	importer := tasks.NewImporter(p.songs, p.history, r.config.Catalog.DatasetURL, r.config.Catalog.ImportYears, r.logger)
	if err := importer.Run(ctx); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	count, err = p.songs.Count()
	if err != nil {
		return fmt.Errorf("failed to count imported songs: %w", err)
	}

	r.writePlainln("✓ Catalog imported: %d songs", count)
	return nil
}
