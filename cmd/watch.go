package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joenivl/top2000/internal/shared"
	"github.com/joenivl/top2000/internal/ui"
	"github.com/urfave/cli/v3"
)

// Watch launches the interactive terminal view following the countdown.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/top2000-watch.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	interval := time.Duration(r.config.Polling.IntervalSeconds) * time.Second
	model := ui.NewModel(ctx, p.coordinator, interval, r.config.Polling.UpcomingCount)
	program := tea.NewProgram(model)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running watch view: %w", err)
	}

	return nil
}
