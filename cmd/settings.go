package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/joenivl/top2000/internal/shared"
	"github.com/urfave/cli/v3"
)

// SettingsShow prints the stored notification settings, falling back to
// the documented defaults when nothing has been stored yet.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	settings, err := p.settings.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(settings, true)
	}

	r.writePlainHeader("Notification settings")
	r.writePlain("Targets:          %s\n", strings.Join(settings.Targets, ", "))
	r.writePlain("Notify current:   %t\n", settings.NotifyCurrent)
	r.writePlain("Notify upcoming:  %t\n", settings.NotifyUpcoming)
	r.writePlain("Upcoming offsets: %s\n", joinInts(settings.UpcomingOffsets))
	return nil
}

// SettingsSet updates notification settings. Only the flags given on the
// command line change; everything else keeps its stored value.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	settings, err := p.settings.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if cmd.IsSet("target") {
		settings.Targets = cmd.StringSlice("target")
	}
	if cmd.IsSet("notify-current") {
		settings.NotifyCurrent = cmd.Bool("notify-current")
	}
	if cmd.IsSet("notify-upcoming") {
		settings.NotifyUpcoming = cmd.Bool("notify-upcoming")
	}
	if cmd.IsSet("offset") {
		offsets := make([]int, 0)
		for _, offset := range cmd.IntSlice("offset") {
			if offset < 1 {
				return fmt.Errorf("%w: offsets must be positive, got %d", shared.ErrInvalidFlag, offset)
			}
			offsets = append(offsets, int(offset))
		}
		settings.UpcomingOffsets = offsets
	}

	if err := p.settings.Update(settings); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	r.logger.Info("settings updated",
		"targets", settings.Targets,
		"notify_current", settings.NotifyCurrent,
		"notify_upcoming", settings.NotifyUpcoming,
		"offsets", settings.UpcomingOffsets)
	r.writePlainln("✓ Settings updated")
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, ", ")
}
