package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/services"
	"github.com/joenivl/top2000/internal/shared"
)

// NotificationTitle heads every dispatched message.
const NotificationTitle = "NPO Radio 2 Top 2000"

// RuleEngine decides whether a resolved song should trigger a notification
// and delivers it to every configured target.
type RuleEngine struct {
	rules     RuleSource
	settings  SettingsSource
	transport services.Transport
	logger    *log.Logger
}

// NewRuleEngine creates a RuleEngine over the given rule and settings
// stores and transport.
func NewRuleEngine(rules RuleSource, settings SettingsSource, transport services.Transport, logger *log.Logger) *RuleEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &RuleEngine{
		rules:     rules,
		settings:  settings,
		transport: transport,
		logger:    logger,
	}
}

// ShouldNotify applies both gates: the per-type settings toggle, then the
// rule scan in stored order. A song is notified at most once no matter how
// many rules match. The loaded settings are returned so callers can
// dispatch without a second store read.
func (e *RuleEngine) ShouldNotify(song *models.ResolvedSong, isCurrent bool) (bool, *models.NotificationSettings, error) {
	settings, err := e.settings.Get()
	if err != nil {
		return false, nil, fmt.Errorf("failed to load notification settings: %w", err)
	}

	if isCurrent && !settings.NotifyCurrent {
		return false, settings, nil
	}
	if !isCurrent && !settings.NotifyUpcoming {
		return false, settings, nil
	}

	notify, err := e.MatchesRules(song.Song)
	return notify, settings, err
}

// MatchesRules reports whether any enabled rule matches the song. Rules are
// tested in stored order and the first match short-circuits.
func (e *RuleEngine) MatchesRules(song *models.Song) (bool, error) {
	rules, err := e.rules.List(true)
	if err != nil {
		return false, fmt.Errorf("failed to load notification rules: %w", err)
	}

	for _, rule := range rules {
		if rule.Matches(song) {
			e.logger.Info("notification rule matched",
				"rule_type", rule.RuleType(), "pattern", rule.Pattern(),
				"position", song.Position())
			return true, nil
		}
	}

	return false, nil
}

// Evaluate runs both gates and dispatches when they pass. Used for the
// current song on a transition.
func (e *RuleEngine) Evaluate(ctx context.Context, song *models.ResolvedSong, isCurrent bool) error {
	notify, settings, err := e.ShouldNotify(song, isCurrent)
	if err != nil {
		return err
	}
	if !notify {
		return nil
	}

	e.Dispatch(ctx, song, settings, isCurrent)
	return nil
}

// Dispatch composes the message and sends it to every configured target.
// A failure on one target is logged and does not block the remaining
// targets.
func (e *RuleEngine) Dispatch(ctx context.Context, song *models.ResolvedSong, settings *models.NotificationSettings, isCurrent bool) {
	message := ComposeMessage(song, isCurrent)

	for _, target := range settings.Targets {
		if err := e.transport.Send(ctx, target, NotificationTitle, message, song.CoverArtURL()); err != nil {
			e.logger.Error("failed to send notification", "target", target, "err", err)
			continue
		}

		e.logger.Info("sent notification",
			"target", target, "position", song.Position(),
			"artist", song.Artist(), "title", song.Title())
	}
}

// ComposeMessage renders the single human-readable notification body:
// position, artist, title, year when known, and the first fun fact if any.
func ComposeMessage(song *models.ResolvedSong, isCurrent bool) string {
	var message string
	if isCurrent {
		message = fmt.Sprintf("Nu op Radio 2:\n#%d: %s - %s", song.Position(), song.Artist(), song.Title())
	} else {
		message = fmt.Sprintf("Binnenkort op Radio 2:\n#%d: %s - %s", song.Position(), song.Artist(), song.Title())
	}

	if song.Year() > 0 {
		message += fmt.Sprintf(" (%d)", song.Year())
	}

	if len(song.FunFacts) > 0 {
		message += "\n\n" + song.FunFacts[0]
	}

	return message
}
