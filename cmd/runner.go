package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joenivl/top2000/internal/matcher"
	"github.com/joenivl/top2000/internal/repositories"
	"github.com/joenivl/top2000/internal/services"
	"github.com/joenivl/top2000/internal/shared"
	"github.com/joenivl/top2000/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the Runner's logger, used by the watch view to redirect
// output to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, importCommand, runCommand, watchCommand, currentCommand, upcomingCommand, rulesCommand, settingsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDatabase reloads configuration from the given path when present and
// opens the configured SQLite database. Validation clamps out-of-range
// polling intervals before anything reads them.
func (r *Runner) openDatabase(configPath string) (*sql.DB, error) {
	if _, err := os.Stat(configPath); err == nil {
		if config, err := shared.LoadConfig(configPath); err == nil {
			r.config = config
		} else {
			r.logger.Warn("failed to load config, using defaults", "error", err)
		}
	}

	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	return db, nil
}

// pipeline bundles the repositories and the fully wired coordinator for a
// single command invocation.
type pipeline struct {
	songs       *repositories.SongRepository
	history     *repositories.HistoryRepository
	state       *repositories.StateRepository
	rules       *repositories.RuleRepository
	settings    *repositories.SettingsRepository
	coordinator *tasks.Coordinator
}

func (r *Runner) buildPipeline(db *sql.DB) *pipeline {
	songs := repositories.NewSongRepository(db)
	history := repositories.NewHistoryRepository(db)
	state := repositories.NewStateRepository(db)
	rules := repositories.NewRuleRepository(db)
	settings := repositories.NewSettingsRepository(db)

	radio := services.NewRadioClient(r.config.Station, r.httpClient, r.logger)
	coverArt := services.NewMusicBrainzClient(r.config.CoverArt, r.httpClient, r.logger)
	transport := services.NewNotifyTransport(r.config.Notifications.WebhookBaseURL, r.httpClient, r.logger)

	songMatcher := matcher.New(songs, history, r.config.Catalog.EditionYear, r.logger)
	engine := tasks.NewRuleEngine(rules, settings, transport, r.logger)

	coordinator := tasks.NewCoordinator(tasks.Deps{
		Source:   radio,
		Matcher:  songMatcher,
		Songs:    songs,
		State:    state,
		CoverArt: coverArt,
		Engine:   engine,
		Settings: settings,
	}, r.logger)

	return &pipeline{
		songs:       songs,
		history:     history,
		state:       state,
		rules:       rules,
		settings:    settings,
		coordinator: coordinator,
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
