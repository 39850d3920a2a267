package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
)

// Playback is the coordinator surface the watch view drives.
type Playback interface {
	Tick(ctx context.Context) error
	CurrentSong() (*models.ResolvedSong, error)
	UpcomingSongs(count int) ([]*models.ResolvedSong, error)
}

// Model represents the watch view state.
type Model struct {
	ctx           context.Context
	playback      Playback
	interval      time.Duration
	upcomingCount int

	width        int
	height       int
	current      *models.ResolvedSong
	upcomingList list.Model
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates the watch view over the given playback coordinator.
func NewModel(ctx context.Context, playback Playback, interval time.Duration, upcomingCount int) Model {
	if upcomingCount <= 0 {
		upcomingCount = 10
	}

	delegate := list.NewDefaultDelegate()
	upcomingList := list.New([]list.Item{}, delegate, 0, 0)
	upcomingList.Title = "Upcoming"
	upcomingList.SetShowHelp(false)
	upcomingList.SetFilteringEnabled(false)

	return Model{
		ctx:           ctx,
		playback:      playback,
		interval:      interval,
		upcomingCount: upcomingCount,
		upcomingList:  upcomingList,
		help:          help.New(),
		keys:          newKeyMap(),
	}
}

// Init starts the first refresh immediately and schedules the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.schedule())
}

// schedule emits [MsgPollDue] after one poll interval.
func (m Model) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return pollDueMsg()
	})
}

// refresh ticks the coordinator once and re-queries the playback state.
// A missing state is not an error; it just means nothing has been detected
// yet.
func (m Model) refresh() tea.Cmd {
	playback := m.playback
	ctx := m.ctx
	count := m.upcomingCount

	return func() tea.Msg {
		if err := playback.Tick(ctx); err != nil {
			return refreshedMsg(nil, nil, err)
		}

		current, err := playback.CurrentSong()
		if err != nil {
			if errors.Is(err, shared.ErrStateNotFound) {
				return refreshedMsg(nil, nil, nil)
			}
			return refreshedMsg(nil, nil, err)
		}

		upcoming, err := playback.UpcomingSongs(count)
		if err != nil {
			return refreshedMsg(current, nil, err)
		}

		return refreshedMsg(current, upcoming, nil)
	}
}

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.upcomingList.SetSize(msg.Width, max(msg.Height-12, 5))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.refresh):
			return m, m.refresh()
		}

	case Msg:
		switch msg.kind {
		case MsgPollDue:
			return m, tea.Batch(m.refresh(), m.schedule())
		case MsgRefreshed:
			data := msg.data.(struct {
				current  *models.ResolvedSong
				upcoming []*models.ResolvedSong
				err      error
			})
			m.err = data.err
			if data.current != nil {
				m.current = data.current
				m.upcomingList.SetItems(songItems(data.upcoming))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.upcomingList, cmd = m.upcomingList.Update(msg)
	return m, cmd
}

// View renders the current song card, the upcoming list, and help.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(styles.title.Render("NPO Radio 2 Top 2000"))
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(styles.warn.Render(fmt.Sprintf("last refresh failed: %v", m.err)))
		sb.WriteString("\n")
	}

	if m.current == nil {
		sb.WriteString(styles.help.Render("Waiting for the first detection..."))
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.renderCurrent())
	}

	sb.WriteString("\n")
	sb.WriteString(m.upcomingList.View())
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))

	return sb.String()
}

func (m Model) renderCurrent() string {
	var sb strings.Builder

	headline := fmt.Sprintf("#%d  %s - %s", m.current.Position(), m.current.Artist(), m.current.Title())
	if m.current.Year() > 0 {
		headline += fmt.Sprintf(" (%d)", m.current.Year())
	}
	sb.WriteString(styles.ok.Render(headline))
	sb.WriteString("\n")

	if len(m.current.History) > 0 {
		parts := make([]string, 0, len(m.current.History))
		for _, entry := range m.current.History {
			parts = append(parts, fmt.Sprintf("%d: #%d", entry.Year, entry.Position))
		}
		sb.WriteString(styles.help.Render("Previously " + strings.Join(parts, ", ")))
		sb.WriteString("\n")
	}

	if len(m.current.FunFacts) > 0 {
		sb.WriteString(styles.warn.Render(m.current.FunFacts[0]))
		sb.WriteString("\n")
	}

	return sb.String()
}
