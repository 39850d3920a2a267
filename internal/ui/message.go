package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joenivl/top2000/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgPollDue MsgKind = iota
	MsgRefreshed
)

// pollDueMsg is the constructor for [MsgPollDue]
func pollDueMsg() Msg {
	return Msg{kind: MsgPollDue}
}

// refreshedMsg is the constructor for [MsgRefreshed]
func refreshedMsg(current *models.ResolvedSong, upcoming []*models.ResolvedSong, err error) Msg {
	return Msg{
		kind: MsgRefreshed,
		data: struct {
			current  *models.ResolvedSong
			upcoming []*models.ResolvedSong
			err      error
		}{current, upcoming, err},
	}
}
