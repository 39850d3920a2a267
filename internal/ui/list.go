package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/joenivl/top2000/internal/models"
)

var _ list.Item = songItem{}

// songItem wraps [models.ResolvedSong] to implement [list.Item].
type songItem struct {
	song *models.ResolvedSong
}

func (i songItem) FilterValue() string { return i.song.Title() }

func (i songItem) Title() string {
	return fmt.Sprintf("#%d %s", i.song.Position(), i.song.Title())
}

func (i songItem) Description() string {
	desc := i.song.Artist()
	if i.song.Year() > 0 {
		desc = fmt.Sprintf("%s • %d", desc, i.song.Year())
	}
	return desc
}

func songItems(songs []*models.ResolvedSong) []list.Item {
	items := make([]list.Item, 0, len(songs))
	for _, song := range songs {
		items = append(items, songItem{song: song})
	}
	return items
}
