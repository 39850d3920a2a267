// Package ui implements the interactive watch view using bubbletea's Elm architecture.
//
// The TUI shows the currently playing countdown entry with its history and
// fun facts, plus a scrollable list of the songs about to play. A timer
// message drives the refresh loop: every poll interval the playback
// coordinator ticks once and the view re-queries the playback state.
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
//
// Keyboard navigation uses vim-style bindings (j/k, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
