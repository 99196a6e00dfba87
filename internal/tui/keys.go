package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Enter  key.Binding
	Back   key.Binding
	Tab    key.Binding
	Quit   key.Binding
	Logout key.Binding

	FunctionTest key.Binding
	Recorder     key.Binding
	MyRobots     key.Binding
	AdminRobots  key.Binding
	AdminUsers   key.Binding

	New       key.Binding
	Rename    key.Binding
	Delete    key.Binding
	Password  key.Binding
	ChatLogs  key.Binding
	Knowledge key.Binding
	Record    key.Binding
	Cancel    key.Binding
	Save      key.Binding
	Play      key.Binding
	Refresh   key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "previous"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "next"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Logout: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "log out"),
		),
		FunctionTest: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "function test"),
		),
		Recorder: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "recorder"),
		),
		MyRobots: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "my robots"),
		),
		AdminRobots: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "robots"),
		),
		AdminUsers: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "users"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Password: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "password"),
		),
		ChatLogs: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "chat logs"),
		),
		Knowledge: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "knowledge"),
		),
		Record: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "record/stop"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "cancel"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Play: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "play"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
	}
}

// DefaultKeys is the key map used by the app
var DefaultKeys = DefaultKeyMap()
