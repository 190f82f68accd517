package workflow

import (
	"strings"

	"github.com/alkime/snacks/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
)

// keyMap defines the interview key bindings.
type keyMap struct {
	Voice      key.Binding
	NewWorkout key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Voice: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "start/stop recording"),
		),
		NewWorkout: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "create new workout"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func renderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	return s + strings.Join(suffix, "")
}
