// Package levelmeter shows the live microphone input level as a row of bars.
package levelmeter

import (
	"math"
	"strings"
	"time"

	"github.com/alkime/snacks/internal/tui/style"
	"github.com/alkime/snacks/pkg/uictl"
	tea "github.com/charmbracelet/bubbletea"
)

// blockChars are the fill levels, empty first.
const blockChars = " ▁▂▃▄▅▆▇█"

const frameInterval = 50 * time.Millisecond

// TickMsg triggers a redraw.
type TickMsg struct{}

// Model renders one bar per level value, oldest on the left.
type Model struct {
	levels uictl.Levels[float64]
	width  int
}

// New creates a meter width bars wide. levels may be nil.
func New(levels uictl.Levels[float64], width int) Model {
	return Model{
		levels: levels,
		width:  max(width, 1),
	}
}

// Init starts the redraw ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update keeps the ticker running.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); ok {
		return m, tick()
	}

	return m, nil
}

// View renders the bars, or a flat baseline when there is no signal source.
func (m Model) View() string {
	var values []float64
	if m.levels != nil {
		values = m.levels.Read()
	}

	if len(values) == 0 {
		return style.Muted.Render(strings.Repeat("▁", m.width))
	}

	runes := []rune(blockChars)

	var sb strings.Builder
	for col := range m.width {
		level := 0.0
		if col < len(values) {
			level = values[col]
		}

		sb.WriteRune(runes[blockIndex(level, len(runes)-1)])
	}

	return style.Meter.Render(sb.String())
}

// blockIndex maps a level in [0, 1] onto a block with a square-root curve so
// quiet speech still shows.
func blockIndex(level float64, top int) int {
	if level <= 0 {
		return 0
	}

	idx := int(math.Ceil(math.Sqrt(min(level, 1)) * float64(top)))

	return min(max(idx, 1), top)
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}
