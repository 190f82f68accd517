// Package workflow implements the voice interview screen: three recorded
// answers, then a streamed workout plan.
package workflow

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/alkime/snacks/internal/audio"
	"github.com/alkime/snacks/internal/interview"
	"github.com/alkime/snacks/internal/tui/components/labeledspinner"
	"github.com/alkime/snacks/internal/tui/components/levelmeter"
	"github.com/alkime/snacks/internal/tui/style"
	"github.com/alkime/snacks/pkg/uictl"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 80
	meterWidth    = 40
	progressWidth = 40
	planHeight    = 16
	// rows used by everything but the plan box
	chromeHeight = 14

	msgIdle          = "Press space and answer the prompts"
	msgMicStarting   = "Starting microphone..."
	msgProcessing    = "Processing your audio..."
	msgGenerating    = "Generating your personalized workout..."
	msgYourWorkout   = "Your Workout"
	msgMicDenied     = "Failed to access microphone. Please check your permissions."
	msgProcessFailed = "Failed to process audio: "
	msgWorkoutFailed = "Failed to generate workout: "
)

// Microphone records one answer at a time.
type Microphone interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (audio.Clip, error)
}

// API is the snacks server as seen by the interview.
type API interface {
	Transcribe(ctx context.Context, clip audio.Clip, step interview.Step) (string, error)
	GenerateWorkout(ctx context.Context, answers interview.Answers) iter.Seq2[string, error]
}

// Controls wires the interview to the microphone and the server.
type Controls struct {
	Mic Microphone
	// Levels feeds the input meter; nil shows a flat line.
	Levels uictl.Levels[float64]
	API    API
}

// Interview is the bubbletea model for one voice interview at a time.
type Interview struct {
	ctx      context.Context
	cancel   context.CancelFunc
	keys     keyMap
	controls Controls
	session  *interview.Session

	status    labeledspinner.Model
	stopwatch stopwatch.Model
	progress  progress.Model
	meter     levelmeter.Model
	plan      viewport.Model
	width     int

	micOn   bool
	errText string

	next func() (string, error, bool)
	stop func()
}

// NewInterview creates the interview screen.
func NewInterview(controls Controls) *Interview {
	ctx, cancel := context.WithCancel(context.Background())

	return &Interview{
		ctx:       ctx,
		cancel:    cancel,
		keys:      defaultKeyMap(),
		controls:  controls,
		session:   interview.NewSession(),
		status:    labeledspinner.New(spinner.Dot, ""),
		stopwatch: stopwatch.New(),
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(progressWidth),
			progress.WithoutPercentage(),
		),
		meter: levelmeter.New(controls.Levels, meterWidth),
		plan:  viewport.New(defaultWidth-4, planHeight),
		width: defaultWidth,
	}
}

// Session exposes the interview state, mainly for tests.
func (m *Interview) Session() *interview.Session {
	return m.session
}

func (m *Interview) Init() tea.Cmd {
	return tea.Batch(m.status.Init(), m.meter.Init())
}

func (m *Interview) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case micStartedMsg:
		cmds = append(cmds, m.handleMicStarted(msg))

	case clipRecordedMsg:
		if msg.err != nil {
			m.fail(msgProcessFailed+msg.err.Error(), msg.err)
			break
		}

		cmds = append(cmds, m.transcribeCmd(msg.clip, m.session.Step()))

	case transcribedMsg:
		cmds = append(cmds, m.handleTranscribed(msg))

	case workoutChunkMsg:
		if err := m.session.Append(msg.text); err != nil {
			slog.Warn("dropping workout chunk", "error", err)
			break
		}

		m.refreshPlan()
		cmds = append(cmds, m.pullCmd())

	case workoutDoneMsg:
		m.closeStream()

		if err := m.session.Finish(); err != nil {
			slog.Warn("workout finished out of order", "error", err)
		}

	case workoutFailedMsg:
		m.closeStream()
		m.fail(msgWorkoutFailed+msg.err.Error(), msg.err)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.status, cmd = m.status.Update(msg)
		cmds = append(cmds, cmd)

	case levelmeter.TickMsg:
		var cmd tea.Cmd
		m.meter, cmd = m.meter.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.stopwatch, cmd = m.stopwatch.Update(teaMsg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Interview) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.closeStream()
		m.cancel()

		return tea.Quit

	case key.Matches(msg, m.keys.Voice):
		return m.toggleVoice()

	case key.Matches(msg, m.keys.NewWorkout):
		if state := m.session.State(); state == interview.StateDone || state == interview.StateFailed {
			m.session.Reset()
			m.errText = ""
			m.refreshPlan()
		}

		return nil
	}

	// remaining keys scroll the plan
	var cmd tea.Cmd
	m.plan, cmd = m.plan.Update(msg)

	return cmd
}

// toggleVoice is the single voice button: start an interview, or stop the
// current answer. It does nothing while the app is busy.
func (m *Interview) toggleVoice() tea.Cmd {
	switch m.session.State() {
	case interview.StateIdle, interview.StateDone, interview.StateFailed:
		if err := m.session.Start(); err != nil {
			slog.Error("cannot start interview", "error", err)
			return nil
		}

		m.errText = ""
		m.refreshPlan()

		return m.startMicCmd()

	case interview.StateRecording:
		if !m.micOn {
			return nil
		}

		if err := m.session.Stop(); err != nil {
			slog.Error("cannot stop recording", "error", err)
			return nil
		}

		m.micOn = false

		return tea.Batch(m.stopwatch.Stop(), m.stopMicCmd())

	default:
		return nil
	}
}

func (m *Interview) handleMicStarted(msg micStartedMsg) tea.Cmd {
	if m.session.State() != interview.StateRecording {
		return nil
	}

	if msg.err != nil {
		slog.Error("microphone unavailable", "error", msg.err)
		m.fail(msgMicDenied, msg.err)

		return nil
	}

	m.micOn = true

	return tea.Sequence(m.stopwatch.Reset(), m.stopwatch.Start())
}

func (m *Interview) handleTranscribed(msg transcribedMsg) tea.Cmd {
	if msg.err != nil {
		m.fail(msgProcessFailed+msg.err.Error(), msg.err)
		return nil
	}

	if err := m.session.Transcribed(msg.text); err != nil {
		m.fail(msgProcessFailed+err.Error(), err)
		return nil
	}

	slog.Info("answer transcribed", "step", m.session.Step(), "state", m.session.State())

	if m.session.State() == interview.StateGenerating {
		return m.startWorkout()
	}

	return m.startMicCmd()
}

func (m *Interview) fail(text string, err error) {
	m.micOn = false
	m.errText = text
	m.session.Fail(err)
}

func (m *Interview) startMicCmd() tea.Cmd {
	mic, ctx := m.controls.Mic, m.ctx

	return func() tea.Msg {
		return micStartedMsg{err: mic.Start(ctx)}
	}
}

func (m *Interview) stopMicCmd() tea.Cmd {
	mic, ctx := m.controls.Mic, m.ctx

	return func() tea.Msg {
		clip, err := mic.Stop(ctx)
		return clipRecordedMsg{clip: clip, err: err}
	}
}

func (m *Interview) transcribeCmd(clip audio.Clip, step interview.Step) tea.Cmd {
	api, ctx := m.controls.API, m.ctx

	return func() tea.Msg {
		text, err := api.Transcribe(ctx, clip, step)
		return transcribedMsg{text: text, err: err}
	}
}

// startWorkout requests the plan once for the collected answers and starts
// pulling chunks, one command per chunk.
func (m *Interview) startWorkout() tea.Cmd {
	m.closeStream()
	m.next, m.stop = iter.Pull2(m.controls.API.GenerateWorkout(m.ctx, m.session.Answers()))

	return m.pullCmd()
}

func (m *Interview) pullCmd() tea.Cmd {
	next := m.next
	if next == nil {
		return nil
	}

	return func() tea.Msg {
		chunk, err, ok := next()

		switch {
		case !ok:
			return workoutDoneMsg{}
		case err != nil:
			return workoutFailedMsg{err: err}
		default:
			return workoutChunkMsg{text: chunk}
		}
	}
}

func (m *Interview) closeStream() {
	if m.stop != nil {
		m.stop()
	}

	m.next, m.stop = nil, nil
}

func (m *Interview) resize(width, height int) {
	m.width = width
	m.plan.Width = max(width-4, 20)
	m.plan.Height = max(min(planHeight, height-chromeHeight), 3)
	m.refreshPlan()
}

func (m *Interview) refreshPlan() {
	wrapped := lipgloss.NewStyle().Width(m.plan.Width).Render(m.session.Plan())
	m.plan.SetContent(wrapped)
	m.plan.GotoBottom()
}

func (m *Interview) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Snack Workout"))
	sb.WriteString("\n")
	sb.WriteString(m.progress.ViewAs(m.session.Progress()))
	sb.WriteString(" ")
	sb.WriteString(style.Subtitle.Render(m.progressLabel()))
	sb.WriteString("\n\n")

	sb.WriteString(m.stateView())
	sb.WriteString("\n\n")

	if heard := m.session.Transcript(); heard != "" {
		sb.WriteString(style.Label.Render("I heard: "))
		sb.WriteString(heard)
		sb.WriteString("\n\n")
	}

	sb.WriteString(m.answersView())
	sb.WriteString("\n")
	sb.WriteString(m.helpView())

	return sb.String()
}

func (m *Interview) progressLabel() string {
	switch m.session.State() {
	case interview.StateIdle:
		return "Ready"
	case interview.StateGenerating, interview.StateDone:
		return fmt.Sprintf("%d of %d answered", interview.StepCount, interview.StepCount)
	default:
		return fmt.Sprintf("Question %d of %d", int(m.session.Step())+1, interview.StepCount)
	}
}

func (m *Interview) stateView() string {
	question := m.session.Step().Question()

	switch m.session.State() {
	case interview.StateRecording:
		if !m.micOn {
			return style.Subtitle.Render(msgMicStarting)
		}

		return style.Recording.Render("● Recording") + " " + style.Subtitle.Render(m.stopwatch.View()) +
			"\n" + style.Question.Render(question) +
			"\n" + m.meter.View()

	case interview.StateProcessing:
		s := m.status
		s.Title = msgProcessing

		return s.WithSubtitle(question).View()

	case interview.StateGenerating:
		s := m.status
		s.Title = msgGenerating

		if m.session.Plan() == "" {
			return s.View()
		}

		return s.View() + "\n" + style.Plan.Render(m.plan.View())

	case interview.StateDone:
		return style.Success.Render(msgYourWorkout) + "\n" + style.Plan.Render(m.plan.View())

	case interview.StateFailed:
		return style.Error.Render(m.errText)

	default:
		return style.Subtitle.Render(msgIdle)
	}
}

func (m *Interview) answersView() string {
	answers := m.session.Answers()

	var sb strings.Builder
	for _, step := range interview.Steps() {
		sb.WriteString(style.Label.Render(step.Label() + ": "))

		if value := answers.Get(step); value != "" {
			sb.WriteString(value)
		} else {
			sb.WriteString(style.Muted.Render("-"))
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func (m *Interview) helpView() string {
	var help []string

	switch m.session.State() {
	case interview.StateProcessing, interview.StateGenerating:
	case interview.StateRecording:
		if m.micOn {
			help = append(help, renderKeyHelp(m.keys.Voice))
		}
	case interview.StateDone, interview.StateFailed:
		help = append(help, renderKeyHelp(m.keys.Voice), renderKeyHelp(m.keys.NewWorkout))
	default:
		help = append(help, renderKeyHelp(m.keys.Voice))
	}

	help = append(help, renderKeyHelp(m.keys.Quit))

	return strings.Join(help, " ")
}
