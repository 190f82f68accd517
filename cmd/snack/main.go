package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/alkime/snacks/internal/audio"
	"github.com/alkime/snacks/internal/client"
	"github.com/alkime/snacks/internal/interview"
	"github.com/alkime/snacks/internal/keyring"
	"github.com/alkime/snacks/internal/logger"
	"github.com/alkime/snacks/internal/tui/workflow"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	meterBars         = 40
	serverWaitTimeout = 5 * time.Second
	serverPollEvery   = 250 * time.Millisecond
)

// CLI defines the snack command structure.
type CLI struct {
	Server string `flag:"" env:"SNACK_SERVER_URL" default:"http://localhost:8080" help:"Snacks server URL"`

	// Default TUI command (runs when no subcommand given)
	TUI TUICmd `cmd:"" default:"withargs" help:"Launch the voice interview"`

	// Subcommands
	Workout    WorkoutCmd    `cmd:"" help:"Generate a workout from typed answers"`
	Transcribe TranscribeCmd `cmd:"" help:"Transcribe an audio file as the answer to one step"`
	Devices    DevicesCmd    `cmd:"" help:"List available audio devices"`
	Config     ConfigCmd     `cmd:"" help:"Manage configuration"`
}

// TUICmd is the default command that runs the voice interview.
type TUICmd struct {
	LogFile string `flag:"" default:"snack.log" help:"Where to write logs while the UI is running"`
	Debug   bool   `flag:"" help:"Log at debug level"`
}

// Run executes the TUI command.
func (c *TUICmd) Run(cli *CLI) error {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}

	logFile, err := logger.SetupFileLogger(c.LogFile, level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := newClient(cli.Server)
	if err := waitForServer(ctx, api); err != nil {
		return err
	}

	rec := audio.NewRecorder(audio.NewDevice(audio.DefaultDeviceConfig()), audio.DefaultDeviceConfig().EncoderConfig())
	defer func() {
		rec.Close(context.WithoutCancel(ctx))
		slog.Debug("Audio device deallocated")
	}()

	model := workflow.NewInterview(workflow.Controls{
		Mic:    rec,
		Levels: rec.Meter(meterBars),
		API:    api,
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}

		return fmt.Errorf("interview UI failed: %w", err)
	}

	fmt.Println("\nfinished. enjoy your snack!")

	return nil
}

// WorkoutCmd skips the interview and streams a workout for typed answers.
type WorkoutCmd struct {
	Time    string `flag:"" required:"" help:"Available time, e.g. '15 minutes'"`
	Energy  string `flag:"" required:"" help:"Current energy level"`
	Outcome string `flag:"" required:"" help:"Desired outcome"`
}

// Run executes the workout command.
func (c *WorkoutCmd) Run(cli *CLI) error {
	return c.run(context.Background(), newClient(cli.Server), os.Stdout)
}

func (c *WorkoutCmd) run(ctx context.Context, api *client.Client, out io.Writer) error {
	answers := interview.Answers{
		Time:           c.Time,
		EnergyLevel:    c.Energy,
		DesiredOutcome: c.Outcome,
	}

	for chunk, err := range api.GenerateWorkout(ctx, answers) {
		if err != nil {
			return fmt.Errorf("failed to generate workout: %w", err)
		}

		if _, err := io.WriteString(out, chunk); err != nil {
			return err
		}
	}

	_, err := io.WriteString(out, "\n")

	return err
}

// TranscribeCmd uploads an existing recording as the answer to one step.
type TranscribeCmd struct {
	File string `arg:"" type:"existingfile" help:"Audio file; .pcm and .raw are treated as S16LE mono at 16kHz"`
	Step int    `flag:"" default:"0" help:"Interview step the recording answers (0-2)"`
}

// Run executes the transcribe command.
func (c *TranscribeCmd) Run(cli *CLI) error {
	return c.run(context.Background(), newClient(cli.Server), os.Stdout)
}

func (c *TranscribeCmd) run(ctx context.Context, api *client.Client, out io.Writer) error {
	step := interview.Step(c.Step)
	if !step.Valid() {
		return fmt.Errorf("invalid step %d: must be between 0 and %d", c.Step, interview.StepCount-1)
	}

	clip, err := loadClip(c.File)
	if err != nil {
		return err
	}

	slog.Debug("Uploading clip", "file", clip.Filename, "bytes", len(clip.Data), "step", step.Label())

	transcript, err := api.Transcribe(ctx, clip, step)
	if err != nil {
		return fmt.Errorf("failed to transcribe %s: %w", c.File, err)
	}

	_, err = fmt.Fprintln(out, transcript)

	return err
}

// loadClip reads an audio file for upload. Raw PCM is encoded to MP3 first.
func loadClip(path string) (audio.Clip, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's own arguments
	if err != nil {
		return audio.Clip{}, fmt.Errorf("failed to read audio file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pcm", ".raw":
		encoded, err := audio.EncodePCM(data, audio.DefaultDeviceConfig().EncoderConfig())
		if err != nil {
			return audio.Clip{}, fmt.Errorf("failed to encode %s: %w", path, err)
		}

		return audio.Clip{
			Data:        encoded,
			Filename:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".mp3",
			ContentType: audio.MP3ContentType,
			PCMBytes:    int64(len(data)),
		}, nil
	default:
		return audio.Clip{
			Data:        data,
			Filename:    filepath.Base(path),
			ContentType: mime.TypeByExtension(ext),
		}, nil
	}
}

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	devices, err := audio.CaptureDevices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formatCount", dev.FormatCount,
			"formats", dev.Formats,
		)
	}

	return nil
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetKey    SetKeyCmd    `cmd:"" help:"Store an API key in system keychain"`
	DeleteKey DeleteKeyCmd `cmd:"" help:"Remove an API key from system keychain"`
	ListKeys  ListKeysCmd  `cmd:"" name:"list-keys" help:"Show which API keys are configured"`
}

// SetKeyCmd stores an API key in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"openai,anthropic" help:"Service name (openai or anthropic)"`
	Secret  string `arg:"" help:"API key value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	return c.run(os.Stdout)
}

func (c *SetKeyCmd) run(out io.Writer) error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("API key cannot be empty")
	}

	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(apiKey, c.Secret); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Fprintf(out, "%s API key stored in keychain\n", c.Service)

	return nil
}

// DeleteKeyCmd removes an API key from the system keychain.
type DeleteKeyCmd struct {
	Service string `arg:"" enum:"openai,anthropic" help:"Service name (openai or anthropic)"`
}

// Run executes the delete-key command.
func (c *DeleteKeyCmd) Run() error {
	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Delete(apiKey); err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}

	fmt.Printf("%s API key removed from keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which API keys are configured.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	listKeys(os.Stdout)
	return nil
}

func listKeys(out io.Writer) {
	allSet := true

	for _, apiKey := range keyring.AllAPIKeys() {
		if keyring.IsSet(apiKey) {
			fmt.Fprintf(out, "%s: configured\n", apiKey.DisplayName())
		} else {
			fmt.Fprintf(out, "%s: not set\n", apiKey.DisplayName())
			allSet = false
		}
	}

	if !allSet {
		fmt.Fprintln(out, "\nRun 'snack config set-key <service> <key>' to configure.")
	}
}

func newClient(baseURL string) *client.Client {
	return client.New(baseURL, nil)
}

func waitForServer(ctx context.Context, api *client.Client) error {
	ctx, cancel := context.WithTimeout(ctx, serverWaitTimeout)
	defer cancel()

	return api.WaitForServer(ctx, serverPollEvery)
}

func main() {
	// Set up text-based logger for CLI output
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("snack"),
		kong.Description("Voice-driven snack workouts."),
	)
	err := ctx.Run(cli)
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}
