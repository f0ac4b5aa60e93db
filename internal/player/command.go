package player

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"adhan/internal/prayer"
	logx "adhan/pkg/logx"
)

// FilePlaceholder is replaced in command arguments by the audio file path.
const FilePlaceholder = "{file}"

const (
	DefaultAudioFile    = "adhan.mp3"
	DefaultAudioTimeout = 10 * time.Minute
)

// DefaultCommand returns the audio command for platform, which is a GOOS
// value or one of the aliases "windows", "linux", "mac".
func DefaultCommand(platform string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "", "auto":
		return DefaultCommand(runtime.GOOS)
	case "windows":
		return []string{"cmd", "/C", "start", "", FilePlaceholder}, nil
	case "linux":
		return []string{"omxplayer", "-o", "alsa:hw:UACDemoV10,0", FilePlaceholder}, nil
	case "mac", "darwin", "macos":
		return []string{"afplay", FilePlaceholder}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}

type CommandConfig struct {
	Platform string
	// Command overrides the platform default. Arguments equal to or containing
	// {file} get the audio path.
	Command       []string
	AudioFile     string
	FajrAudioFile string
	Timeout       time.Duration
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Command plays the adhan through an external audio program.
type Command struct {
	argv      []string
	audio     string
	fajrAudio string
	timeout   time.Duration
	log       logx.Logger
	run       runFunc
}

func NewCommand(cfg CommandConfig, log logx.Logger) (*Command, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	argv := cfg.Command
	if len(argv) == 0 {
		var err error
		if argv, err = DefaultCommand(cfg.Platform); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("audio command is empty")
	}
	audio := strings.TrimSpace(cfg.AudioFile)
	if audio == "" {
		audio = DefaultAudioFile
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultAudioTimeout
	}
	return &Command{
		argv:      append([]string(nil), argv...),
		audio:     audio,
		fajrAudio: strings.TrimSpace(cfg.FajrAudioFile),
		timeout:   timeout,
		log:       log.With(logx.String("comp", "player.command")),
		run:       execRun,
	}, nil
}

// Argv returns the command line used for sig.
func (c *Command) Argv(sig Signal) []string {
	file := c.audio
	if sig.Prayer == prayer.Fajr && c.fajrAudio != "" {
		file = c.fajrAudio
	}
	out := make([]string, len(c.argv))
	for i, a := range c.argv {
		out[i] = strings.ReplaceAll(a, FilePlaceholder, file)
	}
	return out
}

func (c *Command) Play(ctx context.Context, sig Signal) error {
	argv := c.Argv(sig)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := c.run(ctx, argv[0], argv[1:]...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return fmt.Errorf("%w: %s: %v: %s", ErrPlayback, argv[0], err, msg)
	}
	c.log.Info("adhan played",
		logx.Stringer("prayer", sig.Prayer),
		logx.String("cmd", strings.Join(argv, " ")),
		logx.Duration("took", time.Since(start)),
	)
	return nil
}
