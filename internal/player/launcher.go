// Package player hands stream URLs to an external media player.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ErrNoPlayer is returned when no candidate player could be started.
var ErrNoPlayer = errors.New("no media player found")

// known describes a player wizju can drive.
type known struct {
	offsetFlag string            // "--start=" style, or "-ss " when the value is a separate arg
	macApp     string            // app bundle name for "open -a", darwin only
	commands   map[string]string // GOOS -> executable
}

var players = map[string]known{
	"mpv": {
		offsetFlag: "--start=",
		commands:   map[string]string{"darwin": "mpv", "linux": "mpv", "windows": "mpv"},
	},
	"vlc": {
		offsetFlag: "--start-time=",
		macApp:     "VLC",
		commands:   map[string]string{"darwin": "vlc", "linux": "vlc", "windows": "vlc"},
	},
	"iina": {
		offsetFlag: "--mpv-start=",
		macApp:     "IINA",
	},
	"celluloid": {
		offsetFlag: "--mpv-start=",
		commands:   map[string]string{"linux": "celluloid"},
	},
}

// candidates is the auto-detection order per platform.
var candidates = map[string][]string{
	"darwin":  {"iina", "vlc", "mpv"},
	"linux":   {"mpv", "celluloid", "vlc"},
	"windows": {"vlc", "mpv"},
}

// Launcher starts the configured player, or the first installed candidate,
// falling back to the system URL handler.
type Launcher struct {
	command   string
	args      []string
	startFlag string
	logger    *slog.Logger

	goos     string
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// NewLauncher creates a launcher. An empty command enables auto-detection.
// When startFlag is empty it is derived from a known command name.
func NewLauncher(command string, args []string, startFlag string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	if startFlag == "" && command != "" {
		if p, ok := players[playerName(command)]; ok {
			startFlag = p.offsetFlag
			logger.Debug("auto-detected player offset flag", "command", command, "flag", startFlag)
		}
	}

	return &Launcher{
		command:   command,
		args:      args,
		startFlag: startFlag,
		logger:    logger,
		goos:      runtime.GOOS,
		lookPath:  exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// Launch plays url, starting at offset when the player supports it.
func (l *Launcher) Launch(url string, offset time.Duration) error {
	if l.command != "" {
		return l.launchConfigured(url, offset)
	}

	for _, name := range l.candidates() {
		if err := l.launchKnown(name, url, offset); err == nil {
			return nil
		}
	}

	l.logger.Info("no candidate players found, using system default")
	if err := l.launchDefault(url); err != nil {
		return fmt.Errorf("%w: %v", ErrNoPlayer, err)
	}
	return nil
}

func (l *Launcher) candidates() []string {
	if c, ok := candidates[l.goos]; ok {
		return c
	}
	return candidates["linux"]
}

func (l *Launcher) launchConfigured(url string, offset time.Duration) error {
	args := append([]string{}, l.args...)
	if offset > 0 && l.startFlag == "" {
		l.logger.Warn("cannot resume, unknown player; set player.start_flag", "command", l.command)
	}
	args = append(args, offsetArgs(l.startFlag, offset)...)

	if l.goos == "darwin" {
		if _, err := l.lookPath(l.command); err != nil {
			return l.openApp(l.command, url, args)
		}
	}

	l.logger.Info("launching player", "command", l.command, "args", args, "url", url)
	return l.start(l.command, append(args, url)...)
}

func (l *Launcher) launchKnown(name, url string, offset time.Duration) error {
	p := players[name]
	args := offsetArgs(p.offsetFlag, offset)

	if cmd, ok := p.commands[l.goos]; ok {
		if _, err := l.lookPath(cmd); err == nil {
			l.logger.Info("launched with detected player", "player", name)
			return l.start(cmd, append(args, url)...)
		}
	}
	if l.goos == "darwin" && p.macApp != "" {
		return l.openApp(p.macApp, url, args)
	}
	return fmt.Errorf("%s not installed", name)
}

// openApp runs "open -n -a <app> --args <args> <url>" on macOS.
func (l *Launcher) openApp(app, url string, args []string) error {
	cmdArgs := []string{"-n", "-a", app}
	if len(args) > 0 {
		cmdArgs = append(cmdArgs, "--args")
		cmdArgs = append(cmdArgs, args...)
	}
	cmdArgs = append(cmdArgs, url)
	l.logger.Info("launching macOS app", "app", app, "args", cmdArgs)
	return l.start("open", cmdArgs...)
}

func (l *Launcher) launchDefault(url string) error {
	switch l.goos {
	case "darwin":
		return l.start("open", url)
	case "windows":
		return l.start("cmd", "/c", "start", "", url)
	default:
		return l.start("xdg-open", url)
	}
}

// offsetArgs renders a resume offset for flag. A flag ending in a space
// takes its value as a separate argument.
func offsetArgs(flag string, offset time.Duration) []string {
	if offset <= 0 || flag == "" {
		return nil
	}
	secs := fmt.Sprintf("%.0f", offset.Seconds())
	if strings.HasSuffix(flag, " ") {
		return []string{strings.TrimSuffix(flag, " "), secs}
	}
	return []string{flag + secs}
}

func playerName(command string) string {
	base := filepath.Base(command)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
