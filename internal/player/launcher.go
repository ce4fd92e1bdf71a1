// Package player opens trailer URLs in an external video player.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Launcher launches trailer URLs in an external player
type Launcher struct {
	command string   // configured player command, empty for auto-detection
	args    []string // additional arguments for the player
	goos    string
	logger  *slog.Logger

	lookPath func(string) (string, error)
	start    func(name string, args ...string) error // does not wait
	run      func(name string, args ...string) error // waits for exit
}

// launchPath defines a single way to launch a player
type launchPath struct {
	path      string   // Command path: "mpv", "vlc", or "open-a:AppName"
	openFlags []string // For "open-a:" paths only - flags for macOS open command
}

// players maps a player to the launch paths to try on each platform.
// Every entry can stream YouTube/Vimeo URLs directly.
var players = map[string]map[string][]launchPath{
	"mpv": {
		"darwin":  {{path: "mpv"}},
		"linux":   {{path: "mpv"}},
		"windows": {{path: "mpv"}},
	},
	"vlc": {
		"darwin":  {{path: "vlc"}, {path: "open-a:VLC"}},
		"linux":   {{path: "vlc"}},
		"windows": {{path: "vlc"}},
	},
	"iina": {
		"darwin": {{path: "open-a:IINA", openFlags: []string{"-n"}}},
	},
	"celluloid": {
		"linux": {{path: "celluloid"}},
	},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"iina", "mpv", "vlc"},
	"linux":   {"mpv", "celluloid", "vlc"},
	"windows": {"mpv", "vlc"},
}

var errNoCandidate = errors.New("no candidate players found")

// NewLauncher creates a launcher. An empty command auto-detects an installed
// player and falls back to the system URL handler (usually a browser).
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command:  command,
		args:     args,
		goos:     runtime.GOOS,
		logger:   logger,
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Launch opens url in the configured player, a detected player or the
// system default, in that order
func (l *Launcher) Launch(url string) error {
	if url == "" {
		return fmt.Errorf("launch: empty url")
	}

	// Tier 1: User configured a specific player
	if l.command != "" {
		name, argv := l.configuredCommand(url)
		l.logger.Info("launching configured player", "command", name, "args", argv)
		return l.start(name, argv...)
	}

	// Tier 2: Candidate chain (IINA → mpv on macOS, etc.)
	if player, err := l.detectAndLaunch(url); err == nil {
		l.logger.Info("launched with detected player", "player", player)
		return nil
	}

	// Tier 3: System default
	name, argv := defaultCommand(l.goos, url)
	l.logger.Info("no candidate players found, using system default", "os", l.goos, "command", name)
	return l.start(name, argv...)
}

// configuredCommand builds the command line for the configured player.
// On macOS a command that is not in PATH is treated as an app name.
func (l *Launcher) configuredCommand(url string) (string, []string) {
	args := append(append([]string{}, l.args...), url)

	if l.goos == "darwin" {
		if _, err := l.lookPath(l.command); err != nil {
			var openFlags []string
			base := strings.ToLower(strings.TrimSuffix(filepath.Base(l.command), filepath.Ext(l.command)))
			for _, lp := range players[base]["darwin"] {
				if strings.HasPrefix(lp.path, "open-a:") {
					openFlags = lp.openFlags
					break
				}
			}
			return "open", openAppArgs(l.command, l.args, openFlags, url)
		}
	}
	return l.command, args
}

// detectAndLaunch tries candidate players in order
func (l *Launcher) detectAndLaunch(url string) (string, error) {
	candidates, ok := candidatePlayers[l.goos]
	if !ok {
		candidates = candidatePlayers["linux"]
	}

	for _, name := range candidates {
		for _, lp := range players[name][l.goos] {
			var err error
			if app, ok := strings.CutPrefix(lp.path, "open-a:"); ok {
				// open exits non-zero when the app is not installed
				err = l.run("open", openAppArgs(app, nil, lp.openFlags, url)...)
			} else if _, err = l.lookPath(lp.path); err == nil {
				err = l.start(lp.path, url)
			}
			if err == nil {
				return name, nil
			}
			l.logger.Debug("launch path not available", "player", name, "path", lp.path, "error", err)
		}
	}
	return "", errNoCandidate
}

// openAppArgs builds arguments for macOS "open -a"
func openAppArgs(app string, playerArgs, openFlags []string, url string) []string {
	args := append([]string{}, openFlags...)
	args = append(args, "-a", app)
	if len(playerArgs) > 0 {
		args = append(args, "--args")
		args = append(args, playerArgs...)
	}
	return append(args, url)
}

// defaultCommand returns the system URL handler invocation
func defaultCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", "", url}
	default:
		return "xdg-open", []string{url}
	}
}
