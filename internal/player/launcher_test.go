package player

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trailerURL = "https://www.youtube.com/watch?v=abc"

type call struct {
	name string
	args []string
	wait bool
}

// fakeExec records invocations. installed lists commands found in PATH and
// apps lists macOS apps that "open -a" can launch.
type fakeExec struct {
	installed map[string]bool
	apps      map[string]bool
	calls     []call
}

func newTestLauncher(goos, command string, args []string, fx *fakeExec) *Launcher {
	l := NewLauncher(command, args, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.goos = goos
	l.lookPath = func(cmd string) (string, error) {
		if fx.installed[cmd] {
			return "/usr/bin/" + cmd, nil
		}
		return "", errors.New("not found")
	}
	l.start = func(name string, args ...string) error {
		fx.calls = append(fx.calls, call{name: name, args: args})
		return nil
	}
	l.run = func(name string, args ...string) error {
		fx.calls = append(fx.calls, call{name: name, args: args, wait: true})
		for i, a := range args {
			if a == "-a" && i+1 < len(args) && fx.apps[args[i+1]] {
				return nil
			}
		}
		return errors.New("exit status 1")
	}
	return l
}

func TestLauncher_ConfiguredPlayer(t *testing.T) {
	fx := &fakeExec{installed: map[string]bool{"mpv": true}}
	l := newTestLauncher("linux", "mpv", []string{"--fs"}, fx)

	require.NoError(t, l.Launch(trailerURL))
	require.Len(t, fx.calls, 1)
	assert.Equal(t, call{name: "mpv", args: []string{"--fs", trailerURL}}, fx.calls[0])
}

func TestLauncher_ConfiguredAppOnMac(t *testing.T) {
	fx := &fakeExec{}
	l := newTestLauncher("darwin", "IINA", nil, fx)

	require.NoError(t, l.Launch(trailerURL))
	require.Len(t, fx.calls, 1)
	assert.Equal(t, "open", fx.calls[0].name)
	assert.Equal(t, []string{"-n", "-a", "IINA", trailerURL}, fx.calls[0].args)
}

func TestLauncher_DetectsCandidate(t *testing.T) {
	fx := &fakeExec{installed: map[string]bool{"vlc": true}}
	l := newTestLauncher("linux", "", nil, fx)

	require.NoError(t, l.Launch(trailerURL))
	require.Len(t, fx.calls, 1)
	assert.Equal(t, call{name: "vlc", args: []string{trailerURL}}, fx.calls[0])
}

func TestLauncher_DetectsMacApp(t *testing.T) {
	fx := &fakeExec{apps: map[string]bool{"VLC": true}}
	l := newTestLauncher("darwin", "", nil, fx)

	require.NoError(t, l.Launch(trailerURL))
	last := fx.calls[len(fx.calls)-1]
	assert.True(t, last.wait)
	assert.Equal(t, []string{"-a", "VLC", trailerURL}, last.args)
}

func TestLauncher_FallsBackToSystemDefault(t *testing.T) {
	fx := &fakeExec{}
	l := newTestLauncher("linux", "", nil, fx)

	require.NoError(t, l.Launch(trailerURL))
	require.Len(t, fx.calls, 1)
	assert.Equal(t, call{name: "xdg-open", args: []string{trailerURL}}, fx.calls[0])
}

func TestLauncher_EmptyURL(t *testing.T) {
	fx := &fakeExec{}
	l := newTestLauncher("linux", "mpv", nil, fx)
	assert.Error(t, l.Launch(""))
	assert.Empty(t, fx.calls)
}

func TestDefaultCommand(t *testing.T) {
	name, args := defaultCommand("windows", trailerURL)
	assert.Equal(t, "cmd", name)
	assert.Equal(t, []string{"/c", "start", "", trailerURL}, args)

	name, _ = defaultCommand("darwin", trailerURL)
	assert.Equal(t, "open", name)
}
