package playback

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Launcher opens a media URI in an external player. The player process owns
// the actual decode/render loop; the session only hands it a handle URI and
// a start offset.
type Launcher struct {
	command   string   // configured player command, empty for system default
	args      []string // additional player arguments
	startFlag string   // offset flag prefix, e.g. "--start=" or "-ss "
	logger    *slog.Logger
}

// offsetFlags maps known players to their resume-offset flag.
var offsetFlags = map[string]string{
	"mpv":       "--start=",
	"vlc":       "--start-time=",
	"iina":      "--mpv-start=",
	"celluloid": "--mpv-start=",
}

// NewLauncher creates a Launcher, auto-detecting the offset flag for known
// players when none is configured.
func NewLauncher(command string, args []string, startFlag string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	resolved := startFlag
	if resolved == "" && command != "" {
		base := strings.ToLower(strings.TrimSuffix(filepath.Base(command), filepath.Ext(command)))
		if flag, ok := offsetFlags[base]; ok {
			resolved = flag
			logger.Debug("auto-detected player offset flag", "player", base, "flag", resolved)
		}
	}

	return &Launcher{command: command, args: args, startFlag: resolved, logger: logger}
}

// Launch opens uri in the configured player, or the system default handler
// when no player is configured.
func (l *Launcher) Launch(uri string, startOffset time.Duration) error {
	if l.command == "" {
		return l.launchDefault(uri)
	}

	args := append([]string{}, l.args...)
	if startOffset > 0 {
		if l.startFlag == "" {
			l.logger.Warn("cannot set start offset for unknown player",
				"command", l.command, "offset", startOffset)
		} else if strings.HasSuffix(l.startFlag, " ") {
			args = append(args, strings.TrimSuffix(l.startFlag, " "),
				fmt.Sprintf("%.0f", startOffset.Seconds()))
		} else {
			args = append(args, fmt.Sprintf("%s%.0f", l.startFlag, startOffset.Seconds()))
		}
	}
	args = append(args, uri)

	l.logger.Info("launching player", "command", l.command, "args", args)
	return exec.Command(l.command, args...).Start()
}

// launchDefault opens the URI with the platform's default handler.
func (l *Launcher) launchDefault(uri string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", uri)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", uri)
	default:
		cmd = exec.Command("xdg-open", uri)
	}
	l.logger.Info("launching with system default", "os", runtime.GOOS)
	return cmd.Start()
}
