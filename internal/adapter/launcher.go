package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// Launcher opens watch pages in a browser and trailers in a video player
type Launcher struct {
	browser     string   // configured browser command, empty for system default
	browserArgs []string // additional arguments for the browser
	player      string   // configured trailer player, empty to detect
	playerArgs  []string
	logger      *slog.Logger

	// start runs a command without waiting for it
	start func(name string, args ...string) error
	// lookPath reports whether a command is installed
	lookPath func(name string) error
}

// trailerPlayers lists players that stream YouTube URLs, in preference order
var trailerPlayers = map[string][]string{
	"darwin":  {"iina", "mpv"},
	"linux":   {"mpv", "celluloid", "haruna"},
	"windows": {"mpv"},
}

// NewLauncher creates a new Launcher
func NewLauncher(browser BrowserConfig, player PlayerConfig, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		browser:     browser.Command,
		browserArgs: browser.Args,
		player:      player.Command,
		playerArgs:  player.Args,
		logger:      logger,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
		lookPath: func(name string) error {
			_, err := exec.LookPath(name)
			return err
		},
	}
}

// OpenWatch opens the watch page for an item
func (l *Launcher) OpenWatch(url string) error {
	if l.browser != "" {
		args := append(append([]string{}, l.browserArgs...), url)
		l.logger.Info("opening watch page", "command", l.browser, "url", url)
		return l.start(l.browser, args...)
	}
	return l.launchDefault(url)
}

// PlayTrailer streams a trailer URL in the configured or first detected
// player, falling back to the browser.
func (l *Launcher) PlayTrailer(url string) error {
	if l.player != "" {
		args := append(append([]string{}, l.playerArgs...), url)
		l.logger.Info("using configured player", "command", l.player, "url", url)
		return l.start(l.player, args...)
	}

	candidates, ok := trailerPlayers[runtime.GOOS]
	if !ok {
		candidates = trailerPlayers["linux"]
	}
	for _, name := range candidates {
		if err := l.lookPath(name); err != nil {
			l.logger.Debug("player not available", "player", name, "error", err)
			continue
		}
		if err := l.start(name, url); err == nil {
			l.logger.Info("launched trailer with detected player", "player", name)
			return nil
		}
	}

	l.logger.Info("no trailer player found, using browser")
	return l.OpenWatch(url)
}

// launchDefault opens the URL using the system default handler
func (l *Launcher) launchDefault(url string) error {
	var err error
	switch runtime.GOOS {
	case "darwin":
		err = l.start("open", url)
	case "windows":
		err = l.start("cmd", "/c", "start", "", url)
	default:
		err = l.start("xdg-open", url)
	}

	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", url)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}
