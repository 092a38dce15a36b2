package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/adapter/catalog"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/tui"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

var errNotTerminal = errors.New("reel needs an interactive terminal; try `reel rails` or `reel search` instead")

// runTUI starts the full-screen client, running first-time setup when no
// catalog is configured
func runTUI(cmd *cobra.Command, ctx *commandContext) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.log()
	slog.SetDefault(logger)
	logger.Info("starting reel", "version", Version)

	if !cfg.IsConfigured() {
		if err := runSetupFlow(cmd.InOrStdin(), cmd.OutOrStdout(), cfg, ctx.configPath(), logger); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	d, closeFn, err := ctx.openSession(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	view, _ := tui.ParseView(cfg.UI.DefaultView)
	model := tui.NewModel(d.session, d.launcher, tui.Options{
		DefaultView: view,
		ShowPanel:   cfg.UI.ShowSidebar,
	}, logger)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI", "session", d.session.ID())
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow asks for the catalog URL until one answers, then saves it
func runSetupFlow(in io.Reader, out io.Writer, cfg *adapter.Config, path string, logger *slog.Logger) error {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Welcome to reel!")
	fmt.Fprintln(out)

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Enter the catalog URL (e.g., https://reel.example.com): ")
		input, err := reader.ReadString('\n')
		if err != nil && (input == "" || !errors.Is(err, io.EOF)) {
			return fmt.Errorf("failed to read input: %w", err)
		}
		baseURL := strings.TrimRight(strings.TrimSpace(input), "/")

		if baseURL == "" {
			fmt.Fprintln(out, "Catalog URL cannot be empty. Please try again.")
			continue
		}

		cfg.Catalog.BaseURL = baseURL
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "✗ %v\n\n", err)
			continue
		}

		fmt.Fprintln(out)
		if err := checkCatalogWithSpinner(out, cfg, logger); err != nil {
			fmt.Fprintf(out, "\n✗ Could not reach the catalog: %v\n", err)
			fmt.Fprintln(out, "Please check the URL and try again.")
			fmt.Fprintln(out)
			continue
		}
		break
	}

	if err := adapter.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ Configuration saved!")
	fmt.Fprintln(out)
	return nil
}

// checkCatalogWithSpinner loads one release to check the catalog answers
func checkCatalogWithSpinner(out io.Writer, cfg *adapter.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := catalog.NewClient(catalog.Options{
		BaseURL:  cfg.Catalog.BaseURL,
		Language: cfg.Catalog.Language,
		Timeout:  cfg.Catalog.Timeout,
	}, logger)

	resultCh := make(chan error, 1)
	go func() {
		_, err := client.Rail(ctx, domain.RailQuery{
			Rail:  domain.RailReleases,
			Kind:  string(domain.MediaTypeMovie),
			Limit: 1,
		})
		resultCh <- err
	}()

	frame := 0
	fmt.Fprintf(out, "\r%s Contacting catalog...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Fprint(out, clearSpinnerLine)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Connected to %s\n", cfg.Catalog.BaseURL)
			return nil

		case <-ticker.C:
			frame++
			fmt.Fprintf(out, "\r%s Contacting catalog...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Fprint(out, clearSpinnerLine)
			return fmt.Errorf("no answer after 15s")
		}
	}
}
