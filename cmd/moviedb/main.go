package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviedb/internal/config"
	"github.com/mmcdole/moviedb/internal/domain"
	"github.com/mmcdole/moviedb/internal/log"
	"github.com/mmcdole/moviedb/internal/player"
	"github.com/mmcdole/moviedb/internal/repository"
	"github.com/mmcdole/moviedb/internal/store"
	"github.com/mmcdole/moviedb/internal/tmdb"
	"github.com/mmcdole/moviedb/internal/tui"
	"github.com/mmcdole/moviedb/internal/tui/styles"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

func main() {
	var showVersion bool
	var configFile string
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&configFile, "config", "", "path to config file")
	flag.Parse()

	if showVersion {
		fmt.Printf("moviedb %s\n", Version)
		return
	}

	if err := run(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	v := config.New(configFile)
	cfg, err := config.LoadConfig(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logCloser, err := log.Setup(cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	} else {
		defer logCloser.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting moviedb", "version", Version)

	if !cfg.IsConfigured() {
		return runSetupFlow(v, cfg, configFile, logger)
	}

	client := newClient(cfg, cfg.API.Key, logger)

	favorites, err := store.Open(cfg.Store.Driver, cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open favorites: %w", err)
	}
	defer favorites.Close()

	defaultFeed, err := domain.ParseFeed(cfg.UI.DefaultFeed)
	if err != nil {
		logger.Warn("ignoring default feed", "error", err)
		defaultFeed = domain.FeedPopular
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := repository.New(client, favorites, logger)
	launcher := player.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)

	model := tui.NewModel(ctx, repo, launcher, logger, tui.Options{
		DefaultFeed:       defaultFeed,
		PrefetchThreshold: cfg.UI.PrefetchThreshold,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

func newClient(cfg *config.Config, key string, logger *slog.Logger) *tmdb.Client {
	return tmdb.NewClient(cfg.API.BaseURL, key, logger,
		tmdb.WithLanguage(cfg.API.Language),
		tmdb.WithTimeouts(cfg.API.ConnectTimeout, cfg.API.ReadTimeout),
		tmdb.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
	)
}

// runSetupFlow asks for an API credential, checks it against the catalog
// and saves it
func runSetupFlow(v *viper.Viper, cfg *config.Config, configFile string, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to moviedb!")
	fmt.Println()
	fmt.Println("An API key or read access token is required.")
	fmt.Println("Create one at https://www.themoviedb.org/settings/api")
	fmt.Println()

	var key string
	for {
		input, err := readSecret("Enter your API key: ")
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		key = strings.TrimSpace(input)

		if key == "" {
			fmt.Println("API key cannot be empty. Please try again.")
			continue
		}

		fmt.Println()
		if err := verifyWithSpinner(newClient(cfg, key, logger)); err != nil {
			fmt.Printf("\n✗ %s\n", domain.FailureMessage(err))
			if !errors.Is(err, domain.ErrAuthFailed) {
				return fmt.Errorf("could not reach the catalog: %w", err)
			}
			fmt.Println("Please check the key and try again.")
			fmt.Println()
			continue
		}
		break
	}

	cfg.API.Key = key

	path, err := config.SaveConfig(v, cfg, configFile)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("✓ Configuration saved to %s\n", path)
	fmt.Println()
	fmt.Println("Run moviedb again to start the application.")

	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		return string(b), err
	}
	return bufio.NewReader(os.Stdin).ReadString('\n')
}

// verifyWithSpinner fetches the first popular page with a visual spinner
func verifyWithSpinner(client *tmdb.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		_, err := client.GetPopular(ctx, 1)
		resultCh <- err
	}()

	frame := 0
	fmt.Printf("\r%s Checking API key...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if err != nil {
				return err
			}
			fmt.Println(styles.SuccessStyle.Render("✓ API key accepted"))
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Checking API key...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("verification timed out")
		}
	}
}
