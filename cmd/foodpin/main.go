package main

import (
	"bufio"
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cheggaaa/pb/v3"
	"github.com/mmcdole/foodpin/internal/adapter"
	"github.com/mmcdole/foodpin/internal/adapter/cloud"
	"github.com/mmcdole/foodpin/internal/adapter/geocode"
	"github.com/mmcdole/foodpin/internal/detail"
	"github.com/mmcdole/foodpin/internal/discover"
	"github.com/mmcdole/foodpin/internal/domain"
	"github.com/mmcdole/foodpin/internal/restaurants"
	"github.com/mmcdole/foodpin/internal/search"
	"github.com/mmcdole/foodpin/internal/store"
	"github.com/mmcdole/foodpin/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

//go:embed placeholder.png
var placeholderImage []byte

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

func main() {
	var (
		showVersion bool
		prefetch    bool
		logout      bool
		clearCache  bool
		clearPhotos bool
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&prefetch, "prefetch", false, "download the first feed page and its photos, then exit")
	flag.BoolVar(&logout, "logout", false, "forget the cloud URL and token")
	flag.BoolVar(&clearCache, "clear-cache", false, "remove cached photos, places and the saved feed")
	flag.BoolVar(&clearPhotos, "clear-photos", false, "remove downloaded photos, keeping places and the saved feed")
	flag.Parse()

	if showVersion {
		fmt.Printf("foodpin %s\n", Version)
		return
	}

	if err := run(prefetch, logout, clearCache, clearPhotos); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(prefetch, logout, clearCache, clearPhotos bool) error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting foodpin", "version", Version)

	switch {
	case logout:
		if cfg.IsConfigured() {
			// Drop what was cached from the server being left
			if err := withCache(cfg, func(cache *store.CacheStore) error {
				cache.InvalidateAll()
				return nil
			}); err != nil {
				return err
			}
		}
		if err := adapter.ClearCloudConfig(); err != nil {
			return err
		}
		fmt.Println("✓ Logged out")
		return nil
	case clearCache:
		if err := adapter.ClearCache(cfg); err != nil {
			return err
		}
		fmt.Println("✓ Cache cleared")
		return nil
	case clearPhotos:
		if err := withCache(cfg, func(cache *store.CacheStore) error {
			if err := cache.ClearPhotos(); err != nil {
				return err
			}
			return os.RemoveAll(photoDir(cfg))
		}); err != nil {
			return err
		}
		fmt.Println("✓ Photos cleared")
		return nil
	}

	if !cfg.IsConfigured() {
		return runSetupFlow(cfg, logger)
	}

	cache, err := store.NewCacheStore(cfg.Storage.CacheDir, cfg.Cloud.URL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer cache.Close()

	db, err := restaurants.Open(cfg.Storage.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open restaurant store: %w", err)
	}
	defer db.Close()

	client := cloud.NewClient(cfg.Cloud.URL, cfg.Cloud.Token, cache.AssetDir(), logger)

	images := discover.NewImageCache(cache, logger)
	feed := discover.NewFeed(client, images, cache, cfg.Cloud.ResultsLimit, logger)
	feed.SetPlaceholder(placeholderImage)

	if prefetch {
		return runPrefetch(feed)
	}
	feed.Restore()

	var geocoder domain.Geocoder
	if cfg.Geocoder.Enabled {
		geocoder = geocode.NewClient(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, cache, logger)
	}

	model := tui.NewModel(tui.Services{
		Feed:        feed,
		FeedQueries: discover.NewQueries(feed),
		Restaurants: db,
		Detail:      detail.NewService(db, geocoder, logger),
		Search:      search.NewService(logger),
		Opener:      adapter.NewOpener(cfg.Viewer.Command, cfg.Viewer.Args, logger),
		PhotoDir:    photoDir(cfg),
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

// withCache opens the cache of the configured server for fn
func withCache(cfg *adapter.Config, fn func(cache *store.CacheStore) error) error {
	cache, err := store.NewCacheStore(cfg.Storage.CacheDir, cfg.Cloud.URL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer cache.Close()
	return fn(cache)
}

// photoDir holds the user's restaurant photos while they are being viewed
func photoDir(cfg *adapter.Config) string {
	if cfg.Storage.CacheDir == "" {
		return ""
	}
	return filepath.Join(cfg.Storage.CacheDir, "photos")
}

// runPrefetch refreshes the feed and downloads the photos of its first page
func runPrefetch(feed *discover.Feed) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := feed.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}

	entries := discover.NewQueries(feed).Restaurants()
	ids := make([]domain.RecordID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	bar := pb.StartNew(len(ids))
	cached, err := feed.Prefetch(ctx, ids, func(done, total int) {
		bar.SetTotal(int64(total))
		bar.SetCurrent(int64(done))
	})
	bar.Finish()
	if err != nil {
		return fmt.Errorf("prefetch failed: %w", err)
	}

	fmt.Printf("✓ %d restaurants, %d photos cached\n", res.Total, cached)
	return nil
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *adapter.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to FoodPin!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	var serverURL string

	for {
		fmt.Print("Enter the cloud database URL (e.g., http://localhost:8080): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimRight(strings.TrimSpace(input), "/")

		if serverURL == "" {
			fmt.Println("URL cannot be empty. Please try again.")
			continue
		}

		fmt.Println()
		if err := checkServerWithSpinner(serverURL, logger); err != nil {
			fmt.Printf("\n✗ Could not reach the cloud database: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}
		break
	}

	cfg.Cloud.URL = serverURL

	flow := cloud.NewAuthFlow(cfg.Cloud.Container, logger)
	result, err := flow.Run(context.Background(), serverURL)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	cfg.Cloud.Token = result.Token
	cfg.Cloud.Container = result.Container

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run foodpin again to start the application.")

	return nil
}

// checkServerWithSpinner checks the server health endpoint with a visual spinner
func checkServerWithSpinner(serverURL string, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- cloud.NewClient(serverURL, "", "", logger).Health(ctx)
	}()

	frames := spinner.Dot.Frames
	frame := 0
	fmt.Printf("\r%s Contacting server...", frames[frame])

	ticker := time.NewTicker(spinner.Dot.FPS)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if err != nil {
				return err
			}
			fmt.Println("✓ Cloud database is up")
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Contacting server...", frames[frame%len(frames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("timed out")
		}
	}
}
