package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cratedig/cratedig/internal/artwork"
	"github.com/cratedig/cratedig/internal/collection"
	"github.com/cratedig/cratedig/internal/config"
	"github.com/cratedig/cratedig/internal/logging"
	"github.com/cratedig/cratedig/internal/store"
	"github.com/cratedig/cratedig/internal/tui"
	"github.com/cratedig/cratedig/internal/ui"
)

var version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `CrateDig - A terminal music collection browser

Usage: cratedig [options]

Options:
  -config string
        Path to config file (default: ~/.config/cratedig/config.toml)
  -theme string
        Color theme: %s
  -verbose
        Log at debug level
  -version
        Print version and exit

Library:
  -scan
        Scan the configured roots into the library database
  -dump
        Print the grouped collection tree and exit

Examples:
  cratedig                  # Start interactive browser
  cratedig --scan           # Rescan the library roots
  cratedig --dump           # Print the tree to stdout

`, strings.Join(ui.ThemeNames(), ", "))
	}

	cfgPath := flag.String("config", "", "")
	themeName := flag.String("theme", "crate", "")
	scan := flag.Bool("scan", false, "")
	dump := flag.Bool("dump", false, "")
	verbose := flag.Bool("verbose", false, "")
	showVersion := flag.Bool("version", false, "")
	flag.Parse()

	if *showVersion {
		fmt.Println("cratedig", version)
		return
	}

	cfg, resolvedPath, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger, logFile, err := logging.Setup(level)
	if err != nil {
		log.Fatalf("setup logging: %v", err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	logger.Info("starting cratedig", slog.String("config", resolvedPath))

	if err := os.MkdirAll(filepath.Dir(cfg.Library.DBPath), 0o755); err != nil {
		log.Fatalf("create database dir: %v", err)
	}
	st, err := store.Open(cfg.Library.DBPath, cfg.Library.Name)
	if err != nil {
		logger.Error("open library", slog.Any("err", err))
		log.Fatalf("open library: %v", err)
	}
	defer st.Close()

	if *scan {
		runScan(st, cfg, logger)
		return
	}

	cache, err := artwork.NewCache(cfg.Artwork.MemoryEntries, cfg.Artwork.CacheDir, *cfg.Artwork.DiskCache)
	if err != nil {
		logger.Warn("artwork cache unavailable", slog.Any("err", err))
	}
	loader := artwork.NewFileLoader()
	defer loader.Close()

	browser := collection.NewBrowser(st, loader, cache)
	defer browser.Close()
	browser.SetGroupBy(cfg.Grouping(), cfg.Browse.SeparateAlbumsByGrouping)
	browser.SetFilter(cfg.FilterOptions())
	browser.SetShowDividers(*cfg.Browse.ShowDividers)
	browser.SetShowVariousArtists(*cfg.Browse.ShowVariousArtists)
	browser.SetSortSkipsArticles(*cfg.Browse.SortSkipsArticles)
	browser.SetPrettyCovers(*cfg.Browse.PrettyCovers)
	st.AddListener(browser)
	browser.Init()
	st.UpdateTotalsAsync(context.Background(), func(t store.Totals) {
		browser.SetTotals(t.Songs, t.Artists, t.Albums)
	})

	noColor := os.Getenv("NO_COLOR") != ""
	theme := ui.GetTheme(*themeName, noColor)

	if *dump {
		runDump(browser, theme)
		return
	}

	model := tui.New(browser, theme)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("run tui", slog.Any("err", err))
		log.Fatalf("tui: %v", err)
	}
}

func runScan(st *store.Store, cfg *config.Config, logger *slog.Logger) {
	fmt.Printf("Scanning %d root(s)...\n", len(cfg.Library.Roots))
	start := time.Now()
	n, err := store.Scan(context.Background(), st, cfg.Library.Roots)
	if err != nil {
		fmt.Printf("Scan error: %v\n", err)
		return
	}
	fmt.Printf("Scan complete in %s: %d songs\n", time.Since(start).Round(time.Millisecond), n)
	logger.Info("scan complete", slog.Int("songs", n), slog.Duration("duration", time.Since(start)))
}

// runDump waits for the tree to settle and prints it fully expanded.
func runDump(browser *collection.Browser, theme ui.Theme) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := browser.WaitIdle(ctx); err != nil {
		fmt.Printf("load timed out: %v\n", err)
		return
	}

	songs, artists, albums := browser.Totals()
	fmt.Println(theme.Title.Render("cratedig") + "  " +
		theme.Status.Render(fmt.Sprintf("%d artists · %d albums · %d songs", artists, albums, songs)))

	browser.Do(func(m *collection.Model) {
		dumpItem(m, m.Root(), 0, theme)
	})
}

func dumpItem(m *collection.Model, item *collection.Item, depth int, theme ui.Theme) {
	for _, child := range m.SortedChildren(item) {
		indent := strings.Repeat("  ", depth)
		childDepth := depth + 1
		switch child.Type {
		case collection.ItemTypeDivider:
			fmt.Println(indent + theme.Divider.Render(child.DisplayText))
			childDepth = depth
		case collection.ItemTypeContainer:
			fmt.Println(indent + theme.Container.Render(child.DisplayText))
		case collection.ItemTypeSong:
			fmt.Println(indent + theme.Song.Render(child.DisplayText))
		default:
			fmt.Println(indent + theme.Dim.Render(child.DisplayText))
		}
		dumpItem(m, child, childDepth, theme)
	}
}
