package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/cratedig/cratedig/internal/collection"
	"github.com/cratedig/cratedig/internal/song"
)

// Config holds cratedig runtime configuration loaded from TOML.
type Config struct {
	ConfigVersion int           `toml:"config_version"`
	Library       LibraryConfig `toml:"library"`
	Browse        BrowseConfig  `toml:"browse"`
	Artwork       ArtworkConfig `toml:"artwork"`
}

// LibraryConfig describes the backing store and what gets indexed.
type LibraryConfig struct {
	Name       string   `toml:"name"`
	Roots      []string `toml:"roots"`
	DBPath     string   `toml:"db_path"`
	Filter     string   `toml:"filter"` // all, new
	MaxAgeDays int      `toml:"max_age_days"`
}

// BrowseConfig controls how the collection tree is grouped and rendered.
type BrowseConfig struct {
	GroupBy                  []string `toml:"group_by"`
	SeparateAlbumsByGrouping bool     `toml:"separate_albums_by_grouping"`
	ShowDividers             *bool    `toml:"show_dividers"`
	ShowVariousArtists       *bool    `toml:"show_various_artists"`
	SortSkipsArticles        *bool    `toml:"sort_skips_articles"`
	PrettyCovers             *bool    `toml:"pretty_covers"`
}

// ArtworkConfig holds cover cache settings.
type ArtworkConfig struct {
	DiskCache     *bool  `toml:"disk_cache"`
	CacheDir      string `toml:"cache_dir"`
	MemoryEntries int    `toml:"memory_entries"`
}

// Load reads configuration from disk. If path is empty, a default OS-specific
// location is used.
func Load(path string) (*Config, string, error) {
	cfgPath := path
	if cfgPath == "" {
		var err error
		cfgPath, err = defaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve config path: %w", err)
		}
	}

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, cfgPath, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return nil, cfgPath, err
	}

	return &cfg, cfgPath, nil
}

func defaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	name := "cratedig"
	if runtime.GOOS == "windows" {
		name = "CrateDig"
	}
	base := filepath.Join(dir, name)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(base, "config.toml"), nil
}

func boolDefault(v **bool, def bool) {
	if *v == nil {
		b := def
		*v = &b
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Library.Name == "" {
		cfg.Library.Name = "collection"
	}
	if cfg.Library.DBPath == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			cfg.Library.DBPath = filepath.Join(dir, "cratedig", "library.db")
		} else {
			cfg.Library.DBPath = "library.db"
		}
	}
	if cfg.Library.Filter == "" {
		cfg.Library.Filter = "all"
	}
	if cfg.Library.MaxAgeDays == 0 {
		cfg.Library.MaxAgeDays = 14
	}
	if len(cfg.Browse.GroupBy) == 0 {
		cfg.Browse.GroupBy = []string{"albumartist", "albumdisc", "none"}
	}
	boolDefault(&cfg.Browse.ShowDividers, true)
	boolDefault(&cfg.Browse.ShowVariousArtists, true)
	boolDefault(&cfg.Browse.SortSkipsArticles, true)
	boolDefault(&cfg.Browse.PrettyCovers, true)
	boolDefault(&cfg.Artwork.DiskCache, true)
	if cfg.Artwork.MemoryEntries == 0 {
		cfg.Artwork.MemoryEntries = 160
	}
}

// Validate performs semantic validation of the loaded configuration.
func Validate(cfg Config) error {
	if len(cfg.Library.Roots) == 0 {
		return errors.New("library.roots is required")
	}
	for _, r := range cfg.Library.Roots {
		if r == "" {
			return errors.New("library.roots contains empty path")
		}
		if _, err := os.Stat(r); err != nil {
			return fmt.Errorf("library root %s: %w", r, err)
		}
	}
	switch cfg.Library.Filter {
	case "all", "new":
	default:
		return fmt.Errorf("library.filter must be all or new, got %q", cfg.Library.Filter)
	}
	if cfg.Library.MaxAgeDays < 0 {
		return errors.New("library.max_age_days must not be negative")
	}
	if len(cfg.Browse.GroupBy) == 0 {
		return errors.New("browse.group_by requires at least one level")
	}
	if len(cfg.Browse.GroupBy) > 3 {
		return fmt.Errorf("browse.group_by takes at most three levels, got %d", len(cfg.Browse.GroupBy))
	}
	for _, name := range cfg.Browse.GroupBy {
		if _, err := collection.GroupByFromName(name); err != nil {
			return fmt.Errorf("browse.group_by: %w", err)
		}
	}
	if first, _ := collection.GroupByFromName(cfg.Browse.GroupBy[0]); first == collection.GroupByNone {
		return errors.New("browse.group_by: first level must not be none")
	}
	if cfg.Artwork.MemoryEntries < 0 {
		return errors.New("artwork.memory_entries must not be negative")
	}
	return nil
}

// Grouping converts the configured group_by names into a grouping triple.
// Missing trailing levels become none.
func (c Config) Grouping() collection.Grouping {
	var levels [3]collection.GroupBy
	for i := range levels {
		levels[i] = collection.GroupByNone
		if i < len(c.Browse.GroupBy) {
			if g, err := collection.GroupByFromName(c.Browse.GroupBy[i]); err == nil {
				levels[i] = g
			}
		}
	}
	return collection.Grouping{First: levels[0], Second: levels[1], Third: levels[2]}
}

// FilterOptions converts the library filter settings.
func (c Config) FilterOptions() song.FilterOptions {
	f := song.FilterOptions{Mode: song.FilterModeAll}
	if c.Library.Filter == "new" {
		f.Mode = song.FilterModeNew
		f.MaxAge = time.Duration(c.Library.MaxAgeDays) * 24 * time.Hour
	}
	return f
}
