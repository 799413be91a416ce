package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cratedig/cratedig/internal/collection"
	"github.com/cratedig/cratedig/internal/song"
)

func TestValidate(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Library: LibraryConfig{Roots: []string{root}, Filter: "all"},
				Browse:  BrowseConfig{GroupBy: []string{"albumartist", "albumdisc", "none"}},
			},
			wantErr: false,
		},
		{
			name:    "missing roots",
			cfg:     Config{Library: LibraryConfig{Filter: "all"}},
			wantErr: true,
		},
		{
			name: "nonexistent root",
			cfg: Config{
				Library: LibraryConfig{Roots: []string{"/nonexistent/music"}, Filter: "all"},
				Browse:  BrowseConfig{GroupBy: []string{"artist"}},
			},
			wantErr: true,
		},
		{
			name: "bad filter",
			cfg: Config{
				Library: LibraryConfig{Roots: []string{root}, Filter: "recent"},
				Browse:  BrowseConfig{GroupBy: []string{"artist"}},
			},
			wantErr: true,
		},
		{
			name: "unknown group by",
			cfg: Config{
				Library: LibraryConfig{Roots: []string{root}, Filter: "all"},
				Browse:  BrowseConfig{GroupBy: []string{"mood"}},
			},
			wantErr: true,
		},
		{
			name: "first level none",
			cfg: Config{
				Library: LibraryConfig{Roots: []string{root}, Filter: "all"},
				Browse:  BrowseConfig{GroupBy: []string{"none", "album"}},
			},
			wantErr: true,
		},
		{
			name: "empty group by",
			cfg: Config{
				Library: LibraryConfig{Roots: []string{root}, Filter: "all"},
				Browse:  BrowseConfig{GroupBy: []string{}},
			},
			wantErr: true,
		},
		{
			name: "too many levels",
			cfg: Config{
				Library: LibraryConfig{Roots: []string{root}, Filter: "all"},
				Browse:  BrowseConfig{GroupBy: []string{"artist", "album", "none", "none"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[library]\nroots = [\"" + root + "\"]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, gotPath, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotPath != path {
		t.Errorf("path = %q, want %q", gotPath, path)
	}
	if cfg.Library.Filter != "all" {
		t.Errorf("filter default = %q, want all", cfg.Library.Filter)
	}
	if got := cfg.Grouping(); got != collection.DefaultGrouping() {
		t.Errorf("grouping default = %v, want %v", got, collection.DefaultGrouping())
	}
	if !*cfg.Browse.ShowDividers || !*cfg.Browse.PrettyCovers {
		t.Error("browse toggles should default on")
	}
	if cfg.Artwork.MemoryEntries != 160 {
		t.Errorf("memory_entries default = %d", cfg.Artwork.MemoryEntries)
	}
}

func TestLoadExplicitSettings(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[library]
roots = ["` + root + `"]
filter = "new"
max_age_days = 7

[browse]
group_by = ["genre", "album"]
show_dividers = false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := cfg.FilterOptions()
	if f.Mode != song.FilterModeNew {
		t.Errorf("filter mode = %v, want new", f.Mode)
	}
	if f.MaxAge != 7*24*60*60*1e9 {
		t.Errorf("max age = %v", f.MaxAge)
	}
	g := cfg.Grouping()
	if g.First != collection.GroupByGenre || g.Second != collection.GroupByAlbum || g.Third != collection.GroupByNone {
		t.Errorf("grouping = %v", g)
	}
	if *cfg.Browse.ShowDividers {
		t.Error("show_dividers should be off")
	}
}
