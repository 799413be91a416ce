package artwork

import (
	"fmt"
	"image"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache holds resolved cover thumbnails: an in-memory LRU in front of an
// optional on-disk store. Keys are the hierarchical display-label paths built
// by the collection browser.
type Cache struct {
	mem         *lru.Cache[string, image.Image]
	baseDir     string
	diskEnabled bool
}

// NewCache creates a cache with the given in-memory entry limit. When
// diskEnabled is set, entries are also persisted as PNG files under baseDir
// (a default user cache location when empty).
func NewCache(memEntries int, baseDir string, diskEnabled bool) (*Cache, error) {
	if memEntries <= 0 {
		memEntries = 512
	}
	mem, err := lru.New[string, image.Image](memEntries)
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}

	if diskEnabled {
		if baseDir == "" {
			baseDir, err = defaultCacheDir()
			if err != nil {
				return nil, fmt.Errorf("resolve cache dir: %w", err)
			}
		}
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	return &Cache{mem: mem, baseDir: baseDir, diskEnabled: diskEnabled}, nil
}

func defaultCacheDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, "Library", "Caches", "cratedig", "covers")
	case "windows":
		dir, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(dir, "Cratedig", "covers")
	default:
		dir, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(dir, "cratedig", "covers")
	}
	return base, nil
}

// DiskEnabled reports whether the on-disk store is active.
func (c *Cache) DiskEnabled() bool { return c.diskEnabled }

func (c *Cache) diskPath(key string) string {
	return filepath.Join(c.baseDir, url.PathEscape(key)+".png")
}

// Get returns a thumbnail from the in-memory cache.
func (c *Cache) Get(key string) (image.Image, bool) {
	return c.mem.Get(key)
}

// Add stores a thumbnail in the in-memory cache.
func (c *Cache) Add(key string, img image.Image) {
	c.mem.Add(key, img)
}

// GetDisk loads a previously persisted thumbnail and promotes it into the
// in-memory cache on success.
func (c *Cache) GetDisk(key string) (image.Image, bool) {
	if !c.diskEnabled {
		return nil, false
	}
	f, err := os.Open(c.diskPath(key))
	if err != nil {
		return nil, false
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, false
	}
	c.mem.Add(key, img)
	return img, true
}

// HasDisk reports whether a persisted entry exists for the key.
func (c *Cache) HasDisk(key string) bool {
	if !c.diskEnabled {
		return false
	}
	_, err := os.Stat(c.diskPath(key))
	return err == nil
}

// PutDisk persists a thumbnail; existing entries are left untouched.
func (c *Cache) PutDisk(key string, img image.Image) error {
	if !c.diskEnabled {
		return nil
	}
	path := c.diskPath(key)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cover file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		os.Remove(path)
		return fmt.Errorf("encode cover: %w", err)
	}
	return nil
}

// Remove drops a key from both memory and disk. Called when its tree node is
// pruned.
func (c *Cache) Remove(key string) {
	c.mem.Remove(key)
	if c.diskEnabled {
		os.Remove(c.diskPath(key))
	}
}

// Clear empties the in-memory cache and deletes all persisted entries.
func (c *Cache) Clear() error {
	c.mem.Purge()
	if !c.diskEnabled {
		return nil
	}
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".png" {
			os.Remove(filepath.Join(c.baseDir, e.Name()))
		}
	}
	return nil
}

// DiskSize returns the total size of the persisted entries in bytes.
func (c *Cache) DiskSize() (int64, error) {
	if !c.diskEnabled {
		return 0, nil
	}
	var total int64
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".png" {
			if info, err := e.Info(); err == nil {
				total += info.Size()
			}
		}
	}
	return total, nil
}
