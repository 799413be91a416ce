package store

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/cratedig/cratedig/internal/song"
)

var allowedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".mp4":  true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".wv":   true,
	".ape":  true,
	".aiff": true,
}

// Scan walks the given roots, reads tags from every audio file and upserts
// the results, batching notifications through AddSongs. Files already known
// keep their ID and original add time. Returns the number of songs stored.
func Scan(ctx context.Context, st *Store, roots []string) (int, error) {
	var batch []song.Song
	total := 0
	now := time.Now().Unix()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		stored, err := st.AddSongs(ctx, batch)
		if err != nil {
			return err
		}
		total += len(stored)
		batch = batch[:0]
		return nil
	}

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !allowedExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			s, ok := songFromFile(path)
			if !ok {
				return nil
			}
			s.CTime = now

			batch = append(batch, s)
			if len(batch) >= 200 {
				return flush()
			}
			return nil
		})
		if err != nil {
			return total, err
		}
	}

	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func songFromFile(path string) (song.Song, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return song.Song{}, false
	}

	f, err := os.Open(path)
	if err != nil {
		return song.Song{}, false
	}
	defer f.Close()

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	s := song.Song{
		FileType: song.FileTypeForExtension(ext),
		URL:      (&url.URL{Scheme: "file", Path: path}).String(),
		MTime:    info.ModTime().Unix(),
	}

	meta, err := tag.ReadFrom(f)
	if err != nil {
		slog.Debug("no readable tags", "path", path, "err", err)
	} else {
		s.Title = meta.Title()
		s.Artist = meta.Artist()
		s.AlbumArtist = meta.AlbumArtist()
		s.Album = meta.Album()
		s.Genre = meta.Genre()
		s.Composer = meta.Composer()
		s.Year = meta.Year()
		s.Track, _ = meta.Track()
		s.Disc, _ = meta.Disc()
		s.Compilation = strings.EqualFold(s.AlbumArtist, "Various Artists")
	}

	if s.Title == "" {
		s.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if s.Album == "" {
		parent := filepath.Base(filepath.Dir(path))
		if parent != "." && parent != string(filepath.Separator) {
			s.Album = parent
		}
	}
	return s, true
}
