package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cratedig/cratedig/internal/song"
)

// Listener receives change notifications after store mutations commit. The
// callbacks run on the mutating goroutine; listeners must hand the batches
// off to their own context quickly.
type Listener interface {
	SongsAdded(songs []song.Song)
	SongsDeleted(songs []song.Song)
	SongsChanged(songs []song.Song)
}

// Store is the SQLite-backed song database behind the collection index. Its
// connection handles its own locking; callers may use it from any goroutine.
type Store struct {
	db     *sql.DB
	source string

	mu        sync.Mutex
	listeners []Listener
}

// Open opens (creating if needed) the song database at path. The source name
// identifies this library in artwork cache keys.
func Open(path, source string) (*Store, error) {
	if source == "" {
		source = "collection"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open song db: %w", err)
	}
	st := &Store{db: db, source: source}
	if err := st.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

// Close closes the database.
func (st *Store) Close() error { return st.db.Close() }

// Source is the library name used as the artwork cache key prefix.
func (st *Store) Source() string { return st.source }

// AddListener registers a change listener.
func (st *Store) AddListener(l Listener) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.listeners = append(st.listeners, l)
}

func (st *Store) snapshotListeners() []Listener {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Listener, len(st.listeners))
	copy(out, st.listeners)
	return out
}

func (st *Store) ensureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS songs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			albumartist TEXT NOT NULL DEFAULT '',
			album TEXT NOT NULL DEFAULT '',
			album_id TEXT NOT NULL DEFAULT '',
			track INTEGER NOT NULL DEFAULT 0,
			disc INTEGER NOT NULL DEFAULT 0,
			year INTEGER NOT NULL DEFAULT 0,
			originalyear INTEGER NOT NULL DEFAULT 0,
			genre TEXT NOT NULL DEFAULT '',
			composer TEXT NOT NULL DEFAULT '',
			performer TEXT NOT NULL DEFAULT '',
			grouping TEXT NOT NULL DEFAULT '',
			filetype INTEGER NOT NULL DEFAULT 0,
			samplerate INTEGER NOT NULL DEFAULT 0,
			bitdepth INTEGER NOT NULL DEFAULT 0,
			bitrate INTEGER NOT NULL DEFAULT 0,
			compilation INTEGER NOT NULL DEFAULT 0,
			url TEXT NOT NULL UNIQUE,
			ctime INTEGER NOT NULL DEFAULT 0,
			mtime INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_songs_albumartist ON songs(albumartist, album, disc, track);`,
		`CREATE INDEX IF NOT EXISTS idx_songs_ctime ON songs(ctime);`,
	}
	for _, stmt := range schema {
		if _, err := st.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

const songColumns = `id, title, artist, albumartist, album, album_id, track, disc, year, originalyear,
	genre, composer, performer, grouping, filetype, samplerate, bitdepth, bitrate, compilation, url, ctime, mtime`

func scanSong(rows *sql.Rows) (song.Song, error) {
	var s song.Song
	var filetype int
	err := rows.Scan(&s.ID, &s.Title, &s.Artist, &s.AlbumArtist, &s.Album, &s.AlbumID,
		&s.Track, &s.Disc, &s.Year, &s.OriginalYear,
		&s.Genre, &s.Composer, &s.Performer, &s.Grouping,
		&filetype, &s.Samplerate, &s.Bitdepth, &s.Bitrate, &s.Compilation, &s.URL, &s.CTime, &s.MTime)
	s.FileType = song.FileType(filetype)
	return s, err
}

// All returns every song matching the filter, ordered by ID. This is the
// full-reload query; it honors the filter the same way the incremental path
// does.
func (st *Store) All(ctx context.Context, filter song.FilterOptions) ([]song.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs`
	var args []any
	if filter.Mode == song.FilterModeNew && filter.MaxAge > 0 {
		query += ` WHERE ctime >= ?`
		args = append(args, time.Now().Add(-filter.MaxAge).Unix())
	}
	query += ` ORDER BY id`

	rows, err := st.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	var songs []song.Song
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

// AddSongs upserts records by URL. Songs whose URL is already stored keep
// their database ID and add time and go to listeners as SongsChanged; new
// rows are assigned IDs and go out as SongsAdded. The returned slice holds
// the stored batch in input order.
func (st *Store) AddSongs(ctx context.Context, songs []song.Song) ([]song.Song, error) {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lookup, err := tx.PrepareContext(ctx, `SELECT id, ctime FROM songs WHERE url = ?`)
	if err != nil {
		return nil, err
	}
	defer lookup.Close()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO songs (`+songColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(url) DO UPDATE SET
			title=excluded.title, artist=excluded.artist, albumartist=excluded.albumartist,
			album=excluded.album, album_id=excluded.album_id, track=excluded.track,
			disc=excluded.disc, year=excluded.year, originalyear=excluded.originalyear,
			genre=excluded.genre, composer=excluded.composer, performer=excluded.performer,
			grouping=excluded.grouping, filetype=excluded.filetype, samplerate=excluded.samplerate,
			bitdepth=excluded.bitdepth, bitrate=excluded.bitrate, compilation=excluded.compilation,
			mtime=excluded.mtime`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	stored := make([]song.Song, 0, len(songs))
	var added, changed []song.Song
	for _, s := range songs {
		var existingID, existingCTime int64
		err := lookup.QueryRowContext(ctx, s.URL).Scan(&existingID, &existingCTime)
		known := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lookup song %q: %w", s.URL, err)
		}
		if known {
			s.ID = existingID
			s.CTime = existingCTime
		}
		var id any
		if s.ID > 0 {
			id = s.ID
		}
		res, err := stmt.ExecContext(ctx, id, s.Title, s.Artist, s.AlbumArtist, s.Album, s.AlbumID,
			s.Track, s.Disc, s.Year, s.OriginalYear,
			s.Genre, s.Composer, s.Performer, s.Grouping,
			int(s.FileType), s.Samplerate, s.Bitdepth, s.Bitrate, s.Compilation, s.URL, s.CTime, s.MTime)
		if err != nil {
			return nil, fmt.Errorf("insert song %q: %w", s.Title, err)
		}
		if s.ID <= 0 {
			s.ID, err = res.LastInsertId()
			if err != nil {
				return nil, err
			}
		}
		stored = append(stored, s)
		if known {
			changed = append(changed, s)
		} else {
			added = append(added, s)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add: %w", err)
	}

	for _, l := range st.snapshotListeners() {
		if len(added) > 0 {
			l.SongsAdded(added)
		}
		if len(changed) > 0 {
			l.SongsChanged(changed)
		}
	}
	return stored, nil
}

// RemoveSongs deletes records by ID and notifies listeners.
func (st *Store) RemoveSongs(ctx context.Context, songs []song.Song) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, s := range songs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, s.ID); err != nil {
			return fmt.Errorf("delete song %d: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove: %w", err)
	}

	for _, l := range st.snapshotListeners() {
		l.SongsDeleted(songs)
	}
	return nil
}

// UpdateSongs rewrites records in place and notifies listeners. Callers use
// this for tag edits; the collection decides whether each song relocates.
func (st *Store) UpdateSongs(ctx context.Context, songs []song.Song) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE songs SET
		title=?, artist=?, albumartist=?, album=?, album_id=?, track=?, disc=?, year=?, originalyear=?,
		genre=?, composer=?, performer=?, grouping=?, filetype=?, samplerate=?, bitdepth=?, bitrate=?,
		compilation=?, url=?, mtime=? WHERE id=?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range songs {
		if _, err := stmt.ExecContext(ctx, s.Title, s.Artist, s.AlbumArtist, s.Album, s.AlbumID,
			s.Track, s.Disc, s.Year, s.OriginalYear,
			s.Genre, s.Composer, s.Performer, s.Grouping,
			int(s.FileType), s.Samplerate, s.Bitdepth, s.Bitrate, s.Compilation, s.URL, s.MTime, s.ID); err != nil {
			return fmt.Errorf("update song %d: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}

	for _, l := range st.snapshotListeners() {
		l.SongsChanged(songs)
	}
	return nil
}

// Totals are the library-wide counts shown in status surfaces.
type Totals struct {
	Songs   int
	Artists int
	Albums  int
}

// TotalCounts queries the song, artist and album counts.
func (st *Store) TotalCounts(ctx context.Context) (Totals, error) {
	var t Totals
	row := st.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COUNT(DISTINCT CASE WHEN albumartist != '' THEN albumartist ELSE artist END),
		COUNT(DISTINCT album)
		FROM songs`)
	if err := row.Scan(&t.Songs, &t.Artists, &t.Albums); err != nil {
		return Totals{}, fmt.Errorf("count songs: %w", err)
	}
	return t, nil
}

// UpdateTotalsAsync queries the counts off the calling goroutine and
// delivers them through the callback. Errors just skip the callback; counts
// are advisory.
func (st *Store) UpdateTotalsAsync(ctx context.Context, fn func(Totals)) {
	go func() {
		t, err := st.TotalCounts(ctx)
		if err != nil {
			return
		}
		fn(t)
	}()
}
