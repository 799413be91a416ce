package collection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cratedig/cratedig/internal/song"
)

// fakeBackend serves a different song set per query, optionally gating each
// query on a release channel.
type fakeBackend struct {
	mu      sync.Mutex
	sets    [][]song.Song
	calls   int
	release chan struct{}
}

func (f *fakeBackend) All(ctx context.Context, filter song.FilterOptions) ([]song.Song, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if call >= len(f.sets) {
		call = len(f.sets) - 1
	}
	return f.sets[call], nil
}

func (f *fakeBackend) Source() string { return "test" }

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitIdle(t *testing.T, b *Browser) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.WaitIdle(ctx); err != nil {
		t.Fatalf("browser never went idle: %v", err)
	}
}

func songCount(b *Browser) int {
	var n int
	b.Do(func(m *Model) { n = m.SongNodeCount() })
	return n
}

func TestBrowserInitLoads(t *testing.T) {
	fb := &fakeBackend{sets: [][]song.Song{{
		mkSong(1, "Bach", "Cello Suites", "Suite No. 1", 1),
		mkSong(2, "Bach", "Cello Suites", "Suite No. 2", 2),
	}}}
	b := NewBrowser(fb, nil, nil)
	defer b.Close()

	b.Init()
	waitIdle(t, b)

	if got := songCount(b); got != 2 {
		t.Errorf("songs after load = %d, want 2", got)
	}
	if fb.callCount() != 1 {
		t.Errorf("queries = %d, want 1", fb.callCount())
	}
}

func TestBrowserDebouncesReloads(t *testing.T) {
	fb := &fakeBackend{sets: [][]song.Song{{mkSong(1, "Bach", "Cello Suites", "Suite No. 1", 1)}}}
	b := NewBrowser(fb, nil, nil)
	defer b.Close()

	// A burst of configuration changes coalesces into one rebuild.
	b.SetShowDividers(false)
	b.SetSortSkipsArticles(false)
	b.SetGroupBy(Grouping{First: GroupByGenre}, false)
	waitIdle(t, b)

	if fb.callCount() != 1 {
		t.Errorf("queries = %d, want 1", fb.callCount())
	}
}

func TestBrowserStaleQueryDiscarded(t *testing.T) {
	fb := &fakeBackend{
		sets: [][]song.Song{
			{mkSong(1, "Old", "Old Album", "Old Song", 1)},
			{
				mkSong(2, "New", "New Album", "New Song 1", 1),
				mkSong(3, "New", "New Album", "New Song 2", 2),
			},
		},
		release: make(chan struct{}),
	}
	b := NewBrowser(fb, nil, nil)
	defer b.Close()

	b.Init()
	// Wait for the first query to be in flight, then supersede it while it
	// is still blocked.
	deadline := time.Now().Add(5 * time.Second)
	for fb.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first query never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	b.SetShowDividers(false)
	for fb.callCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("second query never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Release both queries; the first generation's result must be dropped.
	close(fb.release)
	waitIdle(t, b)

	if got := songCount(b); got != 2 {
		t.Errorf("songs = %d, want the superseding query's 2", got)
	}
	b.Do(func(m *Model) {
		if m.HasSong(1) {
			t.Error("stale query's song leaked into the tree")
		}
	})
}

func TestBrowserListenerBatches(t *testing.T) {
	fb := &fakeBackend{sets: [][]song.Song{{mkSong(1, "Bach", "Cello Suites", "Suite No. 1", 1)}}}
	b := NewBrowser(fb, nil, nil)
	defer b.Close()
	b.Init()
	waitIdle(t, b)

	added := mkSong(2, "Beethoven", "Symphony No. 9", "Ode to Joy", 1)
	b.SongsAdded([]song.Song{added})
	waitIdle(t, b)
	if got := songCount(b); got != 2 {
		t.Fatalf("songs after add = %d, want 2", got)
	}

	added.Album = "Symphony No. 5"
	b.SongsChanged([]song.Song{added})
	waitIdle(t, b)
	b.Do(func(m *Model) {
		if _, ok := m.ContainerNode(1, "Beethoven-Symphony No. 5"); !ok {
			t.Error("changed song should live under its new album")
		}
	})

	b.SongsDeleted([]song.Song{added})
	waitIdle(t, b)
	if got := songCount(b); got != 1 {
		t.Errorf("songs after delete = %d, want 1", got)
	}
}

func TestBrowserChunksLargeBatches(t *testing.T) {
	songs := make([]song.Song, 900)
	for i := range songs {
		songs[i] = mkSong(int64(i+1), "Artist", "Album", "Title", i)
	}
	fb := &fakeBackend{sets: [][]song.Song{songs}}
	b := NewBrowser(fb, nil, nil)
	defer b.Close()

	b.Init()
	waitIdle(t, b)

	if got := songCount(b); got != 900 {
		t.Errorf("songs = %d, want 900", got)
	}
}

func TestBrowserTotals(t *testing.T) {
	fb := &fakeBackend{sets: [][]song.Song{nil}}
	b := NewBrowser(fb, nil, nil)
	defer b.Close()

	b.SetTotals(100, 10, 20)
	songs, artists, albums := b.Totals()
	if songs != 100 || artists != 10 || albums != 20 {
		t.Errorf("totals = %d/%d/%d", songs, artists, albums)
	}
}

func TestBrowserIconWithoutLoader(t *testing.T) {
	fb := &fakeBackend{sets: [][]song.Song{{mkSong(1, "Bach", "Cello Suites", "Suite No. 1", 1)}}}
	b := NewBrowser(fb, nil, nil)
	defer b.Close()
	b.Init()
	waitIdle(t, b)

	b.Do(func(m *Model) {
		artist := findChild(m, m.Root(), "Bach")
		if img := b.Icon(artist); img == nil {
			t.Error("icon should fall back to the placeholder")
		}
	})
}

func TestBrowserCloseUnblocksDo(t *testing.T) {
	fb := &fakeBackend{sets: [][]song.Song{nil}}
	b := NewBrowser(fb, nil, nil)
	b.Close()

	done := make(chan struct{})
	go func() {
		b.Do(func(*Model) {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Do blocked after Close")
	}
}
