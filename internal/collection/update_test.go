package collection

import (
	"testing"

	"github.com/cratedig/cratedig/internal/song"
)

func TestSplitUpdate(t *testing.T) {
	songs := make([]song.Song, 1000)
	for i := range songs {
		songs[i] = mkSong(int64(i+1), "Artist", "Album", "Title", i)
	}

	updates := splitUpdate(UpdateTypeAdd, songs)
	if len(updates) != 3 {
		t.Fatalf("chunks = %d, want 3", len(updates))
	}
	if len(updates[0].Songs) != 400 || len(updates[1].Songs) != 400 || len(updates[2].Songs) != 200 {
		t.Errorf("chunk sizes = %d/%d/%d", len(updates[0].Songs), len(updates[1].Songs), len(updates[2].Songs))
	}
	if updates[0].Songs[0].ID != 1 || updates[2].Songs[199].ID != 1000 {
		t.Error("chunking must preserve order")
	}
	for _, u := range updates {
		if u.Type != UpdateTypeAdd {
			t.Errorf("chunk type = %v", u.Type)
		}
	}
}

func TestSplitUpdateEmpty(t *testing.T) {
	if got := splitUpdate(UpdateTypeRemove, nil); got != nil {
		t.Errorf("empty batch should produce no entries, got %d", len(got))
	}
}

func TestUpdateApplyDispatch(t *testing.T) {
	m := New()
	s := mkSong(1, "Bach", "Cello Suites", "Suite No. 1", 1)

	Update{Type: UpdateTypeAdd, Songs: []song.Song{s}}.apply(m)
	if m.SongNodeCount() != 1 {
		t.Fatal("add not applied")
	}

	s.Album = "Goldberg Variations"
	Update{Type: UpdateTypeReAddOrUpdate, Songs: []song.Song{s}}.apply(m)
	artist := findChild(m, m.Root(), "Bach")
	if findChild(m, artist, "Goldberg Variations") == nil {
		t.Error("re-add not applied")
	}

	Update{Type: UpdateTypeRemove, Songs: []song.Song{s}}.apply(m)
	if m.SongNodeCount() != 0 {
		t.Error("remove not applied")
	}
}
