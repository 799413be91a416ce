package tui

import (
	"reflect"
	"strings"
	"testing"

	"github.com/cratedig/cratedig/internal/collection"
	"github.com/cratedig/cratedig/internal/song"
)

func buildTestModel() *collection.Model {
	cm := collection.New()
	cm.SetGroupBy(collection.DefaultGrouping(), false)
	cm.SetShowDividers(true)
	cm.AddSongs([]song.Song{
		{ID: 1, Title: "Prelude", Artist: "Bach", AlbumArtist: "Bach", Album: "Cello Suites", Track: 1, URL: "file:///bach/1.flac"},
		{ID: 2, Title: "Allemande", Artist: "Bach", AlbumArtist: "Bach", Album: "Cello Suites", Track: 2, URL: "file:///bach/2.flac"},
		{ID: 3, Title: "Ode to Joy", Artist: "Beethoven", AlbumArtist: "Beethoven", Album: "Symphony No. 9", Track: 1, URL: "file:///lvb/1.flac"},
	})
	return cm
}

func rowTexts(rows []row, kind rowKind) []string {
	var out []string
	for _, r := range rows {
		if r.kind == kind {
			out = append(out, r.text)
		}
	}
	return out
}

func TestFilteredRowsMatchesSubtree(t *testing.T) {
	cm := buildTestModel()

	rows := filteredRows(cm, cm.Root(), 0, "", []string{"beethoven"})
	if got := rowTexts(rows, rowContainer); !reflect.DeepEqual(got, []string{"Beethoven", "Symphony No. 9"}) {
		t.Errorf("containers = %v", got)
	}
	songs := rowTexts(rows, rowSong)
	if len(songs) != 1 || !strings.Contains(songs[0], "Ode to Joy") {
		t.Errorf("songs = %v", songs)
	}
	if got := rowTexts(rows, rowDivider); got != nil {
		t.Errorf("dividers should be hidden while filtering, got %v", got)
	}
	for _, r := range rows {
		if r.kind == rowContainer && !r.expanded {
			t.Errorf("matched container %q should come back expanded", r.text)
		}
	}
}

func TestFilteredRowsTokensSpanLevels(t *testing.T) {
	cm := buildTestModel()

	// One token matches the artist, the other the album below it.
	rows := filteredRows(cm, cm.Root(), 0, "", []string{"bach", "suites"})
	if got := rowTexts(rows, rowContainer); !reflect.DeepEqual(got, []string{"Bach", "Cello Suites"}) {
		t.Errorf("containers = %v", got)
	}
	if got := rowTexts(rows, rowSong); len(got) != 2 {
		t.Errorf("songs = %v", got)
	}
}

func TestFilteredRowsNoMatch(t *testing.T) {
	cm := buildTestModel()

	if rows := filteredRows(cm, cm.Root(), 0, "", []string{"zeppelin"}); len(rows) != 0 {
		t.Errorf("rows = %v", rows)
	}
}

func TestPruneTokens(t *testing.T) {
	tokens := []string{"cello", "bach"}
	if got := pruneTokens(tokens, "Bach"); !reflect.DeepEqual(got, []string{"cello"}) {
		t.Errorf("pruneTokens = %v", got)
	}
	if got := pruneTokens([]string{"cello"}, "Cello Suites"); got != nil {
		t.Errorf("pruneTokens = %v", got)
	}
	if got := pruneTokens(nil, "Bach"); got != nil {
		t.Errorf("pruneTokens of nothing = %v", got)
	}
}

func TestVisibleRowsRespectsExpansion(t *testing.T) {
	cm := buildTestModel()

	rows := visibleRows(cm, cm.Root(), 0, "", map[string]struct{}{})
	// Collapsed tree shows only the top-level dividers.
	if got := rowTexts(rows, rowDivider); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("collapsed dividers = %v", got)
	}
	if got := rowTexts(rows, rowContainer); got != nil {
		t.Errorf("collapsed tree leaked containers: %v", got)
	}

	expanded := map[string]struct{}{rows[0].path: {}}
	rows = visibleRows(cm, cm.Root(), 0, "", expanded)
	if got := rowTexts(rows, rowContainer); !reflect.DeepEqual(got, []string{"Bach", "Beethoven"}) {
		t.Errorf("divider children = %v", got)
	}
	if got := rowTexts(rows, rowSong); got != nil {
		t.Errorf("collapsed artists leaked songs: %v", got)
	}

	for _, r := range rows {
		if r.text == "Bach" {
			expanded[r.path] = struct{}{}
		}
	}
	rows = visibleRows(cm, cm.Root(), 0, "", expanded)
	if got := rowTexts(rows, rowContainer); !reflect.DeepEqual(got, []string{"Bach", "Cello Suites", "Beethoven"}) {
		t.Errorf("expanded containers = %v", got)
	}
}
