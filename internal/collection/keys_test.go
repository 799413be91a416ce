package collection

import (
	"testing"

	"github.com/cratedig/cratedig/internal/song"
)

func TestSortText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", " unknown"},
		{"Abbey Road", "abbey road"},
		{"AC/DC", "acdc"},
		{"R.E.M.", "rem"},
		{"Sigur Rós", "sigur rós"},
		{"Low_End Theory", "low_end theory"},
	}
	for _, tt := range tests {
		if got := SortText(tt.in); got != tt.want {
			t.Errorf("SortText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSortTextForArtist(t *testing.T) {
	tests := []struct {
		in           string
		skipArticles bool
		want         string
	}{
		{"The Beatles", true, "beatles, the"},
		{"The Beatles", false, "the beatles"},
		{"A Tribe Called Quest", true, "tribe called quest, a"},
		{"An Horse", true, "horse, an"},
		{"Therapy?", true, "therapy"},
		{"Beatles", true, "beatles"},
	}
	for _, tt := range tests {
		if got := SortTextForArtist(tt.in, tt.skipArticles); got != tt.want {
			t.Errorf("SortTextForArtist(%q, %v) = %q, want %q", tt.in, tt.skipArticles, got, tt.want)
		}
	}
}

func TestSortTextForSong(t *testing.T) {
	s := song.Song{Disc: 2, Track: 5, URL: "file:///a.flac"}
	if got := SortTextForSong(s); got != "002005file:///a.flac" {
		t.Errorf("SortTextForSong = %q", got)
	}
	neg := song.Song{Disc: -1, Track: -3, URL: "u"}
	if got := SortTextForSong(neg); got != "000000u" {
		t.Errorf("negative disc/track should clamp to zero, got %q", got)
	}
}

func TestPrettyFormatting(t *testing.T) {
	if got := PrettyYearAlbum(1994, "Grace"); got != "1994 - Grace" {
		t.Errorf("PrettyYearAlbum = %q", got)
	}
	if got := PrettyYearAlbum(0, ""); got != "Unknown" {
		t.Errorf("PrettyYearAlbum zero year = %q", got)
	}
	if got := PrettyAlbumDisc("Wall", 2); got != "Wall - (Disc 2)" {
		t.Errorf("PrettyAlbumDisc = %q", got)
	}
	if got := PrettyAlbumDisc("Wall (Disc 2)", 2); got != "Wall (Disc 2)" {
		t.Errorf("album naming its disc should not get a suffix, got %q", got)
	}
	if got := PrettyYearAlbumDisc(1979, "Wall", 2); got != "1979 - Wall - (Disc 2)" {
		t.Errorf("PrettyYearAlbumDisc = %q", got)
	}
	if got := PrettyDisc(0); got != "Disc 1" {
		t.Errorf("PrettyDisc(0) = %q", got)
	}
}

func TestContainerKeyAlbumSuffixes(t *testing.T) {
	s := song.Song{Album: "Greatest Hits", AlbumID: "mbid-1", Grouping: "remaster"}

	if got := ContainerKey(GroupByAlbum, false, s); got != "Greatest Hits-mbid-1" {
		t.Errorf("album key = %q", got)
	}
	if got := ContainerKey(GroupByAlbum, true, s); got != "Greatest Hits-mbid-1-remaster" {
		t.Errorf("album key with grouping separation = %q", got)
	}

	bare := song.Song{Album: "Greatest Hits"}
	if got := ContainerKey(GroupByAlbum, true, bare); got != "Greatest Hits" {
		t.Errorf("album key without IDs = %q", got)
	}
}

func TestContainerKeyArtistFallback(t *testing.T) {
	s := song.Song{Artist: "Nick Drake"}
	if got := ContainerKey(GroupByAlbumArtist, false, s); got != "Nick Drake" {
		t.Errorf("album artist should fall back to artist, got %q", got)
	}
	s.AlbumArtist = "Various Artists"
	if got := ContainerKey(GroupByAlbumArtist, false, s); got != "Various Artists" {
		t.Errorf("album artist key = %q", got)
	}
}

func TestFormatKey(t *testing.T) {
	tests := []struct {
		s    song.Song
		want string
	}{
		{song.Song{FileType: song.FileTypeFLAC, Samplerate: 44100, Bitdepth: 16}, "FLAC (44.1/16)"},
		{song.Song{FileType: song.FileTypeFLAC, Samplerate: 96000, Bitdepth: 24}, "FLAC (96/24)"},
		{song.Song{FileType: song.FileTypeMPEG, Samplerate: 44100}, "MPEG (44.1)"},
		{song.Song{FileType: song.FileTypeMPEG}, "MPEG"},
	}
	for _, tt := range tests {
		if got := ContainerKey(GroupByFormat, false, tt.s); got != tt.want {
			t.Errorf("format key = %q, want %q", got, tt.want)
		}
	}
}

func TestDividerKeyLetters(t *testing.T) {
	tests := []struct {
		sortText string
		want     string
	}{
		{"beatles, the", "b"},
		{"10000 maniacs", "0"},
		{"école", "e"}, // decomposes to base letter
		{" unknown", ""},
	}
	for _, tt := range tests {
		item := &Item{SortText: tt.sortText}
		if got := DividerKey(GroupByArtist, item); got != tt.want {
			t.Errorf("DividerKey(%q) = %q, want %q", tt.sortText, got, tt.want)
		}
	}
	if got := DividerKey(GroupByArtist, &Item{}); got != "" {
		t.Errorf("empty sort text should give no divider, got %q", got)
	}
}

func TestDividerKeyDecades(t *testing.T) {
	item := &Item{SortText: "1994 "}
	if got := DividerKey(GroupByYear, item); got != "1990" {
		t.Errorf("decade key = %q", got)
	}
	// Re-deriving the key after the divider prefix was prepended must give
	// the same bucket.
	item.SortText = "1990 " + item.SortText
	if got := DividerKey(GroupByYear, item); got != "1990" {
		t.Errorf("decade key after prefix = %q", got)
	}
}

func TestDividerKeyYearAlbum(t *testing.T) {
	item := &Item{SortText: "1994 grace", Metadata: song.Song{Year: 1994}}
	if got := DividerKey(GroupByYearAlbum, item); got != "1994" {
		t.Errorf("year-album divider = %q", got)
	}
}

func TestDividerKeyRates(t *testing.T) {
	item := &Item{SortText: "044 ", Metadata: song.Song{Samplerate: 44}}
	if got := DividerKey(GroupBySamplerate, item); got != "044" {
		t.Errorf("samplerate divider = %q", got)
	}
}

func TestDividerDisplayText(t *testing.T) {
	tests := []struct {
		groupBy GroupBy
		key     string
		want    string
	}{
		{GroupByArtist, "b", "B"},
		{GroupByArtist, "0", "0-9"},
		{GroupByYear, "1990", "1990"},
		{GroupByYear, "0000", "Unknown"},
		{GroupByYearAlbum, "1994", "1994"},
		{GroupByYearAlbum, "0000", "Unknown"},
		{GroupByBitrate, "320", "320"},
		{GroupByBitrate, "000", "Unknown"},
	}
	for _, tt := range tests {
		if got := DividerDisplayText(tt.groupBy, tt.key); got != tt.want {
			t.Errorf("DividerDisplayText(%v, %q) = %q, want %q", tt.groupBy, tt.key, got, tt.want)
		}
	}
}
