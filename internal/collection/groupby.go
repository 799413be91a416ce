package collection

import "fmt"

// GroupBy is one grouping criterion for a tree level.
type GroupBy int

const (
	GroupByNone GroupBy = iota
	GroupByAlbumArtist
	GroupByArtist
	GroupByAlbum
	GroupByAlbumDisc
	GroupByYearAlbum
	GroupByYearAlbumDisc
	GroupByOriginalYearAlbum
	GroupByOriginalYearAlbumDisc
	GroupByDisc
	GroupByYear
	GroupByOriginalYear
	GroupByGenre
	GroupByComposer
	GroupByPerformer
	GroupByGrouping
	GroupByFileType
	GroupByFormat
	GroupBySamplerate
	GroupByBitdepth
	GroupByBitrate
)

var groupByNames = map[GroupBy]string{
	GroupByNone:                  "none",
	GroupByAlbumArtist:           "albumartist",
	GroupByArtist:                "artist",
	GroupByAlbum:                 "album",
	GroupByAlbumDisc:             "albumdisc",
	GroupByYearAlbum:             "yearalbum",
	GroupByYearAlbumDisc:         "yearalbumdisc",
	GroupByOriginalYearAlbum:     "originalyearalbum",
	GroupByOriginalYearAlbumDisc: "originalyearalbumdisc",
	GroupByDisc:                  "disc",
	GroupByYear:                  "year",
	GroupByOriginalYear:          "originalyear",
	GroupByGenre:                 "genre",
	GroupByComposer:              "composer",
	GroupByPerformer:             "performer",
	GroupByGrouping:              "grouping",
	GroupByFileType:              "filetype",
	GroupByFormat:                "format",
	GroupBySamplerate:            "samplerate",
	GroupByBitdepth:              "bitdepth",
	GroupByBitrate:               "bitrate",
}

func (g GroupBy) String() string {
	if name, ok := groupByNames[g]; ok {
		return name
	}
	return fmt.Sprintf("groupby(%d)", int(g))
}

// GroupByFromName parses a config name back into a criterion.
func GroupByFromName(name string) (GroupBy, error) {
	for g, n := range groupByNames {
		if n == name {
			return g, nil
		}
	}
	return GroupByNone, fmt.Errorf("unknown group-by criterion %q", name)
}

// IsArtistGroupBy reports whether the criterion buckets by an artist field.
// Compilation songs route through the shared Various Artists container at
// these levels.
func IsArtistGroupBy(g GroupBy) bool {
	return g == GroupByArtist || g == GroupByAlbumArtist
}

// IsAlbumGroupBy reports whether containers at this criterion represent an
// album, and so carry cover art.
func IsAlbumGroupBy(g GroupBy) bool {
	switch g {
	case GroupByAlbum, GroupByYearAlbum, GroupByAlbumDisc, GroupByYearAlbumDisc,
		GroupByOriginalYearAlbum, GroupByOriginalYearAlbumDisc:
		return true
	}
	return false
}

// Grouping is the ordered three-level criterion configuration. Unused levels
// are GroupByNone; the first None terminates the walk.
type Grouping struct {
	First  GroupBy
	Second GroupBy
	Third  GroupBy
}

// DefaultGrouping is album artist / album+disc, songs below.
func DefaultGrouping() Grouping {
	return Grouping{First: GroupByAlbumArtist, Second: GroupByAlbumDisc, Third: GroupByNone}
}

// Level returns the criterion at level i (0..2).
func (g Grouping) Level(i int) GroupBy {
	switch i {
	case 0:
		return g.First
	case 1:
		return g.Second
	case 2:
		return g.Third
	}
	return GroupByNone
}
