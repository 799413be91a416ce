package collection

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/cratedig/cratedig/internal/song"
)

// TextOrUnknown substitutes a label for empty tag fields.
func TextOrUnknown(text string) string {
	if text == "" {
		return "Unknown"
	}
	return text
}

// PrettyYearAlbum formats "1994 - Album Name".
func PrettyYearAlbum(year int, album string) string {
	if year <= 0 {
		return TextOrUnknown(album)
	}
	return strconv.Itoa(year) + " - " + TextOrUnknown(album)
}

// PrettyAlbumDisc appends a disc suffix unless the album title already
// carries one.
func PrettyAlbumDisc(album string, disc int) string {
	if disc <= 0 || song.AlbumContainsDisc(album) {
		return TextOrUnknown(album)
	}
	return TextOrUnknown(album) + " - (Disc " + strconv.Itoa(disc) + ")"
}

// PrettyYearAlbumDisc combines both of the above.
func PrettyYearAlbumDisc(year int, album string, disc int) string {
	var str string
	if year <= 0 {
		str = TextOrUnknown(album)
	} else {
		str = strconv.Itoa(year) + " - " + TextOrUnknown(album)
	}
	if !song.AlbumContainsDisc(album) && disc > 0 {
		str += " - (Disc " + strconv.Itoa(disc) + ")"
	}
	return str
}

// PrettyDisc formats "Disc 2".
func PrettyDisc(disc int) string {
	return "Disc " + strconv.Itoa(max(1, disc))
}

var sortTextStrip = regexp.MustCompile(`[^\p{L}\p{N}_ ]+`)

// SortText folds display text into a lexicographically comparable form:
// lower case, punctuation removed.
func SortText(text string) string {
	if text == "" {
		return " unknown"
	}
	return sortTextStrip.ReplaceAllString(strings.ToLower(text), "")
}

// SortTextForArtist additionally rewrites a leading article, so "The Beatles"
// sorts as "beatles, the".
func SortTextForArtist(artist string, skipArticles bool) string {
	artist = SortText(artist)
	if skipArticles {
		for _, article := range song.Articles {
			if strings.HasPrefix(artist, article) {
				artist = artist[len(article):] + ", " + strings.TrimSuffix(article, " ")
				break
			}
		}
	}
	return artist
}

// SortTextForNumber zero-pads to four digits so lexicographic and numeric
// order coincide for years.
func SortTextForNumber(number int) string {
	return fmt.Sprintf("%04d", number)
}

// SortTextForBitrate zero-pads to three digits, used for bitrate, samplerate
// and bit depth buckets.
func SortTextForBitrate(bitrate int) string {
	return fmt.Sprintf("%03d", bitrate)
}

// SortTextForSong orders leaves by disc then track, with the location URL
// appended so equal track numbers still produce a total order.
func SortTextForSong(s song.Song) string {
	return fmt.Sprintf("%06d", max(0, s.Disc)*1000+max(0, s.Track)) + s.URL
}

// ContainerKey derives the bucket key for a song under one criterion. Album
// criteria append the album ID and, when enabled, the grouping tag so albums
// sharing a title stay separate.
func ContainerKey(groupBy GroupBy, separateAlbumsByGrouping bool, s song.Song) string {
	albumSuffix := func(key string) string {
		if s.AlbumID != "" {
			key += "-" + s.AlbumID
		}
		if separateAlbumsByGrouping && s.Grouping != "" {
			key += "-" + s.Grouping
		}
		return key
	}

	switch groupBy {
	case GroupByAlbumArtist:
		return TextOrUnknown(s.EffectiveAlbumArtist())
	case GroupByArtist:
		return TextOrUnknown(s.Artist)
	case GroupByAlbum:
		return albumSuffix(TextOrUnknown(s.Album))
	case GroupByAlbumDisc:
		return albumSuffix(PrettyAlbumDisc(s.Album, s.Disc))
	case GroupByYearAlbum:
		return albumSuffix(PrettyYearAlbum(s.Year, s.Album))
	case GroupByYearAlbumDisc:
		return albumSuffix(PrettyYearAlbumDisc(s.Year, s.Album, s.Disc))
	case GroupByOriginalYearAlbum:
		return albumSuffix(PrettyYearAlbum(s.EffectiveOriginalYear(), s.Album))
	case GroupByOriginalYearAlbumDisc:
		return albumSuffix(PrettyYearAlbumDisc(s.EffectiveOriginalYear(), s.Album, s.Disc))
	case GroupByDisc:
		return PrettyDisc(s.Disc)
	case GroupByYear:
		return strconv.Itoa(max(0, s.Year))
	case GroupByOriginalYear:
		return strconv.Itoa(max(0, s.EffectiveOriginalYear()))
	case GroupByGenre:
		return TextOrUnknown(s.Genre)
	case GroupByComposer:
		return TextOrUnknown(s.Composer)
	case GroupByPerformer:
		return TextOrUnknown(s.Performer)
	case GroupByGrouping:
		return TextOrUnknown(s.Grouping)
	case GroupByFileType:
		return song.TextForFileType(s.FileType)
	case GroupBySamplerate:
		return strconv.Itoa(max(0, s.Samplerate))
	case GroupByBitdepth:
		return strconv.Itoa(max(0, s.Bitdepth))
	case GroupByBitrate:
		return strconv.Itoa(max(0, s.Bitrate))
	case GroupByFormat:
		return formatKey(s)
	}
	slog.Error("container key requested for unknown criterion", "group_by", groupBy)
	return ""
}

// formatKey combines file type, sample rate in kHz and bit depth, e.g.
// "FLAC (44.1/16)".
func formatKey(s song.Song) string {
	if s.Samplerate <= 0 {
		return song.TextForFileType(s.FileType)
	}
	rate := strconv.FormatFloat(float64(s.Samplerate)/1000.0, 'g', 5, 64)
	if s.Bitdepth <= 0 {
		return fmt.Sprintf("%s (%s)", song.TextForFileType(s.FileType), rate)
	}
	return fmt.Sprintf("%s (%s/%d)", song.TextForFileType(s.FileType), rate, s.Bitdepth)
}

// DividerKey buckets a top-level container under a coarse header. Containers
// that must share a divider produce the same key; an empty key means no
// divider.
func DividerKey(groupBy GroupBy, item *Item) string {
	if item.SortText == "" {
		return ""
	}

	switch groupBy {
	case GroupByAlbumArtist, GroupByArtist, GroupByAlbum, GroupByAlbumDisc,
		GroupByComposer, GroupByPerformer, GroupByGrouping, GroupByDisc,
		GroupByGenre, GroupByFormat, GroupByFileType:
		r := []rune(item.SortText)[0]
		if unicode.IsDigit(r) {
			return "0"
		}
		if r == ' ' {
			return ""
		}
		if decomposed := []rune(norm.NFKD.String(string(r))); len(decomposed) > 1 {
			// Accented letters bucket under their base letter.
			return string(decomposed[0])
		}
		return string(r)

	case GroupByYear, GroupByOriginalYear:
		return SortTextForNumber(leadingInt(item.SortText) / 10 * 10)

	case GroupByYearAlbum, GroupByYearAlbumDisc:
		return SortTextForNumber(max(0, item.Metadata.Year))

	case GroupByOriginalYearAlbum, GroupByOriginalYearAlbumDisc:
		return SortTextForNumber(max(0, item.Metadata.EffectiveOriginalYear()))

	case GroupBySamplerate:
		return SortTextForBitrate(max(0, item.Metadata.Samplerate))

	case GroupByBitdepth:
		return SortTextForBitrate(max(0, item.Metadata.Bitdepth))

	case GroupByBitrate:
		return SortTextForBitrate(max(0, item.Metadata.Bitrate))

	case GroupByNone:
		return ""
	}
	slog.Error("divider key requested for unknown criterion", "group_by", groupBy, "item", item.DisplayText)
	return ""
}

// DividerDisplayText is the header label for a divider key.
func DividerDisplayText(groupBy GroupBy, key string) string {
	switch groupBy {
	case GroupByAlbumArtist, GroupByArtist, GroupByAlbum, GroupByAlbumDisc,
		GroupByComposer, GroupByPerformer, GroupByDisc, GroupByGrouping,
		GroupByGenre, GroupByFileType, GroupByFormat:
		if key == "0" {
			return "0-9"
		}
		return strings.ToUpper(key)

	case GroupByYearAlbum, GroupByYearAlbumDisc, GroupByOriginalYearAlbum, GroupByOriginalYearAlbumDisc:
		if key == "0000" {
			return "Unknown"
		}
		return key

	case GroupByYear, GroupByOriginalYear:
		if key == "0000" {
			return "Unknown"
		}
		return strconv.Itoa(leadingInt(key))

	case GroupBySamplerate, GroupByBitdepth, GroupByBitrate:
		if key == "000" {
			return "Unknown"
		}
		return strconv.Itoa(leadingInt(key))
	}
	slog.Error("divider display text requested for unknown criterion", "group_by", groupBy, "key", key)
	return ""
}

// leadingInt parses the first whitespace-separated field as an integer. A
// divider prefix prepended to the sort text leaves the result unchanged.
func leadingInt(text string) int {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return n
}
