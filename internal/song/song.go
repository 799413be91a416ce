package song

import (
	"regexp"
	"strings"
)

// FileType identifies the audio container/codec of a song file.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeWAV
	FileTypeFLAC
	FileTypeWavPack
	FileTypeOggFLAC
	FileTypeOggVorbis
	FileTypeOggOpus
	FileTypeMPEG
	FileTypeMP4
	FileTypeASF
	FileTypeAIFF
	FileTypeAPE
	FileTypeDSF
	FileTypeStream
)

// TextForFileType returns the display name for a file type.
func TextForFileType(t FileType) string {
	switch t {
	case FileTypeWAV:
		return "Wav"
	case FileTypeFLAC:
		return "FLAC"
	case FileTypeWavPack:
		return "WavPack"
	case FileTypeOggFLAC:
		return "Ogg FLAC"
	case FileTypeOggVorbis:
		return "Ogg Vorbis"
	case FileTypeOggOpus:
		return "Ogg Opus"
	case FileTypeMPEG:
		return "MPEG"
	case FileTypeMP4:
		return "MP4 AAC"
	case FileTypeASF:
		return "Windows Media audio"
	case FileTypeAIFF:
		return "AIFF"
	case FileTypeAPE:
		return "Monkey's Audio"
	case FileTypeDSF:
		return "DSF"
	case FileTypeStream:
		return "Stream"
	default:
		return "Unknown"
	}
}

// FileTypeForExtension maps a lowercase file extension (without the dot) to a
// file type.
func FileTypeForExtension(ext string) FileType {
	switch ext {
	case "wav":
		return FileTypeWAV
	case "flac":
		return FileTypeFLAC
	case "wv":
		return FileTypeWavPack
	case "ogg", "oga":
		return FileTypeOggVorbis
	case "opus":
		return FileTypeOggOpus
	case "mp2", "mp3":
		return FileTypeMPEG
	case "m4a", "mp4", "aac":
		return FileTypeMP4
	case "asf", "wma":
		return FileTypeASF
	case "aif", "aiff":
		return FileTypeAIFF
	case "ape":
		return FileTypeAPE
	case "dsf":
		return FileTypeDSF
	default:
		return FileTypeUnknown
	}
}

// Articles are leading words skipped when building artist sort text.
var Articles = []string{"the ", "a ", "an "}

// Song is one library record. Identity is the database ID; everything else
// may change on rescan or edit.
type Song struct {
	ID           int64
	Title        string
	Artist       string
	AlbumArtist  string
	Album        string
	AlbumID      string
	Track        int
	Disc         int
	Year         int
	OriginalYear int
	Genre        string
	Composer     string
	Performer    string
	Grouping     string
	FileType     FileType
	Samplerate   int
	Bitdepth     int
	Bitrate      int
	Compilation  bool
	URL          string
	CTime        int64
	MTime        int64
}

// EffectiveAlbumArtist is the album artist, falling back to the track artist.
func (s Song) EffectiveAlbumArtist() string {
	if s.AlbumArtist != "" {
		return s.AlbumArtist
	}
	return s.Artist
}

// EffectiveOriginalYear is the original release year, falling back to the
// tagged year.
func (s Song) EffectiveOriginalYear() int {
	if s.OriginalYear > 0 {
		return s.OriginalYear
	}
	return s.Year
}

// IsEditable reports whether the record points at a local file whose tags
// could be rewritten.
func (s Song) IsEditable() bool {
	return s.ID > 0 && strings.HasPrefix(s.URL, "file:")
}

// TitleWithCompilationArtist prefixes the artist for songs shown under a
// shared compilation container.
func (s Song) TitleWithCompilationArtist() string {
	if s.Compilation && s.Artist != "" {
		return s.Artist + " - " + s.Title
	}
	return s.Title
}

var albumDiscPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+-*\s*(Disc|CD)\s*([0-9]{1,2})$`),
	regexp.MustCompile(`(?i)\s+-*\s*\(\s*(Disc|CD)\s*([0-9]{1,2})\)$`),
	regexp.MustCompile(`(?i)\s+-*\s*\[\s*(Disc|CD)\s*([0-9]{1,2})\]$`),
}

// AlbumContainsDisc reports whether an album title already names a disc, so
// display text should not append another disc suffix.
func AlbumContainsDisc(album string) bool {
	for _, re := range albumDiscPatterns {
		if re.MatchString(album) {
			return true
		}
	}
	return false
}

// MetadataEqual compares the fields whose change requires a visual refresh of
// an already-placed song row. Ratings, play counts and file details outside
// this set do not count.
func MetadataEqual(a, b Song) bool {
	return a.Title == b.Title &&
		a.Album == b.Album &&
		a.Artist == b.Artist &&
		a.AlbumArtist == b.AlbumArtist &&
		a.Track == b.Track &&
		a.Disc == b.Disc &&
		a.Year == b.Year &&
		a.OriginalYear == b.OriginalYear &&
		a.Genre == b.Genre &&
		a.Compilation == b.Compilation &&
		a.Composer == b.Composer &&
		a.Performer == b.Performer &&
		a.Grouping == b.Grouping &&
		a.Bitrate == b.Bitrate &&
		a.Samplerate == b.Samplerate &&
		a.Bitdepth == b.Bitdepth
}
