package song

import "time"

// FilterMode selects which part of the library a view includes.
type FilterMode int

const (
	// FilterModeAll includes every song.
	FilterModeAll FilterMode = iota
	// FilterModeNew includes only songs added within MaxAge.
	FilterModeNew
)

// FilterOptions narrows the visible song set. The zero value matches
// everything.
type FilterOptions struct {
	Mode   FilterMode
	MaxAge time.Duration
}

// Matches reports whether the song passes the filter.
func (f FilterOptions) Matches(s Song) bool {
	if f.Mode == FilterModeNew && f.MaxAge > 0 {
		cutoff := time.Now().Add(-f.MaxAge).Unix()
		return s.CTime >= cutoff
	}
	return true
}
