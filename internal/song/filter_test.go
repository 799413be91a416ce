package song

import (
	"testing"
	"time"
)

func TestFilterMatches(t *testing.T) {
	fresh := Song{CTime: time.Now().Unix()}
	stale := Song{CTime: time.Now().Add(-72 * time.Hour).Unix()}

	all := FilterOptions{}
	if !all.Matches(fresh) || !all.Matches(stale) {
		t.Error("zero filter matches everything")
	}

	recent := FilterOptions{Mode: FilterModeNew, MaxAge: 24 * time.Hour}
	if !recent.Matches(fresh) {
		t.Error("fresh song should pass")
	}
	if recent.Matches(stale) {
		t.Error("stale song should be excluded")
	}

	// New mode without an age bound degrades to matching everything.
	unbounded := FilterOptions{Mode: FilterModeNew}
	if !unbounded.Matches(stale) {
		t.Error("unbounded new filter matches everything")
	}
}
