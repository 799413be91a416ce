package collection

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/cratedig/cratedig/internal/song"
)

const variousArtists = "Various artists"

// Model is the in-memory hierarchical index over the song library. It owns
// the tree, the lookup tables from logical keys to nodes, and all structural
// mutations.
//
// The model is not safe for concurrent use: every method must be called from
// the single goroutine that owns it (see Browser).
type Model struct {
	root *Item

	// Keyed on database ID.
	songs     map[int64]song.Song
	songNodes map[int64]*Item

	// Keyed on the path-qualified grouping key for each level.
	containerNodes [3]map[string]*Item

	// Keyed on a letter, a decade, a rate.
	dividerNodes map[string]*Item

	groupBy                  Grouping
	separateAlbumsByGrouping bool
	showVariousArtists       bool
	showDividers             bool
	sortSkipsArticles        bool
	filter                   song.FilterOptions

	obs Observer

	// containerRemoved fires just before an empty container is deleted,
	// while its parent chain is still intact, so per-node caches can be
	// pruned synchronously.
	containerRemoved func(*Item)
}

// New creates an empty model with the default grouping.
func New() *Model {
	m := &Model{
		groupBy:            DefaultGrouping(),
		showVariousArtists: true,
		showDividers:       true,
		sortSkipsArticles:  true,
		obs:                NopObserver{},
	}
	m.resetTables()
	m.root = newItem(ItemTypeRoot, nil)
	return m
}

func (m *Model) resetTables() {
	m.songs = make(map[int64]song.Song)
	m.songNodes = make(map[int64]*Item)
	for i := range m.containerNodes {
		m.containerNodes[i] = make(map[string]*Item)
	}
	m.dividerNodes = make(map[string]*Item)
}

// SetObserver installs the structural change listener. Pass nil to silence.
func (m *Model) SetObserver(obs Observer) {
	if obs == nil {
		obs = NopObserver{}
	}
	m.obs = obs
}

// SetContainerRemovedHook installs the pre-deletion pruning hook.
func (m *Model) SetContainerRemovedHook(fn func(*Item)) { m.containerRemoved = fn }

// Root returns the tree root.
func (m *Model) Root() *Item { return m.root }

// GroupBy returns the active grouping triple.
func (m *Model) GroupBy() Grouping { return m.groupBy }

// SeparateAlbumsByGrouping reports the album separation flag.
func (m *Model) SeparateAlbumsByGrouping() bool { return m.separateAlbumsByGrouping }

// SetGroupBy changes the grouping configuration. Every container key is a
// function of the triple, so the caller must rebuild the tree afterwards.
func (m *Model) SetGroupBy(g Grouping, separateAlbumsByGrouping bool) {
	m.groupBy = g
	m.separateAlbumsByGrouping = separateAlbumsByGrouping
}

// SetShowDividers toggles divider headers. Takes effect on the next rebuild.
func (m *Model) SetShowDividers(show bool) { m.showDividers = show }

// SetShowVariousArtists toggles compilation routing. Takes effect on the
// next rebuild.
func (m *Model) SetShowVariousArtists(show bool) { m.showVariousArtists = show }

// SetSortSkipsArticles toggles article-skipping sort text. Takes effect on
// the next rebuild.
func (m *Model) SetSortSkipsArticles(skip bool) { m.sortSkipsArticles = skip }

// SetFilter replaces the active filter. Takes effect on the next rebuild.
func (m *Model) SetFilter(f song.FilterOptions) { m.filter = f }

// Filter returns the active filter options.
func (m *Model) Filter() song.FilterOptions { return m.filter }

// BeginReset discards the whole tree and all lookup tables and starts a
// fresh root. Bracketed by the observer's reset notifications together with
// EndReset.
func (m *Model) BeginReset() {
	m.obs.BeginReset()
	m.resetTables()
	m.root = newItem(ItemTypeRoot, nil)
}

// EndReset signals that the rebuild bracketed by BeginReset is done.
func (m *Model) EndReset() {
	m.obs.EndReset()
}

// AddLoadingItem inserts the transient placeholder shown while a full
// reload's query runs.
func (m *Model) AddLoadingItem() *Item {
	loading := newItem(ItemTypeLoading, m.root)
	loading.DisplayText = "Loading..."
	return loading
}

// AddSongs upserts records and inserts song nodes, creating the container
// chain each song needs under the active grouping. Songs outside the filter
// only update the record table; songs already present in the tree are left
// alone.
func (m *Model) AddSongs(songs []song.Song) {
	for _, s := range songs {
		m.songs[s.ID] = s

		if !m.filter.Matches(s) {
			continue
		}
		if _, ok := m.songNodes[s.ID]; ok {
			continue
		}

		// Walk the grouping levels from the root, creating the containers
		// this song needs as we go.
		container := m.root
		var key string
		for level := 0; level < 3; level++ {
			groupBy := m.groupBy.Level(level)
			if groupBy == GroupByNone {
				break
			}
			if key != "" {
				key += "-"
			}

			if IsArtistGroupBy(groupBy) && s.Compilation && m.showVariousArtists {
				// Compilations share one Various Artists container per
				// parent, cached on the parent rather than in the level
				// table.
				if container.compilationArtist == nil {
					m.createCompilationArtistNode(container)
				}
				container = container.compilationArtist
				key = container.Key
			} else {
				key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
				if node, ok := m.containerNodes[level][key]; ok {
					container = node
				} else {
					container = m.itemFromSong(groupBy, level == 0, container, s, level)
					m.containerNodes[level][key] = container
				}
			}
		}

		m.songNodes[s.ID] = m.itemFromSong(GroupByNone, false, container, s, -1)
	}
}

// RemoveSongs deletes song nodes and prunes every container left empty,
// cascading upward, then drops dividers whose last container disappeared.
func (m *Model) RemoveSongs(songs []song.Song) {
	// Delete the song nodes first, collecting parents to check afterwards.
	parents := make(map[*Item]struct{})
	for _, s := range songs {
		if _, ok := m.songs[s.ID]; ok {
			m.songs[s.ID] = s
		}
		node, ok := m.songNodes[s.ID]
		if !ok {
			slog.Error("remove for song not in index", "id", s.ID, "title", s.Title)
			continue
		}
		if node.Parent != m.root {
			parents[node.Parent] = struct{}{}
		}
		m.obs.BeginRemoveRows(node.Parent, node.Row, node.Row)
		node.Parent.removeChild(node.Row)
		delete(m.songNodes, s.ID)
		m.obs.EndRemoveRows()
	}

	// Now prune empty containers, each deletion queueing its own parent.
	dividerKeys := make(map[string]struct{})
	for len(parents) > 0 {
		candidates := make([]*Item, 0, len(parents))
		for node := range parents {
			candidates = append(candidates, node)
		}
		for _, node := range candidates {
			delete(parents, node)
			if len(node.Children) != 0 {
				continue
			}

			if node.Parent != m.root {
				parents[node.Parent] = struct{}{}
			}

			if node.ContainerLevel == 0 {
				if key := DividerKey(m.groupBy.Level(0), node); key != "" {
					dividerKeys[key] = struct{}{}
				}
			}

			if isCompilationArtistNode(node) {
				node.Parent.compilationArtist = nil
			} else if node.ContainerLevel >= 0 && node.ContainerLevel < 3 {
				delete(m.containerNodes[node.ContainerLevel], node.Key)
			}

			if m.containerRemoved != nil {
				m.containerRemoved(node)
			}

			m.obs.BeginRemoveRows(node.Parent, node.Row, node.Row)
			node.Parent.removeChild(node.Row)
			m.obs.EndRemoveRows()
		}
	}

	// Drop dividers that lost their last referencing container.
	for key := range dividerKeys {
		divider, ok := m.dividerNodes[key]
		if !ok {
			continue
		}
		referenced := false
		for _, node := range m.containerNodes[0] {
			if DividerKey(m.groupBy.Level(0), node) == key {
				referenced = true
				break
			}
		}
		if referenced {
			continue
		}
		m.obs.BeginRemoveRows(m.root, divider.Row, divider.Row)
		m.root.removeChild(divider.Row)
		m.obs.EndRemoveRows()
		delete(m.dividerNodes, key)
	}
}

// UpdateSongs replaces stored records in place. A data-changed notification
// fires only when the redisplay-relevant fields differ; the song never
// moves.
func (m *Model) UpdateSongs(songs []song.Song) {
	for _, s := range songs {
		if _, ok := m.songs[s.ID]; ok {
			m.songs[s.ID] = s
		}
		node, ok := m.songNodes[s.ID]
		if !ok {
			slog.Error("update for song not in index", "id", s.ID, "title", s.Title)
			continue
		}
		changed := !song.MetadataEqual(s, node.Metadata)
		node.Metadata = s
		if changed {
			m.obs.DataChanged(node)
		}
	}
}

// ReAddOrUpdate relocates songs whose grouping key changed at any level and
// plain-updates the rest. Removals and additions are applied as whole
// batches so container pruning sees the complete picture.
func (m *Model) ReAddOrUpdate(songs []song.Song) {
	var added, removed, updated []song.Song

	for _, s := range songs {
		node, ok := m.songNodes[s.ID]
		if !ok {
			slog.Error("change for song not in index", "id", s.ID, "title", s.Title)
			continue
		}
		old := node.Metadata
		keyChanged := false
		for level := 0; level < 3; level++ {
			groupBy := m.groupBy.Level(level)
			if groupBy == GroupByNone {
				break
			}
			if ContainerKey(groupBy, m.separateAlbumsByGrouping, s) != ContainerKey(groupBy, m.separateAlbumsByGrouping, old) {
				keyChanged = true
			}
		}
		if keyChanged {
			removed = append(removed, old)
			added = append(added, s)
		} else {
			updated = append(updated, s)
		}
	}

	m.UpdateSongs(updated)
	m.RemoveSongs(removed)
	m.AddSongs(added)
}

func (m *Model) createCompilationArtistNode(parent *Item) *Item {
	m.obs.BeginInsertRows(parent, len(parent.Children), len(parent.Children))

	node := newItem(ItemTypeContainer, parent)
	if parent != m.root && parent.Key != "" {
		node.Key = parent.Key
	}
	node.Key += variousArtists
	node.DisplayText = variousArtists
	node.SortText = " various"
	node.ContainerLevel = parent.ContainerLevel + 1
	parent.compilationArtist = node

	m.obs.EndInsertRows()
	return node
}

func isCompilationArtistNode(node *Item) bool {
	return node.Parent != nil && node == node.Parent.compilationArtist
}

// itemFromSong creates one container (or the song leaf for GroupByNone)
// under parent, filling key, display text and sort text for the criterion.
func (m *Model) itemFromSong(groupBy GroupBy, createDivider bool, parent *Item, s song.Song, level int) *Item {
	itemType := ItemTypeContainer
	if groupBy == GroupByNone {
		itemType = ItemTypeSong
	}

	m.obs.BeginInsertRows(parent, len(parent.Children), len(parent.Children))

	item := newItem(itemType, parent)
	item.ContainerLevel = level

	if parent != m.root && parent.Key != "" {
		item.Key = parent.Key + "-"
	}

	switch groupBy {
	case GroupByAlbumArtist:
		item.Metadata.AlbumArtist = s.EffectiveAlbumArtist()
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = TextOrUnknown(s.EffectiveAlbumArtist())
		item.SortText = SortTextForArtist(s.EffectiveAlbumArtist(), m.sortSkipsArticles)
	case GroupByArtist:
		item.Metadata.Artist = s.Artist
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = TextOrUnknown(s.Artist)
		item.SortText = SortTextForArtist(s.Artist, m.sortSkipsArticles)
	case GroupByAlbum:
		item.Metadata.Album = s.Album
		item.Metadata.AlbumID = s.AlbumID
		item.Metadata.Grouping = s.Grouping
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = TextOrUnknown(s.Album)
		item.SortText = SortTextForArtist(s.Album, m.sortSkipsArticles)
	case GroupByAlbumDisc:
		item.Metadata.Album = s.Album
		item.Metadata.AlbumID = s.AlbumID
		item.Metadata.Disc = s.Disc
		item.Metadata.Grouping = s.Grouping
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = PrettyAlbumDisc(s.Album, s.Disc)
		item.SortText = s.Album + SortTextForNumber(max(0, s.Disc))
	case GroupByYearAlbum:
		item.Metadata.Year = s.Year
		item.Metadata.Album = s.Album
		item.Metadata.AlbumID = s.AlbumID
		item.Metadata.Grouping = s.Grouping
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = PrettyYearAlbum(s.Year, s.Album)
		item.SortText = SortTextForNumber(max(0, s.Year)) + s.Grouping + s.Album
	case GroupByYearAlbumDisc:
		item.Metadata.Year = s.Year
		item.Metadata.Album = s.Album
		item.Metadata.AlbumID = s.AlbumID
		item.Metadata.Disc = s.Disc
		item.Metadata.Grouping = s.Grouping
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = PrettyYearAlbumDisc(s.Year, s.Album, s.Disc)
		item.SortText = SortTextForNumber(max(0, s.Year)) + s.Album + SortTextForNumber(max(0, s.Disc))
	case GroupByOriginalYearAlbum:
		item.Metadata.Year = s.Year
		item.Metadata.OriginalYear = s.OriginalYear
		item.Metadata.Album = s.Album
		item.Metadata.AlbumID = s.AlbumID
		item.Metadata.Grouping = s.Grouping
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = PrettyYearAlbum(s.EffectiveOriginalYear(), s.Album)
		item.SortText = SortTextForNumber(max(0, s.EffectiveOriginalYear())) + s.Grouping + s.Album
	case GroupByOriginalYearAlbumDisc:
		item.Metadata.Year = s.Year
		item.Metadata.OriginalYear = s.OriginalYear
		item.Metadata.Album = s.Album
		item.Metadata.AlbumID = s.AlbumID
		item.Metadata.Disc = s.Disc
		item.Metadata.Grouping = s.Grouping
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = PrettyYearAlbumDisc(s.EffectiveOriginalYear(), s.Album, s.Disc)
		item.SortText = SortTextForNumber(max(0, s.EffectiveOriginalYear())) + s.Album + SortTextForNumber(max(0, s.Disc))
	case GroupByDisc:
		item.Metadata.Disc = s.Disc
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = PrettyDisc(s.Disc)
		item.SortText = SortTextForNumber(max(0, s.Disc))
	case GroupByYear:
		item.Metadata.Year = s.Year
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = strconv.Itoa(max(0, s.Year))
		item.SortText = SortTextForNumber(max(0, s.Year)) + " "
	case GroupByOriginalYear:
		item.Metadata.OriginalYear = s.EffectiveOriginalYear()
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = strconv.Itoa(max(0, s.EffectiveOriginalYear()))
		item.SortText = SortTextForNumber(max(0, s.EffectiveOriginalYear())) + " "
	case GroupByGenre:
		item.Metadata.Genre = s.Genre
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = TextOrUnknown(s.Genre)
		item.SortText = SortTextForArtist(s.Genre, m.sortSkipsArticles)
	case GroupByComposer:
		item.Metadata.Composer = s.Composer
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = TextOrUnknown(s.Composer)
		item.SortText = SortTextForArtist(s.Composer, m.sortSkipsArticles)
	case GroupByPerformer:
		item.Metadata.Performer = s.Performer
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = TextOrUnknown(s.Performer)
		item.SortText = SortTextForArtist(s.Performer, m.sortSkipsArticles)
	case GroupByGrouping:
		item.Metadata.Grouping = s.Grouping
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = TextOrUnknown(s.Grouping)
		item.SortText = SortTextForArtist(s.Grouping, m.sortSkipsArticles)
	case GroupByFileType:
		item.Metadata.FileType = s.FileType
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = song.TextForFileType(s.FileType)
		item.SortText = song.TextForFileType(s.FileType)
	case GroupByFormat:
		item.Metadata.FileType = s.FileType
		item.Metadata.Samplerate = s.Samplerate
		item.Metadata.Bitdepth = s.Bitdepth
		key := ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.Key += key
		item.DisplayText = key
		item.SortText = key
	case GroupBySamplerate:
		item.Metadata.Samplerate = s.Samplerate
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = strconv.Itoa(max(0, s.Samplerate))
		item.SortText = SortTextForBitrate(max(0, s.Samplerate)) + " "
	case GroupByBitdepth:
		item.Metadata.Bitdepth = s.Bitdepth
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = strconv.Itoa(max(0, s.Bitdepth))
		item.SortText = SortTextForBitrate(max(0, s.Bitdepth)) + " "
	case GroupByBitrate:
		item.Metadata.Bitrate = s.Bitrate
		item.Key += ContainerKey(groupBy, m.separateAlbumsByGrouping, s)
		item.DisplayText = strconv.Itoa(max(0, s.Bitrate))
		item.SortText = SortTextForBitrate(max(0, s.Bitrate)) + " "
	case GroupByNone:
		item.Metadata = s
		item.Key += TextOrUnknown(s.Title)
		item.DisplayText = s.TitleWithCompilationArtist()
		item.SortText = SortTextForSong(s)
	}

	m.obs.EndInsertRows()

	if createDivider && m.showDividers {
		m.createDivider(groupBy, item)
	}

	return item
}

// createDivider ensures a divider exists for the item's bucket and prefixes
// the item's sort text with the divider key so siblings stay adjacent under
// their shared header.
func (m *Model) createDivider(groupBy GroupBy, item *Item) {
	dividerKey := DividerKey(groupBy, item)
	if dividerKey == "" {
		return
	}

	item.SortText = dividerKey + " " + item.SortText

	if _, ok := m.dividerNodes[dividerKey]; ok {
		return
	}

	m.obs.BeginInsertRows(m.root, len(m.root.Children), len(m.root.Children))

	divider := newItem(ItemTypeDivider, m.root)
	divider.Key = dividerKey
	divider.DisplayText = DividerDisplayText(groupBy, dividerKey)
	divider.SortText = dividerKey + "  "
	m.dividerNodes[dividerKey] = divider

	m.obs.EndInsertRows()
}

// CompareItems orders two siblings: numerically when both sort texts parse
// fully as integers, lexicographically otherwise.
func CompareItems(a, b *Item) bool {
	ai, aerr := strconv.Atoi(a.SortText)
	bi, berr := strconv.Atoi(b.SortText)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a.SortText < b.SortText
}

// SortedChildren returns the item's children in visual order.
func (m *Model) SortedChildren(item *Item) []*Item {
	children := make([]*Item, len(item.Children))
	copy(children, item.Children)
	sort.SliceStable(children, func(i, j int) bool { return CompareItems(children[i], children[j]) })
	return children
}

// ChildSongs flattens the subtrees under the given items into song records in
// visual order, deduplicated by song ID across the whole selection.
func (m *Model) ChildSongs(items ...*Item) []song.Song {
	songs, _ := m.ChildSongsAndURLs(items...)
	return songs
}

// ChildSongsAndURLs is ChildSongs plus the location URL of every visited
// leaf, in the same order. URLs are not deduplicated; they form the drag
// payload.
func (m *Model) ChildSongsAndURLs(items ...*Item) ([]song.Song, []string) {
	var songs []song.Song
	var urls []string
	seen := make(map[int64]struct{})
	for _, item := range items {
		m.collectChildSongs(item, &songs, &urls, seen)
	}
	return songs, urls
}

func (m *Model) collectChildSongs(item *Item, songs *[]song.Song, urls *[]string, seen map[int64]struct{}) {
	switch item.Type {
	case ItemTypeContainer:
		for _, child := range m.SortedChildren(item) {
			m.collectChildSongs(child, songs, urls, seen)
		}
	case ItemTypeSong:
		*urls = append(*urls, item.Metadata.URL)
		if _, ok := seen[item.Metadata.ID]; !ok {
			*songs = append(*songs, item.Metadata)
			seen[item.Metadata.ID] = struct{}{}
		}
	}
}

// IsEditable reports whether the node's records can be tag-edited: true for
// a song leaf with an editable record, and for a container whose children
// are all editable.
func (m *Model) IsEditable(item *Item) bool {
	switch item.Type {
	case ItemTypeSong:
		return item.Metadata.IsEditable()
	case ItemTypeContainer:
		if len(item.Children) == 0 {
			return false
		}
		for _, child := range item.Children {
			if !m.IsEditable(child) {
				return false
			}
		}
		return true
	}
	return false
}

// HasSong reports whether a song node exists for the ID.
func (m *Model) HasSong(id int64) bool {
	_, ok := m.songNodes[id]
	return ok
}

// Song returns the stored record for an ID.
func (m *Model) Song(id int64) (song.Song, bool) {
	s, ok := m.songs[id]
	return s, ok
}

// SongNodeCount is the number of song leaves currently in the tree.
func (m *Model) SongNodeCount() int { return len(m.songNodes) }

// ContainerNode looks up the container for a path-qualified key at a level.
func (m *Model) ContainerNode(level int, key string) (*Item, bool) {
	if level < 0 || level > 2 {
		return nil, false
	}
	node, ok := m.containerNodes[level][key]
	return node, ok
}

// ContainerCount is the number of containers at a level.
func (m *Model) ContainerCount(level int) int {
	if level < 0 || level > 2 {
		return 0
	}
	return len(m.containerNodes[level])
}

// DividerCount is the number of divider headers in the tree.
func (m *Model) DividerCount() int { return len(m.dividerNodes) }

// InTree reports whether the item is still attached to the current root.
// Async completions use this to silently drop results for pruned nodes.
func (m *Model) InTree(item *Item) bool {
	return item != nil && item.root() == m.root
}
