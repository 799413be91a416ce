package collection

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/cratedig/cratedig/internal/artwork"
	"github.com/cratedig/cratedig/internal/song"
)

const (
	// PrettyCoverSize is the square thumbnail edge used for container icons.
	PrettyCoverSize = 32

	// updateInterval paces queued tree mutations: one chunk per tick.
	updateInterval = 20 * time.Millisecond

	// reloadDebounce coalesces rapid configuration changes into one rebuild.
	reloadDebounce = 300 * time.Millisecond
)

// Backend is the slice of the backing store the browser needs: the full
// filtered query used by reloads and the source name for cache keys. Change
// notifications arrive through the browser's listener methods instead.
type Backend interface {
	All(ctx context.Context, filter song.FilterOptions) ([]song.Song, error)
	Source() string
}

type itemAndKey struct {
	item *Item
	key  string
}

type queryResult struct {
	generation uint64
	songs      []song.Song
}

// Browser owns a Model and runs the single goroutine all tree mutations
// happen on. Store notifications, configuration changes, the update
// scheduler's ticks, reload query completions and artwork load completions
// all join that one loop; queries run inside Do.
type Browser struct {
	model   *Model
	backend Backend
	loader  artwork.Loader
	cache   *artwork.Cache

	calls   chan func()
	done    chan struct{}
	stopped chan struct{}

	obs Observer

	// Update scheduler state, owned by the loop goroutine.
	updates      []Update
	updateActive bool

	// Reload controller state, owned by the loop goroutine.
	reloadScheduled  bool
	reloadArmed      bool
	reloadGeneration uint64
	reloadInFlight   int
	queryDone        chan queryResult

	prettyCovers bool
	noCover      image.Image
	pendingArt   map[uint64]itemAndKey
	pendingKeys  map[string]struct{}

	totalSongs   int
	totalArtists int
	totalAlbums  int
}

// NewBrowser wires a model to its backend, artwork loader and cache and
// starts the event loop. Call Close when done.
func NewBrowser(backend Backend, loader artwork.Loader, cache *artwork.Cache) *Browser {
	b := &Browser{
		model:        New(),
		backend:      backend,
		loader:       loader,
		cache:        cache,
		calls:        make(chan func(), 64),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		queryDone:    make(chan queryResult, 4),
		obs:          NopObserver{},
		prettyCovers: true,
		noCover:      artwork.Placeholder(PrettyCoverSize),
		pendingArt:   make(map[uint64]itemAndKey),
		pendingKeys:  make(map[string]struct{}),
	}
	b.model.SetContainerRemovedHook(b.onContainerRemoved)
	go b.run()
	return b
}

func (b *Browser) run() {
	defer close(b.stopped)

	updateTick := time.NewTicker(updateInterval)
	updateTick.Stop()
	reloadTimer := time.NewTimer(reloadDebounce)
	if !reloadTimer.Stop() {
		<-reloadTimer.C
	}

	var loaderResults <-chan artwork.Result
	if b.loader != nil {
		loaderResults = b.loader.Results()
	}

	for {
		select {
		case fn := <-b.calls:
			fn()
		case <-updateTick.C:
			b.processUpdate()
		case <-reloadTimer.C:
			b.reloadScheduled = false
			b.reload()
		case res := <-b.queryDone:
			b.finishReload(res)
		case res := <-loaderResults:
			b.coverLoaded(res)
		case <-b.done:
			return
		}

		// Timers are armed inside the loop so all state stays on this
		// goroutine.
		if b.updateActive && len(b.updates) == 0 {
			updateTick.Stop()
			b.updateActive = false
		} else if !b.updateActive && len(b.updates) > 0 {
			updateTick.Reset(updateInterval)
			b.updateActive = true
		}
		if b.reloadScheduled && !b.reloadArmed {
			reloadTimer.Reset(reloadDebounce)
			b.reloadArmed = true
		} else if !b.reloadScheduled {
			b.reloadArmed = false
		}
	}
}

// post runs fn on the loop goroutine, dropping it if the browser is closed.
func (b *Browser) post(fn func()) {
	select {
	case b.calls <- fn:
	case <-b.done:
	}
}

// Do runs fn on the loop goroutine and waits for it. This is the only safe
// way to query the model from outside.
func (b *Browser) Do(fn func(m *Model)) {
	reply := make(chan struct{})
	b.post(func() {
		fn(b.model)
		close(reply)
	})
	select {
	case <-reply:
	case <-b.stopped:
	}
}

// Close stops the event loop. Pending updates and in-flight queries are
// abandoned.
func (b *Browser) Close() {
	close(b.done)
	<-b.stopped
}

// Init schedules the first full load.
func (b *Browser) Init() {
	b.post(b.scheduleReload)
}

// SongsAdded enqueues an add batch; satisfies the store listener contract.
func (b *Browser) SongsAdded(songs []song.Song) {
	b.post(func() { b.scheduleUpdate(UpdateTypeAdd, songs) })
}

// SongsDeleted enqueues a remove batch.
func (b *Browser) SongsDeleted(songs []song.Song) {
	b.post(func() { b.scheduleUpdate(UpdateTypeRemove, songs) })
}

// SongsChanged enqueues edited songs; each one relocates or updates in place
// depending on whether its grouping keys changed.
func (b *Browser) SongsChanged(songs []song.Song) {
	b.post(func() { b.scheduleUpdate(UpdateTypeReAddOrUpdate, songs) })
}

// SongsUpdated enqueues in-place record updates (ratings, play counts).
func (b *Browser) SongsUpdated(songs []song.Song) {
	b.post(func() { b.scheduleUpdate(UpdateTypeUpdate, songs) })
}

// SetObserver installs the structural notification listener. Callbacks run
// on the loop goroutine.
func (b *Browser) SetObserver(obs Observer) {
	b.post(func() {
		if obs == nil {
			obs = NopObserver{}
		}
		b.obs = obs
		b.model.SetObserver(obs)
	})
}

// SetGroupBy changes the grouping triple and schedules a full rebuild.
func (b *Browser) SetGroupBy(g Grouping, separateAlbumsByGrouping bool) {
	b.post(func() {
		b.model.SetGroupBy(g, separateAlbumsByGrouping)
		b.scheduleReload()
	})
}

// SetFilter changes the filter options and schedules a full rebuild.
func (b *Browser) SetFilter(f song.FilterOptions) {
	b.post(func() {
		b.model.SetFilter(f)
		b.scheduleReload()
	})
}

// SetShowDividers toggles divider headers, rebuilding when it changes.
func (b *Browser) SetShowDividers(show bool) {
	b.post(func() {
		b.model.SetShowDividers(show)
		b.scheduleReload()
	})
}

// SetSortSkipsArticles toggles article skipping, rebuilding when it changes.
func (b *Browser) SetSortSkipsArticles(skip bool) {
	b.post(func() {
		b.model.SetSortSkipsArticles(skip)
		b.scheduleReload()
	})
}

// SetShowVariousArtists toggles compilation routing, rebuilding on change.
func (b *Browser) SetShowVariousArtists(show bool) {
	b.post(func() {
		b.model.SetShowVariousArtists(show)
		b.scheduleReload()
	})
}

// SetPrettyCovers toggles album art icons.
func (b *Browser) SetPrettyCovers(pretty bool) {
	b.post(func() {
		if b.prettyCovers != pretty {
			b.prettyCovers = pretty
			b.scheduleReload()
		}
	})
}

// SetTotals records the advisory library-wide counts.
func (b *Browser) SetTotals(songs, artists, albums int) {
	b.post(func() {
		b.totalSongs = songs
		b.totalArtists = artists
		b.totalAlbums = albums
	})
}

// Totals returns the last known song, artist and album counts.
func (b *Browser) Totals() (songs, artists, albums int) {
	b.Do(func(*Model) {
		songs, artists, albums = b.totalSongs, b.totalArtists, b.totalAlbums
	})
	return songs, artists, albums
}

// scheduleUpdate chunks a batch into the queue; the ticker drains one entry
// per tick.
func (b *Browser) scheduleUpdate(updateType UpdateType, songs []song.Song) {
	b.updates = append(b.updates, splitUpdate(updateType, songs)...)
}

func (b *Browser) processUpdate() {
	if len(b.updates) == 0 {
		return
	}
	update := b.updates[0]
	b.updates = b.updates[1:]
	update.apply(b.model)
}

// scheduleReload arms the debounce timer; repeated calls while it is pending
// are no-ops.
func (b *Browser) scheduleReload() {
	b.reloadScheduled = true
}

// reload discards the tree, shows the loading placeholder and starts the
// background query. The generation stamp lets finishReload discard results
// of queries that a later configuration change superseded.
func (b *Browser) reload() {
	b.model.BeginReset()
	b.model.AddLoadingItem()
	b.model.EndReset()

	b.updates = nil
	b.pendingArt = make(map[uint64]itemAndKey)
	b.pendingKeys = make(map[string]struct{})

	b.reloadGeneration++
	generation := b.reloadGeneration
	b.reloadInFlight++
	filter := b.model.Filter()

	go func() {
		songs, err := b.backend.All(context.Background(), filter)
		if err != nil {
			slog.Error("collection reload query failed", "err", err)
		}
		select {
		case b.queryDone <- queryResult{generation: generation, songs: songs}:
		case <-b.done:
		}
	}()
}

func (b *Browser) finishReload(res queryResult) {
	b.reloadInFlight--
	if res.generation != b.reloadGeneration {
		// A newer reload superseded this query while it ran.
		return
	}
	b.model.BeginReset()
	b.model.EndReset()
	b.scheduleUpdate(UpdateTypeAdd, res.songs)
	slog.Debug("collection reloaded", "songs", len(res.songs))
}

// WaitIdle blocks until no reload is scheduled or running and the update
// queue is empty, or the context expires.
func (b *Browser) WaitIdle(ctx context.Context) error {
	for {
		idle := false
		b.Do(func(*Model) {
			idle = !b.reloadScheduled && b.reloadInFlight == 0 && len(b.updates) == 0
		})
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// cacheKey is the hierarchical path string identifying a node's artwork:
// the source name followed by the display labels down to the node.
func (b *Browser) cacheKey(item *Item) string {
	return b.backend.Source() + "/" + strings.Join(item.DisplayPath(), "/")
}

// Icon resolves a container's thumbnail. Must be called on the loop
// goroutine (inside Do). Returns the placeholder until the art arrives; a
// data-changed notification fires for the node when it does.
func (b *Browser) Icon(item *Item) image.Image {
	if !b.prettyCovers || item == nil || item.Type != ItemTypeContainer || b.loader == nil || b.cache == nil {
		return b.noCover
	}

	key := b.cacheKey(item)

	if img, ok := b.cache.Get(key); ok {
		return img
	}
	if img, ok := b.cache.GetDisk(key); ok {
		return img
	}
	if _, pending := b.pendingKeys[key]; pending {
		return b.noCover
	}

	songs := b.model.ChildSongs(item)
	if len(songs) == 0 {
		return b.noCover
	}

	id := b.loader.LoadAsync(artwork.Options{Width: PrettyCoverSize, Height: PrettyCoverSize}, songs[0])
	b.pendingArt[id] = itemAndKey{item: item, key: key}
	b.pendingKeys[key] = struct{}{}

	return b.noCover
}

func (b *Browser) coverLoaded(res artwork.Result) {
	entry, ok := b.pendingArt[res.ID]
	if !ok {
		// Target node was pruned while the load ran.
		return
	}
	delete(b.pendingArt, res.ID)
	delete(b.pendingKeys, entry.key)

	if !res.Success || res.Image == nil {
		// Cache the placeholder so failures are not retried every repaint.
		b.cache.Add(entry.key, b.noCover)
	} else {
		b.cache.Add(entry.key, res.Image)
		if b.cache.DiskEnabled() && !b.cache.HasDisk(entry.key) {
			if err := b.cache.PutDisk(entry.key, res.Image); err != nil {
				slog.Debug("persist cover failed", "key", entry.key, "err", err)
			}
		}
	}

	if b.model.InTree(entry.item) {
		b.obs.DataChanged(entry.item)
	}
}

// onContainerRemoved prunes per-node artwork state while the node's parent
// chain is still intact.
func (b *Browser) onContainerRemoved(item *Item) {
	key := b.cacheKey(item)
	if b.cache != nil {
		b.cache.Remove(key)
	}
	delete(b.pendingKeys, key)
	for id, entry := range b.pendingArt {
		if entry.item == item {
			delete(b.pendingArt, id)
		}
	}
}
