package artwork

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dhowden/tag"
	"golang.org/x/image/draw"

	"github.com/cratedig/cratedig/internal/song"
)

// Options controls one load request.
type Options struct {
	// Width and Height of the scaled thumbnail.
	Width  int
	Height int
}

// Result is the completion of one load request.
type Result struct {
	ID      uint64
	Success bool
	Image   image.Image
}

// Loader resolves cover art for a song asynchronously. LoadAsync returns a
// request ID immediately; the matching Result arrives on Results later. A
// loader never touches the collection tree; callers join results back into
// their own goroutine.
type Loader interface {
	LoadAsync(opts Options, s song.Song) uint64
	Results() <-chan Result
	Close()
}

// Cover file names tried when the song file has no embedded picture.
var coverFileNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png", "front.jpg", "front.png"}

// FileLoader reads cover art from local song files: embedded pictures first,
// cover files next to the song second.
type FileLoader struct {
	nextID  atomic.Uint64
	results chan Result
	closed  chan struct{}
	wg      sync.WaitGroup
}

// NewFileLoader creates a loader ready to accept requests.
func NewFileLoader() *FileLoader {
	return &FileLoader{
		results: make(chan Result, 16),
		closed:  make(chan struct{}),
	}
}

// LoadAsync starts resolving cover art for the song and returns the request
// ID its Result will carry.
func (l *FileLoader) LoadAsync(opts Options, s song.Song) uint64 {
	id := l.nextID.Add(1)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		img := l.load(opts, s)
		res := Result{ID: id, Success: img != nil, Image: img}
		select {
		case l.results <- res:
		case <-l.closed:
		}
	}()
	return id
}

// Results delivers completions. The channel stays open for the loader's
// lifetime.
func (l *FileLoader) Results() <-chan Result { return l.results }

// Close abandons outstanding requests and waits for their goroutines.
func (l *FileLoader) Close() {
	close(l.closed)
	l.wg.Wait()
}

func (l *FileLoader) load(opts Options, s song.Song) image.Image {
	path := localPath(s.URL)
	if path == "" {
		return nil
	}

	if img := embeddedPicture(path); img != nil {
		return Scale(img, opts.Width, opts.Height)
	}

	dir := filepath.Dir(path)
	for _, name := range coverFileNames {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err == nil {
			return Scale(img, opts.Width, opts.Height)
		}
	}
	return nil
}

func embeddedPicture(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	meta, err := tag.ReadFrom(f)
	if err != nil {
		return nil
	}
	pic := meta.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(pic.Data))
	if err != nil {
		return nil
	}
	return img
}

func localPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return u.Path
}

// Scale resizes an image to the requested thumbnail dimensions.
func Scale(img image.Image, width, height int) image.Image {
	if width <= 0 {
		width = 32
	}
	if height <= 0 {
		height = 32
	}
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// Placeholder returns the generic "no cover" thumbnail shown while art loads
// or when none exists: a dark square with a lighter border.
func Placeholder(size int) image.Image {
	if size <= 0 {
		size = 32
	}
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	fill := color.NRGBA{R: 0x2e, G: 0x2e, B: 0x33, A: 0xff}
	border := color.NRGBA{R: 0x55, G: 0x55, B: 0x5e, A: 0xff}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x == 0 || y == 0 || x == size-1 || y == size-1 {
				img.SetNRGBA(x, y, border)
			} else {
				img.SetNRGBA(x, y, fill)
			}
		}
	}
	return img
}
