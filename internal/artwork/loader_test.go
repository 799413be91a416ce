package artwork

import (
	"image"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cratedig/cratedig/internal/song"
)

func writePNG(t *testing.T, path string, size int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, Placeholder(size)); err != nil {
		t.Fatal(err)
	}
}

func awaitResult(t *testing.T, l Loader, id uint64) Result {
	t.Helper()
	select {
	case res := <-l.Results():
		if res.ID != id {
			t.Fatalf("result for request %d, want %d", res.ID, id)
		}
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("no result")
		return Result{}
	}
}

func TestFileLoaderCoverFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "01 Prelude.flac"), []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(dir, "cover.png"), 64)

	l := NewFileLoader()
	defer l.Close()

	s := song.Song{URL: (&url.URL{Scheme: "file", Path: filepath.Join(dir, "01 Prelude.flac")}).String()}
	id := l.LoadAsync(Options{Width: 32, Height: 32}, s)
	res := awaitResult(t, l, id)

	if !res.Success || res.Image == nil {
		t.Fatal("cover file next to the song should resolve")
	}
	if res.Image.Bounds().Dx() != 32 || res.Image.Bounds().Dy() != 32 {
		t.Errorf("thumbnail bounds = %v", res.Image.Bounds())
	}
}

func TestFileLoaderNoArt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bare.flac"), []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewFileLoader()
	defer l.Close()

	s := song.Song{URL: (&url.URL{Scheme: "file", Path: filepath.Join(dir, "bare.flac")}).String()}
	res := awaitResult(t, l, l.LoadAsync(Options{Width: 32, Height: 32}, s))
	if res.Success || res.Image != nil {
		t.Error("no art anywhere should fail the request")
	}
}

func TestFileLoaderNonFileURL(t *testing.T) {
	l := NewFileLoader()
	defer l.Close()

	res := awaitResult(t, l, l.LoadAsync(Options{}, song.Song{URL: "http://radio.example/stream"}))
	if res.Success {
		t.Error("remote URLs are not loadable")
	}
}

func TestScale(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	dst := Scale(src, 32, 32)
	b := dst.Bounds()
	if b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("scaled bounds = %v", b)
	}

	same := Placeholder(32)
	if Scale(same, 32, 32) != same {
		t.Error("already-sized image should be returned as is")
	}
}

func TestPlaceholder(t *testing.T) {
	img := Placeholder(16)
	if img.Bounds().Dx() != 16 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if Placeholder(0).Bounds().Dx() != 32 {
		t.Error("non-positive size should use the default")
	}
}
