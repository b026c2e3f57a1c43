package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	xwebp "golang.org/x/image/webp"
)

type memoryStorage struct {
	objects map[string][]byte
}

func (m *memoryStorage) Put(_ context.Context, key string, body []byte, contentType string) (string, error) {
	if contentType != "image/webp" {
		return "", errors.New("unexpected content type " + contentType)
	}
	m.objects[key] = body
	return "https://cdn.test/" + key, nil
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOptimizeKeepsAspectRatio(t *testing.T) {
	out, err := Optimize(pngOf(t, 1200, 600), 512)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}

	cfg, err := xwebp.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not webp: %v", err)
	}
	if cfg.Width != 512 || cfg.Height != 256 {
		t.Fatalf("expected 512x256 got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestOptimizeDoesNotUpscale(t *testing.T) {
	out, err := Optimize(pngOf(t, 100, 80), 400)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := xwebp.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 100 || cfg.Height != 80 {
		t.Fatalf("expected original size got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestOptimizeRejectsGarbage(t *testing.T) {
	if _, err := Optimize([]byte("not an image"), 400); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestUploadStoresUnderShopPrefix(t *testing.T) {
	store := &memoryStorage{objects: map[string][]byte{}}
	u := NewUploader(store)

	url, err := u.Upload(t.Context(), KindAvatar, 7, 3, pngOf(t, 800, 800))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.test/barbershops/7/avatar/3-") || !strings.HasSuffix(url, ".webp") {
		t.Fatalf("unexpected url %s", url)
	}
	if len(store.objects) != 1 {
		t.Fatalf("expected one object got %d", len(store.objects))
	}

	if _, err := u.Upload(t.Context(), "banner", 7, 3, pngOf(t, 10, 10)); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestDisabledStorage(t *testing.T) {
	_, err := NewUploader(disabledStorage{}).Upload(t.Context(), KindLogo, 1, 1, pngOf(t, 10, 10))
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled got %v", err)
	}
}
