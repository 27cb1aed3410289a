package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetchSuccess(t *testing.T) {
	payload := pngBytes(t, 8, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	data, err := NewFetcher(5 * time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher(5 * time.Second).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewFetcher(50 * time.Millisecond).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestFetchBadURL(t *testing.T) {
	_, err := NewFetcher(time.Second).Fetch(context.Background(), "http://127.0.0.1:1/nope")
	require.Error(t, err)
}

func TestDecodePNG(t *testing.T) {
	img, err := Decode(pngBytes(t, 12, 7))
	require.NoError(t, err)
	bounds := img.Bounds()
	require.Equal(t, 12, bounds.Dx())
	require.Equal(t, 7, bounds.Dy())
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	require.Error(t, err)
}
