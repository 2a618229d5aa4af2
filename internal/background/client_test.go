package background

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestClient(url string) *Client {
	return NewClient(&Config{Enabled: true, ImageURL: url, Timeout: 2 * time.Second, MaxBytes: 1 << 20})
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	picture := pngBytes(t)

	t.Run("returns the image and its detected type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(picture)
		}))
		defer server.Close()

		img, err := newTestClient(server.URL).Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, picture, img.Data)
	})

	t.Run("follows redirects", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/1920/1080", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/id/42.png", http.StatusFound)
		})
		mux.HandleFunc("/id/42.png", func(w http.ResponseWriter, r *http.Request) {
			w.Write(picture)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		img, err := newTestClient(server.URL + "/1920/1080").Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Fetch(ctx)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("body that is not an image", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html><body>maintenance</body></html>"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Fetch(ctx)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("body over the size limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(picture)
		}))
		defer server.Close()

		client := NewClient(&Config{Enabled: true, ImageURL: server.URL, Timeout: time.Second, MaxBytes: 10})
		_, err := client.Fetch(ctx)
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("unreachable service", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := newTestClient(url).Fetch(ctx)
		assert.Error(t, err)
	})

	t.Run("disabled", func(t *testing.T) {
		client := NewClient(&Config{Enabled: false})
		_, err := client.Fetch(ctx)
		assert.ErrorIs(t, err, ErrDisabled)
	})
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("BACKGROUND_ENABLED", "")
	t.Setenv("BACKGROUND_IMAGE_URL", "")
	t.Setenv("BACKGROUND_TIMEOUT_SECONDS", "3")
	t.Setenv("BACKGROUND_MAX_BYTES", "")

	cfg := NewConfigFromEnv()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "https://picsum.photos/1920/1080", cfg.ImageURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, int64(5<<20), cfg.MaxBytes)
}
