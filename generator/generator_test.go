package generator

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewspot/config"
	"brewspot/models"
)

func TestParseRawMetadata(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantErr bool
		summary any
	}{
		{"plain", `{"tags":["cozy"],"summary":"A calm place.","sentiment":"positive"}`, false, "A calm place."},
		{"fenced", "```json\n{\"tags\":[],\"summary\":\"x\",\"sentiment\":\"neutral\"}\n```", false, "x"},
		{"prose around", `Sure! {"summary": 42} hope this helps`, false, float64(42)},
		{"no object", "sorry, I cannot help", true, nil},
		{"broken json", `{"tags": [}`, true, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := ParseRawMetadata(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.summary, raw.Summary)
		})
	}
}

func TestParseRawMetadata_Empty(t *testing.T) {
	_, err := ParseRawMetadata("   ")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(&models.Listing{
		Name:        "Moka House",
		City:        "Seoul",
		Tags:        []string{"wifi", "quiet"},
		Description: "Small roastery near the station.",
	})
	assert.Contains(t, p, "Name: Moka House")
	assert.Contains(t, p, "City: Seoul")
	assert.Contains(t, p, "Owner tags: wifi, quiet")
	assert.True(t, strings.HasSuffix(p, "Small roastery near the station.\n"))
}

// 1x1 png
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
}

func TestPhotoFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.png", "/c.png":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(pngBytes)
		case "/big.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(bytes.Repeat([]byte{1}, 2048))
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewPhotoFetcher(config.LLMConfig{MaxPhotos: 2, MaxPhotoBytes: 1024})

	photos, err := f.Fetch(context.Background(), []string{
		srv.URL + "/missing.png",
		srv.URL + "/big.png",
		srv.URL + "/page.html",
		srv.URL + "/a.png",
		srv.URL + "/c.png",
		srv.URL + "/a.png",
	})
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "image/png", photos[0].MIMEType)
	assert.Equal(t, srv.URL+"/a.png", photos[0].URL)
	assert.Equal(t, srv.URL+"/c.png", photos[1].URL)

	_, err = f.Fetch(context.Background(), []string{srv.URL + "/missing.png"})
	assert.ErrorIs(t, err, ErrNoPhotos)
}

func TestPhotoFetcher_StopsOversizedDownload(t *testing.T) {
	chunk := bytes.Repeat([]byte{0xff}, 1<<20)
	const chunks = 64

	var written atomic.Int64
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(done)
		w.Header().Set("Content-Type", "image/jpeg")
		flusher := w.(http.Flusher)
		for i := 0; i < chunks; i++ {
			n, err := w.Write(chunk)
			written.Add(int64(n))
			if err != nil {
				return
			}
			flusher.Flush()
		}
	}))
	defer srv.Close()

	f := NewPhotoFetcher(config.LLMConfig{MaxPhotos: 1, MaxPhotoBytes: 1024})

	_, err := f.fetchOne(context.Background(), srv.URL+"/huge.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, errPhotoTooLarge)

	<-done
	if got := written.Load(); got >= int64(len(chunk))*chunks {
		t.Fatalf("server streamed the whole body (%d bytes) despite the cap", got)
	}
}

func TestPhotoFetcher_RejectsLargeContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := bytes.Repeat([]byte{1}, 4096)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	defer srv.Close()

	f := NewPhotoFetcher(config.LLMConfig{MaxPhotos: 1, MaxPhotoBytes: 1024})

	_, err := f.fetchOne(context.Background(), srv.URL+"/announced.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, errPhotoTooLarge)
	assert.Contains(t, err.Error(), "content-length 4096")
}
