package playlist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func playlistServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "wizju-test" {
			t.Errorf("expected user agent wizju-test, got %q", ua)
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch(t *testing.T) {
	ctx := context.Background()
	f := NewFetcher(time.Second, "wizju-test", quietLogger)

	t.Run("ok", func(t *testing.T) {
		srv := playlistServer(t, http.StatusOK, "#EXTM3U\n")
		body, err := f.Fetch(ctx, srv.URL+"/list.m3u")
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if string(body) != "#EXTM3U\n" {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("non-200", func(t *testing.T) {
		srv := playlistServer(t, http.StatusNotFound, "missing")
		if _, err := f.Fetch(ctx, srv.URL); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("invalid scheme", func(t *testing.T) {
		for _, u := range []string{"ftp://x/list.m3u", "/tmp/list.m3u", "#EXTM3U"} {
			if _, err := f.Fetch(ctx, u); !errors.Is(err, ErrInvalidURL) {
				t.Errorf("Fetch(%q): expected ErrInvalidURL, got %v", u, err)
			}
		}
	})
}

func TestService_Load(t *testing.T) {
	ctx := context.Background()
	srv := playlistServer(t, http.StatusOK, samplePlaylist)
	s := NewService(NewFetcher(time.Second, "wizju-test", quietLogger), nil, quietLogger)

	loaded, err := s.Load(ctx, srv.URL, "src1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(loaded.Items))
	}
	for _, item := range loaded.Items {
		if item.SourceID != "src1" {
			t.Errorf("expected source id src1, got %q", item.SourceID)
		}
	}
	want := []string{"Drama", "Movies", "News", "general"}
	if !reflect.DeepEqual(loaded.Categories, want) {
		t.Errorf("expected categories %v, got %v", want, loaded.Categories)
	}
}

func TestService_LoadRejectsNonPlaylist(t *testing.T) {
	srv := playlistServer(t, http.StatusOK, "<html></html>")
	s := NewService(NewFetcher(time.Second, "wizju-test", quietLogger), nil, quietLogger)

	if _, err := s.Load(context.Background(), srv.URL, "src1"); !errors.Is(err, ErrNotM3U) {
		t.Errorf("expected ErrNotM3U, got %v", err)
	}
}
