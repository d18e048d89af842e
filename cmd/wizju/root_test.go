package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/wizju/internal/config"
	"github.com/mmcdole/wizju/internal/domain"
	"github.com/mmcdole/wizju/internal/library"
)

const testPlaylist = `#EXTM3U
#EXTINF:-1 tvg-name="news" group-title="News",News 24
http://streams.example/news
#EXTINF:-1 tvg-name="sports" group-title="Sports",Sports Channel
http://streams.example/sports
#EXTINF:-1 group-title="Sports",Golf Live
http://streams.example/golf
`

type fakePlayer struct{ urls []string }

func (p *fakePlayer) Launch(url string, _ time.Duration) error {
	p.urls = append(p.urls, url)
	return nil
}

// setup writes a config pointing storage and logs into a temp dir and
// swaps in a fake player.
func setup(t *testing.T) (string, *fakePlayer) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := config.DefaultConfig()
	cfg.Storage.Path = filepath.Join(dir, "wizju.db")
	cfg.Logging.File = filepath.Join(dir, "wizju.log")
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := config.SaveConfig(cfg, cfgPath); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	fake := &fakePlayer{}
	orig := newPlayer
	newPlayer = func(config.PlayerConfig, *slog.Logger) library.Player { return fake }
	t.Cleanup(func() { newPlayer = orig })

	return cfgPath, fake
}

func playlistServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testPlaylist)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/tv.m3u"
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := run(t, cfgPath, args...)
	if err != nil {
		t.Fatalf("wizju %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

// jsonLen decodes a JSON array and returns its length; null counts as empty.
func jsonLen(t *testing.T, out string) int {
	t.Helper()
	var v []json.RawMessage
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, out)
	}
	return len(v)
}

func TestCLI_ImportBrowseAndRemove(t *testing.T) {
	cfgPath, player := setup(t)
	url := playlistServer(t)

	out := mustRun(t, cfgPath, "import", "Home TV", url)
	if !strings.Contains(out, "Imported Home TV: 3 items in 2 categories") {
		t.Errorf("unexpected import output: %s", out)
	}

	out = mustRun(t, cfgPath, "source", "list")
	if !strings.Contains(out, "Home TV") || !strings.Contains(out, "true") {
		t.Errorf("expected active source in listing: %s", out)
	}

	out = mustRun(t, cfgPath, "source", "categories", "home tv")
	if out != "News\nSports\n" {
		t.Errorf("unexpected categories %q", out)
	}

	out = mustRun(t, cfgPath, "-o", "json", "items", "Home TV", "--category", "Sports")
	var items []domain.MediaRecord
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("items output is not JSON: %v\n%s", err, out)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 sports items, got %d", len(items))
	}

	out = mustRun(t, cfgPath, "-o", "json", "search", "golf")
	var found []domain.MediaRecord
	if err := json.Unmarshal([]byte(out), &found); err != nil {
		t.Fatalf("search output is not JSON: %v\n%s", err, out)
	}
	if len(found) != 1 || found[0].Title != "Golf Live" {
		t.Fatalf("expected Golf Live, got %+v", found)
	}
	golf := found[0]

	mustRun(t, cfgPath, "play", "Home TV", golf.ID)
	if len(player.urls) != 1 || player.urls[0] != "http://streams.example/golf" {
		t.Errorf("expected golf stream launched, got %v", player.urls)
	}

	out = mustRun(t, cfgPath, "recent", "list")
	if !strings.Contains(out, "Golf Live") {
		t.Errorf("expected golf in history: %s", out)
	}

	out = mustRun(t, cfgPath, "favorites", "toggle", "Home TV", golf.ID[:8])
	if !strings.Contains(out, "Pinned Golf Live") {
		t.Errorf("unexpected toggle output: %s", out)
	}

	out = mustRun(t, cfgPath, "usage")
	if !strings.Contains(out, "media: Home TV") {
		t.Errorf("expected media partition in usage: %s", out)
	}

	mustRun(t, cfgPath, "source", "remove", "Home TV")

	if n := jsonLen(t, mustRun(t, cfgPath, "-o", "json", "favorites", "list")); n != 0 {
		t.Errorf("expected favorites cascaded away, got %d", n)
	}
	if n := jsonLen(t, mustRun(t, cfgPath, "-o", "json", "items")); n != 0 {
		t.Errorf("expected no media left, got %d", n)
	}
}

func TestCLI_Errors(t *testing.T) {
	cfgPath, _ := setup(t)

	t.Run("invalid source url", func(t *testing.T) {
		_, err := run(t, cfgPath, "source", "add", "Bad", "not a url")
		if !errors.Is(err, domain.ErrInvalidSource) {
			t.Errorf("expected ErrInvalidSource, got %v", err)
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := run(t, cfgPath, "refresh", "missing")
		if !errors.Is(err, domain.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		if _, err := run(t, cfgPath, "items", "--kind", "radio"); err == nil {
			t.Error("expected error for unknown kind")
		}
	})

	t.Run("clear needs confirmation", func(t *testing.T) {
		if _, err := run(t, cfgPath, "clear-all"); err == nil {
			t.Error("expected clear-all without --yes to fail")
		}
		if _, err := run(t, cfgPath, "clear-all", "--yes"); err != nil {
			t.Errorf("clear-all --yes failed: %v", err)
		}
	})
}

func TestCLI_SourceToggle(t *testing.T) {
	cfgPath, _ := setup(t)

	mustRun(t, cfgPath, "source", "add", "Backup", "http://example.com/backup.m3u", "--type", "iptv")
	out := mustRun(t, cfgPath, "source", "toggle", "backup")
	if !strings.Contains(out, "Backup disabled") {
		t.Errorf("unexpected toggle output: %s", out)
	}

	out = mustRun(t, cfgPath, "source", "list", "--active")
	if strings.Contains(out, "Backup") {
		t.Errorf("disabled source listed as active: %s", out)
	}

	_, err := run(t, cfgPath, "play", "Backup", "anything")
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("expected disabled source error, got %v", err)
	}
}

func TestCLI_MemoryModeDoesNotPersist(t *testing.T) {
	cfgPath, _ := setup(t)

	mustRun(t, cfgPath, "--memory", "source", "add", "Temp", "http://example.com/t.m3u")
	if n := jsonLen(t, mustRun(t, cfgPath, "-o", "json", "source", "list")); n != 0 {
		t.Errorf("expected nothing persisted, got %d sources", n)
	}
}

func TestCLI_Version(t *testing.T) {
	cfgPath, _ := setup(t)
	out := mustRun(t, cfgPath, "version")
	if out != "wizju dev\n" {
		t.Errorf("unexpected version output %q", out)
	}
}
