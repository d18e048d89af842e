package playlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mmcdole/wizju/internal/domain"
)

// ErrNotM3U is returned when the first non-empty line is not #EXTM3U.
var ErrNotM3U = errors.New("not an M3U playlist")

// attrRE extracts key="value" or key=value pairs from #EXTINF lines.
var attrRE = regexp.MustCompile(`([\w-]+)=(?:"([^"]*?)"|([^\s,]+))`)

// M3UParser reads extended M3U playlists.
type M3UParser struct{}

var _ domain.PlaylistParser = M3UParser{}

// Parse streams r line by line. Each URL line becomes one entry carrying
// the attributes of the #EXTINF line before it, if any.
func (M3UParser) Parse(r io.Reader) ([]domain.PlaylistEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)

	var (
		entries []domain.PlaylistEntry
		pending *domain.PlaylistEntry
		header  bool
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !header {
			line = strings.TrimPrefix(line, "\ufeff")
			if !strings.HasPrefix(line, "#EXTM3U") {
				return nil, fmt.Errorf("%w: first line %q", ErrNotM3U, line)
			}
			header = true
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXTINF:"):
			e := parseExtinf(line)
			pending = &e
		case strings.HasPrefix(line, "#EXTGRP:"):
			if pending != nil && pending.Group == "" {
				pending.Group = strings.TrimSpace(strings.TrimPrefix(line, "#EXTGRP:"))
			}
		case strings.HasPrefix(line, "#"):
			// other directives
		default:
			e := domain.PlaylistEntry{URL: line}
			if pending != nil {
				e = *pending
				e.URL = line
			}
			entries = append(entries, e)
			pending = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan playlist: %w", err)
	}
	if !header {
		return nil, fmt.Errorf("%w: empty input", ErrNotM3U)
	}
	return entries, nil
}

func parseExtinf(line string) domain.PlaylistEntry {
	attrs := make(map[string]string)
	for _, m := range attrRE.FindAllStringSubmatch(line, -1) {
		val := m[2]
		if val == "" {
			val = m[3]
		}
		attrs[strings.ToLower(m[1])] = val
	}

	name := ""
	if idx := titleComma(line); idx != -1 {
		name = strings.TrimSpace(line[idx+1:])
	}
	if name == "" {
		name = attrs["tvg-name"]
	}

	return domain.PlaylistEntry{
		Name:    name,
		Group:   attrs["group-title"],
		Logo:    attrs["tvg-logo"],
		TvgName: attrs["tvg-name"],
		TvgID:   attrs["tvg-id"],
	}
}

// titleComma finds the first comma outside quoted attribute values; the
// title follows it and may itself contain commas.
func titleComma(line string) int {
	inQuotes := false
	for i, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}
