package main

import (
	"fmt"
	"strings"

	"github.com/mmcdole/wizju/internal/domain"
)

// resolveSource finds a source by exact id, case-insensitive name or
// unique id prefix.
func resolveSource(srcs []domain.Source, arg string) (domain.Source, error) {
	if arg == "" {
		return domain.Source{}, fmt.Errorf("%w: empty reference", domain.ErrSourceNotFound)
	}
	for _, s := range srcs {
		if s.ID == arg {
			return s, nil
		}
	}

	var byName []domain.Source
	for _, s := range srcs {
		if strings.EqualFold(s.Name, arg) {
			byName = append(byName, s)
		}
	}
	switch len(byName) {
	case 1:
		return byName[0], nil
	case 0:
	default:
		return domain.Source{}, fmt.Errorf("source name %q is ambiguous (%d matches), use the id", arg, len(byName))
	}

	var byPrefix []domain.Source
	for _, s := range srcs {
		if strings.HasPrefix(s.ID, arg) {
			byPrefix = append(byPrefix, s)
		}
	}
	if len(byPrefix) == 1 {
		return byPrefix[0], nil
	}
	return domain.Source{}, fmt.Errorf("%w: %q", domain.ErrSourceNotFound, arg)
}

// resolveItem finds a media record by exact id or unique id prefix.
func resolveItem(items []domain.MediaRecord, arg string) (domain.MediaRecord, error) {
	if arg == "" {
		return domain.MediaRecord{}, fmt.Errorf("%w: empty reference", domain.ErrItemNotFound)
	}
	var matches []domain.MediaRecord
	for _, m := range items {
		if m.ID == arg {
			return m, nil
		}
		if strings.HasPrefix(m.ID, arg) {
			matches = append(matches, m)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return domain.MediaRecord{}, fmt.Errorf("%w: %q", domain.ErrItemNotFound, arg)
}
