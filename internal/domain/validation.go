package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateSourceInput checks the fields a source needs before it is stored.
func ValidateSourceInput(in SourceInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidSource)
	}
	switch in.Type {
	case SourceKindIPTV, SourceKindM3U:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidSource, in.Type)
	}
	u, err := url.Parse(in.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: url must be an http(s) address", ErrInvalidSource)
	}
	return nil
}

// ParseMediaKind converts a string to a MediaKind
func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(strings.ToLower(s)) {
	case MediaKindLive:
		return MediaKindLive, nil
	case MediaKindVOD:
		return MediaKindVOD, nil
	case MediaKindSeries:
		return MediaKindSeries, nil
	default:
		return "", fmt.Errorf("unknown media type %q", s)
	}
}
