package engine

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Source is either a local file or a remote URL.
type Source struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
}

// FileSource wraps a local path.
func FileSource(p string) Source {
	return Source{Path: strings.TrimSpace(p)}
}

// URLSource wraps a remote URL.
func URLSource(raw string) Source {
	return Source{URL: strings.TrimSpace(raw)}
}

// ParseSource treats http(s) inputs as URLs and everything else as a path.
func ParseSource(value string) Source {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return URLSource(trimmed)
	}
	return FileSource(trimmed)
}

// IsURL reports whether the source is remote.
func (s Source) IsURL() bool {
	return s.URL != ""
}

// Location is the string handed to the engine binaries.
func (s Source) Location() string {
	if s.IsURL() {
		return s.URL
	}
	return s.Path
}

// Name is the user-facing label: the file name for local sources, the full
// URL for remote ones.
func (s Source) Name() string {
	if s.IsURL() {
		return s.URL
	}
	if s.Path == "" {
		return ""
	}
	return filepath.Base(s.Path)
}

// Extension returns the lower-cased extension including the dot. For URLs
// only the path component counts, so query strings and fragments are ignored.
func (s Source) Extension() string {
	if s.IsURL() {
		parsed, err := url.Parse(s.URL)
		if err != nil || parsed.Path == "" {
			return strings.ToLower(path.Ext(s.URL))
		}
		return strings.ToLower(path.Ext(parsed.Path))
	}
	return strings.ToLower(filepath.Ext(s.Path))
}
