package compress

import (
	"slices"
	"strings"
)

var supportedExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".wmv", ".flv", ".m4v"}

// SupportedExtensions lists accepted source extensions, dot included.
func SupportedExtensions() []string {
	return slices.Clone(supportedExtensions)
}

// IsSupportedExtension matches ext case-insensitively against the allow-list.
func IsSupportedExtension(ext string) bool {
	return slices.Contains(supportedExtensions, strings.ToLower(strings.TrimSpace(ext)))
}
