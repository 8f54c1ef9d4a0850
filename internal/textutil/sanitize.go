package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxFileNameBytes keeps staged upload names well under common 255-byte
// filesystem limits once the upload prefix is added.
const maxFileNameBytes = 120

var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a client-supplied name safe to embed in a staging
// path. Separators and wildcards become dashes, other unsafe characters and
// control runes are dropped, leading dots are stripped, and overly long
// names are shortened with the extension preserved.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	name = strings.TrimLeft(name, ".")
	if len(name) <= maxFileNameBytes {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	return truncateUTF8(stem, maxFileNameBytes-len(ext)) + ext
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := 0
	for i := range s {
		if i > limit {
			break
		}
		cut = i
	}
	return s[:cut]
}
