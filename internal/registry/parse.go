package registry

import (
	"path/filepath"
	"strconv"
	"strings"
)

// parsedName is the decomposition of one asset filename.
type parsedName struct {
	base     string
	width    int // 0 => single-fallback asset
	encoding Encoding
}

// parseName decomposes "cover-1200.webp" style filenames. It returns ok=false
// for files that do not follow the convention (wrong extension, zero or
// negative width, empty base).
func parseName(name string) (parsedName, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	enc, ok := extEncoding[ext]
	if !ok {
		return parsedName{}, false
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		return parsedName{}, false
	}

	// The width suffix is everything after the LAST dash, so base names may
	// themselves contain dashes ("summer-issue-1200.webp").
	if i := strings.LastIndex(stem, "-"); i > 0 {
		if w, err := strconv.Atoi(stem[i+1:]); err == nil {
			if w <= 0 {
				return parsedName{}, false
			}
			return parsedName{base: stem[:i], width: w, encoding: enc}, true
		}
	}

	return parsedName{base: stem, width: 0, encoding: enc}, true
}
