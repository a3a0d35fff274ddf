package registry

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/ivlev/heroslide/internal/slide"
)

// DirRegistry resolves variants from a directory of image files. The eager
// index is built once at construction and is read-only afterwards, so it is
// safe to share across all slide instances without locking. The lazy path
// re-scans the directory for base names that were not present at startup
// (assets dropped in after the index was built).
type DirRegistry struct {
	dir   string
	index map[string]Result

	group singleflight.Group
}

// NewDirRegistry scans dir once and builds the eager lookup table. A missing
// or unreadable directory is not fatal: the registry starts empty and every
// lookup degrades to "no variants".
func NewDirRegistry(dir string) *DirRegistry {
	r := &DirRegistry{
		dir:   dir,
		index: map[string]Result{},
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("[!] Не удалось прочитать каталог ассетов %s: %v", dir, err)
		return r
	}
	r.index = buildIndex(dir, entries)
	return r
}

// ResolveEager answers from the startup index.
func (r *DirRegistry) ResolveEager(baseName string) (Result, bool) {
	res, ok := r.index[baseName]
	return res, ok
}

// ResolveLazy re-scans the directory for a base name the eager index does not
// know. Concurrent lookups for the same base collapse into one scan. A scan
// failure is logged and reported as an empty result; it never propagates as
// anything the controller would have to handle.
func (r *DirRegistry) ResolveLazy(ctx context.Context, baseName string) (Result, error) {
	if res, ok := r.ResolveEager(baseName); ok {
		return res, nil
	}

	v, err, _ := r.group.Do(baseName, func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		entries, err := os.ReadDir(r.dir)
		if err != nil {
			return Result{}, err
		}
		idx := buildIndex(r.dir, entries)
		return idx[baseName], nil
	})
	if err != nil {
		log.Printf("[!] Ленивый поиск вариантов для %q не удался: %v", baseName, err)
		return Result{}, err
	}
	return v.(Result), nil
}

// buildIndex groups directory entries by base name following the filename
// convention. A second file claiming the same (encoding, width) slot is
// logged and the last-registered entry wins.
func buildIndex(dir string, entries []os.DirEntry) map[string]Result {
	index := map[string]Result{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		parsed, ok := parseName(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		res := index[parsed.base]

		if parsed.width == 0 {
			if res.SingleFallback != "" {
				log.Printf("[!] Дубликат fallback-ассета для %q: %s перекрывает %s",
					parsed.base, path, res.SingleFallback)
			}
			res.SingleFallback = path
		} else {
			if res.Variants == nil {
				res.Variants = map[Encoding]slide.VariantMap{}
			}
			m := res.Variants[parsed.encoding]
			if m == nil {
				m = slide.VariantMap{}
				res.Variants[parsed.encoding] = m
			}
			if prev, dup := m[parsed.width]; dup {
				log.Printf("[!] Дубликат ширины %d для %q (%s): %s перекрывает %s",
					parsed.width, parsed.base, parsed.encoding, path, prev)
			}
			m[parsed.width] = path
		}

		index[parsed.base] = res
	}

	return index
}
