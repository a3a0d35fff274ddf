package registry

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"
)

// FetchFunc produces the variants for one base name on demand. It may hit the
// network or any other slow source.
type FetchFunc func(ctx context.Context) (Result, error)

// FetchRegistry is a lazy registry backed by a read-only table of fetch
// functions, one per base name, the on-demand counterpart of DirRegistry.
// The table is never mutated after construction; only fetch results are
// cached, guarded by singleflight so concurrent lookups for the same base
// run the fetch once.
type FetchRegistry struct {
	fetchers map[string]FetchFunc

	group singleflight.Group
}

// NewFetchRegistry wraps a table of per-base fetch functions.
func NewFetchRegistry(fetchers map[string]FetchFunc) *FetchRegistry {
	return &FetchRegistry{fetchers: fetchers}
}

// ResolveEager always misses: this registry has nothing pre-indexed.
func (r *FetchRegistry) ResolveEager(baseName string) (Result, bool) {
	return Result{}, false
}

// ResolveLazy runs the fetch function for the base. A fetch error (network
// failure, bad payload) is logged and collapsed into an empty Result; the
// caller treats it exactly like "no variants found".
func (r *FetchRegistry) ResolveLazy(ctx context.Context, baseName string) (Result, error) {
	fetch, ok := r.fetchers[baseName]
	if !ok {
		return Result{}, nil
	}

	v, err, _ := r.group.Do(baseName, func() (interface{}, error) {
		res, err := fetch(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("fetch %q: %w", baseName, err)
		}
		return res, nil
	})
	if err != nil {
		log.Printf("[!] Не удалось получить варианты для %q: %v", baseName, err)
		return Result{}, err
	}
	return v.(Result), nil
}
