// Package selector chooses what to paint first and what to hand to the
// renderer, given everything the registry knows about a slide.
package selector

import (
	"sort"

	"github.com/ivlev/heroslide/internal/registry"
	"github.com/ivlev/heroslide/internal/slide"
)

// Selection is the selector's verdict for one slide.
type Selection struct {
	// Placeholder is the URL to paint first. Empty means nothing usable
	// exists and the caller must degrade to the fallback card.
	Placeholder string
	// SourceSet always carries the full variant maps regardless of which
	// entry became the placeholder, so the final render can pick a sharper
	// source once bandwidth/viewport allows.
	SourceSet map[registry.Encoding]slide.VariantMap
}

// Empty reports whether nothing at all was selected.
func (s Selection) Empty() bool {
	return s.Placeholder == "" && len(s.SourceSet) == 0
}

// Select applies the selection policy:
//  1. An explicit caller-supplied image always wins as placeholder.
//  2. Otherwise the modern (webp) map is preferred over the jpeg map, and
//     within the chosen map the SMALLEST width is the placeholder, fastest
//     to paint, which is what keeps the first frame from being blank. Final
//     display quality comes from the full source set, not the placeholder.
//  3. With no variant maps at all, a single-fallback asset is both the
//     placeholder and the sole source.
func Select(res registry.Result, explicitImage string) Selection {
	sel := Selection{SourceSet: nonEmptyMaps(res.Variants)}

	if explicitImage != "" {
		sel.Placeholder = explicitImage
		return sel
	}

	m := res.Variants[registry.EncodingWebP]
	if len(m) == 0 {
		m = res.Variants[registry.EncodingJPEG]
	}
	if len(m) > 0 {
		sel.Placeholder = m[smallestWidth(m)]
		return sel
	}

	if res.SingleFallback != "" {
		sel.Placeholder = res.SingleFallback
	}
	return sel
}

// ForegroundSource returns the URL the foreground (sharp) layer should load:
// the largest width of the preferred encoding, falling back to the
// placeholder when no variant map exists.
func ForegroundSource(sel Selection) string {
	m := sel.SourceSet[registry.EncodingWebP]
	if len(m) == 0 {
		m = sel.SourceSet[registry.EncodingJPEG]
	}
	if len(m) == 0 {
		return sel.Placeholder
	}
	widths := m.Widths()
	sort.Ints(widths)
	return m[widths[len(widths)-1]]
}

func smallestWidth(m slide.VariantMap) int {
	widths := m.Widths()
	sort.Ints(widths)
	return widths[0]
}

func nonEmptyMaps(variants map[registry.Encoding]slide.VariantMap) map[registry.Encoding]slide.VariantMap {
	out := map[registry.Encoding]slide.VariantMap{}
	for enc, m := range variants {
		if len(m) > 0 {
			out[enc] = m
		}
	}
	return out
}
