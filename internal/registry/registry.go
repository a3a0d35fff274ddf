// Package registry discovers the physical image variants behind a slide's
// logical base name. A physical asset belongs to a base name when its
// filename is exactly "{base}.{ext}" (single fallback) or "{base}-{width}.{ext}"
// with a positive integer width (responsive variant).
package registry

import (
	"context"

	"github.com/ivlev/heroslide/internal/slide"
)

// Encoding identifies one supported image encoding.
type Encoding string

const (
	// EncodingWebP is the modern, better-compressed encoding.
	EncodingWebP Encoding = "webp"
	// EncodingJPEG is the universally supported fallback encoding.
	EncodingJPEG Encoding = "jpeg"
)

// extEncoding maps filename extensions (lowercase, without dot) to encodings.
var extEncoding = map[string]Encoding{
	"webp": EncodingWebP,
	"jpg":  EncodingJPEG,
	"jpeg": EncodingJPEG,
}

// Result is everything the registry knows about one base name. A zero Result
// (no variants, no fallback) is a normal value meaning "no variants"; the
// caller degrades to the textual fallback card, nothing is thrown.
type Result struct {
	// Variants holds one width→URL map per encoding. Replaced wholesale on
	// slide change, never merged across slides.
	Variants map[Encoding]slide.VariantMap
	// SingleFallback is the "{base}.{ext}" asset, if one exists.
	SingleFallback string
}

// Empty reports whether the result carries no usable asset at all.
func (r Result) Empty() bool {
	for _, m := range r.Variants {
		if len(m) > 0 {
			return false
		}
	}
	return r.SingleFallback == ""
}

// Registry resolves base names to physical variants. ResolveEager answers
// from a pre-built index and reports whether the base was indexed at all;
// ResolveLazy may do work (directory scan, fetch) on first use. A lazy
// failure must surface as an empty Result plus the returned error for
// logging; implementations never panic and callers never propagate the
// error past the controller.
type Registry interface {
	ResolveEager(baseName string) (Result, bool)
	ResolveLazy(ctx context.Context, baseName string) (Result, error)
}
