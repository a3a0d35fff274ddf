package slide

// Descriptor is the logical identity of one hero slide.
// The ordered sequence of descriptors is fixed at startup; the engine never
// adds or removes slides at runtime.
type Descriptor struct {
	ID       int    `yaml:"id"`
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	// BaseName is the key used to look up physical image variants.
	BaseName string `yaml:"base_name"`
	// ExplicitImage, when set, bypasses variant discovery entirely and is
	// used as the placeholder candidate as-is.
	ExplicitImage string `yaml:"explicit_image,omitempty"`
}

// VariantMap maps image width in pixels to the URL (or path) of the physical
// asset at that width. Keys carry no ordering guarantee; consumers must sort
// before deriving "smallest" or "largest".
type VariantMap map[int]string

// Widths returns the map keys unsorted. Callers sort as needed.
func (m VariantMap) Widths() []int {
	ws := make([]int, 0, len(m))
	for w := range m {
		ws = append(ws, w)
	}
	return ws
}

// LoadState tracks the per-slide loading lifecycle.
type LoadState int

const (
	// Unresolved is the initial state when a slide becomes active.
	Unresolved LoadState = iota
	// Resolving covers any asynchronous registry lookup.
	Resolving
	// PlaceholderReady means a candidate URL was chosen but not yet
	// confirmed to decode.
	PlaceholderReady
	// ConfirmedLoaded means the probe reported a successful load.
	ConfirmedLoaded
	// ErrorState is terminal for the attempt and triggers the textual
	// fallback card. A later slide change re-enters Unresolved.
	ErrorState
)

func (s LoadState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case PlaceholderReady:
		return "placeholder-ready"
	case ConfirmedLoaded:
		return "confirmed-loaded"
	case ErrorState:
		return "error"
	default:
		return "unknown"
	}
}
