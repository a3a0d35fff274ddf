package config

// Config собирает настройки движка, генератора вариантов и экспортера.
// Заполняется из флагов в cmd/heroslide.
type Config struct {
	DeckPath     string
	AssetsDir    string
	OutputVideo  string
	Width        int
	Height       int
	FPS          int
	Workers      int
	DwellSeconds float64 // показ слайда между переходами
	FadeSeconds  float64 // длительность кроссфейда
	SubscribeURL string
	VideoEncoder string
	Quality      int
	Preset       string
	ShowStats    bool
	BuildVersion string
}

// ClipParams describes one slide's clip for the exporter: viewport geometry
// plus the text drawn over the hero image.
type ClipParams struct {
	Width, Height int
	FPS           int
	Duration      float64
	FadeSeconds   float64
	RevealScale   float64 // starting backdrop scale, eases to 1.0
	SlideIndex    int
	Title         string
	Subtitle      string
	Debug         bool
}

// ApplyPreset maps a named viewport preset to its dimensions; unknown presets
// leave the explicit width/height untouched.
func ApplyPreset(preset string, width, height int) (int, int) {
	switch preset {
	case "16:9":
		return 1280, 720
	case "9:16":
		return 720, 1280
	case "4:5":
		return 1080, 1350
	}
	return width, height
}
