package export

import (
	"fmt"
	"strings"

	"github.com/ivlev/heroslide/internal/config"
	"github.com/ivlev/heroslide/internal/system"
)

// ClipFilter builds the per-clip ffmpeg filter chain: aspect fitting, the
// backdrop reveal (the clip opens slightly zoomed in and eases back to 1:1,
// matching the live crossfade) and the title overlay.
func ClipFilter(p config.ClipParams) string {
	return clipFilter(p, system.CheckFilterSupport("drawtext"))
}

func clipFilter(p config.ClipParams, drawtext bool) string {
	fFPS := float64(p.FPS)
	fTotal := p.Duration * fFPS
	fReveal := p.FadeSeconds * fFPS
	if fReveal <= 0 || fReveal > fTotal {
		fReveal = fTotal
	}

	scale := p.RevealScale
	if scale <= 1 {
		scale = 1.08
	}

	// Линейный спад масштаба от RevealScale до 1.0 за время проявления
	zFormula := fmt.Sprintf("if(lte(on,%f), %f-(%f-1.0)*on/%f, 1.0)",
		fReveal, scale, scale, fReveal)

	// Рендерим в 2x и масштабируем вниз, чтобы zoompan не дрожал
	aspectFilter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		p.Width*2, p.Height*2, p.Width*2, p.Height*2,
	)

	zoomFilter := fmt.Sprintf(
		"zoompan=z='%s':d=%d:s=%dx%d:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':fps=%d",
		zFormula, int(fTotal), p.Width, p.Height, p.FPS,
	)

	chain := fmt.Sprintf("%s,%s", aspectFilter, zoomFilter)

	if drawtext && p.Title != "" {
		chain += "," + titleOverlay(p)
	}
	if p.Debug && drawtext {
		chain += fmt.Sprintf(",drawtext=text='Slide %d':x=10:y=10:fontsize=24:fontcolor=yellow:box=1:boxcolor=black@0.5", p.SlideIndex+1)
	}

	return fmt.Sprintf("%s,scale=%d:%d", chain, p.Width, p.Height)
}

// titleOverlay draws the slide title (and subtitle, when present) over the
// lower third, the way the live hero renders its caption.
func titleOverlay(p config.ClipParams) string {
	title := fmt.Sprintf(
		"drawtext=text='%s':x=(w-text_w)/2:y=h-h/4:fontsize=h/12:fontcolor=white:shadowcolor=black@0.6:shadowx=2:shadowy=2",
		escapeDrawtext(p.Title),
	)
	if p.Subtitle == "" {
		return title
	}
	subtitle := fmt.Sprintf(
		"drawtext=text='%s':x=(w-text_w)/2:y=h-h/4+h/10:fontsize=h/24:fontcolor=white@0.85",
		escapeDrawtext(p.Subtitle),
	)
	return title + "," + subtitle
}

// escapeDrawtext экранирует спецсимволы drawtext-фильтра.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\\\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}
