package imagegen

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const placeholderSize = 512

var placeholderColors = map[FailureKind][2]color.NRGBA{
	FailureQuotaExceeded: {{R: 0xE0, G: 0x9F, B: 0x3E, A: 0xFF}, {R: 0x8A, G: 0x5A, B: 0x12, A: 0xFF}},
	FailureRateLimited:   {{R: 0x4A, G: 0x7F, B: 0xC1, A: 0xFF}, {R: 0x1F, G: 0x3F, B: 0x6B, A: 0xFF}},
	FailureGeneric:       {{R: 0x9E, G: 0x9E, B: 0x9E, A: 0xFF}, {R: 0x42, G: 0x42, B: 0x42, A: 0xFF}},
}

// Placeholder draws the stand-in artwork for a failure kind: a framed square
// whose colours tell the kinds apart.
func Placeholder(kind FailureKind) image.Image {
	colors, ok := placeholderColors[kind]
	if !ok {
		colors = placeholderColors[FailureGeneric]
	}

	img := imaging.New(placeholderSize, placeholderSize, colors[0])
	inner := imaging.New(placeholderSize/2, placeholderSize/2, colors[1])
	return imaging.PasteCenter(img, inner)
}

// Placeholders maps every configured fallback location to its artwork, so the
// fetcher can resolve them without a network round trip.
func (p *OpenAIProvider) Placeholders() map[string]image.Image {
	return map[string]image.Image{
		p.fallbacks.QuotaExceeded: Placeholder(FailureQuotaExceeded),
		p.fallbacks.RateLimited:   Placeholder(FailureRateLimited),
		p.fallbacks.Failed:        Placeholder(FailureGeneric),
	}
}
