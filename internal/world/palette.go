package world

import "errors"

// ErrPaletteExhausted is returned by Pop when all PaletteSize colors are
// assigned, i.e. the session is already at MAX_NB_HEADSETS. It is not a
// protocol violation — handlers.handleIdentHeadset logs it and ignores the
// IdentHeadset, leaving the connection open but unidentified.
var ErrPaletteExhausted = errors.New("color pool exhausted: max headsets reached")

// PaletteSize is the fixed number of distinguishable headset display colors
// (§4.4; original_source's config.h: MAX_NB_HEADSETS == 10, one color per
// possible headset).
const PaletteSize = 10

// distinguishableColors is original_source's
// VFVServer::SCIVIS_DISTINGUISHABLE_COLORS table verbatim (src/VFVServer.cpp),
// a hand-picked palette of 10 mutually-distinguishable 0xRRGGBB values —
// not sequential indices, which would give a renderer nothing to display.
var distinguishableColors = [PaletteSize]uint32{
	0xffe119, 0x4363d8, 0xf58231, 0xfabebe, 0xe6beff,
	0x800000, 0x000075, 0xa9a9a9, 0xffffff, 0x000000,
}

// ColorPalette is a reuse stack of the distinguishable colors above: Pop
// assigns the first available one to a newly-identified headset, Push
// returns it to the pool on disconnect. It holds no lock of its own — §5
// places headset identity under mapMutex (the connection table's lock), so
// the owner of a ColorPalette (internal/session's Registry) is responsible
// for serializing access to it alongside the connection table.
type ColorPalette struct {
	available []uint32
}

// NewColorPalette returns a palette with all PaletteSize colors available,
// popped in ascending table order for determinism (matches the original's
// loop pushing SCIVIS_DISTINGUISHABLE_COLORS onto a stack from its last
// index down to its first, so the first Pop yields colors[0] = 0xffe119,
// §8 Scenario 1).
func NewColorPalette() *ColorPalette {
	p := &ColorPalette{available: make([]uint32, PaletteSize)}
	for i := range p.available {
		p.available[i] = distinguishableColors[PaletteSize-1-i]
	}
	return p
}

// Pop removes and returns the first available distinguishable color.
func (p *ColorPalette) Pop() (uint32, error) {
	if len(p.available) == 0 {
		return 0, ErrPaletteExhausted
	}
	n := len(p.available)
	c := p.available[n-1]
	p.available = p.available[:n-1]
	return c, nil
}

// Push returns a color value to the pool.
func (p *ColorPalette) Push(color uint32) {
	p.available = append(p.available, color)
}

// Available reports how many colors remain unassigned.
func (p *ColorPalette) Available() int { return len(p.available) }
