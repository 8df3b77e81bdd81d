package theme

import (
	"github.com/charmbracelet/lipgloss"

	"go-seqevent/seq"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

// Symbols mark the payload class in the event list
type Symbols struct {
	Note     rune // ♪
	Control  rune // ◆
	Queue    rune // ▶
	Variable rune // ≡
	Unknown  rune // ·
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Note:     '♪',
			Control:  '◆',
			Queue:    '▶',
			Variable: '≡',
			Unknown:  '·',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted    = 0.2
	RoleFG       = 0.4
	RoleAccent   = 0.5
	RoleNote     = 0.6
	RoleControl  = 0.7
	RoleQueue    = 0.8
	RoleVariable = 1.0
)

// Style helpers

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

// ClassColor returns the colour for events of class c
func (t *Theme) ClassColor(c seq.Class) lipgloss.Color {
	switch c {
	case seq.ClassNote:
		return rgbToLipgloss(t.Palette.Lookup(RoleNote))
	case seq.ClassControl:
		return rgbToLipgloss(t.Palette.Lookup(RoleControl))
	case seq.ClassQueueControl:
		return rgbToLipgloss(t.Palette.Lookup(RoleQueue))
	case seq.ClassVariable:
		return rgbToLipgloss(t.Palette.Lookup(RoleVariable))
	default:
		return t.Muted()
	}
}

// ClassSymbol returns the list marker for events of class c
func (t *Theme) ClassSymbol(c seq.Class) rune {
	switch c {
	case seq.ClassNote:
		return t.Symbols.Note
	case seq.ClassControl:
		return t.Symbols.Control
	case seq.ClassQueueControl:
		return t.Symbols.Queue
	case seq.ClassVariable:
		return t.Symbols.Variable
	default:
		return t.Symbols.Unknown
	}
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(c.Hex())
}
