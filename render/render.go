// Package render draws boards for terminals.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"connect4ai/games"
)

// Palette is the per-agent presentation setting. It only changes how boards
// are drawn, never how moves are chosen.
type Palette struct {
	Name      string
	PlayerOne lipgloss.Color
	PlayerTwo lipgloss.Color
	Frame     lipgloss.Color
}

var (
	DefaultPalette = Palette{
		Name:      "default",
		PlayerOne: lipgloss.Color("#FF0000"),
		PlayerTwo: lipgloss.Color("#FFFF00"),
		Frame:     lipgloss.Color("#0000FF"),
	}
	// CVDPalette is easier to tell apart with colour-vision deficiency.
	CVDPalette = Palette{
		Name:      "cvd",
		PlayerOne: lipgloss.Color("#E33CEF"),
		PlayerTwo: lipgloss.Color("#00FF00"),
		Frame:     lipgloss.Color("#0000FF"),
	}
)

// PaletteFor picks the palette for the colour-vision-deficiency flag.
func PaletteFor(cvd bool) Palette {
	if cvd {
		return CVDPalette
	}
	return DefaultPalette
}

// Disc returns the styled symbol for m.
func (p Palette) Disc(m games.Mark) string {
	switch m {
	case games.PlayerOne:
		return lipgloss.NewStyle().Foreground(p.PlayerOne).Render("●")
	case games.PlayerTwo:
		return lipgloss.NewStyle().Foreground(p.PlayerTwo).Render("●")
	}
	return "·"
}

// Board draws b with column indexes underneath.
func Board(b *games.Board, p Palette) string {
	frame := lipgloss.NewStyle().Foreground(p.Frame)
	var sb strings.Builder
	for r := 0; r < b.Rows(); r++ {
		sb.WriteString(frame.Render("|"))
		for c := 0; c < b.Cols(); c++ {
			sb.WriteString(p.Disc(b.At(r, c)))
			sb.WriteString(frame.Render("|"))
		}
		sb.WriteByte('\n')
	}
	sb.WriteByte(' ')
	for c := 0; c < b.Cols(); c++ {
		fmt.Fprintf(&sb, "%d ", c)
	}
	sb.WriteByte('\n')
	return sb.String()
}
