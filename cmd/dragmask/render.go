package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/1broseidon/dragmask/internal/region"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const maxRenderCells = 120

// renderMask draws mask as ASCII art, '#' for draggable points and '.' for
// the rest, over the area [0,0]-[width,height). Large areas are sampled
// down so neither side exceeds maxRenderCells.
func renderMask(mask region.Set, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	step := 1
	for width/step > maxRenderCells || height/step > maxRenderCells {
		step++
	}

	var b strings.Builder
	for y := 0; y < height; y += step {
		for x := 0; x < width; x += step {
			if mask.Contains(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// renderArea returns the area to render for mask and its entries: the
// union of every entry rectangle anchored at the window origin.
func renderArea(mask region.Set, rects []region.Rect) (width, height int) {
	b := mask.Bounds()
	width, height = b.Right, b.Bottom
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		width = max(width, r.Right)
		height = max(height, r.Bottom)
	}
	return width, height
}

// colorizeMask paints the '#' runs of a rendered mask in color (0xRRGGBB).
func colorizeMask(rendered string, color uint32) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%06x", color&0xffffff)))

	var b strings.Builder
	for _, line := range strings.SplitAfter(rendered, "\n") {
		for len(line) > 0 {
			n := strings.IndexFunc(line, func(r rune) bool { return r != '#' })
			if n < 0 {
				n = len(line)
			}
			if n > 0 {
				b.WriteString(style.Render(line[:n]))
				line = line[n:]
				continue
			}
			m := strings.IndexByte(line, '#')
			if m < 0 {
				m = len(line)
			}
			b.WriteString(line[:m])
			line = line[m:]
		}
	}
	return b.String()
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
