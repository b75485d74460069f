package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named line on a plot.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 8
	minPlotWidth      = 10
	fallbackTermWidth = 80
	axisGap           = " ┤"
	colorReset        = "\x1b[0m"
)

var seriesColors = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m"}

// canvas is a grid of braille cells; each cell holds 2x4 dots.
type canvas struct {
	width, height int
	dots          [][]uint8
	owner         [][]int
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: width, height: height}
	c.dots = make([][]uint8, height)
	c.owner = make([][]int, height)
	for y := range c.dots {
		c.dots[y] = make([]uint8, width)
		c.owner[y] = make([]int, width)
		for x := range c.owner[y] {
			c.owner[y][x] = -1
		}
	}
	return c
}

// braille dot bits indexed by [row][column] inside a cell.
var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func (c *canvas) set(px, py, series int) {
	cx, cy := px/2, py/4
	if px < 0 || py < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.dots[cy][cx] |= dotBits[py%4][px%2]
	if c.owner[cy][cx] < 0 {
		c.owner[cy][cx] = series
	}
}

func (c *canvas) line(x0, y0, x1, y1, series int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, series)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// PlotSeries draws all series on one braille canvas with a shared scale.
// width and height are in terminal cells; zero picks a size from the terminal.
func PlotSeries(w io.Writer, title string, series []Series, width, height int, useColor bool) error {
	lines := renderPlot(title, series, width, height, useColor)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func renderPlot(title string, series []Series, width, height int, useColor bool) []string {
	kept := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	lo, hi := valueRange(kept)
	top, bottom := formatAxis(hi), formatAxis(lo)
	labelWidth := max(runewidth.StringWidth(top), runewidth.StringWidth(bottom))
	if width <= 0 {
		width = PlotWidthFor(terminalWidth(), labelWidth)
	}
	width = max(width, minPlotWidth)

	c := newCanvas(width, height)
	dotsWide, dotsHigh := width*2, height*4
	for si, s := range kept {
		points := resample(s.Values, dotsWide)
		prevX, prevY := -1, -1
		for x, v := range points {
			y := int(math.Round((hi - v) / (hi - lo) * float64(dotsHigh-1)))
			if prevX < 0 {
				c.set(x, y, si)
			} else {
				c.line(prevX, prevY, x, y, si)
			}
			prevX, prevY = x, y
		}
	}

	out := make([]string, 0, height+2)
	if title != "" {
		out = append(out, headerStyle.Render(title))
	}
	for y := 0; y < height; y++ {
		label := ""
		switch y {
		case 0:
			label = top
		case height - 1:
			label = bottom
		}
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(label, labelWidth))
		row.WriteString(axisGap)
		for x := 0; x < width; x++ {
			ch := rune(0x2800 + int(c.dots[y][x]))
			owner := c.owner[y][x]
			if useColor && owner >= 0 {
				row.WriteString(seriesColors[owner%len(seriesColors)])
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		out = append(out, row.String())
	}
	out = append(out, legend(kept, useColor))
	return out
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := "⣿ " + s.Name
		if useColor {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "  ")
}

func valueRange(series []Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi-lo < 1e-9 {
		lo--
		hi++
	}
	return lo, hi
}

func formatAxis(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

// resample stretches or shrinks values to n points by linear interpolation.
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	if len(values) == 1 || n == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	step := float64(len(values)-1) / float64(n-1)
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx]*(1-frac) + values[idx+1]*frac
	}
	return out
}

// PlotWidthFor returns the canvas width that fits totalWidth next to axis
// labels of labelWidth cells.
func PlotWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-labelWidth-runewidth.StringWidth(axisGap), minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

// UseColor reports whether w is a terminal that should receive ANSI colors.
func UseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
