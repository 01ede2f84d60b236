package viz

import (
	"math"
	"strings"

	"github.com/san-kum/morphrace/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const brailleBase = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells. Pixel coordinates address the
// (Width*2) x (Height*4) dot grid.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// PixelSize is the dot-grid size.
func (c *Canvas) PixelSize() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) cell(x, y int) (row, col int, mask rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, rune(pixelMap[y%4][x%2]), true
}

// Set lights the dot at (x, y). Out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= mask
	}
}

func (c *Canvas) Unset(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] &^= mask
		if c.Grid[row][col] < brailleBase {
			c.Grid[row][col] = brailleBase
		}
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, mask, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&mask != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Dot fills a square of radius r around (x, y).
func (c *Canvas) Dot(x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport is the world rectangle shown on a canvas, top-down: X runs
// left to right and Z runs bottom to top.
type Viewport struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
}

// FitViewport returns a square viewport covering pts, at least minSpan
// wide, with a 10% margin.
func FitViewport(pts []dynamo.Vec2, minSpan float64) Viewport {
	if len(pts) == 0 {
		h := minSpan / 2
		return Viewport{-h, h, -h, h}
	}
	minX, maxX, minZ, maxZ := pts[0].X, pts[0].X, pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minZ, maxZ = math.Min(minZ, p.Y), math.Max(maxZ, p.Y)
	}
	span := math.Max(math.Max(maxX-minX, maxZ-minZ)*1.2, minSpan)
	cx, cz := (minX+maxX)/2, (minZ+maxZ)/2
	return Viewport{cx - span/2, cx + span/2, cz - span/2, cz + span/2}
}

// Project maps a world point to canvas pixels.
func (c *Canvas) Project(v Viewport, p dynamo.Vec2) (int, int) {
	w, h := c.PixelSize()
	sx := (v.MaxX - v.MinX)
	sz := (v.MaxZ - v.MinZ)
	if sx <= 0 || sz <= 0 {
		return -1, -1
	}
	x := (p.X - v.MinX) / sx * float64(w-1)
	y := (v.MaxZ - p.Y) / sz * float64(h-1)
	return int(math.Round(x)), int(math.Round(y))
}

// Plot sets the pixel under a world point.
func (c *Canvas) Plot(v Viewport, p dynamo.Vec2) {
	c.Set(c.Project(v, p))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
