// Package export renders recorded runs and meshes as standalone SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/viz"
)

// Point is a 2D coordinate in world units. Top-down paths use (x, z).
type Point struct{ X, Y float64 }

// Path is one polyline of a trajectory plot.
type Path struct {
	Points []Point
	Color  string
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	writeHeader(&sb, width, height)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					cx := float64(col*2+dx)*scale + scale/2
					cy := float64(row*4+dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG draws one or more top-down paths on shared axes. An
// optional finish line at x = finishX is drawn when drawFinish is set.
func TrajectoryToSVG(paths []Path, width, height int, finishX float64, drawFinish bool) string {
	var all []Point
	for _, p := range paths {
		all = append(all, p.Points...)
	}
	if len(all) < 2 {
		return ""
	}
	if drawFinish {
		all = append(all, Point{X: finishX, Y: all[0].Y})
	}

	b := boundsOf(all)
	var sb strings.Builder
	writeHeader(&sb, float64(width), float64(height))

	if drawFinish {
		x, _ := b.project(Point{X: finishX}, width, height)
		fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"0\" x2=\"%.1f\" y2=\"%d\" stroke=\"#ff4444\" stroke-dasharray=\"4 4\"/>\n", x, x, height)
	}

	for _, p := range paths {
		if len(p.Points) < 2 {
			continue
		}
		fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"M", p.Color)
		for i, pt := range p.Points {
			x, y := b.project(pt, width, height)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// MeshToSVG draws a soft-body profile: springs as lines, nodes as dots.
func MeshToSVG(nodes []dynamo.Vec2, edges [][2]int, width, height int) string {
	if len(nodes) == 0 {
		return ""
	}
	pts := make([]Point, len(nodes))
	for i, n := range nodes {
		pts[i] = Point{X: n.X, Y: n.Y}
	}
	b := boundsOf(pts)
	b.square()

	var sb strings.Builder
	writeHeader(&sb, float64(width), float64(height))

	sb.WriteString("<g stroke=\"#00ccff\" stroke-width=\"1\">\n")
	for _, e := range edges {
		if e[0] < 0 || e[1] < 0 || e[0] >= len(pts) || e[1] >= len(pts) {
			continue
		}
		x1, y1 := b.project(pts[e[0]], width, height)
		x2, y2 := b.project(pts[e[1]], width, height)
		fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/>\n", x1, y1, x2, y2)
	}
	sb.WriteString("</g>\n<g fill=\"#ffcc00\">\n")
	for _, p := range pts {
		x, y := b.project(p, width, height)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"2\"/>\n", x, y)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func writeHeader(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

// boundsOf pads the extent of pts by 10% on each side.
func boundsOf(pts []Point) bounds {
	b := bounds{pts[0].X, pts[0].X, pts[0].Y, pts[0].Y}
	for _, p := range pts {
		if p.X < b.minX {
			b.minX = p.X
		}
		if p.X > b.maxX {
			b.maxX = p.X
		}
		if p.Y < b.minY {
			b.minY = p.Y
		}
		if p.Y > b.maxY {
			b.maxY = p.Y
		}
	}

	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.1
	b.maxX += rangeX * 0.1
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	return b
}

// square widens the shorter axis so shapes keep their aspect ratio.
func (b *bounds) square() {
	rx, ry := b.maxX-b.minX, b.maxY-b.minY
	if rx > ry {
		d := (rx - ry) / 2
		b.minY -= d
		b.maxY += d
	} else {
		d := (ry - rx) / 2
		b.minX -= d
		b.maxX += d
	}
}

func (b bounds) project(p Point, width, height int) (float64, float64) {
	x := (p.X - b.minX) / (b.maxX - b.minX) * float64(width)
	y := float64(height) - (p.Y-b.minY)/(b.maxY-b.minY)*float64(height)
	return x, y
}
