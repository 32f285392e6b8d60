// seehuhn.de/go/pdfrender - a renderer for PDF content streams
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdfrender

import (
	"image"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// WindingRule selects how the interior of a path is determined.
type WindingRule int

const (
	// NonZero is the nonzero winding number rule.
	NonZero WindingRule = iota

	// EvenOdd is the even-odd rule.
	EvenOdd
)

// A Path is a sequence of path construction commands with their
// control points, in device coordinates.
type Path struct {
	Cmds   []path.Command
	Coords []vec.Vec2
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, path.CmdMoveTo)
	p.Coords = append(p.Coords, vec.Vec2{X: x, Y: y})
}

// LineTo appends a line segment to (x, y).
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, path.CmdLineTo)
	p.Coords = append(p.Coords, vec.Vec2{X: x, Y: y})
}

// QuadTo appends a quadratic Bezier segment.
func (p *Path) QuadTo(x1, y1, x2, y2 float64) {
	p.Cmds = append(p.Cmds, path.CmdQuadTo)
	p.Coords = append(p.Coords,
		vec.Vec2{X: x1, Y: y1},
		vec.Vec2{X: x2, Y: y2})
}

// CubeTo appends a cubic Bezier segment.
func (p *Path) CubeTo(x1, y1, x2, y2, x3, y3 float64) {
	p.Cmds = append(p.Cmds, path.CmdCubeTo)
	p.Coords = append(p.Coords,
		vec.Vec2{X: x1, Y: y1},
		vec.Vec2{X: x2, Y: y2},
		vec.Vec2{X: x3, Y: y3})
}

// Close closes the current subpath.
func (p *Path) Close() {
	p.Cmds = append(p.Cmds, path.CmdClose)
}

// Rect appends a closed rectangle subpath.
func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// IsEmpty reports whether the path contains no commands.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.Cmds) == 0
}

// Clone returns a deep copy of the path.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}
	q := &Path{
		Cmds:   make([]path.Command, len(p.Cmds)),
		Coords: make([]vec.Vec2, len(p.Coords)),
	}
	copy(q.Cmds, p.Cmds)
	copy(q.Coords, p.Coords)
	return q
}

// Transform returns a copy of the path with all control points
// transformed by m.
func (p *Path) Transform(m matrix.Matrix) *Path {
	q := p.Clone()
	for i, c := range q.Coords {
		x, y := apply(m, c.X, c.Y)
		q.Coords[i] = vec.Vec2{X: x, Y: y}
	}
	return q
}

// PixelBounds returns the pixel bounding box of the control polygon
// of the path.  The box covers every pixel the path can touch.
func (p *Path) PixelBounds() image.Rectangle {
	if p.IsEmpty() || len(p.Coords) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(+1), math.Inf(+1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range p.Coords {
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Floor(maxX))+1, int(math.Floor(maxY))+1)
}
