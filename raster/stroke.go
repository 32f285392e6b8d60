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

package raster

import (
	"math"

	"seehuhn.de/go/geom/path"

	"seehuhn.de/go/pdfrender"
)

// curveSteps is the number of line segments used per Bezier segment
// when flattening a path for stroking.
const curveSteps = 16

// strokeOutline converts a path into the outline of its stroke, as
// a fillable path.  Each flattened line segment contributes one
// quadrilateral of the stroke width; joins are covered by small
// discs at the segment ends.
func strokeOutline(p *pdfrender.Path, style *pdfrender.StrokeStyle) *pdfrender.Path {
	out := &pdfrender.Path{}
	w := style.LineWidth / 2

	for _, poly := range flatten(p) {
		for _, seg := range applyDash(poly, style.DashPattern, style.DashPhase) {
			strokePolyline(out, seg, w)
		}
	}
	return out
}

type point struct {
	x, y float64
}

// flatten converts the path into polylines, one per subpath, with
// Bezier segments subdivided into line segments.
func flatten(p *pdfrender.Path) [][]point {
	var polys [][]point
	var cur []point
	var start point
	k := 0

	last := func() point {
		if len(cur) == 0 {
			return start
		}
		return cur[len(cur)-1]
	}
	flush := func() {
		if len(cur) > 1 {
			polys = append(polys, cur)
		}
		cur = nil
	}

	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			flush()
			start = point{p.Coords[k].X, p.Coords[k].Y}
			cur = []point{start}
			k++
		case path.CmdLineTo:
			cur = append(cur, point{p.Coords[k].X, p.Coords[k].Y})
			k++
		case path.CmdQuadTo:
			p0 := last()
			p1 := point{p.Coords[k].X, p.Coords[k].Y}
			p2 := point{p.Coords[k+1].X, p.Coords[k+1].Y}
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				u := 1 - t
				cur = append(cur, point{
					u*u*p0.x + 2*u*t*p1.x + t*t*p2.x,
					u*u*p0.y + 2*u*t*p1.y + t*t*p2.y,
				})
			}
			k += 2
		case path.CmdCubeTo:
			p0 := last()
			p1 := point{p.Coords[k].X, p.Coords[k].Y}
			p2 := point{p.Coords[k+1].X, p.Coords[k+1].Y}
			p3 := point{p.Coords[k+2].X, p.Coords[k+2].Y}
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				u := 1 - t
				cur = append(cur, point{
					u*u*u*p0.x + 3*u*u*t*p1.x + 3*u*t*t*p2.x + t*t*t*p3.x,
					u*u*u*p0.y + 3*u*u*t*p1.y + 3*u*t*t*p2.y + t*t*t*p3.y,
				})
			}
			k += 3
		case path.CmdClose:
			if len(cur) > 0 {
				cur = append(cur, start)
			}
		}
	}
	flush()
	return polys
}

// applyDash splits a polyline into the "on" runs of the dash
// pattern.  An empty pattern leaves the polyline unchanged.
func applyDash(poly []point, pattern []float64, phase float64) [][]point {
	if len(pattern) == 0 {
		return [][]point{poly}
	}
	total := 0.0
	for _, d := range pattern {
		total += d
	}
	if total <= 0 {
		return [][]point{poly}
	}

	// position within the repeating pattern
	idx := 0
	rem := pattern[0]
	on := true
	for phase > 0 {
		if phase < rem {
			rem -= phase
			break
		}
		phase -= rem
		idx = (idx + 1) % len(pattern)
		rem = pattern[idx]
		on = !on
	}

	var runs [][]point
	var cur []point
	for i := 0; i+1 < len(poly); i++ {
		a, b := poly[i], poly[i+1]
		segLen := math.Hypot(b.x-a.x, b.y-a.y)
		pos := 0.0
		for segLen-pos > 1e-9 {
			step := math.Min(rem, segLen-pos)
			t0 := pos / segLen
			t1 := (pos + step) / segLen
			if on {
				q0 := point{a.x + t0*(b.x-a.x), a.y + t0*(b.y-a.y)}
				q1 := point{a.x + t1*(b.x-a.x), a.y + t1*(b.y-a.y)}
				if len(cur) == 0 {
					cur = append(cur, q0)
				}
				cur = append(cur, q1)
			}
			pos += step
			rem -= step
			if rem <= 1e-9 {
				if on && len(cur) > 1 {
					runs = append(runs, cur)
				}
				if on {
					cur = nil
				}
				idx = (idx + 1) % len(pattern)
				rem = pattern[idx]
				on = !on
			}
		}
	}
	if len(cur) > 1 {
		runs = append(runs, cur)
	}
	return runs
}

// strokePolyline appends the stroke outline of one polyline: a
// quadrilateral per segment, with discs covering the joins.
func strokePolyline(out *pdfrender.Path, poly []point, w float64) {
	for i := 0; i+1 < len(poly); i++ {
		a, b := poly[i], poly[i+1]
		vx, vy := b.x-a.x, b.y-a.y
		vl := math.Hypot(vx, vy)
		if vl == 0 {
			continue
		}
		nx, ny := -vy/vl*w, vx/vl*w

		out.MoveTo(a.x+nx, a.y+ny)
		out.LineTo(b.x+nx, b.y+ny)
		out.LineTo(b.x-nx, b.y-ny)
		out.LineTo(a.x-nx, a.y-ny)
		out.Close()

		if i+2 < len(poly) {
			appendDisc(out, b, w)
		}
	}
}

// appendDisc appends a circle approximated by four cubic Bezier
// segments.
func appendDisc(out *pdfrender.Path, c point, r float64) {
	const k = 0.5523 // circle approximation constant
	out.MoveTo(c.x+r, c.y)
	out.CubeTo(c.x+r, c.y+k*r, c.x+k*r, c.y+r, c.x, c.y+r)
	out.CubeTo(c.x-k*r, c.y+r, c.x-r, c.y+k*r, c.x-r, c.y)
	out.CubeTo(c.x-r, c.y-k*r, c.x-k*r, c.y-r, c.x, c.y-r)
	out.CubeTo(c.x+k*r, c.y-r, c.x+r, c.y-k*r, c.x+r, c.y)
	out.Close()
}
