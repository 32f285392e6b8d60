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
	"log/slog"

	"seehuhn.de/go/pdf"
	pdfcolor "seehuhn.de/go/pdf/graphics/color"
)

// minLineWidth is the smallest stroke width used, in device pixels.
// Thinner strokes would disappear at low resolutions.
const minLineWidth = 0.25

// MoveTo starts a new subpath at the given point (user coordinates).
func (r *Renderer) MoveTo(x, y float64) {
	dx, dy := apply(r.CTM, x, y)
	r.path.MoveTo(dx, dy)
}

// LineTo appends a straight line segment to the current path.
func (r *Renderer) LineTo(x, y float64) {
	dx, dy := apply(r.CTM, x, y)
	r.path.LineTo(dx, dy)
}

// CurveTo appends a cubic Bezier segment to the current path.
func (r *Renderer) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	dx1, dy1 := apply(r.CTM, x1, y1)
	dx2, dy2 := apply(r.CTM, x2, y2)
	dx3, dy3 := apply(r.CTM, x3, y3)
	r.path.CubeTo(dx1, dy1, dx2, dy2, dx3, dy3)
}

// ClosePath closes the current subpath.
func (r *Renderer) ClosePath() {
	r.path.Close()
}

// Rectangle appends a rectangle to the current path.  Under a
// rotating or shearing matrix the result is a parallelogram, so all
// four corners are transformed individually.
func (r *Renderer) Rectangle(x, y, w, h float64) {
	x0, y0 := apply(r.CTM, x, y)
	x1, y1 := apply(r.CTM, x+w, y)
	x2, y2 := apply(r.CTM, x+w, y+h)
	x3, y3 := apply(r.CTM, x, y+h)
	r.path.MoveTo(x0, y0)
	r.path.LineTo(x1, y1)
	r.path.LineTo(x2, y2)
	r.path.LineTo(x3, y3)
	r.path.Close()
}

// ClipNonZero marks the current path as a pending clip using the
// nonzero winding rule.  The clip takes effect after the next
// painting operator, when the path is consumed.
func (r *Renderer) ClipNonZero() {
	r.pendingClip = true
	r.clipRule = NonZero
}

// ClipEvenOdd marks the current path as a pending clip using the
// even-odd rule.
func (r *Renderer) ClipEvenOdd() {
	r.pendingClip = true
	r.clipRule = EvenOdd
}

// EndPath discards the current path.  A pending clip is still
// applied, using the path as it stands.
func (r *Renderer) EndPath() {
	if r.pendingClip {
		r.State.Clip = r.State.Clip.Intersect(r.path, r.clipRule)
		r.pendingClip = false
	}
	r.path = &Path{}
}

// CurrentPath returns a copy of the path under construction, in
// device coordinates.
func (r *Renderer) CurrentPath() *Path {
	return r.path.Clone()
}

// SetPath replaces the path under construction, so that the same
// geometry can be painted more than once.
func (r *Renderer) SetPath(p *Path) {
	r.path = p
}

// FillPath fills the current path and then discards it.
func (r *Renderer) FillPath(rule WindingRule) error {
	paint, err := r.fillPaint()
	if err != nil {
		return err
	}
	r.canvas.Fill(r.State.Clip, r.path, rule, paint, false)
	r.EndPath()
	return nil
}

// StrokePath strokes the current path and then discards it.
func (r *Renderer) StrokePath() error {
	paint, err := r.strokePaint()
	if err != nil {
		return err
	}
	r.canvas.Stroke(r.State.Clip, r.path, r.strokeStyle(), paint, false)
	r.EndPath()
	return nil
}

// FillAndStrokePath fills and then strokes the current path.  The
// fill uses a copy of the path, so that both operations see the same
// geometry.
func (r *Renderer) FillAndStrokePath(rule WindingRule) error {
	fill, err := r.fillPaint()
	if err != nil {
		return err
	}
	stroke, err := r.strokePaint()
	if err != nil {
		return err
	}
	r.canvas.Fill(r.State.Clip, r.path.Clone(), rule, fill, false)
	r.canvas.Stroke(r.State.Clip, r.path, r.strokeStyle(), stroke, false)
	r.EndPath()
	return nil
}

// strokeStyle converts the stroke parameters of the graphics state
// into device units.
func (r *Renderer) strokeStyle() *StrokeStyle {
	scale := scaleOf(r.CTM)

	w := r.LineWidth * scale
	if w < minLineWidth {
		w = minLineWidth
	}

	var dash []float64
	if len(r.DashPattern) > 0 {
		dash = make([]float64, len(r.DashPattern))
		for i, d := range r.DashPattern {
			dash[i] = d * scale
		}
	}

	return &StrokeStyle{
		LineWidth:   w,
		LineCap:     r.LineCap,
		LineJoin:    r.LineJoin,
		MiterLimit:  r.MiterLimit,
		DashPattern: dash,
		DashPhase:   r.DashPhase * scale,
	}
}

// mapColor converts a PDF color to a Go color.  Unsupported color
// spaces render as black, with a diagnostic.
func (r *Renderer) mapColor(c pdfcolor.Color) image.Image {
	goc, ok := r.colors(c)
	if !ok {
		r.logger.Warn("cannot convert color, using black",
			slog.Any("color", c))
	}
	return image.NewUniform(goc)
}

// fillPaint returns the paint for non-stroking operations, with the
// fill alpha and soft mask of the current state applied.
func (r *Renderer) fillPaint() (image.Image, error) {
	mask, err := r.softMaskRaster()
	if err != nil {
		return nil, err
	}
	return newMaskedPaint(r.mapColor(r.FillColor), r.FillAlpha, mask), nil
}

// strokePaint returns the paint for stroking operations.
func (r *Renderer) strokePaint() (image.Image, error) {
	mask, err := r.softMaskRaster()
	if err != nil {
		return nil, err
	}
	return newMaskedPaint(r.mapColor(r.StrokeColor), r.StrokeAlpha, mask), nil
}

// DrawImage paints an image into the unit square of user space.
// Image space has its origin at the bottom left, with the first
// image row at the top.
func (r *Renderer) DrawImage(src image.Image) error {
	if _, ok := invert(r.CTM); !ok {
		r.logger.Warn("skipping image with singular matrix")
		return nil
	}
	mask, err := r.softMaskRaster()
	if err != nil {
		return err
	}
	paint := newMaskedPaint(src, r.FillAlpha, mask)
	r.canvas.DrawImage(r.State.Clip, paint, r.CTM)
	return nil
}

// ShFill fills the current clip region with a shading.  If no
// shading mapper is installed, or the mapper fails, the operator is
// skipped with a diagnostic.
func (r *Renderer) ShFill(shading pdf.Object) error {
	if r.shadings == nil {
		r.logger.Warn("skipping shading, no shading mapper installed")
		return nil
	}
	paint, err := r.shadings(r, shading)
	if err != nil {
		r.logger.Warn("skipping invalid shading",
			slog.Any("err", err))
		return nil
	}
	mask, err := r.softMaskRaster()
	if err != nil {
		return err
	}
	paint = newMaskedPaint(paint, r.FillAlpha, mask)

	area := r.State.Clip.PixelBounds()
	p := &Path{}
	p.Rect(float64(area.Min.X), float64(area.Min.Y),
		float64(area.Dx()), float64(area.Dy()))
	r.canvas.Fill(r.State.Clip, p, NonZero, paint, true)
	return nil
}
