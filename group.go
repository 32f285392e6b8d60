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
	"errors"
	"fmt"
	"image"
	"image/color"

	"seehuhn.de/go/pdf/graphics"
)

// ErrSoftMaskSubtype indicates a soft mask dictionary with a subtype
// other than /Alpha or /Luminosity.
var ErrSoftMaskSubtype = errors.New("invalid soft mask subtype")

// A TransparencyGroup holds the result of rendering a form XObject
// into its own raster.  The raster shares the device coordinate
// system of the parent canvas, so compositing needs no further
// placement.
type TransparencyGroup struct {
	raster *image.RGBA
	bounds image.Rectangle

	// ok is false if the group matrix was singular; such groups
	// render as empty and are skipped when drawn.
	ok bool
}

// Bounds returns the device pixel area covered by the group.
func (g *TransparencyGroup) Bounds() image.Rectangle {
	return g.bounds
}

// NewTransparencyGroup renders the given form into a fresh group
// raster.  The group sees the current clip and transformation, but
// blend mode, alpha and soft mask are reset to their defaults, and
// the clip is restricted to the form's bounding box.
//
// The renderer's canvas and graphics state are restored before the
// call returns, also when the form's content fails.
func (r *Renderer) NewTransparencyGroup(form *Form) (*TransparencyGroup, error) {
	if form == nil {
		return nil, errors.New("missing transparency group form")
	}

	r.Save()
	parent := r.canvas
	defer func() {
		r.canvas = parent
		r.Restore()
	}()

	ctm := form.Matrix.Mul(r.State.CTM)
	r.State.CTM = ctm
	_, invertible := invert(ctm)

	bboxPath := &Path{}
	if form.BBox != nil {
		b := form.BBox
		x0, y0 := apply(ctm, b.LLx, b.LLy)
		x1, y1 := apply(ctm, b.URx, b.LLy)
		x2, y2 := apply(ctm, b.URx, b.URy)
		x3, y3 := apply(ctm, b.LLx, b.URy)
		bboxPath.MoveTo(x0, y0)
		bboxPath.LineTo(x1, y1)
		bboxPath.LineTo(x2, y2)
		bboxPath.LineTo(x3, y3)
		bboxPath.Close()
	} else {
		b := parent.Bounds()
		bboxPath.Rect(float64(b.Min.X), float64(b.Min.Y),
			float64(b.Dx()), float64(b.Dy()))
	}

	bounds := bboxPath.PixelBounds().Intersect(r.State.Clip.PixelBounds())
	sub := parent.Group(bounds)
	g := &TransparencyGroup{
		raster: sub.Image(),
		bounds: bounds,
		ok:     invertible,
	}

	if !invertible {
		r.logger.Warn("transparency group has singular matrix")
		return g, nil
	}
	if bounds.Empty() {
		return g, nil
	}

	r.State.BlendMode = graphics.BlendModeNormal
	r.State.StrokeAlpha = 1
	r.State.FillAlpha = 1
	r.State.SoftMask = nil
	r.State.Clip = NewClip(bboxPath, NonZero)

	r.canvas = sub
	if err := form.Paint(r); err != nil {
		return nil, err
	}
	return g, nil
}

// DrawGroup composites a rendered transparency group onto the
// current canvas, applying the fill alpha and soft mask of the
// current graphics state.
func (r *Renderer) DrawGroup(g *TransparencyGroup) error {
	if g == nil || !g.ok {
		r.logger.Warn("skipping degenerate transparency group")
		return nil
	}
	if g.bounds.Empty() {
		return nil
	}
	mask, err := r.softMaskRaster()
	if err != nil {
		return err
	}
	src := newMaskedPaint(g.raster, r.FillAlpha, mask)
	r.canvas.Composite(r.State.Clip, src)
	return nil
}

// AlphaMask extracts the alpha channel of the group raster.
func (g *TransparencyGroup) AlphaMask() *image.Alpha {
	m := image.NewAlpha(g.bounds)
	for y := g.bounds.Min.Y; y < g.bounds.Max.Y; y++ {
		for x := g.bounds.Min.X; x < g.bounds.Max.X; x++ {
			m.SetAlpha(x, y, color.Alpha{A: g.raster.RGBAAt(x, y).A})
		}
	}
	return m
}

// LuminosityMask converts the group raster into an alpha mask using
// the luminosity of each pixel.  The raster is alpha-premultiplied,
// which matches compositing the group over a black backdrop.
func (g *TransparencyGroup) LuminosityMask() *image.Alpha {
	m := image.NewAlpha(g.bounds)
	for y := g.bounds.Min.Y; y < g.bounds.Max.Y; y++ {
		for x := g.bounds.Min.X; x < g.bounds.Max.X; x++ {
			c := g.raster.RGBAAt(x, y)
			lum := 0.3*float64(c.R) + 0.59*float64(c.G) + 0.11*float64(c.B)
			m.SetAlpha(x, y, color.Alpha{A: uint8(lum + 0.5)})
		}
	}
	return m
}

// softMaskRaster renders the soft mask of the current state, if any.
// A nil result means no mask is active.
func (r *Renderer) softMaskRaster() (*image.Alpha, error) {
	sm := r.State.SoftMask
	if sm == nil {
		return nil, nil
	}
	switch sm.Subtype {
	case "Alpha", "Luminosity":
		// ok
	default:
		return nil, fmt.Errorf("%w: %q", ErrSoftMaskSubtype, sm.Subtype)
	}

	g, err := r.NewTransparencyGroup(sm.Group)
	if err != nil {
		return nil, err
	}
	if sm.Subtype == "Alpha" {
		return g.AlphaMask(), nil
	}
	return g.LuminosityMask(), nil
}
