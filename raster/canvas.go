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

// Package raster implements a software rasterizer backend for
// [pdfrender.Canvas], built on golang.org/x/image/vector.
package raster

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"

	"seehuhn.de/go/pdfrender"
)

// Canvas rasterizes painting operations into an RGBA image.
//
// Clip masks are cached by [pdfrender.ClipPath] identity, so that
// repeated painting under the same clip rasterizes the clip only
// once.
//
// A Canvas is not safe for concurrent use.
type Canvas struct {
	img   *image.RGBA
	clips map[*pdfrender.ClipPath]*image.Alpha
}

// New creates a canvas with the given size in pixels.  The image
// starts out fully transparent.
func New(width, height int) *Canvas {
	return &Canvas{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		clips: make(map[*pdfrender.ClipPath]*image.Alpha),
	}
}

// Bounds returns the pixel bounds of the canvas.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

// Image returns the backing image of the canvas.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Group returns a new canvas for the given sub-area, in the same
// device coordinate system.
func (c *Canvas) Group(bounds image.Rectangle) pdfrender.Canvas {
	return &Canvas{
		img:   image.NewRGBA(bounds),
		clips: make(map[*pdfrender.ClipPath]*image.Alpha),
	}
}

// Fill rasterizes the path and paints the covered pixels.
func (c *Canvas) Fill(clip *pdfrender.ClipPath, p *pdfrender.Path, rule pdfrender.WindingRule, paint image.Image, antialias bool) {
	area := p.PixelBounds().Intersect(c.img.Bounds())
	if clip != nil {
		area = area.Intersect(clip.PixelBounds())
	}
	if area.Empty() {
		return
	}

	mask := c.rasterize(p, area)
	if !antialias {
		threshold(mask)
	}
	c.paintMasked(area, paint, mask, clip)
}

// Stroke rasterizes the outline of the path, stroked with the given
// style, and paints the covered pixels.
func (c *Canvas) Stroke(clip *pdfrender.ClipPath, p *pdfrender.Path, style *pdfrender.StrokeStyle, paint image.Image, antialias bool) {
	outline := strokeOutline(p, style)
	if outline.IsEmpty() {
		return
	}

	area := outline.PixelBounds().Intersect(c.img.Bounds())
	if clip != nil {
		area = area.Intersect(clip.PixelBounds())
	}
	if area.Empty() {
		return
	}

	mask := c.rasterize(outline, area)
	if !antialias {
		threshold(mask)
	}
	c.paintMasked(area, paint, mask, clip)
}

// DrawImage maps the source image onto the unit square of the given
// matrix, in device coordinates.  Image space has its origin at the
// bottom left, with the first source row at the top.
func (c *Canvas) DrawImage(clip *pdfrender.ClipPath, src image.Image, m matrix.Matrix) {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if w == 0 || h == 0 {
		return
	}

	// source pixel (sx, sy) maps to unit square coordinates
	// u = (sx-minX)/w, v = 1-(sy-minY)/h, and on to device space.
	ax := m[0] / w
	bx := -m[2] / h
	cx := m[4] + m[2] - ax*float64(b.Min.X) - bx*float64(b.Min.Y)
	ay := m[1] / w
	by := -m[3] / h
	cy := m[5] + m[3] - ay*float64(b.Min.X) - by*float64(b.Min.Y)
	aff := f64.Aff3{ax, bx, cx, ay, by, cy}

	var opts *xdraw.Options
	if mask := c.clipMask(clip); mask != nil {
		opts = &xdraw.Options{
			DstMask:  mask,
			DstMaskP: mask.Rect.Min,
		}
	}
	xdraw.BiLinear.Transform(c.img, aff, src, b, xdraw.Over, opts)
}

// Composite draws a pre-positioned image onto the canvas.
func (c *Canvas) Composite(clip *pdfrender.ClipPath, src image.Image) {
	area := src.Bounds().Intersect(c.img.Bounds())
	if clip != nil {
		area = area.Intersect(clip.PixelBounds())
	}
	if area.Empty() {
		return
	}
	if mask := c.clipMask(clip); mask != nil {
		draw.DrawMask(c.img, area, src, area.Min, mask, area.Min, draw.Over)
	} else {
		draw.Draw(c.img, area, src, area.Min, draw.Over)
	}
}

// paintMasked paints the given area using the product of the path
// mask and the clip mask.
func (c *Canvas) paintMasked(area image.Rectangle, paint image.Image, mask *image.Alpha, clip *pdfrender.ClipPath) {
	if cm := c.clipMask(clip); cm != nil {
		mulMask(mask, cm)
	}
	draw.DrawMask(c.img, area, paint, area.Min, mask, area.Min, draw.Over)
}

// rasterize computes the coverage mask of a path over the given
// pixel area.  Winding is always evaluated with the nonzero rule;
// see the package documentation for the even-odd approximation.
func (c *Canvas) rasterize(p *pdfrender.Path, area image.Rectangle) *image.Alpha {
	ras := vector.NewRasterizer(area.Dx(), area.Dy())
	ox, oy := float32(area.Min.X), float32(area.Min.Y)

	k := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			ras.MoveTo(float32(p.Coords[k].X)-ox, float32(p.Coords[k].Y)-oy)
			k++
		case path.CmdLineTo:
			ras.LineTo(float32(p.Coords[k].X)-ox, float32(p.Coords[k].Y)-oy)
			k++
		case path.CmdQuadTo:
			ras.QuadTo(
				float32(p.Coords[k].X)-ox, float32(p.Coords[k].Y)-oy,
				float32(p.Coords[k+1].X)-ox, float32(p.Coords[k+1].Y)-oy)
			k += 2
		case path.CmdCubeTo:
			ras.CubeTo(
				float32(p.Coords[k].X)-ox, float32(p.Coords[k].Y)-oy,
				float32(p.Coords[k+1].X)-ox, float32(p.Coords[k+1].Y)-oy,
				float32(p.Coords[k+2].X)-ox, float32(p.Coords[k+2].Y)-oy)
			k += 3
		case path.CmdClose:
			ras.ClosePath()
		}
	}

	mask := image.NewAlpha(area)
	ras.Draw(mask, area, image.Opaque, image.Point{})
	return mask
}

// clipMask returns the rasterized clip mask, computing and caching
// it on first use.  A nil result means the clip does not restrict
// the canvas.
func (c *Canvas) clipMask(clip *pdfrender.ClipPath) *image.Alpha {
	if clip == nil {
		return nil
	}
	if mask, ok := c.clips[clip]; ok {
		return mask
	}

	var mask *image.Alpha
	clip.Each(func(p *pdfrender.Path, rule pdfrender.WindingRule) {
		m := c.rasterize(p, c.img.Bounds())
		if mask == nil {
			mask = m
		} else {
			mulMask(mask, m)
		}
	})
	c.clips[clip] = mask
	return mask
}

// mulMask multiplies dst by src, pixel by pixel, over the area of
// dst.  Pixels outside src count as fully transparent.
func mulMask(dst, src *image.Alpha) {
	for y := dst.Rect.Min.Y; y < dst.Rect.Max.Y; y++ {
		for x := dst.Rect.Min.X; x < dst.Rect.Max.X; x++ {
			i := dst.PixOffset(x, y)
			if !(image.Pt(x, y).In(src.Rect)) {
				dst.Pix[i] = 0
				continue
			}
			a := uint32(dst.Pix[i]) * uint32(src.AlphaAt(x, y).A)
			dst.Pix[i] = uint8(a / 255)
		}
	}
}

// threshold converts an antialiased coverage mask into a hard mask.
func threshold(mask *image.Alpha) {
	for i, a := range mask.Pix {
		if a >= 128 {
			mask.Pix[i] = 255
		} else {
			mask.Pix[i] = 0
		}
	}
}
