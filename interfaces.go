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
	gocolor "image/color"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	pdfcolor "seehuhn.de/go/pdf/graphics/color"
	"seehuhn.de/go/sfnt"
)

// StrokeStyle collects the line style parameters of a stroke, with
// all lengths already transformed to device pixels.
type StrokeStyle struct {
	LineWidth   float64
	LineCap     LineCapStyle
	LineJoin    LineJoinStyle
	MiterLimit  float64
	DashPattern []float64
	DashPhase   float64
}

// A Canvas receives the pixels produced by a Renderer.  All
// coordinates are device pixels with y growing downwards.
//
// Implementations may cache rasterized clip masks keyed by the
// identity of the *ClipPath values they are given.
type Canvas interface {
	// Bounds returns the pixel bounds of the canvas.
	Bounds() image.Rectangle

	// Fill paints the interior of the path with the given paint,
	// restricted to the clip.  A nil clip means no clipping.
	Fill(clip *ClipPath, p *Path, rule WindingRule, paint image.Image, antialias bool)

	// Stroke paints the outline of the path.
	Stroke(clip *ClipPath, p *Path, style *StrokeStyle, paint image.Image, antialias bool)

	// DrawImage paints src so that its bounds fill the unit square
	// mapped through m to device coordinates.
	DrawImage(clip *ClipPath, src image.Image, m matrix.Matrix)

	// Composite draws a finished transparency group raster onto the
	// canvas at the position given by the bounds of src.
	Composite(clip *ClipPath, src image.Image)

	// Group allocates a fresh transparent canvas covering the given
	// pixel bounds, sharing the device coordinate system of the
	// receiver.
	Group(bounds image.Rectangle) Canvas

	// Image exposes the canvas raster.
	Image() *image.RGBA
}

// A ColorMapper converts PDF color values into Go colors.  The
// second return value is false if the color could not be converted;
// the renderer then falls back to black and emits a diagnostic.
type ColorMapper func(c pdfcolor.Color) (gocolor.Color, bool)

// A ShadingMapper converts a shading dictionary into a device-space
// paint for the sh operator and shading patterns.
type ShadingMapper func(r *Renderer, shading pdf.Object) (image.Image, error)

// A Substituter provides replacement font programs for fonts without
// usable embedded outlines.  Substitute returns nil if no replacement
// is available.
type Substituter interface {
	Substitute(postScriptName string) *sfnt.Font
}
