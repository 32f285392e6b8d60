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
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/color"
)

// LineCapStyle is the shape to be used at the ends of open subpaths
// when they are stroked.
type LineCapStyle uint8

// Possible values for LineCapStyle.
// See section 8.4.3.3 of PDF 32000-1:2008.
const (
	LineCapButt   LineCapStyle = 0
	LineCapRound  LineCapStyle = 1
	LineCapSquare LineCapStyle = 2
)

// LineJoinStyle is the shape to be used at the corners of stroked
// paths.
type LineJoinStyle uint8

// Possible values for LineJoinStyle.
const (
	LineJoinMiter LineJoinStyle = 0
	LineJoinRound LineJoinStyle = 1
	LineJoinBevel LineJoinStyle = 2
)

// TextRenderingMode determines whether showing text fills or strokes
// glyph outlines, and whether the outlines are added to the clipping
// path.
type TextRenderingMode uint8

// Possible values for TextRenderingMode.
// See section 9.3.6 of PDF 32000-1:2008.
const (
	TextModeFill TextRenderingMode = iota
	TextModeStroke
	TextModeFillStroke
	TextModeInvisible
	TextModeFillClip
	TextModeStrokeClip
	TextModeFillStrokeClip
	TextModeClip
)

// A SoftMask describes the soft mask of the current graphics state.
// The mask raster is built on demand, once per painting operation
// which uses it.
type SoftMask struct {
	// Subtype is "Alpha" or "Luminosity".  Any other value makes mask
	// construction fail.
	Subtype pdf.Name

	// Group is the transparency group XObject whose raster is the
	// mask source.
	Group *Form
}

// A Form is nested content rendered by re-entry: a form XObject, a
// transparency group, a soft mask group, a pattern tile or a Type3
// glyph.
type Form struct {
	// BBox is the form bounding box in form coordinates.
	BBox *pdf.Rectangle

	// Matrix maps form coordinates to the coordinate system active
	// when the form is painted.
	Matrix matrix.Matrix

	// Paint renders the form content by re-entering operator
	// execution on the given renderer.
	Paint func(r *Renderer) error
}

// Parameters collects the graphics state parameters of the renderer.
//
// See section 8.4 of PDF 32000-1:2008.
type Parameters struct {
	// CTM maps user coordinates to device pixel coordinates
	// (y growing downwards).
	CTM matrix.Matrix

	// Clip is the current clipping path, in device coordinates.
	Clip *ClipPath

	StrokeColor color.Color
	FillColor   color.Color

	LineWidth   float64
	LineCap     LineCapStyle
	LineJoin    LineJoinStyle
	MiterLimit  float64
	DashPattern []float64
	DashPhase   float64

	BlendMode   pdf.Name
	StrokeAlpha float64
	FillAlpha   float64
	SoftMask    *SoftMask

	TextRenderingMode TextRenderingMode
	TextRise          float64
}

// Clone returns a copy of the parameters which shares no mutable
// data with the original.
func (p *Parameters) Clone() *Parameters {
	q := *p
	if p.DashPattern != nil {
		q.DashPattern = make([]float64, len(p.DashPattern))
		copy(q.DashPattern, p.DashPattern)
	}
	// Clip and SoftMask are immutable and can be shared.
	return &q
}

// State is the graphics state of the renderer.
type State struct {
	*Parameters
}

// NewState returns a graphics state with the default parameter
// values.
func NewState() State {
	param := &Parameters{
		CTM:         matrix.Identity,
		StrokeColor: color.DeviceGray(0),
		FillColor:   color.DeviceGray(0),

		LineWidth:  1,
		LineCap:    LineCapButt,
		LineJoin:   LineJoinMiter,
		MiterLimit: 10,

		BlendMode:   graphics.BlendModeNormal,
		StrokeAlpha: 1,
		FillAlpha:   1,
	}
	return State{param}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{s.Parameters.Clone()}
}
