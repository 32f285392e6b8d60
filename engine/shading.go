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

package engine

import (
	"image"
	"math"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/function"
	pdfcolor "seehuhn.de/go/pdf/graphics/color"

	"seehuhn.de/go/pdfrender"
)

// NewShadingMapper returns a shading mapper which rasterizes axial
// (type 2) and radial (type 3) shadings.  Other shading types are
// reported as unsupported.
func NewShadingMapper(r pdf.Getter) pdfrender.ShadingMapper {
	aux := &Engine{r: r}
	return func(ren *pdfrender.Renderer, obj pdf.Object) (image.Image, error) {
		return aux.rasterizeShading(ren, obj)
	}
}

// shadingDef collects the entries of a shading dictionary needed for
// rasterization.
type shadingDef struct {
	shType int
	cs     *colorSpace
	coords []float64
	domain [2]float64
	extend [2]bool
	fns    []func(...float64) []float64
}

func (e *Engine) rasterizeShading(ren *pdfrender.Renderer, obj pdf.Object) (image.Image, error) {
	obj, err := pdf.Resolve(e.r, obj)
	if err != nil {
		return nil, err
	}
	var d pdf.Dict
	switch obj := obj.(type) {
	case pdf.Dict:
		d = obj
	case *pdf.Stream:
		d = obj.Dict
	default:
		return nil, pdf.Errorf("invalid shading object %T", obj)
	}

	def, err := e.readShadingDef(d)
	if err != nil {
		return nil, err
	}

	inv, ok := invert(ren.State.CTM)
	if !ok {
		return nil, pdf.Error("shading with singular matrix")
	}

	bounds := ren.State.Clip.PixelBounds()
	img := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ux, uy := apply(inv, float64(x)+0.5, float64(y)+0.5)

			var t float64
			var inside bool
			switch def.shType {
			case 2:
				t, inside = def.axialParam(ux, uy)
			case 3:
				t, inside = def.radialParam(ux, uy)
			}
			if !inside {
				continue
			}

			c, err := def.colorAt(t)
			if err != nil {
				return nil, err
			}
			goc, _ := pdfrender.DeviceColors(c)
			img.Set(x, y, goc)
		}
	}
	return img, nil
}

func (e *Engine) readShadingDef(d pdf.Dict) (*shadingDef, error) {
	shType, err := pdf.GetInteger(e.r, d["ShadingType"])
	if err != nil {
		return nil, err
	}
	if shType != 2 && shType != 3 {
		return nil, pdf.Errorf("unsupported shading type %d", shType)
	}

	def := &shadingDef{
		shType: int(shType),
		domain: [2]float64{0, 1},
	}

	def.cs, err = e.resolveColorSpace(d["ColorSpace"])
	if err != nil {
		return nil, err
	}

	coords, err := pdf.GetArray(e.r, d["Coords"])
	if err != nil {
		return nil, err
	}
	need := 4
	if def.shType == 3 {
		need = 6
	}
	if len(coords) != need {
		return nil, pdf.Error("invalid shading coordinates")
	}
	def.coords = make([]float64, len(coords))
	for i, obj := range coords {
		x, err := pdf.GetNumber(e.r, obj)
		if err != nil {
			return nil, err
		}
		def.coords[i] = float64(x)
	}

	if arr, err := pdf.GetArray(e.r, d["Domain"]); err == nil && len(arr) == 2 {
		for i, obj := range arr {
			if x, err := pdf.GetNumber(e.r, obj); err == nil {
				def.domain[i] = float64(x)
			}
		}
	}
	if arr, err := pdf.GetArray(e.r, d["Extend"]); err == nil && len(arr) == 2 {
		for i, obj := range arr {
			if b, err := pdf.GetBoolean(e.r, obj); err == nil {
				def.extend[i] = bool(b)
			}
		}
	}

	fnObj, err := pdf.Resolve(e.r, d["Function"])
	if err != nil {
		return nil, err
	}
	var fnObjs []pdf.Object
	if arr, ok := fnObj.(pdf.Array); ok {
		fnObjs = arr
	} else if fnObj != nil {
		fnObjs = pdf.Array{fnObj}
	} else {
		return nil, pdf.Error("shading without function")
	}
	for _, obj := range fnObjs {
		fn, err := function.Read(e.r, obj)
		if err != nil {
			return nil, err
		}
		apply, ok := fn.(interface {
			Apply(...float64) []float64
		})
		if !ok {
			return nil, pdf.Error("shading function cannot be evaluated")
		}
		def.fns = append(def.fns, apply.Apply)
	}

	return def, nil
}

// axialParam computes the normalized axis parameter for a point, for
// axial shadings.
func (def *shadingDef) axialParam(x, y float64) (float64, bool) {
	x0, y0 := def.coords[0], def.coords[1]
	x1, y1 := def.coords[2], def.coords[3]
	dx, dy := x1-x0, y1-y0
	den := dx*dx + dy*dy
	if den == 0 {
		return 0, false
	}
	t := ((x-x0)*dx + (y-y0)*dy) / den
	return def.clampParam(t)
}

// radialParam computes the circle parameter for a point, for radial
// shadings.  The largest parameter whose circle contains the point
// is used.
func (def *shadingDef) radialParam(x, y float64) (float64, bool) {
	x0, y0, r0 := def.coords[0], def.coords[1], def.coords[2]
	x1, y1, r1 := def.coords[3], def.coords[4], def.coords[5]

	cdx, cdy, dr := x1-x0, y1-y0, r1-r0
	pdx, pdy := x-x0, y-y0

	a := cdx*cdx + cdy*cdy - dr*dr
	b := pdx*cdx + pdy*cdy + r0*dr
	c := pdx*pdx + pdy*pdy - r0*r0

	var t float64
	if math.Abs(a) < 1e-9 {
		if b == 0 {
			return 0, false
		}
		t = c / (2 * b)
	} else {
		disc := b*b - a*c
		if disc < 0 {
			return 0, false
		}
		root := math.Sqrt(disc)
		t = (b + root) / a
		if r0+t*dr < 0 {
			t = (b - root) / a
		}
	}
	if r0+t*dr < 0 {
		return 0, false
	}
	return def.clampParam(t)
}

// clampParam applies the Extend entries to a raw parameter in
// [0, 1].  Points beyond an unextended end are left unpainted.
func (def *shadingDef) clampParam(t float64) (float64, bool) {
	if t < 0 {
		if !def.extend[0] {
			return 0, false
		}
		t = 0
	} else if t > 1 {
		if !def.extend[1] {
			return 0, false
		}
		t = 1
	}
	return t, true
}

// colorAt evaluates the shading functions at the given normalized
// parameter.
func (def *shadingDef) colorAt(t float64) (pdfcolor.Color, error) {
	tt := def.domain[0] + t*(def.domain[1]-def.domain[0])

	var vals []float64
	if len(def.fns) == 1 {
		vals = def.fns[0](tt)
	} else {
		vals = make([]float64, 0, len(def.fns))
		for _, fn := range def.fns {
			out := fn(tt)
			if len(out) == 0 {
				return nil, pdf.Error("shading function returned no values")
			}
			vals = append(vals, out[0])
		}
	}
	if len(vals) < def.cs.channels {
		return nil, pdf.Error("shading function returned too few values")
	}
	return def.cs.color(vals[:def.cs.channels])
}

// apply transforms a point by a matrix.
func apply(m matrix.Matrix, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// invert computes the inverse of an affine matrix.  The second
// return value is false if the matrix is singular.
func invert(m matrix.Matrix) (matrix.Matrix, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return matrix.Matrix{}, false
	}
	inv := matrix.Matrix{
		m[3] / det, -m[1] / det,
		-m[2] / det, m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}
	return inv, true
}
