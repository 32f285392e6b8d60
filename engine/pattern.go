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
	"log/slog"
	"math"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdf"
	pdfcolor "seehuhn.de/go/pdf/graphics/color"

	"seehuhn.de/go/pdfrender"
)

// maxPatternTiles bounds the number of pattern cells painted for a
// single fill, to protect against tiny step values.
const maxPatternTiles = 1 << 14

// maxPatternDepth bounds the nesting of patterns which paint with
// other patterns.
const maxPatternDepth = 4

// setPattern handles the SCN and scn operators when the last operand
// is a pattern name.  For uncolored patterns the remaining operands
// select the color in the underlying space.
func (e *Engine) setPattern(name pdf.Name, comps []pdf.Object, stroking bool) {
	var obj pdf.Object
	if e.resources != nil && e.resources.Pattern != nil {
		obj = e.resources.Pattern[name]
	}
	if obj == nil {
		e.log.Warn("unknown pattern resource", slog.String("name", string(name)))
		return
	}

	cs := &e.gs.fillSpace
	if stroking {
		cs = &e.gs.strokeSpace
	}
	if cs.base != nil && len(comps) == cs.base.channels {
		vals := make([]float64, 0, len(comps))
		ok := true
		for _, obj := range comps {
			x, valid := toNumber(obj)
			if !valid {
				ok = false
				break
			}
			vals = append(vals, x)
		}
		if ok {
			if c, err := cs.base.color(vals); err == nil {
				if stroking {
					e.ren.State.StrokeColor = c
				} else {
					e.ren.State.FillColor = c
				}
			}
		}
	}

	if stroking {
		// pattern strokes are painted in the underlying color
		e.gs.strokePattern = obj
	} else {
		e.gs.fillPattern = obj
	}
}

// fillPath fills the current path, using the active fill pattern if
// one is set.
func (e *Engine) fillPath(rule pdfrender.WindingRule) error {
	if e.gs.fillPattern == nil {
		return e.ren.FillPath(rule)
	}
	return e.fillWithPattern(rule)
}

// fillAndStrokePath fills and strokes the current path.  With an
// active fill pattern the fill is done by clipping to the path, so
// the path is saved for the following stroke.
func (e *Engine) fillAndStrokePath(rule pdfrender.WindingRule) error {
	if e.gs.fillPattern == nil {
		return e.ren.FillAndStrokePath(rule)
	}
	shape := e.ren.CurrentPath()
	if err := e.fillWithPattern(rule); err != nil {
		return err
	}
	e.ren.SetPath(shape)
	return e.ren.StrokePath()
}

// fillWithPattern paints the active fill pattern through the current
// path, by turning the path into a clip.
func (e *Engine) fillWithPattern(rule pdfrender.WindingRule) error {
	e.ren.Save()
	defer e.ren.Restore()
	if rule == pdfrender.EvenOdd {
		e.ren.ClipEvenOdd()
	} else {
		e.ren.ClipNonZero()
	}
	e.ren.EndPath()
	return e.paintPattern(e.gs.fillPattern)
}

// paintPattern fills the current clip region with a pattern.
func (e *Engine) paintPattern(obj pdf.Object) error {
	obj, err := pdf.Resolve(e.r, obj)
	if err != nil {
		return err
	}
	var stm *pdf.Stream
	var dict pdf.Dict
	switch obj := obj.(type) {
	case *pdf.Stream:
		stm, dict = obj, obj.Dict
	case pdf.Dict:
		dict = obj
	default:
		e.log.Warn("malformed pattern object")
		return nil
	}

	patType, err := pdf.GetInteger(e.r, dict["PatternType"])
	if err != nil {
		return err
	}
	switch patType {
	case 1:
		if stm == nil {
			e.log.Warn("tiling pattern without content stream")
			return nil
		}
		return e.RenderTilingPattern(stm, e.baseCTM, nil)
	case 2:
		m := matrix.Identity
		if obj, ok := dict["Matrix"]; ok {
			if mm, err := pdf.GetMatrix(e.r, obj); err == nil {
				m = mm
			}
		}
		e.ren.Save()
		defer e.ren.Restore()
		e.ren.State.CTM = m.Mul(e.baseCTM)
		return e.ren.ShFill(dict["Shading"])
	default:
		e.log.Warn("unsupported pattern type",
			slog.Int64("type", int64(patType)))
		return nil
	}
}

// RenderTilingPattern executes the content stream of a tiling pattern
// once per cell visible through the current clipping path.  The base
// matrix maps pattern space to device pixels.  Uncolored patterns are
// painted in col if col is not nil, otherwise in the current colors.
func (e *Engine) RenderTilingPattern(pat *pdf.Stream, base matrix.Matrix, col pdfcolor.Color) error {
	if e.patternDepth >= maxPatternDepth {
		e.log.Warn("pattern nesting too deep")
		return nil
	}
	e.patternDepth++
	defer func() { e.patternDepth-- }()

	bbox, err := pdf.GetRectangle(e.r, pat.Dict["BBox"])
	if err != nil {
		return err
	}
	if bbox == nil || bbox.URx <= bbox.LLx || bbox.URy <= bbox.LLy {
		return pdf.Error("tiling pattern with invalid BBox")
	}
	bw := bbox.URx - bbox.LLx
	bh := bbox.URy - bbox.LLy

	xStep, yStep := bw, bh
	if x, err := pdf.GetNumber(e.r, pat.Dict["XStep"]); err == nil && x != 0 {
		xStep = math.Abs(float64(x))
	}
	if y, err := pdf.GetNumber(e.r, pat.Dict["YStep"]); err == nil && y != 0 {
		yStep = math.Abs(float64(y))
	}

	patM := matrix.Identity
	if obj, ok := pat.Dict["Matrix"]; ok {
		if m, err := pdf.GetMatrix(e.r, obj); err == nil {
			patM = m
		}
	}
	ctm := patM.Mul(base)
	inv, ok := invert(ctm)
	if !ok {
		e.log.Warn("skipping pattern with singular matrix")
		return nil
	}

	var res *pdf.Resources
	if obj, ok := pat.Dict["Resources"]; ok {
		d, err := pdf.GetDict(e.r, obj)
		if err != nil {
			return err
		}
		res = &pdf.Resources{}
		if err := pdf.DecodeDict(e.r, res, d); err != nil {
			return err
		}
	}

	// pattern space region covering the visible area
	area := e.ren.State.Clip.PixelBounds()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{
		{float64(area.Min.X), float64(area.Min.Y)},
		{float64(area.Max.X), float64(area.Min.Y)},
		{float64(area.Min.X), float64(area.Max.Y)},
		{float64(area.Max.X), float64(area.Max.Y)},
	} {
		x, y := apply(inv, c[0], c[1])
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}

	i0 := int(math.Ceil((minX - bbox.LLx - bw) / xStep))
	i1 := int(math.Floor((maxX - bbox.LLx) / xStep))
	j0 := int(math.Ceil((minY - bbox.LLy - bh) / yStep))
	j1 := int(math.Floor((maxY - bbox.LLy) / yStep))
	if i1 < i0 || j1 < j0 {
		return nil
	}
	if n := float64(i1-i0+1) * float64(j1-j0+1); n > maxPatternTiles {
		e.log.Warn("skipping pattern with too many tiles",
			slog.Float64("tiles", n))
		return nil
	}

	entry := e.gs.clone()
	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			e.gs = entry.clone()
			e.gs.fillPattern = nil
			e.gs.strokePattern = nil
			e.ren.Save()
			e.ren.State.CTM = ctm
			if col != nil {
				e.ren.State.FillColor = col
				e.ren.State.StrokeColor = col
			}
			e.ren.Transform(matrix.Translate(float64(i)*xStep, float64(j)*yStep))
			e.ren.Rectangle(bbox.LLx, bbox.LLy, bw, bh)
			e.ren.ClipNonZero()
			e.ren.EndPath()
			pop := e.pushResources(res)
			err := e.execStream(pat)
			pop()
			e.ren.Restore()
			if err != nil {
				e.gs = entry
				return err
			}
		}
	}
	e.gs = entry
	return nil
}

// RenderAppearance executes an annotation appearance stream, mapped
// onto the annotation rectangle.  The renderer must have been set up
// with Reset or RenderPage for the target device before.
func (e *Engine) RenderAppearance(app *pdf.Stream, rect *pdf.Rectangle) error {
	bbox, err := pdf.GetRectangle(e.r, app.Dict["BBox"])
	if err != nil {
		return err
	}
	if bbox == nil {
		return pdf.Error("appearance stream without BBox")
	}
	m := matrix.Identity
	if obj, ok := app.Dict["Matrix"]; ok {
		if mm, err := pdf.GetMatrix(e.r, obj); err == nil {
			m = mm
		}
	}

	// map the transformed bounding box onto the annotation rectangle
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{
		{bbox.LLx, bbox.LLy}, {bbox.URx, bbox.LLy},
		{bbox.LLx, bbox.URy}, {bbox.URx, bbox.URy},
	} {
		x, y := apply(m, c[0], c[1])
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	sx, sy := 1.0, 1.0
	if maxX > minX {
		sx = (rect.URx - rect.LLx) / (maxX - minX)
	}
	if maxY > minY {
		sy = (rect.URy - rect.LLy) / (maxY - minY)
	}
	a := matrix.Matrix{sx, 0, 0, sy, rect.LLx - minX*sx, rect.LLy - minY*sy}

	form, err := e.makeForm(app)
	if err != nil {
		return err
	}

	e.ren.Save()
	defer e.ren.Restore()
	e.ren.State.CTM = m.Mul(a).Mul(e.baseCTM)
	e.ren.Rectangle(bbox.LLx, bbox.LLy, bbox.URx-bbox.LLx, bbox.URy-bbox.LLy)
	e.ren.ClipNonZero()
	e.ren.EndPath()
	return form.Paint(e.ren)
}

// annotation flag bits, see section 12.5.3 of PDF 32000-1:2008
const (
	annotHidden = 1 << 1
	annotNoView = 1 << 5
)

// RenderAnnotations paints the normal appearance streams of the
// annotations of a page, on top of the page content.  The matrix
// deviceCTM must be the one used for RenderPage.
func (e *Engine) RenderAnnotations(page pdf.Object, deviceCTM matrix.Matrix) error {
	pageDict, err := pdf.GetDictTyped(e.r, page, "Page")
	if err != nil {
		return err
	}
	annots, err := pdf.GetArray(e.r, pageDict["Annots"])
	if err != nil {
		return err
	}

	for _, obj := range annots {
		d, err := pdf.GetDict(e.r, obj)
		if err != nil || d == nil {
			continue
		}
		flags, _ := pdf.GetInteger(e.r, d["F"])
		if flags&annotHidden != 0 || flags&annotNoView != 0 {
			continue
		}
		app, err := e.normalAppearance(d)
		if err != nil || app == nil {
			continue
		}
		rect, err := pdf.GetRectangle(e.r, d["Rect"])
		if err != nil || rect == nil {
			continue
		}

		err = e.begin(deviceCTM, pageDict["Resources"])
		if err != nil {
			return err
		}
		err = e.RenderAppearance(app, rect)
		if err != nil {
			e.log.Warn("cannot render annotation appearance",
				slog.Any("err", err))
		}
	}
	return nil
}

// normalAppearance returns the /N appearance stream of an annotation.
// If the appearance has sub-states, the /AS name of the annotation
// selects between them.
func (e *Engine) normalAppearance(annot pdf.Dict) (*pdf.Stream, error) {
	ap, err := pdf.GetDict(e.r, annot["AP"])
	if err != nil || ap == nil {
		return nil, err
	}
	obj, err := pdf.Resolve(e.r, ap["N"])
	if err != nil {
		return nil, err
	}
	if sub, ok := obj.(pdf.Dict); ok {
		as, _ := pdf.GetName(e.r, annot["AS"])
		switch {
		case as != "":
			obj, err = pdf.Resolve(e.r, sub[as])
		case len(sub) == 1:
			for _, v := range sub {
				obj, err = pdf.Resolve(e.r, v)
			}
		default:
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}
	stm, _ := obj.(*pdf.Stream)
	return stm, nil
}
