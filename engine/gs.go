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

	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfrender"
)

// applyExtGState handles the gs operator.
func (e *Engine) applyExtGState(name pdf.Name) error {
	if e.resources == nil || e.resources.ExtGState == nil {
		e.log.Warn("unknown graphics state resource",
			slog.String("name", string(name)))
		return nil
	}
	obj, ok := e.resources.ExtGState[name]
	if !ok {
		e.log.Warn("unknown graphics state resource",
			slog.String("name", string(name)))
		return nil
	}

	d, err := pdf.GetDictTyped(e.r, obj, "ExtGState")
	if err != nil {
		return err
	} else if d == nil {
		return nil
	}

	for key, val := range d {
		switch key {
		case "LW":
			if x, err := pdf.GetNumber(e.r, val); err == nil {
				e.ren.State.LineWidth = float64(x)
			}
		case "LC":
			if x, err := pdf.GetInteger(e.r, val); err == nil && x >= 0 && x <= 2 {
				e.ren.State.LineCap = pdfrender.LineCapStyle(x)
			}
		case "LJ":
			if x, err := pdf.GetInteger(e.r, val); err == nil && x >= 0 && x <= 2 {
				e.ren.State.LineJoin = pdfrender.LineJoinStyle(x)
			}
		case "ML":
			if x, err := pdf.GetNumber(e.r, val); err == nil {
				e.ren.State.MiterLimit = float64(x)
			}
		case "D":
			e.applyDash(val)
		case "CA":
			if x, err := pdf.GetNumber(e.r, val); err == nil {
				e.ren.State.StrokeAlpha = clamp01(float64(x))
			}
		case "ca":
			if x, err := pdf.GetNumber(e.r, val); err == nil {
				e.ren.State.FillAlpha = clamp01(float64(x))
			}
		case "BM":
			e.applyBlendMode(val)
		case "Font":
			arr, err := pdf.GetArray(e.r, val)
			if err != nil || len(arr) != 2 {
				continue
			}
			size, err := pdf.GetNumber(e.r, arr[1])
			if err != nil {
				continue
			}
			e.gs.text.font = e.loadFontObj(arr[0])
			e.gs.text.size = float64(size)
		case "SMask":
			if err := e.applySoftMask(val); err != nil {
				e.log.Warn("cannot apply soft mask", slog.Any("err", err))
			}
		}
	}
	return nil
}

// applyDash reads the dash pattern entry of an ExtGState dictionary,
// an array of the form [[d1 ... dn] phase].
func (e *Engine) applyDash(obj pdf.Object) {
	arr, err := pdf.GetArray(e.r, obj)
	if err != nil || len(arr) != 2 {
		return
	}
	pattern, err := pdf.GetArray(e.r, arr[0])
	if err != nil {
		return
	}
	phase, err := pdf.GetNumber(e.r, arr[1])
	if err != nil {
		return
	}

	dashes := make([]float64, len(pattern))
	for i, obj := range pattern {
		x, err := pdf.GetNumber(e.r, obj)
		if err != nil {
			return
		}
		dashes[i] = float64(x)
	}
	if len(dashes) == 0 {
		dashes = nil
	}
	e.ren.State.DashPattern = dashes
	e.ren.State.DashPhase = float64(phase)
}

// applyBlendMode reads the BM entry, which is either a name or an
// array of names where the first supported mode applies.
func (e *Engine) applyBlendMode(obj pdf.Object) {
	obj, err := pdf.Resolve(e.r, obj)
	if err != nil {
		return
	}
	switch obj := obj.(type) {
	case pdf.Name:
		e.ren.State.BlendMode = obj
	case pdf.Array:
		if len(obj) > 0 {
			if name, err := pdf.GetName(e.r, obj[0]); err == nil {
				e.ren.State.BlendMode = name
			}
		}
	}
}

// applySoftMask reads the SMask entry: the name /None, or a soft mask
// dictionary with a subtype and a transparency group.
func (e *Engine) applySoftMask(obj pdf.Object) error {
	obj, err := pdf.Resolve(e.r, obj)
	if err != nil {
		return err
	}

	if name, ok := obj.(pdf.Name); ok && name == "None" {
		e.ren.State.SoftMask = nil
		return nil
	}

	d, ok := obj.(pdf.Dict)
	if !ok {
		return pdf.Errorf("invalid soft mask entry %T", obj)
	}
	subtype, err := pdf.GetName(e.r, d["S"])
	if err != nil {
		return err
	}
	stm, err := pdf.GetStream(e.r, d["G"])
	if err != nil {
		return err
	} else if stm == nil {
		return pdf.Error("soft mask without group")
	}
	group, err := e.makeForm(stm)
	if err != nil {
		return err
	}

	e.ren.State.SoftMask = &pdfrender.SoftMask{
		Subtype: subtype,
		Group:   group,
	}
	return nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
