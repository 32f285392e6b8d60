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

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfrender"
)

// drawXObject handles the Do operator.
func (e *Engine) drawXObject(name pdf.Name) error {
	if e.resources == nil || e.resources.XObject == nil {
		e.log.Warn("unknown XObject resource", slog.String("name", string(name)))
		return nil
	}
	obj, ok := e.resources.XObject[name]
	if !ok {
		e.log.Warn("unknown XObject resource", slog.String("name", string(name)))
		return nil
	}

	stm, err := pdf.GetStream(e.r, obj)
	if err != nil {
		return err
	} else if stm == nil {
		return nil
	}

	subtype, err := pdf.GetName(e.r, stm.Dict["Subtype"])
	if err != nil {
		return err
	}
	switch subtype {
	case "Image":
		return e.drawImage(stm)
	case "Form":
		return e.drawForm(stm)
	default:
		e.log.Warn("unsupported XObject subtype",
			slog.String("name", string(name)),
			slog.String("subtype", string(subtype)))
		return nil
	}
}

// drawImage paints an image XObject into the unit square of the
// current coordinate system.
func (e *Engine) drawImage(stm *pdf.Stream) error {
	img, err := e.loadImage(stm)
	if err != nil {
		e.log.Warn("cannot decode image", slog.Any("err", err))
		return nil
	}
	return e.ren.DrawImage(img)
}

// drawForm executes a form XObject.  Forms with a transparency group
// attribute are rendered through group composition; plain forms are
// executed in place, clipped to their bounding box.
func (e *Engine) drawForm(stm *pdf.Stream) error {
	form, err := e.makeForm(stm)
	if err != nil {
		return err
	}

	if isTransparencyGroup(e.r, stm) {
		group, err := e.ren.NewTransparencyGroup(form)
		if err != nil {
			return err
		}
		return e.ren.DrawGroup(group)
	}

	e.ren.Save()
	defer e.ren.Restore()
	e.ren.Transform(form.Matrix)
	if b := form.BBox; b != nil {
		e.ren.Rectangle(b.LLx, b.LLy, b.URx-b.LLx, b.URy-b.LLy)
		e.ren.ClipNonZero()
		e.ren.EndPath()
	}
	return form.Paint(e.ren)
}

// makeForm wraps a form XObject stream for re-entrant execution.
func (e *Engine) makeForm(stm *pdf.Stream) (*pdfrender.Form, error) {
	form := &pdfrender.Form{
		Matrix: matrix.Identity,
	}

	if obj, ok := stm.Dict["BBox"]; ok {
		bbox, err := pdf.GetRectangle(e.r, obj)
		if err != nil {
			return nil, err
		}
		form.BBox = bbox
	}
	if obj, ok := stm.Dict["Matrix"]; ok {
		m, err := pdf.GetMatrix(e.r, obj)
		if err == nil {
			form.Matrix = m
		}
	}

	var res *pdf.Resources
	if obj, ok := stm.Dict["Resources"]; ok {
		d, err := pdf.GetDict(e.r, obj)
		if err != nil {
			return nil, err
		}
		res = &pdf.Resources{}
		if err := pdf.DecodeDict(e.r, res, d); err != nil {
			return nil, err
		}
	}

	form.Paint = func(ren *pdfrender.Renderer) error {
		pop := e.pushResources(res)
		defer pop()
		return e.execStream(stm)
	}
	return form, nil
}

// isTransparencyGroup reports whether the form carries a transparency
// group attribute.
func isTransparencyGroup(r pdf.Getter, stm *pdf.Stream) bool {
	group, err := pdf.GetDict(r, stm.Dict["Group"])
	if err != nil || group == nil {
		return false
	}
	s, err := pdf.GetName(r, group["S"])
	return err == nil && s == "Transparency"
}
