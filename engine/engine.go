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
	"fmt"
	"io"
	"log/slog"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfrender"
)

// An Engine interprets PDF content streams and drives a renderer.
//
// An Engine can render several pages of the same file in sequence.
// Fonts are loaded once and shared between pages.  An Engine is not
// safe for concurrent use.
type Engine struct {
	r   pdf.Getter
	x   *pdf.Extractor
	ren *pdfrender.Renderer
	log *slog.Logger

	resources *pdf.Resources
	resStack  []*pdf.Resources

	fonts map[pdf.Object]*fontEntry

	// baseCTM maps default user space of the current page to device
	// pixels.  Pattern space is anchored to it.
	baseCTM matrix.Matrix

	patternDepth int

	// interpreter state saved and restored together with the
	// renderer's graphics state
	gs      gstate
	gsStack []gstate

	// text object state, reset at BT
	tm, tlm matrix.Matrix

	// current point of the path under construction, in user space
	curX, curY     float64
	startX, startY float64
	hasCur         bool
}

// gstate holds the part of the graphics state which the renderer does
// not track itself.
type gstate struct {
	strokeSpace colorSpace
	fillSpace   colorSpace

	// strokePattern and fillPattern hold the active pattern resource
	// when the corresponding color space is a Pattern space.
	strokePattern pdf.Object
	fillPattern   pdf.Object

	text textState
}

// textState holds the text state parameters.
type textState struct {
	font        *fontEntry
	size        float64
	charSpacing float64
	wordSpacing float64
	horizScale  float64
	leading     float64
}

// New creates an engine which reads from r and paints onto ren.
func New(r pdf.Getter, ren *pdfrender.Renderer) *Engine {
	return &Engine{
		r:     r,
		x:     pdf.NewExtractor(r),
		ren:   ren,
		log:   ren.Logger(),
		fonts: make(map[pdf.Object]*fontEntry),
	}
}

// RenderPage renders a page onto the engine's renderer.  The matrix
// deviceCTM maps default user space coordinates to device pixels.
func (e *Engine) RenderPage(page pdf.Object, deviceCTM matrix.Matrix) error {
	pageDict, err := pdf.GetDictTyped(e.r, page, "Page")
	if err != nil {
		return err
	}

	err = e.begin(deviceCTM, pageDict["Resources"])
	if err != nil {
		return err
	}
	return e.parseContents(pageDict["Contents"])
}

// begin resets the renderer and the interpreter state for a new
// top-level content stream.
func (e *Engine) begin(deviceCTM matrix.Matrix, resourcesObj pdf.Object) error {
	e.ren.Reset(deviceCTM)
	e.baseCTM = deviceCTM
	e.gs = gstate{
		strokeSpace: colorSpace{family: "DeviceGray", channels: 1},
		fillSpace:   colorSpace{family: "DeviceGray", channels: 1},
		text:        textState{horizScale: 1},
	}
	e.gsStack = e.gsStack[:0]
	e.resStack = e.resStack[:0]
	e.hasCur = false

	e.resources = &pdf.Resources{}
	resourcesDict, err := pdf.GetDict(e.r, resourcesObj)
	if err != nil {
		return err
	}
	return pdf.DecodeDict(e.r, e.resources, resourcesDict)
}

// parseContents renders a content stream, given either as a stream or
// as an array of streams.
func (e *Engine) parseContents(obj pdf.Object) error {
	contents, err := pdf.Resolve(e.r, obj)
	if err != nil {
		return err
	}
	switch contents := contents.(type) {
	case *pdf.Stream:
		err := e.execStream(contents)
		if err != nil {
			return pdf.Wrap(err, "content stream")
		}
	case pdf.Array:
		for _, ref := range contents {
			stm, err := pdf.GetStream(e.r, ref)
			if err != nil {
				return err
			}
			err = e.execStream(stm)
			if err != nil {
				key := "content stream"
				if ref, ok := ref.(pdf.Reference); ok {
					key = fmt.Sprintf("content stream %s", ref)
				}
				return pdf.Wrap(err, key)
			}
		}
	default:
		return &pdf.MalformedFileError{
			Err: fmt.Errorf("unexpected type %T for content stream", contents),
		}
	}
	return nil
}

func (e *Engine) execStream(stm *pdf.Stream) error {
	body, err := pdf.DecodeStream(e.r, stm, 0)
	if err != nil {
		return err
	}
	return e.Exec(body)
}

// Exec interprets the operators of a single content stream.
func (e *Engine) Exec(in io.Reader) error {
	return forEachOp(in, e.do)
}

// pushResources makes res the current resource dictionary and returns
// a function which restores the previous one.  A nil res keeps the
// resources of the surrounding content stream, for forms which rely
// on inherited resources.
func (e *Engine) pushResources(res *pdf.Resources) func() {
	e.resStack = append(e.resStack, e.resources)
	if res != nil {
		e.resources = res
	}
	return func() {
		e.resources = e.resStack[len(e.resStack)-1]
		e.resStack = e.resStack[:len(e.resStack)-1]
	}
}

// do executes a single operator.  Operators with missing or malformed
// operands are ignored.
func (e *Engine) do(op pdf.Operator, args []pdf.Object) error {
	getNum := func() (float64, bool) {
		if len(args) == 0 {
			return 0, false
		}
		x, ok := toNumber(args[0])
		args = args[1:]
		return x, ok
	}
	getInt := func() (int, bool) {
		if len(args) == 0 {
			return 0, false
		}
		x, ok := args[0].(pdf.Integer)
		args = args[1:]
		return int(x), ok
	}
	getName := func() (pdf.Name, bool) {
		if len(args) == 0 {
			return "", false
		}
		x, ok := args[0].(pdf.Name)
		args = args[1:]
		return x, ok
	}
	getString := func() (pdf.String, bool) {
		if len(args) == 0 {
			return nil, false
		}
		x, ok := args[0].(pdf.String)
		args = args[1:]
		return x, ok
	}
	getArray := func() (pdf.Array, bool) {
		if len(args) == 0 {
			return nil, false
		}
		x, ok := args[0].(pdf.Array)
		args = args[1:]
		return x, ok
	}
	getMatrix := func() (matrix.Matrix, bool) {
		var m matrix.Matrix
		for i := range 6 {
			x, ok := getNum()
			if !ok {
				return m, false
			}
			m[i] = x
		}
		return m, true
	}

	switch op {

	// == General graphics state =========================================

	case "q":
		e.ren.Save()
		e.gsStack = append(e.gsStack, e.gs.clone())

	case "Q":
		e.ren.Restore()
		if n := len(e.gsStack); n > 0 {
			e.gs = e.gsStack[n-1]
			e.gsStack = e.gsStack[:n-1]
		}

	case "cm":
		if m, ok := getMatrix(); ok {
			e.ren.Transform(m)
		}

	case "w":
		if x, ok := getNum(); ok && x >= 0 {
			e.ren.State.LineWidth = x
		}

	case "J":
		if x, ok := getInt(); ok && x >= 0 && x <= 2 {
			e.ren.State.LineCap = pdfrender.LineCapStyle(x)
		}

	case "j":
		if x, ok := getInt(); ok && x >= 0 && x <= 2 {
			e.ren.State.LineJoin = pdfrender.LineJoinStyle(x)
		}

	case "M":
		if x, ok := getNum(); ok {
			e.ren.State.MiterLimit = x
		}

	case "d":
		pat, ok := getArray()
		if !ok {
			break
		}
		phase, ok := getNum()
		if !ok {
			break
		}
		dash := make([]float64, 0, len(pat))
		for _, obj := range pat {
			x, ok := toNumber(obj)
			if !ok {
				dash = nil
				break
			}
			dash = append(dash, x)
		}
		e.ren.State.DashPattern = dash
		e.ren.State.DashPhase = phase

	case "ri", "i":
		// rendering intent and flatness have no effect here

	case "gs":
		if name, ok := getName(); ok {
			e.applyExtGState(name)
		}

	// == Path construction ==============================================

	case "m":
		x, ok1 := getNum()
		y, ok2 := getNum()
		if ok1 && ok2 {
			e.ren.MoveTo(x, y)
			e.curX, e.curY = x, y
			e.startX, e.startY = x, y
			e.hasCur = true
		}

	case "l":
		x, ok1 := getNum()
		y, ok2 := getNum()
		if ok1 && ok2 && e.hasCur {
			e.ren.LineTo(x, y)
			e.curX, e.curY = x, y
		}

	case "c":
		var v [6]float64
		ok := true
		for i := range v {
			v[i], ok = getNum()
			if !ok {
				break
			}
		}
		if ok && e.hasCur {
			e.ren.CurveTo(v[0], v[1], v[2], v[3], v[4], v[5])
			e.curX, e.curY = v[4], v[5]
		}

	case "v":
		var v [4]float64
		ok := true
		for i := range v {
			v[i], ok = getNum()
			if !ok {
				break
			}
		}
		if ok && e.hasCur {
			e.ren.CurveTo(e.curX, e.curY, v[0], v[1], v[2], v[3])
			e.curX, e.curY = v[2], v[3]
		}

	case "y":
		var v [4]float64
		ok := true
		for i := range v {
			v[i], ok = getNum()
			if !ok {
				break
			}
		}
		if ok && e.hasCur {
			e.ren.CurveTo(v[0], v[1], v[2], v[3], v[2], v[3])
			e.curX, e.curY = v[2], v[3]
		}

	case "h":
		if e.hasCur {
			e.ren.ClosePath()
			e.curX, e.curY = e.startX, e.startY
		}

	case "re":
		x, ok1 := getNum()
		y, ok2 := getNum()
		w, ok3 := getNum()
		h, ok4 := getNum()
		if ok1 && ok2 && ok3 && ok4 {
			e.ren.Rectangle(x, y, w, h)
			e.curX, e.curY = x, y
			e.startX, e.startY = x, y
			e.hasCur = true
		}

	// == Path painting ==================================================

	case "S":
		e.hasCur = false
		return e.ren.StrokePath()
	case "s":
		e.ren.ClosePath()
		e.hasCur = false
		return e.ren.StrokePath()
	case "f", "F":
		e.hasCur = false
		return e.fillPath(pdfrender.NonZero)
	case "f*":
		e.hasCur = false
		return e.fillPath(pdfrender.EvenOdd)
	case "B":
		e.hasCur = false
		return e.fillAndStrokePath(pdfrender.NonZero)
	case "B*":
		e.hasCur = false
		return e.fillAndStrokePath(pdfrender.EvenOdd)
	case "b":
		e.ren.ClosePath()
		e.hasCur = false
		return e.fillAndStrokePath(pdfrender.NonZero)
	case "b*":
		e.ren.ClosePath()
		e.hasCur = false
		return e.fillAndStrokePath(pdfrender.EvenOdd)
	case "n":
		e.hasCur = false
		e.ren.EndPath()

	// == Clipping =======================================================

	case "W":
		e.ren.ClipNonZero()
	case "W*":
		e.ren.ClipEvenOdd()

	// == Text objects and state =========================================

	case "BT":
		e.ren.BeginText()
		e.tm = matrix.Identity
		e.tlm = matrix.Identity

	case "ET":
		e.ren.EndText()

	case "Tc":
		if x, ok := getNum(); ok {
			e.gs.text.charSpacing = x
		}

	case "Tw":
		if x, ok := getNum(); ok {
			e.gs.text.wordSpacing = x
		}

	case "Tz":
		if x, ok := getNum(); ok {
			e.gs.text.horizScale = x / 100
		}

	case "TL":
		if x, ok := getNum(); ok {
			e.gs.text.leading = x
		}

	case "Tf":
		name, ok1 := getName()
		size, ok2 := getNum()
		if ok1 && ok2 {
			e.gs.text.font = e.loadFont(name)
			e.gs.text.size = size
		}

	case "Tr":
		if x, ok := getInt(); ok && x >= 0 && x <= 7 {
			e.ren.State.TextRenderingMode = pdfrender.TextRenderingMode(x)
		}

	case "Ts":
		if x, ok := getNum(); ok {
			e.ren.State.TextRise = x
		}

	// == Text positioning ===============================================

	case "Td":
		tx, ok1 := getNum()
		ty, ok2 := getNum()
		if ok1 && ok2 {
			e.textLine(tx, ty)
		}

	case "TD":
		tx, ok1 := getNum()
		ty, ok2 := getNum()
		if ok1 && ok2 {
			e.gs.text.leading = -ty
			e.textLine(tx, ty)
		}

	case "Tm":
		if m, ok := getMatrix(); ok {
			e.tlm = m
			e.tm = m
		}

	case "T*":
		e.textLine(0, -e.gs.text.leading)

	// == Text showing ===================================================

	case "Tj":
		if s, ok := getString(); ok {
			return e.showText(s)
		}

	case "'":
		if s, ok := getString(); ok {
			e.textLine(0, -e.gs.text.leading)
			return e.showText(s)
		}

	case "\"":
		aw, ok1 := getNum()
		ac, ok2 := getNum()
		s, ok3 := getString()
		if ok1 && ok2 && ok3 {
			e.gs.text.wordSpacing = aw
			e.gs.text.charSpacing = ac
			e.textLine(0, -e.gs.text.leading)
			return e.showText(s)
		}

	case "TJ":
		arr, ok := getArray()
		if !ok {
			break
		}
		for _, obj := range arr {
			switch obj := obj.(type) {
			case pdf.String:
				err := e.showText(obj)
				if err != nil {
					return err
				}
			default:
				if d, ok := toNumber(obj); ok {
					shift := -d / 1000 * e.gs.text.size * e.gs.text.horizScale
					e.tm = matrix.Translate(shift, 0).Mul(e.tm)
				}
			}
		}

	// == Type 3 glyph metrics ===========================================

	case "d0", "d1":
		// glyph metrics come from the font dictionary

	// == Color ==========================================================

	case "CS":
		if name, ok := getName(); ok {
			e.setColorSpace(name, true)
		}
	case "cs":
		if name, ok := getName(); ok {
			e.setColorSpace(name, false)
		}
	case "SC", "SCN":
		e.setColor(args, true)
	case "sc", "scn":
		e.setColor(args, false)

	case "G":
		if x, ok := getNum(); ok {
			e.setDeviceColor(true, x)
		}
	case "g":
		if x, ok := getNum(); ok {
			e.setDeviceColor(false, x)
		}
	case "RG":
		red, ok1 := getNum()
		green, ok2 := getNum()
		blue, ok3 := getNum()
		if ok1 && ok2 && ok3 {
			e.setDeviceColor(true, red, green, blue)
		}
	case "rg":
		red, ok1 := getNum()
		green, ok2 := getNum()
		blue, ok3 := getNum()
		if ok1 && ok2 && ok3 {
			e.setDeviceColor(false, red, green, blue)
		}
	case "K":
		var v [4]float64
		ok := true
		for i := range v {
			v[i], ok = getNum()
			if !ok {
				break
			}
		}
		if ok {
			e.setDeviceColor(true, v[:]...)
		}
	case "k":
		var v [4]float64
		ok := true
		for i := range v {
			v[i], ok = getNum()
			if !ok {
				break
			}
		}
		if ok {
			e.setDeviceColor(false, v[:]...)
		}

	// == XObjects, images and shadings ==================================

	case "Do":
		if name, ok := getName(); ok {
			return e.drawXObject(name)
		}

	case "BI":
		if len(args) == 2 {
			dict, ok1 := args[0].(pdf.Dict)
			data, ok2 := args[1].(pdf.String)
			if ok1 && ok2 {
				return e.drawInlineImage(dict, data)
			}
		}

	case "sh":
		if name, ok := getName(); ok {
			var obj pdf.Object
			if e.resources != nil && e.resources.Shading != nil {
				obj = e.resources.Shading[name]
			}
			if obj == nil {
				e.log.Warn("unknown shading resource",
					slog.String("name", string(name)))
				break
			}
			return e.ren.ShFill(obj)
		}

	// == Marked content and compatibility ===============================

	case "BMC", "BDC", "EMC", "MP", "DP", "BX", "EX":
		// no effect on rendering

	default:
		e.log.Debug("ignoring operator",
			slog.String("op", string(op)))
	}
	return nil
}

// textLine starts a new line of text displaced by (tx, ty) from the
// start of the current line.
func (e *Engine) textLine(tx, ty float64) {
	e.tlm = matrix.Translate(tx, ty).Mul(e.tlm)
	e.tm = e.tlm
}

func (g gstate) clone() gstate {
	// the color space internals are immutable and can be shared
	return g
}

func toNumber(obj pdf.Object) (float64, bool) {
	switch obj := obj.(type) {
	case pdf.Integer:
		return float64(obj), true
	case pdf.Real:
		return float64(obj), true
	case pdf.Number:
		return float64(obj), true
	default:
		return 0, false
	}
}
