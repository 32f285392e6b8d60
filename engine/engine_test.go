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
	gocolor "image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfrender"
)

// testFile is a pdf.Getter serving objects from a map.
type testFile struct {
	objs map[pdf.Reference]pdf.Object
}

func (f *testFile) GetMeta() *pdf.MetaInfo {
	return &pdf.MetaInfo{Version: pdf.V2_0}
}

func (f *testFile) Get(ref pdf.Reference) (pdf.Object, error) {
	return f.objs[ref], nil
}

// canvasEvent records one painting call on a testCanvas.
type canvasEvent struct {
	kind  string
	clip  *pdfrender.ClipPath
	path  *pdfrender.Path
	rule  pdfrender.WindingRule
	style *pdfrender.StrokeStyle
	paint image.Image
	m     matrix.Matrix
}

// testCanvas records all painting calls.
type testCanvas struct {
	img *image.RGBA
	ops []canvasEvent
}

func newTestCanvas(w, h int) *testCanvas {
	return &testCanvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (c *testCanvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

func (c *testCanvas) Fill(clip *pdfrender.ClipPath, p *pdfrender.Path, rule pdfrender.WindingRule, paint image.Image, antialias bool) {
	c.ops = append(c.ops, canvasEvent{
		kind: "fill", clip: clip, path: p, rule: rule, paint: paint,
	})
}

func (c *testCanvas) Stroke(clip *pdfrender.ClipPath, p *pdfrender.Path, style *pdfrender.StrokeStyle, paint image.Image, antialias bool) {
	c.ops = append(c.ops, canvasEvent{
		kind: "stroke", clip: clip, path: p, style: style, paint: paint,
	})
}

func (c *testCanvas) DrawImage(clip *pdfrender.ClipPath, src image.Image, m matrix.Matrix) {
	c.ops = append(c.ops, canvasEvent{kind: "image", clip: clip, paint: src, m: m})
}

func (c *testCanvas) Composite(clip *pdfrender.ClipPath, src image.Image) {
	c.ops = append(c.ops, canvasEvent{kind: "composite", clip: clip, paint: src})
}

func (c *testCanvas) Group(bounds image.Rectangle) pdfrender.Canvas {
	return &testCanvas{img: image.NewRGBA(bounds)}
}

func (c *testCanvas) Image() *image.RGBA {
	return c.img
}

func (c *testCanvas) lastOp(t *testing.T) canvasEvent {
	t.Helper()
	if len(c.ops) == 0 {
		t.Fatal("no canvas operations recorded")
	}
	return c.ops[len(c.ops)-1]
}

// renderContent runs a content stream against a fresh engine.  The
// resources argument is the raw page resource dictionary, objs holds
// indirect objects.
func renderContent(t *testing.T, content string, resources pdf.Dict, objs map[pdf.Reference]pdf.Object) (*testCanvas, *Engine) {
	t.Helper()

	r := &testFile{objs: objs}
	canvas := newTestCanvas(100, 100)
	ren := pdfrender.New(canvas, nil)
	eng := New(r, ren)

	pageDict := pdf.Dict{
		"Type": pdf.Name("Page"),
		"Contents": &pdf.Stream{
			Dict: pdf.Dict{},
			R:    strings.NewReader(content),
		},
	}
	if resources != nil {
		pageDict["Resources"] = resources
	}

	err := eng.RenderPage(pageDict, matrix.Identity)
	if err != nil {
		t.Fatal(err)
	}
	return canvas, eng
}

func uniformColor(t *testing.T, paint image.Image) gocolor.Color {
	t.Helper()
	u, ok := paint.(*image.Uniform)
	if !ok {
		t.Fatalf("paint is %T, not a uniform color", paint)
	}
	return u.C
}

func TestFillRect(t *testing.T) {
	canvas, _ := renderContent(t, "0 0 10 10 re f", nil, nil)

	op := canvas.lastOp(t)
	if op.kind != "fill" {
		t.Fatalf("got op %q, want fill", op.kind)
	}
	if op.rule != pdfrender.NonZero {
		t.Errorf("got winding rule %v, want NonZero", op.rule)
	}
	want := image.Rect(0, 0, 10, 10)
	if got := op.path.PixelBounds(); got != want {
		t.Errorf("path bounds = %v, want %v", got, want)
	}
}

func TestEvenOddFill(t *testing.T) {
	canvas, _ := renderContent(t, "0 0 10 10 re f*", nil, nil)
	if op := canvas.lastOp(t); op.rule != pdfrender.EvenOdd {
		t.Errorf("got winding rule %v, want EvenOdd", op.rule)
	}
}

func TestStrokeStyle(t *testing.T) {
	content := "4 w 1 J 2 j 10 M [2 4] 1 d 0 0 m 50 50 l S"
	canvas, _ := renderContent(t, content, nil, nil)

	op := canvas.lastOp(t)
	if op.kind != "stroke" {
		t.Fatalf("got op %q, want stroke", op.kind)
	}
	want := &pdfrender.StrokeStyle{
		LineWidth:   4,
		LineCap:     pdfrender.LineCapRound,
		LineJoin:    pdfrender.LineJoinBevel,
		MiterLimit:  10,
		DashPattern: []float64{2, 4},
		DashPhase:   1,
	}
	if d := cmp.Diff(want, op.style); d != "" {
		t.Errorf("stroke style differs (-want +got):\n%s", d)
	}
}

func TestTransformApplies(t *testing.T) {
	canvas, _ := renderContent(t, "2 0 0 2 10 10 cm 0 0 5 5 re f", nil, nil)

	op := canvas.lastOp(t)
	want := image.Rect(10, 10, 20, 20)
	if got := op.path.PixelBounds(); got != want {
		t.Errorf("path bounds = %v, want %v", got, want)
	}
}

func TestSaveRestoreColor(t *testing.T) {
	content := "1 0 0 rg q 0 1 0 rg Q 0 0 5 5 re f"
	canvas, _ := renderContent(t, content, nil, nil)

	got := uniformColor(t, canvas.lastOp(t).paint)
	want := gocolor.RGBA{R: 255, A: 255}
	if got != gocolor.Color(want) {
		t.Errorf("fill color = %v, want %v", got, want)
	}
}

func TestDeviceColorOperators(t *testing.T) {
	cases := []struct {
		content string
		want    gocolor.Color
	}{
		{"0.5 g 0 0 5 5 re f", gocolor.Gray{Y: 127}},
		{"0 0 1 rg 0 0 5 5 re f", gocolor.RGBA{B: 255, A: 255}},
		{"0 0 0 1 k 0 0 5 5 re f", gocolor.CMYK{K: 255}},
	}
	for _, c := range cases {
		canvas, _ := renderContent(t, c.content, nil, nil)
		got := uniformColor(t, canvas.lastOp(t).paint)
		if got != c.want {
			t.Errorf("%q: fill color = %v, want %v", c.content, got, c.want)
		}
	}
}

func TestClipRestricts(t *testing.T) {
	content := "0 0 10 10 re W n 0 0 100 100 re f"
	canvas, _ := renderContent(t, content, nil, nil)

	op := canvas.lastOp(t)
	if op.clip == nil {
		t.Fatal("fill has no clip")
	}
	want := image.Rect(0, 0, 10, 10)
	if got := op.clip.PixelBounds(); got != want {
		t.Errorf("clip bounds = %v, want %v", got, want)
	}
}

func TestTextPositioning(t *testing.T) {
	_, eng := renderContent(t, "BT 5 7 Td 0 -2 Td ET", nil, nil)

	want := matrix.Translate(5, 5)
	if eng.tm != want {
		t.Errorf("text matrix = %v, want %v", eng.tm, want)
	}
}

func TestLeading(t *testing.T) {
	_, eng := renderContent(t, "BT 3 TL 10 20 Td T* ET", nil, nil)

	want := matrix.Translate(10, 17)
	if eng.tm != want {
		t.Errorf("text matrix = %v, want %v", eng.tm, want)
	}
}

func TestMissingFontIsSkipped(t *testing.T) {
	// text without a valid font must not abort the page
	canvas, _ := renderContent(t, "BT /F1 12 Tf (hi) Tj ET 0 0 5 5 re f", nil, nil)
	if op := canvas.lastOp(t); op.kind != "fill" {
		t.Errorf("rendering stopped before the final fill")
	}
}

func TestInlineImage(t *testing.T) {
	content := "q 10 0 0 10 0 0 cm BI /W 2 /H 2 /BPC 8 /CS /G ID \x00\x40\x80\xff EI Q"
	canvas, _ := renderContent(t, content, nil, nil)

	op := canvas.lastOp(t)
	if op.kind != "image" {
		t.Fatalf("got op %q, want image", op.kind)
	}
	want := matrix.Matrix{10, 0, 0, 10, 0, 0}
	if op.m != want {
		t.Errorf("image matrix = %v, want %v", op.m, want)
	}
	if got := op.paint.Bounds(); got != image.Rect(0, 0, 2, 2) {
		t.Errorf("image bounds = %v", got)
	}
	r, g, b, _ := op.paint.At(1, 1).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("pixel (1,1) = %04x %04x %04x, want white", r, g, b)
	}
}

func TestFormXObject(t *testing.T) {
	form := &pdf.Stream{
		Dict: pdf.Dict{
			"Subtype": pdf.Name("Form"),
			"BBox": pdf.Array{
				pdf.Integer(0), pdf.Integer(0),
				pdf.Integer(50), pdf.Integer(50),
			},
		},
		R: strings.NewReader("0 0 20 20 re f"),
	}
	resources := pdf.Dict{
		"XObject": pdf.Dict{"Fm1": form},
	}
	canvas, _ := renderContent(t, "/Fm1 Do", resources, nil)

	op := canvas.lastOp(t)
	if op.kind != "fill" {
		t.Fatalf("got op %q, want fill", op.kind)
	}
	if op.clip == nil {
		t.Fatal("form content not clipped to BBox")
	}
	want := image.Rect(0, 0, 20, 20)
	if got := op.path.PixelBounds(); got != want {
		t.Errorf("path bounds = %v, want %v", got, want)
	}
}

func TestFormMatrix(t *testing.T) {
	form := &pdf.Stream{
		Dict: pdf.Dict{
			"Subtype": pdf.Name("Form"),
			"Matrix": pdf.Array{
				pdf.Integer(1), pdf.Integer(0), pdf.Integer(0),
				pdf.Integer(1), pdf.Integer(30), pdf.Integer(40),
			},
		},
		R: strings.NewReader("0 0 10 10 re f"),
	}
	resources := pdf.Dict{
		"XObject": pdf.Dict{"Fm1": form},
	}
	canvas, _ := renderContent(t, "/Fm1 Do", resources, nil)

	op := canvas.lastOp(t)
	want := image.Rect(30, 40, 40, 50)
	if got := op.path.PixelBounds(); got != want {
		t.Errorf("path bounds = %v, want %v", got, want)
	}
}

func TestFormRestoresState(t *testing.T) {
	// state changes inside a form must not leak out
	form := &pdf.Stream{
		Dict: pdf.Dict{
			"Subtype": pdf.Name("Form"),
		},
		R: strings.NewReader("0 1 0 rg 2 0 0 2 0 0 cm"),
	}
	resources := pdf.Dict{
		"XObject": pdf.Dict{"Fm1": form},
	}
	canvas, _ := renderContent(t, "1 0 0 rg /Fm1 Do 0 0 5 5 re f", resources, nil)

	op := canvas.lastOp(t)
	if got := op.path.PixelBounds(); got != image.Rect(0, 0, 5, 5) {
		t.Errorf("transform leaked out of form: bounds %v", got)
	}
	got := uniformColor(t, op.paint)
	want := gocolor.RGBA{R: 255, A: 255}
	if got != gocolor.Color(want) {
		t.Errorf("fill color = %v, want %v", got, want)
	}
}

func TestTransparencyGroup(t *testing.T) {
	form := &pdf.Stream{
		Dict: pdf.Dict{
			"Subtype": pdf.Name("Form"),
			"Group": pdf.Dict{
				"S": pdf.Name("Transparency"),
			},
			"BBox": pdf.Array{
				pdf.Integer(0), pdf.Integer(0),
				pdf.Integer(20), pdf.Integer(20),
			},
		},
		R: strings.NewReader("0 0 10 10 re f"),
	}
	resources := pdf.Dict{
		"XObject": pdf.Dict{"Fm1": form},
	}
	canvas, _ := renderContent(t, "/Fm1 Do", resources, nil)

	op := canvas.lastOp(t)
	if op.kind != "composite" {
		t.Fatalf("got op %q, want composite", op.kind)
	}
}

func TestExtGStateAlpha(t *testing.T) {
	resources := pdf.Dict{
		"ExtGState": pdf.Dict{
			"GS1": pdf.Dict{
				"Type": pdf.Name("ExtGState"),
				"ca":   pdf.Real(0.5),
				"LW":   pdf.Integer(3),
			},
		},
	}
	canvas, eng := renderContent(t, "/GS1 gs 0 0 5 5 re f", resources, nil)

	if got := eng.ren.State.LineWidth; got != 3 {
		t.Errorf("line width = %g, want 3", got)
	}
	op := canvas.lastOp(t)
	_, _, _, a := op.paint.At(0, 0).RGBA()
	if a < 0x7000 || a > 0x9000 {
		t.Errorf("paint alpha = %#04x, want about 50%%", a)
	}
}

func TestMissingShadingSkipped(t *testing.T) {
	canvas, _ := renderContent(t, "/Sh9 sh 0 0 5 5 re f", nil, nil)
	if op := canvas.lastOp(t); op.kind != "fill" {
		t.Errorf("rendering stopped at missing shading")
	}
}

func TestUnknownOperatorIgnored(t *testing.T) {
	canvas, _ := renderContent(t, "42 frobnicate 0 0 5 5 re f", nil, nil)
	if op := canvas.lastOp(t); op.kind != "fill" {
		t.Errorf("rendering stopped at unknown operator")
	}
}

func TestContentsArray(t *testing.T) {
	// a page with multiple content streams
	ref1 := pdf.NewReference(1, 0)
	ref2 := pdf.NewReference(2, 0)
	objs := map[pdf.Reference]pdf.Object{
		ref1: &pdf.Stream{Dict: pdf.Dict{}, R: strings.NewReader("0 0 10 10 re f")},
		ref2: &pdf.Stream{Dict: pdf.Dict{}, R: strings.NewReader("20 20 5 5 re f")},
	}

	r := &testFile{objs: objs}
	canvas := newTestCanvas(100, 100)
	ren := pdfrender.New(canvas, nil)
	eng := New(r, ren)

	pageDict := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"Contents": pdf.Array{ref1, ref2},
	}
	err := eng.RenderPage(pageDict, matrix.Identity)
	if err != nil {
		t.Fatal(err)
	}

	var fills []image.Rectangle
	for _, op := range canvas.ops {
		if op.kind == "fill" {
			fills = append(fills, op.path.PixelBounds())
		}
	}
	want := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(20, 20, 25, 25),
	}
	if d := cmp.Diff(want, fills); d != "" {
		t.Errorf("fills differ (-want +got):\n%s", d)
	}
}
