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
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdf"
	pdfcolor "seehuhn.de/go/pdf/graphics/color"
)

// canvasOp records one call to a testCanvas.
type canvasOp struct {
	kind  string
	clip  *ClipPath
	path  *Path
	rule  WindingRule
	style *StrokeStyle
	paint image.Image
	aa    bool
}

// testCanvas records all painting calls and keeps a simple raster:
// fills and composites cover the pixel bounds of their argument.
type testCanvas struct {
	img *image.RGBA
	ops []canvasOp
}

func newTestCanvas(w, h int) *testCanvas {
	return &testCanvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (c *testCanvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

func (c *testCanvas) Fill(clip *ClipPath, p *Path, rule WindingRule, paint image.Image, antialias bool) {
	c.ops = append(c.ops, canvasOp{
		kind:  "fill",
		clip:  clip,
		path:  p,
		rule:  rule,
		paint: paint,
		aa:    antialias,
	})
	area := p.PixelBounds().Intersect(c.img.Bounds())
	if clip != nil {
		area = area.Intersect(clip.PixelBounds())
	}
	draw.Draw(c.img, area, paint, area.Min, draw.Over)
}

func (c *testCanvas) Stroke(clip *ClipPath, p *Path, style *StrokeStyle, paint image.Image, antialias bool) {
	c.ops = append(c.ops, canvasOp{
		kind:  "stroke",
		clip:  clip,
		path:  p,
		style: style,
		paint: paint,
		aa:    antialias,
	})
}

func (c *testCanvas) DrawImage(clip *ClipPath, src image.Image, m matrix.Matrix) {
	c.ops = append(c.ops, canvasOp{kind: "image", clip: clip, paint: src})
}

func (c *testCanvas) Composite(clip *ClipPath, src image.Image) {
	c.ops = append(c.ops, canvasOp{kind: "composite", clip: clip, paint: src})
	area := src.Bounds().Intersect(c.img.Bounds())
	if clip != nil {
		area = area.Intersect(clip.PixelBounds())
	}
	draw.Draw(c.img, area, src, area.Min, draw.Over)
}

func (c *testCanvas) Group(bounds image.Rectangle) Canvas {
	return &testCanvas{img: image.NewRGBA(bounds)}
}

func (c *testCanvas) Image() *image.RGBA {
	return c.img
}

// lastOp returns the most recent recorded operation.
func (c *testCanvas) lastOp(t *testing.T) canvasOp {
	t.Helper()
	if len(c.ops) == 0 {
		t.Fatal("no canvas operations recorded")
	}
	return c.ops[len(c.ops)-1]
}

func TestSaveRestore(t *testing.T) {
	r := New(newTestCanvas(100, 100), nil)

	r.State.LineWidth = 3
	r.State.MiterLimit = 5
	r.Save()

	r.State.LineWidth = 7
	r.State.FillColor = pdfcolor.DeviceRGB{1, 0, 0}
	r.State.DashPattern = []float64{1, 2}
	clip := r.State.Clip
	r.Restore()

	if r.State.LineWidth != 3 {
		t.Errorf("LineWidth = %g, want 3", r.State.LineWidth)
	}
	if r.State.MiterLimit != 5 {
		t.Errorf("MiterLimit = %g, want 5", r.State.MiterLimit)
	}
	if r.State.DashPattern != nil {
		t.Errorf("DashPattern = %v, want nil", r.State.DashPattern)
	}
	if r.State.Clip != clip {
		t.Error("clip changed by Save/Restore")
	}
}

func TestRestoreEmptyStack(t *testing.T) {
	r := New(newTestCanvas(10, 10), nil)
	r.State.LineWidth = 4
	r.Restore() // must not panic
	if r.State.LineWidth != 4 {
		t.Error("state changed by Restore with empty stack")
	}
}

func TestTransform(t *testing.T) {
	canvas := newTestCanvas(100, 100)
	r := New(canvas, nil)
	r.Reset(matrix.Matrix{1, 0, 0, 1, 10, 10})
	r.Transform(matrix.Matrix{2, 0, 0, 2, 0, 0})

	r.MoveTo(1, 0)
	x, y := r.path.Coords[0].X, r.path.Coords[0].Y
	if x != 12 || y != 10 {
		t.Errorf("transformed point = (%g, %g), want (12, 10)", x, y)
	}
}

func TestStrokeStyleScaling(t *testing.T) {
	r := New(newTestCanvas(100, 100), nil)
	r.Reset(matrix.Matrix{3, 0, 0, 3, 0, 0})
	r.State.LineWidth = 2
	r.State.DashPattern = []float64{2, 2}
	r.State.DashPhase = 1

	got := r.strokeStyle()
	want := &StrokeStyle{
		LineWidth:   6,
		MiterLimit:  10,
		DashPattern: []float64{6, 6},
		DashPhase:   3,
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("stroke style mismatch (-want +got):\n%s", d)
	}
}

func TestMinimumLineWidth(t *testing.T) {
	r := New(newTestCanvas(100, 100), nil)
	r.State.LineWidth = 0.01
	if got := r.strokeStyle().LineWidth; got != minLineWidth {
		t.Errorf("LineWidth = %g, want %g", got, minLineWidth)
	}
}

func TestEmptyDashPattern(t *testing.T) {
	r := New(newTestCanvas(100, 100), nil)
	r.State.DashPattern = []float64{}
	if got := r.strokeStyle().DashPattern; got != nil {
		t.Errorf("DashPattern = %v, want nil", got)
	}
}

func TestPendingClip(t *testing.T) {
	canvas := newTestCanvas(100, 100)
	r := New(canvas, nil)
	before := r.State.Clip

	r.Rectangle(10, 10, 20, 20)
	r.ClipNonZero()
	if err := r.FillPath(NonZero); err != nil {
		t.Fatal(err)
	}

	// the fill itself still uses the old clip
	op := canvas.lastOp(t)
	if op.clip != before {
		t.Error("fill used the new clip")
	}

	// afterwards the clip is restricted to the rectangle
	want := image.Rect(10, 10, 31, 31)
	if got := r.State.Clip.PixelBounds(); got != want {
		t.Errorf("clip bounds = %v, want %v", got, want)
	}
	if !r.path.IsEmpty() {
		t.Error("path not cleared after fill")
	}

	// the pending clip was consumed
	clip := r.State.Clip
	r.Rectangle(0, 0, 5, 5)
	if err := r.FillPath(NonZero); err != nil {
		t.Fatal(err)
	}
	if r.State.Clip != clip {
		t.Error("clip changed without a clip operator")
	}
}

func TestEndPathAppliesClip(t *testing.T) {
	r := New(newTestCanvas(100, 100), nil)
	r.Rectangle(5, 5, 10, 10)
	r.ClipEvenOdd()
	r.EndPath()

	want := image.Rect(5, 5, 16, 16)
	if got := r.State.Clip.PixelBounds(); got != want {
		t.Errorf("clip bounds = %v, want %v", got, want)
	}
	if !r.path.IsEmpty() {
		t.Error("path not cleared by EndPath")
	}
}

func TestFillAndStroke(t *testing.T) {
	canvas := newTestCanvas(100, 100)
	r := New(canvas, nil)
	r.Rectangle(10, 10, 30, 20)
	if err := r.FillAndStrokePath(EvenOdd); err != nil {
		t.Fatal(err)
	}

	if len(canvas.ops) != 2 {
		t.Fatalf("got %d canvas operations, want 2", len(canvas.ops))
	}
	fill, stroke := canvas.ops[0], canvas.ops[1]
	if fill.kind != "fill" || stroke.kind != "stroke" {
		t.Fatalf("got operations %q, %q", fill.kind, stroke.kind)
	}
	if fill.rule != EvenOdd {
		t.Error("fill ignored the winding rule")
	}

	// both operations see the same geometry
	if d := cmp.Diff(fill.path.Coords, stroke.path.Coords); d != "" {
		t.Errorf("fill and stroke geometry differ (-fill +stroke):\n%s", d)
	}
	if fill.path == stroke.path {
		t.Error("fill and stroke share the same path object")
	}
}

func TestRectangleUnderRotation(t *testing.T) {
	r := New(newTestCanvas(100, 100), nil)
	// rotate user space by 90 degrees
	r.Reset(matrix.Matrix{0, 1, -1, 0, 50, 0})
	r.Rectangle(0, 0, 10, 20)

	want := []struct{ x, y float64 }{
		{50, 0}, {50, 10}, {30, 10}, {30, 0},
	}
	if len(r.path.Coords) != len(want) {
		t.Fatalf("got %d points, want %d", len(r.path.Coords), len(want))
	}
	for i, w := range want {
		p := r.path.Coords[i]
		if p.X != w.x || p.Y != w.y {
			t.Errorf("corner %d = (%g, %g), want (%g, %g)",
				i, p.X, p.Y, w.x, w.y)
		}
	}
}

func TestShFillWithoutMapper(t *testing.T) {
	canvas := newTestCanvas(100, 100)
	r := New(canvas, nil)
	if err := r.ShFill(pdf.Dict{}); err != nil {
		t.Fatal(err)
	}
	if len(canvas.ops) != 0 {
		t.Error("sh without shading mapper painted something")
	}
}

func TestShFillCoversClip(t *testing.T) {
	canvas := newTestCanvas(100, 100)
	red := image.NewUniform(color.RGBA{R: 255, A: 255})
	r := New(canvas, &Options{
		Shadings: func(r *Renderer, shading pdf.Object) (image.Image, error) {
			return red, nil
		},
	})

	r.Rectangle(20, 20, 10, 10)
	r.ClipNonZero()
	r.EndPath()
	if err := r.ShFill(pdf.Dict{}); err != nil {
		t.Fatal(err)
	}

	op := canvas.lastOp(t)
	if op.kind != "fill" || !op.aa {
		t.Errorf("got %q (antialias %t), want antialiased fill", op.kind, op.aa)
	}
	if got, want := op.path.PixelBounds(), r.State.Clip.PixelBounds(); !want.In(got) {
		t.Errorf("shading area %v does not cover clip %v", got, want)
	}
}

func TestShFillErrorSkips(t *testing.T) {
	canvas := newTestCanvas(100, 100)
	r := New(canvas, &Options{
		Shadings: func(r *Renderer, shading pdf.Object) (image.Image, error) {
			return nil, errors.New("unsupported shading type")
		},
	})
	if err := r.ShFill(pdf.Dict{}); err != nil {
		t.Fatal(err)
	}
	if len(canvas.ops) != 0 {
		t.Error("failed shading painted something")
	}
}

func TestDrawImageSingularMatrix(t *testing.T) {
	canvas := newTestCanvas(100, 100)
	r := New(canvas, nil)
	r.State.CTM = matrix.Matrix{0, 0, 0, 0, 10, 10}

	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := r.DrawImage(src); err != nil {
		t.Fatal(err)
	}
	if len(canvas.ops) != 0 {
		t.Error("image with singular matrix was painted")
	}
}

func TestFillPaintPassthrough(t *testing.T) {
	r := New(newTestCanvas(10, 10), nil)
	paint, err := r.fillPaint()
	if err != nil {
		t.Fatal(err)
	}
	// with alpha 1 and no soft mask the uniform paint is used directly
	if _, ok := paint.(*image.Uniform); !ok {
		t.Errorf("paint has type %T, want *image.Uniform", paint)
	}
}

func TestFillPaintAlpha(t *testing.T) {
	r := New(newTestCanvas(10, 10), nil)
	r.State.FillAlpha = 0.5
	paint, err := r.fillPaint()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := paint.(*maskedPaint); !ok {
		t.Errorf("paint has type %T, want *maskedPaint", paint)
	}
}

func TestUnknownColorFallsBackToBlack(t *testing.T) {
	canvas := newTestCanvas(10, 10)
	r := New(canvas, &Options{
		Colors: func(c pdfcolor.Color) (color.Color, bool) {
			return color.Black, false
		},
	})
	r.Rectangle(0, 0, 5, 5)
	if err := r.FillPath(NonZero); err != nil {
		t.Fatal(err)
	}
	op := canvas.lastOp(t)
	u, ok := op.paint.(*image.Uniform)
	if !ok {
		t.Fatalf("paint has type %T, want *image.Uniform", op.paint)
	}
	if cr, cg, cb, ca := u.C.RGBA(); cr != 0 || cg != 0 || cb != 0 || ca != 0xffff {
		t.Error("fallback paint is not opaque black")
	}
}
