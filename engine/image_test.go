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
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfrender"
)

func newImageTestEngine(objs map[pdf.Reference]pdf.Object) *Engine {
	r := &testFile{objs: objs}
	ren := pdfrender.New(newTestCanvas(10, 10), nil)
	return New(r, ren)
}

func TestBitReader(t *testing.T) {
	b := bitReader{data: []byte{0b1010_1100, 0b0101_0011}}

	got := []uint32{
		b.read(1), b.read(1), b.read(2), b.read(4), b.read(8),
	}
	want := []uint32{1, 0, 0b10, 0b1100, 0b0101_0011}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("bit fields differ (-want +got):\n%s", d)
	}
}

func TestBitReaderPastEnd(t *testing.T) {
	b := bitReader{data: []byte{0xff}}
	b.read(8)
	if got := b.read(4); got != 0 {
		t.Errorf("read past end = %d, want 0", got)
	}
}

func TestGrayImage(t *testing.T) {
	e := newImageTestEngine(nil)

	stm := &pdf.Stream{
		Dict: pdf.Dict{
			"Width":            pdf.Integer(2),
			"Height":           pdf.Integer(2),
			"BitsPerComponent": pdf.Integer(8),
			"ColorSpace":       pdf.Name("DeviceGray"),
		},
		R: bytes.NewReader([]byte{0, 85, 170, 255}),
	}
	img, err := e.loadImage(stm)
	if err != nil {
		t.Fatal(err)
	}

	r, _, _, a := img.At(0, 0).RGBA()
	if r != 0 || a != 0xffff {
		t.Errorf("pixel (0,0) = %04x/%04x, want black", r, a)
	}
	r, _, _, _ = img.At(1, 1).RGBA()
	if r != 0xffff {
		t.Errorf("pixel (1,1) = %04x, want white", r)
	}
}

func TestSubByteSamples(t *testing.T) {
	e := newImageTestEngine(nil)

	// 4 bits per sample, each row padded to a byte boundary
	stm := &pdf.Stream{
		Dict: pdf.Dict{
			"Width":            pdf.Integer(2),
			"Height":           pdf.Integer(2),
			"BitsPerComponent": pdf.Integer(4),
			"ColorSpace":       pdf.Name("DeviceGray"),
		},
		R: bytes.NewReader([]byte{0x0f, 0xf0}),
	}
	img, err := e.loadImage(stm)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		x, y int
		want uint32
	}{
		{0, 0, 0},
		{1, 0, 0xffff},
		{0, 1, 0xffff},
		{1, 1, 0},
	}
	for _, c := range cases {
		r, _, _, _ := img.At(c.x, c.y).RGBA()
		if r != c.want {
			t.Errorf("pixel (%d,%d) = %04x, want %04x", c.x, c.y, r, c.want)
		}
	}
}

func TestDecodeInverted(t *testing.T) {
	e := newImageTestEngine(nil)

	stm := &pdf.Stream{
		Dict: pdf.Dict{
			"Width":            pdf.Integer(1),
			"Height":           pdf.Integer(1),
			"BitsPerComponent": pdf.Integer(8),
			"ColorSpace":       pdf.Name("DeviceGray"),
			"Decode":           pdf.Array{pdf.Integer(1), pdf.Integer(0)},
		},
		R: bytes.NewReader([]byte{0}),
	}
	img, err := e.loadImage(stm)
	if err != nil {
		t.Fatal(err)
	}

	r, _, _, _ := img.At(0, 0).RGBA()
	if r != 0xffff {
		t.Errorf("inverted sample = %04x, want white", r)
	}
}

func TestImageSoftMask(t *testing.T) {
	maskRef := pdf.NewReference(1, 0)
	objs := map[pdf.Reference]pdf.Object{
		maskRef: &pdf.Stream{
			Dict: pdf.Dict{
				"Width":            pdf.Integer(2),
				"Height":           pdf.Integer(1),
				"BitsPerComponent": pdf.Integer(8),
			},
			R: bytes.NewReader([]byte{0, 255}),
		},
	}
	e := newImageTestEngine(objs)

	stm := &pdf.Stream{
		Dict: pdf.Dict{
			"Width":            pdf.Integer(2),
			"Height":           pdf.Integer(1),
			"BitsPerComponent": pdf.Integer(8),
			"ColorSpace":       pdf.Name("DeviceGray"),
			"SMask":            maskRef,
		},
		R: bytes.NewReader([]byte{255, 255}),
	}
	img, err := e.loadImage(stm)
	if err != nil {
		t.Fatal(err)
	}

	_, _, _, a := img.At(0, 0).RGBA()
	if a != 0 {
		t.Errorf("masked pixel alpha = %04x, want 0", a)
	}
	_, _, _, a = img.At(1, 0).RGBA()
	if a != 0xffff {
		t.Errorf("unmasked pixel alpha = %04x, want ffff", a)
	}
}

func TestStencilMask(t *testing.T) {
	content := "1 0 0 rg BI /W 8 /H 1 /BPC 1 /IM true ID \xaa EI"
	canvas, _ := renderContent(t, content, nil, nil)

	op := canvas.lastOp(t)
	if op.kind != "image" {
		t.Fatalf("got op %q, want image", op.kind)
	}

	// the high bit of 0xaa is set, so the first pixel is unmarked
	_, _, _, a := op.paint.At(0, 0).RGBA()
	if a != 0 {
		t.Errorf("unmarked pixel alpha = %04x, want 0", a)
	}
	r, _, _, a := op.paint.At(1, 0).RGBA()
	if a == 0 || r == 0 {
		t.Errorf("marked pixel = %04x/%04x, want red", r, a)
	}
}

func TestInlineFilterAbbreviations(t *testing.T) {
	got := expandFilterNames(pdf.Array{pdf.Name("AHx"), pdf.Name("Fl")})
	want := pdf.Array{pdf.Name("ASCIIHexDecode"), pdf.Name("FlateDecode")}
	if d := cmp.Diff(want, got.(pdf.Array)); d != "" {
		t.Errorf("filter names differ (-want +got):\n%s", d)
	}
}

func TestInvalidImageSize(t *testing.T) {
	e := newImageTestEngine(nil)
	stm := &pdf.Stream{
		Dict: pdf.Dict{
			"Width":  pdf.Integer(0),
			"Height": pdf.Integer(5),
		},
		R: bytes.NewReader(nil),
	}
	if _, err := e.loadImage(stm); err == nil {
		t.Error("expected error for zero-width image")
	}
}
