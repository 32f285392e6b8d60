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

	pdfcolor "seehuhn.de/go/pdf/graphics/color"
)

// DeviceColors converts colors in the device color spaces
// (DeviceGray, DeviceRGB, DeviceCMYK and the calibrated variants)
// into Go colors.  This is the default color mapper of a renderer.
func DeviceColors(c pdfcolor.Color) (gocolor.Color, bool) {
	if c == nil {
		return gocolor.Black, false
	}

	family := c.ColorSpace().Family()
	vals, _, _ := pdfcolor.Operator(c)

	switch family {
	case pdfcolor.FamilyDeviceGray, pdfcolor.FamilyCalGray:
		return gocolor.Gray{Y: uint8(clamp(vals[0]) * 255)}, true
	case pdfcolor.FamilyDeviceRGB, pdfcolor.FamilyCalRGB:
		return gocolor.RGBA{
			R: uint8(clamp(vals[0]) * 255),
			G: uint8(clamp(vals[1]) * 255),
			B: uint8(clamp(vals[2]) * 255),
			A: 255,
		}, true
	case pdfcolor.FamilyDeviceCMYK:
		return gocolor.CMYK{
			C: uint8(clamp(vals[0]) * 255),
			M: uint8(clamp(vals[1]) * 255),
			Y: uint8(clamp(vals[2]) * 255),
			K: uint8(clamp(vals[3]) * 255),
		}, true
	}
	return gocolor.Black, false
}

func clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// maskedPaint scales the alpha of a base paint by a constant alpha
// and, optionally, by a soft mask raster.  Colors are premultiplied,
// so all four channels are scaled.
type maskedPaint struct {
	base  image.Image
	alpha float64
	mask  *image.Alpha
}

// newMaskedPaint wraps base so that its effective alpha at each
// pixel is multiplied by alpha and by the mask sample.  If no
// scaling is needed, base is returned unchanged.
func newMaskedPaint(base image.Image, alpha float64, mask *image.Alpha) image.Image {
	if alpha >= 1 && mask == nil {
		return base
	}
	return &maskedPaint{base: base, alpha: clamp(alpha), mask: mask}
}

func (p *maskedPaint) ColorModel() gocolor.Model {
	return gocolor.RGBA64Model
}

func (p *maskedPaint) Bounds() image.Rectangle {
	return p.base.Bounds()
}

func (p *maskedPaint) At(x, y int) gocolor.Color {
	r, g, b, a := p.base.At(x, y).RGBA()

	f := p.alpha
	if p.mask != nil {
		if !image.Pt(x, y).In(p.mask.Rect) {
			return gocolor.RGBA64{}
		}
		f *= float64(p.mask.AlphaAt(x, y).A) / 255
	}

	return gocolor.RGBA64{
		R: uint16(float64(r) * f),
		G: uint16(float64(g) * f),
		B: uint16(float64(b) * f),
		A: uint16(float64(a) * f),
	}
}
