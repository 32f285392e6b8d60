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
	"image"
	gocolor "image/color"
	"image/jpeg"
	"io"

	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfrender"
)

// maxImagePixels bounds the decoded size of images, to protect
// against malformed dimension entries.
const maxImagePixels = 1 << 26

// loadImage decodes an image XObject or inline image into a Go
// image.  Image masks are rendered in the current fill color, with
// unmarked areas transparent.
func (e *Engine) loadImage(stm *pdf.Stream) (image.Image, error) {
	width, err := pdf.GetInteger(e.r, stm.Dict["Width"])
	if err != nil {
		return nil, err
	}
	height, err := pdf.GetInteger(e.r, stm.Dict["Height"])
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 || width*height > maxImagePixels {
		return nil, pdf.Errorf("invalid image size %dx%d", width, height)
	}
	w, h := int(width), int(height)

	isMask, err := pdf.GetBoolean(e.r, stm.Dict["ImageMask"])
	if err != nil {
		isMask = false
	}
	if bool(isMask) {
		return e.loadStencil(stm, w, h)
	}

	if onlyDCT(e.r, stm) {
		return e.loadJPEG(stm, w, h)
	}

	bpc, err := pdf.GetInteger(e.r, stm.Dict["BitsPerComponent"])
	if err != nil {
		return nil, err
	}
	switch bpc {
	case 1, 2, 4, 8, 16:
		// pass
	default:
		return nil, pdf.Errorf("invalid bits per component %d", bpc)
	}

	cs, err := e.resolveColorSpace(stm.Dict["ColorSpace"])
	if err != nil {
		return nil, err
	}

	samples, err := readStreamBytes(e.r, stm)
	if err != nil {
		return nil, err
	}

	decode, err := e.decodeArray(stm.Dict["Decode"], cs, int(bpc))
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	maxVal := float64(uint32(1)<<bpc - 1)
	vals := make([]float64, cs.channels)
	rowBits := w * cs.channels * int(bpc)
	rowBytes := (rowBits + 7) / 8

	for y := 0; y < h; y++ {
		if (y+1)*rowBytes > len(samples) {
			break // truncated image data
		}
		bits := bitReader{data: samples[y*rowBytes : (y+1)*rowBytes]}
		for x := 0; x < w; x++ {
			for i := 0; i < cs.channels; i++ {
				raw := bits.read(int(bpc))
				dmin, dmax := decode[2*i], decode[2*i+1]
				vals[i] = dmin + float64(raw)*(dmax-dmin)/maxVal
			}
			c, err := cs.color(vals)
			if err != nil {
				return nil, err
			}
			goc, _ := pdfrender.DeviceColors(c)
			img.Set(x, y, goc)
		}
	}

	if alpha, err := e.loadAlpha(stm, w, h); err != nil {
		e.log.Warn("cannot decode soft mask image", "err", err)
	} else if alpha != nil {
		applyAlpha(img, alpha)
	}
	return img, nil
}

// loadStencil decodes a 1 bit per pixel image mask.  Marked samples
// are painted in the current fill color.
func (e *Engine) loadStencil(stm *pdf.Stream, w, h int) (image.Image, error) {
	samples, err := readStreamBytes(e.r, stm)
	if err != nil {
		return nil, err
	}

	// with the default decode array a sample of 0 marks the pixel
	markedVal := uint32(0)
	if arr, err := pdf.GetArray(e.r, stm.Dict["Decode"]); err == nil && len(arr) == 2 {
		if d0, err := pdf.GetNumber(e.r, arr[0]); err == nil && d0 == 1 {
			markedVal = 1
		}
	}

	goc, _ := pdfrender.DeviceColors(e.ren.State.FillColor)
	fill := gocolor.RGBAModel.Convert(goc).(gocolor.RGBA)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rowBytes := (w + 7) / 8
	for y := 0; y < h; y++ {
		if (y+1)*rowBytes > len(samples) {
			break
		}
		bits := bitReader{data: samples[y*rowBytes : (y+1)*rowBytes]}
		for x := 0; x < w; x++ {
			if bits.read(1) == markedVal {
				img.SetRGBA(x, y, fill)
			}
		}
	}
	return img, nil
}

// loadJPEG decodes an image whose only filter is DCTDecode.
func (e *Engine) loadJPEG(stm *pdf.Stream, w, h int) (image.Image, error) {
	src, err := jpeg.Decode(stm.R)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	b := src.Bounds()
	for y := 0; y < h && y < b.Dy(); y++ {
		for x := 0; x < w && x < b.Dx(); x++ {
			img.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}

	if alpha, err := e.loadAlpha(stm, w, h); err != nil {
		e.log.Warn("cannot decode soft mask image", "err", err)
	} else if alpha != nil {
		applyAlpha(img, alpha)
	}
	return img, nil
}

// loadAlpha reads the SMask entry of an image dictionary into an
// alpha raster of the given size, or nil if no soft mask is present.
func (e *Engine) loadAlpha(stm *pdf.Stream, w, h int) (*image.Alpha, error) {
	obj, ok := stm.Dict["SMask"]
	if !ok {
		return nil, nil
	}
	mask, err := pdf.GetStream(e.r, obj)
	if err != nil {
		return nil, err
	} else if mask == nil {
		return nil, nil
	}

	mw, err := pdf.GetInteger(e.r, mask.Dict["Width"])
	if err != nil {
		return nil, err
	}
	mh, err := pdf.GetInteger(e.r, mask.Dict["Height"])
	if err != nil {
		return nil, err
	}
	bpc, err := pdf.GetInteger(e.r, mask.Dict["BitsPerComponent"])
	if err != nil {
		return nil, err
	}
	if mw <= 0 || mh <= 0 || mw*mh > maxImagePixels {
		return nil, pdf.Errorf("invalid soft mask size %dx%d", mw, mh)
	}
	switch bpc {
	case 1, 2, 4, 8, 16:
		// pass
	default:
		return nil, pdf.Errorf("invalid bits per component %d", bpc)
	}

	samples, err := readStreamBytes(e.r, mask)
	if err != nil {
		return nil, err
	}

	maxVal := float64(uint32(1)<<bpc - 1)
	rowBytes := (int(mw)*int(bpc) + 7) / 8
	gray := image.NewAlpha(image.Rect(0, 0, int(mw), int(mh)))
	for y := 0; y < int(mh); y++ {
		if (y+1)*rowBytes > len(samples) {
			break
		}
		bits := bitReader{data: samples[y*rowBytes : (y+1)*rowBytes]}
		for x := 0; x < int(mw); x++ {
			v := float64(bits.read(int(bpc))) / maxVal
			gray.SetAlpha(x, y, gocolor.Alpha{A: uint8(v*255 + 0.5)})
		}
	}

	if int(mw) == w && int(mh) == h {
		return gray, nil
	}

	// scale to the image size
	scaled := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := y * int(mh) / h
		for x := 0; x < w; x++ {
			sx := x * int(mw) / w
			scaled.SetAlpha(x, y, gray.AlphaAt(sx, sy))
		}
	}
	return scaled, nil
}

// applyAlpha multiplies the image by the given alpha raster.
func applyAlpha(img *image.RGBA, alpha *image.Alpha) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := alpha.AlphaAt(x, y).A
			c := img.RGBAAt(x, y)
			c.R = uint8(uint32(c.R) * uint32(a) / 255)
			c.G = uint8(uint32(c.G) * uint32(a) / 255)
			c.B = uint8(uint32(c.B) * uint32(a) / 255)
			c.A = uint8(uint32(c.A) * uint32(a) / 255)
			img.SetRGBA(x, y, c)
		}
	}
}

// decodeArray reads the Decode entry of an image dictionary, or the
// default for the given color space.
func (e *Engine) decodeArray(obj pdf.Object, cs *colorSpace, bpc int) ([]float64, error) {
	decode := make([]float64, 2*cs.channels)
	if cs.family == "Indexed" {
		decode[1] = float64(uint32(1)<<bpc - 1)
	} else {
		for i := 0; i < cs.channels; i++ {
			decode[2*i+1] = 1
		}
	}

	arr, err := pdf.GetArray(e.r, obj)
	if err != nil || len(arr) != 2*cs.channels {
		return decode, nil
	}
	for i, elem := range arr {
		x, err := pdf.GetNumber(e.r, elem)
		if err != nil {
			return decode, nil
		}
		decode[i] = float64(x)
	}
	return decode, nil
}

// onlyDCT reports whether DCTDecode is the only filter of the
// stream, so that the body can be handed to the JPEG decoder
// directly.
func onlyDCT(r pdf.Getter, stm *pdf.Stream) bool {
	filter, err := pdf.Resolve(r, stm.Dict["Filter"])
	if err != nil {
		return false
	}
	switch filter := filter.(type) {
	case pdf.Name:
		return filter == "DCTDecode"
	case pdf.Array:
		if len(filter) != 1 {
			return false
		}
		name, err := pdf.GetName(r, filter[0])
		return err == nil && name == "DCTDecode"
	}
	return false
}

// readStreamBytes decodes a stream and reads the whole body.
func readStreamBytes(r pdf.Getter, stm *pdf.Stream) ([]byte, error) {
	body, err := pdf.DecodeStream(r, stm, 0)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(body)
}

// inline image dictionaries use abbreviated keys and filter names
var inlineKeys = map[pdf.Name]pdf.Name{
	"W":   "Width",
	"H":   "Height",
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"IM":  "ImageMask",
	"I":   "Interpolate",
}

var inlineFilters = map[pdf.Name]pdf.Name{
	"AHx": "ASCIIHexDecode",
	"A85": "ASCII85Decode",
	"Fl":  "FlateDecode",
	"LZW": "LZWDecode",
	"RL":  "RunLengthDecode",
	"CCF": "CCITTFaxDecode",
	"DCT": "DCTDecode",
}

// drawInlineImage handles images embedded between the BI and EI
// operators.  The abbreviated dictionary is expanded and the image
// is painted like an image XObject.
func (e *Engine) drawInlineImage(dict pdf.Dict, data pdf.String) error {
	expanded := make(pdf.Dict, len(dict))
	for key, val := range dict {
		if full, ok := inlineKeys[key]; ok {
			key = full
		}
		if key == "Filter" {
			val = expandFilterNames(val)
		}
		expanded[key] = val
	}

	stm := &pdf.Stream{
		Dict: expanded,
		R:    bytes.NewReader(data),
	}
	return e.drawImage(stm)
}

func expandFilterNames(obj pdf.Object) pdf.Object {
	switch obj := obj.(type) {
	case pdf.Name:
		if full, ok := inlineFilters[obj]; ok {
			return full
		}
	case pdf.Array:
		out := make(pdf.Array, len(obj))
		for i, elem := range obj {
			out[i] = expandFilterNames(elem)
		}
		return out
	}
	return obj
}

// bitReader reads big-endian bit fields from a sample row.
type bitReader struct {
	data []byte
	pos  int // bit position
}

func (b *bitReader) read(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		byteIdx := b.pos >> 3
		if byteIdx >= len(b.data) {
			return v << (n - i)
		}
		bit := (b.data[byteIdx] >> (7 - b.pos&7)) & 1
		v = v<<1 | uint32(bit)
		b.pos++
	}
	return v
}
