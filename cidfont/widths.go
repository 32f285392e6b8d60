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

package cidfont

import (
	"errors"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/postscript/cid"
)

// defaultWidth is the advance width used when the CIDFont dictionary
// has no DW entry, in PDF glyph space units.
const defaultWidth = 1000

// Widths is the sparse width table of a CID-keyed font.  Widths are
// given in PDF glyph space units (thousandths of text space).
type Widths struct {
	widths map[cid.CID]float64
	dw     float64
	avg    float64
}

// ExtractWidths reads the W and DW entries of a CIDFont dictionary.
//
// The W array is walked pairwise: an entry of the form c [w1 ... wn]
// assigns widths to n consecutive CIDs starting at c, and an entry of
// the form c0 c1 w assigns the same width to all CIDs in the range
// [c0, c1].  Later entries overwrite earlier ones.
func ExtractWidths(r pdf.Getter, cidFontDict pdf.Dict) (*Widths, error) {
	dw := float64(defaultWidth)
	if obj, ok := cidFontDict["DW"]; ok {
		if x, err := pdf.GetNumber(r, obj); err == nil {
			dw = float64(x)
		}
	}

	w, err := pdf.GetArray(r, cidFontDict["W"])
	if err != nil {
		return nil, err
	}

	res := &Widths{
		widths: make(map[cid.CID]float64),
		dw:     dw,
	}

	var sum float64
	var count int
	for len(w) > 1 {
		c0, err := pdf.GetInteger(r, w[0])
		if err != nil {
			return nil, err
		}
		obj1, err := pdf.Resolve(r, w[1])
		if err != nil {
			return nil, err
		}
		if c1, ok := obj1.(pdf.Integer); ok {
			if len(w) < 3 || c0 < 0 || c1 < c0 || c1-c0 > 65536 {
				return nil, &pdf.MalformedFileError{
					Err: errors.New("invalid W entry in CIDFont dictionary"),
				}
			}
			wi, err := pdf.GetNumber(r, w[2])
			if err != nil {
				return nil, err
			}
			for c := c0; c <= c1; c++ {
				cid := cid.CID(c)
				if pdf.Integer(cid) != c {
					return nil, &pdf.MalformedFileError{
						Err: errors.New("invalid W entry in CIDFont dictionary"),
					}
				}
				res.widths[cid] = float64(wi)
			}
			// a uniform range counts once towards the average
			sum += float64(wi)
			count++
			w = w[3:]
		} else {
			wi, err := pdf.GetArray(r, w[1])
			if err != nil {
				return nil, err
			}
			for _, wiObj := range wi {
				wi, err := pdf.GetNumber(r, wiObj)
				if err != nil {
					return nil, err
				}
				cid := cid.CID(c0)
				if pdf.Integer(cid) != c0 {
					return nil, &pdf.MalformedFileError{
						Err: errors.New("invalid W entry in CIDFont dictionary"),
					}
				}
				res.widths[cid] = float64(wi)
				sum += float64(wi)
				count++
				c0++
			}
			w = w[2:]
		}
	}
	if len(w) != 0 {
		return nil, &pdf.MalformedFileError{
			Err: errors.New("invalid W entry in CIDFont dictionary"),
		}
	}

	if count > 0 {
		res.avg = sum / float64(count)
	}

	return res, nil
}

// DefaultWidth returns the width used for CIDs without an explicit
// entry in the W array.
func (t *Widths) DefaultWidth() float64 {
	return t.dw
}

// Width returns the advance width for the given CID.
func (t *Widths) Width(c cid.CID) float64 {
	if wi, ok := t.widths[c]; ok {
		return wi
	}
	return t.dw
}

// AverageWidth returns the mean of the widths declared in the W array,
// with each uniform range counted once.  If no widths are declared, or
// if the mean is not positive, the default width is returned instead.
func (t *Widths) AverageWidth() float64 {
	if t.avg > 0 {
		return t.avg
	}
	return t.dw
}
