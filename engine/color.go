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
	"errors"
	"fmt"
	"io"
	"log/slog"

	"seehuhn.de/go/pdf"
	pdfcolor "seehuhn.de/go/pdf/graphics/color"
	"seehuhn.de/go/pdf/function"
)

// A colorSpace is the engine's view of a PDF color space: enough
// structure to turn component values into device colors.  Calibrated
// spaces are approximated by the corresponding device space.
type colorSpace struct {
	// family is the normalized family: "DeviceGray", "DeviceRGB",
	// "DeviceCMYK", "Indexed", "Separation" or "Pattern".
	family pdf.Name

	// channels is the number of components of a color value in this
	// space.  Indexed spaces have one component, the palette index.
	channels int

	// base is the base space of an Indexed space, or the alternate
	// space of a Separation or DeviceN space.
	base *colorSpace

	// palette holds the Indexed lookup table, base.channels bytes per
	// entry.
	palette []byte
	hival   int

	// tint maps Separation or DeviceN components to the alternate
	// space.
	tint func(...float64) []float64
}

var errUnsupportedColorSpace = errors.New("unsupported color space")

// setColorSpace handles the CS and cs operators.
func (e *Engine) setColorSpace(name pdf.Name, stroking bool) {
	cs, err := e.resolveColorSpaceName(name)
	if err != nil {
		e.log.Warn("unsupported color space",
			slog.String("name", string(name)),
			slog.Any("err", err))
		cs = &colorSpace{family: "DeviceGray", channels: 1}
	}
	if stroking {
		e.gs.strokeSpace = *cs
		e.gs.strokePattern = nil
	} else {
		e.gs.fillSpace = *cs
		e.gs.fillPattern = nil
	}

	// the initial color of the space is black in the device spaces
	c, err := cs.color(make([]float64, cs.channels))
	if err != nil {
		return
	}
	if stroking {
		e.ren.State.StrokeColor = c
	} else {
		e.ren.State.FillColor = c
	}
}

// setColor handles the SC, SCN, sc and scn operators.
func (e *Engine) setColor(args []pdf.Object, stroking bool) {
	cs := &e.gs.fillSpace
	if stroking {
		cs = &e.gs.strokeSpace
	}

	if len(args) > 0 {
		if name, isName := args[len(args)-1].(pdf.Name); isName {
			e.setPattern(name, args[:len(args)-1], stroking)
			return
		}
	}
	if stroking {
		e.gs.strokePattern = nil
	} else {
		e.gs.fillPattern = nil
	}

	vals := make([]float64, 0, len(args))
	for _, obj := range args {
		x, ok := toNumber(obj)
		if !ok {
			return
		}
		vals = append(vals, x)
	}
	if len(vals) != cs.channels {
		return
	}

	c, err := cs.color(vals)
	if err != nil {
		e.log.Warn("cannot set color", slog.Any("err", err))
		return
	}
	if stroking {
		e.ren.State.StrokeColor = c
	} else {
		e.ren.State.FillColor = c
	}
}

// setDeviceColor handles the G, g, RG, rg, K and k operators, which
// select a device color space and a color within it at the same time.
func (e *Engine) setDeviceColor(stroking bool, vals ...float64) {
	var cs colorSpace
	var c pdfcolor.Color
	switch len(vals) {
	case 1:
		cs = colorSpace{family: "DeviceGray", channels: 1}
		c = pdfcolor.DeviceGray(vals[0])
	case 3:
		cs = colorSpace{family: "DeviceRGB", channels: 3}
		c = pdfcolor.DeviceRGB{vals[0], vals[1], vals[2]}
	case 4:
		cs = colorSpace{family: "DeviceCMYK", channels: 4}
		c = pdfcolor.DeviceCMYK{vals[0], vals[1], vals[2], vals[3]}
	default:
		return
	}
	if stroking {
		e.gs.strokeSpace = cs
		e.gs.strokePattern = nil
		e.ren.State.StrokeColor = c
	} else {
		e.gs.fillSpace = cs
		e.gs.fillPattern = nil
		e.ren.State.FillColor = c
	}
}

// color converts component values into a device color.
func (cs *colorSpace) color(vals []float64) (pdfcolor.Color, error) {
	switch cs.family {
	case "DeviceGray":
		return pdfcolor.DeviceGray(vals[0]), nil
	case "DeviceRGB":
		return pdfcolor.DeviceRGB{vals[0], vals[1], vals[2]}, nil
	case "DeviceCMYK":
		return pdfcolor.DeviceCMYK{vals[0], vals[1], vals[2], vals[3]}, nil
	case "Indexed":
		idx := int(vals[0])
		if idx < 0 {
			idx = 0
		} else if idx > cs.hival {
			idx = cs.hival
		}
		n := cs.base.channels
		entry := cs.palette[idx*n : (idx+1)*n]
		baseVals := make([]float64, n)
		for i, b := range entry {
			baseVals[i] = float64(b) / 255
		}
		return cs.base.color(baseVals)
	case "Separation":
		out := cs.tint(vals...)
		if len(out) < cs.base.channels {
			return nil, errors.New("tint transform returned too few values")
		}
		return cs.base.color(out[:cs.base.channels])
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedColorSpace, cs.family)
	}
}

// resolveColorSpaceName resolves a color space operand of the CS or
// cs operator: either the name of a device space, or the name of an
// entry in the ColorSpace resource dictionary.
func (e *Engine) resolveColorSpaceName(name pdf.Name) (*colorSpace, error) {
	switch name {
	case "DeviceGray", "CalGray", "G":
		return &colorSpace{family: "DeviceGray", channels: 1}, nil
	case "DeviceRGB", "CalRGB", "RGB":
		return &colorSpace{family: "DeviceRGB", channels: 3}, nil
	case "DeviceCMYK", "CMYK":
		return &colorSpace{family: "DeviceCMYK", channels: 4}, nil
	case "Pattern":
		return &colorSpace{family: "Pattern"}, nil
	}

	if e.resources != nil && e.resources.ColorSpace != nil {
		if obj, ok := e.resources.ColorSpace[name]; ok {
			return e.resolveColorSpace(obj)
		}
	}
	return nil, fmt.Errorf("%w: %s", errUnsupportedColorSpace, name)
}

// resolveColorSpace resolves a color space description: a name, or an
// array like [/ICCBased ref] or [/Indexed base hival lookup].
func (e *Engine) resolveColorSpace(obj pdf.Object) (*colorSpace, error) {
	obj, err := pdf.Resolve(e.r, obj)
	if err != nil {
		return nil, err
	}

	switch obj := obj.(type) {
	case pdf.Name:
		return e.resolveColorSpaceName(obj)

	case pdf.Array:
		if len(obj) == 0 {
			return nil, errUnsupportedColorSpace
		}
		family, err := pdf.GetName(e.r, obj[0])
		if err != nil {
			return nil, err
		}
		switch family {
		case "ICCBased":
			return e.resolveICCBased(obj)
		case "CalGray":
			return &colorSpace{family: "DeviceGray", channels: 1}, nil
		case "CalRGB":
			return &colorSpace{family: "DeviceRGB", channels: 3}, nil
		case "Indexed", "I":
			return e.resolveIndexed(obj)
		case "Separation", "DeviceN":
			return e.resolveSeparation(obj)
		case "Pattern":
			// [/Pattern base] is the space of uncolored patterns
			cs := &colorSpace{family: "Pattern"}
			if len(obj) > 1 {
				base, err := e.resolveColorSpace(obj[1])
				if err != nil {
					return nil, err
				}
				cs.base = base
				cs.channels = base.channels
			}
			return cs, nil
		case "DeviceGray", "DeviceRGB", "DeviceCMYK":
			return e.resolveColorSpaceName(family)
		default:
			return nil, fmt.Errorf("%w: %s", errUnsupportedColorSpace, family)
		}

	default:
		return nil, errUnsupportedColorSpace
	}
}

// resolveICCBased maps an ICC-based space to the device space with
// the same number of components.
func (e *Engine) resolveICCBased(arr pdf.Array) (*colorSpace, error) {
	if len(arr) < 2 {
		return nil, errUnsupportedColorSpace
	}
	stm, err := pdf.GetStream(e.r, arr[1])
	if err != nil || stm == nil {
		return nil, errUnsupportedColorSpace
	}
	n, err := pdf.GetInteger(e.r, stm.Dict["N"])
	if err != nil {
		return nil, err
	}
	switch n {
	case 1:
		return &colorSpace{family: "DeviceGray", channels: 1}, nil
	case 3:
		return &colorSpace{family: "DeviceRGB", channels: 3}, nil
	case 4:
		return &colorSpace{family: "DeviceCMYK", channels: 4}, nil
	}
	return nil, fmt.Errorf("%w: ICCBased with N=%d", errUnsupportedColorSpace, n)
}

func (e *Engine) resolveIndexed(arr pdf.Array) (*colorSpace, error) {
	if len(arr) < 4 {
		return nil, errUnsupportedColorSpace
	}
	base, err := e.resolveColorSpace(arr[1])
	if err != nil {
		return nil, err
	}
	hival, err := pdf.GetInteger(e.r, arr[2])
	if err != nil || hival < 0 {
		return nil, errUnsupportedColorSpace
	}

	var palette []byte
	lookup, err := pdf.Resolve(e.r, arr[3])
	if err != nil {
		return nil, err
	}
	switch lookup := lookup.(type) {
	case pdf.String:
		palette = []byte(lookup)
	case *pdf.Stream:
		body, err := pdf.DecodeStream(e.r, lookup, 0)
		if err != nil {
			return nil, err
		}
		palette, err = io.ReadAll(body)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errUnsupportedColorSpace
	}

	need := (int(hival) + 1) * base.channels
	if len(palette) < need {
		padded := make([]byte, need)
		copy(padded, palette)
		palette = padded
	}

	return &colorSpace{
		family:   "Indexed",
		channels: 1,
		base:     base,
		palette:  palette,
		hival:    int(hival),
	}, nil
}

// resolveSeparation handles Separation and DeviceN spaces by mapping
// components through the tint transform into the alternate space.
func (e *Engine) resolveSeparation(arr pdf.Array) (*colorSpace, error) {
	if len(arr) < 4 {
		return nil, errUnsupportedColorSpace
	}

	channels := 1
	if names, err := pdf.GetArray(e.r, arr[1]); err == nil && names != nil {
		channels = len(names)
	}

	alt, err := e.resolveColorSpace(arr[2])
	if err != nil {
		return nil, err
	}

	fn, err := function.Read(e.r, arr[3])
	if err != nil {
		return nil, fmt.Errorf("tint transform: %w", err)
	}
	apply, ok := fn.(interface {
		Apply(...float64) []float64
	})
	if !ok {
		return nil, errors.New("tint transform cannot be evaluated")
	}

	return &colorSpace{
		family:   "Separation",
		channels: channels,
		base:     alt,
		tint:     apply.Apply,
	}, nil
}
