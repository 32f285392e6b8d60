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

package outline

import (
	"errors"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/postscript/cid"
	"seehuhn.de/go/postscript/type1"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyph"
)

// ErrNoProgram indicates that no usable font program is embedded for
// a font.
var ErrNoProgram = errors.New("no usable font program embedded")

// ErrNoGlyph indicates that a glyph is missing from the font program.
var ErrNoGlyph = errors.New("glyph not found in font program")

// A Provider maps character codes to glyph outlines.
//
// For simple fonts, glyphs are selected by character code.  For
// composite fonts, the code argument is the CID.  Where known, text
// gives the Unicode text for the glyph; providers backed by a cmap
// table may use it to locate the glyph.
type Provider interface {
	Outline(code uint32, text string) (*Outline, error)
}

// sfntProvider serves outlines from a TrueType or OpenType font
// program.
type sfntProvider struct {
	font   *sfnt.Font
	lookup func(code uint32, text string) glyph.ID
}

func (p *sfntProvider) Outline(code uint32, text string) (*Outline, error) {
	gid := p.lookup(code, text)

	o := &Outline{}
	for cmd, pts := range p.font.Outlines.Path(gid) {
		switch cmd {
		case path.CmdMoveTo:
			o.moveTo(pts[0])
		case path.CmdLineTo:
			o.lineTo(pts[0])
		case path.CmdQuadTo:
			o.quadTo(pts[0], pts[1])
		case path.CmdCubeTo:
			o.cubeTo(pts[0], pts[1], pts[2])
		case path.CmdClose:
			o.close()
		}
	}
	return o, nil
}

// cmapLookup locates glyphs through the font's cmap table, falling
// back to using the character code as glyph index.
func cmapLookup(f *sfnt.Font) func(code uint32, text string) glyph.ID {
	return func(code uint32, text string) glyph.ID {
		if f.CMapTable != nil {
			subtable, err := f.CMapTable.GetBest()
			if err == nil && subtable != nil {
				for _, r := range text {
					if gid := subtable.Lookup(r); gid != 0 {
						return gid
					}
					break
				}
			}
		}
		return glyph.ID(code)
	}
}

// cidLookup maps CIDs to glyph indices for composite fonts.
func cidLookup(cidToGID func(cid.CID) glyph.ID) func(code uint32, text string) glyph.ID {
	if cidToGID == nil {
		// identity mapping
		return func(code uint32, text string) glyph.ID {
			return glyph.ID(code)
		}
	}
	return func(code uint32, text string) glyph.ID {
		return cidToGID(cid.CID(code))
	}
}

// cffProvider serves outlines from a bare CFF font program.
type cffProvider struct {
	font   *cff.Font
	lookup func(code uint32, text string) glyph.ID
}

func (p *cffProvider) Outline(code uint32, text string) (*Outline, error) {
	gid := p.lookup(code, text)
	if int(gid) >= len(p.font.Glyphs) {
		return nil, ErrNoGlyph
	}

	o := &Outline{}
	for cmd, pts := range p.font.Outlines.Path(gid) {
		switch cmd {
		case path.CmdMoveTo:
			o.moveTo(pts[0])
		case path.CmdLineTo:
			o.lineTo(pts[0])
		case path.CmdQuadTo:
			o.quadTo(pts[0], pts[1])
		case path.CmdCubeTo:
			o.cubeTo(pts[0], pts[1], pts[2])
		case path.CmdClose:
			o.close()
		}
	}
	return o, nil
}

// cffEncodingLookup selects glyphs through the builtin encoding of a
// CFF font program.
func cffEncodingLookup(f *cff.Font) func(code uint32, text string) glyph.ID {
	return func(code uint32, text string) glyph.ID {
		if int(code) < len(f.Encoding) {
			return f.Encoding[code]
		}
		return 0
	}
}

// cffNameLookup selects glyphs by name, for simple fonts with a
// name-based encoding from the font dictionary.
func cffNameLookup(f *cff.Font, encoding []string) func(code uint32, text string) glyph.ID {
	byName := make(map[string]glyph.ID, len(f.Glyphs))
	for gid, g := range f.Glyphs {
		if g != nil && g.Name != "" {
			byName[g.Name] = glyph.ID(gid)
		}
	}
	return func(code uint32, text string) glyph.ID {
		if int(code) < len(encoding) {
			if gid, ok := byName[encoding[code]]; ok {
				return gid
			}
		}
		return 0
	}
}

// type1Provider serves outlines from a raw Type1 font program.
type type1Provider struct {
	font     *type1.Font
	encoding []string
}

func (p *type1Provider) Outline(code uint32, text string) (*Outline, error) {
	var name string
	if int(code) < len(p.encoding) {
		name = p.encoding[code]
	}
	g, ok := p.font.Glyphs[name]
	if !ok || g == nil {
		return nil, ErrNoGlyph
	}
	if g.Outline == nil {
		return &Outline{}, nil
	}

	o := &Outline{}
	o.Cmds = append(o.Cmds, g.Outline.Cmds...)
	o.Coords = append(o.Coords, g.Outline.Coords...)
	return o, nil
}
