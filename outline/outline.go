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

// Package outline extracts glyph outlines from embedded font programs.
//
// A [Font] describes one font instance of a PDF file together with the
// font program embedded for it.  A [Resolver] turns fonts into
// [Provider] objects which map character codes to glyph outlines.
// Results, including failed attempts, are cached for the lifetime of
// the resolver.
package outline

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/postscript/cid"
	"seehuhn.de/go/postscript/type1"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyph"
)

// Kind identifies the representation of a font program.
type Kind int

const (
	// TrueTypeSimple is a simple font with TrueType outlines,
	// addressed by character code through the font's cmap table.
	TrueTypeSimple Kind = iota + 1

	// Type1Simple is a simple font backed by a raw Type1 program.
	Type1Simple

	// CFFSimple is a simple font backed by a bare CFF program.
	CFFSimple

	// Type3 is a procedural font where glyphs are drawn by content
	// streams.  Type3 fonts have no extractable outlines.
	Type3

	// TrueTypeComposite is a CID-keyed font with a TrueType-flavoured
	// descendant, addressed by glyph index after CID-to-GID mapping.
	TrueTypeComposite

	// CFFComposite is a CID-keyed font with a CFF-flavoured
	// descendant.
	CFFComposite
)

func (k Kind) String() string {
	switch k {
	case TrueTypeSimple:
		return "TrueType"
	case Type1Simple:
		return "Type1"
	case CFFSimple:
		return "CFF"
	case Type3:
		return "Type3"
	case TrueTypeComposite:
		return "TrueType (CID-keyed)"
	case CFFComposite:
		return "CFF (CID-keyed)"
	default:
		return "unknown"
	}
}

// Font describes one font instance together with its embedded font
// program.  At most one of the program fields is set, depending on
// Kind.
type Font struct {
	Kind Kind

	// Name is the PostScript name of the font.
	Name string

	// SFNT is the font program for TrueType and OpenType flavoured
	// fonts.
	SFNT *sfnt.Font

	// CFF is the font program for fonts embedded as a bare CFF font
	// program.
	CFF *cff.Font

	// Type1 is the font program for fonts embedded as a raw Type1
	// program.
	Type1 *type1.Font

	// Encoding maps character codes to glyph names, for simple fonts
	// which use a name-based encoding.
	Encoding []string

	// CIDToGID maps CIDs to glyph indices, for composite fonts.
	// If nil, the identity mapping is used.
	CIDToGID func(cid.CID) glyph.ID

	// FontMatrix maps glyph space to text space, for Type3 fonts.
	FontMatrix matrix.Matrix
}

// IsComposite reports whether the font is CID-keyed.
func (f *Font) IsComposite() bool {
	return f.Kind == TrueTypeComposite || f.Kind == CFFComposite
}

// IsProcedural reports whether glyphs of the font are drawn by
// content streams instead of outlines.
func (f *Font) IsProcedural() bool {
	return f.Kind == Type3
}

// HasOutlines reports whether a font program with extractable
// outlines is present.
func (f *Font) HasOutlines() bool {
	switch f.Kind {
	case TrueTypeSimple, TrueTypeComposite:
		return f.SFNT != nil && f.SFNT.Outlines != nil
	case CFFSimple, CFFComposite:
		return f.CFF != nil || (f.SFNT != nil && f.SFNT.Outlines != nil)
	case Type1Simple:
		return f.Type1 != nil
	default:
		return false
	}
}

// UnitsPerEm returns the number of font design units per em.
func (f *Font) UnitsPerEm() float64 {
	if f.SFNT != nil {
		return float64(f.SFNT.UnitsPerEm)
	}
	return 1000
}

// An Outline is a glyph outline in font design units.
type Outline struct {
	Cmds   []path.Command
	Coords []vec.Vec2
}

// IsEmpty reports whether the outline contains no segments.
func (o *Outline) IsEmpty() bool {
	return o == nil || len(o.Cmds) == 0
}

func (o *Outline) moveTo(p vec.Vec2) {
	o.Cmds = append(o.Cmds, path.CmdMoveTo)
	o.Coords = append(o.Coords, p)
}

func (o *Outline) lineTo(p vec.Vec2) {
	o.Cmds = append(o.Cmds, path.CmdLineTo)
	o.Coords = append(o.Coords, p)
}

func (o *Outline) quadTo(p1, p2 vec.Vec2) {
	o.Cmds = append(o.Cmds, path.CmdQuadTo)
	o.Coords = append(o.Coords, p1, p2)
}

func (o *Outline) cubeTo(p1, p2, p3 vec.Vec2) {
	o.Cmds = append(o.Cmds, path.CmdCubeTo)
	o.Coords = append(o.Coords, p1, p2, p3)
}

func (o *Outline) close() {
	o.Cmds = append(o.Cmds, path.CmdClose)
}
