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
	"log/slog"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/postscript/cid"
	pstype1 "seehuhn.de/go/postscript/type1"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/font/charcode"
	"seehuhn.de/go/pdf/font/dict"
	"seehuhn.de/go/pdf/font/encoding"
	"seehuhn.de/go/pdf/font/glyphdata"
	"seehuhn.de/go/pdf/font/glyphdata/sfntglyphs"

	"seehuhn.de/go/pdfrender"
	"seehuhn.de/go/pdfrender/cidfont"
	"seehuhn.de/go/pdfrender/outline"
)

// fontEntry is the engine's view of one font resource: the font
// program description handed to the renderer, together with the
// information needed to decode strings shown in the font.
type fontEntry struct {
	font *outline.Font

	// codec splits PDF strings into character codes.
	codec *charcode.Codec

	// codes maps character codes to CID, width and text.
	codes map[charcode.Code]font.Code

	// widths gives fallback widths for composite fonts, for codes
	// not listed in codes.
	widths *cidfont.Widths

	// enc is the CMap encoding of a composite font, used to decode
	// codes the codec cannot handle.
	enc *cidfont.Encoding

	composite bool

	type3 *type3Font
}

// type3Font holds the glyph procedures of a Type 3 font.
type type3Font struct {
	procs      map[pdf.Name]pdf.Reference
	enc        encoding.Simple
	fontMatrix matrix.Matrix
	resources  *pdf.Resources
}

// loadFont loads a font from the Font resource dictionary.  Broken
// or missing fonts yield a nil entry; text shown in such a font is
// skipped with a warning.
func (e *Engine) loadFont(name pdf.Name) *fontEntry {
	if e.resources == nil || e.resources.Font == nil {
		e.log.Warn("unknown font resource", slog.String("name", string(name)))
		return nil
	}
	obj, ok := e.resources.Font[name]
	if !ok {
		e.log.Warn("unknown font resource", slog.String("name", string(name)))
		return nil
	}
	return e.loadFontObj(obj)
}

// loadFontObj loads a font given the font dictionary object.  This is
// also used for the Font entry of ExtGState dictionaries.
func (e *Engine) loadFontObj(obj pdf.Object) *fontEntry {
	ref, canCache := obj.(pdf.Reference)
	if canCache {
		if entry, ok := e.fonts[ref]; ok {
			return entry
		}
	}

	entry, err := e.readFont(obj)
	if err != nil {
		e.log.Warn("cannot load font", slog.Any("err", err))
		entry = nil
	}
	if canCache {
		e.fonts[ref] = entry
	}
	return entry
}

func (e *Engine) readFont(obj pdf.Object) (*fontEntry, error) {
	fd, err := dict.ExtractDict(e.x, obj)
	if err != nil {
		return nil, err
	}

	entry := &fontEntry{
		codec: fd.Codec(),
		codes: make(map[charcode.Code]font.Code),
	}
	for code, info := range fd.Characters() {
		entry.codes[code] = info
	}

	switch info := fd.FontInfo().(type) {
	case *dict.FontInfoSimple:
		f, err := simpleFont(info)
		if err != nil {
			e.log.Warn("no usable font program",
				slog.String("font", info.PostScriptName),
				slog.Any("err", err))
			f = &outline.Font{
				Kind: outline.Type1Simple,
				Name: info.PostScriptName,
			}
		}
		entry.font = f

	case *dict.FontInfoCID:
		entry.composite = true
		f, err := cidKeyedFont(info.PostScriptName, info.FontFile, nil)
		if err != nil {
			e.log.Warn("no usable font program",
				slog.String("font", info.PostScriptName),
				slog.Any("err", err))
			f = &outline.Font{
				Kind: outline.CFFComposite,
				Name: info.PostScriptName,
			}
		}
		entry.font = f
		e.readCIDFontInfo(entry, obj)

	case *dict.FontInfoGlyfEmbedded:
		entry.composite = true
		f, err := cidKeyedFont(info.PostScriptName, info.FontFile, info.CIDToGID)
		if err != nil {
			e.log.Warn("no usable font program",
				slog.String("font", info.PostScriptName),
				slog.Any("err", err))
			f = &outline.Font{
				Kind: outline.TrueTypeComposite,
				Name: info.PostScriptName,
			}
		}
		entry.font = f
		e.readCIDFontInfo(entry, obj)

	case *dict.FontInfoGlyfExternal:
		// no embedded font program, rely on font substitution
		entry.composite = true
		entry.font = &outline.Font{
			Kind: outline.TrueTypeComposite,
			Name: info.PostScriptName,
		}
		e.readCIDFontInfo(entry, obj)

	case *dict.FontInfoType3:
		t3 := &type3Font{
			procs:      info.CharProcs,
			fontMatrix: info.FontMatrix,
			resources:  info.Resources,
		}
		if d, ok := fd.(*dict.Type3); ok {
			t3.enc = d.Encoding
		}
		entry.type3 = t3
		entry.font = &outline.Font{
			Kind:       outline.Type3,
			FontMatrix: info.FontMatrix,
		}

	default:
		return nil, pdf.Errorf("unsupported font type %T", info)
	}

	return entry, nil
}

// readCIDFontInfo reads the width table and checks the encoding of a
// composite font, directly from the descendant CIDFont dictionary.
func (e *Engine) readCIDFontInfo(entry *fontEntry, obj pdf.Object) {
	fontDict, err := pdf.GetDictTyped(e.r, obj, "Font")
	if err != nil || fontDict == nil {
		return
	}
	df, err := pdf.GetArray(e.r, fontDict["DescendantFonts"])
	if err != nil || len(df) == 0 {
		return
	}
	cidFontDict, err := pdf.GetDict(e.r, df[0])
	if err != nil || cidFontDict == nil {
		return
	}

	if w, err := cidfont.ExtractWidths(e.r, cidFontDict); err == nil {
		entry.widths = w
	}
	if enc, err := cidfont.DetermineEncoding(e.r, cidFontDict); err == nil {
		entry.enc = enc
		if !enc.IsPredefined {
			e.log.Debug("font uses embedded CMap",
				slog.String("cmap", string(enc.Name)))
		}
	}
}

// simpleFont builds the outline font description for a simple font.
func simpleFont(info *dict.FontInfoSimple) (*outline.Font, error) {
	f := &outline.Font{Name: info.PostScriptName}
	if info.Encoding != nil {
		f.Encoding = encodingTable(info.Encoding)
	}

	stream := info.FontFile
	if stream == nil {
		return nil, outline.ErrNoProgram
	}
	switch stream.Type {
	case glyphdata.Type1:
		var buf bytes.Buffer
		if err := stream.WriteTo(&buf, nil); err != nil {
			return nil, err
		}
		t1, err := pstype1.Read(bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		f.Kind = outline.Type1Simple
		f.Type1 = t1

	case glyphdata.CFF, glyphdata.CFFSimple:
		var buf bytes.Buffer
		if err := stream.WriteTo(&buf, nil); err != nil {
			return nil, err
		}
		c, err := cff.Read(bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		f.Kind = outline.CFFSimple
		f.CFF = c

	case glyphdata.TrueType, glyphdata.OpenTypeGlyf:
		sf, err := sfntglyphs.FromStream(stream)
		if err != nil {
			return nil, err
		}
		f.Kind = outline.TrueTypeSimple
		f.SFNT = sf

	case glyphdata.OpenTypeCFF, glyphdata.OpenTypeCFFSimple:
		sf, err := sfntglyphs.FromStream(stream)
		if err != nil {
			return nil, err
		}
		f.Kind = outline.CFFSimple
		f.SFNT = sf

	default:
		return nil, outline.ErrNoProgram
	}
	return f, nil
}

// cidKeyedFont builds the outline font description for the descendant
// of a composite font.
func cidKeyedFont(name string, stream *glyphdata.Stream, cidToGID []glyph.ID) (*outline.Font, error) {
	f := &outline.Font{Name: name}
	if cidToGID != nil {
		f.CIDToGID = func(c cid.CID) glyph.ID {
			if int(c) < len(cidToGID) {
				return cidToGID[c]
			}
			return 0
		}
	}

	if stream == nil {
		return nil, outline.ErrNoProgram
	}
	switch stream.Type {
	case glyphdata.CFF:
		var buf bytes.Buffer
		if err := stream.WriteTo(&buf, nil); err != nil {
			return nil, err
		}
		c, err := cff.Read(bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		f.Kind = outline.CFFComposite
		f.CFF = c

	case glyphdata.TrueType, glyphdata.OpenTypeGlyf:
		sf, err := sfntglyphs.FromStream(stream)
		if err != nil {
			return nil, err
		}
		f.Kind = outline.TrueTypeComposite
		f.SFNT = sf

	case glyphdata.OpenTypeCFF, glyphdata.OpenTypeCFFSimple:
		sf, err := sfntglyphs.FromStream(stream)
		if err != nil {
			return nil, err
		}
		f.Kind = outline.CFFComposite
		f.SFNT = sf

	default:
		return nil, outline.ErrNoProgram
	}
	return f, nil
}

// encodingTable expands a code-to-name function into a table with one
// entry per character code.  Codes which use the font's builtin
// encoding are left empty.
func encodingTable(enc encoding.Simple) []string {
	table := make([]string, 256)
	allBuiltin := true
	for c := range 256 {
		name := enc(byte(c))
		if name == encoding.UseBuiltin {
			continue
		}
		table[c] = name
		allBuiltin = false
	}
	if allBuiltin {
		return nil
	}
	return table
}

// showText handles the Tj, ', " and TJ operators.
func (e *Engine) showText(s pdf.String) error {
	ts := &e.gs.text
	entry := ts.font
	if entry == nil {
		e.log.Warn("text shown without a usable font")
		return nil
	}

	for len(s) > 0 {
		code, k, valid := entry.codec.Decode(s)

		var info font.Code
		if valid {
			var ok bool
			info, ok = entry.codes[code]
			if !ok && entry.composite && entry.widths != nil {
				info.CID = cid.CID(code)
				info.Width = entry.widths.Width(info.CID) / 1000
			}
		} else if entry.enc != nil && entry.enc.IsPredefined {
			// codes the codec rejects are decoded by the CMap rule
			c, n := entry.enc.Decode(s)
			if n > 0 {
				k, valid = n, true
				info.CID = c
				if entry.widths != nil {
					info.Width = entry.widths.Width(c) / 1000
				}
			}
		}
		if !valid {
			s = s[1:]
			continue
		}
		s = s[k:]

		advance := info.Width * ts.size
		advance += ts.charSpacing
		if info.UseWordSpacing {
			advance += ts.wordSpacing
		}
		advance *= ts.horizScale

		trm := matrix.Matrix{
			ts.size * ts.horizScale, 0,
			0, ts.size,
			0, e.ren.State.TextRise,
		}.Mul(e.tm)

		g := &pdfrender.Glyph{
			Font:    entry.font,
			Text:    info.Text,
			Advance: info.Width,
			Trm:     trm,
		}
		if entry.composite {
			g.Code = uint32(info.CID)
		} else {
			g.Code = uint32(code)
		}
		if entry.type3 != nil {
			g.Proc = e.type3Glyph(entry.type3, byte(code))
		}

		if err := e.ren.ShowGlyph(g); err != nil {
			return err
		}

		e.tm = matrix.Translate(advance, 0).Mul(e.tm)
	}
	return nil
}

// type3Glyph looks up the glyph procedure of a Type 3 font.
func (e *Engine) type3Glyph(t3 *type3Font, code byte) *pdfrender.Form {
	if t3.enc == nil {
		return nil
	}
	name := t3.enc(code)
	if name == "" || name == encoding.UseBuiltin {
		return nil
	}
	ref, ok := t3.procs[pdf.Name(name)]
	if !ok {
		return nil
	}

	return &pdfrender.Form{
		Matrix: t3.fontMatrix,
		Paint: func(ren *pdfrender.Renderer) error {
			stm, err := pdf.GetStream(e.r, ref)
			if err != nil {
				return err
			} else if stm == nil {
				return nil
			}
			pop := e.pushResources(t3.resources)
			defer pop()
			return e.execStream(stm)
		},
	}
}
