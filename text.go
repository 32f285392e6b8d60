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
	"log/slog"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"

	"seehuhn.de/go/pdfrender/outline"
)

// A Glyph describes one glyph to be painted.
type Glyph struct {
	// Font describes the font program the glyph comes from.
	Font *outline.Font

	// Code is the character code (for simple fonts) or CID (for
	// composite fonts) selecting the glyph.
	Code uint32

	// Text is the textual content of the glyph, if known.
	Text string

	// Advance is the glyph's horizontal displacement at nominal
	// size 1, before the text matrix is applied.
	Advance float64

	// Trm maps glyph coordinates (at nominal size 1) to user space.
	// Font size, horizontal scaling and text rise are included.
	Trm matrix.Matrix

	// Proc paints the glyph for fonts with procedural glyph
	// descriptions (Type 3).  Nil if the glyph description is
	// missing.
	Proc *Form
}

// BeginText starts a text object.  Any text clip accumulated so far
// is discarded.
func (r *Renderer) BeginText() {
	r.textClip = nil
}

// EndText finishes a text object.  If glyphs with a clipping text
// rendering mode were shown, their union is intersected into the
// current clip.
func (r *Renderer) EndText() {
	if r.textClip != nil {
		r.State.Clip = r.State.Clip.Intersect(r.textClip, NonZero)
		r.textClip = nil
	}
}

// ShowGlyph paints a single glyph according to the current text
// rendering mode.  Glyphs which cannot be resolved degrade to a
// placeholder or are skipped, with a diagnostic; rendering
// continues.
func (r *Renderer) ShowGlyph(g *Glyph) error {
	mode := r.TextRenderingMode
	if mode == TextModeInvisible {
		return nil
	}

	if g.Font.IsProcedural() {
		return r.showType3Glyph(g)
	}

	font := g.Font
	prov, err := r.resolver.Resolve(font)
	if err != nil {
		r.logger.Warn("cannot use font program",
			slog.String("font", font.Name),
			slog.Any("err", err))
	}
	if prov == nil && !font.IsComposite() {
		if sub := r.substituteFont(font); sub != nil {
			font = sub
			prov, err = r.resolver.Resolve(font)
			if err != nil {
				r.logger.Warn("cannot use substitute font",
					slog.String("font", font.Name),
					slog.Any("err", err))
			}
		}
	}
	if prov == nil {
		return r.showPlaceholder(g)
	}

	o, err := prov.Outline(g.Code, g.Text)
	if err != nil {
		if !errors.Is(err, outline.ErrNoGlyph) {
			r.logger.Warn("cannot load glyph outline",
				slog.String("font", font.Name),
				slog.Any("err", err))
		}
		return nil
	}
	if o.IsEmpty() {
		return nil
	}

	s := 1 / font.UnitsPerEm()
	m := matrix.Matrix{s, 0, 0, s, 0, 0}.Mul(g.Trm).Mul(r.State.CTM)
	p := outlineToPath(o, m)
	return r.paintGlyphPath(p, mode)
}

// paintGlyphPath paints a device-space glyph path according to the
// text rendering mode.  Clipping modes accumulate the path for
// EndText; the unsupported mode 7 (clip only) still fills, so that
// the text remains visible.
func (r *Renderer) paintGlyphPath(p *Path, mode TextRenderingMode) error {
	fill := false
	stroke := false
	clip := false
	switch mode {
	case TextModeFill:
		fill = true
	case TextModeStroke:
		stroke = true
	case TextModeFillStroke:
		fill, stroke = true, true
	case TextModeFillClip:
		fill, clip = true, true
	case TextModeStrokeClip:
		stroke, clip = true, true
	case TextModeFillStrokeClip:
		fill, stroke, clip = true, true, true
	case TextModeClip:
		// Pure clipping is not implemented; fill instead so that
		// the glyph is not lost.
		r.logger.Warn("text clipping without painting is not supported")
		fill = true
	}

	if fill {
		paint, err := r.fillPaint()
		if err != nil {
			return err
		}
		r.canvas.Fill(r.State.Clip, p, NonZero, paint, true)
	}
	if stroke {
		paint, err := r.strokePaint()
		if err != nil {
			return err
		}
		r.canvas.Stroke(r.State.Clip, p, r.strokeStyle(), paint, true)
	}
	if clip {
		if r.textClip == nil {
			r.textClip = &Path{}
		}
		r.textClip.Cmds = append(r.textClip.Cmds, p.Cmds...)
		r.textClip.Coords = append(r.textClip.Coords, p.Coords...)
	}
	return nil
}

// showType3Glyph paints a glyph with a procedural description by
// re-entering the renderer on the glyph's content.  Glyphs without a
// description are skipped.
func (r *Renderer) showType3Glyph(g *Glyph) error {
	if g.Proc == nil {
		r.logger.Warn("skipping glyph without content stream",
			slog.String("font", g.Font.Name))
		return nil
	}
	r.Save()
	defer r.Restore()
	r.State.CTM = g.Proc.Matrix.Mul(g.Trm).Mul(r.State.CTM)
	return g.Proc.Paint(r)
}

// substituteFont asks the substituter for a replacement font program.
// Results, including failures, are cached by font identity.
func (r *Renderer) substituteFont(f *outline.Font) *outline.Font {
	if sub, seen := r.substituted[f]; seen {
		return sub
	}
	var sub *outline.Font
	if r.subst != nil {
		if info := r.subst.Substitute(f.Name); info != nil {
			sub = &outline.Font{
				Kind: outline.TrueTypeSimple,
				Name: f.Name,
				SFNT: info,
			}
			r.logger.Info("using substitute font",
				slog.String("font", f.Name))
		}
	}
	r.substituted[f] = sub
	return sub
}

// showPlaceholder paints a rectangle covering the glyph's advance
// box, for fonts where no outline source is available at all.
func (r *Renderer) showPlaceholder(g *Glyph) error {
	if g.Advance <= 0 {
		return nil
	}
	m := g.Trm.Mul(r.State.CTM)
	x0, y0 := apply(m, 0, 0)
	x1, y1 := apply(m, g.Advance, 0)
	x2, y2 := apply(m, g.Advance, 0.7)
	x3, y3 := apply(m, 0, 0.7)
	p := &Path{}
	p.MoveTo(x0, y0)
	p.LineTo(x1, y1)
	p.LineTo(x2, y2)
	p.LineTo(x3, y3)
	p.Close()

	paint, err := r.fillPaint()
	if err != nil {
		return err
	}
	r.canvas.Fill(r.State.Clip, p, NonZero, paint, true)
	return nil
}

// outlineToPath converts a glyph outline from font units to a
// device-space path.
func outlineToPath(o *outline.Outline, m matrix.Matrix) *Path {
	p := &Path{}
	k := 0
	for _, cmd := range o.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			x, y := apply(m, o.Coords[k].X, o.Coords[k].Y)
			p.MoveTo(x, y)
			k++
		case path.CmdLineTo:
			x, y := apply(m, o.Coords[k].X, o.Coords[k].Y)
			p.LineTo(x, y)
			k++
		case path.CmdQuadTo:
			x1, y1 := apply(m, o.Coords[k].X, o.Coords[k].Y)
			x2, y2 := apply(m, o.Coords[k+1].X, o.Coords[k+1].Y)
			p.QuadTo(x1, y1, x2, y2)
			k += 2
		case path.CmdCubeTo:
			x1, y1 := apply(m, o.Coords[k].X, o.Coords[k].Y)
			x2, y2 := apply(m, o.Coords[k+1].X, o.Coords[k+1].Y)
			x3, y3 := apply(m, o.Coords[k+2].X, o.Coords[k+2].Y)
			p.CubeTo(x1, y1, x2, y2, x3, y3)
			k += 3
		case path.CmdClose:
			p.Close()
		}
	}
	return p
}
