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
	"testing"

	"seehuhn.de/go/postscript/cid"
	"seehuhn.de/go/postscript/type1"
	"seehuhn.de/go/sfnt/glyph"
)

func TestCapabilities(t *testing.T) {
	cases := []struct {
		kind       Kind
		composite  bool
		procedural bool
	}{
		{TrueTypeSimple, false, false},
		{Type1Simple, false, false},
		{CFFSimple, false, false},
		{Type3, false, true},
		{TrueTypeComposite, true, false},
		{CFFComposite, true, false},
	}
	for _, c := range cases {
		f := &Font{Kind: c.kind}
		if got := f.IsComposite(); got != c.composite {
			t.Errorf("%s: IsComposite() = %t, want %t", c.kind, got, c.composite)
		}
		if got := f.IsProcedural(); got != c.procedural {
			t.Errorf("%s: IsProcedural() = %t, want %t", c.kind, got, c.procedural)
		}
		if f.HasOutlines() {
			t.Errorf("%s: HasOutlines() = true for font without program", c.kind)
		}
	}
}

func TestUnitsPerEmDefault(t *testing.T) {
	f := &Font{Kind: Type1Simple}
	if got := f.UnitsPerEm(); got != 1000 {
		t.Errorf("UnitsPerEm() = %g, want 1000", got)
	}
}

func TestResolveType3(t *testing.T) {
	r := NewResolver()
	f := &Font{Kind: Type3, Name: "F1"}

	p, err := r.Resolve(f)
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Error("expected nil provider for Type3 font")
	}
	if _, ok := r.cache[f]; !ok {
		t.Error("Type3 resolution not cached")
	}
}

func TestNegativeCaching(t *testing.T) {
	r := NewResolver()
	f := &Font{Kind: TrueTypeSimple, Name: "Broken"}

	p, err := r.Resolve(f)
	if p != nil {
		t.Error("expected nil provider for font without program")
	}
	if !errors.Is(err, ErrNoProgram) {
		t.Errorf("got %v, want ErrNoProgram", err)
	}

	// the failure is cached, no error on repeated lookups
	p, err = r.Resolve(f)
	if p != nil || err != nil {
		t.Errorf("second lookup: got (%v, %v), want (nil, nil)", p, err)
	}
}

func TestResolverKeysByIdentity(t *testing.T) {
	r := NewResolver()
	f1 := &Font{Kind: Type3, Name: "F1"}
	f2 := &Font{Kind: Type3, Name: "F1"}

	r.Resolve(f1)
	if len(r.cache) != 1 {
		t.Fatalf("cache size = %d, want 1", len(r.cache))
	}
	r.Resolve(f2)
	if len(r.cache) != 2 {
		t.Errorf("cache size = %d, want 2", len(r.cache))
	}
}

func TestCIDLookup(t *testing.T) {
	// identity mapping when no CIDToGID function is given
	lookup := cidLookup(nil)
	if gid := lookup(17, ""); gid != 17 {
		t.Errorf("identity lookup(17) = %d, want 17", gid)
	}

	lookup = cidLookup(func(c cid.CID) glyph.ID {
		return glyph.ID(c + 1)
	})
	if gid := lookup(17, ""); gid != 18 {
		t.Errorf("mapped lookup(17) = %d, want 18", gid)
	}
}

func TestType1Provider(t *testing.T) {
	font := &type1.Font{
		Outlines: &type1.Outlines{
			Glyphs: map[string]*type1.Glyph{
				"A": {},
			},
		},
	}
	p := &type1Provider{
		font:     font,
		encoding: []string{"A", "B"},
	}

	// glyph present, but without outline data
	o, err := p.Outline(0, "A")
	if err != nil {
		t.Fatal(err)
	}
	if !o.IsEmpty() {
		t.Error("expected empty outline")
	}

	// glyph name missing from the font program
	_, err = p.Outline(1, "B")
	if !errors.Is(err, ErrNoGlyph) {
		t.Errorf("got %v, want ErrNoGlyph", err)
	}

	// code outside the encoding
	_, err = p.Outline(200, "")
	if !errors.Is(err, ErrNoGlyph) {
		t.Errorf("got %v, want ErrNoGlyph", err)
	}
}
