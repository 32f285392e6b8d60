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
	"fmt"
)

// A Resolver turns [Font] objects into outline providers.  Results
// are cached by font identity for the lifetime of the resolver,
// including failed attempts, so that repeated lookups for a broken
// font do not retry the extraction.
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	cache map[*Font]Provider
}

// NewResolver creates a new resolver with an empty cache.
func NewResolver() *Resolver {
	return &Resolver{
		cache: make(map[*Font]Provider),
	}
}

// Resolve returns the outline provider for the given font, or nil if
// the font has no extractable outlines.  An error is returned on the
// first failed attempt only; later calls return the cached nil
// provider.
func (r *Resolver) Resolve(f *Font) (Provider, error) {
	if p, ok := r.cache[f]; ok {
		return p, nil
	}

	p, err := newProvider(f)
	r.cache[f] = p
	return p, err
}

func newProvider(f *Font) (Provider, error) {
	switch f.Kind {
	case Type3:
		// glyphs are drawn by content streams
		return nil, nil

	case TrueTypeSimple:
		if f.SFNT == nil || f.SFNT.Outlines == nil {
			return nil, fmt.Errorf("%q: %w", f.Name, ErrNoProgram)
		}
		return &sfntProvider{
			font:   f.SFNT,
			lookup: cmapLookup(f.SFNT),
		}, nil

	case TrueTypeComposite:
		if f.SFNT == nil || f.SFNT.Outlines == nil {
			return nil, fmt.Errorf("%q: %w", f.Name, ErrNoProgram)
		}
		return &sfntProvider{
			font:   f.SFNT,
			lookup: cidLookup(f.CIDToGID),
		}, nil

	case CFFSimple:
		if f.CFF != nil {
			lookup := cffEncodingLookup(f.CFF)
			if f.Encoding != nil {
				lookup = cffNameLookup(f.CFF, f.Encoding)
			}
			return &cffProvider{font: f.CFF, lookup: lookup}, nil
		}
		// OpenType fonts with CFF outlines keep their cmap table
		if f.SFNT != nil && f.SFNT.Outlines != nil {
			return &sfntProvider{
				font:   f.SFNT,
				lookup: cmapLookup(f.SFNT),
			}, nil
		}
		return nil, fmt.Errorf("%q: %w", f.Name, ErrNoProgram)

	case CFFComposite:
		if f.CFF != nil {
			return &cffProvider{
				font:   f.CFF,
				lookup: cidLookup(f.CIDToGID),
			}, nil
		}
		if f.SFNT != nil && f.SFNT.Outlines != nil {
			return &sfntProvider{
				font:   f.SFNT,
				lookup: cidLookup(f.CIDToGID),
			}, nil
		}
		return nil, fmt.Errorf("%q: %w", f.Name, ErrNoProgram)

	case Type1Simple:
		if f.Type1 == nil {
			return nil, fmt.Errorf("%q: %w", f.Name, ErrNoProgram)
		}
		encoding := f.Encoding
		if encoding == nil {
			encoding = f.Type1.Encoding
		}
		return &type1Provider{font: f.Type1, encoding: encoding}, nil

	default:
		return nil, fmt.Errorf("%q: unknown font kind %d", f.Name, f.Kind)
	}
}
