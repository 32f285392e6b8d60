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
)

// A ClipPath is the intersection of one or more device-space paths.
// ClipPath values are immutable: Intersect returns a new value and
// leaves the receiver unchanged, so that saved graphics states can
// share clip paths safely.
//
// Canvas implementations may cache rasterized clip masks keyed by
// ClipPath identity.
type ClipPath struct {
	parent *ClipPath
	path   *Path
	rule   WindingRule
}

// NewClip returns a clip consisting of the given path alone.
// The path must not be modified afterwards.
func NewClip(p *Path, rule WindingRule) *ClipPath {
	return &ClipPath{path: p, rule: rule}
}

// Intersect returns the intersection of c and the given path.
func (c *ClipPath) Intersect(p *Path, rule WindingRule) *ClipPath {
	return &ClipPath{parent: c, path: p, rule: rule}
}

// Each calls f for every component path of the clip, outermost
// first.
func (c *ClipPath) Each(f func(p *Path, rule WindingRule)) {
	if c == nil {
		return
	}
	c.parent.Each(f)
	f(c.path, c.rule)
}

// PixelBounds returns the pixel bounding box of the clip, the
// intersection of the bounds of all component paths.  A nil clip has
// unbounded extent; the zero rectangle is returned in this case and
// callers must treat it as "everything".
func (c *ClipPath) PixelBounds() image.Rectangle {
	if c == nil {
		return image.Rectangle{}
	}
	bounds := c.path.PixelBounds()
	for p := c.parent; p != nil; p = p.parent {
		bounds = bounds.Intersect(p.path.PixelBounds())
	}
	return bounds
}
