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
	"log/slog"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdfrender/outline"
)

// Options controls optional behaviour of a Renderer.
type Options struct {
	// Logger receives diagnostics for degraded rendering.  If nil,
	// diagnostics are discarded.
	Logger *slog.Logger

	// Colors converts PDF colors into Go colors.  If nil,
	// [DeviceColors] is used.
	Colors ColorMapper

	// Shadings converts shading dictionaries into paints.  If nil,
	// sh operators are skipped with a diagnostic.
	Shadings ShadingMapper

	// Substituter provides replacement font programs for fonts
	// without usable embedded outlines.
	Substituter Substituter
}

// A Renderer executes the painting operators of PDF content streams
// against a Canvas.  The embedded State is the current graphics
// state; Save and Restore maintain the state stack.
//
// A Renderer is not safe for concurrent use.
type Renderer struct {
	State

	canvas   Canvas
	stack    []State
	resolver *outline.Resolver
	logger   *slog.Logger
	colors   ColorMapper
	shadings ShadingMapper
	subst    Substituter

	// substituted caches replacement fonts by original font identity
	substituted map[*outline.Font]*outline.Font

	path        *Path
	pendingClip bool
	clipRule    WindingRule

	textClip *Path
}

// New creates a renderer writing to the given canvas.
// opt may be nil.
func New(canvas Canvas, opt *Options) *Renderer {
	if opt == nil {
		opt = &Options{}
	}
	logger := opt.Logger
	if logger == nil {
		logger = newNopLogger()
	}
	colors := opt.Colors
	if colors == nil {
		colors = DeviceColors
	}

	r := &Renderer{
		canvas:      canvas,
		resolver:    outline.NewResolver(),
		logger:      logger,
		colors:      colors,
		shadings:    opt.Shadings,
		subst:       opt.Substituter,
		substituted: make(map[*outline.Font]*outline.Font),
	}
	r.Reset(matrix.Identity)
	return r
}

// Canvas returns the canvas the renderer currently writes to.
// During transparency group rendering this is the group canvas.
func (r *Renderer) Canvas() Canvas {
	return r.canvas
}

// Logger returns the renderer's diagnostics logger.
func (r *Renderer) Logger() *slog.Logger {
	return r.logger
}

// Reset prepares the renderer for a new content stream.  The matrix
// maps user coordinates of the stream to device pixel coordinates
// (y growing downwards).  The clip is reset to the canvas bounds.
func (r *Renderer) Reset(deviceCTM matrix.Matrix) {
	r.State = NewState()
	r.State.CTM = deviceCTM
	r.stack = r.stack[:0]

	b := r.canvas.Bounds()
	page := &Path{}
	page.Rect(float64(b.Min.X), float64(b.Min.Y), float64(b.Dx()), float64(b.Dy()))
	r.State.Clip = NewClip(page, NonZero)

	r.path = &Path{}
	r.pendingClip = false
	r.textClip = nil
}

// Save pushes a copy of the current graphics state onto the state
// stack.
func (r *Renderer) Save() {
	r.stack = append(r.stack, r.State.Clone())
}

// Restore pops the most recently saved graphics state.  Restoring
// with an empty stack is ignored.
func (r *Renderer) Restore() {
	if n := len(r.stack); n > 0 {
		r.State = r.stack[n-1]
		r.stack = r.stack[:n-1]
	}
}

// Transform prepends m to the current transformation matrix.
func (r *Renderer) Transform(m matrix.Matrix) {
	r.State.CTM = m.Mul(r.State.CTM)
}
