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

// Package pdfrender turns PDF content streams into pixels.
//
// A [Renderer] holds the graphics state of one render invocation and
// exposes the operator surface of a PDF content stream: path
// construction and painting, clipping, images, shadings, transparency
// groups and text.  The pixels are written into a caller-supplied
// [Canvas]; package raster provides a canvas backed by
// golang.org/x/image/vector.
//
// The renderer does not parse content streams itself.  An [Engine]
// feeds operators to the renderer and re-enters nested content
// (form XObjects, soft mask groups, Type3 glyphs, pattern tiles); the
// engine package provides one based on seehuhn.de/go/pdf/reader.
//
// A Renderer is single-threaded: one render invocation processes its
// operator stream sequentially, and nested content is rendered by
// recursive re-entry on the same renderer.  Independent renders may
// run concurrently if each has its own Renderer and Canvas.
package pdfrender
