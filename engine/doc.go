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

// Package engine executes PDF content streams on a
// [seehuhn.de/go/pdfrender.Renderer].
//
// An [Engine] reads the content stream of a page, interprets the
// operators, and translates them into calls on the renderer: path
// construction and painting, clipping, text showing, images, form
// XObjects, transparency groups, shadings and patterns.  Fonts
// referenced by the page are loaded from the file and turned into
// outline sources for the renderer.  Annotation appearance streams
// can be painted on top of the page content.
//
// Rendering is forgiving: malformed operators, unsupported color
// spaces and broken font programs degrade the output but do not abort
// the page.
package engine
