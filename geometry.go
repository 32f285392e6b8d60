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
	"math"

	"seehuhn.de/go/geom/matrix"
)

// apply transforms the point (x, y) by m.
func apply(m matrix.Matrix, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// det returns the determinant of the linear part of m.
func det(m matrix.Matrix) float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// invert returns the inverse of m.  The second return value is false
// if m is singular.
func invert(m matrix.Matrix) (matrix.Matrix, bool) {
	d := det(m)
	if math.Abs(d) < 1e-12 {
		return matrix.Matrix{}, false
	}
	return matrix.Matrix{
		m[3] / d, -m[1] / d,
		-m[2] / d, m[0] / d,
		(m[2]*m[5] - m[3]*m[4]) / d,
		(m[1]*m[4] - m[0]*m[5]) / d,
	}, true
}

// scaleOf returns the average scaling factor of m, used to transform
// scalar quantities like line widths and dash lengths into device
// space.
func scaleOf(m matrix.Matrix) float64 {
	return math.Sqrt(math.Abs(det(m)))
}
