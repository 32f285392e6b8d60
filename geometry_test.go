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
	"testing"

	"seehuhn.de/go/geom/matrix"
)

func TestApply(t *testing.T) {
	m := matrix.Matrix{2, 0, 0, 3, 10, 20}
	x, y := apply(m, 1, 1)
	if x != 12 || y != 23 {
		t.Errorf("apply = (%g, %g), want (12, 23)", x, y)
	}
}

func TestInvertRoundTrip(t *testing.T) {
	m := matrix.Matrix{2, 1, -1, 3, 5, -7}
	inv, ok := invert(m)
	if !ok {
		t.Fatal("matrix reported as singular")
	}

	x0, y0 := 3.25, -1.5
	x1, y1 := apply(m, x0, y0)
	x2, y2 := apply(inv, x1, y1)
	if math.Abs(x2-x0) > 1e-9 || math.Abs(y2-y0) > 1e-9 {
		t.Errorf("round trip (%g, %g) -> (%g, %g)", x0, y0, x2, y2)
	}
}

func TestInvertSingular(t *testing.T) {
	m := matrix.Matrix{1, 2, 2, 4, 0, 0} // rank 1
	if _, ok := invert(m); ok {
		t.Error("singular matrix reported as invertible")
	}
}

func TestScaleOf(t *testing.T) {
	cases := []struct {
		m    matrix.Matrix
		want float64
	}{
		{matrix.Identity, 1},
		{matrix.Matrix{3, 0, 0, 3, 7, 9}, 3},
		// rotation preserves lengths
		{matrix.Matrix{0, 1, -1, 0, 0, 0}, 1},
		// non-uniform scaling uses the geometric mean
		{matrix.Matrix{2, 0, 0, 8, 0, 0}, 4},
		// mirroring does not make the scale negative
		{matrix.Matrix{-2, 0, 0, 2, 0, 0}, 2},
	}
	for _, c := range cases {
		if got := scaleOf(c.m); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("scaleOf(%v) = %g, want %g", c.m, got, c.want)
		}
	}
}
