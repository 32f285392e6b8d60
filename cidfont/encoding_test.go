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

package cidfont

import (
	"errors"
	"testing"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/postscript/cid"
)

func TestEncodingName(t *testing.T) {
	cases := []struct {
		ros        cid.SystemInfo
		want       pdf.Name
		predefined bool
	}{
		{cid.SystemInfo{Registry: "Adobe", Ordering: "Identity", Supplement: 0},
			"Identity-H", true},
		{cid.SystemInfo{Registry: "Adobe-UCS", Ordering: "Whatever", Supplement: 0},
			"Adobe-Identity-UCS", true},
		{cid.SystemInfo{Registry: "Adobe", Ordering: "Japan1", Supplement: 7},
			"Adobe-Japan1-UCS2", true},
		{cid.SystemInfo{Registry: "Adobe", Ordering: "KR", Supplement: 9},
			"Adobe-KR-UCS2", true},
		{cid.SystemInfo{Registry: "Test", Ordering: "Sonderbar", Supplement: 13},
			"Test-Sonderbar-UCS2", false},
	}
	for _, c := range cases {
		name := EncodingName(&c.ros)
		if name != c.want {
			t.Errorf("EncodingName(%q, %q) = %q, want %q",
				c.ros.Registry, c.ros.Ordering, name, c.want)
		}
		if predefinedCMaps[name] != c.predefined {
			t.Errorf("predefinedCMaps[%q] = %t, want %t",
				name, predefinedCMaps[name], c.predefined)
		}
	}
}

func TestDetermineEncoding(t *testing.T) {
	dict := pdf.Dict{
		"CIDSystemInfo": pdf.Dict{
			"Registry":   pdf.String("Adobe"),
			"Ordering":   pdf.String("Japan1"),
			"Supplement": pdf.Integer(7),
		},
	}
	enc, err := DetermineEncoding(testGetter{}, dict)
	if err != nil {
		t.Fatal(err)
	}
	if enc.Name != "Adobe-Japan1-UCS2" || !enc.IsPredefined {
		t.Errorf("got %q (predefined=%t)", enc.Name, enc.IsPredefined)
	}
}

func TestDetermineEncodingEmbedded(t *testing.T) {
	// an unknown name is not an error, the CMap is expected to be
	// loaded from an embedded stream
	dict := pdf.Dict{
		"CIDSystemInfo": pdf.Dict{
			"Registry":   pdf.String("Test"),
			"Ordering":   pdf.String("Sonderbar"),
			"Supplement": pdf.Integer(13),
		},
	}
	enc, err := DetermineEncoding(testGetter{}, dict)
	if err != nil {
		t.Fatal(err)
	}
	if enc.Name != "Test-Sonderbar-UCS2" || enc.IsPredefined {
		t.Errorf("got %q (predefined=%t)", enc.Name, enc.IsPredefined)
	}
}

func TestDecode(t *testing.T) {
	enc := &Encoding{Name: "Identity-H", IsPredefined: true}

	code := []byte{0x04, 0xd2, 0x01}
	c, n := enc.Decode(code)
	if c != 1234 || n != 2 {
		t.Errorf("Decode = (%d, %d), want (1234, 2)", c, n)
	}
	c, n = enc.Decode(code[2:])
	if c != 1 || n != 1 {
		t.Errorf("Decode of trailing byte = (%d, %d), want (1, 1)", c, n)
	}
	if _, n := enc.Decode(nil); n != 0 {
		t.Errorf("Decode of empty input consumed %d bytes", n)
	}
}

func TestMissingSystemInfo(t *testing.T) {
	_, err := DetermineEncoding(testGetter{}, pdf.Dict{})
	if !errors.Is(err, ErrMissingSystemInfo) {
		t.Errorf("got %v, want ErrMissingSystemInfo", err)
	}
}
