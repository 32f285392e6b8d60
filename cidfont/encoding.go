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
	"strings"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/postscript/cid"
)

// ErrMissingSystemInfo indicates that a CIDFont dictionary has no
// usable CIDSystemInfo entry.  Without the registry and ordering the
// encoding of the font cannot be determined.
var ErrMissingSystemInfo = errors.New("CIDFont: missing CIDSystemInfo")

// Encoding describes the CMap used to map character codes of a
// composite font to CIDs.
type Encoding struct {
	// Name is the CMap name derived from the font's CIDSystemInfo.
	Name pdf.Name

	// IsPredefined indicates that Name refers to one of the predefined
	// CMaps.  Otherwise the CMap must be loaded from an embedded
	// stream.
	IsPredefined bool
}

// predefinedCMaps lists the predefined CMap names which can be
// resolved without an embedded CMap stream.
var predefinedCMaps = map[pdf.Name]bool{
	"Identity-H":         true,
	"Identity-V":         true,
	"Adobe-Identity-UCS": true,
	"Adobe-Japan1-UCS2":  true,
	"Adobe-GB1-UCS2":     true,
	"Adobe-CNS1-UCS2":    true,
	"Adobe-Korea1-UCS2":  true,
	"Adobe-KR-UCS2":      true,
}

// ExtractSystemInfo reads a CIDSystemInfo dictionary.
// If the object is missing or malformed, ErrMissingSystemInfo is
// returned.
func ExtractSystemInfo(r pdf.Getter, obj pdf.Object) (*cid.SystemInfo, error) {
	dict, err := pdf.GetDict(r, obj)
	if err != nil || dict == nil {
		return nil, ErrMissingSystemInfo
	}

	registry, err := pdf.GetString(r, dict["Registry"])
	if err != nil {
		return nil, err
	}
	ordering, err := pdf.GetString(r, dict["Ordering"])
	if err != nil {
		return nil, err
	}
	if len(registry) == 0 || len(ordering) == 0 {
		return nil, ErrMissingSystemInfo
	}
	supplement, err := pdf.GetInteger(r, dict["Supplement"])
	if err != nil {
		return nil, err
	}

	return &cid.SystemInfo{
		Registry:   string(registry),
		Ordering:   string(ordering),
		Supplement: int32(supplement),
	}, nil
}

// EncodingName derives the CMap name for the given CID system info.
//
// Identity orderings map to "Identity-H".  Registries starting with
// "Adobe-UCS" map to "Adobe-Identity-UCS".  All other combinations
// map to the UCS2 variant "Registry-Ordering-UCS2".
func EncodingName(ros *cid.SystemInfo) pdf.Name {
	if ros.Ordering == "Identity" {
		return "Identity-H"
	}
	if strings.HasPrefix(ros.Registry, "Adobe-UCS") {
		return "Adobe-Identity-UCS"
	}
	return pdf.Name(ros.Registry + "-" + ros.Ordering + "-UCS2")
}

// Decode maps the next character code of a string to a CID and
// returns the number of bytes consumed.  The predefined CMaps known
// to this package all use two-byte identity mappings; a trailing
// single byte is consumed as a one-byte code.
func (e *Encoding) Decode(code []byte) (cid.CID, int) {
	if len(code) >= 2 {
		return cid.CID(uint16(code[0])<<8 | uint16(code[1])), 2
	}
	if len(code) == 1 {
		return cid.CID(code[0]), 1
	}
	return 0, 0
}

// DetermineEncoding resolves the encoding of a CIDFont from the
// CIDSystemInfo entry of its dictionary.
//
// A name not found among the predefined CMaps is not an error: the
// CMap is then expected to come from an embedded stream.  A missing
// CIDSystemInfo entry returns ErrMissingSystemInfo and leaves the
// encoding undetermined.
func DetermineEncoding(r pdf.Getter, cidFontDict pdf.Dict) (*Encoding, error) {
	ros, err := ExtractSystemInfo(r, cidFontDict["CIDSystemInfo"])
	if err != nil {
		return nil, err
	}

	name := EncodingName(ros)
	return &Encoding{
		Name:         name,
		IsPredefined: predefinedCMaps[name],
	}, nil
}
