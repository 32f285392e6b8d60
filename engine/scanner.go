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

package engine

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"seehuhn.de/go/pdf"
)

// forEachOp tokenizes a content stream and calls yield once for each
// operator, with the accumulated operands.  Inline images are
// delivered as a single "BI" operator whose operands are the image
// dictionary and the binary image data.
//
// Scanning stops at the first error returned by yield.  A truncated
// final operator is ignored, matching the behaviour of common PDF
// viewers.
func forEachOp(src io.Reader, yield func(op pdf.Operator, args []pdf.Object) error) error {
	s := newScanner(src)
	var args []pdf.Object
	for {
		obj, err := s.Next()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		} else if err != nil {
			return err
		}

		op, ok := obj.(pdf.Operator)
		if !ok {
			args = append(args, obj)
			continue
		}

		if op == "BI" {
			dict, data, err := s.readInlineImage()
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			} else if err != nil {
				return err
			}
			args = append(args[:0], dict, data)
		}

		err = yield(op, args)
		if err != nil {
			return err
		}
		args = args[:0]
	}
}

// A scanner breaks a content stream into PDF objects and operators.
// Arrays and dictionaries are folded into single objects.
type scanner struct {
	src       io.Reader
	buf       []byte
	pos, used int
	ahead     []byte
	err       error
}

func newScanner(src io.Reader) *scanner {
	return &scanner{
		src: src,
		buf: make([]byte, 512),
	}
}

// Next returns the next object from the input.  Tokens between "<<"
// and ">>" are collected into a dictionary, tokens between "[" and
// "]" into an array.
func (s *scanner) Next() (pdf.Object, error) {
	type frame struct {
		isDict bool
		data   []pdf.Object
	}
	var stack []*frame
	for {
		obj, err := s.next()
		if err != nil {
			return nil, err
		}

	retry:
		switch obj {
		case pdf.Operator("<<"):
			stack = append(stack, &frame{isDict: true})
		case pdf.Operator(">>"):
			if len(stack) == 0 || !stack[len(stack)-1].isDict {
				return nil, &scanError{"unexpected '>>'"}
			}
			entry := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(entry.data)%2 != 0 {
				return nil, &scanError{"unpaired dictionary key"}
			}
			dict := pdf.Dict{}
			for i := 0; i < len(entry.data); i += 2 {
				key, ok := entry.data[i].(pdf.Name)
				if !ok {
					return nil, &scanError{"invalid dictionary key"}
				}
				if entry.data[i+1] != nil {
					dict[key] = entry.data[i+1]
				}
			}
			obj = dict
			goto retry
		case pdf.Operator("["):
			stack = append(stack, &frame{})
		case pdf.Operator("]"):
			if len(stack) == 0 || stack[len(stack)-1].isDict {
				return nil, &scanError{"unexpected ']'"}
			}
			entry := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			obj = pdf.Array(entry.data)
			goto retry
		default:
			if len(stack) == 0 {
				return obj, nil
			}
			stack[len(stack)-1].data = append(stack[len(stack)-1].data, obj)
		}
	}
}

// readInlineImage reads the body of an inline image, after the BI
// operator has been consumed: the key/value pairs up to ID, then the
// binary data up to EI.
func (s *scanner) readInlineImage() (pdf.Dict, pdf.String, error) {
	dict := pdf.Dict{}
	for {
		obj, err := s.Next()
		if err != nil {
			return nil, nil, err
		}
		if obj == pdf.Operator("ID") {
			break
		}
		key, ok := obj.(pdf.Name)
		if !ok {
			return nil, nil, &scanError{"invalid inline image key"}
		}
		val, err := s.Next()
		if err != nil {
			return nil, nil, err
		}
		if val != nil {
			dict[key] = val
		}
	}

	// A single whitespace byte separates ID from the image data.
	if b, err := s.peek(); err != nil {
		return nil, nil, err
	} else if isSpace(b) {
		s.nextByte()
	}

	// The data ends at "EI" preceded by whitespace.  Binary data can
	// contain this byte sequence, so a false match cannot be ruled
	// out, but in practice this heuristic is what PDF consumers use.
	var data []byte
	for {
		b, err := s.nextByte()
		if err != nil {
			return nil, nil, err
		}
		data = append(data, b)

		n := len(data)
		if n >= 2 && data[n-2] == 'E' && data[n-1] == 'I' {
			if n == 2 || isSpace(data[n-3]) {
				next, err := s.peek()
				if err == io.EOF || err == io.ErrUnexpectedEOF || isSpace(next) || isDelimiter(next) {
					data = data[:n-2]
					for len(data) > 0 && isSpace(data[len(data)-1]) {
						data = data[:len(data)-1]
					}
					return dict, pdf.String(data), nil
				}
			}
		}
	}
}

func (s *scanner) next() (pdf.Object, error) {
	err := s.skipWhiteSpace()
	if err != nil {
		return nil, err
	}
	b, err := s.peek()
	if err != nil {
		return nil, err
	}
	switch b {
	case '(':
		return s.readString()
	case '<':
		if string(s.peekN(2)) == "<<" {
			s.nextByte()
			s.nextByte()
			return pdf.Operator("<<"), nil
		}
		return s.readHexString()
	case '>':
		if string(s.peekN(2)) == ">>" {
			s.nextByte()
			s.nextByte()
			return pdf.Operator(">>"), nil
		}
		return nil, &scanError{"unexpected '>'"}
	case '[':
		s.nextByte()
		return pdf.Operator("["), nil
	case ']':
		s.nextByte()
		return pdf.Operator("]"), nil
	case '/':
		s.nextByte()
		return s.readName()
	case ')':
		return nil, &scanError{"unexpected ')'"}
	default:
		s.nextByte()
		token := []byte{b}
		for {
			b, err := s.peek()
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			} else if err != nil {
				return nil, err
			}
			if isSpace(b) || isDelimiter(b) {
				break
			}
			s.nextByte()
			token = append(token, b)
		}

		if x, ok := parseNumber(token); ok {
			return x, nil
		}
		switch string(token) {
		case "true":
			return pdf.Boolean(true), nil
		case "false":
			return pdf.Boolean(false), nil
		case "null":
			return nil, nil
		}
		return pdf.Operator(token), nil
	}
}

func (s *scanner) readString() (pdf.String, error) {
	s.nextByte() // the opening '('
	var res []byte
	depth := 1
	ignoreLF := false
	for {
		b, err := s.nextByte()
		if err != nil {
			return nil, err
		}
		if ignoreLF {
			ignoreLF = false
			if b == '\n' {
				continue
			}
		}
		switch b {
		case '(':
			depth++
			res = append(res, b)
		case ')':
			depth--
			if depth == 0 {
				return pdf.String(res), nil
			}
			res = append(res, b)
		case '\\':
			b, err = s.nextByte()
			if err != nil {
				return nil, err
			}
			switch b {
			case 'n':
				res = append(res, '\n')
			case 'r':
				res = append(res, '\r')
			case 't':
				res = append(res, '\t')
			case 'b':
				res = append(res, '\b')
			case 'f':
				res = append(res, '\f')
			case '\n':
				// line continuation
			case '\r':
				ignoreLF = true
			case '0', '1', '2', '3', '4', '5', '6', '7':
				oct := b - '0'
				for range 2 {
					b, err = s.peek()
					if err != nil || b < '0' || b > '7' {
						break
					}
					s.nextByte()
					oct = oct*8 + (b - '0')
				}
				res = append(res, oct)
			default:
				res = append(res, b)
			}
		default:
			res = append(res, b)
		}
	}
}

func (s *scanner) readHexString() (pdf.String, error) {
	s.nextByte() // the opening '<'
	var res []byte
	var hi byte
	first := true
	for {
		b, err := s.nextByte()
		if err != nil {
			return nil, err
		}
		if b == '>' {
			break
		}
		if isSpace(b) {
			continue
		}
		v, ok := hexDigit(b)
		if !ok {
			return nil, &scanError{fmt.Sprintf("invalid hex digit %q", b)}
		}
		if first {
			hi = v << 4
		} else {
			res = append(res, hi|v)
		}
		first = !first
	}
	if !first {
		res = append(res, hi)
	}
	return pdf.String(res), nil
}

// readName reads a name, the leading slash already consumed.
func (s *scanner) readName() (pdf.Name, error) {
	var name []byte
	for {
		b, err := s.peek()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		} else if err != nil {
			return "", err
		}
		if b == '#' {
			s.nextByte()
			var v byte
			for range 2 {
				c, err := s.nextByte()
				if err != nil {
					return "", err
				}
				d, ok := hexDigit(c)
				if !ok {
					return "", &scanError{fmt.Sprintf("invalid hex digit %q", c)}
				}
				v = v<<4 | d
			}
			name = append(name, v)
			continue
		}
		if isSpace(b) || isDelimiter(b) {
			break
		}
		s.nextByte()
		name = append(name, b)
	}
	return pdf.Name(name), nil
}

func (s *scanner) skipWhiteSpace() error {
	for {
		b, err := s.peek()
		if err != nil {
			return err
		}
		switch {
		case isSpace(b):
			s.nextByte()
		case b == '%':
			for {
				b, err := s.peek()
				if err != nil || b == '\n' || b == '\r' {
					break
				}
				s.nextByte()
			}
		default:
			return nil
		}
	}
}

func (s *scanner) peek() (byte, error) {
	if len(s.ahead) == 0 {
		b, err := s.readByte()
		if err != nil {
			return 0, err
		}
		s.ahead = append(s.ahead, b)
	}
	return s.ahead[0], nil
}

func (s *scanner) peekN(n int) []byte {
	for len(s.ahead) < n {
		b, err := s.readByte()
		if err != nil {
			return s.ahead
		}
		s.ahead = append(s.ahead, b)
	}
	return s.ahead[:n]
}

func (s *scanner) nextByte() (byte, error) {
	if len(s.ahead) > 0 {
		b := s.ahead[0]
		copy(s.ahead, s.ahead[1:])
		s.ahead = s.ahead[:len(s.ahead)-1]
		return b, nil
	}
	return s.readByte()
}

func (s *scanner) readByte() (byte, error) {
	for s.pos >= s.used {
		err := s.refill()
		if err != nil {
			return 0, err
		}
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

func (s *scanner) refill() error {
	if s.err != nil {
		return s.err
	}
	s.used = copy(s.buf, s.buf[s.pos:s.used])
	s.pos = 0

	n, err := s.src.Read(s.buf[s.used:])
	s.used += n
	if err != nil {
		s.err = err
		if n > 0 {
			err = nil
		}
	}
	return err
}

func parseNumber(token []byte) (pdf.Object, bool) {
	if x, err := strconv.ParseInt(string(token), 10, 64); err == nil {
		return pdf.Integer(x), true
	}

	for i, c := range token {
		if i == 0 && (c == '+' || c == '-') {
			continue
		}
		if c != '.' && (c < '0' || c > '9') {
			return nil, false
		}
	}
	y, err := strconv.ParseFloat(string(token), 64)
	if err != nil || math.IsInf(y, 0) || math.IsNaN(y) {
		return nil, false
	}
	return pdf.Real(y), true
}

func isSpace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}

type scanError struct {
	msg string
}

func (e *scanError) Error() string {
	return "content stream: " + e.msg
}
