// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2021  Jochen Voss <voss@seehuhn.de>
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

package pdf

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var (
	utf16BEDecoder = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	utf16LEDecoder = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	utf16BEEncoder = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
)

// pdfDocEncodingToRune covers the PDFDocEncoding code points that differ
// from Latin-1 (0x18-0x1F and 0x80-0x9F); everything else maps straight
// through as its own byte value.
var pdfDocEncodingToRune = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
	0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
	0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
	0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0x9F: '�',
}

// DecodeText interprets s as a PDF text string (spec: used for /Info and
// other human-readable dict values, distinct from the byte-exact string
// literals the core otherwise treats opaquely). A UTF-16BE or UTF-16LE BOM
// selects Unicode; otherwise the bytes are PDFDocEncoding.
func DecodeText(s String) string {
	raw := string(s)
	switch {
	case strings.HasPrefix(raw, "\xfe\xff"):
		out, err := utf16BEDecoder.String(raw)
		if err == nil {
			return out
		}
	case strings.HasPrefix(raw, "\xff\xfe"):
		out, err := utf16LEDecoder.String(raw)
		if err == nil {
			return out
		}
	}
	var b strings.Builder
	for _, c := range []byte(raw) {
		if r, special := pdfDocEncodingToRune[c]; special {
			b.WriteRune(r)
		} else {
			b.WriteRune(rune(c))
		}
	}
	return b.String()
}

// EncodeText produces a UTF-16BE-with-BOM PDF text string for s, the form
// every writer is guaranteed to round-trip regardless of character set.
func EncodeText(s string) String {
	out, err := utf16BEEncoder.String(s)
	if err != nil {
		return String(s)
	}
	return String(out)
}
