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

import "fmt"

// Version identifies a PDF file format version (1.0 through 1.7).
type Version int

// Supported PDF versions.
const (
	_ Version = iota
	V1_0
	V1_1
	V1_2
	V1_3
	V1_4
	V1_5
	V1_6
	V1_7
	maxVersion
)

func (v Version) String() string {
	if v < V1_0 || v >= maxVersion {
		return fmt.Sprintf("pdf.Version(%d)", int(v))
	}
	return fmt.Sprintf("1.%d", int(v-V1_0))
}

// supportsHexEscape reports whether names with "#HH" hex escapes are
// decoded, which spec §3 ties to the document declaring PDF >= 1.2.
func (v Version) supportsHexEscape() bool { return v >= V1_2 }

// supportsObjectStreams reports whether cross-reference streams and object
// streams (PDF 1.5+) are understood/produced.
func (v Version) supportsObjectStreams() bool { return v >= V1_5 }

// defaultBinarySignature is the four high-bit-set marker bytes written
// after the "%PDF-1.N\n%" comment line (spec §6).
var defaultBinarySignature = [4]byte{0xBF, 0xF7, 0xA2, 0xFE}
