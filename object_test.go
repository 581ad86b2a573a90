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

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		in  Object
		out string
	}{
		{nil, "null"},
		{Null{}, "null"},
		{Boolean(true), "true"},
		{Boolean(false), "false"},
		{NewInteger(0), "0"},
		{NewInteger(-12), "-12"},
		{NewReal(1.5), "1.5"},
		{NewReal(2), "2."},
		{Name("Type"), "/Type"},
		{Name("A B"), "/A#20B"},
		{String("a (test)"), `(a \(test\))`},
		{String("line\nbreak"), `(line\nbreak)`},
		{HexString("68656c6c6f"), "<68656c6c6f>"},
		{Array{NewInteger(1), nil, NewInteger(3)}, "[1 null 3]"},
		{Ref{ID: 4, Gen: 0}, "(4 0 R)"},
	}
	for _, c := range cases {
		got := Format(c.in)
		if got != c.out {
			t.Errorf("Format(%#v) = %q, want %q", c.in, got, c.out)
		}
	}
}

func TestNameHexEscape(t *testing.T) {
	n := Name("A;Name With Space#")
	got := Format(n)
	want := "/A;Name#20With#20Space#23"
	if got != want {
		t.Errorf("Name.PDF() = %q, want %q", got, want)
	}
}

func TestHexStringDecoded(t *testing.T) {
	h := HexString("68656c6c6f")
	if got := string(h.Decoded()); got != "hello" {
		t.Errorf("Decoded() = %q, want %q", got, "hello")
	}
}

func TestDictKeyOrdering(t *testing.T) {
	d := Dict{
		Name("b"): NewInteger(2),
		Name("A"): NewInteger(1),
		Name("a"): NewInteger(3),
	}
	got := Format(d)
	want := "<<\n/A 1\n/a 3\n/b 2\n>>"
	if got != want {
		t.Errorf("Dict.PDF() = %q, want %q", got, want)
	}
}

func TestDictSkipsMetadataKeys(t *testing.T) {
	d := Dict{
		Name("Type"):    Name("Catalog"),
		Name("-hidden"): NewInteger(1),
	}
	got := Format(d)
	want := "<<\n/Type /Catalog\n>>"
	if got != want {
		t.Errorf("Dict.PDF() = %q, want %q", got, want)
	}
}

func TestStreamPDFRecomputesLength(t *testing.T) {
	s := &Stream{Dict: Dict{}, Data: []byte("hello")}
	got := Format(s)
	want := "<<\n/Length 5\n>>\nstream\nhello\nendstream"
	if got != want {
		t.Errorf("Stream.PDF() = %q, want %q", got, want)
	}
}

func TestStreamPDFNoExtraNewlineWhenDataEndsInOne(t *testing.T) {
	s := &Stream{Dict: Dict{}, Data: []byte("hello\n")}
	got := Format(s)
	want := "<<\n/Length 6\n>>\nstream\nhello\nendstream"
	if got != want {
		t.Errorf("Stream.PDF() = %q, want %q", got, want)
	}
}
