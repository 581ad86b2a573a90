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
	"bytes"
	"strings"
	"testing"
)

func TestWriteHeader(t *testing.T) {
	w := newWriter(nil)
	writeHeader(w, V1_4, true)
	got := w.buf.String()
	want := "%PDF-1.4\n%" + string(defaultBinarySignature[:]) + "\n\n"
	if got != want {
		t.Errorf("writeHeader = %q, want %q", got, want)
	}
}

func TestWriteClassicFormatRoundTrips(t *testing.T) {
	root := Dict{"Type": Name("Catalog")}
	doc := NewDocument()
	doc.Trailer["Root"] = root
	list := []Object{root}
	w := newWriter(list)

	out, err := writeClassicFormat(doc, list, w, V1_4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-1.4\n")) {
		t.Errorf("missing header: %q", out[:20])
	}
	if !bytes.Contains(out, []byte("1 0 obj")) {
		t.Error("missing object header")
	}
	if !bytes.Contains(out, []byte("xref\n")) {
		t.Error("missing xref table")
	}
	if !bytes.Contains(out, []byte("trailer\n")) {
		t.Error("missing trailer")
	}
	if !bytes.HasSuffix(out, []byte("%%EOF\n")) {
		t.Error("missing EOF marker")
	}

	reparsed, err := Parse(out, ParseFlags{}, nil)
	if err != nil {
		t.Fatalf("round-trip parse failed: %v\n%s", err, out)
	}
	if n, ok := reparsed.Root()["Type"].(Name); !ok || n.String() != "Catalog" {
		t.Errorf("round-tripped root Type = %#v", reparsed.Root()["Type"])
	}
}

func TestWriteObjectStreamFormatRoundTrips(t *testing.T) {
	root := Dict{"Type": Name("Catalog")}
	doc := NewDocument()
	doc.Trailer["Root"] = root
	list := []Object{root}
	w := newWriter(list)

	out, err := writeObjectStreamFormat(doc, list, w, V1_5)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out, []byte("/Type/XRef")) && !bytes.Contains(out, []byte("/Type /XRef")) {
		t.Error("missing /Type /XRef stream")
	}

	reparsed, err := Parse(out, ParseFlags{}, nil)
	if err != nil {
		t.Fatalf("round-trip parse failed: %v\n%s", err, out)
	}
	if n, ok := reparsed.Root()["Type"].(Name); !ok || n.String() != "Catalog" {
		t.Errorf("round-tripped root Type = %#v", reparsed.Root()["Type"])
	}
}

func TestEncodeXrefEntries(t *testing.T) {
	entries := []xrefEntry{{0, 0, 65535}, {1, 100, 0}, {2, 5, 3}}
	data := encodeXrefEntries(entries)
	if len(data) != 21 {
		t.Fatalf("len(data) = %d, want 21 (3 entries * 7 bytes)", len(data))
	}
	if data[0] != 0 || data[7] != 1 || data[14] != 2 {
		t.Errorf("type bytes wrong: %v", data)
	}
}

func TestWriteObjectStreamFormatPacksNonStreamObjects(t *testing.T) {
	bDict := Dict{"N": NewInteger(2)}
	root := Dict{"Type": Name("Catalog"), "B": bDict}
	doc := NewDocument()
	doc.Trailer["Root"] = root
	list := enumerate(doc)
	w := newWriter(list)

	out, err := writeObjectStreamFormat(doc, list, w, V1_5)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out, []byte("/ObjStm")) {
		t.Error("non-stream objects were not packed into an /ObjStm container")
	}

	reparsed, err := Parse(out, ParseFlags{}, nil)
	if err != nil {
		t.Fatalf("round-trip parse failed: %v\n%s", err, out)
	}
	b, ok := reparsed.Root()["B"].(Dict)
	if !ok {
		t.Fatalf("B = %#v, want resolved Dict (rule 'B' promotes it to indirect)", reparsed.Root()["B"])
	}
	if n, ok := b["N"].(Integer); !ok || n.Int64() != 2 {
		t.Errorf("B/N = %#v, want 2", b["N"])
	}
}

func TestLastStartxref(t *testing.T) {
	buf := []byte("garbage startxref\n42\n%%EOF\nstartxref\n10\n%%EOF")
	if got := lastStartxref(buf); got != 10 {
		t.Errorf("lastStartxref = %d, want 10 (the last occurrence)", got)
	}
}

func TestLastStartxrefOutOfRange(t *testing.T) {
	buf := []byte("startxref\n99999\n%%EOF")
	if got := lastStartxref(buf); got != -1 {
		t.Errorf("lastStartxref = %d, want -1 for an offset beyond the buffer", got)
	}
}

func TestSkipClassicXrefSections(t *testing.T) {
	src := "0 2\n0000000000 65535 f \n0000000010 00000 n \ntrailer"
	l := newLexer([]byte(src))
	if err := skipClassicXrefSections(l); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(l.buf[l.pos:]), "trailer") {
		t.Errorf("cursor left at %q, want start of trailer", l.buf[l.pos:])
	}
}
