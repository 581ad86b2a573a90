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
	"compress/zlib"
	"strings"
	"testing"
)

// minimalPDF builds a tiny, well-formed classic-xref PDF byte-for-byte by
// hand, so parse.go's forward scan and trailer chain can be exercised
// without going through Serialize.
func minimalPDF() []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	obj1 := "1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n"
	obj2 := "2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n"
	obj3 := "3 0 obj\n<< /Type /Page /Parent 2 0 R >>\nendobj\n"
	off1 := b.Len()
	b.WriteString(obj1)
	off2 := b.Len()
	b.WriteString(obj2)
	off3 := b.Len()
	b.WriteString(obj3)
	xrefOff := b.Len()
	b.WriteString("xref\n0 4\n")
	b.WriteString("0000000000 65535 f \n")
	for _, off := range []int{off1, off2, off3} {
		b.WriteString(padOffset(off))
	}
	b.WriteString("trailer\n<< /Size 4 /Root 1 0 R >>\n")
	b.WriteString("startxref\n")
	b.WriteString(itoa(xrefOff))
	b.WriteString("\n%%EOF\n")
	return []byte(b.String())
}

func padOffset(n int) string {
	s := itoa(n)
	for len(s) < 10 {
		s = "0" + s
	}
	return s + " 00000 n \n"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func TestParseMinimalDocument(t *testing.T) {
	var diags []Diagnostic
	doc, err := Parse(minimalPDF(), ParseFlags{}, func(d Diagnostic) { diags = append(diags, d) })
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Version != V1_4 {
		t.Errorf("Version = %v, want V1_4", doc.Version)
	}
	root := doc.Root()
	if root == nil {
		t.Fatal("Root() returned nil")
	}
	if n, ok := root["Type"].(Name); !ok || n.String() != "Catalog" {
		t.Errorf("root Type = %#v", root["Type"])
	}
	pages, ok := root["Pages"].(Dict)
	if !ok {
		t.Fatalf("Pages = %#v, want resolved Dict", root["Pages"])
	}
	if n, ok := pages["Type"].(Name); !ok || n.String() != "Pages" {
		t.Errorf("pages Type = %#v", pages["Type"])
	}
	for _, d := range diags {
		if d.Kind == "ValidationError" {
			t.Errorf("unexpected validation warning: %s", d.Msg)
		}
	}
}

func TestParseHeaderRejectsMissingSignature(t *testing.T) {
	_, err := Parse([]byte("not a pdf"), ParseFlags{}, nil)
	if err == nil {
		t.Fatal("expected an error for a missing %PDF- signature")
	}
	if _, ok := err.(*MalformedHeaderError); !ok {
		t.Errorf("err = %#v, want *MalformedHeaderError", err)
	}
}

func TestParseHeaderDetectsBinarySignature(t *testing.T) {
	buf := append([]byte("%PDF-1.4\n%\xbf\xf7\xa2\xfe\n"), minimalPDF()[len("%PDF-1.4\n"):]...)
	_, hasSig, _, err := parseHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !hasSig {
		t.Error("hasSig = false, want true")
	}
}

func TestForwardScanLaterDefinitionWins(t *testing.T) {
	// Simulates an incrementally updated file: object 1 is defined twice,
	// and the later definition (further in the byte stream) must win,
	// without consulting the xref/Prev chain to decide so.
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	b.WriteString("1 0 obj\n(old)\nendobj\n")
	b.WriteString("1 0 obj\n(new)\nendobj\n")
	xrefOff := b.Len()
	b.WriteString("xref\n0 1\n0000000000 65535 f \n")
	b.WriteString("trailer\n<< /Size 1 /Root 1 0 R >>\n")
	b.WriteString("startxref\n" + itoa(xrefOff) + "\n%%EOF\n")
	doc, err := Parse([]byte(b.String()), ParseFlags{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := doc.registry[Ref{ID: 1, Gen: 0}]
	if !ok {
		t.Fatal("object 1 not registered")
	}
	if s, ok := v.(String); !ok || string(s) != "new" {
		t.Errorf("registry[1,0] = %#v, want String(\"new\")", v)
	}
}

func TestForwardScanInflatesFlateDecodeStream(t *testing.T) {
	// Unlike minimalPDF's hand-written dicts, this builds a real
	// zlib-compressed content stream, so only a genuine inflate-on-read
	// (not a round-trip through Serialize, which never sees the raw
	// compressed form) exercises the fix.
	raw := []byte("1 0 0 1 0 0 cm\n/F1 12 Tf\n")
	compBuf := &bytes.Buffer{}
	zw := zlib.NewWriter(compBuf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	compressed := compBuf.Bytes()

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	obj1 := "1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n"
	obj2 := "2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n"
	obj3 := "3 0 obj\n<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>\nendobj\n"
	obj4 := "4 0 obj\n<< /Filter /FlateDecode /Length " + itoa(len(compressed)) + " >>\nstream\n"
	off1 := b.Len()
	b.WriteString(obj1)
	off2 := b.Len()
	b.WriteString(obj2)
	off3 := b.Len()
	b.WriteString(obj3)
	off4 := b.Len()
	b.WriteString(obj4)
	b.Write(compressed)
	b.WriteString("\nendstream\nendobj\n")
	xrefOff := b.Len()
	b.WriteString("xref\n0 5\n")
	b.WriteString("0000000000 65535 f \n")
	for _, off := range []int{off1, off2, off3, off4} {
		b.WriteString(padOffset(off))
	}
	b.WriteString("trailer\n<< /Size 5 /Root 1 0 R >>\n")
	b.WriteString("startxref\n")
	b.WriteString(itoa(xrefOff))
	b.WriteString("\n%%EOF\n")

	doc, err := Parse([]byte(b.String()), ParseFlags{}, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, ok := doc.registry[Ref{ID: 4, Gen: 0}]
	if !ok {
		t.Fatal("stream object not registered")
	}
	stream, ok := v.(*Stream)
	if !ok {
		t.Fatalf("registry[4,0] = %#v, want *Stream", v)
	}
	if string(stream.Data) != string(raw) {
		t.Errorf("stream.Data = %q, want inflated %q", stream.Data, raw)
	}
	if _, stillFiltered := stream.Dict["Filter"]; stillFiltered {
		t.Error("/Filter still present after inflate")
	}
	if !stream.Flags.WasCompressed {
		t.Error("WasCompressed = false, want true")
	}
}

func TestParseTrailerChainFollowsPrev(t *testing.T) {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")
	firstXrefOff := b.Len()
	b.WriteString("xref\n0 3\n0000000000 65535 f \n0000000000 00000 n \n0000000000 00000 n \n")
	b.WriteString("trailer\n<< /Size 3 /Root 1 0 R /Info 9 0 R >>\n")
	b.WriteString("startxref\n0\n%%EOF\n")
	b.WriteString("3 0 obj\n<< /Modified true >>\nendobj\n")
	secondXrefOff := b.Len()
	b.WriteString("xref\n0 1\n0000000000 65535 f \n")
	b.WriteString("trailer\n<< /Size 3 /Root 3 0 R /Prev " + itoa(firstXrefOff) + " >>\n")
	b.WriteString("startxref\n" + itoa(secondXrefOff) + "\n%%EOF\n")

	trailer, err := parseTrailerChain([]byte(b.String()), true, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The newer trailer's own Root wins; Info (absent from the newer one)
	// is inherited from the older trailer via /Prev.
	if r, ok := trailer["Root"].(Ref); !ok || r.ID != 3 {
		t.Errorf("Root = %#v, want 3 0 R (the newer trailer's own value)", trailer["Root"])
	}
	if r, ok := trailer["Info"].(Ref); !ok || r.ID != 9 {
		t.Errorf("Info = %#v, want inherited 9 0 R", trailer["Info"])
	}
}
