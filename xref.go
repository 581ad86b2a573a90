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
	"fmt"
	"io"
)

// indirectRefLiteral writes an unconditional "N 0 R". Unlike Ref — whose
// PDF method assumes an unresolved reference and parenthesizes it as
// "(N 0 R)" (object.go) — /Extends always links to a container object
// that really was written, so it needs the plain indirect-reference form
// regardless of what the Writer's identity bookkeeping knows about it.
type indirectRefLiteral struct{ id uint32 }

func (r indirectRefLiteral) PDF(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d 0 R", r.id)
	return err
}

// writeHeader emits "%PDF-1.N\n%<signature>\n\n" (spec §6's file-format
// line). The signature is always the default four high-bit marker bytes —
// PreserveBinarySignature would require capturing the original document's
// exact marker bytes during Parse, which this implementation does not do
// (see DESIGN.md).
func writeHeader(w *Writer, version Version, withSignature bool) {
	fmt.Fprintf(w, "%%PDF-1.%d\n", int(version-V1_0))
	if withSignature {
		w.Write([]byte{'%'})
		w.Write(defaultBinarySignature[:])
		io.WriteString(w, "\n")
	}
	io.WriteString(w, "\n")
}

// writeClassicFormat implements spec §4.H.H1: every indirect object
// written sequentially, followed by a classic ASCII cross-reference table
// and a "trailer <<...>>" dictionary.
func writeClassicFormat(doc *Document, list []Object, w *Writer, version Version) ([]byte, error) {
	writeHeader(w, version, true)

	offsets := make([]int, len(list)+1)
	for _, v := range list {
		ref, ok := w.refFor(v)
		if !ok {
			continue
		}
		offsets[ref.ID] = w.buf.Len()
		fmt.Fprintf(w, "%d %d obj\n", ref.ID, ref.Gen)
		if err := w.emitIndirectBody(v); err != nil {
			return nil, err
		}
		io.WriteString(w, "\nendobj\n\n")
	}

	xrefOffset := w.buf.Len()
	io.WriteString(w, "xref\n")
	fmt.Fprintf(w, "0 %d\n", len(list)+1)
	io.WriteString(w, "0000000000 65535 f \n")
	for i := 1; i <= len(list); i++ {
		fmt.Fprintf(w, "%010d 00000 n \n", offsets[i])
	}

	doc.Trailer["Size"] = NewInteger(int64(len(list) + 1))
	delete(doc.Trailer, "Prev")
	io.WriteString(w, "trailer\n")
	if err := doc.Trailer.PDF(w); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return w.buf.Bytes(), nil
}

// xrefEntry is one row of a PDF 1.5 cross-reference stream, in the
// uncompressed field layout before W-width packing: type 0 is the free
// list head, type 1 is "byte_offset, 0" and type 2 is "objstm_id, index".
type xrefEntry struct {
	typ  int
	a, b int
}

// writeObjectStreamFormat implements spec §4.H.H2: non-stream indirect
// objects are packed into one or more /ObjStm streams, streams (and the
// encryption dictionary, if any) are written directly, and the whole
// index is a single compressed /XRef stream object instead of a classic
// table plus trailer dictionary.
func writeObjectStreamFormat(doc *Document, list []Object, w *Writer, version Version) ([]byte, error) {
	writeHeader(w, version, true)

	encryptID, hasEncrypt := identity(doc.Trailer["Encrypt"])

	entries := make([]xrefEntry, len(list)+1)
	entries[0] = xrefEntry{0, 0, 65535}
	nextID := uint32(len(list) + 1)

	const maxPerObjStm = 65535
	const maxObjStmBytes = 1 << 20

	var pending []Object
	var pendingRefs []Ref
	pendingSize := 0
	prevContainer := uint32(0)
	haveContainer := false

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		headerBuf := &bytes.Buffer{}
		bodyBuf := &bytes.Buffer{}
		bodyOffsets := make([]int, len(pending))
		for i, v := range pending {
			bodyOffsets[i] = bodyBuf.Len()
			if err := w.withBuffer(bodyBuf, func() error { return v.PDF(w) }); err != nil {
				return err
			}
			bodyBuf.WriteByte(' ')
		}
		for i, ref := range pendingRefs {
			fmt.Fprintf(headerBuf, "%d %d ", ref.ID, bodyOffsets[i])
		}

		containerID := nextID
		nextID++
		dict := Dict{
			"Type":  Name("ObjStm"),
			"N":     NewInteger(int64(len(pending))),
			"First": NewInteger(int64(headerBuf.Len())),
		}
		if haveContainer {
			dict["Extends"] = indirectRefLiteral{id: prevContainer}
		}
		stream := &Stream{Dict: dict, Data: append(headerBuf.Bytes(), bodyBuf.Bytes()...)}
		if err := encodeStream(stream); err != nil {
			return err
		}

		offset := w.buf.Len()
		fmt.Fprintf(w, "%d 0 obj\n", containerID)
		if err := stream.PDF(w); err != nil {
			return err
		}
		io.WriteString(w, "\nendobj\n\n")

		entries = append(entries, xrefEntry{1, offset, 0})
		for i, ref := range pendingRefs {
			entries[ref.ID] = xrefEntry{2, int(containerID), i}
		}
		prevContainer, haveContainer = containerID, true
		pending, pendingRefs, pendingSize = nil, nil, 0
		return nil
	}

	for _, v := range list {
		ref, ok := w.refFor(v)
		if !ok {
			continue
		}
		_, isStream := v.(*Stream)
		id, _ := identity(v)
		packable := !isStream && !(hasEncrypt && id == encryptID)

		if packable {
			size := len(Format(v))
			if len(pending) >= maxPerObjStm || pendingSize+size > maxObjStmBytes {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			pending = append(pending, v)
			pendingRefs = append(pendingRefs, ref)
			pendingSize += size
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		offset := w.buf.Len()
		fmt.Fprintf(w, "%d %d obj\n", ref.ID, ref.Gen)
		if err := w.emitIndirectBody(v); err != nil {
			return nil, err
		}
		io.WriteString(w, "\nendobj\n\n")
		entries[ref.ID] = xrefEntry{1, offset, 0}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	xrefID := nextID
	entries = append(entries, xrefEntry{}) // placeholder; this object's own entry
	xrefOffset := w.buf.Len()
	entries[xrefID] = xrefEntry{1, xrefOffset, 0}

	data := encodeXrefEntries(entries)
	dict := Dict{
		"Type":  Name("XRef"),
		"Size":  NewInteger(int64(len(entries))),
		"W":     Array{NewInteger(1), NewInteger(4), NewInteger(2)},
		"Index": Array{NewInteger(0), NewInteger(int64(len(entries)))},
	}
	for _, k := range []Name{"Root", "Info", "ID", "Encrypt"} {
		if v, ok := doc.Trailer[k]; ok {
			dict[k] = v
		}
	}
	stream := &Stream{Dict: dict, Data: data}
	if err := encodeStream(stream); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "%d 0 obj\n", xrefID)
	if err := stream.PDF(w); err != nil {
		return nil, err
	}
	io.WriteString(w, "\nendobj\n\n")

	fmt.Fprintf(w, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return w.buf.Bytes(), nil
}

// encodeXrefEntries packs entries into the fixed field widths W=[1,4,2]
// (spec §4.H.H2): one type byte, a 4-byte big-endian second field, a
// 2-byte big-endian third field.
func encodeXrefEntries(entries []xrefEntry) []byte {
	out := make([]byte, 0, len(entries)*7)
	for _, e := range entries {
		out = append(out, byte(e.typ))
		out = append(out, byte(e.a>>24), byte(e.a>>16), byte(e.a>>8), byte(e.a))
		out = append(out, byte(e.b>>8), byte(e.b))
	}
	return out
}
