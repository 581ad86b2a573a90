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

// Writer accumulates the serialized bytes of one document pass. It is the
// identity-aware io.Writer that object.go's writeDirect recognizes: any
// Dict/Array/*Stream value that the enumerator promoted to an indirect
// object is substituted with "ID GEN R" wherever it appears as a child of
// another value, instead of being written out in place.
type Writer struct {
	buf  *bytes.Buffer
	ids  map[uintptr]Ref
	seen map[uintptr]bool
}

// newWriter assigns sequential IDs (starting at 1, generation 0) to list in
// order — the enumerator already produced the order spec §4.F calls for.
func newWriter(list []Object) *Writer {
	ids := make(map[uintptr]Ref, len(list))
	for i, v := range list {
		if id, ok := identity(v); ok {
			ids[id] = Ref{ID: uint32(i + 1), Gen: 0}
		}
	}
	return &Writer{buf: &bytes.Buffer{}, ids: ids, seen: map[uintptr]bool{}}
}

// Write implements io.Writer so *Writer can be passed to any Object's PDF
// method directly.
func (w *Writer) Write(p []byte) (int, error) { return w.buf.Write(p) }

// refFor reports the assigned Ref for a value that the enumerator promoted
// to indirect, used by xref.go to label each object's "N 0 obj" header.
func (w *Writer) refFor(v Object) (Ref, bool) {
	id, ok := identity(v)
	if !ok {
		return Ref{}, false
	}
	ref, ok := w.ids[id]
	return ref, ok
}

// emit writes v, substituting "ID GEN R" for any value that was promoted
// to an indirect object, and erroring if a direct (non-indirect) composite
// is asked to emit twice across the whole pass — spec §4.G's no-double-emit
// rule. Scalars have no identity and are simply written every time.
func (w *Writer) emit(v Object) error {
	if v == nil {
		_, err := io.WriteString(w, "null")
		return err
	}
	if id, ok := identity(v); ok {
		if ref, isIndirect := w.ids[id]; isIndirect {
			_, err := fmt.Fprintf(w, "%d %d R", ref.ID, ref.Gen)
			return err
		}
		if w.seen[id] {
			return &DoubleEmitError{}
		}
		w.seen[id] = true
	}
	return v.PDF(w)
}

// withBuffer temporarily redirects w's output to buf for the duration of
// fn, then restores it — used by the object-stream packer to render a
// member object's body into its own sub-buffer while keeping the same
// identity/seen bookkeeping as the rest of the pass.
func (w *Writer) withBuffer(buf *bytes.Buffer, fn func() error) error {
	old := w.buf
	w.buf = buf
	defer func() { w.buf = old }()
	return fn()
}

// emitIndirectBody writes v's own direct representation — bypassing the
// substitution emit() would apply to v itself, since v is exactly the
// indirect object whose body is currently being written. Values nested
// inside v still go through emit() normally, via object.go's writeDirect.
func (w *Writer) emitIndirectBody(v Object) error {
	return v.PDF(w)
}
