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
	"strconv"
)

// parseFile turns a complete in-memory PDF file into a Document whose
// Trailer and registry are populated but not yet resolved (Ref placeholders
// still stand in for indirect references — resolveDocument patches those).
//
// Per spec §4.C the cross-reference table's byte offsets are never trusted
// for locating objects: "startxref" and "/Prev" are followed only to
// recover the trailer dictionary chain (Root, Info, Size, ID, Encrypt). The
// actual object bodies are found by a linear forward scan of the whole
// buffer for "N M obj" headers, in the spirit of the teacher's
// ReadSequential fallback scanner (reader.go) — which means a later
// definition of the same object number (as produced by an incrementally
// updated file) naturally overrides an earlier one, without needing to
// walk the xref chain's /Prev links to do it.
func parseFile(buf []byte, diag Diagnostics) (*Document, error) {
	version, hasSig, headerEnd, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Version:            version,
		HasBinarySignature: hasSig,
		registry:           map[Ref]Object{},
	}

	trailer, err := parseTrailerChain(buf, version.supportsHexEscape(), diag)
	if err != nil {
		return nil, annotateWithExcerpt(err, buf)
	}
	doc.Trailer = trailer

	if err := forwardScan(buf, headerEnd, version.supportsHexEscape(), doc, diag); err != nil {
		return nil, annotateWithExcerpt(err, buf)
	}

	return doc, nil
}

// parseHeader validates the "%PDF-1.N" signature and reports whether a
// binary marker comment follows it (spec §6).
func parseHeader(buf []byte) (version Version, hasSig bool, headerEnd int, err error) {
	const prefix = "%PDF-1."
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0, false, 0, &MalformedHeaderError{Msg: "missing %PDF- signature"}
	}
	pos := len(prefix)
	digitStart := pos
	for pos < len(buf) && buf[pos] >= '0' && buf[pos] <= '9' {
		pos++
	}
	if pos == digitStart {
		return 0, false, 0, &MalformedHeaderError{Msg: "unparseable version number"}
	}
	minor, _ := strconv.Atoi(string(buf[digitStart:pos]))
	version = V1_0 + Version(minor)
	if version < V1_0 || version >= maxVersion {
		return 0, false, 0, &MalformedHeaderError{Msg: "unsupported PDF version 1." + string(buf[digitStart:pos])}
	}

	idx := bytes.IndexByte(buf[pos:], '\n')
	if idx < 0 {
		return version, false, len(buf), nil
	}
	lineEnd := pos + idx + 1
	hasSig = bytes.HasPrefix(buf[lineEnd:], []byte("%"))
	return version, hasSig, lineEnd, nil
}

// parseTrailerChain finds the last "startxref" in the file, loads the
// trailer dictionary at the offset it names, and follows "/Prev" to merge
// in earlier trailers. When nothing parseable sits at the named offset, the
// last classic "xref" section before the final "startxref" keyword is used
// instead; no search for the section nearest the offset is made. Per spec §4.C,
// keys already set by a later (newer) trailer in the chain win; /Prev,
// /XRefStm and cross-reference-stream-only keys (/W, /Index, /Filter, ...)
// are never copied into the merged result.
func parseTrailerChain(buf []byte, decodeHex bool, diag Diagnostics) (Dict, error) {
	startOffset := lastStartxref(buf)
	if startOffset < 0 {
		return nil, &TrailerMissingError{}
	}
	if _, _, err := parseOneTrailer(buf, startOffset, decodeHex, nil); err != nil {
		kw := bytes.LastIndex(buf, []byte("startxref"))
		if alt := bytes.LastIndex(buf[:kw], []byte("\nxref")); alt >= 0 {
			startOffset = alt + 1
		}
	}

	merged := Dict{}
	visited := map[int]bool{}
	offset := startOffset
	for offset >= 0 && offset < len(buf) && !visited[offset] {
		visited[offset] = true
		trailer, prev, streamErr := parseOneTrailer(buf, offset, decodeHex, diag)
		if streamErr != nil {
			if len(merged) == 0 {
				return nil, streamErr
			}
			diag.warn("ValidationError", offset, "broken xref chain: "+streamErr.Error())
			break
		}
		for k, v := range trailer {
			switch k {
			case "Prev", "XRefStm", "W", "Index", "Filter", "DecodeParms", "Length":
				continue
			}
			if _, exists := merged[k]; !exists {
				merged[k] = v
			}
		}
		offset = prev
	}
	if _, ok := merged["Root"]; !ok {
		diag.warn("ValidationError", startOffset, "trailer has no /Root")
	}
	return merged, nil
}

// lastStartxref returns the byte offset named by the last "startxref"
// keyword in the file, or -1 if none is found.
func lastStartxref(buf []byte) int {
	const kw = "startxref"
	idx := bytes.LastIndex(buf, []byte(kw))
	if idx < 0 {
		return -1
	}
	l := newLexer(buf)
	l.pos = idx + len(kw)
	l.SkipWhiteSpace()
	n, err := l.ReadInteger()
	if err != nil || n < 0 || int(n) > len(buf) {
		return -1
	}
	return int(n)
}

// parseOneTrailer reads either a classic "xref ... trailer <<...>>" section
// or a PDF 1.5 cross-reference stream object at offset, returning its
// trailer-equivalent dict and the offset named by /Prev (-1 if absent).
func parseOneTrailer(buf []byte, offset int, decodeHex bool, diag Diagnostics) (Dict, int, error) {
	l := newLexer(buf)
	l.pos = offset
	l.SkipWhiteSpace()

	if bytes.HasPrefix(l.buf[l.pos:], []byte("xref")) {
		l.pos += 4
		if err := skipClassicXrefSections(l); err != nil {
			return nil, -1, err
		}
		l.SkipWhiteSpace()
		if err := l.SkipString("trailer"); err != nil {
			return nil, -1, &TrailerMissingError{}
		}
		l.SkipWhiteSpace()
		dict, err := l.ReadDict(decodeHex)
		if err != nil {
			return nil, -1, err
		}
		return dict, prevOf(dict), nil
	}

	// Otherwise this must be "N G obj << /Type /XRef ... >> stream ...".
	_, obj, err := l.ReadIndirectObject(decodeHex)
	if err != nil {
		return nil, -1, err
	}
	stream, ok := obj.(*Stream)
	if !ok {
		return nil, -1, &TrailerMissingError{}
	}
	if n, isName := stream.Dict["Type"].(Name); !isName || n.String() != "XRef" {
		diag.warn("ValidationError", offset, "object at xref offset is not a cross-reference stream")
	}
	dict := Dict{}
	for _, key := range []Name{"Root", "Info", "Size", "ID", "Encrypt"} {
		if v, ok := stream.Dict[key]; ok {
			dict[key] = v
		}
	}
	return dict, prevOf(stream.Dict), nil
}

func prevOf(d Dict) int {
	if n, ok := d["Prev"].(Integer); ok && n.v >= 0 {
		return int(n.v)
	}
	return -1
}

// skipClassicXrefSections advances past one or more "first count\nentries"
// subsections of a classic xref table. Entries are fixed 20-byte records;
// their offsets are discarded (spec §4.C).
func skipClassicXrefSections(l *lexer) error {
	for {
		l.SkipWhiteSpace()
		save := l.pos
		first, err := l.ReadInteger()
		if err != nil {
			l.pos = save
			return nil
		}
		l.SkipWhiteSpace()
		count, err := l.ReadInteger()
		if err != nil {
			l.pos = save
			return nil
		}
		_ = first
		l.SkipWhiteSpace()
		for i := int64(0); i < count; i++ {
			entry := l.Peek(20)
			if len(entry) < 18 {
				return &ParseError{Offset: l.pos, Msg: "truncated xref entry"}
			}
			if err := l.Discard(20); err != nil {
				// Some writers use 19-byte entries (LF-only line ending).
				l.pos = save
				return &ParseError{Offset: l.pos, Msg: "truncated xref subsection"}
			}
		}
	}
}

// forwardScan walks buf from start to end, registering every "N M obj"
// construct it finds into doc.registry, skipping over xref/trailer/
// startxref sections which aren't objects. Object streams are unpacked
// immediately so their member objects join the same registry (spec §4.C).
func forwardScan(buf []byte, start int, decodeHex bool, doc *Document, diag Diagnostics) error {
	l := newLexer(buf)
	l.pos = start
	for !l.atEOF() {
		l.SkipWhiteSpace()
		if l.atEOF() {
			break
		}
		switch {
		case bytes.HasPrefix(l.buf[l.pos:], []byte("xref")):
			l.pos += 4
			if skipClassicXrefSections(l) != nil {
				l.pos++
				continue
			}
			l.SkipWhiteSpace()
			if bytes.HasPrefix(l.buf[l.pos:], []byte("trailer")) {
				l.pos += len("trailer")
				l.SkipWhiteSpace()
				if _, err := l.ReadDict(decodeHex); err != nil {
					l.pos++
				}
			}
			continue
		case bytes.HasPrefix(l.buf[l.pos:], []byte("trailer")):
			l.pos += len("trailer")
			l.SkipWhiteSpace()
			if _, err := l.ReadDict(decodeHex); err != nil {
				l.pos++
			}
			continue
		case bytes.HasPrefix(l.buf[l.pos:], []byte("startxref")):
			l.pos += len("startxref")
			l.SkipWhiteSpace()
			l.ReadInteger()
			continue
		case bytes.HasPrefix(l.buf[l.pos:], []byte("%%EOF")):
			l.pos += len("%%EOF")
			continue
		}

		c := l.buf[l.pos]
		if c < '0' || c > '9' {
			l.pos++ // resync: not the start of an object header
			continue
		}

		l.lastLengthMismatch = false
		save := l.pos
		ref, obj, err := l.ReadIndirectObject(decodeHex)
		if err != nil {
			if _, truncated := err.(*StreamTruncatedError); truncated {
				return err
			}
			diag.warn("ValidationError", save, "skipping unparseable object: "+err.Error())
			l.pos = save + 1
			continue
		}
		if l.lastLengthMismatch {
			diag.warn("LengthMismatch", save, "stream /Length did not match endstream position")
		}
		doc.registry[ref] = obj

		if stream, ok := obj.(*Stream); ok {
			// Inflate immediately (spec §4.C, §4.E): every stream's raw bytes
			// are stored post-inflation when the filter is FlateDecode, not
			// just the ones that happen to be object streams.
			if err := decodeStream(stream, diag); err != nil {
				return err
			}
			if n, isName := stream.Dict["Type"].(Name); isName && n.String() == "ObjStm" {
				if err := unpackObjectStream(stream, decodeHex, doc, diag); err != nil {
					diag.warn("ValidationError", save, "failed to unpack object stream: "+err.Error())
				}
			}
		}
	}
	return nil
}

// unpackObjectStream decodes an /ObjStm and registers each object it
// contains by the ID given in its header pairs; generation is always 0 for
// objects packed into a stream (spec §4.C, §8 scenario 6).
func unpackObjectStream(stream *Stream, decodeHex bool, doc *Document, diag Diagnostics) error {
	// forwardScan already inflated stream before calling here; decodeStream
	// is idempotent (it no-ops once /Filter is gone), so this stays safe
	// even if a future caller passes in a stream that wasn't pre-decoded.
	if err := decodeStream(stream, diag); err != nil {
		return err
	}
	n, ok := stream.Dict["N"].(Integer)
	if !ok {
		return &ParseError{Msg: "object stream missing /N"}
	}
	first, ok := stream.Dict["First"].(Integer)
	if !ok {
		return &ParseError{Msg: "object stream missing /First"}
	}

	hl := newLexer(stream.Data[:first.v])
	type pair struct{ id, off int64 }
	pairs := make([]pair, 0, n.v)
	for i := int64(0); i < n.v; i++ {
		hl.SkipWhiteSpace()
		id, err := hl.ReadInteger()
		if err != nil {
			return err
		}
		hl.SkipWhiteSpace()
		off, err := hl.ReadInteger()
		if err != nil {
			return err
		}
		pairs = append(pairs, pair{id, off})
	}

	for i, p := range pairs {
		bodyStart := first.v + p.off
		var bodyEnd int64 = int64(len(stream.Data))
		if i+1 < len(pairs) {
			bodyEnd = first.v + pairs[i+1].off
		}
		if bodyStart < 0 || bodyEnd > int64(len(stream.Data)) || bodyStart > bodyEnd {
			diag.warn("ValidationError", -1, "object stream member out of range")
			continue
		}
		vl := newLexer(stream.Data[bodyStart:bodyEnd])
		obj, err := vl.ReadObject(decodeHex)
		if err != nil {
			diag.warn("ValidationError", -1, "unparseable object stream member")
			continue
		}
		ref := Ref{ID: uint32(p.id), Gen: 0}
		if _, already := doc.registry[ref]; !already {
			doc.registry[ref] = obj
		}
	}
	return nil
}
