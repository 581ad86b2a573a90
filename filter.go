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
	"io"
)

// filterFlateDecode is the one /Filter value this package decodes and
// encodes. PDF defines several more (LZWDecode, ASCII85Decode, DCTDecode,
// ...); per spec Non-goals, only FlateDecode is handled here. Any other
// filter name is passed through untouched, with a diagnostic, exactly as if
// /Filter were simply ignored.
const filterFlateDecode = "FlateDecode"

// decodeStream applies FlateDecode to s.Data in place if the stream's
// /Filter chain names it (spec §4.E). Multiple filters in the chain are a
// Non-goal; only a lone FlateDecode entry (string or one-element array) is
// recognized. Anything else is left alone and reported through diag.
func decodeStream(s *Stream, diag Diagnostics) error {
	name, rest, ok := soleFilter(s.Dict)
	if !ok {
		if name != "" {
			diag.warn("UnsupportedFilter", -1, "filter "+name+" left undecoded")
		}
		return nil
	}
	if name != filterFlateDecode {
		diag.warn("UnsupportedFilter", -1, "filter "+name+" left undecoded")
		return nil
	}
	r, err := zlib.NewReader(bytes.NewReader(s.Data))
	if err != nil {
		return &InflateFailureError{Err: err}
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return &InflateFailureError{Err: err}
	}
	s.Data = out
	s.Flags.WasCompressed = true
	delete(s.Dict, "Filter")
	delete(s.Dict, "DecodeParms")
	_ = rest
	return nil
}

// encodeStream compresses s.Data with FlateDecode at the best compression
// level and records the filter in the dict. It always compresses; whether a
// stream gets compressed at all is decided by its callers.
func encodeStream(s *Stream) error {
	buf := &bytes.Buffer{}
	zw, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return &DeflateFailureError{Err: err}
	}
	if _, err := zw.Write(s.Data); err != nil {
		zw.Close()
		return &DeflateFailureError{Err: err}
	}
	if err := zw.Close(); err != nil {
		return &DeflateFailureError{Err: err}
	}
	s.Data = buf.Bytes()
	s.Dict["Filter"] = Name(filterFlateDecode)
	delete(s.Dict, "DecodeParms")
	return nil
}

// soleFilter reports the single filter name governing s's data, if any.
// ok is false when there's no /Filter, or when /Filter names more than one
// filter (a chain), in which case name still carries the first entry for
// diagnostic purposes.
func soleFilter(d Dict) (name string, count int, ok bool) {
	switch f := d["Filter"].(type) {
	case Name:
		return f.String(), 1, true
	case Array:
		if len(f) == 0 {
			return "", 0, false
		}
		if n, isName := f[0].(Name); isName {
			name = n.String()
		}
		return name, len(f), len(f) == 1
	default:
		return "", 0, false
	}
}
