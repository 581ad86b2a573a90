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
	"fmt"

	"github.com/midbel/hexdump"
)

// The error kinds of spec §7. Each is a distinct type so callers can match
// on it with errors.As. Errors met while reading the header or the newest
// trailer are fatal, and so are StreamTruncatedError and InflateFailureError
// met in the forward object scan (parse.go). Two cases are reported as
// ValidationError warnings instead: a broken link further down the /Prev
// trailer chain, which ends the chain, and a candidate object in the
// forward scan that fails to parse for any other reason (ParseError,
// InvalidIndirectError), which is skipped. LengthMismatch and
// UnresolvedReference are always warnings delivered through Diagnostics; a
// problem found by the validation pass is a warning unless the caller set
// the validate flag, which makes it a returned *ValidationError.

// ParseError reports a lexing or parsing failure at a specific byte offset.
// Excerpt, when set by annotateWithExcerpt, carries a short hex dump of the
// bytes surrounding Offset so a human reading the error can see what the
// lexer choked on without reopening the file.
type ParseError struct {
	Offset  int
	Msg     string
	Err     error
	Excerpt string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("pdf: parse error at byte %d: %s", e.Offset, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Excerpt != "" {
		msg += "\n" + e.Excerpt
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// annotateWithExcerpt attaches a hex dump of buf around a *ParseError's
// offset, if err is one. Other fatal error kinds (MalformedHeaderError,
// TrailerMissingError, ...) carry no byte offset and are returned as-is.
func annotateWithExcerpt(err error, buf []byte) error {
	if pe, ok := err.(*ParseError); ok && pe.Excerpt == "" {
		pe.Excerpt = hexExcerpt(buf, pe.Offset)
	}
	return err
}

// MalformedHeaderError reports a missing or unrecognized "%PDF-" header or
// "%%EOF" marker.
type MalformedHeaderError struct {
	Msg string
}

func (e *MalformedHeaderError) Error() string { return "pdf: malformed header: " + e.Msg }

// TrailerMissingError reports that no trailer dictionary could be found.
type TrailerMissingError struct{}

func (e *TrailerMissingError) Error() string { return "pdf: no trailer found" }

// InvalidIndirectError reports an "R" or "obj" keyword not preceded by two
// integers.
type InvalidIndirectError struct {
	Offset int
}

func (e *InvalidIndirectError) Error() string {
	return fmt.Sprintf("pdf: invalid indirect-object header at byte %d", e.Offset)
}

// StreamTruncatedError reports that no "endstream" could be located.
type StreamTruncatedError struct {
	Offset int
}

func (e *StreamTruncatedError) Error() string {
	return fmt.Sprintf("pdf: stream truncated (no endstream) starting at byte %d", e.Offset)
}

// InflateFailureError reports a zlib error while decoding a FlateDecode
// stream.
type InflateFailureError struct {
	Err error
}

func (e *InflateFailureError) Error() string { return "pdf: inflate failed: " + e.Err.Error() }
func (e *InflateFailureError) Unwrap() error { return e.Err }

// DeflateFailureError reports a zlib error while encoding a FlateDecode
// stream.
type DeflateFailureError struct {
	Err error
}

func (e *DeflateFailureError) Error() string { return "pdf: deflate failed: " + e.Err.Error() }
func (e *DeflateFailureError) Unwrap() error { return e.Err }

// RoundTripFailureError reports that a minified content stream failed to
// re-parse identically to the original (spec §4.I, §8 property 2).
type RoundTripFailureError struct {
	Reason string
}

func (e *RoundTripFailureError) Error() string {
	return "pdf: minified content stream failed round-trip check: " + e.Reason
}

// DoubleEmitError reports that the writer was asked to emit the same
// direct (non-indirect) value twice within one serialization pass.
type DoubleEmitError struct{}

func (e *DoubleEmitError) Error() string {
	return "pdf: programmer error: direct value emitted twice in one serialization pass"
}

// Diagnostic is a non-fatal warning delivered through a Diagnostics sink
// (spec §7: "warnings are written to a diagnostics channel with filename
// ... and byte offset").
type Diagnostic struct {
	Kind   string // "LengthMismatch", "UnresolvedReference", "ValidationError", ...
	Offset int    // -1 if not known
	Msg    string
}

func (d Diagnostic) String() string {
	if d.Offset < 0 {
		return fmt.Sprintf("%s: %s", d.Kind, d.Msg)
	}
	return fmt.Sprintf("%s at byte %d: %s", d.Kind, d.Offset, d.Msg)
}

// Diagnostics receives warnings produced during parsing or serialization.
// A nil Diagnostics discards warnings (equivalent to spec's default "warn"
// policy with nowhere to send the warning).
type Diagnostics func(Diagnostic)

func (diag Diagnostics) warn(kind string, offset int, msg string) {
	if diag != nil {
		diag(Diagnostic{Kind: kind, Offset: offset, Msg: msg})
	}
}

// hexExcerpt renders a short hex dump of buf around offset, for attaching
// to fatal parse errors so a human can see what the lexer choked on.
func hexExcerpt(buf []byte, offset int) string {
	const window = 32
	start := offset - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(buf) {
		end = len(buf)
	}
	if start >= end {
		return ""
	}
	return hexdump.Dump(buf[start:end])
}
