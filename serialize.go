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

import "time"

// SerializeFlags mirrors spec §6's document-level write flags.
type SerializeFlags struct {
	Compress, Decompress    bool
	Minify                  bool
	Optimize                bool
	NoCompress, NoMinify    bool
	NoObjectStreams         bool
	NoOptimize              bool
	UseObjectStreams        bool
	PreserveBinarySignature bool
	Validate                bool
	NoValidate              bool
}

type resolvedPolicy struct {
	compress         bool
	minify           bool
	useObjectStreams bool
}

// resolve applies spec §6's negation-wins rule: a "no_X" flag always beats
// the corresponding positive flag, regardless of which was set last.
func (f SerializeFlags) resolve() resolvedPolicy {
	p := resolvedPolicy{
		compress:         f.Compress,
		minify:           f.Minify,
		useObjectStreams: f.UseObjectStreams,
	}
	if f.Optimize {
		p.compress, p.minify, p.useObjectStreams = true, true, true
	}
	if f.Decompress {
		p.compress = false
	}
	if f.NoCompress {
		p.compress = false
	}
	if f.NoMinify {
		p.minify = false
	}
	if f.NoObjectStreams {
		p.useObjectStreams = false
	}
	if f.NoOptimize {
		p.compress, p.minify, p.useObjectStreams = false, false, false
	}
	return p
}

type validationMode int

const (
	validateWarn validationMode = iota
	validateFatal
	validateSkip
)

func (f SerializeFlags) validationMode() validationMode {
	switch {
	case f.NoValidate:
		return validateSkip
	case f.Validate:
		return validateFatal
	default:
		return validateWarn
	}
}

// Serialize writes doc to a byte-exact PDF file per spec §6. When
// setTimestamp is true, t is stamped into Info/CreationDate (if absent)
// and Info/ModDate; Serialize never reads the wall clock itself.
func Serialize(doc *Document, flags SerializeFlags, t time.Time, setTimestamp bool, diag Diagnostics) ([]byte, error) {
	mode := flags.validationMode()
	if mode != validateSkip {
		for _, p := range validate(doc) {
			if mode == validateFatal {
				return nil, &ValidationError{Msg: p}
			}
			diag.warn("ValidationError", -1, p)
		}
	}

	ApplyTimestamp(doc, t, setTimestamp)

	policy := flags.resolve()
	list := enumerate(doc)

	for _, v := range list {
		if s, ok := v.(*Stream); ok {
			if err := applyStreamPolicy(s, policy, doc.Version.supportsHexEscape(), diag); err != nil {
				return nil, err
			}
		}
	}

	w := newWriter(list)

	version := headerVersion(doc.Version, policy.useObjectStreams)

	if policy.useObjectStreams {
		return writeObjectStreamFormat(doc, list, w, version)
	}
	return writeClassicFormat(doc, list, w, version)
}

// headerVersion picks the "%PDF-1.N" declared in the output (spec §6: "N
// is chosen as max(5, requested) when object streams are enabled, else
// 4"). Classic format always declares 1.4 regardless of the parsed
// document's original version; object-stream format declares whichever is
// higher of 1.5 or the document's own version.
func headerVersion(requested Version, useObjectStreams bool) Version {
	if !useObjectStreams {
		return V1_4
	}
	if requested < V1_5 {
		return V1_5
	}
	return requested
}

// looksLikeContentStream distinguishes ordinary page/form content streams
// (candidates for minification) from streams with a declared role —
// images, object streams, metadata, fonts — which the minifier's
// value-plus-operator grammar isn't meant to touch. Spec §4.I scopes
// minification to content streams without saying how to recognize one in
// isolation; a stream carrying neither /Type nor /Subtype is the
// convention real PDF writers use for exactly that case.
func looksLikeContentStream(s *Stream) bool {
	_, hasType := s.Dict["Type"]
	_, hasSubtype := s.Dict["Subtype"]
	return !hasType && !hasSubtype
}

// applyStreamPolicy resolves s's effective compress/minify behavior from
// the document-wide policy and the stream's own flags (spec §3's
// StreamFlags override the document default), then applies it. A stream
// still carrying a /Filter that isn't a lone FlateDecode — an unsupported
// filter, or a filter chain — is left alone entirely: its bytes were never
// inflated on read (decodeStream, filter.go), so neither policy is
// meaningful. A lone FlateDecode stream, by contrast, was already inflated
// and had its /Filter entry removed by decodeStream, so this guard never
// actually fires for it; the check stays in terms of the filter rather than
// WasCompressed so a hand-built *Stream with a manually-set /Filter is
// covered too.
func applyStreamPolicy(s *Stream, policy resolvedPolicy, decodeHexOK bool, diag Diagnostics) error {
	if s.Dict["Filter"] != nil {
		if name, _, ok := soleFilter(s.Dict); !ok || name != filterFlateDecode {
			return nil
		}
	}

	if looksLikeContentStream(s) {
		wantMinify := policy.minify || s.Flags.UserWantMinify
		if wantMinify {
			if err := Minify(s, decodeHexOK); err != nil {
				return err
			}
		}
	}

	compress := policy.compress
	if s.Flags.UserWantCompress {
		compress = true
	}
	if s.Flags.UserWantDecompr {
		compress = false
	}
	if compress {
		return encodeStream(s)
	}
	return nil
}
