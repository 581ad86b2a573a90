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
	"io"
)

// operatorToken is a content-stream operator keyword (Tj, re, BT, f, ...).
// It is not part of the core Value model — content streams are a small
// separate language of direct values plus operators — but it implements
// Object so the same writer plumbing can emit it.
type operatorToken string

func (o operatorToken) PDF(w io.Writer) error {
	_, err := io.WriteString(w, string(o))
	return err
}

// inlineImageToken carries an "ID ... EI" inline-image span verbatim,
// exactly as spec §4.C's edge case requires ("stored as an opaque Image
// token, not further parsed").
type inlineImageToken []byte

func (t inlineImageToken) PDF(w io.Writer) error {
	_, err := w.Write(t)
	return err
}

// parseContentStream tokenizes data as a content stream: a flat sequence
// of direct PDF values, bare operator keywords, and inline images. Unlike
// the object parser, there is no "obj"/"stream"/"R" composite lexeme here
// (spec §4.I: "without the indirect-object/stream keywords").
func parseContentStream(data []byte, decodeHex bool) ([]Object, error) {
	l := newLexer(data)
	var tokens []Object
	for {
		l.SkipWhiteSpace()
		if l.atEOF() {
			return tokens, nil
		}
		c := l.buf[l.pos]
		if c == '<' || c == '(' || c == '[' || c == '/' ||
			c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') ||
			l.looksLikeLiteralKeyword() {
			v, err := l.ReadObject(decodeHex)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, v)
			continue
		}
		start := l.pos
		l.ScanBytes(func(b byte) bool { return !isSpace[b] && !isDelimiter[b] })
		if l.pos == start {
			return nil, &ParseError{Offset: l.pos, Msg: "unrecognized content-stream token"}
		}
		op := string(l.buf[start:l.pos])
		if op == "ID" {
			img, err := readInlineImage(l, start)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, img)
			continue
		}
		tokens = append(tokens, operatorToken(op))
	}
}

// looksLikeLiteralKeyword reports whether the lexer is sitting at "true",
// "false" or "null" as a whole token, so parseContentStream routes it
// through ReadObject instead of treating it as a bare operator.
func (l *lexer) looksLikeLiteralKeyword() bool {
	for _, kw := range []string{"true", "false", "null"} {
		buf := l.Peek(len(kw))
		if bytes.Equal(buf, []byte(kw)) && l.tokenBoundaryAfter(len(kw)) {
			return true
		}
	}
	return false
}

// readInlineImage resumes just after the "ID" keyword has been consumed
// and captures everything from the start of that "ID" keyword (idStart)
// through the shortest "EI" terminator whose following byte is whitespace
// or end of input (spec §9's tolerance note for inline images). The "BI"
// operator and its key/value pairs before "ID" are separate tokens.
func readInlineImage(l *lexer, idStart int) (inlineImageToken, error) {
	if l.pos < len(l.buf) && isSpace[l.buf[l.pos]] {
		l.pos++
	}
	for {
		idx := bytes.Index(l.buf[l.pos:], []byte("EI"))
		if idx < 0 {
			return nil, &ParseError{Offset: idStart, Msg: "inline image missing EI terminator"}
		}
		eiStart := l.pos + idx
		after := eiStart + 2
		if after >= len(l.buf) || isSpace[l.buf[after]] {
			span := l.buf[idStart:after]
			l.pos = after
			return inlineImageToken(span), nil
		}
		l.pos = eiStart + 1
	}
}

// serializeContentStreamMinified renders tokens with minimum whitespace,
// wrapping before any line would reach 255 bytes and inserting a
// separating space only where juxtaposed tokens would otherwise merge
// (spec §4.G).
func serializeContentStreamMinified(tokens []Object) ([]byte, error) {
	buf := &bytes.Buffer{}
	lineLen := 0
	var prevByte byte
	hasPrev := false
	for _, tok := range tokens {
		tb := &bytes.Buffer{}
		if err := tok.PDF(tb); err != nil {
			return nil, err
		}
		s := tb.Bytes()
		if len(s) == 0 {
			continue
		}
		needSpace := hasPrev && !isDelimiter[prevByte] && !isDelimiter[s[0]]
		extra := 0
		if needSpace {
			extra = 1
		}
		if lineLen > 0 && lineLen+extra+len(s) >= 255 {
			buf.WriteByte('\n')
			lineLen = 0
			needSpace = false
		}
		if needSpace {
			buf.WriteByte(' ')
			lineLen++
		}
		buf.Write(s)
		lineLen += len(s)
		prevByte = s[len(s)-1]
		hasPrev = true
	}
	return buf.Bytes(), nil
}

// tokensEqual implements the minifier's structural-not-semantic equality
// check (spec §4.A): two token sequences are equal iff each pair's
// direct-object representation (the lexer's own output text) is byte
// identical.
func tokensEqual(a, b []Object) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if Format(a[i]) != Format(b[i]) {
			return false
		}
	}
	return true
}

// Minify replaces s's data with a minified re-serialization of its content
// stream, running the PARSE -> SERIALIZE -> VERIFY state machine of spec
// §4.I. A verification failure is fatal and leaves s untouched.
func Minify(s *Stream, decodeHex bool) error {
	original, err := parseContentStream(s.Data, decodeHex)
	if err != nil {
		return err
	}
	out, err := serializeContentStreamMinified(original)
	if err != nil {
		return err
	}
	reparsed, err := parseContentStream(out, decodeHex)
	if err != nil {
		return &RoundTripFailureError{Reason: "minified output failed to re-parse: " + err.Error()}
	}
	if !tokensEqual(original, reparsed) {
		return &RoundTripFailureError{Reason: "minified output does not match original token sequence"}
	}
	s.Data = out
	return nil
}
