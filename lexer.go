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
	"strconv"
)

// Whitespace and delimiter byte classes (spec §4.B).
var (
	isSpace = map[byte]bool{
		0x00: true,
		0x09: true,
		0x0A: true,
		0x0C: true,
		0x0D: true,
		0x20: true,
	}
	isDelimiter = map[byte]bool{
		'(': true,
		')': true,
		'<': true,
		'>': true,
		'[': true,
		']': true,
		'{': true,
		'}': true,
		'/': true,
		'%': true,
	}
)

// lexer is a byte-accurate cursor over an in-memory PDF buffer. Unlike the
// teacher's scanner (which reads from an io.ReaderAt in bounded windows,
// since its Reader works against an open file), this one works directly on
// the full []byte the core is handed (spec §5: "takes a byte slice").
type lexer struct {
	buf []byte
	pos int

	// lastLengthMismatch is set by readStreamData when it had to fall back
	// to scanning for "endstream" because /Length was absent, indirect, or
	// didn't land where declared. The caller (parse.go) reads and clears it
	// after each ReadIndirectObject to emit a LengthMismatch diagnostic.
	lastLengthMismatch bool
}

func newLexer(buf []byte) *lexer {
	return &lexer{buf: buf}
}

func (l *lexer) currentPos() int { return l.pos }

func (l *lexer) atEOF() bool { return l.pos >= len(l.buf) }

// Peek returns up to n bytes starting at the current position, without
// advancing. A short (possibly empty) slice is returned at end of buffer.
func (l *lexer) Peek(n int) []byte {
	end := l.pos + n
	if end > len(l.buf) {
		end = len(l.buf)
	}
	if l.pos > end {
		return nil
	}
	return l.buf[l.pos:end]
}

func (l *lexer) Discard(n int) error {
	if l.pos+n > len(l.buf) {
		return &ParseError{Offset: l.pos, Msg: "unexpected end of input"}
	}
	l.pos += n
	return nil
}

// ScanBytes advances the cursor over consecutive bytes accepted by fn,
// stopping at the first rejected byte or at end of buffer.
func (l *lexer) ScanBytes(accept func(byte) bool) {
	for l.pos < len(l.buf) && accept(l.buf[l.pos]) {
		l.pos++
	}
}

// SkipWhiteSpace consumes whitespace and "%" comments (spec §4.B).
func (l *lexer) SkipWhiteSpace() {
	inComment := false
	l.ScanBytes(func(c byte) bool {
		switch {
		case inComment:
			if c == '\r' || c == '\n' {
				inComment = false
			}
			return true
		case c == '%':
			inComment = true
			return true
		default:
			return isSpace[c]
		}
	})
}

func (l *lexer) SkipString(pat string) error {
	buf := l.Peek(len(pat))
	if !bytes.Equal(buf, []byte(pat)) {
		return &ParseError{Offset: l.pos, Msg: fmt.Sprintf("expected %q, found %q", pat, buf)}
	}
	l.pos += len(pat)
	return nil
}

// SkipAfter advances the cursor to just past the next occurrence of pat.
func (l *lexer) SkipAfter(pat string) error {
	idx := bytes.Index(l.buf[l.pos:], []byte(pat))
	if idx < 0 {
		return &ParseError{Offset: l.pos, Msg: fmt.Sprintf("%q not found", pat)}
	}
	l.pos += idx + len(pat)
	return nil
}

// ReadInteger reads a signed decimal integer (used for object numbers,
// generation numbers, and xref offsets, where a real number is never
// valid).
func (l *lexer) ReadInteger() (int64, error) {
	start := l.pos
	first := true
	l.ScanBytes(func(c byte) bool {
		ok := (first && (c == '+' || c == '-')) || (c >= '0' && c <= '9')
		first = false
		return ok
	})
	if l.pos == start {
		return 0, &ParseError{Offset: start, Msg: "expected integer"}
	}
	v, err := strconv.ParseInt(string(l.buf[start:l.pos]), 10, 64)
	if err != nil {
		return 0, &ParseError{Offset: start, Msg: "malformed integer", Err: err}
	}
	return v, nil
}

// ReadNumber reads a PDF number token: Integer if it matches
// /^[+-]?\d+$/, Real otherwise (spec §3). The returned Object preserves
// the exact literal text for bit-exact round-trip.
func (l *lexer) ReadNumber() (Object, error) {
	start := l.pos
	hasDot := false
	first := true
	l.ScanBytes(func(c byte) bool {
		switch {
		case c == '.' && !hasDot:
			hasDot = true
			return true
		case first && (c == '+' || c == '-'):
			first = false
			return true
		case c >= '0' && c <= '9':
			first = false
			return true
		default:
			return false
		}
	})
	if l.pos == start {
		return nil, &ParseError{Offset: start, Msg: "expected number"}
	}
	raw := string(l.buf[start:l.pos])
	if hasDot {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &ParseError{Offset: start, Msg: "malformed real", Err: err}
		}
		return newRawReal(v, raw), nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Integers that overflow int64 (rare, malformed generators) fall
		// back to a Real so parsing can still proceed.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return nil, &ParseError{Offset: start, Msg: "malformed integer", Err: err}
		}
		return newRawReal(f, raw), nil
	}
	return newRawInteger(v, raw), nil
}

// ReadName reads a name token, starting at the leading "/". Hex escapes
// (#HH) are decoded when decodeHex is true (the document declares PDF
// >= 1.2); otherwise "#" is treated as an ordinary byte (spec §3).
func (l *lexer) ReadName(decodeHex bool) (Name, error) {
	if err := l.SkipString("/"); err != nil {
		return "", err
	}
	var res []byte
	hexLeft := 0
	var hexVal byte
	l.ScanBytes(func(c byte) bool {
		if hexLeft > 0 {
			hexVal = hexVal<<4 | hexNibbleUpper(c)
			hexLeft--
			if hexLeft == 0 {
				res = append(res, hexVal)
			}
			return true
		}
		if decodeHex && c == '#' {
			hexLeft = 2
			hexVal = 0
			return true
		}
		if isSpace[c] || isDelimiter[c] {
			return false
		}
		res = append(res, c)
		return true
	})
	return Name(res), nil
}

func hexNibbleUpper(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}

// ReadQuotedString reads a balanced-parenthesis string literal, starting
// just after the opening "(". Escapes are resolved and CR/CRLF are
// normalized to LF (spec §3, §8 scenario 3).
func (l *lexer) ReadQuotedString() (String, error) {
	var res []byte
	depth := 0
	escape := false
	skipLF := false
	octalLeft := 0
	var octalVal byte
	ok := false
	l.ScanBytes(func(c byte) bool {
		if skipLF {
			skipLF = false
			if c == '\n' {
				return true
			}
		}
		if octalLeft > 0 {
			octalVal = octalVal*8 + (c - '0')
			octalLeft--
			if octalLeft == 0 {
				res = append(res, octalVal)
			}
			return true
		}
		if escape {
			escape = false
			switch c {
			case '\n':
				return true
			case '\r':
				skipLF = true
				return true
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			}
			if c >= '0' && c <= '7' {
				octalLeft = 2
				octalVal = c - '0'
				return true
			}
			res = append(res, c)
			return true
		}
		switch c {
		case '\\':
			escape = true
			return true
		case '(':
			depth++
		case ')':
			if depth == 0 {
				ok = true
				return false
			}
			depth--
		case '\r':
			c = '\n'
			skipLF = true
		}
		res = append(res, c)
		return true
	})
	if !ok {
		return nil, &ParseError{Offset: l.pos, Msg: "unterminated string literal"}
	}
	l.pos++ // consume the closing ")"
	return String(res), nil
}

// ReadHexString reads a hex-string literal, starting just after the
// opening "<". The result is normalized: lowercase, whitespace stripped,
// an odd trailing nibble padded with "0" (spec §3).
func (l *lexer) ReadHexString() (HexString, error) {
	var res []byte
	ok := false
	l.ScanBytes(func(c byte) bool {
		switch {
		case c == '>':
			ok = true
			return false
		case isSpace[c]:
			return true
		case (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'):
			res = append(res, c)
			return true
		case c >= 'A' && c <= 'F':
			res = append(res, c-'A'+'a')
			return true
		default:
			return false
		}
	})
	if !ok {
		return nil, &ParseError{Offset: l.pos, Msg: "unterminated hex string"}
	}
	l.pos++ // consume the closing ">"
	if len(res)%2 == 1 {
		res = append(res, '0')
	}
	return HexString(res), nil
}

// ReadArray reads an array, starting at the leading "[".
func (l *lexer) ReadArray(decodeHex bool) (Array, error) {
	if err := l.SkipString("["); err != nil {
		return nil, err
	}
	arr := Array{}
	for {
		l.SkipWhiteSpace()
		if bytes.Equal(l.Peek(1), []byte("]")) {
			l.pos++
			return arr, nil
		}
		if l.atEOF() {
			return nil, &ParseError{Offset: l.pos, Msg: "unterminated array"}
		}
		v, err := l.ReadObject(decodeHex)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// ReadDict reads a dictionary, starting at the leading "<<". It never
// consumes a following "stream" keyword — that is handled one level up, by
// ReadIndirectObject, since a bare Stream is only ever the body of an
// indirect object (spec invariant 2).
func (l *lexer) ReadDict(decodeHex bool) (Dict, error) {
	if err := l.SkipString("<<"); err != nil {
		return nil, err
	}
	d := Dict{}
	for {
		l.SkipWhiteSpace()
		if bytes.Equal(l.Peek(2), []byte(">>")) {
			l.pos += 2
			return d, nil
		}
		if l.atEOF() {
			return nil, &ParseError{Offset: l.pos, Msg: "unterminated dictionary"}
		}
		key, err := l.ReadName(decodeHex)
		if err != nil {
			return nil, err
		}
		l.SkipWhiteSpace()
		val, err := l.ReadObject(decodeHex)
		if err != nil {
			return nil, err
		}
		d[key] = val
	}
}

// refLookahead tries to read "M R" (generation, then the literal "R") after
// an already-consumed leading integer. On failure the cursor is restored to
// save so the caller can treat the first integer as a plain number.
func (l *lexer) refLookahead(save int) (gen uint16, ok bool) {
	mark := l.pos
	l.SkipWhiteSpace()
	genStart := l.pos
	genVal, err := l.ReadInteger()
	if err != nil || genVal < 0 || genVal > 0xffff {
		l.pos = save
		return 0, false
	}
	_ = genStart
	l.SkipWhiteSpace()
	if !bytes.Equal(l.Peek(1), []byte("R")) {
		l.pos = save
		return 0, false
	}
	after := l.Peek(2)
	if len(after) == 2 && !isSpace[after[1]] && !isDelimiter[after[1]] {
		l.pos = save
		return 0, false
	}
	l.pos++ // consume "R"
	_ = mark
	return uint16(genVal), true
}

// ReadObject reads one generic PDF value: the dispatcher for every context
// that isn't the top of an indirect object (arrays, dict values, and the
// entry point used to parse a standalone value).
func (l *lexer) ReadObject(decodeHex bool) (Object, error) {
	l.SkipWhiteSpace()
	if l.atEOF() {
		return nil, &ParseError{Offset: l.pos, Msg: "unexpected end of input"}
	}
	two := l.Peek(2)
	switch {
	case bytes.Equal(two, []byte("<<")):
		return l.ReadDict(decodeHex)
	case len(two) > 0 && two[0] == '<':
		l.pos++
		return l.ReadHexString()
	case len(two) > 0 && two[0] == '(':
		l.pos++
		return l.ReadQuotedString()
	case len(two) > 0 && two[0] == '[':
		return l.ReadArray(decodeHex)
	case len(two) > 0 && two[0] == '/':
		return l.ReadName(decodeHex)
	}
	if buf := l.Peek(4); bytes.Equal(buf, []byte("true")) && l.tokenBoundaryAfter(4) {
		l.pos += 4
		return Boolean(true), nil
	}
	if buf := l.Peek(5); bytes.Equal(buf, []byte("false")) && l.tokenBoundaryAfter(5) {
		l.pos += 5
		return Boolean(false), nil
	}
	if buf := l.Peek(4); bytes.Equal(buf, []byte("null")) && l.tokenBoundaryAfter(4) {
		l.pos += 4
		return Null{}, nil
	}
	c := l.buf[l.pos]
	if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
		save := l.pos
		num, err := l.ReadNumber()
		if err != nil {
			return nil, err
		}
		if i, isInt := num.(Integer); isInt && i.v >= 0 {
			if gen, ok := l.refLookahead(l.pos); ok {
				return Ref{ID: uint32(i.v), Gen: gen}, nil
			}
		}
		_ = save
		return num, nil
	}
	return nil, &ParseError{Offset: l.pos, Msg: fmt.Sprintf("unexpected byte %q", c)}
}

func (l *lexer) tokenBoundaryAfter(n int) bool {
	buf := l.Peek(n + 1)
	return len(buf) <= n || isSpace[buf[n]] || isDelimiter[buf[n]]
}

// ReadIndirectObject reads a complete "N M obj ... endobj" construct,
// starting at the leading digit of N. When the body is a dictionary
// immediately followed by the "stream" keyword, the result is a *Stream
// instead of a Dict (spec invariant 2).
func (l *lexer) ReadIndirectObject(decodeHex bool) (ref Ref, obj Object, err error) {
	start := l.pos
	id, err := l.ReadInteger()
	if err != nil || id < 0 {
		return Ref{}, nil, &InvalidIndirectError{Offset: start}
	}
	l.SkipWhiteSpace()
	gen, err := l.ReadInteger()
	if err != nil || gen < 0 {
		return Ref{}, nil, &InvalidIndirectError{Offset: start}
	}
	l.SkipWhiteSpace()
	if err := l.SkipString("obj"); err != nil {
		return Ref{}, nil, &InvalidIndirectError{Offset: start}
	}
	ref = Ref{ID: uint32(id), Gen: uint16(gen)}
	body, err := l.ReadObject(decodeHex)
	if err != nil {
		return ref, nil, err
	}
	l.SkipWhiteSpace()
	if dict, isDict := body.(Dict); isDict && bytes.Equal(l.Peek(6), []byte("stream")) {
		l.pos += 6
		data, fellBack, derr := l.readStreamData(dict)
		if derr != nil {
			return ref, nil, derr
		}
		if fellBack {
			l.lastLengthMismatch = true
		}
		body = &Stream{Dict: dict, Data: data}
	}
	l.SkipWhiteSpace()
	if err := l.SkipString("endobj"); err != nil {
		return ref, nil, &ParseError{Offset: l.pos, Msg: "missing endobj", Err: err}
	}
	return ref, body, nil
}

// readStreamData extracts the raw bytes between "stream" and "endstream".
// It trusts a direct (already-known) integer /Length when present and
// confirmed by "endstream" appearing where expected; otherwise — a missing
// Length, an indirect Length not yet resolvable during the forward scan, or
// a declared length that doesn't line up — it falls back to scanning
// forward for the literal "endstream" token (spec §4.E edge case: a
// declared length that undershoots or overshoots real data).
func (l *lexer) readStreamData(dict Dict) (data []byte, fellBack bool, err error) {
	if l.pos < len(l.buf) && l.buf[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.buf) && l.buf[l.pos] == '\n' {
		l.pos++
	}
	dataStart := l.pos

	if n, ok := dict["Length"].(Integer); ok && n.v >= 0 {
		end := dataStart + int(n.v)
		if end <= len(l.buf) {
			probe := end
			for probe < len(l.buf) && isSpace[l.buf[probe]] {
				probe++
			}
			if bytes.HasPrefix(l.buf[probe:], []byte("endstream")) {
				data := l.buf[dataStart:end]
				l.pos = probe + len("endstream")
				return data, false, nil
			}
		}
	}

	idx := bytes.Index(l.buf[dataStart:], []byte("endstream"))
	if idx < 0 {
		return nil, false, &StreamTruncatedError{Offset: dataStart}
	}
	end := dataStart + idx
	data = l.buf[dataStart:end]
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
		if n := len(data); n > 0 && data[n-1] == '\r' {
			data = data[:n-1]
		}
	}
	l.pos = end + len("endstream")
	return data, true, nil
}
