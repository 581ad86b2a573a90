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
	"strings"
	"time"
)

// FormatDate renders t as a PDF date string "(D:YYYYMMDDHHmmSS+hh'mm')"
// (spec §6). The offset is taken from t's own location, not the host
// clock — callers decide what timezone applies, e.g. by passing
// time.Unix(epoch, 0).UTC() or .In(loc).
func FormatDate(t time.Time) String {
	_, offset := t.Zone()
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	hh := offset / 3600
	mm := (offset % 3600) / 60
	s := fmt.Sprintf("D:%04d%02d%02d%02d%02d%02d%c%02d'%02d'",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), sign, hh, mm)
	return String(s)
}

// dateLayouts are the forms a PDF date string is allowed to shorten to,
// tried longest-first.
var dateLayouts = []string{
	"D:20060102150405-07:00",
	"D:20060102150405Z07:00",
	"D:20060102150405",
	"D:200601021504",
	"D:2006010215",
	"D:20060102",
	"D:200601",
	"D:2006",
}

// ParseDate parses a PDF date string back into a time.Time, accepting any
// of the permitted truncated forms. The "hh'mm'" offset punctuation is
// normalized to "hh:mm" before matching against a time.Parse layout.
func ParseDate(s String) (time.Time, bool) {
	raw := strings.NewReplacer("'", ":", ":Z", "Z").Replace(string(s))
	raw = strings.TrimSuffix(raw, ":")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ApplyTimestamp sets Info/ModDate (and Info/CreationDate, if absent) to
// the PDF-formatted form of t, per spec §6: "the caller passes an epoch
// time; a zero/false value suppresses any timestamp update." The caller is
// expected to be the external driver named in spec §1 — this package never
// reads the wall clock itself.
func ApplyTimestamp(doc *Document, t time.Time, set bool) {
	if !set {
		return
	}
	info, ok := doc.Trailer["Info"].(Dict)
	if !ok {
		info = Dict{}
		doc.Trailer["Info"] = info
	}
	if _, exists := info["CreationDate"]; !exists {
		info["CreationDate"] = FormatDate(t)
	}
	info["ModDate"] = FormatDate(t)
}
