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
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	pst := time.FixedZone("PST", -8*60*60)
	got := FormatDate(time.Date(1998, 12, 23, 19, 52, 0, 0, pst))
	want := String("D:19981223195200-08'00'")
	if string(got) != string(want) {
		t.Errorf("FormatDate = %q, want %q", got, want)
	}
}

func TestFormatDateUTC(t *testing.T) {
	got := FormatDate(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	want := String("D:20000101000000+00'00'")
	if string(got) != string(want) {
		t.Errorf("FormatDate = %q, want %q", got, want)
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(1998, 12, 23, 19, 52, 0, 0, time.FixedZone("", -8*60*60)),
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 12, 24, 16, 30, 12, 0, time.FixedZone("", 90*60)),
	}
	for _, want := range cases {
		s := FormatDate(want)
		got, ok := ParseDate(s)
		if !ok {
			t.Errorf("ParseDate(%q) failed", s)
			continue
		}
		if !want.Equal(got) {
			t.Errorf("ParseDate(%q) = %s, want %s", s, got, want)
		}
	}
}

func TestParseDateTruncatedForms(t *testing.T) {
	cases := []string{
		"D:2020",
		"D:202012",
		"D:20201224",
		"D:2020122416",
		"D:202012241630",
	}
	for _, s := range cases {
		if _, ok := ParseDate(String(s)); !ok {
			t.Errorf("ParseDate(%q) failed, want a permitted truncated form to parse", s)
		}
	}
}

func TestApplyTimestampSetsModDateAndCreationDateOnce(t *testing.T) {
	doc := NewDocument()
	doc.Trailer["Info"] = Dict{"CreationDate": String("D:20190101000000")}

	t1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ApplyTimestamp(doc, t1, true)
	info := doc.Trailer["Info"].(Dict)
	if string(info["CreationDate"].(String)) != "D:20190101000000" {
		t.Error("CreationDate overwritten despite already being present")
	}
	if string(info["ModDate"].(String)) != string(FormatDate(t1)) {
		t.Errorf("ModDate = %q, want %q", info["ModDate"], FormatDate(t1))
	}

	t2 := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	ApplyTimestamp(doc, t2, false)
	if string(info["ModDate"].(String)) != string(FormatDate(t1)) {
		t.Error("ModDate changed despite set=false")
	}
}

func TestApplyTimestampCreatesInfoIfAbsent(t *testing.T) {
	doc := NewDocument()
	ApplyTimestamp(doc, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), true)
	info, ok := doc.Trailer["Info"].(Dict)
	if !ok {
		t.Fatal("Info not created")
	}
	if _, ok := info["CreationDate"]; !ok {
		t.Error("CreationDate not set on a fresh Info dict")
	}
}
