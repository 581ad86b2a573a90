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

	"golang.org/x/text/language"
)

// Document is the parsed, fully-resolved in-memory form of a PDF file: a
// trailer dictionary whose values (after resolution) may reach arbitrarily
// into a graph of Dict, Array and *Stream nodes linked by direct Go
// references rather than by Ref placeholders (identity.go).
type Document struct {
	Version            Version
	Trailer            Dict
	HasBinarySignature bool

	// registry holds every indirect object the parser found, keyed by its
	// original (id, gen), plus anything added with Register. It survives
	// resolution so Walk can see objects that are no longer reachable from
	// the trailer (e.g. after editing). Neither validation nor the
	// serializer's enumerator reads it: what becomes indirect on output is
	// decided from the graph reachable from Trailer alone.
	registry map[Ref]Object
	nextID   uint32
}

// NewDocument returns an empty document with a minimal trailer, suitable
// for building a PDF from scratch. Callers are expected to populate
// Trailer["Root"] with a catalog Dict; Serialize does not resolve a Ref
// stored there.
func NewDocument() *Document {
	return &Document{
		Version:  V1_7,
		Trailer:  Dict{},
		registry: map[Ref]Object{},
	}
}

// Register assigns the next free object number to v and records it in the
// document's registry, returning the Ref under which Walk reports it. It
// has no effect on serialization: the enumerator (enumerate.go) decides
// what becomes indirect from the graph shape alone, and a Ref placed in the
// graph is written as the unresolved-reference literal "(N G R)".
func (d *Document) Register(v Object) Ref {
	for {
		d.nextID++
		if _, taken := d.registry[Ref{ID: d.nextID, Gen: 0}]; !taken {
			break
		}
	}
	ref := Ref{ID: d.nextID, Gen: 0}
	d.registry[ref] = v
	return ref
}

// Walk calls fn once for every indirect object currently known to the
// document (supplemental convenience beyond the original spec scope: a
// read-only streaming view over the registry, useful for inspection tools
// without requiring a full Serialize round-trip).
func (d *Document) Walk(fn func(ref Ref, obj Object)) {
	for ref, obj := range d.registry {
		fn(ref, obj)
	}
}

// Root returns the document catalog, i.e. Trailer["Root"] resolved to a
// Dict, or nil if absent or not a dictionary.
func (d *Document) Root() Dict {
	root, _ := d.Trailer["Root"].(Dict)
	return root
}

// Lang returns the catalog's /Lang entry as a parsed BCP 47 tag, and
// whether one was present and well-formed. A malformed tag is reported as
// a ValidationError diagnostic during Parse rather than as a hard failure
// (spec §7 treats structural oddities in optional catalog entries as
// warnings, not fatal errors).
func (d *Document) Lang() (language.Tag, bool) {
	root := d.Root()
	if root == nil {
		return language.Und, false
	}
	s, ok := root["Lang"].(String)
	if !ok || len(s) == 0 {
		return language.Und, false
	}
	tag, err := language.Parse(string(s))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// SetLang sets the catalog's /Lang entry from a BCP 47 tag.
func (d *Document) SetLang(tag language.Tag) {
	root := d.Root()
	if root == nil {
		return
	}
	root["Lang"] = String(tag.String())
}

// ParseFlags controls optional behavior of Parse (spec §6's document-level
// flags, as they apply on the read side).
type ParseFlags struct {
	// Validate makes structural validation errors (see validate.go) fatal
	// instead of warnings.
	Validate bool
}

// Parse reads buf as a complete PDF file and returns the resolved document.
// The returned error is one of the fatal kinds from errors.go, or a
// *ValidationError when flags.Validate is set and validation finds a
// problem; all other recoverable oddities are reported through diag.
func Parse(buf []byte, flags ParseFlags, diag Diagnostics) (*Document, error) {
	doc, err := parseFile(buf, diag)
	if err != nil {
		return nil, err
	}
	resolveDocument(doc, diag)
	problems := validate(doc)
	for _, p := range problems {
		if flags.Validate {
			return nil, &ValidationError{Msg: p}
		}
		diag.warn("ValidationError", -1, p)
	}
	return doc, nil
}

// ValidationError reports a structural problem found by validate() when
// ParseFlags.Validate or SerializeFlags.Validate asked for it to be fatal.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "pdf: validation error: " + e.Msg }

func (d *Document) String() string {
	return fmt.Sprintf("Document{Version: %s, objects: %d}", d.Version, len(d.registry))
}
