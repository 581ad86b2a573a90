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

// enumerator computes the ordered set of nodes that become numbered
// indirect objects on serialization (spec §4.F). Membership is tracked by
// identity.go's pointer key so a node already in the list is never added
// twice, and insertion order is preserved (append-only) so ID assignment
// is a plain 1..N walk of the final list.
type enumerator struct {
	list    []Object
	idx     map[uintptr]bool
	dfsSeen map[uintptr]bool
}

func newEnumerator() *enumerator {
	return &enumerator{idx: map[uintptr]bool{}, dfsSeen: map[uintptr]bool{}}
}

// add registers v as indirect if it's one of the composite kinds and isn't
// already present. It is a no-op for scalars and for nil/empty composites
// without identity.
func (e *enumerator) add(v Object) bool {
	id, ok := identity(v)
	if !ok {
		return false
	}
	if e.idx[id] {
		return false
	}
	e.idx[id] = true
	e.list = append(e.list, v)
	return true
}

// seed adds v unconditionally (it's one of the fixed catalog-level roles)
// without yet descending into it; the descent happens uniformly through
// traverse from Root in enumerate's step 2.
func (e *enumerator) seed(v Object) {
	e.add(v)
}

// traverse implements step 2: a depth-first walk from Root that promotes
// any node visited a second time, and always promotes a *Stream (spec
// invariant 2 makes that unconditional, not just on revisit).
func (e *enumerator) traverse(v Object) {
	id, ok := identity(v)
	if !ok {
		return
	}
	if _, isStream := v.(*Stream); isStream {
		e.add(v)
	}
	if e.dfsSeen[id] {
		e.add(v)
		return
	}
	e.dfsSeen[id] = true
	switch x := v.(type) {
	case Dict:
		for _, k := range dictKeysSorted(x) {
			e.traverse(x[k])
		}
	case Array:
		for _, el := range x {
			e.traverse(el)
		}
	case *Stream:
		e.traverse(x.Dict)
	}
}

// ruleKeysDict lists keys whose Dict-typed value is always promoted
// (spec §4.F.3.a).
var ruleKeysDict = map[string]bool{
	"AN": true, "Annotation": true, "B": true, "C": true, "CI": true,
	"DocMDP": true, "F": true, "FontDescriptor": true, "I": true, "IX": true,
	"K": true, "Lock": true, "N": true, "P": true, "Pg": true, "RI": true,
	"SE": true, "SV": true, "V": true,
}

// ruleKeysAny lists keys whose value is always promoted regardless of its
// kind (spec §4.F.3.b).
var ruleKeysAny = map[string]bool{
	"Data": true, "First": true, "ID": true, "Last": true, "Next": true,
	"Obj": true, "Parent": true, "ParentTree": true, "Popup": true,
	"Prev": true, "Root": true, "StmOwn": true, "Threads": true,
	"Widths": true,
}

// ruleKeysArrayElements lists keys whose Array-typed value has every Dict
// element promoted (spec §4.F.3.c).
var ruleKeysArrayElements = map[string]bool{
	"Annots": true, "B": true, "C": true, "CO": true, "Fields": true,
	"K": true, "Kids": true, "O": true, "Pages": true, "TrapRegions": true,
}

// applyRules runs the key-pattern promotion table of spec §4.F.3 against
// one Dict node already in the indirect-object list.
func (e *enumerator) applyRules(d Dict) {
	for k, v := range d {
		key := k.String()
		if ruleKeysDict[key] {
			if dv, ok := v.(Dict); ok {
				e.add(dv)
			}
		}
		if ruleKeysAny[key] {
			e.add(v)
		}
		if ruleKeysArrayElements[key] {
			if arr, ok := v.(Array); ok {
				for _, el := range arr {
					if dv, ok := el.(Dict); ok {
						e.add(dv)
					}
				}
			}
		}
		// Rule (d): a value that is itself a Stream, or a Dict that looks
		// like a Kids-bearing node or declares Type Filespec/Font.
		switch vv := v.(type) {
		case *Stream:
			e.add(vv)
		case Dict:
			if _, hasKids := vv["Kids"]; hasKids {
				e.add(vv)
			} else if t, ok := vv["Type"].(Name); ok && (t.String() == "Filespec" || t.String() == "Font") {
				e.add(vv)
			}
		}
	}
	// Rule (e): under ExtGState with a Font array, the first element.
	if t, ok := d["Type"].(Name); ok && t.String() == "ExtGState" {
		if fonts, ok := d["Font"].(Array); ok && len(fonts) > 0 {
			e.add(fonts[0])
		}
	}
	// Rule (f): thread-destination and hide-action targets.
	if s, ok := d["S"].(Name); ok {
		switch s.String() {
		case "Thread":
			e.add(d["D"])
		case "Hide":
			e.add(d["T"])
		}
	}
}

// enumerate runs the full procedure of spec §4.F over doc's resolved
// trailer and returns the ordered indirect-object list.
func enumerate(doc *Document) []Object {
	e := newEnumerator()

	root, _ := doc.Trailer["Root"].(Dict)
	e.seed(root)
	e.seed(doc.Trailer["Info"])
	e.seed(dictPath(root, "Dests"))
	e.seed(dictPath(root, "Metadata"))
	e.seed(dictPath(root, "Outlines"))
	pages, _ := root["Pages"].(Dict)
	e.seed(pages)
	e.seed(dictPath(root, "Threads"))
	e.seed(dictPath(root, "StructTreeRoot"))
	if ocp, ok := root["OCProperties"].(Dict); ok {
		if ocgs, ok := ocp["OCGs"].(Array); ok {
			for _, g := range ocgs {
				e.seed(g)
			}
		}
	}

	if root != nil {
		e.traverse(root)
	}

	for i := 0; i < len(e.list); i++ {
		if d, ok := e.list[i].(Dict); ok {
			e.applyRules(d)
		}
	}

	return e.list
}

// dictPath returns d[key] as an Object, or nil if d is nil or the key is
// absent — a small helper to keep enumerate's seed list readable.
func dictPath(d Dict, key string) Object {
	if d == nil {
		return nil
	}
	return d[Name(key)]
}
