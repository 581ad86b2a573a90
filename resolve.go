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

// resolveDocument patches every Ref placeholder reachable from the trailer
// or from doc.registry with a direct link to its target (spec §4.D). Before
// resolution the parsed graph is strictly a tree — Refs are plain
// {id,gen} values, not pointers, so nothing aliases yet. Sharing and cycles
// are exactly what resolution introduces, so substituteIn tracks the
// composites it has walked by identity (visited) and never walks one twice;
// cycles are allowed to exist afterward because identity.go's
// composites are Go reference types that the garbage collector can reclaim
// even when they point at each other.
type resolver struct {
	doc     *Document
	done    map[Ref]Object  // ref -> its (possibly still-being-patched) target
	visited map[uintptr]bool
	diag    Diagnostics
}

func resolveDocument(doc *Document, diag Diagnostics) {
	r := &resolver{
		doc:     doc,
		done:    map[Ref]Object{},
		visited: map[uintptr]bool{},
		diag:    diag,
	}
	for ref := range doc.registry {
		r.resolve(ref)
	}
	r.substituteIn(doc.Trailer)
}

// resolve returns the target object for ref, registering it in r.done
// before recursing into its children so that a reference cycle sees the
// same (in-progress) object rather than recursing forever.
func (r *resolver) resolve(ref Ref) Object {
	if v, ok := r.done[ref]; ok {
		return v
	}
	raw, ok := r.doc.registry[ref]
	if !ok {
		return nil
	}
	r.done[ref] = raw
	r.substituteIn(raw)
	return raw
}

// substituteIn walks v's children in place, replacing any Ref with its
// resolved target. Composites are tracked by identity so a shared node is
// only ever processed once.
func (r *resolver) substituteIn(v Object) {
	if id, ok := identity(v); ok {
		if r.visited[id] {
			return
		}
		r.visited[id] = true
	}
	switch x := v.(type) {
	case Dict:
		for k, child := range x {
			if replaced, changed := r.substitute(child); changed {
				x[k] = replaced
			}
		}
	case Array:
		for i, child := range x {
			if replaced, changed := r.substitute(child); changed {
				x[i] = replaced
			}
		}
	case *Stream:
		r.substituteIn(x.Dict)
	}
}

func (r *resolver) substitute(v Object) (Object, bool) {
	ref, isRef := v.(Ref)
	if !isRef {
		r.substituteIn(v)
		return v, false
	}
	target := r.resolve(ref)
	if target == nil {
		r.diag.warn("UnresolvedReference", -1, "reference to missing object "+ref.String())
		return v, false
	}
	return target, true
}
