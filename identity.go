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

import "reflect"

// identity returns a stable key for the three composite Object kinds that
// can be shared between multiple places in the graph (Dict, Array,
// *Stream), plus whether v is one of those kinds at all. Scalars (Null,
// Boolean, Integer, Real, Name, String, HexString, Ref) are never shared by
// identity — two equal scalars are simply equal values, not aliases.
//
// spec §9 suggests an explicit arena of indices to represent the object
// graph, specifically to let Parent back-references cycle without leaking
// memory. In Go, Dict (a map) and Array (a slice) already behave as
// reference types — copying either copies only the header, not the
// backing storage — and the garbage collector reclaims reference cycles on
// its own, so a plain pointer/reference-type graph gets the same property
// without an extra layer of index indirection.
func identity(v Object) (uintptr, bool) {
	switch x := v.(type) {
	case Dict:
		// A zero-length map's backing Pointer() is runtime.zerobase for
		// every such map, not a per-node address, so two distinct empty
		// dicts would otherwise alias to the same identity. Report no
		// identity at all instead; an empty Dict can't usefully be shared
		// (there's nothing in it to observe the sharing through) and the
		// enumerator (enumerate.go) treats "no identity" as "never
		// promote, never collapse", which is exactly right here.
		if len(x) == 0 {
			return 0, false
		}
		return reflect.ValueOf(x).Pointer(), true
	case Array:
		if len(x) == 0 {
			return 0, false
		}
		return reflect.ValueOf(x).Pointer(), true
	case *Stream:
		if x == nil {
			return 0, false
		}
		return reflect.ValueOf(x).Pointer(), true
	default:
		return 0, false
	}
}
