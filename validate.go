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

import "fmt"

// validate checks the structural invariants of spec §3 invariant 5 against
// doc's resolved trailer, repairing what can be repaired in place (a wrong
// page-tree /Count) and returning a description of everything it found,
// repaired or not. The caller (Parse, Serialize) decides whether these are
// warnings or fatal errors.
func validate(doc *Document) []string {
	var problems []string

	root := doc.Root()
	if root == nil {
		return append(problems, "trailer /Root is missing or not a dictionary")
	}
	if t, ok := root["Type"].(Name); !ok || t.String() != "Catalog" {
		problems = append(problems, "catalog /Type is not /Catalog")
	}

	pages, ok := root["Pages"].(Dict)
	if !ok {
		return append(problems, "catalog /Pages is missing or not a dictionary")
	}
	if t, ok := pages["Type"].(Name); !ok || t.String() != "Pages" {
		problems = append(problems, "root page-tree node /Type is not /Pages")
	}
	if _, hasParent := pages["Parent"]; hasParent {
		problems = append(problems, "root page-tree node has a /Parent")
	}

	leaves := countLeaves(pages, map[uintptr]bool{})
	if declared, ok := pages["Count"].(Integer); !ok || declared.Int64() != int64(leaves) {
		problems = append(problems, fmt.Sprintf("page-tree /Count corrected to %d", leaves))
		pages["Count"] = NewInteger(int64(leaves))
	}

	if root["Lang"] != nil {
		if _, ok := doc.Lang(); !ok {
			problems = append(problems, "catalog /Lang is not a well-formed language tag")
		}
	}

	return problems
}

// countLeaves recursively counts /Page descendants of node, guarding
// against a malformed tree that cycles back on itself.
func countLeaves(node Dict, seen map[uintptr]bool) int {
	if id, ok := identity(node); ok {
		if seen[id] {
			return 0
		}
		seen[id] = true
	}
	kids, ok := node["Kids"].(Array)
	if !ok {
		if t, ok := node["Type"].(Name); ok && t.String() == "Page" {
			return 1
		}
		return 0
	}
	total := 0
	for _, kid := range kids {
		if d, ok := kid.(Dict); ok {
			total += countLeaves(d, seen)
		}
	}
	return total
}
