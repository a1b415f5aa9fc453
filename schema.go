/*
Copyright © 2026 the ncstore authors.
This file is part of ncstore.

ncstore is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ncstore is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ncstore.  If not, see <http://www.gnu.org/licenses/>.
*/

package ncstore

// A Variable describes one array variable of the unified schema.
// Variables are immutable once resolution has finished.
type Variable struct {
	// Name uniquely identifies the variable within the schema.
	Name string
	// Locator is the name the file backend resolves within a file.
	// For NetCDF files it equals Name.
	Locator string
	// Shape holds the dimension lengths. The first dimension is the
	// row axis; iteration chunks the variable along it.
	Shape []int
	// Dims holds the dimension names as reported by the first file,
	// when the backend provides them. It has the same length as
	// Shape, or is nil.
	Dims []string
	// ElementSize is the storage size of one element in bytes.
	ElementSize int
	// TypeName names the element type as reported by the backend
	// (e.g. "float", "double", "int").
	TypeName string
	// Units and Description are carried through from the first file's
	// attributes when present, for caller introspection and for
	// attribute pass-through on extraction.
	Units       string
	Description string
	// BytesPerRow is ElementSize times the product of the non-row
	// dimension lengths. It is zero only for a dimensionless or empty
	// variable, and converts byte ranges to row ranges.
	BytesPerRow int64
}

// Rows returns the length of the variable's row axis, or zero for a
// dimensionless variable.
func (v Variable) Rows() int {
	if len(v.Shape) == 0 {
		return 0
	}
	return v.Shape[0]
}

// A Schema is the variable set agreed to exist, with consistent
// identity, across every file of a dataset. It is immutable after
// ResolveSchema returns it.
type Schema struct {
	vars  []Variable
	index map[string]int
}

// Variables returns the schema variable names in their resolution
// order (the order reported by the first file).
func (s *Schema) Variables() []string {
	names := make([]string, len(s.vars))
	for i, v := range s.vars {
		names[i] = v.Name
	}
	return names
}

// Variable returns the named variable's metadata. ok reports whether
// the variable exists in the schema.
func (s *Schema) Variable(name string) (v Variable, ok bool) {
	i, ok := s.index[name]
	if !ok {
		return Variable{}, false
	}
	return s.vars[i], true
}

// Len returns the number of variables in the schema.
func (s *Schema) Len() int { return len(s.vars) }

// ResolveSchema builds the unified schema for the given files.
//
// The first file's variable set is the baseline. Every later file is
// checked for variable presence only: a baseline variable missing from
// any file is dropped from the schema, with one Warning recorded per
// offending file. Presence is the only cross-file check; if a retained
// variable's shape or type differs after the first file, the first
// file's layout is used without complaint, and row windows computed
// from it will misalign on the divergent files. Callers needing
// stricter guarantees must validate shapes themselves.
//
// ResolveSchema fails with *SchemaError if files is empty or if any
// file cannot be described.
func ResolveSchema(files []FileInfo, meta MetadataProvider) (*Schema, []Warning, error) {
	if len(files) == 0 {
		return nil, nil, &SchemaError{}
	}

	baseline, err := meta.Describe(files[0].Path)
	if err != nil {
		return nil, nil, &SchemaError{Path: files[0].Path, Err: err}
	}

	var warnings []Warning
	dropped := make(map[string]bool)
	for _, file := range files[1:] {
		vars, err := meta.Describe(file.Path)
		if err != nil {
			return nil, nil, &SchemaError{Path: file.Path, Err: err}
		}
		present := make(map[string]bool, len(vars))
		for _, v := range vars {
			present[v.Name] = true
		}
		for _, v := range baseline {
			if !present[v.Name] {
				dropped[v.Name] = true
				warnings = append(warnings, Warning{Variable: v.Name, Path: file.Path})
			}
		}
	}

	// Dropped variables are removed in one pass after all files have
	// been scanned, so each one is reported against every file it is
	// missing from.
	s := &Schema{index: make(map[string]int)}
	for _, v := range baseline {
		if dropped[v.Name] {
			continue
		}
		s.index[v.Name] = len(s.vars)
		s.vars = append(s.vars, v)
	}
	return s, warnings, nil
}
