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

import (
	"fmt"
	"strings"
)

// SchemaError is returned when a unified schema cannot be established:
// either no files were given, or a file could not be opened or parsed
// for variable metadata.
type SchemaError struct {
	// Path is the file that failed. It is empty when the failure is an
	// empty file list.
	Path string
	// Err is the underlying cause, if any.
	Err error
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "ncstore: schema resolution requires at least one file"
	}
	return fmt.Sprintf("ncstore: resolving schema from %s: %v", e.Path, e.Err)
}

// UnknownVariableError is returned when a variable selection includes
// names that are not part of the unified schema. Names holds every
// offending name. The selection that triggered the error is left
// unchanged, so the caller can correct the names and retry.
type UnknownVariableError struct {
	Names []string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("ncstore: undefined variable name(s): %s",
		strings.Join(e.Names, ", "))
}

// DegenerateVariableError is returned when a read window is requested
// for a variable with zero bytes per row or zero rows, for which no
// byte range can be translated to a valid row range.
type DegenerateVariableError struct {
	Name string
}

func (e *DegenerateVariableError) Error() string {
	return fmt.Sprintf("ncstore: variable %s is degenerate (zero bytes per row or zero rows)", e.Name)
}

// ExhaustedError is returned by Next or Read when no data remains.
// Reset recovers from it.
type ExhaustedError struct{}

func (e *ExhaustedError) Error() string {
	return "ncstore: data exhausted; Reset restarts the iteration"
}

// A Warning reports a non-fatal schema reconciliation event: the named
// variable was missing from the file at Path and was therefore dropped
// from the unified schema. Warnings never halt resolution.
type Warning struct {
	Variable string
	Path     string
}

func (w Warning) String() string {
	return fmt.Sprintf("ncstore: variable %s is missing from %s; dropping it from the schema", w.Variable, w.Path)
}
