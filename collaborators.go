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

import "github.com/ctessum/sparse"

// A MetadataProvider extracts per-variable metadata from a single file.
// The schema resolver calls Describe once per file; implementations must
// open and close the file within the call, holding no handle afterwards.
type MetadataProvider interface {
	Describe(path string) ([]Variable, error)
}

// A RowReader materializes a row window of one variable from one file.
// startRow is 1-based. shapeTail holds the variable's non-row dimension
// lengths, which are always read in full. stride is the decimation
// stride over the row axis: a stride of n materializes every nth row
// within the window, ceil(rowCount/n) rows in total, without changing
// the window bounds. The returned array has shape
// [materialized rows, shapeTail...] and float64 elements.
// Implementations must open and close the file within the call.
type RowReader interface {
	ReadRows(path, locator string, startRow, rowCount int, shapeTail []int, stride int) (*sparse.DenseArray, error)
}
