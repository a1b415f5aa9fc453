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

// A ReadWindow is the row range of one variable that corresponds to
// one split's byte range. StartRow is 1-based. Stride is the
// decimation stride over the row axis; it subsamples the rows that are
// materialized within the window but never changes StartRow, RowCount,
// or ReachesEnd, so a decimated read materializes ceil(RowCount/Stride)
// rows. ReachesEnd reports that the window runs to the variable's last
// row.
type ReadWindow struct {
	StartRow   int
	RowCount   int
	Stride     int
	ReachesEnd bool
}

// Materialized returns the number of rows a reader materializes for
// the window: RowCount rows sampled at Stride.
func (w ReadWindow) Materialized() int {
	if w.RowCount <= 0 || w.Stride <= 0 {
		return 0
	}
	return (w.RowCount + w.Stride - 1) / w.Stride
}

// Window translates a split's byte range into a row window of v.
//
// The window starts at row floor(split.Offset/v.BytesPerRow)+1 and
// requests ceil(split.Length/v.BytesPerRow) rows, clamped to the rows
// the variable has left; the clamp guarantees
// 1 <= StartRow <= StartRow+RowCount-1 <= v.Rows(). A split lying
// wholly beyond a small variable's extent therefore yields a window
// that re-reads the variable's final rows. Decimation is carried into
// the window as Stride and has no effect on the bounds.
//
// Window fails with *DegenerateVariableError when v has zero bytes per
// row or zero rows, for which no byte offset maps to a valid row.
func Window(split Split, v Variable, decimation int) (ReadWindow, error) {
	rows := v.Rows()
	if v.BytesPerRow == 0 || rows == 0 {
		return ReadWindow{}, &DegenerateVariableError{Name: v.Name}
	}

	startRow := int(split.Offset/v.BytesPerRow) + 1
	if startRow > rows {
		startRow = rows
	}
	numRowsRequested := int((split.Length + v.BytesPerRow - 1) / v.BytesPerRow)
	rowsRemaining := rows - startRow + 1

	w := ReadWindow{StartRow: startRow, Stride: decimation}
	if numRowsRequested >= rowsRemaining {
		w.RowCount = rowsRemaining
		w.ReachesEnd = true
	} else {
		w.RowCount = numRowsRequested
	}
	return w, nil
}
