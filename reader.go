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
	"sort"

	"github.com/ctessum/sparse"
)

// A DataBlock holds the data materialized by one read: one dense
// array per selected variable, keyed by variable name, shaped
// [materialized rows, non-row dimensions...].
type DataBlock map[string]*sparse.DenseArray

// WindowInfo describes one read for caller introspection: the split
// it consumed, the window computed for each selected variable, and
// each selected variable's total row count in the schema.
type WindowInfo struct {
	Split   Split
	Windows map[string]ReadWindow
	Rows    map[string]int
}

// A Reader sequentially reads a dataset split by split, exposing each
// chunk as a bounded-memory DataBlock. It owns the only mutable state
// in the core (the split cursor and the variable selection) and is
// meant for single-caller, one-call-at-a-time use; nothing in it is
// safe for concurrent access.
type Reader struct {
	schema  *Schema
	planner *SplitPlanner
	rows    RowReader

	// Decimation is the row-axis subsampling stride, default 1. It
	// must be a positive integer and can only be changed before the
	// first call to Read.
	Decimation int

	selected []string
}

// NewReader creates a Reader over the given schema and planned splits,
// delegating row materialization to rows. All schema variables start
// out selected.
func NewReader(schema *Schema, planner *SplitPlanner, rows RowReader) *Reader {
	return &Reader{
		schema:     schema,
		planner:    planner,
		rows:       rows,
		Decimation: 1,
		selected:   schema.Variables(),
	}
}

// HasData reports whether any split remains to be read.
func (r *Reader) HasData() bool {
	return r.planner.HasNext()
}

// Progress returns the fraction of files fully consumed so far, in
// [0, 1]. It is 0 immediately after Reset and reaches 1 exactly when
// HasData becomes false.
func (r *Reader) Progress() float64 {
	return r.planner.Progress()
}

// VariableNames returns the names of every variable in the unified
// schema, in schema order. It is derived from the immutable schema on
// each call and can never desynchronize from it.
func (r *Reader) VariableNames() []string {
	return r.schema.Variables()
}

// SelectedVariableNames returns the current selection in selection
// order.
func (r *Reader) SelectedVariableNames() []string {
	names := make([]string, len(r.selected))
	copy(names, r.selected)
	return names
}

// SelectVariables restricts subsequent reads to the named variables,
// in the given order. Every name must exist in the unified schema;
// otherwise SelectVariables fails with an *UnknownVariableError
// listing the offending names and leaves the previous selection and
// the cursor unchanged. Changing the selection never moves the cursor.
func (r *Reader) SelectVariables(names ...string) error {
	var unknown []string
	for _, name := range names {
		if _, ok := r.schema.Variable(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &UnknownVariableError{Names: unknown}
	}
	r.selected = make([]string, len(names))
	copy(r.selected, names)
	return nil
}

// Read materializes the current split as one DataBlock and advances
// the cursor. It fails with *ExhaustedError when no splits remain.
//
// Read computes a window for every selected variable against the
// current split, then asks the RowReader for each window's rows. The
// cursor only moves after every read has succeeded, so a failed read
// leaves the iteration state untouched for inspection or Reset.
//
// Advancement is gated on the selection's slowest variable: when every
// selected window reaches its variable's last row, the rest of the
// current file's splits are skipped and the file counts as fully
// consumed; otherwise the cursor moves to the file's next split.
// Variables smaller than the file's dominant variable reach their end
// early and have their final rows re-read on the intermediate splits.
func (r *Reader) Read() (DataBlock, *WindowInfo, error) {
	if r.Decimation < 1 {
		return nil, nil, fmt.Errorf("ncstore: decimation must be a positive integer but is %d", r.Decimation)
	}
	split, ok := r.planner.current()
	if !ok {
		return nil, nil, &ExhaustedError{}
	}

	block := make(DataBlock, len(r.selected))
	info := &WindowInfo{
		Split:   split,
		Windows: make(map[string]ReadWindow, len(r.selected)),
		Rows:    make(map[string]int, len(r.selected)),
	}
	reachedEnd := true
	for _, name := range r.selected {
		v, _ := r.schema.Variable(name)
		w, err := Window(split, v, r.Decimation)
		if err != nil {
			return nil, nil, err
		}
		data, err := r.rows.ReadRows(split.Path, v.Locator, w.StartRow, w.RowCount, v.Shape[1:], w.Stride)
		if err != nil {
			return nil, nil, fmt.Errorf("ncstore: reading variable %s from %s: %v", name, split.Path, err)
		}
		block[name] = data
		info.Windows[name] = w
		info.Rows[name] = v.Rows()
		if !w.ReachesEnd {
			reachedEnd = false
		}
	}

	if reachedEnd {
		r.planner.advanceFile(split.File)
	} else {
		r.planner.advance()
	}
	return block, info, nil
}

// Reset rewinds the reader to the first split of the first file.
// The variable selection is kept.
func (r *Reader) Reset() {
	r.planner.Reset()
}
