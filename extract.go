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
along with ncstore.  If not, see <http://www.gnu.org/licenses/>.*/

package ncstore

import (
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
)

// Extract copies the variables selected in r to a new NetCDF file
// written to w, concatenating each variable's rows across all of the
// files in the collection and keeping only every r.Decimation'th row.
// Rows that are covered by more than one chunk are only written once.
//
// Extract restarts r's iteration from the beginning and consumes it
// completely.
func Extract(r *Reader, w *os.File) error {
	if r.Decimation < 1 {
		return fmt.Errorf("ncstore: decimation interval must be at least 1 but is %d", r.Decimation)
	}
	names := r.SelectedVariableNames()
	sort.Strings(names)
	if len(names) == 0 {
		return fmt.Errorf("ncstore: no variables are selected for extraction")
	}
	totals, err := extractRowCounts(r, names)
	if err != nil {
		return err
	}

	// Assemble the output dimensions from the dimensions of the
	// selected variables. A variable's first dimension takes the total
	// number of rows that will be written for it; if that disagrees
	// with the length already recorded for a dimension of the same
	// name, the dimension is written under a disambiguated name.
	var dimNames []string
	var dimLengths []int
	dimIndex := make(map[string]int)
	var addDim func(name string, length int) string
	addDim = func(name string, length int) string {
		if i, ok := dimIndex[name]; ok {
			if dimLengths[i] == length {
				return name
			}
			return addDim(fmt.Sprintf("%s_%d", name, length), length)
		}
		dimIndex[name] = len(dimNames)
		dimNames = append(dimNames, name)
		dimLengths = append(dimLengths, length)
		return name
	}
	varDims := make(map[string][]string, len(names))
	for _, name := range names {
		v, _ := r.schema.Variable(name)
		dims := make([]string, len(v.Shape))
		for j, length := range v.Shape {
			if j == 0 {
				length = totals[name]
			}
			dimName := fmt.Sprintf("dim%d", j)
			if j < len(v.Dims) {
				dimName = v.Dims[j]
			}
			dims[j] = addDim(dimName, length)
		}
		varDims[name] = dims
	}

	h := cdf.NewHeader(dimNames, dimLengths)
	h.AddAttribute("", "comment", "ncstore extracted data subset")
	for _, name := range names {
		v, _ := r.schema.Variable(name)
		h.AddVariable(name, varDims[name], []float32{0})
		h.AddAttribute(name, "description", v.Description)
		h.AddAttribute(name, "units", v.Units)
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}

	r.Reset()
	written := make(map[string]int)
	maxRow := make(map[string]int)
	currentFile := -1
	for r.HasData() {
		block, info, err := r.Read()
		if err != nil {
			return err
		}
		if info.Split.File != currentFile {
			currentFile = info.Split.File
			for k := range maxRow {
				delete(maxRow, k)
			}
		}
		for _, name := range names {
			data, ok := block[name]
			if !ok {
				continue
			}
			win := info.Windows[name]
			m := win.Materialized()
			if m == 0 {
				continue
			}
			tailSize := len(data.Elements) / m
			for i := 0; i < m; i++ {
				row := win.StartRow + i*win.Stride
				if row <= maxRow[name] {
					continue
				}
				maxRow[name] = row
				err := writeExtractedRow(f, name, written[name], data.Elements[i*tailSize:(i+1)*tailSize])
				if err != nil {
					return fmt.Errorf("ncstore: writing variable %s to netcdf file: %v", name, err)
				}
				written[name]++
			}
		}
	}
	return cdf.UpdateNumRecs(w)
}

// extractRowCounts calculates, for each named variable, the total
// number of distinct rows an extraction will write, by running the
// same chunk, window, and advancement calculations as the read loop
// without reading any data.
func extractRowCounts(r *Reader, names []string) (map[string]int, error) {
	totals := make(map[string]int, len(names))
	maxRow := make(map[string]int)
	currentFile := -1
	splits := r.planner.splits
	for i := 0; i < len(splits); {
		s := splits[i]
		if s.File != currentFile {
			currentFile = s.File
			for k := range maxRow {
				delete(maxRow, k)
			}
		}
		reachedEnd := true
		for _, name := range names {
			v, ok := r.schema.Variable(name)
			if !ok {
				return nil, &UnknownVariableError{Names: []string{name}}
			}
			w, err := Window(s, v, r.Decimation)
			if err != nil {
				return nil, err
			}
			if !w.ReachesEnd {
				reachedEnd = false
			}
			m := w.Materialized()
			for j := 0; j < m; j++ {
				row := w.StartRow + j*w.Stride
				if row <= maxRow[name] {
					continue
				}
				maxRow[name] = row
				totals[name]++
			}
		}
		if reachedEnd {
			i = r.planner.fileEnd[s.File]
		} else {
			i++
		}
	}
	return totals, nil
}

// writeExtractedRow writes one row of the variable named name to f at
// the 0-based row index row, converting the values to float32.
func writeExtractedRow(f *cdf.File, name string, row int, values []float64) error {
	lens := f.Header.Lengths(name)
	start := make([]int, len(lens))
	end := make([]int, len(lens))
	copy(end, lens)
	start[0] = row
	end[0] = row + 1
	data32 := make([]float32, len(values))
	for i, e := range values {
		data32[i] = float32(e)
	}
	w := f.Writer(name, start, end)
	if _, err := w.Write(data32); err != nil {
		return err
	}
	return nil
}
