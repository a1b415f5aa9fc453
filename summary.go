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
	"github.com/GaryBoone/GoStats/stats"
)

// VariableStats summarizes the values of one variable.
type VariableStats struct {
	Name   string  // variable name
	Rows   int     // number of distinct rows summarized
	Count  int     // number of values accumulated
	Mean   float64 // arithmetic mean of the values
	StdDev float64 // sample standard deviation of the values
	Min    float64 // smallest value
	Max    float64 // largest value
}

// Summarize reads all of the data remaining in r and accumulates
// summary statistics for each selected variable. Rows that are covered
// by more than one chunk are only counted once.
//
// If deriver is not nil, it is applied to each chunk of data and
// statistics are also accumulated for the derived variables. A derived
// variable's rows are counted using the read window of the first
// stored variable its expression depends on.
func Summarize(r *Reader, deriver *Deriver) (map[string]*VariableStats, error) {
	acc := make(map[string]*stats.Stats)
	rowsSeen := make(map[string]int)
	// maxRow tracks the highest row of each variable that has been
	// accumulated from the current file, so that chunks that re-read
	// the tail of a short variable do not count rows twice.
	maxRow := make(map[string]int)
	currentFile := -1
	accumulate := func(name string, data []float64, w ReadWindow) {
		d := acc[name]
		if d == nil {
			d = new(stats.Stats)
			acc[name] = d
		}
		m := w.Materialized()
		if m == 0 {
			return
		}
		tailSize := len(data) / m
		for i := 0; i < m; i++ {
			row := w.StartRow + i*w.Stride
			if row <= maxRow[name] {
				continue
			}
			maxRow[name] = row
			rowsSeen[name]++
			if tailSize > 0 {
				d.UpdateArray(data[i*tailSize : (i+1)*tailSize])
			}
		}
	}
	for r.HasData() {
		block, info, err := r.Read()
		if err != nil {
			return nil, err
		}
		if deriver != nil {
			if err := deriver.Apply(block); err != nil {
				return nil, err
			}
		}
		if info.Split.File != currentFile {
			currentFile = info.Split.File
			for k := range maxRow {
				delete(maxRow, k)
			}
		}
		for name, data := range block {
			w, ok := info.Windows[name]
			if !ok {
				continue
			}
			accumulate(name, data.Elements, w)
		}
		if deriver != nil {
			for _, name := range deriver.Names() {
				data, ok := block[name]
				if !ok {
					continue
				}
				var w ReadWindow
				found := false
				for _, input := range deriver.stored[name] {
					if iw, ok := info.Windows[input]; ok {
						w = iw
						found = true
						break
					}
				}
				if !found {
					continue
				}
				accumulate(name, data.Elements, w)
			}
		}
	}
	result := make(map[string]*VariableStats, len(acc))
	for name, d := range acc {
		result[name] = &VariableStats{
			Name:   name,
			Rows:   rowsSeen[name],
			Count:  d.Count(),
			Mean:   d.Mean(),
			StdDev: d.SampleStandardDeviation(),
			Min:    d.Min(),
			Max:    d.Max(),
		}
	}
	return result, nil
}
