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

package ncstoreutil

import (
	"fmt"
	"sort"

	"github.com/spatialmodel/ncstore"
	"github.com/tealeg/xlsx"
)

// writeReport writes the files, schema, and summary statistics of the
// Datastore to a Microsoft Excel file at fileName.
func writeReport(fileName string, ds *ncstore.Datastore, statistics map[string]*ncstore.VariableStats) error {
	f := xlsx.NewFile()

	files, err := f.AddSheet("Files")
	if err != nil {
		return fmt.Errorf("ncstore: creating report: %v", err)
	}
	row := files.AddRow()
	row.AddCell().SetString("file")
	row.AddCell().SetString("bytes")
	for _, fi := range ds.Files() {
		row := files.AddRow()
		row.AddCell().SetString(fi.Path)
		row.AddCell().SetInt64(fi.Size)
	}

	schema, err := f.AddSheet("Schema")
	if err != nil {
		return fmt.Errorf("ncstore: creating report: %v", err)
	}
	row = schema.AddRow()
	for _, h := range []string{"variable", "type", "shape", "bytes/row", "units", "description"} {
		row.AddCell().SetString(h)
	}
	for _, name := range ds.Schema().Variables() {
		v, _ := ds.Schema().Variable(name)
		row := schema.AddRow()
		row.AddCell().SetString(v.Name)
		row.AddCell().SetString(v.TypeName)
		row.AddCell().SetString(fmt.Sprintf("%v", v.Shape))
		row.AddCell().SetInt64(v.BytesPerRow)
		row.AddCell().SetString(v.Units)
		row.AddCell().SetString(v.Description)
	}

	stats, err := f.AddSheet("Statistics")
	if err != nil {
		return fmt.Errorf("ncstore: creating report: %v", err)
	}
	row = stats.AddRow()
	for _, h := range []string{"variable", "rows", "count", "mean", "std dev", "min", "max"} {
		row.AddCell().SetString(h)
	}
	names := make([]string, 0, len(statistics))
	for name := range statistics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := statistics[name]
		row := stats.AddRow()
		row.AddCell().SetString(s.Name)
		row.AddCell().SetInt(s.Rows)
		row.AddCell().SetInt(s.Count)
		row.AddCell().SetFloat(s.Mean)
		row.AddCell().SetFloat(s.StdDev)
		row.AddCell().SetFloat(s.Min)
		row.AddCell().SetFloat(s.Max)
	}

	if err := f.Save(fileName); err != nil {
		return fmt.Errorf("ncstore: saving report: %v", err)
	}
	return nil
}
