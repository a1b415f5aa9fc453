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
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spatialmodel/ncstore"
)

// Scan reads through all of the data in the Datastore, accumulating
// summary statistics for each selected variable and for any derived
// variables defined by deriver, and writes the statistics to w. If
// reportFile is not empty, the statistics are additionally written to
// a spreadsheet at that location.
// c, if not nil, is a channel across which error and logging messages
// will be sent.
func Scan(w io.Writer, ds *ncstore.Datastore, deriver *ncstore.Deriver, reportFile string, c chan string) error {
	if deriver != nil {
		if err := deriver.Check(ds.Schema()); err != nil {
			return err
		}
		names := union(ds.SelectedVariableNames(), deriver.InputVariables())
		if err := ds.SelectVariables(names...); err != nil {
			return err
		}
	}
	if err := selectReadable(ds, c); err != nil {
		return err
	}
	statistics, err := ncstore.Summarize(ds.Reader, deriver)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(statistics))
	for name := range statistics {
		names = append(names, name)
	}
	sort.Strings(names)

	ww := new(tabwriter.Writer)
	ww.Init(w, 0, 2, 2, ' ', 0)
	fmt.Fprint(ww, "variable\trows\tcount\tmean\tstd dev\tmin\tmax\n")
	for _, name := range names {
		s := statistics[name]
		fmt.Fprintf(ww, "%s\t%d\t%d\t%g\t%g\t%g\t%g\n",
			s.Name, s.Rows, s.Count, s.Mean, s.StdDev, s.Min, s.Max)
	}
	if err := ww.Flush(); err != nil {
		return err
	}

	if reportFile != "" {
		var upload uploader
		out := upload.maybeUpload(reportFile)
		if err := writeReport(out, ds, statistics); err != nil {
			return err
		}
		return upload.uploadOutput()
	}
	return nil
}

// selectReadable narrows the Datastore's selection to the variables
// that have data rows, sending a message on c for each variable that
// is skipped.
func selectReadable(ds *ncstore.Datastore, c chan string) error {
	var keep []string
	for _, name := range ds.SelectedVariableNames() {
		v, ok := ds.Schema().Variable(name)
		if !ok {
			continue
		}
		if v.Rows() == 0 || v.BytesPerRow == 0 {
			if c != nil {
				c <- fmt.Sprintf("skipping variable %s: it has no data rows\n", name)
			}
			continue
		}
		keep = append(keep, name)
	}
	if len(keep) == 0 {
		return fmt.Errorf("ncstore: none of the selected variables have data rows")
	}
	return ds.SelectVariables(keep...)
}

// union combines two lists of names, keeping the order of a and
// appending the elements of b that are not already present.
func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	result := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}
