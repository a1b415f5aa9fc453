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
	"text/tabwriter"

	"github.com/spatialmodel/ncstore"
)

// Describe writes a description of the Datastore to w: the files in
// the collection, the variables in the shared schema, and any warnings
// that were generated while resolving the schema.
func Describe(w io.Writer, ds *ncstore.Datastore) error {
	var totalBytes int64
	for _, f := range ds.Files() {
		totalBytes += f.Size
	}
	fmt.Fprintf(w, "%d files, %d bytes total\n\n", len(ds.Files()), totalBytes)

	ww := new(tabwriter.Writer)
	ww.Init(w, 0, 2, 2, ' ', 0)
	fmt.Fprint(ww, "file\tbytes\n")
	for _, f := range ds.Files() {
		fmt.Fprintf(ww, "%s\t%d\n", f.Path, f.Size)
	}
	if err := ww.Flush(); err != nil {
		return err
	}

	fmt.Fprint(w, "\n")
	ww.Init(w, 0, 2, 2, ' ', 0)
	fmt.Fprint(ww, "variable\ttype\tshape\tbytes/row\tunits\tdescription\n")
	for _, name := range ds.Schema().Variables() {
		v, _ := ds.Schema().Variable(name)
		fmt.Fprintf(ww, "%s\t%s\t%v\t%d\t%s\t%s\n",
			v.Name, v.TypeName, v.Shape, v.BytesPerRow, v.Units, v.Description)
	}
	if err := ww.Flush(); err != nil {
		return err
	}

	if warnings := ds.Warnings(); len(warnings) > 0 {
		fmt.Fprint(w, "\n")
		for _, warning := range warnings {
			fmt.Fprintf(w, "warning: %s\n", warning.String())
		}
	}
	return nil
}
