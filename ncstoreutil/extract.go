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
	"os"

	"github.com/spatialmodel/ncstore"
)

// Extract copies the selected variables of the Datastore to a new
// NetCDF file at outputFile, which may be a blob storage location.
// c, if not nil, is a channel across which error and logging messages
// will be sent.
func Extract(ds *ncstore.Datastore, outputFile string, c chan string) error {
	var upload uploader
	out := upload.maybeUpload(outputFile)
	if err := selectReadable(ds, c); err != nil {
		return err
	}
	w, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("ncstore: creating output file: %v", err)
	}
	if err := ncstore.Extract(ds.Reader, w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("ncstore: closing output file: %v", err)
	}
	return upload.uploadOutput()
}
