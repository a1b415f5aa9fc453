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
	"os"
	"path/filepath"
	"sort"
)

// FileInfo identifies one dataset file and its size in bytes.
type FileInfo struct {
	Path string
	Size int64
}

// ListFiles returns the files in dir whose base names match the glob
// pattern (for example "wrfout_*.ncf"), in lexical path order, with
// their sizes. Directories matching the pattern are skipped. The
// lexical ordering makes iteration order deterministic, so datasets
// whose file names sort chronologically are read in time order.
func ListFiles(dir, pattern string) ([]FileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("ncstore: listing files in %s: %v", dir, err)
	}
	sort.Strings(matches)
	var files []FileInfo
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("ncstore: listing files in %s: %v", dir, err)
		}
		if info.IsDir() {
			continue
		}
		files = append(files, FileInfo{Path: path, Size: info.Size()})
	}
	return files, nil
}

// StatFiles returns FileInfo records, in the given order, for an
// explicit list of file paths.
func StatFiles(paths []string) ([]FileInfo, error) {
	files := make([]FileInfo, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("ncstore: %v", err)
		}
		files = append(files, FileInfo{Path: path, Size: info.Size()})
	}
	return files, nil
}
