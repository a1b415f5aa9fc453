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
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/cdf"
)

// writePartialFile writes a NetCDF file like writeFixedFile's but
// without the Counts variable.
func writePartialFile(t *testing.T, path string) {
	t.Helper()
	h := cdf.NewHeader([]string{"rows", "cols"}, []int{10, 3})
	h.AddVariable("Data1", []string{"rows", "cols"}, []float64{0})
	h.AddVariable("Data2", []string{"rows"}, []float32{0})
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	data1 := make([]float64, 30)
	for r := 0; r < 10; r++ {
		for k := 0; k < 3; k++ {
			data1[r*3+k] = float64((r+1)*10 + k)
		}
	}
	if _, err := f.Writer("Data1", []int{0, 0}, []int{10, 3}).Write(data1); err != nil {
		t.Fatal(err)
	}
	data2 := make([]float32, 10)
	for r := 0; r < 10; r++ {
		data2[r] = float32((r + 1) * 2)
	}
	if _, err := f.Writer("Data2", []int{0}, []int{10}).Write(data2); err != nil {
		t.Fatal(err)
	}
}

func TestOpen(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeFixedFile(t, filepath.Join(dir, "e1.nc"))
	writeFixedFile(t, filepath.Join(dir, "e2.nc"))

	ds, err := Open(dir, "*.nc", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Files()) != 2 {
		t.Fatalf("have %d files, want 2", len(ds.Files()))
	}
	if ds.Files()[0].Path != filepath.Join(dir, "e1.nc") {
		t.Errorf("have first file %s, want e1.nc", ds.Files()[0].Path)
	}
	if len(ds.Warnings()) != 0 {
		t.Errorf("unexpected warnings %v", ds.Warnings())
	}
	wantNames := []string{"Data1", "Data2", "Counts"}
	if names := ds.VariableNames(); !reflect.DeepEqual(names, wantNames) {
		t.Errorf("have %#v, want %#v", names, wantNames)
	}

	// The default split size is far larger than the files, so each file
	// is consumed by a single read.
	for i, wantProgress := range []float64{0.5, 1} {
		block, info, err := ds.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		for _, name := range wantNames {
			if _, ok := block[name]; !ok {
				t.Errorf("read %d: %s is missing from the block", i, name)
			}
			if !info.Windows[name].ReachesEnd {
				t.Errorf("read %d: the window of %s does not reach the end", i, name)
			}
		}
		if !reflect.DeepEqual(block["Data1"].Shape, []int{10, 3}) {
			t.Errorf("read %d: have shape %v, want [10 3]", i, block["Data1"].Shape)
		}
		if progress := ds.Progress(); progress != wantProgress {
			t.Errorf("read %d: want progress %g but have %g", i, wantProgress, progress)
		}
	}
	if ds.HasData() {
		t.Error("data remains after both files were read")
	}
	if _, _, err := ds.Read(); err == nil {
		t.Fatal("expected an error after the last file")
	} else if _, ok := err.(*ExhaustedError); !ok {
		t.Errorf("want *ExhaustedError but have %T", err)
	}
	ds.Reset()
	if !ds.HasData() {
		t.Error("expected data to remain after reset")
	}
	if progress := ds.Progress(); progress != 0 {
		t.Errorf("want progress 0 after reset but have %g", progress)
	}
}

// TestOpenChunked reads a dataset in splits smaller than the files, so
// each file takes two reads for the selected variable and the remaining
// splits of each file are skipped once the variable has been finished.
func TestOpenChunked(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeFixedFile(t, filepath.Join(dir, "e1.nc"))
	writeFixedFile(t, filepath.Join(dir, "e2.nc"))

	// Data1 has 24 bytes per row, so a 120-byte split covers 5 rows.
	ds, err := Open(dir, "*.nc", &Options{
		MaxSplitBytes:   120,
		SelectVariables: []string{"Data1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantFirst := []float64{10, 60, 10, 60}
	for i, want := range wantFirst {
		block, info, err := ds.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		data := block["Data1"]
		if !reflect.DeepEqual(data.Shape, []int{5, 3}) {
			t.Errorf("read %d: have shape %v, want [5 3]", i, data.Shape)
		}
		if data.Elements[0] != want {
			t.Errorf("read %d: have first value %g, want %g", i, data.Elements[0], want)
		}
		wantEnd := i%2 == 1
		if w := info.Windows["Data1"]; w.ReachesEnd != wantEnd {
			t.Errorf("read %d: have window %+v, want reaches end %v", i, w, wantEnd)
		}
	}
	if ds.HasData() {
		t.Error("data remains after four reads")
	}
	if progress := ds.Progress(); progress != 1 {
		t.Errorf("want progress 1 but have %g", progress)
	}
}

func TestOpenDecimation(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeFixedFile(t, filepath.Join(dir, "e1.nc"))

	ds, err := Open(dir, "*.nc", &Options{
		MaxSplitBytes:   120,
		Decimation:      2,
		SelectVariables: []string{"Data1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	// Rows 1, 3, 5, then rows 6, 8, 10.
	want := [][]float64{
		{10, 11, 12, 30, 31, 32, 50, 51, 52},
		{60, 61, 62, 80, 81, 82, 100, 101, 102},
	}
	for i, wantValues := range want {
		block, _, err := ds.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		data := block["Data1"]
		if !reflect.DeepEqual(data.Shape, []int{3, 3}) {
			t.Errorf("read %d: have shape %v, want [3 3]", i, data.Shape)
		}
		if !reflect.DeepEqual(data.Elements, wantValues) {
			t.Errorf("read %d: have %v, want %v", i, data.Elements, wantValues)
		}
	}
	if ds.HasData() {
		t.Error("data remains after both splits")
	}
}

func TestOpenFiles(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	a := filepath.Join(dir, "a.nc")
	b := filepath.Join(dir, "b.nc")
	writeFixedFile(t, a)
	writeFixedFile(t, b)

	// The caller's file order is kept.
	ds, err := OpenFiles([]string{b, a}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Files()[0].Path != b || ds.Files()[1].Path != a {
		t.Errorf("have %v, want [%s %s]", ds.Files(), b, a)
	}

	if _, err := OpenFiles([]string{filepath.Join(dir, "missing.nc")}, nil); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestOpenWarnings(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeFixedFile(t, filepath.Join(dir, "a.nc"))
	writePartialFile(t, filepath.Join(dir, "b.nc"))

	ds, err := Open(dir, "*.nc", nil)
	if err != nil {
		t.Fatal(err)
	}
	wantWarnings := []Warning{{Variable: "Counts", Path: filepath.Join(dir, "b.nc")}}
	if !reflect.DeepEqual(ds.Warnings(), wantWarnings) {
		t.Errorf("have %#v, want %#v", ds.Warnings(), wantWarnings)
	}
	wantNames := []string{"Data1", "Data2"}
	if names := ds.VariableNames(); !reflect.DeepEqual(names, wantNames) {
		t.Errorf("have %#v, want %#v", names, wantNames)
	}

	// Reading the reconciled schema works across both files.
	for ds.HasData() {
		if _, _, err := ds.Read(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	if _, err := Open(dir, "*.nc", nil); err == nil {
		t.Error("expected an error for a directory with no matching files")
	} else if _, ok := err.(*SchemaError); !ok {
		t.Errorf("want *SchemaError but have %T", err)
	}

	// A file that is not in NetCDF format fails schema resolution.
	junk := filepath.Join(dir, "junk.nc")
	if err := ioutil.WriteFile(junk, []byte("not a netcdf file"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dir, "*.nc", nil); err == nil {
		t.Error("expected an error for an unparseable file")
	} else if schemaErr, ok := err.(*SchemaError); !ok {
		t.Errorf("want *SchemaError but have %T", err)
	} else if schemaErr.Path != junk {
		t.Errorf("have path %q, want %q", schemaErr.Path, junk)
	}

	// An unknown variable selection fails at open time.
	writeFixedFile(t, filepath.Join(dir, "good.nc"))
	if err := os.Remove(junk); err != nil {
		t.Fatal(err)
	}
	_, err := Open(dir, "*.nc", &Options{SelectVariables: []string{"Nope"}})
	if err == nil {
		t.Error("expected an error for an unknown variable selection")
	} else if _, ok := err.(*UnknownVariableError); !ok {
		t.Errorf("want *UnknownVariableError but have %T", err)
	}
}
