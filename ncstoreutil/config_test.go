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
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/lnashier/viper"
)

// writeDataFile writes a NetCDF file holding Data1 (double [10, 3],
// value (r+1)*10+k at row r, column k), Data2 (float [10], value
// (r+1)*2), and Counts (int [10], value 101+r).
func writeDataFile(t *testing.T, path string) {
	t.Helper()
	h := cdf.NewHeader([]string{"rows", "cols"}, []int{10, 3})
	h.AddVariable("Data1", []string{"rows", "cols"}, []float64{0})
	h.AddAttribute("Data1", "units", "m s-1")
	h.AddAttribute("Data1", "description", "first test variable")
	h.AddVariable("Data2", []string{"rows"}, []float32{0})
	h.AddVariable("Counts", []string{"rows"}, []int32{0})
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
	counts := make([]int32, 10)
	for r := 0; r < 10; r++ {
		counts[r] = int32(101 + r)
	}
	if _, err := f.Writer("Counts", []int{0}, []int{10}).Write(counts); err != nil {
		t.Fatal(err)
	}
}

// testCollection writes a two-file collection to a temporary directory
// and returns the directory name. The caller is responsible for
// removing the directory.
func testCollection(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "ncstoreutil")
	if err != nil {
		t.Fatal(err)
	}
	writeDataFile(t, filepath.Join(dir, "a.nc"))
	writeDataFile(t, filepath.Join(dir, "b.nc"))
	return dir
}

func TestOpenDatastore(t *testing.T) {
	dir := testCollection(t)
	defer os.RemoveAll(dir)

	t.Run("directory", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("DataDir", dir)
		cfg.Set("FilePattern", "*.nc")
		ds, err := openDatastore(context.Background(), cfg, helperLog(t))
		if err != nil {
			t.Fatal(err)
		}
		if len(ds.Files()) != 2 {
			t.Fatalf("have %d files, want 2", len(ds.Files()))
		}
		want := []string{"Data1", "Data2", "Counts"}
		if have := ds.Schema().Variables(); !reflect.DeepEqual(have, want) {
			t.Errorf("have variables %v, want %v", have, want)
		}
	})

	t.Run("files", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("DataFiles", []string{filepath.Join(dir, "b.nc"), filepath.Join(dir, "a.nc")})
		ds, err := openDatastore(context.Background(), cfg, helperLog(t))
		if err != nil {
			t.Fatal(err)
		}
		files := ds.Files()
		if len(files) != 2 {
			t.Fatalf("have %d files, want 2", len(files))
		}
		// The given file order is kept.
		if filepath.Base(files[0].Path) != "b.nc" || filepath.Base(files[1].Path) != "a.nc" {
			t.Errorf("have files %v, want b.nc before a.nc", files)
		}
	})

	t.Run("variables", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("DataDir", dir)
		cfg.Set("FilePattern", "*.nc")
		cfg.Set("Variables", []string{"Data2"})
		ds, err := openDatastore(context.Background(), cfg, helperLog(t))
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"Data2"}; !reflect.DeepEqual(ds.SelectedVariableNames(), want) {
			t.Errorf("have selection %v, want %v", ds.SelectedVariableNames(), want)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("DataDir", filepath.Join(dir, "nonexistent"))
		cfg.Set("FilePattern", "*.nc")
		if _, err := openDatastore(context.Background(), cfg, helperLog(t)); err == nil {
			t.Fatal("expected an error for a missing data directory")
		}
	})
}

func TestNewDeriver(t *testing.T) {
	cfg := viper.New()
	cfg.Set("DerivedVariables", `{"T2C": "T2 - 273.15"}`)
	d, err := newDeriver(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if d == nil {
		t.Fatal("expected a deriver")
	}
	if want := []string{"T2C"}; !reflect.DeepEqual(d.Names(), want) {
		t.Errorf("have names %v, want %v", d.Names(), want)
	}
	if want := []string{"T2"}; !reflect.DeepEqual(d.InputVariables(), want) {
		t.Errorf("have inputs %v, want %v", d.InputVariables(), want)
	}

	d, err = newDeriver(viper.New())
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Errorf("expected no deriver when none is configured, have %v", d.Names())
	}
}

func TestGetStringMapString(t *testing.T) {
	want := map[string]string{"T2C": "T2 - 273.15"}
	t.Run("map", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("DerivedVariables", map[string]string{"T2C": "T2 - 273.15"})
		if have := GetStringMapString("DerivedVariables", cfg); !reflect.DeepEqual(have, want) {
			t.Errorf("%v != %v", have, want)
		}
	})
	t.Run("interface map", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("DerivedVariables", map[string]interface{}{"T2C": "T2 - 273.15"})
		if have := GetStringMapString("DerivedVariables", cfg); !reflect.DeepEqual(have, want) {
			t.Errorf("%v != %v", have, want)
		}
	})
	t.Run("json", func(t *testing.T) {
		cfg := viper.New()
		cfg.Set("DerivedVariables", `{"T2C": "T2 - 273.15"}`)
		if have := GetStringMapString("DerivedVariables", cfg); !reflect.DeepEqual(have, want) {
			t.Errorf("%v != %v", have, want)
		}
	})
	t.Run("unset", func(t *testing.T) {
		if have := GetStringMapString("DerivedVariables", viper.New()); have != nil {
			t.Errorf("have %v, want nil", have)
		}
	})
}

func TestExpandStringSlice(t *testing.T) {
	os.Setenv("NCSTORE_TEST_VAR", "expanded")
	defer os.Unsetenv("NCSTORE_TEST_VAR")
	have := expandStringSlice([]string{"${NCSTORE_TEST_VAR}/a.nc", "b.nc"})
	want := []string{"expanded/a.nc", "b.nc"}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestCheckOutputFile(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := checkOutputFile("")
		if err == nil {
			t.Fatal("expected an error for an empty output file")
		}
		want := `you need to specify an output file configuration variable (for example: OutputFile="extract.nc")`
		if err.Error() != want {
			t.Errorf("have %q, want %q", err.Error(), want)
		}
	})
	t.Run("blob", func(t *testing.T) {
		have, err := checkOutputFile("gs://bucket/out.nc")
		if err != nil {
			t.Fatal(err)
		}
		if have != "gs://bucket/out.nc" {
			t.Errorf("have %q, want the blob path unchanged", have)
		}
	})
	t.Run("missing directory", func(t *testing.T) {
		_, err := checkOutputFile("/blah/nonexistent/out.nc")
		if err == nil {
			t.Fatal("expected an error for a missing output directory")
		}
		if !strings.Contains(err.Error(), "output file directory doesn't exist") {
			t.Errorf("unexpected error %v", err)
		}
	})
	t.Run("existing directory", func(t *testing.T) {
		dir, err := ioutil.TempDir("", "ncstoreutil")
		if err != nil {
			t.Fatal(err)
		}
		defer os.RemoveAll(dir)
		os.Setenv("NCSTORE_TEST_OUT", dir)
		defer os.Unsetenv("NCSTORE_TEST_OUT")
		have, err := checkOutputFile("${NCSTORE_TEST_OUT}/out.nc")
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(dir, "out.nc"); have != want {
			t.Errorf("have %q, want %q", have, want)
		}
	})
}
