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
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
)

func denseData(shape []int, values []float64) *sparse.DenseArray {
	a := sparse.ZerosDense(shape...)
	copy(a.Elements, values)
	return a
}

func TestDeriver(t *testing.T) {
	d, err := NewDeriver(map[string]string{
		"Total":  "A + B",
		"Scaled": "Total * 2",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if names := d.Names(); !reflect.DeepEqual(names, []string{"Total", "Scaled"}) {
		t.Errorf("have %#v, want %#v", names, []string{"Total", "Scaled"})
	}
	if inputs := d.InputVariables(); !reflect.DeepEqual(inputs, []string{"A", "B"}) {
		t.Errorf("have %#v, want %#v", inputs, []string{"A", "B"})
	}

	block := DataBlock{
		"A": denseData([]int{2, 2}, []float64{1, 2, 3, 4}),
		"B": denseData([]int{2, 2}, []float64{10, 20, 30, 40}),
	}
	if err := d.Apply(block); err != nil {
		t.Fatal(err)
	}
	wantTotal := []float64{11, 22, 33, 44}
	if !reflect.DeepEqual(block["Total"].Elements, wantTotal) {
		t.Errorf("have %v, want %v", block["Total"].Elements, wantTotal)
	}
	wantScaled := []float64{22, 44, 66, 88}
	if !reflect.DeepEqual(block["Scaled"].Elements, wantScaled) {
		t.Errorf("have %v, want %v", block["Scaled"].Elements, wantScaled)
	}
	if !reflect.DeepEqual(block["Scaled"].Shape, []int{2, 2}) {
		t.Errorf("have shape %v, want [2 2]", block["Scaled"].Shape)
	}
}

func TestDeriverFunctions(t *testing.T) {
	d, err := NewDeriver(map[string]string{
		"E":  "exp(X)",
		"L":  "log(X)",
		"R":  "sqrt(X)",
		"Ab": "abs(0 - X)",
		"Mx": "max(X, 2)",
		"Mn": "min(X, 2)",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	x := []float64{1, 4, 9}
	block := DataBlock{"X": denseData([]int{3}, x)}
	if err := d.Apply(block); err != nil {
		t.Fatal(err)
	}
	want := map[string][]float64{
		"E":  {math.Exp(1), math.Exp(4), math.Exp(9)},
		"L":  {0, math.Log(4), math.Log(9)},
		"R":  {1, 2, 3},
		"Ab": {1, 4, 9},
		"Mx": {2, 4, 9},
		"Mn": {1, 2, 2},
	}
	for name, values := range want {
		if !reflect.DeepEqual(block[name].Elements, values) {
			t.Errorf("%s: have %v, want %v", name, block[name].Elements, values)
		}
	}
}

func TestDeriverExtraFunctions(t *testing.T) {
	d, err := NewDeriver(map[string]string{"D": "double(X)"},
		map[string]govaluate.ExpressionFunction{
			"double": func(arg ...interface{}) (interface{}, error) {
				return arg[0].(float64) * 2, nil
			},
		})
	if err != nil {
		t.Fatal(err)
	}
	block := DataBlock{"X": denseData([]int{2}, []float64{3, 5})}
	if err := d.Apply(block); err != nil {
		t.Fatal(err)
	}
	want := []float64{6, 10}
	if !reflect.DeepEqual(block["D"].Elements, want) {
		t.Errorf("have %v, want %v", block["D"].Elements, want)
	}
}

func TestDeriverCycle(t *testing.T) {
	_, err := NewDeriver(map[string]string{
		"X": "Y + 1",
		"Y": "X + 1",
	}, nil)
	if err == nil {
		t.Fatal("expected an error for circularly defined variables")
	}
	want := "ncstore: derived variable X: circular definition"
	if err.Error() != want {
		t.Errorf("have %q, want %q", err.Error(), want)
	}

	_, err = NewDeriver(map[string]string{"Z": "Z * 2"}, nil)
	if err == nil {
		t.Fatal("expected an error for a self-referencing variable")
	}
}

func TestDeriverParseError(t *testing.T) {
	_, err := NewDeriver(map[string]string{"Bad": "A +* B"}, nil)
	if err == nil {
		t.Fatal("expected an error for an unparseable expression")
	}
	if !strings.Contains(err.Error(), "derived variable Bad") {
		t.Errorf("error %q does not name the offending variable", err.Error())
	}
}

func TestDeriverCheck(t *testing.T) {
	d, err := NewDeriver(map[string]string{"Total": "A + B"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	meta := &fakeMeta{files: map[string][]Variable{
		"a.nc": {testVar("A", 10, 2)},
	}}
	schema, _, err := ResolveSchema([]FileInfo{{Path: "a.nc", Size: 160}}, meta)
	if err != nil {
		t.Fatal(err)
	}
	err = d.Check(schema)
	if err == nil {
		t.Fatal("expected an error for a missing input variable")
	}
	unknownErr, ok := err.(*UnknownVariableError)
	if !ok {
		t.Fatalf("want *UnknownVariableError but have %T", err)
	}
	if want := []string{"B"}; !reflect.DeepEqual(unknownErr.Names, want) {
		t.Errorf("have %#v, want %#v", unknownErr.Names, want)
	}

	meta.files["a.nc"] = append(meta.files["a.nc"], testVar("B", 10, 2))
	schema, _, err = ResolveSchema([]FileInfo{{Path: "a.nc", Size: 320}}, meta)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Check(schema); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDeriverApplyErrors(t *testing.T) {
	d, err := NewDeriver(map[string]string{"Total": "A + B"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// A missing input variable.
	err = d.Apply(DataBlock{"A": denseData([]int{2}, []float64{1, 2})})
	if err == nil {
		t.Fatal("expected an error for a missing variable")
	}
	if !strings.Contains(err.Error(), "is not present") {
		t.Errorf("unexpected error %q", err.Error())
	}

	// Mismatched input shapes.
	err = d.Apply(DataBlock{
		"A": denseData([]int{2, 2}, []float64{1, 2, 3, 4}),
		"B": denseData([]int{4}, []float64{1, 2, 3, 4}),
	})
	if err == nil {
		t.Fatal("expected an error for mismatched shapes")
	}
	if !strings.Contains(err.Error(), "has shape") {
		t.Errorf("unexpected error %q", err.Error())
	}

	// An expression that does not evaluate to a number.
	d, err = NewDeriver(map[string]string{"F": "A > 1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = d.Apply(DataBlock{"A": denseData([]int{2}, []float64{1, 2})})
	if err == nil {
		t.Fatal("expected an error for a non-numeric result")
	}
	if !strings.Contains(err.Error(), "not a number") {
		t.Errorf("unexpected error %q", err.Error())
	}

	// An expression with no variables has no shape to take.
	d, err = NewDeriver(map[string]string{"C": "2 + 2"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = d.Apply(DataBlock{"A": denseData([]int{2}, []float64{1, 2})})
	if err == nil {
		t.Fatal("expected an error for an expression using no variables")
	}
}

// TestDeriverReplace checks that a derived variable with a stored
// variable's name replaces the stored data in the block.
func TestDeriverReplace(t *testing.T) {
	d, err := NewDeriver(map[string]string{"A": "B + 1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	block := DataBlock{
		"A": denseData([]int{2}, []float64{100, 200}),
		"B": denseData([]int{2}, []float64{1, 2}),
	}
	if err := d.Apply(block); err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 3}
	if !reflect.DeepEqual(block["A"].Elements, want) {
		t.Errorf("have %v, want %v", block["A"].Elements, want)
	}
}

func TestDeriverEmpty(t *testing.T) {
	d, err := NewDeriver(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if names := d.Names(); len(names) != 0 {
		t.Errorf("unexpected derived variables %v", names)
	}
	if inputs := d.InputVariables(); len(inputs) != 0 {
		t.Errorf("unexpected input variables %v", inputs)
	}
	block := DataBlock{"A": denseData([]int{1}, []float64{1})}
	if err := d.Apply(block); err != nil {
		t.Fatal(err)
	}
	if len(block) != 1 {
		t.Errorf("the block changed size: %v", block)
	}
}
