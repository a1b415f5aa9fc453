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
	"math"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
)

// A Deriver calculates additional variables from the variables in a
// DataBlock.
//
// expressions maps the names of the variables to be calculated to
// expressions that define how they should be calculated. These
// expressions can use the variables stored in the files, other derived
// variables, and functions; they are evaluated element by element.
type Deriver struct {
	expressions map[string]string
	parsed      map[string]*govaluate.EvaluableExpression
	order       []string
	inputs      []string
	// stored maps each derived variable name to the sorted names of
	// the stored variables its expression depends on, directly or
	// through other derived variables.
	stored    map[string][]string
	functions map[string]govaluate.ExpressionFunction
}

// NewDeriver compiles the given expressions and adds a set of default
// functions. Default functions include:
//
// 'exp(x)' which applies the exponential function e^x.
//
// 'log(x)' which applies the natural logarithm.
//
// 'sqrt(x)' which applies the square root.
//
// 'abs(x)' which applies the absolute value.
//
// 'min(x, y)' and 'max(x, y)' which take the smaller and larger of two
// values, respectively.
//
// Functions in extraFunctions are added to the defaults, overriding
// any default with the same name.
func NewDeriver(expressions map[string]string, extraFunctions map[string]govaluate.ExpressionFunction) (*Deriver, error) {
	defaultFuncs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("ncstore: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			return (float64)(math.Exp(arg[0].(float64))), nil
		},
		"log": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("ncstore: got %d arguments for function 'log', but needs 1", len(arg))
			}
			return (float64)(math.Log(arg[0].(float64))), nil
		},
		"sqrt": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("ncstore: got %d arguments for function 'sqrt', but needs 1", len(arg))
			}
			return (float64)(math.Sqrt(arg[0].(float64))), nil
		},
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("ncstore: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return (float64)(math.Abs(arg[0].(float64))), nil
		},
		"min": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("ncstore: got %d arguments for function 'min', but needs 2", len(args))
			}
			return (float64)(math.Min(args[0].(float64), args[1].(float64))), nil
		},
		"max": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("ncstore: got %d arguments for function 'max', but needs 2", len(args))
			}
			return (float64)(math.Max(args[0].(float64), args[1].(float64))), nil
		},
	}
	for key, val := range extraFunctions {
		defaultFuncs[key] = val
	}

	d := &Deriver{
		expressions: expressions,
		parsed:      make(map[string]*govaluate.EvaluableExpression, len(expressions)),
		functions:   defaultFuncs,
	}
	for name, expr := range expressions {
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, d.functions)
		if err != nil {
			return nil, fmt.Errorf("ncstore: derived variable %s: %v", name, err)
		}
		d.parsed[name] = expression
	}
	if err := d.resolveOrder(); err != nil {
		return nil, err
	}
	return d, nil
}

// resolveOrder determines the order in which the derived variables
// must be calculated so that each one is calculated after any other
// derived variables its expression refers to, and collects the names
// of the stored variables the expressions require.
func (d *Deriver) resolveOrder() error {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(d.parsed))
	inputs := make(map[string]struct{})
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("ncstore: derived variable %s: circular definition", name)
		}
		state[name] = visiting
		for _, v := range removeDuplicates(d.parsed[name].Vars()) {
			if _, ok := d.parsed[v]; ok {
				if err := visit(v); err != nil {
					return err
				}
			} else {
				inputs[v] = struct{}{}
			}
		}
		state[name] = visited
		d.order = append(d.order, name)
		return nil
	}
	names := make([]string, 0, len(d.parsed))
	for name := range d.parsed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return err
		}
	}
	d.inputs = make([]string, 0, len(inputs))
	for v := range inputs {
		d.inputs = append(d.inputs, v)
	}
	sort.Strings(d.inputs)

	d.stored = make(map[string][]string, len(d.parsed))
	for _, name := range d.order {
		seen := make(map[string]struct{})
		var walk func(n string)
		walk = func(n string) {
			for _, v := range removeDuplicates(d.parsed[n].Vars()) {
				if _, ok := d.parsed[v]; ok {
					walk(v)
				} else {
					seen[v] = struct{}{}
				}
			}
		}
		walk(name)
		list := make([]string, 0, len(seen))
		for v := range seen {
			list = append(list, v)
		}
		sort.Strings(list)
		d.stored[name] = list
	}
	return nil
}

// InputVariables returns the names of the stored variables that are
// required to calculate the derived variables, sorted alphabetically.
func (d *Deriver) InputVariables() []string {
	return append([]string(nil), d.inputs...)
}

// Names returns the names of the derived variables, in the order they
// will be calculated.
func (d *Deriver) Names() []string {
	return append([]string(nil), d.order...)
}

// Check ensures that every stored variable the expressions require is
// present in schema.
func (d *Deriver) Check(schema *Schema) error {
	var missing []string
	for _, v := range d.inputs {
		if _, ok := schema.Variable(v); !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return &UnknownVariableError{Names: missing}
	}
	return nil
}

// Apply calculates the derived variables from the arrays in block and
// adds the results to block under the derived variables' names,
// replacing any stored variable of the same name. All of the variables
// used in one expression must have the same shape, and every
// expression must evaluate to a number.
func (d *Deriver) Apply(block DataBlock) error {
	for _, name := range d.order {
		expression := d.parsed[name]
		vars := removeDuplicates(expression.Vars())
		arrays := make(map[string][]float64, len(vars))
		var shape []int
		for _, v := range vars {
			data, ok := block[v]
			if !ok {
				return fmt.Errorf("ncstore: derived variable %s: variable %s is not present in the data", name, v)
			}
			if shape == nil {
				shape = data.Shape
			} else if !shapesEqual(shape, data.Shape) {
				return fmt.Errorf("ncstore: derived variable %s: variable %s has shape %v but %v is required",
					name, v, data.Shape, shape)
			}
			arrays[v] = data.Elements
		}
		if shape == nil {
			return fmt.Errorf("ncstore: derived variable %s: expression uses no variables", name)
		}
		out := sparse.ZerosDense(shape...)
		parameters := make(map[string]interface{}, len(vars))
		for i := range out.Elements {
			for v, a := range arrays {
				parameters[v] = a[i]
			}
			result, err := expression.Evaluate(parameters)
			if err != nil {
				return fmt.Errorf("ncstore: derived variable %s: %v", name, err)
			}
			value, ok := result.(float64)
			if !ok {
				return fmt.Errorf("ncstore: derived variable %s: expression result is %T, not a number", name, result)
			}
			out.Elements[i] = value
		}
		block[name] = out
	}
	return nil
}

// removeDuplicates removes all duplicated strings from a slice,
// returning a slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]string)
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = val
		}
	}
	return result
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if v != b[i] {
			return false
		}
	}
	return true
}
