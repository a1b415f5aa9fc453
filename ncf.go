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
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/requestcache"
	"github.com/ctessum/sparse"

	"github.com/spatialmodel/ncstore/internal/hash"
)

// NCF reads metadata and array data from NetCDF classic-format files.
// It implements the MetadataProvider and RowReader interfaces, opening
// and closing the underlying file within each method call so that no
// file handles are held between calls.
type NCF struct {
	// CacheSize specifies the number of file descriptions to hold in an
	// in-memory cache. The default is 100. This can only be changed
	// before the first call to Describe.
	CacheSize int

	cache     *requestcache.Cache
	cacheOnce sync.Once
}

// NewNCF creates a new NetCDF reader.
func NewNCF() *NCF {
	return &NCF{CacheSize: 100}
}

// describeRequest identifies one description of one file. The size and
// modification time are included so that a cached description is not
// reused after the file changes on disk.
type describeRequest struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Describe returns the variables stored in the NetCDF file at path, in
// the order they appear in the file header. Results are cached, keyed
// on the file path, size, and modification time.
func (n *NCF) Describe(path string) ([]Variable, error) {
	n.cacheOnce.Do(func() {
		n.cache = requestcache.NewCache(n.describe, runtime.GOMAXPROCS(-1),
			requestcache.Deduplicate(), requestcache.Memory(n.CacheSize))
	})
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("ncstore: describing file: %v", err)
	}
	request := describeRequest{Path: path, Size: info.Size(), ModTime: info.ModTime()}
	req := n.cache.NewRequest(context.TODO(), request, hash.Hash(request))
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.([]Variable), nil
}

// describe fulfills description requests for the cache.
func (n *NCF) describe(ctx context.Context, request interface{}) (interface{}, error) {
	r := request.(describeRequest)
	return describeNCF(r.Path, r.Size)
}

// describeNCF reads the header of the NetCDF file at path and builds a
// Variable for each variable it declares. size is the total size of the
// file in bytes; it is needed to count the records of variables whose
// first dimension is the unlimited record dimension.
func describeNCF(path string, size int64) ([]Variable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ncstore: describing file: %v", err)
	}
	defer f.Close()
	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("ncstore: describing file %s: %v", path, err)
	}
	h := cf.Header
	names := h.Variables()
	vars := make([]Variable, 0, len(names))
	for _, name := range names {
		elemSize, typeName, err := elementType(h.ZeroValue(name, 1))
		if err != nil {
			return nil, fmt.Errorf("ncstore: describing variable %s in %s: %v", name, path, err)
		}
		// Lengths returns the header's own slice, so copy it before
		// overwriting the record-dimension length below.
		shape := append([]int(nil), h.Lengths(name)...)
		if len(shape) > 0 && shape[0] == 0 {
			// The first dimension is the unlimited record dimension;
			// its length is however many records the file holds.
			shape[0] = int(h.NumRecs(size))
		}
		bytesPerRow := int64(0)
		if len(shape) > 0 {
			bytesPerRow = int64(elemSize)
			for _, d := range shape[1:] {
				bytesPerRow *= int64(d)
			}
		}
		units, _ := h.GetAttribute(name, "units").(string)
		description, _ := h.GetAttribute(name, "description").(string)
		vars = append(vars, Variable{
			Name:        name,
			Locator:     name,
			Shape:       shape,
			Dims:        h.Dimensions(name),
			ElementSize: elemSize,
			TypeName:    typeName,
			Units:       units,
			Description: description,
			BytesPerRow: bytesPerRow,
		})
	}
	return vars, nil
}

// elementType reports the size in bytes and the name of the element
// type represented by zero, which is a zero value obtained from a
// NetCDF header.
func elementType(zero interface{}) (int, string, error) {
	switch zero.(type) {
	case []uint8:
		return 1, "byte", nil
	case string:
		return 1, "char", nil
	case []int16:
		return 2, "short", nil
	case []int32:
		return 4, "int", nil
	case []float32:
		return 4, "float", nil
	case []float64:
		return 8, "double", nil
	}
	return 0, "", fmt.Errorf("unsupported element type %T", zero)
}

// ReadRows reads rowCount rows of the variable stored at locator in the
// NetCDF file at path, starting from the 1-based row startRow and
// keeping every stride'th row. shapeTail gives the lengths of the
// variable's dimensions after the first. The result holds the kept rows
// converted to float64, with shape [ceil(rowCount/stride), shapeTail...].
func (n *NCF) ReadRows(path, locator string, startRow, rowCount int, shapeTail []int, stride int) (*sparse.DenseArray, error) {
	if startRow < 1 {
		return nil, fmt.Errorf("ncstore: reading %s from %s: start row %d is less than 1", locator, path, startRow)
	}
	if rowCount < 0 {
		return nil, fmt.Errorf("ncstore: reading %s from %s: negative row count %d", locator, path, rowCount)
	}
	if stride < 1 {
		return nil, fmt.Errorf("ncstore: reading %s from %s: invalid stride %d", locator, path, stride)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ncstore: reading file: %v", err)
	}
	defer f.Close()
	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("ncstore: reading file %s: %v", path, err)
	}
	if cf.Header.ZeroValue(locator, 0) == nil {
		return nil, fmt.Errorf("ncstore: file %s has no variable %s", path, locator)
	}
	lens := cf.Header.Lengths(locator)
	if len(lens) != len(shapeTail)+1 {
		return nil, fmt.Errorf("ncstore: variable %s in %s has %d dimensions but %d were expected",
			locator, path, len(lens), len(shapeTail)+1)
	}

	tailSize := 1
	for _, d := range shapeTail {
		tailSize *= d
	}
	materialized := 0
	if rowCount > 0 {
		materialized = (rowCount + stride - 1) / stride
	}
	data := sparse.ZerosDense(append([]int{materialized}, shapeTail...)...)
	if materialized == 0 || tailSize == 0 {
		return data, nil
	}

	begin := make([]int, len(lens))
	end := make([]int, len(lens))
	copy(end[1:], shapeTail)

	if stride == 1 {
		begin[0] = startRow - 1
		end[0] = startRow - 1 + rowCount
		r := cf.Reader(locator, begin, end)
		buf := r.Zero(rowCount * tailSize)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("ncstore: reading %s from %s: %v", locator, path, err)
		}
		if err := copyToFloat64(data.Elements, buf); err != nil {
			return nil, fmt.Errorf("ncstore: reading %s from %s: %v", locator, path, err)
		}
		return data, nil
	}

	for i := 0; i < materialized; i++ {
		begin[0] = startRow - 1 + i*stride
		end[0] = begin[0] + 1
		r := cf.Reader(locator, begin, end)
		buf := r.Zero(tailSize)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("ncstore: reading %s from %s: %v", locator, path, err)
		}
		if err := copyToFloat64(data.Elements[i*tailSize:(i+1)*tailSize], buf); err != nil {
			return nil, fmt.Errorf("ncstore: reading %s from %s: %v", locator, path, err)
		}
	}
	return data, nil
}

// copyToFloat64 copies the elements of src, a typed slice read from a
// NetCDF file, into dst, converting them to float64.
func copyToFloat64(dst []float64, src interface{}) error {
	switch s := src.(type) {
	case []uint8:
		for i, v := range s {
			dst[i] = float64(v)
		}
	case []int16:
		for i, v := range s {
			dst[i] = float64(v)
		}
	case []int32:
		for i, v := range s {
			dst[i] = float64(v)
		}
	case []float32:
		for i, v := range s {
			dst[i] = float64(v)
		}
	case []float64:
		copy(dst, s)
	default:
		return fmt.Errorf("unsupported element type %T", src)
	}
	return nil
}
