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

// Package ncstore iterates over collections of NetCDF files in pieces
// of bounded size, so that datasets too large to fit in memory can be
// processed one chunk at a time.
package ncstore

// Version gives the version of this software.
const Version = "0.1.0"

// DefaultMaxSplitBytes is the default upper bound on the number of
// bytes of file content covered by a single chunk of iteration.
const DefaultMaxSplitBytes int64 = 128 * 1024 * 1024

// Options holds optional settings for opening a Datastore. The zero
// value of each field selects its default.
type Options struct {
	// MaxSplitBytes is the upper bound on the number of bytes of file
	// content covered by a single chunk of iteration. The default is
	// DefaultMaxSplitBytes.
	MaxSplitBytes int64

	// Decimation specifies that only every Decimation'th row of each
	// chunk should be read. The default is 1, which reads every row.
	Decimation int

	// SelectVariables restricts reading to the named variables. The
	// default is to read all variables in the schema.
	SelectVariables []string

	// CacheSize specifies the number of file descriptions to hold in
	// an in-memory cache. The default is 100.
	CacheSize int
}

// A Datastore iterates over the variables held in a collection of
// NetCDF files that share a schema. The collection is treated as the
// row-wise concatenation of its files, and is read in chunks of
// bounded size through the embedded Reader.
type Datastore struct {
	*Reader

	schema   *Schema
	warnings []Warning
	files    []FileInfo
}

// Open creates a Datastore from the files in directory dir whose names
// match the glob pattern. The files are ordered lexicographically by
// path. If o is nil, default options are used.
func Open(dir, pattern string, o *Options) (*Datastore, error) {
	files, err := ListFiles(dir, pattern)
	if err != nil {
		return nil, err
	}
	return newDatastore(files, o)
}

// OpenFiles creates a Datastore from the named files, which are used
// in the given order. If o is nil, default options are used.
func OpenFiles(paths []string, o *Options) (*Datastore, error) {
	files, err := StatFiles(paths)
	if err != nil {
		return nil, err
	}
	return newDatastore(files, o)
}

func newDatastore(files []FileInfo, o *Options) (*Datastore, error) {
	if o == nil {
		o = new(Options)
	}
	ncf := NewNCF()
	if o.CacheSize > 0 {
		ncf.CacheSize = o.CacheSize
	}
	schema, warnings, err := ResolveSchema(files, ncf)
	if err != nil {
		return nil, err
	}
	maxSplitBytes := o.MaxSplitBytes
	if maxSplitBytes <= 0 {
		maxSplitBytes = DefaultMaxSplitBytes
	}
	planner, err := NewSplitPlanner(files, maxSplitBytes)
	if err != nil {
		return nil, err
	}
	reader := NewReader(schema, planner, ncf)
	if o.Decimation > 0 {
		reader.Decimation = o.Decimation
	}
	if len(o.SelectVariables) > 0 {
		if err := reader.SelectVariables(o.SelectVariables...); err != nil {
			return nil, err
		}
	}
	return &Datastore{
		Reader:   reader,
		schema:   schema,
		warnings: warnings,
		files:    files,
	}, nil
}

// Schema returns the shared schema of the files in the Datastore.
func (d *Datastore) Schema() *Schema { return d.schema }

// Warnings returns the warnings that were generated while resolving
// the schema, one for each file that was missing a variable present in
// the first file.
func (d *Datastore) Warnings() []Warning { return d.warnings }

// Files returns the files in the Datastore, in iteration order.
func (d *Datastore) Files() []FileInfo { return d.files }
