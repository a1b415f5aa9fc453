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

import "fmt"

// A Split is a contiguous byte range within one dataset file, the unit
// of chunked iteration. Splits are never mutated once planned.
type Split struct {
	// File indexes the file within the planner's file list.
	File int
	// Path is the file's path.
	Path string
	// Offset is the byte offset of the split within the file.
	Offset int64
	// Length is the split length in bytes.
	Length int64
}

// A SplitPlanner divides an ordered file list into byte splits of at
// most maxSplitBytes each and serves them in (file, byte offset)
// order. Within each file the splits are exhaustive and
// non-overlapping; the last split of a file may be shorter than
// maxSplitBytes.
type SplitPlanner struct {
	files  []FileInfo
	splits []Split
	// fileEnd[i] is the split index one past file i's last split.
	fileEnd []int
	pos     int
}

// NewSplitPlanner plans splits for the given files. maxSplitBytes must
// be positive.
func NewSplitPlanner(files []FileInfo, maxSplitBytes int64) (*SplitPlanner, error) {
	if maxSplitBytes <= 0 {
		return nil, fmt.Errorf("ncstore: maximum split size must be positive but is %d", maxSplitBytes)
	}
	p := &SplitPlanner{
		files:   files,
		fileEnd: make([]int, len(files)),
	}
	for i, f := range files {
		for offset := int64(0); offset < f.Size; offset += maxSplitBytes {
			length := maxSplitBytes
			if remaining := f.Size - offset; remaining < length {
				length = remaining
			}
			p.splits = append(p.splits, Split{
				File:   i,
				Path:   f.Path,
				Offset: offset,
				Length: length,
			})
		}
		p.fileEnd[i] = len(p.splits)
	}
	return p, nil
}

// HasNext reports whether any unread split remains.
func (p *SplitPlanner) HasNext() bool {
	return p.pos < len(p.splits)
}

// Next returns the next split and advances past it. It fails with
// *ExhaustedError when no splits remain.
func (p *SplitPlanner) Next() (Split, error) {
	if !p.HasNext() {
		return Split{}, &ExhaustedError{}
	}
	s := p.splits[p.pos]
	p.pos++
	return s, nil
}

// Reset rewinds the planner to the first split of the first file. It
// is idempotent.
func (p *SplitPlanner) Reset() {
	p.pos = 0
}

// Progress returns the fraction of files that have been fully
// consumed, in [0, 1]. Progress advances at file granularity: a file
// divided into many splits contributes nothing until its last split
// has been consumed.
func (p *SplitPlanner) Progress() float64 {
	if len(p.splits) == 0 {
		return 1
	}
	if p.pos == 0 {
		return 0
	}
	consumed := 0
	for _, end := range p.fileEnd {
		if end <= p.pos {
			consumed++
		}
	}
	return float64(consumed) / float64(len(p.files))
}

// current returns the split the cursor is on without consuming it.
func (p *SplitPlanner) current() (Split, bool) {
	if !p.HasNext() {
		return Split{}, false
	}
	return p.splits[p.pos], true
}

// advance consumes the current split.
func (p *SplitPlanner) advance() {
	if p.pos < len(p.splits) {
		p.pos++
	}
}

// advanceFile consumes every remaining split of the given file,
// leaving the cursor on the next file's first split.
func (p *SplitPlanner) advanceFile(file int) {
	if file >= 0 && file < len(p.fileEnd) && p.fileEnd[file] > p.pos {
		p.pos = p.fileEnd[file]
	}
}
