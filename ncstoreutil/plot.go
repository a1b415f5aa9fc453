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
	"image/color"

	"github.com/spatialmodel/ncstore"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot draws the per-row mean of the named variable across the whole
// collection and saves the result to fileName, which may be a blob
// storage location. The image format is determined by the file
// extension.
func Plot(ds *ncstore.Datastore, variable, fileName string) error {
	if variable == "" {
		return fmt.Errorf(`you need to specify a variable to plot (for example: PlotVariable="T2")`)
	}
	if err := ds.SelectVariables(variable); err != nil {
		return err
	}
	v, _ := ds.Schema().Variable(variable)
	if v.Rows() == 0 || v.BytesPerRow == 0 {
		return &ncstore.DegenerateVariableError{Name: variable}
	}
	ds.Reset()

	var xys plotter.XYs
	maxRow := 0
	currentFile := -1
	for ds.HasData() {
		block, info, err := ds.Read()
		if err != nil {
			return err
		}
		if info.Split.File != currentFile {
			currentFile = info.Split.File
			maxRow = 0
		}
		data, ok := block[variable]
		if !ok {
			continue
		}
		w := info.Windows[variable]
		m := w.Materialized()
		if m == 0 {
			continue
		}
		tailSize := len(data.Elements) / m
		for i := 0; i < m; i++ {
			row := w.StartRow + i*w.Stride
			if row <= maxRow {
				continue
			}
			maxRow = row
			mean := 0.0
			if tailSize > 0 {
				values := data.Elements[i*tailSize : (i+1)*tailSize]
				mean = floats.Sum(values) / float64(len(values))
			}
			xys = append(xys, plotter.XY{X: float64(len(xys)), Y: mean})
		}
	}
	if len(xys) == 0 {
		return fmt.Errorf("ncstore: variable %s has no data to plot", variable)
	}

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = variable
	p.X.Label.Text = "row"
	p.Y.Label.Text = "mean"
	if v.Units != "" {
		p.Y.Label.Text = fmt.Sprintf("mean (%s)", v.Units)
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	l.Color = color.NRGBA{A: 255}
	p.Add(l)

	var upload uploader
	out := upload.maybeUpload(fileName)
	if err := p.Save(6*vg.Inch, 4*vg.Inch, out); err != nil {
		return fmt.Errorf("ncstore: saving plot: %v", err)
	}
	return upload.uploadOutput()
}
