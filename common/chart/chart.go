// Copyright 2024 dimred Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chart

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Series is a named curve.
type Series struct {
	Name   string
	Points plotter.XYs
}

// NewSeries builds a curve from x and y values of equal length.
func NewSeries(name string, xs []float64, ys []float64) Series {
	points := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		points = append(points, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return Series{Name: name, Points: points}
}

// Lines renders line+points curves into a PNG file.
func Lines(path, title, xLabel, yLabel string, series ...Series) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	var args []interface{}
	for _, s := range series {
		args = append(args, s.Name, s.Points)
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return errors.Trace(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(p.Save(8*vg.Inch, 6*vg.Inch, path))
}
