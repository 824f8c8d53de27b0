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

package reduce

import (
	"github.com/chewxy/math32"
	"github.com/juju/errors"

	"github.com/dimred-io/dimred/base"
	"github.com/dimred-io/dimred/common/nn"
)

// Table is a dense numeric tabular dataset. Rows are samples, columns are
// features.
type Table struct {
	Names []string
	Rows  [][]float32
}

// NewTable creates a table and validates its shape.
func NewTable(names []string, rows [][]float32) (*Table, error) {
	if len(rows) == 0 {
		return nil, errors.New("empty table")
	}
	for _, row := range rows {
		if len(row) != len(names) {
			return nil, errors.Errorf("expect %d columns, got %d", len(names), len(row))
		}
	}
	return &Table{Names: names, Rows: rows}, nil
}

// NumRows returns the number of samples.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumCols returns the number of features.
func (t *Table) NumCols() int {
	return len(t.Names)
}

// Standardize scales every column to zero mean and unit variance in place.
// Constant columns become all zeros.
func (t *Table) Standardize() {
	for j := 0; j < t.NumCols(); j++ {
		var mean, std float32
		for _, row := range t.Rows {
			mean += row[j]
		}
		mean /= float32(t.NumRows())
		for _, row := range t.Rows {
			std += (row[j] - mean) * (row[j] - mean)
		}
		std = math32.Sqrt(std / float32(t.NumRows()))
		for _, row := range t.Rows {
			if std > 0 {
				row[j] = (row[j] - mean) / std
			} else {
				row[j] = 0
			}
		}
	}
}

// MinMaxScale scales every column to [0, 1] in place. Constant columns become
// all zeros.
func (t *Table) MinMaxScale() {
	for j := 0; j < t.NumCols(); j++ {
		lo, hi := t.Rows[0][j], t.Rows[0][j]
		for _, row := range t.Rows {
			if row[j] < lo {
				lo = row[j]
			}
			if row[j] > hi {
				hi = row[j]
			}
		}
		for _, row := range t.Rows {
			if hi > lo {
				row[j] = (row[j] - lo) / (hi - lo)
			} else {
				row[j] = 0
			}
		}
	}
}

// Split splits the table into a training set and a test set. ratio is the
// fraction of rows held out for testing. With ratio 0 every row stays in the
// training set.
func (t *Table) Split(ratio float32, seed int64) (*Table, *Table) {
	rng := base.NewRandomGenerator(seed)
	perm := rng.Perm(t.NumRows())
	testSize := int(ratio * float32(t.NumRows()))
	train := &Table{Names: t.Names}
	test := &Table{Names: t.Names}
	for i, index := range perm {
		if i < testSize {
			test.Rows = append(test.Rows, t.Rows[index])
		} else {
			train.Rows = append(train.Rows, t.Rows[index])
		}
	}
	return train, test
}

// Tensor flattens the table into a 2-D tensor.
func (t *Table) Tensor() *nn.Tensor {
	data := make([]float32, 0, t.NumRows()*t.NumCols())
	for _, row := range t.Rows {
		data = append(data, row...)
	}
	return nn.NewTensor(data, t.NumRows(), t.NumCols())
}
