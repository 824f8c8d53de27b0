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
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestNewTable(t *testing.T) {
	_, err := NewTable([]string{"a"}, nil)
	assert.Error(t, err)
	_, err = NewTable([]string{"a", "b"}, [][]float32{{1}})
	assert.Error(t, err)
	table, err := NewTable([]string{"a", "b"}, [][]float32{{1, 2}, {3, 4}})
	assert.NoError(t, err)
	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, 2, table.NumCols())
}

func TestStandardize(t *testing.T) {
	table := &Table{
		Names: []string{"a", "const"},
		Rows:  [][]float32{{1, 5}, {2, 5}, {3, 5}, {4, 5}},
	}
	table.Standardize()
	var mean, variance float32
	for _, row := range table.Rows {
		mean += row[0]
	}
	mean /= 4
	for _, row := range table.Rows {
		variance += (row[0] - mean) * (row[0] - mean)
	}
	variance /= 4
	assert.InDelta(t, 0, mean, 1e-6)
	assert.InDelta(t, 1, math32.Sqrt(variance), 1e-5)
	// constant column scales to zero
	for _, row := range table.Rows {
		assert.Zero(t, row[1])
	}
}

func TestMinMaxScale(t *testing.T) {
	table := &Table{
		Names: []string{"a", "const"},
		Rows:  [][]float32{{2, 7}, {4, 7}, {6, 7}},
	}
	table.MinMaxScale()
	assert.Equal(t, []float32{0, 0}, table.Rows[0])
	assert.Equal(t, []float32{0.5, 0}, table.Rows[1])
	assert.Equal(t, []float32{1, 0}, table.Rows[2])
}

func TestSplit(t *testing.T) {
	table := &Table{Names: []string{"a"}}
	for i := 0; i < 100; i++ {
		table.Rows = append(table.Rows, []float32{float32(i)})
	}
	train, test := table.Split(0.2, 42)
	assert.Equal(t, 80, train.NumRows())
	assert.Equal(t, 20, test.NumRows())
	// deterministic for a fixed seed
	train2, test2 := table.Split(0.2, 42)
	assert.Equal(t, train.Rows, train2.Rows)
	assert.Equal(t, test.Rows, test2.Rows)
	// ratio 0 keeps everything in train
	train3, test3 := table.Split(0, 42)
	assert.Equal(t, 100, train3.NumRows())
	assert.Equal(t, 0, test3.NumRows())
}

func TestTensor(t *testing.T) {
	table := &Table{
		Names: []string{"a", "b"},
		Rows:  [][]float32{{1, 2}, {3, 4}},
	}
	x := table.Tensor()
	assert.Equal(t, []int{2, 2}, x.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4}, x.Data())
}
