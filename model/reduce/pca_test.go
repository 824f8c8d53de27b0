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
	"context"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/dimred-io/dimred/base"
	"github.com/dimred-io/dimred/model"
)

// syntheticTable draws rows from a low-dimensional subspace embedded in
// ambient dimensions plus gaussian noise.
func syntheticTable(n, ambient, intrinsic int, noise float32, seed int64) *Table {
	rng := base.NewRandomGenerator(seed)
	basis := rng.NormalMatrix(intrinsic, ambient, 0, 1)
	table := &Table{}
	for j := 0; j < ambient; j++ {
		table.Names = append(table.Names, string(rune('a'+j)))
	}
	for i := 0; i < n; i++ {
		z := rng.NormalVector(intrinsic, 0, 1)
		row := rng.NormalVector(ambient, 0, noise)
		for j := 0; j < ambient; j++ {
			for k := 0; k < intrinsic; k++ {
				row[j] += z[k] * basis[k][j]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func TestPCAFullRankReconstruction(t *testing.T) {
	table := syntheticTable(50, 4, 4, 0.5, 0)
	train, test := table.Split(0.2, 0)
	pca := NewPCA(model.Params{model.NFactors: 4})
	score := pca.Fit(context.Background(), train, test, nil)
	assert.False(t, pca.Invalid())
	// full rank reproduces the input to numerical precision
	assert.InDelta(t, 0, score.RMSE, 1e-4)
}

func TestPCAComponentsOrthonormal(t *testing.T) {
	table := syntheticTable(60, 5, 3, 0.1, 1)
	train, test := table.Split(0.2, 0)
	pca := NewPCA(model.Params{model.NFactors: 3})
	pca.Fit(context.Background(), train, test, nil)
	k, d := pca.components.Dims()
	assert.Equal(t, 3, k)
	assert.Equal(t, 5, d)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			dot := 0.0
			for c := 0; c < d; c++ {
				dot += pca.components.At(i, c) * pca.components.At(j, c)
			}
			if i == j {
				assert.InDelta(t, 1, dot, 1e-6)
			} else {
				assert.InDelta(t, 0, dot, 1e-6)
			}
		}
	}
}

func TestPCAExplainedVariance(t *testing.T) {
	table := syntheticTable(60, 5, 2, 0.05, 2)
	train, test := table.Split(0.2, 0)
	pca := NewPCA(model.Params{model.NFactors: 5})
	pca.Fit(context.Background(), train, test, nil)
	ratios := pca.ExplainedVarianceRatios()
	total := 0.0
	for i, r := range ratios {
		total += r
		if i > 0 {
			assert.LessOrEqual(t, r, ratios[i-1])
		}
	}
	assert.LessOrEqual(t, total, 1+1e-9)
	// two intrinsic dimensions dominate
	assert.Greater(t, ratios[0]+ratios[1], 0.9)
}

func TestPCAClampFactors(t *testing.T) {
	table := syntheticTable(50, 3, 3, 0.1, 3)
	train, test := table.Split(0.2, 0)
	pca := NewPCA(model.Params{model.NFactors: 10})
	pca.Fit(context.Background(), train, test, nil)
	k, _ := pca.components.Dims()
	assert.Equal(t, 3, k)
}

func TestPCAFactorizeFailure(t *testing.T) {
	table := syntheticTable(30, 3, 2, 0.1, 5)
	table.Rows[0][0] = math32.NaN()
	train, test := table.Split(0, 0)
	pca := NewPCA(model.Params{model.NFactors: 2})
	score := pca.Fit(context.Background(), train, test, nil)
	// a failed factorization must not look like a perfect fit
	assert.True(t, math32.IsNaN(score.RMSE))
}

func TestPCAClear(t *testing.T) {
	table := syntheticTable(30, 3, 2, 0.1, 4)
	train, test := table.Split(0.2, 0)
	pca := NewPCA(model.Params{model.NFactors: 2})
	pca.Fit(context.Background(), train, test, nil)
	assert.False(t, pca.Invalid())
	pca.Clear()
	assert.True(t, pca.Invalid())
}
