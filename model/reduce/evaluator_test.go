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

type identityReconstructor struct{}

func (identityReconstructor) Reconstruct(row []float32) []float32 {
	return row
}

type shiftReconstructor struct {
	delta float32
}

func (r shiftReconstructor) Reconstruct(row []float32) []float32 {
	shifted := make([]float32, len(row))
	for i, v := range row {
		shifted[i] = v + r.delta
	}
	return shifted
}

func TestEvaluateReconstruction(t *testing.T) {
	table := &Table{
		Names: []string{"a", "b"},
		Rows:  [][]float32{{1, 2}, {3, 4}, {5, 6}},
	}
	score := EvaluateReconstruction(identityReconstructor{}, table, 2)
	assert.Zero(t, score.RMSE)

	// a constant residual of delta gives RMSE = delta
	score = EvaluateReconstruction(shiftReconstructor{delta: 0.5}, table, 2)
	assert.InDelta(t, 0.5, score.RMSE, 1e-6)
}

func TestEvaluateEmptyTable(t *testing.T) {
	score := EvaluateReconstruction(identityReconstructor{}, &Table{}, 1)
	assert.Zero(t, score.RMSE)
	score = EvaluateReconstruction(identityReconstructor{}, nil, 1)
	assert.Zero(t, score.RMSE)
}

func TestScoreBetterThan(t *testing.T) {
	assert.True(t, Score{RMSE: 0.1}.BetterThan(Score{RMSE: 0.2}))
	assert.False(t, Score{RMSE: 0.2}.BetterThan(Score{RMSE: 0.1}))
	assert.True(t, Score{RMSE: 0.1}.BetterThan(Score{RMSE: math32.NaN()}))
	assert.False(t, Score{RMSE: math32.NaN()}.BetterThan(Score{RMSE: 0.1}))
}
