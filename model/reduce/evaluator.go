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
	"go.uber.org/zap"

	"github.com/dimred-io/dimred/base/parallel"
)

// Reconstructor maps a row through a reduced representation and back.
type Reconstructor interface {
	Reconstruct(row []float32) []float32
}

// Score records the reconstruction quality of a fitted estimator.
type Score struct {
	RMSE float32
}

// BetterThan checks if the score is better than another. Lower RMSE wins; any
// score beats a NaN score.
func (score Score) BetterThan(other Score) bool {
	if math32.IsNaN(score.RMSE) {
		return false
	} else if math32.IsNaN(other.RMSE) {
		return true
	}
	return score.RMSE < other.RMSE
}

// ZapFields gets fields for zap logger.
func (score Score) ZapFields() []zap.Field {
	return []zap.Field{
		zap.Float32("RMSE", score.RMSE),
	}
}

// EvaluateReconstruction computes the root mean square of the elementwise
// reconstruction residuals over a table. Rows are reconstructed in parallel.
func EvaluateReconstruction(reconstructor Reconstructor, table *Table, nJobs int) Score {
	if table == nil || table.NumRows() == 0 || table.NumCols() == 0 {
		return Score{}
	}
	sums := make([]float32, table.NumRows())
	parallel.For(table.NumRows(), nJobs, func(i int) {
		row := table.Rows[i]
		reconstructed := reconstructor.Reconstruct(row)
		for j := range row {
			diff := row[j] - reconstructed[j]
			sums[i] += diff * diff
		}
	})
	sse := float32(0)
	for _, s := range sums {
		sse += s
	}
	return Score{
		RMSE: math32.Sqrt(sse / float32(table.NumRows()*table.NumCols())),
	}
}
