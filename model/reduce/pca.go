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
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"modernc.org/mathutil"

	"github.com/dimred-io/dimred/base/log"
	"github.com/dimred-io/dimred/model"
)

// PCA projects data onto the directions of maximum variance. It is the linear
// baseline for reconstruction.
type PCA struct {
	model.BaseModel
	components *mat.Dense // k x d, rows are orthonormal principal directions
	mean       []float64
	ratios     []float64
	nFactors   int
}

// NewPCA creates a PCA estimator from hyper-parameters.
func NewPCA(params model.Params) *PCA {
	pca := new(PCA)
	pca.SetParams(params)
	return pca
}

// SetParams sets hyper-parameters for PCA.
func (pca *PCA) SetParams(params model.Params) {
	pca.BaseModel.SetParams(params)
	pca.nFactors = pca.Params.GetInt(model.NFactors, 2)
}

// Clear drops the fitted components.
func (pca *PCA) Clear() {
	pca.components = nil
	pca.mean = nil
	pca.ratios = nil
}

// Invalid reports whether the model has no fitted components.
func (pca *PCA) Invalid() bool {
	return pca == nil || pca.components == nil
}

// ExplainedVarianceRatios returns the fraction of total variance captured by
// each kept component.
func (pca *PCA) ExplainedVarianceRatios() []float64 {
	return pca.ratios
}

// Fit estimates the principal components from the training set via thin SVD
// of the centered data matrix and returns the reconstruction score on the
// test set.
func (pca *PCA) Fit(ctx context.Context, trainSet, testSet *Table, config *model.FitConfig) Score {
	config = config.LoadDefaultIfNil()
	n, d := trainSet.NumRows(), trainSet.NumCols()
	k := mathutil.Min(pca.nFactors, mathutil.Min(n, d))
	log.Logger().Info("fit PCA",
		zap.Int("n_samples", n),
		zap.Int("n_features", d),
		zap.Int("n_factors", k))
	start := time.Now()

	// Center the data matrix.
	pca.mean = make([]float64, d)
	for _, row := range trainSet.Rows {
		for j, v := range row {
			pca.mean[j] += float64(v)
		}
	}
	for j := range pca.mean {
		pca.mean[j] /= float64(n)
	}
	centered := mat.NewDense(n, d, nil)
	for i, row := range trainSet.Rows {
		for j, v := range row {
			centered.Set(i, j, float64(v)-pca.mean[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		log.Logger().Error("SVD failed to converge")
		return Score{RMSE: math32.NaN()}
	}
	var v mat.Dense
	svd.VTo(&v)
	pca.components = mat.NewDense(k, d, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < d; j++ {
			pca.components.Set(i, j, v.At(j, i))
		}
	}
	values := svd.Values(nil)
	total := 0.0
	for _, sigma := range values {
		total += sigma * sigma
	}
	pca.ratios = make([]float64, k)
	for i := 0; i < k; i++ {
		if total > 0 {
			pca.ratios[i] = values[i] * values[i] / total
		}
	}

	score := EvaluateReconstruction(pca, testSet, config.Jobs)
	log.Logger().Info("fit PCA complete",
		append([]zap.Field{zap.Duration("fit_time", time.Since(start))}, score.ZapFields()...)...)
	return score
}

// Transform projects a row into the reduced space.
func (pca *PCA) Transform(row []float32) []float32 {
	k, d := pca.components.Dims()
	z := make([]float32, k)
	for i := 0; i < k; i++ {
		sum := 0.0
		for j := 0; j < d; j++ {
			sum += pca.components.At(i, j) * (float64(row[j]) - pca.mean[j])
		}
		z[i] = float32(sum)
	}
	return z
}

// Reconstruct projects a row into the reduced space and back.
func (pca *PCA) Reconstruct(row []float32) []float32 {
	k, d := pca.components.Dims()
	z := pca.Transform(row)
	x := make([]float32, d)
	for j := 0; j < d; j++ {
		sum := pca.mean[j]
		for i := 0; i < k; i++ {
			sum += pca.components.At(i, j) * float64(z[i])
		}
		x[j] = float32(sum)
	}
	return x
}
