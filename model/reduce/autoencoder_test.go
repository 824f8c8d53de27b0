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
	"bytes"
	"context"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/dimred-io/dimred/model"
)

func TestSymmetricAEFit(t *testing.T) {
	table := syntheticTable(200, 6, 2, 0.05, 0)
	table.Standardize()
	train, test := table.Split(0.2, 0)
	ae := NewSymmetricAE(model.Params{
		model.NFactors:    2,
		model.NEpochs:     100,
		model.Lr:          0.01,
		model.BatchSize:   32,
		model.RandomState: int64(42),
	})
	score := ae.Fit(context.Background(), train, test, model.NewFitConfig())
	assert.False(t, ae.Invalid())
	assert.Len(t, ae.Loss, ae.Epochs)
	// standardized columns have unit variance, so a trivial predictor scores
	// around 1
	assert.Less(t, score.RMSE, float32(0.8))
}

func TestSymmetricAEEncode(t *testing.T) {
	table := syntheticTable(50, 4, 2, 0.1, 1)
	table.Standardize()
	train, test := table.Split(0.2, 0)
	ae := NewSymmetricAE(model.Params{model.NFactors: 2, model.NEpochs: 5})
	ae.Fit(context.Background(), train, test, nil)
	h := ae.Encode(train.Rows[0])
	assert.Len(t, h, 2)
	x := ae.Reconstruct(train.Rows[0])
	assert.Len(t, x, 4)
}

func TestSymmetricAEFitSilent(t *testing.T) {
	table := syntheticTable(50, 4, 2, 0.1, 6)
	table.Standardize()
	train, test := table.Split(0.2, 0)
	ae := NewSymmetricAE(model.Params{model.NFactors: 2, model.NEpochs: 5})
	score := ae.Fit(context.Background(), train, test, model.NewFitConfig().SetVerbose(0))
	assert.False(t, ae.Invalid())
	assert.False(t, math32.IsNaN(score.RMSE))
}

func TestSymmetricAEEarlyStop(t *testing.T) {
	table := syntheticTable(50, 4, 2, 0.1, 2)
	table.Standardize()
	train, test := table.Split(0.2, 0)
	ae := NewSymmetricAE(model.Params{
		model.NFactors: 2,
		model.NEpochs:  1000,
		model.Tol:      10.0,
		model.Patience: 2,
	})
	ae.Fit(context.Background(), train, test, nil)
	// every epoch improves less than the absurd tolerance
	assert.LessOrEqual(t, ae.Epochs, 3)
}

func TestSymmetricAEDivergence(t *testing.T) {
	table := syntheticTable(50, 4, 2, 0.1, 3)
	table.Standardize()
	train, test := table.Split(0.2, 0)
	ae := NewSymmetricAE(model.Params{
		model.NFactors:  2,
		model.NEpochs:   100,
		model.Lr:        10000.0,
		model.Optimizer: "sgd",
	})
	score := ae.Fit(context.Background(), train, test, nil)
	// the weights of the best epoch survive divergence
	assert.False(t, math32.IsNaN(score.RMSE))
	assert.Less(t, ae.Epochs, 100)
}

func TestSymmetricAEMarshal(t *testing.T) {
	table := syntheticTable(50, 4, 2, 0.1, 4)
	table.Standardize()
	train, test := table.Split(0.2, 0)
	ae := NewSymmetricAE(model.Params{model.NFactors: 2, model.NEpochs: 5})
	ae.Fit(context.Background(), train, test, nil)

	buf := bytes.NewBuffer(nil)
	assert.NoError(t, ae.Marshal(buf))
	decoded := new(SymmetricAE)
	assert.NoError(t, decoded.Unmarshal(buf))
	assert.Equal(t, ae.Reconstruct(train.Rows[0]), decoded.Reconstruct(train.Rows[0]))
}

func TestSymmetricAEMarshalUnfitted(t *testing.T) {
	ae := NewSymmetricAE(nil)
	assert.Error(t, ae.Marshal(bytes.NewBuffer(nil)))
}

func TestSymmetricAEClear(t *testing.T) {
	table := syntheticTable(30, 3, 2, 0.1, 5)
	train, test := table.Split(0.2, 0)
	ae := NewSymmetricAE(model.Params{model.NFactors: 2, model.NEpochs: 2})
	ae.Fit(context.Background(), train, test, nil)
	assert.False(t, ae.Invalid())
	ae.Clear()
	assert.True(t, ae.Invalid())
}
