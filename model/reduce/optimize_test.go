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

	"github.com/stretchr/testify/assert"

	"github.com/dimred-io/dimred/model"
)

func TestTuneSymmetricAE(t *testing.T) {
	table := syntheticTable(60, 4, 2, 0.1, 0)
	table.Standardize()
	train, test := table.Split(0.2, 0)
	baseParams := model.Params{model.NEpochs: 3, model.RandomState: int64(1)}

	result, err := TuneSymmetricAE(context.Background(), train, test, 2, 5, baseParams, 1)
	assert.NoError(t, err)
	assert.Equal(t, 5, result.NumTrials)
	assert.Positive(t, result.BestScore.RMSE)
	// the winning trial's params overwrite the base params
	assert.Positive(t, result.BestParams.GetFloat32(model.Lr, 0))
	assert.Positive(t, result.BestParams.GetFloat32(model.InitStdDev, 0))
	assert.Equal(t, 3, result.BestParams.GetInt(model.NEpochs, 0))
}
