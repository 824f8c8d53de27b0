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
	"math"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/dimred-io/dimred/base/log"
	"github.com/dimred-io/dimred/model"
)

// TuneResult is the outcome of a hyper-parameter search.
type TuneResult struct {
	BestParams model.Params
	BestScore  Score
	NumTrials  int
}

// TuneSymmetricAE searches learning rate, weight decay and init stddev with
// TPE at a pilot dimension, minimizing held-out reconstruction RMSE. The
// returned params are the base params overwritten with the best trial.
func TuneSymmetricAE(ctx context.Context, trainSet, testSet *Table, pilotDim, nTrials int, baseParams model.Params, nJobs int) (*TuneResult, error) {
	study, err := goptuna.CreateStudy("SymmetricAE",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionSampler(tpe.NewSampler()))
	if err != nil {
		return nil, errors.Trace(err)
	}
	err = study.Optimize(func(trial goptuna.Trial) (float64, error) {
		ae := NewSymmetricAE(nil)
		params := baseParams.Overwrite(ae.SuggestParams(trial)).
			Overwrite(model.Params{model.NFactors: pilotDim})
		ae.SetParams(params)
		score := ae.Fit(ctx, trainSet, testSet, model.NewFitConfig().SetJobs(nJobs).SetVerbose(math.MaxInt))
		if math.IsNaN(float64(score.RMSE)) {
			return math.MaxFloat64, nil
		}
		return float64(score.RMSE), nil
	}, nTrials)
	if err != nil {
		return nil, errors.Trace(err)
	}
	bestValue := lo.Must(study.GetBestValue())
	bestTrialParams := lo.Must(study.GetBestParams())
	bestParams := baseParams.Overwrite(model.Params{
		model.Lr:         bestTrialParams[string(model.Lr)].(float64),
		model.Reg:        bestTrialParams[string(model.Reg)].(float64),
		model.InitStdDev: bestTrialParams[string(model.InitStdDev)].(float64),
	})
	log.Logger().Info("tune SymmetricAE complete",
		zap.Int("n_trials", nTrials),
		zap.Float64("best_rmse", bestValue),
		zap.Any("best_params", bestParams))
	return &TuneResult{
		BestParams: bestParams,
		BestScore:  Score{RMSE: float32(bestValue)},
		NumTrials:  nTrials,
	}, nil
}
