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
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/dimred-io/dimred/base/encoding"
	"github.com/dimred-io/dimred/base/log"
	"github.com/dimred-io/dimred/base/progress"
	"github.com/dimred-io/dimred/model"
)

// SweepPoint is the outcome of one reduced dimension.
type SweepPoint struct {
	Dim     int
	PCARMSE float32
	AERMSE  float32
	Epochs  int
	FitTime time.Duration
}

// SweepResult collects sweep points in ascending dimension order. LastLoss is
// the epoch loss history of the most recent autoencoder run, kept for the
// loss-curve plot.
type SweepResult struct {
	Points   []SweepPoint
	LastLoss []float32
}

// Completed checks if a dimension has been computed already.
func (result *SweepResult) Completed(dim int) bool {
	return lo.ContainsBy(result.Points, func(point SweepPoint) bool {
		return point.Dim == dim
	})
}

// Save writes the result to a gob checkpoint atomically.
func (result *SweepResult) Save(path string) error {
	return errors.Trace(encoding.SaveGob(path, result))
}

// LoadSweepResult reads a sweep checkpoint. A missing file yields an empty
// result.
func LoadSweepResult(path string) (*SweepResult, error) {
	result := new(SweepResult)
	if err := encoding.LoadGob(path, result); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return &SweepResult{}, nil
		}
		return nil, errors.Trace(err)
	}
	return result, nil
}

// ExportCSV writes the result table as CSV.
func (result *SweepResult) ExportCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err = w.Write([]string{"dim", "pca_rmse", "ae_rmse", "epochs", "fit_time"}); err != nil {
		return errors.Trace(err)
	}
	for _, point := range result.Points {
		record := []string{
			strconv.Itoa(point.Dim),
			strconv.FormatFloat(float64(point.PCARMSE), 'f', 6, 32),
			strconv.FormatFloat(float64(point.AERMSE), 'f', 6, 32),
			strconv.Itoa(point.Epochs),
			point.FitTime.String(),
		}
		if err = w.Write(record); err != nil {
			return errors.Trace(err)
		}
	}
	w.Flush()
	return errors.Trace(w.Error())
}

// SweepConfig tunes the behavior of a sweep.
type SweepConfig struct {
	CheckpointPath string
	Resume         bool
	Jobs           int
	Verbose        int
}

// Sweep fits PCA and the tied-weight autoencoder for every reduced dimension
// and scores both on the test set. The partial result is checkpointed after
// every dimension. With Resume set, dimensions found in the checkpoint are
// skipped.
func Sweep(ctx context.Context, trainSet, testSet *Table, dims []int, params model.Params, conf *SweepConfig) (*SweepResult, error) {
	if conf == nil {
		conf = &SweepConfig{Jobs: 1, Verbose: 10}
	}
	dims = append([]int(nil), dims...)
	sort.Ints(dims)

	result := &SweepResult{}
	if conf.Resume && conf.CheckpointPath != "" {
		var err error
		if result, err = LoadSweepResult(conf.CheckpointPath); err != nil {
			return nil, errors.Trace(err)
		}
		if len(result.Points) > 0 {
			log.Logger().Info("resume sweep from checkpoint",
				zap.String("path", conf.CheckpointPath),
				zap.Int("completed", len(result.Points)))
		}
	}

	newCtx, span := progress.Start(ctx, "Sweep", len(dims))
	for _, dim := range dims {
		if result.Completed(dim) {
			span.Add(1)
			continue
		}
		if err := ctx.Err(); err != nil {
			span.Fail(err)
			return result, errors.Trace(err)
		}
		dimParams := params.Overwrite(model.Params{model.NFactors: dim})
		fitConfig := model.NewFitConfig().SetJobs(conf.Jobs).SetVerbose(conf.Verbose)

		start := time.Now()
		pca := NewPCA(dimParams)
		pcaScore := pca.Fit(newCtx, trainSet, testSet, fitConfig)
		ae := NewSymmetricAE(dimParams)
		aeScore := ae.Fit(newCtx, trainSet, testSet, fitConfig)

		point := SweepPoint{
			Dim:     dim,
			PCARMSE: pcaScore.RMSE,
			AERMSE:  aeScore.RMSE,
			Epochs:  ae.Epochs,
			FitTime: time.Since(start),
		}
		result.Points = append(result.Points, point)
		result.LastLoss = ae.Loss
		sort.Slice(result.Points, func(i, j int) bool {
			return result.Points[i].Dim < result.Points[j].Dim
		})
		log.Logger().Info("sweep point",
			zap.Int("dim", point.Dim),
			zap.Float32("pca_rmse", point.PCARMSE),
			zap.Float32("ae_rmse", point.AERMSE),
			zap.Int("epochs", point.Epochs),
			zap.Duration("fit_time", point.FitTime))
		if conf.CheckpointPath != "" {
			if err := result.Save(conf.CheckpointPath); err != nil {
				span.Fail(err)
				return result, errors.Trace(err)
			}
		}
		span.Add(1)
	}
	span.End()
	return result, nil
}
