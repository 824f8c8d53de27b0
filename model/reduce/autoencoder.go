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
	"io"
	"time"

	"github.com/c-bata/goptuna"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"modernc.org/mathutil"

	"github.com/dimred-io/dimred/base/encoding"
	"github.com/dimred-io/dimred/base/log"
	"github.com/dimred-io/dimred/base/progress"
	"github.com/dimred-io/dimred/common/nn"
	"github.com/dimred-io/dimred/model"
)

// SymmetricAE is a single-layer autoencoder with tied weights:
//
//	h = tanh(x W + b1)
//	x̂ = h Wᵀ + b2
//
// The weight matrix W is shared between the encoder and the decoder, so its
// gradient is the sum of both contributions.
type SymmetricAE struct {
	model.BaseModel
	W  *nn.Tensor // input x factors
	B1 *nn.Tensor // factors
	B2 *nn.Tensor // input
	// dimensions
	nInput   int
	nFactors int
	// hyper parameters
	lr         float32
	reg        float32
	initMean   float32
	initStdDev float32
	tol        float32
	nEpochs    int
	batchSize  int
	patience   int
	optimizer  string
	// Epochs is the number of epochs actually run by the last Fit.
	Epochs int
	// Loss is the epoch loss history of the last Fit.
	Loss []float32
}

// NewSymmetricAE creates a tied-weight autoencoder from hyper-parameters.
func NewSymmetricAE(params model.Params) *SymmetricAE {
	ae := new(SymmetricAE)
	ae.SetParams(params)
	return ae
}

// SetParams sets hyper-parameters for the autoencoder.
func (ae *SymmetricAE) SetParams(params model.Params) {
	ae.BaseModel.SetParams(params)
	ae.nFactors = ae.Params.GetInt(model.NFactors, 2)
	ae.nEpochs = ae.Params.GetInt(model.NEpochs, 200)
	ae.batchSize = ae.Params.GetInt(model.BatchSize, 32)
	ae.lr = ae.Params.GetFloat32(model.Lr, 0.01)
	ae.reg = ae.Params.GetFloat32(model.Reg, 0)
	ae.initMean = ae.Params.GetFloat32(model.InitMean, 0)
	ae.initStdDev = ae.Params.GetFloat32(model.InitStdDev, 0.1)
	ae.tol = ae.Params.GetFloat32(model.Tol, 1e-4)
	ae.patience = ae.Params.GetInt(model.Patience, 5)
	ae.optimizer = ae.Params.GetString(model.Optimizer, "adam")
}

// SuggestParams draws tunable hyper-parameters from a trial.
func (ae *SymmetricAE) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.Lr:         lo.Must(trial.SuggestLogFloat(string(model.Lr), 0.0001, 0.1)),
		model.Reg:        lo.Must(trial.SuggestLogFloat(string(model.Reg), 0.000001, 0.01)),
		model.InitMean:   0,
		model.InitStdDev: lo.Must(trial.SuggestLogFloat(string(model.InitStdDev), 0.001, 0.1)),
	}
}

// Clear drops the fitted weights.
func (ae *SymmetricAE) Clear() {
	ae.W = nil
	ae.B1 = nil
	ae.B2 = nil
}

// Invalid reports whether the model has no fitted weights.
func (ae *SymmetricAE) Invalid() bool {
	return ae == nil || ae.W == nil
}

func (ae *SymmetricAE) init(trainSet *Table) {
	ae.nInput = trainSet.NumCols()
	rng := ae.GetRandomGenerator()
	ae.W = nn.NewTensor(rng.NormalVector(ae.nInput*ae.nFactors, ae.initMean, ae.initStdDev),
		ae.nInput, ae.nFactors).RequireGrad()
	ae.B1 = nn.Zeros(ae.nFactors).RequireGrad()
	ae.B2 = nn.Zeros(ae.nInput).RequireGrad()
}

func (ae *SymmetricAE) parameters() []*nn.Tensor {
	return []*nn.Tensor{ae.W, ae.B1, ae.B2}
}

func (ae *SymmetricAE) forward(x *nn.Tensor) *nn.Tensor {
	h := nn.Tanh(nn.Add(nn.MatMul(x, ae.W), ae.B1))
	return nn.Add(nn.MatMul(h, nn.Transpose(ae.W)), ae.B2)
}

// Encode maps a row into the reduced space.
func (ae *SymmetricAE) Encode(row []float32) []float32 {
	x := nn.NewTensor(append([]float32(nil), row...), 1, ae.nInput)
	h := nn.Tanh(nn.Add(nn.MatMul(x, ae.W), ae.B1))
	return append([]float32(nil), h.Data()...)
}

// Reconstruct maps a row through the reduced space and back.
func (ae *SymmetricAE) Reconstruct(row []float32) []float32 {
	x := nn.NewTensor(append([]float32(nil), row...), 1, ae.nInput)
	y := ae.forward(x)
	return append([]float32(nil), y.Data()...)
}

// Fit trains the autoencoder with mini-batch gradient descent. Training stops
// at the epoch cap, when the epoch loss diverges to NaN, or when the
// epoch-over-epoch improvement stays below the tolerance for a number of
// consecutive epochs. The weights of the best epoch are kept.
func (ae *SymmetricAE) Fit(ctx context.Context, trainSet, testSet *Table, config *model.FitConfig) Score {
	config = config.LoadDefaultIfNil()
	log.Logger().Info("fit SymmetricAE",
		zap.Int("train_set_size", trainSet.NumRows()),
		zap.Int("test_set_size", testSet.NumRows()),
		zap.Int("n_factors", ae.nFactors),
		zap.Int("n_epochs", ae.nEpochs),
		zap.Int("batch_size", ae.batchSize),
		zap.Float32("lr", ae.lr),
		zap.Float32("reg", ae.reg),
		zap.String("optimizer", ae.optimizer))
	start := time.Now()
	ae.init(trainSet)
	ae.Loss = nil
	x := trainSet.Tensor()

	var optimizer nn.Optimizer
	switch ae.optimizer {
	case "sgd":
		optimizer = nn.NewSGD(ae.parameters(), ae.lr)
	default:
		optimizer = nn.NewAdam(ae.parameters(), ae.lr)
	}
	optimizer.SetWeightDecay(ae.reg)

	bestLoss := float32(math32.MaxFloat32)
	bestWeights := ae.snapshot()
	badEpochs := 0
	prevLoss := float32(math32.MaxFloat32)
	_, span := progress.Start(ctx, "SymmetricAE.Fit", ae.nEpochs)
	for epoch := 1; epoch <= ae.nEpochs; epoch++ {
		cost := float32(0)
		numBatches := 0
		for i := 0; i < trainSet.NumRows(); i += ae.batchSize {
			j := mathutil.Min(i+ae.batchSize, trainSet.NumRows())
			batch := x.Slice(i, j)
			loss := nn.MeanSquareError(batch, ae.forward(batch))
			optimizer.ZeroGrad()
			loss.Backward()
			optimizer.Step()
			cost += loss.Data()[0]
			numBatches++
		}
		cost /= float32(numBatches)
		ae.Epochs = epoch
		ae.Loss = append(ae.Loss, cost)
		span.Add(1)

		if math32.IsNaN(cost) || math32.IsInf(cost, 0) {
			log.Logger().Warn("training diverged",
				zap.Int("epoch", epoch),
				zap.Float32("loss", cost))
			break
		}
		if cost < bestLoss {
			bestLoss = cost
			bestWeights = ae.snapshot()
		}
		if prevLoss-cost < ae.tol {
			badEpochs++
			if badEpochs >= ae.patience {
				log.Logger().Info("early stop",
					zap.Int("epoch", epoch),
					zap.Float32("loss", cost))
				break
			}
		} else {
			badEpochs = 0
		}
		prevLoss = cost

		if (config.Verbose > 0 && epoch%config.Verbose == 0) || epoch == ae.nEpochs {
			score := EvaluateReconstruction(ae, testSet, config.Jobs)
			log.Logger().Debug("fit SymmetricAE",
				append([]zap.Field{
					zap.Int("epoch", epoch),
					zap.Float32("loss", cost),
				}, score.ZapFields()...)...)
		}
	}
	span.End()
	ae.restore(bestWeights)
	score := EvaluateReconstruction(ae, testSet, config.Jobs)
	log.Logger().Info("fit SymmetricAE complete",
		append([]zap.Field{
			zap.Int("epochs", ae.Epochs),
			zap.Float32("best_loss", bestLoss),
			zap.Duration("fit_time", time.Since(start)),
		}, score.ZapFields()...)...)
	return score
}

func (ae *SymmetricAE) snapshot() [][]float32 {
	weights := make([][]float32, 0, 3)
	for _, p := range ae.parameters() {
		weights = append(weights, append([]float32(nil), p.Data()...))
	}
	return weights
}

func (ae *SymmetricAE) restore(weights [][]float32) {
	for i, p := range ae.parameters() {
		copy(p.Data(), weights[i])
	}
}

type symmetricAESnapshot struct {
	Params   model.Params
	NInput   int
	NFactors int
	W        []float32
	B1       []float32
	B2       []float32
}

// Marshal serializes the model into a writer.
func (ae *SymmetricAE) Marshal(w io.Writer) error {
	if ae.Invalid() {
		return errors.New("cannot marshal an unfitted model")
	}
	return errors.Trace(encoding.WriteGob(w, symmetricAESnapshot{
		Params:   ae.Params,
		NInput:   ae.nInput,
		NFactors: ae.nFactors,
		W:        ae.W.Data(),
		B1:       ae.B1.Data(),
		B2:       ae.B2.Data(),
	}))
}

// Unmarshal deserializes the model from a reader.
func (ae *SymmetricAE) Unmarshal(r io.Reader) error {
	var snapshot symmetricAESnapshot
	if err := encoding.ReadGob(r, &snapshot); err != nil {
		return errors.Trace(err)
	}
	ae.SetParams(snapshot.Params)
	ae.nInput = snapshot.NInput
	ae.nFactors = snapshot.NFactors
	ae.W = nn.NewTensor(snapshot.W, snapshot.NInput, snapshot.NFactors).RequireGrad()
	ae.B1 = nn.NewTensor(snapshot.B1, snapshot.NFactors).RequireGrad()
	ae.B2 = nn.NewTensor(snapshot.B2, snapshot.NInput).RequireGrad()
	return nil
}
