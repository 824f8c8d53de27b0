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

package model

import (
	"github.com/dimred-io/dimred/base/log"
	"go.uber.org/zap"
)

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names.
const (
	Lr          ParamName = "Lr"          // learning rate
	Reg         ParamName = "Reg"         // weight decay
	NEpochs     ParamName = "NEpochs"     // number of epochs
	NFactors    ParamName = "NFactors"    // reduced dimension
	BatchSize   ParamName = "BatchSize"   // mini-batch size
	RandomState ParamName = "RandomState" // random state (seed)
	InitMean    ParamName = "InitMean"    // mean of gaussian initial parameters
	InitStdDev  ParamName = "InitStdDev"  // standard deviation of gaussian initial parameters
	Optimizer   ParamName = "Optimizer"   // optimizer for training (sgd, adam)
	Tol         ParamName = "Tol"         // early stopping tolerance
	Patience    ParamName = "Patience"    // early stopping patience
)

// Params stores hyper-parameters for a model. It is a map between names and
// values. For example, hyper-parameters for SymmetricAE are given by:
//
//	model.Params{
//		model.Lr:       0.01,
//		model.NEpochs:  200,
//		model.NFactors: 2,
//	}
type Params map[ParamName]interface{}

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// Overwrite merges src into a copy of the current parameters. Values from src
// win on conflicts.
func (parameters Params) Overwrite(src Params) Params {
	merged := parameters.Copy()
	for k, v := range src {
		merged[k] = v
	}
	return merged
}

// GetInt gets an integer parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		case int64:
			return int(val)
		case float64:
			return int(val)
		default:
			log.Logger().Error("param type mismatch",
				zap.String("name", string(name)),
				zap.Any("value", val))
		}
	}
	return _default
}

// GetInt64 gets an int64 parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		case float64:
			return int64(val)
		default:
			log.Logger().Error("param type mismatch",
				zap.String("name", string(name)),
				zap.Any("value", val))
		}
	}
	return _default
}

// GetFloat32 gets a float parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetFloat32(name ParamName, _default float32) float32 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float32:
			return val
		case float64:
			return float32(val)
		case int:
			return float32(val)
		default:
			log.Logger().Error("param type mismatch",
				zap.String("name", string(name)),
				zap.Any("value", val))
		}
	}
	return _default
}

// GetString gets a string parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetString(name ParamName, _default string) string {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case string:
			return val
		default:
			log.Logger().Error("param type mismatch",
				zap.String("name", string(name)),
				zap.Any("value", val))
		}
	}
	return _default
}

// GetBool gets a bool parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetBool(name ParamName, _default bool) bool {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case bool:
			return val
		default:
			log.Logger().Error("param type mismatch",
				zap.String("name", string(name)),
				zap.Any("value", val))
		}
	}
	return _default
}
