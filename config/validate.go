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

package config

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

func validateNotEmpty(name string, val []int) {
	if len(val) == 0 {
		panic(fmt.Sprintf("value of `%s` in config must not be empty", name))
	}
}

func validateNotNegative(name string, val int) {
	if val < 0 {
		panic(fmt.Sprintf("value of `%s` in config must not be negative, but the current value is %d", name, val))
	}
}

func validatePositive(name string, val int) {
	if val <= 0 {
		panic(fmt.Sprintf("value of `%s` in config must be positive, but the current value is %d", name, val))
	}
}

func validateIn(name, val string, expectedValues []string) {
	if !lo.Contains(expectedValues, val) {
		panic(fmt.Sprintf("value of `%s` in config must be one of [%s], but the current value is %s",
			name, strings.Join(expectedValues, ","), val))
	}
}

func validateRatio(name string, val float32) {
	if val < 0 || val >= 1 {
		panic(fmt.Sprintf("value of `%s` in config must be in [0,1), but the current value is %f", name, val))
	}
}

// Validate panics on invalid configuration values.
func (config *Config) Validate() {
	// [data]
	if config.Data.Name == "" && config.Data.Path == "" {
		panic("one of `data.name` and `data.path` in config must be set")
	}
	validateIn("data.scaler", config.Data.Scaler, []string{"standard", "minmax", "none"})
	validateRatio("data.test_ratio", config.Data.TestRatio)
	// [sweep]
	validateNotEmpty("sweep.dims", config.Sweep.Dims)
	for _, dim := range config.Sweep.Dims {
		validatePositive("sweep.dims", dim)
	}
	// [train]
	validatePositive("train.n_epochs", config.Train.NEpochs)
	validatePositive("train.batch_size", config.Train.BatchSize)
	validatePositive("train.jobs", config.Train.Jobs)
	validatePositive("train.verbose", config.Train.Verbose)
	validateNotNegative("train.patience", config.Train.Patience)
	validateIn("train.optimizer", config.Train.Optimizer, []string{"sgd", "adam"})
	// [tune]
	if config.Tune.Enable {
		validatePositive("tune.n_trials", config.Tune.NumTrials)
		validatePositive("tune.pilot_dim", config.Tune.PilotDim)
	}
	// [output]
	if config.Output.Dir == "" {
		panic("value of `output.dir` in config must not be empty")
	}
}
