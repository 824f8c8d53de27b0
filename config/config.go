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
	"github.com/juju/errors"
	"github.com/spf13/viper"

	"github.com/dimred-io/dimred/model"
)

// Config is the configuration for the experiment runner.
type Config struct {
	Data   DataConfig   `mapstructure:"data"`
	Sweep  SweepConfig  `mapstructure:"sweep"`
	Train  TrainConfig  `mapstructure:"train"`
	Tune   TuneConfig   `mapstructure:"tune"`
	Output OutputConfig `mapstructure:"output"`
}

// DataConfig describes the dataset and its preprocessing.
type DataConfig struct {
	Name        string  `mapstructure:"name"`         // built-in dataset name
	Path        string  `mapstructure:"path"`         // CSV file, overrides name
	Scaler      string  `mapstructure:"scaler"`       // standard, minmax or none
	TestRatio   float32 `mapstructure:"test_ratio"`   // held-out fraction
	RandomState int64   `mapstructure:"random_state"` // split and init seed
}

// SweepConfig lists the reduced dimensions to compare.
type SweepConfig struct {
	Dims []int `mapstructure:"dims"`
}

// TrainConfig holds autoencoder training hyper-parameters.
type TrainConfig struct {
	Lr        float64 `mapstructure:"lr"`
	Reg       float64 `mapstructure:"reg"`
	NEpochs   int     `mapstructure:"n_epochs"`
	BatchSize int     `mapstructure:"batch_size"`
	Optimizer string  `mapstructure:"optimizer"`
	Tol       float64 `mapstructure:"tol"`
	Patience  int     `mapstructure:"patience"`
	Verbose   int     `mapstructure:"verbose"`
	Jobs      int     `mapstructure:"jobs"`
}

// TuneConfig controls the optional hyper-parameter search before the sweep.
type TuneConfig struct {
	Enable    bool `mapstructure:"enable"`
	NumTrials int  `mapstructure:"n_trials"`
	PilotDim  int  `mapstructure:"pilot_dim"`
}

// OutputConfig places checkpoints, the CSV table and the plot.
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	PlotFile string `mapstructure:"plot_file"`
	Resume   bool   `mapstructure:"resume"`
}

func setDefault() {
	// [data]
	viper.SetDefault("data.name", "iris")
	viper.SetDefault("data.scaler", "standard")
	viper.SetDefault("data.test_ratio", 0.2)
	viper.SetDefault("data.random_state", 0)
	// [sweep]
	viper.SetDefault("sweep.dims", []int{1, 2, 3})
	// [train]
	viper.SetDefault("train.lr", 0.01)
	viper.SetDefault("train.reg", 0.0)
	viper.SetDefault("train.n_epochs", 200)
	viper.SetDefault("train.batch_size", 32)
	viper.SetDefault("train.optimizer", "adam")
	viper.SetDefault("train.tol", 1e-4)
	viper.SetDefault("train.patience", 5)
	viper.SetDefault("train.verbose", 10)
	viper.SetDefault("train.jobs", 1)
	// [tune]
	viper.SetDefault("tune.enable", false)
	viper.SetDefault("tune.n_trials", 10)
	viper.SetDefault("tune.pilot_dim", 2)
	// [output]
	viper.SetDefault("output.dir", "output")
	viper.SetDefault("output.plot_file", "rmse.png")
	viper.SetDefault("output.resume", true)
}

// GetDefaultConfig returns a default config.
func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Name:      "iris",
			Scaler:    "standard",
			TestRatio: 0.2,
		},
		Sweep: SweepConfig{
			Dims: []int{1, 2, 3},
		},
		Train: TrainConfig{
			Lr:        0.01,
			NEpochs:   200,
			BatchSize: 32,
			Optimizer: "adam",
			Tol:       1e-4,
			Patience:  5,
			Verbose:   10,
			Jobs:      1,
		},
		Tune: TuneConfig{
			NumTrials: 10,
			PilotDim:  2,
		},
		Output: OutputConfig{
			Dir:      "output",
			PlotFile: "rmse.png",
			Resume:   true,
		},
	}
}

// LoadConfig loads configuration from a toml file.
func LoadConfig(path string) (*Config, error) {
	setDefault()
	viper.SetConfigType("toml")
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}
	var conf Config
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// ToParams converts training settings to model hyper-parameters.
func (config *TrainConfig) ToParams(randomState int64) model.Params {
	return model.Params{
		model.Lr:          config.Lr,
		model.Reg:         config.Reg,
		model.NEpochs:     config.NEpochs,
		model.BatchSize:   config.BatchSize,
		model.Optimizer:   config.Optimizer,
		model.Tol:         config.Tol,
		model.Patience:    config.Patience,
		model.RandomState: randomState,
	}
}
