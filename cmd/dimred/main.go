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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/dimred-io/dimred/base/log"
	"github.com/dimred-io/dimred/cmd/version"
	"github.com/dimred-io/dimred/common/chart"
	"github.com/dimred-io/dimred/common/datautil"
	"github.com/dimred-io/dimred/config"
	"github.com/dimred-io/dimred/model/reduce"
)

var dimredCommand = &cobra.Command{
	Use:   "dimred",
	Short: "Compare PCA against a tied-weight autoencoder across reduced dimensions.",
	Run: func(cmd *cobra.Command, args []string) {
		// Show version
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)

		// Load config
		configPath, _ := cmd.PersistentFlags().GetString("config")
		conf := config.GetDefaultConfig()
		if configPath != "" {
			log.Logger().Info("load config", zap.String("config", configPath))
			var err error
			if conf, err = config.LoadConfig(configPath); err != nil {
				log.Logger().Fatal("failed to load config", zap.Error(err))
			}
		}
		conf.Validate()

		// Cancel the sweep on interrupt. The checkpoint keeps completed
		// dimensions for the next run.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := runExperiment(ctx, conf); err != nil {
			log.Logger().Fatal("failed to run experiment", zap.Error(err))
		}
	},
}

func init() {
	log.AddFlags(dimredCommand.PersistentFlags())
	dimredCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	dimredCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	dimredCommand.PersistentFlags().BoolP("version", "v", false, "dimred version")
}

func loadTable(conf *config.Config) (*reduce.Table, error) {
	var (
		rows  [][]float32
		names []string
		err   error
	)
	if conf.Data.Path != "" {
		rows, names, err = datautil.LoadCSV(conf.Data.Path)
	} else if conf.Data.Name == "iris" {
		rows, names, _, err = datautil.LoadIris()
	} else {
		return nil, errors.Errorf("unknown dataset: %s", conf.Data.Name)
	}
	if err != nil {
		return nil, err
	}
	return reduce.NewTable(names, rows)
}

func runExperiment(ctx context.Context, conf *config.Config) error {
	// Load and preprocess the dataset.
	table, err := loadTable(conf)
	if err != nil {
		return err
	}
	log.Logger().Info("load dataset",
		zap.Int("n_samples", table.NumRows()),
		zap.Int("n_features", table.NumCols()),
		zap.String("scaler", conf.Data.Scaler))
	switch conf.Data.Scaler {
	case "standard":
		table.Standardize()
	case "minmax":
		table.MinMaxScale()
	}
	trainSet, testSet := table.Split(conf.Data.TestRatio, conf.Data.RandomState)

	// Optional hyper-parameter search at the pilot dimension.
	params := conf.Train.ToParams(conf.Data.RandomState)
	if conf.Tune.Enable {
		tuned, err := reduce.TuneSymmetricAE(ctx, trainSet, testSet,
			conf.Tune.PilotDim, conf.Tune.NumTrials, params, conf.Train.Jobs)
		if err != nil {
			return err
		}
		params = tuned.BestParams
	}

	// Sweep the reduced dimensions.
	result, err := reduce.Sweep(ctx, trainSet, testSet, conf.Sweep.Dims, params, &reduce.SweepConfig{
		CheckpointPath: filepath.Join(conf.Output.Dir, "sweep.gob"),
		Resume:         conf.Output.Resume,
		Jobs:           conf.Train.Jobs,
		Verbose:        conf.Train.Verbose,
	})
	if err != nil {
		return err
	}

	// Export the result table and the plot.
	csvPath := filepath.Join(conf.Output.Dir, "sweep.csv")
	if err = result.ExportCSV(csvPath); err != nil {
		return err
	}
	dims := lo.Map(result.Points, func(p reduce.SweepPoint, _ int) float64 {
		return float64(p.Dim)
	})
	pcaCurve := lo.Map(result.Points, func(p reduce.SweepPoint, _ int) float64 {
		return float64(p.PCARMSE)
	})
	aeCurve := lo.Map(result.Points, func(p reduce.SweepPoint, _ int) float64 {
		return float64(p.AERMSE)
	})
	plotPath := filepath.Join(conf.Output.Dir, conf.Output.PlotFile)
	if err = chart.Lines(plotPath, "Reconstruction error", "reduced dimension", "RMSE",
		chart.NewSeries("PCA", dims, pcaCurve),
		chart.NewSeries("1-Sym AE", dims, aeCurve)); err != nil {
		return err
	}
	if len(result.LastLoss) > 0 {
		epochs := make([]float64, len(result.LastLoss))
		losses := make([]float64, len(result.LastLoss))
		for i, loss := range result.LastLoss {
			epochs[i] = float64(i + 1)
			losses[i] = float64(loss)
		}
		if err = chart.Lines(filepath.Join(conf.Output.Dir, "loss.png"),
			"Training loss", "epoch", "MSE",
			chart.NewSeries("1-Sym AE", epochs, losses)); err != nil {
			return err
		}
	}
	gaps := lo.Map(result.Points, func(p reduce.SweepPoint, _ int) float64 {
		return float64(p.PCARMSE - p.AERMSE)
	})
	log.Logger().Info("experiment complete",
		zap.Int("n_dims", len(result.Points)),
		zap.Float64("mean_rmse_gap", stat.Mean(gaps, nil)),
		zap.String("csv", csvPath),
		zap.String("plot", plotPath))
	return nil
}

func main() {
	if err := dimredCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
