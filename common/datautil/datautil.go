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

package datautil

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/dimred-io/dimred/base/log"
	"github.com/dimred-io/dimred/common/util"
)

var (
	tempDir    string
	datasetDir string
)

func init() {
	usr, err := user.Current()
	if err != nil {
		log.Logger().Fatal("failed to get user directory", zap.Error(err))
	}
	datasetDir = filepath.Join(usr.HomeDir, ".dimred", "dataset")
	tempDir = filepath.Join(usr.HomeDir, ".dimred", "temp")
}

// LoadIris loads the iris dataset: rows, column names and class labels.
func LoadIris() ([][]float32, []string, []int, error) {
	path, err := DownloadAndUnzip("iris")
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	dataFile := filepath.Join(path, "iris.data")
	f, err := os.Open(dataFile)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	names := []string{"sepal_length", "sepal_width", "petal_length", "petal_width"}
	data := make([][]float32, len(rows))
	target := make([]int, len(rows))
	types := make(map[string]int)
	for i, row := range rows {
		data[i] = make([]float32, 4)
		for j, cell := range row[:4] {
			data[i][j], err = util.ParseFloat[float32](cell)
			if err != nil {
				return nil, nil, nil, errors.Trace(err)
			}
		}
		if _, exist := types[row[4]]; !exist {
			types[row[4]] = len(types)
		}
		target[i] = types[row[4]]
	}
	return data, names, target, nil
}

// LoadCSV loads a numeric tabular file. An optional header names the columns
// and trailing non-numeric columns (labels) are skipped.
func LoadCSV(path string) ([][]float32, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("empty file")
	}
	// A first row with any non-numeric cell is a header.
	header := false
	for _, cell := range rows[0] {
		if _, err = util.ParseFloat[float32](cell); err != nil {
			header = true
			break
		}
	}
	var names []string
	if header {
		names = rows[0]
		rows = rows[1:]
		if len(rows) == 0 {
			return nil, nil, errors.New("no rows after header")
		}
	}
	// Numeric columns are the leading columns of the first data row that
	// parse as floats.
	numCols := 0
	for _, cell := range rows[0] {
		if _, err = util.ParseFloat[float32](cell); err != nil {
			break
		}
		numCols++
	}
	if numCols == 0 {
		return nil, nil, errors.New("no numeric columns")
	}
	if names == nil {
		for j := 0; j < numCols; j++ {
			names = append(names, fmt.Sprintf("c%d", j))
		}
	} else {
		names = names[:numCols]
	}
	data := make([][]float32, 0, len(rows))
	for _, row := range rows {
		if len(row) < numCols {
			return nil, nil, errors.Errorf("expect %d columns, got %d", numCols, len(row))
		}
		values := make([]float32, numCols)
		for j := 0; j < numCols; j++ {
			if values[j], err = util.ParseFloat[float32](row[j]); err != nil {
				return nil, nil, errors.Trace(err)
			}
		}
		data = append(data, values)
	}
	return data, names, nil
}

// DownloadAndUnzip fetches a built-in dataset unless it is cached already.
func DownloadAndUnzip(name string) (string, error) {
	url := fmt.Sprintf("https://cdn.gorse.io/datasets/%s.zip", name)
	path := filepath.Join(datasetDir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		zipFileName, err := downloadFromUrl(url, tempDir)
		if err != nil {
			return "", errors.Trace(err)
		}
		if _, err = unzip(zipFileName, datasetDir); err != nil {
			return "", errors.Trace(err)
		}
	}
	return path, nil
}

// downloadFromUrl downloads file from URL.
func downloadFromUrl(src, dst string) (string, error) {
	log.Logger().Info("Download dataset", zap.String("source", src), zap.String("destination", dst))
	// Extract file name
	tokens := strings.Split(src, "/")
	fileName := filepath.Join(dst, tokens[len(tokens)-1])
	// Create file
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return fileName, errors.Trace(err)
	}
	output, err := os.Create(fileName)
	if err != nil {
		log.Logger().Error("failed to create file", zap.Error(err), zap.String("filename", fileName))
		return fileName, errors.Trace(err)
	}
	defer output.Close()
	// Download file
	response, err := http.Get(src)
	if err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return fileName, errors.Trace(err)
	}
	defer response.Body.Close()
	// Save file
	pbReader := progressbar.NewReader(response.Body, progressbar.DefaultBytes(
		response.ContentLength,
		"Downloading dataset",
	))
	if _, err = io.Copy(output, &pbReader); err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return fileName, errors.Trace(err)
	}
	return fileName, nil
}

// unzip zip file.
func unzip(src, dst string) ([]string, error) {
	var fileNames []string
	// Open zip file
	r, err := zip.OpenReader(src)
	if err != nil {
		return fileNames, errors.Trace(err)
	}
	defer r.Close()
	// Extract files
	for _, f := range r.File {
		// Open file
		rc, err := f.Open()
		if err != nil {
			return fileNames, errors.Trace(err)
		}
		// Store filename/path for returning and using later on
		filePath := filepath.Join(dst, f.Name)
		// Check for ZipSlip. More Info: http://bit.ly/2MsjAWE
		if !strings.HasPrefix(filePath, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fileNames, errors.Errorf("%s: illegal file path", filePath)
		}
		// Add filename
		fileNames = append(fileNames, filePath)
		if f.FileInfo().IsDir() {
			// Create folder
			if err = os.MkdirAll(filePath, os.ModePerm); err != nil {
				return fileNames, errors.Trace(err)
			}
		} else {
			// Create all folders
			if err = os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
				return fileNames, errors.Trace(err)
			}
			// Create file
			outFile, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
			if err != nil {
				return fileNames, errors.Trace(err)
			}
			// Save file
			_, err = io.Copy(outFile, rc)
			if err != nil {
				return nil, errors.Trace(err)
			}
			// Close the file without defer to close before next iteration of loop
			err = outFile.Close()
			if err != nil {
				return nil, errors.Trace(err)
			}
		}
		// Close file
		err = rc.Close()
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	return fileNames, nil
}
