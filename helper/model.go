package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
)

// DefaultModelDir is where hugot models are cached when no directory is configured.
const DefaultModelDir = "./models"

// PrepareModel downloads the model into DefaultModelDir if it doesn't exist and returns the model path.
func PrepareModel(modelName string, onnxFilePath string) (string, error) {
	return PrepareModelIn(DefaultModelDir, modelName, onnxFilePath)
}

// PrepareModelIn is PrepareModel with an explicit model directory.
// Model names like "org/name" are stored as "org_name".
func PrepareModelIn(modelDir string, modelName string, onnxFilePath string) (string, error) {
	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := os.MkdirAll(modelDir, 0750); err != nil {
			return "", fmt.Errorf("failed to create model directory: %w", err)
		}
		downloadOptions := hugot.NewDownloadOptions()
		if onnxFilePath != "" {
			downloadOptions.OnnxFilePath = onnxFilePath
		}
		downloadedPath, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
		if err != nil {
			return "", fmt.Errorf("failed to download model: %w", err)
		}
		modelPath = downloadedPath
	}

	return modelPath, nil
}
