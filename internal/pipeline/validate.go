package pipeline

import (
	"fmt"
	"os"

	"github.com/andresuchdata/fbaprofit/internal/ingest"
)

// ValidateUploadFile checks that inputFile is a regular CSV or XLSX file.
func ValidateUploadFile(inputFile string) error {
	info, err := os.Stat(inputFile)
	if err != nil {
		return fmt.Errorf("cannot stat input file %s: %w", inputFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected file", inputFile)
	}
	if _, err := ingest.DetectFormat(inputFile); err != nil {
		return err
	}
	return nil
}
