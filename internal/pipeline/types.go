package pipeline

import (
	"context"
	"time"
)

// Pipeline defines the interface that all batch pipelines must implement
type Pipeline interface {
	// Name returns the unique identifier for this pipeline
	Name() string

	// Validate checks if the input file is valid for this pipeline
	Validate(inputFile string) error

	// Transform processes a single input file and returns the transformed rows
	Transform(ctx context.Context, inputFile string) ([]TransformedRow, error)

	// Columns returns the output CSV header, in order
	Columns() []string
}

// TransformedRow is one output record keyed by column name
type TransformedRow struct {
	Data map[string]interface{}
}

// FlushFunc is called with the path of every CSV the aggregator writes
type FlushFunc func(ctx context.Context, csvPath string) error

// PipelineConfig holds configuration for a pipeline instance
type PipelineConfig struct {
	Name           string
	BatchSize      int           // Number of files to buffer before flushing
	BatchSizeBytes int64         // Size in bytes to buffer before flushing
	FlushInterval  time.Duration // Max time to wait before flushing
	WorkerCount    int           // Number of concurrent workers
	OutputDir      string        // Directory for aggregated CSVs
	RetryAttempts  int           // Attempts per file, including the first
	RetryBackoff   time.Duration // Backoff duration between attempts
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig(name string) PipelineConfig {
	return PipelineConfig{
		Name:           name,
		BatchSize:      5,
		BatchSizeBytes: 10 * 1024 * 1024, // 10MB
		FlushInterval:  5 * time.Minute,
		WorkerCount:    4,
		OutputDir:      "data/output/" + name,
		RetryAttempts:  1,
		RetryBackoff:   2 * time.Second,
	}
}

// PipelineStatus represents the current state of a pipeline run
type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusFailed     PipelineStatus = "failed"
)

// FileJobStatus represents the state of a single file processing job
type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
)

// PipelineRun tracks a single execution of a pipeline over a set of files
type PipelineRun struct {
	PipelineName   string
	Status         PipelineStatus
	TotalFiles     int
	ProcessedFiles int
	FailedFiles    int
	TotalRows      int
	OutputFiles    []string
	Jobs           []*FileJob
	StartedAt      time.Time
	CompletedAt    *time.Time
	ErrorMessage   string
}

// FileJob tracks the processing of a single file
type FileJob struct {
	FilePath     string
	Status       FileJobStatus
	Rows         int
	ErrorMessage string
	ProcessedAt  *time.Time
	RetryCount   int
}
