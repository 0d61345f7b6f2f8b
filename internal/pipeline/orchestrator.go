package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Orchestrator coordinates running a Pipeline over a set of local files.
type Orchestrator struct {
	cfg     PipelineConfig
	onFlush FlushFunc
}

// NewOrchestrator creates a new Orchestrator. onFlush may be nil.
func NewOrchestrator(cfg PipelineConfig, onFlush FlushFunc) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		onFlush: onFlush,
	}
}

// Run expands the provided paths (directories contribute every file the
// pipeline accepts) and processes them in a single Worker batch.
func (o *Orchestrator) Run(ctx context.Context, p Pipeline, paths []string) (*PipelineRun, error) {
	files, err := ExpandInputs(p, paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return &PipelineRun{PipelineName: p.Name(), Status: StatusCompleted}, nil
	}

	worker := NewWorker(p, o.cfg, o.onFlush)

	run, err := worker.ProcessBatch(ctx, files)
	if err != nil {
		return run, fmt.Errorf("failed to process batch for %s: %w", p.Name(), err)
	}

	return run, nil
}

// ExpandInputs returns the files named by paths in a stable order. Files
// named directly are kept as-is; directories are scanned one level deep and
// only files passing p.Validate are kept.
func ExpandInputs(p Pipeline, paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
		}

		var found []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			candidate := filepath.Join(path, entry.Name())
			if p.Validate(candidate) == nil {
				found = append(found, candidate)
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}

	return files, nil
}
