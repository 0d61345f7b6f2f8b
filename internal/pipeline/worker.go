package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker processes files for a specific pipeline
type Worker struct {
	pipeline   Pipeline
	config     PipelineConfig
	onFlush    FlushFunc
	aggregator *StreamingAggregator
	mu         sync.Mutex
}

// NewWorker creates a new pipeline worker. onFlush may be nil.
func NewWorker(pipeline Pipeline, config PipelineConfig, onFlush FlushFunc) *Worker {
	return &Worker{
		pipeline: pipeline,
		config:   config,
		onFlush:  onFlush,
	}
}

// ProcessBatch runs the pipeline over files. Failed files are recorded on
// their job and do not stop the others; rows from successful files are
// always flushed. The returned error reports the first failure.
func (w *Worker) ProcessBatch(ctx context.Context, files []string) (*PipelineRun, error) {
	log.Info().
		Str("pipeline", w.pipeline.Name()).
		Int("files", len(files)).
		Msg("starting batch")

	run := &PipelineRun{
		PipelineName: w.pipeline.Name(),
		Status:       StatusPending,
		TotalFiles:   len(files),
		StartedAt:    time.Now(),
	}

	w.aggregator = NewStreamingAggregator(w.pipeline, w.config, run.StartedAt, w.onFlush)

	run.Jobs = make([]*FileJob, len(files))
	for i, file := range files {
		run.Jobs[i] = &FileJob{
			FilePath: file,
			Status:   FileStatusQueued,
		}
	}

	run.Status = StatusProcessing

	processErr := w.processFilesParallel(ctx, run, run.Jobs)

	// Flush whatever succeeded even when some files failed
	finalizeErr := w.aggregator.Finalize(ctx)
	run.OutputFiles = w.aggregator.Outputs()

	now := time.Now()
	run.CompletedAt = &now

	switch {
	case processErr != nil:
		run.Status = StatusFailed
		run.ErrorMessage = processErr.Error()
		return run, processErr
	case finalizeErr != nil:
		run.Status = StatusFailed
		run.ErrorMessage = fmt.Sprintf("aggregation failed: %v", finalizeErr)
		return run, fmt.Errorf("failed to finalize aggregation: %w", finalizeErr)
	}

	run.Status = StatusCompleted

	log.Info().
		Str("pipeline", w.pipeline.Name()).
		Int("files", run.ProcessedFiles).
		Int("rows", run.TotalRows).
		Dur("elapsed", now.Sub(run.StartedAt)).
		Msg("batch completed")

	return run, nil
}

// processFilesParallel processes files using a worker pool
func (w *Worker) processFilesParallel(ctx context.Context, run *PipelineRun, jobs []*FileJob) error {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	jobChan := make(chan *FileJob, len(jobs))
	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				if err := w.processFile(ctx, run, job); err != nil {
					log.Error().
						Err(err).
						Str("pipeline", w.pipeline.Name()).
						Int("worker", workerID).
						Str("file", job.FilePath).
						Msg("failed to process file")
					select {
					case errChan <- err:
					default:
					}
				}
			}
		}(i)
	}

	var enqueueErr error
enqueue:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			enqueueErr = ctx.Err()
			break enqueue
		case jobChan <- job:
		}
	}
	close(jobChan)

	wg.Wait()
	close(errChan)

	if enqueueErr != nil {
		return enqueueErr
	}
	if err := <-errChan; err != nil {
		return err
	}

	return nil
}

// processFile validates, transforms and buffers a single file, retrying up to
// RetryAttempts times.
func (w *Worker) processFile(ctx context.Context, run *PipelineRun, job *FileJob) error {
	startTime := time.Now()

	w.setJobStatus(job, FileStatusProcessing)

	if err := w.pipeline.Validate(job.FilePath); err != nil {
		return w.markJobFailed(run, job, fmt.Errorf("validation failed for %s: %w", job.FilePath, err))
	}

	attempts := w.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		rows []TransformedRow
		err  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		rows, err = w.pipeline.Transform(ctx, job.FilePath)
		if err == nil {
			break
		}
		if attempt == attempts {
			break
		}

		w.mu.Lock()
		job.RetryCount++
		w.mu.Unlock()

		log.Warn().
			Err(err).
			Str("pipeline", w.pipeline.Name()).
			Str("file", job.FilePath).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("transform failed, retrying")

		select {
		case <-ctx.Done():
			return w.markJobFailed(run, job, ctx.Err())
		case <-time.After(w.config.RetryBackoff):
		}
	}
	if err != nil {
		return w.markJobFailed(run, job, fmt.Errorf("transformation failed for %s: %w", job.FilePath, err))
	}

	if err := w.aggregator.AddFileData(ctx, rows); err != nil {
		return w.markJobFailed(run, job, fmt.Errorf("aggregation failed for %s: %w", job.FilePath, err))
	}

	now := time.Now()
	w.mu.Lock()
	job.Status = FileStatusCompleted
	job.Rows = len(rows)
	job.ProcessedAt = &now
	run.ProcessedFiles++
	run.TotalRows += len(rows)
	w.mu.Unlock()

	log.Info().
		Str("pipeline", w.pipeline.Name()).
		Str("file", job.FilePath).
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(startTime)).
		Msg("file processed")

	return nil
}

func (w *Worker) setJobStatus(job *FileJob, status FileJobStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	job.Status = status
}

// markJobFailed records the failure on the job and the run
func (w *Worker) markJobFailed(run *PipelineRun, job *FileJob, err error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	job.Status = FileStatusFailed
	job.ErrorMessage = err.Error()
	run.FailedFiles++

	return err
}
