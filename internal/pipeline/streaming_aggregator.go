package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// StreamingAggregator buffers transformed rows and flushes them to CSV in batches
type StreamingAggregator struct {
	pipeline      Pipeline
	config        PipelineConfig
	runStamp      string
	buffer        [][]TransformedRow
	bufferSize    int64
	flushCount    int
	outputs       []string
	mu            sync.Mutex
	flushCallback FlushFunc
	lastFlush     time.Time
}

// NewStreamingAggregator creates a new streaming aggregator for a pipeline.
// Every CSV it writes is named after the pipeline, the run start time and a
// flush sequence number.
func NewStreamingAggregator(
	pipeline Pipeline,
	config PipelineConfig,
	startedAt time.Time,
	flushCallback FlushFunc,
) *StreamingAggregator {
	batchSize := config.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	return &StreamingAggregator{
		pipeline:      pipeline,
		config:        config,
		runStamp:      startedAt.UTC().Format("20060102T150405"),
		buffer:        make([][]TransformedRow, 0, batchSize),
		flushCallback: flushCallback,
		lastFlush:     time.Now(),
	}
}

// AddFileData adds transformed rows from a single file to the buffer
func (sa *StreamingAggregator) AddFileData(ctx context.Context, rows []TransformedRow) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	sa.buffer = append(sa.buffer, rows)

	// Rough estimate: 100 bytes per field
	for _, row := range rows {
		sa.bufferSize += int64(len(row.Data) * 100)
	}

	log.Debug().
		Str("pipeline", sa.pipeline.Name()).
		Int("files", len(sa.buffer)).
		Int64("bytes", sa.bufferSize).
		Msg("buffered file rows")

	shouldFlush := len(sa.buffer) >= sa.config.BatchSize ||
		(sa.config.BatchSizeBytes > 0 && sa.bufferSize >= sa.config.BatchSizeBytes) ||
		(sa.config.FlushInterval > 0 && time.Since(sa.lastFlush) >= sa.config.FlushInterval)

	if shouldFlush {
		return sa.flushLocked(ctx)
	}

	return nil
}

// Finalize flushes any remaining data
func (sa *StreamingAggregator) Finalize(ctx context.Context) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if len(sa.buffer) == 0 {
		log.Debug().Str("pipeline", sa.pipeline.Name()).Msg("no data to finalize")
		return nil
	}

	return sa.flushLocked(ctx)
}

// Outputs returns the paths of all CSVs written so far
func (sa *StreamingAggregator) Outputs() []string {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	out := make([]string, len(sa.outputs))
	copy(out, sa.outputs)
	return out
}

// flushLocked writes the current buffer to CSV and triggers the flush callback.
// Must be called with sa.mu locked
func (sa *StreamingAggregator) flushLocked(ctx context.Context) error {
	if len(sa.buffer) == 0 {
		return nil
	}

	var allRows []TransformedRow
	for _, fileRows := range sa.buffer {
		allRows = append(allRows, fileRows...)
	}

	if err := os.MkdirAll(sa.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	sa.flushCount++
	csvPath := filepath.Join(
		sa.config.OutputDir,
		fmt.Sprintf("%s_%s_%03d.csv", sa.pipeline.Name(), sa.runStamp, sa.flushCount),
	)

	if err := writeCSV(csvPath, sa.pipeline.Columns(), allRows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	log.Info().
		Str("pipeline", sa.pipeline.Name()).
		Int("rows", len(allRows)).
		Str("path", csvPath).
		Msg("flushed rows to CSV")

	sa.outputs = append(sa.outputs, csvPath)

	if sa.flushCallback != nil {
		if err := sa.flushCallback(ctx, csvPath); err != nil {
			return fmt.Errorf("flush callback failed: %w", err)
		}
	}

	sa.buffer = sa.buffer[:0]
	sa.bufferSize = 0
	sa.lastFlush = time.Now()

	return nil
}

// writeCSV writes rows under the given header. Missing columns stay empty.
func writeCSV(path string, headers []string, rows []TransformedRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, len(headers))
		for i, header := range headers {
			if val, ok := row.Data[header]; ok {
				record[i] = formatValue(val)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case *float64:
		if val == nil {
			return ""
		}
		return strconv.FormatFloat(*val, 'f', -1, 64)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// GetBufferStats returns current buffer statistics
func (sa *StreamingAggregator) GetBufferStats() (fileCount int, byteSize int64) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	return len(sa.buffer), sa.bufferSize
}
