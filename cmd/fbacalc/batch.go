package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/fbaprofit/internal/analytics"
	"github.com/andresuchdata/fbaprofit/internal/config"
	"github.com/andresuchdata/fbaprofit/internal/drive"
	"github.com/andresuchdata/fbaprofit/internal/ingest"
	"github.com/andresuchdata/fbaprofit/internal/pipeline"
	"github.com/andresuchdata/fbaprofit/internal/pipeline/findings"
	"github.com/andresuchdata/fbaprofit/internal/pipeline/portfolio"
	"github.com/andresuchdata/fbaprofit/internal/rates"
	"github.com/andresuchdata/fbaprofit/internal/service"
	"github.com/andresuchdata/fbaprofit/internal/storage"
	"github.com/andresuchdata/fbaprofit/pkg/logger"
)

const (
	sourceLocal = "local"
	sourceS3    = "s3"
	sourceDrive = "drive"
)

func batchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "kind",
			Usage: "Pipeline to run: metrics or findings",
			Value: string(service.KindFindings),
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Where input files come from: local, s3 or drive",
			Value: sourceLocal,
		},
		&cli.StringSliceFlag{
			Name:  "input",
			Usage: "Local files or directories (source=local)",
		},
		&cli.StringFlag{
			Name:    "prefix",
			Usage:   "Object key prefix to download (source=s3)",
			EnvVars: []string{"S3_INPUT_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "folder",
			Usage:   "Drive folder ID or slash separated path (source=drive)",
			EnvVars: []string{"DRIVE_FOLDER_ID"},
		},
		&cli.StringFlag{
			Name:  "download-dir",
			Usage: "Scratch directory for downloaded inputs",
			Value: "./data/tmp/inputs",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Directory for result CSVs (defaults to APP_OUTPUT_DIR/<pipeline>)",
		},
		&cli.StringFlag{
			Name:    "upload-prefix",
			Usage:   "Upload every result CSV under this object prefix",
			EnvVars: []string{"S3_OUTPUT_PREFIX"},
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Files buffered before a CSV flush",
			Value: 10,
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "Transform attempts per file",
			Value: 1,
		},
	}
}

func runBatch(c *cli.Context) error {
	cfg := config.Load()

	kind, err := service.ParseKind(c.String("kind"))
	if err != nil {
		return err
	}
	p := newPipeline(kind, loadRates(), cfg.App.WorkerCount)

	var store *storage.MinioClient
	if c.String("source") == sourceS3 || c.String("upload-prefix") != "" {
		store, err = newStore(cfg.Storage)
		if err != nil {
			return err
		}
	}

	inputs, err := collectInputs(c, cfg, store)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		logger.Log.Info().Str("source", c.String("source")).Msg("no input files found; nothing to process")
		return nil
	}

	pcfg := pipeline.DefaultPipelineConfig(p.Name())
	pcfg.OutputDir = filepath.Join(cfg.App.OutputDir, p.Name())
	if out := c.String("output"); out != "" {
		pcfg.OutputDir = out
	}
	pcfg.BatchSize = c.Int("batch-size")
	pcfg.WorkerCount = cfg.App.WorkerCount
	pcfg.RetryAttempts = c.Int("retries")

	var onFlush pipeline.FlushFunc
	if prefix := c.String("upload-prefix"); prefix != "" {
		onFlush = func(ctx context.Context, csvPath string) error {
			key := storage.ObjectKey(prefix, csvPath)
			if err := store.UploadFile(ctx, key, csvPath); err != nil {
				return err
			}
			logger.Log.Info().Str("key", key).Msg("uploaded result CSV")
			return nil
		}
	}

	run, err := pipeline.NewOrchestrator(pcfg, onFlush).Run(c.Context, p, inputs)
	if run != nil {
		logger.Log.Info().
			Str("pipeline", run.PipelineName).
			Str("status", string(run.Status)).
			Int("processed", run.ProcessedFiles).
			Int("failed", run.FailedFiles).
			Int("rows", run.TotalRows).
			Strs("outputs", run.OutputFiles).
			Msg("batch finished")
	}
	return err
}

func newPipeline(kind service.Kind, r rates.Rates, workers int) pipeline.Pipeline {
	if kind == service.KindMetrics {
		return portfolio.NewMetricsPipeline(r.Portfolio, portfolio.Config{Workers: workers})
	}
	return findings.NewPipeline(analytics.NewEngine(r))
}

func newStore(cfg config.StorageConfig) (*storage.MinioClient, error) {
	return storage.NewMinioClient(storage.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
}

// collectInputs returns local paths for the selected source, downloading
// remote files into download-dir first.
func collectInputs(c *cli.Context, cfg *config.Config, store storage.ObjectStorage) ([]string, error) {
	downloadDir := c.String("download-dir")

	switch source := c.String("source"); source {
	case sourceLocal:
		inputs := c.StringSlice("input")
		if len(inputs) == 0 {
			inputs = []string{cfg.App.UploadDir}
		}
		return inputs, nil

	case sourceS3:
		if err := os.MkdirAll(downloadDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to ensure download dir %s: %w", downloadDir, err)
		}
		logger.Log.Info().Str("prefix", c.String("prefix")).Str("dir", downloadDir).Msg("downloading objects")
		return storage.DownloadPrefix(c.Context, store, c.String("prefix"), downloadDir, func(key string) bool {
			_, err := ingest.DetectFormat(key)
			return err == nil
		})

	case sourceDrive:
		if cfg.Drive.CredentialsJSON == "" {
			return nil, fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON is required for source=drive")
		}
		svc, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
		if err != nil {
			return nil, err
		}

		folderID := c.String("folder")
		if folderID == "" {
			return nil, fmt.Errorf("--folder is required for source=drive")
		}
		if resolved, err := svc.FindFolderByPath(c.Context, folderID); err == nil {
			folderID = resolved
		}

		logger.Log.Info().Str("folder", folderID).Str("dir", downloadDir).Msg("downloading drive files")
		return drive.NewDownloader(svc).DownloadFolder(c.Context, drive.DownloadOptions{
			FolderID:    folderID,
			DownloadDir: downloadDir,
		})

	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
}
