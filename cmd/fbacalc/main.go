package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/fbaprofit/internal/config"
	"github.com/andresuchdata/fbaprofit/internal/rates"
	"github.com/andresuchdata/fbaprofit/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "fbacalc",
		Usage: "Analyze FBA product portfolios from CSV or XLSX files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(os.Stderr, config.Load().App.LogJSON)
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "metrics",
				Usage: "Compute bulk metrics for an upload file",
				Flags: []cli.Flag{
					fileFlag(),
					jsonFlag(),
				},
				Action: runMetrics,
			},
			{
				Name:  "findings",
				Usage: "Detect dead inventory, low margin and slow velocity findings",
				Flags: []cli.Flag{
					fileFlag(),
					jsonFlag(),
				},
				Action: runFindings,
			},
			{
				Name:   "batch",
				Usage:  "Run a pipeline over many files and write result CSVs",
				Flags:  batchFlags(),
				Action: runBatch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("fbacalc failed")
	}
}

func fileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Path to a CSV or XLSX file",
		Required: true,
	}
}

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the full result as JSON",
	}
}

func loadRates() rates.Rates {
	return rates.FromConfig(config.Load().Analytics)
}
