package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/fbaprofit/internal/cache"
	"github.com/andresuchdata/fbaprofit/internal/config"
	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/ingest"
	"github.com/andresuchdata/fbaprofit/internal/service"
	"github.com/andresuchdata/fbaprofit/pkg/logger"
)

func newAnalyticsService() *service.AnalyticsService {
	cfg := config.Load()
	return service.NewAnalyticsService(loadRates(), cfg.App.WorkerCount, cache.NewNoopResultCache())
}

func analyzeFile(c *cli.Context, kind service.Kind) (*service.UploadResult, error) {
	path := c.String("file")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	result, err := newAnalyticsService().AnalyzeUpload(c.Context, kind, path, f)
	if err != nil {
		return nil, err
	}

	for _, rowErr := range result.RowErrors {
		logger.Log.Warn().
			Int("row", rowErr.Row).
			Str("column", rowErr.Column).
			Msg(rowErr.Message)
	}
	return result, nil
}

func runMetrics(c *cli.Context) error {
	result, err := analyzeFile(c, service.KindMetrics)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(os.Stdout, result)
	}
	return writeMetricsTable(os.Stdout, result.Metrics)
}

func runFindings(c *cli.Context) error {
	result, err := analyzeFile(c, service.KindFindings)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(os.Stdout, result)
	}
	return writeFindingsReport(os.Stdout, *result.Findings, result.RowErrors)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMetricsTable(w io.Writer, results []domain.BulkProductResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROFIT/UNIT\tMARGIN %\tMONTHLY\tBREAK-EVEN\tRUNWAY\tTURNOVER\tHEALTH\tCASH FLOW")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			r.ID,
			domain.FormatEUR(r.ProfitPerUnit),
			formatFloat(r.ProfitMargin),
			domain.FormatEUR(r.TotalMonthlyProfit),
			formatFloat(r.BreakEvenDays),
			r.CashRunway,
			formatFloat(r.TurnoverDays),
			r.HealthScore,
			r.CashFlowRisk.Label(),
		)
	}
	return tw.Flush()
}

func writeFindingsReport(w io.Writer, report domain.FindingsReport, rowErrors []ingest.RowError) error {
	s := report.Summary
	fmt.Fprintf(w, "%d findings (%d critical, %d opportunity), %s annual opportunity\n",
		s.TotalFindings, s.CriticalCount, s.OpportunityCount, domain.FormatEUR(s.TotalAnnualOpportunityEUR))
	if len(rowErrors) > 0 {
		fmt.Fprintf(w, "%d rows skipped\n", len(rowErrors))
	}
	if len(report.Findings) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPRODUCT\tTYPE\tSEVERITY\tPRIORITY\tANNUAL IMPACT\tHEADLINE")
	for i, f := range report.Findings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			i+1,
			f.ProductID,
			f.FindingType,
			f.Severity,
			f.ImpactPriority,
			domain.FormatEUR(f.FinancialImpactAnnualEUR),
			f.Headline,
		)
	}
	return tw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
