package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/ingest"
	"github.com/andresuchdata/fbaprofit/internal/service"
)

type AnalyticsHandler struct {
	service        *service.AnalyticsService
	maxUploadBytes int64
}

func NewAnalyticsHandler(svc *service.AnalyticsService, maxUploadMB int) *AnalyticsHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &AnalyticsHandler{
		service:        svc,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

type metricsRequest struct {
	Rows []domain.UploadRow `json:"rows"`
}

type findingsRequest struct {
	Products []domain.Product `json:"products"`
}

// CalculateMetrics runs the bulk calculator over JSON rows
func (h *AnalyticsHandler) CalculateMetrics(c *gin.Context) {
	var req metricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	results, err := h.service.Metrics(c.Request.Context(), req.Rows)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to calculate metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to calculate metrics", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(results),
		"results": results,
	})
}

// DetectFindings runs the detectors over a JSON portfolio
func (h *AnalyticsHandler) DetectFindings(c *gin.Context) {
	var req findingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	report, err := h.service.Findings(c.Request.Context(), req.Products)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to detect findings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to detect findings", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Upload analyzes a multipart CSV or XLSX file; ?kind=metrics|findings
func (h *AnalyticsHandler) Upload(c *gin.Context) {
	kind, err := service.ParseKind(c.DefaultQuery("kind", string(service.KindFindings)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided", "details": err.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open upload", "details": err.Error()})
		return
	}
	defer file.Close()

	result, err := h.service.AnalyzeUpload(c.Request.Context(), kind, header.Filename, file)
	if err != nil {
		writeIngestError(c, header.Filename, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRates returns the effective rate table
func (h *AnalyticsHandler) GetRates(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Rates())
}

// ClearCache drops every cached analytics result
func (h *AnalyticsHandler) ClearCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context()); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to clear result cache")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cache", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// writeIngestError maps parse failures to 4xx and everything else to 500.
func writeIngestError(c *gin.Context, fileName string, err error) {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported file format", "details": err.Error()})
	case errors.Is(err, ingest.ErrMissingColumn), errors.Is(err, ingest.ErrEmptyFile):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid file layout", "details": err.Error()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("filename", fileName).Msg("failed to analyze upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze file", "details": err.Error()})
	}
}
