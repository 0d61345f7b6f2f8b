package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/fbaprofit/internal/drive"
	"github.com/andresuchdata/fbaprofit/internal/service"
)

// DriveClient is the part of drive.Service the handler uses.
type DriveClient interface {
	ListFiles(ctx context.Context, folderID string) ([]*drive.File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

type DriveHandler struct {
	client        DriveClient
	analytics     *service.AnalyticsService
	defaultFolder string
}

func NewDriveHandler(client DriveClient, analytics *service.AnalyticsService, defaultFolder string) *DriveHandler {
	return &DriveHandler{
		client:        client,
		analytics:     analytics,
		defaultFolder: defaultFolder,
	}
}

// ListFiles lists upload files of a folder, by ?folderId= or ?path=
func (h *DriveHandler) ListFiles(c *gin.Context) {
	ctx := c.Request.Context()
	folderID := c.DefaultQuery("folderId", h.defaultFolder)

	if path := c.Query("path"); path != "" {
		id, err := h.client.FindFolderByPath(ctx, path)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "folder not found", "details": err.Error()})
			return
		}
		folderID = id
	}

	files, err := h.client.ListFiles(ctx, folderID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to list drive files", "details": err.Error()})
		return
	}

	uploads := make([]*drive.File, 0, len(files))
	for _, f := range files {
		if drive.IsUploadFile(f.Name) {
			uploads = append(uploads, f)
		}
	}

	c.JSON(http.StatusOK, uploads)
}

// Analyze downloads one Drive file and analyzes it; ?fileId=&name=&kind=
func (h *DriveHandler) Analyze(c *gin.Context) {
	fileID := c.Query("fileId")
	name := c.Query("name")
	if fileID == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileId and name parameters are required"})
		return
	}

	kind, err := service.ParseKind(c.DefaultQuery("kind", string(service.KindFindings)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := h.client.DownloadFile(c.Request.Context(), fileID, &buf); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to download drive file", "details": err.Error()})
		return
	}

	result, err := h.analytics.AnalyzeUpload(c.Request.Context(), kind, name, &buf)
	if err != nil {
		writeIngestError(c, name, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
