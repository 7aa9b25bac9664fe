package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/servicepack/restock-backend/internal/cache"
	"github.com/servicepack/restock-backend/internal/domain"
	"github.com/servicepack/restock-backend/internal/export"
	"github.com/servicepack/restock-backend/internal/ingest"
	"github.com/servicepack/restock-backend/internal/recommend"
	"github.com/servicepack/restock-backend/internal/service"
	"github.com/servicepack/restock-backend/internal/storage"
)

// RestockHandler serves the import and recommendation endpoints.
type RestockHandler struct {
	svc     *service.RestockService
	reports *cache.ReportCache
	archive storage.ObjectStorage

	defaultCoef recommend.Coefficients
}

func NewRestockHandler(svc *service.RestockService, reports *cache.ReportCache, archive storage.ObjectStorage, defaultCoef recommend.Coefficients) *RestockHandler {
	return &RestockHandler{
		svc:         svc,
		reports:     reports,
		archive:     archive,
		defaultCoef: defaultCoef,
	}
}

// UploadCatalog imports a product catalog spreadsheet.
func (h *RestockHandler) UploadCatalog(c *gin.Context) {
	rows, filename, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.svc.ImportCatalog(c.Request.Context(), rows)
	if err != nil {
		h.importError(c, filename, err)
		return
	}

	h.reports.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, result)
}

// UploadMovements imports one window's stock movement export. The window
// tag comes from the "window" form/query value.
func (h *RestockHandler) UploadMovements(c *gin.Context) {
	windowTag := strings.TrimSpace(c.DefaultPostForm("window", c.Query("window")))
	if windowTag == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window tag is required"})
		return
	}

	rows, filename, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.svc.ImportMovements(c.Request.Context(), rows, windowTag)
	if err != nil {
		h.importError(c, filename, err)
		return
	}

	h.reports.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, result)
}

// GetRecommendations computes (or serves from cache) the recommendation
// table for the requested coefficients.
func (h *RestockHandler) GetRecommendations(c *gin.Context) {
	coef, err := h.coefficients(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if recs, ok := h.reports.Get(c.Request.Context(), coef.Recent, coef.Total); ok {
		c.JSON(http.StatusOK, gin.H{"count": len(recs), "recommendations": recs, "cached": true})
		return
	}

	recs, err := h.svc.Recommend(c.Request.Context(), coef)
	if err != nil {
		h.recommendError(c, err)
		return
	}

	h.reports.Set(c.Request.Context(), coef.Recent, coef.Total, recs)
	c.JSON(http.StatusOK, gin.H{"count": len(recs), "recommendations": recs})
}

// ExportRecommendations streams the recommendation table as an XLSX
// attachment.
func (h *RestockHandler) ExportRecommendations(c *gin.Context) {
	coef, err := h.coefficients(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recs, ok := h.reports.Get(c.Request.Context(), coef.Recent, coef.Total)
	if !ok {
		recs, err = h.svc.Recommend(c.Request.Context(), coef)
		if err != nil {
			h.recommendError(c, err)
			return
		}
		h.reports.Set(c.Request.Context(), coef.Recent, coef.Total, recs)
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, recs); err != nil {
		log.Error().Err(err).Msg("failed to build recommendation export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}

	filename := fmt.Sprintf("recomandari_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// readUpload reads the multipart "file" field into raw table rows and
// archives the original bytes when an archive is configured.
func (h *RestockHandler) readUpload(c *gin.Context) ([][]string, string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return nil, "", false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return nil, "", false
	}
	defer f.Close()

	payload, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return nil, "", false
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".xlsx", ".xlsm":
		rows, err = ingest.ReadXLSX(bytes.NewReader(payload))
	case ".csv":
		rows, err = ingest.ReadCSV(bytes.NewReader(payload))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type (want .xlsx or .csv)"})
		return nil, "", false
	}
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to parse upload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "file could not be parsed"})
		return nil, "", false
	}

	if h.archive != nil {
		key := fmt.Sprintf("uploads/%s/%s", time.Now().Format("2006-01-02"), fileHeader.Filename)
		if err := h.archive.UploadObject(c.Request.Context(), key, bytes.NewReader(payload), int64(len(payload))); err != nil {
			// Archival is best effort; the import proceeds regardless.
			log.Warn().Err(err).Str("key", key).Msg("failed to archive upload")
		}
	}

	return rows, fileHeader.Filename, true
}

func (h *RestockHandler) coefficients(c *gin.Context) (recommend.Coefficients, error) {
	coef := h.defaultCoef

	if raw := c.Query("coef_recent"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return coef, fmt.Errorf("invalid coef_recent %q", raw)
		}
		coef.Recent = v
	}
	if raw := c.Query("coef_total"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return coef, fmt.Errorf("invalid coef_total %q", raw)
		}
		coef.Total = v
	}
	return coef, nil
}

func (h *RestockHandler) importError(c *gin.Context, filename string, err error) {
	log.Error().Err(err).Str("filename", filename).Msg("import failed")
	switch {
	case errors.Is(err, domain.ErrNoCodeColumn), errors.Is(err, domain.ErrEmptyTable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
	}
}

func (h *RestockHandler) recommendError(c *gin.Context, err error) {
	log.Error().Err(err).Msg("recommendation run failed")
	switch {
	case errors.Is(err, domain.ErrWindowMissing):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recommendation run failed"})
	}
}
