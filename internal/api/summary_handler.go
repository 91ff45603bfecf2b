package api

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/service"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SummaryHandler struct {
	summaryService service.SummaryService
	reportService  service.ReportService
}

func NewSummaryHandler(summaryService service.SummaryService, reportService service.ReportService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService, reportService: reportService}
}

type SummaryResponse struct {
	Rows   []domain.AggregateRow `json:"rows"`
	NoData bool                  `json:"noData"`
}

// GetSummary godoc
// @Summary Per-user totals over every entry
// @Tags Summary
// @Produce json
// @Success 200 {object} SummaryResponse
// @Security BearerAuth
// @Router /summary [get]
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	rows, err := h.summaryService.Summary(c.Request.Context())
	if err != nil {
		log.Printf("ERROR: failed to build summary: %v", err)
		abortWithError(c, http.StatusServiceUnavailable, "Failed to load summary")
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{Rows: rows, NoData: len(rows) == 0})
}

// ExportSummary godoc
// @Summary Upload the summary as CSV and return a download link
// @Tags Summary
// @Produce json
// @Success 201 {object} service.ExportResult
// @Failure 503 {object} gin.H "Export is not configured or failed"
// @Security BearerAuth
// @Router /summary/export [post]
func (h *SummaryHandler) ExportSummary(c *gin.Context) {
	result, err := h.reportService.ExportSummary(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrExportDisabled) {
			abortWithError(c, http.StatusServiceUnavailable, "Summary export is not configured")
			return
		}
		log.Printf("ERROR: summary export failed: %v", err)
		abortWithError(c, http.StatusServiceUnavailable, "Failed to export summary")
		return
	}
	c.JSON(http.StatusCreated, result)
}
