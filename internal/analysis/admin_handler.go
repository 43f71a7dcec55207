package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/scam-sniffer/pkg/common"
	"github.com/richxcame/scam-sniffer/pkg/logger"
	"github.com/richxcame/scam-sniffer/pkg/pagination"
	"go.uber.org/zap"
)

// AdminHandler handles admin-only history and dashboard endpoints
type AdminHandler struct {
	service *Service
	users   UserCounter
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(service *Service, users UserCounter) *AdminHandler {
	return &AdminHandler{service: service, users: users}
}

// GetHistory returns persisted analyses newest first
func (h *AdminHandler) GetHistory(c *gin.Context) {
	params := pagination.ParseParams(c)

	records, total, err := h.service.History(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("Failed to fetch history", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch history")
		return
	}

	common.SuccessResponse(c, gin.H{
		"records":    records,
		"pagination": pagination.NewMeta(params, total),
	})
}

// DeleteHistoryRecord removes one history entry by ID
func (h *AdminHandler) DeleteHistoryRecord(c *gin.Context) {
	id, ok := parseRecordID(c)
	if !ok {
		return
	}

	err := h.service.DeleteRecord(c.Request.Context(), id)
	if errors.Is(err, ErrRecordNotFound) {
		common.ErrorResponse(c, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("Failed to delete record", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to delete record")
		return
	}

	common.SuccessResponse(c, gin.H{"message": "record deleted"})
}

// GetStats returns the admin dashboard summary
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), h.users)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("Failed to compute stats", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	common.SuccessResponse(c, stats)
}

// ExportHistory streams the full history as a CSV download
func (h *AdminHandler) ExportHistory(c *gin.Context) {
	records, err := h.service.FullHistory(c.Request.Context())
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("Failed to export history", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to export history")
		return
	}

	filename := fmt.Sprintf("analysis-history-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "email", "text", "score", "level", "is_scam", "created_at"})
	for _, record := range records {
		_ = w.Write([]string{
			record.ID.String(),
			record.Email,
			record.Text,
			strconv.Itoa(record.Score),
			string(record.Level),
			strconv.FormatBool(record.IsScam),
			record.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
}
