package analysis

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/scam-sniffer/pkg/common"
	"github.com/richxcame/scam-sniffer/pkg/middleware"
	"github.com/richxcame/scam-sniffer/pkg/security"
)

// Handler handles HTTP requests for text analysis
type Handler struct {
	service *Service
}

// NewHandler creates a new analysis handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AnalyzeText scores a text submission over plain HTTP. The websocket
// path is the primary one; this endpoint is kept for clients that
// cannot hold a connection open.
func (h *Handler) AnalyzeText(c *gin.Context) {
	var req AnalyzeRequest
	if err := middleware.ValidateJSON(c, &req); err != nil {
		middleware.RespondWithValidationError(c, err)
		return
	}

	text := security.StripHTML(req.Text)
	if text == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "please provide text")
		return
	}

	// Anonymous REST submissions are identified by client IP for the
	// coordination window and are not persisted
	email := c.GetString(middleware.ContextEmail)
	submitterID := c.GetString(middleware.ContextUserID)
	if submitterID == "" {
		submitterID = "ip:" + c.ClientIP()
	}

	outcome := h.service.Analyze(c.Request.Context(), text, submitterID, email)

	common.SuccessResponse(c, outcome)
}

func parseRecordID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid record id")
		return uuid.Nil, false
	}
	return id, true
}
