package analysis

import (
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/scam-sniffer/internal/analyzer"
	"github.com/richxcame/scam-sniffer/internal/coordination"
)

// Record is one persisted analysis, kept for the history/admin view
type Record struct {
	ID         uuid.UUID            `json:"id" db:"id"`
	Email      string               `json:"email" db:"email"`
	Text       string               `json:"text" db:"text"`
	Score      int                  `json:"score" db:"score"`
	Level      analyzer.RiskLevel   `json:"level" db:"level"`
	Indicators []analyzer.Indicator `json:"indicators" db:"indicators"`
	IsScam     bool                 `json:"is_scam" db:"is_scam"`
	CreatedAt  time.Time            `json:"created_at" db:"created_at"`
}

// Outcome is what one submission produces: the score plus an optional
// coordination signal
type Outcome struct {
	Result analyzer.Result      `json:"result"`
	Signal *coordination.Signal `json:"signal,omitempty"`
}

// AnalyzeRequest is the API request for the REST analysis endpoint
type AnalyzeRequest struct {
	Text string `json:"text" binding:"required"`
}

// StatsResponse is the admin dashboard summary
type StatsResponse struct {
	TotalUsers    int64 `json:"total_users"`
	TotalAnalyses int64 `json:"total_analyses"`
	TotalScams    int64 `json:"total_scams"`
	LiveUsers     int   `json:"live_users"`
}
