package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Defaults and bounds for list endpoints
const (
	DefaultLimit  = 20
	MaxLimit      = 100
	DefaultOffset = 0
)

// Params holds parsed pagination parameters
type Params struct {
	Limit  int
	Offset int
}

// ParseParams extracts limit/offset query parameters with defaults.
// Invalid or out-of-range values fall back to defaults; limit is capped
// at MaxLimit.
func ParseParams(c *gin.Context) Params {
	limit := DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset := DefaultOffset
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	return Params{Limit: limit, Offset: offset}
}

// Meta describes a paginated response
type Meta struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// NewMeta builds response metadata for a page
func NewMeta(p Params, total int64) Meta {
	return Meta{Limit: p.Limit, Offset: p.Offset, Total: total}
}
