package analyzer

// RiskLevel is the coarse classification derived from a numeric score
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// Score thresholds for risk levels
const (
	MediumThreshold = 40
	HighThreshold   = 70
	MaxScore        = 100
)

// Indicator explains one detection category that raised the score
type Indicator struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Result is the outcome of analyzing a piece of text
type Result struct {
	Score      int         `json:"score"`
	Level      RiskLevel   `json:"level"`
	Indicators []Indicator `json:"indicators"`
}

// IsScam reports whether the result should be flagged in history
func (r Result) IsScam() bool {
	return r.Level != RiskLevelLow
}

// LevelForScore maps a numeric score to its risk level
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= HighThreshold:
		return RiskLevelHigh
	case score >= MediumThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}
