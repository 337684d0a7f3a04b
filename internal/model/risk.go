package model

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskFlag is a human-readable finding regenerated for every search or report.
type RiskFlag struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Contribution is one named term of a composite score.
type Contribution struct {
	Indicator string `json:"indicator"`
	Points    int    `json:"points"`
}

// RiskBreakdown records how a composite score was reached.
type RiskBreakdown struct {
	Base          int            `json:"base"`
	Market        int            `json:"market"`
	Chain         int            `json:"chain"`
	Total         int            `json:"total"`
	Contributions []Contribution `json:"contributions"`
}
