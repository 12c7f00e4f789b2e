package model

import "time"

// SummaryType labels summary turns in the log.
type SummaryType string

const (
	SummaryNone          SummaryType = ""
	SummaryDaily         SummaryType = "daily"
	SummaryWeekly        SummaryType = "weekly"
	SummaryWeeklyPartial SummaryType = "weeklyPartial"
)

// Turn is one append-only log record. The log is the source of truth for
// "today's conversation" when building summaries, independent of the session.
type Turn struct {
	ID          string      `json:"id"`
	UserMessage string      `json:"userMessage"`
	AIMessage   string      `json:"aiMessage"`
	Timestamp   time.Time   `json:"timestamp"`
	IsSummary   bool        `json:"isSummary"`
	SummaryType SummaryType `json:"summaryType,omitempty"`
	// ValidTurn marks exchanges that count toward the daily record; rejections,
	// end requests and refusals are logged with ValidTurn=false.
	ValidTurn bool `json:"validTurn"`
}

// DateKey formats a time as the per-date log key, in the orchestrator's zone.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
