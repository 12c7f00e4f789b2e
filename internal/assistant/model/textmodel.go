package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// TaxonomyID selects the label set (and its prompt) for a classify call.
type TaxonomyID string

const (
	// TaxonomyService covers the top-level routing labels.
	TaxonomyService TaxonomyID = "service"
	// TaxonomyDaily covers the daily sub-intents.
	TaxonomyDaily TaxonomyID = "daily"
)

// ContextHints inform classification beyond the raw message. A different
// prompt variant is used when the weekly flag is pending, so that a bare
// "yes" disambiguates into weekly acceptance rather than a daily summary.
type ContextHints struct {
	WeeklyFlagPending bool
	// PrevAssistant is the assistant side of the most recent turn, used to
	// resolve short acknowledgements against the question that prompted them.
	PrevAssistant string
	// SummaryShownToday reports whether a daily summary exists in the
	// current session.
	SummaryShownToday bool
}

// Classification is a classify result.
type Classification struct {
	Label      string
	Confidence float64
}

// ExtractionIntent is the structured shape of an onboarding extraction.
type ExtractionIntent string

const (
	ExtractAnswer        ExtractionIntent = "answer"
	ExtractClarification ExtractionIntent = "clarification"
	ExtractInvalid       ExtractionIntent = "invalid"
	ExtractSkip          ExtractionIntent = "skip"
)

// Extraction is the structured result of reading one slot value out of a
// message.
type Extraction struct {
	Intent     ExtractionIntent `json:"intent"`
	Value      string           `json:"value"`
	Confidence float64          `json:"confidence"`
}

// GenerateRequest carries everything a generate call needs.
type GenerateRequest struct {
	System      string
	History     []*schema.Message
	UserMessage string
}

// TextModel is the opaque language capability. Implementations bound every
// call with a timeout; callers recover failures locally per the handler's
// fallback rule.
type TextModel interface {
	Classify(ctx context.Context, taxonomy TaxonomyID, text string, hints ContextHints) (Classification, error)
	Extract(ctx context.Context, slot Slot, message string, history []*schema.Message) (Extraction, error)
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
