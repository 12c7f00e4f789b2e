package model

import "time"

// ================ Config ================

// JournalConfig holds the phase-transition thresholds. Defaults match the
// production service.
type JournalConfig struct {
	// DailyTurnsThreshold is the valid-turn count that marks a day attended.
	DailyTurnsThreshold int `envconfig:"DAILY_TURNS_THRESHOLD" default:"4"`
	// SummarySuggestionThreshold is the in-session conversation count at
	// which the canned "shall I summarize?" reply is returned.
	SummarySuggestionThreshold int `envconfig:"SUMMARY_SUGGESTION_THRESHOLD" default:"4"`
	// WeeklyCycleDays is the attendance-day length of one rollup cycle.
	WeeklyCycleDays int `envconfig:"WEEKLY_CYCLE_DAYS" default:"7"`
	// MinWeekdayRecords gates manual weekly requests.
	MinWeekdayRecords int `envconfig:"WEEKLY_MIN_WEEKDAY_RECORDS" default:"2"`
	// ContextTurns bounds the history window for follow-up generation.
	ContextTurns int `envconfig:"MAX_CONTEXT_TURNS" default:"3"`
	// MaxSlotAttempts is the attempt cap before a slot is force-finalized.
	MaxSlotAttempts int `envconfig:"ONBOARDING_MAX_ATTEMPTS" default:"3"`
	// MinExtractionConfidence is the floor under which an extracted answer
	// is treated as a clarification request.
	MinExtractionConfidence float64 `envconfig:"ONBOARDING_MIN_CONFIDENCE" default:"0.5"`
}

// ClassifierModelConfig configures the low-temperature classification model.
type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.1"`
	Timeout     string  `envconfig:"CLASSIFIER_TIMEOUT" default:"10s"`
}

// ResponderModelConfig configures the response/summary generation model.
type ResponderModelConfig struct {
	Model       string  `envconfig:"RESPONDER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONDER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RESPONDER_TEMPERATURE" default:"0.4"`
	Timeout     string  `envconfig:"RESPONDER_TIMEOUT" default:"25s"`
}

// SessionConfig covers session persistence.
type SessionConfig struct {
	TTL string `envconfig:"SESSION_TTL" default:"48h"`
}

// ParseTimeout turns a config duration string into a time.Duration with a
// fallback when unset or malformed.
func ParseTimeout(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
