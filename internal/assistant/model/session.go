package model

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// Step labels the workflow position persisted with the session.
type Step string

const (
	StepOnboarding            Step = "onboarding"
	StepDailyRecording        Step = "dailyRecording"
	StepDailySummaryCompleted Step = "dailySummaryCompleted"
	StepWeeklySummaryPending  Step = "weeklySummaryPending"
	StepWeeklyCompleted       Step = "weeklyCompleted"
	StepWeeklyRejected        Step = "weeklyRejected"
)

// DailySessionFlags carries the transient per-day conversation state.
type DailySessionFlags struct {
	// ConversationCount counts continue-turns since the session started or
	// the last summary; it drives the summary suggestion.
	ConversationCount int `json:"conversationCount"`
	// LastSummaryAt is set when a daily summary was generated in this
	// session; editSummary is only honored while it is set.
	LastSummaryAt *time.Time `json:"lastSummaryAt,omitempty"`
}

// WeeklyFlag gates the periodic rollup.
type WeeklyFlag struct {
	// Ready is set right after a daily summary when the attendance count
	// lands on a full cycle.
	Ready bool `json:"ready"`
	// AttendanceAtFlag records the attendance count at flag-set time; the
	// rollup is generated from the data available then.
	AttendanceAtFlag int `json:"attendanceAtFlag,omitempty"`
	// CompletedCycle is the 1-based cycle index of the last consumed rollup,
	// kept to suppress re-suggestion within the same cycle. Zero means none.
	CompletedCycle int `json:"completedCycle,omitempty"`
}

// OnboardingTranscript is a bounded ring of recent onboarding exchanges fed
// back into extraction as context.
type OnboardingTranscript struct {
	Messages []TranscriptMessage `json:"messages,omitempty"`
}

// TranscriptMessage is one side of an onboarding exchange.
type TranscriptMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// transcriptMaxMessages bounds the ring: three exchanges.
const transcriptMaxMessages = 6

// Append adds a user/assistant exchange, discarding the oldest beyond the cap.
func (t *OnboardingTranscript) Append(userMessage, aiMessage string) {
	t.Messages = append(t.Messages,
		TranscriptMessage{Role: "user", Content: userMessage},
		TranscriptMessage{Role: "assistant", Content: aiMessage},
	)
	if n := len(t.Messages); n > transcriptMaxMessages {
		t.Messages = append([]TranscriptMessage(nil), t.Messages[n-transcriptMaxMessages:]...)
	}
}

// History converts the transcript into model messages.
func (t *OnboardingTranscript) History() []*schema.Message {
	out := make([]*schema.Message, 0, len(t.Messages))
	for _, m := range t.Messages {
		switch m.Role {
		case "assistant":
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

// SessionState is the ephemeral per-user workflow record. Every handler may
// mutate it; phase completion, rejection and date rollover reset parts of it.
type SessionState struct {
	CurrentStep Step                 `json:"currentStep"`
	Daily       DailySessionFlags    `json:"daily"`
	Weekly      WeeklyFlag           `json:"weekly"`
	Transcript  OnboardingTranscript `json:"transcript"`
}

// NewSessionState returns an empty session positioned at onboarding.
func NewSessionState() *SessionState {
	return &SessionState{CurrentStep: StepOnboarding}
}

// ResetDaily clears the transient daily fields, keeping the weekly flag.
func (s *SessionState) ResetDaily() {
	s.Daily = DailySessionFlags{}
}

// ClearWeeklyFlag drops a pending suggestion without touching the completed
// cycle marker.
func (s *SessionState) ClearWeeklyFlag() {
	s.Weekly.Ready = false
	s.Weekly.AttendanceAtFlag = 0
}

// Clone returns a deep copy, mirroring Profile.Clone.
func (s *SessionState) Clone() *SessionState {
	cp := *s
	if s.Daily.LastSummaryAt != nil {
		t := *s.Daily.LastSummaryAt
		cp.Daily.LastSummaryAt = &t
	}
	cp.Transcript.Messages = append([]TranscriptMessage(nil), s.Transcript.Messages...)
	return &cp
}
