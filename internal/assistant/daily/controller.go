// Package daily drives the work-journaling phase: follow-up questions, turn
// counting, the end-of-day summary and its edit loop.
package daily

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/careerlog/server/internal/assistant/model"
	"github.com/careerlog/server/internal/assistant/textmodel/prompts"
	logx "github.com/careerlog/server/pkg/logger"
)

// WeeklyGate is consulted right after a daily summary to decide whether the
// rollup suggestion fires.
type WeeklyGate interface {
	MaybeSet(p *model.Profile, s *model.SessionState) bool
}

// Controller handles every daily sub-intent. It mutates the profile and
// session it is given; the orchestrator owns persistence.
type Controller struct {
	tm    model.TextModel
	turns model.TurnStore
	gate  WeeklyGate
	cfg   model.JournalConfig
}

func NewController(tm model.TextModel, turns model.TurnStore, gate WeeklyGate, cfg model.JournalConfig) *Controller {
	return &Controller{tm: tm, turns: turns, gate: gate, cfg: cfg}
}

// Result is one daily turn's outcome. Turn is the log record the orchestrator
// commits alongside the state.
type Result struct {
	Response string
	Hint     model.UIHint
	Turn     model.Turn
}

// Rollover applies the lazy date reset: on the first message of a new date the
// daily counter and the transient session flags are cleared, exactly once.
// It reports whether a reset happened.
func Rollover(p *model.Profile, s *model.SessionState, now time.Time) bool {
	today := model.DateKey(now)
	if p.LastRecordDate == today {
		return false
	}
	first := p.LastRecordDate == ""
	p.LastRecordDate = today
	if first {
		return false
	}

	p.DailyRecordCount = 0
	s.ResetDaily()
	s.ClearWeeklyFlag()
	if s.CurrentStep != model.StepOnboarding {
		s.CurrentStep = model.StepDailyRecording
	}
	logx.Debug().Str("userID", p.UserID.String()).Str("date", today).Msg("daily counters rolled over")
	return true
}

// Handle processes one routed daily message.
func (c *Controller) Handle(ctx context.Context, p *model.Profile, s *model.SessionState, intent model.DailyIntent, message string, now time.Time) (Result, error) {
	switch intent {
	case model.DailyContinue:
		return c.handleContinue(ctx, p, s, message, now)
	case model.DailySummary:
		return c.handleSummary(ctx, p, s, message, "", now)
	case model.DailyEditSummary:
		return c.handleEdit(ctx, p, s, message, now)
	case model.DailyNoEditNeeded:
		s.ResetDaily()
		s.CurrentStep = model.StepDailySummaryCompleted
		return canned(message, keepAsIs, model.HintDailyRecord, now), nil
	case model.DailyEndConversation:
		return c.handleEnd(p, s, message, now), nil
	case model.DailyRejection:
		s.ResetDaily()
		return canned(message, rejectionAck, model.HintDailyRecord, now), nil
	case model.DailyRestart:
		return c.handleRestart(p, s, message, now), nil
	case model.DailyNoRecordToday:
		return canned(message, noRecordToday, model.HintDailyRecord, now), nil
	case model.DailyWeeklyNoRecord:
		return canned(message, weeklyNoRecord, model.HintDailyRecord, now), nil
	case model.DailyWeeklyRestDayOnly:
		return canned(message, weeklyRestDayOnly, model.HintDailyRecord, now), nil
	case model.DailyWeeklyDone:
		return canned(message, weeklyAlreadyDone, model.HintDailyRecord, now), nil
	case model.DailyWeeklyTooFewDays:
		return canned(message, weeklyTooFewDays(0, c.cfg.MinWeekdayRecords), model.HintDailyRecord, now), nil
	default:
		return c.handleContinue(ctx, p, s, message, now)
	}
}

// RefuseTooFewDays builds the weekday-count refusal with the actual count.
func (c *Controller) RefuseTooFewDays(message string, have int, now time.Time) Result {
	return canned(message, weeklyTooFewDays(have, c.cfg.MinWeekdayRecords), model.HintDailyRecord, now)
}

func (c *Controller) handleContinue(ctx context.Context, p *model.Profile, s *model.SessionState, message string, now time.Time) (Result, error) {
	c.creditTurn(p)
	s.Daily.ConversationCount++
	s.CurrentStep = model.StepDailyRecording

	if s.Daily.ConversationCount >= c.cfg.SummarySuggestionThreshold && s.Daily.LastSummaryAt == nil {
		return Result{
			Response: summarySuggestion,
			Hint:     model.HintDailyRecord,
			Turn:     newTurn(message, summarySuggestion, now, true),
		}, nil
	}

	system, err := prompts.RenderDailyFollowUp(ctx, p)
	if err != nil {
		return Result{}, err
	}
	history, err := c.todayHistory(ctx, p.UserID, now)
	if err != nil {
		return Result{}, err
	}
	text, err := c.tm.Generate(ctx, model.GenerateRequest{
		System:      system,
		History:     history,
		UserMessage: message,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Response: text,
		Hint:     model.HintDailyRecord,
		Turn:     newTurn(message, text, now, true),
	}, nil
}

// handleSummary builds the end-of-day summary from the turn log, then lets the
// weekly gate decide whether the rollup suggestion is appended. correction is
// the user's edit request, empty for a fresh summary.
func (c *Controller) handleSummary(ctx context.Context, p *model.Profile, s *model.SessionState, message, correction string, now time.Time) (Result, error) {
	turns, err := c.turns.TurnsForDate(ctx, p.UserID, model.DateKey(now), 0)
	if err != nil {
		return Result{}, err
	}
	conversation := conversationText(turns)
	if conversation == "" {
		return canned(message, noRecordToday, model.HintDailyRecord, now), nil
	}

	system, err := prompts.RenderDailySummary(ctx, p, conversation, correction)
	if err != nil {
		return Result{}, err
	}
	text, err := c.tm.Generate(ctx, model.GenerateRequest{System: system, UserMessage: message})
	if err != nil {
		return Result{}, err
	}

	at := now
	s.Daily.LastSummaryAt = &at
	s.Daily.ConversationCount = 0
	s.CurrentStep = model.StepDailySummaryCompleted

	response := text
	hint := model.HintDailySummaryEdit
	if correction == "" && c.gate.MaybeSet(p, s) {
		response = fmt.Sprintf("%s\n\n%s", text, weeklyFlagSuggestion())
		s.CurrentStep = model.StepWeeklySummaryPending
		hint = model.HintWeeklyFeedback
	}

	turn := newTurn(message, text, now, false)
	turn.IsSummary = true
	turn.SummaryType = model.SummaryDaily
	return Result{Response: response, Hint: hint, Turn: turn}, nil
}

// handleEdit regenerates today's summary under the user's correction. Without
// a summary this session the message is treated as more journaling. An honored
// edit counts toward the day like any journaling turn.
func (c *Controller) handleEdit(ctx context.Context, p *model.Profile, s *model.SessionState, message string, now time.Time) (Result, error) {
	if s.Daily.LastSummaryAt == nil {
		return c.handleContinue(ctx, p, s, message, now)
	}
	res, err := c.handleSummary(ctx, p, s, message, message, now)
	if err != nil || !res.Turn.IsSummary {
		return res, err
	}
	c.creditTurn(p)
	res.Turn.ValidTurn = true
	return res, nil
}

// handleEnd closes out the day. Below the attendance threshold the user gets a
// warning and the session is left alone so they can keep journaling.
func (c *Controller) handleEnd(p *model.Profile, s *model.SessionState, message string, now time.Time) Result {
	if p.DailyRecordCount < c.cfg.DailyTurnsThreshold {
		return canned(message, endBelowThreshold(p.DailyRecordCount, c.cfg.DailyTurnsThreshold), model.HintDailyRecord, now)
	}
	s.ResetDaily()
	return canned(message, goodbye, model.HintDailyRecord, now)
}

// creditTurn counts a valid journaling turn; crossing the threshold credits
// attendance exactly once per day.
func (c *Controller) creditTurn(p *model.Profile) {
	p.DailyRecordCount++
	if p.DailyRecordCount == c.cfg.DailyTurnsThreshold {
		p.AttendanceCount++
		logx.Info().Str("userID", p.UserID.String()).
			Int("attendance", p.AttendanceCount).
			Msg("daily threshold reached, attendance credited")
	}
}

func (c *Controller) handleRestart(p *model.Profile, s *model.SessionState, message string, now time.Time) Result {
	s.ResetDaily()
	s.CurrentStep = model.StepDailyRecording
	logx.Debug().Str("userID", p.UserID.String()).Msg("daily session restarted")
	return canned(message, restartPrompt, model.HintDailyRecord, now)
}

// todayHistory loads the tail of today's log as model messages.
func (c *Controller) todayHistory(ctx context.Context, uid model.UserID, now time.Time) ([]*schema.Message, error) {
	turns, err := c.turns.TurnsForDate(ctx, uid, model.DateKey(now), 0)
	if err != nil {
		return nil, err
	}
	if n := len(turns); n > c.cfg.ContextTurns {
		turns = turns[n-c.cfg.ContextTurns:]
	}
	out := make([]*schema.Message, 0, len(turns)*2)
	for _, t := range turns {
		if t.IsSummary {
			continue
		}
		out = append(out, schema.UserMessage(t.UserMessage))
		out = append(out, schema.AssistantMessage(t.AIMessage, nil))
	}
	return out, nil
}

// conversationText flattens the valid turns of the day for the summary prompt.
func conversationText(turns []model.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		if !t.ValidTurn || t.IsSummary {
			continue
		}
		fmt.Fprintf(&b, "user: %s\nassistant: %s\n", t.UserMessage, t.AIMessage)
	}
	return strings.TrimSpace(b.String())
}

func newTurn(userMessage, aiMessage string, now time.Time, valid bool) model.Turn {
	return model.Turn{
		UserMessage: userMessage,
		AIMessage:   aiMessage,
		Timestamp:   now,
		ValidTurn:   valid,
	}
}

func canned(message, response string, hint model.UIHint, now time.Time) Result {
	return Result{
		Response: response,
		Hint:     hint,
		Turn:     newTurn(message, response, now, false),
	}
}
