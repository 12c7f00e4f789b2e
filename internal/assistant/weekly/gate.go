// Package weekly owns the rollup lifecycle: the readiness flag set after a
// qualifying daily summary, the accept/reject paths, and the manual request.
package weekly

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/careerlog/server/internal/assistant/model"
	"github.com/careerlog/server/internal/assistant/textmodel/prompts"
	logx "github.com/careerlog/server/pkg/logger"
)

const (
	rejectionAck = "No problem. The records are all saved, so we can look back whenever you like."

	noEntries = "I couldn't find any daily summaries to roll up yet. Let's keep recording first!"
)

// Gate evaluates and consumes the weekly readiness flag.
type Gate struct {
	tm    model.TextModel
	turns model.TurnStore
	cfg   model.JournalConfig
}

func NewGate(tm model.TextModel, turns model.TurnStore, cfg model.JournalConfig) *Gate {
	return &Gate{tm: tm, turns: turns, cfg: cfg}
}

// Result is one weekly turn's outcome.
type Result struct {
	Response string
	Hint     model.UIHint
	Turn     model.Turn
}

// Cycle returns the 1-based rollup cycle an attendance count belongs to, zero
// before the first attendance.
func (g *Gate) Cycle(attendance int) int {
	if attendance <= 0 {
		return 0
	}
	return (attendance-1)/g.cfg.WeeklyCycleDays + 1
}

// MaybeSet raises the readiness flag right after a daily summary when the
// attendance count lands on a full cycle, that day itself crossed the daily
// threshold, and the cycle has not been consumed yet. It reports whether the
// flag was newly raised.
func (g *Gate) MaybeSet(p *model.Profile, s *model.SessionState) bool {
	if p.AttendanceCount == 0 || p.AttendanceCount%g.cfg.WeeklyCycleDays != 0 {
		return false
	}
	if p.DailyRecordCount < g.cfg.DailyTurnsThreshold {
		return false
	}
	if s.Weekly.Ready || s.Weekly.CompletedCycle >= g.Cycle(p.AttendanceCount) {
		return false
	}

	s.Weekly.Ready = true
	s.Weekly.AttendanceAtFlag = p.AttendanceCount
	logx.Info().Str("userID", p.UserID.String()).
		Int("attendance", p.AttendanceCount).
		Msg("weekly rollup flag raised")
	return true
}

// HandleAccept generates the full rollup and consumes the flag.
func (g *Gate) HandleAccept(ctx context.Context, p *model.Profile, s *model.SessionState, message string, now time.Time) (Result, error) {
	attendance := s.Weekly.AttendanceAtFlag
	if attendance == 0 {
		attendance = p.AttendanceCount
	}

	entries, err := g.weekEntries(ctx, p.UserID)
	if err != nil {
		return Result{}, err
	}
	if entries == "" {
		return canned(message, noEntries, now), nil
	}

	system, err := prompts.RenderWeeklyRollup(ctx, p, entries, false, 0, g.cfg.WeeklyCycleDays)
	if err != nil {
		return Result{}, err
	}
	text, err := g.tm.Generate(ctx, model.GenerateRequest{System: system})
	if err != nil {
		return Result{}, err
	}

	s.Weekly.CompletedCycle = g.Cycle(attendance)
	s.ClearWeeklyFlag()
	s.CurrentStep = model.StepWeeklyCompleted
	logx.Info().Str("userID", p.UserID.String()).
		Int("cycle", s.Weekly.CompletedCycle).
		Msg("weekly rollup completed")

	turn := model.Turn{
		UserMessage: message,
		AIMessage:   text,
		Timestamp:   now,
		IsSummary:   true,
		SummaryType: model.SummaryWeekly,
	}
	return Result{Response: text, Hint: model.HintWeeklyFeedback, Turn: turn}, nil
}

// HandleReject consumes the flag without generating; the cycle is marked so
// the suggestion stays quiet until the next one.
func (g *Gate) HandleReject(p *model.Profile, s *model.SessionState, message string, now time.Time) Result {
	attendance := s.Weekly.AttendanceAtFlag
	if attendance == 0 {
		attendance = p.AttendanceCount
	}
	s.Weekly.CompletedCycle = g.Cycle(attendance)
	s.ClearWeeklyFlag()
	s.CurrentStep = model.StepWeeklyRejected
	logx.Debug().Str("userID", p.UserID.String()).Msg("weekly rollup declined")
	return canned(message, rejectionAck, now)
}

// HandleManual serves an explicit rollup request. Mid-cycle it produces the
// advisory partial variant and leaves the cycle unconsumed, so the real
// end-of-cycle suggestion still fires.
func (g *Gate) HandleManual(ctx context.Context, p *model.Profile, s *model.SessionState, message string, now time.Time) (Result, error) {
	if p.AttendanceCount == 0 {
		return canned(message, noEntries, now), nil
	}
	entries, err := g.weekEntries(ctx, p.UserID)
	if err != nil {
		return Result{}, err
	}
	if entries == "" {
		return canned(message, noEntries, now), nil
	}

	dayInCycle := p.AttendanceCount % g.cfg.WeeklyCycleDays
	partial := dayInCycle != 0

	system, err := prompts.RenderWeeklyRollup(ctx, p, entries, partial, dayInCycle, g.cfg.WeeklyCycleDays)
	if err != nil {
		return Result{}, err
	}
	text, err := g.tm.Generate(ctx, model.GenerateRequest{System: system})
	if err != nil {
		return Result{}, err
	}

	summaryType := model.SummaryWeekly
	if partial {
		summaryType = model.SummaryWeeklyPartial
		s.CurrentStep = model.StepDailyRecording
	} else {
		s.Weekly.CompletedCycle = g.Cycle(p.AttendanceCount)
		s.ClearWeeklyFlag()
		s.CurrentStep = model.StepWeeklyCompleted
	}

	turn := model.Turn{
		UserMessage: message,
		AIMessage:   text,
		Timestamp:   now,
		IsSummary:   true,
		SummaryType: summaryType,
	}
	return Result{Response: text, Hint: model.HintWeeklyFeedback, Turn: turn}, nil
}

// weekEntries flattens the last cycle's worth of daily summaries for the
// rollup prompt.
func (g *Gate) weekEntries(ctx context.Context, uid model.UserID) (string, error) {
	turns, err := g.turns.RecentTurns(ctx, uid, 0)
	if err != nil {
		return "", err
	}

	var summaries []model.Turn
	for _, t := range turns {
		if t.IsSummary && t.SummaryType == model.SummaryDaily {
			summaries = append(summaries, t)
		}
	}
	if n := len(summaries); n > g.cfg.WeeklyCycleDays {
		summaries = summaries[n-g.cfg.WeeklyCycleDays:]
	}

	var b strings.Builder
	for i, t := range summaries {
		fmt.Fprintf(&b, "%d. (%s) %s\n", i+1, model.DateKey(t.Timestamp), t.AIMessage)
	}
	return strings.TrimSpace(b.String()), nil
}

func canned(message, response string, now time.Time) Result {
	return Result{
		Response: response,
		Hint:     model.HintWeeklyFeedback,
		Turn: model.Turn{
			UserMessage: message,
			AIMessage:   response,
			Timestamp:   now,
		},
	}
}
