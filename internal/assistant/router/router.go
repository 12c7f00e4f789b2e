// Package router decides which handler an inbound message belongs to. It
// classifies with the text model, then applies the state preconditions that
// the classifier alone cannot see.
package router

import (
	"context"
	"time"

	"github.com/careerlog/server/internal/assistant/model"
	logx "github.com/careerlog/server/pkg/logger"
)

// Router owns the two-level intent decision.
type Router struct {
	tm    model.TextModel
	turns model.TurnStore
	cfg   model.JournalConfig
}

func New(tm model.TextModel, turns model.TurnStore, cfg model.JournalConfig) *Router {
	return &Router{tm: tm, turns: turns, cfg: cfg}
}

// Decision is a Route plus the context the refusal messages need.
type Decision struct {
	model.Route
	// WeekdayRecords is the number of weekdays with records in the current
	// calendar week, populated only for the too-few-days refusal.
	WeekdayRecords int
}

// Route classifies the message and applies the state gates. Classifier
// failures degrade to the safe defaults; store failures propagate.
func (r *Router) Route(ctx context.Context, p *model.Profile, s *model.SessionState, message, prevAssistant string, now time.Time) (Decision, error) {
	if p.Stage != model.StageCompleted {
		return Decision{Route: model.Route{Target: model.TargetOnboarding}}, nil
	}

	hints := model.ContextHints{
		WeeklyFlagPending: s.Weekly.Ready,
		PrevAssistant:     prevAssistant,
		SummaryShownToday: s.Daily.LastSummaryAt != nil,
	}

	service := model.ServiceDailyRecord
	if cls, err := r.tm.Classify(ctx, model.TaxonomyService, message, hints); err != nil {
		logx.Warn().Err(err).Str("userID", p.UserID.String()).Msg("service classification failed, defaulting to daily")
	} else {
		service = model.ParseServiceIntent(cls.Label)
	}

	switch service {
	case model.ServiceWeeklyAcceptance:
		if s.Weekly.Ready {
			return Decision{Route: model.Route{Target: model.TargetWeekly, Weekly: model.WeeklyAccept}}, nil
		}
		// a stray yes with nothing pending is just conversation
		return r.routeDaily(ctx, p, s, message, hints, now)

	case model.ServiceRejection:
		if s.Weekly.Ready {
			return Decision{Route: model.Route{Target: model.TargetWeekly, Weekly: model.WeeklyReject}}, nil
		}
		return Decision{Route: model.Route{Target: model.TargetDaily, Daily: model.DailyRejection}}, nil

	case model.ServiceWeeklyFeedback:
		return r.routeManualWeekly(ctx, p, s, now)

	default:
		return r.routeDaily(ctx, p, s, message, hints, now)
	}
}

// routeManualWeekly gates an explicit rollup request: rest days only, a
// minimum of recorded weekdays, at least one attended day, and not within an
// already consumed cycle.
func (r *Router) routeManualWeekly(ctx context.Context, p *model.Profile, s *model.SessionState, now time.Time) (Decision, error) {
	if s.Weekly.Ready {
		return Decision{Route: model.Route{Target: model.TargetWeekly, Weekly: model.WeeklyAccept}}, nil
	}

	cycle := 0
	if p.AttendanceCount > 0 {
		cycle = (p.AttendanceCount-1)/r.cfg.WeeklyCycleDays + 1
	}
	if cycle > 0 && s.Weekly.CompletedCycle == cycle {
		return Decision{Route: model.Route{Target: model.TargetDaily, Daily: model.DailyWeeklyDone}}, nil
	}

	if !isRestDay(now) {
		return Decision{Route: model.Route{Target: model.TargetDaily, Daily: model.DailyWeeklyRestDayOnly}}, nil
	}

	count, err := r.weekdayRecords(ctx, p.UserID, now)
	if err != nil {
		return Decision{}, err
	}
	if count == 0 {
		return Decision{Route: model.Route{Target: model.TargetDaily, Daily: model.DailyWeeklyNoRecord}}, nil
	}
	if count < r.cfg.MinWeekdayRecords {
		return Decision{
			Route:          model.Route{Target: model.TargetDaily, Daily: model.DailyWeeklyTooFewDays},
			WeekdayRecords: count,
		}, nil
	}
	if p.AttendanceCount == 0 {
		return Decision{Route: model.Route{Target: model.TargetDaily, Daily: model.DailyWeeklyNoRecord}}, nil
	}

	return Decision{Route: model.Route{Target: model.TargetWeekly, Weekly: model.WeeklyManual}}, nil
}

func (r *Router) routeDaily(ctx context.Context, p *model.Profile, s *model.SessionState, message string, hints model.ContextHints, now time.Time) (Decision, error) {
	intent := model.DailyContinue
	if cls, err := r.tm.Classify(ctx, model.TaxonomyDaily, message, hints); err != nil {
		logx.Warn().Err(err).Str("userID", p.UserID.String()).Msg("daily classification failed, defaulting to continue")
	} else {
		intent = model.ParseDailyIntent(cls.Label)
	}

	switch intent {
	case model.DailySummary:
		if p.DailyRecordCount == 0 {
			has, err := r.turns.HasTurnsOnDate(ctx, p.UserID, model.DateKey(now))
			if err != nil {
				return Decision{}, err
			}
			if !has {
				return Decision{Route: model.Route{Target: model.TargetDaily, Daily: model.DailyNoRecordToday}}, nil
			}
		}
	case model.DailyEditSummary:
		if s.Daily.LastSummaryAt == nil {
			intent = model.DailyContinue
		}
	}

	return Decision{Route: model.Route{Target: model.TargetDaily, Daily: intent}}, nil
}

// weekdayRecords counts the Monday-to-Friday dates of the current calendar
// week, up to today, that have at least one logged turn.
func (r *Router) weekdayRecords(ctx context.Context, uid model.UserID, now time.Time) (int, error) {
	count := 0
	for d := weekStart(now); !d.After(now); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		has, err := r.turns.HasTurnsOnDate(ctx, uid, model.DateKey(d))
		if err != nil {
			return 0, err
		}
		if has {
			count++
		}
	}
	return count, nil
}

// weekStart returns Monday 00:00 of now's week in now's location.
func weekStart(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

func isRestDay(now time.Time) bool {
	wd := now.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
