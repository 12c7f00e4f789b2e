// Package orchestrator runs the per-message cycle: load state, route,
// dispatch to the phase handler, commit the buffered mutations, respond.
// It is the single place failures turn into an apology reply.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/careerlog/server/internal/assistant/daily"
	"github.com/careerlog/server/internal/assistant/model"
	"github.com/careerlog/server/internal/assistant/onboarding"
	"github.com/careerlog/server/internal/assistant/router"
	"github.com/careerlog/server/internal/assistant/weekly"
	errx "github.com/careerlog/server/internal/core/error"
	logx "github.com/careerlog/server/pkg/logger"
)

const (
	apologyGeneric = "Sorry, something went wrong on my side. Your message wasn't recorded, so please send it again in a moment."

	apologySlow = "Sorry, it's taking me longer than usual to think. Please try again in a moment."
)

// Orchestrator wires the router and the three phase handlers over one store.
type Orchestrator struct {
	store      model.Store
	onboarding *onboarding.Engine
	daily      *daily.Controller
	weekly     *weekly.Gate
	router     *router.Router
	locks      *userLocks
	now        func() time.Time
}

func New(store model.Store, tm model.TextModel, cfg model.JournalConfig) *Orchestrator {
	gate := weekly.NewGate(tm, store, cfg)
	return &Orchestrator{
		store:      store,
		onboarding: onboarding.NewEngine(tm, cfg),
		daily:      daily.NewController(tm, store, gate, cfg),
		weekly:     gate,
		router:     router.New(tm, store, cfg),
		locks:      newUserLocks(defaultMaxTrackedUsers),
		now:        time.Now,
	}
}

// Reply is what the transport returns to the caller.
type Reply struct {
	Text string       `json:"responseText"`
	Hint model.UIHint `json:"uiHint"`
}

// HandleMessage processes one inbound message end to end. It never returns an
// error: every failure resolves to an apology reply here, and failed messages
// leave no partial state behind.
func (o *Orchestrator) HandleMessage(ctx context.Context, uid model.UserID, message string) Reply {
	unlock := o.locks.lock(uid)
	defer unlock()

	reply, err := o.process(ctx, uid, message, o.now())
	if err != nil {
		logx.Error().Err(err).Str("userID", uid.String()).Msg("message handling failed")
		return Reply{Text: apology(err), Hint: model.HintDailyRecord}
	}
	return reply
}

func (o *Orchestrator) process(ctx context.Context, uid model.UserID, message string, now time.Time) (Reply, error) {
	p, err := o.store.GetProfile(ctx, uid)
	if err != nil {
		return Reply{}, err
	}
	if p == nil {
		p = model.NewProfile(uid, now)
	} else {
		p = p.Clone()
	}

	s, err := o.store.GetSession(ctx, uid)
	if err != nil {
		return Reply{}, err
	}
	if s == nil {
		s = model.NewSessionState()
	} else {
		s = s.Clone()
	}

	daily.Rollover(p, s, now)

	prevAssistant, err := o.lastAssistantMessage(ctx, uid)
	if err != nil {
		return Reply{}, err
	}

	decision, err := o.router.Route(ctx, p, s, message, prevAssistant, now)
	if err != nil {
		return Reply{}, err
	}

	response, hint, turn, err := o.dispatch(ctx, p, s, decision, message, now)
	if err != nil {
		return Reply{}, err
	}

	p.UpdatedAt = now
	if err := o.store.Commit(ctx, uid, p, s, turn); err != nil {
		return Reply{}, err
	}
	return Reply{Text: response, Hint: hint}, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, p *model.Profile, s *model.SessionState, decision router.Decision, message string, now time.Time) (string, model.UIHint, *model.Turn, error) {
	switch decision.Target {
	case model.TargetOnboarding:
		res, err := o.onboarding.Handle(ctx, p, s, message)
		if err != nil {
			return "", "", nil, err
		}
		turn := &model.Turn{
			UserMessage: message,
			AIMessage:   res.Response,
			Timestamp:   now,
		}
		hint := model.HintOnboarding
		if res.Completed {
			hint = model.HintDailyRecord
		}
		return res.Response, hint, turn, nil

	case model.TargetWeekly:
		var (
			res weekly.Result
			err error
		)
		switch decision.Weekly {
		case model.WeeklyAccept:
			res, err = o.weekly.HandleAccept(ctx, p, s, message, now)
		case model.WeeklyReject:
			res = o.weekly.HandleReject(p, s, message, now)
		case model.WeeklyManual:
			res, err = o.weekly.HandleManual(ctx, p, s, message, now)
		default:
			err = errors.New("unroutable weekly action")
		}
		if err != nil {
			return "", "", nil, err
		}
		return res.Response, res.Hint, &res.Turn, nil

	default:
		if decision.Daily == model.DailyWeeklyTooFewDays {
			res := o.daily.RefuseTooFewDays(message, decision.WeekdayRecords, now)
			return res.Response, res.Hint, &res.Turn, nil
		}
		res, err := o.daily.Handle(ctx, p, s, decision.Daily, message, now)
		if err != nil {
			return "", "", nil, err
		}
		return res.Response, res.Hint, &res.Turn, nil
	}
}

// lastAssistantMessage returns the assistant side of the latest logged turn,
// used to resolve short acknowledgements during classification.
func (o *Orchestrator) lastAssistantMessage(ctx context.Context, uid model.UserID) (string, error) {
	recent, err := o.store.RecentTurns(ctx, uid, 1)
	if err != nil {
		return "", err
	}
	if len(recent) == 0 {
		return "", nil
	}
	return recent[len(recent)-1].AIMessage, nil
}

// apology selects the user-facing failure text.
func apology(err error) string {
	if errors.Is(err, errx.ErrGenerationTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return apologySlow
	}
	return apologyGeneric
}
