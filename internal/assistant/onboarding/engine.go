package onboarding

import (
	"context"
	"fmt"
	"strings"

	"github.com/careerlog/server/internal/assistant/model"
	logx "github.com/careerlog/server/pkg/logger"
)

// placeholder values stored when a slot is force-finalized.
const (
	skippedPlaceholder      = "[skipped]"
	insufficientPlaceholder = "[insufficient]"
)

// Engine drives the slot-filling state machine. Handle mutates the profile
// and session it is given; the orchestrator owns persistence.
type Engine struct {
	tm  model.TextModel
	cfg model.JournalConfig
}

func NewEngine(tm model.TextModel, cfg model.JournalConfig) *Engine {
	return &Engine{tm: tm, cfg: cfg}
}

// Result is one onboarding turn's outcome.
type Result struct {
	Response  string
	Completed bool
}

// Handle processes one message during onboarding.
func (e *Engine) Handle(ctx context.Context, p *model.Profile, s *model.SessionState, message string) (Result, error) {
	s.CurrentStep = model.StepOnboarding

	// First contact: greet and ask the first question without consuming an
	// attempt.
	if p.Stage == model.StageNotStarted {
		p.Stage = model.StageCollectingBasic
		response := fmt.Sprintf("%s\n\n%s\n\n%s",
			welcomeMessage(), progressLine(p), question(model.SlotName, 1, ""))
		s.Transcript.Append(message, response)
		return Result{Response: response}, nil
	}

	target, ok := p.NextUnsetSlot()
	if !ok {
		// Stage lagging behind resolved slots; finalize now.
		return e.complete(p, s, message), nil
	}

	ext, err := e.tm.Extract(ctx, target, message, s.Transcript.History())
	if err != nil {
		// A failed or empty extraction consumes an attempt like any other
		// unusable answer.
		logx.Warn().Err(err).Str("slot", string(target)).Msg("extraction failed, treating as invalid")
		ext = model.Extraction{Intent: model.ExtractInvalid}
	}

	var result Result
	switch {
	case ext.Intent == model.ExtractSkip:
		result = e.finalizeSlot(p, s, target, skippedPlaceholder)

	case ext.Intent == model.ExtractClarification,
		ext.Intent == model.ExtractAnswer && ext.Confidence < e.cfg.MinExtractionConfidence:
		result = e.consumeAttempt(p, s, target, message, ext.Value)

	case ext.Intent == model.ExtractAnswer:
		result = e.acceptAnswer(p, s, target, message, ext.Value)

	default: // invalid
		result = e.consumeAttempt(p, s, target, message, ext.Value)
	}

	if !result.Completed {
		s.Transcript.Append(message, result.Response)
	}
	return result, nil
}

// acceptAnswer validates and stores an extracted value.
func (e *Engine) acceptAnswer(p *model.Profile, s *model.SessionState, target model.Slot, message, value string) Result {
	// An entry-level total answers the current-role question too.
	if target == model.SlotTotalYears && isEntryLevel(value) {
		p.Slots[model.SlotTotalYears] = model.EntryLevelToken
		p.Slots[model.SlotJobYears] = model.EntryLevelToken
		p.SlotStatuses[model.SlotTotalYears] = model.SlotFilled
		p.SlotStatuses[model.SlotJobYears] = model.SlotFilled
		p.SlotAttempts[model.SlotTotalYears]++
		logx.Debug().Str("userID", p.UserID.String()).Msg("entry-level detected, filling both year slots")
		return e.advance(p, s, "Just starting out — great! I'll skip the current-role question.")
	}

	if !validate(target, value) {
		logx.Debug().Str("slot", string(target)).Str("value", value).Msg("slot validation failed")
		return e.consumeAttempt(p, s, target, message, value)
	}

	p.Slots[target] = strings.TrimSpace(value)
	p.SlotStatuses[target] = model.SlotFilled
	p.SlotAttempts[target]++
	return e.advance(p, s, "")
}

// consumeAttempt increments the attempt counter and either re-asks at the
// next tier or force-finalizes the slot once the cap is reached.
func (e *Engine) consumeAttempt(p *model.Profile, s *model.SessionState, target model.Slot, message, value string) Result {
	p.SlotAttempts[target]++
	attempts := p.SlotAttempts[target]

	if attempts >= e.cfg.MaxSlotAttempts {
		placeholder := insufficientPlaceholder
		if v := strings.TrimSpace(value); v != "" {
			placeholder = fmt.Sprintf("%s %s", insufficientPlaceholder, truncateRunes(v, 50))
		} else if m := strings.TrimSpace(message); m != "" {
			placeholder = fmt.Sprintf("%s %s", insufficientPlaceholder, truncateRunes(m, 50))
		}
		logx.Warn().Str("slot", string(target)).Int("attempts", attempts).Msg("attempt cap reached, finalizing slot")
		return e.finalizeSlot(p, s, target, placeholder)
	}

	tier := attempts + 1
	if tier > e.cfg.MaxSlotAttempts {
		tier = e.cfg.MaxSlotAttempts
	}
	response := fmt.Sprintf("%s\n\n%s", progressLine(p), question(target, tier, p.Name()))
	return Result{Response: response}
}

// finalizeSlot marks the slot insufficient and moves on.
func (e *Engine) finalizeSlot(p *model.Profile, s *model.SessionState, target model.Slot, placeholder string) Result {
	p.SlotStatuses[target] = model.SlotInsufficient
	p.Slots[target] = placeholder
	return e.advance(p, s, "No problem, let's move on.")
}

// advance asks the next unset slot's question, or completes onboarding when
// none remain. prefix is an optional transition line.
func (e *Engine) advance(p *model.Profile, s *model.SessionState, prefix string) Result {
	next, ok := p.NextUnsetSlot()
	if !ok {
		return e.complete(p, s, "")
	}

	// a fresh slot starts back at tier one
	tier := p.SlotAttempts[next] + 1
	if tier > e.cfg.MaxSlotAttempts {
		tier = e.cfg.MaxSlotAttempts
	}
	q := question(next, tier, p.Name())
	if prefix != "" {
		return Result{Response: fmt.Sprintf("%s\n\n%s\n\n%s", prefix, progressLine(p), q)}
	}
	return Result{Response: fmt.Sprintf("%s\n\n%s", progressLine(p), q)}
}

// complete finalizes the stage, clears the transcript and emits the closing
// summary.
func (e *Engine) complete(p *model.Profile, s *model.SessionState, _ string) Result {
	p.Stage = model.StageCompleted
	s.Transcript = model.OnboardingTranscript{}
	s.CurrentStep = model.StepDailyRecording
	logx.Info().Str("userID", p.UserID.String()).Msg("onboarding completed")
	return Result{Response: completionMessage(p.Name()), Completed: true}
}

func isEntryLevel(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == model.EntryLevelToken || strings.Contains(v, "entry level") || strings.Contains(v, model.EntryLevelToken)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
