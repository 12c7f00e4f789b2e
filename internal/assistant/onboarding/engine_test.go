package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlog/server/internal/assistant/model"
)

type stubModel struct {
	extract func(slot model.Slot, message string) (model.Extraction, error)
}

func (s *stubModel) Classify(context.Context, model.TaxonomyID, string, model.ContextHints) (model.Classification, error) {
	return model.Classification{}, errors.New("not implemented")
}

func (s *stubModel) Extract(_ context.Context, slot model.Slot, message string, _ []*schema.Message) (model.Extraction, error) {
	return s.extract(slot, message)
}

func (s *stubModel) Generate(context.Context, model.GenerateRequest) (string, error) {
	return "", errors.New("not implemented")
}

func testConfig() model.JournalConfig {
	return model.JournalConfig{
		MaxSlotAttempts:         3,
		MinExtractionConfidence: 0.5,
	}
}

func answer(value string) func(model.Slot, string) (model.Extraction, error) {
	return func(model.Slot, string) (model.Extraction, error) {
		return model.Extraction{Intent: model.ExtractAnswer, Value: value, Confidence: 0.9}, nil
	}
}

func newTestProfile() (*model.Profile, *model.SessionState) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return model.NewProfile("u1", now), model.NewSessionState()
}

func TestHandleFirstContact(t *testing.T) {
	e := NewEngine(&stubModel{}, testConfig())
	p, s := newTestProfile()

	res, err := e.Handle(context.Background(), p, s, "hi")
	require.NoError(t, err)

	assert.Equal(t, model.StageCollectingBasic, p.Stage)
	assert.Contains(t, res.Response, "[Profile setup 0/9]")
	assert.Contains(t, res.Response, "name")
	assert.False(t, res.Completed)
	assert.Zero(t, p.SlotAttempts[model.SlotName], "greeting must not consume an attempt")
	assert.Len(t, s.Transcript.History(), 2)
}

func TestHandleValidAnswerAdvances(t *testing.T) {
	e := NewEngine(&stubModel{extract: answer("Jordan")}, testConfig())
	p, s := newTestProfile()
	p.Stage = model.StageCollectingBasic

	res, err := e.Handle(context.Background(), p, s, "I'm Jordan")
	require.NoError(t, err)

	assert.Equal(t, "Jordan", p.Slots[model.SlotName])
	assert.Equal(t, model.SlotFilled, p.SlotStatuses[model.SlotName])
	assert.Equal(t, 1, p.SlotAttempts[model.SlotName])
	assert.Contains(t, res.Response, "[Profile setup 1/9]")

	next, ok := p.NextUnsetSlot()
	require.True(t, ok)
	assert.Equal(t, model.SlotJobTitle, next)
}

func TestHandleLowConfidenceReasks(t *testing.T) {
	e := NewEngine(&stubModel{extract: func(model.Slot, string) (model.Extraction, error) {
		return model.Extraction{Intent: model.ExtractAnswer, Value: "maybe Jo?", Confidence: 0.2}, nil
	}}, testConfig())
	p, s := newTestProfile()
	p.Stage = model.StageCollectingBasic

	_, err := e.Handle(context.Background(), p, s, "maybe Jo?")
	require.NoError(t, err)

	assert.Equal(t, 1, p.SlotAttempts[model.SlotName])
	assert.Equal(t, model.SlotUnset, p.SlotStatus(model.SlotName))
}

func TestHandleClarificationConsumesAttempt(t *testing.T) {
	e := NewEngine(&stubModel{extract: func(model.Slot, string) (model.Extraction, error) {
		return model.Extraction{Intent: model.ExtractClarification}, nil
	}}, testConfig())
	p, s := newTestProfile()
	p.Stage = model.StageCollectingBasic

	res, err := e.Handle(context.Background(), p, s, "what do you mean?")
	require.NoError(t, err)

	assert.Equal(t, 1, p.SlotAttempts[model.SlotName])
	assert.Contains(t, res.Response, "name")
}

func TestHandleAttemptCapForcesFinalization(t *testing.T) {
	e := NewEngine(&stubModel{extract: func(model.Slot, string) (model.Extraction, error) {
		return model.Extraction{Intent: model.ExtractInvalid}, nil
	}}, testConfig())
	p, s := newTestProfile()
	p.Stage = model.StageCollectingBasic

	for i := 0; i < 3; i++ {
		_, err := e.Handle(context.Background(), p, s, "asdfgh")
		require.NoError(t, err)
	}

	assert.Equal(t, 3, p.SlotAttempts[model.SlotName])
	assert.Equal(t, model.SlotInsufficient, p.SlotStatuses[model.SlotName])

	next, ok := p.NextUnsetSlot()
	require.True(t, ok)
	assert.Equal(t, model.SlotJobTitle, next, "finalized slot must not be re-asked")
}

func TestHandleSkipFinalizesSlot(t *testing.T) {
	e := NewEngine(&stubModel{extract: func(model.Slot, string) (model.Extraction, error) {
		return model.Extraction{Intent: model.ExtractSkip}, nil
	}}, testConfig())
	p, s := newTestProfile()
	p.Stage = model.StageCollectingBasic

	res, err := e.Handle(context.Background(), p, s, "skip")
	require.NoError(t, err)

	assert.Equal(t, model.SlotInsufficient, p.SlotStatuses[model.SlotName])
	assert.Equal(t, skippedPlaceholder, p.Slots[model.SlotName])
	assert.Contains(t, res.Response, "move on")
}

func TestHandleEntryLevelFillsBothYearSlots(t *testing.T) {
	e := NewEngine(&stubModel{extract: answer("entry-level")}, testConfig())
	p, s := newTestProfile()
	p.Stage = model.StageCollectingBasic
	p.Slots[model.SlotName] = "Jordan"
	p.SlotStatuses[model.SlotName] = model.SlotFilled
	p.Slots[model.SlotJobTitle] = "designer"
	p.SlotStatuses[model.SlotJobTitle] = model.SlotFilled

	res, err := e.Handle(context.Background(), p, s, "I'm just starting out")
	require.NoError(t, err)

	assert.Equal(t, model.EntryLevelToken, p.Slots[model.SlotTotalYears])
	assert.Equal(t, model.EntryLevelToken, p.Slots[model.SlotJobYears])
	assert.Equal(t, model.SlotFilled, p.SlotStatuses[model.SlotJobYears])
	assert.Contains(t, res.Response, "skip the current-role question")

	next, ok := p.NextUnsetSlot()
	require.True(t, ok)
	assert.Equal(t, model.SlotCareerGoal, next)
}

func TestHandleCompletion(t *testing.T) {
	e := NewEngine(&stubModel{extract: answer("growth")}, testConfig())
	p, s := newTestProfile()
	p.Stage = model.StageCollectingBasic
	for _, slot := range model.SlotOrder[:len(model.SlotOrder)-1] {
		p.Slots[slot] = "x"
		p.SlotStatuses[slot] = model.SlotFilled
	}
	p.Slots[model.SlotName] = "Jordan"

	res, err := e.Handle(context.Background(), p, s, "growth matters most to me")
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.Equal(t, model.StageCompleted, p.Stage)
	assert.Equal(t, model.StepDailyRecording, s.CurrentStep)
	assert.Contains(t, res.Response, "Jordan")
	assert.Empty(t, s.Transcript.History(), "transcript is cleared on completion")
}

func TestHandleExtractionErrorConsumesAttempt(t *testing.T) {
	e := NewEngine(&stubModel{extract: func(model.Slot, string) (model.Extraction, error) {
		return model.Extraction{}, errors.New("model unavailable")
	}}, testConfig())
	p, s := newTestProfile()
	p.Stage = model.StageCollectingBasic

	_, err := e.Handle(context.Background(), p, s, "hello")
	require.NoError(t, err, "model failures degrade to a re-ask, not an error")
	assert.Equal(t, 1, p.SlotAttempts[model.SlotName])
}

func TestHandleValidationFailureReasks(t *testing.T) {
	e := NewEngine(&stubModel{extract: answer("x")}, testConfig())
	p, s := newTestProfile()
	p.Stage = model.StageCollectingBasic
	p.Slots[model.SlotName] = "Jordan"
	p.SlotStatuses[model.SlotName] = model.SlotFilled

	_, err := e.Handle(context.Background(), p, s, "x")
	require.NoError(t, err)

	assert.Equal(t, 1, p.SlotAttempts[model.SlotJobTitle])
	assert.Equal(t, model.SlotUnset, p.SlotStatus(model.SlotJobTitle))
}
