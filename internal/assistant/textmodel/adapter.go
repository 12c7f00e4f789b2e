package textmodel

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	domain "github.com/careerlog/server/internal/assistant/model"
	"github.com/careerlog/server/internal/assistant/textmodel/prompts"
	logx "github.com/careerlog/server/pkg/logger"
)

// Classify runs one taxonomy classification over the message.
func (g *Gemini) Classify(ctx context.Context, taxonomy domain.TaxonomyID, text string, hints domain.ContextHints) (domain.Classification, error) {
	var (
		system string
		err    error
	)
	switch taxonomy {
	case domain.TaxonomyService:
		system, err = prompts.RenderServiceIntent(ctx, hints)
	case domain.TaxonomyDaily:
		system, err = prompts.RenderDailyIntent(ctx, hints)
	default:
		return domain.Classification{}, fmt.Errorf("unknown taxonomy %q", taxonomy)
	}
	if err != nil {
		return domain.Classification{}, err
	}

	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(text),
	}

	out, err := g.invoke(ctx, g.classifier, g.classifierName, g.classifyTimeout, msgs)
	if err != nil {
		return domain.Classification{}, err
	}

	cls, err := parseClassification(out.Content)
	if err != nil {
		logx.Warn().Err(err).Str("taxonomy", string(taxonomy)).Msg("unparseable classification output")
		return domain.Classification{}, err
	}

	logx.Debug().
		Str("taxonomy", string(taxonomy)).
		Str("label", cls.Label).
		Float64("confidence", cls.Confidence).
		Msg("classified message")
	return cls, nil
}

// Extract reads one slot value out of the message, using the recent
// onboarding transcript as context.
func (g *Gemini) Extract(ctx context.Context, slot domain.Slot, message string, history []*schema.Message) (domain.Extraction, error) {
	system, err := prompts.RenderExtraction(ctx, slot)
	if err != nil {
		return domain.Extraction{}, err
	}

	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(system))
	msgs = append(msgs, history...)
	msgs = append(msgs, schema.UserMessage(truncate(message, maxUserMessageLen)))

	out, err := g.invoke(ctx, g.classifier, g.classifierName, g.classifyTimeout, msgs)
	if err != nil {
		return domain.Extraction{}, err
	}

	ext, err := parseExtraction(out.Content)
	if err != nil {
		logx.Warn().Err(err).Str("slot", string(slot)).Msg("unparseable extraction output")
		return domain.Extraction{}, err
	}

	logx.Debug().
		Str("slot", string(slot)).
		Str("intent", string(ext.Intent)).
		Float64("confidence", ext.Confidence).
		Msg("extracted slot value")
	return ext, nil
}

// Generate runs one free-form completion.
func (g *Gemini) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	msgs := make([]*schema.Message, 0, len(req.History)+2)
	msgs = append(msgs, schema.SystemMessage(req.System))
	msgs = append(msgs, req.History...)
	if req.UserMessage != "" {
		msgs = append(msgs, schema.UserMessage(req.UserMessage))
	}

	out, err := g.invoke(ctx, g.responder, g.responderName, g.generateTimeout, msgs)
	if err != nil {
		return "", err
	}
	return out.Content, nil
}
