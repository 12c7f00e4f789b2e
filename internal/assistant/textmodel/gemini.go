// Package textmodel implements the opaque language capability on Gemini chat
// models: a low-temperature classifier for intent taxonomies and slot
// extraction, and a higher-temperature responder for follow-ups and
// summaries. Every call is bounded by a timeout; callers decide the fallback.
package textmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	domain "github.com/careerlog/server/internal/assistant/model"
	errx "github.com/careerlog/server/internal/core/error"
	logx "github.com/careerlog/server/pkg/logger"
)

// Config holds everything needed to build both chat models.
type Config struct {
	APIKey     string
	BaseURL    string
	Classifier domain.ClassifierModelConfig
	Responder  domain.ResponderModelConfig
}

// Gemini is the production TextModel.
type Gemini struct {
	classifier einomodel.BaseChatModel
	responder  einomodel.BaseChatModel

	classifierName string
	responderName  string

	classifyTimeout time.Duration
	generateTimeout time.Duration
}

// New creates both chat models against one Gemini client.
func New(ctx context.Context, cfg Config) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	classifier, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Classifier.Model,
		Temperature: &cfg.Classifier.Temperature,
		MaxTokens:   &cfg.Classifier.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	responder, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Responder.Model,
		Temperature: &cfg.Responder.Temperature,
		MaxTokens:   &cfg.Responder.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating responder model")
		return nil, fmt.Errorf("error creating responder model: %w", err)
	}

	return &Gemini{
		classifier:      classifier,
		responder:       responder,
		classifierName:  cfg.Classifier.Model,
		responderName:   cfg.Responder.Model,
		classifyTimeout: domain.ParseTimeout(cfg.Classifier.Timeout, 10*time.Second),
		generateTimeout: domain.ParseTimeout(cfg.Responder.Timeout, 25*time.Second),
	}, nil
}

// invoke runs one bounded chat completion and logs usage cost.
func (g *Gemini) invoke(ctx context.Context, m einomodel.BaseChatModel, modelName string, timeout time.Duration, msgs []*schema.Message) (*schema.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := m.Generate(ctx, msgs)
	if err != nil {
		return nil, errx.WrapModel(err)
	}
	if out == nil {
		return nil, errx.WrapModel(fmt.Errorf("model returned nil message"))
	}
	logUsage(modelName, out)
	return out, nil
}

var _ domain.TextModel = (*Gemini)(nil)
