package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlog/server/internal/assistant/model"
	"github.com/careerlog/server/internal/assistant/orchestrator"
	"github.com/careerlog/server/internal/assistant/repo"
	"github.com/careerlog/server/internal/core"
)

type stubModel struct{}

func (stubModel) Classify(context.Context, model.TaxonomyID, string, model.ContextHints) (model.Classification, error) {
	return model.Classification{Label: "dailyRecord", Confidence: 0.9}, nil
}

func (stubModel) Extract(context.Context, model.Slot, string, []*schema.Message) (model.Extraction, error) {
	return model.Extraction{Intent: model.ExtractAnswer, Value: "Jordan", Confidence: 0.9}, nil
}

func (stubModel) Generate(context.Context, model.GenerateRequest) (string, error) {
	return "got it", nil
}

func testServer() *Server {
	cfg := model.JournalConfig{
		DailyTurnsThreshold:        4,
		SummarySuggestionThreshold: 4,
		WeeklyCycleDays:            7,
		MinWeekdayRecords:          2,
		ContextTurns:               3,
		MaxSlotAttempts:            3,
		MinExtractionConfidence:    0.5,
	}
	orch := orchestrator.New(repo.NewMemoryStore(), stubModel{}, cfg)
	return NewServer(orch, core.Testing)
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatNewUserGetsOnboarding(t *testing.T) {
	h := testServer().Routes()

	rec := postChat(t, h, `{"userId":"u1","message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var reply orchestrator.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, model.HintOnboarding, reply.Hint)
	assert.NotEmpty(t, reply.Text)
}

func TestChatValidation(t *testing.T) {
	h := testServer().Routes()

	cases := []struct {
		name string
		body string
	}{
		{"missing user", `{"message":"hi"}`},
		{"missing message", `{"userId":"u1"}`},
		{"blank message", `{"userId":"u1","message":"   "}`},
		{"malformed json", `{"userId":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postChat(t, h, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestChatRejectsOversizedBody(t *testing.T) {
	h := testServer().Routes()
	big := strings.Repeat("a", maxMessageBytes+1)
	rec := postChat(t, h, `{"userId":"u1","message":"`+big+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatus(t *testing.T) {
	h := testServer().Routes()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "testing", resp.Environment)
}
