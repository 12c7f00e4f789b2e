package weekly

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlog/server/internal/assistant/model"
	"github.com/careerlog/server/internal/assistant/repo"
)

type stubModel struct {
	lastSystem string
	generate   func(req model.GenerateRequest) (string, error)
}

func (s *stubModel) Classify(context.Context, model.TaxonomyID, string, model.ContextHints) (model.Classification, error) {
	return model.Classification{}, errors.New("not implemented")
}

func (s *stubModel) Extract(context.Context, model.Slot, string, []*schema.Message) (model.Extraction, error) {
	return model.Extraction{}, errors.New("not implemented")
}

func (s *stubModel) Generate(_ context.Context, req model.GenerateRequest) (string, error) {
	s.lastSystem = req.System
	if s.generate == nil {
		return "weekly rollup text", nil
	}
	return s.generate(req)
}

func testConfig() model.JournalConfig {
	return model.JournalConfig{
		DailyTurnsThreshold: 4,
		WeeklyCycleDays:     7,
		MinWeekdayRecords:   2,
	}
}

var testNow = time.Date(2025, 3, 16, 20, 0, 0, 0, time.UTC)

func seedDailySummaries(t *testing.T, store *repo.MemoryStore, uid model.UserID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.AppendTurn(context.Background(), uid, model.Turn{
			UserMessage: "summary please",
			AIMessage:   "day summary",
			Timestamp:   testNow.AddDate(0, 0, i-n),
			IsSummary:   true,
			SummaryType: model.SummaryDaily,
		})
		require.NoError(t, err)
	}
}

func TestMaybeSetRaisesFlagOnFullCycle(t *testing.T) {
	g := NewGate(&stubModel{}, repo.NewMemoryStore(), testConfig())
	p := model.NewProfile("u1", testNow)
	p.AttendanceCount = 7
	p.DailyRecordCount = 4
	s := model.NewSessionState()

	require.True(t, g.MaybeSet(p, s))
	assert.True(t, s.Weekly.Ready)
	assert.Equal(t, 7, s.Weekly.AttendanceAtFlag)

	assert.False(t, g.MaybeSet(p, s), "an already pending flag is not raised twice")
}

func TestMaybeSetConditions(t *testing.T) {
	g := NewGate(&stubModel{}, repo.NewMemoryStore(), testConfig())

	cases := []struct {
		name       string
		attendance int
		dailyCount int
		completed  int
		want       bool
	}{
		{"zero attendance", 0, 4, 0, false},
		{"mid cycle", 5, 4, 0, false},
		{"day below threshold", 7, 3, 0, false},
		{"cycle already consumed", 7, 4, 1, false},
		{"second cycle", 14, 4, 1, true},
		{"full cycle", 7, 4, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := model.NewProfile("u1", testNow)
			p.AttendanceCount = tc.attendance
			p.DailyRecordCount = tc.dailyCount
			s := model.NewSessionState()
			s.Weekly.CompletedCycle = tc.completed
			assert.Equal(t, tc.want, g.MaybeSet(p, s))
		})
	}
}

func TestHandleAcceptGeneratesAndConsumesCycle(t *testing.T) {
	store := repo.NewMemoryStore()
	tm := &stubModel{}
	g := NewGate(tm, store, testConfig())
	p := model.NewProfile("u1", testNow)
	p.Stage = model.StageCompleted
	p.AttendanceCount = 7
	s := model.NewSessionState()
	s.Weekly.Ready = true
	s.Weekly.AttendanceAtFlag = 7
	seedDailySummaries(t, store, p.UserID, 7)

	res, err := g.HandleAccept(context.Background(), p, s, "yes please", testNow)
	require.NoError(t, err)

	assert.Equal(t, "weekly rollup text", res.Response)
	assert.False(t, s.Weekly.Ready)
	assert.Equal(t, 1, s.Weekly.CompletedCycle)
	assert.Equal(t, model.StepWeeklyCompleted, s.CurrentStep)
	assert.Equal(t, model.SummaryWeekly, res.Turn.SummaryType)
	assert.Contains(t, tm.lastSystem, "day summary")
}

func TestHandleAcceptWithoutEntriesRefuses(t *testing.T) {
	g := NewGate(&stubModel{}, repo.NewMemoryStore(), testConfig())
	p := model.NewProfile("u1", testNow)
	s := model.NewSessionState()
	s.Weekly.Ready = true
	s.Weekly.AttendanceAtFlag = 7

	res, err := g.HandleAccept(context.Background(), p, s, "yes", testNow)
	require.NoError(t, err)
	assert.Equal(t, noEntries, res.Response)
	assert.True(t, s.Weekly.Ready, "a refusal does not consume the flag")
}

func TestHandleRejectConsumesCycleWithoutGenerating(t *testing.T) {
	g := NewGate(&stubModel{generate: func(model.GenerateRequest) (string, error) {
		return "", errors.New("must not be called")
	}}, repo.NewMemoryStore(), testConfig())
	p := model.NewProfile("u1", testNow)
	p.AttendanceCount = 7
	s := model.NewSessionState()
	s.Weekly.Ready = true
	s.Weekly.AttendanceAtFlag = 7

	res := g.HandleReject(p, s, "not now", testNow)

	assert.Equal(t, rejectionAck, res.Response)
	assert.False(t, s.Weekly.Ready)
	assert.Equal(t, 1, s.Weekly.CompletedCycle, "a declined cycle is not re-suggested")
	assert.Equal(t, model.StepWeeklyRejected, s.CurrentStep)

	assert.False(t, g.MaybeSet(p, s))
}

func TestHandleManualMidCycleIsPartial(t *testing.T) {
	store := repo.NewMemoryStore()
	g := NewGate(&stubModel{}, store, testConfig())
	p := model.NewProfile("u1", testNow)
	p.Stage = model.StageCompleted
	p.AttendanceCount = 3
	s := model.NewSessionState()
	s.CurrentStep = model.StepDailyRecording
	seedDailySummaries(t, store, p.UserID, 3)

	res, err := g.HandleManual(context.Background(), p, s, "how was my week?", testNow)
	require.NoError(t, err)

	assert.Equal(t, model.SummaryWeeklyPartial, res.Turn.SummaryType)
	assert.Zero(t, s.Weekly.CompletedCycle, "a partial look does not consume the cycle")
	assert.Equal(t, model.StepDailyRecording, s.CurrentStep)
}

func TestHandleManualWithoutAttendanceRefuses(t *testing.T) {
	store := repo.NewMemoryStore()
	tm := &stubModel{}
	g := NewGate(tm, store, testConfig())
	p := model.NewProfile("u1", testNow)
	p.Stage = model.StageCompleted
	s := model.NewSessionState()
	seedDailySummaries(t, store, p.UserID, 2)

	res, err := g.HandleManual(context.Background(), p, s, "how was my week?", testNow)
	require.NoError(t, err)

	assert.Equal(t, noEntries, res.Response)
	assert.False(t, res.Turn.IsSummary)
	assert.Empty(t, tm.lastSystem, "no rollup is generated without a checked-off day")
}

func TestHandleManualFullCycleConsumes(t *testing.T) {
	store := repo.NewMemoryStore()
	g := NewGate(&stubModel{}, store, testConfig())
	p := model.NewProfile("u1", testNow)
	p.Stage = model.StageCompleted
	p.AttendanceCount = 14
	s := model.NewSessionState()
	s.Weekly.CompletedCycle = 1
	seedDailySummaries(t, store, p.UserID, 7)

	res, err := g.HandleManual(context.Background(), p, s, "weekly summary please", testNow)
	require.NoError(t, err)

	assert.Equal(t, model.SummaryWeekly, res.Turn.SummaryType)
	assert.Equal(t, 2, s.Weekly.CompletedCycle)
	assert.Equal(t, model.StepWeeklyCompleted, s.CurrentStep)
}

func TestCycle(t *testing.T) {
	g := NewGate(&stubModel{}, repo.NewMemoryStore(), testConfig())
	assert.Zero(t, g.Cycle(0))
	assert.Equal(t, 1, g.Cycle(1))
	assert.Equal(t, 1, g.Cycle(7))
	assert.Equal(t, 2, g.Cycle(8))
	assert.Equal(t, 2, g.Cycle(14))
}
