package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerlog/server/internal/assistant/model"
	"github.com/careerlog/server/internal/assistant/repo"
)

type stubModel struct {
	mu      sync.Mutex
	service string
	daily   string
	extract model.Extraction
	reply   string
}

func (s *stubModel) Classify(_ context.Context, taxonomy model.TaxonomyID, _ string, _ model.ContextHints) (model.Classification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if taxonomy == model.TaxonomyService {
		return model.Classification{Label: s.service, Confidence: 0.9}, nil
	}
	return model.Classification{Label: s.daily, Confidence: 0.9}, nil
}

func (s *stubModel) Extract(context.Context, model.Slot, string, []*schema.Message) (model.Extraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extract, nil
}

func (s *stubModel) Generate(context.Context, model.GenerateRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reply == "" {
		return "generated reply", nil
	}
	return s.reply, nil
}

func testConfig() model.JournalConfig {
	return model.JournalConfig{
		DailyTurnsThreshold:        4,
		SummarySuggestionThreshold: 4,
		WeeklyCycleDays:            7,
		MinWeekdayRecords:          2,
		ContextTurns:               3,
		MaxSlotAttempts:            3,
		MinExtractionConfidence:    0.5,
	}
}

var testNow = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

func newOrchestrator(store model.Store, tm model.TextModel) *Orchestrator {
	o := New(store, tm, testConfig())
	o.now = func() time.Time { return testNow }
	return o
}

func seedUser(t *testing.T, store model.Store, p *model.Profile, s *model.SessionState) {
	t.Helper()
	require.NoError(t, store.UpsertProfile(context.Background(), p.UserID, p))
	require.NoError(t, store.UpsertSession(context.Background(), p.UserID, s))
}

func completedProfile(uid model.UserID) *model.Profile {
	p := model.NewProfile(uid, testNow)
	p.Stage = model.StageCompleted
	p.LastRecordDate = model.DateKey(testNow)
	for _, slot := range model.SlotOrder {
		p.Slots[slot] = "x"
		p.SlotStatuses[slot] = model.SlotFilled
	}
	p.Slots[model.SlotName] = "Jordan"
	return p
}

// Scenario: a brand new user is greeted and asked the first question without
// consuming an attempt.
func TestNewUserIsOnboarded(t *testing.T) {
	store := repo.NewMemoryStore()
	o := newOrchestrator(store, &stubModel{})

	reply := o.HandleMessage(context.Background(), "newbie", "hello?")

	assert.Equal(t, model.HintOnboarding, reply.Hint)
	assert.Contains(t, reply.Text, "[Profile setup 0/9]")

	p, err := store.GetProfile(context.Background(), "newbie")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, model.StageCollectingBasic, p.Stage)
	assert.Zero(t, p.SlotAttempts[model.SlotName])
}

// Scenario: the message that brings the day to the threshold credits
// attendance exactly once.
func TestThresholdMessageCreditsAttendance(t *testing.T) {
	store := repo.NewMemoryStore()
	tm := &stubModel{service: "dailyRecord", daily: "continue"}
	o := newOrchestrator(store, tm)

	p := completedProfile("u1")
	p.DailyRecordCount = 3
	s := model.NewSessionState()
	s.CurrentStep = model.StepDailyRecording
	seedUser(t, store, p, s)

	reply := o.HandleMessage(context.Background(), "u1", "also reviewed two PRs")
	assert.Equal(t, model.HintDailyRecord, reply.Hint)

	got, err := store.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.DailyRecordCount)
	assert.Equal(t, 1, got.AttendanceCount)
}

// Scenario: a daily summary on the seventh attended day raises the weekly
// flag and appends the suggestion.
func TestSummaryOnFullCycleSuggestsRollup(t *testing.T) {
	store := repo.NewMemoryStore()
	tm := &stubModel{service: "dailyRecord", daily: "summary"}
	o := newOrchestrator(store, tm)

	p := completedProfile("u1")
	p.AttendanceCount = 7
	p.DailyRecordCount = 4
	s := model.NewSessionState()
	s.CurrentStep = model.StepDailyRecording
	seedUser(t, store, p, s)
	_, err := store.AppendTurn(context.Background(), "u1", model.Turn{
		UserMessage: "finished the rollout",
		AIMessage:   "nice, any surprises?",
		Timestamp:   testNow,
		ValidTurn:   true,
	})
	require.NoError(t, err)

	reply := o.HandleMessage(context.Background(), "u1", "summarize my day")

	assert.Equal(t, model.HintWeeklyFeedback, reply.Hint)
	assert.Contains(t, reply.Text, "weekly look-back")

	got, err := store.GetSession(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, got.Weekly.Ready)
	assert.Equal(t, model.StepWeeklySummaryPending, got.CurrentStep)
}

// Scenario: accepting right after the suggestion produces the rollup and
// clears the flag.
func TestAcceptanceAfterSuggestionRunsRollup(t *testing.T) {
	store := repo.NewMemoryStore()
	tm := &stubModel{service: "weeklyAcceptance", reply: "your week in review"}
	o := newOrchestrator(store, tm)

	p := completedProfile("u1")
	p.AttendanceCount = 7
	p.DailyRecordCount = 4
	s := model.NewSessionState()
	s.CurrentStep = model.StepWeeklySummaryPending
	s.Weekly.Ready = true
	s.Weekly.AttendanceAtFlag = 7
	seedUser(t, store, p, s)
	_, err := store.AppendTurn(context.Background(), "u1", model.Turn{
		UserMessage: "summary please",
		AIMessage:   "today you shipped the rollout",
		Timestamp:   testNow,
		IsSummary:   true,
		SummaryType: model.SummaryDaily,
	})
	require.NoError(t, err)

	reply := o.HandleMessage(context.Background(), "u1", "yes")

	assert.Equal(t, "your week in review", reply.Text)

	got, err := store.GetSession(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, got.Weekly.Ready)
	assert.Equal(t, 1, got.Weekly.CompletedCycle)
	assert.Equal(t, model.StepWeeklyCompleted, got.CurrentStep)
}

// Scenario: an edit request without a summary in the session is treated as
// more journaling.
func TestEditWithoutSummaryDowngradesToContinue(t *testing.T) {
	store := repo.NewMemoryStore()
	tm := &stubModel{service: "dailyRecord", daily: "editSummary"}
	o := newOrchestrator(store, tm)

	p := completedProfile("u1")
	s := model.NewSessionState()
	s.CurrentStep = model.StepDailyRecording
	seedUser(t, store, p, s)

	o.HandleMessage(context.Background(), "u1", "could you change the wording?")

	got, err := store.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.DailyRecordCount, "the downgraded message counts as a record turn")
}

func TestConcurrentMessagesAreSerialized(t *testing.T) {
	store := repo.NewMemoryStore()
	tm := &stubModel{service: "dailyRecord", daily: "continue"}
	o := newOrchestrator(store, tm)

	p := completedProfile("u1")
	s := model.NewSessionState()
	s.CurrentStep = model.StepDailyRecording
	seedUser(t, store, p, s)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.HandleMessage(context.Background(), "u1", "another thing I did")
		}()
	}
	wg.Wait()

	got, err := store.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, n, got.DailyRecordCount)
	assert.Equal(t, 1, got.AttendanceCount, "the threshold crossing is counted once")
}

type failingStore struct {
	*repo.MemoryStore
}

func (f *failingStore) Commit(context.Context, model.UserID, *model.Profile, *model.SessionState, *model.Turn) error {
	return errors.New("connection refused")
}

func TestStoreFailureYieldsApology(t *testing.T) {
	store := &failingStore{MemoryStore: repo.NewMemoryStore()}
	tm := &stubModel{service: "dailyRecord", daily: "continue"}
	o := newOrchestrator(store, tm)

	p := completedProfile("u1")
	p.DailyRecordCount = 2
	seedUser(t, store.MemoryStore, p, model.NewSessionState())

	reply := o.HandleMessage(context.Background(), "u1", "today I wrote docs")
	assert.Equal(t, apologyGeneric, reply.Text)

	got, err := store.MemoryStore.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.DailyRecordCount, "a failed message leaves no partial state")
}

func TestDateRolloverResetsDailyCount(t *testing.T) {
	store := repo.NewMemoryStore()
	tm := &stubModel{service: "dailyRecord", daily: "continue"}
	o := newOrchestrator(store, tm)

	p := completedProfile("u1")
	p.LastRecordDate = "2025-03-09"
	p.DailyRecordCount = 4
	p.AttendanceCount = 1
	s := model.NewSessionState()
	s.CurrentStep = model.StepDailySummaryCompleted
	s.Daily.ConversationCount = 5
	seedUser(t, store, p, s)

	o.HandleMessage(context.Background(), "u1", "new day, new standup")

	got, err := store.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.DailyRecordCount)
	assert.Equal(t, 1, got.AttendanceCount)
	assert.Equal(t, "2025-03-10", got.LastRecordDate)

	gotS, err := store.GetSession(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StepDailyRecording, gotS.CurrentStep)
}

func TestUserLocksEvictIdleEntries(t *testing.T) {
	l := newUserLocks(2)
	for _, uid := range []model.UserID{"a", "b", "c", "d"} {
		unlock := l.lock(uid)
		unlock()
	}
	assert.LessOrEqual(t, l.tracked(), 2)

	// a held lock survives eviction pressure
	unlock := l.lock("held")
	for _, uid := range []model.UserID{"x", "y", "z"} {
		u := l.lock(uid)
		u()
	}
	assert.LessOrEqual(t, l.tracked(), 2)
	unlock()
}
