package model

// ServiceIntent is the top-level classification over an inbound message once
// onboarding has completed.
type ServiceIntent string

const (
	ServiceDailyRecord      ServiceIntent = "dailyRecord"
	ServiceWeeklyFeedback   ServiceIntent = "weeklyFeedback"
	ServiceWeeklyAcceptance ServiceIntent = "weeklyAcceptance"
	ServiceRejection        ServiceIntent = "rejection"
)

// ParseServiceIntent maps a classifier label onto the enum, defaulting to
// dailyRecord for anything unrecognized.
func ParseServiceIntent(label string) ServiceIntent {
	switch ServiceIntent(label) {
	case ServiceWeeklyFeedback, ServiceWeeklyAcceptance, ServiceRejection:
		return ServiceIntent(label)
	default:
		return ServiceDailyRecord
	}
}

// DailyIntent is the sub-intent within the daily phase. Beyond the classifier
// labels it includes the synthesized refusal intents the router produces when
// a manual weekly request fails its preconditions, and the no-record refusal.
type DailyIntent string

const (
	DailySummary         DailyIntent = "summary"
	DailyEditSummary     DailyIntent = "editSummary"
	DailyNoEditNeeded    DailyIntent = "noEditNeeded"
	DailyEndConversation DailyIntent = "endConversation"
	DailyRejection       DailyIntent = "rejection"
	DailyRestart         DailyIntent = "restart"
	DailyContinue        DailyIntent = "continue"

	// Synthesized by the router, never returned by the classifier.
	DailyNoRecordToday     DailyIntent = "noRecordToday"
	DailyWeeklyNoRecord    DailyIntent = "weeklyNoRecord"
	DailyWeeklyTooFewDays  DailyIntent = "weeklyTooFewDays"
	DailyWeeklyDone        DailyIntent = "weeklyAlreadyCompleted"
	DailyWeeklyRestDayOnly DailyIntent = "weeklyRestDayOnly"
)

// ParseDailyIntent maps a classifier label onto the enum, defaulting to
// continue for anything unrecognized.
func ParseDailyIntent(label string) DailyIntent {
	switch DailyIntent(label) {
	case DailySummary, DailyEditSummary, DailyNoEditNeeded,
		DailyEndConversation, DailyRejection, DailyRestart:
		return DailyIntent(label)
	default:
		return DailyContinue
	}
}

// Target names the handler a message is routed to.
type Target string

const (
	TargetOnboarding Target = "onboarding"
	TargetDaily      Target = "daily"
	TargetWeekly     Target = "weekly"
)

// WeeklyAction names the weekly handler path once a message targets the
// rollup.
type WeeklyAction string

const (
	WeeklyAccept WeeklyAction = "accept"
	WeeklyReject WeeklyAction = "reject"
	WeeklyManual WeeklyAction = "manual"
)

// Route is the router's decision. Daily is meaningful only for TargetDaily,
// Weekly only for TargetWeekly.
type Route struct {
	Target Target
	Daily  DailyIntent
	Weekly WeeklyAction
}

// UIHint tells the caller which rendering surface fits the response.
type UIHint string

const (
	HintOnboarding       UIHint = "onboarding"
	HintDailyRecord      UIHint = "dailyRecord"
	HintDailySummaryEdit UIHint = "dailySummaryEdit"
	HintWeeklyFeedback   UIHint = "weeklyFeedback"
)
