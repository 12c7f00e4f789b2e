// Package prompts renders the embedded system prompt templates through the
// eino prompt component, so formatting failures surface as errors instead of
// malformed prompts.
package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/careerlog/server/internal/assistant/model"
)

//go:embed template/service_intent_prompt.txt
var serviceIntentPrompt string

//go:embed template/daily_intent_prompt.txt
var dailyIntentPrompt string

//go:embed template/extraction_prompt.txt
var extractionPrompt string

//go:embed template/daily_followup_prompt.txt
var dailyFollowUpPrompt string

//go:embed template/daily_summary_prompt.txt
var dailySummaryPrompt string

//go:embed template/weekly_summary_prompt.txt
var weeklySummaryPrompt string

// slotDescriptions tell the extraction model what each field means.
var slotDescriptions = map[model.Slot]string{
	model.SlotName:           "what the user wants to be called; a nickname is fine, pure numbers are not",
	model.SlotJobTitle:       "the user's current role or job title, e.g. 'backend engineer', 'UX designer'",
	model.SlotTotalYears:     "total professional experience, e.g. '5 years', '18 months', or entry-level",
	model.SlotJobYears:       "experience in the current role specifically, e.g. '2 years', or entry-level",
	model.SlotCareerGoal:     "where the user wants their career to go; a direction or ambition in their words",
	model.SlotProjectName:    "the project or main piece of work the user is currently on",
	model.SlotRecentWork:     "a recent piece of work the user found memorable or meaningful",
	model.SlotJobMeaning:     "what the work means to the user; their motivation for doing it",
	model.SlotImportantThing: "the value the user cares most about at work, e.g. growth, autonomy, balance",
}

// SlotDescription returns the extraction hint for a slot.
func SlotDescription(s model.Slot) string {
	return slotDescriptions[s]
}

func render(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(tmpl),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderServiceIntent renders the top-level taxonomy prompt. The pending
// weekly flag selects the variant that disambiguates bare acknowledgements.
func RenderServiceIntent(ctx context.Context, hints model.ContextHints) (string, error) {
	return render(ctx, serviceIntentPrompt, map[string]any{
		"WeeklyFlagPending": hints.WeeklyFlagPending,
	})
}

// RenderDailyIntent renders the daily sub-taxonomy prompt.
func RenderDailyIntent(ctx context.Context, hints model.ContextHints) (string, error) {
	return render(ctx, dailyIntentPrompt, map[string]any{
		"PrevAssistant":     hints.PrevAssistant,
		"SummaryShownToday": hints.SummaryShownToday,
	})
}

// RenderExtraction renders the slot extraction prompt.
func RenderExtraction(ctx context.Context, slot model.Slot) (string, error) {
	return render(ctx, extractionPrompt, map[string]any{
		"Field":       string(slot),
		"Description": SlotDescription(slot),
		"YearsFields": fmt.Sprintf("%s, %s", model.SlotTotalYears, model.SlotJobYears),
	})
}

func orUnknown(v string) string {
	if v == "" {
		return "not provided"
	}
	return v
}

// RenderDailyFollowUp renders the follow-up question system prompt from the
// collected profile.
func RenderDailyFollowUp(ctx context.Context, p *model.Profile) (string, error) {
	return render(ctx, dailyFollowUpPrompt, map[string]any{
		"Name":        orUnknown(p.Slots[model.SlotName]),
		"JobTitle":    orUnknown(p.Slots[model.SlotJobTitle]),
		"TotalYears":  orUnknown(p.Slots[model.SlotTotalYears]),
		"JobYears":    orUnknown(p.Slots[model.SlotJobYears]),
		"CareerGoal":  orUnknown(p.Slots[model.SlotCareerGoal]),
		"ProjectName": orUnknown(p.Slots[model.SlotProjectName]),
		"RecentWork":  orUnknown(p.Slots[model.SlotRecentWork]),
	})
}

// RenderDailySummary renders the end-of-day summary prompt. correction is the
// user's edit request text, empty for a fresh summary.
func RenderDailySummary(ctx context.Context, p *model.Profile, conversation, correction string) (string, error) {
	return render(ctx, dailySummaryPrompt, map[string]any{
		"Name":         orUnknown(p.Slots[model.SlotName]),
		"JobTitle":     orUnknown(p.Slots[model.SlotJobTitle]),
		"CareerGoal":   orUnknown(p.Slots[model.SlotCareerGoal]),
		"ProjectName":  orUnknown(p.Slots[model.SlotProjectName]),
		"Conversation": conversation,
		"Correction":   correction,
	})
}

// RenderWeeklyRollup renders the rollup prompt. partial marks the mid-cycle
// advisory variant labeled with the day position.
func RenderWeeklyRollup(ctx context.Context, p *model.Profile, entries string, partial bool, dayInCycle, cycleDays int) (string, error) {
	return render(ctx, weeklySummaryPrompt, map[string]any{
		"Name":       orUnknown(p.Slots[model.SlotName]),
		"JobTitle":   orUnknown(p.Slots[model.SlotJobTitle]),
		"CareerGoal": orUnknown(p.Slots[model.SlotCareerGoal]),
		"Entries":    entries,
		"Partial":    partial,
		"DayInCycle": dayInCycle,
		"CycleDays":  cycleDays,
	})
}
