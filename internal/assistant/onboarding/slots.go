// Package onboarding implements the slot-filling state machine that collects
// the nine profile fields. The text model only extracts; questions, attempt
// escalation and validation are owned by the system.
package onboarding

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/careerlog/server/internal/assistant/model"
)

// questions holds the three escalation tiers for one slot: plain question,
// question with a hint, question with examples and the skip option.
type questions struct {
	first  string
	second string
	third  string
}

type slotTemplate struct {
	ask      questions
	validate func(string) bool
}

func validateText(v string) bool {
	return len(strings.TrimSpace(v)) >= 1
}

func allDigits(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func validateName(v string) bool {
	v = strings.TrimSpace(v)
	return len(v) >= 1 && !allDigits(v)
}

func validateYears(v string) bool {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, model.EntryLevelToken) {
		return true
	}
	return strings.ContainsFunc(v, unicode.IsDigit)
}

func minLen(n int) func(string) bool {
	return func(v string) bool {
		return len(strings.TrimSpace(v)) >= n
	}
}

var slotTemplates = map[model.Slot]slotTemplate{
	model.SlotName: {
		ask: questions{
			first:  "First, what should I call you? A nickname is fine.\nFor example: 'Jamie', 'Min', 'Alex'",
			second: "I'd love a name to call you by — it doesn't have to be your real one. What works?",
			third:  "Any name you're comfortable with is fine.\nFor example: 'Jamie', 'Min', 'Alex'\n\nTip: say 'skip' to move on.",
		},
		validate: validateName,
	},
	model.SlotJobTitle: {
		ask: questions{
			first:  "Nice to meet you, {name}! What do you do these days? Your role or title.\nFor example: 'backend engineer', 'UX designer', 'product manager'",
			second: "Could you be a bit more specific about your role?\nFor example: 'backend engineer', 'UX designer', 'product manager'",
			third:  "{name}, try typing it like one of these:\n'backend engineer', 'UX designer', 'product manager'\nTip: say 'skip' to move on.",
		},
		validate: func(v string) bool { return len(strings.TrimSpace(v)) >= 2 && !allDigits(strings.TrimSpace(v)) },
	},
	model.SlotTotalYears: {
		ask: questions{
			first:  "{name}, how many years of professional experience do you have in total?\nFor example: '5 years', '18 months', 'entry-level'",
			second: "How much total experience do you have?\nFor example: '5 years', '18 months', 'entry-level'",
			third:  "{name}, try one of these formats:\n'5 years', '18 months', 'entry-level'\nTip: say 'skip' to move on.",
		},
		validate: validateYears,
	},
	model.SlotJobYears: {
		ask: questions{
			first:  "And how long have you been in your current role, {name}? (Career changers welcome.)\nFor example: '2 years', '6 months', 'entry-level'",
			second: "How long in this particular role?\nFor example: '2 years', '6 months', 'entry-level'",
			third:  "{name}, try one of these formats for your current role:\n'2 years', '6 months', 'entry-level'\nTip: say 'skip' to move on.",
		},
		validate: validateYears,
	},
	model.SlotCareerGoal: {
		ask: questions{
			first:  "Where would you like your career to go, {name}? Share a goal or direction in your own words.\nFor example: 'grow into a senior engineer', 'build my own product'",
			second: "Could you make your career goal a little more concrete?\nFor example: 'grow into a senior engineer', 'build my own product'",
			third:  "Even a rough direction helps, {name}:\n- deepen my expertise\n- lead a team\n- try many different things\nTip: say 'skip' to move on.",
		},
		validate: validateText,
	},
	model.SlotProjectName: {
		ask: questions{
			first:  "Now about your work, {name} — what project or main piece of work are you on right now?\nFor example: 'commerce app redesign', 'new marketing campaign'",
			second: "What's the name or a one-line description of your current project?",
			third:  "One line about your current work is plenty, {name}.\nFor example: 'commerce app redesign', 'internal tooling cleanup'\nTip: say 'skip' to move on.",
		},
		validate: minLen(3),
	},
	model.SlotRecentWork: {
		ask: questions{
			first:  "What's a recent piece of work that stuck with you, {name}? Tell me a bit about it.\nFor example:\n- something new you tried\n- a hard problem you solved\n- a team effort that landed",
			second: "Any recent work experience that left an impression? Wins and struggles both count.",
			third:  "A short note on recent work is fine, {name}:\n- shipped a new feature\n- fixed a gnarly bug\n- hit a team goal\nTip: say 'skip' to move on.",
		},
		validate: validateText,
	},
	model.SlotJobMeaning: {
		ask: questions{
			first:  "What does this work mean to you, {name}? Why do you do it?\nFor example:\n- I love growing\n- solving problems is fun\n- it pays the bills\n- honestly, still figuring it out",
			second: "What keeps you doing this work, {name}? An honest answer is the best answer.",
			third:  "A few words on what the work means to you:\n- growth\n- fun of problem-solving\n- making a living\n- not sure yet\nTip: say 'skip' to move on.",
		},
		validate: validateText,
	},
	model.SlotImportantThing: {
		ask: questions{
			first:  "Last question, {name}! What do you value most at work?\nFor example: 'growth and learning', 'work-life balance', 'good teammates', 'autonomy'",
			second: "In one or two words, {name} — what matters most to you at work?\nFor example: 'growth', 'balance', 'teammates', 'autonomy'",
			third:  "Pick one or say it your own way:\n'growth and learning', 'work-life balance', 'good teammates', 'autonomy'\nTip: say 'skip' to move on.",
		},
		validate: validateText,
	},
}

// question returns the tier question for the slot with {name} substituted.
// Tiers above three reuse the final escalation.
func question(slot model.Slot, tier int, name string) string {
	t, ok := slotTemplates[slot]
	if !ok {
		return ""
	}
	var q string
	switch {
	case tier <= 1:
		q = t.ask.first
	case tier == 2:
		q = t.ask.second
	default:
		q = t.ask.third
	}
	if name != "" {
		return strings.ReplaceAll(q, "{name}", name)
	}
	// drop the personalisation when the name is not yet known
	q = strings.ReplaceAll(q, ", {name}", "")
	q = strings.ReplaceAll(q, "{name}, ", "")
	return strings.ReplaceAll(q, "{name}", "you")
}

// validate applies the slot-specific rule.
func validate(slot model.Slot, value string) bool {
	t, ok := slotTemplates[slot]
	if !ok {
		return validateText(value)
	}
	return t.validate(value)
}

// progressLine shows how far through the nine questions the user is.
func progressLine(p *model.Profile) string {
	resolved := 0
	for _, s := range model.SlotOrder {
		if p.SlotStatus(s).Resolved() {
			resolved++
		}
	}
	return fmt.Sprintf("[Profile setup %d/%d]", resolved, len(model.SlotOrder))
}

func welcomeMessage() string {
	return "Hi, and welcome! I'm your career journaling companion — together we'll " +
		"record what you do at work and look back on it. Before we start, let me " +
		"ask you a few quick questions."
}

func completionMessage(name string) string {
	if name != "" {
		return fmt.Sprintf("All set, %s! 🎉\nFrom now on, just tell me about your day and "+
			"I'll help you keep a record. Whenever you're ready, what did you work on today?", name)
	}
	return "All set! 🎉\nFrom now on, just tell me about your day and I'll help you " +
		"keep a record. Whenever you're ready, what did you work on today?"
}
