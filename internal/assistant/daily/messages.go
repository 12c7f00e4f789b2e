package daily

import "fmt"

const (
	summarySuggestion = "We've covered a good amount today. Shall I put together a summary of today's record?"

	noRecordToday = "There's nothing recorded for today yet. Tell me what you worked on and I'll start today's entry."

	keepAsIs = "Great, I'll keep it as it is. See you tomorrow!"

	goodbye = "Thanks for sharing today. Your record is saved. See you next time!"

	rejectionAck = "No problem at all. I'm here whenever you feel like jotting something down."

	restartPrompt = "Fresh start. So, what did you work on today?"

	weeklyNoRecord = "I couldn't find any records for this week yet, so there's nothing to roll up. Let's start with today!"

	weeklyRestDayOnly = "The weekly look-back opens on rest days. For now, let's keep recording. What did you work on today?"

	weeklyAlreadyDone = "This week's look-back is already done. We'll do the next one when the new cycle wraps up."
)

func endBelowThreshold(have, need int) string {
	return fmt.Sprintf(
		"Hold on, today's attendance isn't checked off yet (%d/%d turns). A few more exchanges and the day will count. Sure you want to stop here?",
		have, need)
}

func weeklyTooFewDays(have, need int) string {
	return fmt.Sprintf(
		"You have %d recorded weekday(s) so far. Once you reach %d, I can put a weekly look-back together.",
		have, need)
}

func weeklyFlagSuggestion() string {
	return "By the way, you've completed a full week of records. Want me to put together a weekly look-back?"
}
