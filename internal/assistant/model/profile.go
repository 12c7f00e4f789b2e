package model

import "time"

// UserID identifies one account. All mutable state is scoped to a single UserID.
type UserID string

func (u UserID) String() string { return string(u) }

// Slot is one of the nine profile fields collected during onboarding.
type Slot string

const (
	SlotName           Slot = "name"
	SlotJobTitle       Slot = "jobTitle"
	SlotTotalYears     Slot = "totalYears"
	SlotJobYears       Slot = "jobYears"
	SlotCareerGoal     Slot = "careerGoal"
	SlotProjectName    Slot = "projectName"
	SlotRecentWork     Slot = "recentWork"
	SlotJobMeaning     Slot = "jobMeaning"
	SlotImportantThing Slot = "importantThing"
)

// SlotOrder is the fixed forward-only collection order.
var SlotOrder = []Slot{
	SlotName,
	SlotJobTitle,
	SlotTotalYears,
	SlotJobYears,
	SlotCareerGoal,
	SlotProjectName,
	SlotRecentWork,
	SlotJobMeaning,
	SlotImportantThing,
}

// SlotStatus tracks the lifecycle of a single slot.
type SlotStatus string

const (
	SlotUnset        SlotStatus = "unset"
	SlotFilled       SlotStatus = "filled"
	SlotInsufficient SlotStatus = "insufficient"
)

// Resolved reports whether the slot no longer needs collecting.
func (s SlotStatus) Resolved() bool {
	return s == SlotFilled || s == SlotInsufficient
}

// OnboardingStage is the coarse profile lifecycle.
type OnboardingStage string

const (
	StageNotStarted      OnboardingStage = "notStarted"
	StageCollectingBasic OnboardingStage = "collectingBasic"
	StageCompleted       OnboardingStage = "completed"
)

// EntryLevelToken is the literal value that, when extracted for totalYears,
// fills both year slots in one step.
const EntryLevelToken = "entry-level"

// Profile is the long-lived per-user record. Created on first contact, never
// deleted. Slots, attempts, status and stage are mutated only by the
// onboarding engine; the counters and date only by the daily controller.
type Profile struct {
	UserID UserID `json:"userId"`

	Slots        map[Slot]string     `json:"slots"`
	SlotAttempts map[Slot]int        `json:"slotAttempts"`
	SlotStatuses map[Slot]SlotStatus `json:"slotStatuses"`

	Stage OnboardingStage `json:"stage"`

	// AttendanceCount is the monotonically non-decreasing "day index": one
	// unit per day whose turn count crossed the daily threshold.
	AttendanceCount int `json:"attendanceCount"`
	// DailyRecordCount is the number of valid turns accumulated since the
	// last date rollover.
	DailyRecordCount int `json:"dailyRecordCount"`
	// LastRecordDate is the ISO date (2006-01-02) of the last processed
	// message, empty before first contact is recorded.
	LastRecordDate string `json:"lastRecordDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewProfile returns the record created on first contact.
func NewProfile(uid UserID, now time.Time) *Profile {
	return &Profile{
		UserID:       uid,
		Slots:        make(map[Slot]string),
		SlotAttempts: make(map[Slot]int),
		SlotStatuses: make(map[Slot]SlotStatus),
		Stage:        StageNotStarted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SlotStatus returns the status of the slot, defaulting to unset.
func (p *Profile) SlotStatus(s Slot) SlotStatus {
	if st, ok := p.SlotStatuses[s]; ok {
		return st
	}
	return SlotUnset
}

// NextUnsetSlot returns the first slot in collection order that still needs a
// value. ok is false when every slot is resolved.
func (p *Profile) NextUnsetSlot() (Slot, bool) {
	for _, s := range SlotOrder {
		if !p.SlotStatus(s).Resolved() {
			return s, true
		}
	}
	return "", false
}

// AllSlotsResolved reports whether onboarding can be finalized.
func (p *Profile) AllSlotsResolved() bool {
	_, ok := p.NextUnsetSlot()
	return !ok
}

// Name returns the collected display name, empty when not yet filled.
func (p *Profile) Name() string {
	if p.SlotStatus(SlotName) == SlotFilled {
		return p.Slots[SlotName]
	}
	return ""
}

// Clone returns a deep copy. Handlers mutate clones and the orchestrator
// commits them at the end of the message, so a store failure mid-handler
// never leaves partially applied state behind.
func (p *Profile) Clone() *Profile {
	cp := *p
	cp.Slots = make(map[Slot]string, len(p.Slots))
	for k, v := range p.Slots {
		cp.Slots[k] = v
	}
	cp.SlotAttempts = make(map[Slot]int, len(p.SlotAttempts))
	for k, v := range p.SlotAttempts {
		cp.SlotAttempts[k] = v
	}
	cp.SlotStatuses = make(map[Slot]SlotStatus, len(p.SlotStatuses))
	for k, v := range p.SlotStatuses {
		cp.SlotStatuses[k] = v
	}
	return &cp
}
