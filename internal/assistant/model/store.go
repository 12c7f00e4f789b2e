package model

import "context"

// ProfileStore persists the long-lived per-user Profile record.
type ProfileStore interface {
	// GetProfile returns nil (no error) for an unknown user.
	GetProfile(ctx context.Context, uid UserID) (*Profile, error)
	UpsertProfile(ctx context.Context, uid UserID, profile *Profile) error
}

// SessionStore persists the ephemeral SessionState record.
type SessionStore interface {
	// GetSession returns nil (no error) when no session exists.
	GetSession(ctx context.Context, uid UserID) (*SessionState, error)
	UpsertSession(ctx context.Context, uid UserID, session *SessionState) error
	DeleteSession(ctx context.Context, uid UserID) error
}

// TurnStore is the append-only conversation log.
type TurnStore interface {
	// AppendTurn stores the turn under its date and returns the generated id.
	AppendTurn(ctx context.Context, uid UserID, turn Turn) (string, error)
	// TurnsForDate returns up to limit turns recorded on the given ISO date,
	// oldest first.
	TurnsForDate(ctx context.Context, uid UserID, date string, limit int) ([]Turn, error)
	// RecentTurns returns up to limit of the latest turns across dates,
	// oldest first.
	RecentTurns(ctx context.Context, uid UserID, limit int) ([]Turn, error)
	// HasTurnsOnDate reports whether any turn was recorded on the ISO date.
	HasTurnsOnDate(ctx context.Context, uid UserID, date string) (bool, error)
}

// Store bundles the three record kinds plus the atomic commit of one
// message's buffered mutations.
type Store interface {
	ProfileStore
	SessionStore
	TurnStore

	// Commit writes the profile, session and optional turn in one shot so a
	// handler's mutations land together or not at all. A nil session deletes
	// the session record.
	Commit(ctx context.Context, uid UserID, profile *Profile, session *SessionState, turn *Turn) error
}
