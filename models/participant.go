package models

import "time"

// TeamTag identifies a side of the match
type TeamTag string

const (
	TeamA TeamTag = "A"
	TeamB TeamTag = "B"
)

func (t TeamTag) Valid() bool {
	return t == TeamA || t == TeamB
}

// ParticipantStatus values.
// A participant's stake has been debited iff status is accepted or submitted;
// a pending participant (pre-targeted opponent) has not paid yet.
type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "pending"
	ParticipantAccepted  ParticipantStatus = "accepted"
	ParticipantSubmitted ParticipantStatus = "submitted"
)

// Paying reports whether this participant's stake is in escrow
func (s ParticipantStatus) Paying() bool {
	return s == ParticipantAccepted || s == ParticipantSubmitted
}

// ArenaParticipant is one player's seat in a match. Created at match creation
// (the creator, plus a pre-targeted duel opponent) or at accept/join time,
// never deleted.
type ArenaParticipant struct {
	ID       string            `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID  string            `gorm:"index;not null" json:"match_id"`
	PlayerID string            `gorm:"index;not null" json:"player_id"`
	Team     TeamTag           `gorm:"type:varchar(1);not null" json:"team"`
	Status   ParticipantStatus `gorm:"type:varchar(12);not null" json:"status"`

	Score       int64      `gorm:"not null;default:0" json:"score"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	Timestamps
}
