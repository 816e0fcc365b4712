package models

import (
	"encoding/json"
	"time"
)

// MatchMode selects the roster shape of an arena match
type MatchMode string

const (
	ModeDuel  MatchMode = "duel"  // 1 vs 1
	ModeSquad MatchMode = "squad" // 2 vs 2
)

// RosterSize returns the number of accepted participants needed to start
func (m MatchMode) RosterSize() int {
	if m == ModeSquad {
		return 4
	}
	return 2
}

// TeamCapacity returns the maximum participants per team
func (m MatchMode) TeamCapacity() int {
	return m.RosterSize() / 2
}

func (m MatchMode) Valid() bool {
	return m == ModeDuel || m == ModeSquad
}

// MatchStatus values. Transitions are monotone:
// pending → active → finished, or pending → cancelled.
type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchActive    MatchStatus = "active"
	MatchFinished  MatchStatus = "finished"
	MatchCancelled MatchStatus = "cancelled"
)

// WinnerDraw is stored in ArenaMatch.Winner when team totals tie
const WinnerDraw = "Draw"

// ArenaMatch is one head-to-head or squad knowledge contest.
//
// The stake is debited from each participant at accept/join time and held by
// the match until settlement. InviteExpiresAt bounds the pending-acceptance
// window; PlayExpiresAt is set on activation and bounds the play window (the
// two deadlines are deliberately separate fields).
type ArenaMatch struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	Code       string    `gorm:"index;not null" json:"code"` // human-readable room code
	Mode       MatchMode `gorm:"type:varchar(8);not null" json:"mode"`
	Difficulty string    `gorm:"type:varchar(32);not null;index" json:"difficulty"`
	Stake      int64     `gorm:"not null;default:0" json:"stake"` // points per participant

	Status    MatchStatus `gorm:"type:varchar(12);not null;index" json:"status"`
	CreatedBy string      `gorm:"index;not null" json:"created_by"`

	InviteExpiresAt time.Time  `gorm:"not null" json:"invite_expires_at"`
	PlayExpiresAt   *time.Time `json:"play_expires_at,omitempty"`

	// Winner is a team tag ("A"/"B") for squad, a player identity for duel,
	// or "Draw". Set together with SettlementLog iff Status is finished.
	Winner        string `gorm:"type:varchar(64)" json:"winner,omitempty"`
	SettlementLog string `gorm:"type:text" json:"settlement_log,omitempty"`

	Participants []ArenaParticipant `gorm:"foreignKey:MatchID" json:"participants,omitempty"`

	Timestamps
}

// SettlementRecord is the structured summary stored in ArenaMatch.SettlementLog
type SettlementRecord struct {
	Winner     string `json:"winner"`      // team tag, player identity, or "Draw"
	WinnerName string `json:"winner_name"` // representative player for display
	Score      string `json:"score"`       // team totals "A-B", e.g. "3-2"
	Reason     string `json:"reason"`      // "submitted" or "expired"
	Time       string `json:"time"`        // RFC3339
}

const (
	SettleReasonSubmitted = "submitted"
	SettleReasonExpired   = "expired"
)

func (r SettlementRecord) Marshal() string {
	b, _ := json.Marshal(r)
	return string(b)
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
