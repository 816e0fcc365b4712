package services

import (
	"errors"
	"log"
	"time"

	"quiz-arena-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Acceptance and play windows. The invite window starts at creation; the play
// window is reset at activation.
const (
	InviteWindow = 24 * time.Hour
	PlayWindow   = 24 * time.Hour
)

// ArenaService owns every match state transition except scoring-triggered
// settlement: create, accept, join, cancel.
type ArenaService struct {
	DB     *gorm.DB
	Wallet *WalletService
}

func NewArenaService(db *gorm.DB, wallet *WalletService) *ArenaService {
	return &ArenaService{DB: db, Wallet: wallet}
}

// CreateMatch opens a challenge. The creator's stake goes into escrow
// immediately; a targeted duel pre-creates the opponent's seat in status
// pending (no debit until they accept).
func (s *ArenaService) CreateMatch(creatorID string, mode models.MatchMode, difficulty string, stake int64, opponentID string) (*models.ArenaMatch, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	if stake < 0 {
		return nil, ErrInvalidStake
	}
	if opponentID == creatorID && opponentID != "" {
		return nil, ErrSelfChallenge
	}

	matchID := uuid.NewString()
	match := &models.ArenaMatch{
		ID:              matchID,
		Code:            slug.Make(creatorID) + "-" + matchID[:8],
		Mode:            mode,
		Difficulty:      difficulty,
		Stake:           stake,
		Status:          models.MatchPending,
		CreatedBy:       creatorID,
		InviteExpiresAt: time.Now().Add(InviteWindow),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Wallet.Debit(tx, creatorID, models.CurrencyPoints, stake); err != nil {
			return err
		}
		if err := tx.Create(match).Error; err != nil {
			return err
		}
		creator := models.ArenaParticipant{
			ID:       uuid.NewString(),
			MatchID:  match.ID,
			PlayerID: creatorID,
			Team:     models.TeamA,
			Status:   models.ParticipantAccepted,
		}
		if err := tx.Create(&creator).Error; err != nil {
			return err
		}
		if mode == models.ModeDuel && opponentID != "" {
			opponent := models.ArenaParticipant{
				ID:       uuid.NewString(),
				MatchID:  match.ID,
				PlayerID: opponentID,
				Team:     models.TeamB,
				Status:   models.ParticipantPending,
			}
			if err := tx.Create(&opponent).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("⚔️ match %s created by %s (mode=%s stake=%d)", match.ID, creatorID, mode, stake)
	return match, nil
}

// AcceptMatch takes the open seat of a pending challenge (or the pre-created
// targeted seat), debits the stake and activates the match once the roster is
// full. A targeted challenge is only acceptable by its invitee; re-accepting
// an active match you already belong to succeeds, so a double-clicked invite
// does not error.
func (s *ArenaService) AcceptMatch(matchID, playerID string) (models.MatchStatus, error) {
	var finalStatus models.MatchStatus
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var match models.ArenaMatch
		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if match.Status == models.MatchActive {
			var p models.ArenaParticipant
			err := tx.Where("match_id = ? AND player_id = ?", matchID, playerID).First(&p).Error
			if err == nil && p.Status.Paying() {
				finalStatus = models.MatchActive
				return nil // re-join after duplicate click
			}
			return ErrAlreadyResolved
		}
		if match.Status != models.MatchPending {
			return ErrAlreadyResolved
		}
		if match.CreatedBy == playerID {
			return ErrSelfChallenge
		}

		var paying int64
		if err := tx.Model(&models.ArenaParticipant{}).
			Where("match_id = ? AND status IN ?", matchID,
				[]models.ParticipantStatus{models.ParticipantAccepted, models.ParticipantSubmitted}).
			Count(&paying).Error; err != nil {
			return err
		}
		if int(paying) >= match.Mode.RosterSize() {
			return ErrMatchFull
		}

		var p models.ArenaParticipant
		err := tx.Where("match_id = ? AND player_id = ?", matchID, playerID).First(&p).Error
		hasSeat := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if !hasSeat {
			// A targeted challenge pre-creates every seat. A walk-in only
			// fits when the roster still has an unclaimed slot.
			var seats int64
			if err := tx.Model(&models.ArenaParticipant{}).
				Where("match_id = ?", matchID).
				Count(&seats).Error; err != nil {
				return err
			}
			if int(seats) >= match.Mode.RosterSize() {
				return ErrMatchFull
			}
		}

		if err := s.Wallet.Debit(tx, playerID, models.CurrencyPoints, match.Stake); err != nil {
			return err
		}

		if hasSeat {
			// Claim the pre-targeted seat
			if err := tx.Model(&p).Update("status", models.ParticipantAccepted).Error; err != nil {
				return err
			}
		} else {
			// Open challenge: create the seat on the fly
			team, terr := s.pickTeam(tx, &match)
			if terr != nil {
				return terr
			}
			p = models.ArenaParticipant{
				ID:       uuid.NewString(),
				MatchID:  matchID,
				PlayerID: playerID,
				Team:     team,
				Status:   models.ParticipantAccepted,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}

		finalStatus = models.MatchPending
		activated, err := s.activateIfFull(tx, &match)
		if err != nil {
			return err
		}
		if activated {
			finalStatus = models.MatchActive
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return finalStatus, nil
}

// JoinLobby takes a team seat in a pending squad room. The fourth accepted
// player activates the match.
func (s *ArenaService) JoinLobby(matchID, playerID string, team models.TeamTag) (models.MatchStatus, error) {
	if !team.Valid() {
		return "", ErrInvalidTeam
	}
	var finalStatus models.MatchStatus
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var match models.ArenaMatch
		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if match.Status == models.MatchActive {
			var p models.ArenaParticipant
			err := tx.Where("match_id = ? AND player_id = ?", matchID, playerID).First(&p).Error
			if err == nil && p.Status.Paying() {
				finalStatus = models.MatchActive
				return nil
			}
			return ErrAlreadyResolved
		}
		if match.Status != models.MatchPending {
			return ErrAlreadyResolved
		}

		var existing models.ArenaParticipant
		err := tx.Where("match_id = ? AND player_id = ?", matchID, playerID).First(&existing).Error
		if err == nil {
			return ErrAlreadyJoined
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var teamCount int64
		if err := tx.Model(&models.ArenaParticipant{}).
			Where("match_id = ? AND team = ? AND status IN ?", matchID, team,
				[]models.ParticipantStatus{models.ParticipantAccepted, models.ParticipantSubmitted}).
			Count(&teamCount).Error; err != nil {
			return err
		}
		if int(teamCount) >= match.Mode.TeamCapacity() {
			return ErrTeamFull
		}

		if err := s.Wallet.Debit(tx, playerID, models.CurrencyPoints, match.Stake); err != nil {
			return err
		}

		p := models.ArenaParticipant{
			ID:       uuid.NewString(),
			MatchID:  matchID,
			PlayerID: playerID,
			Team:     team,
			Status:   models.ParticipantAccepted,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		finalStatus = models.MatchPending
		activated, err := s.activateIfFull(tx, &match)
		if err != nil {
			return err
		}
		if activated {
			finalStatus = models.MatchActive
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return finalStatus, nil
}

// CancelMatch aborts a pending challenge. Creator only; every participant
// whose stake is in escrow gets it back (a still-pending targeted opponent
// never paid, so gets nothing).
func (s *ArenaService) CancelMatch(matchID, requesterID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var match models.ArenaMatch
		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if match.Status != models.MatchPending {
			return ErrNotPending
		}
		if match.CreatedBy != requesterID {
			return ErrNotCreator
		}
		return s.cancelLocked(tx, &match, "cancelled by creator")
	})
}

// CancelExpired is the sweep's system-initiated cancel of a timed-out
// invitation: same refunds as CancelMatch, without the creator check.
// Returns false if another caller got there first.
func (s *ArenaService) CancelExpired(matchID string) (bool, error) {
	cancelled := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var match models.ArenaMatch
		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if match.Status != models.MatchPending {
			return nil // already resolved, nothing to do
		}
		if err := s.cancelLocked(tx, &match, "expired (no response within invite window)"); err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	return cancelled, err
}

// cancelLocked refunds paying participants and flips the match to cancelled.
// The status guard in the UPDATE keeps a concurrent cancel/accept from
// paying refunds twice.
func (s *ArenaService) cancelLocked(tx *gorm.DB, match *models.ArenaMatch, reason string) error {
	result := tx.Model(&models.ArenaMatch{}).
		Where("id = ? AND status = ?", match.ID, models.MatchPending).
		Update("status", models.MatchCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotPending
	}

	var participants []models.ArenaParticipant
	if err := tx.Where("match_id = ?", match.ID).Find(&participants).Error; err != nil {
		return err
	}
	for _, p := range participants {
		if !p.Status.Paying() {
			continue
		}
		if err := s.Wallet.Credit(tx, p.PlayerID, models.CurrencyPoints, match.Stake); err != nil {
			return err
		}
	}
	log.Printf("🚫 match %s cancelled (%s), stakes refunded", match.ID, reason)
	return nil
}

// pickTeam returns the team that still has room, preferring A
func (s *ArenaService) pickTeam(tx *gorm.DB, match *models.ArenaMatch) (models.TeamTag, error) {
	for _, team := range []models.TeamTag{models.TeamA, models.TeamB} {
		var count int64
		if err := tx.Model(&models.ArenaParticipant{}).
			Where("match_id = ? AND team = ? AND status IN ?", match.ID, team,
				[]models.ParticipantStatus{models.ParticipantAccepted, models.ParticipantSubmitted}).
			Count(&count).Error; err != nil {
			return "", err
		}
		if int(count) < match.Mode.TeamCapacity() {
			return team, nil
		}
	}
	return "", ErrMatchFull
}

// activateIfFull flips a pending match to active once every roster seat is
// paid for. The pending→active guard in the UPDATE makes activation happen
// exactly once even if two joins land together.
func (s *ArenaService) activateIfFull(tx *gorm.DB, match *models.ArenaMatch) (bool, error) {
	var paying int64
	if err := tx.Model(&models.ArenaParticipant{}).
		Where("match_id = ? AND status IN ?", match.ID,
			[]models.ParticipantStatus{models.ParticipantAccepted, models.ParticipantSubmitted}).
		Count(&paying).Error; err != nil {
		return false, err
	}
	if int(paying) < match.Mode.RosterSize() {
		return false, nil
	}
	deadline := time.Now().Add(PlayWindow)
	result := tx.Model(&models.ArenaMatch{}).
		Where("id = ? AND status = ?", match.ID, models.MatchPending).
		Updates(map[string]interface{}{
			"status":          models.MatchActive,
			"play_expires_at": deadline,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	log.Printf("🏁 match %s is live, play window until %s", match.ID, deadline.Format(time.RFC3339))
	return true, nil
}

// GetMatch returns a match with its participants
func (s *ArenaService) GetMatch(matchID string) (*models.ArenaMatch, error) {
	var match models.ArenaMatch
	err := s.DB.Preload("Participants").First(&match, "id = ?", matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// MatchSummary is the arena-view projection of a match
type MatchSummary struct {
	MatchID    string             `json:"match_id"`
	Code       string             `json:"code"`
	Creator    string             `json:"creator"`
	Mode       models.MatchMode   `json:"mode"`
	Difficulty string             `json:"difficulty"`
	Stake      int64              `json:"stake"`
	Status     models.MatchStatus `json:"status"`
	Winner     string             `json:"winner,omitempty"`
	MyStatus   string             `json:"my_status,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// MyMatchesView groups a player's matches the way the arena screen shows them
type MyMatchesView struct {
	Incoming []MatchSummary `json:"incoming"`
	Outgoing []MatchSummary `json:"outgoing"`
	History  []MatchSummary `json:"history"`
}

// MyMatches returns open invitations to the player, their open challenges,
// and their recent finished matches.
func (s *ArenaService) MyMatches(playerID string) (*MyMatchesView, error) {
	view := &MyMatchesView{
		Incoming: []MatchSummary{},
		Outgoing: []MatchSummary{},
		History:  []MatchSummary{},
	}

	var incoming []struct {
		models.ArenaMatch
		ParticipantStatus string
	}
	err := s.DB.Model(&models.ArenaMatch{}).
		Select("arena_matches.*, arena_participants.status AS participant_status").
		Joins("JOIN arena_participants ON arena_participants.match_id = arena_matches.id").
		Where("arena_participants.player_id = ? AND arena_matches.created_by <> ?", playerID, playerID).
		Where("arena_matches.status IN ?", []models.MatchStatus{models.MatchPending, models.MatchActive}).
		Order("arena_matches.created_at DESC").
		Scan(&incoming).Error
	if err != nil {
		return nil, err
	}
	for _, row := range incoming {
		sum := summarize(row.ArenaMatch)
		sum.MyStatus = row.ParticipantStatus
		view.Incoming = append(view.Incoming, sum)
	}

	var outgoing []models.ArenaMatch
	err = s.DB.
		Where("created_by = ? AND status IN ?", playerID,
			[]models.MatchStatus{models.MatchPending, models.MatchActive}).
		Order("created_at DESC").
		Find(&outgoing).Error
	if err != nil {
		return nil, err
	}
	for _, m := range outgoing {
		view.Outgoing = append(view.Outgoing, summarize(m))
	}

	var history []models.ArenaMatch
	err = s.DB.
		Distinct("arena_matches.*").
		Joins("LEFT JOIN arena_participants ON arena_participants.match_id = arena_matches.id").
		Where("arena_matches.status = ?", models.MatchFinished).
		Where("arena_matches.created_by = ? OR arena_participants.player_id = ?", playerID, playerID).
		Order("arena_matches.created_at DESC").
		Limit(5).
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	for _, m := range history {
		view.History = append(view.History, summarize(m))
	}
	return view, nil
}

// LobbyRoom is one open squad room with its current rosters
type LobbyRoom struct {
	MatchID    string   `json:"match_id"`
	Code       string   `json:"code"`
	Stake      int64    `json:"stake"`
	Difficulty string   `json:"difficulty"`
	TeamA      []string `json:"team_a"`
	TeamB      []string `json:"team_b"`
	Count      int      `json:"count"`
}

// Lobby lists pending squad rooms waiting for players
func (s *ArenaService) Lobby() ([]LobbyRoom, error) {
	var matches []models.ArenaMatch
	err := s.DB.Preload("Participants").
		Where("mode = ? AND status = ?", models.ModeSquad, models.MatchPending).
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	rooms := make([]LobbyRoom, 0, len(matches))
	for _, m := range matches {
		room := LobbyRoom{
			MatchID:    m.ID,
			Code:       m.Code,
			Stake:      m.Stake,
			Difficulty: m.Difficulty,
			TeamA:      []string{},
			TeamB:      []string{},
		}
		for _, p := range m.Participants {
			if !p.Status.Paying() {
				continue
			}
			if p.Team == models.TeamA {
				room.TeamA = append(room.TeamA, p.PlayerID)
			} else {
				room.TeamB = append(room.TeamB, p.PlayerID)
			}
			room.Count++
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// Opponent is a challengeable player and their point balance
type Opponent struct {
	PlayerID string `json:"player_id"`
	Points   int64  `json:"points"`
}

// Opponents lists every other player holding a point balance
func (s *ArenaService) Opponents(playerID string) ([]Opponent, error) {
	var opponents []Opponent
	err := s.DB.Model(&models.PlayerBalance{}).
		Select("player_id, amount AS points").
		Where("currency = ? AND player_id <> ?", models.CurrencyPoints, playerID).
		Order("player_id ASC").
		Scan(&opponents).Error
	if err != nil {
		return nil, err
	}
	return opponents, nil
}

func summarize(m models.ArenaMatch) MatchSummary {
	return MatchSummary{
		MatchID:    m.ID,
		Code:       m.Code,
		Creator:    m.CreatedBy,
		Mode:       m.Mode,
		Difficulty: m.Difficulty,
		Stake:      m.Stake,
		Status:     m.Status,
		Winner:     m.Winner,
		CreatedAt:  m.CreatedAt,
	}
}
