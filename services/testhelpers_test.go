package services

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"quiz-arena-system/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv bundles the full service graph over a throwaway sqlite database
type testEnv struct {
	DB         *gorm.DB
	Wallet     *WalletService
	Arena      *ArenaService
	Settlement *SettlementService
	Questions  *QuestionService
	Quiz       *QuizService
	Sweep      *SweepService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "arena_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.ArenaMatch{},
		&models.ArenaParticipant{},
		&models.PlayerBalance{},
		&models.QuestionBank{},
		&models.MatchQuestion{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	wallet := NewWalletService(db)
	arena := NewArenaService(db, wallet)
	settlement := NewSettlementService(db, wallet)
	questions := NewQuestionService(db)
	quiz := NewQuizService(db, questions, settlement)
	sweep := NewSweepService(db, arena, settlement)

	return &testEnv{
		DB:         db,
		Wallet:     wallet,
		Arena:      arena,
		Settlement: settlement,
		Questions:  questions,
		Quiz:       quiz,
		Sweep:      sweep,
	}
}

func (e *testEnv) seedPlayer(t *testing.T, playerID string, points int64) {
	t.Helper()
	if err := e.Wallet.EnsureBalance(playerID, models.CurrencyPoints, points); err != nil {
		t.Fatalf("seed player %s: %v", playerID, err)
	}
}

func (e *testEnv) points(t *testing.T, playerID string) int64 {
	t.Helper()
	amount, err := e.Wallet.GetBalance(playerID, models.CurrencyPoints)
	if err != nil {
		t.Fatalf("get points for %s: %v", playerID, err)
	}
	return amount
}

func (e *testEnv) trophies(t *testing.T, playerID string) int64 {
	t.Helper()
	amount, err := e.Wallet.GetBalance(playerID, models.CurrencyTrophies)
	if err != nil {
		t.Fatalf("get trophies for %s: %v", playerID, err)
	}
	return amount
}

// seedQuestions fills the bank with count questions at a difficulty. Answer
// key for question i is "Option i".
func (e *testEnv) seedQuestions(t *testing.T, difficulty string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		options, _ := json.Marshal([]string{
			fmt.Sprintf("Option %d", i),
			"Wrong 1", "Wrong 2", "Wrong 3",
		})
		q := models.QuestionBank{
			ID:          uuid.NewString(),
			Subject:     "math",
			Difficulty:  difficulty,
			Content:     fmt.Sprintf("Question %d?", i),
			OptionsJSON: string(options),
			AnswerKey:   fmt.Sprintf("Option %d", i),
		}
		if err := e.DB.Create(&q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
}

// newDuel drives the real lifecycle: creator opens a targeted duel and the
// opponent accepts, leaving the match active.
func (e *testEnv) newDuel(t *testing.T, creator, opponent string, stake int64) *models.ArenaMatch {
	t.Helper()
	match, err := e.Arena.CreateMatch(creator, models.ModeDuel, "hard", stake, opponent)
	if err != nil {
		t.Fatalf("create duel: %v", err)
	}
	status, err := e.Arena.AcceptMatch(match.ID, opponent)
	if err != nil {
		t.Fatalf("accept duel: %v", err)
	}
	if status != models.MatchActive {
		t.Fatalf("duel should be active after accept, got %s", status)
	}
	return match
}

// submitScore marks a participant submitted with a fixed score, bypassing
// the quiz (settlement tests only care about the numbers).
func (e *testEnv) submitScore(t *testing.T, matchID, playerID string, score int64) {
	t.Helper()
	result := e.DB.Model(&models.ArenaParticipant{}).
		Where("match_id = ? AND player_id = ?", matchID, playerID).
		Updates(map[string]interface{}{
			"status": models.ParticipantSubmitted,
			"score":  score,
		})
	if result.Error != nil || result.RowsAffected == 0 {
		t.Fatalf("submit score for %s: %v (rows=%d)", playerID, result.Error, result.RowsAffected)
	}
}

func (e *testEnv) reloadMatch(t *testing.T, matchID string) *models.ArenaMatch {
	t.Helper()
	var match models.ArenaMatch
	if err := e.DB.First(&match, "id = ?", matchID).Error; err != nil {
		t.Fatalf("reload match %s: %v", matchID, err)
	}
	return &match
}
