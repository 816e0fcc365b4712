package services

import (
	"fmt"

	"quiz-arena-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WalletService owns the player balance ledger. Every mutation is
// all-or-nothing: a debit either fully applies or fails with
// ErrInsufficientFunds before anything is written.
type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// GetBalance returns the player's balance in one currency (0 if no row yet)
func (s *WalletService) GetBalance(playerID string, currency models.CurrencyKind) (int64, error) {
	var bal models.PlayerBalance
	err := s.DB.Where("player_id = ? AND currency = ?", playerID, currency).First(&bal).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bal.Amount, nil
}

// Debit removes amount from the player's balance. The guard runs inside the
// UPDATE itself (amount >= ?) so two concurrent debits can never overdraw.
func (s *WalletService) Debit(tx *gorm.DB, playerID string, currency models.CurrencyKind, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit amount must be non-negative, got %d", amount)
	}
	if amount == 0 {
		return nil
	}
	result := tx.Model(&models.PlayerBalance{}).
		Where("player_id = ? AND currency = ? AND amount >= ?", playerID, currency, amount).
		Update("amount", gorm.Expr("amount - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// Credit adds amount to the player's balance, creating the row if needed
func (s *WalletService) Credit(tx *gorm.DB, playerID string, currency models.CurrencyKind, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit amount must be non-negative, got %d", amount)
	}
	if amount == 0 {
		return nil
	}
	result := tx.Model(&models.PlayerBalance{}).
		Where("player_id = ? AND currency = ?", playerID, currency).
		Update("amount", gorm.Expr("amount + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		bal := models.PlayerBalance{
			ID:       uuid.NewString(),
			PlayerID: playerID,
			Currency: currency,
			Amount:   amount,
		}
		return tx.Create(&bal).Error
	}
	return nil
}

// EnsureBalance seeds a balance row (used at player onboarding and in tests)
func (s *WalletService) EnsureBalance(playerID string, currency models.CurrencyKind, amount int64) error {
	var bal models.PlayerBalance
	err := s.DB.Where("player_id = ? AND currency = ?", playerID, currency).First(&bal).Error
	if err == gorm.ErrRecordNotFound {
		bal = models.PlayerBalance{
			ID:       uuid.NewString(),
			PlayerID: playerID,
			Currency: currency,
			Amount:   amount,
		}
		return s.DB.Create(&bal).Error
	}
	if err != nil {
		return err
	}
	return s.DB.Model(&bal).Update("amount", amount).Error
}
