package models

// CurrencyKind identifies one of the balances a player can hold
type CurrencyKind string

const (
	CurrencyPoints   CurrencyKind = "points"   // the stake/payout currency
	CurrencyTrophies CurrencyKind = "trophies" // secondary win-streak currency
)

func (c CurrencyKind) Valid() bool {
	return c == CurrencyPoints || c == CurrencyTrophies
}

// PlayerBalance holds one player's balance in one currency.
// Table name: player_balances; (player_id, currency) is unique.
type PlayerBalance struct {
	ID       string       `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID string       `gorm:"not null;uniqueIndex:idx_player_currency" json:"player_id"`
	Currency CurrencyKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_player_currency" json:"currency"`
	Amount   int64        `gorm:"not null;default:0" json:"amount"`

	Timestamps
}
