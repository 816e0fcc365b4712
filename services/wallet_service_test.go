package services

import (
	"errors"
	"testing"

	"quiz-arena-system/models"
)

func TestDebitGuardsOverdraw(t *testing.T) {
	env := newTestEnv(t)
	env.seedPlayer(t, "alice", 50)

	if err := env.Wallet.Debit(env.DB, "alice", models.CurrencyPoints, 30); err != nil {
		t.Fatalf("debit within balance: %v", err)
	}
	if got := env.points(t, "alice"); got != 20 {
		t.Errorf("points = %d, want 20", got)
	}

	err := env.Wallet.Debit(env.DB, "alice", models.CurrencyPoints, 30)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraw: err = %v, want ErrInsufficientFunds", err)
	}
	if got := env.points(t, "alice"); got != 20 {
		t.Errorf("points = %d, want 20 (failed debit leaves balance alone)", got)
	}
}

func TestDebitWithoutBalanceRow(t *testing.T) {
	env := newTestEnv(t)
	err := env.Wallet.Debit(env.DB, "ghost", models.CurrencyPoints, 10)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestDebitRejectsNegative(t *testing.T) {
	env := newTestEnv(t)
	env.seedPlayer(t, "alice", 50)
	if err := env.Wallet.Debit(env.DB, "alice", models.CurrencyPoints, -5); err == nil {
		t.Error("negative debit must fail")
	}
}

func TestZeroAmountIsNoop(t *testing.T) {
	env := newTestEnv(t)
	env.seedPlayer(t, "alice", 50)
	if err := env.Wallet.Debit(env.DB, "alice", models.CurrencyPoints, 0); err != nil {
		t.Errorf("zero debit: %v", err)
	}
	if err := env.Wallet.Credit(env.DB, "alice", models.CurrencyPoints, 0); err != nil {
		t.Errorf("zero credit: %v", err)
	}
	if got := env.points(t, "alice"); got != 50 {
		t.Errorf("points = %d, want 50", got)
	}
}

func TestCreditCreatesMissingRow(t *testing.T) {
	env := newTestEnv(t)

	if err := env.Wallet.Credit(env.DB, "newbie", models.CurrencyTrophies, 1); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got := env.trophies(t, "newbie"); got != 1 {
		t.Errorf("trophies = %d, want 1", got)
	}

	// Second credit hits the existing row
	if err := env.Wallet.Credit(env.DB, "newbie", models.CurrencyTrophies, 2); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got := env.trophies(t, "newbie"); got != 3 {
		t.Errorf("trophies = %d, want 3", got)
	}
}

func TestBalancesPerCurrencyAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	env.seedPlayer(t, "alice", 50)

	if err := env.Wallet.Credit(env.DB, "alice", models.CurrencyTrophies, 2); err != nil {
		t.Fatalf("credit trophies: %v", err)
	}
	if err := env.Wallet.Debit(env.DB, "alice", models.CurrencyPoints, 10); err != nil {
		t.Fatalf("debit points: %v", err)
	}
	if got := env.points(t, "alice"); got != 40 {
		t.Errorf("points = %d, want 40", got)
	}
	if got := env.trophies(t, "alice"); got != 2 {
		t.Errorf("trophies = %d, want 2", got)
	}
}

func TestGetBalanceDefaultsToZero(t *testing.T) {
	env := newTestEnv(t)
	if got := env.points(t, "nobody"); got != 0 {
		t.Errorf("points = %d, want 0 for unknown player", got)
	}
}
