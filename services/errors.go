package services

import "errors"

// Common service errors
var (
	ErrInvalidMode  = errors.New("invalid match mode")
	ErrInvalidTeam  = errors.New("invalid team tag")
	ErrInvalidStake = errors.New("stake must be non-negative")
	ErrNotFound     = errors.New("match not found")
)

// Lifecycle errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyResolved   = errors.New("match already resolved by someone else")
	ErrSelfChallenge     = errors.New("cannot accept your own challenge")
	ErrMatchFull         = errors.New("match is full")
	ErrTeamFull          = errors.New("team is full")
	ErrAlreadyJoined     = errors.New("already joined this match")
	ErrNotCreator        = errors.New("only the creator may cancel")
	ErrNotPending        = errors.New("match is not pending")
)

// Quiz errors
var (
	ErrNotActive       = errors.New("match is not active")
	ErrNotParticipant  = errors.New("not a participant of this match")
	ErrNotEligible     = errors.New("not eligible to submit")
	ErrQuestionBankDry = errors.New("not enough questions for this difficulty")
)
