package models

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrConflictingOffer    = errors.New("conflicting delivery offer")
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrDuplicateEntry      = errors.New("duplicate ledger entry")
	ErrConfigUnavailable   = errors.New("rewards config unavailable")
	ErrInvalidAmount       = errors.New("amount must be a non-negative integer")
)
