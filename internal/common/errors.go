// Package common holds sentinel errors and small formatting helpers shared
// by every feature package.
package common

import "errors"

// Awards and deals.
var (
	ErrInvalidMiles     = errors.New("award miles must be positive")
	ErrInvalidFees      = errors.New("award cash fees must not be negative")
	ErrInvalidCashPrice = errors.New("cash price must be positive")
	ErrUnknownCabin     = errors.New("unknown cabin class")
	ErrDealNotFound     = errors.New("deal not found")
	ErrMissingRoute     = errors.New("origin and destination airports are required")
)

// Portfolio and transfer graph.
var (
	ErrInvalidBalance  = errors.New("balance must not be negative")
	ErrInvalidRatio    = errors.New("transfer ratio must be positive")
	ErrProgramNotFound = errors.New("program not found in portfolio")
	ErrEmptyCode       = errors.New("program code is empty")
)

// Collectors.
var (
	ErrCollectorNotFound = errors.New("collector not registered")
	ErrMissingAPIKey     = errors.New("api key is not configured")
	ErrUnauthorized      = errors.New("api key rejected")
	ErrRateLimited       = errors.New("rate limit exceeded")
)

// Owner access.
var (
	ErrNotOwner        = errors.New("only the portfolio owner can do that")
	ErrWrongPassword   = errors.New("wrong password")
	ErrTooManyAttempts = errors.New("too many attempts, try again in an hour")
	ErrSessionExpired  = errors.New("session expired, log in again")
)
