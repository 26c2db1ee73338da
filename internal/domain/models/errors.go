package models

import "errors"

var (
	// ErrProfileNotFound means onboarding has not been completed, or the stored profile was unreadable.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrIncompleteCandidate means a food is missing its name or a nutrition value.
	ErrIncompleteCandidate = errors.New("incomplete food candidate")
	// ErrLimitReached means the daily goal is already used up.
	ErrLimitReached = errors.New("daily calorie limit reached")
	// ErrStorageCorruption marks a persisted value that could not be decoded.
	ErrStorageCorruption = errors.New("stored value is corrupt")
)
