package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a player has no open game session.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionClosed is returned when an event reaches a stopped session.
	ErrSessionClosed = errors.New("game session closed")
	// ErrBankEmpty indicates the question bank has no level 1 questions.
	ErrBankEmpty = errors.New("question bank is empty")
	// ErrInvalidQuestion indicates malformed question bank data.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidState indicates a persisted state payload failed validation.
	ErrInvalidState = errors.New("invalid game state")
	// ErrUnknownEvent indicates an inbound event type is not recognized.
	ErrUnknownEvent = errors.New("unknown event")
)
