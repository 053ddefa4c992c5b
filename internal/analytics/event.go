// Package analytics carries gameplay events from sessions to their sinks.
package analytics

import (
	"time"

	"github.com/google/uuid"
)

// Kind names an analytics event.
type Kind string

const (
	KindQuizStart       Kind = "quiz_start"
	KindLevelProgress   Kind = "level_progress"
	KindCorrectAnswer   Kind = "correct_answer"
	KindIncorrectAnswer Kind = "incorrect_answer"
	KindRewardEarned    Kind = "reward_earned"
	KindQuizComplete    Kind = "quiz_complete"
)

// Outcomes reported on quiz_complete.
const (
	OutcomeWin      = "win"
	OutcomeGameOver = "game_over"
)

// Event is one analytics record. Fields irrelevant to a kind stay zero.
type Event struct {
	Kind   Kind      `json:"event"`
	RunID  string    `json:"runId"`
	Player string    `json:"player"`
	At     time.Time `json:"at"`
	Level  int       `json:"level"`

	QuestionID    string `json:"questionId,omitempty"`
	QuestionText  string `json:"questionText,omitempty"`
	SelectedValue string `json:"selectedValue,omitempty"`
	CorrectValue  string `json:"correctValue,omitempty"`

	Reward   string `json:"reward,omitempty"`
	Coins    int    `json:"coins"`
	Diamonds int    `json:"diamonds"`
	Errors   int    `json:"errors"`
	Answered int    `json:"answered"`

	Outcome         string  `json:"outcome,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
}

// NewRunID returns an identifier for one play-through.
func NewRunID() string {
	return uuid.NewString()
}
