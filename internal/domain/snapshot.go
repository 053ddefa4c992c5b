package domain

import (
	"encoding/json"
	"fmt"
)

// EncodeState serializes a state for a save slot.
func EncodeState(s State) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState parses a saved state and rejects payloads that could not have
// been produced by the engine.
func DecodeState(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !s.Screen.Valid() {
		return State{}, fmt.Errorf("%w: screen %q", ErrInvalidState, s.Screen)
	}
	if s.CurrentLevel < 1 {
		return State{}, fmt.Errorf("%w: level %d", ErrInvalidState, s.CurrentLevel)
	}
	if s.Coins < 0 || s.Diamonds < 0 || s.Errors < 0 || s.TotalQuestionsAnswered < 0 {
		return State{}, fmt.Errorf("%w: negative counter", ErrInvalidState)
	}
	if s.Screen == ScreenQuiz {
		if _, ok := s.CurrentQuestion(); !ok {
			return State{}, fmt.Errorf("%w: question index %d out of range", ErrInvalidState, s.QuestionIndex)
		}
	}
	for _, q := range s.SessionQuestions {
		if err := q.Validate(); err != nil {
			return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
	}
	return s, nil
}
