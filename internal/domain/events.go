package domain

// Event is an input to the transition engine. The concrete types below are the
// complete set.
type Event interface {
	EventName() string
}

// StartLevel draws a fresh question set for a level and resets the run.
type StartLevel struct {
	Level int `json:"level"`
}

// SetScreen overrides the current screen.
type SetScreen struct {
	Screen Screen `json:"screen"`
}

// SelectOption picks a presented option by index.
type SelectOption struct {
	Index int `json:"index"`
}

// SetUserMatch proposes a source/target pair for a drag-match question.
type SetUserMatch struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// SetDraggedItem tracks the item under the drag cursor. Empty clears it.
type SetDraggedItem struct {
	ItemID string `json:"itemId"`
}

// CheckAnswer evaluates the current selection.
type CheckAnswer struct{}

// NextQuestion advances after an answer or after the reward screen.
type NextQuestion struct {
	FromReward bool `json:"fromReward"`
}

// ToggleMute flips the mute preference.
type ToggleMute struct{}

func (StartLevel) EventName() string     { return "START_LEVEL" }
func (SetScreen) EventName() string      { return "SET_SCREEN" }
func (SelectOption) EventName() string   { return "SELECT_OPTION" }
func (SetUserMatch) EventName() string   { return "SET_USER_MATCH" }
func (SetDraggedItem) EventName() string { return "SET_DRAGGED_ITEM" }
func (CheckAnswer) EventName() string    { return "CHECK_ANSWER" }
func (NextQuestion) EventName() string   { return "NEXT_QUESTION" }
func (ToggleMute) EventName() string     { return "TOGGLE_MUTE" }
