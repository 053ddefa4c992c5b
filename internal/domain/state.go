package domain

// Screen is the current display mode of a session.
type Screen string

const (
	ScreenStart       Screen = "start"
	ScreenLevelSplash Screen = "level_splash"
	ScreenQuiz        Screen = "quiz"
	ScreenReward      Screen = "reward"
	ScreenGameOver    Screen = "game_over"
	ScreenWin         Screen = "win"
)

// Valid reports whether s is a known screen.
func (s Screen) Valid() bool {
	switch s {
	case ScreenStart, ScreenLevelSplash, ScreenQuiz, ScreenReward, ScreenGameOver, ScreenWin:
		return true
	}
	return false
}

// RewardType is the reward shown on the reward screen. The zero value means none.
type RewardType string

const (
	RewardNone    RewardType = ""
	RewardCoin    RewardType = "coin"
	RewardDiamond RewardType = "diamond"
	RewardTrophy  RewardType = "trophy"
)

// Sound is a symbolic cue for the audio collaborator.
type Sound string

const (
	SoundNotification Sound = "notification"
	SoundReject       Sound = "reject"
	SoundCoin         Sound = "coin"
	SoundDiamond      Sound = "diamond"
	SoundLevelSplash  Sound = "levelSplash"
	SoundWin          Sound = "win"
)

// State holds all mutable progress of one game session.
type State struct {
	Screen                 Screen     `json:"screen"`
	CurrentLevel           int        `json:"currentLevel"`
	SessionQuestions       []Question `json:"sessionQuestions"`
	QuestionIndex          int        `json:"questionIndex"`
	PresentedOptions       []string   `json:"presentedOptions"`
	PresentedAnswerIndex   int        `json:"presentedAnswerIndex"`
	SelectedOption         *int       `json:"selectedOption"`
	UserMatches            []Pair     `json:"userMatches"`
	DraggedItem            string     `json:"draggedItem,omitempty"`
	IsAnswered             bool       `json:"isAnswered"`
	IsCorrect              bool       `json:"isCorrect"`
	RewardType             RewardType `json:"rewardType,omitempty"`
	Coins                  int        `json:"coins"`
	Diamonds               int        `json:"diamonds"`
	Errors                 int        `json:"errors"`
	TotalQuestionsAnswered int        `json:"totalQuestionsAnswered"`
	CompletedQuestions     []string   `json:"completedQuestions"`
	IsMuted                bool       `json:"isMuted"`
}

// NewState returns the initial state shown before any level starts.
func NewState() State {
	return State{
		Screen:               ScreenStart,
		CurrentLevel:         1,
		PresentedAnswerIndex: -1,
	}
}

// CurrentQuestion returns the question at QuestionIndex, if any.
func (s State) CurrentQuestion() (Question, bool) {
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(s.SessionQuestions) {
		return Question{}, false
	}
	return s.SessionQuestions[s.QuestionIndex], true
}

// HasCompleted reports whether the question id was ever answered correctly.
func (s State) HasCompleted(id string) bool {
	for _, c := range s.CompletedQuestions {
		if c == id {
			return true
		}
	}
	return false
}

// SelectedValue returns the display text of the selected option.
func (s State) SelectedValue() string {
	if s.SelectedOption == nil || *s.SelectedOption < 0 || *s.SelectedOption >= len(s.PresentedOptions) {
		return ""
	}
	return s.PresentedOptions[*s.SelectedOption]
}
