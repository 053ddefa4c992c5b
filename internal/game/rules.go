package game

import (
	"fmt"
	"sort"
)

// LevelUp moves a run from level From to level To once diamonds reach Diamonds.
type LevelUp struct {
	From     int `yaml:"from"`
	To       int `yaml:"to"`
	Diamonds int `yaml:"diamonds"`
}

// Rules are the tunable constants of the reward economy.
type Rules struct {
	QuestionsPerSession int       `yaml:"questionsPerSession"`
	CoinsPerDiamond     int       `yaml:"coinsPerDiamond"`
	DiamondsForWin      int       `yaml:"diamondsForWin"`
	LevelUps            []LevelUp `yaml:"levelUps"`
}

// DefaultRules returns the stock game tuning.
func DefaultRules() Rules {
	return Rules{
		QuestionsPerSession: 120,
		CoinsPerDiamond:     24,
		DiamondsForWin:      4,
		LevelUps: []LevelUp{
			{From: 1, To: 2, Diamonds: 3},
			{From: 2, To: 3, Diamonds: 4},
		},
	}
}

// Validate checks that the rules describe a playable game.
func (r Rules) Validate() error {
	if r.QuestionsPerSession < 1 {
		return fmt.Errorf("questionsPerSession must be positive, got %d", r.QuestionsPerSession)
	}
	if r.CoinsPerDiamond < 1 {
		return fmt.Errorf("coinsPerDiamond must be positive, got %d", r.CoinsPerDiamond)
	}
	if r.DiamondsForWin < 1 {
		return fmt.Errorf("diamondsForWin must be positive, got %d", r.DiamondsForWin)
	}
	for _, lu := range r.LevelUps {
		if lu.From < 1 || lu.To <= lu.From {
			return fmt.Errorf("invalid level up %d -> %d", lu.From, lu.To)
		}
	}
	return nil
}

// withDefaults returns DefaultRules for the zero value and otherwise fills
// every non-positive count from DefaultRules. Level ups are kept as given.
func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.QuestionsPerSession == 0 && r.CoinsPerDiamond == 0 && r.DiamondsForWin == 0 && len(r.LevelUps) == 0 {
		return d
	}
	if r.QuestionsPerSession < 1 {
		r.QuestionsPerSession = d.QuestionsPerSession
	}
	if r.CoinsPerDiamond < 1 {
		r.CoinsPerDiamond = d.CoinsPerDiamond
	}
	if r.DiamondsForWin < 1 {
		r.DiamondsForWin = d.DiamondsForWin
	}
	return r
}

func (r Rules) sortedLevelUps() []LevelUp {
	out := make([]LevelUp, len(r.LevelUps))
	copy(out, r.LevelUps)
	sort.SliceStable(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}
