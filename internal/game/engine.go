package game

import (
	"math/rand"

	"trivia-quest-service/internal/domain"
)

// Engine applies events to game states. Apply never mutates its input; the
// only source of nondeterminism is the injected generator.
type Engine struct {
	bank     domain.Bank
	rules    Rules
	levelUps []LevelUp
	rng      *rand.Rand
}

// NewEngine builds an engine over a validated bank. A nil rng gets a
// crypto-seeded generator. Zero or non-positive rule counts take their
// DefaultRules values.
func NewEngine(bank domain.Bank, rules Rules, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = NewRand()
	}
	rules = rules.withDefaults()
	return &Engine{
		bank:     bank,
		rules:    rules,
		levelUps: rules.sortedLevelUps(),
		rng:      rng,
	}
}

// Apply returns the state that follows s after ev. Events that make no sense
// in the current state return s unchanged.
func (e *Engine) Apply(s domain.State, ev domain.Event) domain.State {
	switch ev := ev.(type) {
	case domain.StartLevel:
		level := ev.Level
		if level < 1 {
			level = 1
		}
		return e.enterLevel(restart(s), level)
	case domain.SetScreen:
		return e.setScreen(s, ev.Screen)
	case domain.SelectOption:
		return selectOption(s, ev.Index)
	case domain.SetUserMatch:
		return setUserMatch(s, ev.SourceID, ev.TargetID)
	case domain.SetDraggedItem:
		s.DraggedItem = ev.ItemID
		return s
	case domain.CheckAnswer:
		return e.checkAnswer(s)
	case domain.NextQuestion:
		return e.nextQuestion(s, ev.FromReward)
	case domain.ToggleMute:
		s.IsMuted = !s.IsMuted
		return s
	}
	return s
}

// restart returns a fresh state that keeps the cross-run fields.
func restart(s domain.State) domain.State {
	fresh := domain.NewState()
	fresh.IsMuted = s.IsMuted
	fresh.CompletedQuestions = s.CompletedQuestions
	return fresh
}

func (e *Engine) setScreen(s domain.State, screen domain.Screen) domain.State {
	switch {
	case !screen.Valid():
		return s
	case screen == domain.ScreenStart:
		return restart(s)
	case screen == domain.ScreenQuiz:
		if _, ok := s.CurrentQuestion(); !ok {
			s.Screen = domain.ScreenGameOver
			s.RewardType = domain.RewardNone
			return s
		}
	}
	s.Screen = screen
	return s
}

func selectOption(s domain.State, index int) domain.State {
	if s.IsAnswered {
		return s
	}
	q, ok := s.CurrentQuestion()
	if !ok || q.Kind != domain.KindChoice || index < 0 || index >= len(s.PresentedOptions) {
		return s
	}
	selected := index
	s.SelectedOption = &selected
	return s
}

// setUserMatch replaces any pair sharing the source or the target, keeping
// the proposed matches one-to-one.
func setUserMatch(s domain.State, sourceID, targetID string) domain.State {
	if s.IsAnswered {
		return s
	}
	q, ok := s.CurrentQuestion()
	if !ok || q.Kind != domain.KindDragMatch || q.Match == nil || !hasItem(q.Match.Sources, sourceID) || !hasItem(q.Match.Targets, targetID) {
		return s
	}
	matches := make([]domain.Pair, 0, len(s.UserMatches)+1)
	for _, m := range s.UserMatches {
		if m.Source == sourceID || m.Target == targetID {
			continue
		}
		matches = append(matches, m)
	}
	s.UserMatches = append(matches, domain.Pair{Source: sourceID, Target: targetID})
	return s
}

func hasItem(items []domain.Item, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (e *Engine) checkAnswer(s domain.State) domain.State {
	if s.IsAnswered {
		return s
	}
	q, ok := s.CurrentQuestion()
	if !ok {
		return s
	}

	var correct bool
	switch q.Kind {
	case domain.KindChoice:
		if s.SelectedOption == nil {
			return s
		}
		correct = *s.SelectedOption == s.PresentedAnswerIndex
	case domain.KindDragMatch:
		if len(s.UserMatches) == 0 {
			return s
		}
		correct = q.Match.Matches(s.UserMatches)
	default:
		return s
	}

	s.IsAnswered = true
	s.IsCorrect = correct
	s.RewardType = domain.RewardNone
	if !correct {
		s.Errors++
		return s
	}

	// The coin is only pending here; NextQuestion commits it.
	if pending := s.Coins + 1; pending%e.rules.CoinsPerDiamond == 0 {
		s.RewardType = domain.RewardDiamond
	} else {
		s.RewardType = domain.RewardCoin
	}
	if !s.HasCompleted(q.ID) {
		completed := make([]string, len(s.CompletedQuestions), len(s.CompletedQuestions)+1)
		copy(completed, s.CompletedQuestions)
		s.CompletedQuestions = append(completed, q.ID)
	}
	return s
}

// nextQuestion checks, in order: reward commit, win, level up, game over,
// advance. Diamonds must include the just-committed reward before any
// threshold is compared.
func (e *Engine) nextQuestion(s domain.State, fromReward bool) domain.State {
	if fromReward {
		if s.Screen != domain.ScreenReward {
			return s
		}
	} else {
		if s.Screen != domain.ScreenQuiz || !s.IsAnswered {
			return s
		}
		if s.IsCorrect {
			s.Coins++
			if s.RewardType == domain.RewardDiamond {
				s.Diamonds++
			}
			s.Screen = domain.ScreenReward
			return s
		}
	}

	if s.Diamonds >= e.rules.DiamondsForWin {
		s.RewardType = domain.RewardTrophy
		s.Screen = domain.ScreenReward
		return s
	}

	for _, lu := range e.levelUps {
		if s.CurrentLevel == lu.From && s.Diamonds >= lu.Diamonds {
			return e.enterLevel(s, lu.To)
		}
	}

	s.TotalQuestionsAnswered++
	next := s.QuestionIndex + 1
	if s.TotalQuestionsAnswered >= e.rules.QuestionsPerSession || next >= len(s.SessionQuestions) {
		s.Screen = domain.ScreenGameOver
		s.RewardType = domain.RewardNone
		return s
	}

	s.QuestionIndex = next
	s = clearAnswer(s)
	s.Screen = domain.ScreenQuiz
	return e.present(s)
}

// enterLevel draws the level's questions and resets per-run progress. Coins,
// diamonds and errors carry over so thresholds see the whole play-through.
func (e *Engine) enterLevel(s domain.State, level int) domain.State {
	s.Screen = domain.ScreenLevelSplash
	s.CurrentLevel = level
	s.SessionQuestions = e.draw(level, s.CompletedQuestions)
	s.QuestionIndex = 0
	s.TotalQuestionsAnswered = 0
	s = clearAnswer(s)
	return e.present(s)
}

func clearAnswer(s domain.State) domain.State {
	s.SelectedOption = nil
	s.IsAnswered = false
	s.IsCorrect = false
	s.RewardType = domain.RewardNone
	s.UserMatches = nil
	s.DraggedItem = ""
	return s
}

func (e *Engine) present(s domain.State) domain.State {
	q, ok := s.CurrentQuestion()
	if !ok {
		s.PresentedOptions = nil
		s.PresentedAnswerIndex = -1
		return s
	}
	p := Prepare(e.rng, q)
	s.PresentedOptions = p.Options
	s.PresentedAnswerIndex = p.AnswerIndex
	return s
}

// draw shuffles the level pool minus completed questions, recycling the full
// pool when nothing new is left, and truncates to the session length.
func (e *Engine) draw(level int, completed []string) []domain.Question {
	pool := e.bank.Pool(level)
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}
	fresh := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if !done[q.ID] {
			fresh = append(fresh, q)
		}
	}
	if len(fresh) == 0 {
		fresh = pool
	}
	drawn := Shuffle(e.rng, fresh)
	if len(drawn) > e.rules.QuestionsPerSession {
		drawn = drawn[:e.rules.QuestionsPerSession]
	}
	return drawn
}
