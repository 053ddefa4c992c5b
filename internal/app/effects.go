package app

import (
	"strings"

	"trivia-quest-service/internal/analytics"
	"trivia-quest-service/internal/domain"
)

type effects struct {
	sounds []domain.Sound
	events []analytics.Kind
}

// entered reports whether the transition put the session on screen anew.
// Restarting a level and reward chaining re-enter the screen they were on.
func entered(prev, next domain.State, ev domain.Event, screen domain.Screen) bool {
	if next.Screen != screen {
		return false
	}
	if prev.Screen != screen {
		return true
	}
	switch ev.(type) {
	case domain.StartLevel, domain.NextQuestion:
		return true
	}
	return false
}

func deriveEffects(prev, next domain.State, ev domain.Event) effects {
	var fx effects

	if entered(prev, next, ev, domain.ScreenLevelSplash) {
		fx.sounds = append(fx.sounds, domain.SoundLevelSplash)
		fx.events = append(fx.events, analytics.KindQuizStart, analytics.KindLevelProgress)
	}

	if next.IsAnswered && !prev.IsAnswered {
		if next.IsCorrect {
			fx.sounds = append(fx.sounds, domain.SoundNotification)
			fx.events = append(fx.events, analytics.KindCorrectAnswer)
		} else {
			fx.sounds = append(fx.sounds, domain.SoundReject)
			fx.events = append(fx.events, analytics.KindIncorrectAnswer)
		}
	}

	if entered(prev, next, ev, domain.ScreenReward) {
		switch next.RewardType {
		case domain.RewardCoin:
			fx.sounds = append(fx.sounds, domain.SoundCoin)
		case domain.RewardDiamond:
			fx.sounds = append(fx.sounds, domain.SoundDiamond)
		}
		if next.RewardType != domain.RewardNone {
			fx.events = append(fx.events, analytics.KindRewardEarned)
		}
	}

	switch {
	case entered(prev, next, ev, domain.ScreenWin):
		fx.sounds = append(fx.sounds, domain.SoundWin)
		fx.events = append(fx.events, analytics.KindQuizComplete)
	case entered(prev, next, ev, domain.ScreenGameOver):
		fx.sounds = append(fx.sounds, domain.SoundReject)
		fx.events = append(fx.events, analytics.KindQuizComplete)
	}

	if next.IsMuted {
		fx.sounds = nil
	}
	return fx
}

func (s *Session) analyticsEvent(kind analytics.Kind, next domain.State) analytics.Event {
	ev := analytics.Event{
		Kind:     kind,
		RunID:    s.runID,
		Player:   s.id,
		At:       s.cfg.Clock.Now(),
		Level:    next.CurrentLevel,
		Coins:    next.Coins,
		Diamonds: next.Diamonds,
		Errors:   next.Errors,
		Answered: next.TotalQuestionsAnswered,
	}

	switch kind {
	case analytics.KindCorrectAnswer, analytics.KindIncorrectAnswer:
		if q, ok := next.CurrentQuestion(); ok {
			ev.QuestionID = q.ID
			ev.QuestionText = q.Text
			ev.SelectedValue, ev.CorrectValue = answerValues(q, next)
		}
	case analytics.KindRewardEarned:
		ev.Reward = string(next.RewardType)
	case analytics.KindQuizComplete:
		ev.Outcome = analytics.OutcomeGameOver
		if next.Screen == domain.ScreenWin {
			ev.Outcome = analytics.OutcomeWin
		}
		ev.DurationSeconds = ev.At.Sub(s.startedAt).Seconds()
	}
	return ev
}

// answerValues renders the submitted and expected answers as display text.
func answerValues(q domain.Question, st domain.State) (selected, correct string) {
	switch q.Kind {
	case domain.KindChoice:
		return st.SelectedValue(), q.CorrectOption()
	case domain.KindDragMatch:
		if q.Match != nil {
			return formatPairs(st.UserMatches), formatPairs(q.Match.Answer)
		}
	}
	return "", ""
}

func formatPairs(pairs []domain.Pair) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.Source + "->" + p.Target
	}
	return strings.Join(parts, ",")
}
