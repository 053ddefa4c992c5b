package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// QuestionKind discriminates the question variants.
type QuestionKind string

const (
	KindChoice    QuestionKind = "choice"
	KindDragMatch QuestionKind = "drag-match"
)

// Question is an immutable bank record. Exactly one of Choice or Match is set,
// matching Kind.
type Question struct {
	ID       string
	Text     string
	ImageRef string
	Kind     QuestionKind
	Choice   *ChoiceBody
	Match    *MatchBody
}

// ChoiceBody holds the options of a multiple-choice question in storage order.
type ChoiceBody struct {
	Options     []string
	AnswerIndex int
}

// Item is a draggable source or a drop target.
type Item struct {
	ID  string `json:"id"`
	Ref string `json:"src"`
}

// Pair links a source item to a target slot.
type Pair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// MatchBody holds a drag-match question. Answer covers every target exactly once.
type MatchBody struct {
	Sources []Item
	Targets []Item
	Answer  []Pair
}

// CorrectOption returns the display text of the correct option.
func (q Question) CorrectOption() string {
	if q.Choice == nil || q.Choice.AnswerIndex < 0 || q.Choice.AnswerIndex >= len(q.Choice.Options) {
		return ""
	}
	return q.Choice.Options[q.Choice.AnswerIndex]
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	}
	switch q.Kind {
	case KindChoice:
		if q.Choice == nil || q.Match != nil {
			return fmt.Errorf("%w: %s: choice body mismatch", ErrInvalidQuestion, q.ID)
		}
		if len(q.Choice.Options) < 2 {
			return fmt.Errorf("%w: %s: needs at least 2 options", ErrInvalidQuestion, q.ID)
		}
		if q.Choice.AnswerIndex < 0 || q.Choice.AnswerIndex >= len(q.Choice.Options) {
			return fmt.Errorf("%w: %s: answer index %d out of range", ErrInvalidQuestion, q.ID, q.Choice.AnswerIndex)
		}
	case KindDragMatch:
		if q.Match == nil || q.Choice != nil {
			return fmt.Errorf("%w: %s: drag-match body mismatch", ErrInvalidQuestion, q.ID)
		}
		return q.Match.validate(q.ID)
	default:
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidQuestion, q.ID, q.Kind)
	}
	return nil
}

func (m *MatchBody) validate(id string) error {
	sources := make(map[string]bool, len(m.Sources))
	for _, s := range m.Sources {
		sources[s.ID] = true
	}
	targets := make(map[string]bool, len(m.Targets))
	for _, t := range m.Targets {
		targets[t.ID] = true
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: %s: no target slots", ErrInvalidQuestion, id)
	}
	usedSource := make(map[string]bool, len(m.Answer))
	usedTarget := make(map[string]bool, len(m.Answer))
	for _, p := range m.Answer {
		if !sources[p.Source] || !targets[p.Target] {
			return fmt.Errorf("%w: %s: answer pair %s->%s references unknown item", ErrInvalidQuestion, id, p.Source, p.Target)
		}
		if usedSource[p.Source] || usedTarget[p.Target] {
			return fmt.Errorf("%w: %s: answer pairs are not one-to-one", ErrInvalidQuestion, id)
		}
		usedSource[p.Source] = true
		usedTarget[p.Target] = true
	}
	if len(usedTarget) != len(targets) {
		return fmt.Errorf("%w: %s: answer does not cover every target", ErrInvalidQuestion, id)
	}
	return nil
}

// Matches reports whether the proposed pairs are exactly the required ones.
func (m *MatchBody) Matches(proposed []Pair) bool {
	if m == nil || len(proposed) != len(m.Answer) {
		return false
	}
	have := make(map[Pair]bool, len(proposed))
	for _, p := range proposed {
		have[p] = true
	}
	for _, want := range m.Answer {
		if !have[want] {
			return false
		}
	}
	return true
}

// questionJSON is the flat bank format. "answer" is an index for choice
// questions and a list of pairs for drag-match questions.
type questionJSON struct {
	ID      string          `json:"id"`
	Text    string          `json:"question"`
	Image   string          `json:"image,omitempty"`
	Type    QuestionKind    `json:"type,omitempty"`
	Options []string        `json:"options,omitempty"`
	Sources []Item          `json:"sourceImages,omitempty"`
	Targets []Item          `json:"targetSlots,omitempty"`
	Answer  json.RawMessage `json:"answer"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	out := questionJSON{ID: q.ID, Text: q.Text, Image: q.ImageRef, Type: q.Kind}
	var answer any
	switch {
	case q.Choice != nil:
		out.Options = q.Choice.Options
		answer = q.Choice.AnswerIndex
	case q.Match != nil:
		out.Sources = q.Match.Sources
		out.Targets = q.Match.Targets
		answer = q.Match.Answer
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return nil, err
	}
	out.Answer = raw
	return json.Marshal(out)
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var in questionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind := in.Type
	if kind == "" {
		kind = KindChoice
	}
	*q = Question{ID: in.ID, Text: in.Text, ImageRef: in.Image, Kind: kind}
	switch kind {
	case KindChoice:
		body := &ChoiceBody{Options: in.Options}
		if err := json.Unmarshal(in.Answer, &body.AnswerIndex); err != nil {
			return fmt.Errorf("%w: %s: choice answer: %v", ErrInvalidQuestion, in.ID, err)
		}
		q.Choice = body
	case KindDragMatch:
		body := &MatchBody{Sources: in.Sources, Targets: in.Targets}
		if err := json.Unmarshal(in.Answer, &body.Answer); err != nil {
			return fmt.Errorf("%w: %s: drag-match answer: %v", ErrInvalidQuestion, in.ID, err)
		}
		q.Match = body
	default:
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidQuestion, in.ID, kind)
	}
	return nil
}

// Bank is the static question collection keyed by level.
type Bank map[int][]Question

// Pool returns the questions of a level, falling back to level 1.
func (b Bank) Pool(level int) []Question {
	if qs, ok := b[level]; ok && len(qs) > 0 {
		return qs
	}
	return b[1]
}

// Levels returns the configured levels in ascending order.
func (b Bank) Levels() []int {
	levels := make([]int, 0, len(b))
	for l := range b {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// Validate checks every question and requires unique ids across the bank.
func (b Bank) Validate() error {
	if len(b[1]) == 0 {
		return ErrBankEmpty
	}
	seen := make(map[string]int)
	for _, level := range b.Levels() {
		if level < 1 {
			return fmt.Errorf("%w: level %d", ErrInvalidQuestion, level)
		}
		for _, q := range b[level] {
			if err := q.Validate(); err != nil {
				return err
			}
			if prev, dup := seen[q.ID]; dup {
				return fmt.Errorf("%w: duplicate id %s in levels %d and %d", ErrInvalidQuestion, q.ID, prev, level)
			}
			seen[q.ID] = level
		}
	}
	return nil
}
