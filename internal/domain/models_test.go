package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestQuestionUnmarshalFlatFormat(t *testing.T) {
	raw := `[
		{"id":"c1","question":"Capital of France?","options":["Rome","Paris","Oslo"],"answer":1},
		{"id":"d1","type":"drag-match","question":"Match the animals","image":"farm.png",
		 "sourceImages":[{"id":"s1","src":"cow.png"},{"id":"s2","src":"hen.png"}],
		 "targetSlots":[{"id":"t1","src":"milk.png"},{"id":"t2","src":"egg.png"}],
		 "answer":[{"source":"s1","target":"t1"},{"source":"s2","target":"t2"}]}
	]`
	var qs []Question
	if err := json.Unmarshal([]byte(raw), &qs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}

	c := qs[0]
	if c.Kind != KindChoice || c.Choice == nil || c.Match != nil {
		t.Fatalf("expected choice body, got %+v", c)
	}
	if c.CorrectOption() != "Paris" {
		t.Fatalf("expected Paris, got %q", c.CorrectOption())
	}

	d := qs[1]
	if d.Kind != KindDragMatch || d.Match == nil || d.Choice != nil {
		t.Fatalf("expected drag-match body, got %+v", d)
	}
	if d.ImageRef != "farm.png" || len(d.Match.Sources) != 2 || d.Match.Targets[1].Ref != "egg.png" {
		t.Fatalf("unexpected drag-match fields: %+v", d.Match)
	}
	for _, q := range qs {
		if err := q.Validate(); err != nil {
			t.Fatalf("validate %s: %v", q.ID, err)
		}
	}
}

func TestQuestionUnmarshalRejectsBadAnswers(t *testing.T) {
	cases := map[string]string{
		"choice with pairs": `{"id":"x","question":"?","options":["a","b"],"answer":[{"source":"s","target":"t"}]}`,
		"match with index":  `{"id":"x","type":"drag-match","question":"?","answer":2}`,
		"unknown type":      `{"id":"x","type":"essay","question":"?","answer":0}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var q Question
			err := json.Unmarshal([]byte(raw), &q)
			if !errors.Is(err, ErrInvalidQuestion) {
				t.Fatalf("expected ErrInvalidQuestion, got %v", err)
			}
		})
	}
}

func TestQuestionValidate(t *testing.T) {
	sources := []Item{{ID: "s1"}, {ID: "s2"}}
	targets := []Item{{ID: "t1"}, {ID: "t2"}}
	cases := []struct {
		name string
		q    Question
	}{
		{"missing id", Question{Kind: KindChoice, Choice: &ChoiceBody{Options: []string{"a", "b"}}}},
		{"one option", Question{ID: "q", Kind: KindChoice, Choice: &ChoiceBody{Options: []string{"a"}}}},
		{"answer out of range", Question{ID: "q", Kind: KindChoice, Choice: &ChoiceBody{Options: []string{"a", "b"}, AnswerIndex: 2}}},
		{"choice without body", Question{ID: "q", Kind: KindChoice}},
		{"unknown pair item", Question{ID: "q", Kind: KindDragMatch, Match: &MatchBody{
			Sources: sources, Targets: targets,
			Answer: []Pair{{Source: "s1", Target: "t1"}, {Source: "s9", Target: "t2"}},
		}}},
		{"not one to one", Question{ID: "q", Kind: KindDragMatch, Match: &MatchBody{
			Sources: sources, Targets: targets,
			Answer: []Pair{{Source: "s1", Target: "t1"}, {Source: "s1", Target: "t2"}},
		}}},
		{"target uncovered", Question{ID: "q", Kind: KindDragMatch, Match: &MatchBody{
			Sources: sources, Targets: targets,
			Answer: []Pair{{Source: "s1", Target: "t1"}},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.q.Validate(); !errors.Is(err, ErrInvalidQuestion) {
				t.Fatalf("expected ErrInvalidQuestion, got %v", err)
			}
		})
	}
}

func TestMatchBodyMatches(t *testing.T) {
	m := &MatchBody{Answer: []Pair{{Source: "a", Target: "1"}, {Source: "b", Target: "2"}}}

	if !m.Matches([]Pair{{Source: "b", Target: "2"}, {Source: "a", Target: "1"}}) {
		t.Fatalf("expected order-independent match")
	}
	if m.Matches([]Pair{{Source: "a", Target: "1"}}) {
		t.Fatalf("expected partial match to fail")
	}
	if m.Matches([]Pair{{Source: "a", Target: "2"}, {Source: "b", Target: "1"}}) {
		t.Fatalf("expected swapped targets to fail")
	}
	if m.Matches([]Pair{{Source: "a", Target: "1"}, {Source: "a", Target: "1"}}) {
		t.Fatalf("expected duplicated pair to fail")
	}
}

func TestBankPoolAndValidate(t *testing.T) {
	q := func(id string) Question {
		return Question{ID: id, Kind: KindChoice, Choice: &ChoiceBody{Options: []string{"a", "b"}}}
	}
	bank := Bank{1: {q("a"), q("b")}, 3: {q("c")}}

	if got := bank.Pool(2); len(got) != 2 {
		t.Fatalf("expected level 1 fallback, got %d questions", len(got))
	}
	if got := bank.Pool(3); len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("expected level 3 pool, got %v", got)
	}
	if levels := bank.Levels(); len(levels) != 2 || levels[0] != 1 || levels[1] != 3 {
		t.Fatalf("unexpected levels %v", levels)
	}
	if err := bank.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	bank[3] = append(bank[3], q("a"))
	if err := bank.Validate(); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	if err := (Bank{2: {q("x")}}).Validate(); !errors.Is(err, ErrBankEmpty) {
		t.Fatalf("expected ErrBankEmpty, got %v", err)
	}
}
