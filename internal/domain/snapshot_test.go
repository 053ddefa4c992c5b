package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	selected := 2
	s := State{
		Screen:       ScreenQuiz,
		CurrentLevel: 2,
		SessionQuestions: []Question{
			{ID: "c1", Text: "Pick", Kind: KindChoice, Choice: &ChoiceBody{Options: []string{"x", "y", "z"}, AnswerIndex: 1}},
			{ID: "d1", Text: "Drag", ImageRef: "bg.png", Kind: KindDragMatch, Match: &MatchBody{
				Sources: []Item{{ID: "s1", Ref: "a.png"}},
				Targets: []Item{{ID: "t1", Ref: "b.png"}},
				Answer:  []Pair{{Source: "s1", Target: "t1"}},
			}},
		},
		QuestionIndex:          0,
		PresentedOptions:       []string{"z", "y", "x"},
		PresentedAnswerIndex:   1,
		SelectedOption:         &selected,
		UserMatches:            []Pair{},
		DraggedItem:            "s1",
		IsAnswered:             true,
		RewardType:             RewardDiamond,
		Coins:                  47,
		Diamonds:               1,
		Errors:                 3,
		TotalQuestionsAnswered: 9,
		CompletedQuestions:     []string{"c0"},
		IsMuted:                true,
	}

	raw, err := EncodeState(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeState(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, s)
	}
}

func TestDecodeStateRejectsInvalidPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":         `{"screen":`,
		"unknown screen":   `{"screen":"lobby","currentLevel":1}`,
		"zero level":       `{"screen":"start","currentLevel":0}`,
		"negative coins":   `{"screen":"start","currentLevel":1,"coins":-1}`,
		"quiz no question": `{"screen":"quiz","currentLevel":1,"sessionQuestions":[],"questionIndex":0}`,
		"broken question":  `{"screen":"start","currentLevel":1,"sessionQuestions":[{"id":"q","question":"?","options":["a"],"answer":0}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeState([]byte(raw)); !errors.Is(err, ErrInvalidState) {
				t.Fatalf("expected ErrInvalidState, got %v", err)
			}
		})
	}
}
