package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trivia-quest-service/internal/app"
	"trivia-quest-service/internal/domain"
	"trivia-quest-service/internal/game"
	"trivia-quest-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketGameFlow(t *testing.T) {
	service := app.NewGameService(
		memory.NewSessionStore(),
		memory.NewBankRepository(memory.NewStaticBankLoader(sampleBank()), time.Minute),
		memory.NewStateStore(),
		app.Options{
			Rules:       game.DefaultRules(),
			SplashDelay: 20 * time.Millisecond,
			RewardDelay: 20 * time.Millisecond,
		},
	)
	server := httptest.NewServer(NewMux(NewWSHandler(service), nil))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?player=p1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the current state first.
	st := readState(t, conn, func(s domain.State) bool { return true })
	if st.Screen != domain.ScreenStart {
		t.Fatalf("expected start screen, got %s", st.Screen)
	}

	send(t, conn, "startLevel", map[string]any{"level": 1})
	if name := readSound(t, conn); name != string(domain.SoundLevelSplash) {
		t.Fatalf("expected levelSplash sound, got %s", name)
	}

	// The splash timer moves the game on without client input.
	st = readState(t, conn, func(s domain.State) bool { return s.Screen == domain.ScreenQuiz })

	send(t, conn, "selectOption", map[string]any{"index": st.PresentedAnswerIndex})
	send(t, conn, "checkAnswer", nil)
	st = readState(t, conn, func(s domain.State) bool { return s.IsAnswered })
	if !st.IsCorrect {
		t.Fatalf("expected a correct answer, got %+v", st)
	}
	if name := readSound(t, conn); name != string(domain.SoundNotification) {
		t.Fatalf("expected notification sound, got %s", name)
	}

	send(t, conn, "nextQuestion", map[string]any{"fromReward": false})
	st = readState(t, conn, func(s domain.State) bool { return s.Screen == domain.ScreenReward })
	if st.Coins != 1 {
		t.Fatalf("expected one coin, got %d", st.Coins)
	}

	send(t, conn, "teleport", nil)
	msg := readUntil(t, conn, "error")
	var payload errorPayload
	if err := json.Unmarshal(msg, &payload); err != nil || payload.Message == "" {
		t.Fatalf("expected error message, got %s", msg)
	}
}

func TestWebSocketRequiresPlayer(t *testing.T) {
	server := httptest.NewServer(NewMux(NewWSHandler(nil), nil))
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestParseInbound(t *testing.T) {
	ev, err := parseInbound(inboundMessage{Type: "setUserMatch", Payload: json.RawMessage(`{"sourceId":"s1","targetId":"t2"}`)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m, ok := ev.(domain.SetUserMatch); !ok || m.SourceID != "s1" || m.TargetID != "t2" {
		t.Fatalf("unexpected event %#v", ev)
	}

	ev, err = parseInbound(inboundMessage{Type: "nextQuestion"})
	if err != nil || ev != (domain.NextQuestion{}) {
		t.Fatalf("expected zero next question, got %#v %v", ev, err)
	}

	if _, err := parseInbound(inboundMessage{Type: "selectOption", Payload: json.RawMessage(`{"index":"x"}`)}); err == nil {
		t.Fatalf("expected payload error")
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	for i := 0; i < 20; i++ {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == want {
			return msg.Payload
		}
	}
	t.Fatalf("no %s message received", want)
	return nil
}

func readState(t *testing.T, conn *websocket.Conn, match func(domain.State) bool) domain.State {
	t.Helper()
	for i := 0; i < 10; i++ {
		var st domain.State
		if err := json.Unmarshal(readUntil(t, conn, "state"), &st); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if match(st) {
			return st
		}
	}
	t.Fatalf("state condition never met")
	return domain.State{}
}

func readSound(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	var p soundPayload
	if err := json.Unmarshal(readUntil(t, conn, "sound"), &p); err != nil {
		t.Fatalf("decode sound: %v", err)
	}
	return string(p.Name)
}

func sampleBank() domain.Bank {
	return domain.Bank{
		1: {
			{
				ID:     "q1",
				Text:   "What is 2 + 2?",
				Kind:   domain.KindChoice,
				Choice: &domain.ChoiceBody{Options: []string{"3", "4", "5"}, AnswerIndex: 1},
			},
			{
				ID:     "q2",
				Text:   "What is 3 + 3?",
				Kind:   domain.KindChoice,
				Choice: &domain.ChoiceBody{Options: []string{"6", "7", "8"}, AnswerIndex: 0},
			},
		},
	}
}
