package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"trivia-quest-service/internal/app"
	"trivia-quest-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type soundPayload struct {
	Name domain.Sound `json:"name"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var eventDecoders = map[string]func(json.RawMessage) (domain.Event, error){
	"startLevel":     decodeEvent[domain.StartLevel],
	"setScreen":      decodeEvent[domain.SetScreen],
	"selectOption":   decodeEvent[domain.SelectOption],
	"setUserMatch":   decodeEvent[domain.SetUserMatch],
	"setDraggedItem": decodeEvent[domain.SetDraggedItem],
	"checkAnswer":    decodeEvent[domain.CheckAnswer],
	"nextQuestion":   decodeEvent[domain.NextQuestion],
	"toggleMute":     decodeEvent[domain.ToggleMute],
}

// decodeEvent reads a payload into E. A missing payload yields the zero event.
func decodeEvent[E domain.Event](raw json.RawMessage) (domain.Event, error) {
	var ev E
	if len(raw) == 0 || string(raw) == "null" {
		return ev, nil
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return ev, nil
}

func parseInbound(msg inboundMessage) (domain.Event, error) {
	decode, ok := eventDecoders[msg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEvent, msg.Type)
	}
	return decode(msg.Payload)
}

// ServeWS upgrades HTTP requests to websockets and wires them into the player's game session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		http.Error(w, "missing player", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Join(r.Context(), playerID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Release(playerID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// unblocks the read loop
				conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				msgs := make([]outboundMessage[any], 0, 1+len(update.Sounds))
				msgs = append(msgs, outboundMessage[any]{Type: "state", Payload: update.State})
				for _, sound := range update.Sounds {
					msgs = append(msgs, outboundMessage[any]{Type: "sound", Payload: soundPayload{Name: sound}})
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(err error) {
		select {
		case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}:
		case <-writerDone:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ev, err := parseInbound(inbound)
		if err != nil {
			reply(err)
			continue
		}
		if _, err := h.service.Dispatch(r.Context(), playerID, ev); err != nil {
			reply(err)
			if errors.Is(err, domain.ErrSessionClosed) || errors.Is(err, domain.ErrSessionNotFound) {
				break
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
