package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"gamerec-quiz-service/internal/app"
	"gamerec-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
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

type answerPayload struct {
	OptionIndex int `json:"optionIndex"`
}

type resultsPayload struct {
	TopN int `json:"topN"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz
// use cases: one socket drives one quiz session from start to recommendations.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	catalogID := r.URL.Query().Get("catalogId")
	sessionID := r.URL.Query().Get("sessionId")
	if catalogID == "" {
		http.Error(w, "missing catalogId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	started, err := h.service.Start(r.Context(), catalogID, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID = started.SessionID

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	defer h.service.End(r.Context(), sessionID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// A single writer goroutine owns the connection; everything else funnels
	// through send to avoid concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
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
				select {
				case send <- outboundMessage[any]{Type: "progress", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: started}
	h.sendNextStep(r, send, sessionID, started)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			progress, err := h.service.Answer(r.Context(), sessionID, payload.OptionIndex)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			h.sendNextStep(r, send, sessionID, progress)
		case "reset":
			progress, err := h.service.Reset(r.Context(), sessionID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			h.sendNextStep(r, send, sessionID, progress)
		case "results":
			var payload resultsPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid results payload"}}
					continue
				}
			}
			results, err := h.service.Results(r.Context(), sessionID, payload.TopN)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "recommendations", Payload: results}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// sendNextStep pushes whatever the client should render next: the current
// question while the quiz runs, the ranked recommendations once it completes.
func (h *WSHandler) sendNextStep(r *http.Request, send chan<- outboundMessage[any], sessionID string, progress domain.Progress) {
	if progress.Complete {
		results, err := h.service.Results(r.Context(), sessionID, 0)
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			return
		}
		send <- outboundMessage[any]{Type: "recommendations", Payload: results}
		return
	}

	question, err := h.service.CurrentQuestion(r.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrQuizComplete) {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
		return
	}
	send <- outboundMessage[any]{Type: "question", Payload: question}
}
