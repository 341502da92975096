package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/mcp/calc-client/internal/infrastructure/logging"
)

// doneMarker terminates each websocket response sequence so the frontend
// knows the turn is complete.
const doneMarker = "[DONE]"

// handleChat upgrades the connection and runs the chat loop: one incoming
// text message per turn, response chunks streamed back, doneMarker last.
// Turn-level failures are reported in-band so the connection survives them.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, s.acceptOptions())
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Fields{"error": err.Error()})
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	sessionID := uuid.NewString()
	log := s.logger.With(logging.Fields{"session_id": sessionID})
	log.Info("websocket connection established")

	ctx := r.Context()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				log.Info("websocket connection closed")
			} else {
				log.Warn("websocket read failed", logging.Fields{"error": err.Error()})
			}
			return
		}

		input := strings.TrimSpace(string(data))
		if input == "" {
			if err := s.send(ctx, conn, "Please provide a message."); err != nil {
				return
			}
			continue
		}

		log.Info("received message", logging.Fields{"length": len(input)})

		processErr := s.chat.ProcessMessage(ctx, input, func(chunk string) {
			if err := s.send(ctx, conn, chunk); err != nil {
				log.Warn("websocket write failed", logging.Fields{"error": err.Error()})
			}
		})
		if processErr != nil {
			log.Error("message processing failed", logging.Fields{"error": processErr.Error()})
			if err := s.send(ctx, conn, fmt.Sprintf("Error processing message: %v", processErr)); err != nil {
				return
			}
		}

		if err := s.send(ctx, conn, doneMarker); err != nil {
			return
		}
	}
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, text string) error {
	return conn.Write(ctx, websocket.MessageText, []byte(text))
}

// acceptOptions maps the configured CORS origins onto websocket origin
// checking. A "*" origin disables the check.
func (s *Server) acceptOptions() *websocket.AcceptOptions {
	patterns := make([]string, 0, len(s.cfg.Server.CORSOrigins))
	for _, origin := range s.cfg.Server.CORSOrigins {
		if origin == "*" {
			return &websocket.AcceptOptions{InsecureSkipVerify: true}
		}
		patterns = append(patterns, hostPattern(origin))
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}

// hostPattern strips the scheme from a configured origin, since websocket
// origin patterns match against the host only.
func hostPattern(origin string) string {
	if i := strings.Index(origin, "://"); i >= 0 {
		return origin[i+len("://"):]
	}
	return origin
}
