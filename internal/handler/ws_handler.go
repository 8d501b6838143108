package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/middleware"
	"github.com/stemsi/quizgen/internal/quiz"
	"github.com/stemsi/quizgen/internal/response"
	"github.com/stemsi/quizgen/internal/service"
	ws "github.com/stemsi/quizgen/internal/websocket"
)

const maxMessageBytes = 16 * 1024

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a client's quiz state and accepts in-quiz actions.
type WSHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(quizService *service.QuizService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		quizService: quizService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/quiz/stream?token=...
// Pushes a state event after every change (including countdown ticks) and
// accepts answer/next/previous/restart/ping actions.
func (h *WSHandler) QuizStream(c *gin.Context) {
	clientID := middleware.ClientID(c)
	if clientID == "" {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	wsLog := h.log.With().Str("client_id", clientID).Logger()
	wsLog.Info().Msg("Client connected")

	ctx, cancel := context.WithCancel(context.Background())
	updates, unsubscribe := h.quizService.Subscribe(ctx, clientID)
	// cancel before unsubscribe so pump sees a departed client, not a shutdown.
	defer func() {
		cancel()
		unsubscribe()
	}()

	go h.pump(ctx, conn, updates, wsLog)

	for {
		action, msg, err := ws.ReadMessage(conn)
		if err != nil {
			// A payload with an error means the frame arrived but was not JSON.
			if msg != nil {
				_ = ws.WriteError(conn, string(response.ErrInvalidPayload), response.GetMessage(response.ErrInvalidPayload))
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		h.dispatch(ctx, conn, clientID, action, msg, wsLog)
	}
}

// pump forwards state updates until the subscription closes or ctx ends.
// Only a subscription closed by the service while ctx is live sends going-away.
func (h *WSHandler) pump(ctx context.Context, conn *ws.Conn, updates <-chan quiz.View, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(time.Second))
				return
			}
			if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: v}); err != nil {
				log.Debug().Err(err).Msg("State push failed")
				return
			}
		}
	}
}

// dispatch runs one action. Successful actions answer through the state
// stream; only failures and pings are replied to directly.
func (h *WSHandler) dispatch(ctx context.Context, conn *ws.Conn, clientID string, action ws.Action, msg []byte, log zerolog.Logger) {
	var err error

	switch action {
	case ws.ActionPing:
		_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		return
	case ws.ActionAnswer:
		var req ws.AnswerRequest
		if jsonErr := json.Unmarshal(msg, &req); jsonErr != nil || strings.TrimSpace(req.Answer) == "" {
			_ = ws.WriteError(conn, string(response.ErrValidation), "answer is required")
			return
		}
		_, err = h.quizService.Answer(ctx, clientID, req.Answer)
	case ws.ActionNext:
		_, err = h.quizService.Next(ctx, clientID)
	case ws.ActionPrevious:
		_, err = h.quizService.Previous(ctx, clientID)
	case ws.ActionRestart:
		_, err = h.quizService.Restart(ctx, clientID)
	default:
		log.Warn().Str("action", string(action)).Msg("Unknown action")
		_ = ws.WriteError(conn, string(response.ErrInvalidPayload), "unknown action: "+string(action))
		return
	}

	if err != nil {
		_, code := quizErrorStatus(err)
		_ = ws.WriteError(conn, string(code), response.GetMessage(code))
	}
}
