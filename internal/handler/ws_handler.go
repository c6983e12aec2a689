package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/polytech/coursedesk/internal/middleware"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/response"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/polytech/coursedesk/internal/testrun"
	ws "github.com/polytech/coursedesk/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
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

// AttemptStreamHandler pushes the countdown of a running attempt.
type AttemptStreamHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewAttemptStreamHandler creates a new AttemptStreamHandler.
func NewAttemptStreamHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *AttemptStreamHandler {
	return &AttemptStreamHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/tests/:id/attempt/stream?token=
// Sends a tick every second and the result once. Closing the socket only
// unsubscribes; the attempt keeps running.
func (h *AttemptStreamHandler) Stream(c *gin.Context) {
	sess := middleware.GetSession(c)
	testID, ok := pathID(c, "id")
	if !ok {
		return
	}

	events, unsubscribe, err := h.attemptService.Watch(sess, testID)
	if err != nil {
		failFrom(c, h.log, err, response.ErrAttemptNotFound)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", sess.UserID.String()).
		Str("test_id", testID.String()).
		Logger()
	wsLog.Debug().Msg("Countdown stream opened")

	// Send the current state right away so the clock never starts blank.
	if st, err := h.attemptService.State(sess, testID); err == nil {
		if st.Result != nil {
			ws.WriteTyped(conn, ws.ResultResponse{Event: ws.EventResult, Result: st.Result})
			ws.WriteClose(conn, "attempt finished")
			return
		}
		ws.WriteTyped(conn, ws.TickResponse{
			Event:     ws.EventTick,
			Remaining: st.Remaining,
			Clock:     st.Clock,
			Expired:   st.Expired,
		})
	}

	// The reader only answers pings and notices the client going away.
	gone := make(chan struct{})
	pings := make(chan struct{}, 1)
	go func() {
		defer close(gone)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	for {
		select {
		case <-gone:
			wsLog.Debug().Msg("Countdown stream closed by client")
			return
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case ev, open := <-events:
			if !open {
				h.closeDrained(conn, sess, testID)
				return
			}
			if err := h.write(conn, ev); err != nil {
				wsLog.Debug().Err(err).Msg("Countdown write failed")
				return
			}
			if ev.Kind == testrun.EventResult {
				ws.WriteClose(conn, "attempt finished")
				return
			}
		}
	}
}

// closeDrained ends a stream whose event channel closed. The result is
// sent here if the attempt finished without it reaching the channel.
func (h *AttemptStreamHandler) closeDrained(conn *websocket.Conn, sess *session.Session, testID model.ID) {
	if st, err := h.attemptService.State(sess, testID); err == nil && st.Result != nil {
		ws.WriteTyped(conn, ws.ResultResponse{Event: ws.EventResult, Result: st.Result})
		ws.WriteClose(conn, "attempt finished")
		return
	}
	ws.WriteClose(conn, "attempt closed")
}

func (h *AttemptStreamHandler) write(conn *websocket.Conn, ev testrun.Event) error {
	switch ev.Kind {
	case testrun.EventResult:
		return ws.WriteTyped(conn, ws.ResultResponse{Event: ws.EventResult, Result: ev.Result})
	default:
		secs := int(ev.Remaining.Seconds())
		return ws.WriteTyped(conn, ws.TickResponse{
			Event:     ws.EventTick,
			Remaining: secs,
			Clock:     testrun.FormatClock(ev.Remaining),
			Expired:   secs <= 0,
		})
	}
}
