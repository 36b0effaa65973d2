package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"
	apperrors "interviewsignal/pkg/errors"
	rlog "interviewsignal/pkg/logger"
	"interviewsignal/pkg/tracing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type ServerConfig struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	SendBufferSize int
	MaxMessageSize int64
	// AllowedOrigins restricts browser origins; empty allows any.
	AllowedOrigins    []string
	MessagesPerSecond float64
	MessageBurst      int
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		PingInterval:   25 * time.Second,
		PongTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		SendBufferSize: 64,
		MaxMessageSize: 64 * 1024,
	}
}

type WebSocketServer struct {
	hub      *Hub
	coord    ports.SignalCoordinator
	cfg      ServerConfig
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
	ctxLog   *rlog.ContextLogger

	// handlers counts connections still unwinding; closing rejects new ones.
	mu       sync.Mutex
	closing  bool
	handlers sync.WaitGroup
}

func NewWebSocketServer(hub *Hub, coord ports.SignalCoordinator, cfg ServerConfig, logger *zap.SugaredLogger) *WebSocketServer {
	s := &WebSocketServer{
		hub:    hub,
		coord:  coord,
		cfg:    cfg,
		logger: logger,
		ctxLog: rlog.NewContextLogger(logger.Desugar()),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *WebSocketServer) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// HandleWebSocket admits the connection before upgrading. A rejected token
// never gets a socket.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		writeHTTPError(w, apperrors.NewAppError(apperrors.ErrCodeServiceUnavailable, "server shutting down", http.StatusServiceUnavailable).WithReason("shutting_down"))
		return
	}
	defer s.handlers.Done()

	identity, err := s.coord.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		writeHTTPError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "user_id", identity.UserID, "error", err)
		return
	}

	session := domain.NewConnection(domain.ConnectionID(uuid.NewString()), identity)
	c := newClient(conn, session, s.cfg, s.logger)

	ctx, cancel := context.WithCancel(context.Background())
	ctx = rlog.WithUserID(ctx, identity.UserID.String())
	ctx = rlog.WithConnectionID(ctx, session.ID.String())
	defer cancel()

	s.hub.add(c)
	go c.writePump()
	s.coord.Connect(ctx, session)

	c.readPump(ctx, s.cfg.MaxMessageSize,
		func() { s.coord.KeepAlive(ctx, session) },
		func(data []byte) { s.dispatch(ctx, c, data) },
	)

	c.shutdown(websocket.CloseNormalClosure, "")
	s.hub.remove(c)
	s.coord.Disconnect(ctx, session)
}

// dispatch handles one client frame. Failures never escape: they become a
// failed ack or an interview:error event.
func (s *WebSocketServer) dispatch(ctx context.Context, c *client, data []byte) {
	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil || in.Event == "" {
		s.reply(c, in.Event, in.Ack, nil, apperrors.NewValidationError(domain.ReasonInvalidParameters, "malformed frame"))
		return
	}

	if c.limiter != nil && !c.limiter.Allow() {
		s.ctxLog.LogWarn(ctx, "client message rate exceeded", zap.String("event", in.Event))
		s.reply(c, in.Event, in.Ack, nil, apperrors.NewRateLimitError())
		return
	}

	ctx, span := tracing.TraceSignalEvent(ctx, in.Event, c.session.UserID().String(), c.session.ID.String())
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			s.ctxLog.LogError(ctx, fmt.Errorf("panic: %v", r), "panic handling event", zap.String("event", in.Event))
			s.reply(c, in.Event, in.Ack, nil, apperrors.NewInternalError("internal error"))
		}
	}()

	result, err := s.route(ctx, c.session, in)
	if errors.Is(err, domain.ErrConnectionClosed) {
		return
	}
	if err != nil {
		tracing.RecordError(ctx, err)
		s.ctxLog.LogDebug(ctx, "event failed", zap.String("event", in.Event), zap.Error(err))
	}
	s.reply(c, in.Event, in.Ack, result, err)
}

func (s *WebSocketServer) route(ctx context.Context, conn *domain.Connection, in inboundFrame) (interface{}, error) {
	switch in.Event {
	case domain.EventJoin:
		var req domain.RoomRequest
		if err := decode(in.Data, &req); err != nil {
			return nil, err
		}
		return s.coord.Join(ctx, conn, req)

	case domain.EventLeave:
		var req domain.RoomRequest
		if err := decode(in.Data, &req); err != nil {
			return nil, err
		}
		if err := s.coord.Leave(ctx, conn, req); err != nil {
			return nil, err
		}
		return successPayload{Success: true}, nil

	case domain.EventOffer, domain.EventAnswer, domain.EventICECandidate, domain.EventSignal:
		var frame relayFrame
		if err := decode(in.Data, &frame); err != nil {
			return nil, err
		}
		signalType, _ := domain.SignalTypeForEvent(in.Event)
		return s.coord.Relay(ctx, conn, domain.SignalEnvelope{
			Type:        signalType,
			To:          frame.To,
			RoomID:      frame.RoomID,
			InterviewID: frame.InterviewID,
			Payload:     frame.Payload,
		})

	case domain.EventStartRecording, domain.EventStopRecording:
		var req domain.RoomRequest
		if err := decode(in.Data, &req); err != nil {
			return nil, err
		}
		if err := s.coord.SetRecording(ctx, conn, req, in.Event == domain.EventStartRecording); err != nil {
			return nil, err
		}
		return successPayload{Success: true}, nil

	case domain.EventEnd:
		var req domain.RoomRequest
		if err := decode(in.Data, &req); err != nil {
			return nil, err
		}
		if err := s.coord.EndInterview(ctx, conn, req); err != nil {
			return nil, err
		}
		return successPayload{Success: true}, nil

	case domain.EventChatMessage:
		var req domain.ChatRequest
		if err := decode(in.Data, &req); err != nil {
			return nil, err
		}
		msg, err := s.coord.SendChat(ctx, conn, req)
		if err != nil {
			return nil, err
		}
		return successPayload{Success: true, Message: msg}, nil

	default:
		return nil, apperrors.NewValidationError(domain.ReasonUnknownEvent, fmt.Sprintf("unknown event %q", in.Event))
	}
}

// reply sends the ack for a frame that asked for one. Errors on frames
// without an ack id go out as interview:error.
func (s *WebSocketServer) reply(c *client, event, ack string, result interface{}, err error) {
	var (
		msg    []byte
		encErr error
	)
	switch {
	case err != nil && ack != "":
		msg, encErr = encodeFrame(domain.EventAck, ack, newErrorPayload(event, err))
	case err != nil:
		msg, encErr = encodeFrame(domain.EventError, "", newErrorPayload(event, err))
	case ack != "":
		msg, encErr = encodeFrame(domain.EventAck, ack, result)
	default:
		return
	}
	if encErr != nil {
		s.logger.Errorw("failed to encode reply", "event", event, "error", encErr)
		return
	}
	_ = c.enqueue(msg)
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return apperrors.NewValidationError(domain.ReasonMissingParameters, "data is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewValidationError(domain.ReasonInvalidParameters, "invalid data")
	}
	return nil
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter browsers must use for WebSocket upgrades.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func writeHTTPError(w http.ResponseWriter, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		appErr = apperrors.NewUnauthorizedError("unauthorized")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   string(appErr.Code),
		"reason":  appErr.Reason,
		"message": appErr.Message,
	})
}

func (s *WebSocketServer) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().Unix(),
		"connections": s.hub.Count(),
		"rooms":       s.hub.RoomCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func (s *WebSocketServer) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.handlers.Add(1)
	return true
}

// Shutdown closes every live connection and waits until each has run the
// normal disconnect path, or ctx is done.
func (s *WebSocketServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.hub.CloseAll("server shutting down")

	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warnw("connections still closing at shutdown deadline", "connections", s.hub.Count())
		return ctx.Err()
	}
}
