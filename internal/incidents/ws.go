package incidents

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bissquit/incident-room/internal/domain"
	"github.com/bissquit/incident-room/internal/pkg/ctxlog"
	"github.com/bissquit/incident-room/internal/room"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const writeTimeout = 10 * time.Second

// WSConfig contains websocket room configuration.
type WSConfig struct {
	// AllowedOrigins restricts the websocket handshake; "*" allows any.
	AllowedOrigins []string
	// MessageRate limits inbound messages per second per connection.
	MessageRate float64
	// MessageBurst is the short-term burst allowance of the rate limit.
	MessageBurst int
}

// RoomHandler serves the live incident room endpoint.
type RoomHandler struct {
	service   *Service
	rooms     *room.Broadcaster
	config    WSConfig
	validator *validator.Validate
	upgrader  websocket.Upgrader
}

// NewRoomHandler creates a new websocket room handler.
func NewRoomHandler(service *Service, rooms *room.Broadcaster, config WSConfig) *RoomHandler {
	origins := make(map[string]bool, len(config.AllowedOrigins))
	for _, o := range config.AllowedOrigins {
		origins[o] = true
	}

	return &RoomHandler{
		service:   service,
		rooms:     rooms,
		config:    config,
		validator: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// RegisterRoutes registers the websocket room route.
func (h *RoomHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/incidents/{id}", h.ServeRoom)
}

// clientMessage is an inbound human update over the websocket.
type clientMessage struct {
	Message string `json:"message" validate:"required,min=1,max=2000"`
}

// initialStateMessage carries the incident snapshot and full timeline,
// sent once right after a connection joins the room.
type initialStateMessage struct {
	Type     string                 `json:"type"`
	Incident domain.IncidentSummary `json:"incident"`
	Timeline []domain.TimelineEvent `json:"timeline"`
}

// noticeMessage is an informational ("system") or failure ("error")
// message for one connection.
type noticeMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// wsConn adapts a websocket connection to room.Connection. The gorilla
// package permits only one concurrent writer, so sends are serialized.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Send implements room.Connection.
func (c *wsConn) Send(message any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(message)
}

// ServeRoom handles GET /ws/incidents/{id}: joins the caller to the
// incident's room, sends the initial state and then ingests human
// updates until the connection drops.
func (h *RoomHandler) ServeRoom(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid incident id", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	inc, err := h.service.GetIncident(r.Context(), id)
	if err != nil {
		_ = ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "incident not found"),
			time.Now().Add(writeTimeout),
		)
		return
	}

	conn := &wsConn{conn: ws}
	h.rooms.Connect(id, conn)
	defer h.rooms.Disconnect(id, conn)

	logger.Info("viewer joined room", "incident_id", id)

	if err := conn.Send(initialStateMessage{
		Type:     "initial_state",
		Incident: inc.Summary(),
		Timeline: inc.Timeline,
	}); err != nil {
		return
	}

	limiter := rate.NewLimiter(rate.Limit(h.config.MessageRate), h.config.MessageBurst)

	for {
		var msg clientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("room connection closed", "incident_id", id, "error", err)
			}
			return
		}

		if err := h.validator.Struct(&msg); err != nil {
			h.notify(conn, "error", "message must be 1-2000 characters")
			continue
		}

		if !limiter.Allow() {
			h.notify(conn, "error", "too many messages, slow down")
			continue
		}

		if _, err := h.service.PostUpdate(r.Context(), id, msg.Message); err != nil {
			h.notify(conn, wsErrorType(err), wsErrorText(err))
			continue
		}
	}
}

// notify sends a per-connection notice, ignoring delivery errors: if the
// connection is dead the read loop terminates on its own.
func (h *RoomHandler) notify(conn *wsConn, noticeType, message string) {
	_ = conn.Send(noticeMessage{Type: noticeType, Message: message})
}
