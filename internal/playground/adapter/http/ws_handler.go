package http

import (
	"context"
	"strings"
	"time"

	"data-playground/internal/playground/domain/model"
	"data-playground/internal/playground/usecase"
	"data-playground/internal/shared/logger"
	"data-playground/internal/shared/response"
	"data-playground/internal/shared/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	localsCollectionID = "ws_collection_id"
	localsPrincipal    = "ws_principal"

	pingInterval = 30 * time.Second
	readTimeout  = 2 * pingInterval
	writeTimeout = 10 * time.Second
)

// WebSocketMessage is a frame sent to feed clients
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WebSocketHandler streams the change events of one collection
type WebSocketHandler struct {
	playground usecase.PlaygroundUsecaseInterface
	realtime   usecase.RealtimeUsecase
	buffer     int
	log        logger.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(pg usecase.PlaygroundUsecaseInterface, rt usecase.RealtimeUsecase, buffer int, log logger.Logger) *WebSocketHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if buffer <= 0 {
		buffer = 16
	}
	return &WebSocketHandler{
		playground: pg,
		realtime:   rt,
		buffer:     buffer,
		log:        log.WithComponent("collections_ws"),
	}
}

// RegisterRoutes mounts GET <path>/:id
func (h *WebSocketHandler) RegisterRoutes(router fiber.Router, path string, protect fiber.Handler) {
	router.Get(path+"/:id", protect, h.authorizeUpgrade, websocket.New(h.handleConnection))
}

// authorizeUpgrade requires a websocket upgrade and read access to :id
func (h *WebSocketHandler) authorizeUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	id := collectionID(c)
	if _, err := h.playground.AuthorizeRead(c.UserContext(), id); err != nil {
		return response.Error(c, h.log, err)
	}
	principal, err := utils.GetPrincipalFromContext(c.UserContext())
	if err != nil {
		return fiber.ErrUnauthorized
	}
	c.Locals(localsCollectionID, id)
	c.Locals(localsPrincipal, principal)
	return c.Next()
}

func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	collectionID, _ := conn.Locals(localsCollectionID).(string)
	principal, _ := conn.Locals(localsPrincipal).(utils.Principal)
	subscriberID := uuid.NewString()

	ctx := utils.WithCollectionID(utils.WithPrincipal(context.Background(), principal), collectionID)
	ctx = utils.WithOperation(ctx, "collections.feed")
	log := h.log.WithContext(ctx)

	events := make(chan model.CollectionEvent, h.buffer)
	if err := h.realtime.Subscribe(ctx, subscriberID, collectionID, events); err != nil {
		log.Errorf("subscribe failed: %v", err)
		return
	}
	defer func() {
		_ = h.realtime.Unsubscribe(ctx, subscriberID, collectionID)
		log.Debugf("feed %s closed", subscriberID)
	}()

	done := make(chan struct{})
	go h.readLoop(conn, log, done)

	if err := h.write(conn, WebSocketMessage{Type: "subscribed", Data: fiber.Map{"collectionId": collectionID}}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case evt := <-events:
			if err := h.write(conn, WebSocketMessage{Type: "event", Data: evt}); err != nil {
				return
			}
			if reason := closesFeed(evt, principal); reason != "" {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
					time.Now().Add(writeTimeout))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// closesFeed returns why the feed must end after evt, or ""
func closesFeed(evt model.CollectionEvent, p utils.Principal) string {
	switch {
	case evt.Type == model.EventCollectionDeleted:
		return "collection deleted"
	case evt.Type == model.EventShareRemoved && p.Email != "" && strings.EqualFold(evt.Email, p.Email):
		return "access revoked"
	default:
		return ""
	}
}

// readLoop drains client frames so pongs and close frames are processed
func (h *WebSocketHandler) readLoop(conn *websocket.Conn, log logger.Logger, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("websocket read error: %v", err)
			}
			return
		}
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, msg WebSocketMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}
