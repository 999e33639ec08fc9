package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"routeiq/internal/domain"
	"routeiq/internal/hub"
	"routeiq/internal/store"
)

type WSHandler struct {
	hub    *hub.Hub
	store  *store.Store
	alerts AlertSource
	logger *slog.Logger
}

func NewWSHandler(h *hub.Hub, s *store.Store, alerts AlertSource, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: h, store: s, alerts: alerts, logger: logger.With("handler", "websocket")}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SubscribePayload struct {
	Session string `json:"session"`
}

type SnapshotMessage struct {
	Type    string          `json:"type"`
	Payload SnapshotPayload `json:"payload"`
}

type SnapshotPayload struct {
	Session       string         `json:"session,omitempty"`
	Alerts        []domain.Alert `json:"alerts"`
	ServiceAlerts []domain.Alert `json:"service_alerts"`
}

type PongMessage struct {
	Type string `json:"type"`
}

// ServeWS streams service alerts and, when ?session= names a live session,
// that session's search, selection and alert events.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID != "" {
		if _, ok := h.store.Get(sessionID); !ok {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	client := hub.NewClient(uuid.New().String(), 64)
	h.hub.Register(client)
	h.hub.Subscribe(client, hub.TopicService)
	if sessionID != "" {
		h.hub.Subscribe(client, sessionID)
	}
	h.sendSnapshot(client, sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			continue
		}

		switch msg.Type {
		case "subscribe":
			var payload SubscribePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Session == "" {
				continue
			}
			if _, ok := h.store.Get(payload.Session); !ok {
				continue
			}
			h.hub.Subscribe(client, payload.Session)
			h.sendSnapshot(client, payload.Session)

		case "unsubscribe":
			var payload SubscribePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Session == "" {
				continue
			}
			h.hub.Unsubscribe(client, payload.Session)

		case "ping":
			h.sendPong(client)
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) sendSnapshot(client *hub.Client, sessionID string) {
	payload := SnapshotPayload{
		Session:       sessionID,
		Alerts:        []domain.Alert{},
		ServiceAlerts: []domain.Alert{},
	}
	if sessionID != "" {
		if sess, ok := h.store.Get(sessionID); ok {
			payload.Alerts = sess.Alerts()
		}
	}
	if h.alerts != nil {
		if alerts := h.alerts.Alerts(); len(alerts) > 0 {
			payload.ServiceAlerts = alerts
		}
	}

	data, err := json.Marshal(SnapshotMessage{Type: "snapshot", Payload: payload})
	if err != nil {
		return
	}

	if !client.Enqueue(data) {
		h.logger.Debug("failed to send snapshot", "client_id", client.ID)
	}
}

func (h *WSHandler) sendPong(client *hub.Client) {
	msg := PongMessage{Type: "pong"}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	client.Enqueue(data)
}
