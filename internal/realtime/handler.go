package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

// Streams is the change/notification fan-out the handler bridges onto
// websockets.
type Streams interface {
	Subscribe(ctx context.Context, collection string, filter map[string]string) *events.Subscription
	SubscribeNotifications(ctx context.Context, identityID string) (<-chan []byte, func())
}

// InboundMessage is what a connected client sends.
type InboundMessage struct {
	Type       string `json:"type"` // "subscribe", "ping"
	Collection string `json:"collection,omitempty"`
}

// OutboundMessage is what we push to a connected client.
type OutboundMessage struct {
	Type         string              `json:"type"` // "change", "notification", "pong", "error"
	Collection   string              `json:"collection,omitempty"`
	Change       *events.ChangeEvent `json:"change,omitempty"`
	Notification json.RawMessage     `json:"notification,omitempty"`
}

var knownCollections = map[string]struct{}{
	events.CollectionDoctors:      {},
	events.CollectionAppointments: {},
	events.CollectionProducts:     {},
}

// Handler streams collection changes and per-user notifications over a
// websocket. Anonymous clients only get collection changes; appointment
// changes are scoped to the caller's own identity.
type Handler struct {
	streams Streams
	logger  *logging.Logger
}

func NewHandler(streams Streams, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{streams: streams, logger: logger}
}

// HandleWebSocket upgrades to WebSocket and streams events until the
// client disconnects.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess, _ := session.FromContext(r.Context())

	var sendMu sync.Mutex
	send := func(msg OutboundMessage) {
		sendMu.Lock()
		defer sendMu.Unlock()
		_ = websocket.JSON.Send(conn, msg)
	}

	subscribed := map[string]struct{}{}
	var wg sync.WaitGroup
	subscribe := func(collection string) {
		if _, ok := knownCollections[collection]; !ok {
			send(OutboundMessage{Type: "error", Collection: collection})
			return
		}
		if _, ok := subscribed[collection]; ok {
			return
		}
		subscribed[collection] = struct{}{}

		filter := map[string]string{}
		if collection == events.CollectionAppointments {
			if sess == nil {
				send(OutboundMessage{Type: "error", Collection: collection})
				return
			}
			filter["patient_id"] = sess.IdentityID
		}

		sub := h.streams.Subscribe(ctx, collection, filter)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sub.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case evt, ok := <-sub.C:
					if !ok {
						return
					}
					send(OutboundMessage{Type: "change", Collection: collection, Change: &evt})
				}
			}
		}()
	}

	// Initial subscriptions come from the query string; clients can add
	// more later with subscribe messages.
	for _, collection := range strings.Split(r.URL.Query().Get("collections"), ",") {
		if collection = strings.TrimSpace(collection); collection != "" {
			subscribe(collection)
		}
	}

	if sess != nil {
		notifications, stop := h.streams.SubscribeNotifications(ctx, sess.IdentityID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer stop()
			for {
				select {
				case <-ctx.Done():
					return
				case payload, ok := <-notifications:
					if !ok {
						return
					}
					send(OutboundMessage{Type: "notification", Notification: json.RawMessage(payload)})
				}
			}
		}()
		h.logger.Info("realtime: connection opened", "identity_id", sess.IdentityID)
	} else {
		h.logger.Info("realtime: anonymous connection opened")
	}

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("realtime: connection closed", "error", err)
			cancel()
			wg.Wait()
			return
		}

		switch msg.Type {
		case "ping":
			send(OutboundMessage{Type: "pong"})
		case "subscribe":
			subscribe(msg.Collection)
		}
	}
}
