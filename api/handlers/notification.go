package handlers

import (
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/eventlabs/event-reg-api/engine"
	templates "github.com/eventlabs/event-reg-api/templates/html"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// NotificationHub tracks connected participants (userId -> conn) and
// pushes lifecycle events to them. It is the engine's Notifier.
type NotificationHub struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

// NewNotificationHub creates an empty hub.
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients: make(map[string]*websocket.Conn),
	}
}

// HandleNotificationsWebSocket upgrades the connection and registers the
// participant for push notifications
func (h *NotificationHub) HandleNotificationsWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorf("WebSocket upgrade error: %v", err)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		conn.Close()
		return
	}

	h.mutex.Lock()
	h.clients[userID] = conn
	h.mutex.Unlock()
	zap.S().Debugf("User %s connected to /ws/notifications", userID)

	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, userID)
		h.mutex.Unlock()
		zap.S().Debugf("User %s disconnected from /ws/notifications", userID)
		return nil
	})

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
}

// Emit pushes a lifecycle event to the affected participant's websocket
// and sends an email for the kinds a participant must not miss. Emit never
// blocks the caller on delivery.
func (h *NotificationHub) Emit(kind string, payload map[string]interface{}) {
	userID, _ := payload["participantId"].(string)
	if userID == "" {
		userID, _ = payload["userId"].(string)
	}
	if userID != "" {
		h.sendToUser(userID, kind, payload)
	}

	switch kind {
	case engine.KindWaitlistPromoted:
		go h.sendEmailNotification(payload,
			"A spot opened up!",
			"Good news: a spot opened up and your registration moved off the waitlist. It is now pending organizer approval.")
	case engine.KindPaymentCompleted:
		go h.sendEmailNotification(payload,
			"Payment received",
			"We received your payment and your registration is confirmed. See you at the event!")
	}
}

func (h *NotificationHub) sendToUser(userID, kind string, payload map[string]interface{}) {
	h.mutex.Lock()
	conn, exists := h.clients[userID]
	h.mutex.Unlock()

	if !exists {
		return
	}
	err := conn.WriteJSON(map[string]interface{}{
		"event": kind,
		"data":  payload,
	})
	if err != nil {
		zap.S().Warnw("failed to push notification",
			"userId", userID, "kind", kind, "error", err)
		h.mutex.Lock()
		delete(h.clients, userID)
		h.mutex.Unlock()
		conn.Close()
	}
}

func (h *NotificationHub) sendEmailNotification(payload map[string]interface{}, subject, bodyContent string) {
	email, _ := payload["email"].(string)
	if email == "" {
		return
	}

	from := mail.NewEmail("EventLabs", "no-reply@eventlabs.io")
	to := mail.NewEmail("", email)
	htmlContent := templates.RenderGenericEmail(subject, bodyContent)
	message := mail.NewSingleEmail(from, subject, to, bodyContent, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send notification email", "email", email, "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
}
