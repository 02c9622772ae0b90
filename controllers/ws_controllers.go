package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/supra-app/georgian-menu-backend/realtime"
	"github.com/supra-app/georgian-menu-backend/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSController struct {
	Hub *realtime.Hub
}

func NewWSController(hub *realtime.Hub) *WSController {
	return &WSController{Hub: hub}
}

// Inbound envelope. Data shape depends on the event.
type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handle -> upgrade and run the read loop until the client disconnects.
// Room membership is driven entirely by join-session/leave-session messages.
func (wc *WSController) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	utils.InfoLogger.Printf("Realtime client connected: %s", conn.RemoteAddr())

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		wc.dispatch(conn, msg)
	}

	wc.Hub.Disconnect(conn)
	utils.InfoLogger.Printf("Realtime client disconnected: %s", conn.RemoteAddr())
}

func (wc *WSController) dispatch(conn *websocket.Conn, msg clientMessage) {
	now := time.Now().UTC().Format(time.RFC3339)

	switch msg.Event {
	case realtime.ClientJoinSession:
		var sessionID string
		if json.Unmarshal(msg.Data, &sessionID) == nil && sessionID != "" {
			wc.Hub.Join(sessionID, conn)
		}

	case realtime.ClientLeaveSession:
		var sessionID string
		if json.Unmarshal(msg.Data, &sessionID) == nil && sessionID != "" {
			wc.Hub.Leave(sessionID, conn)
		}

	case realtime.ClientCustomerJoined:
		var data struct {
			SessionID    string `json:"sessionId"`
			CustomerName string `json:"customerName"`
		}
		if json.Unmarshal(msg.Data, &data) == nil && data.SessionID != "" {
			wc.Hub.BroadcastToRoom(data.SessionID, realtime.EventNewCustomer, gin.H{
				"customerName": data.CustomerName,
				"timestamp":    now,
			})
		}

	case realtime.ClientNewOrder:
		var data struct {
			SessionID string          `json:"sessionId"`
			Order     json.RawMessage `json:"order"`
		}
		if json.Unmarshal(msg.Data, &data) == nil && data.SessionID != "" {
			wc.Hub.BroadcastToRoom(data.SessionID, realtime.EventOrderPlaced, gin.H{
				"order":     data.Order,
				"timestamp": now,
			})
		}

	case realtime.ClientOrderStatusUpdate:
		var data struct {
			SessionID string `json:"sessionId"`
			OrderID   uint   `json:"orderId"`
			Status    string `json:"status"`
		}
		if json.Unmarshal(msg.Data, &data) == nil && data.SessionID != "" {
			wc.Hub.BroadcastToRoom(data.SessionID, realtime.EventOrderStatusChanged, gin.H{
				"orderId":   data.OrderID,
				"status":    data.Status,
				"timestamp": now,
			})
		}

	case realtime.ClientShareCart:
		var data struct {
			SessionID    string          `json:"sessionId"`
			CustomerName string          `json:"customerName"`
			CartItems    json.RawMessage `json:"cartItems"`
		}
		if json.Unmarshal(msg.Data, &data) == nil && data.SessionID != "" {
			// Ephemeral visibility aid: never persisted, sender excluded.
			wc.Hub.BroadcastToOthers(data.SessionID, conn, realtime.EventCartShared, gin.H{
				"customerName": data.CustomerName,
				"cartItems":    data.CartItems,
				"timestamp":    now,
			})
		}
	}
}
