// Package client implements the customer-side session agent: thin wrappers
// around the session/order REST API plus the realtime subscription, with a
// local cache of session state that is reconciled by re-fetching whenever the
// server signals a change.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/supra-app/georgian-menu-backend/models"
	"github.com/supra-app/georgian-menu-backend/realtime"
)

// APIError carries the HTTP status of a failed call. SessionID is filled on
// create-session conflicts so the caller can redirect to joining.
type APIError struct {
	Code      int
	Message   string
	SessionID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Session is the agent's local view of the joined session.
type Session struct {
	SessionID   string    `json:"session_id"`
	TableNumber string    `json:"table_number"`
	SessionName string    `json:"session_name"`
	HostName    string    `json:"host_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CartItem is the payload of the ephemeral cart-shared broadcast. It is never
// persisted server-side.
type CartItem struct {
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

// OrderLine is one requested line of a new order.
type OrderLine struct {
	MenuItemID      uint    `json:"menuItemId"`
	Quantity        int     `json:"quantity"`
	SpecialRequests *string `json:"specialRequests,omitempty"`
}

// Agent maintains local session state for one connected customer. All state
// mutations flow through refresh(): realtime events are treated as "something
// changed, go look" signals, never as authoritative payloads, so stale or
// duplicate deliveries are harmless.
type Agent struct {
	baseURL string
	wsURL   string
	http    *http.Client
	store   *CredentialStore

	// Called when another customer shares their cart.
	OnCartShared func(customerName string, items []CartItem)

	mu           sync.Mutex
	conn         *websocket.Conn
	writeMu      sync.Mutex
	session      *Session
	isHost       bool
	customerName string
	customers    []models.SessionCustomer
	orders       []models.Order
	lastErr      error
}

func NewAgent(baseURL string, store *CredentialStore) *Agent {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/ws"
	return &Agent{
		baseURL: baseURL,
		wsURL:   wsURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		store:   store,
	}
}

// CreateSession starts a new session as host. The REST call and the realtime
// subscription are treated as one unit: if subscribing fails after the session
// was created, the error is surfaced so the caller can retry.
func (a *Agent) CreateSession(ctx context.Context, tableNumber, hostName, sessionName string) (*Session, error) {
	body := map[string]string{"tableNumber": tableNumber, "hostName": hostName}
	if sessionName != "" {
		body["sessionName"] = sessionName
	}

	var created Session
	if err := a.call(ctx, http.MethodPost, "/sessions", body, &created); err != nil {
		return nil, a.fail(err)
	}

	if err := a.enterSession(ctx, &created, hostName, true); err != nil {
		return nil, a.fail(err)
	}
	return &created, nil
}

// JoinSession adds this customer to an existing session.
func (a *Agent) JoinSession(ctx context.Context, sessionID, customerName string) error {
	body := map[string]string{"customerName": customerName}

	var joined struct {
		SessionID   string `json:"session_id"`
		TableNumber string `json:"table_number"`
		SessionName string `json:"session_name"`
	}
	path := "/sessions/" + sessionID + "/join"
	if err := a.call(ctx, http.MethodPost, path, body, &joined); err != nil {
		return a.fail(err)
	}

	session := &Session{
		SessionID:   joined.SessionID,
		TableNumber: joined.TableNumber,
		SessionName: joined.SessionName,
	}
	return a.fail(a.enterSession(ctx, session, customerName, false))
}

// RestoreSession revalidates a previously saved credential. A session that
// has ended or expired since last use is discarded rather than treated as a
// fatal error.
func (a *Agent) RestoreSession(ctx context.Context) (bool, error) {
	cred, err := a.store.Load()
	if err != nil || cred == nil {
		return false, err
	}

	var details struct {
		SessionID   string    `json:"session_id"`
		TableNumber string    `json:"table_number"`
		SessionName string    `json:"session_name"`
		HostName    string    `json:"host_name"`
		IsActive    bool      `json:"is_active"`
		ExpiresAt   time.Time `json:"expires_at"`
	}
	err = a.call(ctx, http.MethodGet, "/sessions/"+cred.SessionID, nil, &details)
	if apiErr, ok := err.(*APIError); ok && apiErr.Code == http.StatusNotFound {
		// Stale credential: start fresh.
		a.store.Clear()
		return false, nil
	}
	if err != nil {
		return false, a.fail(err)
	}
	if !details.IsActive || time.Now().After(details.ExpiresAt) {
		a.store.Clear()
		return false, nil
	}

	session := &Session{
		SessionID:   details.SessionID,
		TableNumber: details.TableNumber,
		SessionName: details.SessionName,
		HostName:    details.HostName,
		ExpiresAt:   details.ExpiresAt,
	}
	if err := a.subscribe(session.SessionID); err != nil {
		return false, a.fail(err)
	}

	a.mu.Lock()
	a.session = session
	a.isHost = cred.IsHost
	a.customerName = cred.CustomerName
	a.mu.Unlock()

	a.refresh(ctx)
	return true, nil
}

// LeaveSession drops the room subscription, the connection and the saved
// credential. The membership row on the server is untouched.
func (a *Agent) LeaveSession() {
	a.mu.Lock()
	conn := a.conn
	session := a.session
	a.conn = nil
	a.session = nil
	a.isHost = false
	a.customerName = ""
	a.customers = nil
	a.orders = nil
	a.lastErr = nil
	a.mu.Unlock()

	if conn != nil && session != nil {
		a.emitOn(conn, realtime.ClientLeaveSession, session.SessionID)
		conn.Close()
	}
	a.store.Clear()
}

// EndSession terminates the session for everyone. Host only.
func (a *Agent) EndSession(ctx context.Context) error {
	a.mu.Lock()
	session, isHost, name := a.session, a.isHost, a.customerName
	a.mu.Unlock()

	if session == nil || !isHost {
		return a.fail(&APIError{Code: http.StatusForbidden, Message: "only the host can end the session"})
	}

	path := "/sessions/" + session.SessionID + "/end"
	if err := a.call(ctx, http.MethodPost, path, map[string]string{"hostName": name}, nil); err != nil {
		return a.fail(err)
	}

	a.LeaveSession()
	return nil
}

// PlaceOrder submits an order and refreshes the local order list.
func (a *Agent) PlaceOrder(ctx context.Context, items []OrderLine, notes *string) (*models.Order, error) {
	a.mu.Lock()
	session, name := a.session, a.customerName
	a.mu.Unlock()

	if session == nil {
		return nil, a.fail(&APIError{Code: http.StatusBadRequest, Message: "must be in a session to place an order"})
	}

	body := map[string]interface{}{
		"sessionId":    session.SessionID,
		"customerName": name,
		"items":        items,
	}
	if notes != nil {
		body["notes"] = notes
	}

	var order models.Order
	if err := a.call(ctx, http.MethodPost, "/orders", body, &order); err != nil {
		return nil, a.fail(err)
	}

	a.refresh(ctx)
	return &order, nil
}

// ShareCart broadcasts the local cart to the room. Pure notification, nothing
// is persisted.
func (a *Agent) ShareCart(items []CartItem) {
	a.mu.Lock()
	conn, session, name := a.conn, a.session, a.customerName
	a.mu.Unlock()

	if conn == nil || session == nil {
		return
	}
	a.emitOn(conn, realtime.ClientShareCart, map[string]interface{}{
		"sessionId":    session.SessionID,
		"customerName": name,
		"cartItems":    items,
	})
}

// Accessors for the cached state.

func (a *Agent) Session() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *Agent) IsHost() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isHost
}

func (a *Agent) Customers() []models.SessionCustomer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.customers
}

func (a *Agent) Orders() []models.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.orders
}

func (a *Agent) LastErr() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// enterSession performs the join side shared by create and join: subscribe to
// the room, announce ourselves, persist the credential and load state.
func (a *Agent) enterSession(ctx context.Context, session *Session, customerName string, isHost bool) error {
	if err := a.subscribe(session.SessionID); err != nil {
		return err
	}

	a.mu.Lock()
	a.session = session
	a.isHost = isHost
	a.customerName = customerName
	conn := a.conn
	a.mu.Unlock()

	a.emitOn(conn, realtime.ClientCustomerJoined, map[string]interface{}{
		"sessionId":    session.SessionID,
		"customerName": customerName,
	})

	if err := a.store.Save(Credential{
		SessionID:    session.SessionID,
		CustomerName: customerName,
		IsHost:       isHost,
	}); err != nil {
		return err
	}

	a.refresh(ctx)
	return nil
}

// subscribe dials the realtime endpoint and joins the session's room,
// replacing any previous connection.
func (a *Agent) subscribe(sessionID string) error {
	conn, _, err := websocket.DefaultDialer.Dial(a.wsURL, nil)
	if err != nil {
		return fmt.Errorf("realtime subscribe: %w", err)
	}

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
	}
	a.conn = conn
	a.mu.Unlock()

	if err := a.emitOn(conn, realtime.ClientJoinSession, sessionID); err != nil {
		return fmt.Errorf("realtime subscribe: %w", err)
	}

	go a.readLoop(conn)
	return nil
}

// readLoop turns incoming events into refresh triggers. Refreshing is
// idempotent, so missed, duplicated or reordered deliveries only cost an
// extra fetch.
func (a *Agent) readLoop(conn *websocket.Conn) {
	for {
		var msg realtime.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Event {
		case realtime.EventOrderPlaced, realtime.EventOrderStatusChanged, realtime.EventNewCustomer:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			a.refresh(ctx)
			cancel()

		case realtime.EventCartShared:
			a.handleCartShared(msg.Data)
		}
	}
}

func (a *Agent) handleCartShared(data interface{}) {
	a.mu.Lock()
	handler := a.OnCartShared
	a.mu.Unlock()
	if handler == nil {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	var payload struct {
		CustomerName string     `json:"customerName"`
		CartItems    []CartItem `json:"cartItems"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		handler(payload.CustomerName, payload.CartItems)
	}
}

// refresh re-fetches session details and orders, replacing the local cache.
func (a *Agent) refresh(ctx context.Context) {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		return
	}

	var details struct {
		HostName  string                   `json:"host_name"`
		Customers []models.SessionCustomer `json:"customers"`
	}
	if err := a.call(ctx, http.MethodGet, "/sessions/"+session.SessionID, nil, &details); err != nil {
		a.fail(err)
		return
	}

	var orders []models.Order
	if err := a.call(ctx, http.MethodGet, "/orders/session/"+session.SessionID, nil, &orders); err != nil {
		a.fail(err)
		return
	}

	a.mu.Lock()
	if a.session != nil {
		a.session.HostName = details.HostName
	}
	a.customers = details.Customers
	a.orders = orders
	a.mu.Unlock()
}

func (a *Agent) emitOn(conn *websocket.Conn, event string, data interface{}) error {
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return conn.WriteJSON(realtime.Message{Event: event, Data: data})
}

func (a *Agent) fail(err error) error {
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
	return err
}

// call performs one REST round trip, decoding the server's response envelope
// into out when given.
func (a *Agent) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Status  bool            `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}

	if resp.StatusCode >= 400 || !envelope.Status {
		apiErr := &APIError{Code: resp.StatusCode, Message: envelope.Message}
		if resp.StatusCode == http.StatusConflict && envelope.Data != nil {
			var conflict struct {
				SessionID string `json:"session_id"`
			}
			if json.Unmarshal(envelope.Data, &conflict) == nil {
				apiErr.SessionID = conflict.SessionID
			}
		}
		return apiErr
	}

	if out != nil && envelope.Data != nil {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}
