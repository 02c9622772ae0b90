// Package kitchen implements the status board used by kitchen staff: a
// per-restaurant view of orders kept current by two independent triggers
// (periodic polling and realtime pushes) that converge on one refresh path.
package kitchen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/supra-app/georgian-menu-backend/models"
)

type Board struct {
	baseURL  string
	token    string
	http     *http.Client
	interval time.Duration

	mu     sync.Mutex
	orders []models.Order

	notify chan struct{}
	stop   chan struct{}
	once   sync.Once
}

func NewBoard(baseURL, token string, interval time.Duration) *Board {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Board{
		baseURL:  baseURL,
		token:    token,
		http:     &http.Client{Timeout: 10 * time.Second},
		interval: interval,
		notify:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Run polls on the configured interval and additionally refreshes whenever
// Notify fires, until the context is cancelled or Stop is called. Both
// triggers go through the same Refresh, so there is a single state-update
// path regardless of what woke us up.
func (b *Board) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stop:
			return
		case <-ticker.C:
			b.Refresh(ctx)
		case <-b.notify:
			b.Refresh(ctx)
		}
	}
}

func (b *Board) Stop() {
	b.once.Do(func() { close(b.stop) })
}

// Notify wakes the board to re-fetch, e.g. on an order-placed or
// order-status-changed realtime event. Coalesces while a refresh is pending.
func (b *Board) Notify() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Refresh re-fetches the restaurant's orders.
func (b *Board) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/admin/orders", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+b.token)

	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Status bool           `json:"status"`
		Data   []models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch orders: status %d", resp.StatusCode)
	}

	b.mu.Lock()
	b.orders = envelope.Data
	b.mu.Unlock()
	return nil
}

// Orders returns the last fetched order list.
func (b *Board) Orders() []models.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.orders
}

// Active returns orders still in flight. Delivered is terminal for the
// board's timers, so those are filtered out.
func (b *Board) Active() []models.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	active := make([]models.Order, 0, len(b.orders))
	for _, order := range b.orders {
		if order.Status != models.StatusDelivered {
			active = append(active, order)
		}
	}
	return active
}

// MarkNextStatus advances an order one step along the suggested flow and
// returns the new status. The server itself accepts any transition; the
// one-step walk is this board's convention.
func (b *Board) MarkNextStatus(ctx context.Context, orderID uint) (string, error) {
	b.mu.Lock()
	var current string
	for _, order := range b.orders {
		if order.ID == orderID {
			current = order.Status
			break
		}
	}
	b.mu.Unlock()

	if current == "" {
		return "", fmt.Errorf("order %d not on the board", orderID)
	}
	next := models.NextStatus(current)
	if next == "" {
		return "", fmt.Errorf("order %d already %s", orderID, current)
	}

	if err := b.SetStatus(ctx, orderID, next); err != nil {
		return "", err
	}
	return next, nil
}

// SetStatus issues a status transition through the order workflow and
// refreshes the board.
func (b *Board) SetStatus(ctx context.Context, orderID uint, status string) error {
	payload, _ := json.Marshal(map[string]string{"status": status})
	url := fmt.Sprintf("%s/admin/orders/%d/status", b.baseURL, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.token)

	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&envelope)
		return fmt.Errorf("update status: %s", envelope.Message)
	}

	return b.Refresh(ctx)
}
