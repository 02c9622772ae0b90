package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supra-app/georgian-menu-backend/controllers"
	"github.com/supra-app/georgian-menu-backend/realtime"
	"github.com/supra-app/georgian-menu-backend/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newStore(t *testing.T) *CredentialStore {
	t.Helper()
	return NewCredentialStore(filepath.Join(t.TempDir(), "session.json"))
}

// fakeBackend serves canned REST responses plus a real realtime endpoint so
// the agent's subscribe path runs against an actual upgrade.
type fakeBackend struct {
	hub *realtime.Hub
	srv *httptest.Server
	r   *gin.Engine
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	hub := realtime.NewHub()
	r := gin.New()
	r.GET("/ws", controllers.NewWSController(hub).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &fakeBackend{hub: hub, srv: srv, r: r}
}

func (b *fakeBackend) sessionDetails(sessionID string, active bool, expiresAt time.Time) {
	b.r.GET("/sessions/:session_id", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "Session details", gin.H{
			"session_id":   sessionID,
			"table_number": "T01",
			"session_name": "Ana's Table",
			"host_name":    "Ana",
			"is_active":    active,
			"expires_at":   expiresAt,
			"customers": []gin.H{
				{"customer_name": "Ana", "is_host": true},
			},
		})
	})
	b.r.GET("/orders/session/:session_id", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "Orders", []gin.H{})
	})
}

func TestCredentialStoreRoundtrip(t *testing.T) {
	store := newStore(t)

	// Nothing saved yet: no credential, no error.
	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)

	require.NoError(t, store.Save(Credential{
		SessionID:    "ABC123",
		CustomerName: "Ana",
		IsHost:       true,
	}))

	cred, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "ABC123", cred.SessionID)
	assert.Equal(t, "Ana", cred.CustomerName)
	assert.True(t, cred.IsHost)

	require.NoError(t, store.Clear())
	cred, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)

	// Clearing twice is fine.
	require.NoError(t, store.Clear())
}

func TestCreateSessionEntersRoomAndSavesCredential(t *testing.T) {
	backend := newFakeBackend(t)
	backend.sessionDetails("ABC123", true, time.Now().Add(4*time.Hour))
	backend.r.POST("/sessions", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusCreated, "Session created", gin.H{
			"session_id":   "ABC123",
			"table_number": "T01",
			"session_name": "Ana's Table",
			"host_name":    "Ana",
		})
	})

	store := newStore(t)
	agent := NewAgent(backend.srv.URL, store)

	session, err := agent.CreateSession(context.Background(), "T01", "Ana", "")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", session.SessionID)
	assert.True(t, agent.IsHost())

	// The realtime subscription is part of joining, not an afterthought.
	require.Eventually(t, func() bool {
		return backend.hub.RoomSize("ABC123") == 1
	}, 2*time.Second, 10*time.Millisecond)

	cred, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "ABC123", cred.SessionID)
	assert.True(t, cred.IsHost)

	require.Eventually(t, func() bool {
		return len(agent.Customers()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCreateSessionConflictCarriesExistingID(t *testing.T) {
	backend := newFakeBackend(t)
	backend.r.POST("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusConflict, utils.JSONResponse{
			Status:  false,
			Message: "Table already has an active session",
			Data:    gin.H{"session_id": "XYZ789"},
		})
	})

	agent := NewAgent(backend.srv.URL, newStore(t))
	_, err := agent.CreateSession(context.Background(), "T01", "Beka", "")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.Code)
	assert.Equal(t, "XYZ789", apiErr.SessionID)
}

func TestRestoreSessionDiscardsStaleCredential(t *testing.T) {
	backend := newFakeBackend(t)
	backend.r.GET("/sessions/:session_id", func(c *gin.Context) {
		utils.RespondError(c, http.StatusNotFound, controllers.ErrSessionNotFound)
	})

	store := newStore(t)
	require.NoError(t, store.Save(Credential{SessionID: "GONE01", CustomerName: "Ana"}))

	agent := NewAgent(backend.srv.URL, store)
	restored, err := agent.RestoreSession(context.Background())
	require.NoError(t, err)
	assert.False(t, restored)

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestRestoreSessionDiscardsEndedSession(t *testing.T) {
	backend := newFakeBackend(t)
	backend.sessionDetails("ABC123", false, time.Now().Add(time.Hour))

	store := newStore(t)
	require.NoError(t, store.Save(Credential{SessionID: "ABC123", CustomerName: "Ana"}))

	agent := NewAgent(backend.srv.URL, store)
	restored, err := agent.RestoreSession(context.Background())
	require.NoError(t, err)
	assert.False(t, restored)

	cred, _ := store.Load()
	assert.Nil(t, cred)
}

func TestRestoreSessionResubscribes(t *testing.T) {
	backend := newFakeBackend(t)
	backend.sessionDetails("ABC123", true, time.Now().Add(time.Hour))

	store := newStore(t)
	require.NoError(t, store.Save(Credential{
		SessionID:    "ABC123",
		CustomerName: "Ana",
		IsHost:       true,
	}))

	agent := NewAgent(backend.srv.URL, store)
	restored, err := agent.RestoreSession(context.Background())
	require.NoError(t, err)
	assert.True(t, restored)

	require.NotNil(t, agent.Session())
	assert.Equal(t, "ABC123", agent.Session().SessionID)
	assert.True(t, agent.IsHost())

	require.Eventually(t, func() bool {
		return backend.hub.RoomSize("ABC123") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPlaceOrderRequiresSession(t *testing.T) {
	backend := newFakeBackend(t)
	agent := NewAgent(backend.srv.URL, newStore(t))

	_, err := agent.PlaceOrder(context.Background(), []OrderLine{{MenuItemID: 1, Quantity: 1}}, nil)
	require.Error(t, err)
	assert.Equal(t, err, agent.LastErr())
}

func TestCartSharedCallback(t *testing.T) {
	backend := newFakeBackend(t)
	backend.sessionDetails("ABC123", true, time.Now().Add(time.Hour))
	backend.r.POST("/sessions/:session_id/join", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "Joined session", gin.H{
			"session_id":   "ABC123",
			"table_number": "T01",
			"session_name": "Ana's Table",
		})
	})

	agent := NewAgent(backend.srv.URL, newStore(t))
	shared := make(chan []CartItem, 1)
	agent.OnCartShared = func(customerName string, items []CartItem) {
		if customerName == "Beka" {
			shared <- items
		}
	}

	require.NoError(t, agent.JoinSession(context.Background(), "ABC123", "Ana"))
	require.Eventually(t, func() bool {
		return backend.hub.RoomSize("ABC123") == 1
	}, 2*time.Second, 10*time.Millisecond)

	backend.hub.BroadcastToRoom("ABC123", realtime.EventCartShared, gin.H{
		"customerName": "Beka",
		"cartItems": []CartItem{
			{MenuItemID: 3, Name: "Khinkali", Quantity: 6, Price: 8.00},
		},
	})

	select {
	case items := <-shared:
		require.Len(t, items, 1)
		assert.Equal(t, "Khinkali", items[0].Name)
		assert.Equal(t, 6, items[0].Quantity)
	case <-time.After(2 * time.Second):
		t.Fatal("cart-shared callback never fired")
	}
}

func TestLeaveSessionClearsState(t *testing.T) {
	backend := newFakeBackend(t)
	backend.sessionDetails("ABC123", true, time.Now().Add(time.Hour))
	backend.r.POST("/sessions/:session_id/join", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "Joined session", gin.H{
			"session_id":   "ABC123",
			"table_number": "T01",
			"session_name": "Ana's Table",
		})
	})

	store := newStore(t)
	agent := NewAgent(backend.srv.URL, store)
	require.NoError(t, agent.JoinSession(context.Background(), "ABC123", "Beka"))

	agent.LeaveSession()
	assert.Nil(t, agent.Session())
	assert.False(t, agent.IsHost())

	cred, _ := store.Load()
	assert.Nil(t, cred)

	require.Eventually(t, func() bool {
		return backend.hub.RoomSize("ABC123") == 0
	}, 2*time.Second, 10*time.Millisecond)
}
