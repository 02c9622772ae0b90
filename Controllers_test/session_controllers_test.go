package Controllers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/supra-app/georgian-menu-backend/models"
	"github.com/supra-app/georgian-menu-backend/utils"
)

func TestCreateSessionAndConflict(t *testing.T) {
	db := setupTestDB(t)
	seedTable(t, db, "T01")
	r := setupSessionRouter(db)

	w, resp := doJSON(t, r, "POST", "/sessions", map[string]string{
		"tableNumber": "T01",
		"hostName":    "Ana",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	data := respData(t, resp)
	sessionID := data["session_id"].(string)
	assert.Len(t, sessionID, 6)
	assert.Equal(t, "Ana", data["host_name"])
	assert.Equal(t, "Ana's Table", data["session_name"])

	// Host membership is created atomically with the session.
	var host models.SessionCustomer
	err := db.Where("session_id = ? AND customer_name = ?", sessionID, "Ana").First(&host).Error
	assert.NoError(t, err)
	assert.True(t, host.IsHost)

	// Second create for the same table conflicts and reports the existing id.
	w, resp = doJSON(t, r, "POST", "/sessions", map[string]string{
		"tableNumber": "T01",
		"hostName":    "Beka",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, sessionID, respData(t, resp)["session_id"])
}

func TestCreateSessionUnknownTable(t *testing.T) {
	db := setupTestDB(t)
	r := setupSessionRouter(db)

	w, _ := doJSON(t, r, "POST", "/sessions", map[string]string{
		"tableNumber": "T99",
		"hostName":    "Ana",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJoinSessionDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T01")
	session := seedSession(t, db, table, "Ana")
	r := setupSessionRouter(db)

	// Joining with the host's name conflicts.
	w, _ := doJSON(t, r, "POST", "/sessions/"+session.ID+"/join", map[string]string{
		"customerName": "Ana",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	db.Model(&models.SessionCustomer{}).Where("session_id = ?", session.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	// A fresh name joins fine.
	w, resp := doJSON(t, r, "POST", "/sessions/"+session.ID+"/join", map[string]string{
		"customerName": "Beka",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Beka", respData(t, resp)["customer_name"])
}

func TestJoinExpiredSession(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T01")
	session := seedSession(t, db, table, "Ana")

	// Push the expiry into the past; the active flag stays true because
	// expiry is only evaluated lazily.
	db.Model(&session).Update("expires_at", time.Now().Add(-time.Minute))

	r := setupSessionRouter(db)
	w, _ := doJSON(t, r, "POST", "/sessions/"+session.ID+"/join", map[string]string{
		"customerName": "Carla",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	db.Model(&models.SessionCustomer{}).
		Where("session_id = ? AND customer_name = ?", session.ID, "Carla").Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestGetSessionDetails(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T01")
	session := seedSession(t, db, table, "Ana")
	db.Create(&models.SessionCustomer{
		SessionID:    session.ID,
		CustomerName: "Beka",
		JoinedAt:     time.Now().Add(time.Minute),
	})

	r := setupSessionRouter(db)
	w, resp := doJSON(t, r, "GET", "/sessions/"+session.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := respData(t, resp)
	assert.Equal(t, "T01", data["table_number"])
	assert.Equal(t, float64(4), data["capacity"])

	customers := data["customers"].([]interface{})
	assert.Len(t, customers, 2)
	first := customers[0].(map[string]interface{})
	assert.Equal(t, "Ana", first["customer_name"])
	assert.Equal(t, true, first["is_host"])

	w, _ = doJSON(t, r, "GET", "/sessions/NOPE42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndSessionHostOnly(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T01")
	session := seedSession(t, db, table, "Ana")
	db.Create(&models.SessionCustomer{SessionID: session.ID, CustomerName: "Beka", JoinedAt: time.Now()})
	db.Create(&models.Order{SessionID: session.ID, CustomerName: "Ana", TotalAmount: 10, Status: models.StatusPending})

	r := setupSessionRouter(db)

	// Wrong name -> forbidden, session stays active.
	w, _ := doJSON(t, r, "POST", "/sessions/"+session.ID+"/end", map[string]string{
		"hostName": "Beka",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var check models.TableSession
	db.First(&check, "id = ?", session.ID)
	assert.True(t, check.IsActive)

	// Host ends it: memberships gone, orders preserved.
	w, _ = doJSON(t, r, "POST", "/sessions/"+session.ID+"/end", map[string]string{
		"hostName": "Ana",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	db.First(&check, "id = ?", session.ID)
	assert.False(t, check.IsActive)
	assert.NotNil(t, check.EndedAt)
	assert.Nil(t, check.ActiveTableID)

	var members int64
	db.Model(&models.SessionCustomer{}).Where("session_id = ?", session.ID).Count(&members)
	assert.Equal(t, int64(0), members)

	var orders int64
	db.Model(&models.Order{}).Where("session_id = ?", session.ID).Count(&orders)
	assert.Equal(t, int64(1), orders)

	// Double invocation fails cleanly.
	w, _ = doJSON(t, r, "POST", "/sessions/"+session.ID+"/end", map[string]string{
		"hostName": "Ana",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Details still resolve for the ended session so clients can detect it.
	w, resp := doJSON(t, r, "GET", "/sessions/"+session.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, respData(t, resp)["is_active"])
}

func TestEndedTableAcceptsNewSession(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T01")
	session := seedSession(t, db, table, "Ana")
	r := setupSessionRouter(db)

	w, _ := doJSON(t, r, "POST", "/sessions/"+session.ID+"/end", map[string]string{
		"hostName": "Ana",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, "POST", "/sessions", map[string]string{
		"tableNumber": "T01",
		"hostName":    "Beka",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGetActiveSessionForTable(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T01")
	r := setupSessionRouter(db)

	w, _ := doJSON(t, r, "GET", "/tables/1/active-session", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	session := seedSession(t, db, table, "Ana")
	w, resp := doJSON(t, r, "GET", "/tables/1/active-session", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session.ID, respData(t, resp)["session_id"])
}

func TestSessionCodeShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := utils.GenerateSessionCode()
		assert.Len(t, code, 6)
		for _, ch := range code {
			assert.True(t, (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9'),
				"unexpected character %q in code %s", ch, code)
		}
	}
}
