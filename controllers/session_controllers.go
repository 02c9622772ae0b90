package controllers

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/supra-app/georgian-menu-backend/models"
	"github.com/supra-app/georgian-menu-backend/utils"
)

const defaultSessionTTL = 4 * time.Hour

type SessionController struct {
	DB *gorm.DB
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{DB: db}
}

func sessionTTL() time.Duration {
	if h := os.Getenv("SESSION_TTL_HOURS"); h != "" {
		if n, err := strconv.Atoi(h); err == nil && n > 0 {
			return time.Duration(n) * time.Hour
		}
	}
	return defaultSessionTTL
}

// CreateSession -> start a new table session, creator becomes host
func (sc *SessionController) CreateSession(c *gin.Context) {
	var req struct {
		TableNumber string `json:"tableNumber" binding:"required"`
		HostName    string `json:"hostName" binding:"required"`
		SessionName string `json:"sessionName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := sc.DB.Where("table_number = ? AND is_active = ?", req.TableNumber, true).
		First(&table).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrTableNotFound)
		return
	}

	// Fast path: report the existing session so the caller can redirect to
	// joining it. The unique index on active_table_id is the real guard.
	var existing models.TableSession
	if err := sc.DB.Where("table_id = ? AND is_active = ?", table.ID, true).
		First(&existing).Error; err == nil {
		utils.RespondJSON(c, http.StatusConflict, "Table already has an active session",
			gin.H{"session_id": existing.ID})
		return
	}

	sessionName := req.SessionName
	if sessionName == "" {
		sessionName = fmt.Sprintf("%s's Table", req.HostName)
	}

	now := time.Now()
	var session models.TableSession

	// Retry until the generated code is unique. The active-session pool is
	// small, so in practice a single retry suffices.
	var createErr error
	for attempt := 0; attempt < 5; attempt++ {
		session = models.TableSession{
			ID:            utils.GenerateSessionCode(),
			TableID:       table.ID,
			ActiveTableID: &table.ID,
			SessionName:   sessionName,
			HostName:      req.HostName,
			IsActive:      true,
			CreatedAt:     now,
			ExpiresAt:     now.Add(sessionTTL()),
		}

		createErr = sc.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&session).Error; err != nil {
				return err
			}
			host := models.SessionCustomer{
				SessionID:    session.ID,
				CustomerName: req.HostName,
				IsHost:       true,
				JoinedAt:     now,
			}
			return tx.Create(&host).Error
		})
		if createErr == nil {
			break
		}

		// Code collision -> pick another code and try again.
		var clash models.TableSession
		if err := sc.DB.First(&clash, "id = ?", session.ID).Error; err == nil {
			continue
		}

		// Otherwise the active_table_id constraint fired: somebody else
		// created a session for this table between our check and insert.
		if err := sc.DB.Where("table_id = ? AND is_active = ?", table.ID, true).
			First(&existing).Error; err == nil {
			utils.RespondJSON(c, http.StatusConflict, "Table already has an active session",
				gin.H{"session_id": existing.ID})
			return
		}
		break
	}
	if createErr != nil {
		utils.RespondError(c, http.StatusInternalServerError, createErr)
		return
	}

	utils.InfoLogger.Printf("Session %s created for table %s (host=%s)",
		session.ID, table.TableNumber, req.HostName)

	utils.RespondJSON(c, http.StatusCreated, "Session created", gin.H{
		"session_id":   session.ID,
		"table_number": table.TableNumber,
		"session_name": session.SessionName,
		"host_name":    session.HostName,
		"expires_at":   session.ExpiresAt,
	})
}

// JoinSession -> add a customer to an existing active session
func (sc *SessionController) JoinSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req struct {
		CustomerName string `json:"customerName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var session models.TableSession
	if err := sc.DB.Preload("Table").First(&session, "id = ?", sessionID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrSessionNotFound)
		return
	}
	// Expiry is checked lazily against wall-clock time; expired sessions may
	// still be flagged active in storage.
	if !session.IsActive || session.Expired(time.Now()) {
		utils.RespondError(c, http.StatusNotFound, ErrSessionNotFound)
		return
	}

	var dup models.SessionCustomer
	if err := sc.DB.Where("session_id = ? AND customer_name = ?", sessionID, req.CustomerName).
		First(&dup).Error; err == nil {
		utils.RespondError(c, http.StatusConflict, ErrNameTaken)
		return
	}

	member := models.SessionCustomer{
		SessionID:    sessionID,
		CustomerName: req.CustomerName,
		JoinedAt:     time.Now(),
	}
	if err := sc.DB.Create(&member).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Customer %s joined session %s", req.CustomerName, sessionID)

	utils.RespondJSON(c, http.StatusOK, "Joined session", gin.H{
		"session_id":    session.ID,
		"table_number":  session.Table.TableNumber,
		"session_name":  session.SessionName,
		"customer_name": member.CustomerName,
		"joined_at":     member.JoinedAt,
	})
}

// GetSessionDetails -> session attributes + table info + member list. Inactive
// sessions are still returned so callers can detect "it ended".
func (sc *SessionController) GetSessionDetails(c *gin.Context) {
	sessionID := c.Param("session_id")

	var session models.TableSession
	if err := sc.DB.Preload("Table").First(&session, "id = ?", sessionID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrSessionNotFound)
		return
	}

	var customers []models.SessionCustomer
	if err := sc.DB.Where("session_id = ?", sessionID).
		Order("joined_at asc").Find(&customers).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session detail", gin.H{
		"session_id":   session.ID,
		"table_number": session.Table.TableNumber,
		"capacity":     session.Table.Capacity,
		"session_name": session.SessionName,
		"host_name":    session.HostName,
		"is_active":    session.IsActive,
		"created_at":   session.CreatedAt,
		"expires_at":   session.ExpiresAt,
		"ended_at":     session.EndedAt,
		"customers":    customers,
	})
}

// EndSession -> host-only. Memberships are deleted, historical orders stay.
// A second invocation finds no active session and fails with 404.
func (sc *SessionController) EndSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req struct {
		HostName string `json:"hostName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var session models.TableSession
	if err := sc.DB.Where("id = ? AND is_active = ?", sessionID, true).
		First(&session).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrSessionNotFound)
		return
	}

	if session.HostName != req.HostName {
		utils.RespondError(c, http.StatusForbidden, ErrNotHost)
		return
	}

	now := time.Now()
	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&session).Updates(map[string]interface{}{
			"is_active":       false,
			"active_table_id": nil,
			"ended_at":        now,
		}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).
			Delete(&models.SessionCustomer{}).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Session %s ended by host %s", sessionID, req.HostName)
	utils.RespondJSON(c, http.StatusOK, "Session ended", nil)
}

// GetActiveSession -> used by the QR entry flow to decide between "join
// existing" and "create new"
func (sc *SessionController) GetActiveSession(c *gin.Context) {
	tableID := c.Param("table_id")

	var session models.TableSession
	if err := sc.DB.Where("table_id = ? AND is_active = ?", tableID, true).
		First(&session).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrSessionNotFound)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Active session", session)
}

var (
	ErrTableNotFound   = &CustomError{"Table not found"}
	ErrSessionNotFound = &CustomError{"Session not found or expired"}
	ErrNameTaken       = &CustomError{"Customer already in session"}
	ErrNotHost         = &CustomError{"Only the host can end the session"}
)
