package controllers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autjsmo/bar-ordini/models"
	"github.com/autjsmo/bar-ordini/utils"
)

// SessionController owns the per-table session lifecycle. All lifecycle
// handlers run under one mutex so open/close/reset are serialized: at most
// one session is ever active per table, and reset leaves no window where
// the old PIN still verifies.
type SessionController struct {
	DB *gorm.DB
	mu sync.Mutex
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{DB: db}
}

type sessionReq struct {
	TableID uint `json:"table_id" binding:"required"`
}

// OpenSession -> staff opens a table, minting a fresh PIN and token.
func (sc *SessionController) OpenSession(c *gin.Context) {
	var req sessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	session, err := sc.openLocked(req.TableID)
	if err != nil {
		if errors.Is(err, ErrSessionAlreadyOpen) {
			utils.RespondError(c, http.StatusConflict, err)
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
		} else {
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	utils.InfoLogger.Printf("Session opened for table %d (PIN %s)", req.TableID, session.PIN)
	utils.RespondJSON(c, http.StatusCreated, "Session opened", gin.H{"pin": session.PIN})
}

// CloseSession -> staff closes a table; every token bound to the session
// stops verifying from this point on.
func (sc *SessionController) CloseSession(c *gin.Context) {
	var req sessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.closeLocked(req.TableID); err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			utils.RespondError(c, http.StatusNotFound, err)
		} else {
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	utils.InfoLogger.Printf("Session closed for table %d", req.TableID)
	utils.RespondJSON(c, http.StatusOK, "Session closed", nil)
}

// ResetSession -> close plus open in one critical section, so the old PIN
// never verifies once reset has begun.
func (sc *SessionController) ResetSession(c *gin.Context) {
	var req sessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.closeLocked(req.TableID); err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			utils.RespondError(c, http.StatusNotFound, err)
		} else {
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	session, err := sc.openLocked(req.TableID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Session reset for table %d (new PIN %s)", req.TableID, session.PIN)
	utils.RespondJSON(c, http.StatusOK, "Session reset", gin.H{"pin": session.PIN})
}

// VerifySession -> guest exchanges the PIN for the session token. Repeated
// verification with the right PIN returns the same token while the session
// stays open.
func (sc *SessionController) VerifySession(c *gin.Context) {
	var req struct {
		TableID uint   `json:"table_id" binding:"required"`
		PIN     string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	var session models.Session
	if err := sc.DB.Where("table_id = ? AND active = ?", req.TableID, true).
		First(&session).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, ErrBadPIN)
		return
	}

	if session.PIN != req.PIN {
		utils.RespondError(c, http.StatusUnauthorized, ErrBadPIN)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session verified", gin.H{"token": session.Token})
}

// GetSessionStatus -> tells staff views whether a table is occupied
// without leaking the PIN.
func (sc *SessionController) GetSessionStatus(c *gin.Context) {
	tableID := c.Param("table_id")

	var count int64
	sc.DB.Model(&models.Session{}).
		Where("table_id = ? AND active = ?", tableID, true).
		Count(&count)

	utils.RespondJSON(c, http.StatusOK, "Session status", gin.H{"active": count > 0})
}

func (sc *SessionController) openLocked(tableID uint) (*models.Session, error) {
	var table models.Table
	if err := sc.DB.First(&table, tableID).Error; err != nil {
		return nil, err
	}

	var count int64
	if err := sc.DB.Model(&models.Session{}).
		Where("table_id = ? AND active = ?", tableID, true).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSessionAlreadyOpen
	}

	pin, err := utils.GeneratePIN()
	if err != nil {
		return nil, err
	}

	uid := uuid.NewString()
	token, err := utils.GenerateSessionToken(tableID, uid)
	if err != nil {
		return nil, err
	}

	session := models.Session{
		TableID:    tableID,
		SessionUID: uid,
		PIN:        pin,
		Token:      token,
		Active:     true,
		OpenedAt:   time.Now(),
	}
	if err := sc.DB.Create(&session).Error; err != nil {
		return nil, err
	}

	return &session, nil
}

func (sc *SessionController) closeLocked(tableID uint) error {
	var session models.Session
	if err := sc.DB.Where("table_id = ? AND active = ?", tableID, true).
		First(&session).Error; err != nil {
		return ErrNoActiveSession
	}

	now := time.Now()
	session.Active = false
	session.ClosedAt = &now
	return sc.DB.Save(&session).Error
}
