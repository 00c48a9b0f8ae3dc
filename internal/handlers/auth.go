package handlers

import (
	"net/http"

	"studygenie/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	log     *zap.Logger
	session *session.Store
}

func NewAuthHandler(log *zap.Logger, sess *session.Store) *AuthHandler {
	return &AuthHandler{log: log, session: sess}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request body"})
		return
	}

	if err := h.session.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.session.Snapshot()})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request body"})
		return
	}

	if err := h.session.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": h.session.Snapshot()})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.session.Logout()
	c.JSON(http.StatusOK, gin.H{"session": h.session.Snapshot()})
}

// Session reports the current session snapshot; the presentation layer
// polls this after navigation events.
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": h.session.Snapshot()})
}
