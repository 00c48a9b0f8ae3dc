package handlers

import (
	"net/http"

	"studygenie/internal/api"
	"studygenie/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	log     *zap.Logger
	session *session.Store
	api     *api.Client
}

func NewUserHandler(log *zap.Logger, sess *session.Store, client *api.Client) *UserHandler {
	return &UserHandler{log: log, session: sess, api: client}
}

// CompleteOnboarding forwards the one-time profile setup to the remote
// API and applies the server-confirmed profile to the session.
func (h *UserHandler) CompleteOnboarding(c *gin.Context) {
	var req api.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request body"})
		return
	}

	user, err := h.api.CompleteOnboarding(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.session.UpdateProfile(user)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile edits the profile remotely and applies the confirmed
// result. Nothing is written to the session until the server answers.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req api.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request body"})
		return
	}

	user, err := h.api.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.session.UpdateProfile(user)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) Dashboard(c *gin.Context) {
	stats, err := h.api.DashboardStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *UserHandler) Guides(c *gin.Context) {
	guides, err := h.api.MyGuides(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guides": guides})
}

func (h *UserHandler) Leaderboard(c *gin.Context) {
	entries, err := h.api.Leaderboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h *UserHandler) PingStreak(c *gin.Context) {
	if err := h.api.PingStreak(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "message is required"})
		return
	}

	reply, err := h.api.Chat(c.Request.Context(), req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
