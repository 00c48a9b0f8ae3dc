package router

import (
	"net/http"

	"studygenie/internal/routeguard"
	"studygenie/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Navigate evaluates the route guard for a page-class path and either
// renders (as JSON: the page name plus the session snapshot) or issues
// the redirect the guard decided on.
func Navigate(log *zap.Logger, sess *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		snap := sess.Snapshot()
		decision := routeguard.Decide(snap, path)

		if decision.Redirect != "" {
			log.Debug("Navigation redirected",
				zap.String("from", path),
				zap.String("to", decision.Redirect))
			c.Redirect(http.StatusFound, decision.Redirect)
			return
		}
		if decision.Placeholder {
			c.JSON(http.StatusOK, gin.H{"page": "loading", "session": snap})
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": path, "session": snap})
	}
}

// APIAuthRequired guards the mutating API group. Unlike page navigation,
// API calls get status codes rather than redirects; the presentation
// layer turns them back into navigation.
func APIAuthRequired(sess *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := sess.Snapshot()
		if snap.Loading {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "session is still loading"})
			return
		}
		if !snap.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "not authenticated", "redirect": routeguard.LoginPath})
			return
		}
		c.Next()
	}
}

// APIOnboardedRequired additionally requires the one-time onboarding to
// be complete, mirroring the protected-route gating.
func APIOnboardedRequired(sess *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sess.Snapshot().Onboarded {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "onboarding not complete", "redirect": routeguard.OnboardingPath})
			return
		}
		c.Next()
	}
}
