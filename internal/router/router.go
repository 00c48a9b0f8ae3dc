package router

import (
	"time"

	"studygenie/internal/api"
	"studygenie/internal/assessment"
	"studygenie/internal/handlers"
	"studygenie/internal/routeguard"
	"studygenie/internal/session"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(429, gin.H{"message": "Too many requests. Try again later."})
}

// Setup builds the gin engine for the local facade.
func Setup(log *zap.Logger, sess *session.Store, engine *assessment.Engine, client *api.Client) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	// Handlers and routes
	authHandler := handlers.NewAuthHandler(log, sess)
	userHandler := handlers.NewUserHandler(log, sess, client)
	quizHandler := handlers.NewQuizHandler(log, engine, client)

	// Credential endpoints are rate-limited; everything else is local.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 5,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: rateErrorHandler,
		KeyFunc:      keyFunc,
	})

	// Page navigation: every page-class path runs through the guard.
	navigate := Navigate(log, sess)
	for _, page := range []string{
		routeguard.LoginPath,
		routeguard.RegisterPath,
		routeguard.OnboardingPath,
		routeguard.DashboardPath,
		"/quiz",
		"/guides",
		"/gamification",
		"/chatbot",
		"/profile",
		"/",
	} {
		router.GET(page, navigate)
	}

	api := router.Group("/api")
	{
		api.POST("/login", limiter, authHandler.Login)
		api.POST("/register", limiter, authHandler.Register)
		api.POST("/logout", authHandler.Logout)
		api.GET("/session", authHandler.Session)

		authed := api.Group("/", APIAuthRequired(sess))
		{
			// Onboarding is the one authenticated call allowed before the
			// profile is complete.
			authed.POST("/onboarding", userHandler.CompleteOnboarding)

			onboarded := authed.Group("/", APIOnboardedRequired(sess))
			{
				onboarded.PUT("/profile", userHandler.UpdateProfile)
				onboarded.GET("/dashboard", userHandler.Dashboard)
				onboarded.GET("/guides", userHandler.Guides)
				onboarded.GET("/leaderboard", userHandler.Leaderboard)
				onboarded.POST("/streak", userHandler.PingStreak)
				onboarded.POST("/chat", userHandler.Chat)

				quiz := onboarded.Group("/quiz")
				{
					quiz.GET("/list", quizHandler.List)
					quiz.GET("/state", quizHandler.State)
					quiz.POST("/start", quizHandler.Start)
					quiz.POST("/answer", quizHandler.Answer)
					quiz.POST("/next", quizHandler.Next)
					quiz.POST("/prev", quizHandler.Previous)
					quiz.POST("/submit", quizHandler.Submit)
					quiz.POST("/retake", quizHandler.Retake)
					quiz.POST("/exit", quizHandler.Exit)
				}
			}
		}
	}

	return router
}
