// Package apitest is an in-process stand-in for the remote StudyGenie
// API, used by tests and local development. It speaks the same wire
// contract: bearer-token auth, server-side scoring, idempotent submits.
package apitest

import (
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"studygenie/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = time.Hour

type account struct {
	password string
	user     models.User
}

type submission struct {
	Score   int                 `json:"score"`
	Results []models.QuizResult `json:"results"`
}

// Server is the fake API. All state lives in memory behind one mutex.
type Server struct {
	mu          sync.Mutex
	secret      []byte
	accounts    map[string]*account // keyed by email
	quizzes     []models.PackQuiz
	attempts    map[string][]models.AttemptRecord // quiz id -> history
	best        map[string]int
	submissions map[string]submission // attempt id -> cached response
	failNext    map[string]string     // route tag -> message
	engine      *gin.Engine
}

// New creates a fake API seeded with the given quiz pack.
func New(pack *models.QuizPack) *Server {
	s := &Server{
		secret:      []byte(uuid.NewString()),
		accounts:    make(map[string]*account),
		attempts:    make(map[string][]models.AttemptRecord),
		best:        make(map[string]int),
		submissions: make(map[string]submission),
		failNext:    make(map[string]string),
	}
	if pack != nil {
		s.quizzes = pack.Quizzes
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", s.login)
	r.POST("/auth/register", s.register)

	authed := r.Group("/", s.authRequired)
	authed.GET("/auth/me", s.me)
	authed.POST("/user/onboarding", s.onboarding)
	authed.PUT("/user/profile", s.updateProfile)
	authed.GET("/quiz/my-quizzes", s.myQuizzes)
	authed.POST("/quiz/submit", s.submit)
	authed.GET("/guides/my-guides", s.myGuides)
	authed.GET("/gamified/leaderboard", s.leaderboard)
	authed.POST("/gamified/streak", s.streak)
	authed.POST("/chatbot/chat", s.chat)

	s.engine = r
	return s
}

// Handler exposes the fake API as an http.Handler for httptest.
func (s *Server) Handler() http.Handler { return s.engine }

// Seed registers an account directly, bypassing the register endpoint.
func (s *Server) Seed(name, email, password string, onboarded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &account{
		password: password,
		user: models.User{
			ID:          uuid.NewString(),
			Name:        name,
			Email:       email,
			IsOnboarded: onboarded,
		},
	}
}

// FailNext makes the next call to the tagged route fail with status 502.
// Tags: "submit", "me", "quizzes".
func (s *Server) FailNext(tag, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[tag] = message
}

func (s *Server) takeFailure(tag string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.failNext[tag]
	if ok {
		delete(s.failNext, tag)
	}
	return msg, ok
}

func (s *Server) issueToken(email string) string {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return token
}

// authRequired validates the bearer token and loads the account.
func (s *Server) authRequired(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
		return
	}

	email, _ := token.Claims.GetSubject()
	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unknown account"})
		return
	}
	c.Set("account", acct)
	c.Next()
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || acct.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.issueToken(req.Email), "user": acct.user})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"message": "email already registered"})
		return
	}
	acct := &account{
		password: req.Password,
		user: models.User{
			ID:    uuid.NewString(),
			Name:  req.Name,
			Email: req.Email,
		},
	}
	s.accounts[req.Email] = acct
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"token": s.issueToken(req.Email), "user": acct.user})
}

func (s *Server) me(c *gin.Context) {
	if msg, ok := s.takeFailure("me"); ok {
		c.JSON(http.StatusBadGateway, gin.H{"message": msg})
		return
	}
	acct := c.MustGet("account").(*account)
	s.mu.Lock()
	user := acct.user
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) onboarding(c *gin.Context) {
	var req struct {
		Age            int    `json:"age"`
		EducationLevel string `json:"educationLevel"`
		LearningStyle  string `json:"learningStyle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}

	acct := c.MustGet("account").(*account)
	s.mu.Lock()
	acct.user.Age = req.Age
	acct.user.EducationLevel = req.EducationLevel
	acct.user.LearningStyle = req.LearningStyle
	acct.user.IsOnboarded = true
	user := acct.user
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) updateProfile(c *gin.Context) {
	var req struct {
		Name           string `json:"name"`
		Age            int    `json:"age"`
		EducationLevel string `json:"educationLevel"`
		LearningStyle  string `json:"learningStyle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}

	acct := c.MustGet("account").(*account)
	s.mu.Lock()
	acct.user.Name = req.Name
	acct.user.Age = req.Age
	acct.user.EducationLevel = req.EducationLevel
	acct.user.LearningStyle = req.LearningStyle
	user := acct.user
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) myQuizzes(c *gin.Context) {
	if msg, ok := s.takeFailure("quizzes"); ok {
		c.JSON(http.StatusBadGateway, gin.H{"message": msg})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.QuizDefinition, 0, len(s.quizzes))
	for i := range s.quizzes {
		def := s.quizzes[i].Definition()
		def.BestScore = s.best[def.ID]
		def.Attempts = append(def.Attempts, s.attempts[def.ID]...)
		out = append(out, def)
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": out})
}

func (s *Server) submit(c *gin.Context) {
	if msg, ok := s.takeFailure("submit"); ok {
		c.JSON(http.StatusBadGateway, gin.H{"message": msg})
		return
	}

	var req struct {
		QuizID    string   `json:"quizId"`
		AttemptID string   `json:"attemptId"`
		Answers   []string `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Same attempt id, same verdict: a retry after a lost response must
	// not record the attempt twice.
	if cached, ok := s.submissions[req.AttemptID]; ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	var quiz *models.PackQuiz
	for i := range s.quizzes {
		if s.quizzes[i].ID == req.QuizID {
			quiz = &s.quizzes[i]
			break
		}
	}
	if quiz == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown quiz"})
		return
	}
	if len(req.Answers) != len(quiz.Questions) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "answer count does not match question count"})
		return
	}

	correct := 0
	results := make([]models.QuizResult, 0, len(quiz.Questions))
	for i, q := range quiz.Questions {
		isCorrect := req.Answers[i] == q.Answer
		if isCorrect {
			correct++
		}
		results = append(results, models.QuizResult{
			Question:      q.Prompt,
			UserAnswer:    req.Answers[i],
			CorrectAnswer: q.Answer,
			IsCorrect:     isCorrect,
			Explanation:   q.Explanation,
		})
	}
	score := int(math.Round(100 * float64(correct) / float64(len(quiz.Questions))))

	resp := submission{Score: score, Results: results}
	if req.AttemptID != "" {
		s.submissions[req.AttemptID] = resp
	}
	s.attempts[quiz.ID] = append(s.attempts[quiz.ID], models.AttemptRecord{
		Score:       score,
		AttemptedAt: time.Now().UTC(),
	})
	if score > s.best[quiz.ID] {
		s.best[quiz.ID] = score
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) myGuides(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"guides": []models.StudyGuide{}})
}

func (s *Server) leaderboard(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]models.LeaderboardEntry, 0, len(s.accounts))
	rank := 1
	for _, acct := range s.accounts {
		entries = append(entries, models.LeaderboardEntry{
			Rank:        rank,
			Name:        acct.user.Name,
			TotalPoints: acct.user.TotalPoints,
			StreakCount: acct.user.Streak.Count,
		})
		rank++
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (s *Server) streak(c *gin.Context) {
	acct := c.MustGet("account").(*account)
	s.mu.Lock()
	acct.user.Streak.Count++
	acct.user.Streak.LastUpdated = time.Now().UTC()
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (s *Server) chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"response":  "You asked: " + req.Message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
