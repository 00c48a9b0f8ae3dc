// Package api is the typed client for the remote StudyGenie API. Every
// method maps transport and HTTP failures onto the shared error taxonomy,
// so callers never see raw status codes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"studygenie/internal/config"
	"studygenie/internal/errs"
	"studygenie/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Client talks to the remote API over a single shared http.Client with a
// uniform timeout. A timed-out call is indistinguishable from a rejected
// one: TransportError either way.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger

	mu    sync.RWMutex
	token func() string
}

// New creates a Client for the configured base URL.
func New(cfg config.APIConfig, log *zap.Logger) *Client {
	return &Client{
		base: cfg.BaseURL,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// SetTokenSource installs the supplier of the current bearer credential.
// The session store owns the token; the client only reads it per request.
func (c *Client) SetTokenSource(fn func() string) {
	c.mu.Lock()
	c.token = fn
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token()
}

// do issues one JSON request/response round trip. A nil out skips body
// decoding; a nil in sends no body.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, authed bool) error {
	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errs.Wrap(errs.Transport, "failed to encode request", err)
		}
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return errs.Wrap(errs.Transport, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		if token := c.bearer(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return errs.Wrap(errs.Transport, "request failed", err)
	}
	defer resp.Body.Close()

	c.log.Debug("API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.Transport, "failed to decode response", err)
	}
	return nil
}

// statusError maps a non-2xx response onto the error taxonomy, carrying
// the server-reported message where one exists.
func (c *Client) statusError(resp *http.Response) error {
	var serverErr errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&serverErr)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		msg := serverErr.Message
		if msg == "" {
			msg = "credential rejected or expired"
		}
		return errs.New(errs.Auth, msg)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		msg := serverErr.Message
		if msg == "" {
			msg = "request rejected"
		}
		return errs.New(errs.Validation, msg)
	default:
		if serverErr.Message != "" {
			return errs.Newf(errs.Transport, "server error (%d): %s", resp.StatusCode, serverErr.Message)
		}
		return errs.Newf(errs.Transport, "unexpected status %d", resp.StatusCode)
	}
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &out, false)
	return out, err
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", registerRequest{Name: name, Email: email, Password: password}, &out, false)
	return out, err
}

// Me fetches the profile for the current token.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out userResponse
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out, true)
	return out.User, err
}

// CompleteOnboarding submits the one-time profile setup and returns the
// server-confirmed profile.
func (c *Client) CompleteOnboarding(ctx context.Context, req OnboardingRequest) (models.User, error) {
	var out userResponse
	err := c.do(ctx, http.MethodPost, "/user/onboarding", req, &out, true)
	return out.User, err
}

// UpdateProfile edits the profile and returns the server-confirmed result.
func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdateRequest) (models.User, error) {
	var out userResponse
	err := c.do(ctx, http.MethodPut, "/user/profile", req, &out, true)
	return out.User, err
}

// MyQuizzes lists the user's quizzes.
func (c *Client) MyQuizzes(ctx context.Context) ([]models.QuizDefinition, error) {
	var out quizzesResponse
	err := c.do(ctx, http.MethodGet, "/quiz/my-quizzes", nil, &out, true)
	return out.Quizzes, err
}

// SubmitQuiz submits one attempt's answers for authoritative scoring.
func (c *Client) SubmitQuiz(ctx context.Context, req SubmitQuizRequest) (SubmitQuizResponse, error) {
	var out SubmitQuizResponse
	err := c.do(ctx, http.MethodPost, "/quiz/submit", req, &out, true)
	return out, err
}

// MyGuides lists the user's study guides.
func (c *Client) MyGuides(ctx context.Context) ([]models.StudyGuide, error) {
	var out guidesResponse
	err := c.do(ctx, http.MethodGet, "/guides/my-guides", nil, &out, true)
	return out.Guides, err
}

// Leaderboard fetches the gamification leaderboard.
func (c *Client) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var out leaderboardResponse
	err := c.do(ctx, http.MethodGet, "/gamified/leaderboard", nil, &out, true)
	return out.Leaderboard, err
}

// PingStreak records today's activity for the streak counter.
func (c *Client) PingStreak(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/gamified/streak", nil, nil, true)
}

// Chat sends one chatbot message and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, message string) (models.ChatMessage, error) {
	var out chatResponse
	if err := c.do(ctx, http.MethodPost, "/chatbot/chat", chatRequest{Message: message}, &out, true); err != nil {
		return models.ChatMessage{}, err
	}
	reply := models.ChatMessage{Role: "assistant", Message: out.Response}
	if ts, err := time.Parse(time.RFC3339, out.Timestamp); err == nil {
		reply.Timestamp = ts
	} else {
		reply.Timestamp = time.Now().UTC()
	}
	return reply, nil
}

// DashboardStats fetches guides and quizzes concurrently and aggregates
// the dashboard counters.
func (c *Client) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var (
		guides  []models.StudyGuide
		quizzes []models.QuizDefinition
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		guides, err = c.MyGuides(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		quizzes, err = c.MyQuizzes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{TotalGuides: len(guides), TotalQuizzes: len(quizzes)}
	for _, quiz := range quizzes {
		if quiz.BestScore > stats.BestScore {
			stats.BestScore = quiz.BestScore
		}
		stats.Attempts += len(quiz.Attempts)
	}
	return stats, nil
}
