package api_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"studygenie/internal/api"
	"studygenie/internal/apitest"
	"studygenie/internal/config"
	"studygenie/internal/errs"
	"studygenie/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPack() *models.QuizPack {
	return &models.QuizPack{
		Quizzes: []models.PackQuiz{
			{
				ID:     "capitals",
				Title:  "World Capitals",
				Source: "Geography notes",
				Questions: []models.PackQuestion{
					{Prompt: "Capital of Australia?", Options: []string{"Sydney", "Canberra"}, Answer: "Canberra"},
					{Prompt: "Capital of Canada?", Options: []string{"Toronto", "Ottawa"}, Answer: "Ottawa"},
				},
			},
		},
	}
}

// tokenHolder is a trivial token source for tests.
type tokenHolder struct {
	mu    sync.Mutex
	token string
}

func (t *tokenHolder) set(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

func (t *tokenHolder) get() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

func newClient(t *testing.T, backend *apitest.Server) (*api.Client, *tokenHolder) {
	t.Helper()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	client := api.New(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	holder := &tokenHolder{}
	client.SetTokenSource(holder.get)
	return client, holder
}

func TestRegisterThenMe(t *testing.T) {
	backend := apitest.New(testPack())
	client, holder := newClient(t, backend)
	ctx := context.Background()

	resp, err := client.Register(ctx, "Ann", "a@b.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Ann", resp.User.Name)
	assert.False(t, resp.User.IsOnboarded)

	holder.set(resp.Token)
	user, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
}

func TestLoginRejectionIsAuthError(t *testing.T) {
	backend := apitest.New(testPack())
	backend.Seed("Ann", "a@b.com", "secret1", false)
	client, _ := newClient(t, backend)

	_, err := client.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestMeWithoutTokenIsAuthError(t *testing.T) {
	backend := apitest.New(testPack())
	client, _ := newClient(t, backend)

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
}

func TestUnreachableServerIsTransportError(t *testing.T) {
	client := api.New(config.APIConfig{
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Timeout: time.Second,
	}, zap.NewNop())

	_, err := client.Login(context.Background(), "a@b.com", "secret1")
	require.Error(t, err)
	assert.True(t, errs.IsTransport(err))
}

func TestOnboardingConfirmsProfile(t *testing.T) {
	backend := apitest.New(testPack())
	backend.Seed("Ann", "a@b.com", "secret1", false)
	client, holder := newClient(t, backend)
	ctx := context.Background()

	resp, err := client.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	holder.set(resp.Token)

	user, err := client.CompleteOnboarding(ctx, api.OnboardingRequest{
		Age:            21,
		EducationLevel: "undergraduate",
		LearningStyle:  "visual",
	})
	require.NoError(t, err)
	assert.True(t, user.IsOnboarded)
	assert.Equal(t, 21, user.Age)
}

func TestSubmitQuizScoringAndIdempotency(t *testing.T) {
	backend := apitest.New(testPack())
	backend.Seed("Ann", "a@b.com", "secret1", true)
	client, holder := newClient(t, backend)
	ctx := context.Background()

	resp, err := client.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	holder.set(resp.Token)

	req := api.SubmitQuizRequest{
		QuizID:    "capitals",
		AttemptID: "attempt-1",
		Answers:   []string{"Canberra", "Toronto"}, // one of two correct
	}
	result, err := client.SubmitQuiz(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Score)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].IsCorrect)
	assert.False(t, result.Results[1].IsCorrect)
	assert.Equal(t, "Ottawa", result.Results[1].CorrectAnswer)

	// Retrying the same attempt id must not record a second attempt.
	again, err := client.SubmitQuiz(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, result, again)

	quizzes, err := client.MyQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Len(t, quizzes[0].Attempts, 1)
	assert.Equal(t, 50, quizzes[0].BestScore)
}

func TestScriptedFailureIsTransportError(t *testing.T) {
	backend := apitest.New(testPack())
	backend.Seed("Ann", "a@b.com", "secret1", true)
	client, holder := newClient(t, backend)
	ctx := context.Background()

	resp, err := client.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	holder.set(resp.Token)

	backend.FailNext("submit", "storage unavailable")
	_, err = client.SubmitQuiz(ctx, api.SubmitQuizRequest{
		QuizID:    "capitals",
		AttemptID: "attempt-2",
		Answers:   []string{"Canberra", "Ottawa"},
	})
	require.Error(t, err)
	assert.True(t, errs.IsTransport(err))
	assert.Contains(t, err.Error(), "storage unavailable")

	// The failure was one-shot; the retry lands.
	result, err := client.SubmitQuiz(ctx, api.SubmitQuizRequest{
		QuizID:    "capitals",
		AttemptID: "attempt-2",
		Answers:   []string{"Canberra", "Ottawa"},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
}

func TestDashboardStats(t *testing.T) {
	backend := apitest.New(testPack())
	backend.Seed("Ann", "a@b.com", "secret1", true)
	client, holder := newClient(t, backend)
	ctx := context.Background()

	resp, err := client.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	holder.set(resp.Token)

	_, err = client.SubmitQuiz(ctx, api.SubmitQuizRequest{
		QuizID:    "capitals",
		AttemptID: "attempt-3",
		Answers:   []string{"Canberra", "Ottawa"},
	})
	require.NoError(t, err)

	stats, err := client.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalQuizzes)
	assert.Equal(t, 0, stats.TotalGuides)
	assert.Equal(t, 100, stats.BestScore)
	assert.Equal(t, 1, stats.Attempts)
}

func TestStreakAndChat(t *testing.T) {
	backend := apitest.New(testPack())
	backend.Seed("Ann", "a@b.com", "secret1", true)
	client, holder := newClient(t, backend)
	ctx := context.Background()

	resp, err := client.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	holder.set(resp.Token)

	require.NoError(t, client.PingStreak(ctx))
	user, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, user.Streak.Count)

	reply, err := client.Chat(ctx, "explain mitosis")
	require.NoError(t, err)
	assert.Equal(t, "assistant", reply.Role)
	assert.Contains(t, reply.Message, "explain mitosis")
}
