package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"studygenie/internal/api"
	"studygenie/internal/apitest"
	"studygenie/internal/assessment"
	"studygenie/internal/config"
	"studygenie/internal/models"
	"studygenie/internal/router"
	"studygenie/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memPersist is an in-memory stand-in for the sqlite store.
type memPersist struct {
	mu      sync.Mutex
	token   string
	hasTok  bool
	profile models.User
	hasProf bool
}

func (m *memPersist) SaveCredential(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.hasTok = token, true
	return nil
}

func (m *memPersist) Credential() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.hasTok, nil
}

func (m *memPersist) ClearCredential() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.hasTok = "", false
	m.profile, m.hasProf = models.User{}, false
	return nil
}

func (m *memPersist) SaveProfile(user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile, m.hasProf = user, true
	return nil
}

func (m *memPersist) Profile() (models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile, m.hasProf, nil
}

type facade struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newFacade(t *testing.T) *facade {
	t.Helper()

	pack := &models.QuizPack{
		Quizzes: []models.PackQuiz{
			{
				ID:    "capitals",
				Title: "World Capitals",
				Questions: []models.PackQuestion{
					{Prompt: "Capital of Australia?", Options: []string{"Sydney", "Canberra"}, Answer: "Canberra"},
					{Prompt: "Capital of Canada?", Options: []string{"Toronto", "Ottawa"}, Answer: "Ottawa"},
				},
			},
		},
	}
	backend := apitest.New(pack)
	backend.Seed("Ann", "a@b.com", "secret1", false)
	backendSrv := httptest.NewServer(backend.Handler())
	t.Cleanup(backendSrv.Close)

	log := zap.NewNop()
	client := api.New(config.APIConfig{BaseURL: backendSrv.URL, Timeout: 5 * time.Second}, log)
	sess := session.New(&memPersist{}, client, log)
	client.SetTokenSource(sess.Token)
	require.NoError(t, sess.Bootstrap(context.Background()))

	engine := assessment.New(client, log)
	r := router.Setup(log, sess, engine, client)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &facade{
		t:      t,
		server: srv,
		client: &http.Client{
			// Redirects are the behavior under test; never follow them.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (f *facade) get(path string) *http.Response {
	f.t.Helper()
	resp, err := f.client.Get(f.server.URL + path)
	require.NoError(f.t, err)
	return resp
}

func (f *facade) post(path string, body interface{}) *http.Response {
	f.t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(f.t, err)
	resp, err := f.client.Post(f.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(f.t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestNavigationFollowsSessionState(t *testing.T) {
	f := newFacade(t)

	// Logged out: protected pages bounce to login, login renders.
	resp := f.get("/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	resp.Body.Close()

	resp = f.get("/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Authenticated but not onboarded: everything funnels to onboarding.
	resp = f.post("/api/login", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.get("/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/onboarding", resp.Header.Get("Location"))
	resp.Body.Close()

	// Complete onboarding; the dashboard opens and onboarding closes.
	resp = f.post("/api/onboarding", map[string]interface{}{
		"age":            21,
		"educationLevel": "undergraduate",
		"learningStyle":  "visual",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.get("/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.get("/onboarding")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	resp.Body.Close()
}

func TestLoginValidationFailsFast(t *testing.T) {
	f := newFacade(t)

	resp := f.post("/api/login", map[string]string{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Contains(t, body["message"], "required")
}

func TestQuizEndpointsRequireOnboarding(t *testing.T) {
	f := newFacade(t)

	resp := f.get("/api/quiz/list")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = f.post("/api/login", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.get("/api/quiz/list")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "/onboarding", body["redirect"])
}

func TestFullQuizFlow(t *testing.T) {
	f := newFacade(t)

	resp := f.post("/api/login", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = f.post("/api/onboarding", map[string]interface{}{
		"age": 21, "educationLevel": "undergraduate", "learningStyle": "visual",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Start the quiz.
	resp = f.post("/api/quiz/start", map[string]string{"quizId": "capitals"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	attempt := decode(t, resp)["attempt"].(map[string]interface{})
	assert.Equal(t, "in_progress", attempt["phase"])
	assert.Equal(t, float64(0), attempt["index"])

	// Advancing without an answer is refused.
	resp = f.post("/api/quiz/next", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Answer both questions; the second next submits.
	for _, answer := range []string{"Canberra", "Ottawa"} {
		resp = f.post("/api/quiz/answer", map[string]string{"option": answer})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
		resp = f.post("/api/quiz/next", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp = f.get("/api/quiz/state")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	attempt = decode(t, resp)["attempt"].(map[string]interface{})
	assert.Equal(t, "reviewed", attempt["phase"])
	assert.Equal(t, float64(100), attempt["score"])
	assert.Len(t, attempt["results"], 2)

	// Retake starts clean.
	resp = f.post("/api/quiz/retake", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	attempt = decode(t, resp)["attempt"].(map[string]interface{})
	assert.Equal(t, "in_progress", attempt["phase"])
	assert.Equal(t, float64(0), attempt["index"])

	// Exit discards the live attempt.
	resp = f.post("/api/quiz/exit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode(t, resp)["attempt"])
}

func TestLogoutClosesProtectedPages(t *testing.T) {
	f := newFacade(t)

	resp := f.post("/api/login", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.post("/api/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.get("/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	resp.Body.Close()
}
