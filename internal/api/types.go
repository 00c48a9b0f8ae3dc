package api

import "studygenie/internal/models"

// Wire shapes of the remote StudyGenie API.

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// OnboardingRequest completes the one-time profile setup.
type OnboardingRequest struct {
	Age            int    `json:"age"`
	EducationLevel string `json:"educationLevel"`
	LearningStyle  string `json:"learningStyle"`
}

// ProfileUpdateRequest edits the profile after onboarding.
type ProfileUpdateRequest struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	EducationLevel string `json:"educationLevel"`
	LearningStyle  string `json:"learningStyle"`
}

type userResponse struct {
	User models.User `json:"user"`
}

type quizzesResponse struct {
	Quizzes []models.QuizDefinition `json:"quizzes"`
}

// SubmitQuizRequest carries one attempt's answers. AttemptID is an
// idempotency key: retrying after a lost response re-submits the same
// attempt identity, so the server can avoid recording it twice.
type SubmitQuizRequest struct {
	QuizID    string   `json:"quizId"`
	AttemptID string   `json:"attemptId"`
	Answers   []string `json:"answers"`
}

// SubmitQuizResponse is the server's authoritative scoring.
type SubmitQuizResponse struct {
	Score   int                 `json:"score"`
	Results []models.QuizResult `json:"results"`
}

type guidesResponse struct {
	Guides []models.StudyGuide `json:"guides"`
}

type leaderboardResponse struct {
	Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// DashboardStats aggregates the counts the dashboard shows.
type DashboardStats struct {
	TotalGuides  int `json:"totalGuides"`
	TotalQuizzes int `json:"totalQuizzes"`
	BestScore    int `json:"bestScore"`
	Attempts     int `json:"attempts"`
}

type errorResponse struct {
	Message string `json:"message"`
}
