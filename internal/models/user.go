package models

import "time"

// Streak tracks consecutive-day study activity for gamification.
type Streak struct {
	Count       int       `json:"count"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// User is the profile record as reported by the remote API. The server is
// authoritative; the client never fabricates or merges fields locally.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Age            int    `json:"age"`
	EducationLevel string `json:"educationLevel"`
	LearningStyle  string `json:"learningStyle"`
	IsOnboarded    bool   `json:"isOnboarded"`
	TotalPoints    int    `json:"totalPoints"`
	Streak         Streak `json:"streak" gorm:"embedded;embeddedPrefix:streak_"`
}
