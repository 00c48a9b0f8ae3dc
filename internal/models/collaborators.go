package models

import "time"

// Records consumed from the remote API by facade endpoints. The client
// only displays these; it never derives state from them.

type StudyGuide struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	TotalPoints int    `json:"totalPoints"`
	StreakCount int    `json:"streakCount"`
}

type ChatMessage struct {
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
