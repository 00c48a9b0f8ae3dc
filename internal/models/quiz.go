package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Question is a single prompt with its answer options.
type Question struct {
	Prompt  string   `json:"question" yaml:"question"`
	Options []string `json:"options" yaml:"options"`
}

// AttemptRecord is one prior scored pass through a quiz.
type AttemptRecord struct {
	Score       int       `json:"score"`
	AttemptedAt time.Time `json:"attemptedAt"`
}

// QuizDefinition is a quiz as produced by the remote service. It is
// immutable once handed to the assessment engine.
type QuizDefinition struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Source    string          `json:"source"`
	Questions []Question      `json:"questions"`
	BestScore int             `json:"bestScore"`
	Attempts  []AttemptRecord `json:"attempts"`
	CreatedAt time.Time       `json:"createdAt"`
}

// QuestionCount returns the number of questions in the quiz.
func (q *QuizDefinition) QuestionCount() int { return len(q.Questions) }

// QuizResult is the server's verdict on one answered question.
type QuizResult struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	Explanation   string `json:"explanation"`
}

// PackQuestion extends Question with the answer key, used only by quiz
// packs loaded server-side (fixtures, fake API). The key never travels
// to the client.
type PackQuestion struct {
	Prompt      string   `yaml:"question"`
	Options     []string `yaml:"options"`
	Answer      string   `yaml:"answer"`
	Explanation string   `yaml:"explanation,omitempty"`
}

// PackQuiz is one quiz entry of a YAML quiz pack.
type PackQuiz struct {
	ID        string         `yaml:"id"`
	Title     string         `yaml:"title"`
	Source    string         `yaml:"source"`
	Questions []PackQuestion `yaml:"questions"`
}

// Definition strips the answer key, yielding the client-facing quiz.
func (p *PackQuiz) Definition() QuizDefinition {
	def := QuizDefinition{
		ID:       p.ID,
		Title:    p.Title,
		Source:   p.Source,
		Attempts: []AttemptRecord{},
	}
	for _, q := range p.Questions {
		def.Questions = append(def.Questions, Question{
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
		})
	}
	return def
}

// QuizPack holds all quizzes of a pack file.
type QuizPack struct {
	Quizzes []PackQuiz `yaml:"quizzes"`
}

// LoadQuizPack reads and parses a quiz pack YAML file, rejecting entries
// that could not start a valid attempt.
func LoadQuizPack(path string) (*QuizPack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz pack: %w", err)
	}

	var pack QuizPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quiz pack YAML: %w", err)
	}

	for _, quiz := range pack.Quizzes {
		if quiz.ID == "" {
			return nil, fmt.Errorf("quiz %q has no id", quiz.Title)
		}
		if len(quiz.Questions) == 0 {
			return nil, fmt.Errorf("quiz %q has no questions", quiz.ID)
		}
		for i, q := range quiz.Questions {
			if len(q.Options) == 0 {
				return nil, fmt.Errorf("quiz %q question %d has no options", quiz.ID, i)
			}
			if !contains(q.Options, q.Answer) {
				return nil, fmt.Errorf("quiz %q question %d: answer is not one of the options", quiz.ID, i)
			}
		}
	}
	return &pack, nil
}

func contains(options []string, answer string) bool {
	for _, opt := range options {
		if opt == answer {
			return true
		}
	}
	return false
}
