package handlers

import (
	"net/http"

	"studygenie/internal/api"
	"studygenie/internal/assessment"
	"studygenie/internal/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type QuizHandler struct {
	log    *zap.Logger
	engine *assessment.Engine
	api    *api.Client
}

func NewQuizHandler(log *zap.Logger, engine *assessment.Engine, client *api.Client) *QuizHandler {
	return &QuizHandler{log: log, engine: engine, api: client}
}

// List returns the user's quizzes from the remote API.
func (h *QuizHandler) List(c *gin.Context) {
	quizzes, err := h.api.MyQuizzes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

// Start begins a fresh attempt over the named quiz.
func (h *QuizHandler) Start(c *gin.Context) {
	var req struct {
		QuizID string `json:"quizId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.QuizID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "quizId is required"})
		return
	}

	quizzes, err := h.api.MyQuizzes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	for _, quiz := range quizzes {
		if quiz.ID == req.QuizID {
			if err := h.engine.Start(quiz); err != nil {
				writeError(c, err)
				return
			}
			h.state(c)
			return
		}
	}
	writeError(c, errs.Newf(errs.Definition, "no quiz with id %q", req.QuizID))
}

func (h *QuizHandler) Answer(c *gin.Context) {
	var req struct {
		Option string `json:"option"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request body"})
		return
	}

	if err := h.engine.SelectAnswer(req.Option); err != nil {
		writeError(c, err)
		return
	}
	h.state(c)
}

func (h *QuizHandler) Next(c *gin.Context) {
	if err := h.engine.Next(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	h.state(c)
}

func (h *QuizHandler) Previous(c *gin.Context) {
	if err := h.engine.Previous(); err != nil {
		writeError(c, err)
		return
	}
	h.state(c)
}

func (h *QuizHandler) Submit(c *gin.Context) {
	if err := h.engine.Submit(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	h.state(c)
}

func (h *QuizHandler) Retake(c *gin.Context) {
	if err := h.engine.Retake(); err != nil {
		writeError(c, err)
		return
	}
	h.state(c)
}

func (h *QuizHandler) Exit(c *gin.Context) {
	h.engine.Exit()
	c.JSON(http.StatusOK, gin.H{"attempt": nil})
}

// State reports the live attempt, or null when idle.
func (h *QuizHandler) State(c *gin.Context) {
	h.state(c)
}

func (h *QuizHandler) state(c *gin.Context) {
	att, ok := h.engine.State()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"attempt": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempt": attemptView(att)})
}

// attemptView shapes the engine state for the presentation layer. Results
// are withheld until the attempt is reviewed.
func attemptView(att assessment.Attempt) gin.H {
	view := gin.H{
		"id":       att.ID,
		"quizId":   att.Quiz.ID,
		"title":    att.Quiz.Title,
		"phase":    att.Phase.String(),
		"index":    att.Index,
		"answers":  att.Answers,
		"total":    att.Quiz.QuestionCount(),
		"question": att.Quiz.Questions[att.Index],
	}
	if att.Err != "" {
		view["error"] = att.Err
	}
	if att.Phase == assessment.Reviewed {
		view["score"] = att.Score
		view["results"] = att.Results
	}
	return view
}
