package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizgen/internal/middleware"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stemsi/quizgen/internal/response"
	"github.com/stemsi/quizgen/internal/service"
	"github.com/stemsi/quizgen/internal/validator"
)

// QuizHandler drives a client's quiz session.
type QuizHandler struct {
	quizService     *service.QuizService
	documentService *service.DocumentService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, documentService *service.DocumentService) *QuizHandler {
	return &QuizHandler{quizService: quizService, documentService: documentService}
}

// GetState godoc
// GET /api/v1/quiz
// Returns the client's current screen.
func (h *QuizHandler) GetState(c *gin.Context) {
	response.Success(c, http.StatusOK, h.quizService.Snapshot(c.Request.Context(), middleware.ClientID(c)))
}

// StartQuiz godoc
// POST /api/v1/quiz/start
// Generates questions from the uploaded documents and starts the quiz.
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	var form model.StartQuizForm
	if fields := validator.BindForm(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	kinds, err := parseKinds(form.Kinds)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidKind, map[string]string{"kinds": err.Error()})
		return
	}

	docs, err := h.documentService.ReadUploads(form.Files)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrUnsupportedFile, map[string]string{"files": err.Error()})
		case errors.Is(err, service.ErrFileTooLarge):
			response.FailWithFields(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge, map[string]string{"files": err.Error()})
		case errors.Is(err, service.ErrTooManyFiles):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrTooManyFiles, map[string]string{"files": err.Error()})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	v, err := h.quizService.Start(c.Request.Context(), middleware.ClientID(c), model.QuizConfig{
		Documents:     docs,
		QuestionCount: form.QuestionCount,
		Kinds:         kinds,
		TimerMinutes:  form.TimerMinutes,
	})
	respondView(c, v, err)
}

// SubmitAnswer godoc
// POST /api/v1/quiz/answer
// Records and evaluates the answer to the current question.
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	v, err := h.quizService.Answer(c.Request.Context(), middleware.ClientID(c), req.Answer)
	respondView(c, v, err)
}

// Next godoc
// POST /api/v1/quiz/next
// Moves to the next question, finishing the quiz after the last one.
func (h *QuizHandler) Next(c *gin.Context) {
	v, err := h.quizService.Next(c.Request.Context(), middleware.ClientID(c))
	respondView(c, v, err)
}

// Previous godoc
// POST /api/v1/quiz/previous
func (h *QuizHandler) Previous(c *gin.Context) {
	v, err := h.quizService.Previous(c.Request.Context(), middleware.ClientID(c))
	respondView(c, v, err)
}

// Restart godoc
// POST /api/v1/quiz/restart
// Abandons whatever is on screen and returns to configuration.
func (h *QuizHandler) Restart(c *gin.Context) {
	v, err := h.quizService.Restart(c.Request.Context(), middleware.ClientID(c))
	respondView(c, v, err)
}

// parseKinds accepts repeated fields and comma-separated lists.
func parseKinds(raw []string) ([]model.QuestionKind, error) {
	var kinds []model.QuestionKind
	seen := make(map[model.QuestionKind]bool)
	for _, field := range raw {
		for _, part := range strings.Split(field, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			k, err := model.ParseQuestionKind(part)
			if err != nil {
				return nil, err
			}
			if !seen[k] {
				seen[k] = true
				kinds = append(kinds, k)
			}
		}
	}
	return kinds, nil
}
