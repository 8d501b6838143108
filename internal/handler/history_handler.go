package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizgen/internal/middleware"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stemsi/quizgen/internal/response"
	"github.com/stemsi/quizgen/internal/service"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// HistoryHandler serves the history screens.
type HistoryHandler struct {
	quizService *service.QuizService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(quizService *service.QuizService) *HistoryHandler {
	return &HistoryHandler{quizService: quizService}
}

// OpenHistory godoc
// POST /api/v1/history/open
// Switches the client to the history screen.
func (h *HistoryHandler) OpenHistory(c *gin.Context) {
	v, err := h.quizService.OpenHistory(c.Request.Context(), middleware.ClientID(c))
	respondView(c, v, err)
}

// ListHistory godoc
// GET /api/v1/history?page=1&per_page=20
// Lists completed quizzes, newest first, without changing the screen.
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}

	all := h.quizService.History(c.Request.Context(), middleware.ClientID(c))

	rows := make([]model.Summary, 0, perPage)
	// Pages past the end are empty; checking first keeps the offset from overflowing.
	if page-1 <= len(all)/perPage {
		for i := (page - 1) * perPage; i < len(all) && len(rows) < perPage; i++ {
			rows = append(rows, all[i].Summarize())
		}
	}

	response.SuccessWithPagination(c, http.StatusOK, rows, response.NewPagination(page, perPage, len(all)))
}

// ReviewQuiz godoc
// POST /api/v1/history/:id/review
// Opens a completed quiz from the history screen.
func (h *HistoryHandler) ReviewQuiz(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	v, err := h.quizService.Review(c.Request.Context(), middleware.ClientID(c), id)
	respondView(c, v, err)
}

// ExitHistory godoc
// POST /api/v1/history/exit
// Leaves the history list or a review.
func (h *HistoryHandler) ExitHistory(c *gin.Context) {
	v, err := h.quizService.ExitHistory(c.Request.Context(), middleware.ClientID(c))
	respondView(c, v, err)
}
