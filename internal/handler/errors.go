package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizgen/internal/quiz"
	"github.com/stemsi/quizgen/internal/response"
)

// quizErrorStatus maps a state machine error to an HTTP status and code.
func quizErrorStatus(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, quiz.ErrNoDocuments):
		return http.StatusBadRequest, response.ErrNoDocuments
	case errors.Is(err, quiz.ErrNoKinds):
		return http.StatusBadRequest, response.ErrNoQuestionKinds
	case errors.Is(err, quiz.ErrQuestionCount):
		return http.StatusBadRequest, response.ErrQuestionCount
	case errors.Is(err, quiz.ErrTimer):
		return http.StatusBadRequest, response.ErrInvalidTimer
	case errors.Is(err, quiz.ErrGeneration):
		return http.StatusBadGateway, response.ErrGenerationFailed
	case errors.Is(err, quiz.ErrAlreadyAnswered):
		return http.StatusConflict, response.ErrAlreadyAnswered
	case errors.Is(err, quiz.ErrBusy):
		return http.StatusConflict, response.ErrBusy
	case errors.Is(err, quiz.ErrQuizNotFound):
		return http.StatusNotFound, response.ErrQuizNotFound
	case errors.Is(err, quiz.ErrIllegalTransition), errors.Is(err, quiz.ErrStale):
		return http.StatusConflict, response.ErrIllegalTransition
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// respondView sends the view, or the mapped error with the view attached so
// the client can render the screen it is left on.
func respondView(c *gin.Context, v quiz.View, err error) {
	if err == nil {
		response.Success(c, http.StatusOK, v)
		return
	}

	status, code := quizErrorStatus(err)
	msg := response.GetMessage(code)
	if v.Error != "" {
		msg = v.Error
	}
	response.FailWithMessage(c, status, code, msg, v)
}
