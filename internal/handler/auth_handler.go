package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizgen/internal/middleware"
	"github.com/stemsi/quizgen/internal/response"
	"github.com/stemsi/quizgen/internal/service"
)

// AuthHandler handles client registration.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterClient godoc
// POST /api/v1/auth/client
// Issues a token for a new anonymous client. The client keeps it the way a
// browser keeps its local storage; losing it loses the history.
func (h *AuthHandler) RegisterClient(c *gin.Context) {
	token, err := h.authService.IssueClientToken()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, token)
}

// Me godoc
// GET /api/v1/auth/me
// Returns the authenticated client id.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"client_id":  claims.ClientID,
		"expires_at": claims.ExpiresAt.Time.UTC(),
	})
}
