package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stemsi/quizgen/internal/response"
	"github.com/stemsi/quizgen/internal/service"
)

type kindOption struct {
	Value model.QuestionKind `json:"value"`
	Label string             `json:"label"`
}

// QuizOptions describes what the configuration screen may offer.
type QuizOptions struct {
	Kinds             []kindOption `json:"kinds"`
	TimerMinutes      []int        `json:"timer_minutes"`
	MaxQuestions      int          `json:"max_questions"`
	MaxDocuments      int          `json:"max_documents"`
	MaxUploadBytes    int64        `json:"max_upload_bytes"`
	AcceptedFileTypes []string     `json:"accepted_file_types"`
}

// OptionsHandler serves static configuration for clients.
type OptionsHandler struct {
	options QuizOptions
}

// NewOptionsHandler creates a new OptionsHandler.
func NewOptionsHandler(cfg *config.Config) *OptionsHandler {
	kinds := make([]kindOption, len(model.AllKinds))
	for i, k := range model.AllKinds {
		kinds[i] = kindOption{Value: k, Label: k.Label()}
	}
	return &OptionsHandler{options: QuizOptions{
		Kinds:             kinds,
		TimerMinutes:      model.TimerOptions,
		MaxQuestions:      cfg.MaxQuestions,
		MaxDocuments:      cfg.MaxDocuments,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AcceptedFileTypes: service.AllowedExtensions(),
	}}
}

// GetOptions godoc
// GET /api/v1/public/options
func (h *OptionsHandler) GetOptions(c *gin.Context) {
	response.Success(c, http.StatusOK, h.options)
}
