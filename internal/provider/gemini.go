package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/model"
	"google.golang.org/genai"
)

// GeminiClient generates and judges questions through the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewGeminiClient creates a GeminiClient from configuration. It fails when no
// API key is configured.
func NewGeminiClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*GeminiClient, error) {
	timeout := cfg.ProviderTimeout
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.GeminiBaseURL,
			Timeout: &timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.GeminiModel,
		log:    log.With().Str("component", "gemini").Logger(),
	}, nil
}

// rawQuestion is the shape the model is asked to produce.
type rawQuestion struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

type rawEvaluation struct {
	IsCorrect *bool  `json:"isCorrect"`
	Feedback  string `json:"feedback"`
}

// FetchQuestions asks the model for count questions of the given kinds based on docs.
func (g *GeminiClient) FetchQuestions(ctx context.Context, docs []model.Document, count int, kinds []model.QuestionKind) ([]model.Question, error) {
	parts := make([]*genai.Part, 0, len(docs)+1)
	for _, d := range docs {
		parts = append(parts, genai.NewPartFromBytes(d.Data, d.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(questionPrompt(count, kinds)))

	start := time.Now()
	text, err := g.generate(ctx, parts, quizSchema())
	if err != nil {
		g.log.Error().Err(err).Int("documents", len(docs)).Msg("Question generation request failed")
		return nil, generationError(ErrUpstream, err)
	}

	questions, err := parseQuestions(text)
	if err != nil {
		g.log.Error().Err(err).Msg("Question generation response rejected")
		return nil, err
	}

	if len(questions) > count {
		questions = questions[:count]
	}

	g.log.Info().
		Int("requested", count).
		Int("received", len(questions)).
		Dur("took", time.Since(start)).
		Msg("Questions generated")

	return questions, nil
}

// EvaluateOpenEnded asks the model whether answer is close enough to reference.
func (g *GeminiClient) EvaluateOpenEnded(ctx context.Context, question, reference, answer string) model.EvaluationOutcome {
	text, err := g.generate(ctx, []*genai.Part{genai.NewPartFromText(evaluationPrompt(question, reference, answer))}, evaluationSchema())
	if err != nil {
		g.log.Warn().Err(err).Msg("Answer evaluation request failed")
		return EvaluationFailure(reference)
	}

	var ev rawEvaluation
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &ev); err != nil || ev.IsCorrect == nil {
		g.log.Warn().Err(err).Msg("Answer evaluation response rejected")
		return EvaluationFailure(reference)
	}

	return model.NewOutcome(*ev.IsCorrect, reference, ev.Feedback)
}

// generate sends one generateContent call constrained to JSON matching sch and
// returns the text of the first candidate.
func (g *GeminiClient) generate(ctx context.Context, parts []*genai.Part, sch *genai.Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   sch,
		})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("status %d: %s", apiErr.Code, truncate(apiErr.Message, 300))
		}
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("response has no candidates")
	}
	return resp.Text(), nil
}

// parseQuestions decodes the model's JSON array. Entries with unknown kinds or
// missing fields are dropped.
func parseQuestions(text string) ([]model.Question, error) {
	var raw []rawQuestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, generationError(ErrUnparseable, err)
	}

	questions := make([]model.Question, 0, len(raw))
	for _, r := range raw {
		kind, err := model.ParseQuestionKind(r.Type)
		if err != nil {
			continue
		}
		q := model.Question{
			Text:            strings.TrimSpace(r.Question),
			Kind:            kind,
			Options:         r.Options,
			ReferenceAnswer: r.CorrectAnswer,
		}.Normalize()
		if q.Validate() != nil {
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, generationError(ErrNoQuestions, nil)
	}
	return questions, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
