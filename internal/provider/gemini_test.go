package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewGeminiClient(context.Background(), &config.Config{
		GeminiAPIKey:    "test-key",
		GeminiModel:     "gemini-test",
		GeminiBaseURL:   srv.URL + "/",
		ProviderTimeout: 5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

// sentRequest is the generateContent body as it arrives on the wire.
type sentRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MIMEType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMIMEType string `json:"responseMimeType"`
		ResponseSchema   *struct {
			Type string `json:"type"`
		} `json:"responseSchema"`
	} `json:"generationConfig"`
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewGeminiClient(context.Background(), &config.Config{GeminiModel: "gemini-test"}, zerolog.Nop())
	assert.Error(t, err)
}

func textResponse(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}}},
		},
	})
}

const threeQuestions = `[
	{"question":"ما عاصمة مصر؟","type":"MULTIPLE_CHOICE","options":["القاهرة","أسوان","الأقصر","طنطا"],"correctAnswer":"القاهرة"},
	{"question":"الشمس نجم.","type":"TRUE_FALSE","options":["صحيح","خطأ"],"correctAnswer":"صحيح"},
	{"question":"فسر حدوث الفصول.","type":"OPEN_ENDED","options":["x"],"correctAnswer":"ميل محور الأرض."}
]`

func TestFetchQuestionsSendsDocumentsAndSchema(t *testing.T) {
	var got sentRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		textResponse(w, threeQuestions)
	})

	docs := []model.Document{
		{Name: "a.pdf", MIMEType: "application/pdf", Data: []byte("pdf-bytes")},
		{Name: "b.png", MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	}
	qs, err := c.FetchQuestions(context.Background(), docs, 3, model.AllKinds)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.Equal(t, model.KindMultipleChoice, qs[0].Kind)
	assert.Equal(t, "القاهرة", qs[0].ReferenceAnswer)
	assert.Equal(t, []string{}, qs[2].Options)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
	parts := got.Contents[0].Parts
	require.Len(t, parts, 3)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "application/pdf", parts[0].InlineData.MIMEType)
	assert.Equal(t, "cGRmLWJ5dGVz", parts[0].InlineData.Data)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.NotEmpty(t, parts[2].Text)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMIMEType)
	require.NotNil(t, got.GenerationConfig.ResponseSchema)
	assert.True(t, strings.EqualFold("ARRAY", got.GenerationConfig.ResponseSchema.Type))
}

func TestFetchQuestionsTruncatesToCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		textResponse(w, threeQuestions)
	})

	qs, err := c.FetchQuestions(context.Background(), nil, 2, model.AllKinds)
	require.NoError(t, err)
	assert.Len(t, qs, 2)
}

func TestFetchQuestionsFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		reason  error
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}, ErrUpstream},
		{"no candidates", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}, ErrUpstream},
		{"not json", func(w http.ResponseWriter, _ *http.Request) {
			textResponse(w, "Here are your questions: 1. ...")
		}, ErrUnparseable},
		{"object instead of list", func(w http.ResponseWriter, _ *http.Request) {
			textResponse(w, `{"question":"x"}`)
		}, ErrUnparseable},
		{"empty list", func(w http.ResponseWriter, _ *http.Request) {
			textResponse(w, `[]`)
		}, ErrNoQuestions},
		{"only unknown kinds", func(w http.ResponseWriter, _ *http.Request) {
			textResponse(w, `[{"question":"x","type":"ESSAY","options":[],"correctAnswer":"y"}]`)
		}, ErrNoQuestions},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			qs, err := c.FetchQuestions(context.Background(), nil, 5, model.AllKinds)
			require.Error(t, err)
			assert.Nil(t, qs)
			assert.ErrorIs(t, err, tc.reason)

			var ge *GenerationError
			assert.True(t, errors.As(err, &ge))
		})
	}
}

func TestParseQuestionsDropsInvalidEntries(t *testing.T) {
	qs, err := parseQuestions(`[
		{"question":"","type":"TRUE_FALSE","options":["صحيح","خطأ"],"correctAnswer":"صحيح"},
		{"question":"x","type":"MULTIPLE_CHOICE","options":["only"],"correctAnswer":"only"},
		{"question":"y","type":"fill_in_the_blank","options":null,"correctAnswer":"z"}
	]`)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, model.KindFillInBlank, qs[0].Kind)
	assert.Equal(t, []string{}, qs[0].Options)
}

func TestEvaluateOpenEnded(t *testing.T) {
	t.Run("judged", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			textResponse(w, `{"isCorrect": true, "feedback": "إجابة صحيحة"}`)
		})
		o := c.EvaluateOpenEnded(context.Background(), "q", "ref", "ans")
		assert.True(t, o.IsCorrect)
		assert.Equal(t, "ref", o.ReferenceAnswer)
		assert.Equal(t, "إجابة صحيحة", o.FeedbackText())
	})

	failures := map[string]http.HandlerFunc{
		"upstream": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"garbage": func(w http.ResponseWriter, _ *http.Request) {
			textResponse(w, `maybe`)
		},
		"missing verdict": func(w http.ResponseWriter, _ *http.Request) {
			textResponse(w, `{"feedback": "?"}`)
		},
	}
	for name, h := range failures {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, h)
			assert.Equal(t, EvaluationFailure("ref"), c.EvaluateOpenEnded(context.Background(), "q", "ref", "ans"))
		})
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))

	// Each Arabic letter is two bytes; cutting at 3 must not split the second one.
	got := truncate("خطأ", 3)
	assert.Equal(t, "خ...", got)
	assert.True(t, utf8.ValidString(got))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "لم يتم إنشاء أسئلة لهذا المحتوى.", UserMessage(generationError(ErrNoQuestions, nil)))
	assert.Contains(t, UserMessage(generationError(ErrUnparseable, errors.New("eof"))), "فشل في تحليل")
	assert.Contains(t, UserMessage(errors.New("dial tcp")), "لا يمكن إنشاء الاختبار")
}
