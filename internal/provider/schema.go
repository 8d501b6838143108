package provider

import (
	"github.com/stemsi/quizgen/internal/model"
	"google.golang.org/genai"
)

func quizSchema() *genai.Schema {
	kinds := make([]string, len(model.AllKinds))
	for i, k := range model.AllKinds {
		kinds[i] = string(k)
	}

	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question": {Type: genai.TypeString, Description: "The quiz question text, in Arabic."},
				"type":     {Type: genai.TypeString, Enum: kinds, Description: "The type of the question."},
				"options": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "Possible answers in Arabic. 4 for MULTIPLE_CHOICE, ['صحيح', 'خطأ'] for TRUE_FALSE, empty otherwise.",
				},
				"correctAnswer": {
					Type:        genai.TypeString,
					Description: "The correct answer in Arabic; one of 'options' for choice questions.",
				},
			},
			Required: []string{"question", "type", "options", "correctAnswer"},
		},
	}
}

func evaluationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isCorrect": {Type: genai.TypeBoolean, Description: "Whether the user's answer is correct or semantically equivalent."},
			"feedback":  {Type: genai.TypeString, Description: "A brief explanation in Arabic."},
		},
		Required: []string{"isCorrect", "feedback"},
	}
}
