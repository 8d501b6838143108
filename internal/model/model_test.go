package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentageRoundsHalfUp(t *testing.T) {
	cases := []struct{ score, total, want int }{
		{0, 0, 0},
		{0, 4, 0},
		{1, 4, 25},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{7, 7, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Percentage(tc.score, tc.total), "%d/%d", tc.score, tc.total)
	}
}

func TestFeedbackBand(t *testing.T) {
	assert.Equal(t, "علامة كاملة! أنت عبقري!", FeedbackBand(100))
	assert.Equal(t, FeedbackBand(80), FeedbackBand(99))
	assert.NotEqual(t, FeedbackBand(80), FeedbackBand(79))
	assert.Equal(t, FeedbackBand(60), FeedbackBand(79))
	assert.Equal(t, FeedbackBand(40), FeedbackBand(59))
	assert.Equal(t, "واصل المذاكرة! ستصل إلى هدفك.", FeedbackBand(39))
	assert.Equal(t, FeedbackBand(0), FeedbackBand(39))
}

func TestParseQuestionKind(t *testing.T) {
	k, err := ParseQuestionKind(" true_false ")
	require.NoError(t, err)
	assert.Equal(t, KindTrueFalse, k)

	_, err = ParseQuestionKind("ESSAY")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestQuestionConstructors(t *testing.T) {
	_, err := NewChoiceQuestion(KindOpenEnded, "x", []string{"a", "b"}, "a")
	assert.Error(t, err)

	_, err = NewTextQuestion(KindMultipleChoice, "x", "a")
	assert.Error(t, err)

	_, err = NewChoiceQuestion(KindTrueFalse, "x", []string{"صحيح"}, "صحيح")
	assert.Error(t, err)

	q, err := NewChoiceQuestion(KindMultipleChoice, "x", []string{"a", "b"}, "c")
	require.NoError(t, err)
	assert.False(t, q.ReferenceInOptions())

	q, err = NewTextQuestion(KindFillInBlank, "x ____", "y")
	require.NoError(t, err)
	assert.Equal(t, []string{}, q.Options)
	assert.True(t, q.ReferenceInOptions())
}

func TestForTakerHidesReference(t *testing.T) {
	q := Question{Text: "x", Kind: KindOpenEnded, Options: []string{"stray"}, ReferenceAnswer: "secret"}
	ft := q.ForTaker()
	assert.Equal(t, "x", ft.Text)
	assert.Equal(t, []string{}, ft.Options)
}

func TestCompletedQuizValid(t *testing.T) {
	q := CompletedQuiz{
		ID:                1,
		Questions:         []Question{{Text: "x", Kind: KindTrueFalse, Options: []string{"صحيح", "خطأ"}, ReferenceAnswer: "خطأ"}},
		TotalQuestions:    1,
		UserAnswers:       []*string{nil},
		EvaluationResults: []*EvaluationOutcome{nil},
	}
	assert.True(t, q.Valid())

	bad := q
	bad.Score = 2
	assert.False(t, bad.Valid())

	bad = q
	bad.UserAnswers = nil
	assert.False(t, bad.Valid())

	bad = q
	bad.ID = 0
	assert.False(t, bad.Valid())
}

func TestValidTimer(t *testing.T) {
	five, seven := 5, 7
	assert.True(t, ValidTimer(nil))
	assert.True(t, ValidTimer(&five))
	assert.False(t, ValidTimer(&seven))
}
