package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFinalScore(t *testing.T) {
	qs := makeQuestions(4) // correct: 0,1,2,3

	tests := []struct {
		name    string
		answers []*int
		want    int
	}{
		{"all nil", make([]*int, 4), 0},
		{"all correct", []*int{intp(0), intp(1), intp(2), intp(3)}, 4},
		{"mixed", []*int{intp(0), intp(0), nil, intp(3)}, 2},
		{"wrong sentinel", []*int{intp(WrongAnswer), intp(1), nil, nil}, 1},
		{"more answers than questions", []*int{intp(0), intp(1), intp(2), intp(3), intp(0), intp(1)}, 4},
		{"fewer answers", []*int{intp(0)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateFinalScore(qs, tt.answers))
		})
	}
}

func TestStarsForScore(t *testing.T) {
	assert.Equal(t, 3, StarsForScore(6, 10))
	assert.Equal(t, 5, StarsForScore(10, 10))
	assert.Equal(t, 1, StarsForScore(1, 10))
	assert.Equal(t, 0, StarsForScore(0, 10))
	assert.Equal(t, 0, StarsForScore(3, 0))
	assert.Equal(t, 4, StarsForScore(7, 10))
}

func TestReconstructAnswers(t *testing.T) {
	qs := makeQuestions(5)

	t.Run("correctness only", func(t *testing.T) {
		answers := ReconstructAnswers(qs, Snapshot{
			QuestionsAnswered: []int{0, 1, 2},
			CorrectAnswers:    []int{0, 2},
		})
		assert.Equal(t, 0, *answers[0])
		assert.Equal(t, WrongAnswer, *answers[1])
		assert.Equal(t, 2, *answers[2])
		assert.Nil(t, answers[3])
	})

	t.Run("exact selections", func(t *testing.T) {
		answers := ReconstructAnswers(qs, Snapshot{
			QuestionsAnswered: []int{0, 1},
			CorrectAnswers:    []int{0},
			SelectedAnswers:   []int{0, 3},
		})
		assert.Equal(t, 0, *answers[0])
		assert.Equal(t, 3, *answers[1])
	})

	t.Run("out of range indices ignored", func(t *testing.T) {
		answers := ReconstructAnswers(qs, Snapshot{
			QuestionsAnswered: []int{-1, 7, 4},
			CorrectAnswers:    []int{4},
		})
		assert.Len(t, answers, 5)
		assert.Equal(t, 0, *answers[4])
	})
}

func TestResumeQuestionCount(t *testing.T) {
	assert.Equal(t, 10, ResumeQuestionCount(10, 3))
	assert.Equal(t, 13, ResumeQuestionCount(10, 12))
}

func TestLimits(t *testing.T) {
	l := Limits{Default: 10, Max: 60, GuestRatio: 0.3, GuestMinimum: 10}

	assert.Equal(t, 18, l.MaxSelectable(true))
	assert.Equal(t, 60, l.MaxSelectable(false))
	assert.Equal(t, 18, l.QuestionCount(40, true))
	assert.Equal(t, 40, l.QuestionCount(40, false))
	assert.Equal(t, 10, l.QuestionCount(0, true))

	small := Limits{Default: 5, Max: 20, GuestRatio: 0.3, GuestMinimum: 10}
	assert.Equal(t, 10, small.MaxSelectable(true))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Completed math quiz on fractions: 6/10 correct (60%), 3 stars",
		Summary("math", "fractions", 6, 10))
}
