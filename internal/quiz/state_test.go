package quiz

import (
	"errors"
	"testing"

	"kids_edu_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() model.ProgressKey {
	return model.ProgressKey{StudentID: "s-1", Subject: "math", Topic: "fractions", GradeLevel: 3}
}

func makeQuestions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			Question:      "q",
			QuestionType:  TypeMultipleChoice,
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
		}
	}
	return qs
}

func intp(v int) *int { return &v }

// answer 选择并进入下一题
func answer(t *testing.T, s *Session, index int) bool {
	t.Helper()
	require.NoError(t, s.SelectAnswer(index))
	_, err := s.CheckAnswer()
	require.NoError(t, err)
	done, err := s.Next()
	require.NoError(t, err)
	return done
}

func TestNewSession_NoQuestions(t *testing.T) {
	_, err := NewSession("id", testKey(), nil, false)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestSession_FullRun(t *testing.T) {
	qs := makeQuestions(10)
	s, err := NewSession("id", testKey(), qs, false)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, s.State)

	var done bool
	for i := 0; i < 10; i++ {
		choice := qs[i].CorrectAnswer
		if i >= 6 {
			choice = (choice + 1) % 4
		}
		done = answer(t, s, choice)
	}

	assert.True(t, done)
	assert.Equal(t, StateCompleted, s.State)
	assert.Equal(t, 6, s.Score)
	assert.Equal(t, 3, s.Stars)
}

func TestSession_SelectAnswerDoesNotRecord(t *testing.T) {
	s, _ := NewSession("id", testKey(), makeQuestions(3), false)
	require.NoError(t, s.SelectAnswer(2))
	assert.Nil(t, s.Answers[0])
	assert.Equal(t, 2, *s.SelectedAnswer)
}

func TestSession_SelectAnswerOutOfRange(t *testing.T) {
	s, _ := NewSession("id", testKey(), makeQuestions(3), false)
	assert.ErrorIs(t, s.SelectAnswer(4), ErrInvalidAnswer)
	assert.ErrorIs(t, s.SelectAnswer(-1), ErrInvalidAnswer)
}

func TestSession_CheckAnswerTwiceCountsOnce(t *testing.T) {
	qs := makeQuestions(3)
	s, _ := NewSession("id", testKey(), qs, false)
	require.NoError(t, s.SelectAnswer(qs[0].CorrectAnswer))

	ok, err := s.CheckAnswer()
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = s.CheckAnswer()
	require.NoError(t, err)

	assert.Equal(t, 1, s.Score)
	assert.ErrorIs(t, s.SelectAnswer(1), ErrAnswerLocked)
}

func TestSession_CheckWithoutSelection(t *testing.T) {
	s, _ := NewSession("id", testKey(), makeQuestions(3), false)
	_, err := s.CheckAnswer()
	assert.ErrorIs(t, err, ErrNoAnswerSelected)

	_, err = s.Next()
	assert.ErrorIs(t, err, ErrNoAnswerSelected)
}

func TestSession_TransitionsAfterPause(t *testing.T) {
	s, _ := NewSession("id", testKey(), makeQuestions(3), false)
	require.NoError(t, s.Pause())
	assert.Equal(t, StatePaused, s.State)

	var te *TransitionError
	assert.True(t, errors.As(s.SelectAnswer(0), &te))
	assert.True(t, errors.As(s.Pause(), &te))
	_, err := s.Next()
	assert.True(t, errors.As(err, &te))
}

func TestResume_RestoresIndexWithoutSelection(t *testing.T) {
	qs := makeQuestions(10)
	snap := Snapshot{
		CurrentQuestion:   4,
		QuestionsAnswered: []int{0, 1, 2, 3},
		CorrectAnswers:    []int{0, 2},
	}

	s, err := Resume("id", testKey(), qs, snap, false)
	require.NoError(t, err)

	assert.Equal(t, 4, s.CurrentIndex)
	assert.Nil(t, s.SelectedAnswer)
	assert.True(t, s.Resumed)
	assert.Equal(t, 2, s.Score)
}

func TestResume_CheckedAnswerStaysLocked(t *testing.T) {
	qs := makeQuestions(3)
	s, _ := NewSession("id", testKey(), qs, false)
	require.NoError(t, s.SelectAnswer(3))
	correct, err := s.CheckAnswer()
	require.NoError(t, err)
	require.False(t, correct)
	require.NoError(t, s.Pause())

	resumed, err := Resume("id2", testKey(), qs, s.Snapshot(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, resumed.CurrentIndex)
	assert.True(t, resumed.Checked)
	assert.Nil(t, resumed.SelectedAnswer)

	assert.ErrorIs(t, resumed.SelectAnswer(0), ErrAnswerLocked)
	correct, err = resumed.CheckAnswer()
	require.NoError(t, err)
	assert.False(t, correct)

	v := resumed.View()
	require.NotNil(t, v.LastAnswerCorrect)
	assert.False(t, *v.LastAnswerCorrect)

	done, err := resumed.Next()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0, resumed.Score)
	assert.False(t, resumed.Checked)
	assert.Equal(t, 3, *resumed.Answers[0])
}

func TestResume_ClampsIndex(t *testing.T) {
	s, err := Resume("id", testKey(), makeQuestions(3), Snapshot{CurrentQuestion: 9}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentIndex)
}

func TestPauseResume_KeepsListLengths(t *testing.T) {
	qs := makeQuestions(8)
	s, _ := NewSession("id", testKey(), qs, false)
	answer(t, s, qs[0].CorrectAnswer)
	answer(t, s, (qs[1].CorrectAnswer+1)%4)
	answer(t, s, qs[2].CorrectAnswer)
	require.NoError(t, s.Pause())

	before := s.Snapshot()
	resumed, err := Resume("id2", testKey(), qs, before, false)
	require.NoError(t, err)
	require.NoError(t, resumed.Pause())
	after := resumed.Snapshot()

	assert.Len(t, after.QuestionsAnswered, len(before.QuestionsAnswered))
	assert.Len(t, after.CorrectAnswers, len(before.CorrectAnswers))
	assert.Equal(t, before.SelectedAnswers, after.SelectedAnswers)
	assert.Equal(t, 3, after.CurrentQuestion)
}

func TestSession_View(t *testing.T) {
	qs := makeQuestions(2)
	s, _ := NewSession("id", testKey(), qs, true)

	v := s.View()
	require.NotNil(t, v.CurrentQuestion)
	assert.Nil(t, v.CurrentQuestion.CorrectAnswer)
	assert.True(t, v.LimitProgress)

	require.NoError(t, s.SelectAnswer(qs[0].CorrectAnswer))
	_, _ = s.CheckAnswer()
	v = s.View()
	require.NotNil(t, v.CurrentQuestion.CorrectAnswer)
	require.NotNil(t, v.LastAnswerCorrect)
	assert.True(t, *v.LastAnswerCorrect)

	_, _ = s.Next()
	answer(t, s, 0)
	v = s.View()
	assert.Nil(t, v.CurrentQuestion)
	assert.Len(t, v.Review, 2)
}
