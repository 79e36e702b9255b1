package quiz

import (
	"errors"
	"fmt"
	"time"

	"kids_edu_backend/internal/model"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StatePaused     State = "paused"
	StateCompleted  State = "completed"
)

var (
	ErrNoQuestions      = errors.New("quiz has no questions")
	ErrInvalidAnswer    = errors.New("answer index out of range")
	ErrNoAnswerSelected = errors.New("no answer selected")
	ErrAnswerLocked     = errors.New("answer already checked")
)

// TransitionError 非法状态迁移
type TransitionError struct {
	From State
	Op   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a quiz that is %s", e.Op, e.From)
}

// Session 一次测验的内存状态
type Session struct {
	ID             string            `json:"id"`
	Key            model.ProgressKey `json:"key"`
	Language       string            `json:"language"`
	Questions      []Question        `json:"questions"`
	Answers        []*int            `json:"answers"`
	CurrentIndex   int               `json:"currentQuestionIndex"`
	SelectedAnswer *int              `json:"selectedAnswer"`
	Checked        bool              `json:"checked"`
	Score          int               `json:"score"`
	State          State             `json:"state"`
	LimitProgress  bool              `json:"limitProgress"`
	Resumed        bool              `json:"resumed"`
	Stars          int               `json:"stars"`
	// Version 最近一次成功写入的进度行版本
	Version   int       `json:"version"`
	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot 持久化的进度
type Snapshot struct {
	CurrentQuestion   int
	QuestionsAnswered []int
	CorrectAnswers    []int
	SelectedAnswers   []int
	IsCompleted       bool
}

func NewSession(id string, key model.ProgressKey, questions []Question, limitProgress bool) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	now := time.Now()
	return &Session{
		ID:            id,
		Key:           key,
		Questions:     questions,
		Answers:       make([]*int, len(questions)),
		State:         StateInProgress,
		LimitProgress: limitProgress,
		StartedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Resume 从保存的进度恢复：定位到 CurrentQuestion，清空当前选择
func Resume(id string, key model.ProgressKey, questions []Question, snap Snapshot, limitProgress bool) (*Session, error) {
	s, err := NewSession(id, key, questions, limitProgress)
	if err != nil {
		return nil, err
	}
	s.Answers = ReconstructAnswers(questions, snap)
	s.CurrentIndex = clamp(snap.CurrentQuestion, 0, len(questions)-1)
	s.Score = CalculateFinalScore(questions, s.Answers)
	// 暂停前已检查过的题恢复后仍然锁定
	s.Checked = s.Answers[s.CurrentIndex] != nil
	s.Resumed = true
	return s, nil
}

func (s *Session) Current() Question {
	return s.Questions[s.CurrentIndex]
}

func (s *Session) IsLast() bool {
	return s.CurrentIndex >= len(s.Questions)-1
}

func (s *Session) requireInProgress(op string) error {
	if s.State != StateInProgress {
		return &TransitionError{From: s.State, Op: op}
	}
	return nil
}

// SelectAnswer 只修改内存状态
func (s *Session) SelectAnswer(index int) error {
	if err := s.requireInProgress("select an answer in"); err != nil {
		return err
	}
	if s.Checked {
		return ErrAnswerLocked
	}
	if !s.Current().validOption(index) {
		return ErrInvalidAnswer
	}
	v := index
	s.SelectedAnswer = &v
	s.touch()
	return nil
}

// CheckAnswer 揭示当前题是否正确；重复调用不会重复计分
func (s *Session) CheckAnswer() (bool, error) {
	if err := s.requireInProgress("check"); err != nil {
		return false, err
	}
	if s.Checked {
		if a := s.Answers[s.CurrentIndex]; a != nil {
			return s.Current().IsCorrect(*a), nil
		}
	}
	if s.SelectedAnswer == nil {
		return false, ErrNoAnswerSelected
	}
	v := *s.SelectedAnswer
	s.Answers[s.CurrentIndex] = &v
	s.Checked = true
	s.Score = CalculateFinalScore(s.Questions, s.Answers)
	s.touch()
	return s.Current().IsCorrect(v), nil
}

// Next 记录当前答案并前进；最后一题时结束测验并返回 true
func (s *Session) Next() (bool, error) {
	if err := s.requireInProgress("advance"); err != nil {
		return false, err
	}
	if s.SelectedAnswer != nil {
		v := *s.SelectedAnswer
		s.Answers[s.CurrentIndex] = &v
	} else if s.Answers[s.CurrentIndex] == nil {
		return false, ErrNoAnswerSelected
	}

	if s.IsLast() {
		s.Score = CalculateFinalScore(s.Questions, s.Answers)
		s.Stars = StarsForScore(s.Score, len(s.Questions))
		s.State = StateCompleted
		s.SelectedAnswer = nil
		s.Checked = false
		s.touch()
		return true, nil
	}

	s.Score = CalculateFinalScore(s.Questions, s.Answers)
	s.CurrentIndex++
	s.SelectedAnswer = nil
	s.Checked = false
	s.touch()
	return false, nil
}

// Pause 暂停，未检查的选择会被丢弃
func (s *Session) Pause() error {
	if err := s.requireInProgress("pause"); err != nil {
		return err
	}
	s.State = StatePaused
	s.SelectedAnswer = nil
	s.Checked = false
	s.touch()
	return nil
}

// Snapshot 生成待持久化的进度：按题目下标升序
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		CurrentQuestion:   s.CurrentIndex,
		QuestionsAnswered: []int{},
		CorrectAnswers:    []int{},
		SelectedAnswers:   []int{},
		IsCompleted:       s.State == StateCompleted,
	}
	for i, a := range s.Answers {
		if a == nil {
			continue
		}
		snap.QuestionsAnswered = append(snap.QuestionsAnswered, i)
		snap.SelectedAnswers = append(snap.SelectedAnswers, *a)
		if s.Questions[i].IsCorrect(*a) {
			snap.CorrectAnswers = append(snap.CorrectAnswers, i)
		}
	}
	return snap
}

// AnsweredCount 已作答题数
func (s *Session) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if a != nil {
			n++
		}
	}
	return n
}

// ProgressPercent 作答进度百分比
func (s *Session) ProgressPercent() int {
	if len(s.Questions) == 0 {
		return 0
	}
	return s.AnsweredCount() * 100 / len(s.Questions)
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
