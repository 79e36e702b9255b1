package quiz

// QuestionView 返回给客户端的题目；答案在检查之后才公开
type QuestionView struct {
	Question      string   `json:"question"`
	QuestionType  string   `json:"questionType"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	ModelAnswer   string   `json:"modelAnswer,omitempty"`
}

// SessionView 会话的客户端视图
type SessionView struct {
	ID                   string         `json:"id"`
	Subject              string         `json:"subject"`
	Topic                string         `json:"topic"`
	GradeLevel           int            `json:"gradeLevel"`
	State                State          `json:"state"`
	CurrentQuestionIndex int            `json:"currentQuestionIndex"`
	TotalQuestions       int            `json:"totalQuestions"`
	CurrentQuestion      *QuestionView  `json:"currentQuestion,omitempty"`
	SelectedAnswer       *int           `json:"selectedAnswer"`
	Checked              bool           `json:"checked"`
	LastAnswerCorrect    *bool          `json:"lastAnswerCorrect,omitempty"`
	Answers              []*int         `json:"answers"`
	Score                int            `json:"score"`
	Stars                int            `json:"stars"`
	LimitProgress        bool           `json:"limitProgress"`
	Resumed              bool           `json:"resumed"`
	Review               []QuestionView `json:"review,omitempty"`
}

func reveal(q Question) QuestionView {
	answer := q.CorrectAnswer
	return QuestionView{
		Question:      q.Question,
		QuestionType:  q.QuestionType,
		Options:       q.Options,
		CorrectAnswer: &answer,
		Explanation:   q.Explanation,
		ModelAnswer:   q.ModelAnswer,
	}
}

func (s *Session) View() SessionView {
	v := SessionView{
		ID:                   s.ID,
		Subject:              s.Key.Subject,
		Topic:                s.Key.Topic,
		GradeLevel:           s.Key.GradeLevel,
		State:                s.State,
		CurrentQuestionIndex: s.CurrentIndex,
		TotalQuestions:       len(s.Questions),
		SelectedAnswer:       s.SelectedAnswer,
		Checked:              s.Checked,
		Answers:              s.Answers,
		Score:                s.Score,
		Stars:                s.Stars,
		LimitProgress:        s.LimitProgress,
		Resumed:              s.Resumed,
	}

	if s.State == StateCompleted {
		v.Review = make([]QuestionView, len(s.Questions))
		for i, q := range s.Questions {
			v.Review[i] = reveal(q)
		}
		return v
	}

	q := s.Current()
	if s.Checked {
		qv := reveal(q)
		v.CurrentQuestion = &qv
		if a := s.Answers[s.CurrentIndex]; a != nil {
			ok := q.IsCorrect(*a)
			v.LastAnswerCorrect = &ok
		}
	} else {
		v.CurrentQuestion = &QuestionView{
			Question:     q.Question,
			QuestionType: q.QuestionType,
			Options:      q.Options,
		}
	}
	return v
}
