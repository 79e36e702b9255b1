package quiz

// Question 一道测验题，正确性只由下标比较决定
type Question struct {
	Question      string   `json:"question"`
	QuestionType  string   `json:"questionType"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
	ModelAnswer   string   `json:"modelAnswer,omitempty"`
}

const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer"
)

// WrongAnswer 旧数据恢复时无法得知原选项，用它占位表示答错
const WrongAnswer = -1

func (q Question) IsCorrect(answer int) bool {
	return answer == q.CorrectAnswer
}

func (q Question) validOption(index int) bool {
	if index < 0 {
		return false
	}
	if len(q.Options) == 0 {
		return true
	}
	return index < len(q.Options)
}
