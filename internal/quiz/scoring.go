package quiz

import (
	"fmt"
	"math"
)

// CalculateFinalScore 统计 answers[i] == questions[i].CorrectAnswer 的个数，不超过题目数
func CalculateFinalScore(questions []Question, answers []*int) int {
	score := 0
	for i, a := range answers {
		if i >= len(questions) {
			break
		}
		if a != nil && questions[i].IsCorrect(*a) {
			score++
		}
	}
	if score > len(questions) {
		score = len(questions)
	}
	return score
}

// Percentage 得分百分比
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) * 100 / float64(total)
}

// StarsForScore 每 20% 一颗星，最多 5 颗
func StarsForScore(score, total int) int {
	if total <= 0 || score <= 0 {
		return 0
	}
	stars := int(math.Ceil(Percentage(score, total) / 20))
	return clamp(stars, 0, 5)
}

// ReconstructAnswers 由保存的下标列表还原答案数组。
// 有 SelectedAnswers 时还原原选项；旧数据只知道对错，答错的题用 WrongAnswer 占位。
func ReconstructAnswers(questions []Question, snap Snapshot) []*int {
	answers := make([]*int, len(questions))

	correct := make(map[int]bool, len(snap.CorrectAnswers))
	for _, idx := range snap.CorrectAnswers {
		correct[idx] = true
	}
	exact := len(snap.SelectedAnswers) == len(snap.QuestionsAnswered)

	for j, qi := range snap.QuestionsAnswered {
		if qi < 0 || qi >= len(questions) {
			continue
		}
		var v int
		switch {
		case exact && questions[qi].validOption(snap.SelectedAnswers[j]):
			v = snap.SelectedAnswers[j]
		case correct[qi]:
			v = questions[qi].CorrectAnswer
		default:
			v = WrongAnswer
		}
		answers[qi] = &v
	}
	return answers
}

// ResumeQuestionCount 恢复时需要的题目数
func ResumeQuestionCount(requested, savedCurrent int) int {
	if savedCurrent+1 > requested {
		return savedCurrent + 1
	}
	return requested
}

// Limits 题目数量限制
type Limits struct {
	Default      int
	Max          int
	GuestRatio   float64
	GuestMinimum int
}

// MaxSelectable 游客 (limitProgress) 最多可选 max(GuestMinimum, floor(Max*GuestRatio)) 题
func (l Limits) MaxSelectable(limitProgress bool) int {
	if !limitProgress {
		return l.Max
	}
	capped := int(math.Floor(float64(l.Max) * l.GuestRatio))
	if capped < l.GuestMinimum {
		capped = l.GuestMinimum
	}
	if capped > l.Max {
		capped = l.Max
	}
	return capped
}

// QuestionCount 把请求的题目数规范到允许范围
func (l Limits) QuestionCount(requested int, limitProgress bool) int {
	if requested <= 0 {
		requested = l.Default
	}
	if limit := l.MaxSelectable(limitProgress); requested > limit {
		return limit
	}
	return requested
}

// Summary 写入活动日志的完成摘要
func Summary(subject, topic string, score, total int) string {
	return fmt.Sprintf("Completed %s quiz on %s: %d/%d correct (%.0f%%), %d stars",
		subject, topic, score, total, Percentage(score, total), StarsForScore(score, total))
}
