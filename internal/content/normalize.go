package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kids_edu_backend/internal/quiz"
)

var ErrMalformedContent = errors.New("malformed content")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedContent, fmt.Sprintf(format, args...))
}

// decode 解析 AI 返回：支持 {content: ...} 包装、JSON 字符串、```json 代码块
func decode(raw []byte) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		text := stripFences(string(raw))
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return nil, malformed("invalid JSON: %v", err)
		}
	}
	return unwrap(v, 0), nil
}

func unwrap(v any, depth int) any {
	if depth > 3 {
		return v
	}
	switch t := v.(type) {
	case string:
		var inner any
		if err := json.Unmarshal([]byte(stripFences(t)), &inner); err == nil {
			return unwrap(inner, depth+1)
		}
		return t
	case map[string]any:
		if c, ok := t["content"]; ok && len(t) <= 2 {
			switch c.(type) {
			case map[string]any, string, []any:
				return unwrap(c, depth+1)
			}
		}
		return t
	default:
		return v
	}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func asObject(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, malformed("expected object, got %T", v)
	}
	return m, nil
}

// first 返回第一个存在的字段
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func strList(v any, keys ...string) []string {
	out := []string{}
	switch t := v.(type) {
	case nil:
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range t {
			var s string
			if m, ok := item.(map[string]any); ok {
				s = str(first(m, keys...))
			} else {
				s = str(item)
			}
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func toSection(v any) (Section, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return Section{Content: s}, s != ""
	case map[string]any:
		sec := Section{
			Title:   str(first(t, "title", "heading", "subtitle")),
			Content: str(first(t, "content", "text", "body", "explanation")),
			Example: str(first(t, "example", "examples")),
		}
		return sec, sec.Content != "" || sec.Title != ""
	}
	return Section{}, false
}

// NormalizeLessonContent 把不同形态的 AI 课程 JSON 整理成 Lesson；缺少 mainContent 视为损坏
func NormalizeLessonContent(raw []byte) (*Lesson, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}
	m, err := asObject(v)
	if err != nil {
		return nil, err
	}

	lesson := &Lesson{
		Title:        str(first(m, "title", "lessonTitle")),
		Introduction: str(first(m, "introduction", "intro", "overview")),
		Summary:      str(first(m, "summary", "conclusion")),
		Activities:   strList(first(m, "activities", "practiceActivities"), "description", "title", "instructions"),
		FunFacts:     strList(first(m, "funFacts", "fun_facts"), "fact", "text"),
		MainContent:  []Section{},
	}

	switch mc := first(m, "mainContent", "main_content", "sections", "chapters").(type) {
	case nil:
		return nil, malformed("missing mainContent")
	case []any:
		for _, item := range mc {
			if sec, ok := toSection(item); ok {
				lesson.MainContent = append(lesson.MainContent, sec)
			}
		}
	default:
		if sec, ok := toSection(mc); ok {
			lesson.MainContent = append(lesson.MainContent, sec)
		}
	}

	if len(lesson.MainContent) == 0 {
		return nil, malformed("empty mainContent")
	}
	return lesson, nil
}

// IsMalformedLesson 缓存行检测
func IsMalformedLesson(raw []byte) bool {
	_, err := NormalizeLessonContent(raw)
	return err != nil
}

// NormalizeQuizContent 整理测验；无法确定正确答案的题目被丢弃
func NormalizeQuizContent(raw []byte) (*QuizContent, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}

	out := &QuizContent{Questions: []quiz.Question{}}
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		out.Title = str(first(t, "title", "quizTitle"))
		items, _ = first(t, "questions", "quiz", "items").([]any)
	default:
		return nil, malformed("expected quiz object, got %T", v)
	}

	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if q, ok := toQuestion(m); ok {
			out.Questions = append(out.Questions, q)
		}
	}

	if len(out.Questions) == 0 {
		return nil, malformed("no usable questions")
	}
	return out, nil
}

func toQuestion(m map[string]any) (quiz.Question, bool) {
	q := quiz.Question{
		Question:     str(first(m, "question", "text", "prompt")),
		QuestionType: str(first(m, "questionType", "question_type", "type")),
		Options:      strList(first(m, "options", "choices", "answers"), "text", "option", "label"),
		Explanation:  str(first(m, "explanation", "rationale")),
		ModelAnswer:  str(first(m, "modelAnswer", "model_answer", "sampleAnswer")),
	}
	if q.Question == "" {
		return q, false
	}
	if q.QuestionType == "" {
		q.QuestionType = quiz.TypeMultipleChoice
		if isTrueFalse(q.Options) {
			q.QuestionType = quiz.TypeTrueFalse
		}
	}
	if q.QuestionType == quiz.TypeTrueFalse && len(q.Options) == 0 {
		q.Options = []string{"True", "False"}
	}

	idx, ok := answerIndex(first(m, "correctAnswer", "correct_answer", "answer", "correctIndex"), q.Options)
	if !ok {
		return q, false
	}
	q.CorrectAnswer = idx
	return q, true
}

func isTrueFalse(options []string) bool {
	return len(options) == 2 &&
		strings.EqualFold(options[0], "true") &&
		strings.EqualFold(options[1], "false")
}

// answerIndex 支持下标、数字字符串、字母 (A-D)、选项原文、布尔值
func answerIndex(v any, options []string) (int, bool) {
	inRange := func(i int) bool { return i >= 0 && (len(options) == 0 || i < len(options)) }

	switch t := v.(type) {
	case float64:
		i := int(t)
		return i, float64(i) == t && inRange(i)
	case bool:
		for i, o := range options {
			if strings.EqualFold(o, strconv.FormatBool(t)) {
				return i, true
			}
		}
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		for i, o := range options {
			if strings.EqualFold(o, s) {
				return i, true
			}
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, inRange(i)
		}
		if len(s) == 1 {
			i := int(strings.ToUpper(s)[0]) - 'A'
			return i, i < 26 && inRange(i)
		}
		// "B) 12" 形式
		if len(s) > 2 && (s[1] == ')' || s[1] == '.') {
			i := int(strings.ToUpper(s[:1])[0]) - 'A'
			return i, i < 26 && inRange(i)
		}
	}
	return 0, false
}

// NormalizeGameContent 整理小游戏
func NormalizeGameContent(raw []byte) (*Game, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}
	m, err := asObject(v)
	if err != nil {
		return nil, err
	}

	g := &Game{
		Title:        str(first(m, "title", "gameTitle")),
		GameType:     str(first(m, "gameType", "game_type", "type")),
		Instructions: str(first(m, "instructions", "howToPlay", "description")),
		Items:        []GameItem{},
	}
	if g.GameType == "" {
		g.GameType = "matching"
	}

	items, _ := first(m, "items", "pairs", "rounds", "questions").([]any)
	for _, item := range items {
		im, ok := item.(map[string]any)
		if !ok {
			continue
		}
		gi := GameItem{
			Prompt:  str(first(im, "prompt", "question", "term", "left")),
			Answer:  str(first(im, "answer", "definition", "match", "right", "correctAnswer")),
			Options: strList(first(im, "options", "choices")),
			Hint:    str(first(im, "hint")),
		}
		if gi.Prompt == "" || gi.Answer == "" {
			continue
		}
		if len(gi.Options) == 0 {
			gi.Options = nil
		}
		g.Items = append(g.Items, gi)
	}

	if len(g.Items) == 0 {
		return nil, malformed("game has no playable items")
	}
	return g, nil
}
