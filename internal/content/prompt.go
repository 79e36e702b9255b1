package content

import (
	"fmt"
	"sort"
	"strings"

	"kids_edu_backend/internal/llm"
	"kids_edu_backend/internal/model"
)

const systemPrompt = "You are a friendly teacher who writes learning material for children. " +
	"Use short sentences, concrete examples and an encouraging tone. " +
	"Always answer in the requested language and return only JSON."

// Normalize 填充默认值
func (r *Request) Normalize(defaultLanguage string, defaultQuestions int) {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Topic = strings.TrimSpace(r.Topic)
	r.Subtopic = strings.TrimSpace(r.Subtopic)
	if r.Language == "" {
		r.Language = defaultLanguage
	}
	if r.ContentType == model.ContentQuiz && r.QuestionCount <= 0 {
		r.QuestionCount = defaultQuestions
	}
}

// LLMRequest 组装 provider 请求：边缘函数用 Payload，聊天模型用提示词
func (r Request) LLMRequest(maxTokens int, temperature float64) llm.Request {
	return llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: r.Prompt()}},
		Payload:     r.payload(),
		Schema:      SchemaFor(r.ContentType),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

func (r Request) payload() Request {
	p := r
	if r.ContentType == model.ContentQuiz && r.QuestionCount > 0 {
		params := make(map[string]any, len(r.EnhancedParams)+1)
		for k, v := range r.EnhancedParams {
			params[k] = v
		}
		params["questionCount"] = r.QuestionCount
		p.EnhancedParams = params
	}
	return p
}

func (r Request) Prompt() string {
	var b strings.Builder

	var subject string
	if r.Subtopic != "" {
		subject = fmt.Sprintf("%s (%s: %s)", r.Subject, r.Topic, r.Subtopic)
	} else {
		subject = fmt.Sprintf("%s (%s)", r.Subject, r.Topic)
	}

	switch r.ContentType {
	case model.ContentQuiz:
		fmt.Fprintf(&b, "Write a quiz with exactly %d questions about %s for a grade %d student.\n",
			r.QuestionCount, subject, r.GradeLevel)
		b.WriteString("Each question has 4 options (or True/False), the index of the correct option and a one sentence explanation.\n")
	case model.ContentGame:
		fmt.Fprintf(&b, "Design a short learning game about %s for a grade %d student.\n", subject, r.GradeLevel)
		b.WriteString("Give clear instructions and 5 to 8 rounds, each with a prompt, the answer, optional choices and a hint.\n")
	default:
		fmt.Fprintf(&b, "Write a lesson about %s for a grade %d student.\n", subject, r.GradeLevel)
		b.WriteString("Split the main content into 3 to 6 short chapters, each with a title, text and an example. ")
		b.WriteString("Add a few hands-on activities, a summary and fun facts.\n")
	}
	fmt.Fprintf(&b, "Language: %s\n", r.Language)

	if len(r.EnhancedParams) > 0 {
		keys := make([]string, 0, len(r.EnhancedParams))
		for k := range r.EnhancedParams {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Additional preferences:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", k, r.EnhancedParams[k])
		}
	}
	return b.String()
}
