package content

import (
	"fmt"
	"strconv"
	"strings"

	"kids_edu_backend/internal/llm"
	"kids_edu_backend/internal/model"
)

// Recommendation AI 给出的一条学习建议
type Recommendation struct {
	Subject      string             `json:"subject"`
	Topic        string             `json:"topic"`
	ActivityType model.ActivityType `json:"activityType"`
	Reason       string             `json:"reason"`
	Priority     int                `json:"priority"`
}

// TopicScore 推荐的输入：某主题的平均得分
type TopicScore struct {
	Subject string
	Topic   string
	Average float64
}

var RecommendationSchema = &llm.Schema{
	Name:        "kids-recommendations",
	Description: "Next learning steps for a young learner",
	Definition: obj(map[string]any{
		"recommendations": arrOf(obj(map[string]any{
			"subject": strProp(),
			"topic":   strProp(),
			"activityType": map[string]any{
				"type": "string",
				"enum": []any{"lesson", "quiz", "game"},
			},
			"reason":   strProp(),
			"priority": map[string]any{"type": "integer"},
		})),
	}),
}

// RecommendationRequest 组装推荐请求
func RecommendationRequest(gradeLevel int, language string, weak []TopicScore, recent []string, maxTokens int) llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest up to 3 next learning steps for a grade %d student.\n", gradeLevel)
	if len(weak) > 0 {
		b.WriteString("Topics where the student struggles (average quiz score):\n")
		for _, w := range weak {
			fmt.Fprintf(&b, "- %s / %s: %.0f%%\n", w.Subject, w.Topic, w.Average)
		}
	}
	if len(recent) > 0 {
		b.WriteString("Recent activity:\n")
		for _, r := range recent {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	b.WriteString("For each step give the subject, topic, whether it should be a lesson, quiz or game, a one sentence reason for a parent, and a priority from 1 (low) to 3 (high).\n")
	fmt.Fprintf(&b, "Language: %s\n", language)

	weakParams := make([]map[string]any, 0, len(weak))
	for _, w := range weak {
		weakParams = append(weakParams, map[string]any{"subject": w.Subject, "topic": w.Topic, "average": w.Average})
	}

	return llm.Request{
		System:   systemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: b.String()}},
		Payload: map[string]any{
			"contentType": "recommendations",
			"gradeLevel":  gradeLevel,
			"language":    language,
			"enhancedParams": map[string]any{
				"weakTopics":     weakParams,
				"recentActivity": recent,
			},
		},
		Schema:    RecommendationSchema,
		MaxTokens: maxTokens,
	}
}

// NormalizeRecommendations 未知的活动类型按 lesson 处理，缺少主题的条目丢弃
func NormalizeRecommendations(raw []byte) ([]Recommendation, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}

	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		items, _ = first(t, "recommendations", "items", "suggestions").([]any)
	}

	out := []Recommendation{}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r := Recommendation{
			Subject: str(first(m, "subject")),
			Topic:   str(first(m, "topic", "title")),
			Reason:  str(first(m, "reason", "description", "why")),
		}
		if r.Topic == "" {
			continue
		}
		switch model.ActivityType(strings.ToLower(str(first(m, "activityType", "activity_type", "type")))) {
		case model.ActivityQuiz:
			r.ActivityType = model.ActivityQuiz
		case model.ActivityGame:
			r.ActivityType = model.ActivityGame
		default:
			r.ActivityType = model.ActivityLesson
		}
		if p, err := strconv.Atoi(str(first(m, "priority"))); err == nil {
			r.Priority = p
		}
		out = append(out, r)
	}

	if len(out) == 0 {
		return nil, malformed("no recommendations")
	}
	return out, nil
}

// FallbackRecommendations 按得分给出规则推荐：低于 50% 先复习课程，否则再练一次测验
func FallbackRecommendations(weak []TopicScore) []Recommendation {
	out := make([]Recommendation, 0, len(weak))
	for _, w := range weak {
		r := Recommendation{
			Subject:      w.Subject,
			Topic:        w.Topic,
			ActivityType: model.ActivityQuiz,
			Reason:       fmt.Sprintf("Average score on %s is %.0f%%. Another practice quiz will help.", w.Topic, w.Average),
			Priority:     2,
		}
		if w.Average < 50 {
			r.ActivityType = model.ActivityLesson
			r.Reason = fmt.Sprintf("Average score on %s is %.0f%%. Reviewing the lesson first will help.", w.Topic, w.Average)
			r.Priority = 3
		}
		out = append(out, r)
	}
	return out
}
