package content

import (
	"kids_edu_backend/internal/llm"
	"kids_edu_backend/internal/model"
)

func obj(props map[string]any) map[string]any {
	required := make([]any, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func strProp() map[string]any { return map[string]any{"type": "string"} }

func arrOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

var LessonSchema = &llm.Schema{
	Name:        "kids-lesson",
	Description: "A short lesson for a young learner, split into chapters",
	Definition: obj(map[string]any{
		"title":        strProp(),
		"introduction": strProp(),
		"mainContent": arrOf(obj(map[string]any{
			"title":   strProp(),
			"content": strProp(),
			"example": strProp(),
		})),
		"activities": arrOf(strProp()),
		"summary":    strProp(),
		"funFacts":   arrOf(strProp()),
	}),
}

var QuizSchema = &llm.Schema{
	Name:        "kids-quiz",
	Description: "A multiple choice quiz with explanations",
	Definition: obj(map[string]any{
		"title": strProp(),
		"questions": arrOf(obj(map[string]any{
			"question": strProp(),
			"questionType": map[string]any{
				"type": "string",
				"enum": []any{"multiple_choice", "true_false"},
			},
			"options":       arrOf(strProp()),
			"correctAnswer": map[string]any{"type": "integer", "minimum": 0},
			"explanation":   strProp(),
		})),
	}),
}

var GameSchema = &llm.Schema{
	Name:        "kids-game",
	Description: "A simple learning game made of prompt/answer rounds",
	Definition: obj(map[string]any{
		"title":        strProp(),
		"gameType":     strProp(),
		"instructions": strProp(),
		"items": arrOf(obj(map[string]any{
			"prompt":  strProp(),
			"answer":  strProp(),
			"options": arrOf(strProp()),
			"hint":    strProp(),
		})),
	}),
}

// SchemaFor 按内容类型选择 schema
func SchemaFor(t model.ContentType) *llm.Schema {
	switch t {
	case model.ContentQuiz:
		return QuizSchema
	case model.ContentGame:
		return GameSchema
	default:
		return LessonSchema
	}
}
