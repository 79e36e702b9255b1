package llm

import "context"

type contextKey string

const purposeKey contextKey = "ai_purpose"

// WithPurpose 为日志与指标标注调用用途（lesson / quiz / game）
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
