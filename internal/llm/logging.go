package llm

import (
	"context"
	"time"

	"kids_edu_backend/pkg/monitoring"
	"kids_edu_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// LoggingProvider 记录每次调用的耗时、用量和结果，并为调用开一个 span
type LoggingProvider struct {
	inner Provider
	log   *zap.Logger
}

func WithLogging(p Provider, log *zap.Logger) Provider {
	return &LoggingProvider{inner: p, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)
	model := l.inner.ModelID()

	ctx, span := tracing.StartSpan(ctx, "llm.generate",
		attribute.String("llm.model", model),
		attribute.String("llm.purpose", purpose))
	resp, err := l.inner.Generate(ctx, req)
	tracing.EndSpan(span, err)
	elapsed := time.Since(start)

	monitoring.AIRequestDuration.WithLabelValues(model, purpose).Observe(elapsed.Seconds())

	if err != nil {
		monitoring.AIRequests.WithLabelValues(model, purpose, "error").Inc()
		l.log.Warn("AI request failed",
			zap.String("model", model),
			zap.String("purpose", purpose),
			zap.Duration("latency", elapsed),
			zap.Error(err))
		return nil, err
	}

	monitoring.AIRequests.WithLabelValues(model, purpose, "ok").Inc()
	l.log.Debug("AI request completed",
		zap.String("model", resp.Model),
		zap.String("purpose", purpose),
		zap.Duration("latency", elapsed),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens))
	return resp, nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
