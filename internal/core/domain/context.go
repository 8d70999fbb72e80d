package domain

import "context"

type correlationKey struct{}

// WithCorrelationID anexa o correlation id da invocação ao ctx do executor.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFrom devolve "" quando ausente.
func CorrelationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
