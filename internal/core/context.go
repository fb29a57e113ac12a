package core

import "context"

type contextKey string

const ctxKeyActor contextKey = "grid_actor"

// ContextWithActor adds the editing identity to context for audit entries.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ActorFromContext extracts the editing identity from context.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok {
		return v
	}
	return ""
}
