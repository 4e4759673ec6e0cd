package middleware

import "context"

type contextKey string

const (
	ctxActor   contextKey = "actor"
	ctxStoreID contextKey = "store_id"
)

// AnonymousActor is what ActorFromContext reports when no X-Actor header was
// sent. Mutating routes reject it.
const AnonymousActor = "anonymous"

func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return AnonymousActor
	}
	if v, ok := ctx.Value(ctxActor).(string); ok && v != "" {
		return v
	}
	return AnonymousActor
}

func StoreIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxStoreID).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the acting identity into the context.
func WithActor(ctx context.Context, actor string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// WithStoreID injects the store identifier into the context for downstream handlers.
func WithStoreID(ctx context.Context, storeID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxStoreID, storeID)
}
