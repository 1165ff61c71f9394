package shared

import "context"

// Actor identifies who performed an operation, resolved by the surrounding
// identity layer and carried only for audit fields.
type Actor struct {
	Name string
}

type actorContextKey struct{}

// ContextWithActor attaches the current actor to the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the current actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// ActorName returns the current actor's name or "system" when unresolved.
func ActorName(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok && actor.Name != "" {
		return actor.Name
	}
	return "system"
}
