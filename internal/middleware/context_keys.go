package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// actorIDKey holds the operator or customer a ledger mutation is attributed to.
const actorIDKey = contextKey("actorID")

// WithActor stores the authenticated actor on ctx so services below the HTTP layer can audit it.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}

// ActorFromCtx returns the actor stored by WithActor.
func ActorFromCtx(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(actorIDKey).(string)
	return actorID, ok && actorID != ""
}

// GetActorIDFromContext returns the actor the auth middleware attached to the request.
func GetActorIDFromContext(c *gin.Context) (string, bool) {
	if v, exists := c.Get(string(actorIDKey)); exists {
		if actorID, ok := v.(string); ok && actorID != "" {
			return actorID, true
		}
	}
	return ActorFromCtx(c.Request.Context())
}
