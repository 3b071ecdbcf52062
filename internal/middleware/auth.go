package middleware

import (
	"net/http"
	"strings"

	"teranga/internal/apierror"
	"teranga/internal/authz"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const ActorKey = "actor"

// ActorResolver turns a bearer token into an actor.
type ActorResolver interface {
	ResolveActor(accessToken string) (authz.Actor, error)
}

// Authenticate resolves the Bearer token into an authz.Actor and stores it on
// the context. A missing or invalid token resolves to authz.Anonymous; the
// services decide what an anonymous caller may do.
func Authenticate(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := authz.Anonymous
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			resolved, err := resolver.ResolveActor(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				log.Debug().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("auth: token rejected")
			} else {
				actor = resolved
			}
		}
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// RequireAuth rejects anonymous callers with 401 before the handler runs.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ActorFrom(c).IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}
		c.Next()
	}
}

// ActorFrom returns the actor stored by Authenticate, or authz.Anonymous.
func ActorFrom(c *gin.Context) authz.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(authz.Actor); ok {
			return actor
		}
	}
	return authz.Anonymous
}
