package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/infrastructure/auth"
	"github.com/openpublisher/openpublisher/internal/shared/constants"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
	"github.com/openpublisher/openpublisher/internal/shared/utils"
)

// TokenVerifier checks a bearer token issued by the accounts service.
type TokenVerifier interface {
	Verify(token string) (*auth.ActorClaims, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	logger   logger.Interface
}

func NewAuthMiddleware(verifier TokenVerifier, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// RequireActor rejects requests without a valid bearer token and stores the
// caller identity on the context.
func (m *AuthMiddleware) RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := m.verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			m.logger.Warnw("failed to verify token", "error", err, "path", c.Request.URL.Path)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		SetActor(c, claims.Actor())
		c.Next()
	}
}

// SetActor stores actor under the context keys the handlers read.
func SetActor(c *gin.Context, actor manuscript.Actor) {
	c.Set(constants.ContextKeyActor, actor)
	c.Set(constants.ContextKeyUserID, actor.ID)
	c.Set(constants.ContextKeyUserRoles, actor.Roles)
}

// GetActor returns the caller set by RequireActor.
func GetActor(c *gin.Context) (manuscript.Actor, bool) {
	v, ok := c.Get(constants.ContextKeyActor)
	if !ok {
		return manuscript.Actor{}, false
	}
	actor, ok := v.(manuscript.Actor)
	return actor, ok
}
