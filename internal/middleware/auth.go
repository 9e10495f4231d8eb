package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenSettings are the checks applied to every bearer token.
type TokenSettings struct {
	Secret string
	Issuer string // empty accepts any issuer
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="ledger"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "UNAUTHORIZED"})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthMiddleware validates an HS256 bearer token and attributes the request to its subject.
// Tokens must carry an expiry, and the issuer must match when one is configured.
func AuthMiddleware(settings TokenSettings) gin.HandlerFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if settings.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(settings.Issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(settings.Secret)

	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		header := c.GetHeader("Authorization")
		if header == "" {
			logger.Warn("Authorization header missing")
			unauthorized(c, "Authorization header required")
			return
		}
		raw, ok := bearerToken(header)
		if !ok {
			logger.Warn("Authorization header is not a bearer token")
			unauthorized(c, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil {
			logger.Warn("Rejected bearer token", slog.String("error", err.Error()))
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				unauthorized(c, "Token has expired")
			case errors.Is(err, jwt.ErrTokenInvalidIssuer):
				unauthorized(c, "Token was not issued for this ledger")
			case errors.Is(err, jwt.ErrTokenNotValidYet):
				unauthorized(c, "Token not valid yet")
			default:
				unauthorized(c, "Invalid token")
			}
			return
		}

		actorID := claims.Subject
		if actorID == "" {
			logger.Warn("Bearer token has no subject")
			unauthorized(c, "Token does not name an actor")
			return
		}

		actorLogger := logger.With(slog.String("actor_id", actorID))
		ctx := WithLogger(WithActor(c.Request.Context(), actorID), actorLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(loggerKey), actorLogger)
		c.Set(string(actorIDKey), actorID)

		c.Next()
	}
}
