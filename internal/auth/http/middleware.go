package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/cardledger/internal/auth/domain"
	authService "github.com/allisson/cardledger/internal/auth/service"
	apperrors "github.com/allisson/cardledger/internal/errors"
	"github.com/allisson/cardledger/internal/httputil"
)

// AuthenticationMiddleware verifies the "Authorization: Bearer <jwt>" header and
// stores the resulting principal in the request context.
//
// Missing, malformed or invalid tokens get 401 Unauthorized.
func AuthenticationMiddleware(tokenService authService.TokenService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if token == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		principal, err := tokenService.ParseToken(token)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))

		logger.Debug("authentication successful",
			slog.Int64("user_id", principal.UserID),
			slog.String("role", string(principal.Role)))

		c.Next()
	}
}

// RequireRole rejects principals that do not hold role with 403 Forbidden.
// ADMIN satisfies every role. Must run after AuthenticationMiddleware.
func RequireRole(role authDomain.Role, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c.Request.Context())
		if !ok {
			logger.Debug("authorization failed: no principal in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !principal.HasRole(role) {
			logger.Debug("authorization failed: insufficient role",
				slog.Int64("user_id", principal.UserID),
				slog.String("role", string(principal.Role)),
				slog.String("required_role", string(role)))
			httputil.HandleErrorGin(c, authDomain.ErrInsufficientRole, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
