package middleware

import (
	"net/http"
	"strings"

	"github.com/inv-nithin007/School-manager/internal/model"
	"github.com/inv-nithin007/School-manager/internal/registry"
	"github.com/inv-nithin007/School-manager/pkg/database"
	"github.com/inv-nithin007/School-manager/pkg/jwtutil"
	"github.com/inv-nithin007/School-manager/pkg/logger"
	"github.com/inv-nithin007/School-manager/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token from the Authorization header and
// resolves the caller's effective role. Missing or invalid credentials are
// rejected with 401 before any policy check runs.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateAccessToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// The token must still map to a live account
		var user model.User
		if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
			log.Warn("Token refers to unknown user", zap.Uint("user_id", claims.UserID))
			prometheus.RecordAuthError("unknown_user")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Resolve the effective role from the profile, with the superuser
		// and default fallbacks
		role, err := registry.ResolveRole(database.GetDB(), &user)
		if err != nil {
			log.Error("Failed to resolve user role", zap.Uint("user_id", user.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}

		// Store user info in context for handlers and the policy gate
		c.Set("user_id", user.ID)
		c.Set("username", user.Username)
		c.Set("email", user.Email)
		c.Set("role", role)

		log.Debug("Request authenticated",
			zap.Uint("user_id", user.ID),
			zap.String("role", string(role)))

		return next(c)
	}
}
