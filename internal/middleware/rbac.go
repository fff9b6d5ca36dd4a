package middleware

import (
	"net/http"

	"github.com/inv-nithin007/School-manager/internal/rbac"
	"github.com/inv-nithin007/School-manager/pkg/logger"
	"github.com/inv-nithin007/School-manager/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequirePolicy gates a route group behind a named access policy. It runs
// after AuthMiddleware, so a denial here is always an authenticated caller
// without the required role: 403, never 401.
func RequirePolicy(policy rbac.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			role, ok := c.Get("role").(rbac.Role)
			if !ok {
				// AuthMiddleware did not run; treat as unauthenticated
				log.Error("Policy check without authenticated role in context")
				prometheus.RecordAuthError("missing_role_context")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			op := rbac.OperationForMethod(c.Request().Method)
			if !rbac.Evaluate(role, op, policy) {
				log.Warn("Request denied by access policy",
					zap.String("role", string(role)),
					zap.String("method", c.Request().Method),
					zap.String("path", c.Path()))
				prometheus.RecordPolicyDenial(string(role))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have permission to perform this action"})
			}

			return next(c)
		}
	}
}
