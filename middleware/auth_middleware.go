// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kwloft/agentpro_backend/models"
)

// RequireUserType checks if the authenticated user has one of the allowed
// user types. The role is read fresh from the request's token on every call;
// nothing is cached on a session.
func RequireUserType(allowedTypes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userType := ExtractUserType(c)

			if userType == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: user type not found",
				})
			}

			for _, allowedType := range allowedTypes {
				if userType == allowedType {
					return next(c)
				}
			}

			c.Logger().Errorf("Access denied for user type: %s, allowed types: %v", userType, allowedTypes)
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your user type",
			})
		}
	}
}

// RequireReviewer allows only admins and team leads through. Team-scope
// checks for team leads happen in the controllers, where the target agent
// is known.
func RequireReviewer() echo.MiddlewareFunc {
	return RequireUserType(models.UserTypeAdmin, models.UserTypeTeamLead)
}
