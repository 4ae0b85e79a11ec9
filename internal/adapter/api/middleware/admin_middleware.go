package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"uniclaim/internal/domain/repository"
	apperrors "uniclaim/pkg/errors"
)

// RoleGuard restricts routes to campus staff accounts. It runs after
// Authenticate, so the uid in the request context is already verified.
type RoleGuard struct {
	userRepo repository.UserRepository
}

func NewRoleGuard(userRepo repository.UserRepository) *RoleGuard {
	return &RoleGuard{userRepo: userRepo}
}

// AdminOnly rejects callers whose stored profile does not carry the admin
// role. A missing profile is forbidden rather than a server error: the
// account may have been deleted after its token was issued.
func (g *RoleGuard) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get("uid").(string)
		if !ok || uid == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}

		user, err := g.userRepo.GetByID(c.Request().Context(), uid)
		switch {
		case apperrors.Is(err, "NOT_FOUND"):
			return echo.NewHTTPError(http.StatusForbidden, "Admin privileges required")
		case err != nil:
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to verify account role")
		case !user.IsAdmin():
			return echo.NewHTTPError(http.StatusForbidden, "Admin privileges required")
		}

		return next(c)
	}
}
