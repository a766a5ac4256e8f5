package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/domain/user"
)

// UserDirectory is the slice of the user service the guards need.
type UserDirectory interface {
	Get(ctx context.Context, id string) (*user.User, error)
}

// RequireProvider admits only users whose stored role is provider.
func RequireProvider(users UserDirectory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := resolveUser(c, users)
			if err != nil {
				return err
			}
			if u.Role != user.RoleProvider {
				return echo.NewHTTPError(http.StatusForbidden, "provider role required")
			}
			c.Set(userContextKey, u)
			return next(c)
		}
	}
}

// RequirePatient admits only users whose stored role is patient and who have
// a linked patient record. The linked patient id is injected into the
// request context; downstream handlers scope every query by it.
func RequirePatient(users UserDirectory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := resolveUser(c, users)
			if err != nil {
				return err
			}
			if u.Role != user.RolePatient {
				return echo.NewHTTPError(http.StatusForbidden, "patient role required")
			}
			if u.PatientID == nil {
				return echo.NewHTTPError(http.StatusForbidden, "no linked patient record")
			}
			c.Set(userContextKey, u)
			c.Set(patientIDContextKey, *u.PatientID)
			return next(c)
		}
	}
}

// resolveUser loads the user for the session subject. The dev bypass
// pre-populates the user, in which case no lookup happens.
func resolveUser(c echo.Context, users UserDirectory) (*user.User, error) {
	if u := CurrentUser(c); u != nil {
		return u, nil
	}
	sess := CurrentSession(c)
	if sess == nil || sess.Claims.Subject == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	u, err := users.Get(c.Request().Context(), sess.Claims.Subject)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "user lookup failed")
	}
	if u == nil {
		return nil, echo.NewHTTPError(http.StatusForbidden, "no user record for subject")
	}
	return u, nil
}
