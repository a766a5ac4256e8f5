// Package auth implements the session-cookie authentication layer: the
// per-request middleware, the role guards, the login/callback/logout
// handlers, and the static (domain, role) strategy table.
package auth

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/domain/user"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/session"
)

const (
	sessionContextKey   = "auth_session"
	sessionIDContextKey = "auth_session_id"
	userContextKey      = "auth_user"
	patientIDContextKey = "auth_patient_id"
)

// CurrentSession returns the session attached by the auth middleware, or nil
// on an unauthenticated request.
func CurrentSession(c echo.Context) *session.Session {
	s, _ := c.Get(sessionContextKey).(*session.Session)
	return s
}

// SessionID returns the session id attached by the auth middleware.
func SessionID(c echo.Context) string {
	sid, _ := c.Get(sessionIDContextKey).(string)
	return sid
}

// CurrentUser returns the user record attached by a role guard.
func CurrentUser(c echo.Context) *user.User {
	u, _ := c.Get(userContextKey).(*user.User)
	return u
}

// PatientID returns the patient id injected by the patient guard. Handlers
// under the patient guard must scope every query by this id and never by a
// request-supplied one.
func PatientID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(patientIDContextKey).(uuid.UUID)
	return id, ok
}
