package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/domain/user"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/metrics"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/oidc"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/session"
)

// IdentityBroker is the slice of the OIDC client the login flow needs.
type IdentityBroker interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*oidc.TokenSet, error)
	VerifyIDToken(ctx context.Context, rawToken string) (*oidc.IdentityClaims, error)
}

// ProviderMetadata resolves the identity provider's discovery document.
type ProviderMetadata interface {
	Get(ctx context.Context) (*oidc.ProviderConfig, error)
}

// UserRegistry is the slice of the user service the login flow needs.
type UserRegistry interface {
	Get(ctx context.Context, id string) (*user.User, error)
	Upsert(ctx context.Context, p user.Profile, expectedRole user.Role) (*user.User, error)
}

// Handler serves the login, callback, logout and current-user endpoints for
// both the provider and patient flows.
type Handler struct {
	providers  ProviderMetadata
	broker     IdentityBroker
	users      UserRegistry
	store      session.Store
	cookies    *session.CookieManager
	strategies *StrategyTable
	metrics    metrics.Recorder
	logger     zerolog.Logger
	now        func() time.Time
}

func NewHandler(providers ProviderMetadata, broker IdentityBroker, users UserRegistry,
	store session.Store, cookies *session.CookieManager, strategies *StrategyTable,
	rec metrics.Recorder, logger zerolog.Logger) *Handler {
	return &Handler{
		providers:  providers,
		broker:     broker,
		users:      users,
		store:      store,
		cookies:    cookies,
		strategies: strategies,
		metrics:    rec,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterRoutes wires the auth endpoints. public is the unauthenticated
// /api group; authed is the same group behind the session middleware.
func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.GET("/login", h.Login(user.RoleProvider))
	public.GET("/callback", h.Callback(user.RoleProvider))
	public.GET("/patient/login", h.Login(user.RolePatient))
	public.GET("/patient/callback", h.Callback(user.RolePatient))
	authed.GET("/logout", h.Logout)
	authed.GET("/auth/user", h.AuthenticatedUser)
}

const loginScopes = "openid email profile offline_access"

// Login begins the authorization-code flow for the given role. A handshake
// session carrying the state nonce and the flow role is created before the
// redirect so the callback can validate the round trip.
func (h *Handler) Login(role user.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		strat, ok := h.strategies.Lookup(c.Request().Host, role)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "unknown application domain")
		}

		cfg, err := h.providers.Get(ctx)
		if err != nil {
			h.logger.Error().Err(err).Msg("identity provider discovery failed")
			return echo.NewHTTPError(http.StatusBadGateway, "identity provider unavailable")
		}

		state, err := session.NewID()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "state generation failed")
		}
		sid, err := session.NewID()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "session id generation failed")
		}

		sess := &session.Session{State: state, FlowRole: string(role)}
		if err := h.store.Save(ctx, sid, sess); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "session save failed")
		}
		h.cookies.Set(c, sid)

		q := url.Values{
			"client_id":     {strat.ClientID},
			"redirect_uri":  {strat.CallbackURL},
			"response_type": {"code"},
			"scope":         {loginScopes},
			"state":         {state},
		}
		return c.Redirect(http.StatusFound, cfg.AuthorizationEndpoint+"?"+q.Encode())
	}
}

// Callback completes the authorization-code flow: state check, single-shot
// code exchange, ID-token verification, then the user upsert for the flow's
// role. A role mismatch is a hard 403; the stored role is never changed.
func (h *Handler) Callback(role user.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sid, ok := h.cookies.Read(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "login flow not started")
		}
		sess, err := h.store.Get(ctx, sid)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "session lookup failed")
		}
		if sess == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "login flow not started")
		}

		if errParam := c.QueryParam("error"); errParam != "" {
			h.metrics.RecordLogin(string(role), "idp_error")
			return echo.NewHTTPError(http.StatusUnauthorized, "identity provider error: "+errParam)
		}

		state := c.QueryParam("state")
		if state == "" || sess.State == "" || state != sess.State {
			return echo.NewHTTPError(http.StatusUnauthorized, "state mismatch")
		}
		code := c.QueryParam("code")
		if code == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "missing authorization code")
		}

		strat, ok := h.strategies.Lookup(c.Request().Host, role)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "unknown application domain")
		}

		tokens, err := h.broker.ExchangeCode(ctx, code, strat.CallbackURL)
		if err != nil {
			h.metrics.RecordLogin(string(role), "exchange_failed")
			h.logger.Warn().Err(err).Msg("authorization code exchange failed")
			return echo.NewHTTPError(http.StatusUnauthorized, "code exchange failed")
		}

		claims, err := h.broker.VerifyIDToken(ctx, tokens.IDToken)
		if err != nil {
			h.metrics.RecordLogin(string(role), "invalid_token")
			h.logger.Warn().Err(err).Msg("id token verification failed")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid id token")
		}

		profile := user.Profile{
			Subject:         claims.Subject,
			Email:           claims.Email,
			FirstName:       claims.GivenName,
			LastName:        claims.FamilyName,
			ProfileImageURL: claims.Picture,
		}
		u, err := h.users.Upsert(ctx, profile, role)
		if errors.Is(err, user.ErrRoleMismatch) {
			h.metrics.RecordLogin(string(role), "role_mismatch")
			h.logger.Warn().Str("sub", claims.Subject).Msg("login flow role does not match stored role")
			return echo.NewHTTPError(http.StatusForbidden, "account is registered with a different role")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "user upsert failed")
		}

		sess.Claims = claimsFromIdentity(claims)
		sess.AccessToken = tokens.AccessToken
		sess.RefreshToken = tokens.RefreshToken
		sess.IDToken = tokens.IDToken
		sess.ExpiresAt = tokens.ExpiresAt(h.now())
		sess.State = ""
		sess.FlowRole = string(role)
		if err := h.store.Save(ctx, sid, sess); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "session save failed")
		}

		h.metrics.RecordLogin(string(role), "success")
		h.logger.Info().Str("sub", u.ID).Str("role", string(u.Role)).Msg("login completed")
		return c.Redirect(http.StatusFound, "/")
	}
}

// Logout destroys the server-side session, clears the cookie and redirects
// to the provider's end-session endpoint when it advertises one.
func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	var idToken string
	if sid, ok := h.cookies.Read(c); ok {
		if sess, err := h.store.Get(ctx, sid); err == nil && sess != nil {
			idToken = sess.IDToken
		}
		_ = h.store.Delete(ctx, sid)
	}
	h.cookies.Clear(c)

	cfg, err := h.providers.Get(ctx)
	if err != nil || cfg.EndSessionEndpoint == "" {
		return c.Redirect(http.StatusFound, "/")
	}

	q := url.Values{"post_logout_redirect_uri": {c.Scheme() + "://" + c.Request().Host + "/"}}
	if idToken != "" {
		q.Set("id_token_hint", idToken)
	}
	return c.Redirect(http.StatusFound, cfg.EndSessionEndpoint+"?"+q.Encode())
}

// AuthenticatedUser returns the user record for the current session subject.
func (h *Handler) AuthenticatedUser(c echo.Context) error {
	sess := CurrentSession(c)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	u, err := h.users.Get(c.Request().Context(), sess.Claims.Subject)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "user lookup failed")
	}
	if u == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, u)
}
