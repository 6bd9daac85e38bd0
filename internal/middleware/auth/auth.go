package authmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/texnomart/internal/logging"
	"github.com/Skotchmaster/texnomart/internal/models"
	"github.com/Skotchmaster/texnomart/internal/tokens"
)

const (
	userKey = "auth_user"
	jwtKey  = "jwt"

	schemeToken  = "Token"
	schemeBearer = "Bearer"
)

// UserSource resolves credentials to active users.
type UserSource interface {
	AuthenticateToken(ctx context.Context, key string) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
}

type Auth struct {
	Users        UserSource
	AccessSecret []byte
}

func New(users UserSource, accessSecret []byte) *Auth {
	return &Auth{Users: users, AccessSecret: accessSecret}
}

func detail(code int, msg string) *echo.HTTPError {
	return echo.NewHTTPError(code, map[string]string{"detail": msg})
}

func scheme(c echo.Context) (string, string) {
	h := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	name, cred, _ := strings.Cut(h, " ")
	return name, strings.TrimSpace(cred)
}

// Authenticate identifies the caller from "Authorization: Token <key>" or
// "Authorization: Bearer <jwt>". Requests without the header stay anonymous;
// a header that does not authenticate is rejected with 401.
func (a *Auth) Authenticate() echo.MiddlewareFunc {
	bearer := echojwt.WithConfig(echojwt.Config{
		Skipper: func(c echo.Context) bool {
			name, _ := scheme(c)
			return !strings.EqualFold(name, schemeBearer)
		},
		SigningKey:    a.AccessSecret,
		SigningMethod: "HS256",
		ContextKey:    jwtKey,
		TokenLookup:   "header:Authorization:Bearer ",
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.Claims) },
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "reason", "bad bearer token", "error", err)
			return detail(http.StatusUnauthorized, "Given token not valid for any token type")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return a.opaqueToken(bearer(a.bearerUser(next)))
	}
}

func (a *Auth) opaqueToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		name, key := scheme(c)
		if !strings.EqualFold(name, schemeToken) {
			return next(c)
		}

		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "auth.token")
		if key == "" {
			l.Warn("auth_failed", "status", 401, "reason", "empty token")
			return detail(http.StatusUnauthorized, "Invalid token header. No credentials provided.")
		}
		u, err := a.Users.AuthenticateToken(ctx, key)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "unknown token", "error", err)
			return detail(http.StatusUnauthorized, "Invalid token.")
		}
		c.Set(userKey, u)
		return next(c)
	}
}

func (a *Auth) bearerUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok, ok := c.Get(jwtKey).(*jwt.Token)
		if !ok {
			return next(c)
		}

		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "auth.jwt")
		claims, ok := tok.Claims.(*tokens.Claims)
		if !ok || claims.TokenType != tokens.TypeAccess {
			l.Warn("auth_failed", "status", 401, "reason", "not an access token")
			return detail(http.StatusUnauthorized, "Given token not valid for any token type")
		}
		u, err := a.Users.UserByID(ctx, claims.UserID)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "user not found", "error", err)
			return detail(http.StatusUnauthorized, "User not found")
		}
		c.Set(userKey, u)
		return next(c)
	}
}

// CurrentUser returns the authenticated caller or nil.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userKey).(*models.User)
	return u
}

// UserID is 0 for anonymous callers.
func UserID(c echo.Context) uint {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return detail(http.StatusUnauthorized, "Authentication credentials were not provided.")
		}
		return next(c)
	}
}

// RequireStaff admits staff and superusers.
func RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := CurrentUser(c)
		if u == nil {
			return detail(http.StatusUnauthorized, "Authentication credentials were not provided.")
		}
		if !u.CanDelete() {
			logging.FromContext(c.Request().Context()).Warn("permission_denied", "status", 403, "user_id", u.ID)
			return detail(http.StatusForbidden, "You do not have permission to perform this action.")
		}
		return next(c)
	}
}
