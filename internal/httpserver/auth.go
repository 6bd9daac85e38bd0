package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/texnomart/internal/logging"
	authmw "github.com/Skotchmaster/texnomart/internal/middleware/auth"
	"github.com/Skotchmaster/texnomart/internal/models"
	"github.com/Skotchmaster/texnomart/internal/service"
	"github.com/Skotchmaster/texnomart/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func profile(u *models.User) echo.Map {
	return echo.Map{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
	}
}

// Register creates an account and answers with the profile and a fresh JWT pair.
func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "register_failed", err)
	}
	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		return serviceError(l, "register_failed", err)
	}
	pair, err := h.Svc.IssuePair(ctx, u)
	if err != nil {
		return serviceError(l, "register_failed", err)
	}

	l.Info("register_success", "user_id", u.ID)
	resp := profile(u)
	resp["message"] = "User created successfully"
	resp["access"] = pair.Access
	resp["refresh"] = pair.Refresh
	return c.JSON(http.StatusCreated, resp)
}

func (h *AuthHTTP) pairLogin(c echo.Context, handler, rejection string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "login_failed", err)
	}
	if err := loginForm(req); err != nil {
		return serviceError(l, "login_failed", err)
	}
	u, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
			return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"detail": rejection})
		}
		return serviceError(l, "login_failed", err)
	}
	pair, err := h.Svc.IssuePair(ctx, u)
	if err != nil {
		return serviceError(l, "login_failed", err)
	}

	l.Info("login_success", "user_id", u.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"access":   pair.Access,
		"refresh":  pair.Refresh,
		"user_id":  u.ID,
		"username": u.Username,
		"email":    u.Email,
	})
}

func loginForm(req transport.LoginRequest) error {
	v := &service.ValidationError{}
	if req.Username == "" {
		v.Add("username", "This field is required.")
	}
	if req.Password == "" {
		v.Add("password", "This field is required.")
	}
	return v.OrNil()
}

func (h *AuthHTTP) Login(c echo.Context) error {
	return h.pairLogin(c, "auth.login", "Invalid credentials")
}

func (h *AuthHTTP) ObtainPair(c echo.Context) error {
	return h.pairLogin(c, "auth.token_obtain_pair", "No active account found with the given credentials")
}

func (h *AuthHTTP) RefreshAccess(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "refresh_failed", err)
	}
	if req.Refresh == "" {
		return serviceError(l, "refresh_failed", &service.ValidationError{Fields: map[string][]string{"refresh": {"This field is required."}}})
	}
	access, err := h.Svc.Refresh(ctx, req.Refresh)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			l.Warn("refresh_failed", "status", 401, "reason", "token rejected")
			return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
				"detail": "Token is invalid or expired",
				"code":   "token_not_valid",
			})
		}
		return serviceError(l, "refresh_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}

// Logout blacklists the posted refresh token. Every failure gets the same answer.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err == nil {
		err = h.Svc.Logout(ctx, req.Refresh)
		if err == nil {
			l.Info("logout_success")
			return c.JSON(http.StatusOK, echo.Map{"Details": "Successfully logged out."})
		}
		l.Warn("logout_failed", "status", 400, "error", err)
	} else {
		l.Warn("logout_failed", "status", 400, "reason", "invalid body", "error", err)
	}
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"Details": "Something went wrong."})
}

func (h *AuthHTTP) ObtainAuthToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.token_auth")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "token_auth_failed", err)
	}
	u, tok, err := h.Svc.ObtainAuthToken(ctx, req.Username, req.Password)
	if err != nil {
		return serviceError(l, "token_auth_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": tok.Key, "user_id": u.ID, "email": u.Email})
}

func (h *AuthHTTP) TokenLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.token_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "token_login_failed", err)
	}
	u, tok, err := h.Svc.TokenLogin(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			l.Warn("token_login_failed", "status", 400, "reason", "unknown user")
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
				"username": echo.Map{"detail": "User does not exist!"},
			})
		}
		return serviceError(l, "token_login_failed", err)
	}

	l.Info("token_login_success", "user_id", u.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"username": u.Username,
		"email":    u.Email,
		"token":    tok.Key,
	})
}

func (h *AuthHTTP) TokenRegister(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.token_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "token_register_failed", err)
	}
	u, tok, err := h.Svc.TokenRegister(ctx, req)
	if err != nil {
		return serviceError(l, "token_register_failed", err)
	}

	resp := profile(u)
	resp["success"] = true
	resp["token"] = tok.Key
	return c.JSON(http.StatusCreated, resp)
}

func (h *AuthHTTP) TokenLogout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.token_logout")

	if err := h.Svc.TokenLogout(ctx, authmw.UserID(c)); err != nil {
		return serviceError(l, "token_logout_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "detail": "Logged out!"})
}
