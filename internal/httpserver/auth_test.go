package httpserver

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerBody(username string) echo.Map {
	return echo.Map{
		"username":   username,
		"email":      username + "@example.com",
		"first_name": "Ann",
		"last_name":  "Lee",
		"password":   "s3cret-pass",
		"password2":  "s3cret-pass",
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/register/", registerBody("ann"), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[map[string]any](t, rec)
	assert.Equal(t, "ann", reg["username"])
	assert.Equal(t, "User created successfully", reg["message"])
	assert.NotEmpty(t, reg["access"])
	assert.NotEmpty(t, reg["refresh"])

	rec = env.do(t, http.MethodPost, "/register/", registerBody("ann"), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"username":["User already exists!"]}`, rec.Body.String())

	mismatch := registerBody("bob")
	mismatch["password2"] = "other"
	rec = env.do(t, http.MethodPost, "/register/", mismatch, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":["Both passwords must match!"]}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/login/", echo.Map{"username": "ann", "password": "nope"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid credentials"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/login/", echo.Map{"username": "ann", "password": "s3cret-pass"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[map[string]any](t, rec)
	assert.Equal(t, "ann@example.com", login["email"])
	refresh := login["refresh"].(string)
	access := login["access"].(string)

	rec = env.do(t, http.MethodPost, "/product/1/like/", nil, "Bearer "+access)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/token/refresh/", echo.Map{"refresh": refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]any](t, rec)["access"])

	rec = env.do(t, http.MethodPost, "/logout/", echo.Map{"refresh": refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Details":"Successfully logged out."}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/logout/", echo.Map{"refresh": refresh}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"Details":"Something went wrong."}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/logout/", echo.Map{"refresh": "garbage"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/token/refresh/", echo.Map{"refresh": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestObtainPair(t *testing.T) {
	env := newTestEnv(t, false)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/register/", registerBody("ann"), "").Code)

	rec := env.do(t, http.MethodPost, "/api/token/", echo.Map{"username": "ann", "password": "s3cret-pass"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	for _, k := range []string{"access", "refresh", "user_id", "username", "email"} {
		assert.Contains(t, body, k)
	}

	rec = env.do(t, http.MethodPost, "/api/token/", echo.Map{"username": "ann"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"password":["This field is required."]}`, rec.Body.String())
}

func TestOpaqueTokenFlows(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/auth/token/register/", registerBody("ann"), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[map[string]any](t, rec)
	assert.Equal(t, true, reg["success"])
	token := reg["token"].(string)
	assert.Len(t, token, 40)

	rec = env.do(t, http.MethodPost, "/api/token-auth/", echo.Map{"username": "ann", "password": "s3cret-pass"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, token, decode[map[string]any](t, rec)["token"])

	rec = env.do(t, http.MethodPost, "/api/token-auth/", echo.Map{"username": "ann", "password": "bad"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"non_field_errors":["Unable to log in with provided credentials."]}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/token/login/", echo.Map{"username": "ghost", "password": "x"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"username":{"detail":"User does not exist!"}}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/token/login/", echo.Map{"username": "ann", "password": "s3cret-pass"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, token, decode[map[string]any](t, rec)["token"])

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/auth/token/logout/", nil, "").Code)
	rec = env.do(t, http.MethodPost, "/auth/token/logout/", nil, "Token "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"detail":"Logged out!"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/", nil, "Token "+token).Code)
}
