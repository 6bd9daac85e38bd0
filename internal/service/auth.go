package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/texnomart/internal/hash"
	"github.com/Skotchmaster/texnomart/internal/logging"
	"github.com/Skotchmaster/texnomart/internal/models"
	"github.com/Skotchmaster/texnomart/internal/repo"
	"github.com/Skotchmaster/texnomart/internal/tokens"
	"github.com/Skotchmaster/texnomart/internal/transport"
)

const msgBadCredentials = "Unable to log in with provided credentials."

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
}

// NewTokenKey returns 40 random hex characters for the opaque token scheme.
func NewTokenKey() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Register validates the form and creates an active, non-staff user.
func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	v := &ValidationError{}
	username := requireText(v, "username", req.Username, 150)
	if req.Password == "" {
		v.Add("password", msgBlank)
	}
	if username != "" {
		taken, err := s.Repo.UsernameExists(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			v.Add("username", "User already exists!")
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if req.Password != req.Password2 {
		return nil, fieldError("message", "Both passwords must match!")
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		taken, err := s.Repo.EmailExists(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fieldError("message", "Email already taken!")
		}
	}

	pw, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: pw,
		IsActive:     true,
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		l.Error("create_user_failed", "error", err)
		return nil, err
	}
	l.Info("user_registered", "user_id", u.ID)
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive || !hash.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssuePair mints an access/refresh pair and records the refresh token as outstanding.
func (s *AuthService) IssuePair(ctx context.Context, u *models.User) (TokenPair, error) {
	access, err := s.Tokens.IssueAccess(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.Tokens.IssueRefresh(u.ID)
	if err != nil {
		return TokenPair{}, err
	}

	rec := &models.OutstandingToken{
		UserID:    u.ID,
		JTI:       refresh.JTI,
		TokenHash: tokens.Sha256Hex(refresh.Token),
		ExpiresAt: refresh.ExpiresAt,
	}
	if err := s.Repo.SaveOutstandingToken(ctx, rec); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access.Token, Refresh: refresh.Token}, nil
}

func (s *AuthService) outstanding(ctx context.Context, raw string) (*models.OutstandingToken, error) {
	claims, err := s.Tokens.ParseRefresh(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	rec, err := s.Repo.FindOutstandingToken(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if rec.TokenHash != tokens.Sha256Hex(raw) {
		return nil, ErrInvalidToken
	}
	revoked, err := s.Repo.IsBlacklisted(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return rec, nil
}

// Refresh exchanges a live refresh token for a new access token. Refresh tokens are not rotated.
func (s *AuthService) Refresh(ctx context.Context, raw string) (string, error) {
	rec, err := s.outstanding(ctx, raw)
	if err != nil {
		return "", err
	}
	access, err := s.Tokens.IssueAccess(rec.UserID)
	if err != nil {
		return "", err
	}
	return access.Token, nil
}

func (s *AuthService) Logout(ctx context.Context, raw string) error {
	rec, err := s.outstanding(ctx, raw)
	if err != nil {
		return err
	}
	if err := s.Repo.Blacklist(ctx, rec.ID); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("refresh_blacklisted", "user_id", rec.UserID)
	return nil
}

func credentialsForm(username, password string) *ValidationError {
	v := &ValidationError{}
	if strings.TrimSpace(username) == "" {
		v.Add("username", msgRequired)
	}
	if password == "" {
		v.Add("password", msgRequired)
	}
	return v
}

// ObtainAuthToken returns the caller's opaque token, creating it on first use.
func (s *AuthService) ObtainAuthToken(ctx context.Context, username, password string) (*models.User, *models.AuthToken, error) {
	if err := credentialsForm(username, password).OrNil(); err != nil {
		return nil, nil, err
	}
	u, err := s.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, nil, fieldError("non_field_errors", msgBadCredentials)
		}
		return nil, nil, err
	}
	tok, err := s.Repo.GetOrCreateAuthToken(ctx, u.ID, NewTokenKey)
	if err != nil {
		return nil, nil, err
	}
	return u, tok, nil
}

// TokenLogin differs from ObtainAuthToken in telling an unknown user apart from a wrong password.
func (s *AuthService) TokenLogin(ctx context.Context, username, password string) (*models.User, *models.AuthToken, error) {
	if err := credentialsForm(username, password).OrNil(); err != nil {
		return nil, nil, err
	}
	u, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}
	if !u.IsActive || !hash.CheckPassword(u.PasswordHash, password) {
		return nil, nil, fieldError("non_field_errors", msgBadCredentials)
	}
	tok, err := s.Repo.GetOrCreateAuthToken(ctx, u.ID, NewTokenKey)
	if err != nil {
		return nil, nil, err
	}
	return u, tok, nil
}

func (s *AuthService) TokenRegister(ctx context.Context, req transport.RegisterRequest) (*models.User, *models.AuthToken, error) {
	u, err := s.Register(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	tok, err := s.Repo.GetOrCreateAuthToken(ctx, u.ID, NewTokenKey)
	if err != nil {
		return nil, nil, err
	}
	return u, tok, nil
}

func (s *AuthService) TokenLogout(ctx context.Context, userID uint) error {
	return s.Repo.DeleteAuthTokenForUser(ctx, userID)
}

// AuthenticateToken resolves an opaque token key to its active owner.
func (s *AuthService) AuthenticateToken(ctx context.Context, key string) (*models.User, error) {
	tok, err := s.Repo.GetAuthToken(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !tok.User.IsActive {
		return nil, ErrInvalidToken
	}
	return &tok.User, nil
}

func (s *AuthService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidToken
	}
	return u, nil
}
