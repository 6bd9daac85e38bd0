package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var ErrWrongType = errors.New("unexpected token type")

type Claims struct {
	TokenType string `json:"token_type"`
	UserID    uint   `json:"user_id"`
	jwt.RegisteredClaims
}

type Issued struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

func (i *Issuer) IssueAccess(userID uint) (Issued, error) {
	return i.issue(TypeAccess, userID, i.AccessTTL, i.AccessSecret)
}

func (i *Issuer) IssueRefresh(userID uint) (Issued, error) {
	return i.issue(TypeRefresh, userID, i.RefreshTTL, i.RefreshSecret)
}

func (i *Issuer) issue(typ string, userID uint, ttl time.Duration, secret []byte) (Issued, error) {
	now := i.now()
	exp := now.Add(ttl)
	jti := uuid.NewString()

	claims := Claims{
		TokenType: typ,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return Issued{Token: signed, JTI: jti, ExpiresAt: exp}, nil
}

func (i *Issuer) ParseAccess(raw string) (*Claims, error) {
	return parse(raw, TypeAccess, i.AccessSecret)
}

func (i *Issuer) ParseRefresh(raw string) (*Claims, error) {
	return parse(raw, TypeRefresh, i.RefreshSecret)
}

func parse(raw, typ string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TokenType != typ {
		return nil, ErrWrongType
	}
	return &claims, nil
}

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
