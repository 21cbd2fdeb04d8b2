package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"time"

	userModel "campusku_backend/internals/features/users/user/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var errInvalidToken = errors.New("invalid token")

// TokenPair is what a successful OTP verification or refresh returns.
type TokenPair struct {
	AccessToken      string       `json:"access_token"`
	RefreshToken     string       `json:"refresh_token"`
	AccessExpiresAt  time.Time    `json:"access_expires_at"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             *UserSummary `json:"user"`
}

type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	UserName   string    `json:"user_name"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	Department *string   `json:"department,omitempty"`
}

func summarize(u *userModel.UserModel) *UserSummary {
	return &UserSummary{
		ID:         u.ID,
		UserName:   u.UserName,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       u.Role,
		Department: u.Department,
	}
}

func buildAccessClaims(u *userModel.UserModel, now, exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"id":        u.ID.String(),
		"role":      u.Role,
		"user_name": u.UserName,
		"typ":       tokenTypeAccess,
		"jti":       uuid.NewString(),
		"iat":       now.Unix(),
		"exp":       exp.Unix(),
	}
}

func buildRefreshClaims(userID uuid.UUID, now, exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": userID.String(),
		"typ": tokenTypeRefresh,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
}

func sign(claims jwt.MapClaims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

var tokenParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// parseToken checks signature, typ and exp against now.
func parseToken(raw, secret, typ string, now time.Time) (jwt.MapClaims, error) {
	tok, err := tokenParser.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, errInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	if t, _ := claims["typ"].(string); t != typ {
		return nil, errInvalidToken
	}
	if exp, ok := claimExpiry(claims); !ok || !now.Before(exp) {
		return nil, errInvalidToken
	}
	return claims, nil
}

func claimExpiry(claims jwt.MapClaims) (time.Time, bool) {
	switch v := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	case int64:
		return time.Unix(v, 0).UTC(), true
	}
	return time.Time{}, false
}

// computeTokenHash is the HMAC-SHA256 hex stored in place of a raw token.
func computeTokenHash(raw, secret string) string {
	m := hmac.New(sha256.New, []byte(secret))
	_, _ = m.Write([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(m.Sum(nil))
}

func generateNumericCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// maskEmail keeps the first character of the local part: "j***@campus.edu".
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
