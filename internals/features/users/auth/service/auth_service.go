package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusku_backend/internals/configs"
	authHelper "campusku_backend/internals/features/users/auth/helper"
	authModel "campusku_backend/internals/features/users/auth/model"
	userModel "campusku_backend/internals/features/users/user/model"
	"campusku_backend/internals/helpers/apperror"
	"campusku_backend/internals/helpers/mailer"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errInvalidCredentials = fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
	errInvalidOTP         = fiber.NewError(fiber.StatusUnauthorized, "Invalid OTP code")
	errExpiredOTP         = fiber.NewError(fiber.StatusUnauthorized, "OTP expired or unknown, please log in again")
	errTooManyAttempts    = fiber.NewError(fiber.StatusUnauthorized, "Too many invalid OTP attempts, please log in again")
	errInvalidRefresh     = fiber.NewError(fiber.StatusUnauthorized, "Invalid refresh token")
	errAccountInactive    = fiber.NewError(fiber.StatusForbidden, "Account is deactivated")
)

type Repository interface {
	FindUserByIdentifier(ctx context.Context, identifier string) (*userModel.UserModel, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*userModel.UserModel, error)
	UpdateUserPassword(ctx context.Context, id uuid.UUID, hash string) error

	CreateRefreshToken(ctx context.Context, token *authModel.RefreshTokenModel) error
	FindActiveRefreshToken(ctx context.Context, hash string, now time.Time) (*authModel.RefreshTokenModel, error)
	RevokeRefreshToken(ctx context.Context, id uuid.UUID, now time.Time) error
	RevokeRefreshTokenByHash(ctx context.Context, hash string, now time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID, now time.Time) error
	DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)

	BlacklistToken(ctx context.Context, hash string, expiresAt time.Time) error
	IsTokenBlacklisted(ctx context.Context, hash string) (bool, error)
	CleanupExpiredBlacklist(ctx context.Context, cutoff time.Time) (int64, error)
}

type Config struct {
	AccessSecret   string
	RefreshSecret  string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	OTPTTL         time.Duration
	OTPLength      int
	OTPMaxAttempts int
	// BlacklistGrace keeps blacklist rows this long past token expiry.
	BlacklistGrace time.Duration
}

// ConfigFromEnv reads the JWT and OTP settings bound by configs.LoadEnv.
func ConfigFromEnv() Config {
	cfg := Config{
		AccessSecret:   configs.JWTSecret,
		RefreshSecret:  configs.JWTRefreshSecret,
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     7 * 24 * time.Hour,
		OTPTTL:         5 * time.Minute,
		OTPLength:      6,
		OTPMaxAttempts: 5,
		BlacklistGrace: 7 * 24 * time.Hour,
	}
	if v := configs.Conf; v != nil {
		cfg.AccessTTL = v.GetDuration("JWT_ACCESS_TTL")
		cfg.RefreshTTL = v.GetDuration("JWT_REFRESH_TTL")
		cfg.OTPTTL = v.GetDuration("OTP_TTL")
		cfg.OTPLength = v.GetInt("OTP_LENGTH")
		cfg.OTPMaxAttempts = v.GetInt("OTP_MAX_ATTEMPTS")
		cfg.BlacklistGrace = time.Duration(v.GetInt("TOKEN_BLACKLIST_TTL_DAYS")) * 24 * time.Hour
	}
	return cfg
}

// ClientMeta is stored next to each refresh token.
type ClientMeta struct {
	UserAgent string
	IP        string
}

type LoginChallenge struct {
	ChallengeID string    `json:"challenge_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type CleanupResult struct {
	Blacklist     int64 `json:"blacklist"`
	RefreshTokens int64 `json:"refresh_tokens"`
	OTP           int   `json:"otp"`
}

type Service struct {
	repo   Repository
	otp    OTPStore
	mailer mailer.Mailer
	cfg    Config
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo Repository, otp OTPStore, m mailer.Mailer, cfg Config, opts ...Option) *Service {
	s := &Service{repo: repo, otp: otp, mailer: m, cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login verifies the password and emails a one-time code for VerifyOTP.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginChallenge, error) {
	user, err := s.repo.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := authHelper.CheckPasswordHash(user.Password, password); err != nil {
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, errAccountInactive
	}

	code, err := generateNumericCode(s.cfg.OTPLength)
	if err != nil {
		return nil, apperror.Internal(err, "generate otp")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err, "hash otp")
	}

	now := s.now().UTC()
	ch := Challenge{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.cfg.OTPTTL),
	}
	if err := s.otp.Put(ctx, ch); err != nil {
		return nil, apperror.Internal(err, "store otp")
	}

	msg := mailer.Message{
		To:      user.Email,
		ToName:  user.FullName,
		Subject: "Your login code",
		Text: fmt.Sprintf("Hello %s,\n\nYour login code is %s. It expires in %d minutes.\n",
			user.FullName, code, int(s.cfg.OTPTTL.Minutes())),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		_ = s.otp.Delete(ctx, ch.ID)
		return nil, apperror.Internal(err, "send otp")
	}

	return &LoginChallenge{ChallengeID: ch.ID, Email: maskEmail(user.Email), ExpiresAt: ch.ExpiresAt}, nil
}

// VerifyOTP consumes the challenge and issues a token pair.
func (s *Service) VerifyOTP(ctx context.Context, challengeID, code string, meta ClientMeta) (*TokenPair, error) {
	ch, err := s.otp.Get(ctx, strings.TrimSpace(challengeID))
	if errors.Is(err, ErrChallengeNotFound) {
		return nil, errExpiredOTP
	}
	if err != nil {
		return nil, apperror.Internal(err, "load otp")
	}

	now := s.now().UTC()
	if !now.Before(ch.ExpiresAt) {
		_ = s.otp.Delete(ctx, ch.ID)
		return nil, errExpiredOTP
	}
	if ch.Attempts >= s.cfg.OTPMaxAttempts {
		_ = s.otp.Delete(ctx, ch.ID)
		return nil, errTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(ch.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		ch.Attempts++
		if ch.Attempts >= s.cfg.OTPMaxAttempts {
			_ = s.otp.Delete(ctx, ch.ID)
			return nil, errTooManyAttempts
		}
		if err := s.otp.Update(ctx, *ch); err != nil && !errors.Is(err, ErrChallengeNotFound) {
			return nil, apperror.Internal(err, "update otp")
		}
		return nil, errInvalidOTP
	}
	_ = s.otp.Delete(ctx, ch.ID)

	user, err := s.repo.FindUserByID(ctx, ch.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errAccountInactive
	}
	return s.issuePair(ctx, user, meta, now)
}

// Refresh rotates a refresh token: the presented one is revoked, a new pair issued.
// Presenting an already rotated token revokes every session of that user.
func (s *Service) Refresh(ctx context.Context, raw string, meta ClientMeta) (*TokenPair, error) {
	now := s.now().UTC()
	claims, err := parseToken(raw, s.cfg.RefreshSecret, tokenTypeRefresh, now)
	if err != nil {
		return nil, errInvalidRefresh
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errInvalidRefresh
	}

	rt, err := s.repo.FindActiveRefreshToken(ctx, computeTokenHash(raw, s.cfg.RefreshSecret), now)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			if rerr := s.repo.RevokeUserRefreshTokens(ctx, userID, now); rerr != nil {
				configs.LogError(configs.GetLogger(), "auth", "Refresh", "revoke on reuse", userID, rerr)
			}
			return nil, errInvalidRefresh
		}
		return nil, err
	}
	if rt.UserID != userID {
		return nil, errInvalidRefresh
	}
	if err := s.repo.RevokeRefreshToken(ctx, rt.ID, now); err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, errInvalidRefresh
		}
		return nil, err
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errAccountInactive
	}
	return s.issuePair(ctx, user, meta, now)
}

// Logout blacklists the access token until it expires and revokes the refresh token if given.
func (s *Service) Logout(ctx context.Context, accessRaw, refreshRaw string) error {
	now := s.now().UTC()
	if claims, err := parseToken(accessRaw, s.cfg.AccessSecret, tokenTypeAccess, now); err == nil {
		exp, _ := claimExpiry(claims)
		if err := s.repo.BlacklistToken(ctx, computeTokenHash(accessRaw, s.cfg.AccessSecret), exp); err != nil {
			return err
		}
	}
	if strings.TrimSpace(refreshRaw) != "" {
		if err := s.repo.RevokeRefreshTokenByHash(ctx, computeTokenHash(refreshRaw, s.cfg.RefreshSecret), now); err != nil {
			return err
		}
	}
	return nil
}

// IsRevoked backs the AuthJWT blacklist check.
func (s *Service) IsRevoked(ctx context.Context, accessRaw string) (bool, error) {
	return s.repo.IsTokenBlacklisted(ctx, computeTokenHash(accessRaw, s.cfg.AccessSecret))
}

// CheckActive backs the AuthJWT active-account check.
func (s *Service) CheckActive(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Account not found")
		}
		return err
	}
	if !user.IsActive {
		return errAccountInactive
	}
	return nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*UserSummary, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarize(user), nil
}

// ChangePassword also revokes every refresh token of the user.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if authHelper.CheckPasswordHash(user.Password, current) != nil {
		return apperror.Validation("current password is incorrect")
	}
	if current == next {
		return apperror.Validation("new password must differ from the current one")
	}
	if err := authHelper.CheckPasswordPolicy(next); err != nil {
		return apperror.Validation("%s", err.Error())
	}
	hash, err := authHelper.HashPassword(next)
	if err != nil {
		return apperror.Internal(err, "hash password")
	}
	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.repo.RevokeUserRefreshTokens(ctx, userID, s.now().UTC())
}

// Cleanup purges expired blacklist rows, dead refresh tokens and stale OTP challenges.
func (s *Service) Cleanup(ctx context.Context) (CleanupResult, error) {
	var res CleanupResult
	now := s.now().UTC()
	cutoff := now.Add(-s.cfg.BlacklistGrace)

	var errs []error
	n, err := s.repo.CleanupExpiredBlacklist(ctx, cutoff)
	res.Blacklist = n
	errs = append(errs, err)

	n, err = s.repo.DeleteExpiredRefreshTokens(ctx, now)
	res.RefreshTokens = n
	errs = append(errs, err)

	res.OTP, err = s.otp.Sweep(ctx, now)
	errs = append(errs, err)

	return res, errors.Join(errs...)
}

func (s *Service) issuePair(ctx context.Context, user *userModel.UserModel, meta ClientMeta, now time.Time) (*TokenPair, error) {
	accessExp := now.Add(s.cfg.AccessTTL)
	refreshExp := now.Add(s.cfg.RefreshTTL)

	access, err := sign(buildAccessClaims(user, now, accessExp), s.cfg.AccessSecret)
	if err != nil {
		return nil, apperror.Internal(err, "sign access token")
	}
	refresh, err := sign(buildRefreshClaims(user.ID, now, refreshExp), s.cfg.RefreshSecret)
	if err != nil {
		return nil, apperror.Internal(err, "sign refresh token")
	}

	if err := s.repo.CreateRefreshToken(ctx, &authModel.RefreshTokenModel{
		UserID:    user.ID,
		TokenHash: computeTokenHash(refresh, s.cfg.RefreshSecret),
		ExpiresAt: refreshExp,
		UserAgent: strptr(meta.UserAgent),
		IP:        strptr(meta.IP),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             summarize(user),
	}, nil
}

func strptr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
