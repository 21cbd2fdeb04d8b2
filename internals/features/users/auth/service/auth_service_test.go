package service_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	authHelper "campusku_backend/internals/features/users/auth/helper"
	authModel "campusku_backend/internals/features/users/auth/model"
	"campusku_backend/internals/features/users/auth/service"
	userModel "campusku_backend/internals/features/users/user/model"
	"campusku_backend/internals/helpers/apperror"
	"campusku_backend/internals/helpers/mailer"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ====================== fakes ====================== */

type fakeRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*userModel.UserModel
	refresh   map[uuid.UUID]*authModel.RefreshTokenModel
	blacklist map[string]time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:     map[uuid.UUID]*userModel.UserModel{},
		refresh:   map[uuid.UUID]*authModel.RefreshTokenModel{},
		blacklist: map[string]time.Time{},
	}
}

func (r *fakeRepo) FindUserByIdentifier(_ context.Context, identifier string) (*userModel.UserModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == identifier || u.UserName == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user not found")
}

func (r *fakeRepo) FindUserByID(_ context.Context, id uuid.UUID) (*userModel.UserModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) UpdateUserPassword(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperror.NotFound("user not found")
	}
	u.Password = hash
	return nil
}

func (r *fakeRepo) CreateRefreshToken(_ context.Context, t *authModel.RefreshTokenModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.New()
	cp := *t
	r.refresh[t.ID] = &cp
	return nil
}

func (r *fakeRepo) FindActiveRefreshToken(_ context.Context, hash string, now time.Time) (*authModel.RefreshTokenModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.refresh {
		if t.TokenHash == hash && t.Active(now) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("refresh token not found")
}

func (r *fakeRepo) RevokeRefreshToken(_ context.Context, id uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.refresh[id]
	if !ok || t.RevokedAt != nil {
		return apperror.NotFound("refresh token not found")
	}
	t.RevokedAt = &now
	return nil
}

func (r *fakeRepo) RevokeRefreshTokenByHash(_ context.Context, hash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.refresh {
		if t.TokenHash == hash && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRepo) RevokeUserRefreshTokens(_ context.Context, userID uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.refresh {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRepo) DeleteExpiredRefreshTokens(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.refresh {
		if t.ExpiresAt.Before(cutoff) || (t.RevokedAt != nil && t.RevokedAt.Before(cutoff)) {
			delete(r.refresh, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) BlacklistToken(_ context.Context, hash string, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blacklist[hash] = exp
	return nil
}

func (r *fakeRepo) IsTokenBlacklisted(_ context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.blacklist[hash]
	return ok, nil
}

func (r *fakeRepo) CleanupExpiredBlacklist(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for h, exp := range r.blacklist {
		if exp.Before(cutoff) {
			delete(r.blacklist, h)
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) activeRefreshCount(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.refresh {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

var codeRe = regexp.MustCompile(`code is (\d+)`)

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	match := codeRe.FindStringSubmatch(m.sent[len(m.sent)-1].Text)
	require.Len(t, match, 2)
	return match[1]
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

/* ====================== fixture ====================== */

type fixture struct {
	svc    *service.Service
	repo   *fakeRepo
	otp    *service.MemoryOTPStore
	mail   *captureMailer
	clock  *clock
	user   *userModel.UserModel
	config service.Config
}

const password = "secret123"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hash, err := authHelper.HashPassword(password)
	require.NoError(t, err)

	repo := newFakeRepo()
	user := &userModel.UserModel{
		ID:       uuid.New(),
		UserName: "asha",
		Email:    "asha@campus.edu",
		FullName: "Asha Rao",
		Password: hash,
		Role:     "FACULTY",
		IsActive: true,
	}
	repo.users[user.ID] = user

	cfg := service.Config{
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     24 * time.Hour,
		OTPTTL:         5 * time.Minute,
		OTPLength:      6,
		OTPMaxAttempts: 3,
		BlacklistGrace: time.Hour,
	}
	clk := &clock{t: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)}
	otp := service.NewMemoryOTPStore()
	m := &captureMailer{}
	svc := service.New(repo, otp, m, cfg, service.WithClock(clk.Now))
	return &fixture{svc: svc, repo: repo, otp: otp, mail: m, clock: clk, user: user, config: cfg}
}

func (f *fixture) login(t *testing.T) (*service.LoginChallenge, string) {
	t.Helper()
	ch, err := f.svc.Login(context.Background(), "asha", password)
	require.NoError(t, err)
	return ch, f.mail.lastCode(t)
}

func statusOf(err error) int {
	if fe, ok := err.(*fiber.Error); ok {
		return fe.Code
	}
	return apperror.HTTPStatus(err)
}

/* ====================== tests ====================== */

func TestLoginSendsMaskedOTP(t *testing.T) {
	f := newFixture(t)
	ch, code := f.login(t)

	assert.Equal(t, "a***@campus.edu", ch.Email)
	assert.Len(t, code, 6)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), ch.ExpiresAt)
	assert.Equal(t, "asha@campus.edu", f.mail.sent[0].To)
	assert.Equal(t, 1, f.otp.Len())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "asha", "wrong-pass1")
	assert.Equal(t, fiber.StatusUnauthorized, statusOf(err))

	_, err = f.svc.Login(ctx, "nobody", password)
	assert.Equal(t, fiber.StatusUnauthorized, statusOf(err))

	f.repo.users[f.user.ID].IsActive = false
	_, err = f.svc.Login(ctx, "asha@campus.edu", password)
	assert.Equal(t, fiber.StatusForbidden, statusOf(err))
	assert.Empty(t, f.mail.sent)
}

func TestVerifyOTPIssuesTokens(t *testing.T) {
	f := newFixture(t)
	ch, code := f.login(t)

	pair, err := f.svc.VerifyOTP(context.Background(), ch.ChallengeID, code, service.ClientMeta{UserAgent: "test", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "asha", pair.User.UserName)
	assert.Equal(t, 0, f.otp.Len())
	assert.Equal(t, 1, f.repo.activeRefreshCount(f.user.ID))

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(pair.AccessToken, claims)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID.String(), claims["id"])
	assert.Equal(t, "FACULTY", claims["role"])
	assert.Equal(t, "access", claims["typ"])

	// challenges are single use
	_, err = f.svc.VerifyOTP(context.Background(), ch.ChallengeID, code, service.ClientMeta{})
	assert.Equal(t, fiber.StatusUnauthorized, statusOf(err))
}

func TestVerifyOTPAttemptsAndExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch, code := f.login(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 2; i++ {
		_, err := f.svc.VerifyOTP(ctx, ch.ChallengeID, wrong, service.ClientMeta{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid OTP")
	}
	_, err := f.svc.VerifyOTP(ctx, ch.ChallengeID, wrong, service.ClientMeta{})
	assert.Contains(t, err.Error(), "Too many")
	_, err = f.svc.VerifyOTP(ctx, ch.ChallengeID, code, service.ClientMeta{})
	assert.Contains(t, err.Error(), "expired or unknown")

	ch, code = f.login(t)
	f.clock.Advance(6 * time.Minute)
	_, err = f.svc.VerifyOTP(ctx, ch.ChallengeID, code, service.ClientMeta{})
	assert.Contains(t, err.Error(), "expired or unknown")
}

func TestRefreshRotatesAndDetectsReuse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch, code := f.login(t)
	pair, err := f.svc.VerifyOTP(ctx, ch.ChallengeID, code, service.ClientMeta{})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	next, err := f.svc.Refresh(ctx, pair.RefreshToken, service.ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	assert.Equal(t, 1, f.repo.activeRefreshCount(f.user.ID))

	// replaying the rotated token kills every session
	_, err = f.svc.Refresh(ctx, pair.RefreshToken, service.ClientMeta{})
	assert.Equal(t, fiber.StatusUnauthorized, statusOf(err))
	assert.Equal(t, 0, f.repo.activeRefreshCount(f.user.ID))

	_, err = f.svc.Refresh(ctx, next.AccessToken, service.ClientMeta{})
	assert.Equal(t, fiber.StatusUnauthorized, statusOf(err), "access token is not a refresh token")
}

func TestRefreshExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch, code := f.login(t)
	pair, err := f.svc.VerifyOTP(ctx, ch.ChallengeID, code, service.ClientMeta{})
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)
	_, err = f.svc.Refresh(ctx, pair.RefreshToken, service.ClientMeta{})
	assert.Equal(t, fiber.StatusUnauthorized, statusOf(err))
}

func TestLogoutBlacklistsAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch, code := f.login(t)
	pair, err := f.svc.VerifyOTP(ctx, ch.ChallengeID, code, service.ClientMeta{})
	require.NoError(t, err)

	revoked, err := f.svc.IsRevoked(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, f.svc.Logout(ctx, pair.AccessToken, pair.RefreshToken))
	revoked, err = f.svc.IsRevoked(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 0, f.repo.activeRefreshCount(f.user.ID))

	assert.NoError(t, f.svc.Logout(ctx, "garbage", ""))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch, code := f.login(t)
	_, err := f.svc.VerifyOTP(ctx, ch.ChallengeID, code, service.ClientMeta{})
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, f.user.ID, "nope12345", "newpass123")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	err = f.svc.ChangePassword(ctx, f.user.ID, password, "short")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	err = f.svc.ChangePassword(ctx, f.user.ID, password, password)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	require.NoError(t, f.svc.ChangePassword(ctx, f.user.ID, password, "newpass123"))
	assert.NoError(t, authHelper.CheckPasswordHash(f.repo.users[f.user.ID].Password, "newpass123"))
	assert.Equal(t, 0, f.repo.activeRefreshCount(f.user.ID))
}

func TestMeAndCheckActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	me, err := f.svc.Me(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", me.FullName)

	assert.NoError(t, f.svc.CheckActive(ctx, f.user.ID))
	assert.Equal(t, fiber.StatusUnauthorized, statusOf(f.svc.CheckActive(ctx, uuid.New())))
	f.repo.users[f.user.ID].IsActive = false
	assert.Equal(t, fiber.StatusForbidden, statusOf(f.svc.CheckActive(ctx, f.user.ID)))
}

func TestCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch, code := f.login(t)
	pair, err := f.svc.VerifyOTP(ctx, ch.ChallengeID, code, service.ClientMeta{})
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, pair.AccessToken, ""))
	_, _ = f.login(t)

	f.clock.Advance(48 * time.Hour)
	res, err := f.svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Blacklist)
	assert.Equal(t, int64(1), res.RefreshTokens)
	assert.Equal(t, 1, res.OTP)
	assert.Equal(t, 0, f.otp.Len())
}
