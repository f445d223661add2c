package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/internal/utils"
	"github.com/jrsteele09/go-social-auth/token"
	"github.com/jrsteele09/go-social-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-social-auth/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret"
	refreshSecret = "refresh-secret"
	testUserID    = "user-1"
)

// clock is a settable time source for the manager
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

type testFixture struct {
	userRepo *fakeuserrepo.FakeUserRepo
	clock    *clock
	manager  *token.Manager
	user     *users.User
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()
	c := &clock{now: time.Unix(1_700_000_000, 0)}

	m, err := token.New(ur, token.Config{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     time.Hour,
		RefreshTTL:    10 * 24 * time.Hour,
	}, token.WithNowFunc(c.Now))
	require.NoError(t, err)

	user := &users.User{
		ID:     testUserID,
		Email:  "a@x.com",
		Role:   users.RoleUser,
		Active: true,
	}
	require.NoError(t, ur.Create(context.Background(), user))

	return &testFixture{userRepo: ur, clock: c, manager: m, user: user}
}

func TestNew_RequiresSecrets(t *testing.T) {
	_, err := token.New(fakeuserrepo.NewFakeUserRepo(), token.Config{AccessSecret: "a"})
	require.Error(t, err)

	_, err = token.New(nil, token.Config{AccessSecret: "a", RefreshSecret: "b"})
	require.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	m, err := token.New(fakeuserrepo.NewFakeUserRepo(), token.Config{AccessSecret: "a", RefreshSecret: "b"})
	require.NoError(t, err)
	require.Equal(t, 10000*time.Second, m.AccessTTL())
	require.Equal(t, 10*24*time.Hour, m.MobileAccessTTL())
}

func TestAccessToken_RoundTrip(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.manager.CreateAccessToken(f.user, 0)
	require.NoError(t, err)

	user, claims, err := f.manager.Verify(context.Background(), raw, token.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testUserID, user.ID)
	require.Equal(t, testUserID, claims.UserID)
	require.Equal(t, f.clock.now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestAccessToken_ExplicitTTL(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.manager.CreateAccessToken(f.user, 10*24*time.Hour)
	require.NoError(t, err)

	claims, err := f.manager.Parse(raw, token.AccessToken)
	require.NoError(t, err)
	require.Equal(t, f.clock.now.Add(10*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestAccessToken_ExpiresAtExactInstant(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.manager.CreateAccessToken(f.user, time.Minute)
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(time.Minute - time.Second)
	_, _, err = f.manager.Verify(context.Background(), raw, token.AccessToken)
	require.NoError(t, err, "one second before expiry is still valid")

	f.clock.now = f.clock.now.Add(time.Second)
	_, _, err = f.manager.Verify(context.Background(), raw, token.AccessToken)
	require.ErrorIs(t, err, autherrors.ErrTokenExpired)
}

func TestVerify_WrongSecretIsInvalid(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.manager.CreateAccessToken(f.user, 0)
	require.NoError(t, err)

	_, _, err = f.manager.Verify(context.Background(), raw, token.RefreshToken)
	require.ErrorIs(t, err, autherrors.ErrTokenInvalid)
}

func TestVerify_MalformedToken(t *testing.T) {
	f := setupTestFixture(t)

	for _, raw := range []string{"", "   ", "not.a.jwt", "abc"} {
		_, _, err := f.manager.Verify(context.Background(), raw, token.AccessToken)
		require.ErrorIs(t, err, autherrors.ErrTokenInvalid, raw)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	f := setupTestFixture(t)

	claims := jwt.MapClaims{
		"id":  testUserID,
		"iat": f.clock.now.Unix(),
		"exp": f.clock.now.Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(accessSecret))
	require.NoError(t, err)

	_, _, err = f.manager.Verify(context.Background(), raw, token.AccessToken)
	require.ErrorIs(t, err, autherrors.ErrTokenInvalid)
}

func TestVerify_AccountGone(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.manager.CreateAccessToken(f.user, 0)
	require.NoError(t, err)
	require.NoError(t, f.userRepo.Delete(context.Background(), testUserID))

	_, _, err = f.manager.Verify(context.Background(), raw, token.AccessToken)
	require.ErrorIs(t, err, autherrors.ErrAccountNotFound)
}

func TestVerify_InactiveAccount(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.manager.CreateAccessToken(f.user, 0)
	require.NoError(t, err)

	_, err = f.userRepo.Update(context.Background(), testUserID, users.Update{Active: utils.Ptr(false)})
	require.NoError(t, err)

	_, _, err = f.manager.Verify(context.Background(), raw, token.AccessToken)
	require.ErrorIs(t, err, autherrors.ErrAccountNotFound)
}

func TestVerify_StaleAfterPasswordChange(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.manager.CreateAccessToken(f.user, 0)
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(5 * time.Second)
	changed := f.clock.now.Add(-time.Second)
	_, err = f.userRepo.Update(context.Background(), testUserID, users.Update{PasswordChangedAt: &changed})
	require.NoError(t, err)

	_, _, err = f.manager.Verify(context.Background(), raw, token.AccessToken)
	require.ErrorIs(t, err, autherrors.ErrStaleCredential)

	fresh, err := f.manager.CreateAccessToken(f.user, 0)
	require.NoError(t, err)
	_, _, err = f.manager.Verify(context.Background(), fresh, token.AccessToken)
	require.NoError(t, err, "a token issued after the change is accepted")
}

func TestRefreshToken_IsStoredAndRotated(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first, err := f.manager.CreateRefreshToken(ctx, f.user)
	require.NoError(t, err)

	stored, err := f.userRepo.GetByRefreshToken(ctx, first)
	require.NoError(t, err)
	require.Equal(t, testUserID, stored.ID)

	second, err := f.manager.CreateRefreshToken(ctx, f.user)
	require.NoError(t, err)
	require.NotEqual(t, first, second, "tokens issued in the same second must differ")

	_, err = f.userRepo.GetByRefreshToken(ctx, first)
	require.ErrorIs(t, err, autherrors.ErrNotFound)

	user, _, err := f.manager.Verify(ctx, second, token.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, testUserID, user.ID)
}

func TestRefreshToken_NotStaleAfterPasswordChange(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	raw, err := f.manager.CreateRefreshToken(ctx, f.user)
	require.NoError(t, err)

	changed := f.clock.now.Add(time.Hour)
	_, err = f.userRepo.Update(ctx, testUserID, users.Update{PasswordChangedAt: &changed})
	require.NoError(t, err)

	_, _, err = f.manager.Verify(ctx, raw, token.RefreshToken)
	require.NoError(t, err)
}

func TestRevokeRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	raw, err := f.manager.CreateRefreshToken(ctx, f.user)
	require.NoError(t, err)
	require.NoError(t, f.manager.RevokeRefreshToken(ctx, testUserID))

	_, err = f.userRepo.GetByRefreshToken(ctx, raw)
	require.ErrorIs(t, err, autherrors.ErrNotFound)
}
