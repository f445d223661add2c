package token

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/internal/utils"
	"github.com/jrsteele09/go-social-auth/users"
	"github.com/pkg/errors"
)

// Class selects the secret a token is signed with and the checks applied on verification.
type Class int

const (
	AccessToken Class = iota
	RefreshToken
)

func (c Class) String() string {
	if c == RefreshToken {
		return "refresh"
	}
	return "access"
}

const (
	defaultAccessTTL       = 10000 * time.Second
	defaultMobileAccessTTL = 10 * 24 * time.Hour
	defaultRefreshTTL      = 10 * 24 * time.Hour
)

// Config holds the secrets and lifetimes for both token classes.
type Config struct {
	AccessSecret    string
	RefreshSecret   string
	AccessTTL       time.Duration // Browser sessions
	MobileAccessTTL time.Duration // Mobile clients
	RefreshTTL      time.Duration
}

// Claims embedded in both access and refresh tokens
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Manager issues and verifies access and refresh tokens.
type Manager struct {
	userRepo      users.UserRepo
	accessSigner  Signer
	refreshSigner Signer
	config        Config
	nowFunc       func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func New(userRepo users.UserRepo, config Config, options ...ManagerOption) (*Manager, error) {
	if userRepo == nil {
		return nil, errors.New("[token.New] userRepo is required")
	}
	if strings.TrimSpace(config.AccessSecret) == "" || strings.TrimSpace(config.RefreshSecret) == "" {
		return nil, errors.New("[token.New] access and refresh secrets are required")
	}

	if config.AccessTTL <= 0 {
		config.AccessTTL = defaultAccessTTL
	}
	if config.MobileAccessTTL <= 0 {
		config.MobileAccessTTL = defaultMobileAccessTTL
	}
	if config.RefreshTTL <= 0 {
		config.RefreshTTL = defaultRefreshTTL
	}

	m := &Manager{
		userRepo:      userRepo,
		accessSigner:  newSecretSigner(config.AccessSecret),
		refreshSigner: newSecretSigner(config.RefreshSecret),
		config:        config,
		nowFunc:       time.Now,
	}

	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

func (m *Manager) AccessTTL() time.Duration       { return m.config.AccessTTL }
func (m *Manager) MobileAccessTTL() time.Duration { return m.config.MobileAccessTTL }

// CreateAccessToken signs a short-lived token for user. A ttl of zero or less
// uses the configured default. Access tokens are never stored.
func (m *Manager) CreateAccessToken(user *users.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.config.AccessTTL
	}
	signed, err := m.accessSigner.Sign(m.claimsFor(user, ttl))
	if err != nil {
		return "", errors.Wrap(err, "[Manager.CreateAccessToken] Sign")
	}
	return signed, nil
}

// CreateRefreshToken signs a long-lived token and stores it on the account,
// replacing any previous one.
func (m *Manager) CreateRefreshToken(ctx context.Context, user *users.User) (string, error) {
	signed, err := m.refreshSigner.Sign(m.claimsFor(user, m.config.RefreshTTL))
	if err != nil {
		return "", errors.Wrap(err, "[Manager.CreateRefreshToken] Sign")
	}

	if _, err := m.userRepo.Update(ctx, user.ID, users.Update{RefreshToken: &signed}); err != nil {
		return "", errors.Wrap(err, "[Manager.CreateRefreshToken] userRepo.Update")
	}
	return signed, nil
}

// RevokeRefreshToken clears the stored refresh token for userID
func (m *Manager) RevokeRefreshToken(ctx context.Context, userID string) error {
	if _, err := m.userRepo.Update(ctx, userID, users.Update{RefreshToken: utils.Ptr("")}); err != nil {
		return errors.Wrap(err, "[Manager.RevokeRefreshToken] userRepo.Update")
	}
	return nil
}

// Parse checks the signature and expiry of rawToken against the secret for class.
// A token is expired from the instant of its exp claim onwards.
func (m *Manager) Parse(rawToken string, class Class) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, autherrors.ErrTokenInvalid
	}
	signer := m.signerFor(class)

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, signer.Keyfunc,
		jwt.WithValidMethods([]string{signer.Method().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrapf(autherrors.ErrTokenExpired, "[Manager.Parse] %s token", class)
		}
		return nil, errors.Wrapf(autherrors.ErrTokenInvalid, "[Manager.Parse] %s token: %v", class, err)
	}
	if claims.UserID == "" || claims.IssuedAt == nil {
		return nil, errors.Wrapf(autherrors.ErrTokenInvalid, "[Manager.Parse] %s token missing claims", class)
	}
	return claims, nil
}

// Verify parses rawToken, resolves its subject to an active account and, for
// access tokens, rejects tokens issued before the account's last password change.
func (m *Manager) Verify(ctx context.Context, rawToken string, class Class) (*users.User, *Claims, error) {
	claims, err := m.Parse(rawToken, class)
	if err != nil {
		return nil, nil, err
	}

	user, err := m.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, nil, errors.Wrap(autherrors.ErrAccountNotFound, "[Manager.Verify] GetByID")
		}
		return nil, nil, errors.Wrap(err, "[Manager.Verify] GetByID")
	}

	if class == AccessToken && user.ChangedPasswordAfter(claims.IssuedAt.Unix()) {
		return nil, nil, errors.Wrap(autherrors.ErrStaleCredential, "[Manager.Verify]")
	}
	return user, claims, nil
}

func (m *Manager) claimsFor(user *users.User, ttl time.Duration) *Claims {
	now := m.nowFunc()
	return &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(), // Distinguishes tokens issued within the same second
		},
	}
}

func (m *Manager) signerFor(class Class) Signer {
	if class == RefreshToken {
		return m.refreshSigner
	}
	return m.accessSigner
}
