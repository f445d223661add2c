package auth

import (
	"context"
	"strings"
	"time"

	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/profiles"
	"github.com/jrsteele09/go-social-auth/token"
	"github.com/jrsteele09/go-social-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users    users.UserRepo // Credential store
	Profiles profiles.Repo  // Public profiles, one per account
}

// LoginLimiter throttles repeated failed logins. Check returns
// errors.ErrRateLimited once the budget for identifier or ip is spent.
type LoginLimiter interface {
	Check(ctx context.Context, identifier, ip string) error
	Fail(ctx context.Context, identifier, ip string) error
	Reset(ctx context.Context, identifier, ip string) error
}

type noopLimiter struct{}

func (noopLimiter) Check(context.Context, string, string) error { return nil }
func (noopLimiter) Fail(context.Context, string, string) error  { return nil }
func (noopLimiter) Reset(context.Context, string, string) error { return nil }

// Session is what a successful login hands back to the client.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *users.User // Secrets stripped
}

// RefreshResult is the outcome of exchanging a refresh token
type RefreshResult struct {
	AccessToken string
	User        *users.User
}

type SignupRequest struct {
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	PasswordConfirm string     `json:"passwordConfirm"`
	PhoneNumber     string     `json:"phonenumber"`
	FirstName       string     `json:"firstname"`
	LastName        string     `json:"lastname"`
	Slug            string     `json:"slug"`
	Gender          *bool      `json:"gender"`
	Avatar          string     `json:"avatar"`
	Address         string     `json:"address"`
	Bio             string     `json:"bio"`
	Birthday        *time.Time `json:"birthday"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IP       string `json:"-"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Service implements the account and session lifecycle.
type Service struct {
	repos   Repos
	tokens  *token.Manager
	limiter LoginLimiter
	nowTime func() time.Time // injectable for testing
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithLoginLimiter enables failed-login throttling
func WithLoginLimiter(limiter LoginLimiter) ServiceOption {
	return func(s *Service) {
		if limiter != nil {
			s.limiter = limiter
		}
	}
}

func NewService(repos Repos, tokens *token.Manager, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Profiles == nil {
		return nil, errors.New("[NewService] Profiles repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}

	s := &Service{
		repos:   repos,
		tokens:  tokens,
		limiter: noopLimiter{},
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// MobileAccessTTL is the access token lifetime handed to mobile clients
func (s *Service) MobileAccessTTL() time.Duration {
	return s.tokens.MobileAccessTTL()
}

// Signup creates an account and its profile. If the profile cannot be
// created the account is removed again.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*profiles.Profile, error) {
	if req.Email == "" || req.Password == "" || req.PasswordConfirm == "" ||
		req.FirstName == "" || req.LastName == "" || req.Slug == "" || req.Gender == nil {
		return nil, autherrors.Validation(MsgRequiredFields)
	}
	if req.Password != req.PasswordConfirm {
		return nil, autherrors.Validation(MsgPasswordConfirm)
	}

	email := users.NormalizeEmail(req.Email)
	if err := users.ValidateEmail(email); err != nil {
		return nil, autherrors.Validation("Please provide a valid email")
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return nil, autherrors.Validation(err.Error())
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Signup] HashPassword")
	}
	verifyToken, err := users.NewVerifyToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Signup] NewVerifyToken")
	}

	user := &users.User{
		Email:        email,
		PhoneNumber:  req.PhoneNumber,
		Role:         users.RoleUser,
		PasswordHash: hash,
		VerifyToken:  verifyToken,
		Active:       true,
		CreatedAt:    s.nowTime(),
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		if errors.Is(err, autherrors.ErrDuplicateEmail) {
			return nil, autherrors.Conflict(MsgEmailTaken, err)
		}
		return nil, errors.Wrap(err, "[Service.Signup] Users.Create")
	}

	profile := &profiles.Profile{
		UserID:    user.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    req.Gender,
		Avatar:    req.Avatar,
		Address:   req.Address,
		Bio:       req.Bio,
		Birthday:  req.Birthday,
		Slug:      req.Slug,
	}
	if err := s.repos.Profiles.Create(ctx, profile); err != nil {
		// The account must not outlive a failed signup, even if the client has gone away.
		if delErr := s.repos.Users.Delete(context.WithoutCancel(ctx), user.ID); delErr != nil {
			log.Err(delErr).Str("user_id", user.ID).Msg("Signup: failed to remove account after profile error")
		}
		if errors.Is(err, autherrors.ErrDuplicateSlug) {
			return nil, autherrors.Conflict(MsgSlugTaken, err)
		}
		return nil, errors.Wrap(err, "[Service.Signup] Profiles.Create")
	}

	return profile, nil
}

// Login checks the credentials. Unknown email and wrong password fail identically.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*users.User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, autherrors.Validation(MsgProvideEmailPassword)
	}
	email := users.NormalizeEmail(req.Email)

	if err := s.limiter.Check(ctx, email, req.IP); err != nil {
		if errors.Is(err, autherrors.ErrRateLimited) {
			return nil, autherrors.TooManyRequests(MsgTooManyAttempts, err)
		}
		return nil, errors.Wrap(err, "[Service.Login] limiter.Check")
	}

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, autherrors.ErrNotFound) {
		return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
	}
	if user == nil || !user.CheckPassword(req.Password) {
		if err := s.limiter.Fail(ctx, email, req.IP); err != nil && !errors.Is(err, autherrors.ErrRateLimited) {
			log.Err(err).Msg("Login: failed to record failed attempt")
		}
		return nil, autherrors.Unauthenticated(MsgIncorrectLogin, autherrors.ErrInvalidCredentials)
	}

	if err := s.limiter.Reset(ctx, email, req.IP); err != nil {
		log.Err(err).Msg("Login: failed to reset attempt counter")
	}
	return user, nil
}

// CreateSendToken issues an access token, issues and stores a new refresh
// token, and returns both with the account stripped of secrets. A ttl of zero
// uses the default access lifetime.
func (s *Service) CreateSendToken(ctx context.Context, user *users.User, ttl time.Duration) (*Session, error) {
	accessToken, err := s.tokens.CreateAccessToken(user, ttl)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateSendToken] CreateAccessToken")
	}
	refreshToken, err := s.tokens.CreateRefreshToken(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateSendToken] CreateRefreshToken")
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
	}, nil
}

// Authenticate resolves an access token to its account for the session gate.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*users.User, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, autherrors.Unauthenticated(MsgNotLoggedIn, nil)
	}
	user, _, err := s.tokens.Verify(ctx, rawToken, token.AccessToken)
	if err != nil {
		switch {
		case errors.Is(err, autherrors.ErrAccountNotFound):
			return nil, autherrors.Unauthenticated(MsgUserNoLongerExists, err)
		case errors.Is(err, autherrors.ErrStaleCredential):
			return nil, autherrors.Unauthenticated(MsgPasswordChanged, err)
		case errors.Is(err, autherrors.ErrTokenExpired):
			return nil, autherrors.Unauthenticated(MsgTokenExpired, err)
		case errors.Is(err, autherrors.ErrTokenInvalid):
			return nil, autherrors.Unauthenticated(MsgNotLoggedIn, err)
		}
		return nil, errors.Wrap(err, "[Service.Authenticate] Verify")
	}
	return user, nil
}

// Refresh exchanges a stored refresh token for a new access token. The
// account is looked up by the stored value first, so a token replaced by a
// later login no longer matches anything. The refresh token itself is kept.
func (s *Service) Refresh(ctx context.Context, rawRefreshToken string) (*RefreshResult, error) {
	if strings.TrimSpace(rawRefreshToken) == "" {
		return nil, autherrors.Unauthenticated(MsgNotLoggedIn, nil)
	}

	if _, err := s.repos.Users.GetByRefreshToken(ctx, rawRefreshToken); err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, autherrors.Forbidden(MsgForbidden, autherrors.ErrRefreshNotStored)
		}
		return nil, errors.Wrap(err, "[Service.Refresh] GetByRefreshToken")
	}

	user, _, err := s.tokens.Verify(ctx, rawRefreshToken, token.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, autherrors.ErrAccountNotFound):
			return nil, autherrors.Forbidden(MsgUserNoLongerExists, err)
		case errors.Is(err, autherrors.ErrTokenExpired), errors.Is(err, autherrors.ErrTokenInvalid):
			return nil, autherrors.Unauthenticated(MsgNotLoggedIn, err)
		}
		return nil, errors.Wrap(err, "[Service.Refresh] Verify")
	}

	accessToken, err := s.tokens.CreateAccessToken(user, 0)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] CreateAccessToken")
	}
	return &RefreshResult{AccessToken: accessToken, User: user.Public()}, nil
}

// Logout forgets the server-side refresh token of userID
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.tokens.RevokeRefreshToken(ctx, userID)
}

// VerifyEmail consumes a verification token and marks the account verified
func (s *Service) VerifyEmail(ctx context.Context, verifyToken string) (*users.User, error) {
	user, err := s.repos.Users.GetByVerifyToken(ctx, verifyToken)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, autherrors.NotFound(MsgVerifyTokenNotFound, err)
		}
		return nil, errors.Wrap(err, "[Service.VerifyEmail] GetByVerifyToken")
	}

	verified := true
	cleared := ""
	updated, err := s.repos.Users.Update(ctx, user.ID, users.Update{Verified: &verified, VerifyToken: &cleared})
	if err != nil {
		return nil, errors.Wrap(err, "[Service.VerifyEmail] Update")
	}
	return updated.Public(), nil
}

// UpdatePassword replaces the password of userID and starts a new session.
// Access tokens issued before the change stop working.
func (s *Service) UpdatePassword(ctx context.Context, userID string, req UpdatePasswordRequest, ttl time.Duration) (*Session, error) {
	if req.PasswordCurrent == "" || req.Password == "" || req.PasswordConfirm == "" {
		return nil, autherrors.Validation(MsgRequiredFields)
	}

	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, autherrors.Unauthenticated(MsgUserNoLongerExists, err)
		}
		return nil, errors.Wrap(err, "[Service.UpdatePassword] GetByID")
	}
	if !user.CheckPassword(req.PasswordCurrent) {
		return nil, autherrors.Unauthenticated(MsgCurrentPasswordWrong, autherrors.ErrInvalidCredentials)
	}
	if req.Password != req.PasswordConfirm {
		return nil, autherrors.Validation(MsgPasswordConfirm)
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return nil, autherrors.Validation(err.Error())
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.UpdatePassword] HashPassword")
	}
	// One second back so the token issued below is not already stale.
	changedAt := s.nowTime().Add(-time.Second)
	updated, err := s.repos.Users.Update(ctx, userID, users.Update{PasswordHash: &hash, PasswordChangedAt: &changedAt})
	if err != nil {
		return nil, errors.Wrap(err, "[Service.UpdatePassword] Update")
	}

	return s.CreateSendToken(ctx, updated, ttl)
}

// Profile returns the profile of userID
func (s *Service) Profile(ctx context.Context, userID string) (*profiles.Profile, error) {
	profile, err := s.repos.Profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, autherrors.NotFound("Profile not found", err)
		}
		return nil, errors.Wrap(err, "[Service.Profile] GetByUserID")
	}
	return profile, nil
}

// SetRole changes the role of an account
func (s *Service) SetRole(ctx context.Context, userID string, role users.RoleType) (*users.User, error) {
	if !role.Valid() {
		return nil, autherrors.Validation(MsgInvalidRole)
	}
	return s.adminUpdate(ctx, userID, users.Update{Role: &role})
}

// SetActive soft-deletes or restores an account
func (s *Service) SetActive(ctx context.Context, userID string, active bool) (*users.User, error) {
	return s.adminUpdate(ctx, userID, users.Update{Active: &active})
}

func (s *Service) adminUpdate(ctx context.Context, userID string, fields users.Update) (*users.User, error) {
	updated, err := s.repos.Users.Update(ctx, userID, fields)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, autherrors.NotFound(MsgUserNotFound, err)
		}
		return nil, errors.Wrap(err, "[Service.adminUpdate] Update")
	}
	return updated.Public(), nil
}
