package fakeuserrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory credential store. Returned users are copies.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[user.Email]; ok {
		return autherrors.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[user.Email] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return autherrors.ErrNotFound
	}
	delete(ur.emailIds, user.Email)
	delete(ur.users, id)
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	return ur.activeCopy(ur.users[id])
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	return ur.activeCopy(ur.users[id])
}

func (ur *FakeUserRepo) GetByRefreshToken(_ context.Context, refreshToken string) (*users.User, error) {
	return ur.findBy(func(u *users.User) bool {
		return refreshToken != "" && u.RefreshToken == refreshToken
	})
}

func (ur *FakeUserRepo) GetByVerifyToken(_ context.Context, verifyToken string) (*users.User, error) {
	return ur.findBy(func(u *users.User) bool {
		return verifyToken != "" && u.VerifyToken == verifyToken
	})
}

// Update applies fields to the account, active or not, and returns the result.
func (ur *FakeUserRepo) Update(_ context.Context, id string, fields users.Update) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	fields.Apply(user)
	cp := *user
	return &cp, nil
}

func (ur *FakeUserRepo) findBy(match func(u *users.User) bool) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	for _, u := range ur.users {
		if match(u) {
			return ur.activeCopy(u)
		}
	}
	return nil, autherrors.ErrNotFound
}

func (ur *FakeUserRepo) activeCopy(user *users.User) (*users.User, error) {
	if user == nil || !user.Active {
		return nil, autherrors.ErrNotFound
	}
	cp := *user
	return &cp, nil
}
