package fakeprofilerepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/profiles"
)

var _ profiles.Repo = (*FakeProfileRepo)(nil)

type FakeProfileRepo struct {
	profiles map[string]*profiles.Profile
	slugs    map[string]string // slug to profile id
	lock     sync.RWMutex

	// FailCreate, when set, is returned by Create. Used to exercise signup compensation.
	FailCreate error
}

func NewFakeProfileRepo() *FakeProfileRepo {
	return &FakeProfileRepo{
		profiles: make(map[string]*profiles.Profile),
		slugs:    make(map[string]string),
	}
}

func (pr *FakeProfileRepo) Create(_ context.Context, profile *profiles.Profile) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if pr.FailCreate != nil {
		return pr.FailCreate
	}
	if _, ok := pr.slugs[profile.Slug]; ok {
		return autherrors.ErrDuplicateSlug
	}
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	stored := *profile
	pr.profiles[profile.ID] = &stored
	pr.slugs[profile.Slug] = profile.ID
	return nil
}

func (pr *FakeProfileRepo) GetByUserID(_ context.Context, userID string) (*profiles.Profile, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	for _, p := range pr.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, autherrors.ErrNotFound
}

func (pr *FakeProfileRepo) Delete(_ context.Context, id string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.profiles[id]
	if !ok {
		return autherrors.ErrNotFound
	}
	delete(pr.slugs, p.Slug)
	delete(pr.profiles, id)
	return nil
}
