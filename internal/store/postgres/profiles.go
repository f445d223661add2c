package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/profiles"
)

const profileColumns = `id, user_id, first_name, last_name, gender, avatar, address, bio, birthday, slug`

var _ profiles.Repo = (*ProfileRepo)(nil)

type ProfileRepo struct {
	db DBTX
}

func NewProfileRepo(db DBTX) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Create(ctx context.Context, profile *profiles.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}

	var gender sql.NullBool
	if profile.Gender != nil {
		gender = sql.NullBool{Bool: *profile.Gender, Valid: true}
	}

	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.FirstName,
		profile.LastName,
		gender,
		profile.Avatar,
		profile.Address,
		profile.Bio,
		nullTime(profile.Birthday),
		profile.Slug,
	)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == "profiles_slug_key" {
			return autherrors.ErrDuplicateSlug
		}
		return pkgerrors.Wrap(err, "[ProfileRepo.Create] insert")
	}
	return nil
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*profiles.Profile, error) {
	if !isUUID(userID) {
		return nil, autherrors.ErrNotFound
	}
	var (
		p        profiles.Profile
		gender   sql.NullBool
		birthday sql.NullTime
	)
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &gender,
		&p.Avatar, &p.Address, &p.Bio, &birthday, &p.Slug,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, autherrors.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "[ProfileRepo.GetByUserID] select")
	}
	if gender.Valid {
		g := gender.Bool
		p.Gender = &g
	}
	p.Birthday = timePtr(birthday)
	return &p, nil
}

func (r *ProfileRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return autherrors.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return pkgerrors.Wrap(err, "[ProfileRepo.Delete] delete")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return autherrors.ErrNotFound
	}
	return nil
}
