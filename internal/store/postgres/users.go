package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/users"
)

const userColumns = `id, email, phone_number, role, password_hash, refresh_token, verify_token,
	verified, password_changed_at, active, created_at`

var _ users.UserRepo = (*UserRepo)(nil)

// UserRepo is the credential store on top of the users table. Empty tokens
// are stored as NULL so they never match a lookup.
type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PhoneNumber,
		string(user.Role),
		user.PasswordHash,
		nullIfEmpty(user.RefreshToken),
		nullIfEmpty(user.VerifyToken),
		user.Verified,
		nullTime(user.PasswordChangedAt),
		user.Active,
		user.CreatedAt,
	)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return autherrors.ErrDuplicateEmail
		}
		return pkgerrors.Wrap(err, "[UserRepo.Create] insert")
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return autherrors.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return pkgerrors.Wrap(err, "[UserRepo.Delete] delete")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return autherrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	if !isUUID(id) {
		return nil, autherrors.ErrNotFound
	}
	return r.getActive(ctx, "id", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getActive(ctx, "email", users.NormalizeEmail(email))
}

func (r *UserRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*users.User, error) {
	if refreshToken == "" {
		return nil, autherrors.ErrNotFound
	}
	return r.getActive(ctx, "refresh_token", refreshToken)
}

func (r *UserRepo) GetByVerifyToken(ctx context.Context, verifyToken string) (*users.User, error) {
	if verifyToken == "" {
		return nil, autherrors.ErrNotFound
	}
	return r.getActive(ctx, "verify_token", verifyToken)
}

// Update applies fields in a single statement, active or not, and returns the stored row
func (r *UserRepo) Update(ctx context.Context, id string, fields users.Update) (*users.User, error) {
	if !isUUID(id) {
		return nil, autherrors.ErrNotFound
	}
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.PasswordHash != nil {
		set("password_hash", *fields.PasswordHash)
	}
	if fields.PasswordChangedAt != nil {
		set("password_changed_at", *fields.PasswordChangedAt)
	}
	if fields.RefreshToken != nil {
		set("refresh_token", nullIfEmpty(*fields.RefreshToken))
	}
	if fields.VerifyToken != nil {
		set("verify_token", nullIfEmpty(*fields.VerifyToken))
	}
	if fields.Verified != nil {
		set("verified", *fields.Verified)
	}
	if fields.Role != nil {
		set("role", string(*fields.Role))
	}
	if fields.Active != nil {
		set("active", *fields.Active)
	}

	var row *sql.Row
	if len(sets) == 0 {
		row = r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	} else {
		args = append(args, id)
		query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
			strings.Join(sets, ", "), len(args), userColumns)
		row = r.db.QueryRowContext(ctx, query, args...)
	}

	user, err := scanUser(row)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[UserRepo.Update]")
	}
	return user, nil
}

// getActive looks up one active account by an indexed column
func (r *UserRepo) getActive(ctx context.Context, column, value string) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 AND active`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "[UserRepo.getActive] by %s", column)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*users.User, error) {
	var (
		u                 users.User
		role              string
		refreshToken      sql.NullString
		verifyToken       sql.NullString
		passwordChangedAt sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PhoneNumber,
		&role,
		&u.PasswordHash,
		&refreshToken,
		&verifyToken,
		&u.Verified,
		&passwordChangedAt,
		&u.Active,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, autherrors.ErrNotFound
		}
		return nil, err
	}
	u.Role = users.RoleType(role)
	u.RefreshToken = refreshToken.String
	u.VerifyToken = verifyToken.String
	u.PasswordChangedAt = timePtr(passwordChangedAt)
	return &u, nil
}
