package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/profiles"
)

func TestProfileRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepo(db)

	mock.ExpectExec(`^INSERT INTO profiles \(id, user_id,`).
		WithArgs(sqlmock.AnyArg(), testUserID, "Ada", "Lovelace", nil, "", "", "", nil, "ada").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &profiles.Profile{UserID: testUserID, FirstName: "Ada", LastName: "Lovelace", Slug: "ada"}
	require.NoError(t, repo.Create(context.Background(), p))
	require.NotEmpty(t, p.ID)
}

func TestProfileRepo_Create_DuplicateSlug(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepo(db)

	mock.ExpectExec(`^INSERT INTO profiles`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "profiles_slug_key"})

	err := repo.Create(context.Background(), &profiles.Profile{ID: testProfileID, UserID: testUserID, Slug: "ada"})
	require.ErrorIs(t, err, autherrors.ErrDuplicateSlug)
}

func TestProfileRepo_Create_OtherUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepo(db)

	mock.ExpectExec(`^INSERT INTO profiles`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "profiles_user_id_key"})

	err := repo.Create(context.Background(), &profiles.Profile{ID: testProfileID, UserID: testUserID, Slug: "ada"})
	require.Error(t, err)
	require.NotErrorIs(t, err, autherrors.ErrDuplicateSlug)
}

func TestProfileRepo_GetByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepo(db)

	birthday := time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "first_name", "last_name", "gender", "avatar", "address", "bio", "birthday", "slug"}).
		AddRow(testProfileID, testUserID, "Ada", "Lovelace", false, "a.png", "", "", birthday, "ada")
	mock.ExpectQuery(`FROM profiles WHERE user_id = \$1$`).
		WithArgs(testUserID).
		WillReturnRows(rows)

	p, err := repo.GetByUserID(context.Background(), testUserID)
	require.NoError(t, err)
	require.Equal(t, "ada", p.Slug)
	require.NotNil(t, p.Gender)
	require.False(t, *p.Gender)
	require.NotNil(t, p.Birthday)
	require.True(t, birthday.Equal(*p.Birthday))
}

func TestProfileRepo_GetByUserID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepo(db)

	mock.ExpectQuery(`FROM profiles WHERE user_id = \$1$`).
		WithArgs(missingID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUserID(context.Background(), missingID)
	require.ErrorIs(t, err, autherrors.ErrNotFound)
}

func TestProfileRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepo(db)

	mock.ExpectExec(`^DELETE FROM profiles WHERE id = \$1$`).
		WithArgs(testProfileID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), testProfileID))
}

func TestProfileRepo_MalformedIDIsNotFound(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewProfileRepo(db)

	_, err := repo.GetByUserID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
	require.ErrorIs(t, repo.Delete(context.Background(), "not-a-uuid"), autherrors.ErrNotFound)
}
