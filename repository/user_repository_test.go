// file: repository/user_repository_test.go

package repository

import (
	"database/sql"
	"go-auth-api/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (email, password) VALUES ($1, $2) RETURNING id, created_at, updated_at`)).
			WithArgs("a@b.com", "hashed").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))

		user := &model.User{Email: "a@b.com", Password: "hashed"}
		err := repo.CreateUser(user)

		assert.NoError(t, err)
		assert.Equal(t, 1, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation surfaces as pq error", func(t *testing.T) {
		pqErr := &pq.Error{Code: "23505", Constraint: "users_email_key"}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs("a@b.com", "hashed").
			WillReturnError(pqErr)

		user := &model.User{Email: "a@b.com", Password: "hashed"}
		err := repo.CreateUser(user)

		assert.ErrorIs(t, err, pqErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetActiveUserByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password, created_at, updated_at FROM users WHERE email = $1 AND deleted_at IS NULL`)).
			WithArgs("a@b.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "created_at", "updated_at"}).
				AddRow(1, "a@b.com", "hashed", now, now))

		user, err := repo.GetActiveUserByEmail("a@b.com")

		assert.NoError(t, err)
		assert.Equal(t, 1, user.ID)
		assert.Equal(t, "a@b.com", user.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("soft-deleted or missing user yields no rows", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password, created_at, updated_at FROM users WHERE email = $1 AND deleted_at IS NULL`)).
			WithArgs("ghost@b.com").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetActiveUserByEmail("ghost@b.com")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetActiveUserByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password, created_at, updated_at FROM users WHERE id = $1 AND deleted_at IS NULL`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "created_at", "updated_at"}).
			AddRow(1, "a@b.com", "hashed", now, now))

	user, err := repo.GetActiveUserByID(1)

	assert.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SoftDeleteUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`)).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SoftDeleteUser(1))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already deleted", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`)).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.SoftDeleteUser(1), sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
