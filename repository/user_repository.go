package repository

import (
	"database/sql"
	"go-auth-api/logger"
	"go-auth-api/model"
)

// IUserRepository defines the contract for user database operations. The
// surface is deliberately narrow: only the queries the auth flows need.
type IUserRepository interface {
	CreateUser(user *model.User) error
	GetActiveUserByEmail(email string) (*model.User, error)
	GetActiveUserByID(id int) (*model.User, error)
	SoftDeleteUser(id int) error
}

// UserRepository implements IUserRepository over database/sql.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// CreateUser inserts a new user row. The database unique constraint on email
// is the authoritative duplicate guard; violations surface as *pq.Error.
func (r *UserRepository) CreateUser(user *model.User) error {
	query := `INSERT INTO users (email, password) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	err := r.DB.QueryRow(query, user.Email, user.Password).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute create user query")
		return err
	}
	return nil
}

// GetActiveUserByEmail retrieves a non-soft-deleted user by email.
// Returns sql.ErrNoRows when no active user matches.
func (r *UserRepository) GetActiveUserByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, email, password, created_at, updated_at FROM users WHERE email = $1 AND deleted_at IS NULL`
	err := r.DB.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetActiveUserByID retrieves a non-soft-deleted user by primary key.
func (r *UserRepository) GetActiveUserByID(id int) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, email, password, created_at, updated_at FROM users WHERE id = $1 AND deleted_at IS NULL`
	err := r.DB.QueryRow(query, id).Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SoftDeleteUser marks a user as deleted without removing the row.
func (r *UserRepository) SoftDeleteUser(id int) error {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to soft delete user")

	query := `UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.DB.Exec(query, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute soft delete user query")
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
