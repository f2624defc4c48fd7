package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nexusmart/api/internal/models"
	"github.com/nexusmart/api/internal/utils"
)

// UserRepository handles data access for storefront accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. A unique violation on email maps to ErrEmailTaken.
func (r *UserRepository) Create(user *models.User) error {
	const q = `INSERT INTO users (email, password_hash, name, is_admin, is_active)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id, created_at, updated_at`

	err := r.db.QueryRowx(q,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.IsAdmin,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return utils.ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	const q = `SELECT * FROM users WHERE email = $1 LIMIT 1`
	var u models.User
	if err := r.db.Get(&u, q, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by id.
func (r *UserRepository) GetByID(id int) (*models.User, error) {
	const q = `SELECT * FROM users WHERE id = $1 LIMIT 1`
	var u models.User
	if err := r.db.Get(&u, q, id); err != nil {
		return nil, err
	}
	return &u, nil
}
