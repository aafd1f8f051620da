package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/pkg/database"
)

// ErrEmailTaken is returned by Create when the email unique index rejects the row.
var ErrEmailTaken = errors.New("email already registered")

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

type userRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	PasswordAlgo string `db:"password_algo"`
	Country      string `db:"country"`
	CreatedAt    int64  `db:"created_at"`
}

func (row userRow) toEntity() *entity.User {
	return &entity.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		PasswordAlgo: row.PasswordAlgo,
		Country:      row.Country,
		CreatedAt:    database.FromMillis(row.CreatedAt),
	}
}

const userColumns = `id, name, email, password_hash, password_algo, country, created_at`

// Create inserts a new user row. The caller supplies the ID.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, name, email, password_hash, password_algo, country, created_at)
		VALUES (:id, :name, :email, :password_hash, :password_algo, :country, :created_at)`
	row := userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		PasswordAlgo: u.PasswordAlgo,
		Country:      u.Country,
		CreatedAt:    database.Millis(u.CreatedAt),
	}
	if _, err := r.db.NamedExecContext(ctx, q, row); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail returns a user matched by exact email or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	q := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return row.toEntity(), nil
}

// GetByID fetches a full user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	q := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return row.toEntity(), nil
}
