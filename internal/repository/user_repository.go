package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/utils"
)

// UserRepo persists accounts in the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

// Create hashes password and inserts the user, returning its ID.  Email is
// lower-cased; username is kept as typed because it is written on
// bookings as the PIC.
func (r *UserRepo) Create(ctx context.Context, username, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email)) // one account per address, whatever the case
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost) // never store the plain password
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
		username, email, hash, role)
	if err != nil {
		if isDuplicateKey(err) { // uq on email and on username
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId() // AUTO_INCREMENT id
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "email=?", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "id=?", id)
}

// UpdateProfile changes the username and email of user id, and its
// password when passwordHash is not empty.  Existing bookings keep the PIC
// they were made under.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, username, email, passwordHash string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email)) // emails are stored lowercased
	username = strings.TrimSpace(username)            // trim accidental spaces from the form
	q := "UPDATE users SET username=?, email=?"       // columns always rewritten
	args := []any{username, email}
	if passwordHash != "" { // password is optional on profile updates
		q += ", password_hash=?"
		args = append(args, passwordHash)
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx, q+" WHERE id=?", args...)
	if err != nil {
		if isDuplicateKey(err) { // username or email belongs to someone else
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	// RowsAffected is 0 for an unchanged row too, so existence is
	// settled by reading it back.
	return r.GetByID(ctx, id)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) { // translate to the package sentinel
		return model.User{}, ErrUserNotFound
	}
	return u, err
}
