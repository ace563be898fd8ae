package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, name, language, role, activated, email_verified, created_at, updated_at`

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

type CreateUserParams struct {
	Email         string
	PasswordHash  *string
	Name          *string
	Language      string
	Role          string
	Activated     bool
	EmailVerified bool
}

func (r *UserRepository) Create(ctx context.Context, p CreateUserParams) (*User, error) {
	if p.Language == "" {
		p.Language = "en"
	}
	if p.Role == "" {
		p.Role = RoleUser
	}

	query := fmt.Sprintf(`
		INSERT INTO users (id, email, password_hash, name, language, role, activated, email_verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING %s
	`, userColumns)

	row := r.DB.QueryRow(ctx, query,
		uuid.NewString(), NormalizeEmail(p.Email), p.PasswordHash, p.Name, p.Language, p.Role, p.Activated, p.EmailVerified)
	user, err := scanUser(row)
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	return user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.DB.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE email=$1`, userColumns), NormalizeEmail(email))
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.DB.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE id=$1`, userColumns), id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]User, int, error) {
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM users
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2
	`, userColumns), offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

type UpdateUserParams struct {
	Name     *string
	Language *string
	Role     *string
}

func (r *UserRepository) Update(ctx context.Context, id string, p UpdateUserParams) (*User, error) {
	sets := []string{}
	args := []interface{}{}
	idx := 1

	if p.Name != nil {
		sets = append(sets, fmt.Sprintf("name=$%d", idx))
		args = append(args, p.Name)
		idx++
	}
	if p.Language != nil {
		sets = append(sets, fmt.Sprintf("language=$%d", idx))
		args = append(args, p.Language)
		idx++
	}
	if p.Role != nil {
		sets = append(sets, fmt.Sprintf("role=$%d", idx))
		args = append(args, p.Role)
		idx++
	}

	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}
	sets = append(sets, "updated_at=NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE users SET %s WHERE id=$%d
		RETURNING %s
	`, strings.Join(sets, ", "), idx, userColumns)

	user, err := scanUser(r.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) SetActivated(ctx context.Context, id string, activated bool) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET activated=$1, updated_at=NOW() WHERE id=$2`, activated, id)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}

// CreateVerificationToken stores the hash of an opaque token value with an
// absolute expiry. Only the hash is persisted; the raw value travels in the
// activation or reset email alone.
func (r *UserRepository) CreateVerificationToken(ctx context.Context, userID, token string, expires time.Time) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO verification_tokens (token, user_id, expires)
		VALUES ($1,$2,$3)
	`, HashString(token), userID, expires)
	return err
}

// DeleteExpiredTokens sweeps every token past its expiry. Token-consuming
// operations call this first, unconditionally.
func (r *UserRepository) DeleteExpiredTokens(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM verification_tokens WHERE expires < NOW()`)
	return err
}

// ConsumeActivation deletes the matching still-valid token and flips the
// owning user to activated and email-verified in one transaction. If either
// half fails, both roll back and the token stays consumable.
func (r *UserRepository) ConsumeActivation(ctx context.Context, token string) (string, error) {
	return r.consume(ctx, token, func(tx pgx.Tx, userID string) error {
		_, err := tx.Exec(ctx,
			`UPDATE users SET activated=TRUE, email_verified=TRUE, updated_at=NOW() WHERE id=$1`, userID)
		return err
	})
}

// ConsumePasswordReset deletes the matching still-valid token and writes the
// new password hash in one transaction.
func (r *UserRepository) ConsumePasswordReset(ctx context.Context, token, passwordHash string) (string, error) {
	return r.consume(ctx, token, func(tx pgx.Tx, userID string) error {
		_, err := tx.Exec(ctx,
			`UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, passwordHash, userID)
		return err
	})
}

func (r *UserRepository) consume(ctx context.Context, token string, mutate func(tx pgx.Tx, userID string) error) (string, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx, `
		DELETE FROM verification_tokens
		WHERE token=$1 AND expires > NOW()
		RETURNING user_id
	`, HashString(token)).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}

	if err := mutate(tx, userID); err != nil {
		return "", err
	}
	return userID, tx.Commit(ctx)
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		id            string
		email         string
		passwordHash  sql.NullString
		name          sql.NullString
		language      string
		role          string
		activated     bool
		emailVerified bool
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(
		&id,
		&email,
		&passwordHash,
		&name,
		&language,
		&role,
		&activated,
		&emailVerified,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	return &User{
		ID:            id,
		Email:         email,
		PasswordHash:  nullStringPtr(passwordHash),
		Name:          nullStringPtr(name),
		Language:      language,
		Role:          role,
		Activated:     activated,
		EmailVerified: emailVerified,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
