package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is a bookmarked code repository, the sample CRUD entity of the
// starter application.
type Repository struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Link        string    `json:"link"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type RepositoryStore struct {
	DB *pgxpool.Pool
}

func NewRepositoryStore(db *pgxpool.Pool) *RepositoryStore {
	return &RepositoryStore{DB: db}
}

func (s *RepositoryStore) Create(ctx context.Context, name, link string, description *string) (*Repository, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO repositories (id, name, link, description)
		VALUES ($1,$2,$3,$4)
		RETURNING id, name, link, description, created_at, updated_at
	`, uuid.NewString(), name, link, description)
	return scanRepository(row)
}

func (s *RepositoryStore) FindByID(ctx context.Context, id string) (*Repository, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, name, link, description, created_at, updated_at
		FROM repositories WHERE id=$1
	`, id)
	repo, err := scanRepository(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return repo, err
}

func (s *RepositoryStore) List(ctx context.Context, offset, limit int) ([]Repository, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM repositories`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `
		SELECT id, name, link, description, created_at, updated_at
		FROM repositories
		ORDER BY name ASC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var repos []Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, 0, err
		}
		repos = append(repos, *repo)
	}
	return repos, total, rows.Err()
}

func (s *RepositoryStore) Update(ctx context.Context, id, name, link string, description *string) (*Repository, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE repositories
		SET name=$1, link=$2, description=$3, updated_at=NOW()
		WHERE id=$4
		RETURNING id, name, link, description, created_at, updated_at
	`, name, link, description, id)
	repo, err := scanRepository(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return repo, err
}

func (s *RepositoryStore) Delete(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM repositories WHERE id=$1`, id)
	return err
}

func scanRepository(row pgx.Row) (*Repository, error) {
	var (
		id          string
		name        string
		link        string
		description sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(&id, &name, &link, &description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	return &Repository{
		ID:          id,
		Name:        name,
		Link:        link,
		Description: nullStringPtr(description),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
