package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ScheduledPublisher/internal/domain"
	"ScheduledPublisher/internal/ports"
)

// ProfileRepository resolves user profiles from SQL storage.
type ProfileRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.ProfileResolver = (*ProfileRepository)(nil)

// NewProfileRepository wires a sql.DB opened with the given driver.
func NewProfileRepository(db *sql.DB, driver string) *ProfileRepository {
	return &ProfileRepository{db: db, sb: statementBuilder(driver)}
}

// WriterProfile returns the profile of the user who last wrote item.
func (r *ProfileRepository) WriterProfile(ctx context.Context, item domain.Content) (domain.Profile, error) {
	return r.Get(ctx, item.WriterID)
}

// Get loads a profile by id.
func (r *ProfileRepository) Get(ctx context.Context, id int64) (domain.Profile, error) {
	query, args, err := r.sb.Select("id", "name", "email", "disabled").
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Profile{}, fmt.Errorf("build profile query: %w", err)
	}

	var p domain.Profile
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.Name, &p.Email, &p.Disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("user %d: %w", id, domain.ErrProfileNotFound)
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("query user %d: %w", id, err)
	}

	return p, nil
}

// Save upserts a profile.
func (r *ProfileRepository) Save(ctx context.Context, p domain.Profile) error {
	query, args, err := r.sb.Insert("users").
		Columns("id", "name", "email", "disabled").
		Values(p.ID, p.Name, p.Email, p.Disabled).
		Suffix(`ON CONFLICT (id) DO UPDATE
              SET name = EXCLUDED.name,
                  email = EXCLUDED.email,
                  disabled = EXCLUDED.disabled`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build profile upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert user %d: %w", p.ID, err)
	}

	return nil
}
