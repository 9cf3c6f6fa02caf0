package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ScheduledPublisher/internal/domain"
	"ScheduledPublisher/internal/infrastructure/parser"
	"ScheduledPublisher/internal/ports"
)

// maxPathDepth bounds the ancestor walk when checking the publish path.
const maxPathDepth = 64

var contentColumns = []string{
	"id", "parent_id", "name", "body", "writer_id", "published", "trashed",
	"release_date", "expire_date", "updated_at", "updated_by",
}

// ContentRepository persists content items and their publish state in SQL storage.
type ContentRepository struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var _ ports.ContentRepository = (*ContentRepository)(nil)

// NewContentRepository wires a sql.DB opened with the given driver. now defaults to time.Now.
func NewContentRepository(db *sql.DB, driver string, now func() time.Time) *ContentRepository {
	if now == nil {
		now = time.Now
	}
	return &ContentRepository{db: db, sb: statementBuilder(driver), now: now}
}

// ListDueForRelease returns unpublished, untrashed items whose release date has passed.
func (r *ContentRepository) ListDueForRelease(ctx context.Context) ([]domain.Content, error) {
	return r.listDue(ctx, "release_date", false)
}

// ListDueForExpiry returns published, untrashed items whose expire date has passed.
func (r *ContentRepository) ListDueForExpiry(ctx context.Context) ([]domain.Content, error) {
	return r.listDue(ctx, "expire_date", true)
}

func (r *ContentRepository) listDue(ctx context.Context, column string, published bool) ([]domain.Content, error) {
	query, args, err := r.sb.Select(contentColumns...).
		From("content").
		Where(sq.LtOrEq{column: r.clock()}).
		Where(sq.Eq{"published": published, "trashed": false}).
		OrderBy(column, "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build due query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query due by %s: %w", column, err)
	}

	var items []domain.Content
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return items, nil
}

// PublishWithOutcome saves the item's schedule and publishes it when the
// publish rules allow. Rule violations are reported in the outcome; the
// schedule change is kept either way.
func (r *ContentRepository) PublishWithOutcome(ctx context.Context, item *domain.Content, userID int64) (domain.PublishOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.PublishOutcome{}, fmt.Errorf("begin publish: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.clock()
	if err := r.saveSchedule(ctx, tx, item, now); err != nil {
		return domain.PublishOutcome{}, err
	}

	current, err := r.get(ctx, tx, item.ID)
	if err != nil {
		return domain.PublishOutcome{}, err
	}

	outcome, err := r.checkPublish(ctx, tx, current, now)
	if err != nil {
		return domain.PublishOutcome{}, err
	}

	if outcome.Status == domain.StatusSuccess {
		if err := r.setPublished(ctx, tx, item.ID, true, userID, now); err != nil {
			return domain.PublishOutcome{}, err
		}
		if err := r.audit(ctx, tx, item.ID, userID, domain.AuditPublish, now); err != nil {
			return domain.PublishOutcome{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.PublishOutcome{}, fmt.Errorf("commit publish: %w", err)
	}

	item.UpdatedAt = now
	if outcome.Status == domain.StatusSuccess {
		item.Published = true
		item.UpdatedBy = userID
	}
	return outcome, nil
}

// Unpublish saves the item's schedule and takes it offline. It reports false
// when the item is not currently published.
func (r *ContentRepository) Unpublish(ctx context.Context, item *domain.Content, userID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin unpublish: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.clock()
	if err := r.saveSchedule(ctx, tx, item, now); err != nil {
		return false, err
	}

	current, err := r.get(ctx, tx, item.ID)
	if err != nil {
		return false, err
	}

	ok := current.Published && !current.Trashed
	if ok {
		if err := r.setPublished(ctx, tx, item.ID, false, userID, now); err != nil {
			return false, err
		}
		if err := r.audit(ctx, tx, item.ID, userID, domain.AuditUnpublish, now); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit unpublish: %w", err)
	}

	item.UpdatedAt = now
	if ok {
		item.Published = false
		item.UpdatedBy = userID
	}
	return ok, nil
}

// Save inserts or replaces a content item.
func (r *ContentRepository) Save(ctx context.Context, item domain.Content) error {
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.clock()
	}

	query, args, err := r.sb.Insert("content").
		Columns(contentColumns...).
		Values(
			item.ID, nullInt(item.ParentID), item.Name, item.Body, item.WriterID,
			item.Published, item.Trashed, nullTime(item.ReleaseDate), nullTime(item.ExpireDate),
			utcSecond(updatedAt), item.UpdatedBy,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE
              SET parent_id = EXCLUDED.parent_id,
                  name = EXCLUDED.name,
                  body = EXCLUDED.body,
                  writer_id = EXCLUDED.writer_id,
                  published = EXCLUDED.published,
                  trashed = EXCLUDED.trashed,
                  release_date = EXCLUDED.release_date,
                  expire_date = EXCLUDED.expire_date,
                  updated_at = EXCLUDED.updated_at,
                  updated_by = EXCLUDED.updated_by`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert content %d: %w", item.ID, err)
	}

	return nil
}

// Get loads a content item by id.
func (r *ContentRepository) Get(ctx context.Context, id int64) (domain.Content, error) {
	return r.get(ctx, r.db, id)
}

// AuditTrail returns recorded transitions for a content item, oldest first.
func (r *ContentRepository) AuditTrail(ctx context.Context, contentID int64) ([]domain.AuditEntry, error) {
	query, args, err := r.sb.Select("content_id", "user_id", "action", "created_at").
		From("content_audit").
		Where(sq.Eq{"content_id": contentID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			entry  domain.AuditEntry
			action string
		)
		if err := rows.Scan(&entry.ContentID, &entry.UserID, &action, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		entry.Action = domain.AuditAction(action)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return entries, nil
}

func (r *ContentRepository) checkPublish(ctx context.Context, q queryer, item domain.Content, now time.Time) (domain.PublishOutcome, error) {
	switch {
	case item.Trashed:
		return domain.PublishFailed(domain.StatusFailedIsTrashed, nil), nil
	case item.ExpireDate != nil && !item.ExpireDate.After(now):
		return domain.PublishFailed(domain.StatusFailedHasExpired, nil), nil
	case item.ReleaseDate != nil && item.ReleaseDate.After(now):
		return domain.PublishFailed(domain.StatusFailedAwaitingRelease, nil), nil
	}

	pathPublished, err := r.pathPublished(ctx, q, item)
	if err != nil {
		return domain.PublishOutcome{}, err
	}
	if !pathPublished {
		return domain.PublishFailed(domain.StatusFailedPathNotPublished, nil), nil
	}

	if err := parser.ValidateBody(item.Body); err != nil {
		return domain.PublishFailed(domain.StatusFailedContentInvalid, err), nil
	}

	if item.Published {
		return domain.Published(domain.StatusSuccessAlreadyPublished), nil
	}
	return domain.Published(domain.StatusSuccess), nil
}

// pathPublished reports whether every ancestor of item is published.
func (r *ContentRepository) pathPublished(ctx context.Context, q queryer, item domain.Content) (bool, error) {
	seen := map[int64]struct{}{item.ID: {}}
	parentID := item.ParentID

	for depth := 0; parentID != nil; depth++ {
		if depth >= maxPathDepth {
			return false, fmt.Errorf("content %d: path deeper than %d", item.ID, maxPathDepth)
		}
		if _, ok := seen[*parentID]; ok {
			return false, fmt.Errorf("content %d: cyclic parent path at %d", item.ID, *parentID)
		}
		seen[*parentID] = struct{}{}

		parent, err := r.get(ctx, q, *parentID)
		if errors.Is(err, domain.ErrContentNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if !parent.Published || parent.Trashed {
			return false, nil
		}
		parentID = parent.ParentID
	}

	return true, nil
}

func (r *ContentRepository) saveSchedule(ctx context.Context, tx *sql.Tx, item *domain.Content, now time.Time) error {
	query, args, err := r.sb.Update("content").
		Set("release_date", nullTime(item.ReleaseDate)).
		Set("expire_date", nullTime(item.ExpireDate)).
		Set("updated_at", now).
		Where(sq.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build schedule update: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save schedule for content %d: %w", item.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save schedule for content %d: %w", item.ID, domain.ErrContentNotFound)
	}

	return nil
}

func (r *ContentRepository) setPublished(ctx context.Context, tx *sql.Tx, id int64, published bool, userID int64, now time.Time) error {
	query, args, err := r.sb.Update("content").
		Set("published", published).
		Set("updated_by", userID).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build state update: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set published=%t for content %d: %w", published, id, err)
	}

	return nil
}

func (r *ContentRepository) audit(ctx context.Context, tx *sql.Tx, id, userID int64, action domain.AuditAction, now time.Time) error {
	query, args, err := r.sb.Insert("content_audit").
		Columns("content_id", "user_id", "action", "created_at").
		Values(id, userID, string(action), now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("audit %s for content %d: %w", action, id, err)
	}

	return nil
}

func (r *ContentRepository) get(ctx context.Context, q queryer, id int64) (domain.Content, error) {
	query, args, err := r.sb.Select(contentColumns...).
		From("content").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Content{}, fmt.Errorf("build get query: %w", err)
	}

	item, err := scanContent(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Content{}, fmt.Errorf("content %d: %w", id, domain.ErrContentNotFound)
	}
	return item, err
}

func (r *ContentRepository) clock() time.Time {
	return utcSecond(r.now())
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (domain.Content, error) {
	var (
		item     domain.Content
		parentID sql.NullInt64
		release  sql.NullTime
		expire   sql.NullTime
	)

	err := row.Scan(
		&item.ID, &parentID, &item.Name, &item.Body, &item.WriterID,
		&item.Published, &item.Trashed, &release, &expire,
		&item.UpdatedAt, &item.UpdatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Content{}, err
	}
	if err != nil {
		return domain.Content{}, fmt.Errorf("scan content: %w", err)
	}

	if parentID.Valid {
		id := parentID.Int64
		item.ParentID = &id
	}
	if release.Valid {
		t := release.Time.UTC()
		item.ReleaseDate = &t
	}
	if expire.Valid {
		t := expire.Time.UTC()
		item.ExpireDate = &t
	}
	item.UpdatedAt = item.UpdatedAt.UTC()

	return item, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: utcSecond(*t), Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func utcSecond(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
