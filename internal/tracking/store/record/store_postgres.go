package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"phonetrack/internal/sentinel"
	"phonetrack/internal/tracking/models"
	id "phonetrack/pkg/domain"
)

// PostgresStore persists records in the tracking_records table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, user_id, phone_number, photo_url, description, location, status, created_at`

func (s *PostgresStore) Insert(ctx context.Context, r *models.Record) error {
	if r == nil {
		return fmt.Errorf("record is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracking_records (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(r.ID), uuid.UUID(r.OwnerID), r.PhoneNumber, nullString(r.PhotoURL),
		r.Description, r.Location, r.Status, r.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("record already exists: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM tracking_records
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list records by owner: %w", err)
	}
	return scanRecords(rows)
}

func (s *PostgresStore) ListByPhone(ctx context.Context, phone string) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM tracking_records
		 WHERE phone_number = $1
		 ORDER BY created_at DESC`, phone)
	if err != nil {
		return nil, fmt.Errorf("list records by phone: %w", err)
	}
	return scanRecords(rows)
}

// UpdateOwned filters on id and owner in one statement, so a foreign record is
// indistinguishable from a missing one.
func (s *PostgresStore) UpdateOwned(ctx context.Context, recordID id.RecordID, ownerID id.UserID, fields models.UpdateFields) (*models.Record, error) {
	sets := make([]string, 0, 2)
	args := []any{uuid.UUID(recordID), uuid.UUID(ownerID)}
	if fields.Status != nil {
		args = append(args, *fields.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if fields.Description != nil {
		args = append(args, *fields.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}

	var query string
	if len(sets) == 0 {
		query = `SELECT ` + recordColumns + ` FROM tracking_records WHERE id = $1 AND user_id = $2`
	} else {
		query = `UPDATE tracking_records SET ` + strings.Join(sets, ", ") +
			` WHERE id = $1 AND user_id = $2 RETURNING ` + recordColumns
	}

	r, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("update record: %w", err)
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var (
		rawID, rawOwner uuid.UUID
		photo           sql.NullString
		r               models.Record
	)
	if err := row.Scan(&rawID, &rawOwner, &r.PhoneNumber, &photo, &r.Description, &r.Location, &r.Status, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.ID = id.RecordID(rawID)
	r.OwnerID = id.UserID(rawOwner)
	if photo.Valid {
		r.PhotoURL = &photo.String
	}
	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]*models.Record, error) {
	defer rows.Close()
	out := make([]*models.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
