package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/scam-sniffer/internal/analyzer"
)

// ErrRecordNotFound is returned when no record matches the lookup
var ErrRecordNotFound = errors.New("analysis record not found")

const recordColumns = `id, email, text, score, level, indicators, is_scam, created_at`

// Repository handles database operations for analysis history
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new analysis repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateRecord persists one analysis
func (r *Repository) CreateRecord(ctx context.Context, record *Record) error {
	indicators, err := json.Marshal(record.Indicators)
	if err != nil {
		return fmt.Errorf("failed to marshal indicators: %w", err)
	}

	query := `
		INSERT INTO analyses (id, email, text, score, level, indicators, is_scam)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err = r.db.QueryRow(ctx, query,
		record.ID,
		record.Email,
		record.Text,
		record.Score,
		record.Level,
		indicators,
		record.IsScam,
	).Scan(&record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create analysis record: %w", err)
	}

	return nil
}

// ListRecords retrieves records newest first
func (r *Repository) ListRecords(ctx context.Context, limit, offset int) ([]*Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, recordColumns)

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListAllRecords retrieves the full history newest first, for export
func (r *Repository) ListAllRecords(ctx context.Context) ([]*Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM analyses
		ORDER BY created_at DESC
	`, recordColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CountRecords returns the total number of stored analyses
func (r *Repository) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analysis records: %w", err)
	}
	return count, nil
}

// CountScamRecords returns the number of analyses flagged as scams
func (r *Repository) CountScamRecords(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM analyses WHERE is_scam = true`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scam records: %w", err)
	}
	return count, nil
}

// DeleteRecord removes a record by ID
func (r *Repository) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner) ([]*Record, error) {
	records := make([]*Record, 0)
	for rows.Next() {
		record := &Record{}
		var indicators []byte
		err := rows.Scan(
			&record.ID, &record.Email, &record.Text, &record.Score,
			&record.Level, &indicators, &record.IsScam, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}
		if len(indicators) > 0 {
			if err := json.Unmarshal(indicators, &record.Indicators); err != nil {
				return nil, fmt.Errorf("failed to unmarshal indicators: %w", err)
			}
		}
		if record.Indicators == nil {
			record.Indicators = []analyzer.Indicator{}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read analysis records: %w", err)
	}
	return records, nil
}
