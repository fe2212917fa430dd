package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/bizlens/pkg/models"
)

// maxFilenameSuffix bounds the search for a free filename.
const maxFilenameSuffix = 100

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Report files ---

func (s *PostgresStore) SaveReportFile(ctx context.Context, f *models.ReportFile) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	base := f.Filename
	for n := 1; n <= maxFilenameSuffix; n++ {
		name := base
		if n > 1 {
			name = suffixed(base, n)
		}

		_, err := s.pool.Exec(ctx,
			`INSERT INTO report_files (filename, feature, company, industry, content, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			name, f.Feature, f.Company, f.Industry, f.Content, f.CreatedAt)
		if err == nil {
			f.Filename = name
			return nil
		}
		if !isDuplicateKeyError(err) {
			return fmt.Errorf("save report file: %w", err)
		}
	}
	return fmt.Errorf("save report file %s: %w", base, ErrDuplicateKey)
}

func (s *PostgresStore) ListReportFiles(ctx context.Context, filter ReportFileFilter) ([]*models.ReportFile, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var (
		args  []any
		where []string
	)
	if filter.Feature != "" {
		args = append(args, filter.Feature)
		where = append(where, fmt.Sprintf("feature = $%d", len(args)))
	}
	args = append(args, limit)

	q := `SELECT filename, feature, company, industry, created_at FROM report_files`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC, filename LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list report files: %w", err)
	}
	defer rows.Close()

	files := []*models.ReportFile{}
	for rows.Next() {
		var f models.ReportFile
		if err := rows.Scan(&f.Filename, &f.Feature, &f.Company, &f.Industry, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report file: %w", err)
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (s *PostgresStore) GetReportFile(ctx context.Context, filename string) (*models.ReportFile, error) {
	var f models.ReportFile
	err := s.pool.QueryRow(ctx,
		`SELECT filename, feature, company, industry, content, created_at
		 FROM report_files WHERE filename = $1`, filename,
	).Scan(&f.Filename, &f.Feature, &f.Company, &f.Industry, &f.Content, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report file: %w", err)
	}
	return &f, nil
}

// suffixed turns "acme_swot.md" into "acme_swot-2.md".
func suffixed(name string, n int) string {
	ext := path.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
