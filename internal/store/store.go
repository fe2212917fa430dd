// Package store archives generated report files in Postgres so they can be
// listed and fetched again after the report cache has moved on.
package store

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/bizlens/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// DefaultListLimit caps ListReportFiles when no limit is given.
const DefaultListLimit = 50

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	// SaveReportFile inserts f. When the filename is taken a numeric suffix is
	// added before the extension and f.Filename is updated to the stored name.
	SaveReportFile(ctx context.Context, f *models.ReportFile) error
	// ListReportFiles returns file metadata, newest first, without content.
	ListReportFiles(ctx context.Context, filter ReportFileFilter) ([]*models.ReportFile, error)
	GetReportFile(ctx context.Context, filename string) (*models.ReportFile, error)
}

type ReportFileFilter struct {
	Feature string
	Limit   int
}
