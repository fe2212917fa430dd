// Package reports implements the per-analysis-type report cache: a capped,
// newest-first list of recent reports plus an independent "current" slot.
// All key naming lives in package cache; callers never touch raw keys.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/bizlens/internal/cache"
	"github.com/kiranshivaraju/bizlens/pkg/models"
)

// MaxRecent is the length cap of the recent-reports list.
const MaxRecent = 10

var (
	ErrNotFound     = errors.New("report not found")
	ErrCorruptEntry = errors.New("stored report is corrupted")
)

// Cache is the report cache for one analysis type.
type Cache struct {
	store   cache.Cache
	feature string
}

// New returns the report cache for feature, backed by store.
func New(store cache.Cache, feature string) *Cache {
	return &Cache{store: store, feature: feature}
}

// Feature returns the analysis type this cache is namespaced to.
func (c *Cache) Feature() string { return c.feature }

// Save prepends report to the recent list, truncating it to MaxRecent.
func (c *Cache) Save(ctx context.Context, report models.AnalysisReport) error {
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := c.store.PushCapped(ctx, cache.ReportsKey(c.feature), b, MaxRecent); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// LoadRecent returns the saved reports, newest first. Entries that no longer
// decode are skipped and logged rather than failing the whole list.
func (c *Cache) LoadRecent(ctx context.Context) ([]models.AnalysisReport, error) {
	raw, err := c.store.Range(ctx, cache.ReportsKey(c.feature))
	if err != nil {
		return nil, fmt.Errorf("loading reports: %w", err)
	}

	out := make([]models.AnalysisReport, 0, len(raw))
	for i, b := range raw {
		var r models.AnalysisReport
		if err := json.Unmarshal(b, &r); err != nil {
			slog.Warn("skipping corrupted report entry",
				"feature", c.feature, "index", i, "error", err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Get finds a saved report by id.
func (c *Cache) Get(ctx context.Context, id int64) (*models.AnalysisReport, error) {
	recent, err := c.LoadRecent(ctx)
	if err != nil {
		return nil, err
	}
	for i := range recent {
		if recent[i].ID == id {
			return &recent[i], nil
		}
	}
	return nil, ErrNotFound
}

// LoadCurrent returns the current slot, or nil when it is empty.
func (c *Cache) LoadCurrent(ctx context.Context) (*models.CurrentReport, error) {
	b, found, err := c.store.Get(ctx, cache.CurrentKey(c.feature))
	if err != nil {
		return nil, fmt.Errorf("loading current report: %w", err)
	}
	if !found {
		return nil, nil
	}

	var cur models.CurrentReport
	if err := json.Unmarshal(b, &cur); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return &cur, nil
}

// SaveCurrent overwrites the current slot.
func (c *Cache) SaveCurrent(ctx context.Context, cur models.CurrentReport) error {
	b, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("encoding current report: %w", err)
	}
	if err := c.store.Set(ctx, cache.CurrentKey(c.feature), b, 0); err != nil {
		return fmt.Errorf("saving current report: %w", err)
	}
	return nil
}

// ClearCurrent empties the current slot only.
func (c *Cache) ClearCurrent(ctx context.Context) error {
	if err := c.store.Delete(ctx, cache.CurrentKey(c.feature)); err != nil {
		return fmt.Errorf("clearing current report: %w", err)
	}
	return nil
}

// ClearAll removes both the recent list and the current slot.
func (c *Cache) ClearAll(ctx context.Context) error {
	if err := c.store.Delete(ctx, cache.ReportsKey(c.feature), cache.CurrentKey(c.feature)); err != nil {
		return fmt.Errorf("clearing reports: %w", err)
	}
	return nil
}

// SaveQuery stores a result under a slot keyed by a hash of the free-text query.
func (c *Cache) SaveQuery(ctx context.Context, query string, cur models.CurrentReport) error {
	b, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("encoding query report: %w", err)
	}
	if err := c.store.Set(ctx, cache.QueryKey(c.feature, query), b, 0); err != nil {
		return fmt.Errorf("saving query report: %w", err)
	}
	return nil
}

// LoadQuery returns the result previously stored for query, or nil.
func (c *Cache) LoadQuery(ctx context.Context, query string) (*models.CurrentReport, error) {
	b, found, err := c.store.Get(ctx, cache.QueryKey(c.feature, query))
	if err != nil {
		return nil, fmt.Errorf("loading query report: %w", err)
	}
	if !found {
		return nil, nil
	}
	var cur models.CurrentReport
	if err := json.Unmarshal(b, &cur); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return &cur, nil
}
