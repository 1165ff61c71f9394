package reports

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// RepositoryPort abstracts the aggregate queries.
type RepositoryPort interface {
	Gather(ctx context.Context, from, to time.Time) (Totals, error)
}

// Service serves cached report aggregates. Concurrent requests for the
// same window collapse into one database pass.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Daily reports one calendar day.
func (s *Service) Daily(ctx context.Context, date time.Time) (Report, error) {
	from := date.UTC().Truncate(24 * time.Hour)
	return s.window(ctx, from, from.Add(24*time.Hour), "daily", from.Format("2006-01-02"))
}

// Monthly reports one calendar month.
func (s *Service) Monthly(ctx context.Context, year int, month time.Month) (Report, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return s.window(ctx, from, from.AddDate(0, 1, 0), "monthly", from.Format("2006-01"))
}

// Range reports an arbitrary half-open window.
func (s *Service) Range(ctx context.Context, from, to time.Time) (Report, error) {
	if !from.Before(to) {
		return Report{}, ErrInvalidWindow
	}
	return s.window(ctx, from, to, "range", from.Format("2006-01-02")+":"+to.Format("2006-01-02"))
}

// Invalidate orphans every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) window(ctx context.Context, from, to time.Time, kind, label string) (Report, error) {
	key, err := s.cache.BuildKey(ctx, "reports", kind, label)
	if err != nil {
		return Report{}, err
	}
	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		var report Report
		err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
			totals, err := s.repo.Gather(ctx, from, to)
			if err != nil {
				return nil, err
			}
			return buildReport(from, to, totals), nil
		})
		return report, err
	})
	if err != nil {
		return Report{}, err
	}
	return value.(Report), nil
}
