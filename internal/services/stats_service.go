package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/repo"
)

// StatsService keeps station passenger counts and the site visitor counter.
type StatsService struct {
	DB *gorm.DB
}

// NewStatsService returns a StatsService.
func NewStatsService(db *gorm.DB) *StatsService { return &StatsService{DB: db} }

// UpsertStation sets the passenger count of a station for one month.
func (s *StatsService) UpsertStation(ctx context.Context, station string, year, month int, passengers int64) (*domain.StationStat, error) {
	station = clip(normalizeTitle(station), 128)
	if station == "" || year < 1900 || month < 1 || month > 12 || passengers < 0 {
		return nil, ErrInvalidRequest
	}
	st := &domain.StationStat{Station: station, Year: year, Month: month, Passengers: passengers}
	if err := repo.UpsertStationStat(ctx, s.DB, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Stations lists station statistics; year 0 means every year.
func (s *StatsService) Stations(ctx context.Context, year int) ([]domain.StationStat, error) {
	return repo.ListStationStats(ctx, s.DB, year)
}

// TouchVisitor records activity of a browser session.
func (s *StatsService) TouchVisitor(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return repo.TouchSiteVisitor(ctx, s.DB, sessionID, time.Now().UTC())
}

// Visitors returns the number of distinct sessions seen.
func (s *StatsService) Visitors(ctx context.Context) (int64, error) {
	return repo.CountSiteVisitors(ctx, s.DB)
}
