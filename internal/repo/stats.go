// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate queries used for conditional
// responses (ETag generation) and the statistics tables.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

// ContentStats returns aggregate metadata for a content listing: the row
// count, the sum of cached engagement counters, and the greatest UpdatedAt.
// Engagement updates do not bump updated_at, so the counter sum is what makes
// the ETag change when likes or views move.
//
// When no rows match, count is 0 and maxUpdatedAt is nil.
func ContentStats(ctx context.Context, db *gorm.DB, f ContentFilter) (count, engagement int64, maxUpdatedAt *time.Time, err error) {
	q := f.apply(db.WithContext(ctx).Model(&domain.ContentItem{}))

	var agg struct {
		N   int64
		Sum int64
	}
	if err = q.Select("COUNT(*) AS n, COALESCE(SUM(like_count + view_count), 0) AS sum").Scan(&agg).Error; err != nil {
		return 0, 0, nil, err
	}
	if agg.N == 0 {
		return 0, 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	q = f.apply(db.WithContext(ctx).Model(&domain.ContentItem{}))
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return agg.N, agg.Sum, &row.UpdatedAt, nil
}

// UpsertStationStat inserts or replaces the passenger count for a station
// and month. On return s holds the stored row: when the period already
// existed its original ID is kept, not the one generated for the insert.
func UpsertStationStat(ctx context.Context, db *gorm.DB, s *domain.StationStat) error {
	s.ID = uuid.NewString()
	s.UpdatedAt = time.Now().UTC()
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "station"}, {Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"passengers", "updated_at"}),
		}).
		Create(s).Error
	if err != nil {
		return err
	}
	station, year, month := s.Station, s.Year, s.Month
	*s = domain.StationStat{}
	return db.WithContext(ctx).
		Where("station = ? AND year = ? AND month = ?", station, year, month).
		Take(s).Error
}

// ListStationStats returns station statistics, optionally for one year,
// ordered by period then station.
func ListStationStats(ctx context.Context, db *gorm.DB, year int) ([]domain.StationStat, error) {
	var out []domain.StationStat
	q := db.WithContext(ctx)
	if year > 0 {
		q = q.Where("year = ?", year)
	}
	err := q.Order("year desc, month desc, station asc").Find(&out).Error
	return out, err
}

// TouchSiteVisitor records activity for a browser session in one statement:
// the first call inserts the row, later calls only move last_seen_at.
func TouchSiteVisitor(ctx context.Context, db *gorm.DB, sessionID string, now time.Time) error {
	v := &domain.SiteVisitor{SessionID: sessionID, FirstSeenAt: now, LastSeenAt: now}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen_at"}),
		}).
		Create(v).Error
}

// CountSiteVisitors returns the number of distinct sessions ever seen.
func CountSiteVisitors(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.SiteVisitor{}).Count(&n).Error
	return n, err
}
