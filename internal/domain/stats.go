package domain

import "time"

// StationStat is the monthly passenger count of a metro station.
type StationStat struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Station    string    `json:"station"    gorm:"type:varchar(128);not null;uniqueIndex:ux_station_period,priority:1"`
	Year       int       `json:"year"       gorm:"not null;uniqueIndex:ux_station_period,priority:2"`
	Month      int       `json:"month"      gorm:"not null;uniqueIndex:ux_station_period,priority:3;check:month BETWEEN 1 AND 12"`
	Passengers int64     `json:"user_count" gorm:"not null;default:0"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for StationStat.
func (StationStat) TableName() string { return "station_stats" }

// SiteVisitor is one browser session seen by the website. The number of rows
// is the site's distinct visitor counter.
type SiteVisitor struct {
	SessionID   string    `gorm:"type:varchar(64);primaryKey"`
	FirstSeenAt time.Time `gorm:"not null"`
	LastSeenAt  time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for SiteVisitor.
func (SiteVisitor) TableName() string { return "site_visitors" }
