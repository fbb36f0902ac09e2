// Package domain defines the persistence models for the metro website:
// published content, the engagement ledger, comments, accounts, staff,
// requests and statistics. These types are mapped with GORM and form the
// core data layer of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// ContentKind identifies which public section a content item belongs to.
type ContentKind string

const (
	KindNews             ContentKind = "news"
	KindAnnouncement     ContentKind = "announcement"
	KindCorruptionReport ContentKind = "corruption_report"
)

// Valid reports whether k is one of the known content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindNews, KindAnnouncement, KindCorruptionReport:
		return true
	}
	return false
}

// Language is the locale a content item or vacancy is published in.
type Language string

const (
	LangUz Language = "uz"
	LangRu Language = "ru"
	LangEn Language = "en"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	switch l {
	case LangUz, LangRu, LangEn:
		return true
	}
	return false
}

// ContentItem is a news article, announcement or corruption report.
//
// LikeCount and ViewCount are a read cache of the engagement ledger. They are
// recomputed from the engagements table after every ledger mutation and must
// never be incremented in place.
type ContentItem struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	Kind        ContentKind    `json:"kind"         gorm:"type:varchar(32);not null;index:idx_content_listing,priority:1;check:kind IN ('news','announcement','corruption_report')"`
	Language    Language       `json:"language"     gorm:"type:varchar(8);not null;index:idx_content_listing,priority:2"`
	Title       string         `json:"title"        gorm:"type:varchar(255);not null"`
	Description string         `json:"description"  gorm:"type:text"`
	Body        string         `json:"body"         gorm:"type:text"`
	Category    string         `json:"category"     gorm:"type:varchar(64)"`
	PublishedAt time.Time      `json:"published_at" gorm:"index:idx_content_listing,priority:3"`
	LikeCount   int64          `json:"like_count"   gorm:"not null;default:0"`
	ViewCount   int64          `json:"views_count"  gorm:"not null;default:0"`
	CreatedBy   string         `json:"-"            gorm:"type:char(36)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for ContentItem.
func (ContentItem) TableName() string { return "content_items" }

// EngagementKind distinguishes the two ledger record types.
type EngagementKind string

const (
	EngagementLike EngagementKind = "like"
	EngagementView EngagementKind = "view"
)

// Engagement is one like or one view of one content item by one visitor
// identity. The (item_id, visitor, kind) triple is unique at the store level;
// like rows are hard-deleted on untoggle, view rows are never deleted.
type Engagement struct {
	ID        string         `gorm:"type:char(36);primaryKey"`
	ItemID    string         `gorm:"type:char(36);not null;uniqueIndex:ux_engagement_item_visitor_kind,priority:1"`
	Visitor   string         `gorm:"type:varchar(96);not null;uniqueIndex:ux_engagement_item_visitor_kind,priority:2"`
	Kind      EngagementKind `gorm:"type:varchar(8);not null;uniqueIndex:ux_engagement_item_visitor_kind,priority:3;check:kind IN ('like','view')"`
	CreatedAt time.Time

	Item ContentItem `gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Engagement.
func (Engagement) TableName() string { return "engagements" }

// Comment is a visitor comment on a content item. Only verified accounts may
// post; Author is the account's display name at posting time.
type Comment struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	ItemID    string    `json:"item_id"    gorm:"type:char(36);not null;index:idx_item_comments,priority:1"`
	AccountID string    `json:"-"          gorm:"type:char(36);not null;index"`
	Author    string    `json:"author"     gorm:"type:varchar(128);not null"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_item_comments,priority:2"`

	Item ContentItem `json:"-" gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }
