// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for ContentItem.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When an item is not found, functions return ErrNotFound.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

// ContentFilter narrows content listings. Zero values mean "any".
type ContentFilter struct {
	Kind     domain.ContentKind
	Language domain.Language
	Category string
}

func (f ContentFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Language != "" {
		q = q.Where("language = ?", f.Language)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	return q
}

// CreateContent inserts item, assigning an ID and timestamps when missing.
func CreateContent(ctx context.Context, db *gorm.DB, item *domain.ContentItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.PublishedAt.IsZero() {
		item.PublishedAt = now
	}
	item.CreatedAt = now
	item.LikeCount, item.ViewCount = 0, 0
	return db.WithContext(ctx).Create(item).Error
}

// GetContent fetches a single item by id. A non-empty kind additionally
// scopes the lookup so that a news id is not served under announcements.
func GetContent(ctx context.Context, db *gorm.DB, kind domain.ContentKind, id string) (*domain.ContentItem, error) {
	var it domain.ContentItem
	q := db.WithContext(ctx).Where("id = ?", id)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// ContentExists reports whether a live (not soft-deleted) item exists. An
// empty kind matches any section.
func ContentExists(ctx context.Context, db *gorm.DB, kind domain.ContentKind, id string) (bool, error) {
	var n int64
	q := db.WithContext(ctx).Model(&domain.ContentItem{}).Where("id = ?", id)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// CountContent returns the number of items matching f.
func CountContent(ctx context.Context, db *gorm.DB, f ContentFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.ContentItem{})).Count(&total).Error
	return total, err
}

// ListContentPage returns a page of items matching f, newest publication
// first. The caller computes offset and limit.
func ListContentPage(ctx context.Context, db *gorm.DB, f ContentFilter, offset, limit int) ([]domain.ContentItem, error) {
	var out []domain.ContentItem
	err := f.apply(db.WithContext(ctx)).
		Order("published_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateContent applies the editable fields of item to the stored row.
// Engagement counters are never touched here.
func UpdateContent(ctx context.Context, db *gorm.DB, kind domain.ContentKind, id string, fields map[string]any) error {
	delete(fields, "like_count")
	delete(fields, "view_count")
	res := db.WithContext(ctx).
		Model(&domain.ContentItem{}).
		Where("id = ? AND kind = ?", id, kind).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContent soft-deletes an item.
func DeleteContent(ctx context.Context, db *gorm.DB, kind domain.ContentKind, id string) error {
	res := db.WithContext(ctx).Where("id = ? AND kind = ?", id, kind).Delete(&domain.ContentItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecountEngagements rewrites the cached counter column for kind on item id
// from the ledger in one statement and returns the stored value. Concurrent
// callers cannot leave a stale count behind: whichever UPDATE runs last
// counts every committed ledger row. UpdateColumn keeps updated_at untouched.
func RecountEngagements(ctx context.Context, db *gorm.DB, id string, kind domain.EngagementKind) (int64, error) {
	col := "like_count"
	if kind == domain.EngagementView {
		col = "view_count"
	}
	err := db.WithContext(ctx).
		Model(&domain.ContentItem{}).
		Where("id = ?", id).
		UpdateColumn(col, gorm.Expr(
			"(SELECT COUNT(*) FROM engagements WHERE item_id = ? AND kind = ?)", id, kind,
		)).Error
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.WithContext(ctx).
		Model(&domain.ContentItem{}).
		Unscoped().
		Where("id = ?", id).
		Select(col).
		Scan(&n).Error
	return n, err
}
