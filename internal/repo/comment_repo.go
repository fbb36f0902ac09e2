package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

// CreateComment inserts a comment on itemID authored by account.
func CreateComment(ctx context.Context, db *gorm.DB, itemID string, account *domain.Account, content string) (*domain.Comment, error) {
	c := &domain.Comment{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		AccountID: account.ID,
		Author:    account.DisplayName(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// CountComments returns the number of comments on an item.
func CountComments(ctx context.Context, db *gorm.DB, itemID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Comment{}).Where("item_id = ?", itemID).Count(&total).Error
	return total, err
}

// ListCommentsPage returns comments on an item, newest first.
func ListCommentsPage(ctx context.Context, db *gorm.DB, itemID string, offset, limit int) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
