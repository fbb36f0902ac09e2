package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

// CreateLostItem inserts a lost-item request. The caller fills every field.
func CreateLostItem(ctx context.Context, db *gorm.DB, r *domain.LostItemRequest) error {
	return db.WithContext(ctx).Create(r).Error
}

// GetLostItem loads a request by id, or ErrNotFound.
func GetLostItem(ctx context.Context, db *gorm.DB, id string) (*domain.LostItemRequest, error) {
	var r domain.LostItemRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// LatestLostItem returns the account's most recent request, or ErrNotFound.
func LatestLostItem(ctx context.Context, db *gorm.DB, accountID string) (*domain.LostItemRequest, error) {
	var r domain.LostItemRequest
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at desc").
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListLostItemsByAccount returns every request submitted by an account.
func ListLostItemsByAccount(ctx context.Context, db *gorm.DB, accountID string) ([]domain.LostItemRequest, error) {
	var out []domain.LostItemRequest
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// LostItemFilter narrows the support listing.
type LostItemFilter struct {
	NameLike string
	Status   domain.RequestStatus
}

func (f LostItemFilter) apply(q *gorm.DB) *gorm.DB {
	if f.NameLike != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+f.NameLike+"%")
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// CountLostItems returns the number of requests matching f.
func CountLostItems(ctx context.Context, db *gorm.DB, f LostItemFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.LostItemRequest{})).Count(&total).Error
	return total, err
}

// ListLostItemsPage returns a page of requests matching f, newest first.
func ListLostItemsPage(ctx context.Context, db *gorm.DB, f LostItemFilter, offset, limit int) ([]domain.LostItemRequest, error) {
	var out []domain.LostItemRequest
	err := f.apply(db.WithContext(ctx)).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SetLostItemStatus moves a request to status and stamps AnsweredAt when it
// leaves the pending state.
func SetLostItemStatus(ctx context.Context, db *gorm.DB, id string, status domain.RequestStatus) error {
	fields := map[string]any{"status": status, "answered_at": nil}
	if status != domain.StatusPending {
		fields["answered_at"] = time.Now().UTC()
	}
	res := db.WithContext(ctx).Model(&domain.LostItemRequest{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
