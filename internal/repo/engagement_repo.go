package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

// InsertEngagement attempts a single-statement insert of (item, visitor,
// kind). It reports inserted=false when the unique index already holds the
// row; the conflict is resolved by the store (ON CONFLICT DO NOTHING), so no
// read-then-write race exists between concurrent callers.
func InsertEngagement(ctx context.Context, db *gorm.DB, itemID, visitor string, kind domain.EngagementKind) (bool, error) {
	e := &domain.Engagement{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		Visitor:   visitor,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	res := db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "visitor"}, {Name: "kind"}},
			DoNothing: true,
		}).
		Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteEngagement hard-deletes the (item, visitor, kind) row and returns the
// number of rows removed (0 when a concurrent caller got there first).
func DeleteEngagement(ctx context.Context, db *gorm.DB, itemID, visitor string, kind domain.EngagementKind) (int64, error) {
	res := db.WithContext(ctx).
		Where("item_id = ? AND visitor = ? AND kind = ?", itemID, visitor, kind).
		Delete(&domain.Engagement{})
	return res.RowsAffected, res.Error
}

// CountEngagements is the authoritative count of kind records for an item.
func CountEngagements(ctx context.Context, db *gorm.DB, itemID string, kind domain.EngagementKind) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Engagement{}).
		Where("item_id = ? AND kind = ?", itemID, kind).
		Count(&n).Error
	return n, err
}

// HasEngagement reports whether visitor holds a kind record for the item.
func HasEngagement(ctx context.Context, db *gorm.DB, itemID, visitor string, kind domain.EngagementKind) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Engagement{}).
		Where("item_id = ? AND visitor = ? AND kind = ?", itemID, visitor, kind).
		Count(&n).Error
	return n > 0, err
}

// LikedItemIDs returns the subset of itemIDs that visitor has liked. It lets
// list endpoints fill a per-item "liked" flag with one query.
func LikedItemIDs(ctx context.Context, db *gorm.DB, visitor string, itemIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(itemIDs))
	if visitor == "" || len(itemIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Engagement{}).
		Where("visitor = ? AND kind = ? AND item_id IN ?", visitor, domain.EngagementLike, itemIDs).
		Pluck("item_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
