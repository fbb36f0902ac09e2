package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

// GetAccountByPhone loads an account by its phone number, or ErrNotFound.
func GetAccountByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("phone = ?", phone).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccount loads an account by id, or ErrNotFound.
func GetAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertVerifiedAccount creates the account for phone or, when one already
// exists, overwrites its names and promotes it to verified. The statement is
// a single INSERT .. ON CONFLICT(phone) so concurrent registrations converge
// on one row. The stored row is returned.
func UpsertVerifiedAccount(ctx context.Context, db *gorm.DB, phone, firstName, lastName string) (*domain.Account, error) {
	now := time.Now().UTC()
	a := &domain.Account{
		ID:        uuid.NewString(),
		Phone:     phone,
		FirstName: firstName,
		LastName:  lastName,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "verified", "updated_at"}),
		}).
		Create(a).Error
	if err != nil {
		return nil, err
	}
	// The generated ID is discarded on conflict; reload the canonical row.
	return GetAccountByPhone(ctx, db, phone)
}
