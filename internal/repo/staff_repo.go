package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

// CreateStaff inserts a staff user. A taken username yields ErrDuplicate.
func CreateStaff(ctx context.Context, db *gorm.DB, username, passwordHash string, role domain.Role) (*domain.StaffUser, error) {
	now := time.Now().UTC()
	u := &domain.StaffUser{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetStaffByUsername loads a staff user by username, or ErrNotFound.
func GetStaffByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.StaffUser, error) {
	var u domain.StaffUser
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetStaff loads a staff user by id, or ErrNotFound.
func GetStaff(ctx context.Context, db *gorm.DB, id string) (*domain.StaffUser, error) {
	var u domain.StaffUser
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
