package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/repo"
)

// verifiedAccount loads the account owning phone. Anonymous callers, unknown
// phones and unverified accounts all get ErrUnauthorized.
func verifiedAccount(ctx context.Context, db *gorm.DB, phone string) (*domain.Account, error) {
	if phone == "" {
		return nil, ErrUnauthorized
	}
	acc, err := repo.GetAccountByPhone(ctx, db, phone)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !acc.Verified {
		return nil, ErrUnauthorized
	}
	return acc, nil
}

// requireItem fails with ErrItemNotFound unless itemID names a live item of
// kind. An empty kind accepts any section.
func requireItem(ctx context.Context, db *gorm.DB, kind domain.ContentKind, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return ErrItemNotFound
	}
	ok, err := repo.ContentExists(ctx, db, kind, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	return nil
}
