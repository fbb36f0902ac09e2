// Package services – LostItemService
//
// Verified accounts report items lost on the metro. An account whose latest
// report is still pending may not file another one until five business days
// after that report. Support staff page through reports and answer them.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/repo"
	"github.com/tbourn/metrosite-backend/internal/utils"
)

// PendingWindowDays is the business-day wait after a pending report.
const PendingWindowDays = 5

// LostItemInput is what the visitor fills in. Name and phone come from the
// account.
type LostItemInput struct {
	Email    string
	Address  string
	Passport string
	Message  string
}

// LostItemService files and reviews lost-item reports.
type LostItemService struct {
	DB          *gorm.DB
	Idempotency *Idempotency

	Now func() time.Time
}

// NewLostItemService returns a LostItemService.
func NewLostItemService(db *gorm.DB, idem *Idempotency) *LostItemService {
	return &LostItemService{DB: db, Idempotency: idem, Now: time.Now}
}

// Submit files a report for the verified account owning phone. A non-empty
// idemKey already used by this account returns the earlier report and
// replayed=true.
func (s *LostItemService) Submit(ctx context.Context, phone string, in LostItemInput, idemKey string) (*domain.LostItemRequest, bool, error) {
	acc, err := verifiedAccount(ctx, s.DB, phone)
	if err != nil {
		return nil, false, err
	}

	if id, ok, err := s.Idempotency.lookup(ctx, acc.ID, LostItemScope, idemKey); err != nil {
		return nil, false, err
	} else if ok {
		r, err := repo.GetLostItem(ctx, s.DB, id)
		if err == nil {
			return r, true, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, false, err
		}
	}

	in.Passport = strings.ToUpper(strings.TrimSpace(in.Passport))
	in.Message = normalizeText(in.Message)
	if in.Message == "" {
		return nil, false, ErrInvalidRequest
	}
	if in.Passport != "" && utf8.RuneCountInString(in.Passport) != 9 {
		return nil, false, ErrInvalidRequest
	}

	now := s.now()
	last, err := repo.LatestLostItem(ctx, s.DB, acc.ID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
	case err != nil:
		return nil, false, err
	case last.Status == domain.StatusPending:
		until := utils.AddBusinessDays(last.CreatedAt, PendingWindowDays)
		if now.Before(until) {
			return nil, false, &PendingRequestError{Until: until}
		}
	}

	r := &domain.LostItemRequest{
		ID:        uuid.NewString(),
		AccountID: acc.ID,
		Name:      acc.DisplayName(),
		Phone:     acc.Phone,
		Email:     strings.TrimSpace(in.Email),
		Address:   normalizeTitle(in.Address),
		Passport:  in.Passport,
		Message:   in.Message,
		Status:    domain.StatusPending,
		CreatedAt: now,
	}
	if err := repo.CreateLostItem(ctx, s.DB, r); err != nil {
		return nil, false, err
	}
	s.Idempotency.remember(ctx, acc.ID, LostItemScope, idemKey, r.ID)
	return r, false, nil
}

// ListMine returns the reports of the verified account owning phone.
func (s *LostItemService) ListMine(ctx context.Context, phone string) ([]domain.LostItemRequest, error) {
	acc, err := verifiedAccount(ctx, s.DB, phone)
	if err != nil {
		return nil, err
	}
	return repo.ListLostItemsByAccount(ctx, s.DB, acc.ID)
}

// ListPage returns reports for support staff. q matches reporter names
// case-insensitively.
func (s *LostItemService) ListPage(ctx context.Context, q string, status domain.RequestStatus, page, pageSize int) ([]domain.LostItemRequest, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidRequest
	}
	page, pageSize, offset := utils.PageWindow(page, pageSize)
	f := repo.LostItemFilter{NameLike: strings.ToLower(normalizeTitle(q)), Status: status}

	total, err := repo.CountLostItems(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.LostItemRequest{}, 0, nil
	}
	items, err := repo.ListLostItemsPage(ctx, s.DB, f, offset, pageSize)
	return items, total, err
}

// SetStatus moves a report to status.
func (s *LostItemService) SetStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.LostItemRequest, error) {
	if !status.Valid() {
		return nil, ErrInvalidRequest
	}
	err := repo.SetLostItemStatus(ctx, s.DB, id, status)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return repo.GetLostItem(ctx, s.DB, id)
}

func (s *LostItemService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
