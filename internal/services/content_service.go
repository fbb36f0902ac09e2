// Package services – ContentService
//
// ContentService publishes news, announcements and corruption reports. It
// normalizes titles and categories, pages listings newest first and
// annotates items with whether the requesting account has liked them.
// Engagement counters are owned by EngagementService and never written here.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/repo"
	"github.com/tbourn/metrosite-backend/internal/utils"
)

// ContentInput carries the editable fields of a content item.
type ContentInput struct {
	Language    domain.Language
	Title       string
	Description string
	Body        string
	Category    string
	PublishedAt time.Time
}

// ContentPatch is a partial update. Nil fields are left unchanged.
type ContentPatch struct {
	Language    *domain.Language
	Title       *string
	Description *string
	Body        *string
	Category    *string
	PublishedAt *time.Time
}

// ContentListing is one page of items plus the liked set for the caller.
type ContentListing struct {
	Items []domain.ContentItem
	Total int64
	Liked map[string]bool
}

// ContentService provides editor CRUD and public reads of content items.
type ContentService struct {
	DB          *gorm.DB
	Engagements *EngagementService

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// CategoryMaxLen caps stored categories by rune length.
	CategoryMaxLen int
}

// NewContentService returns a service with the column limits of the schema.
func NewContentService(db *gorm.DB, engagements *EngagementService) *ContentService {
	return &ContentService{DB: db, Engagements: engagements, TitleMaxLen: 255, CategoryMaxLen: 64}
}

// Create publishes a new item of kind authored by staff member createdBy.
func (s *ContentService) Create(ctx context.Context, kind domain.ContentKind, in ContentInput, createdBy string) (*domain.ContentItem, error) {
	if !kind.Valid() || !in.Language.Valid() {
		return nil, ErrInvalidContent
	}
	title := clip(normalizeTitle(in.Title), s.TitleMaxLen)
	if title == "" {
		return nil, ErrInvalidContent
	}
	item := &domain.ContentItem{
		Kind:        kind,
		Language:    in.Language,
		Title:       title,
		Description: normalizeText(in.Description),
		Body:        normalizeText(in.Body),
		Category:    clip(normalizeTitle(in.Category), s.CategoryMaxLen),
		PublishedAt: in.PublishedAt.UTC(),
		CreatedBy:   createdBy,
	}
	if err := repo.CreateContent(ctx, s.DB, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Get returns one item and whether phone has liked it. An empty phone is an
// anonymous reader.
func (s *ContentService) Get(ctx context.Context, kind domain.ContentKind, id, phone string) (*domain.ContentItem, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false, ErrItemNotFound
	}
	item, err := repo.GetContent(ctx, s.DB, kind, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, ErrItemNotFound
	}
	if err != nil {
		return nil, false, err
	}
	liked, err := s.Engagements.LikedSet(ctx, phone, []string{id})
	if err != nil {
		return nil, false, err
	}
	return item, liked[id], nil
}

// InSection fails with ErrItemNotFound unless id is a live item of kind.
func (s *ContentService) InSection(ctx context.Context, kind domain.ContentKind, id string) error {
	return requireItem(ctx, s.DB, kind, id)
}

// ListPage returns a page of items matching f, newest publication first.
// Invalid page or pageSize fall back to 1 and 20.
func (s *ContentService) ListPage(ctx context.Context, f repo.ContentFilter, page, pageSize int, phone string) (*ContentListing, error) {
	page, pageSize, offset := utils.PageWindow(page, pageSize)

	total, err := repo.CountContent(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &ContentListing{Items: []domain.ContentItem{}, Liked: map[string]bool{}}, nil
	}

	items, err := repo.ListContentPage(ctx, s.DB, f, offset, pageSize)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	liked, err := s.Engagements.LikedSet(ctx, phone, ids)
	if err != nil {
		return nil, err
	}
	return &ContentListing{Items: items, Total: total, Liked: liked}, nil
}

// Stats returns listing metadata for conditional responses.
func (s *ContentService) Stats(ctx context.Context, f repo.ContentFilter) (count, engagement int64, maxUpdatedAt *time.Time, err error) {
	return repo.ContentStats(ctx, s.DB, f)
}

// Update applies p to the item and returns the stored row.
func (s *ContentService) Update(ctx context.Context, kind domain.ContentKind, id string, p ContentPatch) (*domain.ContentItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrItemNotFound
	}
	fields := map[string]any{}
	if p.Language != nil {
		if !p.Language.Valid() {
			return nil, ErrInvalidContent
		}
		fields["language"] = *p.Language
	}
	if p.Title != nil {
		t := clip(normalizeTitle(*p.Title), s.TitleMaxLen)
		if t == "" {
			return nil, ErrInvalidContent
		}
		fields["title"] = t
	}
	if p.Description != nil {
		fields["description"] = normalizeText(*p.Description)
	}
	if p.Body != nil {
		fields["body"] = normalizeText(*p.Body)
	}
	if p.Category != nil {
		fields["category"] = clip(normalizeTitle(*p.Category), s.CategoryMaxLen)
	}
	if p.PublishedAt != nil {
		fields["published_at"] = p.PublishedAt.UTC()
	}

	if len(fields) > 0 {
		fields["updated_at"] = time.Now().UTC()
		err := repo.UpdateContent(ctx, s.DB, kind, id, fields)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		if err != nil {
			return nil, err
		}
	}
	item, err := repo.GetContent(ctx, s.DB, kind, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	return item, err
}

// Delete soft-deletes the item. Its ledger rows stay until a hard delete.
func (s *ContentService) Delete(ctx context.Context, kind domain.ContentKind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrItemNotFound
	}
	err := repo.DeleteContent(ctx, s.DB, kind, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrItemNotFound
	}
	return err
}
