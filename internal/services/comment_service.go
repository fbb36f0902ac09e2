// Package services – CommentService
//
// Verified accounts comment on content items; anyone can read. The author
// name is copied from the account at posting time.
package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/repo"
	"github.com/tbourn/metrosite-backend/internal/utils"
)

// MaxCommentRunes is the longest accepted comment.
const MaxCommentRunes = 2000

// CommentService posts and lists comments.
type CommentService struct {
	DB *gorm.DB
}

// NewCommentService returns a CommentService.
func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{DB: db}
}

// Post adds a comment on itemID by the verified account owning phone.
func (s *CommentService) Post(ctx context.Context, itemID, phone, content string) (*domain.Comment, error) {
	acc, err := verifiedAccount(ctx, s.DB, phone)
	if err != nil {
		return nil, err
	}
	content = normalizeText(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	if utf8.RuneCountInString(content) > MaxCommentRunes {
		return nil, ErrCommentTooLong
	}
	if err := requireItem(ctx, s.DB, "", itemID); err != nil {
		return nil, err
	}
	return repo.CreateComment(ctx, s.DB, itemID, acc, content)
}

// List returns a page of comments on itemID, newest first.
func (s *CommentService) List(ctx context.Context, itemID string, page, pageSize int) ([]domain.Comment, int64, error) {
	if err := requireItem(ctx, s.DB, "", itemID); err != nil {
		return nil, 0, err
	}
	page, pageSize, offset := utils.PageWindow(page, pageSize)

	total, err := repo.CountComments(ctx, s.DB, itemID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Comment{}, 0, nil
	}
	items, err := repo.ListCommentsPage(ctx, s.DB, itemID, offset, pageSize)
	if errors.Is(err, repo.ErrNotFound) {
		return []domain.Comment{}, total, nil
	}
	return items, total, err
}
