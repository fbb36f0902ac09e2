// Package services – EngagementService
//
// EngagementService owns the likes/views ledger. Every mutation goes through
// the store's unique (item, visitor, kind) index instead of a read-then-write
// check, and the cached counters on the item are recomputed from the ledger
// afterwards, never incremented in place.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/observability"
	"github.com/tbourn/metrosite-backend/internal/repo"
)

// LikeVisitor is the ledger identity for likes: the account phone.
func LikeVisitor(phone string) string { return "phone:" + phone }

// ViewVisitor is the ledger identity for views: the account phone when the
// caller is signed in, otherwise the client address.
func ViewVisitor(phone, clientIP string) string {
	if phone != "" {
		return LikeVisitor(phone)
	}
	return "ip:" + clientIP
}

// EngagementService records likes and views.
type EngagementService struct {
	DB *gorm.DB

	// MaxAttempts bounds the insert/delete loop of ToggleLike.
	MaxAttempts int
}

// NewEngagementService returns a service with the default retry bound.
func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{DB: db, MaxAttempts: 5}
}

// ToggleLike flips the like of the verified account owning phone on itemID
// and returns the new state with the recomputed like count.
//
// The insert is attempted first; a conflict means the like exists, so it is
// deleted. A delete that removes nothing lost a race with a concurrent
// toggle and the loop starts over.
func (s *EngagementService) ToggleLike(ctx context.Context, itemID, phone string) (bool, int64, error) {
	tr := otel.Tracer("services/EngagementService")
	ctx, span := tr.Start(ctx, "ToggleLike", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	if _, err := verifiedAccount(ctx, s.DB, phone); err != nil {
		return false, 0, err
	}
	if err := requireItem(ctx, s.DB, "", itemID); err != nil {
		return false, 0, err
	}

	visitor := LikeVisitor(phone)
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}

	var (
		liked   bool
		settled bool
	)
	for i := 0; i < attempts && !settled; i++ {
		inserted, err := repo.InsertEngagement(ctx, s.DB, itemID, visitor, domain.EngagementLike)
		if err != nil {
			observability.EngagementToggles.WithLabelValues("like", "error").Inc()
			return false, 0, err
		}
		if inserted {
			liked, settled = true, true
			break
		}
		n, err := repo.DeleteEngagement(ctx, s.DB, itemID, visitor, domain.EngagementLike)
		if err != nil {
			observability.EngagementToggles.WithLabelValues("like", "error").Inc()
			return false, 0, err
		}
		if n > 0 {
			liked, settled = false, true
		}
		span.AddEvent("toggle retry", trace.WithAttributes(attribute.Int("attempt", i+1)))
	}
	if !settled {
		observability.EngagementToggles.WithLabelValues("like", "error").Inc()
		return false, 0, fmt.Errorf("like toggle on %s did not settle after %d attempts", itemID, attempts)
	}

	count, err := repo.RecountEngagements(ctx, s.DB, itemID, domain.EngagementLike)
	if err != nil {
		return false, 0, err
	}

	result := "unliked"
	if liked {
		result = "liked"
	}
	observability.EngagementToggles.WithLabelValues("like", result).Inc()
	span.SetAttributes(attribute.Bool("liked", liked), attribute.Int64("like_count", count))
	return liked, count, nil
}

// RecordView adds a view by visitor. Repeated views by the same visitor are
// absorbed by the unique index; views are never removed.
func (s *EngagementService) RecordView(ctx context.Context, itemID, visitor string) (int64, error) {
	tr := otel.Tracer("services/EngagementService")
	ctx, span := tr.Start(ctx, "RecordView", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	if visitor == "" {
		return 0, errors.New("visitor identity is required")
	}
	if err := requireItem(ctx, s.DB, "", itemID); err != nil {
		return 0, err
	}

	inserted, err := repo.InsertEngagement(ctx, s.DB, itemID, visitor, domain.EngagementView)
	if err != nil {
		observability.EngagementToggles.WithLabelValues("view", "error").Inc()
		return 0, err
	}
	count, err := repo.RecountEngagements(ctx, s.DB, itemID, domain.EngagementView)
	if err != nil {
		return 0, err
	}

	result := "duplicate"
	if inserted {
		result = "recorded"
	}
	observability.EngagementToggles.WithLabelValues("view", result).Inc()
	return count, nil
}

// LikeStatus returns whether phone has liked itemID and the current like
// count from the ledger. An empty phone is an anonymous caller.
func (s *EngagementService) LikeStatus(ctx context.Context, itemID, phone string) (bool, int64, error) {
	if err := requireItem(ctx, s.DB, "", itemID); err != nil {
		return false, 0, err
	}
	count, err := repo.CountEngagements(ctx, s.DB, itemID, domain.EngagementLike)
	if err != nil {
		return false, 0, err
	}
	if phone == "" {
		return false, count, nil
	}
	liked, err := repo.HasEngagement(ctx, s.DB, itemID, LikeVisitor(phone), domain.EngagementLike)
	return liked, count, err
}

// LikedSet returns the ids among itemIDs liked by phone.
func (s *EngagementService) LikedSet(ctx context.Context, phone string, itemIDs []string) (map[string]bool, error) {
	if phone == "" {
		return map[string]bool{}, nil
	}
	return repo.LikedItemIDs(ctx, s.DB, LikeVisitor(phone), itemIDs)
}
