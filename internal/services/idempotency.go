package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/repo"
)

// Idempotency remembers which resource a keyed submission produced so a
// retried submission returns it instead of creating another one.
type Idempotency struct {
	DB  *gorm.DB
	TTL time.Duration
}

// LostItemScope is the idempotency scope of lost-item submissions.
const LostItemScope = "lost_items"

// ApplicationScope is the idempotency scope of applications to vacancyID.
func ApplicationScope(vacancyID string) string { return "applications:" + vacancyID }

// Seen reports whether subject already completed a keyed submission in scope
// and the record is still live at now.
func (i *Idempotency) Seen(ctx context.Context, subject, scope, key string, now time.Time) (bool, error) {
	if i == nil || key == "" || subject == "" {
		return false, nil
	}
	_, err := repo.GetIdempotency(ctx, i.DB, subject, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// lookup returns the resource id recorded for (subject, scope, key). An empty
// key never matches.
func (i *Idempotency) lookup(ctx context.Context, subject, scope, key string) (string, bool, error) {
	if i == nil || key == "" {
		return "", false, nil
	}
	rec, err := repo.GetIdempotency(ctx, i.DB, subject, scope, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.ResourceID, true, nil
}

// remember records resourceID for the key. Failure is logged, not returned:
// the resource already exists and the caller must see it.
func (i *Idempotency) remember(ctx context.Context, subject, scope, key, resourceID string) {
	if i == nil || key == "" {
		return
	}
	ttl := i.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if _, err := repo.CreateIdempotency(ctx, i.DB, subject, scope, key, resourceID, http.StatusCreated, ttl); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("scope", scope).Msg("idempotency record not stored")
	}
}
