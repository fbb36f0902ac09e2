package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, phone, first, last string) *domain.Account {
	t.Helper()
	acc, err := repo.UpsertVerifiedAccount(context.Background(), db, phone, first, last)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acc
}

func seedContent(t *testing.T, db *gorm.DB, kind domain.ContentKind) *domain.ContentItem {
	t.Helper()
	it := &domain.ContentItem{Kind: kind, Language: domain.LangUz, Title: "Yangi bekat ochildi"}
	if err := repo.CreateContent(context.Background(), db, it); err != nil {
		t.Fatalf("seed content: %v", err)
	}
	return it
}

func storedCounts(t *testing.T, db *gorm.DB, id string) (likes, views int64) {
	t.Helper()
	var it domain.ContentItem
	if err := db.Unscoped().First(&it, "id = ?", id).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	return it.LikeCount, it.ViewCount
}

const phoneA = "+998901234567"

// ---------- ToggleLike ----------

func TestToggleLike_LikeThenUnlike(t *testing.T) {
	db := newSvcDB(t)
	seedAccount(t, db, phoneA, "Aziz", "Aliyev")
	it := seedContent(t, db, domain.KindNews)
	s := NewEngagementService(db)
	ctx := context.Background()

	liked, n, err := s.ToggleLike(ctx, it.ID, phoneA)
	if err != nil || !liked || n != 1 {
		t.Fatalf("first toggle = (%v, %d, %v), want (true, 1, nil)", liked, n, err)
	}
	if l, _ := storedCounts(t, db, it.ID); l != 1 {
		t.Fatalf("stored like_count = %d, want 1", l)
	}

	liked, n, err = s.ToggleLike(ctx, it.ID, phoneA)
	if err != nil || liked || n != 0 {
		t.Fatalf("second toggle = (%v, %d, %v), want (false, 0, nil)", liked, n, err)
	}
	if l, _ := storedCounts(t, db, it.ID); l != 0 {
		t.Fatalf("stored like_count = %d, want 0", l)
	}
}

func TestToggleLike_Unauthorized(t *testing.T) {
	db := newSvcDB(t)
	it := seedContent(t, db, domain.KindNews)
	s := NewEngagementService(db)

	// Unverified row: exists but may not like.
	if err := db.Create(&domain.Account{ID: uuid.NewString(), Phone: "+998907654321", FirstName: "X"}).Error; err != nil {
		t.Fatalf("seed unverified: %v", err)
	}

	for _, phone := range []string{"", "+998900000000", "+998907654321"} {
		_, _, err := s.ToggleLike(context.Background(), it.ID, phone)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("phone %q: want ErrUnauthorized, got %v", phone, err)
		}
	}
	if l, _ := storedCounts(t, db, it.ID); l != 0 {
		t.Fatalf("like_count changed on rejected toggle: %d", l)
	}
}

func TestToggleLike_ItemNotFound(t *testing.T) {
	db := newSvcDB(t)
	seedAccount(t, db, phoneA, "Aziz", "")
	s := NewEngagementService(db)

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		if _, _, err := s.ToggleLike(context.Background(), id, phoneA); !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("id %q: want ErrItemNotFound, got %v", id, err)
		}
	}

	it := seedContent(t, db, domain.KindNews)
	if err := repo.DeleteContent(context.Background(), db, domain.KindNews, it.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := s.ToggleLike(context.Background(), it.ID, phoneA); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("deleted item: want ErrItemNotFound, got %v", err)
	}
}

// Concurrent togglers on a file-backed database: every distinct phone ends
// up liking once and the cached counter matches the ledger.
func TestToggleLike_ConcurrentDistinctVisitors(t *testing.T) {
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	it := seedContent(t, db, domain.KindAnnouncement)

	const n = 12
	phones := make([]string, n)
	for i := range phones {
		phones[i] = fmt.Sprintf("+9989012345%02d", i)
		seedAccount(t, db, phones[i], "V", "")
	}

	s := NewEngagementService(db)
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, p := range phones {
		wg.Add(1)
		go func(phone string) {
			defer wg.Done()
			if _, _, err := s.ToggleLike(context.Background(), it.ID, phone); err != nil {
				errs <- err
			}
		}(p)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("toggle: %v", err)
	}

	ledger, err := repo.CountEngagements(context.Background(), db, it.ID, domain.EngagementLike)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if ledger != n {
		t.Fatalf("ledger likes = %d, want %d", ledger, n)
	}
	if l, _ := storedCounts(t, db, it.ID); l != ledger {
		t.Fatalf("cached like_count = %d, ledger = %d", l, ledger)
	}
}

// The same visitor toggling an even number of times concurrently never
// surfaces a conflict and leaves counter and ledger in agreement.
func TestToggleLike_ConcurrentSameVisitor(t *testing.T) {
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	it := seedContent(t, db, domain.KindNews)
	seedAccount(t, db, phoneA, "Aziz", "Aliyev")
	s := NewEngagementService(db)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := s.ToggleLike(context.Background(), it.ID, phoneA); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("toggle: %v", err)
	}

	ledger, _ := repo.CountEngagements(context.Background(), db, it.ID, domain.EngagementLike)
	if ledger > 1 {
		t.Fatalf("ledger has %d likes for one visitor", ledger)
	}
	if l, _ := storedCounts(t, db, it.ID); l != ledger {
		t.Fatalf("cached like_count = %d, ledger = %d", l, ledger)
	}
}

func TestToggleLike_DoesNotSettle(t *testing.T) {
	db := newSvcDB(t)
	seedAccount(t, db, phoneA, "Aziz", "")
	it := seedContent(t, db, domain.KindNews)
	s := &EngagementService{DB: db, MaxAttempts: 3}

	// A trigger that swallows deletes makes every attempt lose the race.
	if err := db.Exec(`CREATE TRIGGER keep_likes BEFORE DELETE ON engagements BEGIN SELECT RAISE(IGNORE); END`).Error; err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if _, _, err := s.ToggleLike(context.Background(), it.ID, phoneA); err != nil {
		t.Fatalf("first like: %v", err)
	}
	_, _, err := s.ToggleLike(context.Background(), it.ID, phoneA)
	if err == nil {
		t.Fatalf("expected error when toggle never settles")
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrItemNotFound) {
		t.Fatalf("unexpected domain error: %v", err)
	}
}

// ---------- RecordView / LikeStatus ----------

func TestRecordView_Idempotent(t *testing.T) {
	db := newSvcDB(t)
	it := seedContent(t, db, domain.KindCorruptionReport)
	s := NewEngagementService(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n, err := s.RecordView(ctx, it.ID, ViewVisitor("", "10.0.0.1"))
		if err != nil || n != 1 {
			t.Fatalf("view %d = (%d, %v), want (1, nil)", i, n, err)
		}
	}
	n, err := s.RecordView(ctx, it.ID, ViewVisitor(phoneA, "10.0.0.1"))
	if err != nil || n != 2 {
		t.Fatalf("account view = (%d, %v), want (2, nil)", n, err)
	}
	if _, v := storedCounts(t, db, it.ID); v != 2 {
		t.Fatalf("stored view_count = %d, want 2", v)
	}

	if _, err := s.RecordView(ctx, uuid.NewString(), "ip:1.1.1.1"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("unknown item: want ErrItemNotFound, got %v", err)
	}
	if _, err := s.RecordView(ctx, it.ID, ""); err == nil {
		t.Fatalf("empty visitor must fail")
	}
}

func TestLikeStatus(t *testing.T) {
	db := newSvcDB(t)
	seedAccount(t, db, phoneA, "Aziz", "")
	it := seedContent(t, db, domain.KindNews)
	s := NewEngagementService(db)
	ctx := context.Background()

	if _, _, err := s.ToggleLike(ctx, it.ID, phoneA); err != nil {
		t.Fatalf("like: %v", err)
	}
	liked, n, err := s.LikeStatus(ctx, it.ID, phoneA)
	if err != nil || !liked || n != 1 {
		t.Fatalf("LikeStatus(owner) = (%v, %d, %v)", liked, n, err)
	}
	liked, n, err = s.LikeStatus(ctx, it.ID, "")
	if err != nil || liked || n != 1 {
		t.Fatalf("LikeStatus(anon) = (%v, %d, %v)", liked, n, err)
	}
}

func TestVisitorIdentities(t *testing.T) {
	if LikeVisitor(phoneA) != "phone:"+phoneA {
		t.Fatalf("LikeVisitor = %q", LikeVisitor(phoneA))
	}
	if ViewVisitor("", "192.0.2.1") != "ip:192.0.2.1" {
		t.Fatalf("anonymous ViewVisitor = %q", ViewVisitor("", "192.0.2.1"))
	}
	if ViewVisitor(phoneA, "192.0.2.1") != LikeVisitor(phoneA) {
		t.Fatalf("account views must share the like identity")
	}
}
