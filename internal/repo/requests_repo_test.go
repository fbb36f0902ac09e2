package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

func TestVacancyApplications_PendingUniqueAndCounts(t *testing.T) {
	ctx := context.Background()
	db := newMigratedDB(t)

	v := &domain.JobVacancy{ID: uuid.NewString(), Language: domain.LangUz, Title: "Mashinist"}
	if err := CreateVacancy(ctx, db, v); err != nil {
		t.Fatalf("CreateVacancy: %v", err)
	}

	app := func(phone string) *domain.JobApplication {
		return &domain.JobApplication{
			ID: uuid.NewString(), VacancyID: v.ID, AccountID: "acc", Name: "A", Phone: phone,
			Status: domain.StatusPending, CreatedAt: time.Now().UTC(),
		}
	}

	first := app("+998901111111")
	if err := CreateApplication(ctx, db, first); err != nil {
		t.Fatalf("first application: %v", err)
	}
	if err := CreateApplication(ctx, db, app("+998901111111")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second pending application want ErrDuplicate, got %v", err)
	}

	// Once answered, the same phone may apply again.
	if err := SetApplicationStatus(ctx, db, first.ID, domain.StatusAnswered); err != nil {
		t.Fatalf("SetApplicationStatus: %v", err)
	}
	second := app("+998901111111")
	if err := CreateApplication(ctx, db, second); err != nil {
		t.Fatalf("re-apply after answer: %v", err)
	}
	if err := CreateApplication(ctx, db, app("+998902222222")); err != nil {
		t.Fatalf("other phone: %v", err)
	}
	if err := SetApplicationStatus(ctx, db, first.ID, domain.StatusPending); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("reopening while another is pending want ErrDuplicate, got %v", err)
	}

	counts, err := VacancyCounts(ctx, db, []string{v.ID, "other"})
	if err != nil {
		t.Fatalf("VacancyCounts: %v", err)
	}
	got := counts[v.ID]
	want := domain.VacancyCounts{Total: 3, Pending: 2, Answered: 1}
	if got != want {
		t.Fatalf("counts = %+v, want %+v", got, want)
	}
	if _, ok := counts["other"]; ok {
		t.Fatalf("vacancy without applications should be absent")
	}

	apps, _ := ListApplications(ctx, db, v.ID)
	if len(apps) != 3 {
		t.Fatalf("ListApplications len=%d", len(apps))
	}

	if err := DeleteVacancy(ctx, db, v.ID); err != nil {
		t.Fatalf("DeleteVacancy: %v", err)
	}
	apps, _ = ListApplications(ctx, db, v.ID)
	if len(apps) != 0 {
		t.Fatalf("applications should cascade, got %d", len(apps))
	}
}

func TestUpdateVacancy_NotFound(t *testing.T) {
	db := newMigratedDB(t)
	if err := UpdateVacancy(context.Background(), db, "missing", map[string]any{"title": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestLostItems_LatestFilterAndStatus(t *testing.T) {
	ctx := context.Background()
	db := newMigratedDB(t)
	base := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

	mk := func(account, name string, at time.Time) *domain.LostItemRequest {
		r := &domain.LostItemRequest{
			ID: uuid.NewString(), AccountID: account, Name: name, Phone: "+998901234567",
			Message: "black umbrella", Status: domain.StatusPending, CreatedAt: at,
		}
		if err := CreateLostItem(ctx, db, r); err != nil {
			t.Fatalf("CreateLostItem: %v", err)
		}
		return r
	}
	mk("a1", "Aziz Aliyev", base)
	latest := mk("a1", "Aziz Aliyev", base.Add(time.Hour))
	mk("a2", "Dilnoza", base)

	got, err := LatestLostItem(ctx, db, "a1")
	if err != nil || got.ID != latest.ID {
		t.Fatalf("LatestLostItem = %+v, %v", got, err)
	}
	if _, err := LatestLostItem(ctx, db, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	mine, _ := ListLostItemsByAccount(ctx, db, "a1")
	if len(mine) != 2 || mine[0].ID != latest.ID {
		t.Fatalf("ListLostItemsByAccount unexpected: %+v", mine)
	}

	if err := SetLostItemStatus(ctx, db, latest.ID, domain.StatusAnswered); err != nil {
		t.Fatalf("SetLostItemStatus: %v", err)
	}
	r, _ := GetLostItem(ctx, db, latest.ID)
	if r.Status != domain.StatusAnswered || r.AnsweredAt == nil {
		t.Fatalf("status not applied: %+v", r)
	}

	f := LostItemFilter{NameLike: "aziz", Status: domain.StatusPending}
	n, err := CountLostItems(ctx, db, f)
	if err != nil || n != 1 {
		t.Fatalf("CountLostItems = %d, %v", n, err)
	}
	page, _ := ListLostItemsPage(ctx, db, LostItemFilter{}, 0, 10)
	if len(page) != 3 {
		t.Fatalf("ListLostItemsPage len=%d", len(page))
	}

	if err := SetLostItemStatus(ctx, db, "missing", domain.StatusRejected); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestComments_CreateAndPage(t *testing.T) {
	ctx := context.Background()
	db := newMigratedDB(t)
	it := seedItem(t, db, domain.KindNews, domain.LangUz)
	acc := &domain.Account{ID: "acc-1", Phone: "+998901234567", FirstName: "Aziz", LastName: "Aliyev", Verified: true}

	for i := 0; i < 3; i++ {
		if _, err := CreateComment(ctx, db, it.ID, acc, "zo'r"); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}
	n, err := CountComments(ctx, db, it.ID)
	if err != nil || n != 3 {
		t.Fatalf("CountComments = %d, %v", n, err)
	}
	page, err := ListCommentsPage(ctx, db, it.ID, 0, 2)
	if err != nil || len(page) != 2 || page[0].Author != "Aziz Aliyev" {
		t.Fatalf("ListCommentsPage = %+v, %v", page, err)
	}
}
