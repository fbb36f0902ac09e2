// Package services – VacancyService
//
// HR publishes job vacancies and reviews applications. Verified accounts
// apply; a phone may hold one pending application per vacancy, which the
// store enforces with a partial unique index.
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/repo"
	"github.com/tbourn/metrosite-backend/internal/utils"
)

// VacancyInput carries the editable fields of a vacancy.
type VacancyInput struct {
	Language     domain.Language
	Title        string
	Category     string
	Requirements string
	Benefits     string
	SalaryRange  string
	AgeRange     string
}

// VacancyView is a vacancy with its application counters.
type VacancyView struct {
	domain.JobVacancy
	Counts domain.VacancyCounts `json:"counts"`
}

// VacancyService manages vacancies and applications.
type VacancyService struct {
	DB          *gorm.DB
	Idempotency *Idempotency
}

// NewVacancyService returns a VacancyService.
func NewVacancyService(db *gorm.DB, idem *Idempotency) *VacancyService {
	return &VacancyService{DB: db, Idempotency: idem}
}

func (in VacancyInput) fields() (map[string]any, error) {
	if !in.Language.Valid() {
		return nil, ErrInvalidRequest
	}
	title := clip(normalizeTitle(in.Title), 255)
	if title == "" {
		return nil, ErrInvalidRequest
	}
	return map[string]any{
		"language":     in.Language,
		"title":        title,
		"category":     clip(normalizeTitle(in.Category), 64),
		"requirements": normalizeText(in.Requirements),
		"benefits":     normalizeText(in.Benefits),
		"salary_range": clip(normalizeTitle(in.SalaryRange), 64),
		"age_range":    clip(normalizeTitle(in.AgeRange), 32),
	}, nil
}

// Create publishes a vacancy authored by staff member createdBy.
func (s *VacancyService) Create(ctx context.Context, in VacancyInput, createdBy string) (*domain.JobVacancy, error) {
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	v := &domain.JobVacancy{
		ID:           uuid.NewString(),
		Language:     in.Language,
		Title:        f["title"].(string),
		Category:     f["category"].(string),
		Requirements: f["requirements"].(string),
		Benefits:     f["benefits"].(string),
		SalaryRange:  f["salary_range"].(string),
		AgeRange:     f["age_range"].(string),
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateVacancy(ctx, s.DB, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Get returns a vacancy with its counters.
func (s *VacancyService) Get(ctx context.Context, id string) (*VacancyView, error) {
	v, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := repo.VacancyCounts(ctx, s.DB, []string{v.ID})
	if err != nil {
		return nil, err
	}
	return &VacancyView{JobVacancy: *v, Counts: counts[v.ID]}, nil
}

// ListPage returns a page of vacancies with counters, newest first.
func (s *VacancyService) ListPage(ctx context.Context, lang domain.Language, page, pageSize int) ([]VacancyView, int64, error) {
	if lang != "" && !lang.Valid() {
		return nil, 0, ErrInvalidRequest
	}
	page, pageSize, offset := utils.PageWindow(page, pageSize)

	total, err := repo.CountVacancies(ctx, s.DB, lang)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []VacancyView{}, 0, nil
	}
	rows, err := repo.ListVacanciesPage(ctx, s.DB, lang, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	counts, err := repo.VacancyCounts(ctx, s.DB, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]VacancyView, len(rows))
	for i := range rows {
		out[i] = VacancyView{JobVacancy: rows[i], Counts: counts[rows[i].ID]}
	}
	return out, total, nil
}

// Update replaces the editable fields of a vacancy.
func (s *VacancyService) Update(ctx context.Context, id string, in VacancyInput) (*VacancyView, error) {
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRequestNotFound
	}
	f["updated_at"] = time.Now().UTC()
	err = repo.UpdateVacancy(ctx, s.DB, id, f)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a vacancy and its applications.
func (s *VacancyService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrRequestNotFound
	}
	err := repo.DeleteVacancy(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrRequestNotFound
	}
	return err
}

// Apply files an application to vacancyID for the verified account owning
// phone. A reused idemKey returns the earlier application with replayed=true.
func (s *VacancyService) Apply(ctx context.Context, vacancyID, phone, email, idemKey string) (*domain.JobApplication, bool, error) {
	acc, err := verifiedAccount(ctx, s.DB, phone)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.load(ctx, vacancyID); err != nil {
		return nil, false, err
	}

	scope := ApplicationScope(vacancyID)
	if id, ok, err := s.Idempotency.lookup(ctx, acc.ID, scope, idemKey); err != nil {
		return nil, false, err
	} else if ok {
		if a, err := s.findApplication(ctx, vacancyID, id); err == nil {
			return a, true, nil
		}
	}

	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, false, ErrInvalidRequest
		}
	}

	a := &domain.JobApplication{
		ID:        uuid.NewString(),
		VacancyID: vacancyID,
		AccountID: acc.ID,
		Name:      acc.DisplayName(),
		Phone:     acc.Phone,
		Email:     email,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	err = repo.CreateApplication(ctx, s.DB, a)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, false, ErrDuplicateApplication
	}
	if err != nil {
		return nil, false, err
	}
	s.Idempotency.remember(ctx, acc.ID, scope, idemKey, a.ID)
	return a, false, nil
}

// Applications lists the applications received for a vacancy.
func (s *VacancyService) Applications(ctx context.Context, vacancyID string) ([]domain.JobApplication, error) {
	if _, err := s.load(ctx, vacancyID); err != nil {
		return nil, err
	}
	return repo.ListApplications(ctx, s.DB, vacancyID)
}

// SetApplicationStatus moves an application to status. Reopening one while
// another pending application exists for the same phone fails with
// ErrDuplicateApplication.
func (s *VacancyService) SetApplicationStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	if !status.Valid() {
		return ErrInvalidRequest
	}
	err := repo.SetApplicationStatus(ctx, s.DB, id, status)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrRequestNotFound
	case errors.Is(err, repo.ErrDuplicate):
		return ErrDuplicateApplication
	}
	return err
}

func (s *VacancyService) load(ctx context.Context, id string) (*domain.JobVacancy, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRequestNotFound
	}
	v, err := repo.GetVacancy(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	return v, err
}

func (s *VacancyService) findApplication(ctx context.Context, vacancyID, id string) (*domain.JobApplication, error) {
	apps, err := repo.ListApplications(ctx, s.DB, vacancyID)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].ID == id {
			return &apps[i], nil
		}
	}
	return nil, repo.ErrNotFound
}
