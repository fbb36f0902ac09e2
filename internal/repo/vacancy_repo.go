package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

// CreateVacancy inserts a vacancy. The caller fills every field.
func CreateVacancy(ctx context.Context, db *gorm.DB, v *domain.JobVacancy) error {
	return db.WithContext(ctx).Create(v).Error
}

// GetVacancy loads a vacancy by id, or ErrNotFound.
func GetVacancy(ctx context.Context, db *gorm.DB, id string) (*domain.JobVacancy, error) {
	var v domain.JobVacancy
	if err := db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// CountVacancies returns the number of vacancies, optionally by language.
func CountVacancies(ctx context.Context, db *gorm.DB, lang domain.Language) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.JobVacancy{})
	if lang != "" {
		q = q.Where("language = ?", lang)
	}
	err := q.Count(&total).Error
	return total, err
}

// ListVacanciesPage returns a page of vacancies, newest first.
func ListVacanciesPage(ctx context.Context, db *gorm.DB, lang domain.Language, offset, limit int) ([]domain.JobVacancy, error) {
	var out []domain.JobVacancy
	q := db.WithContext(ctx)
	if lang != "" {
		q = q.Where("language = ?", lang)
	}
	err := q.Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

// UpdateVacancy applies fields to the vacancy row.
func UpdateVacancy(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).Model(&domain.JobVacancy{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVacancy removes a vacancy; its applications cascade.
func DeleteVacancy(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.JobVacancy{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// VacancyCounts aggregates application statuses for the given vacancies in
// one grouped query.
func VacancyCounts(ctx context.Context, db *gorm.DB, vacancyIDs []string) (map[string]domain.VacancyCounts, error) {
	out := make(map[string]domain.VacancyCounts, len(vacancyIDs))
	if len(vacancyIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		VacancyID string
		Status    domain.RequestStatus
		N         int64
	}
	err := db.WithContext(ctx).
		Model(&domain.JobApplication{}).
		Select("vacancy_id, status, COUNT(*) AS n").
		Where("vacancy_id IN ?", vacancyIDs).
		Group("vacancy_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		c := out[r.VacancyID]
		c.Total += r.N
		switch r.Status {
		case domain.StatusPending:
			c.Pending += r.N
		case domain.StatusAnswered:
			c.Answered += r.N
		case domain.StatusRejected:
			c.Rejected += r.N
		}
		out[r.VacancyID] = c
	}
	return out, nil
}

// CreateApplication inserts an application. A second pending application
// for the same (vacancy, phone) trips the partial unique index and yields
// ErrDuplicate.
func CreateApplication(ctx context.Context, db *gorm.DB, a *domain.JobApplication) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(a).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListApplications returns the applications received for a vacancy.
func ListApplications(ctx context.Context, db *gorm.DB, vacancyID string) ([]domain.JobApplication, error) {
	var out []domain.JobApplication
	err := db.WithContext(ctx).
		Where("vacancy_id = ?", vacancyID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// SetApplicationStatus updates an application's status.
func SetApplicationStatus(ctx context.Context, db *gorm.DB, id string, status domain.RequestStatus) error {
	res := db.WithContext(ctx).Model(&domain.JobApplication{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		// Reopening an answered application while another is pending.
		if IsDuplicate(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
