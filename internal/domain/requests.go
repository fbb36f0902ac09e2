package domain

import "time"

// RequestStatus is the review state shared by lost-item requests and job
// applications.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAnswered RequestStatus = "answered"
	StatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAnswered, StatusRejected:
		return true
	}
	return false
}

// LostItemRequest is a report of an item lost on the metro, submitted by a
// verified account and handled by lost-item support staff.
type LostItemRequest struct {
	ID         string        `json:"id"          gorm:"type:char(36);primaryKey"`
	AccountID  string        `json:"-"           gorm:"type:char(36);not null;index:idx_lost_account,priority:1"`
	Name       string        `json:"name"        gorm:"type:varchar(128);not null"`
	Phone      string        `json:"phone"       gorm:"type:varchar(20);not null"`
	Email      string        `json:"email"       gorm:"type:varchar(128)"`
	Address    string        `json:"address"     gorm:"type:varchar(255)"`
	Passport   string        `json:"passport"    gorm:"type:varchar(9)"`
	Message    string        `json:"message"     gorm:"type:text;not null"`
	Status     RequestStatus `json:"status"      gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','answered','rejected')"`
	CreatedAt  time.Time     `json:"created_at"  gorm:"index:idx_lost_account,priority:2"`
	AnsweredAt *time.Time    `json:"answered_at,omitempty"`
}

// TableName returns the database table name for LostItemRequest.
func (LostItemRequest) TableName() string { return "lost_item_requests" }

// JobVacancy is an open position published by HR.
type JobVacancy struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	Language     Language  `json:"language"      gorm:"type:varchar(8);not null;index"`
	Title        string    `json:"title"         gorm:"type:varchar(255);not null"`
	Category     string    `json:"category"      gorm:"type:varchar(64)"`
	Requirements string    `json:"requirements"  gorm:"type:text"`
	Benefits     string    `json:"benefits"      gorm:"type:text"`
	SalaryRange  string    `json:"salary_range"  gorm:"type:varchar(64)"`
	AgeRange     string    `json:"age_range"     gorm:"type:varchar(32)"`
	CreatedBy    string    `json:"-"             gorm:"type:char(36)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for JobVacancy.
func (JobVacancy) TableName() string { return "job_vacancies" }

// JobApplication is an application to a vacancy. At most one pending
// application may exist per (vacancy, phone); answered or rejected ones do
// not block a new submission.
type JobApplication struct {
	ID        string        `json:"id"         gorm:"type:char(36);primaryKey"`
	VacancyID string        `json:"vacancy_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_application_pending,priority:1,where:status = 'pending'"`
	AccountID string        `json:"-"          gorm:"type:char(36);not null"`
	Name      string        `json:"name"       gorm:"type:varchar(128);not null"`
	Phone     string        `json:"phone"      gorm:"type:varchar(20);not null;uniqueIndex:ux_application_pending,priority:2,where:status = 'pending'"`
	Email     string        `json:"email"      gorm:"type:varchar(128)"`
	Status    RequestStatus `json:"status"     gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','answered','rejected')"`
	CreatedAt time.Time     `json:"created_at"`

	Vacancy JobVacancy `json:"-" gorm:"foreignKey:VacancyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for JobApplication.
func (JobApplication) TableName() string { return "job_applications" }

// VacancyCounts summarizes the applications received for one vacancy.
type VacancyCounts struct {
	Total    int64 `json:"total_requests"`
	Pending  int64 `json:"pending_requests"`
	Answered int64 `json:"answered_requests"`
	Rejected int64 `json:"rejected_requests"`
}
