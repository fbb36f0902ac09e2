// Package handlers exposes the metro site API over HTTP.
//
// Handlers are transport-thin: they bind and validate input, read the
// principal stored by the authentication middleware, call application
// services, and translate results (and service errors) into HTTP responses.
// Capability checks happen in route-group middleware, never here.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/metrosite-backend/internal/auth"
	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/http/middleware"
	"github.com/tbourn/metrosite-backend/internal/repo"
	"github.com/tbourn/metrosite-backend/internal/services"
	"github.com/tbourn/metrosite-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuthService issues and redeems one-time codes and refreshes sessions.
type AuthService interface {
	Request(ctx context.Context, phone string, action domain.OTPAction, firstName, lastName string) (string, error)
	Verify(ctx context.Context, code string) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	Profile(ctx context.Context, p auth.Principal) (*domain.Account, *domain.StaffUser, error)
}

// StaffService signs staff in and creates staff users.
type StaffService interface {
	Login(ctx context.Context, username, password string) (*services.Session, error)
	Create(ctx context.Context, username, password, role string) (*domain.StaffUser, error)
}

// ContentService provides editor CRUD and public reads of content items.
type ContentService interface {
	Create(ctx context.Context, kind domain.ContentKind, in services.ContentInput, createdBy string) (*domain.ContentItem, error)
	Get(ctx context.Context, kind domain.ContentKind, id, phone string) (*domain.ContentItem, bool, error)
	ListPage(ctx context.Context, f repo.ContentFilter, page, pageSize int, phone string) (*services.ContentListing, error)
	Stats(ctx context.Context, f repo.ContentFilter) (count, engagement int64, maxUpdatedAt *time.Time, err error)
	Update(ctx context.Context, kind domain.ContentKind, id string, p services.ContentPatch) (*domain.ContentItem, error)
	Delete(ctx context.Context, kind domain.ContentKind, id string) error
	InSection(ctx context.Context, kind domain.ContentKind, id string) error
}

// EngagementService is the like/view ledger.
type EngagementService interface {
	ToggleLike(ctx context.Context, itemID, phone string) (bool, int64, error)
	LikeStatus(ctx context.Context, itemID, phone string) (bool, int64, error)
	RecordView(ctx context.Context, itemID, visitor string) (int64, error)
}

// CommentService posts and lists comments on content items.
type CommentService interface {
	Post(ctx context.Context, itemID, phone, content string) (*domain.Comment, error)
	List(ctx context.Context, itemID string, page, pageSize int) ([]domain.Comment, int64, error)
}

// LostItemService files and reviews lost-item reports.
type LostItemService interface {
	Submit(ctx context.Context, phone string, in services.LostItemInput, idemKey string) (*domain.LostItemRequest, bool, error)
	ListMine(ctx context.Context, phone string) ([]domain.LostItemRequest, error)
	ListPage(ctx context.Context, q string, status domain.RequestStatus, page, pageSize int) ([]domain.LostItemRequest, int64, error)
	SetStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.LostItemRequest, error)
}

// VacancyService manages vacancies and applications.
type VacancyService interface {
	Create(ctx context.Context, in services.VacancyInput, createdBy string) (*domain.JobVacancy, error)
	Get(ctx context.Context, id string) (*services.VacancyView, error)
	ListPage(ctx context.Context, lang domain.Language, page, pageSize int) ([]services.VacancyView, int64, error)
	Update(ctx context.Context, id string, in services.VacancyInput) (*services.VacancyView, error)
	Delete(ctx context.Context, id string) error
	Apply(ctx context.Context, vacancyID, phone, email, idemKey string) (*domain.JobApplication, bool, error)
	Applications(ctx context.Context, vacancyID string) ([]domain.JobApplication, error)
	SetApplicationStatus(ctx context.Context, id string, status domain.RequestStatus) error
}

// StatsService keeps station statistics and the visitor counter.
type StatsService interface {
	UpsertStation(ctx context.Context, station string, year, month int, passengers int64) (*domain.StationStat, error)
	Stations(ctx context.Context, year int) ([]domain.StationStat, error)
	Visitors(ctx context.Context) (int64, error)
}

//
// Handler wiring
//

// Deps lists the services the handlers depend on.
type Deps struct {
	Auth        AuthService
	Staff       StaffService
	Content     ContentService
	Engagements EngagementService
	Comments    CommentService
	LostItems   LostItemService
	Vacancies   VacancyService
	Stats       StatsService

	// OTPTTL is reported to clients as expires_in.
	OTPTTL time.Duration
}

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	authSvc    AuthService
	staffSvc   StaffService
	contentSvc ContentService
	engSvc     EngagementService
	commentSvc CommentService
	lostSvc    LostItemService
	vacSvc     VacancyService
	statsSvc   StatsService
	otpTTL     time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	ttl := d.OTPTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Handlers{
		authSvc:    d.Auth,
		staffSvc:   d.Staff,
		contentSvc: d.Content,
		engSvc:     d.Engagements,
		commentSvc: d.Comments,
		lostSvc:    d.LostItems,
		vacSvc:     d.Vacancies,
		statsSvc:   d.Stats,
		otpTTL:     ttl,
	}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// principal returns the authenticated caller, if any.
func principal(c *gin.Context) (auth.Principal, bool) {
	return middleware.PrincipalFrom(c)
}

// accountPhone is the phone of a verified-account caller, or "" for
// anonymous and staff callers.
func accountPhone(c *gin.Context) string {
	if p, ok := principal(c); ok && p.IsAccount() {
		return p.Phone
	}
	return ""
}

// idempotencyKey is the validated Idempotency-Key, or "".
func idempotencyKey(c *gin.Context) string {
	k, _ := middleware.GetIdempotencyKey(c)
	return k
}

// markReplay flags a response that returns an earlier submission.
func markReplay(c *gin.Context, replayed bool) int {
	if replayed {
		c.Header("Idempotency-Replayed", "true")
		return http.StatusOK
	}
	return http.StatusCreated
}
