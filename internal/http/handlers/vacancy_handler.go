// Vacancy HTTP handlers.
//
//   - GET    /vacancies                       (list, lang filter)
//   - GET    /vacancies/{id}                  (read with application counts)
//   - POST   /vacancies                       (HR: create)
//   - PUT    /vacancies/{id}                  (HR: replace)
//   - DELETE /vacancies/{id}                  (HR: delete)
//   - POST   /vacancies/{id}/applications     (apply, Idempotency-Key aware)
//   - GET    /vacancies/{id}/applications     (HR: list)
//   - PATCH  /applications/{id}/status        (HR: review)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/services"
)

// VacancyRequest is the JSON payload for creating or replacing a vacancy.
type VacancyRequest struct {
	Language     domain.Language `json:"language"     binding:"required,oneof=uz ru en" example:"uz"`
	Title        string          `json:"title"        binding:"required" example:"Mashinist yordamchisi"`
	Category     string          `json:"category"     example:"texnik"`
	Requirements string          `json:"requirements"`
	Benefits     string          `json:"benefits"`
	SalaryRange  string          `json:"salary_range" example:"6-8 mln"`
	AgeRange     string          `json:"age_range"    example:"21-45"`
}

func (r VacancyRequest) input() services.VacancyInput {
	return services.VacancyInput{
		Language:     r.Language,
		Title:        r.Title,
		Category:     r.Category,
		Requirements: r.Requirements,
		Benefits:     r.Benefits,
		SalaryRange:  r.SalaryRange,
		AgeRange:     r.AgeRange,
	}
}

// ApplyRequest is the JSON payload of a job application.
type ApplyRequest struct {
	Email string `json:"email" binding:"omitempty,email,max=128" example:"aziz@example.uz"`
}

// ListVacanciesResponse wraps a page of vacancies and pagination information.
type ListVacanciesResponse struct {
	Vacancies  []services.VacancyView `json:"vacancies"`
	Pagination Pagination             `json:"pagination"`
}

// ListVacancies godoc
// @ID          listVacancies
// @Summary     List vacancies (paginated)
// @Tags        Vacancies
// @Produce     json
// @Param       lang       query  string  false  "Language"  Enums(uz, ru, en)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListVacanciesResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /vacancies [get]
func (h *Handlers) ListVacancies(c *gin.Context) {
	lang, valid := queryLanguage(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lang must be one of uz, ru, en")
		return
	}
	page, pageSize := clampPagination(c)
	items, total, err := h.vacSvc.ListPage(c.Request.Context(), lang, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListVacanciesResponse{Vacancies: items, Pagination: newPagination(page, pageSize, total)})
}

// GetVacancy godoc
// @ID          getVacancy
// @Summary     Read a vacancy
// @Tags        Vacancies
// @Produce     json
// @Param       id  path  string  true  "Vacancy ID (UUID)"  format(uuid)
// @Success     200  {object}  services.VacancyView
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /vacancies/{id} [get]
func (h *Handlers) GetVacancy(c *gin.Context) {
	v, err := h.vacSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// CreateVacancy godoc
// @ID          createVacancy
// @Summary     Publish a vacancy
// @Tags        Vacancies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.VacancyRequest  true  "Vacancy"
// @Success     201  {object}  domain.JobVacancy
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Router      /vacancies [post]
func (h *Handlers) CreateVacancy(c *gin.Context) {
	var req VacancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "language and title are required")
		return
	}
	p, _ := principal(c)
	v, err := h.vacSvc.Create(c.Request.Context(), req.input(), p.Subject)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, v)
}

// UpdateVacancy godoc
// @ID          updateVacancy
// @Summary     Replace a vacancy
// @Tags        Vacancies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string  true  "Vacancy ID (UUID)"  format(uuid)
// @Param       body  body  handlers.VacancyRequest  true  "Vacancy"
// @Success     200  {object}  services.VacancyView
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /vacancies/{id} [put]
func (h *Handlers) UpdateVacancy(c *gin.Context) {
	var req VacancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "language and title are required")
		return
	}
	v, err := h.vacSvc.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// DeleteVacancy godoc
// @ID          deleteVacancy
// @Summary     Delete a vacancy
// @Tags        Vacancies
// @Security    BearerAuth
// @Param       id  path  string  true  "Vacancy ID (UUID)"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /vacancies/{id} [delete]
func (h *Handlers) DeleteVacancy(c *gin.Context) {
	if err := h.vacSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// Apply godoc
// @ID          applyVacancy
// @Summary     Apply for a vacancy
// @Description One pending application per vacancy and phone. A repeated Idempotency-Key returns the earlier application with 200.
// @Tags        Vacancies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id               path    string  true   "Vacancy ID (UUID)"  format(uuid)
// @Param       Idempotency-Key  header  string  false  "Idempotency key (8-128 chars)"
// @Param       body             body    handlers.ApplyRequest  false  "Contact email"
// @Success     201  {object}  domain.JobApplication
// @Success     200  {object}  domain.JobApplication  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Pending application exists"
// @Router      /vacancies/{id}/applications [post]
func (h *Handlers) Apply(c *gin.Context) {
	var req ApplyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email must be a valid address")
			return
		}
	}
	a, replayed, err := h.vacSvc.Apply(c.Request.Context(), c.Param("id"), accountPhone(c), req.Email, idempotencyKey(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, markReplay(c, replayed), a)
}

// ListApplications godoc
// @ID          listApplications
// @Summary     Applications for a vacancy (HR)
// @Tags        Vacancies
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Vacancy ID (UUID)"  format(uuid)
// @Success     200  {array}   domain.JobApplication
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /vacancies/{id}/applications [get]
func (h *Handlers) ListApplications(c *gin.Context) {
	apps, err := h.vacSvc.Applications(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, apps)
}

// SetApplicationStatus godoc
// @ID          setApplicationStatus
// @Summary     Review an application (HR)
// @Tags        Vacancies
// @Accept      json
// @Security    BearerAuth
// @Param       id    path  string  true  "Application ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SetStatusRequest  true  "New status"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /applications/{id}/status [patch]
func (h *Handlers) SetApplicationStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be pending, answered or rejected")
		return
	}
	if err := h.vacSvc.SetApplicationStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
