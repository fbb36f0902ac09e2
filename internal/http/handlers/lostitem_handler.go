// Lost-item HTTP handlers.
//
//   - POST  /lost-items             (submit, Idempotency-Key aware)
//   - GET   /lost-items/mine        (caller's reports)
//   - GET   /lost-items             (support: list, q filter)
//   - PATCH /lost-items/{id}/status (support: answer or reject)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/services"
)

// SubmitLostItemRequest is the JSON payload of a lost-item report.
type SubmitLostItemRequest struct {
	Email    string `json:"email"    binding:"omitempty,email,max=128" example:"aziz@example.uz"`
	Address  string `json:"address"  binding:"max=255" example:"Chilonzor"`
	Passport string `json:"passport" binding:"omitempty,len=9" example:"AA1234567"`
	Message  string `json:"message"  binding:"required" example:"Qora sumka, Mustaqillik maydoni bekatida"`
}

// SetStatusRequest moves a request or application to a review status.
type SetStatusRequest struct {
	Status domain.RequestStatus `json:"status" binding:"required,oneof=pending answered rejected" example:"answered"`
}

// ListLostItemsResponse wraps a page of reports and pagination information.
type ListLostItemsResponse struct {
	Items      []domain.LostItemRequest `json:"items"`
	Pagination Pagination               `json:"pagination"`
}

// SubmitLostItem godoc
// @ID          submitLostItem
// @Summary     Report a lost item
// @Description Files a report for the signed-in account. A repeated Idempotency-Key returns the earlier report with 200.
// @Tags        LostItems
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key (8-128 chars)"
// @Param       body             body    handlers.SubmitLostItemRequest  true  "Report"
// @Success     201  {object}  domain.LostItemRequest
// @Success     200  {object}  domain.LostItemRequest  "Replayed"
// @Header      200  {string}  Idempotency-Replayed  "true on replay"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Previous request still pending"
// @Router      /lost-items [post]
func (h *Handlers) SubmitLostItem(c *gin.Context) {
	var req SubmitLostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message is required; passport must be 9 characters")
		return
	}
	r, replayed, err := h.lostSvc.Submit(c.Request.Context(), accountPhone(c), services.LostItemInput{
		Email:    req.Email,
		Address:  req.Address,
		Passport: req.Passport,
		Message:  req.Message,
	}, idempotencyKey(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, markReplay(c, replayed), r)
}

// ListMyLostItems godoc
// @ID          listMyLostItems
// @Summary     My lost-item reports
// @Tags        LostItems
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   domain.LostItemRequest
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /lost-items/mine [get]
func (h *Handlers) ListMyLostItems(c *gin.Context) {
	items, err := h.lostSvc.ListMine(c.Request.Context(), accountPhone(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// ListLostItems godoc
// @ID          listLostItems
// @Summary     List lost-item reports (support)
// @Tags        LostItems
// @Produce     json
// @Security    BearerAuth
// @Param       q          query  string  false  "Reporter name contains"
// @Param       status     query  string  false  "Status"  Enums(pending, answered, rejected)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListLostItemsResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Router      /lost-items [get]
func (h *Handlers) ListLostItems(c *gin.Context) {
	page, pageSize := clampPagination(c)
	status := domain.RequestStatus(c.Query("status"))
	items, total, err := h.lostSvc.ListPage(c.Request.Context(), c.Query("q"), status, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListLostItemsResponse{Items: items, Pagination: newPagination(page, pageSize, total)})
}

// SetLostItemStatus godoc
// @ID          setLostItemStatus
// @Summary     Answer or reject a lost-item report
// @Tags        LostItems
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string  true  "Report ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SetStatusRequest  true  "New status"
// @Success     200  {object}  domain.LostItemRequest
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /lost-items/{id}/status [patch]
func (h *Handlers) SetLostItemStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be pending, answered or rejected")
		return
	}
	r, err := h.lostSvc.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}
