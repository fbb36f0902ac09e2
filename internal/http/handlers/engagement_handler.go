// Engagement HTTP handlers.
//
// Likes and views are addressed by item id under the item's own section;
// ItemInSection guards these and the comment routes:
//   - POST /{section}/{id}/like   (toggle, verified accounts)
//   - GET  /{section}/{id}/like   (count and caller's liked flag)
//   - POST /{section}/{id}/view   (record a view, anonymous allowed)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/services"
)

// ItemInSection aborts with 404 unless the :id path parameter names a live
// item of kind, so an announcement cannot be liked through /news.
func (h *Handlers) ItemInSection(kind domain.ContentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.contentSvc.InSection(c.Request.Context(), kind, c.Param("id")); err != nil {
			failErr(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// LikeToggleResponse is the ledger state after a toggle.
type LikeToggleResponse struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count" example:"12"`
}

// LikeStatusResponse is the like count and whether the caller liked the item.
type LikeStatusResponse struct {
	LikeCount int64 `json:"like_count" example:"12"`
	Liked     bool  `json:"liked"`
}

// ViewResponse is the view count after recording a view.
type ViewResponse struct {
	ViewCount int64 `json:"view_count" example:"240"`
}

// ToggleLike godoc
// @ID          toggleLike
// @Summary     Like or unlike an item
// @Description Flips the caller's like. Two concurrent toggles by the same account leave the ledger consistent.
// @Tags        Engagement
// @Produce     json
// @Security    BearerAuth
// @Param       section  path  string  true  "Section"  Enums(news, announcements, corruption-reports)
// @Param       id       path  string  true  "Item ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.LikeToggleResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /{section}/{id}/like [post]
func (h *Handlers) ToggleLike(c *gin.Context) {
	liked, count, err := h.engSvc.ToggleLike(c.Request.Context(), c.Param("id"), accountPhone(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LikeToggleResponse{Liked: liked, LikeCount: count})
}

// LikeStatus godoc
// @ID          likeStatus
// @Summary     Like count of an item
// @Tags        Engagement
// @Produce     json
// @Param       section  path  string  true  "Section"  Enums(news, announcements, corruption-reports)
// @Param       id       path  string  true  "Item ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.LikeStatusResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /{section}/{id}/like [get]
func (h *Handlers) LikeStatus(c *gin.Context) {
	liked, count, err := h.engSvc.LikeStatus(c.Request.Context(), c.Param("id"), accountPhone(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LikeStatusResponse{LikeCount: count, Liked: liked})
}

// RecordView godoc
// @ID          recordView
// @Summary     Record a view
// @Description Counts at most one view per visitor identity: the account phone when signed in, otherwise the client IP.
// @Tags        Engagement
// @Produce     json
// @Param       section  path  string  true  "Section"  Enums(news, announcements, corruption-reports)
// @Param       id       path  string  true  "Item ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.ViewResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /{section}/{id}/view [post]
func (h *Handlers) RecordView(c *gin.Context) {
	visitor := services.ViewVisitor(accountPhone(c), c.ClientIP())
	n, err := h.engSvc.RecordView(c.Request.Context(), c.Param("id"), visitor)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ViewResponse{ViewCount: n})
}
