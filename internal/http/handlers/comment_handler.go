package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

// PostCommentRequest is the JSON payload for a comment.
type PostCommentRequest struct {
	Content string `json:"content" binding:"required" example:"Juda yaxshi yangilik"`
}

// ListCommentsResponse wraps a page of comments and pagination information.
type ListCommentsResponse struct {
	Comments   []domain.Comment `json:"comments"`
	Pagination Pagination       `json:"pagination"`
}

// PostComment godoc
// @ID          postComment
// @Summary     Comment on an item
// @Tags        Comments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       section  path  string  true  "Section"  Enums(news, announcements, corruption-reports)
// @Param       id       path  string  true  "Item ID (UUID)"  format(uuid)
// @Param       body     body  handlers.PostCommentRequest  true  "Comment"
// @Success     201  {object}  domain.Comment
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or too long"
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /{section}/{id}/comments [post]
func (h *Handlers) PostComment(c *gin.Context) {
	var req PostCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content is required")
		return
	}
	cm, err := h.commentSvc.Post(c.Request.Context(), c.Param("id"), accountPhone(c), req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, cm)
}

// ListComments godoc
// @ID          listComments
// @Summary     List comments (paginated)
// @Tags        Comments
// @Produce     json
// @Param       section    path   string  true   "Section"  Enums(news, announcements, corruption-reports)
// @Param       id         path   string  true   "Item ID (UUID)"  format(uuid)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListCommentsResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /{section}/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.commentSvc.List(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListCommentsResponse{Comments: items, Pagination: newPagination(page, pageSize, total)})
}
