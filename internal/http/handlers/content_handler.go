// Content HTTP handlers.
//
// News, announcements and corruption reports share one set of handlers; the
// router binds each section to its kind:
//   - GET    /{section}        (list, paginated, ETag support)
//   - GET    /{section}/{id}   (read, includes liked)
//   - POST   /{section}        (create)
//   - PUT    /{section}/{id}   (partial update)
//   - DELETE /{section}/{id}   (soft delete)
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/repo"
	"github.com/tbourn/metrosite-backend/internal/services"
)

//
// DTOs
//

// ContentView is a content item as seen by the caller.
type ContentView struct {
	domain.ContentItem
	Liked bool `json:"liked"`
}

// ListContentResponse wraps a page of content items and pagination information.
type ListContentResponse struct {
	Items      []ContentView `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// CreateContentRequest is the JSON payload for publishing a content item.
type CreateContentRequest struct {
	Language    domain.Language `json:"language"     binding:"required,oneof=uz ru en" example:"uz"`
	Title       string          `json:"title"        binding:"required" example:"Yangi bekat ochildi"`
	Description string          `json:"description"  example:"Qisqacha"`
	Body        string          `json:"body"`
	Category    string          `json:"category"     example:"metro"`
	PublishedAt *time.Time      `json:"published_at" example:"2024-05-06T09:00:00Z"`
}

// UpdateContentRequest is a partial update; omitted fields are unchanged.
type UpdateContentRequest struct {
	Language    *domain.Language `json:"language"     binding:"omitempty,oneof=uz ru en"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Body        *string          `json:"body"`
	Category    *string          `json:"category"`
	PublishedAt *time.Time       `json:"published_at"`
}

//
// Helpers
//

// queryLanguage reads the optional lang filter. ok is false for an unknown
// language.
func queryLanguage(c *gin.Context) (lang domain.Language, ok bool) {
	lang = domain.Language(c.Query("lang"))
	if lang == "" {
		return "", true
	}
	return lang, lang.Valid()
}

//
// Handlers
//

// ListContent godoc
// @ID          listContent
// @Summary     List content items (paginated)
// @Description Returns a page of the section's items, newest first. Anonymous listings carry a weak ETag and may return 304.
// @Tags        Content
// @Produce     json
// @Param       section        path    string  true   "Section"  Enums(news, announcements, corruption-reports)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       lang           query   string  false  "Language"  Enums(uz, ru, en)
// @Param       category       query   string  false  "Category"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListContentResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /{section} [get]
func (h *Handlers) ListContent(kind domain.ContentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		lang, valid := queryLanguage(c)
		if !valid {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lang must be one of uz, ru, en")
			return
		}
		page, pageSize := clampPagination(c)
		f := repo.ContentFilter{Kind: kind, Language: lang, Category: c.Query("category")}
		phone := accountPhone(c)

		// liked is per caller, so only anonymous pages are cacheable.
		if phone == "" {
			count, engagement, maxTS, err := h.contentSvc.Stats(ctx, f)
			if err == nil {
				var ts int64
				if maxTS != nil {
					ts = maxTS.Unix()
				}
				etag := fmt.Sprintf(`W/"%s:%s:%d:%d:%d-%d-%d"`, kind, lang, page, pageSize, count, ts, engagement)
				c.Header("ETag", etag)
				if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
					c.Status(http.StatusNotModified)
					return
				}
			}
		}

		listing, err := h.contentSvc.ListPage(ctx, f, page, pageSize, phone)
		if err != nil {
			failErr(c, err)
			return
		}
		items := make([]ContentView, 0, len(listing.Items))
		for _, it := range listing.Items {
			items = append(items, ContentView{ContentItem: it, Liked: listing.Liked[it.ID]})
		}
		ok(c, http.StatusOK, ListContentResponse{
			Items:      items,
			Pagination: newPagination(page, pageSize, listing.Total),
		})
	}
}

// GetContent godoc
// @ID          getContent
// @Summary     Read a content item
// @Tags        Content
// @Produce     json
// @Param       section  path  string  true  "Section"  Enums(news, announcements, corruption-reports)
// @Param       id       path  string  true  "Item ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.ContentView
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /{section}/{id} [get]
func (h *Handlers) GetContent(kind domain.ContentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		it, liked, err := h.contentSvc.Get(c.Request.Context(), kind, c.Param("id"), accountPhone(c))
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusOK, ContentView{ContentItem: *it, Liked: liked})
	}
}

// CreateContent godoc
// @ID          createContent
// @Summary     Publish a content item
// @Tags        Content
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       section  path  string  true  "Section"  Enums(news, announcements, corruption-reports)
// @Param       body     body  handlers.CreateContentRequest  true  "Item"
// @Success     201  {object}  domain.ContentItem
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Router      /{section} [post]
func (h *Handlers) CreateContent(kind domain.ContentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateContentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "language and title are required")
			return
		}
		in := services.ContentInput{
			Language:    req.Language,
			Title:       req.Title,
			Description: req.Description,
			Body:        req.Body,
			Category:    req.Category,
		}
		if req.PublishedAt != nil {
			in.PublishedAt = *req.PublishedAt
		}
		p, _ := principal(c)
		it, err := h.contentSvc.Create(c.Request.Context(), kind, in, p.Subject)
		if err != nil {
			failErr(c, err)
			return
		}
		c.Header("Location", c.Request.URL.Path+"/"+it.ID)
		ok(c, http.StatusCreated, it)
	}
}

// UpdateContent godoc
// @ID          updateContent
// @Summary     Update a content item
// @Tags        Content
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       section  path  string  true  "Section"  Enums(news, announcements, corruption-reports)
// @Param       id       path  string  true  "Item ID (UUID)"  format(uuid)
// @Param       body     body  handlers.UpdateContentRequest  true  "Changed fields"
// @Success     200  {object}  domain.ContentItem
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /{section}/{id} [put]
func (h *Handlers) UpdateContent(kind domain.ContentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateContentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
		it, err := h.contentSvc.Update(c.Request.Context(), kind, c.Param("id"), services.ContentPatch{
			Language:    req.Language,
			Title:       req.Title,
			Description: req.Description,
			Body:        req.Body,
			Category:    req.Category,
			PublishedAt: req.PublishedAt,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusOK, it)
	}
}

// DeleteContent godoc
// @ID          deleteContent
// @Summary     Delete a content item
// @Tags        Content
// @Security    BearerAuth
// @Param       section  path  string  true  "Section"  Enums(news, announcements, corruption-reports)
// @Param       id       path  string  true  "Item ID (UUID)"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /{section}/{id} [delete]
func (h *Handlers) DeleteContent(kind domain.ContentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.contentSvc.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
			failErr(c, err)
			return
		}
		noContent(c)
	}
}
