// Category HTTP handlers.
//
//   - GET    /categories        (all categories, ETag aware)
//   - POST   /categories        (ranked name search)
//   - GET    /category/{id}
//   - POST   /category          (staff only)
//   - PATCH  /category/{id}     (staff only)
//   - DELETE /category/{id}     (staff only)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-excursion-backend/internal/services"
	"github.com/tbourn/go-excursion-backend/internal/storage"
)

// CategoryRequest is the create/update payload; omitted fields are left
// untouched on update. Multipart requests may carry the picture in "img".
type CategoryRequest struct {
	Name   *string `json:"name"   example:"Обзорные"`
	ImgSrc *string `json:"imgSrc" example:"/uploads/1f2e.png"`
}

// CategorySearchRequest is the body of POST /categories.
type CategorySearchRequest struct {
	Search string `json:"search" example:"обзор"`
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List categories
// @Tags        Categories
// @Produce     json
// @Success     200  {array}  domain.Category
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	if notModified(c, h.Categories.Stats, "categories") {
		return
	}
	items, err := h.Categories.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// SearchCategories godoc
// @ID          searchCategories
// @Summary     Search categories
// @Description Ranks categories by name similarity to the query. A blank query returns all categories.
// @Tags        Categories
// @Accept      json
// @Produce     json
// @Param       body body     handlers.CategorySearchRequest true "Query"
// @Success     200  {array}  domain.Category
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /categories [post]
func (h *Handlers) SearchCategories(c *gin.Context) {
	var req CategorySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body", "Некорректное тело запроса")
		return
	}
	items, err := h.Categories.Search(c.Request.Context(), req.Search)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetCategory godoc
// @ID          getCategory
// @Summary     Get a category
// @Tags        Categories
// @Produce     json
// @Param       id   path     int true "Category ID"
// @Success     200  {object} domain.Category
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Router      /category/{id} [get]
func (h *Handlers) GetCategory(c *gin.Context) {
	id, valid := pathID(c, "category", "категория")
	if !valid {
		return
	}
	cat, err := h.Categories.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, cat)
}

// CreateCategory godoc
// @ID          createCategory
// @Summary     Create a category
// @Tags        Categories
// @Accept      json,mpfd
// @Produce     json
// @Param       body body     handlers.CategoryRequest true "Category"
// @Success     201  {object} domain.Category
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /category [post]
func (h *Handlers) CreateCategory(c *gin.Context) {
	req, upload, done := h.bindCategory(c)
	if done {
		return
	}
	cat, err := h.Categories.Create(c.Request.Context(), services.CategoryInput{Name: req.Name, ImgSrc: req.ImgSrc})
	if err != nil {
		h.discardUpload(c, upload)
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, cat)
}

// UpdateCategory godoc
// @ID          updateCategory
// @Summary     Update a category
// @Tags        Categories
// @Accept      json,mpfd
// @Produce     json
// @Param       id   path     int true "Category ID"
// @Param       body body     handlers.CategoryRequest true "Fields to change"
// @Success     200  {object} domain.Category
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /category/{id} [patch]
func (h *Handlers) UpdateCategory(c *gin.Context) {
	id, valid := pathID(c, "category", "категория")
	if !valid {
		return
	}
	req, upload, done := h.bindCategory(c)
	if done {
		return
	}
	cat, err := h.Categories.Update(c.Request.Context(), id, services.CategoryInput{Name: req.Name, ImgSrc: req.ImgSrc})
	if err != nil {
		h.discardUpload(c, upload)
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, cat)
}

// DeleteCategory godoc
// @ID          deleteCategory
// @Summary     Delete a category
// @Description Excursions of the category stay in the catalog without one.
// @Tags        Categories
// @Produce     json
// @Param       id   path     int true "Category ID"
// @Success     200  {object} handlers.MessageResponse
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Router      /category/{id} [delete]
func (h *Handlers) DeleteCategory(c *gin.Context) {
	id, valid := pathID(c, "category", "категория")
	if !valid {
		return
	}
	if err := h.Categories.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
}

func (h *Handlers) bindCategory(c *gin.Context) (req CategoryRequest, upload *storage.PutResult, done bool) {
	if !isMultipart(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid JSON body", "Некорректное тело запроса")
			return req, nil, true
		}
		return req, nil, false
	}
	if err := c.Request.ParseMultipartForm(h.opt.MaxUploadBytes); err != nil {
		badRequest(c, "invalid multipart form", "Некорректная форма")
		return req, nil, true
	}
	req.Name = formString(c, "name")
	req.ImgSrc = formString(c, "imgSrc")

	upload, done = h.storeImage(c)
	if upload != nil {
		req.ImgSrc = &upload.URL
	}
	return req, upload, done
}
