// Excursion HTTP handlers.
//
// This file exposes the catalog endpoints for excursions:
//   - GET    /excursions            (paginated list with events, ETag aware)
//   - GET    /excursion/{id}        (single excursion)
//   - POST   /excursion             (create; staff only)
//   - PATCH  /excursion/{id}        (partial update; staff only)
//   - DELETE /excursion/{id}        (delete; staff only)
//   - PATCH  /excursion/{id}/key    (issue a new payment key; staff only)
//
// Create and update accept either JSON or multipart/form-data. In the
// multipart form the image travels in the "img" file field and the events in
// "excursionEvents" as a JSON array string.
package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/http/middleware"
	"github.com/tbourn/go-excursion-backend/internal/services"
	"github.com/tbourn/go-excursion-backend/internal/storage"
)

// imageField is the multipart field carrying an uploaded picture.
const imageField = "img"

// ExcursionRequest is the create/update payload. Omitted fields are left
// untouched on update; "excursionEvents" replaces all events when present.
type ExcursionRequest struct {
	Name               *string               `json:"name"               example:"Казанский кремль"`
	City               *string               `json:"city"               example:"казань"`
	Info               *string               `json:"info"               example:"Обзорная экскурсия"`
	ImgSrc             *string               `json:"imgSrc"             example:"/uploads/5b0c.jpg"`
	PersonsAmount      *int                  `json:"personsAmount"      example:"20"`
	AccompanistsAmount *int                  `json:"accompanistsAmount" example:"2"`
	Price              *float64              `json:"price"              example:"1500"`
	CategoryID         *uint                 `json:"categoryId"         example:"3"`
	Events             []services.EventInput `json:"excursionEvents"`
}

func (r ExcursionRequest) input() services.ExcursionInput {
	return services.ExcursionInput{
		Name:               r.Name,
		City:               r.City,
		Info:               r.Info,
		ImgSrc:             r.ImgSrc,
		PersonsAmount:      r.PersonsAmount,
		AccompanistsAmount: r.AccompanistsAmount,
		Price:              r.Price,
		CategoryID:         r.CategoryID,
		Events:             r.Events,
	}
}

// ExcursionListResponse is a page of excursions.
type ExcursionListResponse struct {
	Excursions []domain.Excursion `json:"excursions"`
	Pagination Pagination         `json:"pagination"`
}

// ListExcursions godoc
// @ID          listExcursions
// @Summary     List excursions
// @Description Returns a page of excursions with their events. Supports weak ETags via If-None-Match.
// @Tags        Excursions
// @Produce     json
// @Param       page       query    int    false "Page number (1-based)"  default(1)
// @Param       page_size  query    int    false "Page size (max 100)"    default(20)
// @Param       If-None-Match header string false "Previously returned ETag"
// @Success     200  {object} handlers.ExcursionListResponse
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /excursions [get]
func (h *Handlers) ListExcursions(c *gin.Context) {
	page, pageSize := clampPagination(c)
	if notModified(c, h.Excursions.Stats, "excursions:"+strconv.Itoa(page)+":"+strconv.Itoa(pageSize)) {
		return
	}

	items, total, err := h.Excursions.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ExcursionListResponse{Excursions: items, Pagination: newPagination(page, pageSize, total)})
}

// GetExcursion godoc
// @ID          getExcursion
// @Summary     Get an excursion
// @Tags        Excursions
// @Produce     json
// @Param       id   path     int true "Excursion ID"
// @Success     200  {object} domain.Excursion
// @Failure     400  {object} handlers.ErrorResponse "Invalid id"
// @Failure     404  {object} handlers.ErrorResponse "Excursion not found"
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /excursion/{id} [get]
func (h *Handlers) GetExcursion(c *gin.Context) {
	id, valid := pathID(c, "excursion", "экскурсия")
	if !valid {
		return
	}
	e, err := h.Excursions.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}

// CreateExcursion godoc
// @ID          createExcursion
// @Summary     Create an excursion
// @Description Accepts JSON or multipart/form-data with an optional "img" file.
// @Tags        Excursions
// @Accept      json,mpfd
// @Produce     json
// @Param       body  body     handlers.ExcursionRequest true "Excursion"
// @Success     201   {object} domain.Excursion
// @Failure     400   {object} handlers.ErrorResponse
// @Failure     401   {object} handlers.ErrorResponse
// @Failure     404   {object} handlers.ErrorResponse "Category not found"
// @Failure     413   {object} handlers.ErrorResponse "Image too large"
// @Failure     500   {object} handlers.ErrorResponse
// @Router      /excursion [post]
func (h *Handlers) CreateExcursion(c *gin.Context) {
	req, upload, done := h.bindExcursion(c)
	if done {
		return
	}
	e, err := h.Excursions.Create(c.Request.Context(), req.input())
	if err != nil {
		h.discardUpload(c, upload)
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, e)
}

// UpdateExcursion godoc
// @ID          updateExcursion
// @Summary     Update an excursion
// @Description Partial update. "excursionEvents", when present, replaces all events.
// @Tags        Excursions
// @Accept      json,mpfd
// @Produce     json
// @Param       id    path     int true "Excursion ID"
// @Param       body  body     handlers.ExcursionRequest true "Fields to change"
// @Success     200   {object} domain.Excursion
// @Failure     400   {object} handlers.ErrorResponse
// @Failure     401   {object} handlers.ErrorResponse
// @Failure     404   {object} handlers.ErrorResponse
// @Failure     500   {object} handlers.ErrorResponse
// @Router      /excursion/{id} [patch]
func (h *Handlers) UpdateExcursion(c *gin.Context) {
	id, valid := pathID(c, "excursion", "экскурсия")
	if !valid {
		return
	}
	req, upload, done := h.bindExcursion(c)
	if done {
		return
	}
	e, err := h.Excursions.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.discardUpload(c, upload)
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}

// DeleteExcursion godoc
// @ID          deleteExcursion
// @Summary     Delete an excursion
// @Description Removes the excursion, its events and its image. Its key stops being valid.
// @Tags        Excursions
// @Produce     json
// @Param       id   path     int true "Excursion ID"
// @Success     200  {object} handlers.MessageResponse
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /excursion/{id} [delete]
func (h *Handlers) DeleteExcursion(c *gin.Context) {
	id, valid := pathID(c, "excursion", "экскурсия")
	if !valid {
		return
	}
	if err := h.Excursions.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Excursion deleted successfully"})
}

// GenerateKey godoc
// @ID          generateExcursionKey
// @Summary     Generate an excursion key
// @Description Issues a fresh 10-digit key, replacing the previous one. The key is returned as a JSON string.
// @Tags        Excursions
// @Produce     json
// @Param       id   path     int true "Excursion ID"
// @Success     200  {string} string "0123456789"
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse "Excursion not found"
// @Failure     500  {object} handlers.ErrorResponse "Key space exhausted or internal error"
// @Router      /excursion/{id}/key [patch]
func (h *Handlers) GenerateKey(c *gin.Context) {
	id, valid := pathID(c, "excursion", "экскурсия")
	if !valid {
		return
	}
	key, err := h.Keys.GenerateKey(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	ok(c, http.StatusOK, key)
}

// bindExcursion reads the payload from JSON or multipart form. A multipart
// image is stored right away and its URL put into ImgSrc; the returned
// upload must be discarded if the service call fails. done reports that a
// response has already been written.
func (h *Handlers) bindExcursion(c *gin.Context) (req ExcursionRequest, upload *storage.PutResult, done bool) {
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
	if err := excursionFromForm(c, &req); err != nil {
		badRequest(c, err.Error(), "Некорректное значение поля формы")
		return req, nil, true
	}

	upload, done = h.storeImage(c)
	if upload != nil {
		req.ImgSrc = &upload.URL
	}
	return req, upload, done
}

func excursionFromForm(c *gin.Context, req *ExcursionRequest) error {
	req.Name = formString(c, "name")
	req.City = formString(c, "city")
	req.Info = formString(c, "info")
	req.ImgSrc = formString(c, "imgSrc")

	var err error
	if req.PersonsAmount, err = formInt(c, "personsAmount"); err != nil {
		return err
	}
	if req.AccompanistsAmount, err = formInt(c, "accompanistsAmount"); err != nil {
		return err
	}
	if s := formString(c, "price"); s != nil {
		v, perr := strconv.ParseFloat(strings.TrimSpace(*s), 64)
		if perr != nil {
			return fieldError("price")
		}
		req.Price = &v
	}
	if s := formString(c, "categoryId"); s != nil {
		v, perr := strconv.ParseUint(strings.TrimSpace(*s), 10, 32)
		if perr != nil {
			return fieldError("categoryId")
		}
		id := uint(v)
		req.CategoryID = &id
	}
	if s := formString(c, "excursionEvents"); s != nil {
		events := []services.EventInput{}
		if strings.TrimSpace(*s) != "" {
			if err := json.Unmarshal([]byte(*s), &events); err != nil {
				return fieldError("excursionEvents")
			}
		}
		req.Events = events
	}
	return nil
}

// storeImage saves the optional image part. Missing file → (nil, false).
func (h *Handlers) storeImage(c *gin.Context) (*storage.PutResult, bool) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		return nil, false
	}
	if h.Images == nil {
		fail(c, http.StatusBadRequest, ErrCodeUploadRejected, "image uploads are disabled", "Загрузка изображений отключена")
		return nil, true
	}
	res, err := h.putFile(c, fh)
	if err != nil {
		failErr(c, err)
		return nil, true
	}
	return &res, false
}

func (h *Handlers) putFile(c *gin.Context, fh *multipart.FileHeader) (storage.PutResult, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.PutResult{}, err
	}
	defer f.Close()
	return h.Images.Put(c.Request.Context(), f, storage.PutInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	})
}

// discardUpload removes a file stored for a request that then failed.
func (h *Handlers) discardUpload(c *gin.Context, upload *storage.PutResult) {
	if upload == nil || h.Images == nil {
		return
	}
	if err := h.Images.Delete(c.Request.Context(), upload.Key); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("image", upload.Key).Msg("failed to discard upload")
	}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formString returns the raw value of a form field, or nil when the field is
// absent.
func formString(c *gin.Context, key string) *string {
	v, present := c.GetPostForm(key)
	if !present {
		return nil
	}
	return &v
}

func formInt(c *gin.Context, key string) (*int, error) {
	s := formString(c, key)
	if s == nil {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil, fieldError(key)
	}
	return &v, nil
}

type fieldError string

func (f fieldError) Error() string { return "invalid value for " + string(f) }
