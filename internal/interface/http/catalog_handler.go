package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/unilib-br/unilib/internal/application"
	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
	"github.com/unilib-br/unilib/pkg/response"
	"github.com/unilib-br/unilib/pkg/validation"
)

const maxCoverSize = 5 << 20 // 5 MiB

type CatalogHandler struct {
	Svc    *application.CatalogService
	Logger *logrus.Logger
}

func NewCatalogHandler(svc *application.CatalogService, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{Svc: svc, Logger: logger}
}

type addItemRequest struct {
	Code        string `json:"code" binding:"required"`
	ISBN        string `json:"isbn" binding:"omitempty,isbn_any"`
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	Category    string `json:"category"`
	TotalCopies int    `json:"total_copies" binding:"required,gt=0"`
}

type updateQuantityRequest struct {
	TotalCopies int `json:"total_copies" binding:"required,gte=0"`
}

func itemView(it *entity.CatalogItem) gin.H {
	return gin.H{
		"id":               it.ID,
		"code":             it.Code,
		"isbn":             validation.FormatISBN(it.ISBN),
		"title":            it.Title,
		"author":           it.Author,
		"category":         it.Category,
		"total_copies":     it.TotalCopies,
		"available_copies": it.AvailableCopies,
		"borrowed_copies":  it.BorrowedCopies,
		"cover_url":        it.CoverURL,
		"created_at":       it.CreatedAt,
		"updated_at":       it.UpdatedAt,
	}
}

func (h *CatalogHandler) Add(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	it, err := h.Svc.Add(c.Request.Context(), application.AddItemInput{
		Code:        req.Code,
		ISBN:        req.ISBN,
		Title:       req.Title,
		Author:      req.Author,
		Category:    req.Category,
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, itemView(it))
}

func (h *CatalogHandler) List(c *gin.Context) {
	f := repository.ItemFilter{
		Title:    c.Query("title"),
		Author:   c.Query("author"),
		Category: c.Query("category"),
		Code:     c.Query("code"),
		ISBN:     c.Query("isbn"),
	}
	if v := c.Query("available"); v != "" {
		available := v == "true"
		f.Available = &available
	}

	items, err := h.Svc.Query(c.Request.Context(), f)
	if err != nil {
		serviceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, itemView(&items[i]))
	}
	response.Success(c, http.StatusOK, out)
}

func (h *CatalogHandler) Get(c *gin.Context) {
	it, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, itemView(it))
}

func (h *CatalogHandler) UpdateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	it, err := h.Svc.UpdateQuantity(c.Request.Context(), c.Param("id"), req.TotalCopies)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, itemView(it))
}

func (h *CatalogHandler) Remove(c *gin.Context) {
	if err := h.Svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *CatalogHandler) Stats(c *gin.Context) {
	stats, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *CatalogHandler) UploadCover(c *gin.Context) {
	fh, err := c.FormFile("cover")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", map[string]string{"cover": "is required"})
		return
	}
	if fh.Size > maxCoverSize {
		response.Error(c, http.StatusBadRequest, "file too large", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadCover(c.Request.Context(), c.Param("id"), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cover_url": url})
}

func (h *CatalogHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error(c, http.StatusBadRequest, "invalid payload", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits)
}
