package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/unilib-br/unilib/internal/application"
	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
	"github.com/unilib-br/unilib/pkg/response"
	"github.com/unilib-br/unilib/pkg/validation"
)

type LoanHandler struct {
	Svc    *application.LoanService
	Logger *logrus.Logger
}

func NewLoanHandler(svc *application.LoanService, logger *logrus.Logger) *LoanHandler {
	return &LoanHandler{Svc: svc, Logger: logger}
}

type createLoanRequest struct {
	UserID    string `json:"user_id" binding:"required,uuid"`
	ItemID    string `json:"item_id" binding:"required,uuid"`
	Librarian string `json:"librarian" binding:"required"`
}

type returnLoanRequest struct {
	Librarian string `json:"librarian" binding:"required"`
}

func loanView(l *entity.Loan) gin.H {
	v := gin.H{
		"id":          l.ID,
		"user_id":     l.UserID,
		"item_id":     l.ItemID,
		"loan_date":   l.LoanDate,
		"due_date":    l.DueDate,
		"return_date": l.ReturnDate,
		"status":      l.Status,
		"librarian":   l.Librarian,
		"created_at":  l.CreatedAt,
		"updated_at":  l.UpdatedAt,
	}
	return v
}

func loanDetailView(d *entity.LoanDetail) gin.H {
	v := loanView(&d.Loan)
	if d.User != nil {
		v["user"] = gin.H{
			"id":       d.User.ID,
			"name":     d.User.Name,
			"cpf":      validation.FormatCPF(d.User.CPF),
			"category": d.User.Category,
			"email":    d.User.Email,
		}
	}
	if d.Item != nil {
		v["item"] = gin.H{
			"id":     d.Item.ID,
			"code":   d.Item.Code,
			"title":  d.Item.Title,
			"author": d.Item.Author,
		}
	}
	return v
}

func (h *LoanHandler) Create(c *gin.Context) {
	var req createLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	loan, err := h.Svc.Create(c.Request.Context(), req.UserID, req.ItemID, req.Librarian)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, loanView(loan))
}

func (h *LoanHandler) Return(c *gin.Context) {
	var req returnLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	loan, err := h.Svc.Return(c.Request.Context(), c.Param("id"), req.Librarian)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, loanView(loan))
}

func (h *LoanHandler) List(c *gin.Context) {
	f := repository.LoanFilter{
		UserID: c.Query("user_id"),
		ItemID: c.Query("item_id"),
		Status: entity.LoanStatus(c.Query("status")),
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.From = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.To = t
		}
	}

	loans, err := h.Svc.Query(c.Request.Context(), f)
	if err != nil {
		serviceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(loans))
	for i := range loans {
		out = append(out, loanDetailView(&loans[i]))
	}
	response.Success(c, http.StatusOK, out)
}

func (h *LoanHandler) Sweep(c *gin.Context) {
	swept, err := h.Svc.SweepOverdue(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(swept))
	for i := range swept {
		out = append(out, loanDetailView(&swept[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"swept": len(swept), "loans": out})
}

func (h *LoanHandler) Stats(c *gin.Context) {
	stats, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
