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

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type registerUserRequest struct {
	Name         string `json:"name" binding:"required,min=2"`
	CPF          string `json:"cpf" binding:"required,cpf"`
	BirthDate    string `json:"birth_date" binding:"required,datetime=2006-01-02"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Category     string `json:"category" binding:"required,oneof=student professor visitor librarian"`
	Email        string `json:"email" binding:"omitempty,email"`
	Registration string `json:"registration"`
	Department   string `json:"department"`
}

type updateUserRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=2"`
	BirthDate    *string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	Category     *string `json:"category" binding:"omitempty,oneof=student professor visitor librarian"`
	Email        *string `json:"email"`
	Registration *string `json:"registration"`
	Department   *string `json:"department"`
	ChangedBy    string  `json:"changed_by" binding:"required"`
}

type deactivateUserRequest struct {
	Reason    string `json:"reason" binding:"required"`
	ChangedBy string `json:"changed_by" binding:"required"`
}

func userView(u *entity.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"name":         u.Name,
		"cpf":          validation.FormatCPF(u.CPF),
		"birth_date":   u.BirthDate.Format("2006-01-02"),
		"phone":        validation.FormatPhone(u.Phone),
		"address":      u.Address,
		"category":     u.Category,
		"email":        u.Email,
		"registration": u.Registration,
		"department":   u.Department,
		"active":       u.Active,
		"created_at":   u.CreatedAt,
		"updated_at":   u.UpdatedAt,
	}
}

func historyView(h entity.HistoryEntry) gin.H {
	return gin.H{
		"id":         h.ID,
		"user_id":    h.UserID,
		"field":      h.Field,
		"old_value":  h.OldValue,
		"new_value":  h.NewValue,
		"changed_by": h.ChangedBy,
		"changed_at": h.ChangedAt,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	birth, _ := time.Parse("2006-01-02", req.BirthDate)

	u, err := h.Svc.Register(c.Request.Context(), application.RegisterUserInput{
		Name:         req.Name,
		CPF:          req.CPF,
		BirthDate:    birth,
		Phone:        req.Phone,
		Address:      req.Address,
		Category:     req.Category,
		Email:        req.Email,
		Registration: req.Registration,
		Department:   req.Department,
	})
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, userView(u))
}

func (h *UserHandler) List(c *gin.Context) {
	// A CPF lookup targets one user; serve it as a point read.
	if cpf := c.Query("cpf"); cpf != "" {
		u, err := h.Svc.GetByCPF(c.Request.Context(), cpf)
		if err != nil {
			serviceError(c, err)
			return
		}
		response.Success(c, http.StatusOK, []gin.H{userView(u)})
		return
	}

	f := repository.UserFilter{
		Name:         c.Query("name"),
		Category:     entity.Category(c.Query("category")),
		Registration: c.Query("registration"),
	}
	if v := c.Query("active"); v != "" {
		active := v == "true"
		f.Active = &active
	}

	users, err := h.Svc.Query(c.Request.Context(), f)
	if err != nil {
		serviceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userView(&users[i]))
	}
	response.Success(c, http.StatusOK, out)
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, userView(u))
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	in := application.UpdateUserInput{
		Name:         req.Name,
		Phone:        req.Phone,
		Address:      req.Address,
		Category:     req.Category,
		Email:        req.Email,
		Registration: req.Registration,
		Department:   req.Department,
	}
	if req.BirthDate != nil {
		birth, _ := time.Parse("2006-01-02", *req.BirthDate)
		in.BirthDate = &birth
	}

	u, err := h.Svc.Update(c.Request.Context(), c.Param("id"), in, req.ChangedBy)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, userView(u))
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	var req deactivateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.Deactivate(c.Request.Context(), c.Param("id"), req.Reason, req.ChangedBy); err != nil {
		serviceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}

func (h *UserHandler) History(c *gin.Context) {
	entries, err := h.Svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyView(e))
	}
	response.Success(c, http.StatusOK, out)
}
