package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilib-br/unilib/internal/application"
	"github.com/unilib-br/unilib/internal/infrastructure/memory"
	"github.com/unilib-br/unilib/internal/interface/middleware"
	"github.com/unilib-br/unilib/pkg/validation"
)

type envelope struct {
	Status    int               `json:"status"`
	RequestID string            `json:"request_id"`
	Success   bool              `json:"success"`
	Data      json.RawMessage   `json:"data"`
	Error     string            `json:"error"`
	Details   map[string]string `json:"details"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.NewStore()
	loans := application.NewLoanService(store, logger, nil, nil)
	loans.Now = func() time.Time { return time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC) }
	users := application.NewUserService(store, logger)
	catalog := application.NewCatalogService(store, logger, nil, "", nil, "")

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	api := r.Group("/api")

	uh := NewUserHandler(users, logger)
	api.POST("/users", uh.Register)
	api.GET("/users", uh.List)
	api.GET("/users/:id", uh.Get)
	api.PUT("/users/:id", uh.Update)
	api.POST("/users/:id/deactivate", uh.Deactivate)
	api.GET("/users/:id/history", uh.History)

	ch := NewCatalogHandler(catalog, logger)
	api.POST("/items", ch.Add)
	api.GET("/items", ch.List)
	api.GET("/items/stats", ch.Stats)
	api.GET("/items/:id", ch.Get)
	api.PUT("/items/:id/quantity", ch.UpdateQuantity)
	api.DELETE("/items/:id", ch.Remove)

	lh := NewLoanHandler(loans, logger)
	api.POST("/loans", lh.Create)
	api.GET("/loans", lh.List)
	api.GET("/loans/stats", lh.Stats)
	api.POST("/loans/sweep", lh.Sweep)
	api.POST("/loans/:id/return", lh.Return)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func registerTestUser(t *testing.T, r *gin.Engine, cpf, category string) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/users", gin.H{
		"name":       "Ana Souza",
		"cpf":        cpf,
		"birth_date": "1998-03-14",
		"category":   category,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var data struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.ID
}

func addTestItem(t *testing.T, r *gin.Engine, code string, copies int) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/items", gin.H{
		"code":         code,
		"title":        "Clean Code",
		"author":       "Robert C. Martin",
		"total_copies": copies,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var data struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.ID
}

func TestRegisterUserEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/users", gin.H{
		"name":       "Ana Souza",
		"cpf":        "111.444.777-35",
		"birth_date": "1998-03-14",
		"category":   "student",
		"email":      "ana@example.edu.br",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "111.444.777-35", data["cpf"])
	assert.Equal(t, true, data["active"])
}

func TestRegisterUserValidation(t *testing.T) {
	r := newTestRouter(t)

	// invalid cpf is caught by the binding tag before the service runs
	w, env := doJSON(t, r, http.MethodPost, "/api/users", gin.H{
		"name":       "Ana",
		"cpf":        "111.111.111-11",
		"birth_date": "1998-03-14",
		"category":   "student",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "invalid payload", env.Error)
	assert.Equal(t, "must be a valid national id", env.Details["cpf"])

	// missing fields surface per-field details
	w, env = doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Details, "cpf")
	assert.Contains(t, env.Details, "category")
}

func TestRegisterDuplicateCPFEndpoint(t *testing.T) {
	r := newTestRouter(t)
	registerTestUser(t, r, "11144477735", "student")

	w, env := doJSON(t, r, http.MethodPost, "/api/users", gin.H{
		"name":       "Someone Else",
		"cpf":        "111.444.777-35",
		"birth_date": "1990-01-01",
		"category":   "professor",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "national id already registered", env.Error)
}

func TestUserNotFoundEndpoint(t *testing.T) {
	r := newTestRouter(t)
	w, env := doJSON(t, r, http.MethodGet, "/api/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user not found", env.Error)
}

func TestLoanLifecycleEndpoints(t *testing.T) {
	r := newTestRouter(t)
	userID := registerTestUser(t, r, "11144477735", "visitor")
	itemID := addTestItem(t, r, "LIB-1", 1)

	w, env := doJSON(t, r, http.MethodPost, "/api/loans", gin.H{
		"user_id":   userID,
		"item_id":   itemID,
		"librarian": "paulo",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var loan map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &loan))
	assert.Equal(t, "active", loan["status"])
	loanID := loan["id"].(string)

	// the single copy is gone
	w, env = doJSON(t, r, http.MethodPost, "/api/loans", gin.H{
		"user_id":   userID,
		"item_id":   itemID,
		"librarian": "paulo",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "item not available for loan", env.Error)

	w, env = doJSON(t, r, http.MethodPost, "/api/loans/"+loanID+"/return", gin.H{"librarian": "maria"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &loan))
	assert.Equal(t, "returned", loan["status"])

	w, env = doJSON(t, r, http.MethodPost, "/api/loans/"+loanID+"/return", gin.H{"librarian": "maria"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "loan already returned", env.Error)
}

func TestLoanLimitEndpoint(t *testing.T) {
	r := newTestRouter(t)
	userID := registerTestUser(t, r, "11144477735", "visitor")
	first := addTestItem(t, r, "LIB-1", 1)
	second := addTestItem(t, r, "LIB-2", 1)

	w, _ := doJSON(t, r, http.MethodPost, "/api/loans", gin.H{
		"user_id": userID, "item_id": first, "librarian": "paulo",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(t, r, http.MethodPost, "/api/loans", gin.H{
		"user_id": userID, "item_id": second, "librarian": "paulo",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "limit of 1 loans reached", env.Error)
}

func TestUpdateQuantityEndpoint(t *testing.T) {
	r := newTestRouter(t)
	userID := registerTestUser(t, r, "11144477735", "student")
	itemID := addTestItem(t, r, "LIB-1", 2)

	w, _ := doJSON(t, r, http.MethodPost, "/api/loans", gin.H{
		"user_id": userID, "item_id": itemID, "librarian": "paulo",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(t, r, http.MethodPut, "/api/items/"+itemID+"/quantity", gin.H{"total_copies": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var item map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, float64(0), item["available_copies"])

	// negative totals fail the binding gte check
	w, _ = doJSON(t, r, http.MethodPut, "/api/items/"+itemID+"/quantity", gin.H{"total_copies": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeactivateBlockedEndpoint(t *testing.T) {
	r := newTestRouter(t)
	userID := registerTestUser(t, r, "11144477735", "student")
	itemID := addTestItem(t, r, "LIB-1", 1)

	w, _ := doJSON(t, r, http.MethodPost, "/api/loans", gin.H{
		"user_id": userID, "item_id": itemID, "librarian": "paulo",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(t, r, http.MethodPost, "/api/users/"+userID+"/deactivate", gin.H{
		"reason":     "graduated",
		"changed_by": "paulo",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "user has active loans", env.Error)
}

func TestStatsEndpoints(t *testing.T) {
	r := newTestRouter(t)
	userID := registerTestUser(t, r, "11144477735", "student")
	itemID := addTestItem(t, r, "LIB-1", 3)

	w, _ := doJSON(t, r, http.MethodPost, "/api/loans", gin.H{
		"user_id": userID, "item_id": itemID, "librarian": "paulo",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(t, r, http.MethodGet, "/api/loans/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loanStats map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &loanStats))
	assert.Equal(t, 1, loanStats["active"])

	w, env = doJSON(t, r, http.MethodGet, "/api/items/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var itemStats map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &itemStats))
	assert.Equal(t, 3, itemStats["total_copies"])
	assert.Equal(t, 2, itemStats["available_copies"])
}
