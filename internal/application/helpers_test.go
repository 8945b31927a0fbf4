package application

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/infrastructure/memory"
)

var testNow = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *memory.Store
	loans   *LoanService
	users   *UserService
	catalog *CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.NewStore()
	loans := NewLoanService(store, logger, nil, nil)
	loans.Now = func() time.Time { return testNow }

	return &testEnv{
		store:   store,
		loans:   loans,
		users:   NewUserService(store, logger),
		catalog: NewCatalogService(store, logger, nil, "", nil, ""),
	}
}

var testCPFs = map[string]string{
	"student":   "11144477735",
	"professor": "12345678909",
	"visitor":   "52998224725",
	"librarian": "98765432100",
}

func (e *testEnv) registerUser(t *testing.T, category string) *entity.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterUserInput{
		Name:      "Test " + category,
		CPF:       testCPFs[category],
		BirthDate: time.Date(1995, time.May, 20, 0, 0, 0, 0, time.UTC),
		Category:  category,
		Email:     category + "@example.edu.br",
	})
	require.NoError(t, err)
	return u
}

var itemSeq int

func (e *testEnv) addItem(t *testing.T, copies int) *entity.CatalogItem {
	t.Helper()
	itemSeq++
	it, err := e.catalog.Add(context.Background(), AddItemInput{
		Code:        fmt.Sprintf("TST-%04d", itemSeq),
		Title:       fmt.Sprintf("Title %d", itemSeq),
		Author:      "Author",
		TotalCopies: copies,
	})
	require.NoError(t, err)
	return it
}
