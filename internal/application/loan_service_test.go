package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
)

func TestCreateLoan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "student")
	item := env.addItem(t, 2)

	loan, err := env.loans.Create(ctx, user.ID, item.ID, "paulo")
	require.NoError(t, err)

	assert.Equal(t, entity.LoanActive, loan.Status)
	assert.Equal(t, testNow, loan.LoanDate)
	assert.Equal(t, testNow.AddDate(0, 0, 7), loan.DueDate)
	assert.Equal(t, "paulo", loan.Librarian)
	assert.Nil(t, loan.ReturnDate)

	got, err := env.catalog.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)
	assert.Equal(t, 1, got.BorrowedCopies)
	assert.Equal(t, 2, got.TotalCopies)
}

func TestCreateLoanProfessorDueDate(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "professor")
	item := env.addItem(t, 1)

	loan, err := env.loans.Create(context.Background(), user.ID, item.ID, "paulo")
	require.NoError(t, err)
	assert.Equal(t, testNow.AddDate(0, 0, 14), loan.DueDate)
}

func TestCreateLoanRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "student")
	item := env.addItem(t, 1)

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.loans.Create(ctx, "missing", item.ID, "paulo")
		assert.EqualError(t, err, "user not found")
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := env.loans.Create(ctx, user.ID, "missing", "paulo")
		assert.EqualError(t, err, "item not found")
	})

	t.Run("inactive user", func(t *testing.T) {
		require.NoError(t, env.users.Deactivate(ctx, user.ID, "left the university", "paulo"))
		_, err := env.loans.Create(ctx, user.ID, item.ID, "paulo")
		assert.EqualError(t, err, "user inactive")
	})
}

func TestCreateLoanNoCopiesLeft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.registerUser(t, "student")
	visitor := env.registerUser(t, "visitor")
	item := env.addItem(t, 1)

	_, err := env.loans.Create(ctx, student.ID, item.ID, "paulo")
	require.NoError(t, err)

	_, err = env.loans.Create(ctx, visitor.ID, item.ID, "paulo")
	assert.EqualError(t, err, "item not available for loan")

	// counters untouched by the rejected attempt
	got, err := env.catalog.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableCopies)
	assert.Equal(t, 1, got.BorrowedCopies)
}

func TestCreateLoanLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	visitor := env.registerUser(t, "visitor")
	first := env.addItem(t, 1)
	second := env.addItem(t, 1)

	_, err := env.loans.Create(ctx, visitor.ID, first.ID, "paulo")
	require.NoError(t, err)

	_, err = env.loans.Create(ctx, visitor.ID, second.ID, "paulo")
	assert.EqualError(t, err, "limit of 1 loans reached")

	var limitErr *LoanLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 1, limitErr.Limit)
}

func TestCreateLoanConcurrentLastCopy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.registerUser(t, "student")
	professor := env.registerUser(t, "professor")
	item := env.addItem(t, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []string{student.ID, professor.ID} {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			_, errs[i] = env.loans.Create(ctx, uid, item.ID, "paulo")
		}(i, uid)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.EqualError(t, err, "item not available for loan")
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the two concurrent requests must fail")

	got, err := env.catalog.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableCopies)
	assert.Equal(t, 1, got.BorrowedCopies)
}

func TestReturnLoan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "student")
	item := env.addItem(t, 1)

	loan, err := env.loans.Create(ctx, user.ID, item.ID, "paulo")
	require.NoError(t, err)

	returned, err := env.loans.Return(ctx, loan.ID, "maria")
	require.NoError(t, err)
	assert.Equal(t, entity.LoanReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, testNow, *returned.ReturnDate)
	assert.Equal(t, "paulo / return: maria", returned.Librarian)

	got, err := env.catalog.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)
	assert.Equal(t, 0, got.BorrowedCopies)
}

func TestReturnLoanTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "student")
	item := env.addItem(t, 1)

	loan, err := env.loans.Create(ctx, user.ID, item.ID, "paulo")
	require.NoError(t, err)

	_, err = env.loans.Return(ctx, loan.ID, "maria")
	require.NoError(t, err)

	_, err = env.loans.Return(ctx, loan.ID, "maria")
	assert.EqualError(t, err, "loan already returned")

	// the double return must not inflate the counters
	got, err := env.catalog.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)
	assert.Equal(t, 0, got.BorrowedCopies)
}

func TestReturnUnknownLoan(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.loans.Return(context.Background(), "missing", "maria")
	assert.EqualError(t, err, "loan not found")
}

func TestReturnSweptOverdueLoan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "visitor")
	item := env.addItem(t, 1)

	loan, err := env.loans.Create(ctx, user.ID, item.ID, "paulo")
	require.NoError(t, err)

	env.loans.Now = func() time.Time { return testNow.AddDate(0, 0, 10) }
	swept, err := env.loans.SweepOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, swept, 1)

	returned, err := env.loans.Return(ctx, loan.ID, "maria")
	require.NoError(t, err)
	assert.Equal(t, entity.LoanReturned, returned.Status)

	got, err := env.catalog.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)
}

func TestSweepOverdue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	visitor := env.registerUser(t, "visitor")
	professor := env.registerUser(t, "professor")
	first := env.addItem(t, 1)
	second := env.addItem(t, 1)

	_, err := env.loans.Create(ctx, visitor.ID, first.ID, "paulo")
	require.NoError(t, err)
	_, err = env.loans.Create(ctx, professor.ID, second.ID, "paulo")
	require.NoError(t, err)

	// five days on: the visitor loan (3 days) is past due, the
	// professor loan (14 days) is not
	env.loans.Now = func() time.Time { return testNow.AddDate(0, 0, 5) }

	swept, err := env.loans.SweepOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, swept, 1)
	assert.Equal(t, visitor.ID, swept[0].UserID)
	assert.Equal(t, entity.LoanOverdue, swept[0].Status)

	// the transition is persisted
	details, err := env.store.Loans().List(ctx, repository.LoanFilter{UserID: visitor.ID})
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, entity.LoanOverdue, details[0].Status)

	// a second sweep finds nothing new
	swept, err = env.loans.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, swept)
}

func TestQueryLoansDerivedOverdue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	visitor := env.registerUser(t, "visitor")
	item := env.addItem(t, 1)

	_, err := env.loans.Create(ctx, visitor.ID, item.ID, "paulo")
	require.NoError(t, err)

	// past due but not swept: the query still reports overdue
	env.loans.Now = func() time.Time { return testNow.AddDate(0, 0, 5) }

	overdue, err := env.loans.Query(ctx, repository.LoanFilter{Status: entity.LoanOverdue})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, entity.LoanOverdue, overdue[0].Status)

	// and the same loan no longer matches an "active" query, even
	// though its stored status still says active
	active, err := env.loans.Query(ctx, repository.LoanFilter{Status: entity.LoanActive})
	require.NoError(t, err)
	assert.Empty(t, active)

	// a returned filter matches neither
	returned, err := env.loans.Query(ctx, repository.LoanFilter{Status: entity.LoanReturned})
	require.NoError(t, err)
	assert.Empty(t, returned)
}

func TestQueryLoansFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.registerUser(t, "student")
	professor := env.registerUser(t, "professor")
	item := env.addItem(t, 5)

	_, err := env.loans.Create(ctx, student.ID, item.ID, "paulo")
	require.NoError(t, err)
	_, err = env.loans.Create(ctx, professor.ID, item.ID, "paulo")
	require.NoError(t, err)

	byUser, err := env.loans.Query(ctx, repository.LoanFilter{UserID: student.ID})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	require.NotNil(t, byUser[0].User)
	assert.Equal(t, student.Name, byUser[0].User.Name)
	require.NotNil(t, byUser[0].Item)
	assert.Equal(t, item.Code, byUser[0].Item.Code)

	byItem, err := env.loans.Query(ctx, repository.LoanFilter{ItemID: item.ID})
	require.NoError(t, err)
	assert.Len(t, byItem, 2)

	none, err := env.loans.Query(ctx, repository.LoanFilter{
		From: testNow.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLoanStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.registerUser(t, "student")
	item := env.addItem(t, 3)

	first, err := env.loans.Create(ctx, student.ID, item.ID, "paulo")
	require.NoError(t, err)
	_, err = env.loans.Create(ctx, student.ID, item.ID, "paulo")
	require.NoError(t, err)
	_, err = env.loans.Return(ctx, first.ID, "maria")
	require.NoError(t, err)

	stats, err := env.loans.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Returned)
	assert.Equal(t, 0, stats.Overdue)
}
