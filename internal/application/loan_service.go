package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
	"github.com/unilib-br/unilib/pkg/helpers"
	"github.com/unilib-br/unilib/pkg/mailer"
)

const loanStatsCacheKey = "loans:stats"

// LoanService is the loan eligibility and lifecycle engine. It is the
// sole writer of Loan records and the sole mutator of the catalog
// counter pair; both mutations always happen inside one atomic block.
type LoanService struct {
	Store   repository.Store
	Logger  *logrus.Logger
	Redis   *redis.Client
	Notices *helpers.RabbitPublisher

	// Now is the clock; tests override it.
	Now func() time.Time
}

func NewLoanService(store repository.Store, logger *logrus.Logger, rdb *redis.Client, notices *helpers.RabbitPublisher) *LoanService {
	return &LoanService{Store: store, Logger: logger, Redis: rdb, Notices: notices, Now: time.Now}
}

// Create runs the eligibility chain and, on success, inserts the loan
// and moves one copy from available to borrowed. The item row is locked
// before the availability check, so concurrent requests for the last
// copy cannot both pass.
func (s *LoanService) Create(ctx context.Context, userID, itemID, librarian string) (*entity.Loan, error) {
	var created *entity.Loan

	err := s.Store.RunAtomically(ctx, func(st repository.Store) error {
		// Locking the user row serializes eligibility against a
		// concurrent deactivation of the same user.
		user, err := st.Users().GetForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if !user.Active {
			return ErrUserInactive
		}

		item, err := st.Items().GetForUpdate(ctx, itemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		if item.AvailableCopies <= 0 {
			return ErrItemUnavailable
		}

		active, err := st.Loans().CountActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		limit := user.Category.LoanLimit()
		if active >= limit {
			return &LoanLimitError{Limit: limit}
		}

		now := s.Now()
		loan := &entity.Loan{
			ID:        uuid.NewString(),
			UserID:    userID,
			ItemID:    itemID,
			LoanDate:  now,
			DueDate:   user.Category.DueDate(now),
			Status:    entity.LoanActive,
			Librarian: librarian,
		}
		if err := st.Loans().Create(ctx, loan); err != nil {
			return err
		}
		if err := st.Items().AdjustCounters(ctx, itemID, -1, +1); err != nil {
			return err
		}
		created = loan
		return nil
	})
	if err != nil {
		return nil, s.fail("create loan", err, logrus.Fields{"user_id": userID, "item_id": itemID})
	}

	s.invalidateStats(ctx)
	return created, nil
}

// Return marks the loan returned and gives the copy back to the pool.
// Idempotence guard: a loan transitions to returned exactly once; a
// second attempt fails without touching the counters. Loans already
// swept to overdue can still be returned.
func (s *LoanService) Return(ctx context.Context, loanID, librarian string) (*entity.Loan, error) {
	var returned *entity.Loan

	err := s.Store.RunAtomically(ctx, func(st repository.Store) error {
		loan, err := st.Loans().GetByID(ctx, loanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if loan.Status == entity.LoanReturned || loan.ReturnDate != nil {
			return ErrLoanReturned
		}

		now := s.Now()
		loan.Status = entity.LoanReturned
		loan.ReturnDate = &now
		loan.Librarian = loan.Librarian + " / return: " + librarian
		if err := st.Loans().Update(ctx, loan); err != nil {
			return err
		}
		if err := st.Items().AdjustCounters(ctx, loan.ItemID, +1, -1); err != nil {
			return err
		}
		returned = loan
		return nil
	})
	if err != nil {
		return nil, s.fail("return loan", err, logrus.Fields{"loan_id": loanID})
	}

	s.invalidateStats(ctx)
	return returned, nil
}

// Query lists loans enriched with their user and item. Overdue is
// derived at read time: an active loan past due is reported as overdue
// whether or not a sweep has persisted the transition.
func (s *LoanService) Query(ctx context.Context, f repository.LoanFilter) ([]entity.LoanDetail, error) {
	now := s.Now()

	// Stored status can lag the calendar between sweeps, so active and
	// overdue filters both fetch broadly and match on the derived
	// status. An unswept past-due loan is overdue, not active.
	repoFilter := f
	byDerived := f.Status == entity.LoanActive || f.Status == entity.LoanOverdue
	if byDerived {
		repoFilter.Status = ""
	}

	loans, err := s.Store.Loans().List(ctx, repoFilter)
	if err != nil {
		return nil, s.fail("query loans", err, nil)
	}

	out := loans[:0]
	for _, d := range loans {
		d.Status = d.EffectiveStatus(now)
		if byDerived && d.Status != f.Status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// SweepOverdue persists the overdue transition for every active loan
// past its due date and queues one notice per affected user. Runs on
// demand and, when configured, on a timer.
func (s *LoanService) SweepOverdue(ctx context.Context) ([]entity.LoanDetail, error) {
	var swept []entity.LoanDetail

	err := s.Store.RunAtomically(ctx, func(st repository.Store) error {
		due, err := st.Loans().ListDuePast(ctx, s.Now())
		if err != nil {
			return err
		}
		for i := range due {
			loan := due[i].Loan
			loan.Status = entity.LoanOverdue
			if err := st.Loans().Update(ctx, &loan); err != nil {
				return err
			}
			due[i].Status = entity.LoanOverdue
		}
		swept = due
		return nil
	})
	if err != nil {
		return nil, s.fail("sweep overdue", err, nil)
	}

	s.publishNotices(ctx, swept)
	s.invalidateStats(ctx)
	return swept, nil
}

// Stats returns loan counts per stored status, cached briefly in Redis.
func (s *LoanService) Stats(ctx context.Context) (*entity.LoanStats, error) {
	if s.Redis != nil {
		var cached entity.LoanStats
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, loanStatsCacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	stats, err := s.Store.Loans().Stats(ctx)
	if err != nil {
		return nil, s.fail("loan stats", err, nil)
	}

	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, loanStatsCacheKey, stats, 30*time.Second); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("loan stats cache write failed")
		}
	}
	return stats, nil
}

func (s *LoanService) publishNotices(ctx context.Context, overdue []entity.LoanDetail) {
	if s.Notices == nil {
		return
	}
	for _, d := range overdue {
		if d.User == nil || d.User.Email == "" || d.Item == nil {
			continue
		}
		job := mailer.NoticeJob{
			To:       d.User.Email,
			UserName: d.User.Name,
			Title:    d.Item.Title,
			Code:     d.Item.Code,
			DueDate:  d.DueDate,
		}
		if err := s.Notices.PublishJSON(ctx, job); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("loan_id", d.ID).Warn("overdue notice publish failed")
		}
	}
}

func (s *LoanService) invalidateStats(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, loanStatsCacheKey); err != nil && s.Logger != nil {
		s.Logger.WithError(err).Warn("loan stats cache invalidation failed")
	}
}

// fail passes domain rejections through untouched and masks anything
// else as the generic internal error after logging it.
func (s *LoanService) fail(op string, err error, fields logrus.Fields) error {
	if IsDomainError(err) {
		return err
	}
	if s.Logger != nil {
		helpers.LogError(s.Logger, op+" failed", err, fields)
	}
	return ErrInternal
}
